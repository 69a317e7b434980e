// Portal UX agent — stdio entry point.
//
// Speaks newline-delimited JSON-RPC on stdin/stdout for clients that spawn
// the agent as a subprocess. All logging goes to stderr so stdout stays a
// clean protocol stream.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/microsoft/portal-ux-agent/internal/mcp"
	"github.com/microsoft/portal-ux-agent/pkg/server"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := server.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}
	defer srv.Store.Close()
	defer srv.ShutdownFunc(ctx)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		cancel()
	}()

	log.Info().Msg("🎨 Portal UX agent serving on stdio")

	stdio := mcp.NewStdioServer(srv.Service, server.ServerName, srv.Config.Version, os.Stdin, os.Stdout)
	if err := stdio.Serve(ctx); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("stdio server failed")
	}
}
