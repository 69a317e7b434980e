package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/microsoft/portal-ux-agent/pkg/models"
)

// StdioServer speaks newline-delimited JSON-RPC over a reader/writer pair,
// one message per line. Diagnostics must go to stderr; the writer carries
// protocol frames only.
type StdioServer struct {
	conn *Conn
	in   io.Reader

	writeMu sync.Mutex
	out     io.Writer
}

// NewStdioServer wraps a connection around the given pipe endpoints.
func NewStdioServer(svc *Service, serverName, version string, in io.Reader, out io.Writer) *StdioServer {
	return &StdioServer{
		conn: NewConn(svc, serverName, version),
		in:   in,
		out:  out,
	}
}

// Serve reads requests until EOF or context cancellation. Malformed lines
// get a parse-error response with a null id rather than killing the stream.
func (s *StdioServer) Serve(ctx context.Context) error {
	defer s.conn.Close()

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req models.MCPRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			log.Warn().Err(err).Msg("stdio: malformed request line")
			if werr := s.write(errResponse(nil, CodeParseError, "Parse error", err.Error())); werr != nil {
				return werr
			}
			continue
		}

		resp := s.conn.Handle(ctx, &req)
		if resp == nil {
			continue // notification
		}
		if err := s.write(resp); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stdio read: %w", err)
	}
	return nil
}

func (s *StdioServer) write(resp *models.MCPResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("stdio marshal: %w", err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("stdio write: %w", err)
	}
	return nil
}
