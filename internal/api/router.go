// Package api builds the HTTP surface: tool invocation, the per-user read
// path, the SSE event stream, and the WebSocket upgrade endpoint.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/microsoft/portal-ux-agent/internal/api/handlers"
	"github.com/microsoft/portal-ux-agent/internal/api/middleware"
	"github.com/microsoft/portal-ux-agent/internal/config"
	"github.com/microsoft/portal-ux-agent/internal/events"
	"github.com/microsoft/portal-ux-agent/internal/mcp"
	"github.com/microsoft/portal-ux-agent/internal/store"
)

// NewRouter creates the HTTP router with all routes.
func NewRouter(cfg *config.Config, svc *mcp.Service, st store.CompositionStore, bus *events.Bus) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Telemetry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	h := handlers.New(svc, st, bus)
	ws := mcp.NewWSHandler(svc, "portal-ux-agent", cfg.Version)

	// Health & info
	r.Get("/health", healthHandler)
	r.Get("/version", versionHandler(cfg))

	// Tool surface
	r.Get("/tools", h.ListTools)
	r.Post("/tools/call", h.CallTool)

	// Push stream + socket transport
	r.Get("/stream/{sessionId}", h.Stream)
	r.Get("/ws", ws.ServeHTTP)

	// Read path
	r.Get("/ui/{userId}", h.ViewUI)
	r.Get("/api/ui-html/{userId}", h.ViewUI)
	r.Get("/api/compositions/{userId}", h.GetComposition)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "portal-ux-agent",
	})
}

func versionHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"version": cfg.Version,
			"service": "portal-ux-agent",
		})
	}
}
