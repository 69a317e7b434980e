// Package server provides the public entry point for initializing the
// portal UX agent.
//
// It lives in pkg/ (not internal/) so embedders can compose the HTTP handler
// or the stdio server into their own processes:
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(":3000", srv.Handler)
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/microsoft/portal-ux-agent/internal/api"
	"github.com/microsoft/portal-ux-agent/internal/config"
	"github.com/microsoft/portal-ux-agent/internal/events"
	"github.com/microsoft/portal-ux-agent/internal/intent"
	"github.com/microsoft/portal-ux-agent/internal/mcp"
	"github.com/microsoft/portal-ux-agent/internal/store"
	"github.com/microsoft/portal-ux-agent/internal/telemetry"
	"github.com/microsoft/portal-ux-agent/internal/templates"
	"github.com/microsoft/portal-ux-agent/pkg/models"
)

// ServerName identifies this service in MCP handshakes and health payloads.
const ServerName = "portal-ux-agent"

// Server holds the initialized portal UX agent.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Service is the shared tool service, used directly by the stdio
	// transport.
	Service *mcp.Service

	// Store holds per-user compositions.
	Store store.CompositionStore

	// Bus carries per-session stream events.
	Bus *events.Bus

	// Config is the loaded configuration.
	Config *config.Config

	// ShutdownFunc should be called on graceful shutdown to flush telemetry.
	ShutdownFunc func(context.Context) error
}

// New initializes all components from environment configuration.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the agent with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	shutdown, err := telemetry.Init(cfg.Telemetry, cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	registry := templates.NewRegistry()
	compStore := store.NewMemoryStore(cfg.Store.TTL, cfg.Store.SweepInterval)
	bus := events.NewBus()
	log.Info().Msg("✅ In-memory composition store initialized")

	// No canned fallback: without a configured model, tool calls fail with a
	// generation error instead of silently degrading.
	var gen intent.Generator
	if cfg.Intent.Azure() {
		gen = intent.NewAzureGenerator(cfg.Intent, registry)
		log.Info().Str("deployment", cfg.Intent.AzureDeployment).Msg("✅ Azure OpenAI intent generator initialized")
	} else {
		gen = intent.GeneratorFunc(func(context.Context, string) ([]byte, error) {
			return nil, errors.New("azure openai is not configured")
		})
		log.Warn().Msg("⚠️ No intent generator configured; tool calls will fail")
	}
	normalizer := intent.NewNormalizer(registry, gen, cfg.Intent.Timeout)

	svc, err := mcp.NewService(registry, normalizer, compStore, bus, cfg.PublicBaseURL, cfg.DefaultUserID)
	if err != nil {
		return nil, fmt.Errorf("init tool service: %w", err)
	}
	log.Info().Msg("✅ Tool service initialized")

	if cfg.SeedDemo {
		seedDemoComposition(ctx, cfg, registry, compStore)
	}

	return &Server{
		Handler:      api.NewRouter(cfg, svc, compStore, bus),
		Service:      svc,
		Store:        compStore,
		Bus:          bus,
		Config:       cfg,
		ShutdownFunc: shutdown,
	}, nil
}

// seedDemoComposition stores a small dashboard for the default user so the
// read path works out of the box.
func seedDemoComposition(ctx context.Context, cfg *config.Config, registry *templates.Registry, s store.CompositionStore) {
	tmpl, err := registry.Get(templates.DefaultTemplateID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to seed demo composition")
		return
	}

	comp := &models.Composition{
		SessionID: uuid.New().String(),
		UserID:    cfg.DefaultUserID,
		Template:  tmpl.ID,
		Components: []models.ComponentSpec{
			{
				ID:      "demo-revenue",
				Kind:    models.KindMetricCard,
				Library: models.LibraryShadcn,
				Slot:    "kpiRow",
				Props:   map[string]interface{}{"title": "Revenue", "value": "$1.2M", "trend": "up"},
			},
			{
				ID:      "demo-users",
				Kind:    models.KindMetricCard,
				Library: models.LibraryShadcn,
				Slot:    "kpiRow",
				Props:   map[string]interface{}{"title": "Active Users", "value": "8,421", "trend": "up"},
			},
			{
				ID:      "demo-activity",
				Kind:    models.KindCard,
				Library: models.LibraryShadcn,
				Slot:    "cardsGrid",
				Props:   map[string]interface{}{"title": "Welcome", "content": "Ask for a dashboard, portal, or board to get started."},
			},
		},
		Styles:       tmpl.Styles,
		Scripts:      tmpl.Scripts,
		TemplateData: tmpl,
		UserMessage:  "demo seed",
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Set(ctx, comp); err != nil {
		log.Warn().Err(err).Msg("Failed to seed demo composition")
		return
	}
	log.Info().Str("userId", cfg.DefaultUserID).Msg("✅ Demo composition seeded")
}
