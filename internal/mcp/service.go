// Package mcp exposes the create_portal_ui tool over the Model Context
// Protocol: a shared tool service plus JSON-RPC dispatch reused by the
// stdio, WebSocket, and HTTP transports.
package mcp

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/microsoft/portal-ux-agent/internal/intent"
	"github.com/microsoft/portal-ux-agent/internal/store"
	"github.com/microsoft/portal-ux-agent/internal/templates"
	"github.com/microsoft/portal-ux-agent/pkg/models"
)

// ToolName is the single tool this server publishes.
const ToolName = "create_portal_ui"

const toolDescription = "Create a portal UI based on user requirements"

const argSchemaJSON = `{
  "type": "object",
  "properties": {
    "message": {"type": "string", "description": "User message describing the UI to create"},
    "userId": {"type": "string", "description": "Optional user id (defaults to \"default\")"}
  },
  "required": ["message"]
}`

// ErrToolNotFound reports a tools/call naming a tool this server does not
// publish.
type ErrToolNotFound struct {
	Name string
}

func (e ErrToolNotFound) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Name)
}

// ErrInvalidArgs reports tool arguments rejected by the input schema.
type ErrInvalidArgs struct {
	Err error
}

func (e ErrInvalidArgs) Error() string {
	return fmt.Sprintf("invalid tool arguments: %v", e.Err)
}

func (e ErrInvalidArgs) Unwrap() error { return e.Err }

// Publisher emits session lifecycle events. *events.Bus satisfies it.
type Publisher interface {
	Publish(sessionID, eventType string, payload map[string]interface{})
}

// Service runs the tool pipeline shared by every transport: validate
// arguments, process the user message into a normalized intent, materialize
// a composition, persist it, and publish the session's lifecycle events.
type Service struct {
	registry      *templates.Registry
	normalizer    *intent.Normalizer
	store         store.CompositionStore
	bus           Publisher
	baseURL       string
	defaultUserID string
	argSchema     *jsonschema.Schema
}

// NewService wires the tool pipeline. baseURL is the externally reachable
// prefix used to build view URLs, e.g. "http://localhost:3000".
func NewService(reg *templates.Registry, norm *intent.Normalizer, st store.CompositionStore, bus Publisher, baseURL, defaultUserID string) (*Service, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	schemaURL := "https://portal-ux-agent.schemas.local/create_portal_ui.schema.json"
	if err := c.AddResource(schemaURL, strings.NewReader(argSchemaJSON)); err != nil {
		return nil, fmt.Errorf("tool schema load failed: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("tool schema compile failed: %w", err)
	}
	return &Service{
		registry:      reg,
		normalizer:    norm,
		store:         st,
		bus:           bus,
		baseURL:       strings.TrimRight(baseURL, "/"),
		defaultUserID: defaultUserID,
		argSchema:     compiled,
	}, nil
}

// ListTools returns the published tool descriptors.
func (s *Service) ListTools() []models.MCPToolInfo {
	return []models.MCPToolInfo{
		{
			Name:        ToolName,
			Description: toolDescription,
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"message": map[string]interface{}{
						"type":        "string",
						"description": "User message describing the UI to create",
					},
					"userId": map[string]interface{}{
						"type":        "string",
						"description": `Optional user id (defaults to "default")`,
					},
				},
				"required": []interface{}{"message"},
			},
		},
	}
}

// CallTool executes a named tool. Unknown names yield ErrToolNotFound and
// schema-rejected arguments yield ErrInvalidArgs; pipeline failures come
// back as the underlying typed error with the store untouched.
func (s *Service) CallTool(ctx context.Context, name string, args map[string]interface{}) (*models.ToolCallResult, error) {
	if name != ToolName {
		return nil, ErrToolNotFound{Name: name}
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	if err := s.argSchema.Validate(args); err != nil {
		return nil, ErrInvalidArgs{Err: err}
	}

	message, _ := args["message"].(string)
	if strings.TrimSpace(message) == "" {
		return nil, ErrInvalidArgs{Err: fmt.Errorf("message is required")}
	}
	userID := s.defaultUserID
	if v, ok := args["userId"].(string); ok && strings.TrimSpace(v) != "" {
		userID = strings.TrimSpace(v)
	}

	return s.CreatePortalUI(ctx, message, userID)
}

// CreatePortalUI runs the full pipeline for one user message. Events are
// published only after the composition is durably stored, in order:
// intent:completed, composition:created, render:ready.
func (s *Service) CreatePortalUI(ctx context.Context, message, userID string) (*models.ToolCallResult, error) {
	in, err := s.normalizer.ProcessMessage(ctx, message)
	if err != nil {
		return nil, err
	}

	tmpl, err := s.registry.Get(in.Template)
	if err != nil {
		return nil, err
	}

	comp := &models.Composition{
		SessionID:    uuid.New().String(),
		UserID:       userID,
		Template:     in.Template,
		Components:   in.Components,
		Styles:       mergeAssets(tmpl.Styles, in.Styles),
		Scripts:      mergeAssets(tmpl.Scripts, in.Scripts),
		TemplateData: tmpl,
		UserMessage:  message,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Set(ctx, comp); err != nil {
		return nil, err
	}

	viewURL := fmt.Sprintf("%s/ui/%s", s.baseURL, url.PathEscape(userID))

	s.bus.Publish(comp.SessionID, models.EventIntentCompleted, map[string]interface{}{
		"template":   in.Template,
		"components": len(in.Components),
	})
	s.bus.Publish(comp.SessionID, models.EventCompositionCreated, map[string]interface{}{
		"template":   comp.Template,
		"components": comp.Components,
	})
	s.bus.Publish(comp.SessionID, models.EventRenderReady, map[string]interface{}{
		"viewUrl": viewURL,
	})

	log.Info().
		Str("userId", userID).
		Str("sessionId", comp.SessionID).
		Str("template", comp.Template).
		Int("components", len(comp.Components)).
		Msg("composition created")

	return &models.ToolCallResult{
		Success:     true,
		UserID:      userID,
		SessionID:   comp.SessionID,
		ViewURL:     viewURL,
		Composition: comp,
	}, nil
}

// mergeAssets appends intent assets after template assets, deduplicated.
func mergeAssets(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, s := range append(append([]string{}, base...), extra...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
