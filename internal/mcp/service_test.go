package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/microsoft/portal-ux-agent/internal/intent"
	"github.com/microsoft/portal-ux-agent/internal/store"
	"github.com/microsoft/portal-ux-agent/internal/templates"
	"github.com/microsoft/portal-ux-agent/pkg/models"
)

const validIntentJSON = `{
  "template": "dashboard",
  "components": [
    {"id": "revenue", "kind": "MetricCard", "slot": "kpiRow", "props": {"title": "Revenue", "value": "$1.2M", "trend": "up"}}
  ]
}`

type recordedEvent struct {
	sessionID string
	eventType string
	payload   map[string]interface{}
}

// recordingPublisher captures publishes and can snapshot store state at
// publish time to check ordering against the write.
type recordingPublisher struct {
	events  []recordedEvent
	onFirst func()
}

func (p *recordingPublisher) Publish(sessionID, eventType string, payload map[string]interface{}) {
	if len(p.events) == 0 && p.onFirst != nil {
		p.onFirst()
	}
	p.events = append(p.events, recordedEvent{sessionID, eventType, payload})
}

func newTestService(t *testing.T, gen intent.Generator, pub Publisher) (*Service, *store.MemoryStore) {
	t.Helper()
	reg := templates.NewRegistry()
	st := store.NewMemoryStore(0, 0)
	t.Cleanup(func() { st.Close() })
	norm := intent.NewNormalizer(reg, gen, time.Second)
	svc, err := NewService(reg, norm, st, pub, "http://localhost:3000", "default")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, st
}

func staticGenerator(payload string) intent.Generator {
	return intent.GeneratorFunc(func(ctx context.Context, message string) ([]byte, error) {
		return []byte(payload), nil
	})
}

func TestCallToolSuccess(t *testing.T) {
	pub := &recordingPublisher{}
	svc, st := newTestService(t, staticGenerator(validIntentJSON), pub)

	result, err := svc.CallTool(context.Background(), ToolName, map[string]interface{}{
		"message": "show me a revenue dashboard",
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.UserID != "default" {
		t.Errorf("userId = %q, want default", result.UserID)
	}
	if result.SessionID == "" {
		t.Error("sessionId empty")
	}
	if result.ViewURL != "http://localhost:3000/ui/default" {
		t.Errorf("viewUrl = %q", result.ViewURL)
	}
	if result.Composition == nil || result.Composition.Template != "dashboard" {
		t.Fatalf("composition = %+v", result.Composition)
	}

	stored, err := st.Get(context.Background(), "default")
	if err != nil {
		t.Fatalf("stored composition: %v", err)
	}
	if stored.SessionID != result.SessionID {
		t.Errorf("stored sessionId = %q, want %q", stored.SessionID, result.SessionID)
	}
	if len(stored.Components) != 1 || stored.Components[0].ID != "revenue" {
		t.Errorf("stored components = %+v", stored.Components)
	}
}

func TestCallToolEventOrderAfterStoreWrite(t *testing.T) {
	pub := &recordingPublisher{}
	svc, st := newTestService(t, staticGenerator(validIntentJSON), pub)

	// The composition must be readable before the first event fires.
	var storedAtFirstEvent bool
	pub.onFirst = func() {
		_, err := st.Get(context.Background(), "default")
		storedAtFirstEvent = err == nil
	}

	result, err := svc.CallTool(context.Background(), ToolName, map[string]interface{}{
		"message": "dashboard please",
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}

	if !storedAtFirstEvent {
		t.Error("first event published before composition was stored")
	}

	want := []string{models.EventIntentCompleted, models.EventCompositionCreated, models.EventRenderReady}
	if len(pub.events) != len(want) {
		t.Fatalf("published %d events, want %d", len(pub.events), len(want))
	}
	for i, evt := range pub.events {
		if evt.eventType != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, evt.eventType, want[i])
		}
		if evt.sessionID != result.SessionID {
			t.Errorf("event[%d] sessionId = %q, want %q", i, evt.sessionID, result.SessionID)
		}
	}
	if pub.events[2].payload["viewUrl"] != result.ViewURL {
		t.Errorf("render:ready payload = %v", pub.events[2].payload)
	}
}

func TestCallToolUnknownTool(t *testing.T) {
	svc, _ := newTestService(t, staticGenerator(validIntentJSON), &recordingPublisher{})

	_, err := svc.CallTool(context.Background(), "make_coffee", map[string]interface{}{"message": "espresso"})

	var notFound ErrToolNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
	if notFound.Name != "make_coffee" {
		t.Errorf("name = %q", notFound.Name)
	}
}

func TestCallToolMissingMessage(t *testing.T) {
	pub := &recordingPublisher{}
	svc, st := newTestService(t, staticGenerator(validIntentJSON), pub)

	for _, args := range []map[string]interface{}{
		nil,
		{},
		{"message": "   "},
		{"message": 42},
	} {
		_, err := svc.CallTool(context.Background(), ToolName, args)
		var invalid ErrInvalidArgs
		if !errors.As(err, &invalid) {
			t.Errorf("args %v: expected ErrInvalidArgs, got %v", args, err)
		}
	}

	if len(pub.events) != 0 {
		t.Errorf("events published on failed calls: %v", pub.events)
	}
	if ids, _ := st.ListUserIDs(context.Background()); len(ids) != 0 {
		t.Errorf("store mutated on failed calls: %v", ids)
	}
}

func TestCallToolExplicitUserID(t *testing.T) {
	svc, st := newTestService(t, staticGenerator(validIntentJSON), &recordingPublisher{})

	result, err := svc.CallTool(context.Background(), ToolName, map[string]interface{}{
		"message": "dashboard",
		"userId":  "alice",
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result.UserID != "alice" {
		t.Errorf("userId = %q, want alice", result.UserID)
	}
	if !strings.HasSuffix(result.ViewURL, "/ui/alice") {
		t.Errorf("viewUrl = %q", result.ViewURL)
	}
	if _, err := st.Get(context.Background(), "alice"); err != nil {
		t.Errorf("composition not stored under alice: %v", err)
	}
}

func TestCallToolGeneratorFailureLeavesStoreUntouched(t *testing.T) {
	pub := &recordingPublisher{}
	gen := intent.GeneratorFunc(func(ctx context.Context, message string) ([]byte, error) {
		return nil, errors.New("upstream unavailable")
	})
	svc, st := newTestService(t, gen, pub)

	_, err := svc.CallTool(context.Background(), ToolName, map[string]interface{}{"message": "dashboard"})

	var genErr *intent.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if ids, _ := st.ListUserIDs(context.Background()); len(ids) != 0 {
		t.Errorf("store mutated on failure: %v", ids)
	}
	if len(pub.events) != 0 {
		t.Errorf("events published on failure: %v", pub.events)
	}
}

func TestCallToolOverwritesPerUser(t *testing.T) {
	svc, st := newTestService(t, staticGenerator(validIntentJSON), &recordingPublisher{})

	first, err := svc.CallTool(context.Background(), ToolName, map[string]interface{}{"message": "one"})
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.CallTool(context.Background(), ToolName, map[string]interface{}{"message": "two"})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first.SessionID == second.SessionID {
		t.Error("sessions should differ per call")
	}

	stored, err := st.Get(context.Background(), "default")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.SessionID != second.SessionID {
		t.Errorf("stored sessionId = %q, want latest %q", stored.SessionID, second.SessionID)
	}
	if ids, _ := st.ListUserIDs(context.Background()); len(ids) != 1 {
		t.Errorf("user ids = %v, want one entry", ids)
	}
}

func TestListTools(t *testing.T) {
	svc, _ := newTestService(t, staticGenerator(validIntentJSON), &recordingPublisher{})

	tools := svc.ListTools()
	if len(tools) != 1 {
		t.Fatalf("tools = %d, want 1", len(tools))
	}
	if tools[0].Name != ToolName {
		t.Errorf("name = %q", tools[0].Name)
	}
	required, _ := tools[0].InputSchema["required"].([]interface{})
	if len(required) != 1 || required[0] != "message" {
		t.Errorf("required = %v", required)
	}
}
