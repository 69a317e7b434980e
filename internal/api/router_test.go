package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/microsoft/portal-ux-agent/internal/config"
	"github.com/microsoft/portal-ux-agent/internal/events"
	"github.com/microsoft/portal-ux-agent/internal/intent"
	"github.com/microsoft/portal-ux-agent/internal/mcp"
	"github.com/microsoft/portal-ux-agent/internal/store"
	"github.com/microsoft/portal-ux-agent/internal/templates"
	"github.com/microsoft/portal-ux-agent/pkg/models"
)

const testIntentJSON = `{
  "template": "dashboard",
  "components": [
    {"id": "revenue", "kind": "MetricCard", "slot": "kpiRow", "props": {"title": "Revenue", "value": "$1.2M", "trend": "up"}}
  ]
}`

func newTestRouter(t *testing.T) (http.Handler, *events.Bus) {
	t.Helper()
	cfg := &config.Config{Version: "1.0.0-test", PublicBaseURL: "http://localhost:3000", DefaultUserID: "default"}
	reg := templates.NewRegistry()
	st := store.NewMemoryStore(0, 0)
	t.Cleanup(func() { st.Close() })
	bus := events.NewBus()
	gen := intent.GeneratorFunc(func(ctx context.Context, message string) ([]byte, error) {
		return []byte(testIntentJSON), nil
	})
	norm := intent.NewNormalizer(reg, gen, time.Second)
	svc, err := mcp.NewService(reg, norm, st, bus, cfg.PublicBaseURL, cfg.DefaultUserID)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewRouter(cfg, svc, st, bus), bus
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndVersion(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	var health map[string]string
	json.Unmarshal(rec.Body.Bytes(), &health)
	if health["status"] != "ok" || health["service"] != "portal-ux-agent" {
		t.Errorf("health = %v", health)
	}

	rec = doJSON(t, router, "GET", "/version", nil)
	var version map[string]string
	json.Unmarshal(rec.Body.Bytes(), &version)
	if version["version"] != "1.0.0-test" {
		t.Errorf("version = %v", version)
	}
}

func TestListToolsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, "GET", "/tools", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Tools []models.MCPToolInfo `json:"tools"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Tools) != 1 || resp.Tools[0].Name != mcp.ToolName {
		t.Errorf("tools = %+v", resp.Tools)
	}
}

func TestToolCallAndReadPath(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, "POST", "/tools/call", map[string]interface{}{
		"name":      mcp.ToolName,
		"arguments": map[string]interface{}{"message": "revenue dashboard", "userId": "alice"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("tools/call status = %d: %s", rec.Code, rec.Body.String())
	}
	var result models.ToolCallResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Success || result.UserID != "alice" {
		t.Fatalf("result = %+v", result)
	}

	rec = doJSON(t, router, "GET", "/api/compositions/alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("compositions status = %d", rec.Code)
	}
	var comp models.Composition
	if err := json.Unmarshal(rec.Body.Bytes(), &comp); err != nil {
		t.Fatalf("decode composition: %v", err)
	}
	if comp.SessionID != result.SessionID || comp.Template != "dashboard" {
		t.Errorf("composition = %+v", comp)
	}

	for _, path := range []string{"/ui/alice", "/api/ui-html/alice"} {
		rec = doJSON(t, router, "GET", path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s content-type = %q", path, ct)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "<!DOCTYPE html>") || !strings.Contains(body, "Revenue") {
			t.Errorf("%s body missing rendered content", path)
		}
	}
}

func TestReadPathNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/ui/nobody", "/api/ui-html/nobody", "/api/compositions/nobody"} {
		rec := doJSON(t, router, "GET", path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", path, rec.Code)
		}
		var resp map[string]string
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["error"] != "Composition not found" {
			t.Errorf("%s error = %q", path, resp["error"])
		}
	}
}

func TestToolCallErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, "POST", "/tools/call", map[string]interface{}{
		"name":      "make_coffee",
		"arguments": map[string]interface{}{"message": "espresso"},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown tool status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, router, "POST", "/tools/call", map[string]interface{}{
		"name":      mcp.ToolName,
		"arguments": map[string]interface{}{},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing message status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest("POST", "/tools/call", strings.NewReader("not json"))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", rec2.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("OPTIONS", "/tools/call", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK && rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q", got)
	}
}

func TestStreamDeliversSessionEvents(t *testing.T) {
	router, bus := newTestRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stream/sess-42")
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	opening, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read opening: %v", err)
	}
	if !strings.Contains(opening, "connected to session sess-42") {
		t.Fatalf("opening frame = %q", opening)
	}

	// The subscription registers just after the opening comment is written;
	// republish until the frame arrives.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				bus.Publish("sess-42", models.EventRenderReady, map[string]interface{}{"viewUrl": "/ui/alice"})
			}
		}
	}()

	deadline := time.After(5 * time.Second)
	lines := make(chan string)
	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				close(lines)
				return
			}
			lines <- line
		}
	}()

	var sawEvent, sawData bool
	for !(sawEvent && sawData) {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatal("stream closed before event arrived")
			}
			if strings.HasPrefix(line, "event: "+models.EventRenderReady) {
				sawEvent = true
			}
			if sawEvent && strings.HasPrefix(line, "data: ") && strings.Contains(line, "/ui/alice") {
				sawData = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for stream event")
		}
	}
}

func TestWebSocketSessionLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	dialer := websocket.Dialer{Subprotocols: []string{"mcp"}}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if got := conn.Subprotocol(); got != "mcp" {
		t.Errorf("subprotocol = %q, want mcp", got)
	}

	send := func(v interface{}) {
		t.Helper()
		if err := conn.WriteJSON(v); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	read := func() map[string]interface{} {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}

	send(map[string]interface{}{"jsonrpc": "2.0", "method": "initialize", "id": 1})
	initResp := read()
	if initResp["error"] != nil {
		t.Fatalf("initialize error: %v", initResp["error"])
	}
	send(map[string]interface{}{"jsonrpc": "2.0", "method": "notifications/initialized"})

	send(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      mcp.ToolName,
			"arguments": map[string]interface{}{"message": "revenue dashboard"},
		},
		"id": 2,
	})

	callResp := read()
	if id, _ := callResp["id"].(float64); id != 2 {
		t.Fatalf("response id = %v, want 2", callResp["id"])
	}
	if callResp["error"] != nil {
		t.Fatalf("tools/call error: %v", callResp["error"])
	}
	result, _ := callResp["result"].(map[string]interface{})
	content, _ := result["content"].([]interface{})
	if len(content) != 1 {
		t.Fatalf("content = %v", result)
	}
	first, _ := content[0].(map[string]interface{})
	text, _ := first["text"].(string)
	var tool models.ToolCallResult
	if err := json.Unmarshal([]byte(text), &tool); err != nil || !tool.Success {
		t.Fatalf("tool result text = %q (err %v)", text, err)
	}
}
