package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/microsoft/portal-ux-agent/pkg/models"
)

func runStdio(t *testing.T, input string) []wireResponse {
	t.Helper()
	svc, _ := newTestService(t, staticGenerator(validIntentJSON), &recordingPublisher{})

	var out bytes.Buffer
	srv := NewStdioServer(svc, "portal-ux-agent", "1.0.0", strings.NewReader(input), &out)
	if err := srv.Serve(context.Background()); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	var responses []wireResponse
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp wireResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("output line is not JSON: %q", scanner.Text())
		}
		responses = append(responses, resp)
	}
	return responses
}

// wireResponse decodes responses the way a client sees them.
type wireResponse struct {
	Jsonrpc string           `json:"jsonrpc"`
	Result  json.RawMessage  `json:"result"`
	Error   *models.MCPError `json:"error"`
	ID      interface{}      `json:"id"`
}

func TestStdioFullSession(t *testing.T) {
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","method":"initialize","id":1}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","method":"tools/list","id":2}`,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"create_portal_ui","arguments":{"message":"revenue dashboard"}},"id":3}`,
	}, "\n") + "\n"

	responses := runStdio(t, input)

	// The notification gets no response line.
	if len(responses) != 3 {
		t.Fatalf("got %d responses, want 3", len(responses))
	}
	for i, want := range []float64{1, 2, 3} {
		if responses[i].Error != nil {
			t.Errorf("response %d error: %+v", i, responses[i].Error)
		}
		if id, _ := responses[i].ID.(float64); id != want {
			t.Errorf("response %d id = %v, want %v", i, responses[i].ID, want)
		}
	}

	var callResult models.MCPToolResult
	if err := json.Unmarshal(responses[2].Result, &callResult); err != nil {
		t.Fatalf("tools/call result: %v", err)
	}
	var tool models.ToolCallResult
	if err := json.Unmarshal([]byte(callResult.Content[0].Text), &tool); err != nil {
		t.Fatalf("tool result text: %v", err)
	}
	if !tool.Success {
		t.Errorf("tool result = %+v", tool)
	}
}

func TestStdioMalformedLineDoesNotKillStream(t *testing.T) {
	input := strings.Join([]string{
		`this is not json`,
		`{"jsonrpc":"2.0","method":"ping","id":1}`,
	}, "\n") + "\n"

	responses := runStdio(t, input)

	if len(responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(responses))
	}
	if responses[0].Error == nil || responses[0].Error.Code != CodeParseError {
		t.Errorf("first response = %+v, want parse error", responses[0])
	}
	if responses[0].ID != nil {
		t.Errorf("parse error id = %v, want null", responses[0].ID)
	}
	if responses[1].Error != nil {
		t.Errorf("ping after malformed line failed: %+v", responses[1].Error)
	}
}

func TestStdioBlankLinesIgnored(t *testing.T) {
	input := "\n\n" + `{"jsonrpc":"2.0","method":"ping","id":1}` + "\n\n"

	responses := runStdio(t, input)

	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(responses))
	}
}
