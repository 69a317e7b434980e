package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microsoft/portal-ux-agent/internal/config"
	"github.com/microsoft/portal-ux-agent/internal/templates"
	"github.com/rs/zerolog/log"
)

// AzureGenerator calls an Azure OpenAI chat-completions deployment and
// returns the model's JSON reply verbatim.
type AzureGenerator struct {
	cfg    config.IntentConfig
	client *http.Client
	prompt string
}

// NewAzureGenerator builds the generator. The system prompt is derived from
// the registry so the model only ever sees templates and slots that exist.
func NewAzureGenerator(cfg config.IntentConfig, reg *templates.Registry) *AzureGenerator {
	return &AzureGenerator{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		prompt: buildSystemPrompt(reg),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages       []chatMessage          `json:"messages"`
	ResponseFormat map[string]interface{} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements Generator.
func (g *AzureGenerator) Generate(ctx context.Context, message string) ([]byte, error) {
	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: g.prompt},
			{Role: "user", Content: "User message: " + message},
		},
		ResponseFormat: map[string]interface{}{"type": "json_object"},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(g.cfg.AzureEndpoint, "/"), g.cfg.AzureDeployment, g.cfg.AzureAPIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", g.cfg.AzureAPIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion request returned %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse completion response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("completion error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	content := stripFences(parsed.Choices[0].Message.Content)
	log.Debug().Int("bytes", len(content)).Msg("intent payload received")
	return []byte(content), nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON in
// one despite the instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// buildSystemPrompt describes the intent JSON contract: available templates,
// their slots with accepted kinds, and the component kind list.
func buildSystemPrompt(reg *templates.Registry) string {
	var b strings.Builder
	b.WriteString(`You are an intent-to-UI planner for a portal UI generator.
Return ONLY one compact JSON object (no prose, no markdown) with this shape:
{
  "template": string,
  "components": [
    {
      "kind": string,
      "slot": string,
      "props": object
    }
  ],
  "styles": string[],
  "scripts": string[]
}

Slots by template:
`)
	for _, t := range reg.List() {
		fmt.Fprintf(&b, "- %s\n", t.ID)
		for _, s := range t.Slots {
			kinds := make([]string, len(s.Accepts))
			for i, k := range s.Accepts {
				kinds[i] = string(k)
			}
			fmt.Fprintf(&b, "  - %s: accepts [%s]\n", s.Name, strings.Join(kinds, ", "))
		}
	}
	b.WriteString(`
Component props (must conform):
- MetricCard: { title: string, value: string|number, trend: "up"|"down"|"neutral", icon?: string }
- Chart: { type: "line"|"bar"|"pie"|"area", title?: string, data: any[] }
- Table: { columns: (string|object)[], data: any[], sortable?: boolean }
- Card: { title?: string, content?: string, actions?: any[] }
- NavItem: { label: string, href?: string, icon?: string }
- ListColumn: { title: string, limit?: number|null, cards: any[] }
- ListCard: { title: string, description?: string, assignee?: string, priority?: "low"|"medium"|"high" }
- Input: { label?: string, type?: "text"|"password"|"email"|"number"|"search", placeholder?: string }
- Textarea: { label?: string, placeholder?: string, rows?: number }
- Select: { label?: string, options: {label: string, value: string|number}[] }
- Checkbox: { label: string, checked?: boolean }
- Switch: { label?: string, checked?: boolean }
- Alert: { variant?: "info"|"success"|"warning"|"destructive", title?: string, description?: string }
- SearchBox: { label?: string, placeholder?: string }

Rules:
- Pick the best template for the request.
- Every component's slot must be valid for the chosen template.
- No explanations or comments, the JSON object only.`)
	return b.String()
}
