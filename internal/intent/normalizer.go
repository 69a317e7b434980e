package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microsoft/portal-ux-agent/internal/components"
	"github.com/microsoft/portal-ux-agent/internal/templates"
	"github.com/microsoft/portal-ux-agent/pkg/models"
	"github.com/rs/zerolog/log"
)

// Normalizer converts raw generator payloads into validated Intents.
type Normalizer struct {
	registry *templates.Registry
	gen      Generator
	timeout  time.Duration
}

// NewNormalizer builds a Normalizer. timeout bounds the generator call; a
// non-positive value means no bound beyond the caller's context.
func NewNormalizer(reg *templates.Registry, gen Generator, timeout time.Duration) *Normalizer {
	return &Normalizer{registry: reg, gen: gen, timeout: timeout}
}

// ProcessMessage runs the external generator for the user message and
// normalizes its payload. Generator failures (including timeout and a
// top-level response that is not JSON) surface as *GenerationError;
// validation failures as *InvalidError. No retries at this layer.
func (n *Normalizer) ProcessMessage(ctx context.Context, message string) (models.Intent, error) {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	raw, err := n.gen.Generate(ctx, message)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.Intent{}, &GenerationError{Err: fmt.Errorf("intent generation timed out after %s", n.timeout)}
		}
		return models.Intent{}, &GenerationError{Err: err}
	}
	return n.Normalize(raw)
}

// rawPayload is the lenient top-level shape. Field types are interface{} so
// a model that returns the wrong type for one field does not sink parsing of
// the rest.
type rawPayload struct {
	Template   interface{} `json:"template"`
	Components interface{} `json:"components"`
	Styles     interface{} `json:"styles"`
	Scripts    interface{} `json:"scripts"`
}

// Normalize validates and repairs an untrusted intent payload:
//
//  1. Unknown or missing template falls back to the default template.
//  2. Component entries that are not objects or have no kind are dropped;
//     missing slots derive from the template's primary slot for the kind;
//     missing ids are generated; library and props default.
//  3. Asset lists are trimmed and de-duplicated.
//  4. The sanitized batch goes through the component validator; rejection
//     there fails the whole intent.
//
// Normalizing an already-normalized intent is a no-op.
func (n *Normalizer) Normalize(raw []byte) (models.Intent, error) {
	var payload rawPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.Intent{}, &GenerationError{Err: fmt.Errorf("malformed intent payload: %w", err)}
	}

	template := strings.TrimSpace(asString(payload.Template))
	if !n.registry.Has(template) {
		if template != "" {
			log.Warn().Str("template", template).Str("fallback", templates.DefaultTemplateID).Msg("unknown template in intent")
		}
		template = templates.DefaultTemplateID
	}

	var specs []models.ComponentSpec
	if list, ok := payload.Components.([]interface{}); ok {
		for i, entry := range list {
			obj, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			kind := strings.TrimSpace(asString(obj["kind"]))
			if kind == "" {
				continue
			}
			slot := strings.TrimSpace(asString(obj["slot"]))
			if slot == "" {
				slot = n.registry.PrimarySlot(template, models.ComponentKind(kind))
			}
			id := strings.TrimSpace(asString(obj["id"]))
			if id == "" {
				id = fmt.Sprintf("%s-%d", kind, i)
			}
			library := strings.TrimSpace(asString(obj["library"]))
			if library == "" {
				library = models.LibraryShadcn
			}
			props, ok := obj["props"].(map[string]interface{})
			if !ok {
				props = map[string]interface{}{}
			}
			specs = append(specs, models.ComponentSpec{
				ID:      id,
				Kind:    models.ComponentKind(kind),
				Library: library,
				Slot:    slot,
				Props:   props,
			})
		}
	}

	validated, err := components.Validate(specs)
	if err != nil {
		return models.Intent{}, &InvalidError{Err: err}
	}

	return models.Intent{
		Template:   template,
		Components: validated,
		Styles:     uniqueStrings(payload.Styles),
		Scripts:    uniqueStrings(payload.Scripts),
	}, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// uniqueStrings trims entries, drops empties and non-strings, and
// de-duplicates by exact match preserving first-seen order.
func uniqueStrings(v interface{}) []string {
	out := []string{}
	list, ok := v.([]interface{})
	if !ok {
		return out
	}
	seen := make(map[string]bool, len(list))
	for _, entry := range list {
		s := strings.TrimSpace(asString(entry))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
