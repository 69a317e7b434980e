// Package components validates untrusted component spec batches against the
// closed set of component kinds and their per-kind props schemas.
//
// Validation is all-or-nothing: a single malformed element rejects the whole
// batch. Callers that need leniency sanitize before calling (the intent
// normalizer does). Validation is pure — specs are copied, never mutated.
package components

import (
	"encoding/json"
	"fmt"

	"github.com/microsoft/portal-ux-agent/pkg/models"
)

// ValidationError describes why a batch was rejected.
type ValidationError struct {
	Index  int
	Kind   models.ComponentKind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("component[%d] (%s): %s", e.Index, e.Kind, e.Reason)
}

// normalizer is the per-kind typed props contract.
type normalizer interface {
	normalize() error
}

// propsFor returns a fresh typed props value for the kind, or nil for an
// unknown kind.
func propsFor(kind models.ComponentKind) normalizer {
	switch kind {
	case models.KindMetricCard:
		return &MetricCardProps{}
	case models.KindChart:
		return &ChartProps{}
	case models.KindTable:
		return &TableProps{}
	case models.KindCard:
		return &CardProps{}
	case models.KindNavItem:
		return &NavItemProps{}
	case models.KindListColumn:
		return &ListColumnProps{}
	case models.KindListCard:
		return &ListCardProps{}
	case models.KindInput:
		return &InputProps{}
	case models.KindTextarea:
		return &TextareaProps{}
	case models.KindSelect:
		return &SelectProps{}
	case models.KindCheckbox:
		return &CheckboxProps{}
	case models.KindSwitch:
		return &SwitchProps{}
	case models.KindAlert:
		return &AlertProps{}
	case models.KindSearchBox:
		return &SearchBoxProps{}
	default:
		return nil
	}
}

// KnownKind reports whether the kind is part of the closed component set.
func KnownKind(kind models.ComponentKind) bool {
	return propsFor(kind) != nil
}

// Validate checks every spec in the batch and returns a normalized copy:
// props decoded into the kind's typed schema (unknown fields dropped,
// defaults applied) and re-emitted. Any failure rejects the entire batch.
func Validate(specs []models.ComponentSpec) ([]models.ComponentSpec, error) {
	out := make([]models.ComponentSpec, len(specs))
	seen := make(map[string]int, len(specs))
	for i, spec := range specs {
		norm, err := validateOne(i, spec)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[norm.ID]; dup {
			return nil, &ValidationError{
				Index:  i,
				Kind:   spec.Kind,
				Reason: fmt.Sprintf("id %q duplicates component[%d]", norm.ID, prev),
			}
		}
		seen[norm.ID] = i
		out[i] = norm
	}
	return out, nil
}

func validateOne(index int, spec models.ComponentSpec) (models.ComponentSpec, error) {
	fail := func(reason string) (models.ComponentSpec, error) {
		return models.ComponentSpec{}, &ValidationError{Index: index, Kind: spec.Kind, Reason: reason}
	}

	typed := propsFor(spec.Kind)
	if typed == nil {
		return fail("unknown component kind")
	}
	if spec.ID == "" {
		return fail("id is required")
	}
	if spec.Slot == "" {
		return fail("slot is required")
	}
	if spec.Library == "" {
		spec.Library = models.LibraryShadcn
	}
	if spec.Library != models.LibraryShadcn {
		return fail(fmt.Sprintf("library %q is not supported", spec.Library))
	}

	if err := decodeProps(spec.Props, typed); err != nil {
		return fail("malformed props: " + err.Error())
	}
	if err := typed.normalize(); err != nil {
		return fail(err.Error())
	}
	norm, err := encodeProps(typed)
	if err != nil {
		return fail("encode props: " + err.Error())
	}
	spec.Props = norm
	return spec, nil
}

// decodeProps round-trips the loose props map into the typed struct.
// Fields the struct does not declare are silently dropped.
func decodeProps(props map[string]interface{}, into normalizer) error {
	if props == nil {
		props = map[string]interface{}{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, into)
}

func encodeProps(typed normalizer) (map[string]interface{}, error) {
	raw, err := json.Marshal(typed)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
