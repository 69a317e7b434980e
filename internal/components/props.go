package components

import (
	"encoding/json"
	"fmt"
)

// Typed props for each component kind. Field sets mirror what the kind
// renderers consume; unknown fields in incoming payloads are dropped during
// decoding. Each struct normalizes itself: required checks plus defaults.

// Option is one selectable entry for Select and similar controls.
type Option struct {
	Label string      `json:"label"`
	Value interface{} `json:"value"`
}

type MetricCardProps struct {
	Title string      `json:"title"`
	Value interface{} `json:"value"` // string or number
	Trend string      `json:"trend"`
	Icon  string      `json:"icon,omitempty"`
}

func (p *MetricCardProps) normalize() error {
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !isStringOrNumber(p.Value) {
		return fmt.Errorf("value must be a string or number")
	}
	if p.Trend == "" {
		p.Trend = "neutral"
	}
	if !oneOf(p.Trend, "up", "down", "neutral") {
		return fmt.Errorf("trend %q is not one of up, down, neutral", p.Trend)
	}
	return nil
}

type ChartProps struct {
	Type     string        `json:"type"`
	Title    string        `json:"title,omitempty"`
	Data     []interface{} `json:"data"`
	XKey     string        `json:"xKey,omitempty"`
	YKeys    []string      `json:"yKeys,omitempty"`
	ValueKey string        `json:"valueKey,omitempty"`
	LabelKey string        `json:"labelKey,omitempty"`
	Stacked  bool          `json:"stacked,omitempty"`
	Colors   []string      `json:"colors,omitempty"`
}

func (p *ChartProps) normalize() error {
	if p.Type == "" {
		p.Type = "line"
	}
	if !oneOf(p.Type, "line", "bar", "pie", "area", "radar", "radial") {
		return fmt.Errorf("chart type %q is not supported", p.Type)
	}
	if p.Data == nil {
		p.Data = []interface{}{}
	}
	return nil
}

type TableProps struct {
	Columns  []interface{} `json:"columns"`
	Data     []interface{} `json:"data"`
	Sortable *bool         `json:"sortable"`
}

func (p *TableProps) normalize() error {
	if p.Columns == nil {
		p.Columns = []interface{}{}
	}
	if p.Data == nil {
		p.Data = []interface{}{}
	}
	if p.Sortable == nil {
		t := true
		p.Sortable = &t
	}
	return nil
}

type CardProps struct {
	Title   string        `json:"title"`
	Content string        `json:"content"`
	Actions []interface{} `json:"actions"`
}

func (p *CardProps) normalize() error {
	if p.Title == "" {
		p.Title = "Card Title"
	}
	if p.Actions == nil {
		p.Actions = []interface{}{}
	}
	return nil
}

type NavItemProps struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Icon  string `json:"icon,omitempty"`
}

func (p *NavItemProps) normalize() error {
	if p.Label == "" {
		return fmt.Errorf("label is required")
	}
	if p.Href == "" {
		p.Href = "#"
	}
	return nil
}

type ListColumnProps struct {
	Title string        `json:"title"`
	Cards []interface{} `json:"cards"`
	Limit *int          `json:"limit,omitempty"`
}

func (p *ListColumnProps) normalize() error {
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.Cards == nil {
		p.Cards = []interface{}{}
	}
	return nil
}

type ListCardProps struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	Priority    string `json:"priority"`
}

func (p *ListCardProps) normalize() error {
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.Priority == "" {
		p.Priority = "medium"
	}
	if !oneOf(p.Priority, "low", "medium", "high") {
		return fmt.Errorf("priority %q is not one of low, medium, high", p.Priority)
	}
	return nil
}

type InputProps struct {
	Label       string      `json:"label,omitempty"`
	Type        string      `json:"type"`
	Value       interface{} `json:"value,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	Disabled    bool        `json:"disabled"`
}

func (p *InputProps) normalize() error {
	if p.Type == "" {
		p.Type = "text"
	}
	if !oneOf(p.Type, "text", "password", "email", "number", "search") {
		return fmt.Errorf("input type %q is not supported", p.Type)
	}
	if p.Value != nil && !isStringOrNumber(p.Value) {
		return fmt.Errorf("value must be a string or number")
	}
	return nil
}

type TextareaProps struct {
	Label       string `json:"label,omitempty"`
	Value       string `json:"value,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Rows        int    `json:"rows"`
	Disabled    bool   `json:"disabled"`
}

func (p *TextareaProps) normalize() error {
	if p.Rows == 0 {
		p.Rows = 4
	}
	if p.Rows < 1 {
		return fmt.Errorf("rows must be positive")
	}
	return nil
}

type SelectProps struct {
	Label       string      `json:"label,omitempty"`
	Value       interface{} `json:"value,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	Disabled    bool        `json:"disabled"`
	Multiple    bool        `json:"multiple"`
	Options     []Option    `json:"options"`
}

func (p *SelectProps) normalize() error {
	if p.Options == nil {
		p.Options = []Option{}
	}
	for i, o := range p.Options {
		if o.Label == "" {
			return fmt.Errorf("options[%d].label is required", i)
		}
	}
	return nil
}

type CheckboxProps struct {
	Label    string `json:"label"`
	Checked  bool   `json:"checked"`
	Disabled bool   `json:"disabled"`
}

func (p *CheckboxProps) normalize() error {
	if p.Label == "" {
		return fmt.Errorf("label is required")
	}
	return nil
}

type SwitchProps struct {
	Label    string `json:"label,omitempty"`
	Checked  bool   `json:"checked"`
	Disabled bool   `json:"disabled"`
}

func (p *SwitchProps) normalize() error { return nil }

type AlertProps struct {
	Variant     string `json:"variant"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

func (p *AlertProps) normalize() error {
	if p.Variant == "" {
		p.Variant = "info"
	}
	if !oneOf(p.Variant, "info", "success", "warning", "destructive") {
		return fmt.Errorf("alert variant %q is not supported", p.Variant)
	}
	return nil
}

type SearchBoxProps struct {
	Label       string `json:"label,omitempty"`
	Value       string `json:"value,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Disabled    bool   `json:"disabled"`
}

func (p *SearchBoxProps) normalize() error { return nil }

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func isStringOrNumber(v interface{}) bool {
	switch v.(type) {
	case string, float64, int, int64, json.Number:
		return true
	default:
		return false
	}
}
