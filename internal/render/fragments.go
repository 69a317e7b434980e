package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/microsoft/portal-ux-agent/pkg/models"
)

// fragmentFunc turns a validated component's props into an HTML fragment.
// Props arrive post-validation, so defaults are already filled in; renderers
// still read defensively because props maps are plain interface{} values.
type fragmentFunc func(spec models.ComponentSpec) string

var fragments = map[models.ComponentKind]fragmentFunc{
	models.KindMetricCard: renderMetricCard,
	models.KindChart:      renderChart,
	models.KindTable:      renderTable,
	models.KindCard:       renderCard,
	models.KindNavItem:    renderNavItem,
	models.KindListColumn: renderListColumn,
	models.KindListCard:   renderListCard,
	models.KindInput:      renderInput,
	models.KindTextarea:   renderTextarea,
	models.KindSelect:     renderSelect,
	models.KindCheckbox:   renderCheckbox,
	models.KindSwitch:     renderSwitch,
	models.KindAlert:      renderAlert,
	models.KindSearchBox:  renderSearchBox,
}

// renderComponent produces the fragment for one component. A panicking
// fragment renderer is contained here; the rest of the document still
// renders and the failure shows up inline.
func renderComponent(spec models.ComponentSpec) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf(`<div class="render-error" data-component-id="%s">render failure: %s</div>`,
				html.EscapeString(spec.ID), html.EscapeString(fmt.Sprint(r)))
		}
	}()

	fn, ok := fragments[spec.Kind]
	if !ok {
		return fmt.Sprintf(`<div class="unknown-component">Unknown component: %s</div>`,
			html.EscapeString(string(spec.Kind)))
	}
	return fn(spec)
}

func propString(spec models.ComponentSpec, key string) string {
	switch v := spec.Props[key].(type) {
	case string:
		return v
	case float64:
		return trimFloat(v)
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case bool:
		return fmt.Sprintf("%t", v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func propBool(spec models.ComponentSpec, key string, def bool) bool {
	if v, ok := spec.Props[key].(bool); ok {
		return v
	}
	return def
}

func propSlice(spec models.ComponentSpec, key string) []interface{} {
	if v, ok := spec.Props[key].([]interface{}); ok {
		return v
	}
	return nil
}

func esc(s string) string { return html.EscapeString(s) }

func renderMetricCard(spec models.ComponentSpec) string {
	trend := propString(spec, "trend")
	if trend == "" {
		trend = "neutral"
	}
	return fmt.Sprintf(`<div class="card kpi-card"><h3>%s</h3><div class="value">%s</div><div class="trend trend-%s">%s</div></div>`,
		esc(propString(spec, "title")), esc(propString(spec, "value")), esc(trend), esc(trend))
}

func renderChart(spec models.ComponentSpec) string {
	typ := propString(spec, "type")
	if typ == "" {
		typ = "line"
	}
	data := propSlice(spec, "data")
	return fmt.Sprintf(`<div class="card chart-card"><h3>%s</h3><div class="chart-placeholder"><p>Chart (%s) - %d data points</p></div></div>`,
		esc(propString(spec, "title")), esc(typ), len(data))
}

func renderTable(spec models.ComponentSpec) string {
	// Columns arrive as plain names or {key, label} objects.
	var cols []string
	for _, c := range propSlice(spec, "columns") {
		switch v := c.(type) {
		case string:
			cols = append(cols, v)
		case map[string]interface{}:
			if key, ok := v["key"].(string); ok && key != "" {
				cols = append(cols, key)
			} else if label, ok := v["label"].(string); ok && label != "" {
				cols = append(cols, label)
			}
		}
	}
	rows := propSlice(spec, "data")

	var b strings.Builder
	b.WriteString(`<div class="card table-card"><table><thead><tr>`)
	for _, col := range cols {
		fmt.Fprintf(&b, "<th>%s</th>", esc(col))
	}
	b.WriteString(`</tr></thead><tbody>`)
	for _, r := range rows {
		row, _ := r.(map[string]interface{})
		b.WriteString("<tr>")
		for _, col := range cols {
			cell := "-"
			if row != nil {
				if v, ok := row[col]; ok && v != nil {
					cell = fmt.Sprint(v)
				}
			}
			fmt.Fprintf(&b, "<td>%s</td>", esc(cell))
		}
		b.WriteString("</tr>")
	}
	b.WriteString(`</tbody></table></div>`)
	return b.String()
}

func renderCard(spec models.ComponentSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="card"><h3>%s</h3><p>%s</p>`,
		esc(propString(spec, "title")), esc(propString(spec, "content")))
	if actions := propSlice(spec, "actions"); len(actions) > 0 {
		b.WriteString(`<div class="card-actions">`)
		for _, a := range actions {
			label := "Action"
			if m, ok := a.(map[string]interface{}); ok {
				if l, ok := m["label"].(string); ok && l != "" {
					label = l
				}
			}
			fmt.Fprintf(&b, "<button>%s</button>", esc(label))
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func renderNavItem(spec models.ComponentSpec) string {
	href := propString(spec, "href")
	if href == "" {
		href = "#"
	}
	return fmt.Sprintf(`<div class="nav-item"><a href="%s">%s</a></div>`,
		esc(href), esc(propString(spec, "label")))
}

func renderListColumn(spec models.ComponentSpec) string {
	cards := propSlice(spec, "cards")
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="board-column"><h4>%s</h4><div class="column-cards">`,
		esc(propString(spec, "title")))
	for _, c := range cards {
		title := "Card"
		if m, ok := c.(map[string]interface{}); ok {
			if t, ok := m["title"].(string); ok && t != "" {
				title = t
			}
		}
		fmt.Fprintf(&b, `<div class="board-card">%s</div>`, esc(title))
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

func renderListCard(spec models.ComponentSpec) string {
	priority := propString(spec, "priority")
	if priority == "" {
		priority = "medium"
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="board-card"><h5>%s</h5>`, esc(propString(spec, "title")))
	if desc := propString(spec, "description"); desc != "" {
		fmt.Fprintf(&b, "<p>%s</p>", esc(desc))
	}
	b.WriteString(`<div class="card-meta">`)
	if assignee := propString(spec, "assignee"); assignee != "" {
		fmt.Fprintf(&b, "<span>%s</span>", esc(assignee))
	}
	fmt.Fprintf(&b, `<span class="priority-%s">%s</span></div></div>`, esc(priority), esc(priority))
	return b.String()
}

func renderInput(spec models.ComponentSpec) string {
	typ := propString(spec, "type")
	if typ == "" {
		typ = "text"
	}
	var b strings.Builder
	b.WriteString(`<div class="form-field">`)
	if label := propString(spec, "label"); label != "" {
		fmt.Fprintf(&b, `<label for="%s">%s</label>`, esc(spec.ID), esc(label))
	}
	fmt.Fprintf(&b, `<input id="%s" type="%s" placeholder="%s" value="%s"></div>`,
		esc(spec.ID), esc(typ), esc(propString(spec, "placeholder")), esc(propString(spec, "value")))
	return b.String()
}

func renderTextarea(spec models.ComponentSpec) string {
	rows := propString(spec, "rows")
	if rows == "" {
		rows = "4"
	}
	var b strings.Builder
	b.WriteString(`<div class="form-field">`)
	if label := propString(spec, "label"); label != "" {
		fmt.Fprintf(&b, `<label for="%s">%s</label>`, esc(spec.ID), esc(label))
	}
	fmt.Fprintf(&b, `<textarea id="%s" rows="%s" placeholder="%s">%s</textarea></div>`,
		esc(spec.ID), esc(rows), esc(propString(spec, "placeholder")), esc(propString(spec, "value")))
	return b.String()
}

func renderSelect(spec models.ComponentSpec) string {
	var b strings.Builder
	b.WriteString(`<div class="form-field">`)
	if label := propString(spec, "label"); label != "" {
		fmt.Fprintf(&b, `<label for="%s">%s</label>`, esc(spec.ID), esc(label))
	}
	fmt.Fprintf(&b, `<select id="%s">`, esc(spec.ID))
	for _, o := range propSlice(spec, "options") {
		m, ok := o.(map[string]interface{})
		if !ok {
			continue
		}
		label, _ := m["label"].(string)
		value, _ := m["value"].(string)
		if value == "" {
			value = label
		}
		fmt.Fprintf(&b, `<option value="%s">%s</option>`, esc(value), esc(label))
	}
	b.WriteString(`</select></div>`)
	return b.String()
}

func renderCheckbox(spec models.ComponentSpec) string {
	checked := ""
	if propBool(spec, "checked", false) {
		checked = " checked"
	}
	return fmt.Sprintf(`<div class="form-field"><label><input id="%s" type="checkbox"%s> %s</label></div>`,
		esc(spec.ID), checked, esc(propString(spec, "label")))
}

func renderSwitch(spec models.ComponentSpec) string {
	checked := ""
	if propBool(spec, "checked", false) {
		checked = " checked"
	}
	return fmt.Sprintf(`<div class="form-field switch"><label><input id="%s" type="checkbox" role="switch"%s> %s</label></div>`,
		esc(spec.ID), checked, esc(propString(spec, "label")))
}

func renderAlert(spec models.ComponentSpec) string {
	variant := propString(spec, "variant")
	if variant == "" {
		variant = "info"
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="alert alert-%s" role="alert">`, esc(variant))
	if title := propString(spec, "title"); title != "" {
		fmt.Fprintf(&b, "<strong>%s</strong> ", esc(title))
	}
	fmt.Fprintf(&b, "%s</div>", esc(propString(spec, "description")))
	return b.String()
}

func renderSearchBox(spec models.ComponentSpec) string {
	placeholder := propString(spec, "placeholder")
	if placeholder == "" {
		placeholder = "Search..."
	}
	return fmt.Sprintf(`<div class="search-box"><input id="%s" type="search" placeholder="%s"></div>`,
		esc(spec.ID), esc(placeholder))
}
