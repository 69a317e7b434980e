// Package render turns a stored composition into a standalone HTML document.
// Components are rendered to fragments, grouped by slot, and spliced into the
// template skeleton's slot placeholders.
package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microsoft/portal-ux-agent/pkg/models"
)

var slotPlaceholderRe = regexp.MustCompile(`<slot name="[^"]*"></slot>`)

// Fragment renders all of a composition's components grouped into their
// slots and spliced into the template skeleton. Slots with no components
// render empty; no placeholder markup survives. Components addressing a slot
// the template does not declare are left out of the markup and noted in a
// trailing HTML comment so the gap is diagnosable from the page source.
func Fragment(comp *models.Composition) string {
	bySlot := make(map[string][]string)
	for _, c := range comp.Components {
		bySlot[c.Slot] = append(bySlot[c.Slot], renderComponent(c))
	}

	known := make(map[string]bool, len(comp.TemplateData.Slots))
	out := comp.TemplateData.HTML
	for _, slot := range comp.TemplateData.Slots {
		known[slot.Name] = true
		placeholder := fmt.Sprintf(`<slot name=%q></slot>`, slot.Name)
		out = strings.Replace(out, placeholder, strings.Join(bySlot[slot.Name], ""), 1)
	}
	// Belt and braces: a template may carry a slot tag its manifest forgot.
	out = slotPlaceholderRe.ReplaceAllString(out, "")

	var unplaced []string
	for _, c := range comp.Components {
		if !known[c.Slot] {
			unplaced = append(unplaced, fmt.Sprintf("%s (slot %q)", c.ID, c.Slot))
		}
	}
	if len(unplaced) > 0 {
		out += fmt.Sprintf("\n<!-- unplaced components: %s -->",
			html.EscapeString(strings.Join(unplaced, ", ")))
	}
	return out
}

// Document wraps the rendered fragment in a full HTML page with the
// composition's stylesheet and script references plus the base stylesheet.
func Document(comp *models.Composition) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"UTF-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&b, "<title>Portal UI - %s</title>\n", html.EscapeString(comp.SessionID))
	for _, style := range comp.Styles {
		fmt.Fprintf(&b, "<link rel=\"stylesheet\" href=\"%s\">\n", html.EscapeString(style))
	}
	b.WriteString("<style>\n")
	b.WriteString(baseCSS)
	b.WriteString("</style>\n</head>\n<body>\n")
	b.WriteString(Fragment(comp))
	b.WriteString("\n")
	for _, script := range comp.Scripts {
		fmt.Fprintf(&b, "<script src=\"%s\"></script>\n", html.EscapeString(script))
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

const baseCSS = `body { margin: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; }
.dashboard-container { padding: 20px; }
.dashboard-header { margin-bottom: 20px; }
.kpi-row { display: flex; gap: 20px; margin-bottom: 20px; }
.cards-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); gap: 20px; }
.portal-container { display: flex; height: 100vh; }
.left-nav { width: 250px; background: #f5f5f5; padding: 20px; }
.main-content { flex: 1; display: flex; flex-direction: column; }
.top-header { padding: 20px; border-bottom: 1px solid #ddd; }
.content-area { flex: 1; padding: 20px; }
.board { padding: 20px; }
.board-toolbar { display: flex; gap: 12px; margin-bottom: 16px; }
.board-columns { display: flex; gap: 20px; }
.board-column { min-width: 250px; background: #f8f9fa; padding: 16px; border-radius: 8px; }
.board-card { background: white; margin: 8px 0; padding: 12px; border-radius: 4px; border: 1px solid #ddd; }
.card { background: white; border: 1px solid #ddd; border-radius: 8px; padding: 16px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
.card table { width: 100%; border-collapse: collapse; }
.card th { padding: 8px; border-bottom: 1px solid #ddd; text-align: left; }
.card td { padding: 8px; border-bottom: 1px solid #eee; }
.card-actions button { margin-right: 8px; padding: 4px 8px; }
.form-field { margin-bottom: 12px; }
.form-field label { display: block; margin-bottom: 4px; font-size: 14px; }
.alert { padding: 12px 16px; border-radius: 6px; margin-bottom: 12px; }
.alert-info { background: #e7f3fe; border: 1px solid #b3d7f5; }
.alert-warning { background: #fff8e1; border: 1px solid #ffe082; }
.alert-destructive { background: #fdecea; border: 1px solid #f5c2bd; }
.alert-success { background: #e8f5e9; border: 1px solid #a5d6a7; }
.render-error { background: #fdecea; border: 1px solid #f5c2bd; padding: 12px; border-radius: 6px; }
.unknown-component { background: #fff8e1; border: 1px dashed #ffe082; padding: 12px; border-radius: 6px; }
`
