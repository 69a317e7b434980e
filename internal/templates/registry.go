// Package templates holds the static template registry. Templates are
// loaded once at construction and never mutated at runtime.
package templates

import "github.com/microsoft/portal-ux-agent/pkg/models"

// DefaultTemplateID is substituted when an intent names a missing or
// unknown template.
const DefaultTemplateID = "dashboard"

// ErrNotFound is returned when a requested template does not exist.
type ErrNotFound struct {
	ID string
}

func (e *ErrNotFound) Error() string {
	return "template not found: " + e.ID
}

// Registry is a read-only lookup of named templates.
type Registry struct {
	templates map[string]models.Template
	order     []string
}

// NewRegistry builds the registry with the built-in template set.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]models.Template)}
	for _, t := range builtin() {
		r.templates[t.ID] = t
		r.order = append(r.order, t.ID)
	}
	return r
}

// Get returns the template with the given id.
func (r *Registry) Get(id string) (models.Template, error) {
	t, ok := r.templates[id]
	if !ok {
		return models.Template{}, &ErrNotFound{ID: id}
	}
	return t, nil
}

// Has reports whether a template id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.templates[id]
	return ok
}

// List returns all templates in registration order.
func (r *Registry) List() []models.Template {
	out := make([]models.Template, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.templates[id])
	}
	return out
}

// PrimarySlot returns the first slot of the template that accepts the given
// kind, falling back to the template's first slot when no slot lists it.
// Used to derive a slot for components the model left unplaced.
func (r *Registry) PrimarySlot(templateID string, kind models.ComponentKind) string {
	t, ok := r.templates[templateID]
	if !ok || len(t.Slots) == 0 {
		return ""
	}
	for _, s := range t.Slots {
		for _, k := range s.Accepts {
			if k == kind {
				return s.Name
			}
		}
	}
	return t.Slots[0].Name
}

func builtin() []models.Template {
	return []models.Template{
		{
			ID:          "dashboard",
			Name:        "Dashboard Cards Grid",
			Description: "A responsive grid layout for dashboard cards and charts",
			Slots: []models.Slot{
				{Name: "header", Accepts: []models.ComponentKind{models.KindCard, models.KindSearchBox}},
				{Name: "kpiRow", Accepts: []models.ComponentKind{models.KindMetricCard}},
				{Name: "cardsGrid", Accepts: []models.ComponentKind{models.KindCard, models.KindChart, models.KindTable, models.KindAlert}},
			},
			Styles: []string{"/styles/dashboard.css"},
			HTML: `<div class="dashboard-container">
  <header class="dashboard-header">
    <slot name="header"></slot>
  </header>
  <section class="kpi-row">
    <slot name="kpiRow"></slot>
  </section>
  <main class="cards-grid">
    <slot name="cardsGrid"></slot>
  </main>
</div>`,
		},
		{
			ID:          "portal",
			Name:        "Portal Left Navigation",
			Description: "Enterprise portal with left navigation sidebar",
			Slots: []models.Slot{
				{Name: "nav", Accepts: []models.ComponentKind{models.KindNavItem}},
				{Name: "header", Accepts: []models.ComponentKind{models.KindCard, models.KindSearchBox}},
				{Name: "content", Accepts: []models.ComponentKind{
					models.KindCard, models.KindTable, models.KindChart, models.KindAlert,
					models.KindInput, models.KindTextarea, models.KindSelect,
					models.KindCheckbox, models.KindSwitch,
				}},
			},
			Styles: []string{"/styles/portal.css"},
			HTML: `<div class="portal-container">
  <nav class="left-nav">
    <slot name="nav"></slot>
  </nav>
  <div class="main-content">
    <header class="top-header">
      <slot name="header"></slot>
    </header>
    <main class="content-area">
      <slot name="content"></slot>
    </main>
  </div>
</div>`,
		},
		{
			ID:          "board",
			Name:        "Board",
			Description: "Task board with columns and draggable cards",
			Slots: []models.Slot{
				{Name: "toolbar", Accepts: []models.ComponentKind{models.KindSearchBox, models.KindSelect}},
				{Name: "columns", Accepts: []models.ComponentKind{models.KindListColumn}},
				{Name: "cards", Accepts: []models.ComponentKind{models.KindListCard}},
			},
			Styles:  []string{"/styles/board.css"},
			Scripts: []string{"/scripts/board.js"},
			HTML: `<div class="board">
  <div class="board-toolbar">
    <slot name="toolbar"></slot>
  </div>
  <div class="board-columns">
    <slot name="columns"></slot>
  </div>
  <div class="board-cards">
    <slot name="cards"></slot>
  </div>
</div>`,
		},
	}
}
