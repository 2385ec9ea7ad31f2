/*
Package factory turns meal-plan template definitions into assigned plans.

PURPOSE:
  Dietitians describe a program once as a template (a cycle of day
  patterns with meal slots) in JSON or YAML. Assigning a template to a
  client produces a dated MealPlan the freeze engine can work on.

SCHEMA (YAML shown, JSON uses the same keys):
  id: balanced-30
  name: Balanced 30
  durationDays: 30
  days:                       # repeated until durationDays is covered
    - slots:
        - name: Breakfast
          time: "08:00"
          items:
            - {name: Oats, portion: 60g, calories: 230}

USAGE:
  f := factory.NewTemplateFactory()
  if err := f.LoadDir(cfg.Templates.Path); err != nil { ... }
  plan, err := f.Assign("balanced-30", factory.Assignment{
      ClientID:  "client-1",
      StartDate: generic.MustParseDay("2025-03-01"),
  })

SEE ALSO:
  - defaults.go: built-in templates
  - generic/types.go: MealPlan, DayEntry
*/
package factory

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/dtps/mealplan-engine/generic"
	"github.com/dtps/mealplan-engine/mealplan"
)

// =============================================================================
// TEMPLATE SCHEMA TYPES
// =============================================================================

// Template is the file representation of a meal-plan template.
type Template struct {
	ID           string        `json:"id" yaml:"id" validate:"required"`
	Name         string        `json:"name" yaml:"name" validate:"required"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	DurationDays int           `json:"durationDays" yaml:"durationDays" validate:"required,min=1,max=366"`
	Days         []DayTemplate `json:"days" yaml:"days" validate:"required,min=1,dive"`
}

// DayTemplate is one day pattern of the cycle.
type DayTemplate struct {
	Notes string         `json:"notes,omitempty" yaml:"notes,omitempty"`
	Slots []SlotTemplate `json:"slots" yaml:"slots" validate:"required,min=1,dive"`
}

type SlotTemplate struct {
	Name  string         `json:"name" yaml:"name" validate:"required"`
	Time  string         `json:"time,omitempty" yaml:"time,omitempty"`
	Items []ItemTemplate `json:"items" yaml:"items" validate:"dive"`
}

type ItemTemplate struct {
	Name     string  `json:"name" yaml:"name" validate:"required"`
	Portion  string  `json:"portion,omitempty" yaml:"portion,omitempty"`
	Calories int     `json:"calories,omitempty" yaml:"calories,omitempty" validate:"min=0"`
	Protein  float64 `json:"protein,omitempty" yaml:"protein,omitempty" validate:"min=0"`
	Carbs    float64 `json:"carbs,omitempty" yaml:"carbs,omitempty" validate:"min=0"`
	Fat      float64 `json:"fat,omitempty" yaml:"fat,omitempty" validate:"min=0"`
	Notes    string  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Assignment describes who a template is assigned to.
type Assignment struct {
	PlanID     string // generated when empty
	ClientID   string
	PurchaseID string
	Name       string // defaults to the template name
	StartDate  generic.Day
	Status     generic.PlanStatus // defaults to active
	CreatedBy  string
	Now        time.Time
}

// =============================================================================
// TEMPLATE FACTORY
// =============================================================================

// TemplateFactory parses, holds and assigns templates. Safe for concurrent use.
type TemplateFactory struct {
	mu        sync.RWMutex
	templates map[string]Template
	validate  *validator.Validate
}

// NewTemplateFactory creates a factory preloaded with the built-in templates.
func NewTemplateFactory() *TemplateFactory {
	f := &TemplateFactory{
		templates: make(map[string]Template),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, def := range builtinTemplates {
		t, err := f.Parse([]byte(def.data), def.format)
		if err != nil {
			panic(fmt.Sprintf("built-in template: %v", err))
		}
		f.templates[t.ID] = *t
	}
	return f
}

// Parse decodes and validates a template. format is "json" or "yaml".
func (f *TemplateFactory) Parse(data []byte, format string) (*Template, error) {
	var t Template
	switch strings.ToLower(format) {
	case "json":
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("failed to parse template JSON: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("failed to parse template YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported template format %q", format)
	}

	if err := f.validate.Struct(t); err != nil {
		return nil, fmt.Errorf("%w: template %q: %v", generic.ErrValidation, t.ID, err)
	}
	return &t, nil
}

// Register adds or replaces a template.
func (f *TemplateFactory) Register(t Template) error {
	if err := f.validate.Struct(t); err != nil {
		return fmt.Errorf("%w: template %q: %v", generic.ErrValidation, t.ID, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates[t.ID] = t
	return nil
}

// LoadDir registers every *.json, *.yaml and *.yml file in dir.
// An empty dir is a no-op.
func (f *TemplateFactory) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("templates directory: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("error reading templates directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(e.Name())), ".")
		if ext != "json" && ext != "yaml" && ext != "yml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		t, err := f.Parse(data, ext)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", path, err)
		}
		if err := f.Register(*t); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a template by id.
func (f *TemplateFactory) Get(id string) (Template, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.templates[id]
	return t, ok
}

// List returns all templates ordered by id.
func (f *TemplateFactory) List() []Template {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Template, 0, len(f.templates))
	for _, t := range f.templates {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b Template) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Assign builds a new MealPlan from a template. The day patterns repeat
// until DurationDays dated entries exist.
func (f *TemplateFactory) Assign(templateID string, a Assignment) (*generic.MealPlan, error) {
	t, ok := f.Get(templateID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown template %q", generic.ErrValidation, templateID)
	}
	if a.ClientID == "" {
		return nil, fmt.Errorf("%w: client id is required", generic.ErrValidation)
	}
	if a.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", generic.ErrValidation)
	}

	now := a.Now
	if now.IsZero() {
		now = time.Now()
	}
	id := a.PlanID
	if id == "" {
		id = uuid.NewString()
	}
	name := a.Name
	if name == "" {
		name = t.Name
	}
	status := a.Status
	if status == "" {
		status = generic.PlanActive
	}

	meals := make([]generic.DayEntry, t.DurationDays)
	for i := range meals {
		pattern := t.Days[i%len(t.Days)]
		meals[i] = generic.DayEntry{
			Date:  a.StartDate.AddDays(i),
			Label: mealplan.DayLabel(i),
			Slots: pattern.slots(),
			Notes: pattern.Notes,
		}
	}

	return &generic.MealPlan{
		ID:         id,
		ClientID:   a.ClientID,
		PurchaseID: a.PurchaseID,
		TemplateID: t.ID,
		Name:       name,
		StartDate:  a.StartDate,
		EndDate:    a.StartDate.AddDays(t.DurationDays - 1),
		Status:     status,
		Meals:      meals,
		CreatedBy:  a.CreatedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (d DayTemplate) slots() []generic.MealSlot {
	out := make([]generic.MealSlot, len(d.Slots))
	for i, s := range d.Slots {
		items := make([]generic.FoodItem, len(s.Items))
		for j, it := range s.Items {
			items[j] = generic.FoodItem{
				Name:     it.Name,
				Portion:  it.Portion,
				Calories: it.Calories,
				Protein:  it.Protein,
				Carbs:    it.Carbs,
				Fat:      it.Fat,
				Notes:    it.Notes,
			}
		}
		out[i] = generic.MealSlot{Name: s.Name, Time: s.Time, Items: items}
	}
	return out
}
