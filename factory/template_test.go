package factory_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtps/mealplan-engine/factory"
	"github.com/dtps/mealplan-engine/generic"
)

const customYAML = `
id: keto-14
name: Keto 14
durationDays: 14
days:
  - slots:
      - name: Breakfast
        items:
          - {name: Avocado, calories: 240, fat: 22}
`

func TestTemplateFactory_Builtins(t *testing.T) {
	f := factory.NewTemplateFactory()

	list := f.List()
	require.Len(t, list, 2)
	assert.Equal(t, "balanced-30", list[0].ID)
	assert.Equal(t, "high-protein-60", list[1].ID)

	hp, ok := f.Get("high-protein-60")
	require.True(t, ok)
	assert.Equal(t, 60, hp.DurationDays)
	assert.NotEmpty(t, hp.Days[0].Notes)
}

func TestTemplateFactory_AssignCyclesDayPatterns(t *testing.T) {
	f := factory.NewTemplateFactory()
	start := generic.MustParseDay("2025-03-01")
	now := time.Date(2025, 2, 20, 10, 0, 0, 0, time.UTC)

	// WHEN: The two-pattern 30-day template is assigned
	plan, err := f.Assign("balanced-30", factory.Assignment{
		PlanID:     "plan-1",
		ClientID:   "client-1",
		PurchaseID: "purchase-1",
		StartDate:  start,
		CreatedBy:  "dietitian-1",
		Now:        now,
	})
	require.NoError(t, err)

	// THEN: Thirty dated days alternate between the patterns
	assert.Equal(t, "plan-1", plan.ID)
	assert.Equal(t, "Balanced 30", plan.Name)
	assert.Equal(t, "balanced-30", plan.TemplateID)
	assert.Equal(t, generic.PlanActive, plan.Status)
	assert.Equal(t, "2025-03-30", plan.EndDate.String())
	assert.Equal(t, 30, plan.DurationDays())
	require.Len(t, plan.Meals, 30)
	assert.Equal(t, "Day 1", plan.Meals[0].Label)
	assert.Equal(t, "Day 30", plan.Meals[29].Label)
	assert.Equal(t, "2025-03-30", plan.Meals[29].Date.String())
	assert.Equal(t, "Oats", plan.Meals[0].Slots[0].Items[0].Name)
	assert.Equal(t, "Egg omelette", plan.Meals[1].Slots[0].Items[0].Name)
	assert.Equal(t, "Oats", plan.Meals[2].Slots[0].Items[0].Name)
	assert.Equal(t, now, plan.CreatedAt)
	assert.Zero(t, plan.Version)

	// Each day owns its slots.
	plan.Meals[0].Slots[0].Items[0].Name = "changed"
	assert.Equal(t, "Oats", plan.Meals[2].Slots[0].Items[0].Name)
}

func TestTemplateFactory_AssignDefaultsAndErrors(t *testing.T) {
	f := factory.NewTemplateFactory()
	start := generic.MustParseDay("2025-03-01")

	plan, err := f.Assign("balanced-30", factory.Assignment{ClientID: "client-1", StartDate: start, Status: generic.PlanDraft, Name: "Custom"})
	require.NoError(t, err)
	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, "Custom", plan.Name)
	assert.Equal(t, generic.PlanDraft, plan.Status)

	_, err = f.Assign("missing", factory.Assignment{ClientID: "client-1", StartDate: start})
	assert.ErrorIs(t, err, generic.ErrValidation)
	_, err = f.Assign("balanced-30", factory.Assignment{StartDate: start})
	assert.ErrorIs(t, err, generic.ErrValidation)
	_, err = f.Assign("balanced-30", factory.Assignment{ClientID: "client-1"})
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestTemplateFactory_ParseFormats(t *testing.T) {
	f := factory.NewTemplateFactory()

	tmpl, err := f.Parse([]byte(customYAML), "yml")
	require.NoError(t, err)
	assert.Equal(t, "keto-14", tmpl.ID)
	assert.Equal(t, 22.0, tmpl.Days[0].Slots[0].Items[0].Fat)

	tmpl, err = f.Parse([]byte(`{"id":"j","name":"J","durationDays":7,"days":[{"slots":[{"name":"Lunch","items":[]}]}]}`), "JSON")
	require.NoError(t, err)
	assert.Equal(t, 7, tmpl.DurationDays)

	_, err = f.Parse([]byte("id: x"), "toml")
	assert.Error(t, err)
}

func TestTemplateFactory_ParseRejectsInvalid(t *testing.T) {
	f := factory.NewTemplateFactory()

	cases := map[string]string{
		"no days":       `{"id":"x","name":"X","durationDays":7,"days":[]}`,
		"zero duration": `{"id":"x","name":"X","durationDays":0,"days":[{"slots":[{"name":"L"}]}]}`,
		"unnamed slot":  `{"id":"x","name":"X","durationDays":7,"days":[{"slots":[{"name":""}]}]}`,
		"negative kcal": `{"id":"x","name":"X","durationDays":7,"days":[{"slots":[{"name":"L","items":[{"name":"a","calories":-1}]}]}]}`,
		"broken json":   `{"id":`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.Parse([]byte(data), "json")
			assert.Error(t, err)
		})
	}
}

func TestTemplateFactory_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keto.yaml"), []byte(customYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	f := factory.NewTemplateFactory()
	require.NoError(t, f.LoadDir(dir))

	_, ok := f.Get("keto-14")
	assert.True(t, ok)
	assert.Len(t, f.List(), 3)

	assert.NoError(t, f.LoadDir(""))
	assert.Error(t, f.LoadDir(filepath.Join(dir, "missing")))
}

func TestTemplateFactory_LoadDirReportsBadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"id":"bad"}`), 0o644))

	err := factory.NewTemplateFactory().LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")
}
