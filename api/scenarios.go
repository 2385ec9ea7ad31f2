/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates purchases and template-assigned
	meal plans, and some pre-freeze days to show recovery days.

AVAILABLE SCENARIOS:

	single-plan:     One 30-day plan on its own purchase (local allowance)
	shared-purchase: Two 30-day phases on one purchase (shared allowance of 20)
	allowance-used:  A 30-day plan with 8 of 10 freeze days used in one request

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Record the purchase
 3. Assign plans from the built-in templates, relative to today
 4. Optionally freeze days through the service

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "shared-purchase"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - server.go: scenario routes (admin only, not mounted in production)
  - factory/defaults.go: templates used here
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dtps/mealplan-engine/factory"
	"github.com/dtps/mealplan-engine/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

const demoClientID = "client-demo"

var scenarios = []ScenarioDTO{
	{
		ID:          "single-plan",
		Name:        "Single Plan",
		Description: "One 30-day plan on its own purchase; 10 freeze days available",
	},
	{
		ID:          "shared-purchase",
		Name:        "Shared Purchase",
		Description: "Two consecutive 30-day phases sharing one purchase and a 20-day allowance",
	},
	{
		ID:          "allowance-used",
		Name:        "Allowance Partly Used",
		Description: "A 30-day plan with 8 of its 10 freeze days used and its end date pushed out",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	loaders := map[string]func(context.Context, generic.Session) error{
		"single-plan":     h.loadSinglePlanScenario,
		"shared-purchase": h.loadSharedPurchaseScenario,
		"allowance-used":  h.loadAllowanceUsedScenario,
	}
	load, ok := loaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		h.writeServiceError(w, r, fmt.Errorf("reset database: %w", err))
		return
	}
	h.currentScenario = ""

	if err := load(ctx, SessionFrom(ctx)); err != nil {
		h.writeServiceError(w, r, fmt.Errorf("load scenario %s: %w", req.ScenarioID, err))
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeServiceError(w, r, fmt.Errorf("reset database: %w", err))
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadSinglePlanScenario(ctx context.Context, _ generic.Session) error {
	start := h.Service.Today()
	purchase := demoPurchase("purchase-single", "", 30, "149.00", start)
	if err := h.Store.SavePurchase(ctx, purchase); err != nil {
		return err
	}
	_, err := h.assignDemoPlan(ctx, "plan-single", "balanced-30", purchase.ID, start)
	return err
}

func (h *Handler) loadSharedPurchaseScenario(ctx context.Context, session generic.Session) error {
	start := h.Service.Today()
	purchase := demoPurchase("purchase-shared", "", 60, "279.00", start)
	if err := h.Store.SavePurchase(ctx, purchase); err != nil {
		return err
	}

	phase1, err := h.assignDemoPlan(ctx, "plan-phase-1", "balanced-30", purchase.ID, start)
	if err != nil {
		return err
	}
	if _, err := h.assignDemoPlan(ctx, "plan-phase-2", "balanced-30", purchase.ID, phase1.EndDate.AddDays(1)); err != nil {
		return err
	}

	// Two days frozen on phase 1 count against the shared allowance.
	_, err = h.Service.Freeze(ctx, demoSession(session), phase1.ID, []string{
		start.AddDays(3).String(),
		start.AddDays(4).String(),
	})
	return err
}

func (h *Handler) loadAllowanceUsedScenario(ctx context.Context, session generic.Session) error {
	start := h.Service.Today()
	purchase := demoPurchase("purchase-used", "plan-used", 30, "149.00", start)
	if err := h.Store.SavePurchase(ctx, purchase); err != nil {
		return err
	}
	plan, err := h.assignDemoPlan(ctx, "plan-used", "balanced-30", "", start)
	if err != nil {
		return err
	}

	dates := make([]string, 8)
	for i := range dates {
		dates[i] = start.AddDays(2 + i).String()
	}
	_, err = h.Service.Freeze(ctx, demoSession(session), plan.ID, dates)
	return err
}

func (h *Handler) assignDemoPlan(ctx context.Context, id, templateID, purchaseID string, start generic.Day) (*generic.MealPlan, error) {
	plan, err := h.Templates.Assign(templateID, factory.Assignment{
		PlanID:     id,
		ClientID:   demoClientID,
		PurchaseID: purchaseID,
		StartDate:  start,
		CreatedBy:  "scenario",
	})
	if err != nil {
		return nil, err
	}
	if err := h.Store.SavePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func demoPurchase(id, planID string, days int, amount string, start generic.Day) *generic.Purchase {
	end := start.AddDays(days - 1)
	expected := end
	return &generic.Purchase{
		ID:              id,
		ClientID:        demoClientID,
		MealPlanID:      planID,
		PlanName:        fmt.Sprintf("%d-day program", days),
		DurationDays:    days,
		Amount:          decimal.RequireFromString(amount),
		Currency:        "USD",
		StartDate:       start,
		EndDate:         end,
		ExpectedEndDate: &expected,
		Status:          generic.PurchaseActive,
	}
}

func demoSession(s generic.Session) generic.Session {
	if s.IsZero() {
		return generic.Session{UserID: "scenario", Role: generic.RoleAdmin}
	}
	return s
}
