/*
ledger.go - Shared freeze ledger across plans of one purchase

PURPOSE:
  A purchase can be delivered as several meal-plan phases (e.g. two 30-day
  plans). Their freeze allowance is shared: the budget comes from the summed
  purchased duration, and consumption is the sum of every phase's own
  counter.

DURATION:
  Allowance is computed from PurchasedDays, never from the current end
  date. Freezing pushes EndDate out; counting those recovery days would
  grow the budget with every freeze.

INVARIANT:
  The aggregate is authoritative only when MORE THAN ONE plan shares the
  purchase. A lone plan uses its own counters, so the common case never
  pays for aggregation semantics it does not need.

WHAT IT PRODUCES:
  SharedLedger     raw union of every linked plan's freeze data
  AllowanceContext the resolved view (shared or local) used by one request

The AllowanceContext is computed once per request and threaded through
validation and response building; nothing downstream re-derives the
shared-vs-local decision.

SEE ALSO:
  - generic/allowance.go: AllowedFreezeDays
  - freeze.go: consumes AllowanceContext
*/
package mealplan

import (
	"context"
	"fmt"

	"github.com/dtps/mealplan-engine/generic"
)

// =============================================================================
// SHARED LEDGER
// =============================================================================

// SharedFrozenDay is a frozen day annotated with the plan that owns it.
type SharedFrozenDay struct {
	generic.FrozenDay
	PlanID   string
	PlanName string
}

// SharedLedger is the merged freeze accounting of all plans on a purchase.
type SharedLedger struct {
	PurchaseID        string
	TotalFreezeCount  int
	AllFreezedDays    []SharedFrozenDay
	LinkedPlanIDs     []string
	TotalDurationDays int
}

// LinkedPlanCount is the number of plans that contributed to the ledger.
func (l SharedLedger) LinkedPlanCount() int { return len(l.LinkedPlanIDs) }

// Aggregator builds shared ledgers from the plan store.
type Aggregator struct {
	plans generic.PlanStore
}

func NewAggregator(plans generic.PlanStore) *Aggregator {
	return &Aggregator{plans: plans}
}

// Aggregate merges freeze counts, frozen days and durations of every plan
// referencing purchaseID. An empty purchaseID yields a zero ledger.
func (a *Aggregator) Aggregate(ctx context.Context, purchaseID string) (SharedLedger, error) {
	ledger := SharedLedger{PurchaseID: purchaseID}
	if purchaseID == "" {
		return ledger, nil
	}

	plans, err := a.plans.ListPlansByPurchase(ctx, purchaseID)
	if err != nil {
		return SharedLedger{}, fmt.Errorf("load plans for purchase %s: %w", purchaseID, err)
	}

	for _, p := range plans {
		ledger.TotalFreezeCount += p.TotalFreezeCount
		for _, f := range p.FreezedDays {
			ledger.AllFreezedDays = append(ledger.AllFreezedDays, SharedFrozenDay{
				FrozenDay: f,
				PlanID:    p.ID,
				PlanName:  p.Name,
			})
		}
		ledger.LinkedPlanIDs = append(ledger.LinkedPlanIDs, p.ID)
		ledger.TotalDurationDays += p.PurchasedDays()
	}
	return ledger, nil
}

// =============================================================================
// ALLOWANCE CONTEXT
// =============================================================================

// AllowanceContext is the resolved freeze budget for one request.
type AllowanceContext struct {
	Shared            bool
	PurchaseID        string
	LinkedPlanCount   int
	DurationDays      int
	AllowedFreezeDays int
	TotalFreezeCount  int
	// FrozenDates holds every already-frozen day (shared set when Shared).
	FrozenDates map[string]bool
	// Days lists the same frozen days with their owning plan.
	Days []SharedFrozenDay
}

// Remaining is how many more days may be frozen.
func (ac AllowanceContext) Remaining() int {
	return generic.RemainingFreezeDays(ac.AllowedFreezeDays, ac.TotalFreezeCount)
}

// IsFrozen reports whether d is already frozen in the authoritative set.
func (ac AllowanceContext) IsFrozen(d generic.Day) bool { return ac.FrozenDates[d.String()] }

// LocalAllowance builds the context from the plan's own counters.
func LocalAllowance(plan *generic.MealPlan) AllowanceContext {
	duration := plan.PurchasedDays()
	linked := 0
	if plan.PurchaseID != "" {
		linked = 1
	}
	days := make([]SharedFrozenDay, 0, len(plan.FreezedDays))
	for _, f := range plan.FreezedDays {
		days = append(days, SharedFrozenDay{FrozenDay: f, PlanID: plan.ID, PlanName: plan.Name})
	}
	return AllowanceContext{
		PurchaseID:        plan.PurchaseID,
		LinkedPlanCount:   linked,
		DurationDays:      duration,
		AllowedFreezeDays: generic.AllowedFreezeDays(duration),
		TotalFreezeCount:  plan.TotalFreezeCount,
		FrozenDates:       plan.FrozenDateSet(),
		Days:              days,
	}
}

// SharedAllowance builds the context from an aggregated ledger.
func SharedAllowance(ledger SharedLedger) AllowanceContext {
	frozen := make(map[string]bool, len(ledger.AllFreezedDays))
	for _, f := range ledger.AllFreezedDays {
		frozen[f.Date.String()] = true
	}
	return AllowanceContext{
		Shared:            true,
		PurchaseID:        ledger.PurchaseID,
		LinkedPlanCount:   ledger.LinkedPlanCount(),
		DurationDays:      ledger.TotalDurationDays,
		AllowedFreezeDays: generic.AllowedFreezeDays(ledger.TotalDurationDays),
		TotalFreezeCount:  ledger.TotalFreezeCount,
		FrozenDates:       frozen,
		Days:              ledger.AllFreezedDays,
	}
}

// ResolveAllowance picks the shared ledger when more than one plan shares
// the plan's purchase, and the plan's own counters otherwise.
func (a *Aggregator) ResolveAllowance(ctx context.Context, plan *generic.MealPlan) (AllowanceContext, error) {
	if plan.PurchaseID == "" {
		return LocalAllowance(plan), nil
	}
	ledger, err := a.Aggregate(ctx, plan.PurchaseID)
	if err != nil {
		return AllowanceContext{}, err
	}
	if ledger.LinkedPlanCount() > 1 {
		return SharedAllowance(ledger), nil
	}
	return LocalAllowance(plan), nil
}
