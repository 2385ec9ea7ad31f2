/*
Package generic provides the domain model and contracts shared by the
meal-plan engine.

PURPOSE:
  A meal plan is one phase of a client's nutrition program: a dated list of
  day entries, each holding named meal slots with food items. Providers can
  freeze (pause) days of an active plan; the engine keeps the frozen day,
  appends a recovery day carrying a copy of its meals, and pushes the end
  date out. Frozen days consume an allowance derived from plan duration.

KEY CONCEPTS IN THIS FILE (types.go):
  - MealPlan: a plan phase with its freeze ledger (FreezedDays, TotalFreezeCount)
  - DayEntry: one calendar day of meals with explicit frozen/recovery markers
  - FrozenDay: one frozen calendar day and the recovery day appended for it
  - Purchase: the billing record one or more plan phases are linked to

DESIGN PRINCIPLES:
  1. No data loss: freezing marks days, it never removes meals
  2. Monotonic consumption: TotalFreezeCount only grows
  3. Explicit states: markers are typed pointers, not ad-hoc flags
  4. Day granularity: every date is a calendar Day, see time.go

SEE ALSO:
  - allowance.go: freeze-day budget from plan duration
  - store.go: persistence contracts
  - mealplan/: freeze and unfreeze operations
*/
package generic

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS AND STATUS
// =============================================================================

type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanCancelled PlanStatus = "cancelled"
)

// Freezable reports whether days of a plan in this status may be frozen.
func (s PlanStatus) Freezable() bool {
	return s == PlanActive || s == PlanDraft
}

type PurchaseStatus string

const (
	PurchaseActive    PurchaseStatus = "active"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

// =============================================================================
// MEALS - Day entries, slots and food items
// =============================================================================

// FoodItem is a single food in a meal slot.
type FoodItem struct {
	Name     string  `json:"name"`
	Portion  string  `json:"portion,omitempty"`
	Calories int     `json:"calories,omitempty"`
	Protein  float64 `json:"protein,omitempty"`
	Carbs    float64 `json:"carbs,omitempty"`
	Fat      float64 `json:"fat,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

// MealSlot is a named meal within a day (breakfast, mid-morning, lunch...).
type MealSlot struct {
	Name  string     `json:"name"`
	Time  string     `json:"time,omitempty"`
	Items []FoodItem `json:"items"`
}

// FrozenMarker is present on a day the provider has frozen.
type FrozenMarker struct {
	FrozenAt time.Time `json:"frozenAt"`
}

// RecoveryMarker is present on a day appended to replace a frozen day.
type RecoveryMarker struct {
	OriginalDate  Day    `json:"originalDate"`
	OriginalLabel string `json:"originalLabel"`
}

// DayState enumerates the combinations of markers a day can carry.
type DayState int

const (
	DayNormal DayState = iota
	DayFrozen
	DayRecovery
	// DayFrozenRecovery is a recovery day that was itself frozen later.
	DayFrozenRecovery
)

func (s DayState) String() string {
	switch s {
	case DayFrozen:
		return "frozen"
	case DayRecovery:
		return "recovery"
	case DayFrozenRecovery:
		return "frozen_recovery"
	default:
		return "normal"
	}
}

// DayEntry is one calendar day of a meal plan.
type DayEntry struct {
	Date     Day             `json:"date"`
	Label    string          `json:"day"`
	Slots    []MealSlot      `json:"slots"`
	Notes    string          `json:"notes,omitempty"`
	Frozen   *FrozenMarker   `json:"frozen,omitempty"`
	Recovery *RecoveryMarker `json:"recovery,omitempty"`
}

func (d DayEntry) IsFrozen() bool   { return d.Frozen != nil }
func (d DayEntry) IsRecovery() bool { return d.Recovery != nil }

// State reports which markers the day carries.
func (d DayEntry) State() DayState {
	switch {
	case d.Frozen != nil && d.Recovery != nil:
		return DayFrozenRecovery
	case d.Frozen != nil:
		return DayFrozen
	case d.Recovery != nil:
		return DayRecovery
	default:
		return DayNormal
	}
}

// Clone deep-copies the entry, including slots and food items.
func (d DayEntry) Clone() DayEntry {
	out := d
	if d.Slots != nil {
		out.Slots = make([]MealSlot, len(d.Slots))
		for i, s := range d.Slots {
			out.Slots[i] = s
			out.Slots[i].Items = slices.Clone(s.Items)
		}
	}
	if d.Frozen != nil {
		f := *d.Frozen
		out.Frozen = &f
	}
	if d.Recovery != nil {
		r := *d.Recovery
		out.Recovery = &r
	}
	return out
}

// SortDayEntries orders entries by date ascending. The sort is stable so
// entries sharing a date keep their relative order.
func SortDayEntries(entries []DayEntry) {
	slices.SortStableFunc(entries, func(a, b DayEntry) int { return a.Date.Compare(b.Date) })
}

// =============================================================================
// FREEZE LEDGER
// =============================================================================

// FrozenDay records one frozen calendar day. AddedDate is the recovery day
// appended for it, nil when the frozen day had no meals to copy.
type FrozenDay struct {
	Date      Day       `json:"date"`
	AddedDate *Day      `json:"addedDate"`
	CreatedAt time.Time `json:"createdAt"`
}

// =============================================================================
// MEAL PLAN
// =============================================================================

// MealPlan is one phase of a client's nutrition program.
//
// INVARIANTS:
//   - TotalFreezeCount never decreases; unfreezing does not refund allowance.
//   - A date appears at most once in FreezedDays.
//   - Version increments on every successful save (optimistic concurrency).
type MealPlan struct {
	ID               string
	ClientID         string
	PurchaseID       string // empty when the plan is not linked to a purchase
	TemplateID       string
	Name             string
	StartDate        Day
	EndDate          Day
	Status           PlanStatus
	Meals            []DayEntry
	FreezedDays      []FrozenDay
	TotalFreezeCount int
	CreatedBy        string
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DurationDays is the inclusive length of the plan.
func (p *MealPlan) DurationDays() int { return DurationDays(p.StartDate, p.EndDate) }

// PurchasedDays is the plan length without freeze extensions. Every entry
// in FreezedDays moved EndDate out by exactly one day.
func (p *MealPlan) PurchasedDays() int { return p.DurationDays() - len(p.FreezedDays) }

// Contains reports whether d lies in [StartDate, EndDate].
func (p *MealPlan) Contains(d Day) bool {
	return d.AfterOrEqual(p.StartDate) && d.BeforeOrEqual(p.EndDate)
}

// LatestMealDate returns the latest date in the meal list (zero when empty).
func (p *MealPlan) LatestMealDate() Day {
	var latest Day
	for _, m := range p.Meals {
		if latest.IsZero() || m.Date.After(latest) {
			latest = m.Date
		}
	}
	return latest
}

// FrozenDateSet returns the plan's own frozen dates keyed by day string.
func (p *MealPlan) FrozenDateSet() map[string]bool {
	set := make(map[string]bool, len(p.FreezedDays))
	for _, f := range p.FreezedDays {
		set[f.Date.String()] = true
	}
	return set
}

// Clone deep-copies the plan so a failed operation never leaks mutations.
func (p *MealPlan) Clone() *MealPlan {
	out := *p
	out.Meals = make([]DayEntry, len(p.Meals))
	for i, m := range p.Meals {
		out.Meals[i] = m.Clone()
	}
	out.FreezedDays = make([]FrozenDay, len(p.FreezedDays))
	for i, f := range p.FreezedDays {
		out.FreezedDays[i] = f
		if f.AddedDate != nil {
			added := *f.AddedDate
			out.FreezedDays[i].AddedDate = &added
		}
	}
	return &out
}

// =============================================================================
// PURCHASE
// =============================================================================

// Purchase is the billing/duration record plan phases link to via PurchaseID.
// EndDate and ExpectedEndDate follow the linked plans when freezes shift them.
type Purchase struct {
	ID              string
	ClientID        string
	MealPlanID      string // plan the purchase was bought for, optional
	PlanName        string
	DurationDays    int
	Amount          decimal.Decimal
	Currency        string
	StartDate       Day
	EndDate         Day
	ExpectedEndDate *Day
	Status          PurchaseStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
