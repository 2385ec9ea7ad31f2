package mealplan

import (
	"slices"
	"time"

	"github.com/dtps/mealplan-engine/generic"
)

// =============================================================================
// UNFREEZE - Remove recovery days, keep consumed allowance
// =============================================================================

// UnfreezeOutcome describes what ApplyUnfreeze changed.
type UnfreezeOutcome struct {
	PreviousEndDate  generic.Day
	NewEndDate       generic.Day
	UnfrozenDates    []generic.Day
	RemovedMealDates []generic.Day
}

// ApplyUnfreeze reverses freezes of the given dates on plan in place.
//
// Only the plan's own FreezedDays are consulted, never the shared ledger.
// Recovery days created for the dates are removed, frozen markers on the
// original days are cleared and the end date moves back by the number of
// unfrozen dates. TotalFreezeCount is left untouched: consumed allowance
// is not refunded.
func ApplyUnfreeze(plan *generic.MealPlan, requested []generic.Day, now time.Time) (UnfreezeOutcome, error) {
	if len(requested) == 0 {
		return UnfreezeOutcome{}, generic.ErrNoDates
	}

	want := make(map[string]bool, len(requested))
	for _, d := range requested {
		want[d.String()] = true
	}

	var (
		kept     []generic.FrozenDay
		unfrozen []generic.Day
		removed  []generic.Day
	)
	unfrozenSet := make(map[string]bool)
	removedSet := make(map[string]bool)

	for _, f := range plan.FreezedDays {
		if !want[f.Date.String()] {
			kept = append(kept, f)
			continue
		}
		unfrozen = append(unfrozen, f.Date)
		unfrozenSet[f.Date.String()] = true
		if f.AddedDate != nil && !removedSet[f.AddedDate.String()] {
			removedSet[f.AddedDate.String()] = true
			removed = append(removed, *f.AddedDate)
		}
	}

	if len(unfrozen) == 0 {
		return UnfreezeOutcome{}, &generic.NoMatchingFrozenDatesError{Requested: requested}
	}

	meals := plan.Meals[:0:0]
	for _, m := range plan.Meals {
		key := m.Date.String()
		if removedSet[key] {
			continue
		}
		if unfrozenSet[key] {
			m.Frozen = nil
		}
		meals = append(meals, m)
	}
	generic.SortDayEntries(meals)

	slices.SortFunc(unfrozen, generic.Day.Compare)
	slices.SortFunc(removed, generic.Day.Compare)

	outcome := UnfreezeOutcome{
		PreviousEndDate:  plan.EndDate,
		UnfrozenDates:    unfrozen,
		RemovedMealDates: removed,
	}

	plan.Meals = meals
	plan.FreezedDays = kept
	plan.EndDate = plan.EndDate.AddDays(-len(unfrozen))
	plan.UpdatedAt = now

	outcome.NewEndDate = plan.EndDate
	return outcome, nil
}
