/*
freeze.go - Freeze validation and application

PURPOSE:
  Freezing pauses calendar days of a meal plan. The frozen day keeps its
  meals (marked frozen), a deep copy of those meals is appended as a
  recovery day after the current end of the plan, and the end date moves
  out by the number of frozen days.

VALIDATION ORDER (first failure wins):
  1. At least one date requested
  2. Already-frozen dates (authoritative set) are skipped, not errors
  3. Every remaining date lies in [StartDate, EndDate]
  4. No remaining date is before today
  5. Something is left to freeze
  6. Used + requested does not exceed the allowance

All validation runs before any mutation. ApplyFreeze only ever sees a date
list that passed ValidateFreeze, and it works on a clone the caller owns.

RECOVERY DAYS:
  anchor = max(EndDate, latest meal date)
  copy k (chronological, 1-based) lands on anchor + k

SEE ALSO:
  - unfreeze.go: the reverse operation
  - ledger.go: AllowanceContext
*/
package mealplan

import (
	"fmt"
	"slices"
	"time"

	"github.com/dtps/mealplan-engine/generic"
)

// FreezeOutcome describes what ApplyFreeze changed.
type FreezeOutcome struct {
	OriginalEndDate generic.Day
	NewEndDate      generic.Day
	FrozenDates     []generic.Day
	AddedMealDates  []generic.Day
	CopiedMeals     int
}

// DayLabel renders the display label of the day at zero-based index.
func DayLabel(index int) string { return fmt.Sprintf("Day %d", index+1) }

// ParseDays normalizes raw request dates to calendar days.
func ParseDays(raw []string, loc *time.Location) ([]generic.Day, error) {
	days := make([]generic.Day, 0, len(raw))
	for _, r := range raw {
		d, err := generic.ParseDay(r, loc)
		if err != nil {
			return nil, &generic.InvalidDateError{Value: r}
		}
		days = append(days, d)
	}
	return days, nil
}

// ValidateFreeze filters requested dates and checks them against the plan
// range, today and the allowance. It returns the dates to freeze and the
// dates skipped because they were already frozen (or repeated).
func ValidateFreeze(plan *generic.MealPlan, ac AllowanceContext, requested []generic.Day, today generic.Day) (accepted, skipped []generic.Day, err error) {
	if len(requested) == 0 {
		return nil, nil, generic.ErrNoDates
	}

	seen := make(map[string]bool, len(requested))
	for _, d := range requested {
		key := d.String()
		if ac.IsFrozen(d) || seen[key] {
			skipped = append(skipped, d)
			continue
		}
		seen[key] = true
		accepted = append(accepted, d)
	}

	for _, d := range accepted {
		if !plan.Contains(d) {
			return nil, nil, &generic.DateOutOfRangeError{Date: d, Start: plan.StartDate, End: plan.EndDate}
		}
	}

	for _, d := range accepted {
		if d.Before(today) {
			return nil, nil, &generic.PastDateError{Date: d, Today: today}
		}
	}

	if len(accepted) == 0 {
		return nil, nil, generic.ErrNoValidDates
	}

	if ac.TotalFreezeCount+len(accepted) > ac.AllowedFreezeDays {
		return nil, nil, &generic.AllowanceExceededError{
			PlanID:    plan.ID,
			Allowed:   ac.AllowedFreezeDays,
			Used:      ac.TotalFreezeCount,
			Requested: len(accepted),
			Shared:    ac.Shared,
		}
	}

	slices.SortFunc(accepted, generic.Day.Compare)
	return accepted, skipped, nil
}

// ApplyFreeze freezes dates on plan in place. dates must come from
// ValidateFreeze. The plan's own TotalFreezeCount grows by len(dates)
// regardless of whether the allowance was shared.
func ApplyFreeze(plan *generic.MealPlan, dates []generic.Day, now time.Time) FreezeOutcome {
	dates = slices.Clone(dates)
	slices.SortFunc(dates, generic.Day.Compare)

	freezing := make(map[string]bool, len(dates))
	for _, d := range dates {
		freezing[d.String()] = true
	}

	// Chronological view of the original meals, for position labels and
	// for copying in order.
	ordered := make([]generic.DayEntry, len(plan.Meals))
	copy(ordered, plan.Meals)
	generic.SortDayEntries(ordered)

	position := make(map[string]int, len(ordered))
	for i, m := range ordered {
		if _, ok := position[m.Date.String()]; !ok {
			position[m.Date.String()] = i + 1
		}
	}

	var copies []generic.DayEntry
	for _, m := range ordered {
		if freezing[m.Date.String()] {
			copies = append(copies, m.Clone())
		}
	}

	anchor := generic.LatestDay(plan.EndDate, plan.LatestMealDate())
	addedFor := make(map[string]generic.Day, len(dates))
	var added []generic.Day

	for i := range copies {
		source := copies[i].Date
		target := anchor.AddDays(i + 1)

		copies[i].Date = target
		copies[i].Label = DayLabel(generic.DaysBetween(plan.StartDate, target))
		copies[i].Frozen = nil
		copies[i].Recovery = &generic.RecoveryMarker{
			OriginalDate:  source,
			OriginalLabel: DayLabel(position[source.String()] - 1),
		}

		if _, ok := addedFor[source.String()]; !ok {
			addedFor[source.String()] = target
		}
		added = append(added, target)
	}

	for i := range plan.Meals {
		if freezing[plan.Meals[i].Date.String()] {
			plan.Meals[i].Frozen = &generic.FrozenMarker{FrozenAt: now}
		}
	}

	plan.Meals = append(plan.Meals, copies...)
	generic.SortDayEntries(plan.Meals)

	for _, d := range dates {
		entry := generic.FrozenDay{Date: d, CreatedAt: now}
		if target, ok := addedFor[d.String()]; ok {
			entry.AddedDate = &target
		}
		plan.FreezedDays = append(plan.FreezedDays, entry)
	}

	outcome := FreezeOutcome{
		OriginalEndDate: plan.EndDate,
		FrozenDates:     dates,
		AddedMealDates:  added,
		CopiedMeals:     len(copies),
	}

	plan.TotalFreezeCount += len(dates)
	plan.EndDate = plan.EndDate.AddDays(len(dates))
	plan.UpdatedAt = now

	outcome.NewEndDate = plan.EndDate
	return outcome
}
