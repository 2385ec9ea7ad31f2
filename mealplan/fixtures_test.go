package mealplan_test

import (
	"fmt"
	"time"

	"github.com/dtps/mealplan-engine/generic"
	"github.com/dtps/mealplan-engine/mealplan"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	march1 = generic.MustParseDay("2025-03-01")

	// 09:00 UTC on March 1; "today" for every service test.
	testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	dietitian = generic.Session{UserID: "dietitian-1", Role: generic.RoleDietitian}
)

func day(s string) generic.Day { return generic.MustParseDay(s) }

// mealDays builds n consecutive days from start, each with one breakfast
// item named after its label.
func mealDays(start generic.Day, n int) []generic.DayEntry {
	meals := make([]generic.DayEntry, n)
	for i := range meals {
		label := mealplan.DayLabel(i)
		meals[i] = generic.DayEntry{
			Date:  start.AddDays(i),
			Label: label,
			Slots: []generic.MealSlot{{
				Name:  "Breakfast",
				Items: []generic.FoodItem{{Name: "meal " + label, Calories: 400}},
			}},
		}
	}
	return meals
}

// newPlan returns an active plan of duration days with a meal every day.
func newPlan(id, purchaseID string, start generic.Day, duration int) *generic.MealPlan {
	return &generic.MealPlan{
		ID:         id,
		ClientID:   "client-1",
		PurchaseID: purchaseID,
		Name:       fmt.Sprintf("Plan %s", id),
		StartDate:  start,
		EndDate:    start.AddDays(duration - 1),
		Status:     generic.PlanActive,
		Meals:      mealDays(start, duration),
	}
}

func dayStrings(days []generic.Day) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return out
}

func findMeal(plan *generic.MealPlan, d string) *generic.DayEntry {
	for i := range plan.Meals {
		if plan.Meals[i].Date.String() == d {
			return &plan.Meals[i]
		}
	}
	return nil
}
