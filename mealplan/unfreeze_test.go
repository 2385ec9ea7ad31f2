package mealplan_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtps/mealplan-engine/generic"
	"github.com/dtps/mealplan-engine/mealplan"
)

func TestApplyUnfreeze_RemovesOnlyItsRecoveryDay(t *testing.T) {
	// GIVEN: March 3 and March 5 frozen; copies on March 31 and April 1
	plan := newPlan("plan-1", "", march1, 30)
	mealplan.ApplyFreeze(plan, []generic.Day{day("2025-03-03"), day("2025-03-05")}, testNow)

	// WHEN: March 5 is unfrozen
	out, err := mealplan.ApplyUnfreeze(plan, []generic.Day{day("2025-03-05")}, testNow)
	require.NoError(t, err)

	// THEN: Its copy is gone, the other freeze is intact
	assert.Equal(t, []string{"2025-03-05"}, dayStrings(out.UnfrozenDates))
	assert.Equal(t, []string{"2025-04-01"}, dayStrings(out.RemovedMealDates))
	assert.Equal(t, "2025-04-01", out.PreviousEndDate.String())
	assert.Equal(t, "2025-03-31", plan.EndDate.String())

	assert.Nil(t, findMeal(plan, "2025-04-01"))
	require.NotNil(t, findMeal(plan, "2025-03-31"))
	assert.True(t, findMeal(plan, "2025-03-31").IsRecovery())
	assert.False(t, findMeal(plan, "2025-03-05").IsFrozen())
	assert.True(t, findMeal(plan, "2025-03-03").IsFrozen())
	assert.Equal(t, "meal Day 5", findMeal(plan, "2025-03-05").Slots[0].Items[0].Name)

	require.Len(t, plan.FreezedDays, 1)
	assert.Equal(t, "2025-03-03", plan.FreezedDays[0].Date.String())
}

func TestApplyUnfreeze_DoesNotRefundAllowance(t *testing.T) {
	plan := newPlan("plan-1", "", march1, 30)
	mealplan.ApplyFreeze(plan, []generic.Day{day("2025-03-03"), day("2025-03-05")}, testNow)

	_, err := mealplan.ApplyUnfreeze(plan, []generic.Day{day("2025-03-03"), day("2025-03-05")}, testNow)
	require.NoError(t, err)

	assert.Equal(t, 2, plan.TotalFreezeCount)
	assert.Empty(t, plan.FreezedDays)
	assert.Equal(t, "2025-03-30", plan.EndDate.String())
	assert.Len(t, plan.Meals, 30)
	assert.Equal(t, 8, mealplan.LocalAllowance(plan).Remaining())
}

func TestApplyUnfreeze_UnknownDatesIgnoredWhenOthersMatch(t *testing.T) {
	plan := newPlan("plan-1", "", march1, 30)
	mealplan.ApplyFreeze(plan, []generic.Day{day("2025-03-03")}, testNow)

	out, err := mealplan.ApplyUnfreeze(plan, []generic.Day{day("2025-03-03"), day("2025-03-20")}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-03"}, dayStrings(out.UnfrozenDates))
	assert.Equal(t, "2025-03-30", plan.EndDate.String())
}

func TestApplyUnfreeze_NoMatchingDates(t *testing.T) {
	plan := newPlan("plan-1", "", march1, 30)
	mealplan.ApplyFreeze(plan, []generic.Day{day("2025-03-03")}, testNow)
	before := plan.Clone()

	_, err := mealplan.ApplyUnfreeze(plan, []generic.Day{day("2025-03-20")}, testNow)

	var noMatch *generic.NoMatchingFrozenDatesError
	require.ErrorAs(t, err, &noMatch)
	assert.True(t, errors.Is(err, generic.ErrNoMatchingFrozenDates))
	assert.Equal(t, before, plan)
}

func TestApplyUnfreeze_NoDates(t *testing.T) {
	plan := newPlan("plan-1", "", march1, 30)
	_, err := mealplan.ApplyUnfreeze(plan, nil, testNow)
	assert.ErrorIs(t, err, generic.ErrNoDates)
}

func TestApplyUnfreeze_DayWithoutRecoveryCopy(t *testing.T) {
	plan := newPlan("plan-1", "", march1, 30)
	plan.Meals = plan.Meals[:10]
	mealplan.ApplyFreeze(plan, []generic.Day{day("2025-03-20")}, testNow)

	out, err := mealplan.ApplyUnfreeze(plan, []generic.Day{day("2025-03-20")}, testNow)
	require.NoError(t, err)
	assert.Empty(t, out.RemovedMealDates)
	assert.Len(t, plan.Meals, 10)
	assert.Equal(t, "2025-03-30", plan.EndDate.String())
}
