package metrics_test

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtps/mealplan-engine/generic"
	"github.com/dtps/mealplan-engine/metrics"
)

func TestOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&generic.AllowanceExceededError{Allowed: 10, Used: 10, Requested: 1}, "allowance_exceeded"},
		{fmt.Errorf("load plan x: %w", generic.ErrPlanNotFound), "not_found"},
		{&generic.PastDateError{}, "invalid"},
		{generic.ErrNoMatchingFrozenDates, "invalid"},
		{generic.ErrConcurrentModification, "conflict"},
		{generic.ErrUnauthorized, "unauthorized"},
		{errors.New("disk full"), "error"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, metrics.Outcome(tc.err), "%v", tc.err)
	}
}

func TestPrometheus_Counters(t *testing.T) {
	p := metrics.New()

	p.FreezeApplied(3, false)
	p.FreezeApplied(2, true)
	p.UnfreezeApplied(1)
	p.Rejected("freeze", generic.ErrPlanNotFound)

	const want = `
# HELP mealplan_frozen_days_total Calendar days frozen, split by shared or plan-local allowance.
# TYPE mealplan_frozen_days_total counter
mealplan_frozen_days_total{allowance="local"} 3
mealplan_frozen_days_total{allowance="shared"} 2
# HELP mealplan_unfrozen_days_total Calendar days unfrozen.
# TYPE mealplan_unfrozen_days_total counter
mealplan_unfrozen_days_total 1
`
	require.NoError(t, testutil.GatherAndCompare(p.Registry(), strings.NewReader(want),
		"mealplan_frozen_days_total", "mealplan_unfrozen_days_total"))

	// freeze/ok, unfreeze/ok and freeze/not_found
	n, err := testutil.GatherAndCount(p.Registry(), "mealplan_freeze_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPrometheus_Handler(t *testing.T) {
	p := metrics.New()
	p.FreezeApplied(1, false)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `mealplan_freeze_requests_total{operation="freeze",outcome="ok"} 1`)
}
