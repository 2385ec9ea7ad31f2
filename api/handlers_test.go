/*
handlers_test.go - HTTP tests for the freeze API

Tests for:
- Purchase -> assign -> freeze -> unfreeze -> history flow
- Request validation and error mapping (400, 401, 403, 404, 409)
- Bearer token and development header sessions
- Demo scenarios and the lifecycle scheduler
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dtps/mealplan-engine/factory"
	"github.com/dtps/mealplan-engine/generic"
	"github.com/dtps/mealplan-engine/mealplan"
	"github.com/dtps/mealplan-engine/metrics"
	"github.com/dtps/mealplan-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// March 1, 2025 09:00 UTC is "today" for every API test.
var apiNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type testServer struct {
	router  http.Handler
	handler *Handler
	store   *sqlite.Store
	auth    *Authenticator
}

func newTestServer(t *testing.T, devBypass bool) *testServer {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := zaptest.NewLogger(t)
	service := mealplan.NewService(store,
		mealplan.WithClock(generic.FixedClock(apiNow)),
		mealplan.WithLogger(log),
	)
	h := NewHandler(store, service, factory.NewTemplateFactory(), log)
	auth := NewAuthenticator("test-secret", "mealplan-engine", devBypass)

	router := NewRouter(h, RouterConfig{
		Auth:            auth,
		Metrics:         metrics.New().Handler(),
		EnableScenarios: true,
	})
	return &testServer{router: router, handler: h, store: store, auth: auth}
}

// do sends a request as a dietitian unless headers say otherwise.
func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(devUserHeader, "dietitian-1")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) createPurchase(t *testing.T, id string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/purchases", map[string]any{
		"id":              id,
		"clientId":        "client-1",
		"durationDays":    30,
		"amount":          "149.00",
		"currency":        "usd",
		"startDate":       "2025-03-01",
		"expectedEndDate": "2025-03-30",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) assignPlan(t *testing.T, purchaseID, start string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/meal-plans", map[string]any{
		"templateId": "balanced-30",
		"clientId":   "client-1",
		"purchaseId": purchaseID,
		"startDate":  start,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := decodeBody(t, rec)["data"].(map[string]any)
	return data["id"].(string)
}

// =============================================================================
// FREEZE FLOW
// =============================================================================

func TestFreezeFlow(t *testing.T) {
	s := newTestServer(t, true)

	// GIVEN: A purchase and a 30-day plan linked to it
	s.createPurchase(t, "purchase-1")
	planID := s.assignPlan(t, "purchase-1", "2025-03-01")

	rec := s.do(t, http.MethodGet, "/api/meal-plans/"+planID+"/freeze", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeBody(t, rec)
	assert.Equal(t, float64(10), status["allowedFreezeDays"])
	assert.Equal(t, true, status["canFreeze"])
	assert.Equal(t, false, status["isSharedFreeze"])
	assert.Equal(t, "purchase-1", status["purchaseId"])

	// WHEN: March 5 is frozen
	rec = s.do(t, http.MethodPost, "/api/meal-plans/"+planID+"/freeze", FreezeRequest{FreezeDates: []string{"2025-03-05"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: The plan grows by one day and the purchase follows
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "2025-03-31", data["newEndDate"])
	assert.Equal(t, []any{"2025-03-05"}, data["frozenDates"])
	assert.Equal(t, []any{"2025-03-31"}, data["addedMealDates"])
	assert.Equal(t, float64(9), data["remainingFreezeDays"])

	rec = s.do(t, http.MethodGet, "/api/meal-plans/"+planID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	plan := decodeBody(t, rec)
	meals := plan["meals"].([]any)
	require.Len(t, meals, 31)
	frozen := meals[4].(map[string]any)
	assert.Equal(t, true, frozen["isFrozen"])
	assert.Equal(t, "frozen", frozen["state"])
	recovery := meals[30].(map[string]any)
	assert.Equal(t, true, recovery["isFreezeRecovery"])
	assert.Equal(t, "2025-03-05", recovery["originalFreezeDate"])
	assert.Equal(t, "Day 5", recovery["originalFreezeDateLabel"])
	assert.Equal(t, "Day 31", recovery["day"])

	rec = s.do(t, http.MethodGet, "/api/purchases/purchase-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	purchase := decodeBody(t, rec)
	assert.Equal(t, "2025-03-31", purchase["endDate"])
	assert.Equal(t, "2025-03-31", purchase["expectedEndDate"])
	assert.Equal(t, "149.00", purchase["amount"])
	assert.Equal(t, "USD", purchase["currency"])

	// AND: The status keeps the 30-day budget despite the longer plan
	rec = s.do(t, http.MethodGet, "/api/meal-plans/"+planID+"/freeze", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status = decodeBody(t, rec)
	assert.Equal(t, "2025-03-31", status["endDate"])
	assert.Equal(t, float64(30), status["durationDays"])
	assert.Equal(t, float64(10), status["allowedFreezeDays"])
	assert.Equal(t, float64(9), status["remainingFreezeDays"])

	// WHEN: The day is unfrozen
	rec = s.do(t, http.MethodDelete, "/api/meal-plans/"+planID+"/freeze", UnfreezeRequest{UnfreezeDates: []string{"2025-03-05"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data = decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "2025-03-30", data["newEndDate"])
	assert.Equal(t, float64(1), data["totalFreezeCount"])
	assert.Equal(t, float64(10), data["allowedFreezeDays"])
	assert.Equal(t, float64(9), data["remainingFreezeDays"])

	rec = s.do(t, http.MethodGet, "/api/meal-plans/"+planID+"/freeze", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status = decodeBody(t, rec)
	assert.Equal(t, float64(10), status["allowedFreezeDays"])
	assert.Equal(t, float64(9), status["remainingFreezeDays"])

	// THEN: Both operations are in the history
	rec = s.do(t, http.MethodGet, "/api/meal-plans/"+planID+"/freeze/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []AuditEntryDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "freeze", history[0].Action)
	assert.Equal(t, "dietitian-1", history[0].ActorID)
	assert.Equal(t, "unfreeze", history[1].Action)
}

func TestFreeze_SkippedDatesReported(t *testing.T) {
	s := newTestServer(t, true)
	planID := s.assignPlan(t, "", "2025-03-01")

	rec := s.do(t, http.MethodPost, "/api/meal-plans/"+planID+"/freeze", FreezeRequest{FreezeDates: []string{"2025-03-05"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/meal-plans/"+planID+"/freeze", FreezeRequest{FreezeDates: []string{"2025-03-05", "2025-03-06"}})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, []any{"2025-03-06"}, data["frozenDates"])
	assert.Equal(t, []any{"2025-03-05"}, data["skippedDates"])
}

func TestClientMealPlansAndTemplates(t *testing.T) {
	s := newTestServer(t, true)
	s.assignPlan(t, "", "2025-03-31")
	s.assignPlan(t, "", "2025-03-01")

	rec := s.do(t, http.MethodGet, "/api/clients/client-1/meal-plans", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var plans []MealPlanSummaryDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plans))
	require.Len(t, plans, 2)
	assert.Equal(t, "2025-03-01", plans[0].StartDate)

	rec = s.do(t, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var templates []factory.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &templates))
	assert.Len(t, templates, 2)
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestFreeze_RequestValidation(t *testing.T) {
	s := newTestServer(t, true)
	planID := s.assignPlan(t, "", "2025-03-01")

	rec := s.do(t, http.MethodPost, "/api/meal-plans/"+planID+"/freeze", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Request validation failed", body["error"])
	details := body["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "freezeDates", details[0].(map[string]any)["field"])

	rec = s.do(t, http.MethodPost, "/api/meal-plans/"+planID+"/freeze", FreezeRequest{FreezeDates: []string{"next tuesday"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "next tuesday")

	rec = s.do(t, http.MethodPost, "/api/meal-plans/"+planID+"/freeze", FreezeRequest{FreezeDates: []string{"2025-02-27"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "outside the meal plan range")
}

func TestFreeze_AllowanceExceededDetails(t *testing.T) {
	s := newTestServer(t, true)
	planID := s.assignPlan(t, "", "2025-03-01")

	dates := make([]string, 11)
	for i := range dates {
		dates[i] = fmt.Sprintf("2025-03-%02d", i+2)
	}
	rec := s.do(t, http.MethodPost, "/api/meal-plans/"+planID+"/freeze", FreezeRequest{FreezeDates: dates})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	details := decodeBody(t, rec)["details"].(map[string]any)
	assert.Equal(t, float64(10), details["allowedFreezeDays"])
	assert.Equal(t, float64(0), details["totalFreezeCount"])
	assert.Equal(t, float64(11), details["requested"])
	assert.Equal(t, float64(10), details["remainingFreezeDays"])
	assert.Equal(t, false, details["isSharedFreeze"])
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, true)

	for _, path := range []string{
		"/api/meal-plans/missing",
		"/api/meal-plans/missing/freeze",
		"/api/meal-plans/missing/freeze/history",
		"/api/purchases/missing",
	} {
		rec := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec := s.do(t, http.MethodGet, "/api/meal-plans/missing/freeze", nil)
	assert.Equal(t, "meal plan not found", decodeBody(t, rec)["error"])

	rec = s.do(t, http.MethodPost, "/api/meal-plans", map[string]any{
		"templateId": "balanced-30", "clientId": "client-1", "purchaseId": "missing", "startDate": "2025-03-01",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWriteServiceError_Mapping(t *testing.T) {
	h := NewHandler(nil, nil, nil, zaptest.NewLogger(t))

	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("save plan p: %w", generic.ErrConcurrentModification), http.StatusConflict},
		{generic.ErrUnauthorized, http.StatusUnauthorized},
		{generic.ErrForbidden, http.StatusForbidden},
		{generic.ErrPlanNotFreezable, http.StatusBadRequest},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
	}

	rec := httptest.NewRecorder()
	h.writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("disk on fire"))
	assert.Equal(t, "Internal server error", decodeBody(t, rec)["error"])
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

func TestAuth_Unauthenticated(t *testing.T) {
	s := newTestServer(t, false)

	// Health and metrics stay open
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Dev headers are ignored without the bypass
	rec = s.do(t, http.MethodGet, "/api/templates", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/templates", nil, authHeaderKey, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ErrInvalidToken.Error(), decodeBody(t, rec)["details"])

	rec = s.do(t, http.MethodGet, "/api/templates", nil, authHeaderKey, "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_BearerToken(t *testing.T) {
	s := newTestServer(t, false)

	token, err := s.auth.IssueToken("dietitian-7", generic.RoleDietitian)
	require.NoError(t, err)

	session, err := s.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "dietitian-7", session.UserID)
	assert.Equal(t, generic.RoleDietitian, session.Role)

	rec := s.do(t, http.MethodGet, "/api/templates", nil, authHeaderKey, bearerPrefix+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A token from another secret is rejected
	other := NewAuthenticator("other-secret", "mealplan-engine", false)
	forged, err := other.IssueToken("dietitian-7", generic.RoleAdmin)
	require.NoError(t, err)
	_, err = s.auth.ValidateToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// And so is one from another issuer
	foreign := NewAuthenticator("test-secret", "someone-else", false)
	foreignToken, err := foreign.IssueToken("dietitian-7", generic.RoleAdmin)
	require.NoError(t, err)
	_, err = s.auth.ValidateToken(foreignToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuth_ExpiredToken(t *testing.T) {
	auth := NewAuthenticator("test-secret", "", false)
	auth.ttl = -time.Minute

	token, err := auth.IssueToken("dietitian-1", generic.RoleDietitian)
	require.NoError(t, err)
	_, err = auth.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestFreeze_ActorComesFromToken(t *testing.T) {
	s := newTestServer(t, true)
	planID := s.assignPlan(t, "", "2025-03-01")

	token, err := s.auth.IssueToken("counselor-3", generic.RoleHealthCounselor)
	require.NoError(t, err)
	rec := s.do(t, http.MethodPost, "/api/meal-plans/"+planID+"/freeze",
		FreezeRequest{FreezeDates: []string{"2025-03-05"}}, authHeaderKey, bearerPrefix+token)
	require.Equal(t, http.StatusOK, rec.Code)

	entries, err := s.store.ListAudit(context.Background(), planID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "counselor-3", entries[0].ActorID)
	assert.Equal(t, "health_counselor", entries[0].ActorRole)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios_AdminOnly(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(t, http.MethodGet, "/api/scenarios/", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/scenarios/", nil, devRoleHeader, "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []ScenarioDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 3)
}

func TestScenarios_NotMountedWhenDisabled(t *testing.T) {
	s := newTestServer(t, true)
	router := NewRouter(s.handler, RouterConfig{Auth: s.auth})

	req := httptest.NewRequest(http.MethodGet, "/api/scenarios/", nil)
	req.Header.Set(devUserHeader, "admin-1")
	req.Header.Set(devRoleHeader, "admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScenarios_SharedPurchase(t *testing.T) {
	s := newTestServer(t, true)
	admin := []string{devUserHeader, "admin-1", devRoleHeader, "admin"}

	// WHEN: The shared-purchase scenario is loaded
	rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "shared-purchase"}, admin...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: Phase 2 sees the days frozen on phase 1
	rec = s.do(t, http.MethodGet, "/api/meal-plans/plan-phase-2/freeze", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeBody(t, rec)
	assert.Equal(t, true, status["isSharedFreeze"])
	assert.Equal(t, float64(2), status["linkedPlanCount"])
	assert.Equal(t, float64(2), status["totalFreezeCount"])
	assert.Equal(t, float64(20), status["allowedFreezeDays"])
	assert.Equal(t, float64(18), status["remainingFreezeDays"])
	assert.Len(t, status["freezedDays"], 2)

	rec = s.do(t, http.MethodGet, "/api/scenarios/current", nil, admin...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shared-purchase", decodeBody(t, rec)["id"])

	// WHEN: The database is reset
	rec = s.do(t, http.MethodPost, "/api/scenarios/reset", nil, admin...)
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN: The scenario data is gone
	rec = s.do(t, http.MethodGet, "/api/meal-plans/plan-phase-2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScenarios_AllLoad(t *testing.T) {
	s := newTestServer(t, true)
	admin := []string{devUserHeader, "admin-1", devRoleHeader, "admin"}

	for _, sc := range scenarios {
		rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: sc.ID}, admin...)
		assert.Equal(t, http.StatusOK, rec.Code, "%s: %s", sc.ID, rec.Body.String())
	}

	// allowance-used found its purchase through mealPlanId and moved its end date.
	p, err := s.store.GetPurchase(context.Background(), "purchase-used")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-07", p.EndDate.String())

	rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"}, admin...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// LIFECYCLE SCHEDULER
// =============================================================================

func TestLifecycleScheduler_CompleteExpired(t *testing.T) {
	s := newTestServer(t, true)
	ctx := context.Background()

	// GIVEN: A plan that ended in January and one that runs through March
	oldID := s.assignPlan(t, "", "2025-01-01")
	currentID := s.assignPlan(t, "", "2025-03-01")

	scheduler := NewLifecycleScheduler(s.store, s.handler.Service, zaptest.NewLogger(t))

	// WHEN: The sweep runs
	n, err := scheduler.CompleteExpired(ctx)
	require.NoError(t, err)

	// THEN: Only the expired plan is completed
	assert.Equal(t, 1, n)
	old, err := s.store.GetPlan(ctx, oldID)
	require.NoError(t, err)
	assert.Equal(t, generic.PlanCompleted, old.Status)
	current, err := s.store.GetPlan(ctx, currentID)
	require.NoError(t, err)
	assert.Equal(t, generic.PlanActive, current.Status)

	// Completed plans can no longer be frozen
	rec := s.do(t, http.MethodPost, "/api/meal-plans/"+oldID+"/freeze", FreezeRequest{FreezeDates: []string{"2025-03-05"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	n, err = scheduler.CompleteExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLifecycleScheduler_StartStop(t *testing.T) {
	s := newTestServer(t, true)
	scheduler := NewLifecycleScheduler(s.store, s.handler.Service, zaptest.NewLogger(t))
	scheduler.CheckInterval = time.Hour

	scheduler.Start()
	scheduler.Start()
	scheduler.Stop()
	scheduler.Stop()

	disabled := NewLifecycleScheduler(s.store, s.handler.Service, nil)
	disabled.Enabled = false
	disabled.Start()
	disabled.Stop()
}

func TestLifecycleScheduler_RestartKeepsSweeping(t *testing.T) {
	s := newTestServer(t, true)
	ctx := context.Background()
	scheduler := NewLifecycleScheduler(s.store, s.handler.Service, zaptest.NewLogger(t))
	scheduler.CheckInterval = 10 * time.Millisecond

	// GIVEN: A scheduler that was started and stopped once
	scheduler.Start()
	scheduler.Stop()

	// WHEN: It is started again
	scheduler.Start()
	defer scheduler.Stop()

	// THEN: The new run has an open stop channel
	select {
	case <-scheduler.stop:
		t.Fatal("stop channel already closed after restart")
	default:
	}

	// AND: Ticks still complete plans that expire after the restart
	oldID := s.assignPlan(t, "", "2025-01-01")
	assert.Eventually(t, func() bool {
		p, err := s.store.GetPlan(ctx, oldID)
		return err == nil && p.Status == generic.PlanCompleted
	}, 2*time.Second, 10*time.Millisecond)
}
