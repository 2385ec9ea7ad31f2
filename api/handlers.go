/*
handlers.go - HTTP API handlers for the meal-plan freeze engine

PURPOSE:
  Exposes the freeze engine and the plan/purchase records it works on via
  REST API. Handles HTTP request/response, JSON serialization, and
  delegates to mealplan.Service.

ENDPOINTS:
  Freeze:
    GET    /api/meal-plans/{id}/freeze          Allowance status
    POST   /api/meal-plans/{id}/freeze          Freeze dates
    DELETE /api/meal-plans/{id}/freeze          Unfreeze dates
    GET    /api/meal-plans/{id}/freeze/history  Audit trail

  Plans:
    POST   /api/meal-plans                      Assign a template
    GET    /api/meal-plans/{id}                 Full plan with meals
    GET    /api/clients/{clientId}/meal-plans   Client's plans

  Purchases / templates:
    POST   /api/purchases, GET /api/purchases/{id}
    GET    /api/templates

REQUEST FLOW:
  1. Parse and validate the request body
  2. Take the session from the auth middleware
  3. Call the service
  4. Serialize response (envelope for mutations)
  5. Map errors to status codes (writeServiceError)

ERROR HANDLING:
  - 400: Validation errors, invalid input, allowance exceeded
  - 401: No session
  - 403: Role not allowed
  - 404: Plan or purchase not found
  - 409: Concurrent modification
  - 500: Internal errors (generic message, cause logged)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dtps/mealplan-engine/factory"
	"github.com/dtps/mealplan-engine/generic"
	"github.com/dtps/mealplan-engine/logger"
	"github.com/dtps/mealplan-engine/mealplan"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is what the API persists to: the engine store plus a reset for
// demo scenarios.
type Store interface {
	generic.TxStore
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     Store
	Service   *mealplan.Service
	Templates *factory.TemplateFactory
	Logger    *zap.Logger

	validate *validator.Validate

	// Track currently loaded scenario
	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(store Store, service *mealplan.Service, templates *factory.TemplateFactory, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:     store,
		Service:   service,
		Templates: templates,
		Logger:    log,
		validate:  newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// =============================================================================
// FREEZE HANDLERS
// =============================================================================

// GetFreezeStatus returns the freeze allowance of a plan.
func (h *Handler) GetFreezeStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Service.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFreezeStatusDTO(status))
}

// FreezePlan freezes the requested dates.
func (h *Handler) FreezePlan(w http.ResponseWriter, r *http.Request) {
	var req FreezeRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.Service.Freeze(r.Context(), SessionFrom(r.Context()), chi.URLParam(r, "id"), req.FreezeDates)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	msg := fmt.Sprintf("Froze %d day(s); plan now ends %s", len(res.FrozenDates), res.NewEndDate)
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: msg, Data: toFreezeResultDTO(res)})
}

// UnfreezePlan reverses freezes on the requested dates.
func (h *Handler) UnfreezePlan(w http.ResponseWriter, r *http.Request) {
	var req UnfreezeRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.Service.Unfreeze(r.Context(), SessionFrom(r.Context()), chi.URLParam(r, "id"), req.UnfreezeDates)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	msg := fmt.Sprintf("Unfroze %d day(s); plan now ends %s", len(res.UnfrozenDates), res.NewEndDate)
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: msg, Data: toUnfreezeResultDTO(res)})
}

// GetFreezeHistory returns the plan's freeze audit trail.
func (h *Handler) GetFreezeHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toAuditEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// MEAL PLAN HANDLERS
// =============================================================================

// GetMealPlan returns a plan with its meals.
func (h *Handler) GetMealPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.Store.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMealPlanDTO(plan))
}

// ListClientMealPlans returns a client's plans without meals.
func (h *Handler) ListClientMealPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Store.ListPlansByClient(r.Context(), chi.URLParam(r, "clientId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	dtos := make([]MealPlanSummaryDTO, len(plans))
	for i, p := range plans {
		dtos[i] = toMealPlanSummaryDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AssignMealPlan creates a plan for a client from a template.
func (h *Handler) AssignMealPlan(w http.ResponseWriter, r *http.Request) {
	var req AssignPlanRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	start, err := generic.ParseDay(req.StartDate, h.Service.Location())
	if err != nil {
		h.writeServiceError(w, r, &generic.InvalidDateError{Value: req.StartDate})
		return
	}
	if req.PurchaseID != "" {
		if _, err := h.Store.GetPurchase(ctx, req.PurchaseID); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}

	plan, err := h.Templates.Assign(req.TemplateID, factory.Assignment{
		ClientID:   req.ClientID,
		PurchaseID: req.PurchaseID,
		Name:       req.Name,
		StartDate:  start,
		Status:     generic.PlanStatus(req.Status),
		CreatedBy:  SessionFrom(ctx).UserID,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := h.Store.SavePlan(ctx, plan); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	logger.FromContext(ctx).Info("meal plan assigned",
		zap.String("plan_id", plan.ID),
		zap.String("client_id", plan.ClientID),
		zap.String("template_id", plan.TemplateID),
	)
	writeJSON(w, http.StatusCreated, SuccessResponse{Success: true, Message: "Meal plan assigned", Data: toMealPlanDTO(plan)})
}

// =============================================================================
// PURCHASE / TEMPLATE HANDLERS
// =============================================================================

// CreatePurchase records a purchase.
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest
	if !h.decode(w, r, &req) {
		return
	}
	loc := h.Service.Location()

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid amount", []ValidationDetail{{Field: "amount", Message: "Must be a non-negative decimal"}})
		return
	}
	start, err := generic.ParseDay(req.StartDate, loc)
	if err != nil {
		h.writeServiceError(w, r, &generic.InvalidDateError{Value: req.StartDate})
		return
	}

	p := &generic.Purchase{
		ID:           req.ID,
		ClientID:     req.ClientID,
		MealPlanID:   req.MealPlanID,
		PlanName:     req.PlanName,
		DurationDays: req.DurationDays,
		Amount:       amount,
		Currency:     strings.ToUpper(req.Currency),
		StartDate:    start,
		EndDate:      start.AddDays(req.DurationDays - 1),
		Status:       generic.PurchaseActive,
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if req.ExpectedEndDate != "" {
		expected, err := generic.ParseDay(req.ExpectedEndDate, loc)
		if err != nil {
			h.writeServiceError(w, r, &generic.InvalidDateError{Value: req.ExpectedEndDate})
			return
		}
		p.ExpectedEndDate = &expected
	}

	if err := h.Store.SavePurchase(r.Context(), p); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SuccessResponse{Success: true, Message: "Purchase recorded", Data: toPurchaseDTO(p)})
}

// GetPurchase returns a purchase.
func (h *Handler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetPurchase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchaseDTO(p))
}

// ListTemplates returns the registered meal-plan templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Templates.List())
}

// Health reports whether the service is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, details any) {
	resp := ErrorResponse{Error: message}
	switch d := details.(type) {
	case nil:
	case error:
		resp.Details = d.Error()
	default:
		resp.Details = d
	}
	writeJSON(w, status, resp)
}

// decode reads a JSON body into dst and validates it. It writes the 400
// response itself and reports whether the handler may continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]ValidationDetail, len(verrs))
			for i, e := range verrs {
				details[i] = ValidationDetail{Field: e.Field(), Message: validationMessage(e)}
			}
			writeError(w, http.StatusBadRequest, "Request validation failed", details)
			return false
		}
		writeError(w, http.StatusBadRequest, "Request validation failed", err)
		return false
	}
	return true
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Must be at least " + e.Param()
	case "max":
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "oneof":
		return "Must be one of: " + e.Param()
	default:
		return "Invalid value"
	}
}

// writeServiceError maps engine errors to status codes. Client errors carry
// the engine message; anything unexpected is logged and hidden.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var allowErr *generic.AllowanceExceededError
	switch {
	case errors.As(err, &allowErr):
		writeError(w, http.StatusBadRequest, allowErr.Error(), map[string]any{
			"allowedFreezeDays":   allowErr.Allowed,
			"totalFreezeCount":    allowErr.Used,
			"requested":           allowErr.Requested,
			"remainingFreezeDays": allowErr.Remaining(),
			"isSharedFreeze":      allowErr.Shared,
		})
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, rootMessage(err), nil)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case generic.IsConflict(err):
		writeError(w, http.StatusConflict, "The meal plan was modified by another request, reload and retry", nil)
	case errors.Is(err, generic.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
	case errors.Is(err, generic.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden", nil)
	default:
		h.requestLogger(r).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func (h *Handler) requestLogger(r *http.Request) *zap.Logger {
	l := logger.FromContext(r.Context())
	if !l.Core().Enabled(zap.ErrorLevel) {
		l = h.Logger
	}
	return l.With(zap.String("request_id", middleware.GetReqID(r.Context())))
}

// rootMessage strips wrapping context ("load plan x: meal plan not found")
// down to the sentinel text for 404 bodies.
func rootMessage(err error) string {
	switch {
	case errors.Is(err, generic.ErrPlanNotFound):
		return generic.ErrPlanNotFound.Error()
	case errors.Is(err, generic.ErrPurchaseNotFound):
		return generic.ErrPurchaseNotFound.Error()
	default:
		return err.Error()
	}
}
