/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types carry
  typed markers (generic.FrozenMarker, generic.RecoveryMarker); the wire
  format flattens them into the isFrozen / isFreezeRecovery /
  originalFreezeDate / originalFreezeDateLabel fields clients expect.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Envelopes

VALIDATION:
  Request types carry go-playground/validator tags; handlers call
  h.decode which validates after decoding. Field names in validation
  messages are the JSON names.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/dtps/mealplan-engine/generic"
	"github.com/dtps/mealplan-engine/mealplan"
)

// =============================================================================
// ENVELOPES
// =============================================================================

// SuccessResponse wraps mutation results.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// ValidationDetail names one invalid request field.
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// =============================================================================
// REQUESTS
// =============================================================================

type FreezeRequest struct {
	FreezeDates []string `json:"freezeDates" validate:"required,min=1,dive,required"`
}

type UnfreezeRequest struct {
	UnfreezeDates []string `json:"unfreezeDates" validate:"required,min=1,dive,required"`
}

// AssignPlanRequest assigns a template to a client.
type AssignPlanRequest struct {
	TemplateID string `json:"templateId" validate:"required"`
	ClientID   string `json:"clientId" validate:"required"`
	PurchaseID string `json:"purchaseId,omitempty"`
	Name       string `json:"name,omitempty" validate:"omitempty,max=200"`
	StartDate  string `json:"startDate" validate:"required"`
	Status     string `json:"status,omitempty" validate:"omitempty,oneof=draft active"`
}

type CreatePurchaseRequest struct {
	ID              string `json:"id,omitempty"`
	ClientID        string `json:"clientId" validate:"required"`
	MealPlanID      string `json:"mealPlanId,omitempty"`
	PlanName        string `json:"planName,omitempty"`
	DurationDays    int    `json:"durationDays" validate:"required,min=1,max=730"`
	Amount          string `json:"amount" validate:"required"`
	Currency        string `json:"currency" validate:"required,len=3"`
	StartDate       string `json:"startDate" validate:"required"`
	ExpectedEndDate string `json:"expectedEndDate,omitempty"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// MEAL PLANS
// =============================================================================

// DayEntryDTO is one calendar day of a plan on the wire.
type DayEntryDTO struct {
	Date                    string             `json:"date"`
	Day                     string             `json:"day"`
	Slots                   []generic.MealSlot `json:"slots"`
	Notes                   string             `json:"notes,omitempty"`
	State                   string             `json:"state"`
	IsFrozen                bool               `json:"isFrozen,omitempty"`
	FrozenAt                *time.Time         `json:"frozenAt,omitempty"`
	IsFreezeRecovery        bool               `json:"isFreezeRecovery,omitempty"`
	OriginalFreezeDate      string             `json:"originalFreezeDate,omitempty"`
	OriginalFreezeDateLabel string             `json:"originalFreezeDateLabel,omitempty"`
}

type FrozenDayDTO struct {
	Date      string    `json:"date"`
	AddedDate *string   `json:"addedDate"`
	CreatedAt time.Time `json:"createdAt"`
	PlanID    string    `json:"planId,omitempty"`
	PlanName  string    `json:"planName,omitempty"`
}

type MealPlanDTO struct {
	ID               string         `json:"id"`
	ClientID         string         `json:"clientId"`
	PurchaseID       string         `json:"purchaseId,omitempty"`
	TemplateID       string         `json:"templateId,omitempty"`
	Name             string         `json:"name"`
	StartDate        string         `json:"startDate"`
	EndDate          string         `json:"endDate"`
	Status           string         `json:"status"`
	Meals            []DayEntryDTO  `json:"meals"`
	FreezedDays      []FrozenDayDTO `json:"freezedDays"`
	TotalFreezeCount int            `json:"totalFreezeCount"`
	CreatedBy        string         `json:"createdBy,omitempty"`
	Version          int            `json:"version"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// MealPlanSummaryDTO is a plan without its meals, for listings.
type MealPlanSummaryDTO struct {
	ID               string `json:"id"`
	ClientID         string `json:"clientId"`
	PurchaseID       string `json:"purchaseId,omitempty"`
	Name             string `json:"name"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
	Status           string `json:"status"`
	TotalFreezeCount int    `json:"totalFreezeCount"`
}

// =============================================================================
// FREEZE
// =============================================================================

type FreezeStatusDTO struct {
	PlanID              string         `json:"planId"`
	PlanName            string         `json:"planName"`
	StartDate           string         `json:"startDate"`
	EndDate             string         `json:"endDate"`
	DurationDays        int            `json:"durationDays"`
	AllowedFreezeDays   int            `json:"allowedFreezeDays"`
	TotalFreezeCount    int            `json:"totalFreezeCount"`
	RemainingFreezeDays int            `json:"remainingFreezeDays"`
	FreezedDays         []FrozenDayDTO `json:"freezedDays"`
	CanFreeze           bool           `json:"canFreeze"`
	IsSharedFreeze      bool           `json:"isSharedFreeze"`
	LinkedPlanCount     int            `json:"linkedPlanCount"`
	PurchaseID          *string        `json:"purchaseId"`
}

type FreezeResultDTO struct {
	PlanID              string   `json:"planId"`
	OriginalEndDate     string   `json:"originalEndDate"`
	NewEndDate          string   `json:"newEndDate"`
	TotalFreezeCount    int      `json:"totalFreezeCount"`
	ThisPlanFreezeCount int      `json:"thisPlanFreezeCount"`
	AllowedFreezeDays   int      `json:"allowedFreezeDays"`
	RemainingFreezeDays int      `json:"remainingFreezeDays"`
	FrozenDates         []string `json:"frozenDates"`
	SkippedDates        []string `json:"skippedDates"`
	AddedMealDates      []string `json:"addedMealDates"`
	CopiedMeals         int      `json:"copiedMeals"`
	IsSharedFreeze      bool     `json:"isSharedFreeze"`
}

type UnfreezeResultDTO struct {
	PlanID              string   `json:"planId"`
	PreviousEndDate     string   `json:"previousEndDate"`
	NewEndDate          string   `json:"newEndDate"`
	TotalFreezeCount    int      `json:"totalFreezeCount"`
	AllowedFreezeDays   int      `json:"allowedFreezeDays"`
	RemainingFreezeDays int      `json:"remainingFreezeDays"`
	UnfrozenDates       []string `json:"unfrozenDates"`
	RemovedMealDates    []string `json:"removedMealDates"`
}

type AuditEntryDTO struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	ActorID    string         `json:"actorId"`
	ActorRole  string         `json:"actorRole,omitempty"`
	Action     string         `json:"action"`
	PlanID     string         `json:"planId"`
	PurchaseID string         `json:"purchaseId,omitempty"`
	Dates      []string       `json:"dates"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// =============================================================================
// PURCHASES / SCENARIOS
// =============================================================================

type PurchaseDTO struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"clientId"`
	MealPlanID      string    `json:"mealPlanId,omitempty"`
	PlanName        string    `json:"planName,omitempty"`
	DurationDays    int       `json:"durationDays"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	StartDate       string    `json:"startDate"`
	EndDate         string    `json:"endDate"`
	ExpectedEndDate *string   `json:"expectedEndDate"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toDayEntryDTO(d generic.DayEntry) DayEntryDTO {
	dto := DayEntryDTO{
		Date:  d.Date.String(),
		Day:   d.Label,
		Slots: d.Slots,
		Notes: d.Notes,
		State: d.State().String(),
	}
	if dto.Slots == nil {
		dto.Slots = []generic.MealSlot{}
	}
	if d.Frozen != nil {
		at := d.Frozen.FrozenAt
		dto.IsFrozen = true
		dto.FrozenAt = &at
	}
	if d.Recovery != nil {
		dto.IsFreezeRecovery = true
		dto.OriginalFreezeDate = d.Recovery.OriginalDate.String()
		dto.OriginalFreezeDateLabel = d.Recovery.OriginalLabel
	}
	return dto
}

func toFrozenDayDTO(f generic.FrozenDay) FrozenDayDTO {
	dto := FrozenDayDTO{Date: f.Date.String(), CreatedAt: f.CreatedAt}
	if f.AddedDate != nil {
		s := f.AddedDate.String()
		dto.AddedDate = &s
	}
	return dto
}

func toMealPlanDTO(p *generic.MealPlan) MealPlanDTO {
	dto := MealPlanDTO{
		ID:               p.ID,
		ClientID:         p.ClientID,
		PurchaseID:       p.PurchaseID,
		TemplateID:       p.TemplateID,
		Name:             p.Name,
		StartDate:        p.StartDate.String(),
		EndDate:          p.EndDate.String(),
		Status:           string(p.Status),
		Meals:            make([]DayEntryDTO, len(p.Meals)),
		FreezedDays:      make([]FrozenDayDTO, len(p.FreezedDays)),
		TotalFreezeCount: p.TotalFreezeCount,
		CreatedBy:        p.CreatedBy,
		Version:          p.Version,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	for i, m := range p.Meals {
		dto.Meals[i] = toDayEntryDTO(m)
	}
	for i, f := range p.FreezedDays {
		dto.FreezedDays[i] = toFrozenDayDTO(f)
	}
	return dto
}

func toMealPlanSummaryDTO(p *generic.MealPlan) MealPlanSummaryDTO {
	return MealPlanSummaryDTO{
		ID:               p.ID,
		ClientID:         p.ClientID,
		PurchaseID:       p.PurchaseID,
		Name:             p.Name,
		StartDate:        p.StartDate.String(),
		EndDate:          p.EndDate.String(),
		Status:           string(p.Status),
		TotalFreezeCount: p.TotalFreezeCount,
	}
}

func toFreezeStatusDTO(s *mealplan.FreezeStatus) FreezeStatusDTO {
	dto := FreezeStatusDTO{
		PlanID:              s.PlanID,
		PlanName:            s.PlanName,
		StartDate:           s.StartDate.String(),
		EndDate:             s.EndDate.String(),
		DurationDays:        s.DurationDays,
		AllowedFreezeDays:   s.AllowedFreezeDays,
		TotalFreezeCount:    s.TotalFreezeCount,
		RemainingFreezeDays: s.RemainingFreezeDays,
		FreezedDays:         make([]FrozenDayDTO, len(s.FreezedDays)),
		CanFreeze:           s.CanFreeze,
		IsSharedFreeze:      s.IsSharedFreeze,
		LinkedPlanCount:     s.LinkedPlanCount,
	}
	for i, f := range s.FreezedDays {
		dto.FreezedDays[i] = toFrozenDayDTO(f.FrozenDay)
		dto.FreezedDays[i].PlanID = f.PlanID
		dto.FreezedDays[i].PlanName = f.PlanName
	}
	if s.PurchaseID != "" {
		id := s.PurchaseID
		dto.PurchaseID = &id
	}
	return dto
}

func toFreezeResultDTO(r *mealplan.FreezeResult) FreezeResultDTO {
	return FreezeResultDTO{
		PlanID:              r.PlanID,
		OriginalEndDate:     r.OriginalEndDate.String(),
		NewEndDate:          r.NewEndDate.String(),
		TotalFreezeCount:    r.TotalFreezeCount,
		ThisPlanFreezeCount: r.ThisPlanFreezeCount,
		AllowedFreezeDays:   r.AllowedFreezeDays,
		RemainingFreezeDays: r.RemainingFreezeDays,
		FrozenDates:         dayStrings(r.FrozenDates),
		SkippedDates:        dayStrings(r.SkippedDates),
		AddedMealDates:      dayStrings(r.AddedMealDates),
		CopiedMeals:         r.CopiedMeals,
		IsSharedFreeze:      r.IsSharedFreeze,
	}
}

func toUnfreezeResultDTO(r *mealplan.UnfreezeResult) UnfreezeResultDTO {
	return UnfreezeResultDTO{
		PlanID:              r.PlanID,
		PreviousEndDate:     r.PreviousEndDate.String(),
		NewEndDate:          r.NewEndDate.String(),
		TotalFreezeCount:    r.TotalFreezeCount,
		AllowedFreezeDays:   r.AllowedFreezeDays,
		RemainingFreezeDays: r.RemainingFreezeDays,
		UnfrozenDates:       dayStrings(r.UnfrozenDates),
		RemovedMealDates:    dayStrings(r.RemovedMealDates),
	}
}

func toAuditEntryDTO(e generic.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:         e.ID,
		Timestamp:  e.Timestamp,
		ActorID:    e.ActorID,
		ActorRole:  e.ActorRole,
		Action:     string(e.Action),
		PlanID:     e.PlanID,
		PurchaseID: e.PurchaseID,
		Dates:      dayStrings(e.Dates),
		Payload:    e.Payload,
	}
}

func toPurchaseDTO(p *generic.Purchase) PurchaseDTO {
	dto := PurchaseDTO{
		ID:           p.ID,
		ClientID:     p.ClientID,
		MealPlanID:   p.MealPlanID,
		PlanName:     p.PlanName,
		DurationDays: p.DurationDays,
		Amount:       p.Amount.StringFixed(2),
		Currency:     p.Currency,
		StartDate:    p.StartDate.String(),
		EndDate:      p.EndDate.String(),
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.ExpectedEndDate != nil {
		s := p.ExpectedEndDate.String()
		dto.ExpectedEndDate = &s
	}
	return dto
}

func dayStrings(days []generic.Day) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return out
}
