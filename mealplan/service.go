/*
service.go - Freeze engine entry points

PURPOSE:
  Orchestrates one freeze/unfreeze request end to end:

    load plan -> resolve AllowanceContext -> validate -> mutate clone
      -> persist plan + purchase + audit in one transaction

  The service holds no ambient state: the store, clock, time zone, logger
  and metrics recorder are injected, and the caller's session is passed
  into every operation.

CONCURRENCY:
  Plans carry a version token; a save against a stale version returns
  generic.ErrConcurrentModification and nothing is written. The engine does
  not retry. Sibling plans sharing a purchase are not version-checked, so
  two concurrent freezes on different phases can still overdraw a shared
  allowance.

PURCHASE SYNC:
  Freeze:   purchase.EndDate = latest end of the linked plans; when the plan
            has a PurchaseID and the purchase has an ExpectedEndDate, both
            ExpectedEndDate and EndDate move n days from their previous
            values instead.
  Unfreeze: purchase.EndDate = latest end of the linked plans.

  "Linked plans" are every plan sharing the PurchaseID (the plan alone when
  it has none), so freezing an early phase never pulls the purchase end
  back before a later phase.

SEE ALSO:
  - freeze.go, unfreeze.go: the pure transformations
  - api/handlers.go: HTTP surface
*/
package mealplan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dtps/mealplan-engine/generic"
)

// =============================================================================
// RESULTS
// =============================================================================

// FreezeResult is returned by a successful Freeze.
type FreezeResult struct {
	PlanID              string
	OriginalEndDate     generic.Day
	NewEndDate          generic.Day
	TotalFreezeCount    int // shared total when IsSharedFreeze, else the plan's own
	ThisPlanFreezeCount int
	AllowedFreezeDays   int
	RemainingFreezeDays int
	FrozenDates         []generic.Day
	SkippedDates        []generic.Day
	AddedMealDates      []generic.Day
	CopiedMeals         int
	IsSharedFreeze      bool
}

// UnfreezeResult is returned by a successful Unfreeze.
type UnfreezeResult struct {
	PlanID              string
	PreviousEndDate     generic.Day
	NewEndDate          generic.Day
	TotalFreezeCount    int
	AllowedFreezeDays   int
	RemainingFreezeDays int
	UnfrozenDates       []generic.Day
	RemovedMealDates    []generic.Day
}

// FreezeStatus is the read-only freeze view of a plan.
type FreezeStatus struct {
	PlanID              string
	PlanName            string
	StartDate           generic.Day
	EndDate             generic.Day
	DurationDays        int
	AllowedFreezeDays   int
	TotalFreezeCount    int
	RemainingFreezeDays int
	FreezedDays         []SharedFrozenDay
	CanFreeze           bool
	IsSharedFreeze      bool
	LinkedPlanCount     int
	PurchaseID          string
}

// =============================================================================
// METRICS HOOK
// =============================================================================

// Recorder receives engine outcomes. metrics.Prometheus implements it.
type Recorder interface {
	FreezeApplied(days int, shared bool)
	UnfreezeApplied(days int)
	Rejected(operation string, err error)
}

type nopRecorder struct{}

func (nopRecorder) FreezeApplied(int, bool) {}
func (nopRecorder) UnfreezeApplied(int) {}
func (nopRecorder) Rejected(string, error) {}

// =============================================================================
// SERVICE
// =============================================================================

// Service runs freeze operations against a transactional store.
type Service struct {
	store      generic.TxStore
	aggregator *Aggregator
	clock      generic.Clock
	location   *time.Location
	logger     *zap.Logger
	recorder   Recorder
}

// Option configures a Service.
type Option func(*Service)

func WithClock(c generic.Clock) Option { return func(s *Service) { s.clock = c } }
func WithLocation(loc *time.Location) Option { return func(s *Service) { s.location = loc } }
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }
func WithRecorder(r Recorder) Option { return func(s *Service) { s.recorder = r } }

// NewService creates a freeze service. Defaults: system clock, UTC, no-op
// logger and recorder.
func NewService(store generic.TxStore, opts ...Option) *Service {
	s := &Service{
		store:      store,
		aggregator: NewAggregator(store),
		clock:      generic.SystemClock,
		location:   time.UTC,
		logger:     zap.NewNop(),
		recorder:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the time zone "today" is evaluated in.
func (s *Service) Location() *time.Location { return s.location }

// Today is the current calendar day in the service time zone.
func (s *Service) Today() generic.Day { return s.clock.Today(s.location) }

// Status returns the freeze allowance view of a plan.
func (s *Service) Status(ctx context.Context, planID string) (*FreezeStatus, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", planID, err)
	}

	ac, err := s.aggregator.ResolveAllowance(ctx, plan)
	if err != nil {
		return nil, err
	}

	remaining := ac.Remaining()
	return &FreezeStatus{
		PlanID:              plan.ID,
		PlanName:            plan.Name,
		StartDate:           plan.StartDate,
		EndDate:             plan.EndDate,
		DurationDays:        ac.DurationDays,
		AllowedFreezeDays:   ac.AllowedFreezeDays,
		TotalFreezeCount:    ac.TotalFreezeCount,
		RemainingFreezeDays: remaining,
		FreezedDays:         ac.Days,
		CanFreeze:           remaining > 0 && plan.Status.Freezable(),
		IsSharedFreeze:      ac.Shared,
		LinkedPlanCount:     ac.LinkedPlanCount,
		PurchaseID:          plan.PurchaseID,
	}, nil
}

// Freeze pauses the requested days of a plan.
func (s *Service) Freeze(ctx context.Context, session generic.Session, planID string, rawDates []string) (*FreezeResult, error) {
	res, err := s.freeze(ctx, session, planID, rawDates)
	if err != nil {
		s.recorder.Rejected("freeze", err)
		return nil, err
	}
	s.recorder.FreezeApplied(len(res.FrozenDates), res.IsSharedFreeze)
	return res, nil
}

func (s *Service) freeze(ctx context.Context, session generic.Session, planID string, rawDates []string) (*FreezeResult, error) {
	if session.IsZero() {
		return nil, generic.ErrUnauthorized
	}
	if len(rawDates) == 0 {
		return nil, generic.ErrNoDates
	}
	requested, err := ParseDays(rawDates, s.location)
	if err != nil {
		return nil, err
	}

	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", planID, err)
	}
	if !plan.Status.Freezable() {
		return nil, generic.ErrPlanNotFreezable
	}

	ac, err := s.aggregator.ResolveAllowance(ctx, plan)
	if err != nil {
		return nil, err
	}

	accepted, skipped, err := ValidateFreeze(plan, ac, requested, s.Today())
	if err != nil {
		return nil, err
	}

	now := s.clock()
	work := plan.Clone()
	outcome := ApplyFreeze(work, accepted, now)

	err = s.store.WithTx(ctx, func(st generic.Store) error {
		if err := st.SavePlan(ctx, work); err != nil {
			return fmt.Errorf("save plan %s: %w", work.ID, err)
		}
		if err := s.syncPurchaseAfterFreeze(ctx, st, work, plan.PurchaseID, len(accepted), now); err != nil {
			return err
		}
		return st.AppendAudit(ctx, s.auditEntry(session, generic.AuditFreeze, work, accepted, now, map[string]any{
			"originalEndDate": outcome.OriginalEndDate.String(),
			"newEndDate":      outcome.NewEndDate.String(),
			"shared":          ac.Shared,
		}))
	})
	if err != nil {
		return nil, err
	}

	total := work.TotalFreezeCount
	if ac.Shared {
		total = ac.TotalFreezeCount + len(accepted)
	}

	s.logger.Info("meal plan frozen",
		zap.String("plan_id", work.ID),
		zap.String("user_id", session.UserID),
		zap.Int("days", len(accepted)),
		zap.Int("skipped", len(skipped)),
		zap.Bool("shared", ac.Shared),
		zap.String("new_end_date", outcome.NewEndDate.String()),
	)

	return &FreezeResult{
		PlanID:              work.ID,
		OriginalEndDate:     outcome.OriginalEndDate,
		NewEndDate:          outcome.NewEndDate,
		TotalFreezeCount:    total,
		ThisPlanFreezeCount: work.TotalFreezeCount,
		AllowedFreezeDays:   ac.AllowedFreezeDays,
		RemainingFreezeDays: generic.RemainingFreezeDays(ac.AllowedFreezeDays, total),
		FrozenDates:         outcome.FrozenDates,
		SkippedDates:        skipped,
		AddedMealDates:      outcome.AddedMealDates,
		CopiedMeals:         outcome.CopiedMeals,
		IsSharedFreeze:      ac.Shared,
	}, nil
}

// Unfreeze reverses freezes on the plan's own frozen days.
func (s *Service) Unfreeze(ctx context.Context, session generic.Session, planID string, rawDates []string) (*UnfreezeResult, error) {
	res, err := s.unfreeze(ctx, session, planID, rawDates)
	if err != nil {
		s.recorder.Rejected("unfreeze", err)
		return nil, err
	}
	s.recorder.UnfreezeApplied(len(res.UnfrozenDates))
	return res, nil
}

func (s *Service) unfreeze(ctx context.Context, session generic.Session, planID string, rawDates []string) (*UnfreezeResult, error) {
	if session.IsZero() {
		return nil, generic.ErrUnauthorized
	}
	if len(rawDates) == 0 {
		return nil, generic.ErrNoDates
	}
	requested, err := ParseDays(rawDates, s.location)
	if err != nil {
		return nil, err
	}

	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", planID, err)
	}

	ac, err := s.aggregator.ResolveAllowance(ctx, plan)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	work := plan.Clone()
	outcome, err := ApplyUnfreeze(work, requested, now)
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(st generic.Store) error {
		if err := st.SavePlan(ctx, work); err != nil {
			return fmt.Errorf("save plan %s: %w", work.ID, err)
		}
		if err := s.syncPurchaseEndDate(ctx, st, work, now); err != nil {
			return err
		}
		return st.AppendAudit(ctx, s.auditEntry(session, generic.AuditUnfreeze, work, outcome.UnfrozenDates, now, map[string]any{
			"previousEndDate": outcome.PreviousEndDate.String(),
			"newEndDate":      outcome.NewEndDate.String(),
		}))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("meal plan unfrozen",
		zap.String("plan_id", work.ID),
		zap.String("user_id", session.UserID),
		zap.Int("days", len(outcome.UnfrozenDates)),
		zap.Int("removed_recovery_days", len(outcome.RemovedMealDates)),
	)

	// Unfreeze changes neither the counters nor the purchased span, so the
	// context resolved before the change still holds.
	return &UnfreezeResult{
		PlanID:              work.ID,
		PreviousEndDate:     outcome.PreviousEndDate,
		NewEndDate:          outcome.NewEndDate,
		TotalFreezeCount:    ac.TotalFreezeCount,
		AllowedFreezeDays:   ac.AllowedFreezeDays,
		RemainingFreezeDays: ac.Remaining(),
		UnfrozenDates:       outcome.UnfrozenDates,
		RemovedMealDates:    outcome.RemovedMealDates,
	}, nil
}

// History returns the freeze audit trail of a plan.
func (s *Service) History(ctx context.Context, planID string) ([]generic.AuditEntry, error) {
	if _, err := s.store.GetPlan(ctx, planID); err != nil {
		return nil, fmt.Errorf("load plan %s: %w", planID, err)
	}
	return s.store.ListAudit(ctx, planID)
}

// =============================================================================
// PURCHASE SYNC
// =============================================================================

// linkedPurchase finds the purchase by id, else the one bought for the plan.
// A missing purchase is not an error: there is simply nothing to sync.
func linkedPurchase(ctx context.Context, st generic.Store, plan *generic.MealPlan) (*generic.Purchase, error) {
	var (
		p   *generic.Purchase
		err error
	)
	if plan.PurchaseID != "" {
		p, err = st.GetPurchase(ctx, plan.PurchaseID)
	} else {
		p, err = st.FindPurchaseByPlan(ctx, plan.ID)
	}
	if errors.Is(err, generic.ErrPurchaseNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load purchase for plan %s: %w", plan.ID, err)
	}
	return p, nil
}

// linkedEndDate is the latest end date across the plans sharing plan's
// purchase. plan must already be saved in st.
func linkedEndDate(ctx context.Context, st generic.Store, plan *generic.MealPlan) (generic.Day, error) {
	if plan.PurchaseID == "" {
		return plan.EndDate, nil
	}
	plans, err := st.ListPlansByPurchase(ctx, plan.PurchaseID)
	if err != nil {
		return generic.Day{}, fmt.Errorf("load plans for purchase %s: %w", plan.PurchaseID, err)
	}
	end := plan.EndDate
	for _, p := range plans {
		end = generic.LatestDay(end, p.EndDate)
	}
	return end, nil
}

func (s *Service) syncPurchaseAfterFreeze(ctx context.Context, st generic.Store, plan *generic.MealPlan, purchaseID string, days int, now time.Time) error {
	purchase, err := linkedPurchase(ctx, st, plan)
	if err != nil {
		return err
	}
	if purchase == nil {
		s.logger.Debug("no purchase linked to plan", zap.String("plan_id", plan.ID))
		return nil
	}

	linkedEnd, err := linkedEndDate(ctx, st, plan)
	if err != nil {
		return err
	}

	previousEnd := purchase.EndDate
	if previousEnd.IsZero() {
		previousEnd = plan.EndDate.AddDays(-days)
	}

	purchase.EndDate = linkedEnd
	if purchaseID != "" && purchase.ExpectedEndDate != nil {
		expected := purchase.ExpectedEndDate.AddDays(days)
		purchase.ExpectedEndDate = &expected
		purchase.EndDate = previousEnd.AddDays(days)
	}
	purchase.UpdatedAt = now

	if err := st.SavePurchase(ctx, purchase); err != nil {
		return fmt.Errorf("save purchase %s: %w", purchase.ID, err)
	}
	return nil
}

func (s *Service) syncPurchaseEndDate(ctx context.Context, st generic.Store, plan *generic.MealPlan, now time.Time) error {
	purchase, err := linkedPurchase(ctx, st, plan)
	if err != nil || purchase == nil {
		return err
	}
	linkedEnd, err := linkedEndDate(ctx, st, plan)
	if err != nil {
		return err
	}
	purchase.EndDate = linkedEnd
	purchase.UpdatedAt = now
	if err := st.SavePurchase(ctx, purchase); err != nil {
		return fmt.Errorf("save purchase %s: %w", purchase.ID, err)
	}
	return nil
}

func (s *Service) auditEntry(session generic.Session, action generic.AuditAction, plan *generic.MealPlan, dates []generic.Day, now time.Time, payload map[string]any) generic.AuditEntry {
	return generic.AuditEntry{
		ID:         uuid.NewString(),
		Timestamp:  now,
		ActorID:    session.UserID,
		ActorRole:  string(session.Role),
		Action:     action,
		PlanID:     plan.ID,
		PurchaseID: plan.PurchaseID,
		Dates:      dates,
		Payload:    payload,
	}
}
