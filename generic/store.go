/*
store.go - Persistence interfaces for meal plans, purchases and freeze audit

PURPOSE:
  Defines the interface between the freeze engine and the database.
  The engine never talks to a connection directly: stores are injected,
  so tests run on the in-memory store and the server on SQLite.

KEY INTERFACES:
  PlanStore:     Meal plan documents (load, load siblings by purchase, save)
  PurchaseStore: Purchase records (load, save)
  AuditLog:      Append-only freeze/unfreeze history
  Store:         All of the above
  TxStore:       Store with atomic multi-write support

OPTIMISTIC CONCURRENCY:
  SavePlan compares the stored version with plan.Version. On mismatch it
  returns ErrConcurrentModification and writes nothing; on success it bumps
  plan.Version. New plans are saved with Version 0.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - mealplan/service.go: uses WithTx to persist plan + purchase + audit
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// STORE - Interfaces for plan and purchase persistence
// =============================================================================

// PlanStore persists meal plans.
type PlanStore interface {
	// GetPlan returns the plan or ErrPlanNotFound.
	GetPlan(ctx context.Context, id string) (*MealPlan, error)

	// ListPlansByPurchase returns every plan linked to purchaseID, ordered by start date.
	ListPlansByPurchase(ctx context.Context, purchaseID string) ([]*MealPlan, error)

	// ListPlansByClient returns a client's plans, ordered by start date.
	ListPlansByClient(ctx context.Context, clientID string) ([]*MealPlan, error)

	// ListPlansByStatus returns all plans in a status.
	ListPlansByStatus(ctx context.Context, status PlanStatus) ([]*MealPlan, error)

	// SavePlan inserts or updates a plan with a version check.
	SavePlan(ctx context.Context, plan *MealPlan) error
}

// PurchaseStore persists purchases.
type PurchaseStore interface {
	// GetPurchase returns the purchase or ErrPurchaseNotFound.
	GetPurchase(ctx context.Context, id string) (*Purchase, error)

	// FindPurchaseByPlan returns the purchase bought for planID, or ErrPurchaseNotFound.
	FindPurchaseByPlan(ctx context.Context, planID string) (*Purchase, error)

	// SavePurchase inserts or replaces a purchase.
	SavePurchase(ctx context.Context, p *Purchase) error
}

// Store is everything the engine persists.
type Store interface {
	PlanStore
	PurchaseStore
	AuditLog
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// AUDIT LOG - Who froze what when
// =============================================================================

type AuditAction string

const (
	AuditFreeze   AuditAction = "freeze"
	AuditUnfreeze AuditAction = "unfreeze"
)

// AuditEntry records one successful freeze or unfreeze.
type AuditEntry struct {
	ID         string
	Timestamp  time.Time
	ActorID    string
	ActorRole  string
	Action     AuditAction
	PlanID     string
	PurchaseID string
	Dates      []Day
	Payload    map[string]any
}

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, planID string) ([]AuditEntry, error)
}
