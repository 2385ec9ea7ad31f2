// Package store provides Store implementations.
package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/dtps/mealplan-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps deep copies of everything it stores so callers can never
// mutate persisted state through a returned pointer.
type Memory struct {
	mu        sync.RWMutex
	txMu      sync.Mutex
	plans     map[string]*generic.MealPlan
	purchases map[string]*generic.Purchase
	audit     []generic.AuditEntry
}

var _ generic.TxStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		plans:     make(map[string]*generic.MealPlan),
		purchases: make(map[string]*generic.Purchase),
	}
}

func (m *Memory) GetPlan(_ context.Context, id string) (*generic.MealPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plans[id]
	if !ok {
		return nil, generic.ErrPlanNotFound
	}
	return p.Clone(), nil
}

func (m *Memory) ListPlansByPurchase(_ context.Context, purchaseID string) ([]*generic.MealPlan, error) {
	return m.filterPlans(func(p *generic.MealPlan) bool { return p.PurchaseID == purchaseID }), nil
}

func (m *Memory) ListPlansByClient(_ context.Context, clientID string) ([]*generic.MealPlan, error) {
	return m.filterPlans(func(p *generic.MealPlan) bool { return p.ClientID == clientID }), nil
}

func (m *Memory) ListPlansByStatus(_ context.Context, status generic.PlanStatus) ([]*generic.MealPlan, error) {
	return m.filterPlans(func(p *generic.MealPlan) bool { return p.Status == status }), nil
}

func (m *Memory) filterPlans(keep func(*generic.MealPlan) bool) []*generic.MealPlan {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*generic.MealPlan
	for _, p := range m.plans {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *generic.MealPlan) int {
		if c := a.StartDate.Compare(b.StartDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// SavePlan enforces the version check and bumps plan.Version on success.
func (m *Memory) SavePlan(_ context.Context, plan *generic.MealPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.plans[plan.ID]
	switch {
	case exists && stored.Version != plan.Version:
		return generic.ErrConcurrentModification
	case !exists && plan.Version != 0:
		return generic.ErrConcurrentModification
	}

	plan.Version++
	m.plans[plan.ID] = plan.Clone()
	return nil
}

func (m *Memory) GetPurchase(_ context.Context, id string) (*generic.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.purchases[id]
	if !ok {
		return nil, generic.ErrPurchaseNotFound
	}
	return clonePurchase(p), nil
}

func (m *Memory) FindPurchaseByPlan(_ context.Context, planID string) (*generic.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Oldest first, like the SQL store.
	var found *generic.Purchase
	for _, p := range m.purchases {
		if p.MealPlanID != planID {
			continue
		}
		if found == nil || p.CreatedAt.Before(found.CreatedAt) ||
			(p.CreatedAt.Equal(found.CreatedAt) && p.ID < found.ID) {
			found = p
		}
	}
	if found == nil {
		return nil, generic.ErrPurchaseNotFound
	}
	return clonePurchase(found), nil
}

func (m *Memory) SavePurchase(_ context.Context, p *generic.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchases[p.ID] = clonePurchase(p)
	return nil
}

func (m *Memory) AppendAudit(_ context.Context, entry generic.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.Dates = slices.Clone(entry.Dates)
	m.audit = append(m.audit, entry)
	return nil
}

func (m *Memory) ListAudit(_ context.Context, planID string) ([]generic.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []generic.AuditEntry
	for _, e := range m.audit {
		if e.PlanID == planID {
			out = append(out, e)
		}
	}
	return out, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// WithTx snapshots the store, runs fn, and restores the snapshot if fn fails.
// Transactions are serialized with each other but not with plain calls.
func (m *Memory) WithTx(ctx context.Context, fn func(generic.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	plans     map[string]*generic.MealPlan
	purchases map[string]*generic.Purchase
	audit     []generic.AuditEntry
}

func (m *Memory) snapshot() memorySnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := memorySnapshot{
		plans:     make(map[string]*generic.MealPlan, len(m.plans)),
		purchases: make(map[string]*generic.Purchase, len(m.purchases)),
		audit:     slices.Clone(m.audit),
	}
	for id, p := range m.plans {
		s.plans[id] = p.Clone()
	}
	for id, p := range m.purchases {
		s.purchases[id] = clonePurchase(p)
	}
	return s
}

func (m *Memory) restore(s memorySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = s.plans
	m.purchases = s.purchases
	m.audit = s.audit
}

func clonePurchase(p *generic.Purchase) *generic.Purchase {
	out := *p
	if p.ExpectedEndDate != nil {
		d := *p.ExpectedEndDate
		out.ExpectedEndDate = &d
	}
	return &out
}

// Reset clears all data (for demo scenarios).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = make(map[string]*generic.MealPlan)
	m.purchases = make(map[string]*generic.Purchase)
	m.audit = nil
	return nil
}
