/*
scheduler.go - Automated plan lifecycle scheduler

PURPOSE:
  Periodically completes active meal plans whose end date has passed.
  Freezing pushes the end date out, so a frozen plan stays active for as
  long as its recovery days run.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - "Today" comes from the freeze service (same clock and time zone)
  - A plan modified concurrently (version conflict) is skipped and picked
    up again on the next tick

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewLifecycleScheduler(store, service, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - mealplan/service.go: Today()
*/
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dtps/mealplan-engine/generic"
	"github.com/dtps/mealplan-engine/mealplan"
)

// LifecycleScheduler completes expired meal plans.
type LifecycleScheduler struct {
	Store         generic.PlanStore
	Service       *mealplan.Service
	CheckInterval time.Duration
	Enabled       bool

	logger *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewLifecycleScheduler creates a new scheduler.
func NewLifecycleScheduler(store generic.PlanStore, service *mealplan.Service, log *zap.Logger) *LifecycleScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LifecycleScheduler{
		Store:         store,
		Service:       service,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		logger:        log.Named("scheduler"),
	}
}

// Start begins the scheduler.
func (ls *LifecycleScheduler) Start() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if !ls.Enabled {
		ls.logger.Info("disabled, not starting")
		return
	}
	if ls.ticker != nil {
		return
	}

	ls.ticker = time.NewTicker(ls.CheckInterval)
	ls.stop = make(chan struct{})
	ls.wg.Add(1)

	go ls.run(ls.ticker, ls.stop)

	ls.logger.Info("started", zap.Duration("interval", ls.CheckInterval))
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (ls *LifecycleScheduler) Stop() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.ticker != nil {
		ls.ticker.Stop()
		close(ls.stop)
		ls.wg.Wait()
		ls.ticker = nil
		ls.logger.Info("stopped")
	}
}

func (ls *LifecycleScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ls.wg.Done()

	// Run immediately on start
	ls.sweep()

	for {
		select {
		case <-ticker.C:
			ls.sweep()
		case <-stop:
			return
		}
	}
}

func (ls *LifecycleScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), ls.CheckInterval)
	defer cancel()

	completed, err := ls.CompleteExpired(ctx)
	if err != nil {
		ls.logger.Error("sweep failed", zap.Error(err))
		return
	}
	if completed > 0 {
		ls.logger.Info("completed expired plans", zap.Int("count", completed))
	}
}

// CompleteExpired marks every active plan that ended before today as
// completed and returns how many were changed.
func (ls *LifecycleScheduler) CompleteExpired(ctx context.Context) (int, error) {
	today := ls.Service.Today()

	plans, err := ls.Store.ListPlansByStatus(ctx, generic.PlanActive)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, p := range plans {
		if !p.EndDate.Before(today) {
			continue
		}
		p.Status = generic.PlanCompleted
		p.UpdatedAt = time.Now()
		if err := ls.Store.SavePlan(ctx, p); err != nil {
			if errors.Is(err, generic.ErrConcurrentModification) {
				ls.logger.Debug("plan changed during sweep, skipping", zap.String("plan_id", p.ID))
				continue
			}
			return completed, err
		}
		completed++
	}
	return completed, nil
}
