/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.TxStore (plans, purchases, freeze audit) on SQLite.
  Meal plans are stored as one row per plan with the day entries and the
  frozen-day ledger serialized as JSON columns, mirroring the document
  shape the engine works with.

KEY TABLES:
  meal_plans:    one row per plan phase, meals_json + freezed_days_json
  purchases:     billing records, amount stored as a decimal string
  freeze_events: append-only freeze/unfreeze history

INDEXES:
  - idx_meal_plans_purchase: sibling lookup for the shared ledger (hot path)
  - idx_purchases_meal_plan: purchase fallback lookup by plan

CONCURRENCY:
  sync.RWMutex serializes writers inside the process. Across processes
  the version column carries optimistic concurrency: an UPDATE only
  matches the row version the caller loaded, otherwise
  generic.ErrConcurrentModification.

MIGRATION:
  Versioned migrations are embedded from migrations/ and applied with
  golang-migrate on New().

USAGE:
  store, err := sqlite.New("./data/mealplans.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/dtps/mealplan-engine/generic"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements generic.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ generic.TxStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	if strings.Contains(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate applies the embedded migrations.
func (s *Store) migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create iofs driver: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	// m.Close would close s.db as well, so the instance is simply dropped.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// PLAN STORE (generic.PlanStore interface)
// =============================================================================

const planColumns = `id, client_id, purchase_id, template_id, name, start_date, end_date, status,
	meals_json, freezed_days_json, total_freeze_count, created_by, version, created_at, updated_at`

func (s *Store) GetPlan(ctx context.Context, id string) (*generic.MealPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPlan(ctx, s.db, id)
}

func (s *Store) ListPlansByPurchase(ctx context.Context, purchaseID string) ([]*generic.MealPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryPlans(ctx, s.db, `WHERE purchase_id = ?`, purchaseID)
}

func (s *Store) ListPlansByClient(ctx context.Context, clientID string) ([]*generic.MealPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryPlans(ctx, s.db, `WHERE client_id = ?`, clientID)
}

func (s *Store) ListPlansByStatus(ctx context.Context, status generic.PlanStatus) ([]*generic.MealPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryPlans(ctx, s.db, `WHERE status = ?`, string(status))
}

func (s *Store) SavePlan(ctx context.Context, plan *generic.MealPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePlan(ctx, s.db, plan)
}

func getPlan(ctx context.Context, q querier, id string) (*generic.MealPlan, error) {
	plans, err := queryPlans(ctx, q, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, generic.ErrPlanNotFound
	}
	return plans[0], nil
}

func queryPlans(ctx context.Context, q querier, where string, args ...any) ([]*generic.MealPlan, error) {
	query := `SELECT ` + planColumns + ` FROM meal_plans ` + where + ` ORDER BY start_date ASC, id ASC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []*generic.MealPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func scanPlan(rows *sql.Rows) (*generic.MealPlan, error) {
	var (
		p                      generic.MealPlan
		start, end, status     string
		mealsJSON, freezedJSON string
		createdAt, updatedAt   string
	)
	err := rows.Scan(&p.ID, &p.ClientID, &p.PurchaseID, &p.TemplateID, &p.Name,
		&start, &end, &status, &mealsJSON, &freezedJSON,
		&p.TotalFreezeCount, &p.CreatedBy, &p.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}

	if p.StartDate, err = parseDay(start); err != nil {
		return nil, err
	}
	if p.EndDate, err = parseDay(end); err != nil {
		return nil, err
	}
	p.Status = generic.PlanStatus(status)
	if err := json.Unmarshal([]byte(mealsJSON), &p.Meals); err != nil {
		return nil, fmt.Errorf("plan %s: failed to decode meals: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(freezedJSON), &p.FreezedDays); err != nil {
		return nil, fmt.Errorf("plan %s: failed to decode frozen days: %w", p.ID, err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &p, nil
}

// savePlan inserts a new plan (Version 0) or updates the row at plan.Version.
// On success plan.Version is the stored version.
func savePlan(ctx context.Context, q querier, plan *generic.MealPlan) error {
	mealsJSON, err := json.Marshal(nonNil(plan.Meals))
	if err != nil {
		return fmt.Errorf("failed to encode meals: %w", err)
	}
	freezedJSON, err := json.Marshal(nonNil(plan.FreezedDays))
	if err != nil {
		return fmt.Errorf("failed to encode frozen days: %w", err)
	}

	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	if plan.UpdatedAt.IsZero() {
		plan.UpdatedAt = now
	}

	if plan.Version == 0 {
		_, err := q.ExecContext(ctx, `
			INSERT INTO meal_plans (`+planColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			plan.ID, plan.ClientID, plan.PurchaseID, plan.TemplateID, plan.Name,
			plan.StartDate.String(), plan.EndDate.String(), string(plan.Status),
			string(mealsJSON), string(freezedJSON), plan.TotalFreezeCount, plan.CreatedBy,
			formatTime(plan.CreatedAt), formatTime(plan.UpdatedAt),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return generic.ErrConcurrentModification
			}
			return fmt.Errorf("failed to insert plan: %w", err)
		}
		plan.Version = 1
		return nil
	}

	res, err := q.ExecContext(ctx, `
		UPDATE meal_plans SET
			client_id = ?, purchase_id = ?, template_id = ?, name = ?,
			start_date = ?, end_date = ?, status = ?,
			meals_json = ?, freezed_days_json = ?, total_freeze_count = ?,
			created_by = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		plan.ClientID, plan.PurchaseID, plan.TemplateID, plan.Name,
		plan.StartDate.String(), plan.EndDate.String(), string(plan.Status),
		string(mealsJSON), string(freezedJSON), plan.TotalFreezeCount,
		plan.CreatedBy, formatTime(plan.UpdatedAt),
		plan.ID, plan.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	if n == 0 {
		return generic.ErrConcurrentModification
	}
	plan.Version++
	return nil
}

// =============================================================================
// PURCHASE STORE (generic.PurchaseStore interface)
// =============================================================================

const purchaseColumns = `id, client_id, meal_plan_id, plan_name, duration_days, amount, currency,
	start_date, end_date, expected_end_date, status, created_at, updated_at`

func (s *Store) GetPurchase(ctx context.Context, id string) (*generic.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryPurchase(ctx, s.db, `WHERE id = ?`, id)
}

func (s *Store) FindPurchaseByPlan(ctx context.Context, planID string) (*generic.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryPurchase(ctx, s.db, `WHERE meal_plan_id = ? ORDER BY created_at ASC LIMIT 1`, planID)
}

func (s *Store) SavePurchase(ctx context.Context, p *generic.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePurchase(ctx, s.db, p)
}

func queryPurchase(ctx context.Context, q querier, where string, args ...any) (*generic.Purchase, error) {
	var (
		p                    generic.Purchase
		amount, status       string
		start, end           string
		expected             sql.NullString
		createdAt, updatedAt string
	)
	err := q.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchases `+where, args...).Scan(
		&p.ID, &p.ClientID, &p.MealPlanID, &p.PlanName, &p.DurationDays, &amount, &p.Currency,
		&start, &end, &expected, &status, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase: %w", err)
	}

	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("purchase %s: invalid amount %q: %w", p.ID, amount, err)
	}
	if p.StartDate, err = parseDay(start); err != nil {
		return nil, err
	}
	if p.EndDate, err = parseDay(end); err != nil {
		return nil, err
	}
	if expected.Valid && expected.String != "" {
		d, err := parseDay(expected.String)
		if err != nil {
			return nil, err
		}
		p.ExpectedEndDate = &d
	}
	p.Status = generic.PurchaseStatus(status)
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &p, nil
}

func savePurchase(ctx context.Context, q querier, p *generic.Purchase) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	var expected sql.NullString
	if p.ExpectedEndDate != nil {
		expected = nullString(p.ExpectedEndDate.String())
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO purchases (`+purchaseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			meal_plan_id = excluded.meal_plan_id,
			plan_name = excluded.plan_name,
			duration_days = excluded.duration_days,
			amount = excluded.amount,
			currency = excluded.currency,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			expected_end_date = excluded.expected_end_date,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		p.ID, p.ClientID, p.MealPlanID, p.PlanName, p.DurationDays, p.Amount.String(), p.Currency,
		p.StartDate.String(), p.EndDate.String(), expected, string(p.Status),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save purchase: %w", err)
	}
	return nil
}

// =============================================================================
// AUDIT LOG (generic.AuditLog interface)
// =============================================================================

func (s *Store) AppendAudit(ctx context.Context, entry generic.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendAudit(ctx, s.db, entry)
}

func (s *Store) ListAudit(ctx context.Context, planID string) ([]generic.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAudit(ctx, s.db, planID)
}

func appendAudit(ctx context.Context, q querier, e generic.AuditEntry) error {
	datesJSON, err := json.Marshal(nonNil(e.Dates))
	if err != nil {
		return fmt.Errorf("failed to encode audit dates: %w", err)
	}
	var payload sql.NullString
	if len(e.Payload) > 0 {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode audit payload: %w", err)
		}
		payload = nullString(string(b))
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO freeze_events
		(id, plan_id, purchase_id, action, actor_id, actor_role, dates_json, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.PlanID, e.PurchaseID, string(e.Action), e.ActorID, e.ActorRole,
		string(datesJSON), payload, formatTime(e.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func listAudit(ctx context.Context, q querier, planID string) ([]generic.AuditEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, plan_id, purchase_id, action, actor_id, actor_role, dates_json, payload_json, created_at
		FROM freeze_events
		WHERE plan_id = ?
		ORDER BY created_at ASC, rowid ASC`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit: %w", err)
	}
	defer rows.Close()

	var out []generic.AuditEntry
	for rows.Next() {
		var (
			e         generic.AuditEntry
			action    string
			datesJSON string
			payload   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.PlanID, &e.PurchaseID, &action, &e.ActorID, &e.ActorRole,
			&datesJSON, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Action = generic.AuditAction(action)
		if err := json.Unmarshal([]byte(datesJSON), &e.Dates); err != nil {
			return nil, fmt.Errorf("audit %s: failed to decode dates: %w", e.ID, err)
		}
		if payload.Valid {
			if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("audit %s: failed to decode payload: %w", e.ID, err)
			}
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore runs every call on the open transaction. The parent lock is
// already held by WithTx.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetPlan(ctx context.Context, id string) (*generic.MealPlan, error) {
	return getPlan(ctx, ts.tx, id)
}

func (ts *txStore) ListPlansByPurchase(ctx context.Context, purchaseID string) ([]*generic.MealPlan, error) {
	return queryPlans(ctx, ts.tx, `WHERE purchase_id = ?`, purchaseID)
}

func (ts *txStore) ListPlansByClient(ctx context.Context, clientID string) ([]*generic.MealPlan, error) {
	return queryPlans(ctx, ts.tx, `WHERE client_id = ?`, clientID)
}

func (ts *txStore) ListPlansByStatus(ctx context.Context, status generic.PlanStatus) ([]*generic.MealPlan, error) {
	return queryPlans(ctx, ts.tx, `WHERE status = ?`, string(status))
}

func (ts *txStore) SavePlan(ctx context.Context, plan *generic.MealPlan) error {
	return savePlan(ctx, ts.tx, plan)
}

func (ts *txStore) GetPurchase(ctx context.Context, id string) (*generic.Purchase, error) {
	return queryPurchase(ctx, ts.tx, `WHERE id = ?`, id)
}

func (ts *txStore) FindPurchaseByPlan(ctx context.Context, planID string) (*generic.Purchase, error) {
	return queryPurchase(ctx, ts.tx, `WHERE meal_plan_id = ? ORDER BY created_at ASC LIMIT 1`, planID)
}

func (ts *txStore) SavePurchase(ctx context.Context, p *generic.Purchase) error {
	return savePurchase(ctx, ts.tx, p)
}

func (ts *txStore) AppendAudit(ctx context.Context, entry generic.AuditEntry) error {
	return appendAudit(ctx, ts.tx, entry)
}

func (ts *txStore) ListAudit(ctx context.Context, planID string) ([]generic.AuditEntry, error) {
	return listAudit(ctx, ts.tx, planID)
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears all data (for demo scenarios).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"freeze_events", "purchases", "meal_plans"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDay(s string) (generic.Day, error) {
	if s == "" {
		return generic.Day{}, nil
	}
	d, err := generic.ParseDay(s, time.UTC)
	if err != nil {
		return generic.Day{}, fmt.Errorf("invalid stored date %q: %w", s, err)
	}
	return d, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nonNil keeps empty collections encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY"))
}
