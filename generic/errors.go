/*
errors.go - Centralized error types for the meal-plan engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The API layer maps them to HTTP status codes; domain code wraps them
  with context using fmt.Errorf("...: %w", err).

ERROR CATEGORIES:
  1. Not found  - plan or purchase missing (404)
  2. Validation - bad input or business rule violations (400)
  3. Conflict   - optimistic concurrency failures (409)
  4. Auth       - missing session (401) or role not allowed (403)
  Anything else is an internal error and is reported generically (500).

USAGE:
  if errors.Is(err, generic.ErrAllowanceExceeded) {
      var allowErr *generic.AllowanceExceededError
      errors.As(err, &allowErr) // Remaining, Requested, Allowed
  }

SEE ALSO:
  - mealplan/freeze.go: raises the validation errors
  - api/handlers.go: maps errors to responses
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPlanNotFound is returned when a referenced meal plan doesn't exist.
	ErrPlanNotFound = errors.New("meal plan not found")

	// ErrPurchaseNotFound is returned when a referenced purchase doesn't exist.
	ErrPurchaseNotFound = errors.New("purchase not found")

	// ErrValidation is the parent of every input/business-rule failure.
	ErrValidation = errors.New("validation failed")

	// ErrNoDates is returned when a freeze/unfreeze request carries no dates.
	ErrNoDates = fmt.Errorf("%w: no dates supplied", ErrValidation)

	// ErrNoValidDates is returned when every requested freeze date was skipped.
	ErrNoValidDates = fmt.Errorf("%w: no valid dates to freeze", ErrValidation)

	// ErrNoMatchingFrozenDates is returned when none of the unfreeze dates is frozen on the plan.
	ErrNoMatchingFrozenDates = fmt.Errorf("%w: no matching frozen dates", ErrValidation)

	// ErrPlanNotFreezable is returned when the plan status forbids freezing.
	ErrPlanNotFreezable = fmt.Errorf("%w: plan cannot be frozen in its current status", ErrValidation)

	// ErrAllowanceExceeded is returned when a freeze would overdraw the allowance.
	ErrAllowanceExceeded = fmt.Errorf("%w: freeze allowance exceeded", ErrValidation)

	// ErrConcurrentModification is returned when optimistic locking detects a conflict.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrUnauthorized is returned when no session accompanies the request.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the session role may not perform the action.
	ErrForbidden = errors.New("forbidden")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidDateError reports a date string that could not be parsed.
type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", e.Value)
}

func (e *InvalidDateError) Unwrap() error { return ErrValidation }

// DateOutOfRangeError reports a freeze date outside the plan's range.
type DateOutOfRangeError struct {
	Date  Day
	Start Day
	End   Day
}

func (e *DateOutOfRangeError) Error() string {
	return fmt.Sprintf("date %s is outside the meal plan range (%s to %s)", e.Date, e.Start, e.End)
}

func (e *DateOutOfRangeError) Unwrap() error { return ErrValidation }

// PastDateError reports a freeze date before today.
type PastDateError struct {
	Date  Day
	Today Day
}

func (e *PastDateError) Error() string {
	return fmt.Sprintf("cannot freeze past date %s (today is %s)", e.Date, e.Today)
}

func (e *PastDateError) Unwrap() error { return ErrValidation }

// AllowanceExceededError provides details about an allowance shortage.
type AllowanceExceededError struct {
	PlanID    string
	Allowed   int
	Used      int
	Requested int
	Shared    bool
}

// Remaining is what could still be frozen before this request.
func (e *AllowanceExceededError) Remaining() int { return RemainingFreezeDays(e.Allowed, e.Used) }

func (e *AllowanceExceededError) Error() string {
	scope := "plan"
	if e.Shared {
		scope = "purchase"
	}
	return fmt.Sprintf("freeze allowance exceeded: requested %d days, %d of %d remaining for this %s",
		e.Requested, e.Remaining(), e.Allowed, scope)
}

func (e *AllowanceExceededError) Unwrap() error { return ErrAllowanceExceeded }

// NoMatchingFrozenDatesError lists the unfreeze dates that matched nothing.
type NoMatchingFrozenDatesError struct {
	Requested []Day
}

func (e *NoMatchingFrozenDatesError) Error() string {
	days := make([]string, len(e.Requested))
	for i, d := range e.Requested {
		days[i] = d.String()
	}
	return fmt.Sprintf("no matching frozen dates for %s", strings.Join(days, ", "))
}

func (e *NoMatchingFrozenDatesError) Unwrap() error { return ErrNoMatchingFrozenDates }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrPurchaseNotFound)
}

// IsConflict returns true if the write lost an optimistic-concurrency race.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
