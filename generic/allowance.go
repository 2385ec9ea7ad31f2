package generic

// =============================================================================
// ALLOWANCE - Freeze-day budget derived from plan duration
// =============================================================================

const (
	// AllowanceBlockDays is the plan length that earns one block of freeze days.
	AllowanceBlockDays = 30
	// FreezeDaysPerBlock is granted for every started block.
	FreezeDaysPerBlock = 10
)

// AllowedFreezeDays returns ceil(durationDays/30) * 10.
//
// Callers guarantee a positive duration; no validation is done here.
//
//	1..30 -> 10, 31..60 -> 20, 61..90 -> 30
func AllowedFreezeDays(durationDays int) int {
	blocks := (durationDays + AllowanceBlockDays - 1) / AllowanceBlockDays
	return blocks * FreezeDaysPerBlock
}

// RemainingFreezeDays is allowed minus used, floored at zero.
func RemainingFreezeDays(allowed, used int) int {
	if used >= allowed {
		return 0
	}
	return allowed - used
}
