package generic

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DAY - Calendar day (meal plans are day-granular, never time-of-day)
// =============================================================================

// DayLayout is the canonical wire and storage format for a Day.
const DayLayout = "2006-01-02"

// Day is a calendar day, stored as midnight UTC.
type Day struct {
	t time.Time
}

// NewDay returns the calendar day year-month-day.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the calendar day of t as observed in t's location.
func DayOf(t time.Time) Day {
	return NewDay(t.Year(), t.Month(), t.Day())
}

// DayIn returns the calendar day of t as observed in loc.
func DayIn(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return DayOf(t.In(loc))
}

// ParseDay accepts "2006-01-02" or an RFC3339 timestamp. Timestamps are
// reduced to their calendar day in loc (UTC when loc is nil).
func ParseDay(s string, loc *time.Location) (Day, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DayLayout, s); err == nil {
		return DayOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DayIn(t, loc), nil
	}
	return Day{}, fmt.Errorf("invalid day %q: want YYYY-MM-DD", s)
}

// MustParseDay is ParseDay for literals in tests and fixtures.
func MustParseDay(s string) Day {
	d, err := ParseDay(s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Day) Before(other Day) bool        { return d.t.Before(other.t) }
func (d Day) After(other Day) bool         { return d.t.After(other.t) }
func (d Day) Equal(other Day) bool         { return d.t.Equal(other.t) }
func (d Day) BeforeOrEqual(other Day) bool { return !d.After(other) }
func (d Day) AfterOrEqual(other Day) bool  { return !d.Before(other) }

// Compare returns -1, 0 or +1; usable with slices.SortFunc.
func (d Day) Compare(other Day) int { return d.t.Compare(other.t) }

// Arithmetic
func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Day) Time() time.Time         { return d.t }
func (d Day) IsZero() bool            { return d.t.IsZero() }
func (d Day) Weekday() time.Weekday   { return d.t.Weekday() }
func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DayLayout)
}

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Day{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(s, time.UTC)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// DAY UTILITIES
// =============================================================================

// DaysBetween returns the signed number of calendar days from -> to.
func DaysBetween(from, to Day) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// DurationDays is the inclusive span of [start, end].
func DurationDays(start, end Day) int { return DaysBetween(start, end) + 1 }

// LatestDay returns the latest of the given days (zero when empty).
func LatestDay(days ...Day) Day {
	var latest Day
	for _, d := range days {
		if latest.IsZero() || d.After(latest) {
			latest = d
		}
	}
	return latest
}

// Clock returns the current instant. Services take one so "today" is testable.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }

// Today returns the current calendar day in loc.
func (c Clock) Today(loc *time.Location) Day {
	if c == nil {
		c = SystemClock
	}
	return DayIn(c(), loc)
}

// FixedClock always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
