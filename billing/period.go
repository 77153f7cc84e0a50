package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - The covered span of a payment
// =============================================================================

// Period is the inclusive calendar span a payment covers, at day granularity.
//
// The covered span runs from 00:00:00 of the start day through the last
// nanosecond of the end day (see Normalize). Overlap comparisons ignore
// time-of-day entirely and allow a new period to begin the calendar day a
// prior period ends ("Jan ends, Feb starts" same-day handoff). That handoff
// is intentional, not a bug.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod builds a period from raw timestamps. Bounds are kept as given;
// normalization happens at comparison time.
func NewPeriod(start, end time.Time) Period {
	return Period{Start: start, End: end}
}

// NewDayPeriod builds a period from calendar days in UTC.
func NewDayPeriod(startYear int, startMonth time.Month, startDay, endYear int, endMonth time.Month, endDay int) Period {
	return Period{
		Start: time.Date(startYear, startMonth, startDay, 0, 0, 0, 0, time.UTC),
		End:   time.Date(endYear, endMonth, endDay, 0, 0, 0, 0, time.UTC),
	}
}

// DayStart floors t to 00:00:00.000 of its calendar day (UTC).
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayEnd ceils t to the last nanosecond of its calendar day (UTC).
func DayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, time.UTC)
}

// Normalize returns the period on whole-day boundaries: start at 00:00:00,
// end at 23:59:59.999999999.
func (p Period) Normalize() Period {
	return Period{Start: DayStart(p.Start), End: DayEnd(p.End)}
}

// Valid reports whether the period spans at least from one calendar day to a
// later one. End on the same day as (or before) start is invalid.
func (p Period) Valid() bool {
	return DayStart(p.End).After(DayStart(p.Start))
}

// IsZero reports whether the period was never set.
func (p Period) IsZero() bool {
	return p.Start.IsZero() && p.End.IsZero()
}

// Overlaps reports whether two periods conflict.
//
// Comparison runs at day granularity: both bounds are floored to their
// calendar day, then tested with strict inequality (start < otherEnd AND
// end > otherStart). Periods that meet on a boundary day (one ends the
// calendar day the other begins) do NOT overlap, in either direction.
func (p Period) Overlaps(other Period) bool {
	return DayStart(p.Start).Before(DayStart(other.End)) &&
		DayStart(p.End).After(DayStart(other.Start))
}

// Months returns the whole-month length of the period, rounded down.
func (p Period) Months() int {
	months := 0
	cursor := DayStart(p.Start).AddDate(0, 1, 0)
	end := DayStart(p.End)
	for !cursor.After(end) {
		months++
		cursor = cursor.AddDate(0, 1, 0)
	}
	return months
}

// String renders the period as human-readable calendar days.
func (p Period) String() string {
	return fmt.Sprintf("%s to %s", p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}
