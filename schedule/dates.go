package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is wrapped by every DateError.
var ErrInvalidDate = errors.New("invalid date")

// DateLayout is the calendar-day layout used in term sheets and scenario files.
const DateLayout = "2006-01-02"

// DateError describes a date string that could not be parsed.
type DateError struct {
	Input string
	Err   error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrInvalidDate, e.Input, e.Err)
}

func (e *DateError) Unwrap() []error {
	return []error{ErrInvalidDate, e.Err}
}

// ParseDate parses a YYYY-MM-DD or RFC3339 date and normalises it to
// midnight UTC. It never falls back to another date; that choice belongs to
// the caller.
func ParseDate(s string) (time.Time, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return time.Time{}, &DateError{Input: s, Err: errors.New("empty")}
	}
	if t, err := time.Parse(DateLayout, in); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, in)
	if err != nil {
		return time.Time{}, &DateError{Input: s, Err: err}
	}
	return Day(t), nil
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddMonths adds n calendar months like a spreadsheet EDATE: when the
// target month is shorter the day is clamped to its last day, so
// 31 Jan + 1 month is 28 (or 29) Feb rather than early March.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DaysBetween counts whole calendar days from a to b (negative when b is
// before a).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
