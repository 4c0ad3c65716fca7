// Package schedule generates coupon and observation date sequences for
// structured notes.
package schedule

import "time"

// CouponDates returns payment dates for a note starting at start, running
// tenorMonths, paying freq times per year. The first payment falls one period
// after start.
func CouponDates(start time.Time, tenorMonths int, freq Frequency) []time.Time {
	freq = freq.OrDefault()
	return CouponDatesFrom(start, tenorMonths, freq, freq.MonthsPerPeriod())
}

// PaymentDates places PeriodCount(tenorMonths, freq) coupons on the
// CouponDates schedule. The last coupon is always paid at maturity: a short
// stub that rounds away is folded into it, one that rounds up keeps its own
// period.
func PaymentDates(start time.Time, tenorMonths int, freq Frequency) []time.Time {
	n := PeriodCount(tenorMonths, freq)
	dates := CouponDates(start, tenorMonths, freq)
	if n <= 0 || len(dates) == 0 {
		return nil
	}
	if n >= len(dates) {
		return dates
	}
	out := make([]time.Time, 0, n)
	out = append(out, dates[:n-1]...)
	return append(out, dates[len(dates)-1])
}

// CouponDatesFrom is CouponDates with an explicit offset, in months, of the
// first payment. Each date is derived from start directly so month-end
// clamping never accumulates. The maturity date is always the last element.
func CouponDatesFrom(start time.Time, tenorMonths int, freq Frequency, firstOffsetMonths int) []time.Time {
	if tenorMonths <= 0 {
		return nil
	}
	step := freq.OrDefault().MonthsPerPeriod()
	if firstOffsetMonths <= 0 {
		firstOffsetMonths = step
	}
	end := AddMonths(start, tenorMonths)

	var out []time.Time
	for k := 0; ; k++ {
		months := firstOffsetMonths + k*step
		if months > tenorMonths {
			break
		}
		out = append(out, AddMonths(start, months))
	}
	if len(out) == 0 || !out[len(out)-1].Equal(end) {
		out = append(out, end)
	}
	return out
}

// Observation is one autocall observation date with the trigger level that
// applies on it.
type Observation struct {
	Index         int       `json:"index"`
	Date          time.Time `json:"date"`
	AutocallLevel float64   `json:"autocall_level"`
}

// Observations builds an autocall observation schedule with the same date
// algorithm as CouponDatesFrom. levels[i] is attached to the i-th
// observation; past the end of levels the last level repeats, which is how
// a step-down schedule that has reached its floor behaves.
func Observations(start time.Time, tenorMonths int, freq Frequency, firstOffsetMonths int, levels []float64) []Observation {
	dates := CouponDatesFrom(start, tenorMonths, freq, firstOffsetMonths)
	out := make([]Observation, len(dates))
	for i, d := range dates {
		out[i] = Observation{Index: i, Date: d, AutocallLevel: levelAt(levels, i)}
	}
	return out
}

func levelAt(levels []float64, i int) float64 {
	if len(levels) == 0 {
		return 0
	}
	if i >= len(levels) {
		return levels[len(levels)-1]
	}
	return levels[i]
}

// Next returns the first date strictly after asOf, and false when none remains.
func Next(dates []time.Time, asOf time.Time) (time.Time, bool) {
	for _, d := range dates {
		if d.After(asOf) {
			return d, true
		}
	}
	return time.Time{}, false
}
