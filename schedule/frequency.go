package schedule

import (
	"math"
	"strconv"
	"strings"
)

// Frequency is a number of periods per year.
type Frequency int

const (
	Monthly    Frequency = 12
	Quarterly  Frequency = 4
	SemiAnnual Frequency = 2
	Annual     Frequency = 1
)

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case Monthly, Quarterly, SemiAnnual, Annual:
		return true
	}
	return false
}

// OrDefault returns f when valid and Quarterly otherwise.
func (f Frequency) OrDefault() Frequency {
	if f.Valid() {
		return f
	}
	return Quarterly
}

// MonthsPerPeriod is the calendar step between two payments.
func (f Frequency) MonthsPerPeriod() int {
	return 12 / int(f.OrDefault())
}

func (f Frequency) String() string {
	switch f {
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case SemiAnnual:
		return "semi-annual"
	case Annual:
		return "annual"
	}
	return "frequency(" + strconv.Itoa(int(f)) + ")"
}

// ParseFrequency maps a name or a count of periods per year to a
// Frequency. Anything it does not recognise becomes Quarterly.
func ParseFrequency(s string) Frequency {
	norm := strings.ToLower(strings.TrimSpace(s))
	switch norm {
	case "monthly", "month", "m", "12":
		return Monthly
	case "quarterly", "quarter", "q", "4":
		return Quarterly
	case "semi-annual", "semiannual", "semi_annual", "semi-annually", "s", "2":
		return SemiAnnual
	case "annual", "annually", "yearly", "a", "y", "1":
		return Annual
	}
	return Quarterly
}

// PeriodCount is the number of coupon periods in a tenor, rounded to the
// nearest whole period.
func PeriodCount(tenorMonths int, f Frequency) int {
	if tenorMonths <= 0 {
		return 0
	}
	return int(math.Round(float64(tenorMonths) / 12 * float64(f.OrDefault())))
}
