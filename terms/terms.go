// Package terms describes structured note products.
//
// Terms is a closed union of three variants: reverse convertibles (*RC),
// capital protected participation notes (*CPPN) and bonus certificates
// (*Bonus). Each variant carries only the fields that are legal for it.
//
// Units follow the term sheets: RC levels are fractions (0.70 = 70%),
// CPPN and bonus levels are whole-number percents (100 = 100%). The two are
// distinct types so they cannot be mixed up silently.
package terms

import (
	"errors"
	"time"

	"github.com/rustyeddy/notes/guard"
	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/schedule"
)

var (
	// ErrUnknownKind is returned for a document whose kind is not rc, cppn or bonus.
	ErrUnknownKind = errors.New("unknown product kind")

	// ErrInvalidTerms wraps the messages of a failed validation.
	ErrInvalidTerms = errors.New("invalid terms")
)

// Kind discriminates the Terms union.
type Kind string

const (
	KindRC    Kind = "rc"
	KindCPPN  Kind = "cppn"
	KindBonus Kind = "bonus"
)

// Terms is implemented by *RC, *CPPN and *Bonus only.
type Terms interface {
	Kind() Kind
	Base() Common
	sealed()
}

// Common holds the fields every product shares.
type Common struct {
	Name           string
	Notional       float64
	Currency       string
	TenorMonths    int
	IssueDate      time.Time
	BasketType     market.BasketType
	Underlyings    []market.Underlying
	InitialFixings []float64
}

// MaturityDate is IssueDate plus the tenor, or the zero time when the issue
// date is unknown.
func (c Common) MaturityDate() time.Time {
	if c.IssueDate.IsZero() {
		return time.Time{}
	}
	return schedule.AddMonths(c.IssueDate, c.TenorMonths)
}

// Fixings returns InitialFixings, falling back to the fixings recorded on
// the underlyings themselves.
func (c Common) Fixings() []float64 {
	if len(c.InitialFixings) > 0 {
		return c.InitialFixings
	}
	out := make([]float64, len(c.Underlyings))
	for i, u := range c.Underlyings {
		out[i] = u.InitialFixing
	}
	return out
}

// RCVariant selects the reverse convertible payoff.
type RCVariant string

const (
	StandardBarrier    RCVariant = "standard_barrier_rc"
	LowStrikeGearedPut RCVariant = "low_strike_geared_put"
)

// Autocall describes step-down early redemption observations.
type Autocall struct {
	Frequency              schedule.Frequency
	FirstObservationMonths int
	Levels                 []market.Fraction
}

// LevelsFloat returns the autocall levels as plain floats.
func (a *Autocall) LevelsFloat() []float64 {
	out := make([]float64, len(a.Levels))
	for i, l := range a.Levels {
		out[i] = l.Float()
	}
	return out
}

// RC is a reverse convertible: unconditional coupons, principal at risk
// below a barrier.
type RC struct {
	Common
	Variant           RCVariant
	CouponRate        market.Fraction // annual
	CouponFrequency   schedule.Frequency
	BarrierPct        market.Fraction
	StrikePct         market.Fraction
	KnockInBarrierPct *market.Fraction
	ConversionRatio   float64
	Autocall          *Autocall
}

func (t *RC) Kind() Kind   { return KindRC }
func (t *RC) Base() Common { return t.Common }
func (t *RC) sealed()      {}

// Ratio is the conversion ratio, 1 when unset.
func (t *RC) Ratio() float64 {
	if t.ConversionRatio <= 0 {
		return 1
	}
	return t.ConversionRatio
}

// KnockIn is the geared-put knock-in level: the explicit barrier when set,
// otherwise the strike.
func (t *RC) KnockIn() market.Fraction {
	if t.KnockInBarrierPct != nil {
		return *t.KnockInBarrierPct
	}
	return t.StrikePct
}

// TriggerLevel is the level below which principal is no longer repaid in cash.
func (t *RC) TriggerLevel() market.Fraction {
	if t.Variant == LowStrikeGearedPut {
		return t.KnockIn()
	}
	return t.BarrierPct
}

// CouponDates is the coupon payment schedule, one date per coupon period,
// nil without an issue date.
func (t *RC) CouponDates() []time.Time {
	if t.IssueDate.IsZero() {
		return nil
	}
	return schedule.PaymentDates(t.IssueDate, t.TenorMonths, t.CouponFrequency)
}

// CPPN is a capital protected participation note with an optional
// knock-in that voids the protection.
type CPPN struct {
	Common
	CapitalProtectionPct  market.Percent
	ParticipationStartPct market.Percent
	ParticipationRatePct  market.Percent
	Direction             market.Direction
	CapEnabled            bool
	CapPct                market.Percent
	KnockInEnabled        bool
	KnockInPct            market.Percent
	DownsideStrikePct     *market.Percent
	ConversionRatio       float64
}

func (t *CPPN) Kind() Kind   { return KindCPPN }
func (t *CPPN) Base() Common { return t.Common }
func (t *CPPN) sealed()      {}

// GuardParams exposes the fields the continuity guard needs.
func (t *CPPN) GuardParams() guard.Params {
	dir := t.Direction
	if dir == "" {
		dir = market.DirectionUp
	}
	ratio := t.ConversionRatio
	if ratio <= 0 {
		ratio = 1
	}
	return guard.Params{
		Protection:      t.CapitalProtectionPct,
		Start:           t.ParticipationStartPct,
		Rate:            t.ParticipationRatePct,
		Direction:       dir,
		CapEnabled:      t.CapEnabled,
		Cap:             t.CapPct,
		KnockIn:         t.KnockInPct,
		ConversionRatio: ratio,
	}
}

// RequestedStrike is the downside strike before enforcement: the explicit
// strike when set, otherwise the knock-in level.
func (t *CPPN) RequestedStrike() market.Percent {
	if t.DownsideStrikePct != nil {
		return *t.DownsideStrikePct
	}
	return t.KnockInPct
}

// Bonus is a bonus certificate: no capital protection, a guaranteed floor
// while the barrier holds, 1:1 downside once it breaks.
type Bonus struct {
	Common
	BarrierPct            market.Percent
	BonusLevelPct         market.Percent
	ParticipationStartPct market.Percent
	ParticipationRatePct  market.Percent
	CapEnabled            bool
	CapPct                market.Percent
}

func (t *Bonus) Kind() Kind   { return KindBonus }
func (t *Bonus) Base() Common { return t.Common }
func (t *Bonus) sealed()      {}

// ParticipationParams reads the upside component with a 100 base.
func (t *Bonus) ParticipationParams() guard.Params {
	return guard.Params{
		Protection: 100,
		Start:      t.ParticipationStartPct,
		Rate:       t.ParticipationRatePct,
		Direction:  market.DirectionUp,
		CapEnabled: t.CapEnabled,
		Cap:        t.CapPct,
	}
}
