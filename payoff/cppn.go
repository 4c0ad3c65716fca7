package payoff

import (
	"math"

	"github.com/rustyeddy/notes/basket"
	"github.com/rustyeddy/notes/guard"
	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/terms"
)

// Outcome is the redemption of a capital protected or bonus note for a
// basket level X, in whole percents.
type Outcome struct {
	Redemption       market.Percent `json:"redemption"`
	Regime           Regime         `json:"regime"`
	KnockInTriggered bool           `json:"knock_in_triggered"`
	BarrierBreached  bool           `json:"barrier_breached"`
	BonusPaid        bool           `json:"bonus_paid"`
	EnforcedStrike   market.Percent `json:"enforced_strike,omitempty"`
	Gearing          float64        `json:"gearing,omitempty"`
}

// MinDownsideStrike is the continuity minimum for t's downside strike.
func MinDownsideStrike(t *terms.CPPN) market.Percent {
	return t.GuardParams().MinStrike()
}

// EnforcedStrike is the downside strike actually used below the knock-in:
// the requested strike raised to the continuity minimum.
func EnforcedStrike(t *terms.CPPN) market.Percent {
	return guard.Enforce(t.RequestedStrike(), MinDownsideStrike(t))
}

// ProtectedPayoffAt is the payoff at x with the protection in place.
func ProtectedPayoffAt(t *terms.CPPN, x market.Percent) market.Percent {
	return t.GuardParams().ProtectedPayoffAt(x)
}

// CPPNLevel evaluates a capital protected note at basket level x.
//
// Below an enabled knock-in the protection is void and the note pays
// 100 x X / S with S the enforced downside strike. Otherwise it pays
// P + 100 x rate x delta, capped when a cap is set.
func CPPNLevel(t *terms.CPPN, x market.Percent, state BarrierState) Outcome {
	if t.KnockInEnabled && state.Breached(x < t.KnockInPct) {
		strike := EnforcedStrike(t)
		return Outcome{
			Redemption:       market.Percent(floor0(100 * market.SafeDiv(x.Float(), strike.Float()))),
			Regime:           RegimeKnockIn,
			KnockInTriggered: true,
			BarrierBreached:  true,
			EnforcedStrike:   strike,
			Gearing:          market.SafeDiv(100, strike.Float()),
		}
	}
	return Outcome{
		Redemption: market.Percent(floor0(t.GuardParams().Participation(x).Float())),
		Regime:     RegimeProtected,
	}
}

// BonusLevel evaluates a bonus certificate at basket level x.
//
// While x stays at or above the barrier the note pays the larger of the
// bonus level and the capped participation payoff. Once breached it tracks
// the basket 1:1 with no floor.
func BonusLevel(t *terms.Bonus, x market.Percent, state BarrierState) Outcome {
	if state.Breached(x < t.BarrierPct) {
		return Outcome{
			Redemption:      market.Percent(floor0(x.Float())),
			Regime:          RegimeBonusBreached,
			BarrierBreached: true,
		}
	}
	capped := t.ParticipationParams().Participation(x).Float()
	bonus := t.BonusLevelPct.Float()
	return Outcome{
		Redemption: market.Percent(floor0(math.Max(bonus, capped))),
		Regime:     RegimeBonusIntact,
		BonusPaid:  bonus >= capped,
	}
}

// CPPN evaluates a capital protected note against final (or spot) prices.
func CPPN(t *terms.CPPN, md market.MarketData) Result {
	return CPPNWithState(t, md, StateAuto)
}

// CPPNWithState is CPPN with the knock-in outcome optionally forced.
func CPPNWithState(t *terms.CPPN, md market.MarketData, state BarrierState) Result {
	r, x := percentBasics(terms.KindCPPN, t.Common, md)
	o := CPPNLevel(t, x, state)
	applyOutcome(&r, o)
	if o.KnockInTriggered {
		r.Settlement = SettlementPhysical
		r.Shares = market.SafeDiv(t.Notional, refFixing(t.Common, md, r.ReferenceIndex)*o.EnforcedStrike.Fraction().Float())
	}
	r.Timeline = maturityOnly(t.Common, r)
	return r
}

// Bonus evaluates a bonus certificate against final (or spot) prices.
func Bonus(t *terms.Bonus, md market.MarketData) Result {
	return BonusWithState(t, md, StateAuto)
}

// BonusWithState is Bonus with the barrier outcome optionally forced.
func BonusWithState(t *terms.Bonus, md market.MarketData, state BarrierState) Result {
	r, x := percentBasics(terms.KindBonus, t.Common, md)
	applyOutcome(&r, BonusLevel(t, x, state))
	r.Timeline = maturityOnly(t.Common, r)
	return r
}

func percentBasics(kind terms.Kind, c terms.Common, md market.MarketData) (Result, market.Percent) {
	levels := basket.Levels(md.Finals(), fixings(c, md))
	level, ref := basket.Level(c.BasketType, levels)
	worst, worstIdx := basket.WorstOf(levels)
	r := Result{
		Kind:                 kind,
		BasketLevel:          level,
		WorstOfLevel:         worst,
		WorstUnderlyingIndex: worstIdx,
		ReferenceIndex:       ref,
		Settlement:           SettlementCash,
	}
	return r, market.Fraction(level).Percent()
}

func applyOutcome(r *Result, o Outcome) {
	r.Regime = o.Regime
	r.RedemptionPct = o.Redemption.Fraction().Float()
	r.TotalPct = r.RedemptionPct
	r.KnockInTriggered = o.KnockInTriggered
	r.BarrierBreached = o.BarrierBreached
	r.BonusPaid = o.BonusPaid
	r.EnforcedStrikePct = o.EnforcedStrike.Float()
	r.Gearing = o.Gearing
}

func refFixing(c terms.Common, md market.MarketData, ref int) float64 {
	f := fixings(c, md)
	if ref < 0 || ref >= len(f) {
		return 0
	}
	return f[ref]
}

func maturityOnly(c terms.Common, r Result) Timeline {
	return Timeline{
		Events:       []CashflowEvent{maturityEvent(0, c.MaturityDate(), r, c.Notional)},
		MaturityDate: c.MaturityDate(),
	}
}

// CalculatePayoff dispatches on the kind of t. Identical inputs always give
// identical results.
func CalculatePayoff(t terms.Terms, md market.MarketData) Result {
	return CalculateWithState(t, md, StateAuto)
}

// CalculateWithState is CalculatePayoff with the barrier or knock-in
// outcome optionally forced. Unknown kinds yield the zero Result.
func CalculateWithState(t terms.Terms, md market.MarketData, state BarrierState) Result {
	switch tt := t.(type) {
	case *terms.RC:
		return RCWithState(tt, md, state)
	case *terms.CPPN:
		return CPPNWithState(tt, md, state)
	case *terms.Bonus:
		return BonusWithState(tt, md, state)
	}
	return Result{}
}
