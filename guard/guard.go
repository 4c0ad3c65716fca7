// Package guard keeps capital protected payoffs monotone across the
// knock-in level.
//
// Below the knock-in the note pays 100 x X / S. For the payoff not to jump
// upwards as X falls through KI, S must be at least
//
//	sMin = 100 x c x KI / protected(KI)
//
// where protected(KI) is the payoff the note would pay at KI with the
// protection still in place.
package guard

import (
	"math"

	"github.com/rustyeddy/notes/market"
)

// Params is the subset of capital protected terms the guard reads.
type Params struct {
	Protection      market.Percent
	Start           market.Percent
	Rate            market.Percent
	Direction       market.Direction
	CapEnabled      bool
	Cap             market.Percent
	KnockIn         market.Percent
	ConversionRatio float64
}

// Delta is the participation distance of x past start, as a fraction:
// max(x-start, 0)/100 going up, max(start-x, 0)/100 going down.
func Delta(dir market.Direction, x, start market.Percent) float64 {
	if dir == market.DirectionDown {
		return math.Max(start.Fraction().Float()-x.Fraction().Float(), 0)
	}
	return math.Max(x.Fraction().Float()-start.Fraction().Float(), 0)
}

// Participation is P + 100 x rate x delta(x), capped when a cap is set.
// The cap applies here, before any floor.
func (p Params) Participation(x market.Percent) market.Percent {
	rate := p.Rate.Fraction().Float()
	raw := p.Protection.Float() + 100*rate*Delta(p.Direction, x, p.Start)
	if p.CapEnabled {
		raw = math.Min(raw, p.Cap.Float())
	}
	return market.Percent(raw)
}

// ProtectedPayoffAt is the protected payoff at x: max(P, capped participation).
func (p Params) ProtectedPayoffAt(x market.Percent) market.Percent {
	return market.Percent(math.Max(p.Protection.Float(), p.Participation(x).Float()))
}

// MinStrike is the smallest downside strike that keeps the payoff continuous
// at the knock-in level. It is 0 when the protected payoff at KI is 0.
func (p Params) MinStrike() market.Percent {
	c := p.ConversionRatio
	if c <= 0 {
		c = 1
	}
	return market.Percent(market.SafeDiv(100*c*p.KnockIn.Float(), p.ProtectedPayoffAt(p.KnockIn).Float()))
}

// Enforce raises requested to minimum when it falls short.
func Enforce(requested, minimum market.Percent) market.Percent {
	if requested < minimum {
		return minimum
	}
	return requested
}
