// Package curve samples the payoff engines over a grid of basket levels
// for charting. It plays no part in valuation.
package curve

import (
	"math"
	"strings"

	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/payoff"
	"github.com/rustyeddy/notes/terms"
)

const (
	rcSteps      = 150
	percentSteps = 160
)

// Note tags annotate points that sit on a threshold.
const (
	NoteBarrier            = "barrier"
	NoteStrike             = "strike"
	NoteKnockIn            = "knock_in"
	NoteDownsideStrike     = "downside_strike"
	NoteBonusBarrier       = "bonus_barrier"
	NoteParticipationStart = "participation_start"
)

// Point is one sample. X is the basket level as a fraction (1.0 = 100%);
// the payoff fields are fractions of notional.
type Point struct {
	X             float64 `json:"x"`
	RedemptionPct float64 `json:"redemption_pct"`
	TotalPct      float64 `json:"total_pct"`
	CouponPct     float64 `json:"coupon_pct"`
	Note          string  `json:"note,omitempty"`
}

// Generate dispatches on the kind of t. Unknown kinds yield nil.
func Generate(t terms.Terms) []Point {
	switch tt := t.(type) {
	case *terms.RC:
		return RC(tt)
	case *terms.CPPN:
		return CPPN(tt)
	case *terms.Bonus:
		return Bonus(tt)
	}
	return nil
}

// RC samples a reverse convertible from 0% to 150%. Every underlying is
// moved to the sampled ratio so the worst-of level equals the sample.
func RC(t *terms.RC) []Point {
	initial := unitFixings(t.Common)
	marks := map[int][]string{}
	if t.Variant == terms.LowStrikeGearedPut {
		mark(marks, t.StrikePct.Percent(), NoteStrike)
		if t.KnockInBarrierPct != nil {
			mark(marks, t.KnockIn().Percent(), NoteKnockIn)
		}
	} else {
		mark(marks, t.BarrierPct.Percent(), NoteBarrier)
	}

	out := make([]Point, 0, rcSteps+1)
	for i := 0; i <= rcSteps; i++ {
		x := float64(i) / 100
		md := market.MarketData{InitialFixings: initial, SpotPrices: make([]float64, len(initial))}
		for j, f := range initial {
			md.SpotPrices[j] = f * x
		}
		r := payoff.RC(t, md)
		out = append(out, Point{
			X:             x,
			RedemptionPct: r.RedemptionPct,
			TotalPct:      r.TotalPct,
			CouponPct:     r.CouponPct,
			Note:          strings.Join(marks[i], "/"),
		})
	}
	return out
}

// CPPN samples a capital protected note from 0% to 160%.
func CPPN(t *terms.CPPN) []Point {
	marks := map[int][]string{}
	mark(marks, t.ParticipationStartPct, NoteParticipationStart)
	if t.KnockInEnabled {
		mark(marks, t.KnockInPct, NoteKnockIn)
		mark(marks, payoff.EnforcedStrike(t), NoteDownsideStrike)
	}
	return sample(marks, func(x market.Percent) payoff.Outcome {
		return payoff.CPPNLevel(t, x, payoff.StateAuto)
	})
}

// Bonus samples a bonus certificate from 0% to 160%.
func Bonus(t *terms.Bonus) []Point {
	marks := map[int][]string{}
	mark(marks, t.BarrierPct, NoteBonusBarrier)
	mark(marks, t.ParticipationStartPct, NoteParticipationStart)
	return sample(marks, func(x market.Percent) payoff.Outcome {
		return payoff.BonusLevel(t, x, payoff.StateAuto)
	})
}

func sample(marks map[int][]string, eval func(market.Percent) payoff.Outcome) []Point {
	out := make([]Point, 0, percentSteps+1)
	for i := 0; i <= percentSteps; i++ {
		o := eval(market.Percent(i))
		red := o.Redemption.Fraction().Float()
		out = append(out, Point{
			X:             float64(i) / 100,
			RedemptionPct: red,
			TotalPct:      red,
			Note:          strings.Join(marks[i], "/"),
		})
	}
	return out
}

// mark tags the grid point nearest to level p, ignoring levels that fall
// between two points.
func mark(marks map[int][]string, p market.Percent, note string) {
	v := p.Float()
	i := math.Round(v)
	if math.Abs(v-i) > 1e-6 || i < 0 {
		return
	}
	marks[int(i)] = append(marks[int(i)], note)
}

// unitFixings sets every fixing to 1 so each underlying's level is exactly
// the sampled ratio.
func unitFixings(c terms.Common) []float64 {
	n := len(c.Underlyings)
	if n == 0 {
		n = 1
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
