package payoff

import (
	"time"

	"github.com/rustyeddy/notes/basket"
	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/schedule"
	"github.com/rustyeddy/notes/terms"
)

// RC evaluates a reverse convertible against final (or spot) prices.
func RC(t *terms.RC, md market.MarketData) Result {
	return RCWithState(t, md, StateAuto)
}

// RCWithState is RC with the barrier outcome optionally forced.
//
// Reverse convertibles are observed on the worst performer whatever the
// basket type, and that underlying is the one delivered.
//
// Standard barrier: at or above the barrier the note repays 100% in cash,
// below it delivers notional/(fixing x ratio) shares of the reference
// underlying. Low strike geared put: at or above the knock-in (the strike
// unless set) it repays 100%, below it returns level/strike, which is above
// 100% when the knock-in sits over the strike.
func RCWithState(t *terms.RC, md market.MarketData, state BarrierState) Result {
	initial := fixings(t.Common, md)
	finals := md.Finals()
	levels := basket.Levels(finals, initial)
	worst, ref := basket.WorstOf(levels)

	r := Result{
		Kind:                 terms.KindRC,
		Variant:              string(t.Variant),
		BasketLevel:          worst,
		WorstOfLevel:         worst,
		WorstUnderlyingIndex: ref,
		ReferenceIndex:       ref,
		CouponPct:            CouponPct(t),
		Settlement:           SettlementCash,
		RedemptionPct:        1,
		Regime:               RegimeBarrierIntact,
	}

	refFixing, refFinal := 0.0, 0.0
	if ref >= 0 && ref < len(initial) && ref < len(finals) {
		refFixing, refFinal = initial[ref], finals[ref]
	}

	switch t.Variant {
	case terms.LowStrikeGearedPut:
		strike := t.StrikePct.Float()
		r.Gearing = market.SafeDiv(1, strike)
		if state.Breached(worst < t.KnockIn().Float()) {
			r.Regime = RegimeBarrierBreached
			r.BarrierBreached = true
			r.KnockInTriggered = true
			r.Settlement = SettlementPhysical
			r.RedemptionPct = floor0(market.SafeDiv(worst, strike))
			r.Shares = market.SafeDiv(t.Notional, refFixing*strike*t.Ratio())
		}
	default:
		if state.Breached(worst < t.BarrierPct.Float()) {
			r.Regime = RegimeBarrierBreached
			r.BarrierBreached = true
			r.Settlement = SettlementPhysical
			r.Shares = market.SafeDiv(t.Notional, refFixing*t.Ratio())
			r.RedemptionPct = floor0(market.SafeDiv(r.Shares*refFinal, t.Notional))
		}
	}

	r.TotalPct = r.RedemptionPct + r.CouponPct
	r.Timeline = rcTimeline(t, r)
	return r
}

// CouponPct is the total unconditional coupon as a fraction of notional:
// rate/frequency for each of round(tenor/12 x frequency) periods.
func CouponPct(t *terms.RC) float64 {
	freq := t.CouponFrequency.OrDefault()
	periods := schedule.PeriodCount(t.TenorMonths, freq)
	return floor0(t.CouponRate.Float() / float64(freq) * float64(periods))
}

// CouponEvents lists each coupon period on the dates of
// schedule.PaymentDates, so a position's coupon history and the payoff count
// the same periods. Without an issue date the dates are left zero.
func CouponEvents(t *terms.RC) []CashflowEvent {
	freq := t.CouponFrequency.OrDefault()
	periods := schedule.PeriodCount(t.TenorMonths, freq)
	perPeriod := t.CouponRate.Float() / float64(freq)
	dates := t.CouponDates()

	out := make([]CashflowEvent, 0, periods)
	for i := 1; i <= periods; i++ {
		var d time.Time
		if i <= len(dates) {
			d = dates[i-1]
		}
		out = append(out, CashflowEvent{
			Period:    i,
			Date:      d,
			Type:      EventCoupon,
			AmountPct: perPeriod,
			Amount:    market.RoundCash(t.Notional * perPeriod),
		})
	}
	return out
}

func rcTimeline(t *terms.RC, r Result) Timeline {
	events := CouponEvents(t)
	events = append(events, maturityEvent(len(events), t.MaturityDate(), r, t.Notional))
	return Timeline{Events: events, MaturityDate: t.MaturityDate()}
}
