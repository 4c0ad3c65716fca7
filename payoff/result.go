// Package payoff computes redemption and coupons for structured notes.
//
// Every function here is a pure computation over its arguments. Terms are
// assumed to have passed terms.ValidateTerms; the engines do not re-check
// them and never return errors. Divisions go through market.SafeDiv so a
// zero strike or fixing yields 0 rather than Inf or NaN.
package payoff

import (
	"math"
	"time"

	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/terms"
)

// Settlement is how principal is returned at maturity.
type Settlement string

const (
	SettlementCash     Settlement = "cash"
	SettlementPhysical Settlement = "physical"
)

// EventType tags a cashflow on the timeline.
type EventType string

const (
	EventCoupon          EventType = "coupon"
	EventCashRedemption  EventType = "cash_redemption"
	EventShareConversion EventType = "share_conversion"
)

// BarrierState lets a caller force the barrier (or knock-in) outcome
// instead of deriving it from the level.
type BarrierState string

const (
	StateAuto     BarrierState = ""
	StateBreached BarrierState = "breached"
	StateIntact   BarrierState = "intact"
)

// Breached resolves the state against the level-based test.
func (s BarrierState) Breached(levelBreached bool) bool {
	switch s {
	case StateBreached:
		return true
	case StateIntact:
		return false
	}
	return levelBreached
}

// Regime names which branch of a payoff produced the redemption.
type Regime string

const (
	RegimeBarrierIntact   Regime = "barrier_intact"
	RegimeBarrierBreached Regime = "barrier_breached"
	RegimeProtected       Regime = "protected"
	RegimeKnockIn         Regime = "knock_in"
	RegimeBonusIntact     Regime = "bonus_intact"
	RegimeBonusBreached   Regime = "bonus_breached"
)

// CashflowEvent is one dated payment. AmountPct is a fraction of notional.
type CashflowEvent struct {
	Period    int       `json:"period"`
	Date      time.Time `json:"date"`
	Type      EventType `json:"type"`
	AmountPct float64   `json:"amount_pct"`
	Amount    float64   `json:"amount"`
}

// Timeline lists coupons in order followed by the maturity event.
type Timeline struct {
	Events       []CashflowEvent `json:"events"`
	MaturityDate time.Time       `json:"maturity_date"`
}

// Result is the outcome of one payoff evaluation. RedemptionPct, CouponPct
// and TotalPct are fractions of notional for every product kind.
type Result struct {
	Kind                 terms.Kind `json:"kind"`
	Variant              string     `json:"variant,omitempty"`
	Regime               Regime     `json:"regime"`
	RedemptionPct        float64    `json:"redemption_pct"`
	CouponPct            float64    `json:"coupon_pct"`
	TotalPct             float64    `json:"total_pct"`
	Settlement           Settlement `json:"settlement"`
	Shares               float64    `json:"shares,omitempty"`
	Gearing              float64    `json:"gearing,omitempty"`
	BasketLevel          float64    `json:"basket_level"`
	WorstOfLevel         float64    `json:"worst_of_level"`
	WorstUnderlyingIndex int        `json:"worst_underlying_index"`
	ReferenceIndex       int        `json:"reference_index"`
	BarrierBreached      bool       `json:"barrier_breached"`
	KnockInTriggered     bool       `json:"knock_in_triggered"`
	BonusPaid            bool       `json:"bonus_paid"`
	EnforcedStrikePct    float64    `json:"enforced_strike_pct,omitempty"`
	Timeline             Timeline   `json:"timeline"`
}

func floor0(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	return x
}

// fixings prefers the market data fixings and falls back to the terms.
func fixings(c terms.Common, md market.MarketData) []float64 {
	if len(md.InitialFixings) > 0 {
		return md.InitialFixings
	}
	return c.Fixings()
}

func maturityEvent(period int, date time.Time, r Result, notional float64) CashflowEvent {
	typ := EventCashRedemption
	if r.Settlement == SettlementPhysical {
		typ = EventShareConversion
	}
	return CashflowEvent{
		Period:    period,
		Date:      date,
		Type:      typ,
		AmountPct: r.RedemptionPct,
		Amount:    market.RoundCash(notional * r.RedemptionPct),
	}
}
