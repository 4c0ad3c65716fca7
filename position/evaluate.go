package position

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rustyeddy/notes/basket"
	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/payoff"
	"github.com/rustyeddy/notes/schedule"
	"github.com/rustyeddy/notes/terms"
)

// DefaultWatchThreshold is the distance, as a fraction, below which a
// position above its trigger is on watch.
const DefaultWatchThreshold = 0.05

const maxCouponEvents = 3

// Overrides force parts of an evaluation for what-if scenarios.
//
// UnderlyingLevels maps tickers to levels (fractions of the fixing).
// WorstOfLevel pins the observed basket level: the reference underlying is
// set to it and the others are moved no closer than it, except for average
// baskets where every underlying moves to it. Reverse convertibles are
// always pinned on the worst performer. BarrierState forces the barrier or
// knock-in outcome.
type Overrides struct {
	AsOf             *time.Time          `json:"as_of,omitempty" yaml:"as_of,omitempty"`
	MaturityToday    bool                `json:"maturity_today,omitempty" yaml:"maturity_today,omitempty"`
	UnderlyingLevels map[string]float64  `json:"underlying_levels,omitempty" yaml:"underlying_levels,omitempty"`
	WorstOfLevel     *float64            `json:"worst_of_level,omitempty" yaml:"worst_of_level,omitempty"`
	BarrierState     payoff.BarrierState `json:"barrier_state,omitempty" yaml:"barrier_state,omitempty"`
}

// EvaluatePosition values p against md at the as-of date, which defaults to
// today. The position's own fixings are used for every level. It errors only
// when p or md is structurally unusable.
func EvaluatePosition(p *Position, md market.MarketData, ov Overrides) (Snapshot, error) {
	return evaluate(p, md, ov, DefaultWatchThreshold, time.Now)
}

func evaluate(p *Position, md market.MarketData, ov Overrides, watch float64, now func() time.Time) (Snapshot, error) {
	if err := p.Validate(); err != nil {
		return Snapshot{}, err
	}
	switch ov.BarrierState {
	case payoff.StateAuto, payoff.StateBreached, payoff.StateIntact:
	default:
		return Snapshot{}, fmt.Errorf("%w: unknown barrier state %q", ErrInvalidPosition, ov.BarrierState)
	}

	n := len(p.InitialFixings)
	md = md.Clone()
	if len(md.InitialFixings) == 0 {
		md.InitialFixings = p.InitialFixings
	}
	if err := md.Check(n); err != nil {
		return Snapshot{}, fmt.Errorf("%w: market data: %w", ErrInvalidPosition, err)
	}

	maturity := p.MaturityDate()
	var asOf time.Time
	switch {
	case ov.MaturityToday:
		asOf = maturity
	case ov.AsOf != nil:
		asOf = schedule.Day(*ov.AsOf)
	default:
		asOf = schedule.Day(now())
	}
	final := !asOf.Before(maturity)

	fixings := p.InitialFixings
	prices := append([]float64(nil), md.SpotPrices...)
	if final && len(md.FinalPrices) == n {
		prices = append([]float64(nil), md.FinalPrices...)
	}
	prices, err := applyLevelOverrides(p, fixings, prices, ov)
	if err != nil {
		return Snapshot{}, err
	}

	state := ov.BarrierState
	if state == payoff.StateAuto && p.ManualBarrierBreach {
		state = payoff.StateBreached
	}

	eff := p.effectiveTerms()
	c := eff.Base()
	res := payoff.CalculateWithState(eff, market.MarketData{InitialFixings: fixings, SpotPrices: prices}, state)

	tickers := p.Tickers()
	levels := basket.Levels(prices, fixings)
	unds := make([]UnderlyingLevel, n)
	for i := range unds {
		unds[i] = UnderlyingLevel{Ticker: tickers[i], Initial: fixings[i], Price: prices[i], Level: levels[i]}
	}

	history := p.coupons()
	received := 0.0
	for _, cp := range history {
		if cp.Paid || !cp.Date.After(asOf) {
			received += cp.Amount
		}
	}
	received = market.RoundCash(received)

	settlement := settle(res, p.Notional, tickers, prices)
	value := market.RoundCash(settlement.Total + received)
	pnl := market.RoundCash(value - p.Notional)

	snap := Snapshot{
		PositionID:      p.ID,
		Name:            p.Name,
		Kind:            eff.Kind(),
		Currency:        c.Currency,
		Notional:        p.Notional,
		AsOf:            asOf,
		MaturityDate:    maturity,
		DaysToMaturity:  max(0, schedule.DaysBetween(asOf, maturity)),
		Final:           final,
		Underlyings:     unds,
		BasketLevel:     res.BasketLevel,
		WorstIndex:      res.WorstUnderlyingIndex,
		Payoff:          res,
		IndicativeValue: value,
		CouponsReceived: received,
		PnL:             pnl,
		PnLPct:          market.SafeDiv(pnl, p.Notional),
		Settlement:      settlement,
	}
	if i := res.WorstUnderlyingIndex; i >= 0 && i < n {
		snap.WorstTicker = tickers[i]
	}

	tr := triggerOf(eff)
	breached := res.BarrierBreached || res.KnockInTriggered
	snap.Status = StatusSafe
	switch {
	case breached:
		snap.Status = StatusTriggered
	case tr.ok && res.BasketLevel-tr.level < watch:
		snap.Status = StatusWatch
	}

	snap.KeyLevels = keyLevels(eff, res, asOf, watch, breached)
	snap.NextEvents = nextEvents(eff, history, asOf, maturity, settlement.Total)

	rc := reasonContext{
		Level:       res.BasketLevel,
		Trigger:     tr.level,
		TriggerName: tr.name,
		Settlement:  res.Settlement,
		Currency:    c.Currency,
		Coupons:     received,
		ZeroShares:  res.Settlement == payoff.SettlementPhysical && res.Shares == 0,
	}
	snap.Reasons = reasons(eff, res, snap.Status, received, &rc)
	snap.ReasonText = reasonText(snap.Reasons, rc)
	return snap, nil
}

// coupons is the coupon history, derived from the schedule when a reverse
// convertible position carries none.
func (p *Position) coupons() []CouponPayment {
	if len(p.CouponHistory) > 0 {
		return p.CouponHistory
	}
	if rc, ok := p.Terms.(*terms.RC); ok {
		return couponHistory(rc, p.InceptionDate, p.Notional)
	}
	return nil
}

func applyLevelOverrides(p *Position, fixings, prices []float64, ov Overrides) ([]float64, error) {
	if len(ov.UnderlyingLevels) == 0 && ov.WorstOfLevel == nil {
		return prices, nil
	}
	levels := basket.Levels(prices, fixings)
	tickers := p.Tickers()
	for tk, l := range ov.UnderlyingLevels {
		i := indexOf(tickers, tk)
		if i < 0 {
			return nil, fmt.Errorf("%w: level override for unknown ticker %q", ErrInvalidPosition, tk)
		}
		if l < 0 || math.IsNaN(l) || math.IsInf(l, 0) {
			return nil, fmt.Errorf("%w: level override for %s must be a non-negative number", ErrInvalidPosition, tk)
		}
		levels[i] = l
	}
	if w := ov.WorstOfLevel; w != nil {
		if *w < 0 || math.IsNaN(*w) || math.IsInf(*w, 0) {
			return nil, fmt.Errorf("%w: worst-of level override must be a non-negative number", ErrInvalidPosition)
		}
		levels = pinLevel(observedBasket(p.Terms), levels, *w)
	}
	out := make([]float64, len(prices))
	for i := range out {
		out[i] = fixings[i] * levels[i]
	}
	return out, nil
}

func indexOf(tickers []string, tk string) int {
	for i, t := range tickers {
		if strings.EqualFold(t, tk) {
			return i
		}
	}
	return -1
}

// observedBasket is the aggregation the payoff reads. Reverse convertibles
// always observe the worst performer.
func observedBasket(t terms.Terms) market.BasketType {
	if _, ok := t.(*terms.RC); ok {
		return market.BasketWorstOf
	}
	return t.Base().BasketType
}

// pinLevel moves levels so the basket level for bt equals w.
func pinLevel(bt market.BasketType, levels []float64, w float64) []float64 {
	_, ref := basket.Level(bt, levels)
	out := make([]float64, len(levels))
	for i, l := range levels {
		switch {
		case bt == market.BasketAverage || i == ref:
			out[i] = w
		case bt == market.BasketBestOf:
			out[i] = math.Min(l, w)
		default:
			out[i] = math.Max(l, w)
		}
	}
	return out
}

// settle prices the settlement at current prices. Shares are delivered in
// whole units with the remainder paid in cash.
func settle(res payoff.Result, notional float64, tickers []string, prices []float64) Settlement {
	if res.Settlement != payoff.SettlementPhysical {
		cash := market.RoundCash(notional * res.RedemptionPct)
		return Settlement{Type: payoff.SettlementCash, CashAmount: cash, Total: cash}
	}

	s := Settlement{Type: payoff.SettlementPhysical}
	ref := res.ReferenceIndex
	if ref < 0 || ref >= len(prices) {
		return s
	}
	price := prices[ref]
	whole := math.Floor(res.Shares + 1e-9)
	frac := math.Max(res.Shares-whole, 0)
	if whole > 0 {
		s.Lots = []Lot{{
			Symbol:      tickers[ref],
			Quantity:    whole,
			Price:       price,
			MarketValue: market.RoundCash(whole * price),
		}}
		s.Total = s.Lots[0].MarketValue
	}
	s.CashInLieu = market.RoundCash(frac * price)
	s.Total = market.RoundCash(s.Total + s.CashInLieu)
	return s
}

type trigger struct {
	name  string
	level float64
	ok    bool
}

// triggerOf is the downside level whose breach ends the protection.
func triggerOf(t terms.Terms) trigger {
	switch tt := t.(type) {
	case *terms.RC:
		if tt.Variant == terms.LowStrikeGearedPut {
			return trigger{name: "knock-in", level: tt.KnockIn().Float(), ok: true}
		}
		return trigger{name: "barrier", level: tt.BarrierPct.Float(), ok: true}
	case *terms.CPPN:
		if tt.KnockInEnabled {
			return trigger{name: "knock-in", level: tt.KnockInPct.Fraction().Float(), ok: true}
		}
	case *terms.Bonus:
		return trigger{name: "bonus barrier", level: tt.BarrierPct.Fraction().Float(), ok: true}
	}
	return trigger{}
}

func downside(name string, target, current, watch float64, breached bool) KeyLevel {
	k := KeyLevel{Name: name, Target: target, Current: current, Distance: current - target, Status: LevelSafe}
	switch {
	case breached:
		k.Status = LevelBreached
	case k.Distance < watch:
		k.Status = LevelWatch
	}
	return k
}

func keyLevels(t terms.Terms, res payoff.Result, asOf time.Time, watch float64, breached bool) []KeyLevel {
	x := res.BasketLevel
	var out []KeyLevel
	switch tt := t.(type) {
	case *terms.RC:
		if tt.Variant == terms.LowStrikeGearedPut {
			out = append(out, downside(KeyKnockIn, tt.KnockIn().Float(), x, watch, breached))
			if tt.KnockInBarrierPct != nil {
				s := tt.StrikePct.Float()
				out = append(out, downside(KeyStrike, s, x, watch, x < s))
			}
		} else {
			out = append(out, downside(KeyBarrier, tt.BarrierPct.Float(), x, watch, breached))
		}
		if obs, ok := nextObservation(tt, asOf); ok {
			d := obs.Date
			k := KeyLevel{Name: KeyAutocall, Target: obs.AutocallLevel, Current: x, Distance: x - obs.AutocallLevel, Status: LevelPending, Date: &d}
			if x >= obs.AutocallLevel {
				k.Status = LevelReached
			}
			out = append(out, k)
		}
	case *terms.CPPN:
		if tt.KnockInEnabled {
			out = append(out, downside(KeyKnockIn, tt.KnockInPct.Fraction().Float(), x, watch, breached))
		}
	case *terms.Bonus:
		out = append(out, downside(KeyBonusBarrier, tt.BarrierPct.Fraction().Float(), x, watch, breached))
	}
	return out
}

func nextObservation(t *terms.RC, asOf time.Time) (schedule.Observation, bool) {
	a := t.Autocall
	if a == nil || t.IssueDate.IsZero() {
		return schedule.Observation{}, false
	}
	for _, o := range schedule.Observations(t.IssueDate, t.TenorMonths, a.Frequency, a.FirstObservationMonths, a.LevelsFloat()) {
		if o.Date.After(asOf) {
			return o, true
		}
	}
	return schedule.Observation{}, false
}

func nextEvents(t terms.Terms, history []CouponPayment, asOf, maturity time.Time, redemption float64) []Event {
	var out []Event
	for _, cp := range history {
		if len(out) == maxCouponEvents {
			break
		}
		if !cp.Paid && cp.Date.After(asOf) {
			out = append(out, Event{Type: EventCoupon, Date: cp.Date, Amount: cp.Amount})
		}
	}
	if rc, ok := t.(*terms.RC); ok {
		if obs, ok := nextObservation(rc, asOf); ok {
			out = append(out, Event{Type: EventAutocall, Date: obs.Date, Level: obs.AutocallLevel})
		}
	}
	if maturity.After(asOf) {
		out = append(out, Event{Type: EventMaturity, Date: maturity, Amount: redemption})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func reasons(t terms.Terms, res payoff.Result, status RiskStatus, coupons float64, c *reasonContext) []Reason {
	var out []Reason
	switch tt := t.(type) {
	case *terms.RC:
		switch {
		case res.BarrierBreached:
			out = append(out, ReasonBarrierBreached)
		case status == StatusWatch:
			out = append(out, ReasonNearBarrier)
		}
		if coupons > 0 {
			out = append(out, ReasonCouponsReceived)
		}
	case *terms.CPPN:
		c.Protection = tt.CapitalProtectionPct.Fraction().Float()
		if res.KnockInTriggered {
			return append(out, ReasonKnockInTriggered)
		}
		out = append(out, ReasonProtected)
		if status == StatusWatch {
			out = append(out, ReasonNearBarrier)
		}
	case *terms.Bonus:
		c.BonusLevel = tt.BonusLevelPct.Fraction().Float()
		if res.BarrierBreached {
			return append(out, ReasonBonusLost)
		}
		out = append(out, ReasonBonusActive)
		if status == StatusWatch {
			out = append(out, ReasonNearBarrier)
		}
	}
	return out
}
