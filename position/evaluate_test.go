package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/payoff"
	"github.com/rustyeddy/notes/schedule"
	"github.com/rustyeddy/notes/terms"
)

func spot(prices ...float64) market.MarketData {
	return market.MarketData{SpotPrices: prices}
}

func asOf(d time.Time) Overrides {
	return Overrides{AsOf: &d}
}

func TestEvaluateRCBreached(t *testing.T) {
	t.Parallel()

	p := mustNew(t, rcTerms())
	snap, err := EvaluatePosition(p, spot(130), asOf(date(2024, 8, 1)))
	require.NoError(t, err)

	assert.Equal(t, terms.KindRC, snap.Kind)
	assert.Equal(t, date(2024, 8, 1), snap.AsOf)
	assert.Equal(t, date(2025, 1, 15), snap.MaturityDate)
	assert.Equal(t, 167, snap.DaysToMaturity)
	assert.False(t, snap.Final)
	assert.InDelta(t, 0.65, snap.BasketLevel, 1e-12)
	assert.Equal(t, "AAPL", snap.WorstTicker)
	assert.Equal(t, StatusTriggered, snap.Status)

	s := snap.Settlement
	assert.Equal(t, payoff.SettlementPhysical, s.Type)
	require.Len(t, s.Lots, 1)
	assert.Equal(t, Lot{Symbol: "AAPL", Quantity: 500, Price: 130, MarketValue: 65000}, s.Lots[0])
	assert.Equal(t, 0.0, s.CashInLieu)
	assert.Equal(t, 65000.0, s.Total)

	assert.Equal(t, 5000.0, snap.CouponsReceived)
	assert.Equal(t, 70000.0, snap.IndicativeValue)
	assert.Equal(t, -30000.0, snap.PnL)
	assert.InDelta(t, -0.30, snap.PnLPct, 1e-12)

	assert.Equal(t, []Reason{ReasonBarrierBreached, ReasonCouponsReceived}, snap.Reasons)
	assert.Equal(t,
		"Basket at 65.0% is below the 70.0% barrier; principal settles physically. Coupons received to date: 5000.00 USD.",
		snap.ReasonText)

	require.Len(t, snap.KeyLevels, 1)
	kl := snap.KeyLevels[0]
	assert.Equal(t, KeyBarrier, kl.Name)
	assert.Equal(t, LevelBreached, kl.Status)
	assert.InDelta(t, -0.05, kl.Distance, 1e-12)

	require.Len(t, snap.NextEvents, 3)
	assert.Equal(t, Event{Type: EventCoupon, Date: date(2024, 10, 15), Amount: 2500}, snap.NextEvents[0])
	assert.Equal(t, Event{Type: EventCoupon, Date: date(2025, 1, 15), Amount: 2500}, snap.NextEvents[1])
	assert.Equal(t, Event{Type: EventMaturity, Date: date(2025, 1, 15), Amount: 65000}, snap.NextEvents[2])
}

func TestEvaluateRCStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		price  float64
		status RiskStatus
		codes  []Reason
		level  LevelStatus
	}{
		{"safe", 190, StatusSafe, nil, LevelSafe},
		{"watch", 146, StatusWatch, []Reason{ReasonNearBarrier}, LevelWatch},
		{"at_barrier", 140, StatusWatch, []Reason{ReasonNearBarrier}, LevelWatch},
		{"breached", 139, StatusTriggered, []Reason{ReasonBarrierBreached}, LevelBreached},
	}

	p := mustNew(t, rcTerms())
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			snap, err := EvaluatePosition(p, spot(tt.price), asOf(date(2024, 2, 1)))
			require.NoError(t, err)
			assert.Equal(t, tt.status, snap.Status)
			assert.Equal(t, tt.codes, snap.Reasons)
			assert.Equal(t, tt.level, snap.KeyLevels[0].Status)
			assert.Equal(t, 0.0, snap.CouponsReceived)
		})
	}
}

func TestEvaluateRCAtBarrierSettlesInCash(t *testing.T) {
	t.Parallel()

	p := mustNew(t, rcTerms())
	snap, err := EvaluatePosition(p, spot(140), asOf(date(2024, 2, 1)))
	require.NoError(t, err)
	assert.Equal(t, payoff.SettlementCash, snap.Settlement.Type)
	assert.Equal(t, 100000.0, snap.Settlement.CashAmount)
	assert.Empty(t, snap.Settlement.Lots)
}

func TestEvaluateManualBreach(t *testing.T) {
	t.Parallel()

	p := mustNew(t, rcTerms())
	p.ManualBarrierBreach = true

	snap, err := EvaluatePosition(p, spot(190), asOf(date(2024, 2, 1)))
	require.NoError(t, err)
	assert.Equal(t, StatusTriggered, snap.Status)
	assert.Equal(t, 95000.0, snap.Settlement.Total)
	assert.Equal(t, "The barrier is marked as breached with the basket at 95.0%; principal settles physically.", snap.ReasonText)

	// an explicit override beats the manual flag
	ov := asOf(date(2024, 2, 1))
	ov.BarrierState = payoff.StateIntact
	snap, err = EvaluatePosition(p, spot(130), ov)
	require.NoError(t, err)
	assert.Equal(t, StatusWatch, snap.Status)
	assert.Equal(t, payoff.SettlementCash, snap.Settlement.Type)
	assert.Equal(t, 100000.0, snap.Settlement.Total)
}

func TestEvaluateCashInLieu(t *testing.T) {
	t.Parallel()

	rc := rcTerms()
	rc.InitialFixings = []float64{300}
	p := mustNew(t, rc)

	snap, err := EvaluatePosition(p, spot(180), asOf(date(2024, 2, 1)))
	require.NoError(t, err)
	s := snap.Settlement
	require.Len(t, s.Lots, 1)
	assert.Equal(t, 333.0, s.Lots[0].Quantity)
	assert.Equal(t, 59940.0, s.Lots[0].MarketValue)
	assert.Equal(t, 60.0, s.CashInLieu)
	assert.Equal(t, 60000.0, s.Total)
}

func TestEvaluateMaturityToday(t *testing.T) {
	t.Parallel()

	p := mustNew(t, rcTerms())
	md := market.MarketData{SpotPrices: []float64{150}, FinalPrices: []float64{120}}
	snap, err := EvaluatePosition(p, md, Overrides{MaturityToday: true})
	require.NoError(t, err)

	assert.True(t, snap.Final)
	assert.Equal(t, date(2025, 1, 15), snap.AsOf)
	assert.Equal(t, 0, snap.DaysToMaturity)
	assert.InDelta(t, 0.60, snap.BasketLevel, 1e-12)
	assert.Equal(t, 10000.0, snap.CouponsReceived)
	assert.Empty(t, snap.NextEvents)

	// before maturity the finals are ignored
	snap, err = EvaluatePosition(p, md, asOf(date(2024, 6, 1)))
	require.NoError(t, err)
	assert.InDelta(t, 0.75, snap.BasketLevel, 1e-12)
}

func TestEvaluateLevelOverrides(t *testing.T) {
	t.Parallel()

	rc := rcTerms()
	rc.Common = common([]string{"AAPL", "MSFT"}, []float64{200, 400})
	p := mustNew(t, rc)
	md := spot(220, 360)

	snap, err := EvaluatePosition(p, md, Overrides{AsOf: ptrTime(date(2024, 2, 1)), UnderlyingLevels: map[string]float64{"msft": 0.5}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, snap.BasketLevel, 1e-12)
	assert.Equal(t, "MSFT", snap.WorstTicker)
	assert.InDelta(t, 200.0, snap.Underlyings[1].Price, 1e-9)
	assert.InDelta(t, 220.0, snap.Underlyings[0].Price, 1e-9)

	w := 0.65
	snap, err = EvaluatePosition(p, md, Overrides{AsOf: ptrTime(date(2024, 2, 1)), WorstOfLevel: &w})
	require.NoError(t, err)
	assert.InDelta(t, 0.65, snap.BasketLevel, 1e-12)
	assert.Equal(t, 1, snap.WorstIndex)
	assert.InDelta(t, 1.1, snap.Underlyings[0].Level, 1e-12)

	_, err = EvaluatePosition(p, md, Overrides{UnderlyingLevels: map[string]float64{"TSLA": 1}})
	assert.ErrorIs(t, err, ErrInvalidPosition)

	neg := -0.1
	_, err = EvaluatePosition(p, md, Overrides{WorstOfLevel: &neg})
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestPinLevel(t *testing.T) {
	t.Parallel()

	levels := []float64{1.1, 0.9, 1.0}
	assert.Equal(t, []float64{1.1, 0.6, 1.0}, pinLevel(market.BasketWorstOf, levels, 0.6))
	assert.Equal(t, []float64{1.1, 1.0, 1.0}, pinLevel(market.BasketWorstOf, levels, 1.0))
	assert.Equal(t, []float64{0.8, 0.8, 0.8}, pinLevel(market.BasketBestOf, levels, 0.8))
	assert.Equal(t, []float64{0.7, 0.7, 0.7}, pinLevel(market.BasketAverage, levels, 0.7))
	assert.Equal(t, []float64{1.1, 0.9, 1.0}, levels)
}

func TestEvaluateAutocall(t *testing.T) {
	t.Parallel()

	rc := rcTerms()
	rc.Autocall = &terms.Autocall{
		Frequency:              schedule.Quarterly,
		FirstObservationMonths: 3,
		Levels:                 []market.Fraction{1.0, 0.95, 0.90},
	}
	p := mustNew(t, rc)

	snap, err := EvaluatePosition(p, spot(190), asOf(date(2024, 8, 1)))
	require.NoError(t, err)

	require.Len(t, snap.KeyLevels, 2)
	ac := snap.KeyLevels[1]
	assert.Equal(t, KeyAutocall, ac.Name)
	assert.InDelta(t, 0.90, ac.Target, 1e-12)
	assert.Equal(t, LevelReached, ac.Status)
	require.NotNil(t, ac.Date)
	assert.Equal(t, date(2024, 10, 15), *ac.Date)

	require.Len(t, snap.NextEvents, 4)
	assert.Equal(t, EventCoupon, snap.NextEvents[0].Type)
	assert.Equal(t, EventAutocall, snap.NextEvents[1].Type)
	assert.Equal(t, date(2024, 10, 15), snap.NextEvents[1].Date)
	assert.Equal(t, EventMaturity, snap.NextEvents[3].Type)
}

func TestEvaluateNextEventsCapsCoupons(t *testing.T) {
	t.Parallel()

	rc := rcTerms()
	rc.CouponFrequency = schedule.Monthly
	p := mustNew(t, rc)

	snap, err := EvaluatePosition(p, spot(190), asOf(date(2024, 1, 20)))
	require.NoError(t, err)
	require.Len(t, snap.NextEvents, 4)
	for _, e := range snap.NextEvents[:3] {
		assert.Equal(t, EventCoupon, e.Type)
	}
	assert.Equal(t, date(2024, 2, 15), snap.NextEvents[0].Date)
	assert.Equal(t, EventMaturity, snap.NextEvents[3].Type)
}

func TestEvaluateCPPN(t *testing.T) {
	t.Parallel()

	p := mustNew(t, cppnTerms())

	snap, err := EvaluatePosition(p, spot(6000), asOf(date(2024, 6, 1)))
	require.NoError(t, err)
	assert.Equal(t, StatusSafe, snap.Status)
	assert.Equal(t, []Reason{ReasonProtected}, snap.Reasons)
	assert.Equal(t, "Capital protection of 90.0% applies at maturity.", snap.ReasonText)
	assert.Equal(t, 110000.0, snap.Settlement.CashAmount)
	assert.Equal(t, 10000.0, snap.PnL)
	assert.Equal(t, 0.0, snap.CouponsReceived)
	require.Len(t, snap.NextEvents, 1)
	assert.Equal(t, EventMaturity, snap.NextEvents[0].Type)

	snap, err = EvaluatePosition(p, spot(3600), asOf(date(2024, 6, 1)))
	require.NoError(t, err)
	assert.Equal(t, StatusWatch, snap.Status)
	assert.Equal(t, []Reason{ReasonProtected, ReasonNearBarrier}, snap.Reasons)
	assert.Equal(t, 90000.0, snap.Settlement.Total)

	snap, err = EvaluatePosition(p, spot(3000), asOf(date(2024, 6, 1)))
	require.NoError(t, err)
	assert.Equal(t, StatusTriggered, snap.Status)
	assert.Equal(t, []Reason{ReasonKnockInTriggered}, snap.Reasons)
	assert.Equal(t, payoff.SettlementPhysical, snap.Settlement.Type)
	require.Len(t, snap.Settlement.Lots, 1)
	assert.Equal(t, 25.0, snap.Settlement.Lots[0].Quantity)
	assert.InDelta(t, 77142.86, snap.Settlement.Total, 0.011)
	assert.Equal(t, LevelBreached, snap.KeyLevels[0].Status)
}

func TestEvaluateCPPNWithoutKnockInIsSafe(t *testing.T) {
	t.Parallel()

	c := cppnTerms()
	c.KnockInEnabled = false
	c.CapitalProtectionPct = 100
	p := mustNew(t, c)

	snap, err := EvaluatePosition(p, spot(1000), asOf(date(2024, 6, 1)))
	require.NoError(t, err)
	assert.Equal(t, StatusSafe, snap.Status)
	assert.Empty(t, snap.KeyLevels)
	assert.Equal(t, 100000.0, snap.Settlement.Total)
}

func TestEvaluateBonus(t *testing.T) {
	t.Parallel()

	p := mustNew(t, bonusTerms())

	snap, err := EvaluatePosition(p, spot(4500), asOf(date(2024, 6, 1)))
	require.NoError(t, err)
	assert.Equal(t, StatusSafe, snap.Status)
	assert.Equal(t, []Reason{ReasonBonusActive}, snap.Reasons)
	assert.Equal(t, 108000.0, snap.Settlement.Total)
	assert.Equal(t, "Bonus barrier at 70.0% intact; redemption of at least 108.0% applies.", snap.ReasonText)

	snap, err = EvaluatePosition(p, spot(3400), asOf(date(2024, 6, 1)))
	require.NoError(t, err)
	assert.Equal(t, StatusTriggered, snap.Status)
	assert.Equal(t, []Reason{ReasonBonusLost}, snap.Reasons)
	assert.Equal(t, 68000.0, snap.Settlement.Total)
	assert.Equal(t, KeyBonusBarrier, snap.KeyLevels[0].Name)
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	t.Parallel()

	p := mustNew(t, rcTerms())

	_, err := EvaluatePosition(p, spot(100, 200), Overrides{})
	assert.ErrorIs(t, err, ErrInvalidPosition)

	_, err = EvaluatePosition(p, spot(0), Overrides{})
	assert.ErrorIs(t, err, ErrInvalidPosition)

	_, err = EvaluatePosition(p, spot(100), Overrides{BarrierState: "maybe"})
	assert.ErrorIs(t, err, ErrInvalidPosition)

	_, err = EvaluatePosition(nil, spot(100), Overrides{})
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	t.Parallel()

	p := mustNew(t, rcTerms())
	ov := asOf(date(2024, 8, 1))
	a, err := EvaluatePosition(p, spot(130), ov)
	require.NoError(t, err)
	b, err := EvaluatePosition(p, spot(130), ov)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestEvaluateRCAverageBasketSettlesOnWorst(t *testing.T) {
	t.Parallel()

	for _, geared := range []bool{false, true} {
		rc := rcTerms()
		rc.Common = common([]string{"AAPL", "MSFT"}, []float64{100, 100})
		rc.BasketType = market.BasketAverage
		if geared {
			rc.Variant = terms.LowStrikeGearedPut
			rc.StrikePct = 0.80
		}
		p := mustNew(t, rc)

		snap, err := EvaluatePosition(p, spot(50, 100), asOf(date(2024, 2, 1)))
		require.NoError(t, err)

		assert.Equal(t, payoff.SettlementPhysical, snap.Settlement.Type, "geared=%v", geared)
		assert.Equal(t, StatusTriggered, snap.Status)
		assert.InDelta(t, 0.5, snap.BasketLevel, 1e-12)
		require.Len(t, snap.Settlement.Lots, 1)
		assert.Equal(t, "AAPL", snap.Settlement.Lots[0].Symbol)
		assert.Equal(t, market.RoundCash(p.Notional*snap.Payoff.RedemptionPct), snap.Settlement.Total, "geared=%v", geared)
	}
}

func TestEvaluateRCPinsWorstLevel(t *testing.T) {
	t.Parallel()

	rc := rcTerms()
	rc.Common = common([]string{"AAPL", "MSFT"}, []float64{200, 400})
	rc.BasketType = market.BasketBestOf
	p := mustNew(t, rc)

	w := 0.65
	snap, err := EvaluatePosition(p, spot(220, 360), Overrides{AsOf: ptrTime(date(2024, 2, 1)), WorstOfLevel: &w})
	require.NoError(t, err)
	assert.InDelta(t, 0.65, snap.BasketLevel, 1e-12)
	assert.Equal(t, "MSFT", snap.WorstTicker)
	assert.InDelta(t, 1.1, snap.Underlyings[0].Level, 1e-12)
	assert.Equal(t, payoff.SettlementPhysical, snap.Settlement.Type)
}

func TestEvaluateCouponsMatchPayoffForUnevenTenor(t *testing.T) {
	t.Parallel()

	for _, freq := range []schedule.Frequency{schedule.SemiAnnual, schedule.Quarterly} {
		rc := rcTerms()
		rc.TenorMonths = 7
		rc.CouponFrequency = freq
		p := mustNew(t, rc)
		require.Len(t, p.CouponHistory, schedule.PeriodCount(7, freq))
		assert.Equal(t, date(2024, 8, 15), p.CouponHistory[len(p.CouponHistory)-1].Date)

		snap, err := EvaluatePosition(p, spot(200), Overrides{MaturityToday: true})
		require.NoError(t, err)
		assert.Equal(t, market.RoundCash(p.Notional*snap.Payoff.CouponPct), snap.CouponsReceived, "freq=%s", freq)
		assert.Equal(t, 5000.0, snap.CouponsReceived)
	}
}
