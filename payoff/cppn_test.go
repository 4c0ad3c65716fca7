package payoff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/terms"
)

func common(fixing float64) terms.Common {
	return terms.Common{
		Notional:       100000,
		Currency:       "EUR",
		TenorMonths:    24,
		IssueDate:      issue,
		BasketType:     market.BasketSingle,
		Underlyings:    []market.Underlying{{Ticker: "SX5E"}},
		InitialFixings: []float64{fixing},
	}
}

func cppnTerms() *terms.CPPN {
	return &terms.CPPN{
		Common:                common(5000),
		CapitalProtectionPct:  90,
		ParticipationStartPct: 100,
		ParticipationRatePct:  100,
		Direction:             market.DirectionUp,
		KnockInEnabled:        true,
		KnockInPct:            70,
		ConversionRatio:       1,
	}
}

func bonusTerms() *terms.Bonus {
	return &terms.Bonus{
		Common:                common(5000),
		BarrierPct:            70,
		BonusLevelPct:         108,
		ParticipationStartPct: 100,
		ParticipationRatePct:  100,
		CapEnabled:            true,
		CapPct:                125,
	}
}

func TestCPPNCapAppliedBeforeFloor(t *testing.T) {
	t.Parallel()

	c := &terms.CPPN{
		Common:                common(100),
		CapitalProtectionPct:  100,
		ParticipationStartPct: 100,
		ParticipationRatePct:  120,
		Direction:             market.DirectionUp,
		CapEnabled:            true,
		CapPct:                125,
	}

	o := CPPNLevel(c, 130, StateAuto)
	assert.InDelta(t, 125.0, o.Redemption.Float(), 1e-9)
	assert.Equal(t, RegimeProtected, o.Regime)

	r := CPPN(c, market.MarketData{InitialFixings: []float64{100}, SpotPrices: []float64{130}})
	assert.InDelta(t, 1.25, r.RedemptionPct, 1e-9)
	assert.Equal(t, SettlementCash, r.Settlement)
	assert.Equal(t, 0.0, r.CouponPct)
}

func TestCPPNProtectedRegime(t *testing.T) {
	t.Parallel()

	c := cppnTerms()
	assert.InDelta(t, 90.0, CPPNLevel(c, 80, StateAuto).Redemption.Float(), 1e-9)
	assert.InDelta(t, 90.0, CPPNLevel(c, 100, StateAuto).Redemption.Float(), 1e-9)
	assert.InDelta(t, 110.0, CPPNLevel(c, 120, StateAuto).Redemption.Float(), 1e-9)
}

func TestCPPNDirectionDown(t *testing.T) {
	t.Parallel()

	c := cppnTerms()
	c.KnockInEnabled = false
	c.Direction = market.DirectionDown
	c.CapitalProtectionPct = 100
	c.ParticipationRatePct = 50

	assert.InDelta(t, 110.0, CPPNLevel(c, 80, StateAuto).Redemption.Float(), 1e-9)
	assert.InDelta(t, 100.0, CPPNLevel(c, 130, StateAuto).Redemption.Float(), 1e-9)
}

func TestCPPNContinuityAtKnockIn(t *testing.T) {
	t.Parallel()

	c := cppnTerms()
	s := EnforcedStrike(c)
	assert.InDelta(t, 77.7777777778, s.Float(), 1e-6)

	protected := ProtectedPayoffAt(c, c.KnockInPct)
	assert.InDelta(t, protected.Float(), 100*c.KnockInPct.Float()/s.Float(), 1e-9)

	at := CPPNLevel(c, 70, StateAuto)
	below := CPPNLevel(c, 70-1e-9, StateAuto)
	assert.Equal(t, RegimeProtected, at.Regime)
	assert.Equal(t, RegimeKnockIn, below.Regime)
	assert.True(t, below.KnockInTriggered)
	assert.InDelta(t, at.Redemption.Float(), below.Redemption.Float(), 1e-6)
	assert.LessOrEqual(t, below.Redemption.Float(), at.Redemption.Float())
}

func TestCPPNUnderSpecifiedStrikeRaised(t *testing.T) {
	t.Parallel()

	c := cppnTerms()
	low := market.Percent(60)
	c.DownsideStrikePct = &low
	assert.InDelta(t, 77.7777777778, EnforcedStrike(c).Float(), 1e-6)

	high := market.Percent(85)
	c.DownsideStrikePct = &high
	assert.Equal(t, market.Percent(85), EnforcedStrike(c))

	o := CPPNLevel(c, 51, StateAuto)
	assert.InDelta(t, 60.0, o.Redemption.Float(), 1e-9)
	assert.InDelta(t, 100.0/85.0, o.Gearing, 1e-12)
}

func TestCPPNKnockInSettlesPhysically(t *testing.T) {
	t.Parallel()

	c := cppnTerms()
	r := CPPN(c, market.MarketData{InitialFixings: []float64{5000}, SpotPrices: []float64{3000}})

	assert.True(t, r.KnockInTriggered)
	assert.Equal(t, SettlementPhysical, r.Settlement)
	assert.InDelta(t, 0.6*100/77.7777777778, r.RedemptionPct, 1e-9)
	assert.InDelta(t, 100000/(5000*0.777777777778), r.Shares, 1e-6)
	require.Len(t, r.Timeline.Events, 1)
	assert.Equal(t, EventShareConversion, r.Timeline.Events[0].Type)
	assert.Equal(t, issue.AddDate(2, 0, 0), r.Timeline.MaturityDate)
}

func TestCPPNForcedKnockIn(t *testing.T) {
	t.Parallel()

	c := cppnTerms()
	o := CPPNLevel(c, 95, StateBreached)
	assert.True(t, o.KnockInTriggered)
	assert.InDelta(t, 100*95/77.7777777778, o.Redemption.Float(), 1e-6)

	o = CPPNLevel(c, 50, StateIntact)
	assert.False(t, o.KnockInTriggered)
	assert.InDelta(t, 90.0, o.Redemption.Float(), 1e-9)
}

func TestBonusScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		level    float64
		want     float64
		breached bool
		paid     bool
	}{
		{"participation_above_bonus", 120, 120, false, false},
		{"floor_engages", 105, 108, false, true},
		{"below_start", 90, 108, false, true},
		{"near_barrier", 72, 108, false, true},
		{"at_barrier", 70, 108, false, true},
		{"breached", 68, 68, true, false},
		{"capped", 140, 125, false, false},
	}

	b := bonusTerms()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := BonusLevel(b, market.Percent(tt.level), StateAuto)
			assert.InDelta(t, tt.want, o.Redemption.Float(), 1e-9)
			assert.Equal(t, tt.breached, o.BarrierBreached)
			assert.Equal(t, tt.paid, o.BonusPaid)
		})
	}
}

func TestBonusFromMarketData(t *testing.T) {
	t.Parallel()

	b := bonusTerms()
	r := Bonus(b, market.MarketData{InitialFixings: []float64{5000}, SpotPrices: []float64{3400}})
	assert.InDelta(t, 0.68, r.RedemptionPct, 1e-9)
	assert.Equal(t, RegimeBonusBreached, r.Regime)
	assert.Equal(t, SettlementCash, r.Settlement)

	r = BonusWithState(b, market.MarketData{InitialFixings: []float64{5000}, SpotPrices: []float64{5000}}, StateBreached)
	assert.InDelta(t, 1.0, r.RedemptionPct, 1e-9)
	assert.True(t, r.BarrierBreached)
}

func TestRedemptionNeverNegative(t *testing.T) {
	t.Parallel()

	c := cppnTerms()
	down := cppnTerms()
	down.Direction = market.DirectionDown
	down.CapitalProtectionPct = 0
	down.KnockInEnabled = false
	b := bonusTerms()
	rc := rcTerms()
	geared := rcTerms()
	geared.Variant = terms.LowStrikeGearedPut
	geared.StrikePct = 0.5

	for i := 0; i <= 400; i++ {
		x := market.Percent(i)
		assert.GreaterOrEqual(t, CPPNLevel(c, x, StateAuto).Redemption.Float(), 0.0)
		assert.GreaterOrEqual(t, CPPNLevel(down, x, StateAuto).Redemption.Float(), 0.0)
		assert.GreaterOrEqual(t, BonusLevel(b, x, StateAuto).Redemption.Float(), 0.0)

		md := spot(rc.InitialFixings, float64(i)/100)
		assert.GreaterOrEqual(t, RC(rc, md).RedemptionPct, 0.0)
		assert.GreaterOrEqual(t, RC(geared, md).RedemptionPct, 0.0)
	}
}

func TestCalculatePayoffDispatch(t *testing.T) {
	t.Parallel()

	md := market.MarketData{InitialFixings: []float64{5000}, SpotPrices: []float64{6000}}
	assert.Equal(t, terms.KindCPPN, CalculatePayoff(cppnTerms(), md).Kind)
	assert.Equal(t, terms.KindBonus, CalculatePayoff(bonusTerms(), md).Kind)

	a := CalculatePayoff(bonusTerms(), md)
	b := CalculatePayoff(bonusTerms(), md)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.2, a.RedemptionPct, 1e-9)
}
