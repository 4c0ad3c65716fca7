package terms

import (
	"time"

	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/schedule"
)

func single(ticker string, fixing float64) Common {
	return Common{
		Notional:       100000,
		Currency:       "USD",
		TenorMonths:    12,
		IssueDate:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		BasketType:     market.BasketSingle,
		Underlyings:    []market.Underlying{{Ticker: ticker}},
		InitialFixings: []float64{fixing},
	}
}

func sampleRC() *RC {
	return &RC{
		Common:          single("AAPL", 200),
		Variant:         StandardBarrier,
		CouponRate:      0.10,
		CouponFrequency: schedule.Quarterly,
		BarrierPct:      0.70,
		ConversionRatio: 1,
	}
}

func sampleCPPN() *CPPN {
	return &CPPN{
		Common:                single("SPY", 500),
		CapitalProtectionPct:  90,
		ParticipationStartPct: 100,
		ParticipationRatePct:  100,
		Direction:             market.DirectionUp,
		KnockInEnabled:        true,
		KnockInPct:            70,
		ConversionRatio:       1,
	}
}

func sampleBonus() *Bonus {
	return &Bonus{
		Common:                single("SPY", 500),
		BarrierPct:            70,
		BonusLevelPct:         108,
		ParticipationStartPct: 100,
		ParticipationRatePct:  100,
		CapEnabled:            true,
		CapPct:                125,
	}
}
