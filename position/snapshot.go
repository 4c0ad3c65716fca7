package position

import (
	"time"

	"github.com/rustyeddy/notes/payoff"
	"github.com/rustyeddy/notes/terms"
)

// RiskStatus summarises how close a position is to losing its protection.
type RiskStatus string

const (
	StatusSafe      RiskStatus = "SAFE"
	StatusWatch     RiskStatus = "WATCH"
	StatusTriggered RiskStatus = "TRIGGERED"
)

// LevelStatus describes one key level relative to the basket.
type LevelStatus string

const (
	LevelSafe     LevelStatus = "safe"
	LevelWatch    LevelStatus = "watch"
	LevelBreached LevelStatus = "breached"
	LevelReached  LevelStatus = "reached"
	LevelPending  LevelStatus = "pending"
)

// Key level names.
const (
	KeyBarrier      = "barrier"
	KeyStrike       = "strike"
	KeyKnockIn      = "knock_in"
	KeyBonusBarrier = "bonus_barrier"
	KeyAutocall     = "autocall"
)

// EventType tags an upcoming event.
type EventType string

const (
	EventCoupon   EventType = "coupon"
	EventAutocall EventType = "autocall_observation"
	EventMaturity EventType = "maturity"
)

// UnderlyingLevel is one underlying's price relative to its fixing.
type UnderlyingLevel struct {
	Ticker  string  `json:"ticker"`
	Initial float64 `json:"initial"`
	Price   float64 `json:"price"`
	Level   float64 `json:"level"`
}

// Lot is a block of delivered shares.
type Lot struct {
	Symbol      string  `json:"symbol"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	MarketValue float64 `json:"market_value"`
}

// Settlement is what the holder would receive if the note settled now.
// Physical settlement delivers whole shares and pays the fractional
// remainder as CashInLieu.
type Settlement struct {
	Type       payoff.Settlement `json:"type"`
	CashAmount float64           `json:"cash_amount,omitempty"`
	Lots       []Lot             `json:"lots,omitempty"`
	CashInLieu float64           `json:"cash_in_lieu,omitempty"`
	Total      float64           `json:"total"`
}

// KeyLevel is a threshold the basket is measured against. Levels and
// Distance are fractions; Distance is Current - Target.
type KeyLevel struct {
	Name     string      `json:"name"`
	Target   float64     `json:"target"`
	Current  float64     `json:"current"`
	Distance float64     `json:"distance"`
	Status   LevelStatus `json:"status"`
	Date     *time.Time  `json:"date,omitempty"`
}

// Event is an upcoming coupon, autocall observation or maturity.
type Event struct {
	Type   EventType `json:"type"`
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount,omitempty"`
	Level  float64   `json:"level,omitempty"`
}

// Snapshot is a full valuation of a position at one date. All levels are
// fractions (1.0 = 100%) whatever the product kind.
type Snapshot struct {
	PositionID      string            `json:"position_id"`
	Name            string            `json:"name,omitempty"`
	Kind            terms.Kind        `json:"kind"`
	Currency        string            `json:"currency"`
	Notional        float64           `json:"notional"`
	AsOf            time.Time         `json:"as_of"`
	MaturityDate    time.Time         `json:"maturity_date"`
	DaysToMaturity  int               `json:"days_to_maturity"`
	Final           bool              `json:"final"`
	Underlyings     []UnderlyingLevel `json:"underlyings"`
	BasketLevel     float64           `json:"basket_level"`
	WorstIndex      int               `json:"worst_index"`
	WorstTicker     string            `json:"worst_ticker"`
	Payoff          payoff.Result     `json:"payoff"`
	IndicativeValue float64           `json:"indicative_value"`
	CouponsReceived float64           `json:"coupons_received"`
	PnL             float64           `json:"pnl"`
	PnLPct          float64           `json:"pnl_pct"`
	Status          RiskStatus        `json:"status"`
	Settlement      Settlement        `json:"settlement"`
	KeyLevels       []KeyLevel        `json:"key_levels"`
	NextEvents      []Event           `json:"next_events"`
	Reasons         []Reason          `json:"reasons"`
	ReasonText      string            `json:"reason_text"`
}
