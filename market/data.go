// Package market holds the units, basket types and market data shared by
// the payoff engines.
package market

import (
	"fmt"
	"strings"
)

// BasketType selects how per-underlying levels aggregate into one basket level.
type BasketType string

const (
	BasketSingle  BasketType = "single"
	BasketWorstOf BasketType = "worst_of"
	BasketBestOf  BasketType = "best_of"
	BasketAverage BasketType = "average"
)

// ParseBasketType accepts the canonical names plus a few spellings seen in
// term sheets ("worst-of", "WorstOf").
func ParseBasketType(s string) (BasketType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch norm {
	case "single", "":
		return BasketSingle, nil
	case "worst_of", "worstof":
		return BasketWorstOf, nil
	case "best_of", "bestof":
		return BasketBestOf, nil
	case "average", "avg":
		return BasketAverage, nil
	}
	return "", fmt.Errorf("unknown basket type %q", s)
}

// Valid reports whether b is one of the known basket types.
func (b BasketType) Valid() bool {
	switch b {
	case BasketSingle, BasketWorstOf, BasketBestOf, BasketAverage:
		return true
	}
	return false
}

// Underlying is one reference asset of a note. Ticker is its identity
// within a basket.
type Underlying struct {
	Ticker        string  `json:"ticker" yaml:"ticker" msgpack:"ticker"`
	Name          string  `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name"`
	InitialFixing float64 `json:"initial_fixing,omitempty" yaml:"initial_fixing,omitempty" msgpack:"initial_fixing"`
}

// Tickers returns the tickers of us in order.
func Tickers(us []Underlying) []string {
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.Ticker
	}
	return out
}

// MarketData carries prices parallel to a note's underlyings.
type MarketData struct {
	InitialFixings []float64 `json:"initial_fixings" yaml:"initial_fixings" msgpack:"initial_fixings"`
	SpotPrices     []float64 `json:"spot_prices" yaml:"spot_prices" msgpack:"spot_prices"`
	FinalPrices    []float64 `json:"final_prices,omitempty" yaml:"final_prices,omitempty" msgpack:"final_prices"`
}

// Finals returns the final prices, or spot prices when no complete set of
// finals was supplied.
func (m MarketData) Finals() []float64 {
	if len(m.FinalPrices) > 0 && len(m.FinalPrices) == len(m.SpotPrices) {
		return m.FinalPrices
	}
	return m.SpotPrices
}

// Clone deep-copies m.
func (m MarketData) Clone() MarketData {
	return MarketData{
		InitialFixings: cloneFloats(m.InitialFixings),
		SpotPrices:     cloneFloats(m.SpotPrices),
		FinalPrices:    cloneFloats(m.FinalPrices),
	}
}

// Check verifies that the arrays are parallel to n underlyings and every
// price is positive.
func (m MarketData) Check(n int) error {
	if len(m.InitialFixings) != n {
		return fmt.Errorf("initial fixings: got %d, want %d", len(m.InitialFixings), n)
	}
	if len(m.SpotPrices) != n {
		return fmt.Errorf("spot prices: got %d, want %d", len(m.SpotPrices), n)
	}
	if len(m.FinalPrices) != 0 && len(m.FinalPrices) != n {
		return fmt.Errorf("final prices: got %d, want %d", len(m.FinalPrices), n)
	}
	for i := 0; i < n; i++ {
		if m.InitialFixings[i] <= 0 {
			return fmt.Errorf("initial fixing %d must be positive", i)
		}
		if m.SpotPrices[i] <= 0 {
			return fmt.Errorf("spot price %d must be positive", i)
		}
	}
	for i, p := range m.FinalPrices {
		if p <= 0 {
			return fmt.Errorf("final price %d must be positive", i)
		}
	}
	return nil
}

func cloneFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	copy(out, in)
	return out
}

// Direction is the side of the participation payoff.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Valid reports whether d is up or down.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}
