// Package basket turns per-underlying prices into basket levels.
//
// A level is the ratio spot/initial, so 1.0 means unchanged. Aggregation
// follows the basket type of the note: the minimum (worst-of), the maximum
// (best-of) or the equally weighted mean (average).
package basket

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rustyeddy/notes/market"
)

// Levels computes spot[i]/initial[i] for each underlying. Only the common
// prefix of the two slices is used.
func Levels(spot, initial []float64) []float64 {
	n := len(spot)
	if len(initial) < n {
		n = len(initial)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = market.SafeDiv(spot[i], initial[i])
	}
	return out
}

// WorstOf returns the minimum level and its index. Ties resolve to the
// lowest index. An empty slice yields (0, -1).
func WorstOf(levels []float64) (float64, int) {
	if len(levels) == 0 {
		return 0, -1
	}
	i := floats.MinIdx(levels)
	return levels[i], i
}

// BestOf returns the maximum level and its index, lowest index on ties.
func BestOf(levels []float64) (float64, int) {
	if len(levels) == 0 {
		return 0, -1
	}
	i := floats.MaxIdx(levels)
	return levels[i], i
}

// AverageOf returns the equally weighted mean of levels.
func AverageOf(levels []float64) float64 {
	if len(levels) == 0 {
		return 0
	}
	return stat.Mean(levels, nil)
}

// Level aggregates levels according to bt. ref is the index of the
// underlying that would be delivered in physical settlement: the worst
// performer for single, worst-of and average baskets, the best performer
// for best-of.
func Level(bt market.BasketType, levels []float64) (level float64, ref int) {
	switch bt {
	case market.BasketBestOf:
		return BestOf(levels)
	case market.BasketAverage:
		_, ref = WorstOf(levels)
		return AverageOf(levels), ref
	default:
		return WorstOf(levels)
	}
}

// Prices rebuilds a price vector from initial fixings and target levels.
func Prices(initial, levels []float64) []float64 {
	n := len(initial)
	if len(levels) < n {
		n = len(levels)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = initial[i] * levels[i]
	}
	return out
}
