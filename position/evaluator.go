package position

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/metrics"
	"github.com/rustyeddy/notes/schedule"
)

// Evaluator runs EvaluatePosition with an injected clock, watch threshold
// and snapshot cache, logging and counting each evaluation.
type Evaluator struct {
	log   zerolog.Logger
	cache *SnapshotCache
	now   func() time.Time
	watch float64
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Evaluator) { e.log = l }
}

// WithCache sets the snapshot cache. A nil cache disables caching.
func WithCache(c *SnapshotCache) Option {
	return func(e *Evaluator) { e.cache = c }
}

// WithClock sets the clock used when no as-of date is given.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// WithWatchThreshold sets the WATCH distance. Non-positive values keep the
// default.
func WithWatchThreshold(x float64) Option {
	return func(e *Evaluator) {
		if x > 0 {
			e.watch = x
		}
	}
}

// NewEvaluator builds an Evaluator.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		log:   zerolog.Nop(),
		now:   time.Now,
		watch: DefaultWatchThreshold,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// WatchThreshold reports the configured WATCH distance.
func (e *Evaluator) WatchThreshold() float64 { return e.watch }

// Evaluate values p. The as-of date is pinned from the clock before the
// cache lookup so cached snapshots never outlive their day.
func (e *Evaluator) Evaluate(p *Position, md market.MarketData, ov Overrides) (Snapshot, error) {
	start := time.Now()
	if ov.AsOf == nil && !ov.MaturityToday {
		today := schedule.Day(e.now())
		ov.AsOf = &today
	}

	var key string
	if e.cache != nil {
		k, err := SnapshotKey(p, md, ov, e.watch)
		if err != nil {
			e.log.Warn().Err(err).Msg("snapshot key")
		} else if snap, ok := e.cache.Get(k); ok {
			metrics.CacheHit(true)
			e.log.Debug().Str("position", p.ID).Msg("snapshot cache hit")
			return snap, nil
		} else {
			metrics.CacheHit(false)
			key = k
		}
	}

	snap, err := evaluate(p, md, ov, e.watch, e.now)
	if err != nil {
		metrics.EvaluationErrors.Inc()
		e.log.Warn().Err(err).Msg("evaluate position")
		return Snapshot{}, err
	}
	if key != "" {
		e.cache.Put(key, snap)
		metrics.CacheEntries.Set(float64(e.cache.Len()))
	}

	metrics.ObserveEvaluation(string(snap.Kind), string(snap.Status), time.Since(start))
	e.log.Debug().
		Str("position", snap.PositionID).
		Str("kind", string(snap.Kind)).
		Str("status", string(snap.Status)).
		Float64("basket_level", snap.BasketLevel).
		Float64("indicative_value", snap.IndicativeValue).
		Msg("position evaluated")
	return snap, nil
}
