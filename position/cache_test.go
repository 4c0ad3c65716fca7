package position

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/notes/metrics"
)

func TestSnapshotCacheLRU(t *testing.T) {
	t.Parallel()

	c := NewSnapshotCache(2)
	c.Put("a", Snapshot{PositionID: "a"})
	c.Put("b", Snapshot{PositionID: "b"})

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", Snapshot{PositionID: "c"})
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry is evicted")
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "a", got.PositionID)

	c.Put("a", Snapshot{PositionID: "a2"})
	got, _ = c.Get("a")
	assert.Equal(t, "a2", got.PositionID)
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestSnapshotCacheDefaultSize(t *testing.T) {
	t.Parallel()

	c := NewSnapshotCache(0)
	for i := 0; i < DefaultCacheSize+10; i++ {
		c.Put(fmt.Sprint(i), Snapshot{})
	}
	assert.Equal(t, DefaultCacheSize, c.Len())
}

func TestSnapshotKey(t *testing.T) {
	t.Parallel()

	p := mustNew(t, rcTerms())
	d := date(2024, 8, 1)
	ov := Overrides{AsOf: &d, UnderlyingLevels: map[string]float64{"AAPL": 0.9, "aapl": 0.8}}

	k1, err := SnapshotKey(p, spot(130), ov, DefaultWatchThreshold)
	require.NoError(t, err)
	k2, err := SnapshotKey(p, spot(130), ov, DefaultWatchThreshold)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)

	k3, err := SnapshotKey(p, spot(131), ov, DefaultWatchThreshold)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	k4, err := SnapshotKey(p, spot(130), ov, 0.1)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k4)

	p.CouponHistory[0].Paid = true
	k5, err := SnapshotKey(p, spot(130), ov, DefaultWatchThreshold)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k5)

	_, err = SnapshotKey(nil, spot(130), ov, DefaultWatchThreshold)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestEvaluatorCachesAndPinsClock(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 8, 1, 15, 30, 0, 0, time.UTC) }
	var buf bytes.Buffer
	e := NewEvaluator(
		WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)),
		WithCache(NewSnapshotCache(8)),
		WithClock(clock),
	)
	assert.Equal(t, DefaultWatchThreshold, e.WatchThreshold())

	p := mustNew(t, rcTerms())
	hits := testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("hit"))
	evals := testutil.ToFloat64(metrics.EvaluationsTotal.WithLabelValues("rc", "TRIGGERED"))

	a, err := e.Evaluate(p, spot(130), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, date(2024, 8, 1), a.AsOf)

	b, err := e.Evaluate(p, spot(130), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	assert.Equal(t, hits+1, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, evals+1, testutil.ToFloat64(metrics.EvaluationsTotal.WithLabelValues("rc", "TRIGGERED")))
	assert.Contains(t, buf.String(), "snapshot cache hit")
	assert.Contains(t, buf.String(), "position evaluated")
}

func TestEvaluatorWatchThreshold(t *testing.T) {
	t.Parallel()

	e := NewEvaluator(WithWatchThreshold(0.30), WithClock(func() time.Time { return date(2024, 2, 1) }))
	p := mustNew(t, rcTerms())

	snap, err := e.Evaluate(p, spot(190), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, StatusWatch, snap.Status)

	e = NewEvaluator(WithWatchThreshold(-1))
	assert.Equal(t, DefaultWatchThreshold, e.WatchThreshold())
}

func TestEvaluatorError(t *testing.T) {
	errs := testutil.ToFloat64(metrics.EvaluationErrors)

	e := NewEvaluator(WithCache(NewSnapshotCache(4)))
	_, err := e.Evaluate(nil, spot(100), Overrides{})
	assert.ErrorIs(t, err, ErrInvalidPosition)
	assert.Equal(t, errs+1, testutil.ToFloat64(metrics.EvaluationErrors))
}
