package position

import (
	"bytes"
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/terms"
)

// DefaultCacheSize bounds a SnapshotCache built with a non-positive size.
const DefaultCacheSize = 256

// SnapshotCache is a bounded LRU of snapshots keyed by SnapshotKey. It is
// safe for concurrent use. Cached snapshots are shared; treat them as
// read-only.
type SnapshotCache struct {
	mu    sync.Mutex
	size  int
	ll    *list.List
	items map[string]*list.Element
}

type cacheEntry struct {
	key  string
	snap Snapshot
}

// NewSnapshotCache returns a cache holding at most size snapshots.
func NewSnapshotCache(size int) *SnapshotCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &SnapshotCache{size: size, ll: list.New(), items: make(map[string]*list.Element)}
}

// Get returns the snapshot stored under key and marks it recently used.
func (c *SnapshotCache) Get(key string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return Snapshot{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).snap, true
}

// Put stores snap under key, evicting the least recently used entry when
// the cache is full.
func (c *SnapshotCache) Put(key string, snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).snap = snap
		c.ll.MoveToFront(el)
		return
	}
	c.items[key] = c.ll.PushFront(&cacheEntry{key: key, snap: snap})
	for c.ll.Len() > c.size {
		last := c.ll.Back()
		c.ll.Remove(last)
		delete(c.items, last.Value.(*cacheEntry).key)
	}
}

// Len reports the number of cached snapshots.
func (c *SnapshotCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Purge empties the cache.
func (c *SnapshotCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
}

type keyOverrides struct {
	AsOf             time.Time          `msgpack:"as_of"`
	MaturityToday    bool               `msgpack:"maturity_today"`
	UnderlyingLevels map[string]float64 `msgpack:"underlying_levels"`
	WorstOfLevel     *float64           `msgpack:"worst_of_level"`
	BarrierState     string             `msgpack:"barrier_state"`
}

type keyInput struct {
	PositionID     string            `msgpack:"position_id"`
	Terms          terms.Document    `msgpack:"terms"`
	Inception      time.Time         `msgpack:"inception"`
	Notional       float64           `msgpack:"notional"`
	InitialFixings []float64         `msgpack:"initial_fixings"`
	Coupons        []CouponPayment   `msgpack:"coupons"`
	ManualBreach   bool              `msgpack:"manual_breach"`
	Market         market.MarketData `msgpack:"market"`
	Overrides      keyOverrides      `msgpack:"overrides"`
	Watch          float64           `msgpack:"watch"`
}

// SnapshotKey hashes every input that can change a snapshot: the position,
// the market data, the overrides and the watch threshold. Map keys are
// encoded sorted so equal inputs give equal keys.
func SnapshotKey(p *Position, md market.MarketData, ov Overrides, watch float64) (string, error) {
	if p == nil || p.Terms == nil {
		return "", fmt.Errorf("%w: terms are required", ErrInvalidPosition)
	}
	in := keyInput{
		PositionID:     p.ID,
		Terms:          terms.FromTerms(p.Terms),
		Inception:      p.InceptionDate.UTC(),
		Notional:       p.Notional,
		InitialFixings: p.InitialFixings,
		Coupons:        p.CouponHistory,
		ManualBreach:   p.ManualBarrierBreach,
		Market:         md,
		Overrides: keyOverrides{
			MaturityToday:    ov.MaturityToday,
			UnderlyingLevels: ov.UnderlyingLevels,
			WorstOfLevel:     ov.WorstOfLevel,
			BarrierState:     string(ov.BarrierState),
		},
		Watch: watch,
	}
	if ov.AsOf != nil {
		in.Overrides.AsOf = ov.AsOf.UTC()
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(&in); err != nil {
		return "", fmt.Errorf("encode snapshot key: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}
