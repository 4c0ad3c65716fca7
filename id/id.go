// Package id issues position identifiers.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out ULIDs that sort by creation time. IDs issued within
// the same millisecond stay increasing.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// NewGenerator seeds a monotonic entropy source from r. A nil r is seeded
// from crypto/rand.
func NewGenerator(r io.Reader, now func() time.Time) *Generator {
	if r == nil {
		var seed int64
		_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		r = rand.New(rand.NewSource(seed))
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{entropy: ulid.Monotonic(r, 0), now: now}
}

// New returns the next ULID string.
func (g *Generator) New() string {
	return g.At(g.now())
}

// At returns a ULID stamped with t.
func (g *Generator) At(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, err := ulid.New(ulid.Timestamp(t.UTC()), g.entropy)
	if err != nil {
		// only on clock rollback within a millisecond or exhausted entropy
		panic(err)
	}
	return u.String()
}

var std = NewGenerator(nil, nil)

// New returns a ULID from the package generator.
func New() string {
	return std.New()
}

// Time extracts the creation time encoded in s.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse id %q: %w", s, err)
	}
	return ulid.Time(u.Time()).UTC(), nil
}
