// Package position values live structured note positions.
//
// A Position binds a set of terms to an inception date, a notional and the
// fixings struck at inception, and tracks which coupons have been paid.
// EvaluatePosition turns it plus current prices into a Snapshot: what the
// note would return if it settled now, how close it is to its triggers, and
// what happens next. Snapshots are derived on every call and never stored.
package position

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/notes/id"
	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/schedule"
	"github.com/rustyeddy/notes/terms"
)

// ErrInvalidPosition marks a position or market data set that cannot be
// evaluated.
var ErrInvalidPosition = errors.New("invalid position")

// CouponPayment is one scheduled coupon and whether it has been paid.
type CouponPayment struct {
	Date   time.Time `json:"date" yaml:"date" msgpack:"date"`
	Amount float64   `json:"amount" yaml:"amount" msgpack:"amount"`
	Paid   bool      `json:"paid" yaml:"paid" msgpack:"paid"`
}

// Position is a held note.
type Position struct {
	ID                  string
	Name                string
	Terms               terms.Terms
	InceptionDate       time.Time
	Notional            float64
	InitialFixings      []float64
	CouponHistory       []CouponPayment
	ManualBarrierBreach bool
	CreatedAt           time.Time
}

// Options adjusts New. Zero values fall back to the terms.
type Options struct {
	Name           string
	Notional       float64
	InitialFixings []float64
	IDs            *id.Generator
	Now            func() time.Time
}

// New validates t and builds a position from it. Reverse convertibles get a
// coupon history generated from their schedule, all unpaid.
func New(t terms.Terms, inception time.Time, opts Options) (*Position, error) {
	if err := terms.Check(t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	if inception.IsZero() {
		return nil, fmt.Errorf("%w: inception date is required", ErrInvalidPosition)
	}

	c := t.Base()
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	p := &Position{
		Name:           opts.Name,
		Terms:          t,
		InceptionDate:  schedule.Day(inception),
		Notional:       opts.Notional,
		InitialFixings: append([]float64(nil), opts.InitialFixings...),
		CreatedAt:      now().UTC(),
	}
	if p.Name == "" {
		p.Name = c.Name
	}
	if p.Notional <= 0 {
		p.Notional = c.Notional
	}
	if len(p.InitialFixings) == 0 {
		p.InitialFixings = append([]float64(nil), c.Fixings()...)
	}
	if opts.IDs != nil {
		p.ID = opts.IDs.At(p.CreatedAt)
	} else {
		p.ID = id.New()
	}
	if rc, ok := t.(*terms.RC); ok {
		p.CouponHistory = couponHistory(rc, p.InceptionDate, p.Notional)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func couponHistory(t *terms.RC, inception time.Time, notional float64) []CouponPayment {
	freq := t.CouponFrequency.OrDefault()
	amount := market.RoundCash(notional * t.CouponRate.Float() / float64(freq))
	dates := schedule.PaymentDates(inception, t.TenorMonths, freq)
	out := make([]CouponPayment, len(dates))
	for i, d := range dates {
		out[i] = CouponPayment{Date: d, Amount: amount}
	}
	return out
}

// MaturityDate is the inception date plus the tenor.
func (p *Position) MaturityDate() time.Time {
	if p.Terms == nil {
		return time.Time{}
	}
	return schedule.AddMonths(p.InceptionDate, p.Terms.Base().TenorMonths)
}

// RefreshCoupons marks every coupon dated on or before asOf as paid and
// returns how many changed. Paid coupons are never unmarked.
func (p *Position) RefreshCoupons(asOf time.Time) int {
	day := schedule.Day(asOf)
	n := 0
	for i := range p.CouponHistory {
		c := &p.CouponHistory[i]
		if !c.Paid && !schedule.Day(c.Date).After(day) {
			c.Paid = true
			n++
		}
	}
	return n
}

// Validate checks the position is structurally sound: valid terms, a
// positive notional and one positive fixing per underlying.
func (p *Position) Validate() error {
	if p == nil || p.Terms == nil {
		return fmt.Errorf("%w: terms are required", ErrInvalidPosition)
	}
	if err := terms.Check(p.Terms); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	if p.Notional <= 0 {
		return fmt.Errorf("%w: notional must be positive", ErrInvalidPosition)
	}
	n := len(p.Terms.Base().Underlyings)
	if len(p.InitialFixings) != n {
		return fmt.Errorf("%w: %d initial fixings for %d underlyings", ErrInvalidPosition, len(p.InitialFixings), n)
	}
	for i, f := range p.InitialFixings {
		if f <= 0 {
			return fmt.Errorf("%w: initial fixing %d must be positive", ErrInvalidPosition, i)
		}
	}
	return nil
}

// Tickers returns the underlying tickers in order.
func (p *Position) Tickers() []string {
	if p.Terms == nil {
		return nil
	}
	return market.Tickers(p.Terms.Base().Underlyings)
}

// effectiveTerms is the position's terms with the position's inception,
// notional and fixings in place of the template values.
func (p *Position) effectiveTerms() terms.Terms {
	switch t := p.Terms.(type) {
	case *terms.RC:
		cp := *t
		cp.Common = p.common(t.Common)
		return &cp
	case *terms.CPPN:
		cp := *t
		cp.Common = p.common(t.Common)
		return &cp
	case *terms.Bonus:
		cp := *t
		cp.Common = p.common(t.Common)
		return &cp
	}
	return p.Terms
}

func (p *Position) common(c terms.Common) terms.Common {
	c.IssueDate = p.InceptionDate
	c.Notional = p.Notional
	c.InitialFixings = p.InitialFixings
	return c
}

type positionJSON struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name,omitempty"`
	Terms               terms.Document  `json:"terms"`
	InceptionDate       string          `json:"inception_date"`
	Notional            float64         `json:"notional"`
	InitialFixings      []float64       `json:"initial_fixings"`
	CouponHistory       []CouponPayment `json:"coupon_history,omitempty"`
	ManualBarrierBreach bool            `json:"manual_barrier_breach,omitempty"`
	CreatedAt           time.Time       `json:"created_at,omitempty"`
}

// MarshalJSON writes the terms in document form.
func (p Position) MarshalJSON() ([]byte, error) {
	if p.Terms == nil {
		return nil, fmt.Errorf("%w: terms are required", ErrInvalidPosition)
	}
	return json.Marshal(positionJSON{
		ID:                  p.ID,
		Name:                p.Name,
		Terms:               terms.FromTerms(p.Terms),
		InceptionDate:       p.InceptionDate.Format(schedule.DateLayout),
		Notional:            p.Notional,
		InitialFixings:      p.InitialFixings,
		CouponHistory:       p.CouponHistory,
		ManualBarrierBreach: p.ManualBarrierBreach,
		CreatedAt:           p.CreatedAt,
	})
}

// UnmarshalJSON reads the form written by MarshalJSON. Missing notional and
// fixings fall back to the terms.
func (p *Position) UnmarshalJSON(data []byte) error {
	var raw positionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := raw.Terms.Terms()
	if err != nil {
		return fmt.Errorf("position terms: %w", err)
	}
	inception, err := schedule.ParseDate(raw.InceptionDate)
	if err != nil {
		return fmt.Errorf("position inception_date: %w", err)
	}
	c := t.Base()
	*p = Position{
		ID:                  raw.ID,
		Name:                raw.Name,
		Terms:               t,
		InceptionDate:       inception,
		Notional:            raw.Notional,
		InitialFixings:      raw.InitialFixings,
		CouponHistory:       raw.CouponHistory,
		ManualBarrierBreach: raw.ManualBarrierBreach,
		CreatedAt:           raw.CreatedAt,
	}
	if p.Notional <= 0 {
		p.Notional = c.Notional
	}
	if len(p.InitialFixings) == 0 {
		p.InitialFixings = c.Fixings()
	}
	if p.Name == "" {
		p.Name = strings.TrimSpace(c.Name)
	}
	if rc, ok := t.(*terms.RC); ok && len(p.CouponHistory) == 0 {
		p.CouponHistory = couponHistory(rc, p.InceptionDate, p.Notional)
	}
	return nil
}
