package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/payoff"
	"github.com/rustyeddy/notes/position"
	"github.com/rustyeddy/notes/schedule"
	"github.com/rustyeddy/notes/terms"
)

// Scenario is a position plus the market and overrides to value it under.
type Scenario struct {
	ID                  string                   `json:"id,omitempty" yaml:"id,omitempty"`
	Name                string                   `json:"name,omitempty" yaml:"name,omitempty"`
	Terms               terms.Document           `json:"terms" yaml:"terms"`
	InceptionDate       string                   `json:"inception_date" yaml:"inception_date"`
	Notional            float64                  `json:"notional,omitempty" yaml:"notional,omitempty"`
	InitialFixings      []float64                `json:"initial_fixings,omitempty" yaml:"initial_fixings,omitempty"`
	CouponHistory       []position.CouponPayment `json:"coupon_history,omitempty" yaml:"coupon_history,omitempty"`
	ManualBarrierBreach bool                     `json:"manual_barrier_breach,omitempty" yaml:"manual_barrier_breach,omitempty"`
	Market              market.MarketData        `json:"market" yaml:"market"`
	Overrides           ScenarioOverrides        `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// ScenarioOverrides is the file form of position.Overrides with dates as
// strings.
type ScenarioOverrides struct {
	AsOf             string             `json:"as_of,omitempty" yaml:"as_of,omitempty"`
	MaturityToday    bool               `json:"maturity_today,omitempty" yaml:"maturity_today,omitempty"`
	UnderlyingLevels map[string]float64 `json:"underlying_levels,omitempty" yaml:"underlying_levels,omitempty"`
	WorstOfLevel     *float64           `json:"worst_of_level,omitempty" yaml:"worst_of_level,omitempty"`
	BarrierState     string             `json:"barrier_state,omitempty" yaml:"barrier_state,omitempty"`
}

// LoadScenario reads a scenario file (YAML or JSON).
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	s := &Scenario{}
	if err := yaml.Unmarshal(data, s); err != nil {
		s = &Scenario{}
		if jerr := json.Unmarshal(data, s); jerr != nil {
			return nil, fmt.Errorf("parse scenario (tried YAML and JSON): %w", jerr)
		}
	}
	return s, nil
}

// Position builds the scenario's position.
func (s *Scenario) Position(opts position.Options) (*position.Position, error) {
	t, err := s.Terms.Terms()
	if err != nil {
		return nil, err
	}
	inception, err := schedule.ParseDate(s.InceptionDate)
	if err != nil {
		return nil, fmt.Errorf("scenario inception_date: %w", err)
	}
	if opts.Name == "" {
		opts.Name = s.Name
	}
	if opts.Notional == 0 {
		opts.Notional = s.Notional
	}
	if len(opts.InitialFixings) == 0 {
		opts.InitialFixings = s.InitialFixings
	}
	p, err := position.New(t, inception, opts)
	if err != nil {
		return nil, err
	}
	if len(s.CouponHistory) > 0 {
		p.CouponHistory = append([]position.CouponPayment(nil), s.CouponHistory...)
	}
	if s.ID != "" {
		p.ID = s.ID
	}
	p.ManualBarrierBreach = s.ManualBarrierBreach
	return p, nil
}

// EvalOverrides converts the file overrides.
func (s *Scenario) EvalOverrides() (position.Overrides, error) {
	o := s.Overrides
	ov := position.Overrides{
		MaturityToday:    o.MaturityToday,
		UnderlyingLevels: o.UnderlyingLevels,
		WorstOfLevel:     o.WorstOfLevel,
		BarrierState:     payoff.BarrierState(o.BarrierState),
	}
	if o.AsOf != "" {
		d, err := schedule.ParseDate(o.AsOf)
		if err != nil {
			return position.Overrides{}, fmt.Errorf("scenario overrides.as_of: %w", err)
		}
		ov.AsOf = &d
	}
	return ov, nil
}

// AsOfOr returns the scenario as-of date, or now truncated to a day.
func (s *Scenario) AsOfOr(now time.Time) time.Time {
	if d, err := schedule.ParseDate(s.Overrides.AsOf); err == nil {
		return d
	}
	return schedule.Day(now)
}
