package terms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/schedule"
)

// Flex is a scalar that may arrive as a string or a number, such as a coupon
// frequency written "quarterly" or 4.
type Flex string

func (f *Flex) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Flex(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	*f = Flex(data)
	return nil
}

func (f *Flex) UnmarshalYAML(n *yaml.Node) error {
	*f = Flex(n.Value)
	return nil
}

// AutocallDocument is the wire form of Autocall.
type AutocallDocument struct {
	Frequency              Flex      `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	FirstObservationMonths int       `json:"first_observation_months,omitempty" yaml:"first_observation_months,omitempty"`
	Levels                 []float64 `json:"levels" yaml:"levels"`
}

// Document is the flat JSON/YAML form of Terms. Kind selects the variant
// and decides which of the optional fields may be present.
type Document struct {
	Kind           Kind                `json:"kind" yaml:"kind"`
	Name           string              `json:"name,omitempty" yaml:"name,omitempty"`
	Notional       float64             `json:"notional" yaml:"notional"`
	Currency       string              `json:"currency" yaml:"currency"`
	TenorMonths    int                 `json:"tenor_months" yaml:"tenor_months"`
	IssueDate      string              `json:"issue_date,omitempty" yaml:"issue_date,omitempty"`
	BasketType     string              `json:"basket_type,omitempty" yaml:"basket_type,omitempty"`
	Underlyings    []market.Underlying `json:"underlyings" yaml:"underlyings"`
	InitialFixings []float64           `json:"initial_fixings,omitempty" yaml:"initial_fixings,omitempty"`

	// Reverse convertible, decimals.
	Variant           string            `json:"variant,omitempty" yaml:"variant,omitempty"`
	CouponRate        *float64          `json:"coupon_rate,omitempty" yaml:"coupon_rate,omitempty"`
	CouponFrequency   Flex              `json:"coupon_frequency,omitempty" yaml:"coupon_frequency,omitempty"`
	StrikePct         *float64          `json:"strike_pct,omitempty" yaml:"strike_pct,omitempty"`
	KnockInBarrierPct *float64          `json:"knock_in_barrier_pct,omitempty" yaml:"knock_in_barrier_pct,omitempty"`
	Autocall          *AutocallDocument `json:"autocall,omitempty" yaml:"autocall,omitempty"`

	// Shared by RC (decimal) and bonus (percent).
	BarrierPct      *float64 `json:"barrier_pct,omitempty" yaml:"barrier_pct,omitempty"`
	ConversionRatio *float64 `json:"conversion_ratio,omitempty" yaml:"conversion_ratio,omitempty"`

	// Capital protected and bonus, whole percents.
	CapitalProtectionPct  *float64 `json:"capital_protection_pct,omitempty" yaml:"capital_protection_pct,omitempty"`
	ParticipationStartPct *float64 `json:"participation_start_pct,omitempty" yaml:"participation_start_pct,omitempty"`
	ParticipationRatePct  *float64 `json:"participation_rate_pct,omitempty" yaml:"participation_rate_pct,omitempty"`
	Direction             string   `json:"direction,omitempty" yaml:"direction,omitempty"`
	CapPct                *float64 `json:"cap_pct,omitempty" yaml:"cap_pct,omitempty"`
	KnockInPct            *float64 `json:"knock_in_pct,omitempty" yaml:"knock_in_pct,omitempty"`
	DownsideStrikePct     *float64 `json:"downside_strike_pct,omitempty" yaml:"downside_strike_pct,omitempty"`
	BonusLevelPct         *float64 `json:"bonus_level_pct,omitempty" yaml:"bonus_level_pct,omitempty"`
}

// DecodeJSON parses a JSON terms document.
func DecodeJSON(data []byte) (Terms, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode terms json: %w", err)
	}
	return d.Terms()
}

// DecodeYAML parses a YAML terms document.
func DecodeYAML(data []byte) (Terms, error) {
	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode terms yaml: %w", err)
	}
	return d.Terms()
}

type field struct {
	name string
	set  bool
}

func (d Document) variantFields() []field {
	return []field{
		{"variant", d.Variant != ""},
		{"coupon_rate", d.CouponRate != nil},
		{"coupon_frequency", d.CouponFrequency != ""},
		{"strike_pct", d.StrikePct != nil},
		{"knock_in_barrier_pct", d.KnockInBarrierPct != nil},
		{"autocall", d.Autocall != nil},
		{"barrier_pct", d.BarrierPct != nil},
		{"conversion_ratio", d.ConversionRatio != nil},
		{"capital_protection_pct", d.CapitalProtectionPct != nil},
		{"participation_start_pct", d.ParticipationStartPct != nil},
		{"participation_rate_pct", d.ParticipationRatePct != nil},
		{"direction", d.Direction != ""},
		{"cap_pct", d.CapPct != nil},
		{"knock_in_pct", d.KnockInPct != nil},
		{"downside_strike_pct", d.DownsideStrikePct != nil},
		{"bonus_level_pct", d.BonusLevelPct != nil},
	}
}

var allowedFields = map[Kind]map[string]bool{
	KindRC: {
		"variant": true, "coupon_rate": true, "coupon_frequency": true, "strike_pct": true,
		"knock_in_barrier_pct": true, "autocall": true, "barrier_pct": true, "conversion_ratio": true,
	},
	KindCPPN: {
		"capital_protection_pct": true, "participation_start_pct": true, "participation_rate_pct": true,
		"direction": true, "cap_pct": true, "knock_in_pct": true, "downside_strike_pct": true,
		"conversion_ratio": true,
	},
	KindBonus: {
		"barrier_pct": true, "bonus_level_pct": true, "participation_start_pct": true,
		"participation_rate_pct": true, "cap_pct": true,
	},
}

// Terms builds the variant named by Kind. It rejects fields that do not
// belong to the variant and required fields that are missing; range checks
// are left to ValidateTerms.
func (d Document) Terms() (Terms, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(string(d.Kind))))
	allowed, ok := allowedFields[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, d.Kind)
	}

	var errs []error
	for _, f := range d.variantFields() {
		if f.set && !allowed[f.name] {
			errs = append(errs, fmt.Errorf("field %s is not allowed for kind %s", f.name, kind))
		}
	}

	common, err := d.common()
	if err != nil {
		errs = append(errs, err)
	}

	var out Terms
	switch kind {
	case KindRC:
		out, err = d.rc(common)
	case KindCPPN:
		out, err = d.cppn(common)
	case KindBonus:
		out, err = d.bonus(common)
	}
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (d Document) common() (Common, error) {
	c := Common{
		Name:           d.Name,
		Notional:       d.Notional,
		Currency:       strings.ToUpper(strings.TrimSpace(d.Currency)),
		TenorMonths:    d.TenorMonths,
		Underlyings:    d.Underlyings,
		InitialFixings: d.InitialFixings,
	}

	var errs []error
	switch {
	case d.BasketType != "":
		bt, err := market.ParseBasketType(d.BasketType)
		if err != nil {
			errs = append(errs, err)
		}
		c.BasketType = bt
	case len(d.Underlyings) > 1:
		c.BasketType = market.BasketWorstOf
	default:
		c.BasketType = market.BasketSingle
	}

	if d.IssueDate != "" {
		t, err := schedule.ParseDate(d.IssueDate)
		if err != nil {
			errs = append(errs, fmt.Errorf("issue_date: %w", err))
		}
		c.IssueDate = t
	}
	return c, errors.Join(errs...)
}

func required(name string, v *float64) error {
	if v == nil {
		return fmt.Errorf("missing required field %s", name)
	}
	return nil
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func (d Document) rc(c Common) (Terms, error) {
	t := &RC{
		Common:          c,
		Variant:         RCVariant(strings.ToLower(d.Variant)),
		CouponFrequency: schedule.ParseFrequency(string(d.CouponFrequency)),
		ConversionRatio: orDefault(d.ConversionRatio, 1),
	}
	if t.Variant == "" {
		t.Variant = StandardBarrier
	}

	errs := []error{required("coupon_rate", d.CouponRate)}
	t.CouponRate = market.Fraction(orDefault(d.CouponRate, 0))

	switch t.Variant {
	case StandardBarrier:
		errs = append(errs, required("barrier_pct", d.BarrierPct))
	case LowStrikeGearedPut:
		errs = append(errs, required("strike_pct", d.StrikePct))
	}
	t.BarrierPct = market.Fraction(orDefault(d.BarrierPct, 0))
	t.StrikePct = market.Fraction(orDefault(d.StrikePct, 0))
	if d.KnockInBarrierPct != nil {
		ki := market.Fraction(*d.KnockInBarrierPct)
		t.KnockInBarrierPct = &ki
	}

	if a := d.Autocall; a != nil {
		ac := &Autocall{
			Frequency:              schedule.ParseFrequency(string(a.Frequency)),
			FirstObservationMonths: a.FirstObservationMonths,
		}
		if a.Frequency == "" {
			ac.Frequency = t.CouponFrequency
		}
		for _, l := range a.Levels {
			ac.Levels = append(ac.Levels, market.Fraction(l))
		}
		t.Autocall = ac
	}
	return t, errors.Join(errs...)
}

func (d Document) cppn(c Common) (Terms, error) {
	t := &CPPN{
		Common:                c,
		CapitalProtectionPct:  market.Percent(orDefault(d.CapitalProtectionPct, 100)),
		ParticipationStartPct: market.Percent(orDefault(d.ParticipationStartPct, 100)),
		ParticipationRatePct:  market.Percent(orDefault(d.ParticipationRatePct, 100)),
		Direction:             market.Direction(strings.ToLower(d.Direction)),
		ConversionRatio:       orDefault(d.ConversionRatio, 1),
	}
	if t.Direction == "" {
		t.Direction = market.DirectionUp
	}
	if d.CapPct != nil {
		t.CapEnabled = true
		t.CapPct = market.Percent(*d.CapPct)
	}
	if d.KnockInPct != nil {
		t.KnockInEnabled = true
		t.KnockInPct = market.Percent(*d.KnockInPct)
	}
	if d.DownsideStrikePct != nil {
		if !t.KnockInEnabled {
			return nil, errors.New("downside_strike_pct requires knock_in_pct")
		}
		s := market.Percent(*d.DownsideStrikePct)
		t.DownsideStrikePct = &s
	}
	return t, nil
}

func (d Document) bonus(c Common) (Terms, error) {
	t := &Bonus{
		Common:                c,
		BarrierPct:            market.Percent(orDefault(d.BarrierPct, 0)),
		BonusLevelPct:         market.Percent(orDefault(d.BonusLevelPct, 0)),
		ParticipationStartPct: market.Percent(orDefault(d.ParticipationStartPct, 100)),
		ParticipationRatePct:  market.Percent(orDefault(d.ParticipationRatePct, 100)),
	}
	if d.CapPct != nil {
		t.CapEnabled = true
		t.CapPct = market.Percent(*d.CapPct)
	}
	err := errors.Join(
		required("barrier_pct", d.BarrierPct),
		required("bonus_level_pct", d.BonusLevelPct),
	)
	return t, err
}

func ptr(v float64) *float64 { return &v }

// FromTerms converts t back to its document form.
func FromTerms(t Terms) Document {
	c := t.Base()
	d := Document{
		Kind:           t.Kind(),
		Name:           c.Name,
		Notional:       c.Notional,
		Currency:       c.Currency,
		TenorMonths:    c.TenorMonths,
		BasketType:     string(c.BasketType),
		Underlyings:    c.Underlyings,
		InitialFixings: c.InitialFixings,
	}
	if !c.IssueDate.IsZero() {
		d.IssueDate = c.IssueDate.Format(schedule.DateLayout)
	}

	switch tt := t.(type) {
	case *RC:
		d.Variant = string(tt.Variant)
		d.CouponRate = ptr(tt.CouponRate.Float())
		d.CouponFrequency = Flex(tt.CouponFrequency.String())
		d.ConversionRatio = ptr(tt.Ratio())
		if tt.Variant == LowStrikeGearedPut {
			d.StrikePct = ptr(tt.StrikePct.Float())
			if tt.KnockInBarrierPct != nil {
				d.KnockInBarrierPct = ptr(tt.KnockInBarrierPct.Float())
			}
		} else {
			d.BarrierPct = ptr(tt.BarrierPct.Float())
		}
		if a := tt.Autocall; a != nil {
			d.Autocall = &AutocallDocument{
				Frequency:              Flex(a.Frequency.String()),
				FirstObservationMonths: a.FirstObservationMonths,
				Levels:                 a.LevelsFloat(),
			}
		}
	case *CPPN:
		d.CapitalProtectionPct = ptr(tt.CapitalProtectionPct.Float())
		d.ParticipationStartPct = ptr(tt.ParticipationStartPct.Float())
		d.ParticipationRatePct = ptr(tt.ParticipationRatePct.Float())
		d.Direction = string(tt.Direction)
		d.ConversionRatio = ptr(tt.GuardParams().ConversionRatio)
		if tt.CapEnabled {
			d.CapPct = ptr(tt.CapPct.Float())
		}
		if tt.KnockInEnabled {
			d.KnockInPct = ptr(tt.KnockInPct.Float())
			if tt.DownsideStrikePct != nil {
				d.DownsideStrikePct = ptr(tt.DownsideStrikePct.Float())
			}
		}
	case *Bonus:
		d.BarrierPct = ptr(tt.BarrierPct.Float())
		d.BonusLevelPct = ptr(tt.BonusLevelPct.Float())
		d.ParticipationStartPct = ptr(tt.ParticipationStartPct.Float())
		d.ParticipationRatePct = ptr(tt.ParticipationRatePct.Float())
		if tt.CapEnabled {
			d.CapPct = ptr(tt.CapPct.Float())
		}
	}
	return d
}
