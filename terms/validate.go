package terms

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rustyeddy/notes/market"
)

// Validation is the outcome of ValidateTerms. Errors are human readable and
// appear in field order.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func (v *Validation) add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
	v.Valid = false
}

// Err returns nil for valid terms and an error wrapping ErrInvalidTerms otherwise.
func (v Validation) Err() error {
	if v.Valid {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidTerms, strings.Join(v.Errors, "; "))
}

// ValidateTerms checks t without modifying it. It never panics on a nil or
// partially filled value.
func ValidateTerms(t Terms) Validation {
	v := Validation{Valid: true, Errors: []string{}}
	if t == nil {
		v.add("terms are required")
		return v
	}

	switch tt := t.(type) {
	case *RC:
		if tt == nil {
			v.add("terms are required")
			return v
		}
		validateCommon(&v, tt.Common)
		validateRC(&v, tt)
	case *CPPN:
		if tt == nil {
			v.add("terms are required")
			return v
		}
		validateCommon(&v, tt.Common)
		validateCPPN(&v, tt)
	case *Bonus:
		if tt == nil {
			v.add("terms are required")
			return v
		}
		validateCommon(&v, tt.Common)
		validateBonus(&v, tt)
	default:
		v.add("%v: %T", ErrUnknownKind, t)
	}
	return v
}

// Check is ValidateTerms(t).Err().
func Check(t Terms) error {
	return ValidateTerms(t).Err()
}

// IsInvalid reports whether err came from a failed validation.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidTerms)
}

func validateCommon(v *Validation, c Common) {
	if c.Notional <= 0 {
		v.add("notional must be positive")
	}
	if len(c.Currency) != 3 || strings.ToUpper(c.Currency) != c.Currency {
		v.add("currency must be a 3-letter ISO code")
	}
	if c.TenorMonths < 1 || c.TenorMonths > 120 {
		v.add("tenor_months must be between 1 and 120")
	}

	n := len(c.Underlyings)
	switch c.BasketType {
	case market.BasketSingle:
		if n != 1 {
			v.add("basket_type single requires exactly 1 underlying (got %d)", n)
		}
	case market.BasketWorstOf, market.BasketBestOf, market.BasketAverage:
		if n < 2 || n > 3 {
			v.add("basket_type %s requires 2 or 3 underlyings (got %d)", c.BasketType, n)
		}
	default:
		v.add("basket_type %q is not supported", c.BasketType)
	}

	seen := make(map[string]bool, n)
	for i, u := range c.Underlyings {
		ticker := strings.TrimSpace(u.Ticker)
		if ticker == "" {
			v.add("underlying %d ticker is required", i+1)
			continue
		}
		key := strings.ToUpper(ticker)
		if seen[key] {
			v.add("duplicate ticker %q", ticker)
		}
		seen[key] = true
	}

	fixings := c.Fixings()
	if len(fixings) != n {
		v.add("initial_fixings length %d does not match underlyings length %d", len(fixings), n)
		return
	}
	for i, f := range fixings {
		if f <= 0 {
			v.add("initial fixing for %s must be positive", label(c.Underlyings, i))
		}
	}
}

func label(us []market.Underlying, i int) string {
	if i < len(us) && us[i].Ticker != "" {
		return us[i].Ticker
	}
	return fmt.Sprintf("underlying %d", i+1)
}

func validateRC(v *Validation, t *RC) {
	switch t.Variant {
	case StandardBarrier, LowStrikeGearedPut:
	default:
		v.add("variant %q is not supported", t.Variant)
	}
	if t.CouponRate < 0 || t.CouponRate > 1 {
		v.add("coupon_rate must be between 0 and 1")
	}
	if !t.CouponFrequency.Valid() {
		v.add("coupon_frequency %d is not supported", int(t.CouponFrequency))
	}

	switch t.Variant {
	case StandardBarrier:
		if t.BarrierPct <= 0 || t.BarrierPct > 1.5 {
			v.add("barrier_pct must be between 0 and 1.5")
		}
	case LowStrikeGearedPut:
		if t.StrikePct <= 0 || t.StrikePct > 1.5 {
			v.add("strike_pct must be between 0 and 1.5")
		}
		if t.KnockInBarrierPct != nil && (*t.KnockInBarrierPct <= 0 || *t.KnockInBarrierPct > 1.5) {
			v.add("knock_in_barrier_pct must be between 0 and 1.5")
		}
	}
	if t.ConversionRatio < 0 {
		v.add("conversion_ratio must be positive")
	}

	if a := t.Autocall; a != nil {
		if !a.Frequency.Valid() {
			v.add("autocall frequency %d is not supported", int(a.Frequency))
		}
		if a.FirstObservationMonths < 0 || a.FirstObservationMonths > t.TenorMonths {
			v.add("autocall first_observation_months must be between 0 and tenor_months")
		}
		if len(a.Levels) == 0 {
			v.add("autocall levels must not be empty")
		}
		for i, l := range a.Levels {
			if l <= 0 {
				v.add("autocall level %d must be positive", i+1)
			}
			if i > 0 && l >= a.Levels[i-1] {
				v.add("autocall levels must be strictly decreasing")
				break
			}
		}
	}
}

func validateCPPN(v *Validation, t *CPPN) {
	if t.CapitalProtectionPct < 0 || t.CapitalProtectionPct > 100 {
		v.add("capital_protection_pct must be between 0 and 100")
	}
	validateParticipation(v, t.ParticipationStartPct, t.ParticipationRatePct)
	if t.Direction != "" && !t.Direction.Valid() {
		v.add("direction %q must be up or down", t.Direction)
	}
	if t.CapEnabled && t.CapPct <= t.ParticipationStartPct {
		v.add("cap_pct (%.2f) must exceed participation_start_pct (%.2f)", t.CapPct.Float(), t.ParticipationStartPct.Float())
	}
	if t.ConversionRatio < 0 {
		v.add("conversion_ratio must be positive")
	}

	if !t.KnockInEnabled {
		return
	}
	if t.KnockInPct <= 0 || t.KnockInPct > 100 {
		v.add("knock_in_pct must be between 0 and 100")
		return
	}
	if t.DownsideStrikePct != nil {
		s := *t.DownsideStrikePct
		if s <= 0 {
			v.add("downside_strike_pct must be positive")
			return
		}
		floor := t.GuardParams().MinStrike()
		if s < floor {
			v.add("downside_strike_pct (%.2f) is below the continuity minimum (%.2f)", s.Float(), floor.Float())
		}
	}
}

func validateBonus(v *Validation, t *Bonus) {
	if t.BarrierPct <= 0 || t.BarrierPct >= 100 {
		v.add("barrier_pct must be between 0 and 100")
	}
	if t.BonusLevelPct < 100 {
		v.add("bonus_level_pct must be at least 100")
	}
	validateParticipation(v, t.ParticipationStartPct, t.ParticipationRatePct)
	if t.CapEnabled {
		if t.CapPct <= t.ParticipationStartPct {
			v.add("cap_pct (%.2f) must exceed participation_start_pct (%.2f)", t.CapPct.Float(), t.ParticipationStartPct.Float())
		}
		if t.CapPct < t.BonusLevelPct {
			v.add("cap_pct (%.2f) must be at least bonus_level_pct (%.2f)", t.CapPct.Float(), t.BonusLevelPct.Float())
		}
	}
}

func validateParticipation(v *Validation, start, rate market.Percent) {
	if start <= 0 || start > 300 {
		v.add("participation_start_pct must be between 0 and 300")
	}
	if rate < 0 || rate > 500 {
		v.add("participation_rate_pct must be between 0 and 500")
	}
}
