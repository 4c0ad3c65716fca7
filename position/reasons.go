package position

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/notes/payoff"
)

// Reason is a machine readable explanation code.
type Reason string

const (
	ReasonBarrierBreached  Reason = "BARRIER_BREACHED"
	ReasonNearBarrier      Reason = "NEAR_BARRIER"
	ReasonProtected        Reason = "PROTECTED"
	ReasonKnockInTriggered Reason = "KNOCK_IN_TRIGGERED"
	ReasonBonusActive      Reason = "BONUS_ACTIVE"
	ReasonBonusLost        Reason = "BONUS_LOST"
	ReasonCouponsReceived  Reason = "COUPONS_RECEIVED"
)

// reasonContext carries the numbers the sentences quote. Levels are
// fractions.
type reasonContext struct {
	Level       float64
	Trigger     float64
	TriggerName string
	Protection  float64
	BonusLevel  float64
	Settlement  payoff.Settlement
	Currency    string
	Coupons     float64
	ZeroShares  bool
}

func pct(x float64) string {
	return fmt.Sprintf("%.1f%%", 100*x)
}

func settles(s payoff.Settlement) string {
	if s == payoff.SettlementPhysical {
		return "principal settles physically"
	}
	return "principal settles in cash"
}

func (c reasonContext) sentence(r Reason) string {
	switch r {
	case ReasonBarrierBreached:
		if c.Level < c.Trigger {
			return fmt.Sprintf("Basket at %s is below the %s %s; %s.", pct(c.Level), pct(c.Trigger), c.TriggerName, settles(c.Settlement))
		}
		return fmt.Sprintf("The %s is marked as breached with the basket at %s; %s.", c.TriggerName, pct(c.Level), settles(c.Settlement))
	case ReasonNearBarrier:
		return fmt.Sprintf("Basket at %s is %.1f points from the %s %s.", pct(c.Level), 100*(c.Level-c.Trigger), pct(c.Trigger), c.TriggerName)
	case ReasonProtected:
		return fmt.Sprintf("Capital protection of %s applies at maturity.", pct(c.Protection))
	case ReasonKnockInTriggered:
		return fmt.Sprintf("Knock-in at %s triggered with the basket at %s; capital protection no longer applies.", pct(c.Trigger), pct(c.Level))
	case ReasonBonusActive:
		return fmt.Sprintf("Bonus barrier at %s intact; redemption of at least %s applies.", pct(c.Trigger), pct(c.BonusLevel))
	case ReasonBonusLost:
		return fmt.Sprintf("Bonus barrier at %s breached; the note tracks the basket at %s.", pct(c.Trigger), pct(c.Level))
	case ReasonCouponsReceived:
		return fmt.Sprintf("Coupons received to date: %.2f %s.", c.Coupons, c.Currency)
	}
	return ""
}

// reasonText renders codes as one paragraph in code order.
func reasonText(codes []Reason, c reasonContext) string {
	parts := make([]string, 0, len(codes)+1)
	for _, r := range codes {
		if s := c.sentence(r); s != "" {
			parts = append(parts, s)
		}
	}
	if c.ZeroShares {
		parts = append(parts, "Share quantity could not be determined; delivery is shown as zero.")
	}
	return strings.Join(parts, " ")
}
