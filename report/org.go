// Package report renders snapshots and curves for journals and spreadsheets.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/notes/position"
	"github.com/rustyeddy/notes/schedule"
)

// FormatSnapshotOrg renders a snapshot as an Org-mode block. Structured facts
// go in a PROPERTIES drawer for search; the explanation, levels and events
// follow as subsections.
func FormatSnapshotOrg(name string, s position.Snapshot) string {
	if name == "" {
		name = s.Name
	}
	heading := fmt.Sprintf("** Position: %s (%s)", name, shortID(s.PositionID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":POSITION_ID: %s\n", s.PositionID))
	b.WriteString(fmt.Sprintf(":KIND: %s\n", s.Kind))
	b.WriteString(fmt.Sprintf(":AS_OF: %s\n", day(s.AsOf)))
	b.WriteString(fmt.Sprintf(":MATURITY: %s\n", day(s.MaturityDate)))
	b.WriteString(fmt.Sprintf(":DAYS_TO_MATURITY: %d\n", s.DaysToMaturity))
	b.WriteString(fmt.Sprintf(":STATUS: %s\n", s.Status))
	b.WriteString(fmt.Sprintf(":BASKET_LEVEL: %.2f%%\n", 100*s.BasketLevel))
	b.WriteString(fmt.Sprintf(":WORST: %s\n", s.WorstTicker))
	b.WriteString(fmt.Sprintf(":NOTIONAL: %.2f %s\n", s.Notional, s.Currency))
	b.WriteString(fmt.Sprintf(":INDICATIVE_VALUE: %.2f\n", s.IndicativeValue))
	b.WriteString(fmt.Sprintf(":COUPONS_RECEIVED: %.2f\n", s.CouponsReceived))
	b.WriteString(fmt.Sprintf(":PNL: %.2f (%.2f%%)\n", s.PnL, 100*s.PnLPct))
	b.WriteString(fmt.Sprintf(":SETTLEMENT: %s\n", s.Settlement.Type))
	b.WriteString(fmt.Sprintf(":REASONS: %s\n", joinReasons(s.Reasons)))
	b.WriteString(":END:\n")
	b.WriteString("\n")

	b.WriteString("*** Summary\n")
	b.WriteString(s.ReasonText)
	b.WriteString("\n\n")

	b.WriteString("*** Settlement\n")
	for _, l := range s.Settlement.Lots {
		b.WriteString(fmt.Sprintf("- %s: %.0f @ %.2f = %.2f\n", l.Symbol, l.Quantity, l.Price, l.MarketValue))
	}
	if s.Settlement.CashInLieu > 0 {
		b.WriteString(fmt.Sprintf("- cash in lieu: %.2f\n", s.Settlement.CashInLieu))
	}
	if s.Settlement.CashAmount > 0 {
		b.WriteString(fmt.Sprintf("- cash: %.2f\n", s.Settlement.CashAmount))
	}
	b.WriteString(fmt.Sprintf("- total: %.2f\n\n", s.Settlement.Total))

	if len(s.KeyLevels) > 0 {
		b.WriteString("*** Key levels\n")
		b.WriteString("| level | target | current | distance | status |\n")
		b.WriteString("|-------+--------+---------+----------+--------|\n")
		for _, k := range s.KeyLevels {
			b.WriteString(fmt.Sprintf("| %s | %.2f%% | %.2f%% | %+.2f | %s |\n",
				k.Name, 100*k.Target, 100*k.Current, 100*k.Distance, k.Status))
		}
		b.WriteString("\n")
	}

	b.WriteString("*** Next events\n")
	if len(s.NextEvents) == 0 {
		b.WriteString("- none\n")
	}
	for _, e := range s.NextEvents {
		switch {
		case e.Level > 0:
			b.WriteString(fmt.Sprintf("- <%s> %s at %.2f%%\n", day(e.Date), e.Type, 100*e.Level))
		case e.Amount > 0:
			b.WriteString(fmt.Sprintf("- <%s> %s %.2f\n", day(e.Date), e.Type, e.Amount))
		default:
			b.WriteString(fmt.Sprintf("- <%s> %s\n", day(e.Date), e.Type))
		}
	}

	return b.String()
}

// FormatSnapshotsOrg renders multiple snapshots separated by blank lines.
func FormatSnapshotsOrg(snaps []position.Snapshot) string {
	var b strings.Builder
	for i, s := range snaps {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatSnapshotOrg("", s))
	}
	return b.String()
}

func joinReasons(rs []position.Reason) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(schedule.DateLayout)
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
