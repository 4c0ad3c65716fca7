package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/notes/curve"
	"github.com/rustyeddy/notes/payoff"
	"github.com/rustyeddy/notes/report"
)

func newPayoffCmd() *cobra.Command {
	var (
		path   string
		asJSON  bool
	)
	c := &cobra.Command{
		Use:   "payoff",
		Short: "Compute the maturity payoff of a scenario",
		Long: `Compute the payoff of a note under the market data in a scenario file.
The scenario's overrides.barrier_state forces the barrier outcome.

Example:
  notes payoff -f scenario.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, t, err := loadScenario(path)
			if err != nil {
				return err
			}
			md, err := marketFor(t, sc.Market)
			if err != nil {
				return err
			}
			state := payoff.BarrierState(sc.Overrides.BarrierState)
			switch state {
			case payoff.StateAuto, payoff.StateBreached, payoff.StateIntact:
			default:
				return fmt.Errorf("unknown barrier_state %q", state)
			}

			res := payoff.CalculateWithState(t, md, state)
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}

			kind := string(res.Kind)
			if res.Variant != "" {
				kind += " (" + res.Variant + ")"
			}
			fmt.Fprintf(out, "Kind:        %s\n", kind)
			fmt.Fprintf(out, "Regime:      %s\n", res.Regime)
			fmt.Fprintf(out, "Basket:      %.2f%%\n", 100*res.BasketLevel)
			fmt.Fprintf(out, "Redemption:  %.2f%%\n", 100*res.RedemptionPct)
			fmt.Fprintf(out, "Coupons:     %.2f%%\n", 100*res.CouponPct)
			fmt.Fprintf(out, "Total:       %.2f%%\n", 100*res.TotalPct)
			if res.Settlement == payoff.SettlementPhysical {
				fmt.Fprintf(out, "Settlement:  physical (%.4f shares)\n", res.Shares)
			} else {
				fmt.Fprintf(out, "Settlement:  %s\n", res.Settlement)
			}
			return nil
		},
	}
	c.Flags().StringVarP(&path, "file", "f", "", "path to scenario file (required)")
	c.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	_ = c.MarkFlagRequired("file")
	return c
}

func newCurveCmd() *cobra.Command {
	var (
		path  string
		asCSV bool
	)
	c := &cobra.Command{
		Use:   "curve",
		Short: "Sample the payoff curve of a note",
		Long: `Sample the maturity payoff across underlying levels for the terms in a
scenario file. Output is JSON unless --csv is given.

Example:
  notes curve -f scenario.yaml --csv > curve.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, t, err := loadScenario(path)
			if err != nil {
				return err
			}
			points := curve.Generate(t)
			if asCSV {
				return report.WriteCurveCSV(cmd.OutOrStdout(), points)
			}
			return writeJSON(cmd.OutOrStdout(), points)
		},
	}
	c.Flags().StringVarP(&path, "file", "f", "", "path to scenario file (required)")
	c.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of JSON")
	_ = c.MarkFlagRequired("file")
	return c
}
