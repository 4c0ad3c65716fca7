package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/notes/report"
	"github.com/rustyeddy/notes/schedule"
)

func newScheduleCmd() *cobra.Command {
	var (
		start     string
		tenor     int
		frequency string
		first     int
		levels    []float64
	)
	c := &cobra.Command{
		Use:   "schedule",
		Short: "Generate a coupon or autocall observation schedule",
		Long: `Print payment dates as CSV. When --levels is given the output is an
autocall observation schedule with the level that applies on each date.

Examples:
  notes schedule --start 2024-01-31 --tenor 12 --frequency quarterly
  notes schedule --start 2024-01-15 --tenor 12 --first 6 --levels 1.0,0.95,0.9`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := schedule.ParseDate(start)
			if err != nil {
				return err
			}
			if tenor < 1 {
				return fmt.Errorf("tenor must be a positive number of months, got %d", tenor)
			}
			freq := schedule.ParseFrequency(frequency)

			out := cmd.OutOrStdout()
			if len(levels) > 0 {
				return report.WriteObservationsCSV(out, schedule.Observations(d, tenor, freq, first, levels))
			}
			return report.WriteScheduleCSV(out, schedule.CouponDatesFrom(d, tenor, freq, first))
		},
	}
	f := c.Flags()
	f.StringVar(&start, "start", "", "issue date, YYYY-MM-DD (required)")
	f.IntVar(&tenor, "tenor", 12, "tenor in months")
	f.StringVar(&frequency, "frequency", "quarterly", "monthly, quarterly, semi-annual or annual")
	f.IntVar(&first, "first", 0, "months to the first date (default one period)")
	f.Float64SliceVar(&levels, "levels", nil, "autocall levels as fractions of the initial fixing")
	_ = c.MarkFlagRequired("start")
	return c
}
