package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/notes/position"
	"github.com/rustyeddy/notes/report"
)

func newEvaluateCmd(a *app) *cobra.Command {
	var (
		path   string
		asJSON bool
	)
	c := &cobra.Command{
		Use:   "evaluate",
		Short: "Value a position from a scenario file",
		Long: `Value a position and print its snapshot as an Org-mode block, or as
JSON with --json. The scenario holds the terms, inception date, market data
and optional overrides.

Example:
  notes evaluate -f scenario.yaml >> journal.org`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, _, err := loadScenario(path)
			if err != nil {
				return err
			}
			p, err := sc.Position(position.Options{})
			if err != nil {
				return fmt.Errorf("build position: %w", err)
			}
			ov, err := sc.EvalOverrides()
			if err != nil {
				return err
			}

			snap, err := a.evaluator().Evaluate(p, sc.Market, ov)
			if err != nil {
				return fmt.Errorf("evaluate: %w", err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, snap)
			}
			fmt.Fprintln(out, report.FormatSnapshotOrg(p.Name, snap))
			return nil
		},
	}
	c.Flags().StringVarP(&path, "file", "f", "", "path to scenario file (required)")
	c.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	_ = c.MarkFlagRequired("file")
	return c
}
