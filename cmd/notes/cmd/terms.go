package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/notes/terms"
)

func newTermsCmd() *cobra.Command {
	termsCmd := &cobra.Command{
		Use:   "terms",
		Short: "Work with term sheets",
		Long: `Inspect structured note term sheets.

Examples:
  notes terms validate -f rc.yaml`,
	}

	var path string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a terms document (YAML or JSON)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read terms: %w", err)
			}
			t, err := terms.DecodeYAML(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			v := terms.ValidateTerms(t)
			if !v.Valid {
				fmt.Fprintf(out, "✗ Terms invalid: %s\n", path)
				for _, e := range v.Errors {
					fmt.Fprintf(out, "  - %s\n", e)
				}
				return errors.New("terms validation failed")
			}

			c := t.Base()
			fmt.Fprintf(out, "✓ Terms valid: %s\n", path)
			fmt.Fprintf(out, "  Kind: %s\n", t.Kind())
			fmt.Fprintf(out, "  Notional: %.2f %s over %d months\n", c.Notional, c.Currency, c.TenorMonths)
			fmt.Fprintf(out, "  Underlyings: %d (%s)\n", len(c.Underlyings), c.BasketType)
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&path, "file", "f", "", "path to terms file (required)")
	_ = validateCmd.MarkFlagRequired("file")

	termsCmd.AddCommand(validateCmd)
	return termsCmd
}
