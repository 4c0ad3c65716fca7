package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rustyeddy/notes/config"
	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/terms"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// loadScenario reads a scenario file and builds its validated terms.
func loadScenario(path string) (*config.Scenario, terms.Terms, error) {
	sc, err := config.LoadScenario(path)
	if err != nil {
		return nil, nil, err
	}
	t, err := sc.Terms.Terms()
	if err != nil {
		return nil, nil, fmt.Errorf("scenario terms: %w", err)
	}
	if err := terms.Check(t); err != nil {
		return nil, nil, err
	}
	return sc, t, nil
}

// marketFor fills missing initial fixings from the terms and checks md.
func marketFor(t terms.Terms, md market.MarketData) (market.MarketData, error) {
	md = md.Clone()
	if len(md.InitialFixings) == 0 {
		md.InitialFixings = t.Base().Fixings()
	}
	if err := md.Check(len(t.Base().Underlyings)); err != nil {
		return market.MarketData{}, fmt.Errorf("market data: %w", err)
	}
	return md, nil
}
