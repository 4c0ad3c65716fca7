package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/notes/payoff"
	"github.com/rustyeddy/notes/position"
	"github.com/rustyeddy/notes/schedule"
	"github.com/rustyeddy/notes/terms"
)

const scenarioYAML = `
name: AAPL 10% RC
inception_date: 2024-01-15
terms:
  kind: rc
  notional: 100000
  currency: USD
  tenor_months: 12
  underlyings:
    - ticker: AAPL
      initial_fixing: 200
  coupon_rate: 0.10
  coupon_frequency: quarterly
  barrier_pct: 0.70
coupon_history:
  - date: 2024-04-15
    amount: 2500
    paid: true
market:
  initial_fixings: [200]
  spot_prices: [130]
overrides:
  as_of: 2024-08-01
  barrier_state: breached
`

func writeScenario(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadScenario(t *testing.T) {
	t.Parallel()

	s, err := LoadScenario(writeScenario(t, "s.yaml", scenarioYAML))
	require.NoError(t, err)
	assert.Equal(t, "AAPL 10% RC", s.Name)
	assert.Equal(t, terms.KindRC, s.Terms.Kind)
	assert.Equal(t, []float64{130}, s.Market.SpotPrices)

	p, err := s.Position(position.Options{})
	require.NoError(t, err)
	assert.Equal(t, "AAPL 10% RC", p.Name)
	assert.Equal(t, 100000.0, p.Notional)
	require.Len(t, p.CouponHistory, 1)
	assert.True(t, p.CouponHistory[0].Paid)
	assert.Equal(t, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), p.CouponHistory[0].Date)

	ov, err := s.EvalOverrides()
	require.NoError(t, err)
	require.NotNil(t, ov.AsOf)
	assert.Equal(t, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), *ov.AsOf)
	assert.Equal(t, payoff.StateBreached, ov.BarrierState)
	assert.Equal(t, *ov.AsOf, s.AsOfOr(time.Now()))

	snap, err := position.EvaluatePosition(p, s.Market, ov)
	require.NoError(t, err)
	assert.Equal(t, position.StatusTriggered, snap.Status)
	assert.Equal(t, 2500.0, snap.CouponsReceived)
}

func TestLoadScenarioJSON(t *testing.T) {
	t.Parallel()

	body := `{"inception_date":"2024-01-15","terms":{"kind":"bonus","notional":10000,"currency":"EUR","tenor_months":24,
		"underlyings":[{"ticker":"SX5E","initial_fixing":5000}],"barrier_pct":70,"bonus_level_pct":108},
		"market":{"spot_prices":[4500]}}`
	s, err := LoadScenario(writeScenario(t, "s.json", body))
	require.NoError(t, err)

	p, err := s.Position(position.Options{})
	require.NoError(t, err)
	assert.Equal(t, terms.KindBonus, p.Terms.Kind())
	assert.Empty(t, p.CouponHistory)

	ov, err := s.EvalOverrides()
	require.NoError(t, err)
	assert.Nil(t, ov.AsOf)

	now := time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC)
	assert.Equal(t, schedule.Day(now), s.AsOfOr(now))
}

func TestScenarioErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	s := &Scenario{InceptionDate: "soon", Terms: terms.Document{Kind: "rc"}}
	_, err = s.Position(position.Options{})
	assert.Error(t, err)

	s = &Scenario{Overrides: ScenarioOverrides{AsOf: "yesterday"}}
	_, err = s.EvalOverrides()
	assert.ErrorIs(t, err, schedule.ErrInvalidDate)
}
