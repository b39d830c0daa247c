package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
portfolio:
  purchase_cost: 1130000
  purchase_down_payment: 282500
  annual_rate: 0.05625
  total_periods: 360
  stakeholders:
    - name: Nathan
      ledger_strings: ["nathan checking", "Accenture LLP"]
      ledger_exclusions: ["airbnb"]
    - name: Mischella
      ledger_strings: ["CHK 5622"]
      exclusion_amount: 1100
  down_payments:
    Nathan: 62500
    Mischella: 220000
ledger:
  first_period_date: "01/16/2023"
  mutual_income_markers: ["airbnb"]
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, 1_130_000.0, cfg.Portfolio.PurchaseCost)
	assert.Equal(t, 360, cfg.Portfolio.TotalPeriods)
	assert.Equal(t, 62_500.0, cfg.Portfolio.DownPayments["Nathan"])

	info := cfg.LoanInfo()
	assert.Equal(t, 0.05625, info.AnnualRate)
	assert.Equal(t, 360, info.TotalPeriods)

	parties := cfg.Parties()
	require.Len(t, parties, 2)
	assert.Equal(t, "Nathan", parties[0].Name)
	assert.Equal(t, "Stakeholder", parties[0].Type)
	assert.Equal(t, []string{"CHK 5622"}, parties[1].LedgerStrings)
	assert.Equal(t, 1100.0, parties[1].ExclusionAmount)

	first, err := cfg.FirstPeriod()
	require.NoError(t, err)
	assert.Equal(t, 2023, first.Year())
	assert.Equal(t, 16, first.Day())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		wantIn   string
	}{
		{
			name:     "unparseable yaml",
			contents: "portfolio: [",
			wantIn:   "failed to parse",
		},
		{
			name: "no stakeholders",
			contents: `
portfolio:
  purchase_cost: 100000
  total_periods: 360
`,
			wantIn: "stakeholders must not be empty",
		},
		{
			name: "duplicate stakeholder",
			contents: `
portfolio:
  purchase_cost: 100000
  total_periods: 360
  stakeholders:
    - name: Alice
    - name: Alice
`,
			wantIn: "duplicate stakeholder",
		},
		{
			name: "down payment for unknown stakeholder",
			contents: `
portfolio:
  purchase_cost: 100000
  total_periods: 360
  stakeholders:
    - name: Alice
  down_payments:
    Bob: 100
`,
			wantIn: "unknown stakeholder",
		},
		{
			name: "bad first period date",
			contents: `
portfolio:
  purchase_cost: 100000
  total_periods: 360
  stakeholders:
    - name: Alice
ledger:
  first_period_date: "2023-01-16"
`,
			wantIn: "first_period_date",
		},
		{
			name: "non-positive purchase cost and periods",
			contents: `
portfolio:
  purchase_cost: 0
  total_periods: 0
  stakeholders:
    - name: Alice
`,
			wantIn: "purchase_cost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.contents))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantIn)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestFirstPeriod_Required(t *testing.T) {
	cfg := &File{}
	_, err := cfg.FirstPeriod()
	assert.ErrorContains(t, err, "first_period_date is required")
}
