package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"mortgage-ledger/internal/domain"
	"mortgage-ledger/internal/log"
)

// dateLayout matches the ledger's month/day/year dates.
const dateLayout = "1/2/2006"

// File is the YAML configuration describing a shared property and how to read
// its ledger.
type File struct {
	Portfolio PortfolioConfig `yaml:"portfolio"`
	Ledger    LedgerConfig    `yaml:"ledger"`
}

// PortfolioConfig describes the purchase and its stakeholders.
type PortfolioConfig struct {
	PurchaseCost        float64             `yaml:"purchase_cost"`
	PurchaseDownPayment float64             `yaml:"purchase_down_payment"`
	AnnualRate          float64             `yaml:"annual_rate"` // fraction, e.g. 0.05625
	TotalPeriods        int                 `yaml:"total_periods"`
	Stakeholders        []StakeholderConfig `yaml:"stakeholders"`
	DownPayments        map[string]float64  `yaml:"down_payments"`
}

// StakeholderConfig describes one stakeholder and how to recognize their
// transactions in the ledger.
type StakeholderConfig struct {
	Name             string   `yaml:"name"`
	LedgerStrings    []string `yaml:"ledger_strings"`
	LedgerExclusions []string `yaml:"ledger_exclusions"`
	ExclusionAmount  float64  `yaml:"exclusion_amount"`
}

// LedgerConfig anchors period numbering and marks shared income.
type LedgerConfig struct {
	FirstPeriodDate     string   `yaml:"first_period_date"` // m/d/yyyy
	MutualIncomeMarkers []string `yaml:"mutual_income_markers"`
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks the configuration and returns an error listing every
// problem found.
func (f *File) Validate() error {
	var problems []string

	if f.Portfolio.PurchaseCost <= 0 {
		problems = append(problems, "portfolio.purchase_cost must be positive")
	}
	if f.Portfolio.TotalPeriods < 1 {
		problems = append(problems, "portfolio.total_periods must be at least 1")
	}
	if len(f.Portfolio.Stakeholders) == 0 {
		problems = append(problems, "portfolio.stakeholders must not be empty")
	}
	seen := make(map[string]bool)
	for i, s := range f.Portfolio.Stakeholders {
		if s.Name == "" {
			problems = append(problems, fmt.Sprintf("portfolio.stakeholders[%d].name must not be empty", i))
			continue
		}
		if seen[s.Name] {
			problems = append(problems, fmt.Sprintf("duplicate stakeholder %q", s.Name))
		}
		seen[s.Name] = true
	}
	for name := range f.Portfolio.DownPayments {
		if !seen[name] {
			problems = append(problems, fmt.Sprintf("down payment recorded for unknown stakeholder %q", name))
		}
	}
	if f.Ledger.FirstPeriodDate != "" {
		if _, err := time.Parse(dateLayout, f.Ledger.FirstPeriodDate); err != nil {
			problems = append(problems, fmt.Sprintf("ledger.first_period_date %q is not m/d/yyyy", f.Ledger.FirstPeriodDate))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// Parties converts the stakeholder configuration into domain parties.
func (f *File) Parties() []domain.Party {
	parties := make([]domain.Party, 0, len(f.Portfolio.Stakeholders))
	for _, s := range f.Portfolio.Stakeholders {
		parties = append(parties, domain.Party{
			Name:             s.Name,
			Type:             "Stakeholder",
			LedgerStrings:    s.LedgerStrings,
			LedgerExclusions: s.LedgerExclusions,
			ExclusionAmount:  s.ExclusionAmount,
		})
	}
	return parties
}

// LoanInfo returns the configured loan terms.
func (f *File) LoanInfo() domain.LoanInfo {
	return domain.LoanInfo{
		AnnualRate:   f.Portfolio.AnnualRate,
		TotalPeriods: f.Portfolio.TotalPeriods,
	}
}

// FirstPeriod parses the ledger's first-period anchor date.
func (f *File) FirstPeriod() (time.Time, error) {
	if f.Ledger.FirstPeriodDate == "" {
		return time.Time{}, fmt.Errorf("ledger.first_period_date is required for ledger processing")
	}
	return time.Parse(dateLayout, f.Ledger.FirstPeriodDate)
}

// LogLevel reads the LOG_LEVEL environment variable (debug, info, warn,
// error), defaulting to info.
func LogLevel() slog.Level {
	return log.ParseLevel(getEnv("LOG_LEVEL", "info"))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
