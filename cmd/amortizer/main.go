package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"mortgage-ledger/internal/config"
	"mortgage-ledger/internal/domain"
	"mortgage-ledger/internal/gateway"
	"mortgage-ledger/internal/log"
	"mortgage-ledger/internal/render"
	"mortgage-ledger/internal/usecase"
)

func main() {
	// Ledger mode
	configPath := flag.String("config", "", "Path to the portfolio YAML config file")
	ledgerPath := flag.String("ledger", "", "Path to the tab-separated bank ledger file")
	advance := flag.Int("advance", 0, "Advance N additional periods after processing the ledger")
	tableKind := flag.String("table", "full", "Schedule view: full, baseline or sideloan")

	// Single-loan mode
	principal := flag.Float64("principal", 0, "Loan principal for single-loan mode")
	rate := flag.Float64("rate", 0, "Annual rate as a fraction, e.g. 0.05 for 5%")
	periods := flag.Int("periods", 0, "Total number of payment periods")
	start := flag.Int("start", 1, "First paying period")
	extras := flag.String("extra", "", "Extra payments as period:amount pairs, e.g. 0:25000,5:5000")

	// Output
	format := flag.String("format", "text", "Output format: text or json")
	summary := flag.Bool("summary", false, "Truncate runs of identical payments in text output")
	flag.Parse()

	_ = godotenv.Load()
	logger := log.New(log.Config{Level: config.LogLevel(), Component: "amortizer"})

	var err error
	switch {
	case *configPath != "":
		err = runLedger(logger, *configPath, *ledgerPath, *advance, usecase.TableKind(*tableKind), *format, *summary)
	case *periods > 0:
		err = runSingleLoan(*principal, *rate, *periods, *start, *extras, *format, *summary)
	default:
		fmt.Println("Error: either -config (ledger mode) or -periods (single-loan mode) is required.")
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("amortizer failed", "err", err)
		os.Exit(1)
	}
}

// runSingleLoan prints the schedule of one loan built from flags.
func runSingleLoan(principal, rate float64, periods, start int, extrasArg, format string, summary bool) error {
	extras, err := parseExtras(extrasArg)
	if err != nil {
		return err
	}
	loan, err := domain.NewLoanWithExtras(domain.LoanInfo{AnnualRate: rate, TotalPeriods: periods}, principal, start, extras)
	if err != nil {
		return err
	}
	fmt.Println(loan)
	return printTable(loan.Schedule(), format, summary)
}

// runLedger replays a bank ledger against the configured portfolio and prints
// every stakeholder's schedule.
func runLedger(logger *log.Logger, configPath, ledgerPath string, advance int, kind usecase.TableKind, format string, summary bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	portfolio, err := usecase.NewPortfolio(usecase.PortfolioParams{
		PurchaseCost:            cfg.Portfolio.PurchaseCost,
		PurchaseDownPayment:     cfg.Portfolio.PurchaseDownPayment,
		LoanInfo:                cfg.LoanInfo(),
		Stakeholders:            cfg.Parties(),
		StakeholderDownPayments: cfg.Portfolio.DownPayments,
	})
	if err != nil {
		return err
	}

	var source usecase.PaymentSource
	if ledgerPath != "" {
		firstPeriod, err := cfg.FirstPeriod()
		if err != nil {
			return err
		}
		source = gateway.NewCSVLedger(cfg.Parties(), cfg.Ledger.MutualIncomeMarkers, firstPeriod, logger)
	}
	processor := usecase.NewLedgerProcessor(portfolio, source, logger)
	if ledgerPath != "" {
		if err := processor.Run(context.Background(), ledgerPath); err != nil {
			return err
		}
	}
	for i := 0; i < advance; i++ {
		if err := processor.AdvancePeriod(); err != nil {
			return err
		}
	}

	tables, err := processor.Tables(kind)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("Table for %s\n", name)
		if err := printTable(tables[name], format, summary); err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}

func printTable(table domain.Table, format string, summary bool) error {
	switch format {
	case "json":
		output, err := json.MarshalIndent(table, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to generate JSON output: %w", err)
		}
		fmt.Println(string(output))
	case "text":
		if summary {
			fmt.Println(render.Summary(table, 2, 2))
		} else {
			fmt.Println(render.Table(table))
		}
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}

// parseExtras parses "period:amount" pairs separated by commas. Repeated
// periods accumulate.
func parseExtras(arg string) (map[int]float64, error) {
	if arg == "" {
		return nil, nil
	}
	extras := make(map[int]float64)
	for _, pair := range strings.Split(arg, ",") {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid extra payment %q, want period:amount", pair)
		}
		period, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid extra payment period %q: %w", parts[0], err)
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid extra payment amount %q: %w", parts[1], err)
		}
		extras[period] += amount
	}
	return extras, nil
}
