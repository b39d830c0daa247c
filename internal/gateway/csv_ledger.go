package gateway

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"mortgage-ledger/internal/domain"
	"mortgage-ledger/internal/log"
)

// ledgerDateLayout matches bank exports using month/day/year dates, with or
// without zero padding.
const ledgerDateLayout = "1/2/2006"

// CSVLedger implements the PaymentSource interface for tab-separated bank
// statement exports. Rows are attributed to stakeholders by matching their
// configured ledger strings against the transaction description; rows carrying
// a mutual-income marker are split equally across all stakeholders.
type CSVLedger struct {
	parties             []domain.Party
	commonParty         domain.Party
	mutualIncomeMarkers []string
	firstPeriod         time.Time
	logger              *log.Logger
}

// NewCSVLedger creates a ledger reader. firstPeriod anchors period numbering:
// a transaction dated in the same month is period 1.
func NewCSVLedger(parties []domain.Party, mutualIncomeMarkers []string, firstPeriod time.Time, logger *log.Logger) *CSVLedger {
	if logger == nil {
		logger = log.Default()
	}
	return &CSVLedger{
		parties:             parties,
		commonParty:         domain.Party{Name: "Common Account", Type: "Common Party"},
		mutualIncomeMarkers: mutualIncomeMarkers,
		firstPeriod:         firstPeriod,
		logger:              logger.WithComponent("ledger"),
	}
}

// Payments reads and parses a tab-separated ledger file into payments.
// Expected columns: date, description, amount, balance. Malformed rows are
// skipped with a warning rather than aborting the whole ledger.
func (r *CSVLedger) Payments(ctx context.Context, path string) ([]domain.Payment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1

	var payments []domain.Payment
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading record from %s: %w", path, err)
		}
		if len(record) < 4 {
			r.logger.Warn("skipping malformed row", "row", strings.Join(record, "\t"))
			continue
		}

		dateStr, description, amountStr := record[0], record[1], record[2]

		txDate, err := time.Parse(ledgerDateLayout, dateStr)
		if err != nil {
			r.logger.Warn("skipping row with unparseable date", "date", dateStr, "err", err)
			continue
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(amountStr, ",", ""), 64)
		if err != nil {
			r.logger.Warn("skipping row with unparseable amount", "amount", amountStr, "err", err)
			continue
		}

		period := monthsBetween(r.firstPeriod, txDate) + 1
		if period < 0 {
			r.logger.Warn("skipping row dated before the first period", "date", dateStr)
			continue
		}

		sender, err := r.identifySender(description, amount)
		if err != nil {
			return nil, err
		}
		mutualIncome := r.isMutualIncome(description)
		if mutualIncome && sender != nil {
			return nil, fmt.Errorf("transaction %q marked from %s also flagged as mutual income", description, sender.Name)
		}

		if sender != nil {
			payment, err := domain.NewPayment(amount, *sender, r.commonParty, period)
			if err != nil {
				return nil, fmt.Errorf("row dated %s: %w", dateStr, err)
			}
			payment.Date = dateStr
			payments = append(payments, payment)
		}

		if mutualIncome {
			share := amount / float64(len(r.parties))
			for _, party := range r.parties {
				payment, err := domain.NewPayment(share, party, r.commonParty, period)
				if err != nil {
					return nil, fmt.Errorf("row dated %s: %w", dateStr, err)
				}
				payment.Date = dateStr
				payments = append(payments, payment)
			}
		}
	}
	return payments, nil
}

// identifySender matches the description against each party's ledger strings,
// honoring exclusions and minimum-amount thresholds. More than one match is an
// error: the ledger configuration is ambiguous.
func (r *CSVLedger) identifySender(description string, amount float64) (*domain.Party, error) {
	desc := strings.ToLower(description)

	var identified []domain.Party
	for _, party := range r.parties {
		excluded := false
		for _, exclusion := range party.LedgerExclusions {
			if strings.Contains(desc, strings.ToLower(exclusion)) {
				excluded = true
			}
		}
		matched := false
		for _, marker := range party.LedgerStrings {
			if strings.Contains(desc, strings.ToLower(marker)) {
				matched = true
			}
		}
		if matched && party.ExclusionAmount > 0 && math.Abs(amount) < party.ExclusionAmount {
			excluded = true
		}
		if matched && !excluded {
			identified = append(identified, party)
		}
	}

	if len(identified) > 1 {
		names := make([]string, len(identified))
		for i, party := range identified {
			names[i] = party.Name
		}
		return nil, fmt.Errorf("transaction %q matched multiple senders: %s", description, strings.Join(names, ", "))
	}
	if len(identified) == 1 {
		return &identified[0], nil
	}
	return nil, nil
}

func (r *CSVLedger) isMutualIncome(description string) bool {
	desc := strings.ToLower(description)
	for _, marker := range r.mutualIncomeMarkers {
		if strings.Contains(desc, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

func monthsBetween(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}
