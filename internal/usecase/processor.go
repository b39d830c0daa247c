package usecase

import (
	"context"
	"fmt"
	"sort"

	"mortgage-ledger/internal/domain"
	"mortgage-ledger/internal/log"
)

// LedgerProcessor replays ledger payments against a portfolio, advancing
// periods as the ledger reaches them.
type LedgerProcessor struct {
	portfolio *Portfolio
	source    PaymentSource
	logger    *log.Logger
}

// NewLedgerProcessor creates a processor for the given portfolio and payment
// source.
func NewLedgerProcessor(portfolio *Portfolio, source PaymentSource, logger *log.Logger) *LedgerProcessor {
	if logger == nil {
		logger = log.Default()
	}
	return &LedgerProcessor{
		portfolio: portfolio,
		source:    source,
		logger:    logger.WithComponent("processor"),
	}
}

// Run fetches the payments at path and processes them.
func (lp *LedgerProcessor) Run(ctx context.Context, path string) error {
	payments, err := lp.source.Payments(ctx, path)
	if err != nil {
		return fmt.Errorf("could not get ledger payments: %w", err)
	}
	return lp.Process(payments)
}

// Process applies payments to the portfolio in period order. The portfolio is
// advanced up to each payment's period before the payment is dispatched, so a
// payment appearing in a later period settles all periods before it. Payments
// from senders without a tranche are skipped.
func (lp *LedgerProcessor) Process(payments []domain.Payment) error {
	sorted := make([]domain.Payment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Period < sorted[j].Period })

	currentPeriod := 0
	for _, payment := range sorted {
		for currentPeriod < payment.Period {
			if err := lp.portfolio.AdvancePeriod(); err != nil {
				return err
			}
			currentPeriod++
		}
		if !lp.portfolio.HasStakeholder(payment.Sender.Name) {
			lp.logger.Warn("payment sender has no tranche, skipping",
				"sender", payment.Sender.Name, "period", payment.Period, "amount", payment.Amount)
			continue
		}
		lp.logger.Debug("processing payment",
			"sender", payment.Sender.Name, "period", payment.Period, "amount", payment.Amount)
		if err := lp.portfolio.AcceptPayment(payment.Sender, payment.Amount, payment.Period); err != nil {
			return err
		}
	}
	return nil
}

// AdvancePeriod advances the portfolio one period beyond the ledger. Needed to
// settle the amortization of a period before any of its transactions appear.
func (lp *LedgerProcessor) AdvancePeriod() error {
	return lp.portfolio.AdvancePeriod()
}

// Tables returns the requested per-stakeholder schedule view.
func (lp *LedgerProcessor) Tables(kind TableKind) (map[string]domain.Table, error) {
	return lp.portfolio.Schedules(kind)
}
