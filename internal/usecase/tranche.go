package usecase

import (
	"fmt"
	"math"
	"strings"

	"mortgage-ledger/internal/domain"
)

// TrancheKind distinguishes how a tranche treats incoming payments.
type TrancheKind string

const (
	// TrancheFixed requires every period's payments to match the baseline
	// schedule exactly.
	TrancheFixed TrancheKind = "Fixed"
	// TrancheFlexible converts the difference between what was paid and what
	// the schedule expected into an adjustment against the loan.
	TrancheFlexible TrancheKind = "Flexible"
)

// TableKind selects which schedule view of a tranche to serve.
type TableKind string

const (
	// TableFull is the adjusted schedule including every recorded adjustment.
	TableFull TableKind = "full"
	// TableBaseline is the schedule as originally amortized, no adjustments.
	TableBaseline TableKind = "baseline"
	// TableSideloan is the adjusted schedule minus the nominal mortgage slice:
	// the part of the stake financed outside the shared mortgage.
	TableSideloan TableKind = "sideloan"
)

// VerificationError reports that a tranche's adjusted schedule does not match
// the combination of its baseline and recorded adjustment loans.
type VerificationError struct {
	Mismatches []string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("adjustment verification failed, %d mismatched rows: %s",
		len(e.Mismatches), strings.Join(e.Mismatches, "; "))
}

// Tranche tracks one stakeholder's slice of a shared mortgage. A flexible
// tranche holds a baseline loan and, as payments deviate from it, an ordered
// list of adjustment loans; the adjusted loan and that list are kept verifiably
// consistent through the schedule combiner.
type Tranche struct {
	kind    TrancheKind
	parties domain.Parties

	sliceLoan *domain.Loan // nominal share of the mortgage principal
	baseline  *domain.Loan // full stake value, no adjustments

	// Flexible only. adjusted starts out as the baseline; loans are immutable
	// so no defensive copy is needed.
	adjusted    *domain.Loan
	adjustments []*domain.Loan

	currentPeriod int // period 0 collects down payments before the schedule starts
	pending       []domain.Payment
}

// NewTranche creates a tranche over a baseline loan and the nominal slice of
// the shared mortgage principal.
func NewTranche(parties domain.Parties, baseline, sliceLoan *domain.Loan, kind TrancheKind) (*Tranche, error) {
	if kind != TrancheFixed && kind != TrancheFlexible {
		return nil, fmt.Errorf("tranche kind must be %q or %q, got %q", TrancheFixed, TrancheFlexible, kind)
	}
	t := &Tranche{
		kind:      kind,
		parties:   parties,
		sliceLoan: sliceLoan,
		baseline:  baseline,
	}
	if kind == TrancheFlexible {
		t.adjusted = baseline
	}
	return t, nil
}

// CurrentPeriod returns the period the tranche is collecting payments for.
func (t *Tranche) CurrentPeriod() int { return t.currentPeriod }

// AcceptPayment queues a payment until the period advances. The payment must
// target the current period.
func (t *Tranche) AcceptPayment(payment domain.Payment) error {
	if payment.Period != t.currentPeriod {
		return fmt.Errorf("payment must be for current period %d, got %d", t.currentPeriod, payment.Period)
	}
	t.pending = append(t.pending, payment)
	return nil
}

// AdvancePeriod settles the payments received for the current period and moves
// to the next. A fixed tranche demands the exact scheduled amount; a flexible
// tranche records the difference as an adjustment.
func (t *Tranche) AdvancePeriod() error {
	totalPaid := 0.0
	for _, p := range t.pending {
		if p.Period == t.currentPeriod {
			totalPaid += p.Amount
		}
	}

	switch t.kind {
	case TrancheFixed:
		expected, err := t.baseline.PaymentForPeriod(t.currentPeriod)
		if err != nil {
			return err
		}
		if math.Round(totalPaid*100) != math.Round(expected.TotalPayment*100) {
			return fmt.Errorf("fixed tranche requires exact payment of %.2f, but received %.2f",
				expected.TotalPayment, totalPaid)
		}
	case TrancheFlexible:
		expected, err := t.adjusted.PaymentForPeriod(t.currentPeriod)
		if err != nil {
			return err
		}
		difference := math.Round((totalPaid-expected.TotalPayment)*100) / 100
		if difference < 0 && t.currentPeriod < 1 {
			return fmt.Errorf("down payment from %s cannot be negative", t.parties.Stakeholder.Name)
		}
		if difference != 0 {
			adjustment, err := domain.NewPayment(difference, t.parties.Stakeholder, t.parties.CommonParty, t.currentPeriod)
			if err != nil {
				return err
			}
			if err := t.AddAdjustmentPayment(adjustment); err != nil {
				return err
			}
		}
	}

	kept := t.pending[:0]
	for _, p := range t.pending {
		if p.Period > t.currentPeriod {
			kept = append(kept, p)
		}
	}
	t.pending = kept
	t.currentPeriod++
	return nil
}

// AddAdjustmentPayment records an extra payment against the adjusted loan
// together with the equivalent offsetting loan (negative principal, starting
// the period after the payment) used for verification. Verification itself
// runs when requested or when a schedule view is served, so adjustments can be
// added incrementally.
func (t *Tranche) AddAdjustmentPayment(payment domain.Payment) error {
	offset, err := domain.NewLoanStarting(t.baseline.Info(), -payment.Amount, payment.Period+1)
	if err != nil {
		return fmt.Errorf("could not build offsetting loan: %w", err)
	}
	return t.addAdjustment(offset, payment)
}

// AddAdjustmentLoan records an adjustment expressed as a loan, converting it
// into the equivalent extra payment in the period before the loan starts.
func (t *Tranche) AddAdjustmentLoan(loan *domain.Loan) error {
	payment, err := domain.NewPayment(-loan.Principal(), t.parties.Stakeholder, t.parties.CommonParty, loan.StartPeriod()-1)
	if err != nil {
		return err
	}
	return t.addAdjustment(loan, payment)
}

func (t *Tranche) addAdjustment(loan *domain.Loan, payment domain.Payment) error {
	if t.kind != TrancheFlexible {
		return fmt.Errorf("only flexible tranches can have adjustment loans")
	}
	adjusted, err := t.adjusted.WithExtraPayment(payment.Period, payment.Amount)
	if err != nil {
		return err
	}
	t.adjusted = adjusted
	t.adjustments = append(t.adjustments, loan)
	return nil
}

// Verify checks that the adjusted loan's schedule equals the combination of
// the baseline and every recorded adjustment loan. A mismatch means the
// adjusted loan and the adjustments that were supposed to produce it have
// drifted apart.
func (t *Tranche) Verify() error {
	if t.kind != TrancheFlexible {
		return nil
	}
	combined := domain.Combine(append([]*domain.Loan{t.baseline}, t.adjustments...))
	if mismatches := t.adjusted.Schedule().Diff(combined); len(mismatches) > 0 {
		return &VerificationError{Mismatches: mismatches}
	}
	return nil
}

// AdjustmentTable returns the combined schedule of the adjustment loans alone.
func (t *Tranche) AdjustmentTable() domain.Table {
	return domain.Combine(t.adjustments)
}

// Schedule returns the requested view of the tranche's amortization schedule.
// Flexible tranches are verified first, so a caller can never observe an
// adjusted schedule that is inconsistent with its adjustments.
func (t *Tranche) Schedule(kind TableKind) (domain.Table, error) {
	if err := t.Verify(); err != nil {
		return domain.Table{}, err
	}

	full := t.baseline
	if t.kind == TrancheFlexible {
		full = t.adjusted
	}

	switch kind {
	case TableFull:
		return full.Schedule(), nil
	case TableBaseline:
		return t.baseline.Schedule(), nil
	case TableSideloan:
		return domain.Subtract(full, t.sliceLoan), nil
	}
	return domain.Table{}, fmt.Errorf("unknown table kind %q", kind)
}
