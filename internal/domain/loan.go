package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLoanTerms is returned when loan parameters cannot produce a
// defined payment schedule.
var ErrInvalidLoanTerms = errors.New("invalid loan terms")

// Loan models one loan or sub-loan of a mortgage. A loan is immutable once
// constructed: its amortization schedule is generated at construction time and
// adding an extra payment returns a new loan, so the schedule can never drift
// out of sync with the recorded payments.
//
// The principal may be negative: a negative loan starting the period after an
// extra payment models the offsetting effect of that payment, which is what
// makes schedules of separate loans combinable.
type Loan struct {
	info           LoanInfo
	totalValue     float64
	principal      float64
	downPayment    float64
	startPeriod    int
	monthlyRate    float64
	paymentPeriods int
	fixedPayment   float64
	extraPayments  map[int]float64
	schedule       Table
}

// NewLoan creates a loan paying from period 1 with no extra payments.
func NewLoan(info LoanInfo, totalValue float64) (*Loan, error) {
	return newLoan(info, totalValue, 1, nil)
}

// NewLoanStarting creates a loan whose payments begin at startPeriod. Periods
// before it appear in the schedule as zero placeholders, which keeps sub-loans
// that start mid-schedule aligned with the loans they offset.
func NewLoanStarting(info LoanInfo, totalValue float64, startPeriod int) (*Loan, error) {
	return newLoan(info, totalValue, startPeriod, nil)
}

// NewLoanWithExtras creates a loan with an initial extra-payments mapping of
// period to amount. An amount recorded at period 0 is a down payment and
// reduces the principal before the schedule is generated.
func NewLoanWithExtras(info LoanInfo, totalValue float64, startPeriod int, extraPayments map[int]float64) (*Loan, error) {
	return newLoan(info, totalValue, startPeriod, extraPayments)
}

func newLoan(info LoanInfo, totalValue float64, startPeriod int, extraPayments map[int]float64) (*Loan, error) {
	if info.TotalPeriods < 1 {
		return nil, fmt.Errorf("%w: total periods must be positive, got %d", ErrInvalidLoanTerms, info.TotalPeriods)
	}
	if startPeriod < 1 {
		return nil, fmt.Errorf("%w: start period must be positive, got %d", ErrInvalidLoanTerms, startPeriod)
	}
	monthlyRate := info.AnnualRate / 12
	if monthlyRate <= -1 {
		return nil, fmt.Errorf("%w: monthly rate %.4f leaves the payment formula undefined", ErrInvalidLoanTerms, monthlyRate)
	}

	extras := make(map[int]float64, len(extraPayments))
	for period, amount := range extraPayments {
		if period < 0 {
			return nil, fmt.Errorf("%w: extra payment period must be non-negative, got %d", ErrInvalidLoanTerms, period)
		}
		extras[period] = amount
	}

	l := &Loan{
		info:           info,
		totalValue:     totalValue,
		downPayment:    extras[0],
		startPeriod:    startPeriod,
		monthlyRate:    monthlyRate,
		paymentPeriods: info.TotalPeriods - startPeriod + 1,
		extraPayments:  extras,
	}
	l.principal = totalValue - l.downPayment

	// A start period beyond the term means the loan never becomes active; it
	// amortizes nothing and its schedule is all placeholders.
	if l.paymentPeriods > 0 {
		l.fixedPayment = l.paymentAmount(l.principal, l.paymentPeriods)
	}
	l.schedule = l.generateSchedule()
	return l, nil
}

// PaymentFor computes the fixed periodic payment that amortizes principal over
// the given number of periods at the loan's monthly rate.
func (l *Loan) PaymentFor(principal float64, periods int) (float64, error) {
	if periods <= 0 {
		return 0, fmt.Errorf("%w: payment periods must be positive, got %d", ErrInvalidLoanTerms, periods)
	}
	return l.paymentAmount(principal, periods), nil
}

func (l *Loan) paymentAmount(principal float64, periods int) float64 {
	if l.monthlyRate == 0 {
		// Straight-line amortization; the annuity formula divides by zero here.
		return principal / float64(periods)
	}
	return (l.monthlyRate * principal) / (1 - math.Pow(1+l.monthlyRate, float64(-periods)))
}

func (l *Loan) generateSchedule() Table {
	entries := make([]Entry, 0, l.info.TotalPeriods)
	for p := 1; p < l.startPeriod && p <= l.info.TotalPeriods; p++ {
		entries = append(entries, Entry{Period: p})
	}

	balance := l.principal
	payment := l.fixedPayment
	for p := l.startPeriod; p <= l.info.TotalPeriods; p++ {
		interest := balance * l.monthlyRate
		principal := payment - interest
		extra := l.extraPayments[p]
		balance = l.clampBalance(balance - (principal + extra))
		entries = append(entries, Entry{
			Period:           p,
			TotalPayment:     payment,
			Principal:        principal,
			Interest:         interest,
			ExtraPayment:     extra,
			RemainingBalance: balance,
		})

		// A lump-sum payment re-amortizes the remaining balance over the
		// remaining term. The construction-time FixedPayment is unaffected.
		if extra != 0 {
			if remaining := l.info.TotalPeriods - p; remaining > 0 {
				payment = l.paymentAmount(balance, remaining)
			}
		}
	}
	return Table{Entries: entries}
}

// clampBalance settles the balance at zero once it crosses it. The balance
// amortizes toward zero from the principal's own side, so a positive loan is
// floored at 0 and a negative offsetting loan is capped at 0. The clamped
// value feeds the next period's interest.
func (l *Loan) clampBalance(balance float64) float64 {
	if l.principal >= 0 {
		return math.Max(0, balance)
	}
	return math.Min(0, balance)
}

// WithExtraPayment returns a new loan with amount added to whatever extra
// payment was already recorded for the period. The receiver is unchanged and
// the new loan's schedule is fully regenerated.
func (l *Loan) WithExtraPayment(period int, amount float64) (*Loan, error) {
	if period < 0 {
		return nil, fmt.Errorf("%w: extra payment period must be non-negative, got %d", ErrInvalidLoanTerms, period)
	}
	extras := make(map[int]float64, len(l.extraPayments)+1)
	for p, a := range l.extraPayments {
		extras[p] = a
	}
	extras[period] += amount
	return newLoan(l.info, l.totalValue, l.startPeriod, extras)
}

// PaymentForPeriod retrieves the schedule entry for a period. Period 0 is the
// pre-schedule placeholder whose balance is the full loan value.
func (l *Loan) PaymentForPeriod(period int) (Entry, error) {
	if period == 0 {
		return Entry{RemainingBalance: l.totalValue}, nil
	}
	if period < 0 || period > l.info.TotalPeriods {
		return Entry{}, fmt.Errorf("requested period %d is out of range", period)
	}
	for _, e := range l.schedule.Entries {
		if e.Period == period {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("no payment found for period %d", period)
}

// Schedule returns the loan's amortization table.
func (l *Loan) Schedule() Table { return l.schedule }

// FixedPayment returns the constant periodic payment computed at construction.
func (l *Loan) FixedPayment() float64 { return l.fixedPayment }

// Principal is the amount amortized by the schedule: total value minus down
// payment.
func (l *Loan) Principal() float64 { return l.principal }

// DownPayment is the extra payment recorded at period 0, if any.
func (l *Loan) DownPayment() float64 { return l.downPayment }

// TotalValue is the full value the loan was created with.
func (l *Loan) TotalValue() float64 { return l.totalValue }

// Info returns the loan's financial terms.
func (l *Loan) Info() LoanInfo { return l.info }

// StartPeriod is the first paying period.
func (l *Loan) StartPeriod() int { return l.startPeriod }

// MonthlyRate is the annual rate divided by 12.
func (l *Loan) MonthlyRate() float64 { return l.monthlyRate }

// ExtraPayments returns a copy of the period-to-amount extra payment mapping.
func (l *Loan) ExtraPayments() map[int]float64 {
	extras := make(map[int]float64, len(l.extraPayments))
	for p, a := range l.extraPayments {
		extras[p] = a
	}
	return extras
}

func (l *Loan) String() string {
	lastBalance := 0.0
	if n := len(l.schedule.Entries); n > 0 {
		lastBalance = l.schedule.Entries[n-1].RemainingBalance
	}
	return fmt.Sprintf("Loan(principal=%.2f, annual_rate=%.4f, total_periods=%d, start_period=%d, monthly_payment=%.2f, remaining_balance=%.2f)",
		l.principal, l.info.AnnualRate, l.info.TotalPeriods, l.startPeriod, l.fixedPayment, lastBalance)
}
