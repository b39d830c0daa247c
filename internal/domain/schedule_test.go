package domain_test

import (
	"testing"

	"mortgage-ledger/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Equal(t *testing.T) {
	a := domain.Table{Entries: []domain.Entry{
		{Period: 1, TotalPayment: 100, Principal: 90, Interest: 10, RemainingBalance: 900},
		{Period: 2, TotalPayment: 100, Principal: 91, Interest: 9, RemainingBalance: 809},
	}}
	b := domain.Table{Entries: []domain.Entry{
		{Period: 1, TotalPayment: 100, Principal: 90, Interest: 10, RemainingBalance: 900},
		{Period: 2, TotalPayment: 100, Principal: 91, Interest: 9, RemainingBalance: 809},
	}}
	assert.True(t, a.Equal(b))

	b.Entries[1].Interest = 9.0001
	assert.False(t, a.Equal(b), "Equal is exact, not tolerant")

	assert.False(t, a.Equal(domain.Table{Entries: a.Entries[:1]}))
	assert.True(t, domain.Table{}.Equal(domain.Table{}))
}

func TestTable_Diff(t *testing.T) {
	a := domain.Table{Entries: []domain.Entry{
		{Period: 1, TotalPayment: 100, Principal: 90, Interest: 10},
		{Period: 2, TotalPayment: 100, Principal: 91, Interest: 9},
	}}

	t.Run("within tolerance", func(t *testing.T) {
		b := domain.Table{Entries: []domain.Entry{
			{Period: 1, TotalPayment: 100.004, Principal: 90, Interest: 10.002},
			{Period: 2, TotalPayment: 100, Principal: 90.996, Interest: 9},
		}}
		assert.Empty(t, a.Diff(b))
	})

	t.Run("differing extras and balances are ignored", func(t *testing.T) {
		b := domain.Table{Entries: []domain.Entry{
			{Period: 1, TotalPayment: 100, Principal: 90, Interest: 10, ExtraPayment: 5000, RemainingBalance: 123},
			{Period: 2, TotalPayment: 100, Principal: 91, Interest: 9, RemainingBalance: 77},
		}}
		assert.Empty(t, a.Diff(b))
	})

	t.Run("mismatched rows reported", func(t *testing.T) {
		b := domain.Table{Entries: []domain.Entry{
			{Period: 1, TotalPayment: 100, Principal: 90, Interest: 10},
			{Period: 2, TotalPayment: 120, Principal: 91, Interest: 29},
		}}
		mismatches := a.Diff(b)
		require.Len(t, mismatches, 1)
		assert.Contains(t, mismatches[0], "row 2")
		assert.Contains(t, mismatches[0], "Total Payment")
		assert.Contains(t, mismatches[0], "Interest")
	})

	t.Run("length mismatch reported", func(t *testing.T) {
		mismatches := a.Diff(domain.Table{Entries: a.Entries[:1]})
		require.NotEmpty(t, mismatches)
		assert.Contains(t, mismatches[0], "length mismatch")
	})
}

func TestCombine_SingleLoanIsIdentity(t *testing.T) {
	loan, err := domain.NewLoan(domain.LoanInfo{AnnualRate: 0.5, TotalPeriods: 10}, 100000)
	require.NoError(t, err)

	combined := domain.Combine([]*domain.Loan{loan})
	assert.True(t, combined.Equal(loan.Schedule()))
}

func TestCombine_SumsEveryField(t *testing.T) {
	a, err := domain.NewLoan(domain.LoanInfo{AnnualRate: 0.06, TotalPeriods: 12}, 20000)
	require.NoError(t, err)
	b, err := domain.NewLoanWithExtras(domain.LoanInfo{AnnualRate: 0.04, TotalPeriods: 12}, 5000, 1, map[int]float64{4: 250})
	require.NoError(t, err)

	combined := domain.Combine([]*domain.Loan{a, b})
	require.Len(t, combined.Entries, 12)

	for i, e := range combined.Entries {
		ea, eb := a.Schedule().Entries[i], b.Schedule().Entries[i]
		assert.Equal(t, i+1, e.Period)
		assert.InDelta(t, ea.TotalPayment+eb.TotalPayment, e.TotalPayment, 1e-9)
		assert.InDelta(t, ea.Principal+eb.Principal, e.Principal, 1e-9)
		assert.InDelta(t, ea.Interest+eb.Interest, e.Interest, 1e-9)
		assert.InDelta(t, ea.ExtraPayment+eb.ExtraPayment, e.ExtraPayment, 1e-9)
		assert.InDelta(t, ea.RemainingBalance+eb.RemainingBalance, e.RemainingBalance, 1e-9)
	}
}

func TestCombine_MisalignedPeriodRanges(t *testing.T) {
	long, err := domain.NewLoan(domain.LoanInfo{AnnualRate: 0.05, TotalPeriods: 10}, 10000)
	require.NoError(t, err)
	short, err := domain.NewLoan(domain.LoanInfo{AnnualRate: 0.05, TotalPeriods: 4}, 2000)
	require.NoError(t, err)

	combined := domain.Combine([]*domain.Loan{long, short})
	require.Len(t, combined.Entries, 10)

	// Beyond the short loan's range the long loan's rows pass through untouched.
	for i := 4; i < 10; i++ {
		assert.Equal(t, long.Schedule().Entries[i], combined.Entries[i])
	}
}

func TestCombine_Empty(t *testing.T) {
	combined := domain.Combine(nil)
	assert.Empty(t, combined.Entries)
}

func TestCombine_OrderIndependent(t *testing.T) {
	a, err := domain.NewLoan(domain.LoanInfo{AnnualRate: 0.06, TotalPeriods: 12}, 20000)
	require.NoError(t, err)
	b, err := domain.NewLoanStarting(domain.LoanInfo{AnnualRate: 0.06, TotalPeriods: 12}, -3000, 5)
	require.NoError(t, err)

	ab := domain.Combine([]*domain.Loan{a, b})
	ba := domain.Combine([]*domain.Loan{b, a})
	assert.True(t, ab.Equal(ba))
}

// The core modeling equivalence: a negative loan starting the period after an
// extra payment offsets it, so combining it with the untouched base loan
// reproduces the base loan with the extra payment applied directly.
func TestCombine_OffsettingLoanEquivalence(t *testing.T) {
	info := domain.LoanInfo{AnnualRate: 0.5, TotalPeriods: 10}

	withExtra, err := domain.NewLoanWithExtras(info, 100000, 1, map[int]float64{5: 5000})
	require.NoError(t, err)

	base, err := domain.NewLoan(info, 100000)
	require.NoError(t, err)
	offset, err := domain.NewLoanStarting(info, -5000, 6)
	require.NoError(t, err)

	combined := domain.Combine([]*domain.Loan{base, offset})
	assert.Empty(t, withExtra.Schedule().Diff(combined))

	// From the offset loan's start onward even the balances line up.
	for i := 5; i < 10; i++ {
		assert.InDelta(t, withExtra.Schedule().Entries[i].RemainingBalance, combined.Entries[i].RemainingBalance, 1e-6)
	}
}

func TestSubtract(t *testing.T) {
	a, err := domain.NewLoan(domain.LoanInfo{AnnualRate: 0.05, TotalPeriods: 10}, 10000)
	require.NoError(t, err)
	b, err := domain.NewLoan(domain.LoanInfo{AnnualRate: 0.05, TotalPeriods: 6}, 4000)
	require.NoError(t, err)

	diff := domain.Subtract(a, b)
	require.Len(t, diff.Entries, 6, "result is truncated to the shorter schedule")
	for i, e := range diff.Entries {
		ea, eb := a.Schedule().Entries[i], b.Schedule().Entries[i]
		assert.Equal(t, ea.Period, e.Period)
		assert.InDelta(t, ea.TotalPayment-eb.TotalPayment, e.TotalPayment, 1e-9)
		assert.InDelta(t, ea.RemainingBalance-eb.RemainingBalance, e.RemainingBalance, 1e-9)
	}

	self := domain.Subtract(a, a)
	for _, e := range self.Entries {
		assert.Zero(t, e.TotalPayment)
		assert.Zero(t, e.RemainingBalance)
	}
}
