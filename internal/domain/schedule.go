package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// diffTolerance is the half-cent slack used when comparing schedules that were
// produced by different computations of the same quantities.
const diffTolerance = 0.005

// Entry is one row of an amortization schedule: the breakdown of a single
// period's payment.
type Entry struct {
	Period           int     `json:"period"`
	TotalPayment     float64 `json:"total_payment"`
	Principal        float64 `json:"principal"`
	Interest         float64 `json:"interest"`
	ExtraPayment     float64 `json:"extra_payment"`
	RemainingBalance float64 `json:"remaining_balance"`
}

// Table is an ordered amortization schedule, one entry per period with period
// numbers strictly increasing.
type Table struct {
	Entries []Entry `json:"entries"`
}

// Equal reports whether two tables have element-wise identical entries.
func (t Table) Equal(other Table) bool {
	if len(t.Entries) != len(other.Entries) {
		return false
	}
	for i, entry := range t.Entries {
		if entry != other.Entries[i] {
			return false
		}
	}
	return true
}

// Diff compares two tables on period, total payment, principal and interest
// within a half-cent tolerance and returns a description of every mismatched
// row. Extra payments and balances are excluded: when a schedule is checked
// against the combination of its adjustment loans those two fields
// legitimately differ in the period an extra payment lands.
func (t Table) Diff(other Table) []string {
	var mismatches []string
	if len(t.Entries) != len(other.Entries) {
		mismatches = append(mismatches, fmt.Sprintf("length mismatch: %d entries vs %d", len(t.Entries), len(other.Entries)))
	}
	n := len(t.Entries)
	if len(other.Entries) < n {
		n = len(other.Entries)
	}
	for i := 0; i < n; i++ {
		a, b := t.Entries[i], other.Entries[i]
		var differences []string
		if a.Period != b.Period {
			differences = append(differences, fmt.Sprintf("Payment #: expected %d, got %d", a.Period, b.Period))
		}
		if math.Abs(a.TotalPayment-b.TotalPayment) > diffTolerance {
			differences = append(differences, fmt.Sprintf("Total Payment: expected %.2f, got %.2f", a.TotalPayment, b.TotalPayment))
		}
		if math.Abs(a.Principal-b.Principal) > diffTolerance {
			differences = append(differences, fmt.Sprintf("Principal: expected %.2f, got %.2f", a.Principal, b.Principal))
		}
		if math.Abs(a.Interest-b.Interest) > diffTolerance {
			differences = append(differences, fmt.Sprintf("Interest: expected %.2f, got %.2f", a.Interest, b.Interest))
		}
		if len(differences) > 0 {
			mismatches = append(mismatches, fmt.Sprintf("row %d mismatch -> %s", i+1, strings.Join(differences, "; ")))
		}
	}
	return mismatches
}

// Combine sums the schedules of the given loans period by period. Addition is
// commutative, so input order does not matter; the result is sorted by period.
// Periods outside a shorter loan's range simply receive no contribution from
// it. Combining zero loans yields an empty table.
func Combine(loans []*Loan) Table {
	combined := make(map[int]Entry)
	for _, loan := range loans {
		for _, e := range loan.Schedule().Entries {
			c := combined[e.Period]
			c.Period = e.Period
			c.TotalPayment += e.TotalPayment
			c.Principal += e.Principal
			c.Interest += e.Interest
			c.ExtraPayment += e.ExtraPayment
			c.RemainingBalance += e.RemainingBalance
			combined[e.Period] = c
		}
	}

	periods := make([]int, 0, len(combined))
	for p := range combined {
		periods = append(periods, p)
	}
	sort.Ints(periods)

	entries := make([]Entry, 0, len(periods))
	for _, p := range periods {
		entries = append(entries, combined[p])
	}
	return Table{Entries: entries}
}

// Subtract returns a's schedule minus b's, row by row. The result is truncated
// to the shorter of the two schedules.
func Subtract(a, b *Loan) Table {
	as, bs := a.Schedule().Entries, b.Schedule().Entries
	n := len(as)
	if len(bs) < n {
		n = len(bs)
	}
	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, Entry{
			Period:           as[i].Period,
			TotalPayment:     as[i].TotalPayment - bs[i].TotalPayment,
			Principal:        as[i].Principal - bs[i].Principal,
			Interest:         as[i].Interest - bs[i].Interest,
			ExtraPayment:     as[i].ExtraPayment - bs[i].ExtraPayment,
			RemainingBalance: as[i].RemainingBalance - bs[i].RemainingBalance,
		})
	}
	return Table{Entries: entries}
}
