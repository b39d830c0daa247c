// Package render formats amortization tables as fixed-width column reports.
// Presentation only; nothing here feeds back into schedule computation.
package render

import (
	"fmt"
	"strings"

	"mortgage-ledger/internal/domain"
)

const header = "Payment # | Total Payment | Principal | Interest | Extra Payment | Remaining Balance"

// Table renders every row of a schedule under the standard header.
func Table(t domain.Table) string {
	lines := make([]string, 0, len(t.Entries)+1)
	lines = append(lines, header)
	for _, e := range t.Entries {
		lines = append(lines, formatRow(e))
	}
	return strings.Join(lines, "\n")
}

// Summary renders a schedule with runs of identical total payments truncated:
// each run longer than head+tail rows shows its first head and last tail rows
// with an ellipsis between. A 30-year schedule with one lump-sum payment
// collapses to a handful of lines.
func Summary(t domain.Table, head, tail int) string {
	if len(t.Entries) == 0 {
		return header
	}

	lines := []string{header}
	for _, r := range paymentRuns(t.Entries) {
		run := t.Entries[r.start : r.end+1]
		if len(run) > head+tail {
			for _, e := range run[:head] {
				lines = append(lines, formatRow(e))
			}
			lines = append(lines, "...")
			for _, e := range run[len(run)-tail:] {
				lines = append(lines, formatRow(e))
			}
		} else {
			for _, e := range run {
				lines = append(lines, formatRow(e))
			}
		}
	}
	return strings.Join(lines, "\n")
}

type run struct {
	start, end int
}

// paymentRuns finds maximal index ranges sharing the same total payment.
func paymentRuns(entries []domain.Entry) []run {
	var runs []run
	start := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].TotalPayment != entries[start].TotalPayment {
			runs = append(runs, run{start, i - 1})
			start = i
		}
	}
	return append(runs, run{start, len(entries) - 1})
}

func formatRow(e domain.Entry) string {
	return fmt.Sprintf("%9d | %13.2f | %9.2f | %8.2f | %13.2f | %17.2f",
		e.Period, e.TotalPayment, e.Principal, e.Interest, e.ExtraPayment, e.RemainingBalance)
}
