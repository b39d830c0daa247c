package domain

import "fmt"

// Party represents a person or entity in the mortgage collaboration.
type Party struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"` // e.g. "Stakeholder", "Common Party", "Bank"

	// Matching configuration for ledger parsing: a bank-statement row whose
	// description contains one of LedgerStrings (and none of LedgerExclusions)
	// is attributed to this party. Matches with an absolute amount below
	// ExclusionAmount are ignored when ExclusionAmount is set.
	LedgerStrings    []string `json:"ledger_strings,omitempty"`
	LedgerExclusions []string `json:"ledger_exclusions,omitempty"`
	ExclusionAmount  float64  `json:"exclusion_amount,omitempty"`
}

// Parties pairs a stakeholder with the common party they pay into.
type Parties struct {
	Stakeholder Party `json:"stakeholder"`
	CommonParty Party `json:"common_party"`
}

// LoanInfo holds the financial terms shared by every loan on a mortgage.
type LoanInfo struct {
	AnnualRate   float64 `json:"annual_rate"` // fraction, e.g. 0.05 for 5%
	TotalPeriods int     `json:"total_periods"`
}

// Payment is a financial transaction between two parties within a specific
// period. Period 0 payments are down payments applied before the schedule
// starts.
type Payment struct {
	Amount    float64 `json:"amount"`
	Sender    Party   `json:"sender"`
	Recipient Party   `json:"recipient"`
	Period    int     `json:"period"`
	Date      string  `json:"date,omitempty"`
}

// NewPayment creates a payment, rejecting negative periods.
func NewPayment(amount float64, sender, recipient Party, period int) (Payment, error) {
	if period < 0 {
		return Payment{}, fmt.Errorf("payment period must be non-negative, got %d", period)
	}
	return Payment{
		Amount:    amount,
		Sender:    sender,
		Recipient: recipient,
		Period:    period,
	}, nil
}
