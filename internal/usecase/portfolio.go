package usecase

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"mortgage-ledger/internal/domain"
)

// PortfolioParams configures a shared property purchase.
//
// Down payments exist in two places in reality: the purchase down payment that
// shrank the mortgage, and the individual stakeholder payments recorded here
// or arriving through the ledger before period 1. Both are accepted as given;
// the tranche verification catches schedules that drift from the recorded
// payments.
type PortfolioParams struct {
	PurchaseCost            float64
	PurchaseDownPayment     float64
	LoanInfo                domain.LoanInfo
	Stakeholders            []domain.Party
	StakeholderDownPayments map[string]float64
}

// Portfolio distributes a shared mortgage across stakeholders, one flexible
// tranche per stakeholder, and routes payments to them.
type Portfolio struct {
	commonFund   domain.Party
	stakeholders map[string]domain.Party
	tranches     map[string]*Tranche
}

// NewPortfolio splits the purchase equally across the stakeholders: each
// tranche's baseline is their share of the purchase cost, its mortgage slice
// their share of the financed amount. Recorded stakeholder down payments are
// applied as period-0 payments.
func NewPortfolio(params PortfolioParams) (*Portfolio, error) {
	commonFund := domain.Party{Name: "Common Fund", Type: "Common Party"}

	stakeholders := make(map[string]domain.Party)
	for _, party := range params.Stakeholders {
		if party.Type == "Common Party" {
			continue
		}
		if party.Name == "" {
			return nil, fmt.Errorf("stakeholder name must not be empty")
		}
		if _, ok := stakeholders[party.Name]; ok {
			return nil, fmt.Errorf("duplicate stakeholder %q", party.Name)
		}
		stakeholders[party.Name] = party
	}
	if len(stakeholders) == 0 {
		return nil, fmt.Errorf("portfolio requires at least one stakeholder")
	}

	stakeValue := params.PurchaseCost / float64(len(stakeholders))
	stakeDebt := (params.PurchaseCost - params.PurchaseDownPayment) / float64(len(stakeholders))

	p := &Portfolio{
		commonFund:   commonFund,
		stakeholders: stakeholders,
		tranches:     make(map[string]*Tranche, len(stakeholders)),
	}
	for name, party := range stakeholders {
		baseline, err := domain.NewLoan(params.LoanInfo, stakeValue)
		if err != nil {
			return nil, fmt.Errorf("baseline loan for %s: %w", name, err)
		}
		sliceLoan, err := domain.NewLoan(params.LoanInfo, stakeDebt)
		if err != nil {
			return nil, fmt.Errorf("mortgage slice for %s: %w", name, err)
		}
		tranche, err := NewTranche(domain.Parties{Stakeholder: party, CommonParty: commonFund}, baseline, sliceLoan, TrancheFlexible)
		if err != nil {
			return nil, err
		}
		p.tranches[name] = tranche
	}

	for name, amount := range params.StakeholderDownPayments {
		tranche, ok := p.tranches[name]
		if !ok {
			return nil, fmt.Errorf("down payment recorded for unknown stakeholder %q", name)
		}
		payment, err := domain.NewPayment(amount, stakeholders[name], commonFund, 0)
		if err != nil {
			return nil, err
		}
		if err := tranche.AcceptPayment(payment); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// HasStakeholder reports whether a tranche exists for the named party.
func (p *Portfolio) HasStakeholder(name string) bool {
	_, ok := p.tranches[name]
	return ok
}

// AcceptPayment records a payment from a stakeholder toward their tranche.
func (p *Portfolio) AcceptPayment(sender domain.Party, amount float64, period int) error {
	tranche, ok := p.tranches[sender.Name]
	if !ok {
		return fmt.Errorf("unknown stakeholder: %s", sender.Name)
	}
	payment, err := domain.NewPayment(amount, p.stakeholders[sender.Name], p.commonFund, period)
	if err != nil {
		return err
	}
	return tranche.AcceptPayment(payment)
}

// AdvancePeriod advances every tranche by one period.
func (p *Portfolio) AdvancePeriod() error {
	for _, name := range p.sortedNames() {
		if err := p.tranches[name].AdvancePeriod(); err != nil {
			return fmt.Errorf("advancing %s: %w", name, err)
		}
	}
	return nil
}

// Schedules returns the requested schedule view for every stakeholder. The
// tables are pure functions of immutable loans, so they are generated
// concurrently, one tranche per goroutine.
func (p *Portfolio) Schedules(kind TableKind) (map[string]domain.Table, error) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	tables := make(map[string]domain.Table, len(p.tranches))
	for name, tranche := range p.tranches {
		name, tranche := name, tranche
		g.Go(func() error {
			table, err := tranche.Schedule(kind)
			if err != nil {
				return fmt.Errorf("schedule for %s: %w", name, err)
			}
			mu.Lock()
			tables[name] = table
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// Tranche returns the tranche for the named stakeholder, if any.
func (p *Portfolio) Tranche(name string) (*Tranche, bool) {
	t, ok := p.tranches[name]
	return t, ok
}

// TotalStakeAllocated sums the baseline value across all tranches.
func (p *Portfolio) TotalStakeAllocated() float64 {
	total := 0.0
	for _, tranche := range p.tranches {
		total += tranche.baseline.TotalValue()
	}
	return total
}

func (p *Portfolio) sortedNames() []string {
	names := make([]string, 0, len(p.tranches))
	for name := range p.tranches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
