package reports

import (
	"context"
	"strings"
	"time"

	_ "github.com/meridian-erp/meridian-erp/testing"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/balances"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/mappings"
	"github.com/meridian-erp/meridian-erp/internal/cashbank"
	"github.com/meridian-erp/meridian-erp/internal/costing"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
)

// fakeAccounts implements AccountSource over a static chart.
type fakeAccounts struct {
	chart []accounts.Account
}

func (f *fakeAccounts) List(context.Context) ([]accounts.Account, error) {
	return f.chart, nil
}

func (f *fakeAccounts) ListByType(_ context.Context, types ...accounts.AccountType) ([]accounts.Account, error) {
	var out []accounts.Account
	for _, a := range f.chart {
		for _, t := range types {
			if a.Type == t {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeAccounts) ListByCodePrefix(_ context.Context, prefixes []string, types ...accounts.AccountType) ([]accounts.Account, error) {
	var out []accounts.Account
	for _, a := range f.chart {
		matched := false
		for _, p := range prefixes {
			if strings.HasPrefix(a.Code, p) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if len(types) > 0 {
			ok := false
			for _, t := range types {
				if a.Type == t {
					ok = true
					break
				}
			}
			if !ok {
				continue
			}
		}
		out = append(out, a)
	}
	return out, nil
}

// ledgerLine feeds the fake balances repository and the fake journal
// source from a single dataset.
type ledgerLine struct {
	accountID   int64
	date        time.Time
	debit       float64
	credit      float64
	branchID    int64
	journalType journals.JournalType
}

type fakeBalanceRepo struct {
	lines []ledgerLine
}

func (f *fakeBalanceRepo) SumByAccount(_ context.Context, accountIDs []int64, from, to *time.Time, branchIDs []int64) (map[int64]balances.Sums, error) {
	wanted := map[int64]bool{}
	for _, id := range accountIDs {
		wanted[id] = true
	}
	branches := map[int64]bool{}
	for _, id := range branchIDs {
		branches[id] = true
	}
	out := map[int64]balances.Sums{}
	for _, l := range f.lines {
		if !wanted[l.accountID] {
			continue
		}
		if from != nil && l.date.Before(*from) {
			continue
		}
		if to != nil && l.date.After(*to) {
			continue
		}
		if len(branches) > 0 && !branches[l.branchID] {
			continue
		}
		s := out[l.accountID]
		s.Debit += l.debit
		s.Credit += l.credit
		out[l.accountID] = s
	}
	return out, nil
}

type fakeJournals struct {
	lines []journals.JournalLine
}

func (f *fakeJournals) ListByAccount(ctx context.Context, accountID int64, filter journals.Filter) ([]journals.JournalLine, error) {
	filter.AccountIDs = []int64{accountID}
	return f.ListByFilter(ctx, filter)
}

func (f *fakeJournals) ListByFilter(_ context.Context, filter journals.Filter) ([]journals.JournalLine, error) {
	accountSet := map[int64]bool{}
	for _, id := range filter.AccountIDs {
		accountSet[id] = true
	}
	branchSet := map[int64]bool{}
	for _, id := range filter.BranchIDs {
		branchSet[id] = true
	}
	var out []journals.JournalLine
	for _, l := range f.lines {
		if len(accountSet) > 0 && !accountSet[l.AccountID] {
			continue
		}
		if filter.From != nil && l.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && l.Date.After(*filter.To) {
			continue
		}
		if filter.JournalType != "" && l.JournalType != filter.JournalType {
			continue
		}
		if len(branchSet) > 0 && (l.BranchID == nil || !branchSet[*l.BranchID]) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

type fakeRules struct {
	costPrefixes map[mappings.CostCategory][]string
	overhead     []mappings.OverheadRule
	sections     []mappings.CashFlowSection
	cashPrefixes []string
	adjustments  []mappings.CashFlowAdjustmentRule
}

func (f *fakeRules) ListCostPrefixes(_ context.Context, category mappings.CostCategory) ([]string, error) {
	return f.costPrefixes[category], nil
}

func (f *fakeRules) ListOverheadRules(context.Context) ([]mappings.OverheadRule, error) {
	return f.overhead, nil
}

func (f *fakeRules) ListCashFlowSections(context.Context) ([]mappings.CashFlowSection, error) {
	return f.sections, nil
}

func (f *fakeRules) ListCashAccountPrefixes(context.Context) ([]string, error) {
	return f.cashPrefixes, nil
}

func (f *fakeRules) ListCashFlowAdjustments(context.Context) ([]mappings.CashFlowAdjustmentRule, error) {
	return f.adjustments, nil
}

type stockEntry struct {
	productID int64
	typ       inventory.MovementType
	date      time.Time
	value     float64
	branchID  int64
}

type fakeStock struct {
	productIDs []int64
	entries    []stockEntry
}

func (f *fakeStock) RawMaterialProductIDs(context.Context) ([]int64, error) {
	return f.productIDs, nil
}

func (f *fakeStock) MovementValue(_ context.Context, productIDs []int64, types []inventory.MovementType, from, to *time.Time, branchIDs []int64) (float64, error) {
	products := map[int64]bool{}
	for _, id := range productIDs {
		products[id] = true
	}
	typeSet := map[inventory.MovementType]bool{}
	for _, t := range types {
		typeSet[t] = true
	}
	branches := map[int64]bool{}
	for _, id := range branchIDs {
		branches[id] = true
	}
	var total float64
	for _, e := range f.entries {
		if !products[e.productID] || !typeSet[e.typ] {
			continue
		}
		if from != nil && e.date.Before(*from) {
			continue
		}
		if to != nil && e.date.After(*to) {
			continue
		}
		if len(branches) > 0 && !branches[e.branchID] {
			continue
		}
		total += e.value
	}
	return total, nil
}

type fakeVariances struct {
	rows []costing.CostVariance
}

func (f *fakeVariances) VariancesByPeriod(_ context.Context, from, to time.Time, _ []int64) ([]costing.CostVariance, error) {
	var out []costing.CostVariance
	for _, r := range f.rows {
		if r.Period.Before(from) || r.Period.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type cashEntry struct {
	typ          cashbank.TransactionType
	date         time.Time
	amount       float64
	offsetPrefix string
	cashPrefix   string
	branchID     int64
}

type fakeCash struct {
	entries []cashEntry
}

func (f *fakeCash) SumByOffsetPrefix(_ context.Context, prefixes []string, types []cashbank.TransactionType, from, to time.Time, branchIDs []int64) (float64, error) {
	return f.sum(prefixes, types, &from, &to, branchIDs, func(e cashEntry) string { return e.offsetPrefix }), nil
}

func (f *fakeCash) SumByCashPrefix(_ context.Context, prefixes []string, types []cashbank.TransactionType, from, to *time.Time, branchIDs []int64) (float64, error) {
	return f.sum(prefixes, types, from, to, branchIDs, func(e cashEntry) string { return e.cashPrefix }), nil
}

func (f *fakeCash) sum(prefixes []string, types []cashbank.TransactionType, from, to *time.Time, branchIDs []int64, key func(cashEntry) string) float64 {
	typeSet := map[cashbank.TransactionType]bool{}
	for _, t := range types {
		typeSet[t] = true
	}
	branches := map[int64]bool{}
	for _, id := range branchIDs {
		branches[id] = true
	}
	var total float64
	for _, e := range f.entries {
		if !typeSet[e.typ] {
			continue
		}
		if from != nil && e.date.Before(*from) {
			continue
		}
		if to != nil && e.date.After(*to) {
			continue
		}
		if len(branches) > 0 && !branches[e.branchID] {
			continue
		}
		matched := false
		for _, p := range prefixes {
			if strings.HasPrefix(key(e), p) {
				matched = true
				break
			}
		}
		if matched {
			total += e.amount
		}
	}
	return total
}

func boolPtr(v bool) *bool    { return &v }
func int64Ptr(v int64) *int64 { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
