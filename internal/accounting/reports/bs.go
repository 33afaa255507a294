package reports

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
)

// BalanceSheetFilters selects the statement date and scope.
// IncludeZeroBalances emits rows that net to zero, which otherwise
// disappear even when the account had offsetting activity.
type BalanceSheetFilters struct {
	AsOf                time.Time
	BranchIDs           []int64
	DisplayLevel        DisplayLevel
	IncludeZeroBalances bool
}

// BalanceSheetSection holds the rows and total for one classification.
type BalanceSheetSection struct {
	Label    string       `json:"label"`
	Accounts []AccountRow `json:"accounts"`
	Total    float64      `json:"total"`
}

// BalanceSheet is the structured statement. Totals always come from the
// full account set; DisplayLevel only trims the emitted rows.
type BalanceSheet struct {
	AsOf                      time.Time           `json:"as_of"`
	CurrentAssets             BalanceSheetSection `json:"current_assets"`
	FixedAssets               BalanceSheetSection `json:"fixed_assets"`
	ContraAssets              BalanceSheetSection `json:"contra_assets"`
	CurrentLiabilities        BalanceSheetSection `json:"current_liabilities"`
	LongTermLiabilities       BalanceSheetSection `json:"long_term_liabilities"`
	Equity                    BalanceSheetSection `json:"equity"`
	RetainedEarnings          float64             `json:"retained_earnings"`
	TotalAssets               float64             `json:"total_assets"`
	TotalLiabilities          float64             `json:"total_liabilities"`
	TotalEquity               float64             `json:"total_equity"`
	TotalLiabilitiesAndEquity float64             `json:"total_liabilities_and_equity"`
	Difference                float64             `json:"difference"`
	IsBalanced                bool                `json:"is_balanced"`
}

// BalanceSheetSummary carries headline ratios.
type BalanceSheetSummary struct {
	AsOf             time.Time `json:"as_of"`
	TotalAssets      float64   `json:"total_assets"`
	TotalLiabilities float64   `json:"total_liabilities"`
	TotalEquity      float64   `json:"total_equity"`
	CurrentRatio     float64   `json:"current_ratio"`
	DebtToEquity     float64   `json:"debt_to_equity"`
	WorkingCapital   float64   `json:"working_capital"`
	IsBalanced       bool      `json:"is_balanced"`
}

// BalanceSheetComparison holds two statements and their deltas.
type BalanceSheetComparison struct {
	Current  BalanceSheet     `json:"current"`
	Previous BalanceSheet     `json:"previous"`
	Lines    []ComparisonLine `json:"lines"`
}

// ClassificationResult reports data-quality findings on the chart.
type ClassificationResult struct {
	Checked int      `json:"checked"`
	Issues  []string `json:"issues"`
}

// BalanceSheetService builds the statement of financial position. An
// unbalanced sheet is reported as such: the difference is a
// data-integrity signal, never plugged into retained earnings.
type BalanceSheetService struct {
	accounts AccountSource
	balances BalanceSource
}

func NewBalanceSheetService(accounts AccountSource, balances BalanceSource) *BalanceSheetService {
	return &BalanceSheetService{accounts: accounts, balances: balances}
}

func (s *BalanceSheetService) Build(ctx context.Context, f BalanceSheetFilters) (BalanceSheet, error) {
	if f.AsOf.IsZero() {
		return BalanceSheet{}, fmt.Errorf("reports: balance sheet date required")
	}

	chart, err := s.accounts.List(ctx)
	if err != nil {
		return BalanceSheet{}, err
	}
	tree := accounts.NewTree(chart)

	var assets, contras, liabilities, equity, revenue, expense []accounts.Account
	for _, a := range chart {
		switch a.Type {
		case accounts.TypeAsset:
			assets = append(assets, a)
		case accounts.TypeContraAsset:
			contras = append(contras, a)
		case accounts.TypeLiability:
			liabilities = append(liabilities, a)
		case accounts.TypeEquity:
			equity = append(equity, a)
		case accounts.TypeRevenue:
			revenue = append(revenue, a)
		case accounts.TypeExpense:
			expense = append(expense, a)
		}
	}

	assetBalances, err := s.balances.BalancesByAccount(ctx, assets, f.AsOf, f.BranchIDs)
	if err != nil {
		return BalanceSheet{}, err
	}
	contraBalances, err := s.balances.BalancesByAccount(ctx, contras, f.AsOf, f.BranchIDs)
	if err != nil {
		return BalanceSheet{}, err
	}
	liabilityBalances, err := s.balances.BalancesByAccount(ctx, liabilities, f.AsOf, f.BranchIDs)
	if err != nil {
		return BalanceSheet{}, err
	}
	equityBalances, err := s.balances.BalancesByAccount(ctx, equity, f.AsOf, f.BranchIDs)
	if err != nil {
		return BalanceSheet{}, err
	}

	// Retained earnings is all-history net income up to the date; revenue
	// and expense balances are both positive under their own convention.
	revenueTotal, err := s.balances.Balance(ctx, revenue, f.AsOf, f.BranchIDs)
	if err != nil {
		return BalanceSheet{}, err
	}
	expenseTotal, err := s.balances.Balance(ctx, expense, f.AsOf, f.BranchIDs)
	if err != nil {
		return BalanceSheet{}, err
	}
	retainedEarnings := round2(revenueTotal - expenseTotal)

	var currentAssets, fixedAssets []accounts.Account
	for _, a := range assets {
		if isCurrent(a) {
			currentAssets = append(currentAssets, a)
		} else {
			fixedAssets = append(fixedAssets, a)
		}
	}
	var currentLiabilities, longTermLiabilities []accounts.Account
	for _, a := range liabilities {
		if isCurrent(a) {
			currentLiabilities = append(currentLiabilities, a)
		} else {
			longTermLiabilities = append(longTermLiabilities, a)
		}
	}

	bs := BalanceSheet{AsOf: f.AsOf}
	bs.CurrentAssets = buildSection("Current Assets", currentAssets, assetBalances, tree, f.DisplayLevel, f.IncludeZeroBalances)
	bs.FixedAssets = buildSection("Fixed Assets", fixedAssets, assetBalances, tree, f.DisplayLevel, f.IncludeZeroBalances)
	bs.ContraAssets = buildSection("Accumulated Depreciation and Allowances", contras, contraBalances, tree, f.DisplayLevel, f.IncludeZeroBalances)
	bs.CurrentLiabilities = buildSection("Current Liabilities", currentLiabilities, liabilityBalances, tree, f.DisplayLevel, f.IncludeZeroBalances)
	bs.LongTermLiabilities = buildSection("Long-Term Liabilities", longTermLiabilities, liabilityBalances, tree, f.DisplayLevel, f.IncludeZeroBalances)
	bs.Equity = buildSection("Equity", equity, equityBalances, tree, f.DisplayLevel, f.IncludeZeroBalances)
	bs.RetainedEarnings = retainedEarnings

	bs.TotalAssets = round2(bs.CurrentAssets.Total + bs.FixedAssets.Total - bs.ContraAssets.Total)
	bs.TotalLiabilities = round2(bs.CurrentLiabilities.Total + bs.LongTermLiabilities.Total)
	bs.TotalEquity = round2(bs.Equity.Total + retainedEarnings)
	bs.TotalLiabilitiesAndEquity = round2(bs.TotalLiabilities + bs.TotalEquity)
	bs.Difference = round2(bs.TotalAssets - bs.TotalLiabilitiesAndEquity)
	bs.IsBalanced = math.Abs(bs.Difference) < balanceEpsilon
	return bs, nil
}

// Summary builds the statement and reduces it to headline ratios.
func (s *BalanceSheetService) Summary(ctx context.Context, f BalanceSheetFilters) (BalanceSheetSummary, error) {
	f.DisplayLevel = DisplayTotalsOnly
	bs, err := s.Build(ctx, f)
	if err != nil {
		return BalanceSheetSummary{}, err
	}
	summary := BalanceSheetSummary{
		AsOf:             bs.AsOf,
		TotalAssets:      bs.TotalAssets,
		TotalLiabilities: bs.TotalLiabilities,
		TotalEquity:      bs.TotalEquity,
		WorkingCapital:   round2(bs.CurrentAssets.Total - bs.CurrentLiabilities.Total),
		IsBalanced:       bs.IsBalanced,
	}
	if bs.CurrentLiabilities.Total != 0 {
		summary.CurrentRatio = round2(bs.CurrentAssets.Total / bs.CurrentLiabilities.Total)
	}
	if bs.TotalEquity != 0 {
		summary.DebtToEquity = round2(bs.TotalLiabilities / bs.TotalEquity)
	}
	return summary, nil
}

// ComparePeriods runs the statement twice and lines up the deltas.
func (s *BalanceSheetService) ComparePeriods(ctx context.Context, current, previous BalanceSheetFilters) (BalanceSheetComparison, error) {
	cur, err := s.Build(ctx, current)
	if err != nil {
		return BalanceSheetComparison{}, err
	}
	prev, err := s.Build(ctx, previous)
	if err != nil {
		return BalanceSheetComparison{}, err
	}
	return BalanceSheetComparison{
		Current:  cur,
		Previous: prev,
		Lines: []ComparisonLine{
			compareLine("Total Assets", cur.TotalAssets, prev.TotalAssets),
			compareLine("Total Liabilities", cur.TotalLiabilities, prev.TotalLiabilities),
			compareLine("Total Equity", cur.TotalEquity, prev.TotalEquity),
			compareLine("Retained Earnings", cur.RetainedEarnings, prev.RetainedEarnings),
			compareLine("Working Capital",
				round2(cur.CurrentAssets.Total-cur.CurrentLiabilities.Total),
				round2(prev.CurrentAssets.Total-prev.CurrentLiabilities.Total)),
		},
	}, nil
}

// ValidateClassification checks the chart for gaps that make the
// statement unreliable: missing current/non-current flags and type
// mismatches between parent and child accounts.
func (s *BalanceSheetService) ValidateClassification(ctx context.Context) (ClassificationResult, error) {
	chart, err := s.accounts.List(ctx)
	if err != nil {
		return ClassificationResult{}, err
	}
	tree := accounts.NewTree(chart)
	result := ClassificationResult{Checked: len(chart)}
	seenTypes := map[accounts.AccountType]bool{}
	for _, a := range chart {
		seenTypes[a.Type] = true
		if a.IsCurrent == nil && (a.Type == accounts.TypeAsset || a.Type == accounts.TypeLiability) {
			result.Issues = append(result.Issues,
				fmt.Sprintf("account %s (%s) has no current/non-current flag, classification inferred from code", a.Code, a.Name))
		}
		if a.ParentID != nil {
			if parent, ok := tree.Get(*a.ParentID); ok && parent.Type != a.Type && !contraUnderAsset(parent.Type, a.Type) {
				result.Issues = append(result.Issues,
					fmt.Sprintf("account %s (%s) type %s differs from parent %s type %s", a.Code, a.Name, a.Type, parent.Code, parent.Type))
			}
		}
	}
	for _, required := range []accounts.AccountType{accounts.TypeAsset, accounts.TypeLiability, accounts.TypeEquity} {
		if !seenTypes[required] {
			result.Issues = append(result.Issues, fmt.Sprintf("chart has no active %s accounts", required))
		}
	}
	return result, nil
}

func contraUnderAsset(parent, child accounts.AccountType) bool {
	return parent == accounts.TypeAsset && child == accounts.TypeContraAsset
}

// isCurrent prefers the explicit flag and falls back to the code
// convention: 11xx current assets, 12xx fixed; 21xx current liabilities,
// 22xx long-term.
func isCurrent(a accounts.Account) bool {
	if a.IsCurrent != nil {
		return *a.IsCurrent
	}
	switch a.Type {
	case accounts.TypeAsset:
		return strings.HasPrefix(a.Code, "11")
	case accounts.TypeLiability:
		return strings.HasPrefix(a.Code, "21")
	}
	return false
}

// buildSection totals every account and then applies the display filter.
// Rows keep their own-line balances; parents-only rolls descendants into
// the section's top-level accounts.
func buildSection(label string, accts []accounts.Account, accountBalances map[int64]float64, tree *accounts.Tree, level DisplayLevel, includeZero bool) BalanceSheetSection {
	section := BalanceSheetSection{Label: label}
	inSection := make(map[int64]bool, len(accts))
	for _, a := range accts {
		inSection[a.ID] = true
		section.Total += accountBalances[a.ID]
	}
	section.Total = round2(section.Total)

	switch level {
	case DisplayTotalsOnly:
		return section
	case DisplayParentsOnly:
		for _, a := range accts {
			if a.ParentID != nil && inSection[*a.ParentID] {
				continue
			}
			rolled := accountBalances[a.ID]
			for _, d := range tree.Descendants(a.ID) {
				if inSection[d.ID] {
					rolled += accountBalances[d.ID]
				}
			}
			rolled = round2(rolled)
			if rolled == 0 && !includeZero {
				continue
			}
			section.Accounts = append(section.Accounts, AccountRow{AccountID: a.ID, Code: a.Code, Name: a.Name, Balance: rolled})
		}
	default:
		for _, a := range accts {
			balance := round2(accountBalances[a.ID])
			if balance == 0 && !includeZero {
				continue
			}
			section.Accounts = append(section.Accounts, AccountRow{AccountID: a.ID, Code: a.Code, Name: a.Name, Balance: balance})
		}
	}
	return section
}
