package reports

import (
	"context"
	"testing"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/balances"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

func incomeStatementChart() []accounts.Account {
	return []accounts.Account{
		{ID: 1, Code: "4100", Name: "Sales", Type: accounts.TypeRevenue, IsActive: true},
		{ID: 2, Code: "4110", Name: "Product Sales", Type: accounts.TypeRevenue, ParentID: int64Ptr(1), IsActive: true},
		{ID: 3, Code: "4120", Name: "Service Revenue", Type: accounts.TypeRevenue, ParentID: int64Ptr(1), IsActive: true},
		{ID: 4, Code: "5110", Name: "Cost of Goods Sold", Type: accounts.TypeExpense, IsActive: true},
		{ID: 5, Code: "6110", Name: "Salaries", Type: accounts.TypeExpense, IsActive: true},
		{ID: 6, Code: "6120", Name: "Rent", Type: accounts.TypeExpense, IsActive: true},
		{ID: 7, Code: "7110", Name: "Interest Income", Type: accounts.TypeRevenue, IsActive: true},
		{ID: 8, Code: "7210", Name: "Foreign Exchange Loss", Type: accounts.TypeExpense, IsActive: true},
		{ID: 9, Code: "8110", Name: "Miscellaneous Expense", Type: accounts.TypeExpense, IsActive: true},
		{ID: 10, Code: "9110", Name: "Income Tax", Type: accounts.TypeExpense, IsActive: true},
	}
}

func incomeStatementLines() []ledgerLine {
	return []ledgerLine{
		{accountID: 2, date: date(2025, 6, 5), credit: 900, branchID: 1},
		{accountID: 3, date: date(2025, 6, 12), credit: 100, branchID: 1},
		{accountID: 4, date: date(2025, 6, 15), debit: 400, branchID: 1},
		{accountID: 5, date: date(2025, 6, 20), debit: 250, branchID: 1},
		{accountID: 7, date: date(2025, 6, 25), credit: 50, branchID: 1},
		{accountID: 8, date: date(2025, 6, 26), debit: 30, branchID: 1},
		{accountID: 9, date: date(2025, 6, 27), debit: 20, branchID: 1},
		{accountID: 10, date: date(2025, 6, 30), debit: 66, branchID: 1},
	}
}

func newIncomeStatementService(lines []ledgerLine) *IncomeStatementService {
	agg := balances.NewAggregator(&fakeBalanceRepo{lines: lines})
	return NewIncomeStatementService(&fakeAccounts{chart: incomeStatementChart()}, agg)
}

func juneFilters() IncomeStatementFilters {
	return IncomeStatementFilters{From: date(2025, 6, 1), To: date(2025, 6, 30)}
}

func TestIncomeStatementLevels(t *testing.T) {
	svc := newIncomeStatementService(incomeStatementLines())

	st, err := svc.Build(context.Background(), juneFilters())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if st.SalesRevenue.Total != 1000 {
		t.Fatalf("sales = %v, want 1000", st.SalesRevenue.Total)
	}
	if st.GrossProfit != 600 {
		t.Fatalf("gross profit = %v, want 600", st.GrossProfit)
	}
	if st.OperatingIncome != 350 {
		t.Fatalf("operating income = %v, want 350", st.OperatingIncome)
	}
	if st.OtherIncome.Total != 50 || st.OtherExpenses.Total != 50 {
		t.Fatalf("other income/expenses = %v/%v, want 50/50", st.OtherIncome.Total, st.OtherExpenses.Total)
	}
	if st.IncomeBeforeTax != 350 {
		t.Fatalf("income before tax = %v, want 350", st.IncomeBeforeTax)
	}
	if st.NetIncome != 284 {
		t.Fatalf("net income = %v, want 284", st.NetIncome)
	}
	if st.GrossMargin != 60 || st.OperatingMargin != 35 || st.NetMargin != 28.4 {
		t.Fatalf("margins = %v/%v/%v", st.GrossMargin, st.OperatingMargin, st.NetMargin)
	}
}

// A revenue account with code prefix 7 must never leak into other
// expenses even though prefix 7 appears in both section definitions.
func TestIncomeStatementTypeDisambiguatesPrefix(t *testing.T) {
	svc := newIncomeStatementService(incomeStatementLines())

	st, err := svc.Build(context.Background(), juneFilters())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, row := range st.OtherExpenses.Accounts {
		if row.Code == "7110" {
			t.Fatal("interest income classified as an expense")
		}
	}
	for _, row := range st.OtherIncome.Accounts {
		if row.Code == "7210" {
			t.Fatal("forex loss classified as income")
		}
	}
}

func TestIncomeStatementSuppressesZeroRows(t *testing.T) {
	svc := newIncomeStatementService(incomeStatementLines())

	st, err := svc.Build(context.Background(), juneFilters())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, row := range st.OperatingExpenses.Accounts {
		if row.Code == "6120" {
			t.Fatal("rent had no activity and must be suppressed")
		}
	}
	if len(st.OperatingExpenses.Accounts) != 1 {
		t.Fatalf("operating expense rows = %d, want 1", len(st.OperatingExpenses.Accounts))
	}
}

func TestIncomeStatementPercentOfRevenue(t *testing.T) {
	svc := newIncomeStatementService(incomeStatementLines())

	st, err := svc.Build(context.Background(), juneFilters())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(st.CostOfGoodsSold.Accounts) != 1 {
		t.Fatalf("cogs rows = %d", len(st.CostOfGoodsSold.Accounts))
	}
	if got := st.CostOfGoodsSold.Accounts[0].PercentOfRevenue; got != 40 {
		t.Fatalf("cogs revenue share = %v, want 40", got)
	}
}

func TestIncomeStatementWindowExcludesOutsideLines(t *testing.T) {
	lines := append(incomeStatementLines(), ledgerLine{accountID: 2, date: date(2025, 7, 1), credit: 5000, branchID: 1})
	svc := newIncomeStatementService(lines)

	st, err := svc.Build(context.Background(), juneFilters())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if st.SalesRevenue.Total != 1000 {
		t.Fatalf("sales = %v, July line leaked into June", st.SalesRevenue.Total)
	}
}

func TestIncomeStatementRejectsInvalidWindow(t *testing.T) {
	svc := newIncomeStatementService(nil)

	_, err := svc.Build(context.Background(), IncomeStatementFilters{From: date(2025, 6, 30), To: date(2025, 6, 1)})
	if err != shared.ErrInvalidDateRange {
		t.Fatalf("err = %v, want ErrInvalidDateRange", err)
	}
}

func TestIncomeStatementGroupedByParent(t *testing.T) {
	svc := newIncomeStatementService(incomeStatementLines())

	groups, err := svc.GroupedByParent(context.Background(), juneFilters())
	if err != nil {
		t.Fatalf("grouped: %v", err)
	}

	var sales *ParentGroup
	for i := range groups {
		if groups[i].Parent.Code == "4100" {
			sales = &groups[i]
			break
		}
	}
	if sales == nil {
		t.Fatal("no group for parent 4100")
	}
	if len(sales.Children) != 2 {
		t.Fatalf("sales children = %d, want 2", len(sales.Children))
	}
	// The group balance is the inclusive roll-up; summing it with the
	// children again would double count.
	if sales.Balance != 1000 || sales.Parent.Balance != 1000 {
		t.Fatalf("sales group balance = %v, want 1000", sales.Balance)
	}
	var childSum float64
	for _, c := range sales.Children {
		childSum += c.Amount
	}
	if childSum != sales.Balance {
		t.Fatalf("children sum %v differs from parent roll-up %v", childSum, sales.Balance)
	}
}

func TestIncomeStatementComparePeriods(t *testing.T) {
	svc := newIncomeStatementService(incomeStatementLines())

	cmp, err := svc.ComparePeriods(context.Background(), juneFilters(),
		IncomeStatementFilters{From: date(2025, 5, 1), To: date(2025, 5, 31)})
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if cmp.Previous.NetIncome != 0 {
		t.Fatalf("previous net income = %v, want 0", cmp.Previous.NetIncome)
	}
	for _, line := range cmp.Lines {
		if line.Label != "Sales Revenue" {
			continue
		}
		if line.Change != 1000 {
			t.Fatalf("sales change = %v, want 1000", line.Change)
		}
		if line.ChangePercent != 100 {
			t.Fatalf("sales change pct = %v, want 100 against an empty base", line.ChangePercent)
		}
	}
}
