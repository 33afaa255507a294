package reports

import (
	"context"
	"testing"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/balances"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/mappings"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/cashbank"
)

func cashFlowChart(bankOpening float64) []accounts.Account {
	return []accounts.Account{
		{ID: 1, Code: "1120", Name: "Bank", Type: accounts.TypeAsset, IsCurrent: boolPtr(true), OpeningBalance: bankOpening, IsActive: true},
		{ID: 2, Code: "1130", Name: "Accounts Receivable", Type: accounts.TypeAsset, IsCurrent: boolPtr(true), IsActive: true},
		{ID: 3, Code: "4110", Name: "Sales", Type: accounts.TypeRevenue, IsActive: true},
		{ID: 4, Code: "6110", Name: "Operating Expenses", Type: accounts.TypeExpense, IsActive: true},
		{ID: 5, Code: "6310", Name: "Depreciation Expense", Type: accounts.TypeExpense, IsActive: true},
	}
}

func cashFlowRules() *fakeRules {
	return &fakeRules{
		sections: []mappings.CashFlowSection{{
			Key:   "operating",
			Label: "Operating Activities",
			Items: []mappings.CashFlowItem{
				{Key: "customer_receipts", Label: "Customer Receipts", Type: mappings.CashFlowInflow, Prefixes: []string{"4"}},
				{Key: "operating_payments", Label: "Operating Payments", Type: mappings.CashFlowOutflow, Prefixes: []string{"6"}},
			},
		}},
		cashPrefixes: []string{"112"},
		adjustments: []mappings.CashFlowAdjustmentRule{
			{Key: "depreciation", Label: "Depreciation", Kind: mappings.AdjustmentAddBack, Prefixes: []string{"631"}},
			{Key: "receivables", Label: "Accounts Receivable", Kind: mappings.AdjustmentWorkingCapital, Prefixes: []string{"113"}},
		},
	}
}

func cashFlowEntries() []cashEntry {
	return []cashEntry{
		{typ: cashbank.TypeBankIn, date: date(2025, 5, 1), amount: 500, offsetPrefix: "4110", cashPrefix: "1120", branchID: 1},
		{typ: cashbank.TypeBankIn, date: date(2025, 6, 5), amount: 1000, offsetPrefix: "4110", cashPrefix: "1120", branchID: 1},
		{typ: cashbank.TypeBankOut, date: date(2025, 6, 10), amount: 300, offsetPrefix: "6110", cashPrefix: "1120", branchID: 1},
	}
}

func newCashFlowService(bankOpening float64, balanceLines []ledgerLine, journalLines []journals.JournalLine, entries []cashEntry) *CashFlowService {
	chart := &fakeAccounts{chart: cashFlowChart(bankOpening)}
	agg := balances.NewAggregator(&fakeBalanceRepo{lines: balanceLines})
	income := NewIncomeStatementService(chart, agg)
	return NewCashFlowService(chart, agg, &fakeJournals{lines: journalLines}, cashFlowRules(), &fakeCash{entries: entries}, income)
}

func juneCashFlow() CashFlowFilters {
	return CashFlowFilters{From: date(2025, 6, 1), To: date(2025, 6, 30)}
}

func TestCashFlowDirect(t *testing.T) {
	svc := newCashFlowService(0, nil, nil, cashFlowEntries())

	st, err := svc.Build(context.Background(), juneCashFlow())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(st.Sections) != 1 || len(st.Sections[0].Items) != 2 {
		t.Fatalf("sections = %+v", st.Sections)
	}
	receipts := st.Sections[0].Items[0]
	if receipts.Amount != 1000 {
		t.Fatalf("receipts = %v, want 1000", receipts.Amount)
	}
	payments := st.Sections[0].Items[1]
	if payments.Amount != -300 {
		t.Fatalf("payments = %v, want -300", payments.Amount)
	}
	if st.NetChange != 700 {
		t.Fatalf("net change = %v, want 700", st.NetChange)
	}
	if st.OpeningBalance != 500 {
		t.Fatalf("opening = %v, want the pre-window 500", st.OpeningBalance)
	}
	if st.ClosingBalance != 1200 {
		t.Fatalf("closing = %v, want 1200", st.ClosingBalance)
	}
}

func TestCashFlowOpeningIncludesAccountSeed(t *testing.T) {
	svc := newCashFlowService(250, nil, nil, cashFlowEntries())

	st, err := svc.Build(context.Background(), juneCashFlow())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if st.OpeningBalance != 750 {
		t.Fatalf("opening = %v, want seed 250 plus 500 of pre-window cash", st.OpeningBalance)
	}
}

// Transfer journal lines bypass the cash modules but still move cash;
// they must fold into the matching statement items.
func TestCashFlowIncludesTransferJournals(t *testing.T) {
	transfers := []journals.JournalLine{
		{AccountID: 4, Date: date(2025, 6, 18), Debit: 100, JournalType: journals.JournalTypeTransfer, BranchID: int64Ptr(1)},
		{AccountID: 3, Date: date(2025, 6, 19), Credit: 50, JournalType: journals.JournalTypeTransfer, BranchID: int64Ptr(1)},
	}
	svc := newCashFlowService(0, nil, transfers, cashFlowEntries())

	st, err := svc.Build(context.Background(), juneCashFlow())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	receipts := st.Sections[0].Items[0]
	if receipts.Amount != 1050 {
		t.Fatalf("receipts = %v, want 1050 with the revenue transfer", receipts.Amount)
	}
	payments := st.Sections[0].Items[1]
	if payments.Amount != -400 {
		t.Fatalf("payments = %v, want -400 with the expense transfer", payments.Amount)
	}
	if st.NetChange != 650 {
		t.Fatalf("net change = %v, want 650", st.NetChange)
	}
}

func TestCashFlowBranchAdditivity(t *testing.T) {
	entries := append(cashFlowEntries(),
		cashEntry{typ: cashbank.TypeCashIn, date: date(2025, 6, 8), amount: 400, offsetPrefix: "4120", cashPrefix: "1121", branchID: 2},
		cashEntry{typ: cashbank.TypeCashOut, date: date(2025, 6, 9), amount: 150, offsetPrefix: "6210", cashPrefix: "1121", branchID: 2},
	)
	svc := newCashFlowService(0, nil, nil, entries)
	ctx := context.Background()

	branch1, err := svc.Build(ctx, CashFlowFilters{From: date(2025, 6, 1), To: date(2025, 6, 30), BranchIDs: []int64{1}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	branch2, err := svc.Build(ctx, CashFlowFilters{From: date(2025, 6, 1), To: date(2025, 6, 30), BranchIDs: []int64{2}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	all, err := svc.Build(ctx, juneCashFlow())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := round2(branch1.NetChange + branch2.NetChange); got != all.NetChange {
		t.Fatalf("branch sums %v differ from combined %v", got, all.NetChange)
	}
	if branch2.NetChange != 250 {
		t.Fatalf("branch 2 net = %v, want 250", branch2.NetChange)
	}
}

func TestCashFlowIndirect(t *testing.T) {
	balanceLines := []ledgerLine{
		{accountID: 3, date: date(2025, 6, 5), credit: 1000, branchID: 1},
		{accountID: 4, date: date(2025, 6, 10), debit: 400, branchID: 1},
		{accountID: 5, date: date(2025, 6, 30), debit: 50, branchID: 1},
		{accountID: 2, date: date(2025, 6, 15), debit: 200, branchID: 1},
	}
	svc := newCashFlowService(0, balanceLines, nil, nil)

	st, err := svc.BuildIndirect(context.Background(), juneCashFlow())
	if err != nil {
		t.Fatalf("build indirect: %v", err)
	}
	if st.NetIncome != 550 {
		t.Fatalf("net income = %v, want 550", st.NetIncome)
	}
	if len(st.Adjustments) != 2 {
		t.Fatalf("adjustments = %+v", st.Adjustments)
	}
	if st.Adjustments[0].Amount != 50 {
		t.Fatalf("depreciation add-back = %v, want 50", st.Adjustments[0].Amount)
	}
	if st.Adjustments[1].Amount != -200 {
		t.Fatalf("receivables delta = %v, want -200 for growth in receivables", st.Adjustments[1].Amount)
	}
	if st.NetOperating != 400 {
		t.Fatalf("net operating = %v, want 400", st.NetOperating)
	}
}

func TestCashFlowRejectsInvalidWindow(t *testing.T) {
	svc := newCashFlowService(0, nil, nil, nil)

	if _, err := svc.Build(context.Background(), CashFlowFilters{}); err != shared.ErrInvalidDateRange {
		t.Fatalf("err = %v, want ErrInvalidDateRange", err)
	}
	_, err := svc.BuildIndirect(context.Background(), CashFlowFilters{From: date(2025, 6, 30), To: date(2025, 6, 1)})
	if err != shared.ErrInvalidDateRange {
		t.Fatalf("err = %v, want ErrInvalidDateRange", err)
	}
}
