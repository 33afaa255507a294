package reports

import (
	"context"
	"errors"
	"testing"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

func drillDownChart() []accounts.Account {
	return []accounts.Account{
		{ID: 1, Code: "1100", Name: "Current Assets", Type: accounts.TypeAsset, IsCurrent: boolPtr(true), IsActive: true},
		{ID: 2, Code: "1110", Name: "Cash", Type: accounts.TypeAsset, ParentID: int64Ptr(1), OpeningBalance: 100, IsActive: true},
		{ID: 3, Code: "1120", Name: "Bank", Type: accounts.TypeAsset, ParentID: int64Ptr(1), IsActive: true},
		{ID: 4, Code: "4110", Name: "Sales", Type: accounts.TypeRevenue, IsActive: true},
	}
}

func drillDownLines() []journals.JournalLine {
	return []journals.JournalLine{
		{ID: 1, AccountID: 2, Date: date(2025, 6, 5), Debit: 500, JournalType: journals.JournalTypeSales},
		{ID: 2, AccountID: 4, Date: date(2025, 6, 5), Credit: 500, JournalType: journals.JournalTypeSales},
		{ID: 3, AccountID: 3, Date: date(2025, 6, 10), Debit: 200, JournalType: journals.JournalTypeTransfer},
		{ID: 4, AccountID: 2, Date: date(2025, 6, 10), Credit: 200, JournalType: journals.JournalTypeTransfer},
		{ID: 5, AccountID: 1, Date: date(2025, 6, 12), Debit: 50, JournalType: journals.JournalTypeGeneral},
		{ID: 6, AccountID: 4, Date: date(2025, 6, 12), Credit: 50, JournalType: journals.JournalTypeGeneral},
	}
}

func newLedgerQueryService(lines []journals.JournalLine) *LedgerQueryService {
	return NewLedgerQueryService(&fakeAccounts{chart: drillDownChart()}, &fakeJournals{lines: lines})
}

func TestAccountEntriesIncludesOpeningWithoutFrom(t *testing.T) {
	svc := newLedgerQueryService(drillDownLines())

	ledger, err := svc.AccountEntries(context.Background(), 2, LedgerFilters{To: date(2025, 6, 30)})
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(ledger.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(ledger.Lines))
	}
	if ledger.TotalDebit != 500 || ledger.TotalCredit != 200 {
		t.Fatalf("totals = %v/%v, want 500/200", ledger.TotalDebit, ledger.TotalCredit)
	}
	if ledger.Balance != 400 {
		t.Fatalf("balance = %v, want 400 including the 100 opening", ledger.Balance)
	}
}

func TestAccountEntriesWindowedBalanceIsPureMovement(t *testing.T) {
	svc := newLedgerQueryService(drillDownLines())
	from := date(2025, 6, 1)

	ledger, err := svc.AccountEntries(context.Background(), 2, LedgerFilters{From: &from, To: date(2025, 6, 30)})
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if ledger.Balance != 300 {
		t.Fatalf("balance = %v, want 300 without the opening", ledger.Balance)
	}
}

func TestAccountEntriesJournalTypeFilter(t *testing.T) {
	svc := newLedgerQueryService(drillDownLines())

	ledger, err := svc.AccountEntries(context.Background(), 2, LedgerFilters{
		To:          date(2025, 6, 30),
		JournalType: journals.JournalTypeTransfer,
	})
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(ledger.Lines) != 1 || ledger.Lines[0].Credit != 200 {
		t.Fatalf("lines = %+v, want only the transfer credit", ledger.Lines)
	}
}

func TestAccountEntriesUnknownAccount(t *testing.T) {
	svc := newLedgerQueryService(drillDownLines())

	_, err := svc.AccountEntries(context.Background(), 99, LedgerFilters{To: date(2025, 6, 30)})
	if !errors.Is(err, shared.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestGroupedByParentRollsUpChildren(t *testing.T) {
	svc := newLedgerQueryService(drillDownLines())

	groups, err := svc.GroupedByParent(context.Background(), LedgerFilters{To: date(2025, 6, 30)})
	if err != nil {
		t.Fatalf("grouped: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}

	assetGroup := groups[0]
	if assetGroup.Account.Code != "1100" {
		t.Fatalf("first group = %s, want 1100 (code order)", assetGroup.Account.Code)
	}
	// The parent's own line groups under itself alongside the children.
	if len(assetGroup.Children) != 3 {
		t.Fatalf("children = %d, want 3", len(assetGroup.Children))
	}
	for i, want := range []string{"1100", "1110", "1120"} {
		if assetGroup.Children[i].Account.Code != want {
			t.Fatalf("child %d = %s, want %s", i, assetGroup.Children[i].Account.Code, want)
		}
	}
	if assetGroup.TotalDebit != 750 || assetGroup.TotalCredit != 200 {
		t.Fatalf("group totals = %v/%v, want 750/200", assetGroup.TotalDebit, assetGroup.TotalCredit)
	}
	if assetGroup.Balance != 550 {
		t.Fatalf("group balance = %v, want 550", assetGroup.Balance)
	}

	salesGroup := groups[1]
	if salesGroup.Account.Code != "4110" || salesGroup.Balance != 550 {
		t.Fatalf("sales group = %s/%v, want 4110/550", salesGroup.Account.Code, salesGroup.Balance)
	}
}

func TestLedgerSummaryBalanced(t *testing.T) {
	svc := newLedgerQueryService(drillDownLines())

	summary, err := svc.Summary(context.Background(), LedgerFilters{To: date(2025, 6, 30)})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.EntryCount != 6 {
		t.Fatalf("entry count = %d, want 6", summary.EntryCount)
	}
	if summary.TotalDebit != 750 || summary.TotalCredit != 750 {
		t.Fatalf("totals = %v/%v, want 750/750", summary.TotalDebit, summary.TotalCredit)
	}
	if !summary.IsBalanced || summary.Net != 0 {
		t.Fatalf("expected balanced window, net = %v", summary.Net)
	}
}

func TestLedgerSummaryFlagsImbalance(t *testing.T) {
	lines := append(drillDownLines(), journals.JournalLine{ID: 7, AccountID: 3, Date: date(2025, 6, 20), Debit: 75, JournalType: journals.JournalTypeGeneral})
	svc := newLedgerQueryService(lines)

	summary, err := svc.Summary(context.Background(), LedgerFilters{To: date(2025, 6, 30)})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.IsBalanced {
		t.Fatal("one-sided line must flip is_balanced")
	}
	if summary.Net != 75 {
		t.Fatalf("net = %v, want 75", summary.Net)
	}
}
