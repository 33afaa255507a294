package reports

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// LedgerFilters scopes drill-down queries. From may be zero to read
// from inception.
type LedgerFilters struct {
	From        *time.Time
	To          time.Time
	JournalType journals.JournalType
	BranchIDs   []int64
}

// AccountLedger is one account's lines with running totals.
type AccountLedger struct {
	Account     accounts.Account       `json:"account"`
	Lines       []journals.JournalLine `json:"lines"`
	TotalDebit  float64                `json:"total_debit"`
	TotalCredit float64                `json:"total_credit"`
	Balance     float64                `json:"balance"`
}

// ChildLedger is one child account inside a parent group.
type ChildLedger struct {
	Account     accounts.Account       `json:"account"`
	Lines       []journals.JournalLine `json:"lines"`
	TotalDebit  float64                `json:"total_debit"`
	TotalCredit float64                `json:"total_credit"`
	Balance     float64                `json:"balance"`
}

// ParentLedger aggregates a parent account and its active children.
type ParentLedger struct {
	Account     accounts.Account `json:"account"`
	Children    []ChildLedger    `json:"children"`
	TotalDebit  float64          `json:"total_debit"`
	TotalCredit float64          `json:"total_credit"`
	Balance     float64          `json:"balance"`
}

// LedgerSummary is the integrity view over a window.
type LedgerSummary struct {
	EntryCount  int     `json:"entry_count"`
	TotalDebit  float64 `json:"total_debit"`
	TotalCredit float64 `json:"total_credit"`
	Net         float64 `json:"net"`
	IsBalanced  bool    `json:"is_balanced"`
}

// LedgerQueryService answers drill-down questions: which lines produced
// a statement figure, grouped how the chart is grouped.
type LedgerQueryService struct {
	accounts AccountSource
	journals JournalSource
}

func NewLedgerQueryService(accounts AccountSource, journals JournalSource) *LedgerQueryService {
	return &LedgerQueryService{accounts: accounts, journals: journals}
}

// AccountEntries lists one account's lines chronologically with totals.
// With From unset the balance includes the opening balance; with a
// window it is pure period movement under the account's convention.
func (s *LedgerQueryService) AccountEntries(ctx context.Context, accountID int64, f LedgerFilters) (AccountLedger, error) {
	chart, err := s.accounts.List(ctx)
	if err != nil {
		return AccountLedger{}, err
	}
	var account accounts.Account
	found := false
	for _, a := range chart {
		if a.ID == accountID {
			account = a
			found = true
			break
		}
	}
	if !found {
		return AccountLedger{}, shared.ErrAccountNotFound
	}

	lines, err := s.journals.ListByAccount(ctx, accountID, journals.Filter{
		From:        f.From,
		To:          &f.To,
		JournalType: f.JournalType,
		BranchIDs:   f.BranchIDs,
	})
	if err != nil {
		return AccountLedger{}, err
	}

	out := AccountLedger{Account: account, Lines: lines}
	for _, l := range lines {
		out.TotalDebit += l.Debit
		out.TotalCredit += l.Credit
	}
	out.TotalDebit = round2(out.TotalDebit)
	out.TotalCredit = round2(out.TotalCredit)
	if f.From == nil {
		out.Balance = round2(account.SignedBalance(out.TotalDebit, out.TotalCredit))
	} else if account.Type.DebitNormal() {
		out.Balance = round2(out.TotalDebit - out.TotalCredit)
	} else {
		out.Balance = round2(out.TotalCredit - out.TotalDebit)
	}
	return out, nil
}

// GroupedByParent returns window activity arranged under each account's
// direct parent; top-level accounts group under themselves. Parent
// totals include the parent's own lines plus all grouped children.
func (s *LedgerQueryService) GroupedByParent(ctx context.Context, f LedgerFilters) ([]ParentLedger, error) {
	chart, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	tree := accounts.NewTree(chart)

	lines, err := s.journals.ListByFilter(ctx, journals.Filter{
		From:        f.From,
		To:          &f.To,
		JournalType: f.JournalType,
		BranchIDs:   f.BranchIDs,
	})
	if err != nil {
		return nil, err
	}

	byAccount := map[int64][]journals.JournalLine{}
	for _, line := range lines {
		byAccount[line.AccountID] = append(byAccount[line.AccountID], line)
	}

	groups := map[int64]*ParentLedger{}
	for accountID, accountLines := range byAccount {
		account, ok := tree.Get(accountID)
		if !ok {
			continue
		}
		parent := tree.ParentOf(accountID)
		grp, ok := groups[parent.ID]
		if !ok {
			grp = &ParentLedger{Account: parent}
			groups[parent.ID] = grp
		}
		child := ChildLedger{Account: account, Lines: accountLines}
		for _, l := range accountLines {
			child.TotalDebit += l.Debit
			child.TotalCredit += l.Credit
		}
		child.TotalDebit = round2(child.TotalDebit)
		child.TotalCredit = round2(child.TotalCredit)
		if account.Type.DebitNormal() {
			child.Balance = round2(child.TotalDebit - child.TotalCredit)
		} else {
			child.Balance = round2(child.TotalCredit - child.TotalDebit)
		}
		grp.Children = append(grp.Children, child)
		grp.TotalDebit = round2(grp.TotalDebit + child.TotalDebit)
		grp.TotalCredit = round2(grp.TotalCredit + child.TotalCredit)
		grp.Balance = round2(grp.Balance + child.Balance)
	}

	out := make([]ParentLedger, 0, len(groups))
	for _, grp := range groups {
		sort.Slice(grp.Children, func(i, j int) bool { return grp.Children[i].Account.Code < grp.Children[j].Account.Code })
		out = append(out, *grp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account.Code < out[j].Account.Code })
	return out, nil
}

// Summary totals the window. A net of a cent or more means some group
// was written outside the posting path and needs investigation.
func (s *LedgerQueryService) Summary(ctx context.Context, f LedgerFilters) (LedgerSummary, error) {
	lines, err := s.journals.ListByFilter(ctx, journals.Filter{
		From:        f.From,
		To:          &f.To,
		JournalType: f.JournalType,
		BranchIDs:   f.BranchIDs,
	})
	if err != nil {
		return LedgerSummary{}, err
	}
	summary := LedgerSummary{EntryCount: len(lines)}
	for _, l := range lines {
		summary.TotalDebit += l.Debit
		summary.TotalCredit += l.Credit
	}
	summary.TotalDebit = round2(summary.TotalDebit)
	summary.TotalCredit = round2(summary.TotalCredit)
	summary.Net = round2(summary.TotalDebit - summary.TotalCredit)
	summary.IsBalanced = math.Abs(summary.Net) < balanceEpsilon
	return summary, nil
}
