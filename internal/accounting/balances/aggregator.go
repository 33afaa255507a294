package balances

import (
	"context"
	"math"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
)

// Side selects which column a period sum reads.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// Aggregator computes signed balances over sets of accounts. Sign follows
// the normal-balance convention: debit-normal types grow with debits,
// credit-normal types grow with credits. Empty account sets yield zero.
type Aggregator struct {
	repo Repository
}

func NewAggregator(repo Repository) *Aggregator {
	return &Aggregator{repo: repo}
}

// Balance returns the combined signed balance of the accounts as of the
// given date, opening balances included once per account.
func (a *Aggregator) Balance(ctx context.Context, accts []accounts.Account, asOf time.Time, branchIDs []int64) (float64, error) {
	byAccount, err := a.BalancesByAccount(ctx, accts, asOf, branchIDs)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, v := range byAccount {
		total += v
	}
	return round2(total), nil
}

// BalancesByAccount returns the per-account signed balance as of the date.
// Accounts with no activity still appear, carrying only opening balance.
func (a *Aggregator) BalancesByAccount(ctx context.Context, accts []accounts.Account, asOf time.Time, branchIDs []int64) (map[int64]float64, error) {
	if len(accts) == 0 {
		return map[int64]float64{}, nil
	}
	sums, err := a.repo.SumByAccount(ctx, ids(accts), nil, &asOf, branchIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]float64, len(accts))
	for _, acc := range accts {
		s := sums[acc.ID]
		out[acc.ID] = round2(acc.SignedBalance(s.Debit, s.Credit))
	}
	return out, nil
}

// PeriodSum totals one side of the ledger across the accounts for a
// window. Opening balances are excluded; this is pure movement.
func (a *Aggregator) PeriodSum(ctx context.Context, accts []accounts.Account, from, to time.Time, side Side, branchIDs []int64) (float64, error) {
	if len(accts) == 0 {
		return 0, nil
	}
	sums, err := a.repo.SumByAccount(ctx, ids(accts), &from, &to, branchIDs)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, s := range sums {
		if side == SideCredit {
			total += s.Credit
		} else {
			total += s.Debit
		}
	}
	return round2(total), nil
}

// PeriodNet totals normal-balance signed movement for a window, without
// opening balances. Used for expense actuals and net-change figures.
func (a *Aggregator) PeriodNet(ctx context.Context, accts []accounts.Account, from, to time.Time, branchIDs []int64) (float64, error) {
	if len(accts) == 0 {
		return 0, nil
	}
	sums, err := a.repo.SumByAccount(ctx, ids(accts), &from, &to, branchIDs)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, acc := range accts {
		s := sums[acc.ID]
		if acc.Type.DebitNormal() {
			total += s.Debit - s.Credit
		} else {
			total += s.Credit - s.Debit
		}
	}
	return round2(total), nil
}

// PeriodSums exposes raw per-account movement for callers that need both
// sides at once (statement rows, drill-down groups).
func (a *Aggregator) PeriodSums(ctx context.Context, accts []accounts.Account, from, to *time.Time, branchIDs []int64) (map[int64]Sums, error) {
	if len(accts) == 0 {
		return map[int64]Sums{}, nil
	}
	return a.repo.SumByAccount(ctx, ids(accts), from, to, branchIDs)
}

func ids(accts []accounts.Account) []int64 {
	out := make([]int64, 0, len(accts))
	for _, a := range accts {
		out = append(out, a.ID)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
