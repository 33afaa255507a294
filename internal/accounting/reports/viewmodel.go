package reports

import (
	"context"
	"math"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/balances"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
)

// balanceEpsilon is the read-side tolerance for is-balanced flags.
// Writes are validated exactly; this only absorbs float aggregation dust.
const balanceEpsilon = 0.01

// DisplayLevel controls how much detail a statement emits. It filters
// rows only; totals are always computed from the full account set.
type DisplayLevel string

const (
	DisplayAll         DisplayLevel = "all"
	DisplayParentsOnly DisplayLevel = "parents_only"
	DisplayTotalsOnly  DisplayLevel = "totals_only"
)

// Period is a reporting window, inclusive on both ends.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// AccountRow is one statement line.
type AccountRow struct {
	AccountID int64   `json:"account_id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Balance   float64 `json:"balance"`
}

// ComparisonLine carries one figure across two periods.
type ComparisonLine struct {
	Label         string  `json:"label"`
	Current       float64 `json:"current"`
	Previous      float64 `json:"previous"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

func compareLine(label string, current, previous float64) ComparisonLine {
	change := round2(current - previous)
	var pct float64
	switch {
	case previous != 0:
		pct = round2(change / math.Abs(previous) * 100)
	case current != 0:
		pct = 100
	}
	return ComparisonLine{Label: label, Current: current, Previous: previous, Change: change, ChangePercent: pct}
}

// AccountSource is the slice of the accounts repository the report
// services read from.
type AccountSource interface {
	List(ctx context.Context) ([]accounts.Account, error)
	ListByType(ctx context.Context, types ...accounts.AccountType) ([]accounts.Account, error)
	ListByCodePrefix(ctx context.Context, prefixes []string, types ...accounts.AccountType) ([]accounts.Account, error)
}

// BalanceSource aggregates signed balances. Satisfied by
// *balances.Aggregator; report tests fake the underlying repository and
// keep the real arithmetic.
type BalanceSource interface {
	Balance(ctx context.Context, accts []accounts.Account, asOf time.Time, branchIDs []int64) (float64, error)
	BalancesByAccount(ctx context.Context, accts []accounts.Account, asOf time.Time, branchIDs []int64) (map[int64]float64, error)
	PeriodSum(ctx context.Context, accts []accounts.Account, from, to time.Time, side balances.Side, branchIDs []int64) (float64, error)
	PeriodNet(ctx context.Context, accts []accounts.Account, from, to time.Time, branchIDs []int64) (float64, error)
	PeriodSums(ctx context.Context, accts []accounts.Account, from, to *time.Time, branchIDs []int64) (map[int64]balances.Sums, error)
}

// JournalSource reads raw ledger lines for drill-down and transfer
// classification.
type JournalSource interface {
	ListByAccount(ctx context.Context, accountID int64, f journals.Filter) ([]journals.JournalLine, error)
	ListByFilter(ctx context.Context, f journals.Filter) ([]journals.JournalLine, error)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ratio guards division by zero; reports show 0 rather than Inf.
func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return round2(numerator / denominator * 100)
}
