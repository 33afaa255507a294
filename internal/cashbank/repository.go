package cashbank

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository aggregates cash transactions for the cash-flow report. All
// sums join the offset (or cash) account to match on its code prefix.
type Repository interface {
	// SumByOffsetPrefix totals transactions whose offset account code
	// starts with any prefix, for the given movement types.
	SumByOffsetPrefix(ctx context.Context, prefixes []string, types []TransactionType, from, to time.Time, branchIDs []int64) (float64, error)
	// SumByCashPrefix totals transactions whose cash account code starts
	// with any prefix. Used for opening/closing cash balances.
	SumByCashPrefix(ctx context.Context, prefixes []string, types []TransactionType, from, to *time.Time, branchIDs []int64) (float64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) SumByOffsetPrefix(ctx context.Context, prefixes []string, types []TransactionType, from, to time.Time, branchIDs []int64) (float64, error) {
	return r.sum(ctx, "t.offset_account_id", prefixes, types, &from, &to, branchIDs)
}

func (r *repository) SumByCashPrefix(ctx context.Context, prefixes []string, types []TransactionType, from, to *time.Time, branchIDs []int64) (float64, error) {
	return r.sum(ctx, "t.account_id", prefixes, types, from, to, branchIDs)
}

func (r *repository) sum(ctx context.Context, joinColumn string, prefixes []string, types []TransactionType, from, to *time.Time, branchIDs []int64) (float64, error) {
	if len(prefixes) == 0 || len(types) == 0 {
		return 0, nil
	}
	patterns := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		patterns = append(patterns, strings.TrimSpace(p)+"%")
	}
	typeStrings := make([]string, 0, len(types))
	for _, t := range types {
		typeStrings = append(typeStrings, string(t))
	}
	query := `SELECT COALESCE(SUM(t.amount),0)
FROM cash_bank_transactions t
JOIN accounts a ON a.id = ` + joinColumn + `
WHERE a.code LIKE ANY($1) AND t.type = ANY($2)`
	args := []any{patterns, typeStrings}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND t.date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND t.date <= $%d", len(args))
	}
	if len(branchIDs) > 0 {
		args = append(args, branchIDs)
		query += fmt.Sprintf(" AND t.branch_id = ANY($%d)", len(args))
	}
	var total float64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("cashbank: sum: %w", err)
	}
	return total, nil
}
