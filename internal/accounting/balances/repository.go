package balances

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Sums holds period debit/credit totals for one account.
type Sums struct {
	Debit  float64
	Credit float64
}

// Repository aggregates ledger lines in SQL. Line sets are never
// materialized in Go; only grouped sums cross the wire.
type Repository interface {
	SumByAccount(ctx context.Context, accountIDs []int64, from, to *time.Time, branchIDs []int64) (map[int64]Sums, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) SumByAccount(ctx context.Context, accountIDs []int64, from, to *time.Time, branchIDs []int64) (map[int64]Sums, error) {
	if len(accountIDs) == 0 {
		return map[int64]Sums{}, nil
	}
	query := `SELECT account_id, COALESCE(SUM(debit),0), COALESCE(SUM(credit),0) FROM journal_lines WHERE account_id = ANY($1)`
	args := []any{accountIDs}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	if len(branchIDs) > 0 {
		args = append(args, branchIDs)
		query += fmt.Sprintf(" AND branch_id = ANY($%d)", len(args))
	}
	query += " GROUP BY account_id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("balances: sum by account: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]Sums)
	for rows.Next() {
		var id int64
		var s Sums
		if err := rows.Scan(&id, &s.Debit, &s.Credit); err != nil {
			return nil, err
		}
		out[id] = s
	}
	return out, rows.Err()
}
