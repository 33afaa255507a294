package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository aggregates valued stock movements. The manufacturing report
// uses it as a cross-check against ledger balances, so both sides must
// measure the same product set.
type Repository interface {
	RawMaterialProductIDs(ctx context.Context) ([]int64, error)
	MovementValue(ctx context.Context, productIDs []int64, types []MovementType, from, to *time.Time, branchIDs []int64) (float64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) RawMaterialProductIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM products WHERE kind = 'raw_material' AND is_active`)
	if err != nil {
		return nil, fmt.Errorf("inventory: raw material products: %w", err)
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *repository) MovementValue(ctx context.Context, productIDs []int64, types []MovementType, from, to *time.Time, branchIDs []int64) (float64, error) {
	if len(productIDs) == 0 || len(types) == 0 {
		return 0, nil
	}
	typeStrings := make([]string, 0, len(types))
	for _, t := range types {
		typeStrings = append(typeStrings, string(t))
	}
	query := `SELECT COALESCE(SUM(value),0) FROM stock_movements WHERE product_id = ANY($1) AND type = ANY($2)`
	args := []any{productIDs, typeStrings}
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
	var total float64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("inventory: movement value: %w", err)
	}
	return total, nil
}
