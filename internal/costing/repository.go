package costing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetStandardCost(ctx context.Context, productID int64, asOf time.Time) (StandardCost, error)
	InsertEntry(ctx context.Context, entry ProductionCostEntry) (ProductionCostEntry, error)
	InsertVariances(ctx context.Context, variances []CostVariance) error
	ListVariancesByPeriod(ctx context.Context, from, to time.Time, branchIDs []int64) ([]CostVariance, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetStandardCost(ctx context.Context, productID int64, asOf time.Time) (StandardCost, error) {
	var std StandardCost
	err := r.db.QueryRow(ctx, `SELECT id, product_id, material_unit_cost, labor_unit_cost, overhead_unit_cost, effective_from, created_at
FROM standard_costs WHERE product_id=$1 AND effective_from <= $2 ORDER BY effective_from DESC LIMIT 1`, productID, asOf).
		Scan(&std.ID, &std.ProductID, &std.MaterialUnitCost, &std.LaborUnitCost, &std.OverheadUnitCost, &std.EffectiveFrom, &std.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StandardCost{}, ErrStandardCostNotFound
		}
		return StandardCost{}, fmt.Errorf("costing: get standard cost: %w", err)
	}
	return std, nil
}

func (r *repository) InsertEntry(ctx context.Context, entry ProductionCostEntry) (ProductionCostEntry, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO production_cost_entries
(product_id, production_date, quantity, material_cost, labor_cost, overhead_cost, branch_id)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at`,
		entry.ProductID, entry.ProductionDate, entry.Quantity, entry.MaterialCost, entry.LaborCost, entry.OverheadCost, entry.BranchID)
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return ProductionCostEntry{}, fmt.Errorf("costing: insert entry: %w", err)
	}
	return entry, nil
}

func (r *repository) InsertVariances(ctx context.Context, variances []CostVariance) error {
	for _, v := range variances {
		if _, err := r.db.Exec(ctx, `INSERT INTO cost_variances
(entry_id, product_id, category, standard_cost, actual_cost, variance_amount, variance_percentage, period)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			v.EntryID, v.ProductID, string(v.Category), v.StandardCost, v.ActualCost, v.VarianceAmount, v.VariancePercentage, v.Period); err != nil {
			return fmt.Errorf("costing: insert variance: %w", err)
		}
	}
	return nil
}

func (r *repository) ListVariancesByPeriod(ctx context.Context, from, to time.Time, branchIDs []int64) ([]CostVariance, error) {
	query := `SELECT v.id, v.entry_id, v.product_id, v.category, v.standard_cost, v.actual_cost, v.variance_amount, v.variance_percentage, v.period, v.created_at
FROM cost_variances v
JOIN production_cost_entries e ON e.id = v.entry_id
WHERE v.period >= $1 AND v.period <= $2`
	args := []any{from, to}
	if len(branchIDs) > 0 {
		args = append(args, branchIDs)
		query += fmt.Sprintf(" AND e.branch_id = ANY($%d)", len(args))
	}
	query += " ORDER BY v.period, v.id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("costing: list variances: %w", err)
	}
	defer rows.Close()

	var out []CostVariance
	for rows.Next() {
		var v CostVariance
		var category string
		if err := rows.Scan(&v.ID, &v.EntryID, &v.ProductID, &category, &v.StandardCost, &v.ActualCost, &v.VarianceAmount, &v.VariancePercentage, &v.Period, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.Category = CostCategory(category)
		out = append(out, v)
	}
	return out, rows.Err()
}
