package branches

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Branch, int, error)
	Get(ctx context.Context, id int64) (Branch, error)
	Create(ctx context.Context, branch Branch) (Branch, error)
	Update(ctx context.Context, id int64, branch Branch) error
	Deactivate(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const branchColumns = "id, code, name, address, is_active, created_at, updated_at"

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Branch, int, error) {
	filters = filters.Normalize()

	where := " WHERE 1=1"
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filters.Search != "" {
		p := arg("%" + filters.Search + "%")
		where += " AND (name ILIKE " + p + " OR code ILIKE " + p + ")"
	}
	if filters.IsActive != nil {
		where += " AND is_active = " + arg(*filters.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM branches"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("branches: count: %w", err)
	}

	query := "SELECT " + branchColumns + " FROM branches" + where +
		" ORDER BY " + sortOrder(filters.SortBy, filters.SortDir) +
		" LIMIT " + arg(filters.Limit) + " OFFSET " + arg(filters.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("branches: list: %w", err)
	}
	defer rows.Close()

	var out []Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Branch, error) {
	row := r.db.QueryRow(ctx, "SELECT "+branchColumns+" FROM branches WHERE id = $1", id)
	b, err := scanBranch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Branch{}, shared.ErrNotFound
	}
	return b, err
}

func (r *repository) Create(ctx context.Context, branch Branch) (Branch, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO branches (code, name, address, is_active)
		 VALUES ($1, $2, $3, TRUE)
		 RETURNING `+branchColumns,
		branch.Code, branch.Name, branch.Address,
	).Scan(&branch.ID, &branch.Code, &branch.Name, &branch.Address, &branch.IsActive, &branch.CreatedAt, &branch.UpdatedAt)
	if err != nil {
		return Branch{}, mapConstraint(err)
	}
	return branch, nil
}

func (r *repository) Update(ctx context.Context, id int64, branch Branch) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE branches SET code = $1, name = $2, address = $3, updated_at = NOW() WHERE id = $4`,
		branch.Code, branch.Name, branch.Address, id)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes: journal lines keep their branch id forever,
// so branch rows are never removed.
func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE branches SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("branches: deactivate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanBranch(row pgx.Row) (Branch, error) {
	var b Branch
	err := row.Scan(&b.ID, &b.Code, &b.Name, &b.Address, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "code":
		return "code " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "name " + dir
	}
}
