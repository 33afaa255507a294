package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

const accountColumns = `id, code, name, type, parent_id, is_current, opening_balance, is_active, created_at, updated_at`

type Repository interface {
	List(ctx context.Context) ([]Account, error)
	Get(ctx context.Context, id int64) (Account, error)
	ListByType(ctx context.Context, types ...AccountType) ([]Account, error)
	ListByCodePrefix(ctx context.Context, prefixes []string, types ...AccountType) ([]Account, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE is_active ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("accounts: list: %w", err)
	}
	defer rows.Close()
	return scanAccounts(rows)
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("accounts: get: %w", err)
	}
	return a, nil
}

func (r *repository) ListByType(ctx context.Context, types ...AccountType) ([]Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE is_active AND type = ANY($1) ORDER BY code`,
		typeStrings(types))
	if err != nil {
		return nil, fmt.Errorf("accounts: list by type: %w", err)
	}
	defer rows.Close()
	return scanAccounts(rows)
}

func (r *repository) ListByCodePrefix(ctx context.Context, prefixes []string, types ...AccountType) ([]Account, error) {
	if len(prefixes) == 0 {
		return nil, nil
	}
	patterns := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		patterns = append(patterns, strings.TrimSpace(p)+"%")
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE is_active AND code LIKE ANY($1)`
	args := []any{patterns}
	if len(types) > 0 {
		query += ` AND type = ANY($2)`
		args = append(args, typeStrings(types))
	}
	query += ` ORDER BY code`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("accounts: list by prefix: %w", err)
	}
	defer rows.Close()
	return scanAccounts(rows)
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("accounts: set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func typeStrings(types []AccountType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

func scanAccounts(rows pgx.Rows) ([]Account, error) {
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.IsCurrent, &a.OpeningBalance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
