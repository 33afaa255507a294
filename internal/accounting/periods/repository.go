package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

type Repository interface {
	FindOpenByDate(ctx context.Context, date time.Time) (Period, error)
	Close(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// FindOpenByDate returns the open period covering the supplied date.
func (r *repository) FindOpenByDate(ctx context.Context, date time.Time) (Period, error) {
	var period Period
	err := r.db.QueryRow(ctx, `SELECT id, code, start_date, end_date, status, closed_at, created_at, updated_at
FROM periods WHERE status='OPEN' AND $1 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, date).
		Scan(&period.ID, &period.Code, &period.StartDate, &period.EndDate, &period.Status, &period.ClosedAt, &period.CreatedAt, &period.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrPeriodClosed
		}
		return Period{}, err
	}
	return period, nil
}

func (r *repository) Close(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE periods SET status='CLOSED', closed_at=NOW(), updated_at=NOW()
WHERE id=$1 AND status='OPEN'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrPeriodClosed
	}
	return nil
}
