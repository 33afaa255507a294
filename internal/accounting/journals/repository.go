package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

const lineColumns = `id, tx_group_id, account_id, date, reference, description, debit, credit, branch_id, source_type, source_id, journal_type, is_reversal, created_at`

// Filter narrows ledger reads. Nil time bounds mean unbounded on that side.
type Filter struct {
	AccountIDs  []int64
	From        *time.Time
	To          *time.Time
	JournalType JournalType
	BranchIDs   []int64
}

// Repository encapsulates ledger reads and transactional writes.
type Repository interface {
	ListByAccount(ctx context.Context, accountID int64, f Filter) ([]JournalLine, error)
	ListByFilter(ctx context.Context, f Filter) ([]JournalLine, error)
	GetGroup(ctx context.Context, groupID uuid.UUID) ([]JournalLine, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes write operations inside one transaction.
type TxRepository interface {
	LinkSource(ctx context.Context, sourceType string, sourceID int64, groupID uuid.UUID) error
	InsertLines(ctx context.Context, groupID uuid.UUID, in PostingInput) ([]JournalLine, error)
	GetGroup(ctx context.Context, groupID uuid.UUID) ([]JournalLine, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListByAccount(ctx context.Context, accountID int64, f Filter) ([]JournalLine, error) {
	f.AccountIDs = []int64{accountID}
	return r.ListByFilter(ctx, f)
}

func (r *repository) ListByFilter(ctx context.Context, f Filter) ([]JournalLine, error) {
	query := `SELECT ` + lineColumns + ` FROM journal_lines WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if len(f.AccountIDs) > 0 {
		query += ` AND account_id = ANY(` + arg(f.AccountIDs) + `)`
	}
	if f.From != nil {
		query += ` AND date >= ` + arg(*f.From)
	}
	if f.To != nil {
		query += ` AND date <= ` + arg(*f.To)
	}
	if f.JournalType != "" {
		query += ` AND journal_type = ` + arg(string(f.JournalType))
	}
	if len(f.BranchIDs) > 0 {
		query += ` AND branch_id = ANY(` + arg(f.BranchIDs) + `)`
	}
	// Chronological, insertion order breaking date ties.
	query += ` ORDER BY date ASC, id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journals: list: %w", err)
	}
	defer rows.Close()
	return scanLines(rows)
}

func (r *repository) GetGroup(ctx context.Context, groupID uuid.UUID) ([]JournalLine, error) {
	return getGroup(ctx, r.db, groupID)
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) LinkSource(ctx context.Context, sourceType string, sourceID int64, groupID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (source_type, source_id, tx_group_id) VALUES ($1,$2,$3)`,
		sourceType, sourceID, groupID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_source_links" {
			return shared.ErrSourceConflict
		}
		return err
	}
	return nil
}

func (r *txRepository) InsertLines(ctx context.Context, groupID uuid.UUID, in PostingInput) ([]JournalLine, error) {
	out := make([]JournalLine, 0, len(in.Lines))
	for _, line := range in.Lines {
		branch := line.BranchID
		if branch == nil {
			branch = in.BranchID
		}
		desc := line.Description
		if desc == "" {
			desc = in.Description
		}
		row := r.tx.QueryRow(ctx, `INSERT INTO journal_lines
(tx_group_id, account_id, date, reference, description, debit, credit, branch_id, source_type, source_id, journal_type, is_reversal)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING id, created_at`,
			groupID, line.AccountID, in.Date, in.Reference, desc,
			toNumeric(line.Debit), toNumeric(line.Credit), nullIntPtr(branch),
			in.SourceType, in.SourceID, string(in.JournalType), in.IsReversal)
		inserted := JournalLine{
			TxGroupID:   groupID,
			AccountID:   line.AccountID,
			Date:        in.Date,
			Reference:   in.Reference,
			Description: desc,
			Debit:       line.Debit,
			Credit:      line.Credit,
			BranchID:    branch,
			SourceType:  in.SourceType,
			SourceID:    in.SourceID,
			JournalType: in.JournalType,
			IsReversal:  in.IsReversal,
		}
		if err := row.Scan(&inserted.ID, &inserted.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func (r *txRepository) GetGroup(ctx context.Context, groupID uuid.UUID) ([]JournalLine, error) {
	return getGroup(ctx, r.tx, groupID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func getGroup(ctx context.Context, q querier, groupID uuid.UUID) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT `+lineColumns+` FROM journal_lines WHERE tx_group_id = $1 ORDER BY id ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("journals: get group: %w", err)
	}
	defer rows.Close()
	lines, err := scanLines(rows)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, shared.ErrJournalNotFound
	}
	return lines, nil
}

func scanLines(rows pgx.Rows) ([]JournalLine, error) {
	var lines []JournalLine
	for rows.Next() {
		var l JournalLine
		if err := rows.Scan(&l.ID, &l.TxGroupID, &l.AccountID, &l.Date, &l.Reference, &l.Description,
			&l.Debit, &l.Credit, &l.BranchID, &l.SourceType, &l.SourceID, &l.JournalType, &l.IsReversal, &l.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Helpers
func nullIntPtr(val *int64) any {
	if val == nil {
		return nil
	}
	if *val == 0 {
		return nil
	}
	return *val
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
