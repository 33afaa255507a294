package journals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// PeriodGuard rejects postings whose date falls outside an open fiscal
// period. A nil guard accepts every date.
type PeriodGuard interface {
	EnsureOpen(ctx context.Context, date time.Time) error
}

// Service owns ledger writes. All postings go through Post so the balance
// invariant and source idempotency hold for every transaction group.
type Service struct {
	repo   Repository
	logger *slog.Logger
	guard  PeriodGuard
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithPeriodGuard enables fiscal period enforcement on Post and Reverse.
func (s *Service) WithPeriodGuard(guard PeriodGuard) {
	s.guard = guard
}

func (s *Service) ensureOpenPeriod(ctx context.Context, date time.Time) error {
	if s.guard == nil {
		return nil
	}
	return s.guard.EnsureOpen(ctx, date)
}

func (s *Service) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// Post validates and writes one balanced transaction group atomically.
// A second call with the same (source type, source id) returns
// shared.ErrSourceAlreadyLinked and writes nothing.
func (s *Service) Post(ctx context.Context, input PostingInput) (Posting, error) {
	if err := input.Validate(); err != nil {
		return Posting{}, err
	}
	if err := s.ensureOpenPeriod(ctx, input.Date); err != nil {
		return Posting{}, err
	}
	groupID := uuid.New()
	var lines []JournalLine
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		// Link first: the unique constraint makes duplicate postings fail
		// before any line hits the ledger.
		if err := tx.LinkSource(ctx, input.SourceType, input.SourceID, groupID); err != nil {
			if errors.Is(err, shared.ErrSourceConflict) {
				return shared.ErrSourceAlreadyLinked
			}
			return err
		}
		inserted, err := tx.InsertLines(ctx, groupID, input)
		if err != nil {
			return err
		}
		lines = inserted
		return nil
	})
	if err != nil {
		return Posting{}, err
	}
	s.log().Info("journal posted",
		slog.String("tx_group_id", groupID.String()),
		slog.String("source_type", input.SourceType),
		slog.Int64("source_id", input.SourceID),
		slog.Int("lines", len(lines)))
	return Posting{TxGroupID: groupID, Lines: lines}, nil
}

// Reverse writes a new group mirroring the original with debit and credit
// swapped. The original lines stay untouched.
func (s *Service) Reverse(ctx context.Context, input ReverseInput) (Posting, error) {
	if input.TxGroupID == uuid.Nil {
		return Posting{}, errors.New("journals: tx group id required")
	}
	reversalID := uuid.New()
	var lines []JournalLine
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetGroup(ctx, input.TxGroupID)
		if err != nil {
			return err
		}
		first := original[0]
		date := first.Date
		if input.TargetDate != nil {
			date = *input.TargetDate
		}
		if err := s.ensureOpenPeriod(ctx, date); err != nil {
			return err
		}
		posting := PostingInput{
			Date:        date,
			Reference:   first.Reference,
			Description: defaultReversalMemo(input.Memo, first.Reference),
			JournalType: JournalTypeReversal,
			SourceType:  first.SourceType + ":REVERSAL",
			SourceID:    first.SourceID,
			IsReversal:  true,
			Lines:       reverseLines(original),
		}
		if err := tx.LinkSource(ctx, posting.SourceType, posting.SourceID, reversalID); err != nil {
			if errors.Is(err, shared.ErrSourceConflict) {
				return shared.ErrSourceAlreadyLinked
			}
			return err
		}
		inserted, err := tx.InsertLines(ctx, reversalID, posting)
		if err != nil {
			return err
		}
		lines = inserted
		return nil
	})
	if err != nil {
		return Posting{}, err
	}
	s.log().Info("journal reversed",
		slog.String("original_group", input.TxGroupID.String()),
		slog.String("reversal_group", reversalID.String()))
	return Posting{TxGroupID: reversalID, Lines: lines}, nil
}

// Group fetches all lines for a transaction group.
func (s *Service) Group(ctx context.Context, groupID uuid.UUID) ([]JournalLine, error) {
	return s.repo.GetGroup(ctx, groupID)
}

func reverseLines(lines []JournalLine) []PostingLineInput {
	out := make([]PostingLineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, PostingLineInput{
			AccountID:   line.AccountID,
			Debit:       line.Credit,
			Credit:      line.Debit,
			BranchID:    line.BranchID,
			Description: line.Description,
		})
	}
	return out
}

func defaultReversalMemo(memo, reference string) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Reversal of %s", reference)
}
