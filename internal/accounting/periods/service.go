package periods

import (
	"context"
	"time"
)

// Service gates ledger writes on an open fiscal period.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) FindOpenByDate(ctx context.Context, date time.Time) (Period, error) {
	return s.repo.FindOpenByDate(ctx, date)
}

func (s *Service) Close(ctx context.Context, id int64) error {
	return s.repo.Close(ctx, id)
}

// EnsureOpen returns shared.ErrPeriodClosed (via the repository) when no
// open period covers date. Satisfies journals.PeriodGuard.
func (s *Service) EnsureOpen(ctx context.Context, date time.Time) error {
	_, err := s.repo.FindOpenByDate(ctx, date)
	return err
}
