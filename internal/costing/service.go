package costing

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Service records production runs and derives their cost variances at
// write time. Reports later sum the stored rows; they never recompute.
type Service struct {
	repo   Repository
	logger *slog.Logger
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

func (s *Service) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// RecordProduction stores the entry and its variances. A product without
// a standard still gets its entry recorded; variances are skipped with a
// warning since there is nothing to compare against.
func (s *Service) RecordProduction(ctx context.Context, entry ProductionCostEntry) (ProductionCostEntry, []CostVariance, error) {
	if err := entry.Validate(); err != nil {
		return ProductionCostEntry{}, nil, err
	}
	if entry.ProductionDate.IsZero() {
		entry.ProductionDate = s.now()
	}
	inserted, err := s.repo.InsertEntry(ctx, entry)
	if err != nil {
		return ProductionCostEntry{}, nil, err
	}

	std, err := s.repo.GetStandardCost(ctx, inserted.ProductID, inserted.ProductionDate)
	if err != nil {
		if errors.Is(err, ErrStandardCostNotFound) {
			s.log().Warn("no standard cost, skipping variance records",
				slog.Int64("product_id", inserted.ProductID),
				slog.Int64("entry_id", inserted.ID))
			return inserted, nil, nil
		}
		return ProductionCostEntry{}, nil, err
	}

	variances := ComputeVariances(std, inserted)
	if err := s.repo.InsertVariances(ctx, variances); err != nil {
		return ProductionCostEntry{}, nil, err
	}
	return inserted, variances, nil
}

// VariancesByPeriod returns stored variance rows for a window.
func (s *Service) VariancesByPeriod(ctx context.Context, from, to time.Time, branchIDs []int64) ([]CostVariance, error) {
	return s.repo.ListVariancesByPeriod(ctx, from, to, branchIDs)
}
