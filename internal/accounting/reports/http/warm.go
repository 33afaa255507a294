package http

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/reports"
)

// Warm pre-builds the heavy statements for the current day and
// month-to-date so the first interactive request hits the cache.
// Keys match the ones served by the HTTP endpoints.
func (h *Handler) Warm(ctx context.Context, now time.Time) error {
	asOf := now.Truncate(24 * time.Hour)
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	type build struct {
		report string
		key    string
		fn     func(context.Context) (any, error)
	}
	builds := []build{}
	if h.balanceSheet != nil {
		builds = append(builds, build{
			report: "bs",
			key:    buildCacheKey("bs", nil, asOf.Format(dateLayout), "all", "zeros=off"),
			fn: func(ctx context.Context) (any, error) {
				return h.balanceSheet.Build(ctx, reports.BalanceSheetFilters{AsOf: asOf, DisplayLevel: reports.DisplayAll})
			},
		})
	}
	if h.income != nil {
		builds = append(builds, build{
			report: "is",
			key:    buildCacheKey("is", nil, from.Format(dateLayout), asOf.Format(dateLayout)),
			fn: func(ctx context.Context) (any, error) {
				return h.income.Build(ctx, reports.IncomeStatementFilters{From: from, To: asOf})
			},
		})
	}

	for _, b := range builds {
		if _, err := h.cache.Fetch(ctx, b.report, b.key, b.fn); err != nil {
			return fmt.Errorf("warm %s: %w", b.report, err)
		}
	}
	return nil
}
