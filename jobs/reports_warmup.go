package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	reportshttp "github.com/meridian-erp/meridian-erp/internal/accounting/reports/http"
	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
)

// NewReportsWarmupHandler returns the asynq handler that pre-builds the
// cached balance sheet and month-to-date income statement.
func NewReportsWarmupHandler(reports *reportshttp.Handler, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		tracker := metrics.Track("reports_warmup")
		if reports == nil {
			return tracker.End(nil)
		}
		err := reports.Warm(ctx, time.Now())
		if err != nil && logger != nil {
			logger.Error("report warmup failed", slog.Any("error", err))
		}
		return tracker.End(err)
	}
}
