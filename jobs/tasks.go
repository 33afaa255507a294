package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportsWarmup pre-builds cached financial statements.
	TaskReportsWarmup = "reports:warmup"
	// TaskLedgerIntegrity scans for unbalanced transaction groups.
	TaskLedgerIntegrity = "ledger:integrity"
)

// NewReportsWarmupTask constructs the warmup task. The handler derives
// the reporting window from the wall clock, so there is no payload.
func NewReportsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskReportsWarmup, nil)
}

// NewLedgerIntegrityTask constructs the integrity scan task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}
