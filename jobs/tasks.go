package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockIntegrity is the task type for the ledger/balance reconciliation scan.
	TaskStockIntegrity = "stock:integrity"
	// TaskIdempotencyCleanup is the task type for purging expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// StockIntegrityPayload selects which products the scan covers. An empty
// payload scans everything.
type StockIntegrityPayload struct {
	ProductIDs []int64 `json:"product_ids,omitempty"`
}

// NewStockIntegrityTask constructs an Asynq task for the integrity scan.
func NewStockIntegrityTask(payload StockIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockIntegrity, data), nil
}

// NewIdempotencyCleanupTask constructs an Asynq task for key cleanup.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}
