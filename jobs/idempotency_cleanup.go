package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/estoque-erp/estoque-erp/internal/shared"
)

// idempotencyRetention is how long processed keys stay queryable.
const idempotencyRetention = 7 * 24 * time.Hour

// IdempotencyCleaner purges expired idempotency keys.
type IdempotencyCleaner struct {
	store  *shared.IdempotencyStore
	logger *slog.Logger
}

// NewIdempotencyCleaner constructs the cleaner.
func NewIdempotencyCleaner(store *shared.IdempotencyStore, logger *slog.Logger) *IdempotencyCleaner {
	return &IdempotencyCleaner{store: store, logger: logger}
}

// HandleTask processes TaskIdempotencyCleanup tasks.
func (c *IdempotencyCleaner) HandleTask(ctx context.Context, t *asynq.Task) error {
	if err := c.store.Cleanup(ctx, idempotencyRetention); err != nil {
		return err
	}
	if c.logger != nil {
		c.logger.Info("idempotency cleanup finished")
	}
	return nil
}
