package service

import (
	"context"

	"github.com/kubev2v/transcript-drainer/internal/store"
	"github.com/kubev2v/transcript-drainer/internal/store/model"
	"github.com/kubev2v/transcript-drainer/pkg/metrics"
	"go.uber.org/zap"
)

type Claimer struct {
	store store.Store
}

func NewClaimer(s store.Store) *Claimer {
	return &Claimer{store: s}
}

// Claim takes ownership of at most n of the oldest pending items. An empty list means
// the queue holds no pending work.
func (c *Claimer) Claim(ctx context.Context, n int) (model.WorkItemList, error) {
	if n <= 0 {
		return nil, NewErrInvalidBatchSize(n)
	}

	items, err := c.store.WorkItem().Claim(ctx, n)
	if err != nil {
		retryable := store.IsRetryable(err)
		metrics.IncreaseClaimErrors(retryable)
		zap.S().Named("claimer").Warnw("failed to claim work items", "batch_size", n, "retryable", retryable, "error", err)
		return nil, err
	}

	metrics.IncreaseItemsClaimed(len(items))
	zap.S().Named("claimer").Debugw("claimed work items", "batch_size", n, "claimed", len(items), "ids", items.IDs())

	return items, nil
}
