package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kubev2v/transcript-drainer/internal/store"
	"github.com/kubev2v/transcript-drainer/internal/store/model"
	"go.uber.org/zap"
)

// QueueService groups the operator actions on the work queue.
type QueueService struct {
	store store.Store
}

func NewQueueService(s store.Store) *QueueService {
	return &QueueService{store: s}
}

// Enqueue inserts one pending item per external id. Either all of them are created or none.
func (q *QueueService) Enqueue(ctx context.Context, externalIDs ...string) (model.WorkItemList, error) {
	for _, id := range externalIDs {
		if strings.TrimSpace(id) == "" {
			return nil, NewErrInvalidExternalID(id)
		}
	}

	ctx, err := q.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	items := make(model.WorkItemList, 0, len(externalIDs))
	for _, id := range externalIDs {
		item, err := q.store.WorkItem().Create(ctx, strings.TrimSpace(id))
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	zap.S().Named("queue_service").Infow("work items enqueued", "count", len(items))
	return items, nil
}

// List returns up to limit items of the given status, oldest first.
func (q *QueueService) List(ctx context.Context, status model.WorkItemStatus, limit int) (model.WorkItemList, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	opts := store.NewWorkItemQueryOptions().WithSortOrder(store.SortByCreatedTime)
	if limit > 0 {
		opts = opts.WithLimit(limit)
	}

	return q.store.WorkItem().List(ctx, store.NewWorkItemQueryFilter().ByStatus(status), opts)
}

func (q *QueueService) Stats(ctx context.Context) (model.QueueStats, error) {
	return q.store.Statistics(ctx)
}

// RequeueStale returns to pending every processing item untouched for longer than
// olderThan. Items whose worker is still running will be transformed twice, so the
// threshold must exceed any realistic batch duration.
func (q *QueueService) RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, NewErrInvalidThreshold(olderThan)
	}

	n, err := q.store.WorkItem().RequeueStale(ctx, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, err
	}

	zap.S().Named("queue_service").Infow("stale work items requeued", "count", n, "older_than", olderThan)
	return n, nil
}
