package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kubev2v/transcript-drainer/internal/events"
	"github.com/kubev2v/transcript-drainer/internal/store"
	"github.com/kubev2v/transcript-drainer/internal/store/model"
	"github.com/kubev2v/transcript-drainer/internal/worker"
	"github.com/kubev2v/transcript-drainer/pkg/metrics"
	"go.uber.org/zap"
)

// Reconciler records the outcome of a transform against its work item.
type Reconciler struct {
	store       store.Store
	eventWriter *events.EventProducer
}

func NewReconciler(s store.Store, eventWriter *events.EventProducer) *Reconciler {
	return &Reconciler{store: s, eventWriter: eventWriter}
}

// Reconcile persists the outcome in its own transaction and returns the status the item
// ended in. A successful outcome with at least one chunk stores the chunks and completes
// the item; anything else fails it. Items already completed or failed are left untouched.
// On error nothing is written and the item stays processing.
func (r *Reconciler) Reconcile(ctx context.Context, item model.WorkItem, outcome worker.Outcome) (model.WorkItemStatus, error) {
	status, err := r.reconcile(ctx, item, outcome)
	if err != nil {
		if errors.Is(err, ErrAlreadyReconciled) {
			zap.S().Named("reconciler").Infow("outcome ignored", "work_item_id", item.ID, "external_id", item.ExternalID, "status", status)
			return status, nil
		}
		metrics.IncreaseReconcileErrors()
		zap.S().Named("reconciler").Errorw("failed to reconcile work item", "work_item_id", item.ID, "external_id", item.ExternalID, "error", err)
		return "", err
	}

	metrics.IncreaseItemOutcome(string(status))
	zap.S().Named("reconciler").Debugw("work item reconciled", "work_item_id", item.ID, "external_id", item.ExternalID, "status", status, "chunks", len(outcome.Chunks))

	r.publish(ctx, item, status, outcome)

	return status, nil
}

func (r *Reconciler) reconcile(ctx context.Context, item model.WorkItem, outcome worker.Outcome) (model.WorkItemStatus, error) {
	ctx, err := r.store.NewTransactionContext(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	current, err := r.store.WorkItem().Get(ctx, item.ID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return "", NewErrWorkItemNotFound(item.ID)
		}
		return "", err
	}

	if current.Status.IsTerminal() {
		return current.Status, fmt.Errorf("%w: work item %d is %s", ErrAlreadyReconciled, current.ID, current.Status)
	}
	if current.Status != model.WorkItemStatusProcessing {
		return "", NewErrWorkItemNotProcessing(current.ID, current.Status)
	}

	target := model.WorkItemStatusFailed
	if outcome.HasTranscript() {
		chunks := model.NewTranscriptChunks(*current, outcome.Chunks)
		if _, err := r.store.Chunk().CreateBatch(ctx, chunks); err != nil {
			return "", fmt.Errorf("storing %d chunks of work item %d: %w", len(chunks), current.ID, err)
		}
		target = model.WorkItemStatusCompleted
	}

	if err := r.store.WorkItem().Transition(ctx, current.ID, model.WorkItemStatusProcessing, target); err != nil {
		return "", err
	}

	if _, err := store.Commit(ctx); err != nil {
		return "", err
	}

	return target, nil
}

func (r *Reconciler) publish(ctx context.Context, item model.WorkItem, status model.WorkItemStatus, outcome worker.Outcome) {
	if r.eventWriter == nil {
		return
	}

	kind := events.ItemFailedKind
	ev := events.ItemOutcomeEvent{
		WorkItemID: item.ID,
		ExternalID: item.ExternalID,
		Status:     string(status),
		Timestamp:  time.Now().UTC(),
	}
	if status == model.WorkItemStatusCompleted {
		kind = events.ItemCompletedKind
		ev.Chunks = len(outcome.Chunks)
	} else if outcome.Err != nil {
		ev.Reason = outcome.Err.Error()
	} else {
		ev.Reason = worker.ErrEmptyTranscript.Error()
	}

	if err := r.eventWriter.WriteJSON(ctx, kind, ev); err != nil {
		zap.S().Named("reconciler").Warnw("failed to write outcome event", "work_item_id", item.ID, "error", err)
	}
}
