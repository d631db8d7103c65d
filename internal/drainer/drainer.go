package drainer

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
	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
)

const (
	defaultClaimRetries  = 3
	defaultRetryInterval = 500 * time.Millisecond
)

type State string

const (
	StateIdle     State = "idle"
	StateDraining State = "draining"
	StateDone     State = "done"
)

type Claimer interface {
	Claim(ctx context.Context, n int) (model.WorkItemList, error)
}

type Executor interface {
	Execute(ctx context.Context, batch model.WorkItemList) <-chan worker.Result
}

type Reconciler interface {
	Reconcile(ctx context.Context, item model.WorkItem, outcome worker.Outcome) (model.WorkItemStatus, error)
}

// Summary accumulates the counters of a drain run.
type Summary struct {
	Batches         int
	Claimed         int
	Completed       int
	Failed          int
	ReconcileErrors int
	Interrupted     bool
	Duration        time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("batches=%d claimed=%d completed=%d failed=%d reconcile_errors=%d interrupted=%t duration=%s",
		s.Batches, s.Claimed, s.Completed, s.Failed, s.ReconcileErrors, s.Interrupted, s.Duration)
}

type batchSummary struct {
	claimed         int
	completed       int
	failed          int
	reconcileErrors int
}

// Drainer claims batches of pending work items until the queue is empty.
type Drainer struct {
	claimer       Claimer
	executor      Executor
	reconciler    Reconciler
	eventWriter   *events.EventProducer
	batchSize     int
	claimRetries  int
	retryInterval time.Duration
	state         State
}

type Option func(*Drainer)

func WithClaimRetries(n int) Option {
	return func(d *Drainer) {
		if n >= 0 {
			d.claimRetries = n
		}
	}
}

func WithRetryInterval(interval time.Duration) Option {
	return func(d *Drainer) {
		if interval > 0 {
			d.retryInterval = interval
		}
	}
}

func WithEventProducer(ep *events.EventProducer) Option {
	return func(d *Drainer) {
		d.eventWriter = ep
	}
}

func New(batchSize int, claimer Claimer, executor Executor, reconciler Reconciler, opts ...Option) *Drainer {
	d := &Drainer{
		claimer:       claimer,
		executor:      executor,
		reconciler:    reconciler,
		batchSize:     batchSize,
		claimRetries:  defaultClaimRetries,
		retryInterval: defaultRetryInterval,
		state:         StateIdle,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Drainer) State() State {
	return d.state
}

// Run drains the queue. It returns when a claim comes back empty, when ctx is cancelled
// or when a claim fails for good. Cancellation is honoured between batches only: a
// claimed batch is always transformed and reconciled to the end.
func (d *Drainer) Run(ctx context.Context) (summary Summary, err error) {
	if d.batchSize <= 0 {
		return Summary{}, fmt.Errorf("batch size must be a positive integer, got %d", d.batchSize)
	}

	start := time.Now()
	defer func() {
		summary.Duration = time.Since(start)
	}()

	d.state = StateDraining
	zap.S().Named("drainer").Infow("draining queue", "batch_size", d.batchSize)

	for {
		if ctx.Err() != nil {
			summary.Interrupted = true
			zap.S().Named("drainer").Infow("drain interrupted", "batches", summary.Batches)
			return summary, nil
		}

		items, err := d.claim(ctx)
		if err != nil {
			if ctx.Err() != nil {
				summary.Interrupted = true
				zap.S().Named("drainer").Infow("drain interrupted while claiming", "batches", summary.Batches)
				return summary, nil
			}
			return summary, err
		}

		if len(items) == 0 {
			d.state = StateDone
			zap.S().Named("drainer").Infow("queue drained", "batches", summary.Batches, "claimed", summary.Claimed)
			return summary, nil
		}

		summary.Batches++
		bs := d.drainBatch(context.WithoutCancel(ctx), summary.Batches, items)
		summary.Claimed += bs.claimed
		summary.Completed += bs.completed
		summary.Failed += bs.failed
		summary.ReconcileErrors += bs.reconcileErrors
	}
}

// claim retries retryable claim errors on a jittered ticker. Any other error is returned
// right away.
func (d *Drainer) claim(ctx context.Context) (model.WorkItemList, error) {
	var ticker *jitterbug.Ticker
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for attempt := 0; ; attempt++ {
		items, err := d.claimer.Claim(ctx, d.batchSize)
		if err == nil {
			return items, nil
		}

		if !store.IsRetryable(err) || attempt >= d.claimRetries {
			zap.S().Named("drainer").Errorw("claim failed", "attempt", attempt+1, "error", err)
			return nil, err
		}

		zap.S().Named("drainer").Warnw("claim failed, retrying", "attempt", attempt+1, "max_retries", d.claimRetries, "error", err)
		if ticker == nil {
			ticker = jitterbug.New(d.retryInterval, &jitterbug.Norm{Stdev: d.retryInterval / 4, Mean: 0})
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(err, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (d *Drainer) drainBatch(ctx context.Context, batch int, items model.WorkItemList) batchSummary {
	start := time.Now()
	bs := batchSummary{claimed: len(items)}

	for result := range d.executor.Execute(ctx, items) {
		status, err := d.reconciler.Reconcile(ctx, result.Item, result.Outcome)
		if err != nil {
			bs.reconcileErrors++
			continue
		}

		switch status {
		case model.WorkItemStatusCompleted:
			bs.completed++
		case model.WorkItemStatusFailed:
			bs.failed++
		}
	}

	elapsed := time.Since(start)
	metrics.ObserveBatchDuration(elapsed)
	zap.S().Named("drainer").Infow("batch drained",
		"batch", batch, "claimed", bs.claimed, "completed", bs.completed, "failed", bs.failed,
		"reconcile_errors", bs.reconcileErrors, "duration", elapsed)

	if d.eventWriter != nil {
		ev := events.BatchEvent{
			Batch:     batch,
			Claimed:   bs.claimed,
			Completed: bs.completed,
			Failed:    bs.failed,
			Errors:    bs.reconcileErrors,
			Timestamp: time.Now().UTC(),
		}
		if err := d.eventWriter.WriteJSON(ctx, events.BatchDrainedKind, ev); err != nil {
			zap.S().Named("drainer").Warnw("failed to write batch event", "batch", batch, "error", err)
		}
	}

	return bs
}
