package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kubev2v/transcript-drainer/internal/store/model"
	"github.com/kubev2v/transcript-drainer/pkg/metrics"
	"go.uber.org/zap"
)

const (
	DefaultWorkers = 10
	DefaultTimeout = 10 * time.Second
)

// Transformer turns an external id into an ordered list of transcript chunks.
type Transformer interface {
	Transform(ctx context.Context, externalID string) ([]string, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(ctx context.Context, externalID string) ([]string, error)

func (f TransformerFunc) Transform(ctx context.Context, externalID string) ([]string, error) {
	return f(ctx, externalID)
}

// Result pairs a claimed item with its outcome.
type Result struct {
	Item     model.WorkItem
	Outcome  Outcome
	WorkerID int
	Duration time.Duration
}

type Executor struct {
	transformer Transformer
	workers     int
	timeout     time.Duration
}

type Option func(*Executor)

func WithWorkers(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func NewExecutor(t Transformer, opts ...Option) *Executor {
	e := &Executor{
		transformer: t,
		workers:     DefaultWorkers,
		timeout:     DefaultTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Execute runs the transform for every item of the batch on a pool of at most
// e.workers goroutines. Results are sent in completion order and the channel is closed
// once every item has exactly one result. The channel is buffered for the whole batch
// so workers never wait on a slow consumer.
func (e *Executor) Execute(ctx context.Context, batch model.WorkItemList) <-chan Result {
	results := make(chan Result, len(batch))
	if len(batch) == 0 {
		close(results)
		return results
	}

	jobs := make(chan model.WorkItem)
	workers := min(e.workers, len(batch))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for item := range jobs {
				results <- e.run(ctx, workerID, item)
			}
		}(i + 1)
	}

	go func() {
		for _, item := range batch {
			jobs <- item
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	return results
}

func (e *Executor) run(ctx context.Context, workerID int, item model.WorkItem) Result {
	start := time.Now()
	outcome := e.transform(ctx, item)
	elapsed := time.Since(start)

	status := "success"
	if !outcome.HasTranscript() {
		status = "failure"
	}
	metrics.ObserveTransformDuration(status, elapsed)

	zap.S().Named("executor").Debugw("transform finished",
		"worker_id", workerID, "work_item_id", item.ID, "external_id", item.ExternalID,
		"outcome", outcome.String(), "duration", elapsed)

	return Result{
		Item:     item,
		Outcome:  outcome,
		WorkerID: workerID,
		Duration: elapsed,
	}
}

type transformResult struct {
	chunks []string
	err    error
}

// transform never returns an error: failures, timeouts and panics all become a Failure
// outcome. The call runs in its own goroutine so a transformer ignoring its context
// cannot hold the pool slot past the timeout.
func (e *Executor) transform(ctx context.Context, item model.WorkItem) Outcome {
	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan transformResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				zap.S().Named("executor").Errorw("transform panicked", "work_item_id", item.ID, "external_id", item.ExternalID, "panic", r)
				done <- transformResult{err: fmt.Errorf("%w: %v", ErrTransformPanicked, r)}
			}
		}()
		chunks, err := e.transformer.Transform(tctx, item.ExternalID)
		done <- transformResult{chunks: chunks, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return Failure(r.err)
		}
		if len(r.chunks) == 0 {
			return Failure(ErrEmptyTranscript)
		}
		return Success(r.chunks)
	case <-tctx.Done():
		return Failure(fmt.Errorf("%w after %s: %w", ErrTransformTimeout, e.timeout, tctx.Err()))
	}
}
