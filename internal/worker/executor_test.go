package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kubev2v/transcript-drainer/internal/store/model"
	"github.com/kubev2v/transcript-drainer/internal/worker"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newBatch(ids ...string) model.WorkItemList {
	batch := make(model.WorkItemList, 0, len(ids))
	for i, id := range ids {
		batch = append(batch, model.WorkItem{ID: int64(i + 1), ExternalID: id, Status: model.WorkItemStatusProcessing})
	}
	return batch
}

func collect(results <-chan worker.Result) []worker.Result {
	var all []worker.Result
	for r := range results {
		all = append(all, r)
	}
	return all
}

var _ = Describe("executor", func() {
	Context("execute", func() {
		It("produces exactly one result per item", func() {
			t := worker.TransformerFunc(func(ctx context.Context, id string) ([]string, error) {
				switch id {
				case "ok":
					return []string{"hello world"}, nil
				case "empty":
					return nil, nil
				default:
					return nil, errors.New("boom")
				}
			})

			e := worker.NewExecutor(t, worker.WithWorkers(3))
			results := collect(e.Execute(context.TODO(), newBatch("ok", "empty", "bad", "ok", "ok")))
			Expect(results).To(HaveLen(5))

			seen := map[int64]worker.Result{}
			for _, r := range results {
				seen[r.Item.ID] = r
			}
			Expect(seen).To(HaveLen(5))
			Expect(seen[1].Outcome.HasTranscript()).To(BeTrue())
			Expect(seen[1].Outcome.Chunks).To(Equal([]string{"hello world"}))
			Expect(seen[2].Outcome.Err).To(MatchError(worker.ErrEmptyTranscript))
			Expect(seen[3].Outcome.IsSuccess()).To(BeFalse())
			Expect(seen[3].Outcome.Err).To(MatchError("boom"))
		})

		It("closes the channel right away for an empty batch", func() {
			e := worker.NewExecutor(worker.TransformerFunc(func(ctx context.Context, id string) ([]string, error) {
				Fail("transform must not be called")
				return nil, nil
			}))
			Expect(collect(e.Execute(context.TODO(), nil))).To(BeEmpty())
		})

		It("delivers results in completion order", func() {
			delays := map[string]time.Duration{
				"slow":   300 * time.Millisecond,
				"medium": 150 * time.Millisecond,
				"fast":   0,
			}
			t := worker.TransformerFunc(func(ctx context.Context, id string) ([]string, error) {
				time.Sleep(delays[id])
				return []string{id}, nil
			})

			e := worker.NewExecutor(t, worker.WithWorkers(3))
			results := collect(e.Execute(context.TODO(), newBatch("slow", "medium", "fast")))
			Expect(results).To(HaveLen(3))
			Expect(results[0].Item.ExternalID).To(Equal("fast"))
			Expect(results[2].Item.ExternalID).To(Equal("slow"))
		})

		It("never runs more transforms than workers", func() {
			var running, peak atomic.Int32
			t := worker.TransformerFunc(func(ctx context.Context, id string) ([]string, error) {
				n := running.Add(1)
				defer running.Add(-1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				return []string{id}, nil
			})

			ids := make([]string, 0, 12)
			for i := 0; i < 12; i++ {
				ids = append(ids, fmt.Sprintf("video-%d", i))
			}

			e := worker.NewExecutor(t, worker.WithWorkers(2))
			results := collect(e.Execute(context.TODO(), newBatch(ids...)))
			Expect(results).To(HaveLen(12))
			Expect(peak.Load()).To(BeNumerically("<=", 2))
		})

		It("turns a panic into a failure", func() {
			t := worker.TransformerFunc(func(ctx context.Context, id string) ([]string, error) {
				if id == "panic" {
					panic("unexpected")
				}
				return []string{id}, nil
			})

			e := worker.NewExecutor(t)
			results := collect(e.Execute(context.TODO(), newBatch("panic", "fine")))
			Expect(results).To(HaveLen(2))
			for _, r := range results {
				if r.Item.ExternalID == "panic" {
					Expect(r.Outcome.Err).To(MatchError(worker.ErrTransformPanicked))
				} else {
					Expect(r.Outcome.HasTranscript()).To(BeTrue())
				}
			}
		})

		It("fails a transform exceeding the timeout", func() {
			release := make(chan struct{})
			defer close(release)

			// ignores its context on purpose
			t := worker.TransformerFunc(func(ctx context.Context, id string) ([]string, error) {
				<-release
				return []string{id}, nil
			})

			e := worker.NewExecutor(t, worker.WithTimeout(50*time.Millisecond))
			start := time.Now()
			results := collect(e.Execute(context.TODO(), newBatch("stuck")))
			Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
			Expect(results).To(HaveLen(1))
			Expect(results[0].Outcome.Err).To(MatchError(worker.ErrTransformTimeout))
		})
	})

	Context("outcome", func() {
		It("treats a nil failure reason as a failure", func() {
			o := worker.Failure(nil)
			Expect(o.IsSuccess()).To(BeFalse())
			Expect(o.HasTranscript()).To(BeFalse())
		})

		It("treats an empty success as having no transcript", func() {
			o := worker.Success(nil)
			Expect(o.IsSuccess()).To(BeTrue())
			Expect(o.HasTranscript()).To(BeFalse())
			Expect(o.String()).To(Equal("success(0 chunks)"))
		})
	})
})
