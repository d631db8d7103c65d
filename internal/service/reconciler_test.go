package service_test

import (
	"context"
	"errors"
	"time"

	"github.com/kubev2v/transcript-drainer/internal/events"
	"github.com/kubev2v/transcript-drainer/internal/service"
	"github.com/kubev2v/transcript-drainer/internal/store"
	"github.com/kubev2v/transcript-drainer/internal/store/model"
	"github.com/kubev2v/transcript-drainer/internal/worker"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func insertProcessing(db *gorm.DB, externalID string) model.WorkItem {
	now := time.Now().UTC()
	item := model.WorkItem{
		ExternalID: externalID,
		Status:     model.WorkItemStatusProcessing,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	Expect(db.Create(&item).Error).To(BeNil())
	return item
}

var _ = Describe("reconciler", func() {
	var (
		s        store.Store
		gormdb   *gorm.DB
		writer   *testwriter
		producer *events.EventProducer
		r        *service.Reconciler
	)

	BeforeEach(func() {
		s, gormdb = newTestStore()
		writer = newTestWriter()
		producer = events.NewEventProducer(writer)
		DeferCleanup(producer.Close)
		r = service.NewReconciler(s, producer)
	})

	Context("success", func() {
		It("stores the chunks in order and completes the item", func() {
			item := insertProcessing(gormdb, "A")

			status, err := r.Reconcile(context.TODO(), item, worker.Success([]string{"first", "second", "third"}))
			Expect(err).To(BeNil())
			Expect(status).To(Equal(model.WorkItemStatusCompleted))

			got, err := s.WorkItem().Get(context.TODO(), item.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(model.WorkItemStatusCompleted))

			chunks, err := s.Chunk().ListByWorkItem(context.TODO(), item.ID)
			Expect(err).To(BeNil())
			Expect(chunks.Texts()).To(Equal([]string{"first", "second", "third"}))
			for i, c := range chunks {
				Expect(c.OrderIndex).To(Equal(i + 1))
				Expect(c.ExternalID).To(Equal("A"))
			}

			Eventually(writer.Types).WithTimeout(2 * time.Second).Should(ConsistOf(events.ItemCompletedKind))
		})

		It("is idempotent", func() {
			item := insertProcessing(gormdb, "A")
			outcome := worker.Success([]string{"one", "two"})

			status, err := r.Reconcile(context.TODO(), item, outcome)
			Expect(err).To(BeNil())
			Expect(status).To(Equal(model.WorkItemStatusCompleted))

			status, err = r.Reconcile(context.TODO(), item, outcome)
			Expect(err).To(BeNil())
			Expect(status).To(Equal(model.WorkItemStatusCompleted))

			count, err := s.Chunk().CountByWorkItem(context.TODO(), item.ID)
			Expect(err).To(BeNil())
			Expect(count).To(BeNumerically("==", 2))
		})
	})

	Context("failure", func() {
		It("fails the item on an empty success", func() {
			item := insertProcessing(gormdb, "B")

			status, err := r.Reconcile(context.TODO(), item, worker.Success(nil))
			Expect(err).To(BeNil())
			Expect(status).To(Equal(model.WorkItemStatusFailed))

			count, err := s.Chunk().CountByWorkItem(context.TODO(), item.ID)
			Expect(err).To(BeNil())
			Expect(count).To(BeZero())
		})

		It("fails the item on a transform error", func() {
			item := insertProcessing(gormdb, "B")

			status, err := r.Reconcile(context.TODO(), item, worker.Failure(errors.New("no captions")))
			Expect(err).To(BeNil())
			Expect(status).To(Equal(model.WorkItemStatusFailed))

			got, err := s.WorkItem().Get(context.TODO(), item.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(model.WorkItemStatusFailed))

			Eventually(writer.Types).WithTimeout(2 * time.Second).Should(ConsistOf(events.ItemFailedKind))
		})

		It("does not overwrite a failed item with a later success", func() {
			item := insertProcessing(gormdb, "B")

			_, err := r.Reconcile(context.TODO(), item, worker.Failure(errors.New("timeout")))
			Expect(err).To(BeNil())

			status, err := r.Reconcile(context.TODO(), item, worker.Success([]string{"late"}))
			Expect(err).To(BeNil())
			Expect(status).To(Equal(model.WorkItemStatusFailed))

			count, err := s.Chunk().CountByWorkItem(context.TODO(), item.ID)
			Expect(err).To(BeNil())
			Expect(count).To(BeZero())
		})
	})

	Context("errors", func() {
		It("refuses an item which is not processing", func() {
			item, err := s.WorkItem().Create(context.TODO(), "C")
			Expect(err).To(BeNil())

			_, err = r.Reconcile(context.TODO(), *item, worker.Success([]string{"text"}))
			Expect(err).ToNot(BeNil())
			Expect(errors.Is(err, store.ErrInvalidTransition)).To(BeTrue())

			got, err := s.WorkItem().Get(context.TODO(), item.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(model.WorkItemStatusPending))
		})

		It("reports an unknown item", func() {
			_, err := r.Reconcile(context.TODO(), model.WorkItem{ID: 4242, ExternalID: "ghost"}, worker.Success([]string{"text"}))
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("leaves the item processing when the chunks cannot be stored", func() {
			item := insertProcessing(gormdb, "A")
			Expect(gormdb.Migrator().DropTable(&model.TranscriptChunk{})).To(BeNil())
			DeferCleanup(func() {
				Expect(s.InitialMigration()).To(BeNil())
			})

			_, err := r.Reconcile(context.TODO(), item, worker.Success([]string{"text"}))
			Expect(err).ToNot(BeNil())

			got, err := s.WorkItem().Get(context.TODO(), item.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(model.WorkItemStatusProcessing))
		})
	})
})
