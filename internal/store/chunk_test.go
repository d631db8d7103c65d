package store_test

import (
	"context"
	"time"

	"github.com/kubev2v/transcript-drainer/internal/store"
	"github.com/kubev2v/transcript-drainer/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("chunk store", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := store.InitDB(testConfig())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM transcript_chunks;")
		gormdb.Exec("DELETE FROM work_items;")
	})

	It("stores chunks in order", func() {
		item := insertItem(gormdb, "video", model.WorkItemStatusProcessing, time.Now())

		n, err := s.Chunk().CreateBatch(context.TODO(), model.NewTranscriptChunks(item, []string{"c1", "c2", "c3"}))
		Expect(err).To(BeNil())
		Expect(n).To(BeNumerically("==", 3))

		chunks, err := s.Chunk().ListByWorkItem(context.TODO(), item.ID)
		Expect(err).To(BeNil())
		Expect(chunks).To(HaveLen(3))
		Expect(chunks.Texts()).To(Equal([]string{"c1", "c2", "c3"}))
		for i, c := range chunks {
			Expect(c.OrderIndex).To(Equal(i + 1))
			Expect(c.ExternalID).To(Equal("video"))
		}
	})

	It("does not duplicate chunks written twice", func() {
		item := insertItem(gormdb, "video", model.WorkItemStatusProcessing, time.Now())
		chunks := model.NewTranscriptChunks(item, []string{"c1", "c2"})

		_, err := s.Chunk().CreateBatch(context.TODO(), chunks)
		Expect(err).To(BeNil())

		n, err := s.Chunk().CreateBatch(context.TODO(), model.NewTranscriptChunks(item, []string{"c1", "c2"}))
		Expect(err).To(BeNil())
		Expect(n).To(BeNumerically("==", 0))

		count, err := s.Chunk().CountByWorkItem(context.TODO(), item.ID)
		Expect(err).To(BeNil())
		Expect(count).To(BeNumerically("==", 2))
	})

	It("accepts an empty batch", func() {
		n, err := s.Chunk().CreateBatch(context.TODO(), nil)
		Expect(err).To(BeNil())
		Expect(n).To(BeNumerically("==", 0))
	})
})
