package store

import (
	"context"

	"github.com/kubev2v/transcript-drainer/internal/store/model"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	WorkItem() WorkItem
	Chunk() Chunk
	InitialMigration() error
	Statistics(ctx context.Context) (model.QueueStats, error)
	Close() error
}

type DataStore struct {
	db       *gorm.DB
	workItem WorkItem
	chunk    Chunk
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		workItem: NewWorkItemStore(db),
		chunk:    NewChunkStore(db),
		db:       db,
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) WorkItem() WorkItem {
	return s.workItem
}

func (s *DataStore) Chunk() Chunk {
	return s.chunk
}

// InitialMigration creates the schema from the gorm models. It is used for sqlite
// databases; postgres deployments are migrated with goose (see pkg/migrations).
func (s *DataStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.WorkItem{}, &model.TranscriptChunk{})
}

func (s *DataStore) Statistics(ctx context.Context) (model.QueueStats, error) {
	return s.WorkItem().CountByStatus(ctx)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
