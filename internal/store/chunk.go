package store

import (
	"context"

	"github.com/kubev2v/transcript-drainer/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Chunk interface {
	CreateBatch(ctx context.Context, chunks model.TranscriptChunkList) (int64, error)
	ListByWorkItem(ctx context.Context, workItemID int64) (model.TranscriptChunkList, error)
	CountByWorkItem(ctx context.Context, workItemID int64) (int64, error)
}

type ChunkStore struct {
	db *gorm.DB
}

// Make sure we conform to Chunk interface
var _ Chunk = (*ChunkStore)(nil)

func NewChunkStore(db *gorm.DB) Chunk {
	return &ChunkStore{db: db}
}

// CreateBatch inserts the chunks and returns how many rows were written. A chunk whose
// (work_item_id, order_index) already exists is skipped, which keeps a repeated insert
// of the same transcript from duplicating rows.
func (c *ChunkStore) CreateBatch(ctx context.Context, chunks model.TranscriptChunkList) (int64, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	result := c.getDB(ctx).WithContext(ctx).
		Omit("WorkItem").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "work_item_id"}, {Name: "order_index"}},
			DoNothing: true,
		}).
		Create(&chunks)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (c *ChunkStore) ListByWorkItem(ctx context.Context, workItemID int64) (model.TranscriptChunkList, error) {
	var chunks model.TranscriptChunkList
	result := c.getDB(ctx).WithContext(ctx).
		Where("work_item_id = ?", workItemID).
		Order("order_index ASC").
		Find(&chunks)
	if result.Error != nil {
		return nil, result.Error
	}
	return chunks, nil
}

func (c *ChunkStore) CountByWorkItem(ctx context.Context, workItemID int64) (int64, error) {
	var count int64
	result := c.getDB(ctx).WithContext(ctx).Model(&model.TranscriptChunk{}).
		Where("work_item_id = ?", workItemID).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

func (c *ChunkStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return c.db
}
