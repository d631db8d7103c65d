package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kubev2v/transcript-drainer/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkItem interface {
	Claim(ctx context.Context, limit int) (model.WorkItemList, error)
	Create(ctx context.Context, externalID string) (*model.WorkItem, error)
	Get(ctx context.Context, id int64) (*model.WorkItem, error)
	List(ctx context.Context, filter *WorkItemQueryFilter, opts *WorkItemQueryOptions) (model.WorkItemList, error)
	Transition(ctx context.Context, id int64, from, to model.WorkItemStatus) error
	CountByStatus(ctx context.Context) (model.QueueStats, error)
	RequeueStale(ctx context.Context, olderThan time.Time) (int64, error)
}

type WorkItemStore struct {
	db *gorm.DB
}

// Make sure we conform to WorkItem interface
var _ WorkItem = (*WorkItemStore)(nil)

func NewWorkItemStore(db *gorm.DB) WorkItem {
	return &WorkItemStore{db: db}
}

// Claim moves up to limit of the oldest pending items to processing and returns them in
// creation order. Candidate rows are locked with FOR UPDATE SKIP LOCKED so concurrent
// claimers never see the same row: a row locked by another claim is skipped, not awaited.
// Selection and update share one transaction; on error nothing is claimed.
func (w *WorkItemStore) Claim(ctx context.Context, limit int) (model.WorkItemList, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrClaimFailed, limit)
	}

	var claimed model.WorkItemList
	err := w.getDB(ctx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", model.WorkItemStatusPending).
			Order("created_at ASC").
			Order("id ASC").
			Limit(limit).
			Find(&claimed)
		if result.Error != nil {
			return result.Error
		}
		if len(claimed) == 0 {
			return nil
		}

		now := time.Now().UTC()
		result = tx.Model(&model.WorkItem{}).
			Where("id IN ?", claimed.IDs()).
			Where("status = ?", model.WorkItemStatusPending).
			Updates(map[string]any{
				"status":     model.WorkItemStatusProcessing,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(claimed)) {
			return fmt.Errorf("claimed %d rows but updated %d", len(claimed), result.RowsAffected)
		}

		for i := range claimed {
			claimed[i].Status = model.WorkItemStatusProcessing
			claimed[i].UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClaimFailed, err)
	}

	return claimed, nil
}

func (w *WorkItemStore) Create(ctx context.Context, externalID string) (*model.WorkItem, error) {
	if externalID == "" {
		return nil, errors.New("external id is required")
	}

	now := time.Now().UTC()
	item := model.WorkItem{
		ExternalID: externalID,
		Status:     model.WorkItemStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := w.getDB(ctx).WithContext(ctx).Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}

	return &item, nil
}

func (w *WorkItemStore) Get(ctx context.Context, id int64) (*model.WorkItem, error) {
	var item model.WorkItem
	result := w.getDB(ctx).WithContext(ctx).First(&item, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &item, nil
}

func (w *WorkItemStore) List(ctx context.Context, filter *WorkItemQueryFilter, opts *WorkItemQueryOptions) (model.WorkItemList, error) {
	var items model.WorkItemList
	tx := w.getDB(ctx).WithContext(ctx).Model(&items)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	result := tx.Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}
	return items, nil
}

// Transition moves the item from one status to another and stamps updated_at.
// The update is conditional on the current status, so a concurrent writer that already
// moved the row makes this call fail with ErrInvalidTransition instead of overwriting it.
func (w *WorkItemStore) Transition(ctx context.Context, id int64, from, to model.WorkItemStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	result := w.getDB(ctx).WithContext(ctx).Model(&model.WorkItem{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := w.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: item %d is not %s", ErrInvalidTransition, id, from)
	}

	return nil
}

func (w *WorkItemStore) CountByStatus(ctx context.Context) (model.QueueStats, error) {
	var counts []model.StatusCount
	result := w.getDB(ctx).WithContext(ctx).Model(&model.WorkItem{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts)
	if result.Error != nil {
		return model.QueueStats{}, result.Error
	}
	return model.NewQueueStats(counts), nil
}

// RequeueStale puts processing items whose last transition is older than olderThan back
// to pending. It is an operator recovery tool for items left behind by a crashed worker.
func (w *WorkItemStore) RequeueStale(ctx context.Context, olderThan time.Time) (int64, error) {
	var requeued int64
	err := w.getDB(ctx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale model.WorkItemList
		result := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", model.WorkItemStatusProcessing).
			Where("updated_at < ?", olderThan).
			Find(&stale)
		if result.Error != nil {
			return result.Error
		}
		if len(stale) == 0 {
			return nil
		}

		result = tx.Model(&model.WorkItem{}).
			Where("id IN ?", stale.IDs()).
			Where("status = ?", model.WorkItemStatusProcessing).
			Updates(map[string]any{
				"status":     model.WorkItemStatusPending,
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		requeued = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return requeued, nil
}

func (w *WorkItemStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return w.db
}
