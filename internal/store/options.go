package store

import (
	"time"

	"github.com/kubev2v/transcript-drainer/internal/store/model"
	"gorm.io/gorm"
)

type SortOrder int

const (
	Unsorted SortOrder = iota
	SortByID
	SortByUpdatedTime
	SortByCreatedTime
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type WorkItemQueryFilter BaseQuerier

func NewWorkItemQueryFilter() *WorkItemQueryFilter {
	return &WorkItemQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *WorkItemQueryFilter) ByStatus(statuses ...model.WorkItemStatus) *WorkItemQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status IN ?", statuses)
	})
	return qf
}

func (qf *WorkItemQueryFilter) ByExternalID(externalID string) *WorkItemQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("external_id = ?", externalID)
	})
	return qf
}

func (qf *WorkItemQueryFilter) ByID(ids ...int64) *WorkItemQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id IN ?", ids)
	})
	return qf
}

func (qf *WorkItemQueryFilter) UpdatedBefore(t time.Time) *WorkItemQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("updated_at < ?", t)
	})
	return qf
}

type WorkItemQueryOptions BaseQuerier

func NewWorkItemQueryOptions() *WorkItemQueryOptions {
	return &WorkItemQueryOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (o *WorkItemQueryOptions) WithSortOrder(sort SortOrder) *WorkItemQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		switch sort {
		case SortByID:
			return tx.Order("id")
		case SortByUpdatedTime:
			return tx.Order("updated_at")
		case SortByCreatedTime:
			return tx.Order("created_at").Order("id")
		default:
			return tx
		}
	})
	return o
}

// Limit results
func (o *WorkItemQueryOptions) WithLimit(limit int) *WorkItemQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(limit)
	})
	return o
}
