package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type WorkItemStatus string

const (
	WorkItemStatusPending    WorkItemStatus = "pending"
	WorkItemStatusProcessing WorkItemStatus = "processing"
	WorkItemStatusCompleted  WorkItemStatus = "completed"
	WorkItemStatusFailed     WorkItemStatus = "failed"
)

// AllWorkItemStatuses lists every status in lifecycle order.
var AllWorkItemStatuses = []WorkItemStatus{
	WorkItemStatusPending,
	WorkItemStatusProcessing,
	WorkItemStatusCompleted,
	WorkItemStatusFailed,
}

// allowed transitions. processing -> pending only happens through the operator requeue sweep.
var transitions = map[WorkItemStatus][]WorkItemStatus{
	WorkItemStatusPending:    {WorkItemStatusProcessing},
	WorkItemStatusProcessing: {WorkItemStatusCompleted, WorkItemStatusFailed, WorkItemStatusPending},
}

func (s WorkItemStatus) IsTerminal() bool {
	return s == WorkItemStatusCompleted || s == WorkItemStatusFailed
}

func (s WorkItemStatus) Valid() bool {
	for _, st := range AllWorkItemStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s WorkItemStatus) CanTransitionTo(to WorkItemStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func ParseWorkItemStatus(s string) (WorkItemStatus, error) {
	status := WorkItemStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown work item status %q", s)
	}
	return status, nil
}

// WorkItem is a video waiting for its transcript to be extracted.
type WorkItem struct {
	ID         int64          `gorm:"primaryKey;autoIncrement"`
	ExternalID string         `gorm:"column:external_id;type:TEXT;not null"`
	Status     WorkItemStatus `gorm:"type:VARCHAR(32);not null;default:pending;index:work_items_status_created_at_idx,priority:1"`
	CreatedAt  time.Time      `gorm:"not null;index:work_items_status_created_at_idx,priority:2"`
	UpdatedAt  time.Time      `gorm:"not null"`
}

func (WorkItem) TableName() string {
	return "work_items"
}

type WorkItemList []WorkItem

func (w WorkItem) String() string {
	val, _ := json.Marshal(w)
	return string(val)
}

func (l WorkItemList) IDs() []int64 {
	ids := make([]int64, 0, len(l))
	for _, w := range l {
		ids = append(ids, w.ID)
	}
	return ids
}
