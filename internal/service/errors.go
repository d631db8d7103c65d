package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/kubev2v/transcript-drainer/internal/store"
	"github.com/kubev2v/transcript-drainer/internal/store/model"
)

// ErrAlreadyReconciled is reported when an outcome arrives for an item which already
// reached a terminal status. The reconciler treats it as a no-op.
var ErrAlreadyReconciled = errors.New("work item already reconciled")

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id int64, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %d not found", resourceType, id)}
}

func NewErrWorkItemNotFound(id int64) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "work item")
}

type ErrWorkItemNotProcessing struct {
	error
}

func NewErrWorkItemNotProcessing(id int64, status model.WorkItemStatus) *ErrWorkItemNotProcessing {
	return &ErrWorkItemNotProcessing{fmt.Errorf("%w: work item %d is %s, expected %s", store.ErrInvalidTransition, id, status, model.WorkItemStatusProcessing)}
}

func (e *ErrWorkItemNotProcessing) Unwrap() error {
	return e.error
}

type ErrInvalidBatchSize struct {
	error
}

func NewErrInvalidBatchSize(size int) *ErrInvalidBatchSize {
	return &ErrInvalidBatchSize{fmt.Errorf("batch size must be a positive integer, got %d", size)}
}

type ErrInvalidExternalID struct {
	error
}

func NewErrInvalidExternalID(id string) *ErrInvalidExternalID {
	return &ErrInvalidExternalID{fmt.Errorf("invalid external id %q", id)}
}

type ErrInvalidThreshold struct {
	error
}

func NewErrInvalidThreshold(d time.Duration) *ErrInvalidThreshold {
	return &ErrInvalidThreshold{fmt.Errorf("threshold must be a positive duration, got %s", d)}
}
