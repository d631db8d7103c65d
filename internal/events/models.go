package events

import "time"

// ItemOutcomeEvent is published once a work item reached a terminal status.
type ItemOutcomeEvent struct {
	WorkItemID int64     `json:"work_item_id"`
	ExternalID string    `json:"external_id"`
	Status     string    `json:"status"`
	Chunks     int       `json:"chunks"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// BatchEvent summarises one drained batch.
type BatchEvent struct {
	Batch     int       `json:"batch"`
	Claimed   int       `json:"claimed"`
	Completed int       `json:"completed"`
	Failed    int       `json:"failed"`
	Errors    int       `json:"errors"`
	Timestamp time.Time `json:"timestamp"`
}
