package model

import (
	"fmt"
	"strings"
)

type QueueStats struct {
	// Total is the total number of work items
	Total int64
	// ByStatus holds the number of work items in each status
	ByStatus map[WorkItemStatus]int64
}

type StatusCount struct {
	Status WorkItemStatus
	Count  int64
}

func NewQueueStats(counts []StatusCount) QueueStats {
	stats := QueueStats{ByStatus: make(map[WorkItemStatus]int64, len(AllWorkItemStatuses))}
	for _, s := range AllWorkItemStatuses {
		stats.ByStatus[s] = 0
	}
	for _, c := range counts {
		stats.ByStatus[c.Status] += c.Count
		stats.Total += c.Count
	}
	return stats
}

// Drained is true when nothing is waiting and nothing is in flight.
func (q QueueStats) Drained() bool {
	return q.ByStatus[WorkItemStatusPending] == 0 && q.ByStatus[WorkItemStatusProcessing] == 0
}

func (q QueueStats) String() string {
	parts := make([]string, 0, len(AllWorkItemStatuses)+1)
	for _, s := range AllWorkItemStatuses {
		parts = append(parts, fmt.Sprintf("%s=%d", s, q.ByStatus[s]))
	}
	parts = append(parts, fmt.Sprintf("total=%d", q.Total))
	return strings.Join(parts, " ")
}
