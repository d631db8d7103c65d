package model

import "time"

// TranscriptChunk is one ordered piece of a work item's transcript. Chunks are append only.
type TranscriptChunk struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	WorkItemID int64     `gorm:"column:work_item_id;not null;uniqueIndex:transcript_chunks_work_item_order_idx,priority:1"`
	ExternalID string    `gorm:"column:external_id;type:TEXT;not null;index"`
	OrderIndex int       `gorm:"column:order_index;not null;check:order_index > 0;uniqueIndex:transcript_chunks_work_item_order_idx,priority:2"`
	Text       string    `gorm:"column:text;type:TEXT;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	WorkItem   *WorkItem `gorm:"foreignKey:WorkItemID;references:ID;constraint:OnDelete:RESTRICT;"`
}

func (TranscriptChunk) TableName() string {
	return "transcript_chunks"
}

type TranscriptChunkList []TranscriptChunk

// NewTranscriptChunks numbers texts from 1 in the order given.
func NewTranscriptChunks(item WorkItem, texts []string) TranscriptChunkList {
	chunks := make(TranscriptChunkList, 0, len(texts))
	for i, t := range texts {
		chunks = append(chunks, TranscriptChunk{
			WorkItemID: item.ID,
			ExternalID: item.ExternalID,
			OrderIndex: i + 1,
			Text:       t,
		})
	}
	return chunks
}

func (l TranscriptChunkList) Texts() []string {
	texts := make([]string, 0, len(l))
	for _, c := range l {
		texts = append(texts, c.Text)
	}
	return texts
}
