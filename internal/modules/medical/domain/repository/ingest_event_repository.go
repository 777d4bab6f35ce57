package repository

import (
	"context"
	"time"
)

// Ingest event lifecycle: pending -> published -> succeeded | failed.
// Pending rows are picked up by the outbox relay; the consumer worker moves
// them to a terminal state after indexing.
const (
	IngestStatusPending   = "pending"
	IngestStatusPublished = "published"
	IngestStatusSucceeded = "succeeded"
	IngestStatusFailed    = "failed"
)

// IngestEvent is one knowledge document queued for asynchronous indexing.
type IngestEvent struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Title     string    `gorm:"size:256"`
	Category  string    `gorm:"size:64;index"`
	Specialty string    `gorm:"size:64"`
	Source    string    `gorm:"size:256"`
	Content   string    `gorm:"type:text"`
	Status    string    `gorm:"size:16;index;default:pending"`
	LastError string    `gorm:"size:1024"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (IngestEvent) TableName() string { return "knowledge_ingest_events" }

// IngestEventRepository is the MySQL-backed outbox for async knowledge
// ingest.
type IngestEventRepository interface {
	Enqueue(ctx context.Context, events []*IngestEvent) error
	Get(ctx context.Context, id int64) (*IngestEvent, error)
	FetchPending(ctx context.Context, limit int) ([]*IngestEvent, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkSucceeded(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, cause string) error
}
