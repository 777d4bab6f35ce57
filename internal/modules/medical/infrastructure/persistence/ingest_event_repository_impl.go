package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"MediVision/internal/modules/medical/domain/entity"
	"MediVision/internal/modules/medical/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ingestEventRepositoryImpl struct {
	db *gorm.DB
}

func NewIngestEventRepository(db *gorm.DB) repository.IngestEventRepository {
	return &ingestEventRepositoryImpl{db: db}
}

func (r *ingestEventRepositoryImpl) Enqueue(ctx context.Context, events []*repository.IngestEvent) error {
	if len(events) == 0 {
		return nil
	}
	for _, ev := range events {
		if ev.Status == "" {
			ev.Status = repository.IngestStatusPending
		}
	}
	return r.db.WithContext(ctx).Create(&events).Error
}

func (r *ingestEventRepositoryImpl) Get(ctx context.Context, id int64) (*repository.IngestEvent, error) {
	var event repository.IngestEvent
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&event).Error
	if err == nil {
		return &event, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: ingest event %d", entity.ErrNotFound, id)
	}
	return nil, err
}

// FetchPending claims a batch of pending rows inside a transaction with SKIP
// LOCKED, so multiple relay instances never publish the same event twice.
func (r *ingestEventRepositoryImpl) FetchPending(ctx context.Context, limit int) ([]*repository.IngestEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	var out []*repository.IngestEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var events []*repository.IngestEvent
		q := tx.Model(&repository.IngestEvent{}).
			Where("status = ?", repository.IngestStatusPending).
			Order("id ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&events).Error; err != nil {
			return err
		}
		out = events
		return nil
	})
	return out, err
}

func (r *ingestEventRepositoryImpl) MarkPublished(ctx context.Context, id int64) error {
	updates := map[string]any{
		"status":     repository.IngestStatusPublished,
		"last_error": "",
		"updated_at": time.Now(),
	}
	return r.db.WithContext(ctx).Model(&repository.IngestEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *ingestEventRepositoryImpl) MarkSucceeded(ctx context.Context, id int64) error {
	updates := map[string]any{
		"status":     repository.IngestStatusSucceeded,
		"last_error": "",
		"updated_at": time.Now(),
	}
	return r.db.WithContext(ctx).Model(&repository.IngestEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *ingestEventRepositoryImpl) MarkFailed(ctx context.Context, id int64, cause string) error {
	cause = strings.TrimSpace(cause)
	if len(cause) > 1024 {
		cause = cause[:1024]
	}
	updates := map[string]any{
		"status":     repository.IngestStatusFailed,
		"last_error": cause,
		"updated_at": time.Now(),
	}
	return r.db.WithContext(ctx).Model(&repository.IngestEvent{}).Where("id = ?", id).Updates(updates).Error
}
