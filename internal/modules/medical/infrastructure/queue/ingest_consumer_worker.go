package queue

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"MediVision/internal/modules/medical/domain/entity"
	"MediVision/internal/modules/medical/domain/repository"
	"MediVision/internal/modules/medical/infrastructure/mq"
	"MediVision/pkg/zlog"

	"go.uber.org/zap"
)

// Indexer is implemented by the ingest service; the worker stays decoupled
// from the application layer.
type Indexer interface {
	IndexKnowledge(ctx context.Context, doc entity.KnowledgeText) ([]string, error)
}

// IngestConsumerWorker consumes published event ids, reloads the outbox row
// and indexes its document into the knowledge collection.
type IngestConsumerWorker struct {
	consumer  mq.Consumer
	eventRepo repository.IngestEventRepository
	indexer   Indexer
}

func NewIngestConsumerWorker(consumer mq.Consumer, eventRepo repository.IngestEventRepository, indexer Indexer) *IngestConsumerWorker {
	return &IngestConsumerWorker{
		consumer:  consumer,
		eventRepo: eventRepo,
		indexer:   indexer,
	}
}

func (w *IngestConsumerWorker) Run(ctx context.Context) error {
	if w == nil || w.consumer == nil {
		return errors.New("consumer is nil")
	}
	if w.eventRepo == nil {
		return errors.New("event repo is nil")
	}
	if w.indexer == nil {
		return errors.New("indexer is nil")
	}
	return w.consumer.Run(ctx, w)
}

func (w *IngestConsumerWorker) Handle(ctx context.Context, msg mq.Message) error {
	idStr := strings.TrimSpace(string(msg.Value))
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		zlog.Warn("ingest consumer invalid event id", zap.String("topic", msg.Topic))
		return nil
	}

	ev, err := w.eventRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil
		}
		zlog.Warn("ingest consumer get event failed", zap.Int64("event_id", id), zap.Error(err))
		return err
	}
	if ev.Status == repository.IngestStatusSucceeded {
		// Redelivery after a crash between index and offset commit.
		return nil
	}

	doc := entity.KnowledgeText{
		Title:     ev.Title,
		Category:  ev.Category,
		Specialty: ev.Specialty,
		Source:    ev.Source,
		Content:   ev.Content,
	}

	ids, procErr := w.indexer.IndexKnowledge(ctx, doc)
	if procErr != nil {
		_ = w.eventRepo.MarkFailed(ctx, ev.ID, scrubErrMsg(procErr.Error()))
		zlog.Warn("ingest consumer event failed",
			zap.Int64("event_id", ev.ID),
			zap.String("title", ev.Title),
			zap.String("error", scrubErrMsg(procErr.Error())),
		)
		return nil
	}

	if err := w.eventRepo.MarkSucceeded(ctx, ev.ID); err != nil {
		zlog.Warn("ingest consumer mark succeeded failed", zap.Int64("event_id", ev.ID), zap.Error(err))
		return err
	}

	zlog.Info("ingest consumer event indexed",
		zap.Int64("event_id", ev.ID),
		zap.String("title", ev.Title),
		zap.Int("chunks", len(ids)),
	)
	return nil
}

// scrubErrMsg keeps provider credentials out of the outbox table.
func scrubErrMsg(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	low := strings.ToLower(s)
	if strings.Contains(low, "api_key") || strings.Contains(low, "apikey") || strings.Contains(low, "secret") || strings.Contains(s, "sk-") {
		return "redacted"
	}
	if len(s) > 255 {
		return s[:255]
	}
	return s
}
