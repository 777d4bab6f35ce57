package queue

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"MediVision/internal/modules/medical/domain/repository"
	"MediVision/internal/modules/medical/infrastructure/mq"
	"MediVision/pkg/zlog"

	"go.uber.org/zap"
)

// OutboxRelay moves pending ingest events from the MySQL outbox onto the
// Kafka topic. Only the event id travels on the wire; the worker reloads the
// row so the payload is always the current one.
type OutboxRelay struct {
	repo         repository.IngestEventRepository
	pub          mq.Publisher
	topic        string
	batchSize    int
	pollInterval time.Duration
}

func NewOutboxRelay(repo repository.IngestEventRepository, pub mq.Publisher, topic string, batchSize int, pollInterval time.Duration) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &OutboxRelay{
		repo:         repo,
		pub:          pub,
		topic:        strings.TrimSpace(topic),
		batchSize:    batchSize,
		pollInterval: pollInterval,
	}
}

func (r *OutboxRelay) Run(ctx context.Context) error {
	if r.repo == nil {
		return errors.New("ingest event repo is nil")
	}
	if r.pub == nil {
		return errors.New("publisher is nil")
	}
	if r.topic == "" {
		return errors.New("ingest topic is empty")
	}

	backoff := r.pollInterval
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := r.RunOnce(ctx)
		if err != nil {
			time.Sleep(backoff)
			backoff = backoff * 2
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
			continue
		}
		backoff = r.pollInterval

		if n == 0 {
			time.Sleep(r.pollInterval)
		}
	}
}

func (r *OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	events, err := r.repo.FetchPending(ctx, r.batchSize)
	if err != nil {
		zlog.Warn("outbox relay fetch failed", zap.Error(err))
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	published := 0
	for _, ev := range events {
		id := strconv.FormatInt(ev.ID, 10)
		_, pubErr := r.pub.Publish(ctx, mq.Message{
			Topic: r.topic,
			Key:   []byte(id),
			Value: []byte(id),
			Headers: map[string]string{
				"title":    ev.Title,
				"category": ev.Category,
			},
		})
		if pubErr != nil {
			// Row stays pending; the next poll retries it.
			zlog.Warn("outbox relay publish failed", zap.Int64("event_id", ev.ID), zap.Error(pubErr))
			continue
		}

		if err := r.repo.MarkPublished(ctx, ev.ID); err != nil {
			zlog.Warn("outbox relay mark published failed", zap.Int64("event_id", ev.ID), zap.Error(err))
			continue
		}
		published++
	}

	return published, nil
}
