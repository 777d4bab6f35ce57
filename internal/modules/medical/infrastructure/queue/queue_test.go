package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"MediVision/internal/modules/medical/domain/entity"
	"MediVision/internal/modules/medical/domain/repository"
	"MediVision/internal/modules/medical/infrastructure/mq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEventRepo is an in-memory stand-in for the MySQL outbox.
type fakeEventRepo struct {
	nextID int64
	events map[int64]*repository.IngestEvent
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[int64]*repository.IngestEvent{}}
}

func (r *fakeEventRepo) add(ev repository.IngestEvent) int64 {
	r.nextID++
	ev.ID = r.nextID
	if ev.Status == "" {
		ev.Status = repository.IngestStatusPending
	}
	r.events[ev.ID] = &ev
	return ev.ID
}

func (r *fakeEventRepo) Enqueue(_ context.Context, events []*repository.IngestEvent) error {
	for _, ev := range events {
		r.nextID++
		ev.ID = r.nextID
		ev.Status = repository.IngestStatusPending
		cp := *ev
		r.events[ev.ID] = &cp
	}
	return nil
}

func (r *fakeEventRepo) Get(_ context.Context, id int64) (*repository.IngestEvent, error) {
	ev, ok := r.events[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

func (r *fakeEventRepo) FetchPending(_ context.Context, limit int) ([]*repository.IngestEvent, error) {
	var out []*repository.IngestEvent
	for id := int64(1); id <= r.nextID && len(out) < limit; id++ {
		if ev, ok := r.events[id]; ok && ev.Status == repository.IngestStatusPending {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) setStatus(id int64, status, cause string) error {
	ev, ok := r.events[id]
	if !ok {
		return entity.ErrNotFound
	}
	ev.Status = status
	ev.LastError = cause
	ev.UpdatedAt = time.Now()
	return nil
}

func (r *fakeEventRepo) MarkPublished(_ context.Context, id int64) error {
	return r.setStatus(id, repository.IngestStatusPublished, "")
}

func (r *fakeEventRepo) MarkSucceeded(_ context.Context, id int64) error {
	return r.setStatus(id, repository.IngestStatusSucceeded, "")
}

func (r *fakeEventRepo) MarkFailed(_ context.Context, id int64, cause string) error {
	return r.setStatus(id, repository.IngestStatusFailed, cause)
}

type fakePublisher struct {
	published []mq.Message
	failAfter int // publish fails once this many messages have gone through; <0 never fails
}

func (p *fakePublisher) Publish(_ context.Context, msg mq.Message) (mq.PublishResult, error) {
	if p.failAfter >= 0 && len(p.published) >= p.failAfter {
		return mq.PublishResult{}, errors.New("broker unavailable")
	}
	p.published = append(p.published, msg)
	return mq.PublishResult{Partition: 0, Offset: int64(len(p.published))}, nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeIndexer struct {
	indexed []entity.KnowledgeText
	err     error
}

func (f *fakeIndexer) IndexKnowledge(_ context.Context, doc entity.KnowledgeText) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.indexed = append(f.indexed, doc)
	return []string{"chunk-1"}, nil
}

func TestOutboxRelayPublishesPending(t *testing.T) {
	repo := newFakeEventRepo()
	id1 := repo.add(repository.IngestEvent{Title: "Hypertension Management", Category: "treatment", Content: "body"})
	id2 := repo.add(repository.IngestEvent{Title: "Sepsis Recognition", Category: "diagnosis", Content: "body"})
	pub := &fakePublisher{failAfter: -1}

	relay := NewOutboxRelay(repo, pub, "ingest", 100, time.Millisecond)
	n, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, pub.published, 2)
	assert.Equal(t, strconv.FormatInt(id1, 10), string(pub.published[0].Value))
	assert.Equal(t, "Hypertension Management", pub.published[0].Headers["title"])
	assert.Equal(t, repository.IngestStatusPublished, repo.events[id1].Status)
	assert.Equal(t, repository.IngestStatusPublished, repo.events[id2].Status)

	// Nothing left pending on the next pass.
	n, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOutboxRelayKeepsRowPendingOnPublishFailure(t *testing.T) {
	repo := newFakeEventRepo()
	id1 := repo.add(repository.IngestEvent{Title: "First", Content: "body"})
	id2 := repo.add(repository.IngestEvent{Title: "Second", Content: "body"})
	pub := &fakePublisher{failAfter: 1}

	relay := NewOutboxRelay(repo, pub, "ingest", 100, time.Millisecond)
	n, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, repository.IngestStatusPublished, repo.events[id1].Status)
	assert.Equal(t, repository.IngestStatusPending, repo.events[id2].Status)
}

func TestIngestWorkerHandleSuccess(t *testing.T) {
	repo := newFakeEventRepo()
	id := repo.add(repository.IngestEvent{
		Title: "Diabetes Type 2 Overview", Category: "chronic_disease",
		Content: "Type 2 diabetes is characterized by insulin resistance.",
		Status:  repository.IngestStatusPublished,
	})
	indexer := &fakeIndexer{}
	w := NewIngestConsumerWorker(nil, repo, indexer)

	err := w.Handle(context.Background(), mq.Message{Topic: "ingest", Value: []byte(strconv.FormatInt(id, 10))})
	require.NoError(t, err)

	require.Len(t, indexer.indexed, 1)
	assert.Equal(t, "Diabetes Type 2 Overview", indexer.indexed[0].Title)
	assert.Equal(t, repository.IngestStatusSucceeded, repo.events[id].Status)
}

func TestIngestWorkerHandleIndexFailure(t *testing.T) {
	repo := newFakeEventRepo()
	id := repo.add(repository.IngestEvent{
		Title: "Broken", Content: "body", Status: repository.IngestStatusPublished,
	})
	indexer := &fakeIndexer{err: errors.New("embedder timeout")}
	w := NewIngestConsumerWorker(nil, repo, indexer)

	// A failed document is recorded, not redelivered forever.
	err := w.Handle(context.Background(), mq.Message{Topic: "ingest", Value: []byte(strconv.FormatInt(id, 10))})
	require.NoError(t, err)

	assert.Equal(t, repository.IngestStatusFailed, repo.events[id].Status)
	assert.Equal(t, "embedder timeout", repo.events[id].LastError)
}

func TestIngestWorkerSkipsSucceededAndUnknown(t *testing.T) {
	repo := newFakeEventRepo()
	id := repo.add(repository.IngestEvent{
		Title: "Done", Content: "body", Status: repository.IngestStatusSucceeded,
	})
	indexer := &fakeIndexer{}
	w := NewIngestConsumerWorker(nil, repo, indexer)

	require.NoError(t, w.Handle(context.Background(), mq.Message{Value: []byte(strconv.FormatInt(id, 10))}))
	require.NoError(t, w.Handle(context.Background(), mq.Message{Value: []byte("9999")}))
	require.NoError(t, w.Handle(context.Background(), mq.Message{Value: []byte("not-a-number")}))
	assert.Empty(t, indexer.indexed)
}

func TestScrubErrMsg(t *testing.T) {
	assert.Equal(t, "redacted", scrubErrMsg("invalid api_key provided"))
	assert.Equal(t, "redacted", scrubErrMsg("auth failed for sk-abc123"))
	assert.Equal(t, "plain failure", scrubErrMsg("  plain failure "))

	long := scrubErrMsg(fmt.Sprintf("%0300d", 1))
	assert.Len(t, long, 255)
}
