package service

import (
	"context"
	"strings"
	"testing"

	"MediVision/internal/modules/medical/domain/entity"
	"MediVision/internal/modules/medical/domain/repository"
	"MediVision/internal/modules/medical/infrastructure/chunking"
	"MediVision/internal/modules/medical/infrastructure/embedding"
	"MediVision/internal/modules/medical/infrastructure/vectordb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIngestServiceForTest(t *testing.T, chunker *chunking.SimpleChunker, eventRepo repository.IngestEventRepository) (IngestService, *vectordb.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	store := vectordb.NewMemoryStore()
	require.NoError(t, store.EnsureCollection(ctx, "medical_texts", 64))
	require.NoError(t, store.EnsureCollection(ctx, "medical_images", 32))
	svc := NewIngestService(store, embedding.NewMockEmbedder(64), embedding.NewMockImageEmbedder(32),
		chunker, eventRepo, "medical_texts", "medical_images")
	return svc, store
}

func TestIndexKnowledgeSingleChunk(t *testing.T) {
	svc, store := newIngestServiceForTest(t, chunking.NewSimpleChunker(4000, 0), nil)
	ctx := context.Background()

	ids, err := svc.IndexKnowledge(ctx, entity.KnowledgeText{
		Title:     "Hypertension Management Guidelines",
		Category:  "treatment",
		Specialty: "cardiology",
		Content:   "First-line treatment includes lifestyle modifications and thiazide diuretics.",
	})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	p, err := store.GetByID(ctx, "medical_texts", ids[0])
	require.NoError(t, err)
	assert.Equal(t, "Hypertension Management Guidelines", p.Metadata["title"])
	assert.Equal(t, "treatment", p.Metadata["category"])
	assert.Equal(t, "cardiology", p.Metadata["specialty"])
	assert.Contains(t, p.Content, "thiazide diuretics")
}

func TestIndexKnowledgeChunksLongDocument(t *testing.T) {
	svc, store := newIngestServiceForTest(t, chunking.NewSimpleChunker(50, 0), nil)
	ctx := context.Background()

	ids, err := svc.IndexKnowledge(ctx, entity.KnowledgeText{
		Title:    "Sepsis Recognition",
		Category: "diagnosis",
		Content:  strings.Repeat("Early recognition of sepsis saves lives. ", 5),
	})
	require.NoError(t, err)
	require.Greater(t, len(ids), 1)

	// Every chunk carries the document metadata and its own index.
	seen := map[int]bool{}
	for _, id := range ids {
		p, err := store.GetByID(ctx, "medical_texts", id)
		require.NoError(t, err)
		assert.Equal(t, "Sepsis Recognition", p.Metadata["title"])
		idx, ok := p.Metadata["chunk_index"].(int)
		require.True(t, ok)
		seen[idx] = true
	}
	assert.Len(t, seen, len(ids))
}

func TestIndexKnowledgeValidation(t *testing.T) {
	svc, _ := newIngestServiceForTest(t, nil, nil)
	ctx := context.Background()

	_, err := svc.IndexKnowledge(ctx, entity.KnowledgeText{Title: "No Body"})
	assert.Error(t, err)

	_, err = svc.IndexKnowledge(ctx, entity.KnowledgeText{Content: "no title"})
	assert.Error(t, err)
}

func TestIndexImage(t *testing.T) {
	svc, store := newIngestServiceForTest(t, nil, nil)
	ctx := context.Background()
	path := writeTestPNG(t, 120)

	id, err := svc.IndexImage(ctx, entity.KnowledgeImage{
		ImagePath: path,
		Modality:  "xray",
		BodyPart:  "chest",
		Diagnosis: "Pneumonia",
		Findings:  "Right lower lobe consolidation",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	p, err := store.GetByID(ctx, "medical_images", id)
	require.NoError(t, err)
	assert.Equal(t, "xray", p.Metadata["modality"])
	assert.Equal(t, "Pneumonia", p.Metadata["diagnosis"])
	assert.Equal(t, "Right lower lobe consolidation", p.Content)
}

func TestIndexImageMissingFile(t *testing.T) {
	svc, _ := newIngestServiceForTest(t, nil, nil)

	_, err := svc.IndexImage(context.Background(), entity.KnowledgeImage{
		ImagePath: "/nonexistent/scan.png",
		Modality:  "xray",
	})
	assert.ErrorIs(t, err, entity.ErrImageNotFound)
}

func TestEnqueueBatchWithoutOutbox(t *testing.T) {
	svc, _ := newIngestServiceForTest(t, nil, nil)

	_, err := svc.EnqueueBatch(context.Background(), []entity.KnowledgeText{
		{Title: "Doc", Content: "body"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

// stubEventRepo records enqueued events; the relay/worker paths have their own
// tests against the queue package.
type stubEventRepo struct {
	enqueued []*repository.IngestEvent
	nextID   int64
}

func (r *stubEventRepo) Enqueue(_ context.Context, events []*repository.IngestEvent) error {
	for _, ev := range events {
		r.nextID++
		ev.ID = r.nextID
		ev.Status = repository.IngestStatusPending
		r.enqueued = append(r.enqueued, ev)
	}
	return nil
}

func (r *stubEventRepo) Get(context.Context, int64) (*repository.IngestEvent, error) {
	return nil, entity.ErrNotFound
}
func (r *stubEventRepo) FetchPending(context.Context, int) ([]*repository.IngestEvent, error) {
	return nil, nil
}
func (r *stubEventRepo) MarkPublished(context.Context, int64) error { return nil }
func (r *stubEventRepo) MarkSucceeded(context.Context, int64) error { return nil }
func (r *stubEventRepo) MarkFailed(context.Context, int64, string) error {
	return nil
}

func TestEnqueueBatch(t *testing.T) {
	repo := &stubEventRepo{}
	svc, _ := newIngestServiceForTest(t, nil, repo)

	ids, err := svc.EnqueueBatch(context.Background(), []entity.KnowledgeText{
		{Title: "Asthma Management", Category: "treatment", Content: "Inhaled corticosteroids are first line."},
		{Title: "Migraine Overview", Category: "diagnosis", Content: "Unilateral throbbing headache."},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
	require.Len(t, repo.enqueued, 2)
	assert.Equal(t, "Asthma Management", repo.enqueued[0].Title)
	assert.Equal(t, repository.IngestStatusPending, repo.enqueued[0].Status)

	// A document without a title fails the whole batch up front.
	_, err = svc.EnqueueBatch(context.Background(), []entity.KnowledgeText{{Content: "orphan"}})
	assert.Error(t, err)
}

func TestSeedLoadsDemoCorpus(t *testing.T) {
	svc, store := newIngestServiceForTest(t, chunking.NewSimpleChunker(4000, 0), nil)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, memTestCollection, 64))
	memory := NewMemoryService(store, embedding.NewMockEmbedder(64), memTestCollection)

	out, err := svc.Seed(ctx, memory)
	require.NoError(t, err)
	assert.Equal(t, len(demoMedicalTexts), out.TextsIndexed)
	assert.Equal(t, len(demoPatients), out.Patients)
	assert.Greater(t, out.Interactions, 0)

	info, err := store.Describe(ctx, "medical_texts")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.PointCount, int64(out.TextsIndexed))

	history, err := memory.RetrieveHistory(ctx, "P001", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, history)
}
