package service

import (
	"context"
	"testing"
	"time"

	"MediVision/internal/modules/medical/domain/entity"
	"MediVision/internal/modules/medical/infrastructure/embedding"
	"MediVision/internal/modules/medical/infrastructure/vectordb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const memTestCollection = "patient_memory"

func newMemoryServiceForTest(t *testing.T) (*MemoryService, *vectordb.MemoryStore) {
	t.Helper()
	store := vectordb.NewMemoryStore()
	require.NoError(t, store.EnsureCollection(context.Background(), memTestCollection, 64))
	svc := NewMemoryService(store, embedding.NewMockEmbedder(64), memTestCollection)
	return svc, store
}

func TestStoreInteractionValidation(t *testing.T) {
	svc, _ := newMemoryServiceForTest(t)
	ctx := context.Background()

	_, err := svc.StoreInteraction(ctx, "", entity.InteractionConsultation, "content", nil)
	assert.Error(t, err)

	_, err = svc.StoreInteraction(ctx, "P001", entity.InteractionConsultation, "   ", nil)
	assert.Error(t, err)

	id, err := svc.StoreInteraction(ctx, "P001", entity.InteractionConsultation, "persistent cough and fever", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestRetrieveHistoryOrderingAndIsolation(t *testing.T) {
	svc, _ := newMemoryServiceForTest(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	_, err := svc.StoreInteractionAt(ctx, "P001", entity.InteractionConsultation,
		"persistent cough and fever for 5 days", nil, base)
	require.NoError(t, err)
	_, err = svc.StoreInteractionAt(ctx, "P001", entity.InteractionFollowUp,
		"cough improving with antibiotics", nil, base.AddDate(0, 0, 5))
	require.NoError(t, err)
	_, err = svc.StoreInteractionAt(ctx, "P002", entity.InteractionConsultation,
		"increased thirst and frequent urination", nil, base.AddDate(0, 1, 0))
	require.NoError(t, err)

	history, err := svc.RetrieveHistory(ctx, "P001", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Newest first, P002's record never appears.
	assert.Equal(t, entity.InteractionFollowUp, history[0].Type)
	assert.Equal(t, entity.InteractionConsultation, history[1].Type)
	for _, h := range history {
		assert.Equal(t, "P001", h.PatientID)
	}

	// Limit applies after sorting: the single most recent record.
	top, err := svc.RetrieveHistory(ctx, "P001", 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, entity.InteractionFollowUp, top[0].Type)
}

func TestRetrieveHistoryUnknownPatient(t *testing.T) {
	svc, _ := newMemoryServiceForTest(t)

	history, err := svc.RetrieveHistory(context.Background(), "P999", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSemanticSearchScopedToPatient(t *testing.T) {
	svc, _ := newMemoryServiceForTest(t)
	ctx := context.Background()

	_, err := svc.StoreInteraction(ctx, "P001", entity.InteractionConsultation,
		"productive cough with fever and chest pain", nil)
	require.NoError(t, err)
	_, err = svc.StoreInteraction(ctx, "P001", entity.InteractionDiagnosis,
		"diagnosed with type 2 diabetes, started metformin", nil)
	require.NoError(t, err)
	_, err = svc.StoreInteraction(ctx, "P002", entity.InteractionConsultation,
		"productive cough with fever and chest pain", nil)
	require.NoError(t, err)

	results, err := svc.SemanticSearch(ctx, "P001", "cough fever chest pain", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, r := range results {
		assert.Equal(t, "P001", r.PatientID)
	}
	// The respiratory record outranks the diabetes one for this query.
	assert.Contains(t, results[0].Content, "cough")
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].RelevanceScore, results[i-1].RelevanceScore)
	}
}

func TestSummarize(t *testing.T) {
	svc, _ := newMemoryServiceForTest(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	_, err := svc.StoreInteractionAt(ctx, "P001", entity.InteractionConsultation,
		"persistent cough and fever", nil, base)
	require.NoError(t, err)
	_, err = svc.StoreInteractionAt(ctx, "P001", entity.InteractionFollowUp,
		"cough improving", nil, base.AddDate(0, 0, 5))
	require.NoError(t, err)
	_, err = svc.StoreInteractionAt(ctx, "P001", entity.InteractionFollowUp,
		"fully recovered", nil, base.AddDate(0, 0, 12))
	require.NoError(t, err)

	summary, err := svc.Summarize(ctx, "P001")
	require.NoError(t, err)

	assert.Equal(t, "P001", summary.PatientID)
	assert.Equal(t, 3, summary.TotalInteractions)
	assert.Equal(t, 1, summary.InteractionTypes["consultation"])
	assert.Equal(t, 2, summary.InteractionTypes["follow_up"])
	assert.Equal(t, base.Format(time.RFC3339), summary.FirstVisit)
	assert.Equal(t, base.AddDate(0, 0, 12).Format(time.RFC3339), summary.LastVisit)
	assert.LessOrEqual(t, len(summary.RecentInteractions), 5)
	assert.Equal(t, "fully recovered", summary.RecentInteractions[0].Content)
}

func TestSummarizeEmptyPatient(t *testing.T) {
	svc, _ := newMemoryServiceForTest(t)

	summary, err := svc.Summarize(context.Background(), "P404")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalInteractions)
	assert.Empty(t, summary.FirstVisit)
	assert.Empty(t, summary.LastVisit)
	assert.Empty(t, summary.RecentInteractions)
}

func TestUpdateInteractionMetadataKeepsVector(t *testing.T) {
	svc, store := newMemoryServiceForTest(t)
	ctx := context.Background()

	id, err := svc.StoreInteraction(ctx, "P001", entity.InteractionConsultation,
		"persistent cough and fever", nil)
	require.NoError(t, err)

	before, err := store.GetByID(ctx, memTestCollection, id)
	require.NoError(t, err)

	err = svc.UpdateInteraction(ctx, id, map[string]any{"reviewed": true})
	require.NoError(t, err)

	after, err := store.GetByID(ctx, memTestCollection, id)
	require.NoError(t, err)

	assert.Equal(t, before.Vector, after.Vector)
	assert.Equal(t, before.Content, after.Content)
	assert.Equal(t, true, after.Metadata["reviewed"])
	assert.Equal(t, "P001", after.Metadata["patient_id"])
}

func TestUpdateInteractionContentReembeds(t *testing.T) {
	svc, store := newMemoryServiceForTest(t)
	ctx := context.Background()

	id, err := svc.StoreInteraction(ctx, "P001", entity.InteractionConsultation,
		"persistent cough and fever", nil)
	require.NoError(t, err)

	before, err := store.GetByID(ctx, memTestCollection, id)
	require.NoError(t, err)

	err = svc.UpdateInteraction(ctx, id, map[string]any{"content": "severe unilateral throbbing headache"})
	require.NoError(t, err)

	after, err := store.GetByID(ctx, memTestCollection, id)
	require.NoError(t, err)

	assert.NotEqual(t, before.Vector, after.Vector)
	assert.Equal(t, "severe unilateral throbbing headache", after.Content)
	assert.Equal(t, "P001", after.Metadata["patient_id"])
}

func TestUpdateInteractionNotFound(t *testing.T) {
	svc, _ := newMemoryServiceForTest(t)

	err := svc.UpdateInteraction(context.Background(), "nope", map[string]any{"reviewed": true})
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
