package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"MediVision/internal/modules/medical/domain/entity"
	"MediVision/internal/modules/medical/domain/repository"
	infraembed "MediVision/internal/modules/medical/infrastructure/embedding"
	"MediVision/pkg/zlog"

	"github.com/cloudwego/eino/components/embedding"
	"go.uber.org/zap"
)

// scanCap bounds how many memory rows a history scan pulls before sorting.
// Recency ordering happens in process, so the scan must fetch more than the
// requested page.
const scanCap = 1000

// MemoryService owns the patient memory collection: every interaction is
// embedded and stored as one point, and history is reconstructed from the
// point metadata.
type MemoryService struct {
	store      repository.VectorStore
	embedder   embedding.Embedder
	collection string
}

func NewMemoryService(store repository.VectorStore, embedder embedding.Embedder, collection string) *MemoryService {
	return &MemoryService{
		store:      store,
		embedder:   embedder,
		collection: collection,
	}
}

// StoreInteraction embeds the content and persists one history point. The
// interaction id is generated by the store when empty.
func (s *MemoryService) StoreInteraction(ctx context.Context, patientID string, itype entity.InteractionType, content string, extra map[string]any) (string, error) {
	return s.StoreInteractionAt(ctx, patientID, itype, content, extra, time.Now())
}

// StoreInteractionAt is StoreInteraction with an explicit timestamp; the
// seeder uses it to replay historical records.
func (s *MemoryService) StoreInteractionAt(ctx context.Context, patientID string, itype entity.InteractionType, content string, extra map[string]any, at time.Time) (string, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return "", fmt.Errorf("patient id is empty")
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("interaction content is empty")
	}
	if itype == "" {
		itype = entity.InteractionConsultation
	}

	vector, err := infraembed.EmbedOne(ctx, s.embedder, content)
	if err != nil {
		return "", fmt.Errorf("embed interaction: %w", err)
	}

	meta := map[string]any{
		"patient_id": patientID,
		"type":       string(itype),
		"timestamp":  at.Format(time.RFC3339),
	}
	for k, v := range extra {
		if _, reserved := meta[k]; reserved {
			continue
		}
		meta[k] = v
	}

	ids, err := s.store.Upsert(ctx, s.collection, []repository.Point{{
		Vector:   vector,
		Content:  content,
		Metadata: meta,
	}})
	if err != nil {
		return "", err
	}

	zlog.Info("stored patient interaction",
		zap.String("patient_id", patientID),
		zap.String("type", string(itype)),
		zap.String("interaction_id", ids[0]))
	return ids[0], nil
}

// RetrieveHistory returns the patient's most recent interactions, newest
// first. This is a metadata scan, not a similarity search: every interaction
// of the patient is a candidate regardless of its vector.
func (s *MemoryService) RetrieveHistory(ctx context.Context, patientID string, limit int) ([]entity.Interaction, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, fmt.Errorf("patient id is empty")
	}
	if limit <= 0 {
		limit = 10
	}

	hits, err := s.store.Scan(ctx, s.collection, map[string]any{"patient_id": patientID}, scanCap)
	if err != nil {
		return nil, err
	}

	interactions := make([]entity.Interaction, 0, len(hits))
	for _, h := range hits {
		interactions = append(interactions, hitToInteraction(h))
	}
	sort.SliceStable(interactions, func(i, j int) bool {
		return interactions[i].Timestamp > interactions[j].Timestamp
	})
	if len(interactions) > limit {
		interactions = interactions[:limit]
	}
	return interactions, nil
}

// SemanticSearch ranks the patient's own interactions against the query.
// The patient filter is applied inside the store, so other patients' records
// never enter the candidate set.
func (s *MemoryService) SemanticSearch(ctx context.Context, patientID, query string, limit int) ([]entity.Interaction, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, fmt.Errorf("patient id is empty")
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if limit <= 0 {
		limit = 5
	}

	vector, err := infraembed.EmbedOne(ctx, s.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.store.Search(ctx, s.collection, vector, limit, 0, map[string]any{"patient_id": patientID})
	if err != nil {
		return nil, err
	}

	interactions := make([]entity.Interaction, 0, len(hits))
	for _, h := range hits {
		it := hitToInteraction(h)
		it.RelevanceScore = h.Score
		interactions = append(interactions, it)
	}
	return interactions, nil
}

// Summarize aggregates up to the 100 most recent interactions into visit
// statistics. First visit is the oldest of that window, last visit the
// newest.
func (s *MemoryService) Summarize(ctx context.Context, patientID string) (entity.PatientSummary, error) {
	history, err := s.RetrieveHistory(ctx, patientID, 100)
	if err != nil {
		return entity.PatientSummary{}, err
	}

	types := make(map[string]int)
	for _, it := range history {
		t := string(it.Type)
		if t == "" {
			t = "unknown"
		}
		types[t]++
	}

	summary := entity.PatientSummary{
		PatientID:          patientID,
		TotalInteractions:  len(history),
		InteractionTypes:   types,
		RecentInteractions: history,
	}
	if len(history) > 0 {
		summary.LastVisit = history[0].Timestamp
		summary.FirstVisit = history[len(history)-1].Timestamp
	}
	if len(summary.RecentInteractions) > 5 {
		summary.RecentInteractions = summary.RecentInteractions[:5]
	}
	return summary, nil
}

// UpdateInteraction merges field updates into an existing interaction,
// addressed by its id. The vector is re-computed only when the content
// changes; metadata-only updates keep the original embedding.
func (s *MemoryService) UpdateInteraction(ctx context.Context, interactionID string, updates map[string]any) error {
	interactionID = strings.TrimSpace(interactionID)
	if interactionID == "" {
		return fmt.Errorf("interaction id is empty")
	}
	if len(updates) == 0 {
		return nil
	}

	point, err := s.store.GetByID(ctx, s.collection, interactionID)
	if err != nil {
		return err
	}

	content := point.Content
	vector := point.Vector
	if raw, ok := updates["content"]; ok {
		newContent, ok := raw.(string)
		if !ok || strings.TrimSpace(newContent) == "" {
			return fmt.Errorf("content update must be a non-empty string")
		}
		content = newContent
		vector, err = infraembed.EmbedOne(ctx, s.embedder, newContent)
		if err != nil {
			return fmt.Errorf("re-embed interaction: %w", err)
		}
	}

	meta := make(map[string]any, len(point.Metadata)+len(updates))
	for k, v := range point.Metadata {
		meta[k] = v
	}
	for k, v := range updates {
		if k == "content" || k == "patient_id" {
			continue
		}
		meta[k] = v
	}

	_, err = s.store.Upsert(ctx, s.collection, []repository.Point{{
		ID:       interactionID,
		Vector:   vector,
		Content:  content,
		Metadata: meta,
	}})
	if err != nil {
		return err
	}

	zlog.Info("updated patient interaction", zap.String("interaction_id", interactionID))
	return nil
}

func hitToInteraction(h repository.Hit) entity.Interaction {
	it := entity.Interaction{
		ID:      h.ID,
		Content: h.Content,
	}

	extra := make(map[string]any)
	for k, v := range h.Metadata {
		switch k {
		case "patient_id":
			it.PatientID, _ = v.(string)
		case "type":
			if t, ok := v.(string); ok {
				it.Type = entity.InteractionType(t)
			}
		case "timestamp":
			it.Timestamp, _ = v.(string)
		default:
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		it.Extra = extra
	}
	return it
}
