package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MediVision/internal/modules/medical/application/dto/respond"
	"MediVision/internal/modules/medical/domain/entity"
	"MediVision/internal/modules/medical/domain/repository"
	"MediVision/internal/modules/medical/infrastructure/chunking"
	infraembed "MediVision/internal/modules/medical/infrastructure/embedding"
	"MediVision/pkg/zlog"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// IngestService indexes medical knowledge into the vector collections. The
// synchronous path chunks and embeds in-request; the asynchronous path parks
// documents in the MySQL outbox for the Kafka worker.
type IngestService interface {
	IndexKnowledge(ctx context.Context, doc entity.KnowledgeText) ([]string, error)
	IndexImage(ctx context.Context, img entity.KnowledgeImage) (string, error)
	EnqueueBatch(ctx context.Context, docs []entity.KnowledgeText) ([]int64, error)
	Seed(ctx context.Context, memory *MemoryService) (*respond.SeedRespond, error)
}

type ingestServiceImpl struct {
	store         repository.VectorStore
	textEmbedder  embedding.Embedder
	imageEmbedder repository.ImageEmbedder
	chunker       *chunking.SimpleChunker
	eventRepo     repository.IngestEventRepository // nil when MySQL is not configured

	textsCollection  string
	imagesCollection string
}

func NewIngestService(
	store repository.VectorStore,
	textEmbedder embedding.Embedder,
	imageEmbedder repository.ImageEmbedder,
	chunker *chunking.SimpleChunker,
	eventRepo repository.IngestEventRepository,
	textsCollection, imagesCollection string,
) IngestService {
	if chunker == nil {
		chunker = chunking.NewRecursiveChunker(800, 80)
	}
	return &ingestServiceImpl{
		store:            store,
		textEmbedder:     textEmbedder,
		imageEmbedder:    imageEmbedder,
		chunker:          chunker,
		eventRepo:        eventRepo,
		textsCollection:  textsCollection,
		imagesCollection: imagesCollection,
	}
}

// IndexKnowledge chunks the document, embeds every chunk and upserts the
// points. Returns the chunk point ids.
func (s *ingestServiceImpl) IndexKnowledge(ctx context.Context, doc entity.KnowledgeText) ([]string, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("document content is empty")
	}
	if strings.TrimSpace(doc.Title) == "" {
		return nil, fmt.Errorf("document title is empty")
	}

	meta := map[string]any{
		"title":    doc.Title,
		"category": doc.Category,
	}
	if doc.Specialty != "" {
		meta["specialty"] = doc.Specialty
	}
	if doc.Source != "" {
		meta["source"] = doc.Source
	}
	for k, v := range doc.Extra {
		if _, reserved := meta[k]; reserved {
			continue
		}
		meta[k] = v
	}

	chunks, err := s.chunker.ChunkDocuments(ctx, []*schema.Document{{Content: doc.Content, MetaData: meta}})
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return []string{}, nil
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Content)
	}
	vectors, err := s.textEmbedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	points := make([]repository.Point, 0, len(chunks))
	for i, c := range chunks {
		points = append(points, repository.Point{
			ID:       doc.ID, // empty unless single-chunk reindex
			Vector:   infraembed.ToFloat32(vectors[i]),
			Content:  c.Content,
			Metadata: c.MetaData,
		})
	}
	if len(points) > 1 {
		// Chunked documents always get fresh ids per chunk.
		for i := range points {
			points[i].ID = ""
		}
	}

	ids, err := s.store.Upsert(ctx, s.textsCollection, points)
	if err != nil {
		return nil, err
	}

	zlog.Info("indexed knowledge document",
		zap.String("title", doc.Title),
		zap.Int("chunks", len(ids)))
	return ids, nil
}

// IndexImage embeds the referenced image file and stores it as one reference
// case. The findings text rides in the content field.
func (s *ingestServiceImpl) IndexImage(ctx context.Context, img entity.KnowledgeImage) (string, error) {
	if strings.TrimSpace(img.ImagePath) == "" {
		return "", fmt.Errorf("image path is empty")
	}
	if strings.TrimSpace(img.Modality) == "" {
		return "", fmt.Errorf("image modality is empty")
	}

	vector, err := s.imageEmbedder.EmbedFile(ctx, img.ImagePath)
	if err != nil {
		return "", err
	}

	meta := map[string]any{
		"image_path": img.ImagePath,
		"modality":   img.Modality,
	}
	if img.BodyPart != "" {
		meta["body_part"] = img.BodyPart
	}
	if img.Diagnosis != "" {
		meta["diagnosis"] = img.Diagnosis
	}
	if img.Findings != "" {
		meta["findings"] = img.Findings
	}
	for k, v := range img.Extra {
		if _, reserved := meta[k]; reserved {
			continue
		}
		meta[k] = v
	}

	ids, err := s.store.Upsert(ctx, s.imagesCollection, []repository.Point{{
		ID:       img.ID,
		Vector:   vector,
		Content:  img.Findings,
		Metadata: meta,
	}})
	if err != nil {
		return "", err
	}

	zlog.Info("indexed reference image",
		zap.String("image_path", img.ImagePath),
		zap.String("modality", img.Modality),
		zap.String("id", ids[0]))
	return ids[0], nil
}

// EnqueueBatch writes documents to the outbox. The relay and consumer take it
// from there; callers get the event ids for status queries.
func (s *ingestServiceImpl) EnqueueBatch(ctx context.Context, docs []entity.KnowledgeText) ([]int64, error) {
	if s.eventRepo == nil {
		return nil, fmt.Errorf("async ingest is not configured (mysql/kafka disabled)")
	}
	if len(docs) == 0 {
		return []int64{}, nil
	}

	events := make([]*repository.IngestEvent, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" || strings.TrimSpace(doc.Title) == "" {
			return nil, fmt.Errorf("every document needs a title and content")
		}
		events = append(events, &repository.IngestEvent{
			Title:     doc.Title,
			Category:  doc.Category,
			Specialty: doc.Specialty,
			Source:    doc.Source,
			Content:   doc.Content,
		})
	}

	if err := s.eventRepo.Enqueue(ctx, events); err != nil {
		return nil, fmt.Errorf("enqueue ingest events: %w", err)
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	zlog.Info("enqueued knowledge batch", zap.Int("documents", len(ids)))
	return ids, nil
}

// Seed loads the built-in demo corpus and patient histories. Per-document
// failures are logged and skipped so one bad entry cannot abort the load.
func (s *ingestServiceImpl) Seed(ctx context.Context, memory *MemoryService) (*respond.SeedRespond, error) {
	out := &respond.SeedRespond{}

	for _, doc := range demoMedicalTexts {
		if _, err := s.IndexKnowledge(ctx, doc); err != nil {
			zlog.Warn("seed: index document failed", zap.String("title", doc.Title), zap.Error(err))
			continue
		}
		out.TextsIndexed++
	}

	for _, p := range demoPatients {
		out.Patients++
		for _, h := range p.History {
			at, err := time.Parse(time.RFC3339, h.Timestamp)
			if err != nil {
				at = time.Now()
			}
			extra := map[string]any{
				"name":   p.Name,
				"age":    p.Age,
				"gender": p.Gender,
			}
			if _, err := memory.StoreInteractionAt(ctx, p.PatientID, h.Type, h.Content, extra, at); err != nil {
				zlog.Warn("seed: store interaction failed", zap.String("patient_id", p.PatientID), zap.Error(err))
				continue
			}
			out.Interactions++
		}
	}

	zlog.Info("seeded demo data",
		zap.Int("texts", out.TextsIndexed),
		zap.Int("patients", out.Patients),
		zap.Int("interactions", out.Interactions))
	return out, nil
}
