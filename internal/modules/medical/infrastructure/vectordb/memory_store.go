package vectordb

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"MediVision/internal/modules/medical/domain/entity"
	"MediVision/internal/modules/medical/domain/repository"

	"github.com/google/uuid"
)

// MemoryStore is an in-process VectorStore with cosine ranking. It backs
// tests and local development without a Milvus deployment; semantics match
// the Milvus gateway (idempotent create, dimension checks, equality-AND
// filters, complete scans, point lookups).
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	dim    int
	points map[string]repository.Point
}

var _ repository.VectorStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

func (s *MemoryStore) EnsureCollection(_ context.Context, collection string, dim int) error {
	if collection == "" {
		return fmt.Errorf("collection name is empty")
	}
	if dim <= 0 {
		return fmt.Errorf("invalid dimension %d", dim)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection]; ok {
		return nil
	}
	s.collections[collection] = &memCollection{dim: dim, points: make(map[string]repository.Point)}
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, collection string, points []repository.Point) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", entity.ErrNotFound, collection)
	}

	ids := make([]string, 0, len(points))
	for _, p := range points {
		if len(p.Vector) != col.dim {
			return nil, fmt.Errorf("%w: collection %s expects %d, got %d",
				entity.ErrDimensionMismatch, collection, col.dim, len(p.Vector))
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		p.Vector = vec
		p.Metadata = normalizeMetadata(p.Metadata)
		col.points[p.ID] = p
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (s *MemoryStore) Search(_ context.Context, collection string, vector []float32, limit int, scoreThreshold float32, filter map[string]any) ([]repository.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", entity.ErrNotFound, collection)
	}
	if len(vector) != col.dim {
		return nil, fmt.Errorf("%w: collection %s expects %d, got %d",
			entity.ErrDimensionMismatch, collection, col.dim, len(vector))
	}
	if limit <= 0 {
		limit = 5
	}

	hits := make([]repository.Hit, 0)
	for _, p := range col.points {
		if !matchesFilter(p.Metadata, filter) {
			continue
		}
		score := cosine(vector, p.Vector)
		if score < scoreThreshold {
			continue
		}
		hits = append(hits, repository.Hit{ID: p.ID, Score: score, Content: p.Content, Metadata: p.Metadata})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *MemoryStore) Scan(_ context.Context, collection string, filter map[string]any, limit int) ([]repository.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", entity.ErrNotFound, collection)
	}
	if limit <= 0 {
		limit = 100
	}

	hits := make([]repository.Hit, 0)
	for _, p := range col.points {
		if !matchesFilter(p.Metadata, filter) {
			continue
		}
		hits = append(hits, repository.Hit{ID: p.ID, Content: p.Content, Metadata: p.Metadata})
		if len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

func (s *MemoryStore) GetByID(_ context.Context, collection string, id string) (repository.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[collection]
	if !ok {
		return repository.Point{}, fmt.Errorf("%w: collection %s", entity.ErrNotFound, collection)
	}
	p, ok := col.points[id]
	if !ok {
		return repository.Point{}, fmt.Errorf("%w: point %s in %s", entity.ErrNotFound, id, collection)
	}
	return p, nil
}

func (s *MemoryStore) Describe(_ context.Context, collection string) (repository.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[collection]
	if !ok {
		return repository.CollectionInfo{}, fmt.Errorf("%w: collection %s", entity.ErrNotFound, collection)
	}
	return repository.CollectionInfo{
		Name:       collection,
		Dimension:  col.dim,
		PointCount: int64(len(col.points)),
		Loaded:     true,
	}, nil
}

func (s *MemoryStore) Drop(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection]; !ok {
		return fmt.Errorf("%w: collection %s", entity.ErrNotFound, collection)
	}
	delete(s.collections, collection)
	return nil
}

func (s *MemoryStore) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for n := range s.collections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func matchesFilter(meta map[string]any, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := meta[k]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
