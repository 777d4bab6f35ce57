package repository

import "context"

// Point is one (vector, payload) pair bound for a collection. Content is the
// human-readable body; Metadata holds the remaining payload fields and is
// what equality filters run against.
type Point struct {
	ID       string
	Vector   []float32
	Content  string
	Metadata map[string]any
}

// Hit is a search or scan result. Score is meaningful only for similarity
// search; scans return it as zero.
type Hit struct {
	ID       string
	Score    float32
	Content  string
	Metadata map[string]any
}

// CollectionInfo describes one named collection.
type CollectionInfo struct {
	Name       string `json:"name"`
	Dimension  int    `json:"dimension"`
	PointCount int64  `json:"point_count"`
	Loaded     bool   `json:"loaded"`
}

// VectorStore is the gateway to the external similarity-search service.
// Collections are named, independently-dimensioned partitions; the dimension
// is fixed at creation. Failures map onto the entity error kinds:
// entity.ErrBackendUnavailable when the service is unreachable,
// entity.ErrNotFound for a missing collection or point, and
// entity.ErrDimensionMismatch for a vector of the wrong length.
type VectorStore interface {
	// EnsureCollection creates the collection if absent. Idempotent.
	EnsureCollection(ctx context.Context, collection string, dim int) error

	// Upsert writes points, generating a fresh id for any point without one,
	// and returns the ids in input order.
	Upsert(ctx context.Context, collection string, points []Point) ([]string, error)

	// Search runs a nearest-neighbour query, optionally restricted by an
	// equality-AND filter over metadata fields. Results are ordered by
	// descending similarity score; hits below scoreThreshold are dropped.
	Search(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float32, filter map[string]any) ([]Hit, error)

	// Scan returns up to limit points matching the filter, without any
	// similarity ranking. This is a real filtered read, not a top-k search
	// against a placeholder vector.
	Scan(ctx context.Context, collection string, filter map[string]any, limit int) ([]Hit, error)

	// GetByID fetches one point, vector included, by primary key.
	GetByID(ctx context.Context, collection string, id string) (Point, error)

	Describe(ctx context.Context, collection string) (CollectionInfo, error)
	Drop(ctx context.Context, collection string) error
	ListCollections(ctx context.Context) ([]string, error)
}
