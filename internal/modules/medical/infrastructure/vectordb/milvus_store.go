package vectordb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"MediVision/internal/modules/medical/domain/entity"
	"MediVision/internal/modules/medical/domain/repository"
	"MediVision/pkg/zlog"

	"github.com/google/uuid"
	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	mentity "github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"
)

// Every collection shares one schema: id (varchar pk), vector (float vector,
// per-collection dim), content (varchar), metadata (JSON). Equality filters
// compile to boolean exprs over the JSON field, which keeps the gateway
// generic across knowledge texts, images and patient memory.
const (
	fieldID       = "id"
	fieldVector   = "vector"
	fieldContent  = "content"
	fieldMetadata = "metadata"

	maxIDLen      = 128
	maxContentLen = 8192
)

var outputFields = []string{fieldID, fieldContent, fieldMetadata}

// MilvusStore implements repository.VectorStore over the Milvus v1 SDK. One
// instance serves every collection; per-collection dimensions are tracked so
// upserts can be validated before they hit the wire.
type MilvusStore struct {
	cli         mclient.Client
	metricType  mentity.MetricType
	searchParam mentity.SearchParam

	dims map[string]int
}

var _ repository.VectorStore = (*MilvusStore)(nil)

func NewMilvusStore(cli mclient.Client) (*MilvusStore, error) {
	if cli == nil {
		return nil, errors.New("milvus client is nil")
	}
	sp, err := mentity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, err
	}
	return &MilvusStore{
		cli:         cli,
		metricType:  mentity.COSINE,
		searchParam: sp,
		dims:        make(map[string]int),
	}, nil
}

// EnsureCollection creates the collection with the shared schema if it does
// not exist yet, builds the AUTOINDEX and loads it. Idempotent.
func (s *MilvusStore) EnsureCollection(ctx context.Context, collection string, dim int) error {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return errors.New("collection name is empty")
	}
	if dim <= 0 {
		return fmt.Errorf("invalid dimension %d for collection %s", dim, collection)
	}

	has, err := s.cli.HasCollection(ctx, collection)
	if err != nil {
		return wrapBackend(err, "check collection "+collection)
	}
	if has {
		s.dims[collection] = dim
		return nil
	}

	schema := &mentity.Schema{
		CollectionName: collection,
		Description:    "MediVision vectors",
		Fields: []*mentity.Field{
			{
				Name:       fieldID,
				DataType:   mentity.FieldTypeVarChar,
				PrimaryKey: true,
				TypeParams: map[string]string{"max_length": strconv.Itoa(maxIDLen)},
			},
			{
				Name:       fieldVector,
				DataType:   mentity.FieldTypeFloatVector,
				TypeParams: map[string]string{mentity.TypeParamDim: strconv.Itoa(dim)},
			},
			{
				Name:       fieldContent,
				DataType:   mentity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": strconv.Itoa(maxContentLen)},
			},
			{
				Name:     fieldMetadata,
				DataType: mentity.FieldTypeJSON,
			},
		},
	}

	if err := s.cli.CreateCollection(ctx, schema, mentity.DefaultShardNumber); err != nil {
		return wrapBackend(err, "create collection "+collection)
	}

	idx, err := mentity.NewIndexAUTOINDEX(s.metricType)
	if err != nil {
		return err
	}
	if err := s.cli.CreateIndex(ctx, collection, fieldVector, idx, false); err != nil {
		return wrapBackend(err, "create index on "+collection)
	}
	if err := s.cli.LoadCollection(ctx, collection, false); err != nil {
		return wrapBackend(err, "load collection "+collection)
	}

	s.dims[collection] = dim
	zlog.Info("collection created", zap.String("collection", collection), zap.Int("dim", dim))
	return nil
}

func (s *MilvusStore) Upsert(ctx context.Context, collection string, points []repository.Point) ([]string, error) {
	if len(points) == 0 {
		return []string{}, nil
	}

	dim, err := s.dimension(ctx, collection)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(points))
	vectors := make([][]float32, 0, len(points))
	contents := make([]string, 0, len(points))
	metas := make([][]byte, 0, len(points))

	for _, p := range points {
		if len(p.Vector) != dim {
			return nil, fmt.Errorf("%w: collection %s expects %d, got %d",
				entity.ErrDimensionMismatch, collection, dim, len(p.Vector))
		}
		id := p.ID
		if id == "" {
			id = uuid.NewString()
		}
		mb, err := json.Marshal(normalizeMetadata(p.Metadata))
		if err != nil {
			return nil, fmt.Errorf("marshal metadata for %s: %w", id, err)
		}
		ids = append(ids, id)
		vectors = append(vectors, p.Vector)
		contents = append(contents, truncateRunes(p.Content, maxContentLen))
		metas = append(metas, mb)
	}

	_, err = s.cli.Upsert(
		ctx,
		collection,
		"",
		mentity.NewColumnVarChar(fieldID, ids),
		mentity.NewColumnFloatVector(fieldVector, dim, vectors),
		mentity.NewColumnVarChar(fieldContent, contents),
		mentity.NewColumnJSONBytes(fieldMetadata, metas),
	)
	if err != nil {
		return nil, wrapBackend(err, "upsert into "+collection)
	}
	return ids, nil
}

func (s *MilvusStore) Search(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float32, filter map[string]any) ([]repository.Hit, error) {
	dim, err := s.dimension(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("%w: collection %s expects %d, got %d",
			entity.ErrDimensionMismatch, collection, dim, len(vector))
	}
	if limit <= 0 {
		limit = 5
	}

	res, err := s.cli.Search(
		ctx,
		collection,
		nil,
		BuildFilterExpr(filter),
		outputFields,
		[]mentity.Vector{mentity.FloatVector(vector)},
		fieldVector,
		s.metricType,
		limit,
		s.searchParam,
	)
	if err != nil {
		return nil, wrapBackend(err, "search "+collection)
	}
	if len(res) == 0 {
		return []repository.Hit{}, nil
	}

	hits, err := parseSearchResult(res[0])
	if err != nil {
		return nil, err
	}
	if scoreThreshold > 0 {
		kept := hits[:0]
		for _, h := range hits {
			if h.Score >= scoreThreshold {
				kept = append(kept, h)
			}
		}
		hits = kept
	}
	zlog.Debug("search done", zap.String("collection", collection), zap.Int("hits", len(hits)))
	return hits, nil
}

// Scan reads points by filter alone. Backed by Milvus Query, so the result
// set is complete up to limit, unlike a top-k search with a dummy vector.
func (s *MilvusStore) Scan(ctx context.Context, collection string, filter map[string]any, limit int) ([]repository.Hit, error) {
	if _, err := s.dimension(ctx, collection); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rs, err := s.cli.Query(
		ctx,
		collection,
		nil,
		BuildFilterExpr(filter),
		outputFields,
		mclient.WithLimit(int64(limit)),
	)
	if err != nil {
		return nil, wrapBackend(err, "scan "+collection)
	}
	return parseResultSet(rs)
}

func (s *MilvusStore) GetByID(ctx context.Context, collection string, id string) (repository.Point, error) {
	if _, err := s.dimension(ctx, collection); err != nil {
		return repository.Point{}, err
	}

	rs, err := s.cli.Query(
		ctx,
		collection,
		nil,
		fmt.Sprintf(`%s == %s`, fieldID, quoteValue(id)),
		[]string{fieldID, fieldVector, fieldContent, fieldMetadata},
	)
	if err != nil {
		return repository.Point{}, wrapBackend(err, "get "+id+" from "+collection)
	}

	idCol := columnByName(rs, fieldID)
	if idCol == nil || idCol.Len() == 0 {
		return repository.Point{}, fmt.Errorf("%w: point %s in %s", entity.ErrNotFound, id, collection)
	}

	p := repository.Point{ID: id}
	if c := columnByName(rs, fieldContent); c != nil {
		p.Content, _ = c.GetAsString(0)
	}
	if c := columnByName(rs, fieldMetadata); c != nil {
		p.Metadata = decodeMetadataAt(c, 0)
	}
	if c, ok := columnByName(rs, fieldVector).(*mentity.ColumnFloatVector); ok && c.Len() > 0 {
		p.Vector = c.Data()[0]
	}
	return p, nil
}

func (s *MilvusStore) Describe(ctx context.Context, collection string) (repository.CollectionInfo, error) {
	has, err := s.cli.HasCollection(ctx, collection)
	if err != nil {
		return repository.CollectionInfo{}, wrapBackend(err, "describe "+collection)
	}
	if !has {
		return repository.CollectionInfo{}, fmt.Errorf("%w: collection %s", entity.ErrNotFound, collection)
	}

	info := repository.CollectionInfo{Name: collection, Dimension: s.dims[collection]}

	stats, err := s.cli.GetCollectionStatistics(ctx, collection)
	if err != nil {
		return repository.CollectionInfo{}, wrapBackend(err, "statistics for "+collection)
	}
	if rc, ok := stats["row_count"]; ok {
		info.PointCount, _ = strconv.ParseInt(rc, 10, 64)
	}

	if desc, err := s.cli.DescribeCollection(ctx, collection); err == nil && desc != nil {
		info.Loaded = desc.Loaded
		if info.Dimension == 0 && desc.Schema != nil {
			for _, f := range desc.Schema.Fields {
				if f.Name == fieldVector {
					if d, err := strconv.Atoi(f.TypeParams[mentity.TypeParamDim]); err == nil {
						info.Dimension = d
					}
				}
			}
		}
	}
	return info, nil
}

func (s *MilvusStore) Drop(ctx context.Context, collection string) error {
	has, err := s.cli.HasCollection(ctx, collection)
	if err != nil {
		return wrapBackend(err, "drop "+collection)
	}
	if !has {
		return fmt.Errorf("%w: collection %s", entity.ErrNotFound, collection)
	}
	if err := s.cli.DropCollection(ctx, collection); err != nil {
		return wrapBackend(err, "drop "+collection)
	}
	delete(s.dims, collection)
	zlog.Info("collection dropped", zap.String("collection", collection))
	return nil
}

func (s *MilvusStore) ListCollections(ctx context.Context) ([]string, error) {
	cols, err := s.cli.ListCollections(ctx)
	if err != nil {
		return nil, wrapBackend(err, "list collections")
	}
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return names, nil
}

// dimension resolves a collection's vector dimension, falling back to
// DescribeCollection for collections created by an earlier process.
func (s *MilvusStore) dimension(ctx context.Context, collection string) (int, error) {
	if d, ok := s.dims[collection]; ok {
		return d, nil
	}

	has, err := s.cli.HasCollection(ctx, collection)
	if err != nil {
		return 0, wrapBackend(err, "check collection "+collection)
	}
	if !has {
		return 0, fmt.Errorf("%w: collection %s", entity.ErrNotFound, collection)
	}

	desc, err := s.cli.DescribeCollection(ctx, collection)
	if err != nil {
		return 0, wrapBackend(err, "describe "+collection)
	}
	for _, f := range desc.Schema.Fields {
		if f.Name == fieldVector {
			d, err := strconv.Atoi(f.TypeParams[mentity.TypeParamDim])
			if err != nil {
				return 0, fmt.Errorf("collection %s has no parseable dimension", collection)
			}
			s.dims[collection] = d
			return d, nil
		}
	}
	return 0, fmt.Errorf("collection %s has no vector field", collection)
}

func parseSearchResult(sr mclient.SearchResult) ([]repository.Hit, error) {
	if sr.Err != nil {
		return nil, wrapBackend(sr.Err, "search result")
	}
	hits := make([]repository.Hit, 0, sr.ResultCount)

	contentCol := columnByName(sr.Fields, fieldContent)
	metaCol := columnByName(sr.Fields, fieldMetadata)

	for i := 0; i < sr.ResultCount; i++ {
		id, _ := sr.IDs.GetAsString(i)
		h := repository.Hit{ID: id}
		if i < len(sr.Scores) {
			h.Score = sr.Scores[i]
		}
		if contentCol != nil {
			h.Content, _ = contentCol.GetAsString(i)
		}
		if metaCol != nil {
			h.Metadata = decodeMetadataAt(metaCol, i)
		}
		hits = append(hits, h)
	}
	return hits, nil
}

func parseResultSet(rs mclient.ResultSet) ([]repository.Hit, error) {
	idCol := columnByName(rs, fieldID)
	if idCol == nil {
		return []repository.Hit{}, nil
	}

	contentCol := columnByName(rs, fieldContent)
	metaCol := columnByName(rs, fieldMetadata)

	hits := make([]repository.Hit, 0, idCol.Len())
	for i := 0; i < idCol.Len(); i++ {
		id, _ := idCol.GetAsString(i)
		h := repository.Hit{ID: id}
		if contentCol != nil {
			h.Content, _ = contentCol.GetAsString(i)
		}
		if metaCol != nil {
			h.Metadata = decodeMetadataAt(metaCol, i)
		}
		hits = append(hits, h)
	}
	return hits, nil
}

func columnByName(cols []mentity.Column, name string) mentity.Column {
	for _, c := range cols {
		if c != nil && c.Name() == name {
			return c
		}
	}
	return nil
}

func decodeMetadataAt(col mentity.Column, i int) map[string]any {
	v, err := col.Get(i)
	if err != nil {
		return nil
	}
	bs, ok := v.([]byte)
	if !ok {
		return nil
	}
	m := make(map[string]any)
	if err := json.Unmarshal(bs, &m); err != nil {
		return nil
	}
	return m
}

func wrapBackend(err error, op string) error {
	return fmt.Errorf("%w: %s: %v", entity.ErrBackendUnavailable, op, err)
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
