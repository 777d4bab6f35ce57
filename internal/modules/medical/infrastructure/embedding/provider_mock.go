package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/cloudwego/eino/components/embedding"
)

// MockEmbedder produces deterministic unit vectors derived from the text's
// token hashes. Equal texts always embed equally and texts sharing words land
// closer together, which is enough for offline runs and ranking tests.
type MockEmbedder struct {
	Dim int
}

func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{Dim: dim}
}

func (m *MockEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	result := make([][]float64, len(texts))
	for i, text := range texts {
		result[i] = m.embed(text)
	}
	return result, nil
}

func (m *MockEmbedder) embed(text string) []float64 {
	vec := make([]float64, m.Dim)
	if m.Dim == 0 {
		return vec
	}

	start := 0
	addToken := func(tok string) {
		if tok == "" {
			return
		}
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		vec[int(sum%uint64(m.Dim))] += 1
		vec[int((sum>>16)%uint64(m.Dim))] += 1
	}
	for i, r := range text {
		if r == ' ' || r == '\n' || r == '\t' || r == ',' || r == '.' {
			addToken(text[start:i])
			start = i + 1
		}
	}
	addToken(text[start:])

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

var _ embedding.Embedder = (*MockEmbedder)(nil)
