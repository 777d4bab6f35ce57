package embedding

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"MediVision/internal/config"
	"MediVision/internal/modules/medical/domain/entity"
	"MediVision/internal/modules/medical/domain/repository"
)

// HTTPImageEmbedder calls an external vision-encoder inference service over
// HTTP. The service takes a base64 payload and returns the image vector, so
// the heavy model stays out of this process.
type HTTPImageEmbedder struct {
	endpoint string
	apiKey   string
	model    string
	dim      int
	client   *http.Client
}

var _ repository.ImageEmbedder = (*HTTPImageEmbedder)(nil)

func NewImageEmbedderFromConfig(conf config.ImageEmbeddingConfig) (repository.ImageEmbedder, error) {
	provider := strings.ToLower(strings.TrimSpace(conf.Provider))
	switch provider {
	case "", "mock":
		return NewMockImageEmbedder(conf.Dimensions), nil
	case "http":
		endpoint := strings.TrimSpace(conf.Endpoint)
		if endpoint == "" {
			return nil, fmt.Errorf("%w: image embedding endpoint is empty", entity.ErrConfiguration)
		}
		timeout := 60 * time.Second
		if conf.TimeoutSeconds > 0 {
			timeout = time.Duration(conf.TimeoutSeconds) * time.Second
		}
		return &HTTPImageEmbedder{
			endpoint: endpoint,
			apiKey:   strings.TrimSpace(conf.APIKey),
			model:    strings.TrimSpace(conf.Model),
			dim:      conf.Dimensions,
			client:   &http.Client{Timeout: timeout},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown image embedding provider: %s", entity.ErrConfiguration, provider)
	}
}

func (e *HTTPImageEmbedder) Dimension() int { return e.dim }

func (e *HTTPImageEmbedder) EmbedFile(ctx context.Context, path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", entity.ErrImageNotFound, path)
		}
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	return e.EmbedBytes(ctx, data)
}

type imageEmbedRequest struct {
	Model string `json:"model,omitempty"`
	Image string `json:"image"`
}

type imageEmbedResponse struct {
	Vector []float32 `json:"vector"`
	Error  string    `json:"error,omitempty"`
}

func (e *HTTPImageEmbedder) EmbedBytes(ctx context.Context, data []byte) ([]float32, error) {
	format, err := validateImage(data)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(imageEmbedRequest{
		Model: e.model,
		Image: base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: image embedding request: %v", entity.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read image embedding response: %v", entity.ErrBackendUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: image embedding service returned %d", entity.ErrBackendUnavailable, resp.StatusCode)
	}

	var out imageEmbedResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode image embedding response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("image embedding service (%s image): %s", format, out.Error)
	}
	if e.dim > 0 && len(out.Vector) != e.dim {
		return nil, fmt.Errorf("%w: image embedding expects %d, got %d",
			entity.ErrDimensionMismatch, e.dim, len(out.Vector))
	}
	return out.Vector, nil
}

// validateImage checks the payload is a decodable image before shipping it to
// the inference service. Registered formats: jpeg, png, gif.
func validateImage(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrUnsupportedFormat, err)
	}
	return format, nil
}

// MockImageEmbedder derives a deterministic vector from the raw bytes so
// identical images embed identically without an inference service.
type MockImageEmbedder struct {
	Dim int
}

var _ repository.ImageEmbedder = (*MockImageEmbedder)(nil)

func NewMockImageEmbedder(dim int) *MockImageEmbedder {
	return &MockImageEmbedder{Dim: dim}
}

func (m *MockImageEmbedder) Dimension() int { return m.Dim }

func (m *MockImageEmbedder) EmbedFile(ctx context.Context, path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", entity.ErrImageNotFound, path)
		}
		return nil, err
	}
	return m.EmbedBytes(ctx, data)
}

func (m *MockImageEmbedder) EmbedBytes(ctx context.Context, data []byte) ([]float32, error) {
	if _, err := validateImage(data); err != nil {
		return nil, err
	}

	vec := make([]float32, m.Dim)
	if m.Dim == 0 {
		return vec, nil
	}
	var acc uint64 = 1469598103934665603
	for i, b := range data {
		acc = (acc ^ uint64(b)) * 1099511628211
		vec[i%m.Dim] += float32(acc%997) / 997
	}
	return vec, nil
}
