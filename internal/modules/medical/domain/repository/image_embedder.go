package repository

import "context"

// ImageEmbedder maps a medical image to a fixed-dimension vector. The output
// dimension is fixed at construction and must match the images collection.
type ImageEmbedder interface {
	Dimension() int

	// EmbedFile loads and embeds the image at path. A path that does not
	// resolve fails with entity.ErrImageNotFound; bytes that cannot be
	// decoded fail with entity.ErrUnsupportedFormat.
	EmbedFile(ctx context.Context, path string) ([]float32, error)

	// EmbedBytes embeds an already-loaded image.
	EmbedBytes(ctx context.Context, data []byte) ([]float32, error)
}
