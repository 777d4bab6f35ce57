package entity

import "errors"

// Error kinds for every external-facing failure. Callers classify with
// errors.Is; lower layers wrap these with call-site context via fmt.Errorf
// and %w. Nothing in this module retries: failures are logged where they
// occur and propagated unchanged.
var (
	// ErrBackendUnavailable: the vector store or model service is unreachable.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrNotFound: missing collection, or missing record on a point lookup.
	ErrNotFound = errors.New("not found")

	// ErrDimensionMismatch: a vector's length disagrees with its collection's
	// fixed dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrImageNotFound: an image path did not resolve to a file.
	ErrImageNotFound = errors.New("image not found")

	// ErrUnsupportedFormat: image bytes could not be decoded.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrGenerationFailed: the chat-completion call failed.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrConfiguration: a required setting is missing at startup. Fatal.
	ErrConfiguration = errors.New("configuration error")
)
