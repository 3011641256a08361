package bulkload

import "errors"

var (
	// ErrRepositoryRequired is returned when a product repository is not provided.
	ErrRepositoryRequired = errors.New("product repository required")

	// ErrEmbedderRequired is returned when an embedding service is not provided.
	ErrEmbedderRequired = errors.New("embedding service required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrVectorDimension is returned when an embedding vector does not match
	// the model's reported dimension.
	ErrVectorDimension = errors.New("embedding vector dimension mismatch")

	// ErrVectorNotFinite is returned when an embedding vector contains NaN or
	// infinite components.
	ErrVectorNotFinite = errors.New("embedding vector contains non-finite values")
)

// embeddingQualityError reports whether err is a vector dimension or
// finiteness failure. These indicate a misbehaving embedding service rather
// than a transient fault, so the batch fails without retrying.
func embeddingQualityError(err error) bool {
	return errors.Is(err, ErrVectorDimension) || errors.Is(err, ErrVectorNotFinite)
}
