package pipeline

import "errors"

var (
	// ErrSourceRequired is returned when a record source is not provided.
	ErrSourceRequired = errors.New("record source required")

	// ErrRepositoryRequired is returned when a product repository is not provided.
	ErrRepositoryRequired = errors.New("product repository required")

	// ErrEmbedderRequired is returned when an embedding service is not provided.
	ErrEmbedderRequired = errors.New("embedding service required")
)
