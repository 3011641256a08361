package search

import "errors"

var (
	// ErrRepositoryRequired is returned when a product repository is not provided.
	ErrRepositoryRequired = errors.New("product repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
