package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// KindEmbedder is the optional extension for services that prepare text
// differently per product field. Callers that know which field a text belongs
// to should type-assert for it and prefer EmbedKind over EmbedText.
type KindEmbedder interface {
	// EmbedKind generates an embedding for text belonging to the given
	// product field.
	EmbedKind(ctx context.Context, kind TextKind, text string) ([]float32, error)
}

// EmbeddingService is the full surface the loading stages need: embedding
// generation plus model discovery.
type EmbeddingService interface {
	Embedder
	ModelInfoProvider
}

// ModelInfoProvider reports identity and geometry of the embedding model.
// The loading stages use the reported dimension to validate vectors before
// they reach storage.
type ModelInfoProvider interface {
	// ModelInfo returns the model description. Implementations may need a
	// round trip to the service on the first call and should cache after.
	ModelInfo(ctx context.Context) (*ModelInfo, error)
}
