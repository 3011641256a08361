package ai

// ModelInfo describes the embedding model behind an Embedder.
type ModelInfo struct {
	// ModelName identifies the model, e.g. "all-MiniLM-L6-v2".
	ModelName string

	// EmbeddingDimension is the length of every vector the model produces.
	EmbeddingDimension int

	// MaxSequenceLength is the longest input the model accepts, in tokens.
	// Zero when the service does not report it.
	MaxSequenceLength int
}

// TextKind names the product field a vector is derived from. Services that
// prepare text differently per field (prefixing, truncation) key on it.
type TextKind string

const (
	KindIngredients     TextKind = "ingredients"
	KindProductName     TextKind = "product_name"
	KindAllergenSummary TextKind = "allergens"
)
