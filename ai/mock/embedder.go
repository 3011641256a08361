package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"

	"github.com/poiesic/staple/ai"
)

// DefaultDimension matches the all-MiniLM family used in production.
const DefaultDimension = 384

// MockEmbedder is a test double for ai.EmbeddingService.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedKindFunc is called by EmbedKind if set.
	// If nil, EmbedKind falls back to EmbedText so kind-aware callers see
	// the same vectors as plain ones.
	EmbedKindFunc func(ctx context.Context, kind ai.TextKind, text string) ([]float32, error)

	// ModelInfoFunc is called by ModelInfo if set.
	ModelInfoFunc func(ctx context.Context) (*ai.ModelInfo, error)

	// Dimension overrides DefaultDimension for generated vectors when set.
	Dimension int

	mu        sync.Mutex
	callCount int
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions and field injection.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

func (m *MockEmbedder) dimension() int {
	if m.Dimension > 0 {
		return m.Dimension
	}
	return DefaultDimension
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.recordCall()

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return generateDeterministicVector(text, m.dimension()), nil
}

// EmbedKind generates an embedding for a field-specific text.
func (m *MockEmbedder) EmbedKind(ctx context.Context, kind ai.TextKind, text string) ([]float32, error) {
	if m.EmbedKindFunc != nil {
		m.recordCall()
		return m.EmbedKindFunc(ctx, kind, text)
	}
	return m.EmbedText(ctx, text)
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.recordCall()

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = generateDeterministicVector(text, m.dimension())
	}
	return embeddings, nil
}

// ModelInfo reports the mock model geometry.
func (m *MockEmbedder) ModelInfo(ctx context.Context) (*ai.ModelInfo, error) {
	m.recordCall()

	if m.ModelInfoFunc != nil {
		return m.ModelInfoFunc(ctx)
	}
	return &ai.ModelInfo{
		ModelName:          "mock-embedder",
		EmbeddingDimension: m.dimension(),
		MaxSequenceLength:  256,
	}, nil
}

func (m *MockEmbedder) recordCall() {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
	m.EmbedKindFunc = nil
	m.ModelInfoFunc = nil
}

// generateDeterministicVector creates a unit-length embedding vector from
// text. It uses FNV hash to ensure the same text always produces the same
// vector.
func generateDeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	var sumSquares float64
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
		sumSquares += float64(vector[i]) * float64(vector[i])
	}

	if sumSquares > 0 {
		norm := float32(1.0 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}
	return vector
}
