package openai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/staple/ai"
)

// Embedder implements ai.EmbeddingService using OpenAI-compatible embedding
// APIs.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	logger   *slog.Logger

	mu   sync.Mutex
	info *ai.ModelInfo
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.EmbeddingService interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.EmbeddingService, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.EmbeddingHost == "" {
		return nil, fmt.Errorf("%w: no embedding host configured", ai.ErrServiceUnavailable)
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication.
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		model:    config.EmbeddingModel,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty embedding result", ai.ErrMalformedResponse)
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			ai.ErrMalformedResponse, len(vectors), len(texts))
	}
	return vectors, nil
}

// ModelInfo reports the configured model. The API carries no dimension
// metadata, so the dimension is probed with one embedding call on first use
// and cached.
func (e *Embedder) ModelInfo(ctx context.Context) (*ai.ModelInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.info != nil {
		return e.info, nil
	}

	probe, err := e.EmbedText(ctx, "dimension probe")
	if err != nil {
		return nil, err
	}
	if len(probe) == 0 {
		return nil, fmt.Errorf("%w: zero-length probe embedding", ai.ErrMalformedResponse)
	}

	e.info = &ai.ModelInfo{
		ModelName:          e.model,
		EmbeddingDimension: len(probe),
	}
	return e.info, nil
}
