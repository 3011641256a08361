package subproc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/staple/ai"
)

// fakeService builds a config whose command ignores the appended protocol
// arguments and prints a canned response.
func fakeService(stdout string) *ai.Config {
	return ai.NewConfig(ai.WithServiceCommand("sh", "-c", "printf '%s\\n' '"+stdout+"'"))
}

func TestParseResponse(t *testing.T) {
	t.Run("batch response", func(t *testing.T) {
		resp, err := parseResponse([]byte(`{"success": true, "embeddings": [[0.1, 0.2], [0.3, 0.4]]}`))
		require.NoError(t, err)
		require.Len(t, resp.Embeddings, 2)
		assert.Equal(t, []float32{0.1, 0.2}, resp.Embeddings[0])
	})

	t.Run("model info response", func(t *testing.T) {
		resp, err := parseResponse([]byte(
			`{"success": true, "model_name": "all-MiniLM-L6-v2", "embedding_dimension": 384, "max_sequence_length": 256}`))
		require.NoError(t, err)
		assert.Equal(t, "all-MiniLM-L6-v2", resp.ModelName)
		assert.Equal(t, 384, resp.EmbeddingDimension)
		assert.Equal(t, 256, resp.MaxSequenceLength)
	})

	t.Run("reported failure", func(t *testing.T) {
		_, err := parseResponse([]byte(`{"success": false, "error": "model not loaded"}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, ai.ErrServiceFailed)
		assert.Contains(t, err.Error(), "model not loaded")
	})

	t.Run("failure without message", func(t *testing.T) {
		_, err := parseResponse([]byte(`{"success": false}`))
		assert.ErrorIs(t, err, ai.ErrServiceFailed)
	})

	t.Run("noise before the response is skipped", func(t *testing.T) {
		out := "Downloading model weights: 100%\nBatches: 1/1\n" +
			`{"success": true, "embedding": [1, 2, 3]}` + "\n"
		resp, err := parseResponse([]byte(out))
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2, 3}, resp.Embedding)
	})

	t.Run("no JSON at all", func(t *testing.T) {
		_, err := parseResponse([]byte("Traceback (most recent call last):\n  boom\n"))
		assert.ErrorIs(t, err, ai.ErrMalformedResponse)
	})

	t.Run("truncated JSON", func(t *testing.T) {
		_, err := parseResponse([]byte(`{"success": true, "embeddings": [[0.1`))
		assert.ErrorIs(t, err, ai.ErrMalformedResponse)
	})
}

func TestClient_EmbedTexts(t *testing.T) {
	client, err := NewClient(fakeService(`{"success": true, "embeddings": [[0.1, 0.2], [0.3, 0.4]]}`))
	require.NoError(t, err)

	vectors, err := client.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
}

func TestClient_EmbedTexts_CountMismatch(t *testing.T) {
	client, err := NewClient(fakeService(`{"success": true, "embeddings": [[0.1, 0.2]]}`))
	require.NoError(t, err)

	_, err = client.EmbedTexts(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ai.ErrMalformedResponse)
}

func TestClient_EmbedTexts_Empty(t *testing.T) {
	// No round trip for an empty batch: the command would fail if spawned.
	client, err := NewClient(fakeService("not json"))
	require.NoError(t, err)

	vectors, err := client.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestClient_EmbedText(t *testing.T) {
	client, err := NewClient(fakeService(`{"success": true, "embeddings": [[0.5, 0.6]]}`))
	require.NoError(t, err)

	vector, err := client.EmbedText(context.Background(), "water, sugar")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.6}, vector)
}

func TestClient_ModelInfoCached(t *testing.T) {
	cfg := fakeService(`{"success": true, "model_name": "m", "embedding_dimension": 384}`)
	client, err := newClient(cfg)
	require.NoError(t, err)

	info, err := client.ModelInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 384, info.EmbeddingDimension)

	// Break the command: a cached answer must not re-spawn.
	client.command = []string{"/nonexistent-embedding-service"}
	again, err := client.ModelInfo(context.Background())
	require.NoError(t, err)
	assert.Same(t, info, again)
}

func TestClient_SpawnFailure(t *testing.T) {
	client, err := NewClient(ai.NewConfig(
		ai.WithServiceCommand("/nonexistent-embedding-service")))
	require.NoError(t, err)

	_, err = client.EmbedTexts(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ai.ErrServiceUnavailable)
}

func TestClient_NonZeroExit(t *testing.T) {
	client, err := NewClient(ai.NewConfig(
		ai.WithServiceCommand("sh", "-c", "echo 'model load failed' >&2; exit 3")))
	require.NoError(t, err)

	_, err = client.EmbedTexts(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ai.ErrServiceFailed)
	assert.Contains(t, err.Error(), "model load failed")
}

func TestKindCommands(t *testing.T) {
	assert.Equal(t, "generate_ingredient_embedding", kindCommands[ai.KindIngredients])
	assert.Equal(t, "generate_product_name_embedding", kindCommands[ai.KindProductName])
	assert.Equal(t, "generate_allergen_embedding", kindCommands[ai.KindAllergenSummary])
}
