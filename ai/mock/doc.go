// Package mock provides test doubles for the ai interfaces.
//
// The mock embedder produces deterministic vectors so tests can assert on
// embedding-dependent behavior without an external service. Behavior is
// injectable via function fields:
//
//	mockEmbed := mock.NewMockEmbedder()
//	mockEmbed.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("service down")
//	}
package mock
