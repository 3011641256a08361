package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/staple/ai/mock"
	"github.com/poiesic/staple/bulkload"
	"github.com/poiesic/staple/extract"
	"github.com/poiesic/staple/storage"
	badgerstore "github.com/poiesic/staple/storage/badger"
)

func testRepos(t *testing.T) (storage.ProductRepository, storage.CheckpointRepository) {
	t.Helper()
	productRepo, checkpointRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		productRepo.Close()
		backend.Close()
	})
	return productRepo, checkpointRepo
}

func testEmbedder() *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.Dimension = 8
	return embedder
}

func fastLoadConfig() *bulkload.Config {
	cfg := bulkload.DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.ReportInterval = 1000
	return cfg
}

// dumpLine renders one well-formed dump record.
func dumpLine(code string, n int) string {
	return fmt.Sprintf(`{"code":%q,"product_name":"Product %d",`+
		`"ingredients_text":"water, sugar, salt","categories_tags":["en:beverages"],`+
		`"ingredients_analysis_tags":["en:vegan"],"last_modified_t":1735689600}`, code, n)
}

func newTestPipeline(t *testing.T, dump string, opts ...Option) (*Pipeline, storage.ProductRepository) {
	t.Helper()
	repo, _ := testRepos(t)

	opts = append([]Option{WithConfig(&Config{Load: fastLoadConfig()})}, opts...)
	p, err := New(extract.NewReaderSource(strings.NewReader(dump)), repo, testEmbedder(), opts...)
	require.NoError(t, err)
	return p, repo
}

func TestProcessWithBulkLoading_DietaryCompliance(t *testing.T) {
	// A vegan analysis tag contradicted by a milk allergen: the allergen wins
	// for vegan, while vegetarian stands on the analysis tag alone.
	dump := `{"code":"0000000000017","product_name":"Oat Drink",` +
		`"ingredients_text":"water, oats","ingredients_analysis_tags":["en:vegan"],` +
		`"allergens_tags":["en:milk"],"last_modified_t":1735689600}` + "\n"

	p, repo := newTestPipeline(t, dump)

	result, err := p.ProcessWithBulkLoading(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.RecordsRead)
	assert.Equal(t, 1, result.Stats.Valid)
	require.NotNil(t, result.Load)
	assert.Equal(t, 1, result.Load.Stats.SuccessfulInserts)

	stored, err := repo.GetByCode(context.Background(), "0000000000017")
	require.NoError(t, err)

	assert.False(t, stored.Dietary.Vegan)
	assert.InDelta(t, 0.8, stored.Confidence.Vegan, 1e-9)
	assert.True(t, stored.Dietary.Vegetarian)
	assert.InDelta(t, 0.9, stored.Confidence.Vegetarian, 1e-9)
	assert.True(t, stored.HasEmbeddings())
}

func TestProcessWithBulkLoading_DropsRecordsWithoutCode(t *testing.T) {
	dump := dumpLine("0000000000017", 1) + "\n" +
		`{"product_name":"No Barcode","ingredients_text":"water"}` + "\n"

	p, repo := newTestPipeline(t, dump)

	result, err := p.ProcessWithBulkLoading(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.RecordsRead)
	assert.Equal(t, 1, result.Stats.RejectedExtraction)
	assert.Equal(t, 1, result.Stats.Valid)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProcessWithBulkLoading_CountsMalformedLines(t *testing.T) {
	dump := dumpLine("0000000000017", 1) + "\n" +
		"{not json\n" +
		dumpLine("0000000000024", 2) + "\n"

	p, _ := newTestPipeline(t, dump)

	result, err := p.ProcessWithBulkLoading(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Stats.RecordsRead)
	assert.Equal(t, 1, result.Stats.MalformedRecords)
	assert.Equal(t, 2, result.Stats.Valid)
}

func TestProcessWithBulkLoading_BatchInvariant(t *testing.T) {
	var dump strings.Builder
	for i := 0; i < 250; i++ {
		fmt.Fprintf(&dump, "%s\n", dumpLine(fmt.Sprintf("%013d", i+1), i+1))
	}

	// The progress callback arrives from the loader's worker goroutines.
	var mu sync.Mutex
	var lastProcessed int
	p, repo := newTestPipeline(t, dump.String())

	result, err := p.ProcessWithBulkLoading(context.Background(), func(processed, total int) {
		mu.Lock()
		if processed > lastProcessed {
			lastProcessed = processed
		}
		mu.Unlock()
	})
	require.NoError(t, err)
	assert.Equal(t, 250, lastProcessed)

	assert.Equal(t, 250, result.Stats.Valid)
	assert.Equal(t, 250, result.Stats.Rank.Selected)
	require.NotNil(t, result.Load)

	// ceil(250/100) batches, and every processed product is accounted for.
	assert.Equal(t, 3, result.Load.Stats.BatchesTotal)
	assert.Equal(t, result.Load.Stats.ProcessedProducts,
		result.Load.Stats.SuccessfulInserts+result.Load.Stats.FailedInserts)
	assert.Greater(t, result.Elapsed, time.Duration(0))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 250, count)
}

func TestProcessWithBulkLoading_MaxProductsCap(t *testing.T) {
	var dump strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&dump, "%s\n", dumpLine(fmt.Sprintf("%013d", i+1), i+1))
	}

	extractCfg := extract.DefaultConfig()
	extractCfg.MaxProducts = 5
	p, _ := newTestPipeline(t, dump.String(),
		WithConfig(&Config{Extract: extractCfg, Load: fastLoadConfig()}))

	result, err := p.ProcessWithBulkLoading(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Stats.Extracted)
	assert.Equal(t, 5, result.Stats.Rank.Selected)
}

func TestProcessWithBulkLoading_SourceUnreachable(t *testing.T) {
	repo, _ := testRepos(t)
	p, err := New(extract.NewFileSource("/nonexistent/dump.jsonl"), repo, testEmbedder())
	require.NoError(t, err)

	_, err = p.ProcessWithBulkLoading(context.Background(), nil)
	assert.ErrorIs(t, err, extract.ErrSourceUnreachable)
}

func TestProcessWithBulkLoading_EmptySource(t *testing.T) {
	p, _ := newTestPipeline(t, "")

	result, err := p.ProcessWithBulkLoading(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Stats.RecordsRead)
	assert.Nil(t, result.Load)
}

func TestNew_RequiredDependencies(t *testing.T) {
	repo, _ := testRepos(t)
	source := extract.NewReaderSource(strings.NewReader(""))

	_, err := New(nil, repo, testEmbedder())
	assert.ErrorIs(t, err, ErrSourceRequired)

	_, err = New(source, nil, testEmbedder())
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = New(source, repo, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}
