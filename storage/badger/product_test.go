package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/staple/core"
	"github.com/poiesic/staple/storage"
)

func newTestRepos(t *testing.T) (storage.ProductRepository, storage.CheckpointRepository) {
	t.Helper()
	productRepo, checkpointRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		productRepo.Close()
		backend.Close()
	})
	return productRepo, checkpointRepo
}

func stagedProduct(code, name string) *core.StagedProduct {
	return &core.StagedProduct{
		Code:              code,
		ProductName:       name,
		IngredientsText:   "water, sugar",
		Source:            core.SourceOpenFoodFacts,
		DataQualityScore:  0.8,
		IngredientsVector: []float32{1, 0, 0},
		NameVector:        []float32{0, 1, 0},
		AllergenVector:    []float32{0, 0, 1},
	}
}

func TestBulkUpsert_InsertAndFetch(t *testing.T) {
	repo, _ := newTestRepos(t)
	ctx := context.Background()

	result, err := repo.BulkUpsert(ctx, []*core.StagedProduct{
		stagedProduct("4006381333931", "Chocolate"),
		stagedProduct("036000291452", "Soup"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 0, result.Failed)

	got, err := repo.GetByCode(ctx, "4006381333931")
	require.NoError(t, err)
	assert.Equal(t, "Chocolate", got.ProductName)
	assert.Equal(t, core.IDFromCode("4006381333931"), got.Id)
	assert.False(t, got.InsertedAt.IsZero())
	assert.False(t, got.LastUpdated.IsZero())

	byID, err := repo.GetByID(ctx, got.Id)
	require.NoError(t, err)
	assert.Equal(t, got.Code, byID.Code)
}

func TestBulkUpsert_OverwritePreservesInsertedAt(t *testing.T) {
	repo, _ := newTestRepos(t)
	ctx := context.Background()

	_, err := repo.BulkUpsert(ctx, []*core.StagedProduct{stagedProduct("4006381333931", "Chocolate")})
	require.NoError(t, err)
	first, err := repo.GetByCode(ctx, "4006381333931")
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)

	updated := stagedProduct("4006381333931", "Chocolate Deluxe")
	_, err = repo.BulkUpsert(ctx, []*core.StagedProduct{updated})
	require.NoError(t, err)

	second, err := repo.GetByCode(ctx, "4006381333931")
	require.NoError(t, err)
	assert.Equal(t, "Chocolate Deluxe", second.ProductName)
	assert.Equal(t, first.InsertedAt, second.InsertedAt)
	assert.True(t, second.LastUpdated.After(first.LastUpdated))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBulkUpsert_EmptyCodeRejected(t *testing.T) {
	repo, _ := newTestRepos(t)

	result, err := repo.BulkUpsert(context.Background(), []*core.StagedProduct{
		stagedProduct("", "Nameless"),
		stagedProduct("40123455", "Kept"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
}

func TestGetByCode_NotFound(t *testing.T) {
	repo, _ := newTestRepos(t)

	_, err := repo.GetByCode(context.Background(), "00000000000000")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.GetByID(context.Background(), core.ID(12345))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestExistingCodes(t *testing.T) {
	repo, _ := newTestRepos(t)
	ctx := context.Background()

	_, err := repo.BulkUpsert(ctx, []*core.StagedProduct{
		stagedProduct("4006381333931", "A"),
		stagedProduct("036000291452", "B"),
	})
	require.NoError(t, err)

	existing, err := repo.ExistingCodes(ctx, []string{"4006381333931", "40123455", "036000291452"})
	require.NoError(t, err)
	assert.True(t, existing["4006381333931"])
	assert.True(t, existing["036000291452"])
	assert.False(t, existing["40123455"])
}

func TestGetRecent(t *testing.T) {
	repo, _ := newTestRepos(t)
	ctx := context.Background()

	for _, code := range []string{"40123455", "036000291452", "4006381333931"} {
		_, err := repo.BulkUpsert(ctx, []*core.StagedProduct{stagedProduct(code, code)})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	recent, err := repo.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "4006381333931", recent[0].Code)
	assert.Equal(t, "036000291452", recent[1].Code)

	_, err = repo.GetRecent(ctx, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestFindSimilar(t *testing.T) {
	repo, _ := newTestRepos(t)
	ctx := context.Background()

	near := stagedProduct("4006381333931", "Close")
	near.IngredientsVector = []float32{1, 0, 0}
	far := stagedProduct("036000291452", "Far")
	far.IngredientsVector = []float32{0, 1, 0}
	middling := stagedProduct("40123455", "Middling")
	middling.IngredientsVector = []float32{0.8, 0.6, 0}

	_, err := repo.BulkUpsert(ctx, []*core.StagedProduct{near, far, middling})
	require.NoError(t, err)

	results, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Close", results[0].Product.ProductName)
	assert.Equal(t, "Middling", results[1].Product.ProductName)

	limited, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, 0.5, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "Close", limited[0].Product.ProductName)
}

func TestCheckpointSaveLoad(t *testing.T) {
	_, checkpoints := newTestRepos(t)
	ctx := context.Background()

	loaded, err := checkpoints.LoadCheckpoint(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	err = checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		RunID:            "run-1",
		BatchesCompleted: 3,
		ProductsLoaded:   300,
	})
	require.NoError(t, err)

	loaded, err = checkpoints.LoadCheckpoint(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, 3, loaded.BatchesCompleted)
	assert.False(t, loaded.UpdatedAt.IsZero())
}
