package storage

import (
	"context"

	"github.com/poiesic/staple/core"
)

// BulkResult reports the outcome of a bulk upsert. A batch is never failed
// wholesale by a single bad record: failures are counted and described while
// the rest of the batch proceeds.
type BulkResult struct {
	// Successful is the number of products written.
	Successful int

	// Failed is the number of products that could not be written.
	Failed int

	// Errors describes each failure, keyed by product code in the message.
	Errors []string
}

// SearchResult pairs a product with its similarity score.
type SearchResult struct {
	Product *core.StagedProduct
	Score   float32
}

// Repository provides common storage operations shared across repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ProductRepository provides operations for the staged product store.
type ProductRepository interface {
	Repository

	// BulkUpsert writes a batch of products. Existing products (same ID) are
	// overwritten with their InsertedAt preserved; new products get
	// InsertedAt set. LastUpdated is always refreshed.
	// Per-record failures are reported in the result, not as an error; the
	// returned error is reserved for storage-level failures that abort the
	// whole batch.
	BulkUpsert(ctx context.Context, products []*core.StagedProduct) (*BulkResult, error)

	// GetByID retrieves a single product by ID.
	// Returns ErrNotFound if the product doesn't exist.
	GetByID(ctx context.Context, id core.ID) (*core.StagedProduct, error)

	// GetByCode retrieves a single product by its barcode.
	// Returns ErrNotFound if the product doesn't exist.
	GetByCode(ctx context.Context, code string) (*core.StagedProduct, error)

	// ExistingCodes reports which of the given codes are already stored.
	ExistingCodes(ctx context.Context, codes []string) (map[string]bool, error)

	// Count returns the number of stored products.
	Count(ctx context.Context) (int, error)

	// GetRecent retrieves up to limit products ordered by LastUpdated
	// descending.
	GetRecent(ctx context.Context, limit int) ([]*core.StagedProduct, error)

	// FindSimilar finds products whose ingredients vector is similar to the
	// given vector. Returns products with similarity >= minSimilarity, up to
	// limit results, ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*SearchResult, error)
}

// CheckpointRepository persists bulk load progress.
type CheckpointRepository interface {
	// SaveCheckpoint persists the checkpoint, stamping UpdatedAt.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the last saved checkpoint.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context) (*core.Checkpoint, error)
}
