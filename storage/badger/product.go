package badger

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/staple/core"
	"github.com/poiesic/staple/storage"
)

// ProductRepository implements storage.ProductRepository for BadgerDB.
type ProductRepository struct {
	backend *Backend
}

var _ storage.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(backend *Backend) *ProductRepository {
	return &ProductRepository{backend: backend}
}

// Close is a no-op; the repository holds no resources beyond the backend.
func (r *ProductRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *ProductRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*storage.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *ProductRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// BulkUpsert writes a batch of products in one transaction. Records that
// cannot be keyed are reported in the result and skipped; storage failures
// abort the batch.
func (r *ProductRepository) BulkUpsert(ctx context.Context, products []*core.StagedProduct) (*storage.BulkResult, error) {
	result := &storage.BulkResult{}
	now := time.Now().UTC()

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, product := range products {
			if err := ctx.Err(); err != nil {
				return err
			}
			if product.Code == "" {
				result.Failed++
				result.Errors = append(result.Errors, "product with empty code rejected")
				continue
			}

			if product.Id == 0 {
				product.Id = core.IDFromCode(product.Code)
			}
			key := makeProductKey(product.Id)

			// Preserve InsertedAt across overwrites of an existing record.
			old, err := r.readProduct(tx, key)
			if err != nil {
				return err
			}
			if old != nil && !old.InsertedAt.IsZero() {
				product.InsertedAt = old.InsertedAt
			} else if product.InsertedAt.IsZero() {
				product.InsertedAt = now
			}
			product.LastUpdated = now

			if err := tx.Set(key, storage.MarshalProduct(product)); err != nil {
				return err
			}
			if err := tx.Set(makeProductCodeKey(product.Code), storage.MarshalID(product.Id)); err != nil {
				return err
			}

			// Move the date index entry
			if old != nil && !old.LastUpdated.IsZero() {
				if err := tx.Delete(makeProductDateKey(old.LastUpdated, old.Id)); err != nil {
					return err
				}
			}
			if err := tx.Set(makeProductDateKey(product.LastUpdated, product.Id), storage.MarshalID(product.Id)); err != nil {
				return err
			}

			result.Successful++
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	return result, nil
}

// GetByID retrieves a single product by ID.
func (r *ProductRepository) GetByID(ctx context.Context, id core.ID) (*core.StagedProduct, error) {
	var product *core.StagedProduct
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		product, err = r.readProduct(tx, makeProductKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, storage.ErrNotFound
	}
	return product, nil
}

// GetByCode retrieves a single product by its barcode via the code index.
func (r *ProductRepository) GetByCode(ctx context.Context, code string) (*core.StagedProduct, error) {
	var product *core.StagedProduct
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeProductCodeKey(code))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		product, err = r.readProduct(tx, makeProductKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, storage.ErrNotFound
	}
	return product, nil
}

// ExistingCodes reports which of the given codes are already stored.
func (r *ProductRepository) ExistingCodes(ctx context.Context, codes []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(codes))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, code := range codes {
			_, err := tx.Get(makeProductCodeKey(code))
			switch err {
			case nil:
				existing[code] = true
			case badger.ErrKeyNotFound:
				// absent
			default:
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// Count returns the number of stored products.
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(productPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetRecent retrieves up to limit products ordered by LastUpdated descending.
func (r *ProductRepository) GetRecent(ctx context.Context, limit int) ([]*core.StagedProduct, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.StagedProduct
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Reverse iterator over the date index, most recent first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		startKey := makePartialProductDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(productDatePrefix + ":")

		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			product, err := r.readProduct(tx, makeProductKey(id))
			if err != nil {
				return err
			}
			if product != nil {
				results = append(results, product)
			}
		}
		return nil
	}, false)

	return results, err
}

// readProduct reads and decodes one product. Returns nil, nil when the key
// does not exist.
func (r *ProductRepository) readProduct(tx *badger.Txn, key []byte) (*core.StagedProduct, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var product *core.StagedProduct
	err = item.Value(func(val []byte) error {
		var err error
		product, err = storage.UnmarshalProduct(val)
		return err
	})
	return product, err
}
