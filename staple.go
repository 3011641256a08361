// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package staple stages food product dumps into a searchable product store.
// The Database type wires the storage backend, the embedding service and the
// staging pipeline together for embedding callers; the CLI under cmd/staple
// wires the same pieces by hand.
package staple

import (
	"log/slog"

	"github.com/poiesic/staple/ai"
	"github.com/poiesic/staple/ai/openai"
	"github.com/poiesic/staple/ai/subproc"
	"github.com/poiesic/staple/pipeline"
	"github.com/poiesic/staple/search"
	"github.com/poiesic/staple/storage"
	"github.com/poiesic/staple/storage/badger"
)

// Database bundles the product store and the embedding service.
type Database struct {
	backend        *badger.Backend
	productRepo    storage.ProductRepository
	checkpointRepo storage.CheckpointRepository
	embedder       ai.EmbeddingService
	logger         *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	embedder ai.EmbeddingService
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithEmbeddingService injects a pre-built embedding service, bypassing the
// AI configuration entirely.
func WithEmbeddingService(embedder ai.EmbeddingService) DatabaseOption {
	return func(o *databaseOptions) {
		o.embedder = embedder
	}
}

// NewDatabase opens the product store at filePath and builds the embedding
// service from the options: an injected service, an OpenAI-compatible host
// when configured, the subprocess client otherwise.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	productRepo := badger.NewProductRepository(backend)
	checkpointRepo := badger.NewCheckpointRepository(backend)

	embedder := options.embedder
	if embedder == nil {
		if err := options.aiConfig.Validate(); err != nil {
			backend.Close()
			return nil, err
		}
		if options.aiConfig.EmbeddingHost != "" {
			embedder, err = openai.NewEmbedder(options.aiConfig)
		} else {
			embedder, err = subproc.NewClient(options.aiConfig)
		}
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:        backend,
		productRepo:    productRepo,
		checkpointRepo: checkpointRepo,
		embedder:       embedder,
		logger:         slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.productRepo.Close(); err != nil {
		db.logger.Error("error closing product repository", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ProductRepository() storage.ProductRepository {
	return db.productRepo
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.checkpointRepo
}

// NewPipeline builds a staging pipeline over the given source, wired to the
// database's store, checkpoints and embedding service.
func (db *Database) NewPipeline(source pipeline.Source, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	opts = append([]pipeline.Option{
		pipeline.WithCheckpointRepository(db.checkpointRepo),
	}, opts...)
	return pipeline.New(source, db.productRepo, db.embedder, opts...)
}

// NewSearcher builds a searcher over the stored products.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.productRepo, db.embedder, opts...)
}
