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

package pipeline

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/poiesic/staple/ai"
	"github.com/poiesic/staple/bulkload"
	"github.com/poiesic/staple/clean"
	"github.com/poiesic/staple/core"
	"github.com/poiesic/staple/extract"
	"github.com/poiesic/staple/rank"
	"github.com/poiesic/staple/storage"
	"github.com/poiesic/staple/validate"
)

// Source yields raw records for one run. extract.FileSource and
// extract.ReaderSource both satisfy it.
type Source interface {
	Records() iter.Seq2[*extract.Record, error]
}

var (
	_ Source = (*extract.FileSource)(nil)
	_ Source = (*extract.ReaderSource)(nil)
)

// Config collects the per-stage settings. Zero values fall back to each
// stage's defaults.
type Config struct {
	Extract  *extract.Config
	Validate validate.Options
	Rank     rank.Options
	Load     *bulkload.Config
}

// RunStats counts what happened to records on their way through the staging
// stages, before bulk loading.
type RunStats struct {
	// RecordsRead counts records the source produced, malformed ones
	// included.
	RecordsRead int

	// MalformedRecords counts records the source could not decode.
	MalformedRecords int

	// Extracted counts records that produced a staged product.
	Extracted int

	// RejectedExtraction counts records dropped for missing required fields.
	RejectedExtraction int

	// Valid counts products that passed validation.
	Valid int

	// RejectedValidation counts products dropped with field errors.
	RejectedValidation int

	// ValidationWarnings totals non-blocking warnings across all products.
	ValidationWarnings int

	// Rank is the selection outcome.
	Rank rank.Stats
}

// Result is the outcome of one pipeline run.
type Result struct {
	Stats RunStats

	// Load is the bulk loader's report, nil when nothing survived staging.
	Load *bulkload.Report

	Elapsed time.Duration
}

// Pipeline stages raw records into the product store.
type Pipeline struct {
	source      Source
	repo        storage.ProductRepository
	checkpoints storage.CheckpointRepository
	embedder    ai.EmbeddingService
	config      *Config
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConfig replaces the default per-stage settings.
func WithConfig(config *Config) Option {
	return func(p *Pipeline) error {
		if config != nil {
			p.config = config
		}
		return nil
	}
}

// WithCheckpointRepository enables bulk-load checkpointing.
func WithCheckpointRepository(checkpoints storage.CheckpointRepository) Option {
	return func(p *Pipeline) error {
		p.checkpoints = checkpoints
		return nil
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger != nil {
			p.logger = logger
		}
		return nil
	}
}

// WithProgressWriter directs the loader's progress line to w.
func WithProgressWriter(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// New builds a pipeline over the given source, store and embedding service.
func New(source Source, repo storage.ProductRepository, embedder ai.EmbeddingService, opts ...Option) (*Pipeline, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		source:   source,
		repo:     repo,
		embedder: embedder,
		config:   &Config{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "pipeline")
	return p, nil
}

// ProcessWithBulkLoading runs the full pipeline: stage every record the
// source yields, rank the survivors, and bulk load the selection.
//
// progressFn, when non-nil, is called as the loader makes progress. Malformed
// records and rejected products are counted, not fatal; an unreachable
// source or a cancelled context aborts the run.
func (p *Pipeline) ProcessWithBulkLoading(ctx context.Context, progressFn bulkload.ProgressFunc) (*Result, error) {
	start := time.Now()
	result := &Result{}

	staged, err := p.stage(ctx, &result.Stats)
	if err != nil {
		return nil, err
	}

	selected, rankStats := rank.Select(staged, p.config.Rank)
	result.Stats.Rank = rankStats

	p.logger.Info("staging complete",
		"records_read", result.Stats.RecordsRead,
		"malformed", result.Stats.MalformedRecords,
		"extracted", result.Stats.Extracted,
		"valid", result.Stats.Valid,
		"selected", rankStats.Selected)

	if len(selected) > 0 {
		report, err := p.load(ctx, selected, progressFn)
		if err != nil {
			return nil, err
		}
		result.Load = report
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// stage runs extract, clean and validate over the source. The extractor's
// sequence owns malformed-record handling and the MaxProducts cap; its tally
// is folded into the run stats once the pass completes.
func (p *Pipeline) stage(ctx context.Context, stats *RunStats) ([]*core.StagedProduct, error) {
	extractor := extract.NewExtractor(p.config.Extract, p.logger)
	cleaner := clean.NewCleaner(p.logger)

	var tally extract.Tally
	var staged []*core.StagedProduct
	for product, err := range extractor.Products(p.source.Records(), &tally) {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		product, _ = cleaner.Clean(product)

		vr := validate.Validate(product, p.config.Validate)
		stats.ValidationWarnings += len(vr.Warnings)
		if !vr.IsValid {
			stats.RejectedValidation++
			p.logger.Debug("product rejected",
				"code", product.Code,
				"errors", len(vr.FieldErrors))
			continue
		}
		stats.Valid++
		staged = append(staged, product)
	}

	stats.RecordsRead = tally.RecordsRead
	stats.MalformedRecords = tally.Malformed
	stats.Extracted = tally.Extracted
	stats.RejectedExtraction = tally.Rejected
	return staged, nil
}

// load hands the selection to the bulk loader.
func (p *Pipeline) load(ctx context.Context, products []*core.StagedProduct, progressFn bulkload.ProgressFunc) (*bulkload.Report, error) {
	opts := []bulkload.Option{
		bulkload.WithLogger(p.logger),
	}
	if p.config.Load != nil {
		opts = append(opts, bulkload.WithConfig(p.config.Load))
	}
	if p.checkpoints != nil {
		opts = append(opts, bulkload.WithCheckpointRepository(p.checkpoints))
	}
	if p.progress != nil {
		opts = append(opts, bulkload.WithProgressWriter(p.progress))
	}
	if progressFn != nil {
		opts = append(opts, bulkload.WithProgressFunc(progressFn))
	}

	loader, err := bulkload.NewLoader(p.repo, p.embedder, opts...)
	if err != nil {
		return nil, err
	}
	defer loader.Release()

	return loader.Run(ctx, products)
}
