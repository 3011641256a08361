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

package bulkload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/staple/ai"
	"github.com/poiesic/staple/core"
	"github.com/poiesic/staple/storage"
	"github.com/poiesic/staple/validate"
)

// Config holds configuration for a load run.
type Config struct {
	// BatchSize is the number of products per batch.
	BatchSize int

	// MaxConcurrentBatches bounds the batches in flight at once.
	MaxConcurrentBatches int

	// MaxRetries is the maximum number of attempts for a failing batch.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration

	// SkipExisting drops products whose code is already stored instead of
	// overwriting them.
	SkipExisting bool

	// ReportInterval is how often to report progress (number of products).
	ReportInterval int

	// MemorySoftLimitBytes pauses the load between chunks while the heap is
	// above this size. Zero disables the guard.
	MemorySoftLimitBytes uint64

	// QualitySampleSize is how many stored products the post-load quality
	// assessment samples.
	QualitySampleSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:            100,
		MaxConcurrentBatches: 3,
		MaxRetries:           3,
		RetryDelay:           1 * time.Second,
		ReportInterval:       100,
		QualitySampleSize:    100,
	}
}

// Loader runs the bulk load state machine.
type Loader struct {
	repo        storage.ProductRepository
	checkpoints storage.CheckpointRepository
	embedder    ai.EmbeddingService
	pool        *ants.Pool
	config      *Config
	guard       *MemoryGuard
	progress    io.Writer
	progressFn  ProgressFunc
	logger      *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader) error

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(l *Loader) error {
		if config != nil {
			l.config = config
		}
		return nil
	}
}

// WithCheckpointRepository enables checkpoint persistence between batch
// chunks.
func WithCheckpointRepository(checkpoints storage.CheckpointRepository) Option {
	return func(l *Loader) error {
		l.checkpoints = checkpoints
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// WithProgressWriter sets where progress lines are written.
// Default is io.Discard.
func WithProgressWriter(w io.Writer) Option {
	return func(l *Loader) error {
		if w == nil {
			w = io.Discard
		}
		l.progress = w
		return nil
	}
}

// ProgressFunc receives progress updates as batches settle.
type ProgressFunc func(processed, total int)

// WithProgressFunc registers a callback invoked after each batch settles,
// successful or not. The callback may be invoked from worker goroutines.
func WithProgressFunc(fn ProgressFunc) Option {
	return func(l *Loader) error {
		l.progressFn = fn
		return nil
	}
}

// NewLoader creates a bulk loader. The worker pool is sized to the
// configured batch concurrency.
func NewLoader(repo storage.ProductRepository, embedder ai.EmbeddingService, opts ...Option) (*Loader, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	l := &Loader{
		repo:     repo,
		embedder: embedder,
		config:   DefaultConfig(),
		progress: io.Discard,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	if l.config.BatchSize < 1 {
		l.config.BatchSize = 1
	}
	if l.config.MaxConcurrentBatches < 1 {
		l.config.MaxConcurrentBatches = 1
	}

	pool, err := ants.NewPool(l.config.MaxConcurrentBatches)
	if err != nil {
		return nil, err
	}
	l.pool = pool
	l.guard = NewMemoryGuard(l.config.MemorySoftLimitBytes, l.logger)
	l.logger = l.logger.With("component", "bulkload")
	return l, nil
}

// Release releases the worker pool. The loader should not be used after
// calling Release.
func (l *Loader) Release() {
	if l.pool != nil {
		l.pool.Release()
	}
}

// Run executes one load of the given products and reports the outcome.
// The returned error covers run-level failures (preprocessing, model
// discovery, cancellation); batch failures are reported in the result.
func (l *Loader) Run(ctx context.Context, products []*core.StagedProduct) (*Report, error) {
	start := time.Now()
	result := &Report{}
	stats := &result.Stats
	stats.TotalProducts = len(products)

	remaining, err := l.preprocess(ctx, products, stats)
	if err != nil {
		return nil, err
	}
	stats.ProcessedProducts = len(remaining)

	if len(remaining) == 0 {
		l.logger.Info("nothing to load after preprocessing",
			"total", stats.TotalProducts, "invalid", stats.RejectedInvalid,
			"duplicates", stats.DuplicatesDropped, "existing", stats.SkippedExisting)
		result.Quality = l.assessQuality(ctx, stats)
		stats.Elapsed = time.Since(start)
		return result, nil
	}

	info, err := l.embedder.ModelInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering embedding model: %w", err)
	}

	batches := makeBatches(remaining, l.config.BatchSize)
	stats.BatchesTotal = len(batches)
	l.logger.Info("starting load",
		"products", len(remaining), "batches", len(batches),
		"batchSize", l.config.BatchSize, "concurrency", l.config.MaxConcurrentBatches,
		"model", info.ModelName, "dimension", info.EmbeddingDimension)

	tracker := NewProgressTracker(l.progress, len(remaining), l.config.ReportInterval)
	tracker.Start()

	runID := start.UTC().Format("20060102-150405")
	var mu sync.Mutex

	for chunkStart := 0; chunkStart < len(batches); chunkStart += l.config.MaxConcurrentBatches {
		chunkEnd := min(chunkStart+l.config.MaxConcurrentBatches, len(batches))

		var wg sync.WaitGroup
		for i := chunkStart; i < chunkEnd; i++ {
			batch := batches[i]
			index := i

			wg.Add(1)
			submitErr := l.pool.Submit(func() {
				defer wg.Done()
				l.runBatch(ctx, index, batch, info.EmbeddingDimension, result, &mu)
				tracker.Increment(len(batch))
				if l.progressFn != nil {
					mu.Lock()
					processed := result.Stats.SuccessfulInserts + result.Stats.FailedInserts
					mu.Unlock()
					l.progressFn(processed, stats.ProcessedProducts)
				}
			})
			if submitErr != nil {
				wg.Done()
				mu.Lock()
				l.recordBatchFailure(index, batch, submitErr, result)
				mu.Unlock()
			}
		}
		wg.Wait()

		if heap := heapInUse(); heap > stats.PeakHeapBytes {
			stats.PeakHeapBytes = heap
		}
		if err := l.guard.Wait(ctx); err != nil {
			return result, err
		}
		l.saveCheckpoint(ctx, runID, chunkEnd, stats)

		if err := ctx.Err(); err != nil {
			return result, err
		}
	}
	tracker.Finish()

	if len(result.FailedBatches) > 0 {
		result.RecoveryStrategy = RecoveryManual
	}

	result.Quality = l.assessQuality(ctx, stats)

	stats.Elapsed = time.Since(start)
	if secs := stats.Elapsed.Seconds(); secs > 0 {
		stats.Throughput = float64(stats.SuccessfulInserts) / secs
	}

	l.logger.Info("load complete",
		"successful", stats.SuccessfulInserts, "failed", stats.FailedInserts,
		"batchesFailed", stats.BatchesFailed,
		"throughput", fmt.Sprintf("%.1f/s", stats.Throughput),
		"quality", result.Quality.Status)
	return result, nil
}

// preprocess re-validates every product, dedupes the run by code and
// optionally drops codes the store already holds. Callers may hand the loader
// products from any origin, so the staging pipeline's validation is not
// assumed to have run.
func (l *Loader) preprocess(ctx context.Context, products []*core.StagedProduct, stats *Stats) ([]*core.StagedProduct, error) {
	seen := make(map[string]struct{}, len(products))
	deduped := make([]*core.StagedProduct, 0, len(products))
	for _, p := range products {
		if vr := validate.Validate(p, validate.Options{}); !vr.IsValid {
			stats.RejectedInvalid++
			l.logger.Warn("rejecting invalid product",
				"code", p.Code, "firstError", vr.FieldErrors[0].String())
			continue
		}
		if _, dup := seen[p.Code]; dup {
			stats.DuplicatesDropped++
			continue
		}
		seen[p.Code] = struct{}{}
		deduped = append(deduped, p)
	}

	if !l.config.SkipExisting || len(deduped) == 0 {
		return deduped, nil
	}

	existing, err := l.repo.ExistingCodes(ctx, productCodes(deduped))
	if err != nil {
		return nil, fmt.Errorf("checking existing codes: %w", err)
	}

	fresh := deduped[:0]
	for _, p := range deduped {
		if existing[p.Code] {
			stats.SkippedExisting++
			continue
		}
		fresh = append(fresh, p)
	}
	return fresh, nil
}

// runBatch processes one batch with retries and folds the outcome into the
// shared result under mu.
func (l *Loader) runBatch(ctx context.Context, index int, batch []*core.StagedProduct, dimension int, result *Report, mu *sync.Mutex) {
	var bulkResult *storage.BulkResult
	err := RetryWithBackoff(ctx, func() error {
		var err error
		bulkResult, err = l.processBatch(ctx, batch, dimension)
		if embeddingQualityError(err) {
			// The service is returning malformed vectors; another attempt
			// would get the same answer.
			return Permanent(err)
		}
		return err
	}, l.config.MaxRetries, l.config.RetryDelay)

	mu.Lock()
	defer mu.Unlock()

	if err != nil {
		l.recordBatchFailure(index, batch, err, result)
		return
	}

	result.Stats.BatchesSucceeded++
	result.Stats.SuccessfulInserts += bulkResult.Successful
	result.Stats.FailedInserts += bulkResult.Failed
	if len(bulkResult.Errors) > 0 {
		l.logger.Warn("batch completed with rejected records",
			"batch", index, "rejected", bulkResult.Failed, "errors", bulkResult.Errors)
	}
}

// recordBatchFailure marks a whole batch failed. Must be called with the
// result lock held.
func (l *Loader) recordBatchFailure(index int, batch []*core.StagedProduct, err error, result *Report) {
	result.Stats.BatchesFailed++
	result.Stats.FailedInserts += len(batch)
	result.FailedBatches = append(result.FailedBatches, FailedBatch{
		Index:  index,
		Codes:  productCodes(batch),
		Reason: err.Error(),
	})
	l.logger.Error("batch failed after retries", "batch", index, "products", len(batch), "err", err)
}

// processBatch embeds, validates and upserts one batch. Any error fails the
// whole batch; the caller retries.
func (l *Loader) processBatch(ctx context.Context, batch []*core.StagedProduct, dimension int) (*storage.BulkResult, error) {
	ingredients := make([]string, len(batch))
	names := make([]string, len(batch))
	allergens := make([]string, len(batch))
	for i, p := range batch {
		ingredients[i] = p.IngredientsText
		names[i] = p.ProductName
		allergens[i] = p.AllergenSummary()
	}

	ingredientVectors, err := l.embedder.EmbedTexts(ctx, ingredients)
	if err != nil {
		return nil, fmt.Errorf("embedding ingredients: %w", err)
	}
	nameVectors, err := l.embedder.EmbedTexts(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("embedding names: %w", err)
	}
	allergenVectors, err := l.embedder.EmbedTexts(ctx, allergens)
	if err != nil {
		return nil, fmt.Errorf("embedding allergen summaries: %w", err)
	}

	for i, p := range batch {
		for _, v := range [][]float32{ingredientVectors[i], nameVectors[i], allergenVectors[i]} {
			if err := ValidateVector(v, dimension); err != nil {
				return nil, fmt.Errorf("product %s: %w", p.Code, err)
			}
		}
		p.IngredientsVector = NormalizeVector(ingredientVectors[i])
		p.NameVector = NormalizeVector(nameVectors[i])
		p.AllergenVector = NormalizeVector(allergenVectors[i])
	}

	return l.repo.BulkUpsert(ctx, batch)
}

// saveCheckpoint persists progress after a chunk. Checkpoint failures are
// logged, never fatal.
func (l *Loader) saveCheckpoint(ctx context.Context, runID string, batchesCompleted int, stats *Stats) {
	if l.checkpoints == nil {
		return
	}
	err := l.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		RunID:            runID,
		BatchesCompleted: batchesCompleted,
		ProductsLoaded:   stats.SuccessfulInserts,
	})
	if err != nil {
		l.logger.Warn("failed to save checkpoint", "err", err)
	}
}

// assessQuality samples the stored output and scores the run.
func (l *Loader) assessQuality(ctx context.Context, stats *Stats) QualityReport {
	q := QualityReport{InsertSuccessRate: 1.0, DuplicateControl: 1.0}
	if stats.ProcessedProducts > 0 {
		q.InsertSuccessRate = float64(stats.SuccessfulInserts) / float64(stats.ProcessedProducts)
	}
	if stats.TotalProducts > 0 {
		q.DuplicateControl = 1.0 - float64(stats.DuplicatesDropped)/float64(stats.TotalProducts)
	}

	sampleSize := l.config.QualitySampleSize
	if sampleSize < 1 {
		sampleSize = 1
	}
	sample, err := l.repo.GetRecent(ctx, sampleSize)
	if err != nil || len(sample) == 0 {
		if err != nil {
			l.logger.Warn("quality sampling failed", "err", err)
		}
		q.Overall = (q.InsertSuccessRate + q.DuplicateControl) / 2
		q.Status = classify(q.Overall)
		return q
	}

	withVectors := 0
	var sumCompleteness float64
	for _, p := range sample {
		if p.HasEmbeddings() {
			withVectors++
		}
		sumCompleteness += p.CompletenessScore
	}

	n := float64(len(sample))
	q.SampleSize = len(sample)
	q.EmbeddingCoverage = float64(withVectors) / n
	q.MeanCompleteness = sumCompleteness / n
	q.Overall = (q.InsertSuccessRate + q.EmbeddingCoverage + q.MeanCompleteness + q.DuplicateControl) / 4
	q.Status = classify(q.Overall)

	if q.Status != QualityPass {
		if q.InsertSuccessRate < qualityPassThreshold {
			q.Issues = append(q.Issues, fmt.Sprintf("insert success rate %.2f", q.InsertSuccessRate))
			q.Recommendations = append(q.Recommendations, "inspect failed batches and replay them manually")
		}
		if q.EmbeddingCoverage < qualityPassThreshold {
			q.Issues = append(q.Issues, fmt.Sprintf("embedding coverage %.2f", q.EmbeddingCoverage))
			q.Recommendations = append(q.Recommendations, "re-run embedding for stored products missing vectors")
		}
		if q.MeanCompleteness < qualityWarnThreshold {
			q.Issues = append(q.Issues, fmt.Sprintf("mean completeness %.2f", q.MeanCompleteness))
			q.Recommendations = append(q.Recommendations, "raise the minimum quality score or enrich the source data")
		}
		if q.DuplicateControl < qualityPassThreshold {
			q.Issues = append(q.Issues, fmt.Sprintf("duplicate control %.2f", q.DuplicateControl))
			q.Recommendations = append(q.Recommendations, "deduplicate the source dump before loading")
		}
	}
	return q
}

// makeBatches splits products into batches of at most size.
func makeBatches(products []*core.StagedProduct, size int) [][]*core.StagedProduct {
	batches := make([][]*core.StagedProduct, 0, (len(products)+size-1)/size)
	for start := 0; start < len(products); start += size {
		end := min(start+size, len(products))
		batches = append(batches, products[start:end])
	}
	return batches
}

func productCodes(products []*core.StagedProduct) []string {
	codes := make([]string, len(products))
	for i, p := range products {
		codes[i] = p.Code
	}
	return codes
}
