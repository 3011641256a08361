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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/staple"
	"github.com/poiesic/staple/ai"
	"github.com/poiesic/staple/ai/openai"
	"github.com/poiesic/staple/ai/subproc"
	"github.com/poiesic/staple/bulkload"
	"github.com/poiesic/staple/extract"
	"github.com/poiesic/staple/pipeline"
	"github.com/poiesic/staple/rank"
	"github.com/poiesic/staple/storage/badger"
	"github.com/poiesic/staple/validate"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	embeddingFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "OpenAI-compatible embedding service host URL (overrides the subprocess service)",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "all-MiniLM-L6-v2",
		},
		&cli.StringSliceFlag{
			Name:  "service-command",
			Usage: "Embedding subprocess command line, one token per flag occurrence",
			Value: cli.NewStringSlice("python3", "embedding_service.py"),
		},
		&cli.DurationFlag{
			Name:  "request-timeout",
			Usage: "Timeout for a single embedding service round trip",
			Value: 120 * time.Second,
		},
	}

	return &cli.App{
		Name:  "staple",
		Usage: "Stage food product dumps into a searchable product store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "Extract, clean, validate and bulk load a product dump",
				Action: loadCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "dump",
						Aliases:  []string{"s"},
						Usage:    "Path to the JSONL product dump",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of products to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-concurrent-batches",
						Usage: "Number of batches processed concurrently",
						Value: 3,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed batches",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N products",
						Value: 100,
					},
					&cli.BoolFlag{
						Name:  "skip-existing",
						Usage: "Skip products whose code is already stored",
					},
					&cli.Int64Flag{
						Name:  "memory-soft-limit",
						Usage: "Pause between batch chunks when heap use exceeds this many bytes (0 disables)",
					},
					&cli.IntFlag{
						Name:  "max-products",
						Usage: "Stop extraction after this many products (0 means no limit)",
					},
					&cli.Float64Flag{
						Name:  "min-quality",
						Usage: "Reject products below this data quality score",
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Promote barcode check-digit failures from warnings to errors",
					},
					&cli.StringSliceFlag{
						Name:  "language",
						Usage: "Preference order for localized name/ingredients fields",
						Value: cli.NewStringSlice("en"),
					},
				}, embeddingFlags...),
			},
			{
				Name:   "search",
				Usage:  "Query the staged store by barcode or free text",
				Action: searchCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of results",
						Value: 5,
					},
				}, embeddingFlags...),
			},
			{
				Name:   "info",
				Usage:  "Print the embedding service's model information",
				Action: infoCommand,
				Flags:  embeddingFlags,
			},
		},
	}
}

func loadCommand(c *cli.Context) error {
	ctx := context.Background()

	dumpPath := c.String("dump")
	if dumpPath == "" {
		return fmt.Errorf("dump path is required")
	}
	dbPath := c.String("db")
	if dbPath == "" {
		return fmt.Errorf("database path is required")
	}

	loadConfig := bulkload.DefaultConfig()
	loadConfig.BatchSize = c.Int("batch-size")
	loadConfig.MaxConcurrentBatches = c.Int("max-concurrent-batches")
	loadConfig.MaxRetries = c.Int("max-retries")
	loadConfig.RetryDelay = c.Duration("retry-delay")
	loadConfig.ReportInterval = c.Int("report-interval")
	loadConfig.SkipExisting = c.Bool("skip-existing")
	loadConfig.MemorySoftLimitBytes = uint64(c.Int64("memory-soft-limit"))

	if loadConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if loadConfig.MaxConcurrentBatches <= 0 {
		return fmt.Errorf("max-concurrent-batches must be greater than 0")
	}
	if loadConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	extractConfig := extract.DefaultConfig()
	extractConfig.MaxProducts = c.Int("max-products")
	if langs := c.StringSlice("language"); len(langs) > 0 {
		extractConfig.Languages = langs
	}

	// Open database
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo := badger.NewProductRepository(backend)
	defer repo.Close()
	checkpoints := badger.NewCheckpointRepository(backend)

	embedder, err := newEmbeddingService(c)
	if err != nil {
		return err
	}

	p, err := pipeline.New(extract.NewFileSource(dumpPath), repo, embedder,
		pipeline.WithConfig(&pipeline.Config{
			Extract:  extractConfig,
			Validate: validate.Options{Strict: c.Bool("strict")},
			Rank: rank.Options{
				MaxProducts:     c.Int("max-products"),
				MinQualityScore: c.Float64("min-quality"),
			},
			Load: loadConfig,
		}),
		pipeline.WithCheckpointRepository(checkpoints),
		pipeline.WithProgressWriter(os.Stderr))
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Dump: %s\n", dumpPath)
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	result, err := p.ProcessWithBulkLoading(ctx, nil)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	printResult(result)
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	embedder, err := newEmbeddingService(c)
	if err != nil {
		return err
	}

	db, err := staple.NewDatabase(c.String("db"), staple.WithEmbeddingService(embedder))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	hits, err := searcher.FindSimilar(ctx, query, c.Int("max-hits"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(hits))
	for i, hit := range hits {
		fmt.Printf("%d: %s '%s' [%0.3f]\n", i, hit.Product.Code, hit.Product.ProductName, hit.Score)
	}
	return nil
}

func infoCommand(c *cli.Context) error {
	ctx := context.Background()

	embedder, err := newEmbeddingService(c)
	if err != nil {
		return err
	}

	info, err := embedder.ModelInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to query model info: %w", err)
	}

	fmt.Printf("Model:               %s\n", info.ModelName)
	fmt.Printf("Embedding dimension: %d\n", info.EmbeddingDimension)
	fmt.Printf("Max sequence length: %d\n", info.MaxSequenceLength)
	return nil
}

// newEmbeddingService picks the embedding backend from the flags: an
// OpenAI-compatible host when given, the subprocess service otherwise.
func newEmbeddingService(c *cli.Context) (ai.EmbeddingService, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithServiceCommand(c.StringSlice("service-command")...),
		ai.WithRequestTimeout(c.Duration("request-timeout")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	if aiConfig.EmbeddingHost != "" {
		embedder, err := openai.NewEmbedder(aiConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		return embedder, nil
	}

	embedder, err := subproc.NewClient(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}
	return embedder, nil
}

func printResult(result *pipeline.Result) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Records read:       %d\n", result.Stats.RecordsRead)
	fmt.Fprintf(os.Stderr, "Malformed records:  %d\n", result.Stats.MalformedRecords)
	fmt.Fprintf(os.Stderr, "Extracted:          %d\n", result.Stats.Extracted)
	fmt.Fprintf(os.Stderr, "Valid:              %d\n", result.Stats.Valid)
	fmt.Fprintf(os.Stderr, "Selected:           %d\n", result.Stats.Rank.Selected)

	if result.Load == nil {
		fmt.Fprintln(os.Stderr, "Nothing to load.")
		return
	}

	stats := result.Load.Stats
	fmt.Fprintf(os.Stderr, "Inserted:           %d\n", stats.SuccessfulInserts)
	fmt.Fprintf(os.Stderr, "Failed:             %d\n", stats.FailedInserts)
	fmt.Fprintf(os.Stderr, "Throughput:         %.1f products/s\n", stats.Throughput)
	fmt.Fprintf(os.Stderr, "Quality:            %.3f (%s)\n",
		result.Load.Quality.Overall, result.Load.Quality.Status)

	for _, issue := range result.Load.Quality.Issues {
		fmt.Fprintf(os.Stderr, "Issue:              %s\n", issue)
	}
	if result.Load.RecoveryStrategy != "" {
		fmt.Fprintf(os.Stderr, "Recovery:           %s (%d failed batches)\n",
			result.Load.RecoveryStrategy, len(result.Load.FailedBatches))
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
