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

package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/poiesic/staple/ai"
	"github.com/poiesic/staple/clean"
	"github.com/poiesic/staple/core"
	"github.com/poiesic/staple/storage"
)

// minSimilarity is the cosine similarity floor for semantic matches.
const minSimilarity = 0.60

// Scoring: a product found by both channels outranks single-channel hits, and
// an exact barcode hit outranks a bare semantic one.
const (
	bothChannelsBoost  = 1.5
	codeOnlyScore      = 1.2
	verbatimMatchBoost = 0.3
)

// Searcher provides combined barcode and semantic search over the product store.
type Searcher struct {
	repo     storage.ProductRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repo storage.ProductRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		repo:     repo,
		embedder: embedder,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches for products matching the query, which may be free
// text (matched semantically against the stored ingredient embeddings) or a
// barcode (matched exactly). Returns up to maxHits results, ranked by score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*storage.SearchResult, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches with monitoring. The monitor receives
// callbacks at each stage of the search process.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*storage.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	// 1. Exact barcode channel.
	var codeHit *core.StagedProduct
	if code := barcodeQuery(query); code != "" {
		product, err := s.repo.GetByCode(ctx, code)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("error looking up barcode", "code", code, "err", err)
			return nil, err
		}
		codeHit = product
	}
	monitor.AfterCodeLookup(codeHit)

	// 2. Semantic channel.
	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	matches, err := s.repo.FindSimilar(ctx, embedding, minSimilarity, maxHits)
	if err != nil {
		s.logger.Error("error querying for similar products", "err", err)
		return nil, err
	}

	semanticScores := make(map[core.ID]float32, len(matches))
	semanticIds := make([]uint64, 0, len(matches))
	for _, match := range matches {
		semanticScores[match.Product.Id] = match.Score
		semanticIds = append(semanticIds, uint64(match.Product.Id))
	}
	monitor.AfterSemanticSearch(semanticIds)

	// 3. Combine and score.
	results := make([]*storage.SearchResult, 0, len(matches)+1)

	for _, match := range matches {
		product := match.Product
		var score float32
		if codeHit != nil && codeHit.Id == product.Id {
			score = bothChannelsBoost * match.Score
			codeHit = nil
			monitor.CodeAndSemanticHit(product)
		} else {
			score = match.Score
			monitor.SemanticHit(product)
		}
		if containsAllQueryWords(product.ProductName+" "+product.IngredientsText, query) {
			score += verbatimMatchBoost
		}
		results = append(results, &storage.SearchResult{Product: product, Score: score})
	}

	if codeHit != nil {
		monitor.CodeHit(codeHit)
		results = append(results, &storage.SearchResult{Product: codeHit, Score: codeOnlyScore})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}

// embedQuery embeds the query into the ingredient vector space, through the
// kind-specific path when the service offers one. Stored ingredient vectors
// went through the same preparation, so the spaces line up.
func (s *Searcher) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if ke, ok := s.embedder.(ai.KindEmbedder); ok {
		return ke.EmbedKind(ctx, ai.KindIngredients, query)
	}
	return s.embedder.EmbedText(ctx, query)
}

// barcodeQuery returns the cleaned barcode when the query looks like one,
// "" otherwise.
func barcodeQuery(query string) string {
	code := clean.CleanCode(query)
	if len(code) < 8 || len(code) > 14 {
		return ""
	}
	// Reject free text that merely contains digits.
	digits := 0
	for _, r := range query {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits != len(code) && digits < len(query)/2 {
		return ""
	}
	return code
}
