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


// Package rank selects the products worth storing when the candidate set
// exceeds the storage budget.
//
// Selection is deterministic: candidates are ordered by a composite of data
// quality, popularity and recency, with ties broken by code ascending, so the
// same input always yields the same subset.
package rank

import (
	"sort"
	"time"

	"github.com/poiesic/staple/core"
)

// Composite score weights.
const (
	weightQuality    = 0.5
	weightPopularity = 0.3
	weightRecency    = 0.2

	// recencyHorizon is the age at which the recency component reaches zero.
	recencyHorizon = 2 * 365 * 24 * time.Hour
)

// Options bounds the selection.
type Options struct {
	// MaxProducts is the hard cap on selected products. Zero means no cap.
	MaxProducts int

	// MinQualityScore rejects products below this data quality score.
	MinQualityScore float64
}

// Stats records the selection outcome by reason.
type Stats struct {
	Considered       int
	Selected         int
	RejectedQuality  int
	RejectedOverCap  int
}

// Select returns the bounded, quality-gated subset of products, ranked by the
// composite score. The input slice is not modified.
func Select(products []*core.StagedProduct, opts Options) ([]*core.StagedProduct, Stats) {
	stats := Stats{Considered: len(products)}

	eligible := make([]*core.StagedProduct, 0, len(products))
	for _, p := range products {
		if p.DataQualityScore < opts.MinQualityScore {
			stats.RejectedQuality++
			continue
		}
		eligible = append(eligible, p)
	}

	now := time.Now()
	sort.SliceStable(eligible, func(i, j int) bool {
		si, sj := compositeScore(eligible[i], now), compositeScore(eligible[j], now)
		if si != sj {
			return si > sj
		}
		return eligible[i].Code < eligible[j].Code
	})

	if opts.MaxProducts > 0 && len(eligible) > opts.MaxProducts {
		stats.RejectedOverCap = len(eligible) - opts.MaxProducts
		eligible = eligible[:opts.MaxProducts]
	}

	stats.Selected = len(eligible)
	return eligible, stats
}

// compositeScore combines quality, popularity and recency into one ranking
// value in [0,1].
func compositeScore(p *core.StagedProduct, now time.Time) float64 {
	score := weightQuality*p.DataQualityScore + weightPopularity*p.PopularityScore
	score += weightRecency * recencyScore(p.LastModified, now)
	return score
}

// recencyScore decays linearly from 1 (modified now) to 0 (at or beyond the
// horizon). Products with no modification time score zero.
func recencyScore(lastModified time.Time, now time.Time) float64 {
	if lastModified.IsZero() {
		return 0
	}
	age := now.Sub(lastModified)
	if age <= 0 {
		return 1
	}
	if age >= recencyHorizon {
		return 0
	}
	return 1 - float64(age)/float64(recencyHorizon)
}
