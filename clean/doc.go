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


// Package clean normalizes staged products and derives their dietary
// compliance flags.
//
// The Cleaner repairs common text-encoding damage, normalizes barcodes, tag
// sets, allergen names and image URLs, and reports a summary of what changed.
// Normalization is idempotent: cleaning already clean text and tags changes
// nothing.
//
// Dietary compliance is derived by a rule engine that checks three evidence
// sources per flag, in priority order: explicit ingredient-analysis tags,
// certification/label tags, and a keyword scan of the ingredients text.
// Negative evidence always wins; this is a deliberate safety-first tie-break
// for the allergy-safety use case.
package clean
