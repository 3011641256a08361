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


// Package extract turns raw Open Food Facts style dump records into staged
// products.
//
// The Extractor maps one raw record to at most one core.StagedProduct,
// resolving localized fields per the configured language preference and
// computing the initial data-quality, popularity and completeness scores.
// Records missing required fields are rejected (fail closed).
//
// Extraction is lazy: Products returns a restartable sequence that reads the
// underlying dump incrementally and stops once the configured maximum product
// count is reached.
package extract
