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

// Package bulkload moves validated products into the store in embedded,
// batched, concurrent fashion.
//
// A load run walks a fixed sequence of phases:
//
//	preprocess  - re-validate every product, dedupe the run, optionally
//	              drop codes already stored
//	batch       - split the remainder into fixed-size batches
//	process     - embed, validate vectors, and upsert batches on a worker
//	              pool; at most MaxConcurrentBatches batches in flight, and
//	              a chunk must fully settle before the next chunk starts
//	recovery    - transient batch failures are retried with exponential
//	              backoff; a batch that exhausts its retries is surrendered
//	              to manual recovery and reported in the result
//	qa          - the stored output is sampled and scored
//	finalize    - throughput and peak heap are recorded
//
// Every product in a batch receives three embedding vectors (ingredients
// text, product name, allergen summary). Vectors are validated against the
// model's reported dimension before storage; a single bad vector fails its
// whole batch without retry, on the theory that a misbehaving embedding
// service cannot be trusted for the batch's other vectors either and would
// return the same answer again.
package bulkload
