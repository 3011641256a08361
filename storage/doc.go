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

// Package storage defines the persistence interfaces for the product store.
//
// The pipeline writes staged products through ProductRepository and records
// its progress through CheckpointRepository. Implementations must be
// thread-safe: the bulk loader upserts batches from multiple workers at once.
//
// The only implementation ships in storage/badger, backed by BadgerDB.
// Records are serialized with the MUS binary format (see MarshalProduct);
// embedding vectors ride along inside the record, and similarity search is a
// full scan with cosine scoring, which is adequate at the catalog sizes the
// store is budgeted for.
package storage
