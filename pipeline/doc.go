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

// Package pipeline composes the staging stages end to end:
// extract -> clean -> validate -> rank -> bulk load.
//
// One ProcessWithBulkLoading call is one run. All counters live in the
// run's Result; the pipeline holds no cross-run state, so a process can run
// several loads sequentially against different sources.
//
// The abort policy is catastrophic-only: an unreachable source, a failed
// model discovery or a cancelled context abort the run, while malformed
// records, rejected products and failed batches are counted and carried in
// the Result.
package pipeline
