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

// Package subproc implements ai.EmbeddingService by driving an external
// embedding process.
//
// # Protocol
//
// Each request spawns the configured command with two extra arguments: a
// command name and a single JSON argument object. The process answers with
// one JSON object on stdout and exits. Every response carries a "success"
// boolean; failures carry an "error" string.
//
//	generate_embeddings_batch     {"texts": ["...", ...]}  -> {"success": true, "embeddings": [[...], ...]}
//	generate_ingredient_embedding {"text": "..."}          -> {"success": true, "embedding": [...]}
//	generate_product_name_embedding {"text": "..."}        -> {"success": true, "embedding": [...]}
//	generate_allergen_embedding   {"text": "..."}          -> {"success": true, "embedding": [...]}
//	get_model_info                {}                       -> {"success": true, "model_name": "...",
//	                                                           "embedding_dimension": N, "max_sequence_length": N}
//
// Anything the process writes to stdout before the response object (model
// download progress, library banners) is tolerated: the last JSON line wins.
package subproc
