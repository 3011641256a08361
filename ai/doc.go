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

// Package ai provides abstractions for the embedding services used in Staple.
//
// The pipeline attaches three vectors to every product (ingredients, name,
// allergen summary); this package defines the interfaces those vectors come
// through, so the loading stages depend on abstractions rather than on a
// concrete service.
//
// # Interfaces
//
//   - Embedder: generates vector embeddings from text
//   - ModelInfoProvider: reports the model name and embedding dimension
//
// # Implementation Packages
//
//   - ai/subproc: production implementation driving an external embedding
//     process over a JSON command protocol
//   - ai/openai: implementation using OpenAI-compatible HTTP APIs
//   - ai/mock: test doubles for unit testing without external services
//
// # Constructor Return Type Pattern
//
// Public constructors (subproc.NewClient, openai.NewEmbedder) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	embedder, err := subproc.NewClient(config)  // returns ai.Embedder
//
// Test utility constructors (mock.NewMockEmbedder) return CONCRETE types to
// enable test assertions and behavior injection via the mock's public fields
// (CallCount, function fields, Reset).
//
//	mockEmbed := mock.NewMockEmbedder()  // returns *mock.MockEmbedder
//	mockEmbed.EmbedTextsFunc = ...       // needs concrete type
//	count := mockEmbed.CallCount()       // test assertion
package ai
