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

package ai

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for embedding service implementations.
// The subprocess client uses ServiceCommand; the OpenAI-compatible client
// uses EmbeddingHost. Both use EmbeddingModel.
type Config struct {
	// EmbeddingHost is the base URL for an OpenAI-compatible embedding API.
	// Example: "http://localhost:11434/v1" for a local server.
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "all-MiniLM-L6-v2", "text-embedding-3-small"
	EmbeddingModel string

	// ServiceCommand invokes the external embedding process: the executable
	// followed by any fixed arguments. The protocol command name and its JSON
	// argument are appended per request.
	// Example: []string{"python3", "embedding_service.py"}
	ServiceCommand []string

	// RequestTimeout bounds a single service round trip, batch or single.
	// Default: 120s (model cold start dominates the first call).
	RequestTimeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the OpenAI-compatible embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithServiceCommand sets the external embedding process command line.
func WithServiceCommand(command ...string) ConfigOption {
	return func(c *Config) {
		c.ServiceCommand = command
	}
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// subprocess embedding service.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingModel: "all-MiniLM-L6-v2",
		ServiceCommand: []string{"python3", "embedding_service.py"},
		RequestTimeout: 120 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options. This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := NewConfig(
//	    WithServiceCommand("python3", "/opt/staple/embedding_service.py"),
//	    WithEmbeddingModel("all-MiniLM-L6-v2"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to EmbeddingHost if missing, which is required by
// most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/") + "/v1"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 120 * time.Second
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.EmbeddingHost == "" && len(c.ServiceCommand) == 0 {
		return errors.New("ai config: either EmbeddingHost or ServiceCommand is required")
	}
	return nil
}
