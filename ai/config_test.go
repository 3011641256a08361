package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "all-MiniLM-L6-v2", cfg.EmbeddingModel)
	assert.Equal(t, []string{"python3", "embedding_service.py"}, cfg.ServiceCommand)
	assert.Equal(t, 120*time.Second, cfg.RequestTimeout)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		// Should have default values
		assert.Equal(t, "all-MiniLM-L6-v2", cfg.EmbeddingModel)
		assert.NotEmpty(t, cfg.ServiceCommand)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
	})

	t.Run("with custom service command", func(t *testing.T) {
		cfg := NewConfig(WithServiceCommand("python3", "/opt/staple/embedding_service.py"))

		assert.Equal(t, []string{"python3", "/opt/staple/embedding_service.py"}, cfg.ServiceCommand)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("custom-embed"),
			WithRequestTimeout(30*time.Second),
		)

		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{
			name:     "already has /v1",
			host:     "http://localhost:11434/v1",
			expected: "http://localhost:11434/v1",
		},
		{
			name:     "missing /v1",
			host:     "http://localhost:11434",
			expected: "http://localhost:11434/v1",
		},
		{
			name:     "trailing slash",
			host:     "http://localhost:11434/",
			expected: "http://localhost:11434/v1",
		},
		{
			name:     "empty host left alone",
			host:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingModel(""))
		assert.Error(t, cfg.Validate())
	})

	t.Run("needs a host or a command", func(t *testing.T) {
		cfg := &Config{EmbeddingModel: "m"}
		assert.Error(t, cfg.Validate())

		cfg.EmbeddingHost = "http://localhost:11434"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("validate normalizes", func(t *testing.T) {
		cfg := &Config{EmbeddingModel: "m", EmbeddingHost: "http://h"}
		assert.NoError(t, cfg.Validate())
		assert.Equal(t, "http://h/v1", cfg.EmbeddingHost)
		assert.Equal(t, 120*time.Second, cfg.RequestTimeout)
	})
}
