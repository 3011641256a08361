package subproc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/staple/ai"
)

// Protocol command names.
const (
	cmdEmbedBatch   = "generate_embeddings_batch"
	cmdModelInfo    = "get_model_info"
	cmdEmbedGeneric = "generate_embedding"
)

// kindCommands maps a text kind to its dedicated protocol command.
var kindCommands = map[ai.TextKind]string{
	ai.KindIngredients:     "generate_ingredient_embedding",
	ai.KindProductName:     "generate_product_name_embedding",
	ai.KindAllergenSummary: "generate_allergen_embedding",
}

// response is the protocol envelope. Fields beyond success/error are
// populated per command.
type response struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`

	Embedding  []float32   `json:"embedding"`
	Embeddings [][]float32 `json:"embeddings"`

	ModelName          string `json:"model_name"`
	EmbeddingDimension int    `json:"embedding_dimension"`
	MaxSequenceLength  int    `json:"max_sequence_length"`
}

// Client implements ai.EmbeddingService and ai.KindEmbedder over the
// subprocess protocol. Each request is one process invocation; the client
// holds no long-lived child and is safe for concurrent use.
type Client struct {
	command []string
	timeout time.Duration
	logger  *slog.Logger

	mu   sync.Mutex
	info *ai.ModelInfo
}

var (
	_ ai.EmbeddingService = (*Client)(nil)
	_ ai.KindEmbedder     = (*Client)(nil)
)

// NewClient creates a subprocess embedding client from the configuration.
//
// Returns ai.EmbeddingService interface to enforce abstraction.
func NewClient(config *ai.Config) (ai.EmbeddingService, error) {
	return newClient(config)
}

func newClient(config *ai.Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(config.ServiceCommand) == 0 {
		return nil, fmt.Errorf("%w: no service command configured", ai.ErrServiceUnavailable)
	}

	return &Client{
		command: config.ServiceCommand,
		timeout: config.RequestTimeout,
		logger:  slog.Default().With("component", "subproc-embedder"),
	}, nil
}

// EmbedText generates a vector embedding for a single text string.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in one
// round trip.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	c.logger.Debug("generating embeddings for texts", "count", len(texts))

	resp, err := c.invoke(ctx, cmdEmbedBatch, map[string]any{"texts": texts})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			ai.ErrMalformedResponse, len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

// EmbedKind generates an embedding via the kind-specific command, letting the
// service apply per-field text preparation.
func (c *Client) EmbedKind(ctx context.Context, kind ai.TextKind, text string) ([]float32, error) {
	command, ok := kindCommands[kind]
	if !ok {
		command = cmdEmbedGeneric
	}

	resp, err := c.invoke(ctx, command, map[string]any{"text": text})
	if err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding for kind %s", ai.ErrMalformedResponse, kind)
	}
	return resp.Embedding, nil
}

// ModelInfo queries the service for its model description. The result is
// cached for the lifetime of the client.
func (c *Client) ModelInfo(ctx context.Context) (*ai.ModelInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.info != nil {
		return c.info, nil
	}

	resp, err := c.invoke(ctx, cmdModelInfo, map[string]any{})
	if err != nil {
		return nil, err
	}
	if resp.EmbeddingDimension <= 0 {
		return nil, fmt.Errorf("%w: non-positive embedding dimension %d",
			ai.ErrMalformedResponse, resp.EmbeddingDimension)
	}

	c.info = &ai.ModelInfo{
		ModelName:          resp.ModelName,
		EmbeddingDimension: resp.EmbeddingDimension,
		MaxSequenceLength:  resp.MaxSequenceLength,
	}
	c.logger.Info("embedding model discovered",
		"model", c.info.ModelName, "dimension", c.info.EmbeddingDimension)
	return c.info, nil
}

// invoke runs one protocol round trip: spawn, pass command and argument,
// collect and decode the response.
func (c *Client) invoke(ctx context.Context, command string, arg any) (*response, error) {
	argJSON, err := json.Marshal(arg)
	if err != nil {
		return nil, fmt.Errorf("encoding %s argument: %w", command, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := append(append([]string{}, c.command[1:]...), command, string(argJSON))
	cmd := exec.CommandContext(ctx, c.command[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %v", ai.ErrServiceFailed, command, ctx.Err())
		}
		if _, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%w: %s exited: %v: %s",
				ai.ErrServiceFailed, command, err, tail(stderr.String()))
		}
		return nil, fmt.Errorf("%w: spawning %s: %v", ai.ErrServiceUnavailable, c.command[0], err)
	}
	c.logger.Debug("service round trip complete", "command", command, "took", time.Since(start))

	resp, err := parseResponse(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	return resp, nil
}

// parseResponse decodes the last JSON line of the service output and checks
// the success flag.
func parseResponse(out []byte) (*response, error) {
	line := lastJSONLine(out)
	if line == "" {
		return nil, fmt.Errorf("%w: no JSON object in output", ai.ErrMalformedResponse)
	}

	var resp response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedResponse, err)
	}
	if !resp.Success {
		if resp.Error == "" {
			resp.Error = "unspecified failure"
		}
		return nil, fmt.Errorf("%w: %s", ai.ErrServiceFailed, resp.Error)
	}
	return &resp, nil
}

// lastJSONLine returns the last line of out that looks like a JSON object.
// The service may emit progress noise on stdout before the response.
func lastJSONLine(out []byte) string {
	lines := strings.Split(string(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "{") {
			return line
		}
	}
	return ""
}

// tail bounds stderr quoted in errors to its last line.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if len(s) > 200 {
		s = s[len(s)-200:]
	}
	return s
}
