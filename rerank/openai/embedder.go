package openai

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/sieve/rerank"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Config holds the embedding service settings.
type Config struct {
	// Host is the base URL of the API, e.g. "http://localhost:11434/v1".
	Host string

	// Model is the embedding model identifier.
	Model string

	// Token is the bearer token. Local services usually accept any value.
	Token string
}

// DefaultConfig returns settings for a local OpenAI-compatible server.
func DefaultConfig() *Config {
	return &Config{
		Host:  "http://localhost:11434/v1",
		Model: "embeddinggemma",
		Token: "none",
	}
}

// Normalize adds the /v1 suffix to Host if missing.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
	if c.Token == "" {
		c.Token = "none"
	}
}

// Validate checks that the configuration is complete.
func (c *Config) Validate() error {
	c.Normalize()
	if c.Host == "" {
		return errors.New("openai config: Host is required")
	}
	if c.Model == "" {
		return errors.New("openai config: Model is required")
	}
	return nil
}

// Embedder implements rerank.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

var _ rerank.Embedder = (*Embedder)(nil)

// NewEmbedder creates an embedder using the provided configuration.
func NewEmbedder(config *Config) (*Embedder, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// Embed generates vector embeddings for multiple texts in a batch.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	return vectors, nil
}
