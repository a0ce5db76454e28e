package rerank

import (
	"errors"
	"net/http"
	"os"
	"time"
)

const (
	DefaultRerankURL      = "https://api.jina.ai/v1/rerank"
	DefaultEmbeddingsURL  = "https://api.jina.ai/v1/embeddings"
	DefaultEmbeddingModel = "jina-embeddings-v3"
	DefaultEmbeddingTask  = "text-matching"
	DefaultDimensions     = 1024
	DefaultTimeout        = 30 * time.Second
	DefaultMaxResults     = 10

	// APIKeyEnv names the environment variable read when no key is configured.
	APIKeyEnv = "JINA_API_KEY"
)

// Config holds settings for the Jina rerank and embeddings endpoints.
type Config struct {
	// APIKey is sent as a bearer token. Falls back to $JINA_API_KEY.
	APIKey string

	RerankURL     string
	EmbeddingsURL string

	// RerankModel is sent with rerank requests when set. The service default
	// is used otherwise.
	RerankModel string

	// EmbeddingModel, EmbeddingTask and Dimensions shape embedding requests.
	EmbeddingModel string
	EmbeddingTask  string
	Dimensions     int

	// Timeout bounds each request independently of the caller's context.
	// Default: 30s
	Timeout time.Duration

	// BatchSize bounds texts per embeddings request.
	BatchSize int

	HTTPClient *http.Client
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithRerankURL overrides the rerank endpoint.
func WithRerankURL(url string) ConfigOption {
	return func(c *Config) {
		c.RerankURL = url
	}
}

// WithEmbeddingsURL overrides the embeddings endpoint.
func WithEmbeddingsURL(url string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingsURL = url
	}
}

// WithBaseURL points both endpoints at one host, e.g. a test server.
func WithBaseURL(base string) ConfigOption {
	return func(c *Config) {
		c.RerankURL = base + "/v1/rerank"
		c.EmbeddingsURL = base + "/v1/embeddings"
	}
}

// WithRerankModel sets the rerank model identifier.
func WithRerankModel(model string) ConfigOption {
	return func(c *Config) {
		c.RerankModel = model
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithEmbeddingTask sets the embedding task hint.
func WithEmbeddingTask(task string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingTask = task
	}
}

// WithDimensions sets the embedding width.
func WithDimensions(dims int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dims
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithBatchSize sets the embeddings batch size.
func WithBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = size
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) ConfigOption {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// DefaultConfig returns a Config for the public Jina endpoints. The API key is
// read from the environment.
func DefaultConfig() *Config {
	return &Config{
		APIKey:         os.Getenv(APIKeyEnv),
		RerankURL:      DefaultRerankURL,
		EmbeddingsURL:  DefaultEmbeddingsURL,
		EmbeddingModel: DefaultEmbeddingModel,
		EmbeddingTask:  DefaultEmbeddingTask,
		Dimensions:     DefaultDimensions,
		Timeout:        DefaultTimeout,
		BatchSize:      128,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that the configuration is complete.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrAPIKeyRequired
	}
	if c.RerankURL == "" {
		return errors.New("rerank config: RerankURL is required")
	}
	if c.EmbeddingsURL == "" {
		return errors.New("rerank config: EmbeddingsURL is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("rerank config: EmbeddingModel is required")
	}
	if c.Dimensions < 1 {
		return errors.New("rerank config: Dimensions must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("rerank config: Timeout must be positive")
	}
	if c.BatchSize < 1 {
		return errors.New("rerank config: BatchSize must be positive")
	}
	return nil
}
