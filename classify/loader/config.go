package loader

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/poiesic/sieve/classify/fallback"
	"github.com/poiesic/sieve/classify/fasttext"
)

const (
	// DefaultModelFile is the file name of the language identification model.
	DefaultModelFile = "lid.176.bin"

	// DefaultModelURL is where DefaultModelFile is published.
	DefaultModelURL = "https://dl.fbaipublicfiles.com/fasttext/supervised-models/lid.176.bin"
)

// Opener turns a model file into a classifier candidate. The returned value is
// used only if it implements classify.Classifier.
type Opener func(path string) (any, error)

// OpenFastText is the default Opener.
func OpenFastText(path string) (any, error) {
	m, err := fasttext.Load(path)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Verifier checks a freshly downloaded file before it replaces the model
// artifact.
type Verifier func(path string) error

// VerifyFastText is the default Verifier.
func VerifyFastText(path string) error {
	return fasttext.CheckFile(path)
}

// Config controls model resolution.
type Config struct {
	// ModelPath is an explicit model file. When it does not exist the default
	// artifact in ModelDir is tried instead.
	ModelPath string

	// ModelDir holds DefaultModelFile. Default: current directory.
	ModelDir string

	// DownloadURL is fetched when the default artifact is missing.
	DownloadURL string

	// AutoDownload enables fetching DownloadURL. Default: true.
	AutoDownload bool

	// DownloadAttempts bounds download retries. Default: 3
	DownloadAttempts int

	// RetryDelay is the base backoff between download attempts.
	RetryDelay time.Duration

	HTTPClient *http.Client

	// Progress receives download progress. Nil discards it.
	Progress io.Writer

	// FallbackOptions configure the statistical fallback classifier.
	FallbackOptions []fallback.Option

	Opener Opener

	// Verify rejects downloads that are not a model, e.g. an HTML error page
	// served with status 200. Nil accepts any body.
	Verify Verifier

	Logger *slog.Logger
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithModelPath sets an explicit model file.
func WithModelPath(path string) ConfigOption {
	return func(c *Config) {
		c.ModelPath = path
	}
}

// WithModelDir sets the directory searched for, and downloaded into, DefaultModelFile.
func WithModelDir(dir string) ConfigOption {
	return func(c *Config) {
		c.ModelDir = dir
	}
}

// WithDownloadURL overrides DefaultModelURL.
func WithDownloadURL(url string) ConfigOption {
	return func(c *Config) {
		c.DownloadURL = url
	}
}

// WithAutoDownload enables or disables downloading a missing model.
func WithAutoDownload(enabled bool) ConfigOption {
	return func(c *Config) {
		c.AutoDownload = enabled
	}
}

// WithRetry sets download attempts and the base backoff delay.
func WithRetry(attempts int, delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.DownloadAttempts = attempts
		c.RetryDelay = delay
	}
}

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(client *http.Client) ConfigOption {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithProgress sets where download progress is written.
func WithProgress(w io.Writer) ConfigOption {
	return func(c *Config) {
		c.Progress = w
	}
}

// WithFallback sets options for the fallback classifier.
func WithFallback(opts ...fallback.Option) ConfigOption {
	return func(c *Config) {
		c.FallbackOptions = append(c.FallbackOptions, opts...)
	}
}

// WithOpener replaces the fastText opener.
func WithOpener(o Opener) ConfigOption {
	return func(c *Config) {
		c.Opener = o
	}
}

// WithVerifier replaces the download check.
func WithVerifier(v Verifier) ConfigOption {
	return func(c *Config) {
		c.Verify = v
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns a Config that looks for lid.176.bin in the current
// directory and downloads it when missing.
func DefaultConfig() *Config {
	return &Config{
		ModelDir:         ".",
		DownloadURL:      DefaultModelURL,
		AutoDownload:     true,
		DownloadAttempts: 3,
		RetryDelay:       2 * time.Second,
		HTTPClient:       &http.Client{Timeout: 15 * time.Minute},
		Opener:           OpenFastText,
		Verify:           VerifyFastText,
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

// DefaultPath is the location of DefaultModelFile inside ModelDir.
func (c *Config) DefaultPath() string {
	return filepath.Join(c.ModelDir, DefaultModelFile)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ModelDir == "" {
		return errors.New("loader config: ModelDir is required")
	}
	if c.AutoDownload && c.DownloadURL == "" {
		return errors.New("loader config: DownloadURL is required when AutoDownload is set")
	}
	if c.DownloadAttempts < 1 {
		return errors.New("loader config: DownloadAttempts must be at least 1")
	}
	if c.Opener == nil {
		return errors.New("loader config: Opener is required")
	}
	return nil
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default().With("component", "model-loader")
}

func (c *Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
