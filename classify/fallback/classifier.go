package fallback

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
	"github.com/poiesic/sieve/classify"
	"github.com/poiesic/sieve/core"
)

const (
	// DefaultMin is the default lower bound of synthesized scores.
	DefaultMin = 0.3
	// DefaultMax is the default upper bound of synthesized scores.
	DefaultMax = 0.9

	// UnknownLabel is used when no language can be detected.
	UnknownLabel = "__label__unknown"
)

// ErrInvalidRange is returned when the score range is not a sub-range of [0,1].
var ErrInvalidRange = errors.New("invalid fallback score range")

// Labeler picks the label reported for a text.
type Labeler func(text string) string

// Classifier produces random scores in [min, max] for any text.
type Classifier struct {
	min, max float64
	labeler  Labeler
	logger   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

var _ classify.Classifier = (*Classifier)(nil)

// Option configures a Classifier.
type Option func(*Classifier) error

// WithRange sets the score range. Both bounds must lie in [0,1] and lo <= hi.
func WithRange(lo, hi float64) Option {
	return func(c *Classifier) error {
		if lo < 0 || hi > 1 || lo > hi {
			return fmt.Errorf("%w: [%v, %v]", ErrInvalidRange, lo, hi)
		}
		c.min, c.max = lo, hi
		return nil
	}
}

// WithSeed makes the classifier deterministic.
func WithSeed(seed uint64) Option {
	return func(c *Classifier) error {
		c.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		return nil
	}
}

// WithLabeler replaces language detection as the label source.
func WithLabeler(l Labeler) Option {
	return func(c *Classifier) error {
		if l != nil {
			c.labeler = l
		}
		return nil
	}
}

// WithLogger sets the logger used for degradation warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// New creates a fallback classifier.
func New(opts ...Option) (*Classifier, error) {
	c := &Classifier{
		min:     DefaultMin,
		max:     DefaultMax,
		labeler: LanguageLabel,
		logger:  slog.Default().With("component", "fallback-classifier"),
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Range returns the configured score bounds.
func (c *Classifier) Range() (float64, float64) {
	return c.min, c.max
}

// Predict returns one label and k uniformly drawn scores per text.
func (c *Classifier) Predict(texts []string, k int) []core.ClassificationResult {
	if k < 1 {
		k = 1
	}
	c.logger.Warn("classifier model unavailable, using random fallback scores",
		"texts", len(texts), "min", c.min, "max", c.max)

	results := make([]core.ClassificationResult, len(texts))
	for i, text := range texts {
		label := c.labeler(text)
		predictions := make([]core.Prediction, k)
		for j := range predictions {
			predictions[j] = core.Prediction{Label: label, Probability: c.draw()}
		}
		slices.SortFunc(predictions, func(a, b core.Prediction) int {
			return cmp.Compare(b.Probability, a.Probability)
		})
		results[i] = core.ClassificationResult{
			Predictions: predictions,
			Source:      core.ScoreSourceFallback,
		}
	}
	return results
}

func (c *Classifier) draw() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.min + c.rng.Float64()*(c.max-c.min)
}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

func languageDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.English, lingua.French, lingua.German, lingua.Spanish,
				lingua.Portuguese, lingua.Italian, lingua.Dutch, lingua.Russian,
				lingua.Chinese, lingua.Japanese).
			WithLowAccuracyMode().
			Build()
	})
	return detector
}

// LanguageLabel labels text with its detected language in fastText's
// "__label__xx" form, or UnknownLabel.
func LanguageLabel(text string) string {
	if strings.TrimSpace(text) == "" {
		return UnknownLabel
	}
	lang, ok := languageDetector().DetectLanguageOf(text)
	if !ok {
		return UnknownLabel
	}
	return "__label__" + strings.ToLower(lang.IsoCode639_1().String())
}

// StaticLabel returns a Labeler that always reports label.
func StaticLabel(label string) Labeler {
	return func(string) string { return label }
}
