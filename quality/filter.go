package quality

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/sieve/classify"
	"github.com/poiesic/sieve/core"
)

// DefaultThreshold is the minimum top-1 score a paragraph needs to be kept.
const DefaultThreshold = 0.5

// ParagraphSeparator joins retained paragraphs.
const ParagraphSeparator = "\n\n"

var blankLine = regexp.MustCompile(`\n[ \t\r\f\v]*\n`)

// Filter scores paragraphs and drops low-value ones. It holds no mutable state
// and may be shared by concurrent callers.
type Filter struct {
	classifier classify.Classifier
	threshold  float64
	logger     *slog.Logger
}

// Option configures a Filter.
type Option func(*Filter) error

// WithThreshold sets the default threshold used by Apply.
func WithThreshold(threshold float64) Option {
	return func(f *Filter) error {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
		}
		f.threshold = threshold
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filter) error {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger
		return nil
	}
}

// NewFilter creates a Filter backed by classifier.
func NewFilter(classifier classify.Classifier, opts ...Option) (*Filter, error) {
	if classifier == nil {
		return nil, ErrClassifierRequired
	}

	f := &Filter{
		classifier: classifier,
		threshold:  DefaultThreshold,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	f.logger = f.logger.With("component", "quality-filter")
	return f, nil
}

// Threshold returns the filter's default threshold.
func (f *Filter) Threshold() float64 {
	return f.threshold
}

// Apply filters text with the filter's default threshold.
func (f *Filter) Apply(ctx context.Context, text string) string {
	return f.FilterQualityContent(ctx, text, f.threshold)
}

// FilterQualityContent keeps the paragraphs of text whose top-1 score is at
// least threshold. If none qualify the original text is returned unchanged.
func (f *Filter) FilterQualityContent(ctx context.Context, text string, threshold float64) string {
	segments := f.Score(ctx, text)
	if len(segments) == 0 {
		return text
	}

	kept := make([]string, 0, len(segments))
	for _, s := range segments {
		if s.QualityScore >= threshold {
			kept = append(kept, s.Text)
		}
	}

	f.logger.DebugContext(ctx, "filtered paragraphs",
		"paragraphs", len(segments), "kept", len(kept), "threshold", threshold, "source", segments[0].ScoreSource)

	if len(kept) == 0 {
		return text
	}
	return strings.Join(kept, ParagraphSeparator)
}

// Score splits text into paragraphs and scores them in one classifier call.
func (f *Filter) Score(ctx context.Context, text string) []core.TextSegment {
	paragraphs := SplitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	results := f.classifier.Predict(paragraphs, 1)
	if err := core.ValidateClassificationResults(len(paragraphs), results); err != nil {
		f.logger.WarnContext(ctx, "classifier returned invalid results, keeping text", "err", err)
		return nil
	}

	segments := make([]core.TextSegment, len(paragraphs))
	for i, p := range paragraphs {
		segments[i] = core.TextSegment{
			Text:         p,
			QualityScore: topScore(results[i]),
			ScoreSource:  results[i].Source,
		}
	}
	return segments
}

// PredictEducationalValue returns the top-1 probability for each text, or 0
// when the classifier produced no prediction for it.
func (f *Filter) PredictEducationalValue(ctx context.Context, texts []string) []float64 {
	scores := make([]float64, len(texts))
	if len(texts) == 0 {
		return scores
	}

	results := f.classifier.Predict(texts, 1)
	if err := core.ValidateClassificationResults(len(texts), results); err != nil {
		f.logger.WarnContext(ctx, "classifier returned invalid results", "err", err)
		return scores
	}
	for i, r := range results {
		scores[i] = topScore(r)
	}
	return scores
}

func topScore(r core.ClassificationResult) float64 {
	top, ok := r.Top()
	if !ok {
		return 0
	}
	return top.Probability
}

// SplitParagraphs splits text on blank lines, trimming each paragraph and
// dropping empty ones.
func SplitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := blankLine.Split(text, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}
