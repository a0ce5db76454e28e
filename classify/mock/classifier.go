package mock

import (
	"sync"

	"github.com/poiesic/sieve/classify"
	"github.com/poiesic/sieve/core"
)

// MockClassifier is a test double for classify.Classifier.
// It allows custom behavior injection via function fields.
type MockClassifier struct {
	// PredictFunc is called by Predict if set.
	PredictFunc func(texts []string, k int) []core.ClassificationResult

	// Scores maps exact texts to their top-1 probability when PredictFunc is nil.
	// Texts not present score DefaultScore.
	Scores map[string]float64

	// DefaultScore is used for texts missing from Scores.
	DefaultScore float64

	// Label is attached to every default prediction.
	Label string

	mu        sync.Mutex
	callCount int
	seen      [][]string
}

var _ classify.Classifier = (*MockClassifier)(nil)

// NewMockClassifier creates a mock classifier that scores every text at defaultScore.
func NewMockClassifier(defaultScore float64) *MockClassifier {
	return &MockClassifier{
		Scores:       make(map[string]float64),
		DefaultScore: defaultScore,
		Label:        "__label__mock",
	}
}

// NewScoringClassifier creates a mock classifier with fixed per-text scores.
func NewScoringClassifier(scores map[string]float64, defaultScore float64) *MockClassifier {
	m := NewMockClassifier(defaultScore)
	for text, score := range scores {
		m.Scores[text] = score
	}
	return m
}

// Predict returns the configured scores, tagged as model output.
func (m *MockClassifier) Predict(texts []string, k int) []core.ClassificationResult {
	m.mu.Lock()
	m.callCount++
	m.seen = append(m.seen, append([]string(nil), texts...))
	m.mu.Unlock()

	if m.PredictFunc != nil {
		return m.PredictFunc(texts, k)
	}

	results := make([]core.ClassificationResult, len(texts))
	for i, text := range texts {
		score, ok := m.Scores[text]
		if !ok {
			score = m.DefaultScore
		}
		results[i] = core.ClassificationResult{
			Predictions: []core.Prediction{{Label: m.Label, Probability: score}},
			Source:      core.ScoreSourceModel,
		}
	}
	return results
}

// CallCount returns how many times Predict was invoked.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Calls returns the text batches passed to Predict, in call order.
func (m *MockClassifier) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.seen...)
}

// Reset clears recorded calls and the PredictFunc override.
func (m *MockClassifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.seen = nil
	m.PredictFunc = nil
}
