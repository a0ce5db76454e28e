package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"

	"github.com/poiesic/sieve/core"
	"github.com/poiesic/sieve/rerank"
)

// MockReranker is a test double for rerank.Reranker.
// It allows custom behavior injection via function fields.
type MockReranker struct {
	// RerankIndexedFunc is called by RerankIndexed if set.
	// If nil, documents are returned in reverse order.
	RerankIndexedFunc func(ctx context.Context, query string, documents []string, maxResults int) rerank.Outcome

	mu        sync.Mutex
	callCount int
	queries   []string
}

var _ rerank.Reranker = (*MockReranker)(nil)

// NewMockReranker creates a mock reranker that reverses its input.
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

// Rerank returns the documents of RerankIndexed.
func (m *MockReranker) Rerank(ctx context.Context, query string, documents []string, maxResults int) []string {
	results := m.RerankIndexed(ctx, query, documents, maxResults).Results
	docs := make([]string, len(results))
	for i, r := range results {
		docs[i] = r.Content
	}
	return docs
}

// RerankIndexed records the call and returns the configured ordering.
func (m *MockReranker) RerankIndexed(ctx context.Context, query string, documents []string, maxResults int) rerank.Outcome {
	m.mu.Lock()
	m.callCount++
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	if m.RerankIndexedFunc != nil {
		return m.RerankIndexedFunc(ctx, query, documents, maxResults)
	}

	n := min(max(maxResults, 0), len(documents))
	results := make([]core.RerankResult, n)
	for i := range results {
		idx := len(documents) - 1 - i
		results[i] = core.RerankResult{Index: idx, Score: float64(n - i), Content: documents[idx]}
	}
	return rerank.Outcome{Results: results, Requests: 1}
}

// CallCount returns how many times RerankIndexed was invoked.
func (m *MockReranker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Queries returns the queries seen, in call order.
func (m *MockReranker) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// MockEmbedder is a test double for rerank.Embedder.
type MockEmbedder struct {
	// EmbedFunc is called by Embed if set.
	// If nil, uses a deterministic vector derived from a hash of each text.
	EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions of default vectors. Default: 16
	Dimensions int

	mu        sync.Mutex
	callCount int
}

var _ rerank.Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dimensions: 16}
}

// Embed returns one vector per text.
func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = deterministicVector(text, m.Dimensions)
	}
	return vectors, nil
}

// CallCount returns how many times Embed was invoked.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func deterministicVector(text string, dims int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dims)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(math.Sin(float64(seed>>11) / (1 << 53) * 2 * math.Pi))
	}
	return vec
}
