package rerank

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/poiesic/sieve/core"
)

// EmbeddingReranker ranks documents by cosine similarity between their
// embeddings and the query embedding. It has the same fail-soft contract as Jina.
type EmbeddingReranker struct {
	embedder Embedder
	timeout  time.Duration
	logger   *slog.Logger
}

var _ Reranker = (*EmbeddingReranker)(nil)

// EmbeddingOption configures an EmbeddingReranker.
type EmbeddingOption func(*EmbeddingReranker) error

// WithEmbeddingTimeout bounds the embedding call made by each rerank.
func WithEmbeddingTimeout(timeout time.Duration) EmbeddingOption {
	return func(r *EmbeddingReranker) error {
		if timeout <= 0 {
			return fmt.Errorf("rerank: timeout must be positive, got %s", timeout)
		}
		r.timeout = timeout
		return nil
	}
}

// WithEmbeddingLogger sets a custom logger.
func WithEmbeddingLogger(logger *slog.Logger) EmbeddingOption {
	return func(r *EmbeddingReranker) error {
		if logger != nil {
			r.logger = logger
		}
		return nil
	}
}

// NewEmbeddingReranker creates a reranker on top of embedder.
func NewEmbeddingReranker(embedder Embedder, opts ...EmbeddingOption) (*EmbeddingReranker, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	r := &EmbeddingReranker{
		embedder: embedder,
		timeout:  DefaultTimeout,
		logger:   slog.Default().With("component", "embedding-reranker"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Rerank returns documents ordered by similarity to query.
func (r *EmbeddingReranker) Rerank(ctx context.Context, query string, documents []string, maxResults int) []string {
	return contents(r.RerankIndexed(ctx, query, documents, maxResults).Results)
}

// RerankIndexed embeds the query and documents in one call and sorts by cosine
// similarity. Ties keep the original order.
func (r *EmbeddingReranker) RerankIndexed(ctx context.Context, query string, documents []string, maxResults int) Outcome {
	if len(documents) == 0 || maxResults < 1 {
		return Outcome{Results: []core.RerankResult{}}
	}
	topK := min(maxResults, len(documents))

	embedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	vectors, err := r.embedder.Embed(embedCtx, append([]string{query}, documents...))
	if err == nil && len(vectors) != len(documents)+1 {
		err = fmt.Errorf("%w: %d vectors for %d texts", ErrMalformedResponse, len(vectors), len(documents)+1)
	}
	if err != nil {
		if isTimeout(err) {
			r.logger.ErrorContext(ctx, "embedding rerank timed out", "timeout", r.timeout)
		} else {
			r.logger.ErrorContext(ctx, "embedding rerank failed", "err", err)
		}
		return Outcome{Results: originalOrder(documents, maxResults), Degraded: true, Err: err, Requests: 1}
	}

	results := make([]core.RerankResult, len(documents))
	for i, doc := range documents {
		results[i] = core.RerankResult{
			Index:   i,
			Score:   CosineSimilarity(vectors[0], vectors[i+1]),
			Content: doc,
		}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	return Outcome{Results: results[:topK], Requests: 1}
}
