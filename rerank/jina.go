package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/poiesic/sieve/core"
	"github.com/tmc/langchaingo/embeddings"
)

// Jina talks to the Jina AI rerank and embeddings endpoints.
type Jina struct {
	cfg      *Config
	client   *http.Client
	embedder embeddings.Embedder
	logger   *slog.Logger
}

var (
	_ Reranker                  = (*Jina)(nil)
	_ Embedder                  = (*Jina)(nil)
	_ embeddings.EmbedderClient = (*Jina)(nil)
)

type jinaRerankRequest struct {
	Model string `json:"model,omitempty"`
	core.RerankRequest
}

type jinaRerankResponse struct {
	Results []struct {
		Index          int      `json:"index"`
		Score          *float64 `json:"score"`
		RelevanceScore float64  `json:"relevance_score"`
		Content        string   `json:"content"`
	} `json:"results"`
}

type jinaEmbeddingRequest struct {
	Model         string   `json:"model"`
	Task          string   `json:"task"`
	LateChunking  bool     `json:"late_chunking"`
	Dimensions    int      `json:"dimensions"`
	EmbeddingType string   `json:"embedding_type"`
	Input         []string `json:"input"`
}

type jinaEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// NewJina creates a Jina client. It fails with ErrAPIKeyRequired before any
// network call when no API key is configured.
func NewJina(cfg *Config) (*Jina, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	j := &Jina{
		cfg:    cfg,
		client: client,
		logger: slog.Default().With("component", "jina-reranker"),
	}

	embedder, err := embeddings.NewEmbedder(j,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(cfg.BatchSize),
	)
	if err != nil {
		return nil, err
	}
	j.embedder = embedder

	j.logger.Debug("jina reranker initialized", "rerank_url", cfg.RerankURL, "timeout", cfg.Timeout)
	return j, nil
}

// Rerank returns documents ordered by relevance to query.
func (j *Jina) Rerank(ctx context.Context, query string, documents []string, maxResults int) []string {
	return contents(j.RerankIndexed(ctx, query, documents, maxResults).Results)
}

// RerankIndexed sends one rerank request. The request runs under the configured
// timeout on a context detached from ctx's cancellation. Any failure yields the
// original order truncated to maxResults.
func (j *Jina) RerankIndexed(ctx context.Context, query string, documents []string, maxResults int) Outcome {
	if len(documents) == 0 {
		j.logger.WarnContext(ctx, "no documents to rerank")
		return Outcome{Results: []core.RerankResult{}}
	}
	if maxResults < 1 {
		return Outcome{Results: []core.RerankResult{}}
	}

	req := core.NewRerankRequest(query, documents, maxResults)

	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), j.cfg.Timeout)
	defer cancel()

	j.logger.InfoContext(ctx, "sending rerank request", "query", truncate(query, 50), "documents", len(documents), "top_k", req.TopK)
	resp, err := j.rerank(reqCtx, req)
	if err != nil {
		if isTimeout(err) {
			err = fmt.Errorf("%w after %s: %w", ErrTimeout, j.cfg.Timeout, err)
			j.logger.ErrorContext(ctx, "rerank request timed out", "timeout", j.cfg.Timeout)
		} else {
			j.logger.ErrorContext(ctx, "rerank request failed", "err", err)
		}
		return Outcome{
			Results:  originalOrder(documents, maxResults),
			Degraded: true,
			Err:      err,
			Requests: 1,
		}
	}

	j.logger.InfoContext(ctx, "reranking successful", "results", len(resp.Results))
	return Outcome{Results: resp.Results, Requests: 1}
}

func (j *Jina) rerank(ctx context.Context, req *core.RerankRequest) (*core.RerankResponse, error) {
	var wire jinaRerankResponse
	if err := j.post(ctx, j.cfg.RerankURL, jinaRerankRequest{Model: j.cfg.RerankModel, RerankRequest: *req}, &wire); err != nil {
		return nil, err
	}
	if wire.Results == nil {
		return nil, fmt.Errorf("%w: missing results", ErrMalformedResponse)
	}

	resp := &core.RerankResponse{Results: make([]core.RerankResult, len(wire.Results))}
	for i, r := range wire.Results {
		score := r.RelevanceScore
		if r.Score != nil {
			score = *r.Score
		}
		resp.Results[i] = core.RerankResult{Index: r.Index, Score: score}
	}
	if err := core.ValidateRerankResponse(req, resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	// results always carry the caller's own text
	for i := range resp.Results {
		resp.Results[i].Content = req.Documents[resp.Results[i].Index]
	}
	return resp, nil
}

// Embed returns one vector per text. Errors are returned, never swallowed.
func (j *Jina) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	j.logger.DebugContext(ctx, "generating embeddings", "count", len(texts))

	vectors, err := j.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		j.logger.ErrorContext(ctx, "failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	return vectors, nil
}

// CreateEmbedding performs one embeddings request. It satisfies
// embeddings.EmbedderClient, which handles batching and newline stripping.
func (j *Jina) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, j.cfg.Timeout)
	defer cancel()

	body := jinaEmbeddingRequest{
		Model:         j.cfg.EmbeddingModel,
		Task:          j.cfg.EmbeddingTask,
		Dimensions:    j.cfg.Dimensions,
		EmbeddingType: "float",
		Input:         texts,
	}

	var wire jinaEmbeddingResponse
	if err := j.post(ctx, j.cfg.EmbeddingsURL, body, &wire); err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, err
	}
	if len(wire.Data) != len(texts) {
		return nil, fmt.Errorf("%w: %d embeddings for %d inputs", ErrMalformedResponse, len(wire.Data), len(texts))
	}

	vectors := make([][]float32, len(wire.Data))
	for i, d := range wire.Data {
		if len(d.Embedding) != j.cfg.Dimensions {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, want %d",
				ErrMalformedResponse, i, len(d.Embedding), j.cfg.Dimensions)
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

func (j *Jina) post(ctx context.Context, url string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+j.cfg.APIKey)

	resp, err := j.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: %s", ErrRequestFailed, resp.Status, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
