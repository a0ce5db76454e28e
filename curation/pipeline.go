package curation

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/sieve/core"
	"github.com/poiesic/sieve/rerank"
)

// DefaultMaxResults is used when Curate is given a non-positive maxResults.
const DefaultMaxResults = 10

// ContentFilter reduces a document's text to its informative paragraphs.
// Implementations must be safe for concurrent use.
type ContentFilter interface {
	FilterQualityContent(ctx context.Context, text string, threshold float64) string
}

// Pipeline filters and ranks search results.
type Pipeline struct {
	filter   ContentFilter
	reranker rerank.Reranker
	pool     *ants.Pool
	monitor  Monitor
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of documents filtered concurrently.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMonitor installs observation hooks.
func WithMonitor(monitor Monitor) Option {
	return func(p *Pipeline) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		p.monitor = monitor
		return nil
	}
}

// NewPipeline creates a curation pipeline.
func NewPipeline(filter ContentFilter, reranker rerank.Reranker, opts ...Option) (*Pipeline, error) {
	if filter == nil {
		return nil, ErrFilterRequired
	}
	if reranker == nil {
		return nil, ErrRerankerRequired
	}

	pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		filter:   filter,
		reranker: reranker,
		pool:     pool,
		monitor:  &noopMonitor{},
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "curation-pipeline")

	return p, nil
}

// Curate filters and ranks documents for query. See CurateWithStats.
func (p *Pipeline) Curate(ctx context.Context, query string, documents []*core.Document, threshold float64, maxResults int) []*core.Document {
	results, _ := p.CurateWithStats(ctx, query, documents, threshold, maxResults)
	return results
}

// CurateWithStats filters each document's RawText with threshold, reranks the
// filtered texts against query and returns at most maxResults new Documents
// carrying FilteredText and RelevanceRank. The input documents are not modified.
func (p *Pipeline) CurateWithStats(ctx context.Context, query string, documents []*core.Document, threshold float64, maxResults int) ([]*core.Document, Stats) {
	start := time.Now()
	stats := Stats{RunID: uuid.NewString(), DocumentsIn: len(documents)}
	logger := p.logger.With("run_id", stats.RunID)

	p.monitor.Start(stats.RunID, query, len(documents))

	if maxResults < 1 {
		maxResults = DefaultMaxResults
	}

	unique, duplicates := deduplicate(documents)
	stats.Duplicates = duplicates
	p.monitor.AfterDeduplicate(unique, duplicates)

	if len(unique) == 0 {
		stats.Elapsed = time.Since(start)
		results := []*core.Document{}
		p.monitor.Finish(results, stats)
		logger.InfoContext(ctx, "nothing to curate", "documents_in", stats.DocumentsIn)
		return results, stats
	}

	filtered := p.filterAll(ctx, logger, unique, threshold)
	p.monitor.AfterFilter(filtered)

	outcome := p.reranker.RerankIndexed(ctx, query, filtered, maxResults)
	p.monitor.AfterRerank(outcome)
	stats.RerankRequests = outcome.Requests
	stats.FallbackRerank = outcome.Degraded
	logger.DebugContext(ctx, "rerank order", "indices", outcome.Indices(), "degraded", outcome.Degraded)

	results := mapRanking(unique, filtered, outcome.Results, maxResults)
	if len(results) == 0 {
		logger.WarnContext(ctx, "reranker returned no usable results, keeping original order")
		stats.FallbackRerank = true
		results = mapRanking(unique, filtered, nil, maxResults)
	}

	stats.DocumentsOut = len(results)
	stats.Elapsed = time.Since(start)
	p.monitor.Finish(results, stats)

	logger.InfoContext(ctx, "curation complete",
		"documents_in", stats.DocumentsIn,
		"duplicates", stats.Duplicates,
		"documents_out", stats.DocumentsOut,
		"rerank_requests", stats.RerankRequests,
		"fallback_rerank", stats.FallbackRerank,
		"elapsed", stats.Elapsed)

	return results, stats
}

// filterAll runs the content filter for every document on the worker pool.
// The returned slice is index-aligned with docs.
func (p *Pipeline) filterAll(ctx context.Context, logger *slog.Logger, docs []*core.Document, threshold float64) []string {
	filtered := make([]string, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			filtered[i] = p.filter.FilterQualityContent(ctx, doc.RawText, threshold)
		}
		if err := p.pool.Submit(task); err != nil {
			logger.WarnContext(ctx, "worker pool rejected filter task, running inline", "err", err)
			task()
		}
	}
	wg.Wait()

	// a task that panicked leaves its slot empty
	for i, doc := range docs {
		if filtered[i] == "" {
			filtered[i] = doc.RawText
		}
	}
	return filtered
}

// deduplicate returns copies of documents with IDs assigned, keeping the first
// occurrence of each ID.
func deduplicate(documents []*core.Document) ([]*core.Document, int) {
	seen := make(map[core.ID]bool, len(documents))
	unique := make([]*core.Document, 0, len(documents))
	for _, doc := range documents {
		if doc == nil {
			continue
		}
		c := *doc
		if c.ID == 0 {
			c.ID = core.DocumentID(c.URL, c.RawText)
		}
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		c.FilteredText = ""
		c.RelevanceRank = core.Unranked
		unique = append(unique, &c)
	}
	return unique, len(documents) - len(unique)
}

// mapRanking applies ranked results to docs. Results pointing outside docs or
// repeating an index are skipped. A nil ranking means original order.
func mapRanking(docs []*core.Document, filtered []string, ranking []core.RerankResult, maxResults int) []*core.Document {
	if ranking == nil {
		ranking = make([]core.RerankResult, min(maxResults, len(docs)))
		for i := range ranking {
			ranking[i] = core.RerankResult{Index: i}
		}
	}

	results := make([]*core.Document, 0, len(ranking))
	used := make(map[int]bool, len(ranking))
	for _, r := range ranking {
		if len(results) == maxResults {
			break
		}
		if r.Index < 0 || r.Index >= len(docs) || used[r.Index] {
			continue
		}
		used[r.Index] = true

		doc := *docs[r.Index]
		doc.FilteredText = filtered[r.Index]
		doc.RelevanceRank = len(results)
		results = append(results, &doc)
	}
	return results
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
