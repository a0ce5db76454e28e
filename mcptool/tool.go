package mcptool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/poiesic/sieve/core"
	"github.com/poiesic/sieve/curation"
	"github.com/poiesic/sieve/quality"
)

// ErrCuratorRequired is returned when New is called without a curator.
var ErrCuratorRequired = errors.New("curator is required")

// Curator is the part of curation.Pipeline the tool depends on.
type Curator interface {
	CurateWithStats(ctx context.Context, query string, documents []*core.Document, threshold float64, maxResults int) ([]*core.Document, curation.Stats)
}

// MetadataCurateDocuments describes the curate_documents tool.
var MetadataCurateDocuments = &mcp.Tool{
	Name: "curate_documents",
	Description: "Curate scraped web pages for a search query. " +
		"Each page is split into paragraphs, low-quality paragraphs are dropped, " +
		"and the remaining text is reranked by relevance to the query. " +
		"Pages may be supplied as plain text or raw HTML. " +
		"Returns at most max_results pages in relevance order, each with its filtered text and rank.",
}

// InputDocument is one page handed to the tool.
type InputDocument struct {
	URL   string `json:"url,omitempty" jsonschema:"source URL of the page"`
	Title string `json:"title,omitempty" jsonschema:"page title; extracted from html when omitted"`
	Text  string `json:"text,omitempty" jsonschema:"plain text body of the page"`
	HTML  string `json:"html,omitempty" jsonschema:"raw HTML of the page, used when text is empty"`
}

// InputCurateDocuments is the input for the curate_documents tool.
type InputCurateDocuments struct {
	Query            string          `json:"query" jsonschema:"the search query the pages are ranked against"`
	Documents        []InputDocument `json:"documents" jsonschema:"pages to curate"`
	QualityThreshold *float64        `json:"quality_threshold,omitempty" jsonschema:"minimum paragraph quality score in [0,1]"`
	MaxResults       int             `json:"max_results,omitempty" jsonschema:"maximum number of pages to return"`
}

// OutputDocument is a curated page.
type OutputDocument struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	FilteredText string `json:"filtered_text"`
	Rank         int    `json:"rank"`
}

// OutputStats mirrors curation.Stats for the wire.
type OutputStats struct {
	DocumentsIn    int   `json:"documents_in"`
	Duplicates     int   `json:"duplicates"`
	Skipped        int   `json:"skipped"`
	DocumentsOut   int   `json:"documents_out"`
	RerankRequests int   `json:"rerank_requests"`
	FallbackRerank bool  `json:"fallback_rerank"`
	ElapsedMillis  int64 `json:"elapsed_ms"`
}

// OutputCurateDocuments is the output for the curate_documents tool.
type OutputCurateDocuments struct {
	RunID     string           `json:"run_id"`
	Documents []OutputDocument `json:"documents"`
	Stats     OutputStats      `json:"stats"`
}

// Tool serves curate_documents requests from a Curator.
type Tool struct {
	curator    Curator
	threshold  float64
	maxResults int
	logger     *slog.Logger
}

// Option configures a Tool.
type Option func(*Tool) error

// WithThreshold sets the quality threshold used when a request omits one.
func WithThreshold(threshold float64) Option {
	return func(t *Tool) error {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("%w: %v", quality.ErrInvalidThreshold, threshold)
		}
		t.threshold = threshold
		return nil
	}
}

// WithMaxResults sets the result cap used when a request omits one.
func WithMaxResults(n int) Option {
	return func(t *Tool) error {
		if n < 1 {
			return fmt.Errorf("max results must be positive, got %d", n)
		}
		t.maxResults = n
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tool) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		t.logger = logger
		return nil
	}
}

// New creates a Tool backed by curator.
func New(curator Curator, opts ...Option) (*Tool, error) {
	if curator == nil {
		return nil, ErrCuratorRequired
	}
	t := &Tool{
		curator:    curator,
		threshold:  quality.DefaultThreshold,
		maxResults: curation.DefaultMaxResults,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	t.logger = t.logger.With("component", "mcp-tool")
	return t, nil
}

// CurateDocuments converts the request into documents, runs curation and
// returns the ranked survivors.
func (t *Tool) CurateDocuments(ctx context.Context, _ *mcp.CallToolRequest, input InputCurateDocuments) (*mcp.CallToolResult, OutputCurateDocuments, error) {
	if input.Query == "" {
		return nil, OutputCurateDocuments{}, fmt.Errorf("query is required")
	}

	threshold := t.threshold
	if input.QualityThreshold != nil {
		threshold = *input.QualityThreshold
		if threshold < 0 || threshold > 1 {
			return nil, OutputCurateDocuments{}, fmt.Errorf("%w: %v", quality.ErrInvalidThreshold, threshold)
		}
	}
	maxResults := input.MaxResults
	if maxResults < 1 {
		maxResults = t.maxResults
	}

	docs := make([]*core.Document, 0, len(input.Documents))
	skipped := 0
	for i, in := range input.Documents {
		doc, err := toDocument(in)
		if err != nil {
			t.logger.WarnContext(ctx, "skipping document", "index", i, "url", in.URL, "err", err)
			skipped++
			continue
		}
		docs = append(docs, doc)
	}

	results, stats := t.curator.CurateWithStats(ctx, input.Query, docs, threshold, maxResults)

	out := OutputCurateDocuments{
		RunID:     stats.RunID,
		Documents: make([]OutputDocument, 0, len(results)),
		Stats: OutputStats{
			DocumentsIn:    len(input.Documents),
			Duplicates:     stats.Duplicates,
			Skipped:        skipped,
			DocumentsOut:   stats.DocumentsOut,
			RerankRequests: stats.RerankRequests,
			FallbackRerank: stats.FallbackRerank,
			ElapsedMillis:  stats.Elapsed.Milliseconds(),
		},
	}
	for _, doc := range results {
		out.Documents = append(out.Documents, OutputDocument{
			URL:          doc.URL,
			Title:        doc.Title,
			FilteredText: doc.FilteredText,
			Rank:         doc.RelevanceRank,
		})
	}
	return nil, out, nil
}

func toDocument(in InputDocument) (*core.Document, error) {
	if in.Text == "" && in.HTML == "" {
		return nil, errors.New("document has neither text nor html")
	}
	title, text := in.Title, in.Text
	if text == "" {
		extracted, body, err := quality.ParagraphsFromHTML(in.URL, in.HTML)
		if err != nil {
			return nil, err
		}
		if title == "" {
			title = extracted
		}
		text = body
	}
	doc := core.NewDocument(in.URL, title, text)
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
