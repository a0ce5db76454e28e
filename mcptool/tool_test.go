package mcptool

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/poiesic/sieve/classify/mock"
	"github.com/poiesic/sieve/core"
	"github.com/poiesic/sieve/curation"
	"github.com/poiesic/sieve/quality"
	rerankmock "github.com/poiesic/sieve/rerank/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	query      string
	documents  []*core.Document
	threshold  float64
	maxResults int
}

type recordingCurator struct {
	mu    sync.Mutex
	calls []call
}

func (r *recordingCurator) CurateWithStats(_ context.Context, query string, documents []*core.Document, threshold float64, maxResults int) ([]*core.Document, curation.Stats) {
	r.mu.Lock()
	r.calls = append(r.calls, call{query, documents, threshold, maxResults})
	r.mu.Unlock()

	out := make([]*core.Document, 0, len(documents))
	for i, d := range documents {
		out = append(out, &core.Document{ID: d.ID, URL: d.URL, Title: d.Title, RawText: d.RawText, FilteredText: d.RawText, RelevanceRank: i})
	}
	return out, curation.Stats{RunID: "run-1", DocumentsIn: len(documents), DocumentsOut: len(out), RerankRequests: 1, Elapsed: 1500 * time.Millisecond}
}

func (r *recordingCurator) last(t *testing.T) call {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.calls)
	return r.calls[len(r.calls)-1]
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrCuratorRequired)

	_, err = New(&recordingCurator{}, WithThreshold(1.5))
	assert.ErrorIs(t, err, quality.ErrInvalidThreshold)

	_, err = New(&recordingCurator{}, WithMaxResults(0))
	assert.Error(t, err)

	_, err = New(&recordingCurator{}, WithLogger(nil))
	assert.Error(t, err)

	tool, err := New(&recordingCurator{})
	require.NoError(t, err)
	assert.Equal(t, quality.DefaultThreshold, tool.threshold)
	assert.Equal(t, curation.DefaultMaxResults, tool.maxResults)
}

func TestCurateDocuments(t *testing.T) {
	ctx := context.Background()
	req := &mcp.CallToolRequest{}
	threshold := 0.7

	tests := []struct {
		name           string
		input          InputCurateDocuments
		wantErr        bool
		errContains    string
		validateCall   func(t *testing.T, c call)
		validateOutput func(t *testing.T, out OutputCurateDocuments)
	}{
		{
			name:        "empty query returns error",
			input:       InputCurateDocuments{Documents: []InputDocument{{Text: "x"}}},
			wantErr:     true,
			errContains: "query is required",
		},
		{
			name: "threshold out of range returns error",
			input: InputCurateDocuments{
				Query:            "q",
				QualityThreshold: func() *float64 { v := 2.0; return &v }(),
			},
			wantErr:     true,
			errContains: "threshold",
		},
		{
			name: "defaults applied when omitted",
			input: InputCurateDocuments{
				Query:     "go channels",
				Documents: []InputDocument{{URL: "u", Title: "t", Text: "body"}},
			},
			validateCall: func(t *testing.T, c call) {
				assert.Equal(t, "go channels", c.query)
				assert.Equal(t, 0.4, c.threshold)
				assert.Equal(t, 3, c.maxResults)
				require.Len(t, c.documents, 1)
				assert.Equal(t, core.DocumentID("u", "body"), c.documents[0].ID)
			},
			validateOutput: func(t *testing.T, out OutputCurateDocuments) {
				assert.Equal(t, "run-1", out.RunID)
				require.Len(t, out.Documents, 1)
				assert.Equal(t, OutputDocument{URL: "u", Title: "t", FilteredText: "body", Rank: 0}, out.Documents[0])
				assert.Equal(t, int64(1500), out.Stats.ElapsedMillis)
				assert.Equal(t, 1, out.Stats.RerankRequests)
			},
		},
		{
			name: "request values override defaults",
			input: InputCurateDocuments{
				Query:            "q",
				Documents:        []InputDocument{{Text: "a"}},
				QualityThreshold: &threshold,
				MaxResults:       7,
			},
			validateCall: func(t *testing.T, c call) {
				assert.Equal(t, 0.7, c.threshold)
				assert.Equal(t, 7, c.maxResults)
			},
		},
		{
			name: "html documents are extracted and unusable ones skipped",
			input: InputCurateDocuments{
				Query: "q",
				Documents: []InputDocument{
					{URL: "https://example.com/go/channels", HTML: articleHTML},
					{URL: "https://example.com/empty"},
					{URL: "://missing-scheme", HTML: articleHTML},
					{URL: "https://example.com/blank", Text: " \n\t "},
				},
			},
			validateCall: func(t *testing.T, c call) {
				require.Len(t, c.documents, 1)
				assert.Contains(t, c.documents[0].Title, "Go Channels")
				assert.Contains(t, c.documents[0].RawText, "Channels are the pipes")
			},
			validateOutput: func(t *testing.T, out OutputCurateDocuments) {
				assert.Equal(t, 4, out.Stats.DocumentsIn)
				assert.Equal(t, 3, out.Stats.Skipped)
			},
		},
		{
			name:  "no documents yields empty list",
			input: InputCurateDocuments{Query: "q"},
			validateOutput: func(t *testing.T, out OutputCurateDocuments) {
				assert.NotNil(t, out.Documents)
				assert.Empty(t, out.Documents)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curator := &recordingCurator{}
			tool, err := New(curator, WithThreshold(0.4), WithMaxResults(3))
			require.NoError(t, err)

			result, out, err := tool.CurateDocuments(ctx, req, tt.input)
			assert.Nil(t, result)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Empty(t, curator.calls)
				return
			}
			require.NoError(t, err)
			if tt.validateCall != nil {
				tt.validateCall(t, curator.last(t))
			}
			if tt.validateOutput != nil {
				tt.validateOutput(t, out)
			}
		})
	}
}

func TestToDocumentKeepsGivenTitle(t *testing.T) {
	doc, err := toDocument(InputDocument{URL: "https://example.com/go/channels", Title: "Mine", HTML: articleHTML})
	require.NoError(t, err)
	assert.Equal(t, "Mine", doc.Title)
	assert.Equal(t, core.Unranked, doc.RelevanceRank)
}

func TestToDocumentRejectsBlankText(t *testing.T) {
	_, err := toDocument(InputDocument{URL: "https://example.com/blank", Text: "   "})
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
	assert.ErrorIs(t, err, core.ErrEmptyContent)
}

func TestServerRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter, err := quality.NewFilter(mock.NewScoringClassifier(map[string]float64{
		"Good paragraph.": 0.9,
		"Bad paragraph.":  0.1,
	}, 0))
	require.NoError(t, err)
	pipeline, err := curation.NewPipeline(filter, rerankmock.NewMockReranker())
	require.NoError(t, err)
	defer pipeline.Release()

	tool, err := New(pipeline)
	require.NoError(t, err)
	server := NewServer(tool, "test")

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)
	assert.Equal(t, "curate_documents", tools.Tools[0].Name)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: "curate_documents",
		Arguments: map[string]any{
			"query": "what is good",
			"documents": []map[string]any{
				{"url": "https://example.com/a", "title": "A", "text": "Good paragraph.\n\nBad paragraph."},
			},
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var out OutputCurateDocuments
	require.NoError(t, json.Unmarshal(raw, &out))

	require.Len(t, out.Documents, 1)
	assert.Equal(t, "https://example.com/a", out.Documents[0].URL)
	assert.Equal(t, "Good paragraph.", out.Documents[0].FilteredText)
	assert.Equal(t, 0, out.Documents[0].Rank)
	assert.NotEmpty(t, out.RunID)
}

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Understanding Go Channels</title></head>
<body>
  <nav><a href="/">Home</a> <a href="/about">About</a></nav>
  <article>
    <h1>Understanding Go Channels</h1>
    <p>Channels are the pipes that connect concurrent goroutines. You can send values
    into channels from one goroutine and receive those values into another goroutine.</p>
    <p>By default sends and receives block until both the sender and receiver are ready.
    This allows goroutines to synchronize without explicit locks or condition variables.</p>
    <p>Buffered channels accept a limited number of values without a corresponding receiver
    for those values, which is useful when producers are bursty and consumers are steady.</p>
  </article>
  <footer>Copyright</footer>
</body>
</html>`
