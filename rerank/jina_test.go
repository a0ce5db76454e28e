package rerank

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rerankBody struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopK      int      `json:"top_k"`
}

// rerankServer answers rerank requests with handler and counts hits.
func rerankServer(t *testing.T, handler func(w http.ResponseWriter, body rerankBody)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var body rerankBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		handler(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestJina(t *testing.T, baseURL string, opts ...ConfigOption) *Jina {
	t.Helper()
	base := []ConfigOption{WithAPIKey("test-key"), WithBaseURL(baseURL), WithTimeout(2 * time.Second)}
	j, err := NewJina(NewConfig(append(base, opts...)...))
	require.NoError(t, err)
	return j
}

// reversed ranks documents last-to-first with descending scores.
func reversed(w http.ResponseWriter, body rerankBody) {
	type result struct {
		Index   int     `json:"index"`
		Score   float64 `json:"score"`
		Content string  `json:"content"`
	}
	results := make([]result, 0, body.TopK)
	for i := 0; i < body.TopK; i++ {
		idx := len(body.Documents) - 1 - i
		results = append(results, result{Index: idx, Score: 1 - float64(i)*0.1, Content: body.Documents[idx]})
	}
	json.NewEncoder(w).Encode(map[string]any{"results": results})
}

var docs = []string{"alpha", "beta", "gamma", "delta"}

func TestJinaRerankSuccess(t *testing.T) {
	received := make(chan rerankBody, 1)
	srv, hits := rerankServer(t, func(w http.ResponseWriter, body rerankBody) {
		received <- body
		reversed(w, body)
	})
	j := newTestJina(t, srv.URL)

	out := j.Rerank(context.Background(), "which letter", docs, 2)
	assert.Equal(t, []string{"delta", "gamma"}, out)
	assert.Equal(t, int32(1), hits.Load())
	got := <-received
	assert.Equal(t, "which letter", got.Query)
	assert.Equal(t, docs, got.Documents)
	assert.Equal(t, 2, got.TopK)
}

func TestJinaRerankIndexed(t *testing.T) {
	srv, _ := rerankServer(t, reversed)
	j := newTestJina(t, srv.URL)

	outcome := j.RerankIndexed(context.Background(), "q", docs, 10)
	assert.False(t, outcome.Degraded)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, 1, outcome.Requests)
	assert.Equal(t, []int{3, 2, 1, 0}, outcome.Indices())
	assert.Equal(t, "delta", outcome.Results[0].Content)
	assert.InDelta(t, 1.0, outcome.Results[0].Score, 1e-9)
}

func TestJinaRerankOrderValidity(t *testing.T) {
	srv, _ := rerankServer(t, reversed)
	j := newTestJina(t, srv.URL)

	for k := 1; k <= 6; k++ {
		out := j.Rerank(context.Background(), "q", docs, k)
		assert.Len(t, out, min(k, len(docs)))

		seen := map[string]bool{}
		for _, d := range out {
			assert.Contains(t, docs, d)
			assert.False(t, seen[d], "duplicate %q", d)
			seen[d] = true
		}
	}
}

func TestJinaRerankRelevanceScoreField(t *testing.T) {
	srv, _ := rerankServer(t, func(w http.ResponseWriter, body rerankBody) {
		w.Write([]byte(`{"results":[{"index":1,"relevance_score":0.9,"document":{"text":"beta"}},{"index":0,"relevance_score":0.2}]}`))
	})
	j := newTestJina(t, srv.URL)

	outcome := j.RerankIndexed(context.Background(), "q", []string{"alpha", "beta"}, 5)
	require.False(t, outcome.Degraded)
	assert.Equal(t, []string{"beta", "alpha"}, contents(outcome.Results))
	assert.InDelta(t, 0.9, outcome.Results[0].Score, 1e-9)
}

func TestJinaRerankEmptyInputMakesNoCall(t *testing.T) {
	srv, hits := rerankServer(t, reversed)
	j := newTestJina(t, srv.URL)

	assert.Empty(t, j.Rerank(context.Background(), "q", nil, 10))
	assert.Empty(t, j.Rerank(context.Background(), "q", []string{}, 10))
	assert.Equal(t, int32(0), hits.Load())
}

func TestJinaRerankFailSoft(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter, body rerankBody)
		want    error
	}{
		{"http 500", func(w http.ResponseWriter, _ rerankBody) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}, ErrRequestFailed},
		{"malformed json", func(w http.ResponseWriter, _ rerankBody) {
			w.Write([]byte(`{"results": [`))
		}, ErrMalformedResponse},
		{"missing results", func(w http.ResponseWriter, _ rerankBody) {
			w.Write([]byte(`{"data": []}`))
		}, ErrMalformedResponse},
		{"index out of range", func(w http.ResponseWriter, _ rerankBody) {
			w.Write([]byte(`{"results":[{"index":9,"score":0.5}]}`))
		}, ErrMalformedResponse},
		{"duplicate index", func(w http.ResponseWriter, _ rerankBody) {
			w.Write([]byte(`{"results":[{"index":0,"score":0.5},{"index":0,"score":0.4}]}`))
		}, ErrMalformedResponse},
		{"ascending scores", func(w http.ResponseWriter, _ rerankBody) {
			w.Write([]byte(`{"results":[{"index":0,"score":0.1},{"index":1,"score":0.4}]}`))
		}, ErrMalformedResponse},
		{"too many results", func(w http.ResponseWriter, _ rerankBody) {
			w.Write([]byte(`{"results":[{"index":0,"score":0.9},{"index":1,"score":0.8},{"index":2,"score":0.7}]}`))
		}, ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := rerankServer(t, tt.handler)
			j := newTestJina(t, srv.URL)

			outcome := j.RerankIndexed(context.Background(), "q", docs, 2)
			assert.True(t, outcome.Degraded)
			assert.Equal(t, []string{"alpha", "beta"}, contents(outcome.Results))
			if !errors.Is(outcome.Err, tt.want) {
				t.Errorf("Err = %v, want %v", outcome.Err, tt.want)
			}

			assert.Equal(t, []string{"alpha", "beta"}, j.Rerank(context.Background(), "q", docs, 2))
		})
	}
}

func TestJinaRerankTimeout(t *testing.T) {
	srv, _ := rerankServer(t, func(w http.ResponseWriter, body rerankBody) {
		time.Sleep(300 * time.Millisecond)
		reversed(w, body)
	})
	j := newTestJina(t, srv.URL, WithTimeout(50*time.Millisecond))

	start := time.Now()
	outcome := j.RerankIndexed(context.Background(), "q", docs, 3)
	assert.Less(t, time.Since(start), 250*time.Millisecond)

	assert.True(t, outcome.Degraded)
	assert.True(t, errors.Is(outcome.Err, ErrTimeout), "got %v", outcome.Err)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, contents(outcome.Results))
}

func TestJinaRerankIgnoresCallerCancellation(t *testing.T) {
	srv, hits := rerankServer(t, reversed)
	j := newTestJina(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := j.RerankIndexed(ctx, "q", docs, 1)
	assert.False(t, outcome.Degraded)
	assert.Equal(t, []string{"delta"}, contents(outcome.Results))
	assert.Equal(t, int32(1), hits.Load())
}

func TestJinaRerankNetworkError(t *testing.T) {
	srv, _ := rerankServer(t, reversed)
	url := srv.URL
	srv.Close()

	j := newTestJina(t, url)
	outcome := j.RerankIndexed(context.Background(), "q", docs, 10)
	assert.True(t, outcome.Degraded)
	assert.Equal(t, docs, contents(outcome.Results))
}

func TestNewJinaRequiresAPIKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	_, err := NewJina(NewConfig())
	assert.True(t, errors.Is(err, ErrAPIKeyRequired))

	t.Setenv(APIKeyEnv, "from-env")
	cfg := NewConfig()
	assert.Equal(t, "from-env", cfg.APIKey)
	_, err = NewJina(cfg)
	assert.NoError(t, err)
}

type embedBody struct {
	Model      string   `json:"model"`
	Task       string   `json:"task"`
	Dimensions int      `json:"dimensions"`
	Input      []string `json:"input"`
}

type recorder struct {
	mu     sync.Mutex
	bodies []embedBody
}

func (r *recorder) all() []embedBody {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]embedBody(nil), r.bodies...)
}

func embeddingServer(t *testing.T, handler func(w http.ResponseWriter, body embedBody)) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body embedBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec.mu.Lock()
		rec.bodies = append(rec.bodies, body)
		rec.mu.Unlock()
		handler(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

// positional embeds input i as [i, 1, 0].
func positional(w http.ResponseWriter, body embedBody) {
	type item struct {
		Embedding []float32 `json:"embedding"`
	}
	data := make([]item, len(body.Input))
	for i := range body.Input {
		data[i] = item{Embedding: []float32{float32(i), 1, 0}}
	}
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func TestJinaEmbed(t *testing.T) {
	srv, bodies := embeddingServer(t, positional)
	j := newTestJina(t, srv.URL, WithDimensions(3))

	vectors, err := j.Embed(context.Background(), []string{"first\nline", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0, 1, 0}, vectors[0])
	assert.Equal(t, []float32{1, 1, 0}, vectors[1])

	require.Len(t, bodies.all(), 1)
	body := bodies.all()[0]
	assert.Equal(t, DefaultEmbeddingModel, body.Model)
	assert.Equal(t, DefaultEmbeddingTask, body.Task)
	assert.Equal(t, 3, body.Dimensions)
	assert.Equal(t, []string{"first line", "second"}, body.Input)
}

func TestJinaEmbedBatches(t *testing.T) {
	srv, bodies := embeddingServer(t, positional)
	j := newTestJina(t, srv.URL, WithDimensions(3), WithBatchSize(2))

	vectors, err := j.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vectors, 3)
	assert.Len(t, bodies.all(), 2)
}

func TestJinaEmbedErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter, body embedBody)
		want    error
	}{
		{"http 500", func(w http.ResponseWriter, _ embedBody) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}, ErrRequestFailed},
		{"count mismatch", func(w http.ResponseWriter, _ embedBody) {
			w.Write([]byte(`{"data":[{"embedding":[1,2,3]}]}`))
		}, ErrMalformedResponse},
		{"wrong dimensions", func(w http.ResponseWriter, _ embedBody) {
			w.Write([]byte(`{"data":[{"embedding":[1]},{"embedding":[2]}]}`))
		}, ErrMalformedResponse},
		{"not json", func(w http.ResponseWriter, _ embedBody) {
			w.Write([]byte(`<html>`))
		}, ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := embeddingServer(t, tt.handler)
			j := newTestJina(t, srv.URL, WithDimensions(3))

			_, err := j.Embed(context.Background(), []string{"a", "b"})
			require.Error(t, err)
			if !errors.Is(err, tt.want) {
				t.Errorf("Embed() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestJinaEmbedEmpty(t *testing.T) {
	srv, bodies := embeddingServer(t, positional)
	j := newTestJina(t, srv.URL)

	vectors, err := j.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Empty(t, bodies.all())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		opt  ConfigOption
	}{
		{"no rerank url", WithRerankURL("")},
		{"no embeddings url", WithEmbeddingsURL("")},
		{"no model", WithEmbeddingModel("")},
		{"zero dimensions", WithDimensions(0)},
		{"zero timeout", WithTimeout(0)},
		{"zero batch", WithBatchSize(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(WithAPIKey("k"), tt.opt)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, NewConfig(WithAPIKey("k")).Validate())
}
