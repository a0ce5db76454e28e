package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/sieve/classify/fallback"
	"github.com/poiesic/sieve/classify/mock"
	"github.com/poiesic/sieve/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOpener returns a mock classifier for any readable file.
func stubOpener(calls *atomic.Int32) Opener {
	return func(path string) (any, error) {
		if calls != nil {
			calls.Add(1)
		}
		if _, err := os.ReadFile(path); err != nil {
			return nil, err
		}
		return mock.NewMockClassifier(0.8), nil
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(t *testing.T, opts ...ConfigOption) *Config {
	t.Helper()
	base := []ConfigOption{
		WithModelDir(t.TempDir()),
		WithAutoDownload(false),
		WithRetry(2, time.Millisecond),
		WithOpener(stubOpener(nil)),
		WithVerifier(nil),
		WithFallback(fallback.WithSeed(1), fallback.WithLabeler(fallback.StaticLabel("__label__en"))),
	}
	return NewConfig(append(base, opts...)...)
}

func TestLoadExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.bin")
	writeFile(t, path, "model")

	h := Load(context.Background(), testConfig(t, WithModelPath(path)))
	assert.Equal(t, core.ScoreSourceModel, h.Source())
	assert.Equal(t, path, h.Path())
	assert.False(t, h.IsFallback())

	results := h.Predict([]string{"text"}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, 0.8, results[0].Predictions[0].Probability)
}

func TestLoadMissingExplicitPathUsesDefault(t *testing.T) {
	cfg := testConfig(t, WithModelPath(filepath.Join(t.TempDir(), "nope.bin")))
	writeFile(t, cfg.DefaultPath(), "model")

	h := Load(context.Background(), cfg)
	assert.Equal(t, core.ScoreSourceModel, h.Source())
	assert.Equal(t, cfg.DefaultPath(), h.Path())
}

func TestLoadMissingModelFallsBack(t *testing.T) {
	h := Load(context.Background(), testConfig(t))
	assert.True(t, h.IsFallback())
	assert.Empty(t, h.Path())

	results := h.Predict([]string{"a", "b"}, 2)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, core.ScoreSourceFallback, r.Source)
		assert.Len(t, r.Predictions, 2)
	}
}

func TestLoadCorruptModelFallsBack(t *testing.T) {
	cfg := testConfig(t, WithOpener(OpenFastText))
	writeFile(t, cfg.DefaultPath(), "definitely not a fastText model")

	h := Load(context.Background(), cfg)
	assert.True(t, h.IsFallback())
}

func TestLoadWithoutPredictFallsBack(t *testing.T) {
	cfg := testConfig(t, WithOpener(func(string) (any, error) {
		return struct{ Name string }{"no predict"}, nil
	}))
	writeFile(t, cfg.DefaultPath(), "model")

	h := Load(context.Background(), cfg)
	assert.True(t, h.IsFallback())

	_, err := open(cfg, cfg.DefaultPath())
	assert.True(t, errors.Is(err, ErrNotClassifier))
}

func TestLoadOpenerErrorFallsBack(t *testing.T) {
	cfg := testConfig(t, WithOpener(func(string) (any, error) {
		return nil, errors.New("boom")
	}))
	writeFile(t, cfg.DefaultPath(), "model")

	assert.True(t, Load(context.Background(), cfg).IsFallback())
}

func TestLoadInvalidConfigFallsBack(t *testing.T) {
	cfg := testConfig(t, WithRetry(0, 0))
	assert.True(t, Load(context.Background(), cfg).IsFallback())
}

func TestLoadInvalidFallbackRangeUsesDefaults(t *testing.T) {
	cfg := testConfig(t, WithFallback(fallback.WithRange(0.9, 0.1)))
	h := Load(context.Background(), cfg)
	require.True(t, h.IsFallback())

	fb, ok := h.Classifier().(*fallback.Classifier)
	require.True(t, ok)
	lo, hi := fb.Range()
	assert.Equal(t, fallback.DefaultMin, lo)
	assert.Equal(t, fallback.DefaultMax, hi)
}

func TestLoadDownloadsModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("model bytes"))
	}))
	defer srv.Close()

	cfg := testConfig(t, WithAutoDownload(true), WithDownloadURL(srv.URL))
	h := Load(context.Background(), cfg)
	require.Equal(t, core.ScoreSourceModel, h.Source())
	assert.Equal(t, cfg.DefaultPath(), h.Path())

	data, err := os.ReadFile(cfg.DefaultPath())
	require.NoError(t, err)
	assert.Equal(t, "model bytes", string(data))

	parts, err := filepath.Glob(filepath.Join(cfg.ModelDir, "*.part"))
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestLoadDownloadFailureFallsBack(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(t, WithAutoDownload(true), WithDownloadURL(srv.URL), WithRetry(3, time.Millisecond))
	h := Load(context.Background(), cfg)
	assert.True(t, h.IsFallback())
	assert.Equal(t, int32(3), hits.Load())

	_, err := os.Stat(cfg.DefaultPath())
	assert.True(t, os.IsNotExist(err))
}

func TestLoadRejectsDownloadedNonModel(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("<html>rate limited</html>"))
	}))
	defer srv.Close()

	cfg := testConfig(t, WithAutoDownload(true), WithDownloadURL(srv.URL),
		WithRetry(1, time.Millisecond), WithVerifier(VerifyFastText))

	assert.True(t, Load(context.Background(), cfg).IsFallback())
	_, err := os.Stat(cfg.DefaultPath())
	assert.True(t, os.IsNotExist(err))

	// nothing was cached, so the next load tries again
	assert.True(t, Load(context.Background(), cfg).IsFallback())
	assert.Equal(t, int32(2), hits.Load())
}

func TestLoadSurvivesPanickingOpener(t *testing.T) {
	cfg := testConfig(t, WithOpener(func(string) (any, error) {
		panic("corrupt")
	}))
	writeFile(t, cfg.DefaultPath(), "model")

	var h *Handle
	require.NotPanics(t, func() { h = Load(context.Background(), cfg) })
	assert.True(t, h.IsFallback())
}

func TestOnceSharesHandle(t *testing.T) {
	var calls atomic.Int32
	cfg := testConfig(t, WithOpener(stubOpener(&calls)))
	writeFile(t, cfg.DefaultPath(), "model")

	once := NewOnce(cfg)
	handles := make([]*Handle, 16)
	var wg sync.WaitGroup
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = once.Get(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
}

func TestNewHandle(t *testing.T) {
	c := mock.NewMockClassifier(0.5)
	h := NewHandle(c, core.ScoreSourceModel)
	assert.Same(t, c, h.Classifier())
	assert.False(t, h.IsFallback())
}
