// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package loader

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/poiesic/sieve/classify"
	"github.com/poiesic/sieve/classify/fallback"
	"github.com/poiesic/sieve/core"
)

// Handle is the classifier chosen by Load. It never changes after construction.
type Handle struct {
	classifier classify.Classifier
	source     core.ScoreSource
	path       string
}

var _ classify.Classifier = (*Handle)(nil)

// NewHandle wraps an existing classifier, bypassing resolution.
func NewHandle(c classify.Classifier, source core.ScoreSource) *Handle {
	return &Handle{classifier: c, source: source}
}

// Classifier returns the wrapped classifier.
func (h *Handle) Classifier() classify.Classifier {
	return h.classifier
}

// Source reports whether the handle holds the real model or the fallback.
func (h *Handle) Source() core.ScoreSource {
	return h.source
}

// Path is the model file backing the handle, empty for the fallback.
func (h *Handle) Path() string {
	return h.path
}

// IsFallback reports whether predictions are synthesized.
func (h *Handle) IsFallback() bool {
	return h.source == core.ScoreSourceFallback
}

// Predict delegates to the wrapped classifier.
func (h *Handle) Predict(texts []string, k int) []core.ClassificationResult {
	return h.classifier.Predict(texts, k)
}

// Load resolves a classifier according to cfg. It never fails: every problem is
// logged at WARN and results in a fallback-backed Handle.
func Load(ctx context.Context, cfg *Config) *Handle {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.logger()

	if err := cfg.Validate(); err != nil {
		logger.Warn("invalid loader configuration, using fallback classifier", "err", err)
		return newFallbackHandle(cfg)
	}

	path, err := resolve(ctx, cfg)
	if err != nil {
		logger.Warn("classifier model unavailable, using fallback classifier", "err", err)
		return newFallbackHandle(cfg)
	}

	c, err := open(cfg, path)
	if err != nil {
		logger.Warn("failed to load classifier model, using fallback classifier", "path", path, "err", err)
		return newFallbackHandle(cfg)
	}

	attrs := []any{"path", path}
	if d, ok := c.(describer); ok {
		attrs = append(attrs, "labels", len(d.Labels()), "dim", d.Dimension())
	}
	logger.Info("classifier model loaded", attrs...)
	return &Handle{classifier: c, source: core.ScoreSourceModel, path: path}
}

// describer is implemented by fasttext.Model.
type describer interface {
	Labels() []string
	Dimension() int
}

func resolve(ctx context.Context, cfg *Config) (string, error) {
	logger := cfg.logger()

	if cfg.ModelPath != "" {
		if _, err := os.Stat(cfg.ModelPath); err == nil {
			return cfg.ModelPath, nil
		}
		logger.Warn("model path does not exist, trying default model", "path", cfg.ModelPath)
	}

	dest := cfg.DefaultPath()
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	if !cfg.AutoDownload {
		return "", fmt.Errorf("%w: %s", ErrModelNotFound, dest)
	}
	return Download(ctx, cfg)
}

func open(cfg *Config, path string) (c classify.Classifier, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("opener panicked: %v", r)
		}
	}()

	obj, err := cfg.Opener(path)
	if err != nil {
		return nil, err
	}
	c, ok := obj.(classify.Classifier)
	if !ok || c == nil {
		return nil, fmt.Errorf("%w: %T", ErrNotClassifier, obj)
	}
	return c, nil
}

func newFallbackHandle(cfg *Config) *Handle {
	fb, err := fallback.New(cfg.FallbackOptions...)
	if err != nil {
		cfg.logger().Warn("invalid fallback options, using defaults", "err", err)
		fb, _ = fallback.New()
	}
	lo, hi := fb.Range()
	cfg.logger().Info("fallback classifier ready", "min", lo, "max", hi)
	return &Handle{classifier: fb, source: core.ScoreSourceFallback}
}

// Once loads a Handle at most once. Concurrent callers of Get block until the
// first load finishes and then share its result.
type Once struct {
	cfg    *Config
	once   sync.Once
	handle *Handle
}

// NewOnce creates a load barrier for cfg.
func NewOnce(cfg *Config) *Once {
	return &Once{cfg: cfg}
}

// Get returns the shared Handle, loading it on first use.
func (o *Once) Get(ctx context.Context) *Handle {
	o.once.Do(func() {
		o.handle = Load(ctx, o.cfg)
	})
	return o.handle
}
