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

package sieve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/sieve/classify"
	"github.com/poiesic/sieve/classify/fallback"
	"github.com/poiesic/sieve/classify/loader"
	"github.com/poiesic/sieve/config"
	"github.com/poiesic/sieve/core"
	"github.com/poiesic/sieve/curation"
	"github.com/poiesic/sieve/quality"
	"github.com/poiesic/sieve/rerank"
	"github.com/poiesic/sieve/rerank/openai"
)

// Sieve owns the classifier, quality filter, reranker and curation pipeline
// built from one Config.
type Sieve struct {
	cfg        *config.Config
	classifier classify.Classifier
	handle     *loader.Handle
	filter     *quality.Filter
	reranker   rerank.Reranker
	pipeline   *curation.Pipeline
	logger     *slog.Logger
}

// Option configures a Sieve.
type Option func(*options)

type options struct {
	classifier    classify.Classifier
	reranker      rerank.Reranker
	monitor       curation.Monitor
	loaderOptions []loader.ConfigOption
	logger        *slog.Logger
}

// WithClassifier uses c instead of loading a model.
func WithClassifier(c classify.Classifier) Option {
	return func(o *options) {
		o.classifier = c
	}
}

// WithReranker uses r instead of the backend named in the config.
func WithReranker(r rerank.Reranker) Option {
	return func(o *options) {
		o.reranker = r
	}
}

// WithMonitor attaches a curation monitor.
func WithMonitor(m curation.Monitor) Option {
	return func(o *options) {
		o.monitor = m
	}
}

// WithLoaderOptions adds options applied after the config-derived loader settings.
func WithLoaderOptions(opts ...loader.ConfigOption) Option {
	return func(o *options) {
		o.loaderOptions = append(o.loaderOptions, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Sieve, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	// reranker first: a missing API key must fail before any model download
	reranker := options.reranker
	if reranker == nil {
		var err error
		reranker, err = NewReranker(cfg)
		if err != nil {
			return nil, err
		}
	}

	classifier := options.classifier
	var handle *loader.Handle
	if classifier == nil {
		handle = loader.Load(ctx, LoaderConfig(cfg, options.loaderOptions...))
		classifier = handle
	}

	filter, err := quality.NewFilter(classifier,
		quality.WithThreshold(cfg.Quality.Threshold),
		quality.WithLogger(options.logger))
	if err != nil {
		return nil, err
	}

	pipelineOpts := []curation.Option{
		curation.WithPoolSize(cfg.Pipeline.PoolSize),
		curation.WithLogger(options.logger),
	}
	if options.monitor != nil {
		pipelineOpts = append(pipelineOpts, curation.WithMonitor(options.monitor))
	}
	pipeline, err := curation.NewPipeline(filter, reranker, pipelineOpts...)
	if err != nil {
		return nil, err
	}

	return &Sieve{
		cfg:        cfg,
		classifier: classifier,
		handle:     handle,
		filter:     filter,
		reranker:   reranker,
		pipeline:   pipeline,
		logger:     options.logger,
	}, nil
}

// LoaderConfig translates the model settings of cfg into a loader.Config.
func LoaderConfig(cfg *config.Config, extra ...loader.ConfigOption) *loader.Config {
	opts := []loader.ConfigOption{
		loader.WithModelPath(cfg.Model.Path),
		loader.WithModelDir(cfg.Model.Dir),
		loader.WithAutoDownload(cfg.Model.AutoDownload),
	}
	fbOpts := []fallback.Option{fallback.WithRange(cfg.Model.FallbackMin, cfg.Model.FallbackMax)}
	if cfg.Model.FallbackLabel != "" {
		fbOpts = append(fbOpts, fallback.WithLabeler(fallback.StaticLabel(cfg.Model.FallbackLabel)))
	}
	opts = append(opts, loader.WithFallback(fbOpts...))
	return loader.NewConfig(append(opts, extra...)...)
}

// NewReranker builds the reranker selected by cfg.Rerank.Backend.
func NewReranker(cfg *config.Config) (rerank.Reranker, error) {
	switch cfg.Rerank.Backend {
	case config.BackendJina, "":
		opts := []rerank.ConfigOption{rerank.WithTimeout(cfg.Rerank.Timeout)}
		if cfg.Rerank.APIKey != "" {
			opts = append(opts, rerank.WithAPIKey(cfg.Rerank.APIKey))
		}
		if cfg.Rerank.Model != "" {
			opts = append(opts, rerank.WithRerankModel(cfg.Rerank.Model))
		}
		jina, err := rerank.NewJina(rerank.NewConfig(opts...))
		if err != nil {
			return nil, err
		}
		return jina, nil
	case config.BackendEmbedding:
		embedder, err := openai.NewEmbedder(&openai.Config{
			Host:  cfg.Rerank.EmbeddingHost,
			Model: cfg.Rerank.EmbeddingModel,
		})
		if err != nil {
			return nil, fmt.Errorf("creating embedder: %w", err)
		}
		reranker, err := rerank.NewEmbeddingReranker(embedder, rerank.WithEmbeddingTimeout(cfg.Rerank.Timeout))
		if err != nil {
			return nil, err
		}
		return reranker, nil
	default:
		return nil, fmt.Errorf("unknown reranker backend %q", cfg.Rerank.Backend)
	}
}

// Curate runs the pipeline with the configured threshold and result cap.
func (s *Sieve) Curate(ctx context.Context, query string, documents []*core.Document) []*core.Document {
	results, _ := s.CurateWithStats(ctx, query, documents)
	return results
}

func (s *Sieve) CurateWithStats(ctx context.Context, query string, documents []*core.Document) ([]*core.Document, curation.Stats) {
	return s.pipeline.CurateWithStats(ctx, query, documents, s.cfg.Quality.Threshold, s.cfg.Pipeline.MaxResults)
}

func (s *Sieve) Config() *config.Config {
	return s.cfg
}

func (s *Sieve) Filter() *quality.Filter {
	return s.filter
}

func (s *Sieve) Pipeline() *curation.Pipeline {
	return s.pipeline
}

func (s *Sieve) Reranker() rerank.Reranker {
	return s.reranker
}

// ScoreSource reports whether scores come from a loaded model or the fallback.
// An injected classifier counts as a model.
func (s *Sieve) ScoreSource() core.ScoreSource {
	if s.handle != nil && s.handle.IsFallback() {
		return core.ScoreSourceFallback
	}
	return core.ScoreSourceModel
}

// ModelPath is the model file in use, or empty when scoring falls back or the
// classifier was injected.
func (s *Sieve) ModelPath() string {
	if s.handle == nil {
		return ""
	}
	return s.handle.Path()
}

// ErrClosed is returned by Close on a Sieve that was already closed.
var ErrClosed = errors.New("sieve already closed")

func (s *Sieve) Close() error {
	if s.pipeline == nil {
		return ErrClosed
	}
	s.pipeline.Release()
	s.pipeline = nil
	s.logger.Debug("sieve closed")
	return nil
}
