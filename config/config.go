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


// Package config loads application settings from an optional YAML file, a
// .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Reranker backends.
const (
	BackendJina      = "jina"
	BackendEmbedding = "embedding"
)

type ModelConfig struct {
	Path          string  `yaml:"path"`
	Dir           string  `yaml:"dir"`
	AutoDownload  bool    `yaml:"auto_download"`
	FallbackMin   float64 `yaml:"fallback_min"`
	FallbackMax   float64 `yaml:"fallback_max"`
	// FallbackLabel pins the label of fallback predictions; empty means
	// detect the language of each text.
	FallbackLabel string `yaml:"fallback_label"`
}

type QualityConfig struct {
	Threshold float64 `yaml:"threshold"`
}

type RerankConfig struct {
	Backend        string        `yaml:"backend"`
	APIKey         string        `yaml:"api_key"`
	Model          string        `yaml:"model"`
	Timeout        time.Duration `yaml:"timeout"`
	EmbeddingHost  string        `yaml:"embedding_host"`
	EmbeddingModel string        `yaml:"embedding_model"`
}

type PipelineConfig struct {
	PoolSize   int `yaml:"pool_size"`
	MaxResults int `yaml:"max_results"`
}

type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Quality  QualityConfig  `yaml:"quality"`
	Rerank   RerankConfig   `yaml:"rerank"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Dir:          ".",
			AutoDownload: true,
			FallbackMin:  0.3,
			FallbackMax:  0.9,
		},
		Quality: QualityConfig{Threshold: 0.5},
		Rerank: RerankConfig{
			Backend:        BackendJina,
			Timeout:        30 * time.Second,
			EmbeddingHost:  "http://localhost:11434/v1",
			EmbeddingModel: "embeddinggemma",
		},
		Pipeline: PipelineConfig{
			PoolSize:   max(runtime.NumCPU(), 1),
			MaxResults: 10,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when path
// is empty), a .env file in the working directory, and environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Model.Path = getEnv("SIEVE_MODEL_PATH", c.Model.Path)
	c.Model.Dir = getEnv("SIEVE_MODEL_DIR", c.Model.Dir)
	c.Model.AutoDownload = getEnvBool("SIEVE_AUTO_DOWNLOAD", c.Model.AutoDownload)
	c.Model.FallbackMin = getEnvFloat("SIEVE_FALLBACK_MIN", c.Model.FallbackMin)
	c.Model.FallbackMax = getEnvFloat("SIEVE_FALLBACK_MAX", c.Model.FallbackMax)
	c.Model.FallbackLabel = getEnv("SIEVE_FALLBACK_LABEL", c.Model.FallbackLabel)

	c.Quality.Threshold = getEnvFloat("SIEVE_QUALITY_THRESHOLD", c.Quality.Threshold)

	c.Rerank.Backend = strings.ToLower(getEnv("SIEVE_RERANKER", c.Rerank.Backend))
	c.Rerank.APIKey = getEnv("JINA_API_KEY", c.Rerank.APIKey)
	c.Rerank.Model = getEnv("SIEVE_RERANK_MODEL", c.Rerank.Model)
	c.Rerank.Timeout = getEnvDuration("SIEVE_RERANK_TIMEOUT", c.Rerank.Timeout)
	c.Rerank.EmbeddingHost = getEnv("SIEVE_EMBEDDING_HOST", c.Rerank.EmbeddingHost)
	c.Rerank.EmbeddingModel = getEnv("SIEVE_EMBEDDING_MODEL", c.Rerank.EmbeddingModel)

	c.Pipeline.PoolSize = getEnvInt("SIEVE_POOL_SIZE", c.Pipeline.PoolSize)
	c.Pipeline.MaxResults = getEnvInt("SIEVE_MAX_RESULTS", c.Pipeline.MaxResults)
}

// Validate checks value ranges. A missing API key is not an error here; the
// reranker reports it when it is constructed.
func (c *Config) Validate() error {
	var errs []error
	if c.Quality.Threshold < 0 || c.Quality.Threshold > 1 {
		errs = append(errs, fmt.Errorf("quality threshold %v outside [0,1]", c.Quality.Threshold))
	}
	if c.Model.FallbackMin < 0 || c.Model.FallbackMax > 1 || c.Model.FallbackMin > c.Model.FallbackMax {
		errs = append(errs, fmt.Errorf("fallback range [%v, %v] invalid", c.Model.FallbackMin, c.Model.FallbackMax))
	}
	if c.Model.Dir == "" {
		errs = append(errs, errors.New("model dir is required"))
	}
	switch c.Rerank.Backend {
	case BackendJina, BackendEmbedding:
	default:
		errs = append(errs, fmt.Errorf("unknown reranker %q (want %s or %s)", c.Rerank.Backend, BackendJina, BackendEmbedding))
	}
	if c.Rerank.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("rerank timeout must be positive, got %s", c.Rerank.Timeout))
	}
	if c.Pipeline.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("pool size must be at least 1, got %d", c.Pipeline.PoolSize))
	}
	if c.Pipeline.MaxResults < 1 {
		errs = append(errs, fmt.Errorf("max results must be at least 1, got %d", c.Pipeline.MaxResults))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("45s") or a plain number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}
