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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/sieve"
	"github.com/poiesic/sieve/classify/loader"
	"github.com/poiesic/sieve/config"
	"github.com/poiesic/sieve/mcptool"
	"github.com/poiesic/sieve/quality"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "sieve",
		Usage:   "Filter and rerank scraped search results",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"SIEVE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "Path to a fastText model file",
			},
			&cli.StringFlag{
				Name:  "model-dir",
				Usage: "Directory holding the default model",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "curate",
				Usage:  "Curate a JSON array of documents read from a file or stdin",
				Action: curateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Search query the documents are ranked against",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "JSON file of documents, - for stdin",
						Value:   "-",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum paragraph quality score (overrides config)",
					},
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Maximum number of documents returned (overrides config)",
					},
					&cli.StringFlag{
						Name:  "reranker",
						Usage: "Reranker backend, jina or embedding (overrides config)",
					},
				},
			},
			{
				Name:   "score",
				Usage:  "Print the quality score of every paragraph of a text",
				Action: scoreCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Text file to score, - for stdin",
						Value:   "-",
					},
				},
			},
			{
				Name:   "download-model",
				Usage:  "Download the classifier model into the model directory",
				Action: downloadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Model download URL",
						Value: loader.DefaultModelURL,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum download attempts",
						Value: 3,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the curate_documents MCP tool over stdio",
				Action: serveCommand,
			},
		},
	}
}

// loadConfig reads the configuration and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("model") {
		cfg.Model.Path = c.String("model")
	}
	if c.IsSet("model-dir") {
		cfg.Model.Dir = c.String("model-dir")
	}
	return cfg, nil
}

func curateCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("threshold") {
		cfg.Quality.Threshold = c.Float64("threshold")
	}
	if c.IsSet("max-results") {
		cfg.Pipeline.MaxResults = c.Int("max-results")
	}
	if c.IsSet("reranker") {
		cfg.Rerank.Backend = strings.ToLower(c.String("reranker"))
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := readInput(c, c.String("input"))
	if err != nil {
		return err
	}
	var docs []mcptool.InputDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("decoding documents: %w", err)
	}

	s, err := sieve.New(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize sieve: %w", err)
	}
	defer s.Close()

	tool, err := mcptool.New(s.Pipeline(),
		mcptool.WithThreshold(cfg.Quality.Threshold),
		mcptool.WithMaxResults(cfg.Pipeline.MaxResults))
	if err != nil {
		return err
	}

	_, out, err := tool.CurateDocuments(c.Context, nil, mcptool.InputCurateDocuments{
		Query:     c.String("query"),
		Documents: docs,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func scoreCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	data, err := readInput(c, c.String("input"))
	if err != nil {
		return err
	}

	handle := loader.Load(c.Context, sieve.LoaderConfig(cfg))
	filter, err := quality.NewFilter(handle, quality.WithThreshold(cfg.Quality.Threshold))
	if err != nil {
		return err
	}

	for _, seg := range filter.Score(c.Context, string(data)) {
		mark := "-"
		if seg.QualityScore >= filter.Threshold() {
			mark = "+"
		}
		fmt.Fprintf(c.App.Writer, "%s %.4f %s\t%s\n", mark, seg.QualityScore, seg.ScoreSource, seg.Text)
	}
	return nil
}

func downloadCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.Int("max-retries") <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	lc := sieve.LoaderConfig(cfg,
		loader.WithAutoDownload(true),
		loader.WithDownloadURL(c.String("url")),
		loader.WithRetry(c.Int("max-retries"), loader.DefaultConfig().RetryDelay),
		loader.WithProgress(c.App.ErrWriter),
	)
	if err := lc.Validate(); err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Model URL: %s\n", lc.DownloadURL)
	fmt.Fprintf(c.App.ErrWriter, "Model dir: %s\n", lc.ModelDir)

	path, err := loader.Download(c.Context, lc)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	fmt.Fprintln(c.App.Writer, path)
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	s, err := sieve.New(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize sieve: %w", err)
	}
	defer s.Close()

	tool, err := mcptool.New(s.Pipeline(),
		mcptool.WithThreshold(cfg.Quality.Threshold),
		mcptool.WithMaxResults(cfg.Pipeline.MaxResults))
	if err != nil {
		return err
	}

	slog.Info("serving MCP over stdio",
		"score_source", s.ScoreSource(), "model_path", s.ModelPath(), "reranker", cfg.Rerank.Backend)
	return mcptool.ServeStdio(c.Context, mcptool.NewServer(tool, version))
}

func readInput(c *cli.Context, path string) ([]byte, error) {
	if path == "" || path == "-" {
		reader := c.App.Reader
		if reader == nil {
			reader = os.Stdin
		}
		return io.ReadAll(reader)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Logs always go to stderr; stdout carries command output and MCP traffic.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
