package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Download fetches the default model artifact into cfg.ModelDir unless it is
// already present, and returns its path. The body is streamed into a temporary
// file that is renamed into place only after a complete transfer.
func Download(ctx context.Context, cfg *Config) (string, error) {
	logger := cfg.logger()
	dest := cfg.DefaultPath()

	if _, err := os.Stat(dest); err == nil {
		logger.Info("model already present, skipping download", "path", dest)
		return dest, nil
	}

	if err := os.MkdirAll(cfg.ModelDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	logger.Info("downloading classifier model", "url", cfg.DownloadURL, "path", dest)
	err := RetryWithBackoff(ctx, func() error {
		return fetch(ctx, cfg, dest)
	}, cfg.DownloadAttempts, cfg.RetryDelay)
	if err != nil {
		if errors.Is(err, ErrDownloadFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	logger.Info("model downloaded", "path", dest)
	return dest, nil
}

func fetch(ctx context.Context, cfg *Config, dest string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.DownloadURL, nil)
	if err != nil {
		return err
	}

	resp, err := cfg.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %s", ErrDownloadFailed, cfg.DownloadURL, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	progress := NewProgressTracker(cfg.Progress, resp.ContentLength, 4*mib)
	progress.Start()
	n, err := io.Copy(tmp, io.TeeReader(resp.Body, progress))
	progress.Finish()
	if err != nil {
		return err
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return fmt.Errorf("%w: short body, got %d of %d bytes", ErrDownloadFailed, n, resp.ContentLength)
	}

	if err = tmp.Close(); err != nil {
		return err
	}
	if cfg.Verify != nil {
		if err = cfg.Verify(tmp.Name()); err != nil {
			return fmt.Errorf("%w: %s is not a usable model: %w", ErrDownloadFailed, cfg.DownloadURL, err)
		}
	}
	return os.Rename(tmp.Name(), dest)
}
