// Package fetch provides dataset sources for the pipeline: an HTTP source
// for the hosted water-year file and a file source for local development.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// HTTPSource fetches the dataset payload from a URL.
// It implements pipeline.Source.
type HTTPSource struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPSource creates an HTTP dataset source with a request timeout.
func NewHTTPSource(url string, timeout time.Duration, logger *slog.Logger) *HTTPSource {
	return &HTTPSource{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch downloads the dataset. Non-200 responses are errors; body contents
// are included for diagnosis since the file is expected to be small.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: status %d: %s", s.url, resp.StatusCode, body)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	s.logger.Debug("dataset fetched", "url", s.url, "bytes", len(payload), "duration", time.Since(start))
	return payload, nil
}

// FileSource reads the dataset payload from a local file.
// It implements pipeline.Source.
type FileSource struct {
	path string
}

// NewFileSource creates a local-file dataset source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch reads the file. The context is unused; local reads are fast enough
// that cancellation is not worth plumbing through.
func (s *FileSource) Fetch(_ context.Context) ([]byte, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return payload, nil
}
