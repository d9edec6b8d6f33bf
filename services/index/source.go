package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxArtifactSize bounds how much of a remote artifact is read.
const maxArtifactSize = 64 << 20

var ErrFetchFailed = errors.New("failed to fetch search index")

// Source is where the searchindex.js artifact is fetched from.
type Source interface {
	// Key identifies the source in the local artifact cache.
	Key() string
	Fetch(ctx context.Context) ([]byte, error)
}

// NewSource returns an HTTPSource for http(s) URLs and a FileSource for
// anything else.
func NewSource(location string, timeout time.Duration) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("search index source is not configured")
	}

	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTPSource{url: location, client: &http.Client{Timeout: timeout}, maxSize: maxArtifactSize}, nil
	}

	path, err := filepath.Abs(location)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve search index path %s: %w", location, err)
	}
	return &FileSource{path: path}, nil
}

type FileSource struct {
	path string
}

func (f *FileSource) Key() string {
	return f.path
}

func (f *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return raw, nil
}

type HTTPSource struct {
	url     string
	client  *http.Client
	maxSize int64
}

func (h *HTTPSource) Key() string {
	return h.url
}

func (h *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrFetchFailed, h.url, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, h.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if int64(len(raw)) > h.maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFetchFailed, h.url, h.maxSize)
	}
	return raw, nil
}
