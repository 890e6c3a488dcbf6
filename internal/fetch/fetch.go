// Package fetch retrieves specification documents and source files.
//
// It is the thin transport collaborator behind the engine: local paths,
// file:// URLs and http(s):// URLs. No retry or backoff is applied; a
// failed fetch is reported to the caller, which decides how to degrade.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"
)

// DefaultTimeout bounds a single HTTP request.
const DefaultTimeout = 30 * time.Second

// DefaultMaxBodySize caps how much of a response body is read into memory.
const DefaultMaxBodySize = 256 << 20

// Fetcher retrieves the raw bytes behind a URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, uri string) ([]byte, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return f(ctx, uri)
}

// ErrBodyTooLarge is returned when an HTTP body exceeds the fetcher's limit.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError reports a non-200 HTTP response.
type StatusError struct {
	URI    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP status %d", e.URI, e.Status)
}

// DefaultFetcher reads local files and http(s) URLs.
type DefaultFetcher struct {
	Client *http.Client

	// MaxBodySize rejects larger HTTP bodies. Zero means DefaultMaxBodySize.
	MaxBodySize int64
}

// NewDefaultFetcher creates a DefaultFetcher with a bounded HTTP client.
func NewDefaultFetcher() *DefaultFetcher {
	return &DefaultFetcher{
		Client:      &http.Client{Timeout: DefaultTimeout},
		MaxBodySize: DefaultMaxBodySize,
	}
}

// Fetch implements Fetcher.
func (f *DefaultFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if IsRemote(uri) {
		return f.fetchHTTP(ctx, uri)
	}
	path, err := LocalPath(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", uri, err)
	}
	return data, nil
}

func (f *DefaultFetcher) fetchHTTP(ctx context.Context, uri string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: create request: %w", uri, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URI: uri, Status: resp.StatusCode}
	}

	limit := f.MaxBodySize
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", uri, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("fetch %s: %w (limit %d bytes)", uri, ErrBodyTooLarge, limit)
	}
	return data, nil
}

// IsURL reports whether uri carries an http, https or file scheme.
func IsURL(uri string) bool {
	return IsRemote(uri) || strings.HasPrefix(strings.ToLower(uri), "file://")
}

// IsRemote reports whether uri names an http(s) resource.
func IsRemote(uri string) bool {
	lower := strings.ToLower(uri)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// LocalPath converts a plain path or file:// URL to a filesystem path.
func LocalPath(uri string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(uri), "file://") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", uri, err)
	}
	return u.Path, nil
}

var directoryPattern = regexp.MustCompile(`^(.*)[/\\]`)

// ResolveDirectory returns everything in specURL up to and including its
// last path separator, normalized to end in "/". A bare filename has no
// directory and resolves to "".
func ResolveDirectory(specURL string) string {
	m := directoryPattern.FindStringSubmatch(specURL)
	if m == nil {
		return ""
	}
	return m[1] + "/"
}
