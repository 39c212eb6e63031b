package docsets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

var (
	// ErrArtifactTooLarge indicates the artifact exceeded the fetch size cap.
	ErrArtifactTooLarge = errors.New("search-index artifact exceeds size limit")

	// ErrFetchFailed indicates the remote returned a non-success status.
	ErrFetchFailed = errors.New("artifact fetch failed")
)

// FetchResult carries one fetched artifact together with its revalidation
// metadata.
type FetchResult struct {
	// Data is the raw artifact. Empty when NotModified is true.
	Data []byte

	// NotModified reports that the source content is unchanged since the
	// conditional headers passed in the request.
	NotModified bool

	// ETag and LastModified are the validators to persist for the next fetch.
	ETag         string
	LastModified string

	// Checksum is the hex SHA-256 of Data.
	Checksum string
}

// Fetcher retrieves search-index artifacts from HTTP(S) URLs or local paths.
type Fetcher struct {
	client  *http.Client
	maxSize int64
}

// NewFetcher creates a fetcher with the given per-request timeout and
// artifact size cap.
func NewFetcher(timeout time.Duration, maxSize int64) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		maxSize: maxSize,
	}
}

// Fetch retrieves the artifact behind a source spec. For remote sources the
// previous ETag/Last-Modified validators are sent so an unchanged artifact
// costs only a 304. Local sources are always read in full.
func (f *Fetcher) Fetch(ctx context.Context, source, etag, lastModified string) (*FetchResult, error) {
	if IsRemoteSource(source) {
		return f.fetchRemote(ctx, source, etag, lastModified)
	}
	return f.fetchLocal(source)
}

func (f *Fetcher) fetchRemote(ctx context.Context, url, etag, lastModified string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return &FetchResult{NotModified: true, ETag: etag, LastModified: lastModified}, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetchFailed, url, resp.Status)
	}

	data, err := f.readCapped(resp.Body)
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		Data:         data,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		Checksum:     checksum(data),
	}, nil
}

func (f *Fetcher) fetchLocal(path string) (*FetchResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat artifact: %w", err)
	}
	if info.Size() > f.maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrArtifactTooLarge, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	return &FetchResult{
		Data:         data,
		LastModified: info.ModTime().UTC().Format(http.TimeFormat),
		Checksum:     checksum(data),
	}, nil
}

// readCapped reads the body up to the size cap, erroring if it is exceeded.
func (f *Fetcher) readCapped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrArtifactTooLarge, f.maxSize)
	}
	return data, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
