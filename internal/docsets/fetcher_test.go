package docsets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFetch_Local(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searchindex.js")
	content := []byte(`Search.setIndex({"docnames":["index"]})`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write artifact: %v", err)
	}

	f := NewFetcher(10*time.Second, 1<<20)
	result, err := f.Fetch(context.Background(), path, "", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if string(result.Data) != string(content) {
		t.Errorf("Unexpected data: %s", result.Data)
	}
	if result.Checksum == "" {
		t.Error("Expected non-empty checksum")
	}
	if result.LastModified == "" {
		t.Error("Expected non-empty last modified time for local file")
	}
	if result.NotModified {
		t.Error("Local fetch should never report not modified")
	}
}

func TestFetch_Local_Missing(t *testing.T) {
	f := NewFetcher(10*time.Second, 1<<20)
	_, err := f.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.js"), "", "")
	if err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestFetch_Local_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searchindex.js")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 100)), 0644); err != nil {
		t.Fatalf("Failed to write artifact: %v", err)
	}

	f := NewFetcher(10*time.Second, 10)
	_, err := f.Fetch(context.Background(), path, "", "")
	if !errors.Is(err, ErrArtifactTooLarge) {
		t.Errorf("Expected ErrArtifactTooLarge, got: %v", err)
	}
}

func TestFetch_Remote(t *testing.T) {
	content := `Search.setIndex({"docnames":["index"]})`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		_, _ = w.Write([]byte(content))
	}))
	defer srv.Close()

	f := NewFetcher(10*time.Second, 1<<20)
	result, err := f.Fetch(context.Background(), srv.URL+"/searchindex.js", "", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if string(result.Data) != content {
		t.Errorf("Unexpected data: %s", result.Data)
	}
	if result.ETag != `"v1"` {
		t.Errorf("Expected ETag to be captured, got %q", result.ETag)
	}
	if result.LastModified != "Mon, 02 Jan 2006 15:04:05 GMT" {
		t.Errorf("Expected Last-Modified to be captured, got %q", result.LastModified)
	}
}

func TestFetch_Remote_NotModified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f := NewFetcher(10*time.Second, 1<<20)
	result, err := f.Fetch(context.Background(), srv.URL, `"v1"`, "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !result.NotModified {
		t.Error("Expected NotModified for matching ETag")
	}
	if len(result.Data) != 0 {
		t.Errorf("Expected empty data for 304, got %d bytes", len(result.Data))
	}
	if result.ETag != `"v1"` {
		t.Errorf("Expected validators to carry over, got ETag %q", result.ETag)
	}
}

func TestFetch_Remote_ConditionalHeadersSent(t *testing.T) {
	var gotETag, gotModified string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotETag = r.Header.Get("If-None-Match")
		gotModified = r.Header.Get("If-Modified-Since")
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f := NewFetcher(10*time.Second, 1<<20)
	_, err := f.Fetch(context.Background(), srv.URL, `"v2"`, "Mon, 02 Jan 2006 15:04:05 GMT")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if gotETag != `"v2"` {
		t.Errorf("Expected If-None-Match header, got %q", gotETag)
	}
	if gotModified != "Mon, 02 Jan 2006 15:04:05 GMT" {
		t.Errorf("Expected If-Modified-Since header, got %q", gotModified)
	}
}

func TestFetch_Remote_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(10*time.Second, 1<<20)
	_, err := f.Fetch(context.Background(), srv.URL, "", "")
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Expected ErrFetchFailed, got: %v", err)
	}
}

func TestFetch_Remote_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewFetcher(10*time.Second, 1<<20)
	_, err := f.Fetch(context.Background(), srv.URL+"/searchindex.js", "", "")
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Expected ErrFetchFailed, got: %v", err)
	}
}

func TestFetch_Remote_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer srv.Close()

	f := NewFetcher(10*time.Second, 100)
	_, err := f.Fetch(context.Background(), srv.URL, "", "")
	if !errors.Is(err, ErrArtifactTooLarge) {
		t.Errorf("Expected ErrArtifactTooLarge, got: %v", err)
	}
}

func TestFetch_ChecksumStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searchindex.js")
	if err := os.WriteFile(path, []byte("same content"), 0644); err != nil {
		t.Fatalf("Failed to write artifact: %v", err)
	}

	f := NewFetcher(10*time.Second, 1<<20)
	first, err := f.Fetch(context.Background(), path, "", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := f.Fetch(context.Background(), path, "", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if first.Checksum != second.Checksum {
		t.Errorf("Checksums differ for identical content: %q vs %q", first.Checksum, second.Checksum)
	}
}
