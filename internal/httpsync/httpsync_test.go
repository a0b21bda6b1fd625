package httpsync

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quran-assets/assetsync/internal/catalog"
	"github.com/quran-assets/assetsync/internal/config"
	"github.com/quran-assets/assetsync/internal/logging"
)

func asset(url, local string) catalog.Asset {
	return catalog.Asset{SourceURL: url, LocalPath: local, Category: config.CategoryAudio, Index: 1}
}

func TestFetchStoresNewAsset(t *testing.T) {
	contents := []byte("ID3 recitation")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(contents)
	}))
	defer ts.Close()

	root := t.TempDir()
	s := New(root, time.Second)

	result := s.Fetch(context.Background(), asset(ts.URL+"/001.mp3", "audio/hazza/001.mp3"))
	if result.Err != nil {
		t.Fatalf("expected no error, got %v", result.Err)
	}
	if !result.Changed || result.Bytes != len(contents) {
		t.Fatalf("expected changed with %d bytes, got %+v", len(contents), result)
	}

	data, err := os.ReadFile(filepath.Join(root, "audio", "hazza", "001.mp3"))
	if err != nil {
		t.Fatalf("expected no error while reading file, got: %v", err)
	}
	if !bytes.Equal(data, contents) {
		t.Fatal("downloaded data does not match expected contents")
	}
}

func TestFetchUnchanged(t *testing.T) {
	contents := []byte("<svg/>")
	var requests int

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write(contents)
	}))
	defer ts.Close()

	root := t.TempDir()
	s := New(root, time.Second)
	a := asset(ts.URL+"/001.svg", "images/001.svg")

	if result := s.Fetch(context.Background(), a); !result.Changed {
		t.Fatalf("expected first fetch to change, got %+v", result)
	}

	path := filepath.Join(root, "images", "001.svg")
	before, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	result := s.Fetch(context.Background(), a)
	if result.Err != nil || result.Changed || result.Bytes != 0 {
		t.Fatalf("expected unchanged, got %+v", result)
	}

	after, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !os.SameFile(before, after) {
		t.Fatal("expected file to be left in place")
	}
	if requests != 2 {
		t.Fatalf("expected 2 requests, got %d", requests)
	}
}

func TestFetchForceRewrites(t *testing.T) {
	contents := []byte("<svg/>")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(contents)
	}))
	defer ts.Close()

	root := t.TempDir()
	path := filepath.Join(root, "quran-pages", "page-001.svg")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(root, time.Second).WithForce(true)
	result := s.Fetch(context.Background(), asset(ts.URL, "quran-pages/page-001.svg"))
	if result.Err != nil || !result.Changed || result.Bytes != len(contents) {
		t.Fatalf("expected forced rewrite, got %+v", result)
	}
}

func TestFetchBadStatusCodeLeavesFile(t *testing.T) {
	currentContents := "previous"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not found"))
	}))
	defer ts.Close()

	root := t.TempDir()
	file := filepath.Join(root, "foo", "001.mp3")
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		t.Fatalf("failed to create base dir: %s", err.Error())
	}
	if err := os.WriteFile(file, []byte(currentContents), 0o666); err != nil {
		t.Fatalf("failed to write current contents: %s", err.Error())
	}

	result := New(root, time.Second).Fetch(context.Background(), asset(ts.URL, "foo/001.mp3"))
	if result.Err == nil {
		t.Fatalf("expected error, got nil")
	}
	var statusErr *StatusError
	if !errors.As(result.Err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status error 404, got %v", result.Err)
	}
	expectedError := "unsuccessful status code 404"
	if result.Err.Error() != expectedError {
		t.Fatalf("expected error %q, got %q", expectedError, result.Err.Error())
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("expected no error while reading file, got: %v", err)
	}
	if string(data) != currentContents {
		t.Fatal("existing file must be left untouched after an error")
	}
}

func TestFetchEmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	root := t.TempDir()
	result := New(root, time.Second).Fetch(context.Background(), asset(ts.URL, "a/001.mp3"))
	if !errors.Is(result.Err, ErrEmptyBody) {
		t.Fatalf("expected empty body error, got %v", result.Err)
	}
	if _, err := os.Stat(filepath.Join(root, "a", "001.mp3")); !os.IsNotExist(err) {
		t.Fatalf("expected no file to be written, got %v", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	done := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(done)

	result := New(t.TempDir(), 50*time.Millisecond).Fetch(context.Background(), asset(ts.URL, "a/001.mp3"))
	if !errors.Is(result.Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", result.Err)
	}
}

func TestFetchTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	result := New(t.TempDir(), time.Second).Fetch(context.Background(), asset(url, "a/001.mp3"))
	if result.Err == nil || result.Changed {
		t.Fatalf("expected transport failure, got %+v", result)
	}
}

func TestLoggingTransport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Reader", "hazza")
		_, _ = w.Write([]byte("payload"))
	}))
	defer ts.Close()

	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{Level: logging.Debug, Format: logging.FormatJSON, Output: &buf})

	result := New(t.TempDir(), time.Second).WithLogger(logger).Fetch(context.Background(), asset(ts.URL+"/001.mp3", "a/001.mp3"))
	if result.Err != nil {
		t.Fatal(result.Err)
	}

	out := buf.String()
	if !strings.Contains(out, "GET /001.mp3") || !strings.Contains(out, "X-Reader: hazza") {
		t.Fatalf("expected request and response dump in debug log, got:\n%s", out)
	}
	if strings.Contains(out, "payload") {
		t.Fatal("expected body to be omitted from dump")
	}
}
