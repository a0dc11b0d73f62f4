package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestFetch_LocalPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("hello\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	f := NewFetcher(t.TempDir())
	got, err := f.Fetch(context.Background(), path)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != path {
		t.Errorf("Fetch = %q, want local path unchanged", got)
	}
}

func TestFetch_MissingLocalFile(t *testing.T) {
	t.Parallel()

	f := NewFetcher(t.TempDir())
	if _, err := f.Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.log")); err == nil {
		t.Error("expected error for missing input file")
	}
}

func TestFetch_EmptySource(t *testing.T) {
	t.Parallel()

	f := NewFetcher(t.TempDir())
	if _, err := f.Fetch(context.Background(), ""); err == nil {
		t.Error("expected error for empty source")
	}
}

func TestFetch_DownloadAndCache(t *testing.T) {
	t.Parallel()

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("line one\nline two\n"))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	url := srv.URL + "/logs/app.log"

	first, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read cached file: %v", err)
	}
	if string(data) != "line one\nline two\n" {
		t.Errorf("cached content = %q", data)
	}
	if !strings.HasSuffix(first, "-app.log") {
		t.Errorf("cache file %q does not carry the derived filename", first)
	}

	// A second fetch of the same URL must reuse the cached copy.
	second, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if second != first {
		t.Errorf("second Fetch = %q, want cached path %q", second, first)
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1", hits)
	}
}

func TestFetch_DownloadErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	if _, err := f.Fetch(context.Background(), srv.URL+"/missing.log"); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestFetch_DistinctURLsDistinctCacheKeys(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	a, err := f.Fetch(context.Background(), srv.URL+"/a/app.log")
	if err != nil {
		t.Fatalf("Fetch a: %v", err)
	}
	b, err := f.Fetch(context.Background(), srv.URL+"/b/app.log")
	if err != nil {
		t.Fatalf("Fetch b: %v", err)
	}
	if a == b {
		t.Errorf("same cache path %q for different URLs", a)
	}
}

func TestReadLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.log")
	content := "first line\nsecond line  \n\n\tthird\t\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	want := []string{"first line", "second line", "\tthird"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadLines = %q, want %q", got, want)
	}
}

func TestReadLines_Missing(t *testing.T) {
	t.Parallel()

	if _, err := ReadLines(filepath.Join(t.TempDir(), "nope.log")); err == nil {
		t.Error("expected error for missing file")
	}
}
