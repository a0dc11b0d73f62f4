package source

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755
)

// Fetcher resolves an input source (local path or remote URL) to a local
// file. Remote bodies are downloaded once into the cache directory and reused
// on later runs against the same URL.
type Fetcher struct {
	cacheDir string
	client   *http.Client
}

// NewFetcher returns a fetcher caching downloads under cacheDir.
func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{
		cacheDir: cacheDir,
		client:   http.DefaultClient,
	}
}

// Fetch returns a local path holding the content of src. Local paths are
// returned as-is; http(s) URLs are downloaded into the cache, keyed by a hash
// of the URL plus its derived filename.
func (f *Fetcher) Fetch(ctx context.Context, src string) (string, error) {
	if src == "" {
		return "", fmt.Errorf("source: input source is empty")
	}
	if !isRemote(src) {
		if _, err := os.Stat(src); err != nil {
			return "", fmt.Errorf("source: input file: %w", err)
		}
		return src, nil
	}

	cachePath, err := f.cachePath(src)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}
	if err := f.download(ctx, src, cachePath); err != nil {
		return "", err
	}
	return cachePath, nil
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

func (f *Fetcher) cachePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("source: parse url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = "input.log"
	}
	sum := sha256.Sum256([]byte(rawURL))
	key := hex.EncodeToString(sum[:])[:16]
	return filepath.Join(f.cacheDir, key+"-"+name), nil
}

// download writes the body to a temp file and renames it into place, so a
// partial transfer never shows up as a cached copy.
func (f *Fetcher) download(ctx context.Context, rawURL, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), defaultDirMode); err != nil {
		return fmt.Errorf("source: create cache dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("source: build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("source: download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("source: download %s: unexpected status %s", rawURL, resp.Status)
	}

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return fmt.Errorf("source: open cache tmp: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("source: write cache tmp: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("source: close cache tmp: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("source: rename cache file: %w", err)
	}
	return nil
}

// ReadLines reads a log file into memory, one trimmed line per entry,
// dropping blank lines. Input order is preserved.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r\n")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("source: read %s: %w", path, err)
	}
	return lines, nil
}
