package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/photostack/boardkit/internal/errs"
)

const (
	// FreshFor is how long a downloaded photo is reused without refetching.
	FreshFor = 5 * time.Minute

	// DefaultMaxRedirects bounds redirect chains followed by Fetch.
	DefaultMaxRedirects = 3

	resizedDirName = "resized"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Size is a pixel size.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Fetcher downloads photos into a working directory and keeps them for FreshFor.
type Fetcher struct {
	HTTPClient *http.Client
	Dir        string
	// AllowedHosts restricts downloads to exact host names. Empty allows any host.
	AllowedHosts []string
	MaxRedirects int
	Now          func() time.Time
}

// NewFetcher creates a new photo fetcher storing files under dir
func NewFetcher(dir string, allowedHosts []string) *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			// Redirects are followed by Fetch itself so every hop is checked and logged.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		Dir:          dir,
		AllowedHosts: allowedHosts,
		MaxRedirects: DefaultMaxRedirects,
		Now:          time.Now,
	}
}

// Fetch downloads rawURL to Dir/fileName and returns the local path. When
// target is set the photo is cover-fitted to that size and written under
// Dir/resized; a failed resize falls back to the unresized file.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, fileName string, target *Size) (string, error) {
	return f.fetch(ctx, rawURL, fileName, target, 0)
}

func (f *Fetcher) fetch(ctx context.Context, rawURL, fileName string, target *Size, redirects int) (string, error) {
	const op = "assets.Fetch"

	u, err := f.checkURL(rawURL)
	if err != nil {
		return "", err
	}
	safeName, err := SafeFileName(fileName)
	if err != nil {
		return "", err
	}

	rawPath := filepath.Join(f.Dir, safeName)
	finalPath := rawPath
	if target != nil {
		finalPath = filepath.Join(f.Dir, resizedDirName, safeName)
	}

	if f.isFresh(finalPath) {
		slog.Info("Using cached photo", "file", safeName)
		return finalPath, nil
	}

	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return "", errs.E(errs.Other, op, "failed to create photo directory", err)
	}

	slog.Info("Downloading photo", "url", u.String(), "file", safeName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", errs.E(errs.Invalid, op, "failed to create request", err)
	}
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", errs.E(errs.NetworkFailure, op, "failed to fetch photo", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound {
		if loc, err := resp.Location(); err == nil {
			resp.Body.Close()
			if redirects >= f.maxRedirects() {
				return "", errs.E(errs.NetworkFailure, op, fmt.Sprintf("too many redirects (max %d)", f.maxRedirects()), nil)
			}
			slog.Debug("Following redirect", "from", u.String(), "to", loc.String())
			return f.fetch(ctx, loc.String(), safeName, target, redirects+1)
		}
	}

	if resp.StatusCode != http.StatusOK {
		return "", errs.E(errs.NetworkFailure, op, fmt.Sprintf("photo download failed: HTTP %d", resp.StatusCode), nil)
	}

	if err := writeAtomic(rawPath, resp.Body); err != nil {
		return "", errs.E(errs.NetworkFailure, op, "failed to store photo", err)
	}

	if target == nil {
		slog.Info("Photo downloaded", "file", safeName)
		return rawPath, nil
	}

	if err := ResizeFile(rawPath, finalPath, *target); err != nil {
		slog.Warn("Photo resize failed, using original", "file", safeName, "error", err)
		return rawPath, nil
	}
	slog.Info("Photo resized", "file", safeName, "width", target.Width, "height", target.Height)
	return finalPath, nil
}

func (f *Fetcher) maxRedirects() int {
	if f.MaxRedirects <= 0 {
		return DefaultMaxRedirects
	}
	return f.MaxRedirects
}

func (f *Fetcher) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

// isFresh reports whether path exists, is non-empty and was written within FreshFor.
func (f *Fetcher) isFresh(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Size() > 0 && f.now().Sub(info.ModTime()) < FreshFor
}

func (f *Fetcher) checkURL(rawURL string) (*url.URL, error) {
	const op = "assets.Fetch"
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errs.E(errs.Invalid, op, "invalid photo URL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errs.E(errs.Invalid, op, fmt.Sprintf("unsupported URL scheme %q", u.Scheme), nil)
	}
	if len(f.AllowedHosts) > 0 && !slices.Contains(f.AllowedHosts, u.Hostname()) {
		return nil, errs.E(errs.Invalid, op, fmt.Sprintf("download host not allowed: %s", u.Hostname()), nil)
	}
	return u, nil
}

// SafeFileName reduces name to a base name made of [a-zA-Z0-9._-].
func SafeFileName(name string) (string, error) {
	base := unsafeFileChars.ReplaceAllString(filepath.Base(filepath.ToSlash(name)), "_")
	if base == "" || base == "." || base == ".." {
		return "", errs.E(errs.Invalid, "assets.SafeFileName", fmt.Sprintf("invalid file name %q", name), nil)
	}
	return base, nil
}

// FileNameFor builds the cache file name for an entry id and its photo URL,
// keeping the URL's extension (jpg when it has none).
func FileNameFor(stableID, rawURL string) string {
	ext := "jpg"
	if u, err := url.Parse(rawURL); err == nil {
		if e := strings.TrimPrefix(path.Ext(u.Path), "."); e != "" {
			ext = e
		}
	}
	return stableID + "." + ext
}

// writeAtomic streams r into a temp file next to dest and renames it into place.
func writeAtomic(dest string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	out, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tempPath := out.Name()

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(tempPath)
		return fmt.Errorf("download failed: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tempPath, dest); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move file: %w", err)
	}
	return nil
}
