package assets

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/photostack/boardkit/internal/errs"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type photoServer struct {
	*httptest.Server
	hits atomic.Int64
}

func newPhotoServer(t *testing.T, body []byte) *photoServer {
	t.Helper()
	ps := &photoServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/photo.png", func(w http.ResponseWriter, r *http.Request) {
		ps.hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		ps.hits.Add(1)
		http.Redirect(w, r, "/photo.png", http.StatusFound)
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		ps.hits.Add(1)
		http.Redirect(w, r, "/loop", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		ps.hits.Add(1)
		http.NotFound(w, r)
	})
	mux.HandleFunc("/garbage", func(w http.ResponseWriter, r *http.Request) {
		ps.hits.Add(1)
		_, _ = w.Write([]byte("definitely not an image"))
	})
	ps.Server = httptest.NewServer(mux)
	t.Cleanup(ps.Close)
	return ps
}

func TestFetchCachesWithinFreshWindow(t *testing.T) {
	srv := newPhotoServer(t, pngBytes(t, 40, 30))
	dir := t.TempDir()
	f := NewFetcher(dir, nil)
	ctx := context.Background()

	first, err := f.Fetch(ctx, srv.URL+"/photo.png", "kiss-janos---1.png", nil)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	second, err := f.Fetch(ctx, srv.URL+"/photo.png", "kiss-janos---1.png", nil)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if first != second {
		t.Errorf("Expected same path, got %s and %s", first, second)
	}
	if got := srv.hits.Load(); got != 1 {
		t.Errorf("Expected 1 network call, got %d", got)
	}

	old := time.Now().Add(-FreshFor - time.Second)
	if err := os.Chtimes(first, old, old); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Fetch(ctx, srv.URL+"/photo.png", "kiss-janos---1.png", nil); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if got := srv.hits.Load(); got != 2 {
		t.Errorf("Expected 2 network calls after expiry, got %d", got)
	}
}

func TestFetchIgnoresEmptyCachedFile(t *testing.T) {
	srv := newPhotoServer(t, pngBytes(t, 10, 10))
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "empty.png"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(dir, nil)
	if _, err := f.Fetch(context.Background(), srv.URL+"/photo.png", "empty.png", nil); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if got := srv.hits.Load(); got != 1 {
		t.Errorf("Expected empty cache file to be refetched, got %d calls", got)
	}
}

func TestFetchResizesToExactTarget(t *testing.T) {
	srv := newPhotoServer(t, pngBytes(t, 400, 200))
	dir := t.TempDir()
	f := NewFetcher(dir, nil)

	target := &Size{Width: 100, Height: 150}
	path, err := f.Fetch(context.Background(), srv.URL+"/photo.png", "p.jpg", target)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(dir, "resized") {
		t.Errorf("Expected resized directory, got %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		t.Fatalf("resized file is not an image: %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 150 {
		t.Errorf("Expected 100x150, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestFetchResizeFailureFallsBackToRaw(t *testing.T) {
	srv := newPhotoServer(t, nil)
	dir := t.TempDir()
	f := NewFetcher(dir, nil)

	path, err := f.Fetch(context.Background(), srv.URL+"/garbage", "g.jpg", &Size{Width: 10, Height: 10})
	if err != nil {
		t.Fatalf("Expected resize failure to be swallowed, got %v", err)
	}
	if path != filepath.Join(dir, "g.jpg") {
		t.Errorf("Expected raw path, got %s", path)
	}
}

func TestFetchFollowsRedirect(t *testing.T) {
	srv := newPhotoServer(t, pngBytes(t, 10, 10))
	f := NewFetcher(t.TempDir(), nil)

	path, err := f.Fetch(context.Background(), srv.URL+"/moved", "r.png", nil)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Errorf("Expected downloaded file at %s", path)
	}
	if got := srv.hits.Load(); got != 2 {
		t.Errorf("Expected 2 requests (redirect + photo), got %d", got)
	}
}

func TestFetchFailures(t *testing.T) {
	srv := newPhotoServer(t, nil)
	f := NewFetcher(t.TempDir(), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		url  string
		file string
		kind errs.Kind
	}{
		{"not found", srv.URL + "/missing", "m.jpg", errs.NetworkFailure},
		{"redirect loop", srv.URL + "/loop", "l.jpg", errs.NetworkFailure},
		{"bad scheme", "ftp://example.com/a.jpg", "a.jpg", errs.Invalid},
		{"bad file name", srv.URL + "/photo.png", "..", errs.Invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Fetch(ctx, tt.url, tt.file, nil)
			if !errs.Is(err, tt.kind) {
				t.Errorf("Expected %s error, got %v", tt.kind, err)
			}
		})
	}
}

func TestFetchRejectsHostOutsideAllowList(t *testing.T) {
	srv := newPhotoServer(t, pngBytes(t, 10, 10))
	f := NewFetcher(t.TempDir(), []string{"cdn.example.com"})

	_, err := f.Fetch(context.Background(), srv.URL+"/photo.png", "x.png", nil)
	if !errs.Is(err, errs.Invalid) {
		t.Errorf("Expected invalid error, got %v", err)
	}
	if srv.hits.Load() != 0 {
		t.Errorf("Expected no network access for a disallowed host")
	}
}

func TestFetchAllKeepsSiblingsOnFailure(t *testing.T) {
	srv := newPhotoServer(t, pngBytes(t, 20, 20))
	f := NewFetcher(t.TempDir(), nil)

	reqs := []Request{
		{Key: "a", URL: srv.URL + "/photo.png", FileName: "a.png"},
		{Key: "b", URL: srv.URL + "/missing", FileName: "b.png"},
		{Key: "c", URL: "", FileName: "c.png"},
		{Key: "d", URL: srv.URL + "/photo.png", FileName: "d.png", Target: &Size{Width: 8, Height: 8}},
	}
	results := f.FetchAll(context.Background(), reqs, 0)

	if len(results) != len(reqs) {
		t.Fatalf("Expected %d results, got %d", len(reqs), len(results))
	}
	for i, r := range results {
		if r.Key != reqs[i].Key {
			t.Errorf("Expected result %d to keep key %s, got %s", i, reqs[i].Key, r.Key)
		}
	}
	if results[0].Path == "" || results[3].Path == "" {
		t.Errorf("Expected successful entries to have paths: %+v", results)
	}
	if results[1].Path != "" || results[1].Err == nil {
		t.Errorf("Expected failed entry to be absent with error: %+v", results[1])
	}
	if results[2].Path != "" || results[2].Err != nil {
		t.Errorf("Expected entry without URL to be absent without error: %+v", results[2])
	}
}

func TestCoverFitDimensions(t *testing.T) {
	sources := []image.Rectangle{
		image.Rect(0, 0, 400, 200),
		image.Rect(0, 0, 200, 400),
		image.Rect(0, 0, 33, 33),
		image.Rect(10, 10, 1010, 760),
	}
	targets := []Size{{100, 150}, {150, 100}, {64, 64}, {1, 300}}

	for _, sr := range sources {
		src := image.NewRGBA(sr)
		for _, target := range targets {
			out := CoverFit(src, target)
			b := out.Bounds()
			if b.Dx() != target.Width || b.Dy() != target.Height {
				t.Errorf("source %v target %v: got %dx%d", sr, target, b.Dx(), b.Dy())
			}
		}
	}
}

func TestSafeFileNameAndFileNameFor(t *testing.T) {
	got, err := SafeFileName("../../etc/pass wd.jpg")
	if err != nil {
		t.Fatalf("SafeFileName returned error: %v", err)
	}
	if got != "pass_wd.jpg" {
		t.Errorf("Expected pass_wd.jpg, got %s", got)
	}
	if strings.Contains(got, "/") {
		t.Errorf("Expected no separators in %s", got)
	}

	if name := FileNameFor("kiss-janos---1", "https://cdn.example.com/p/123.png?v=2"); name != "kiss-janos---1.png" {
		t.Errorf("Expected png extension, got %s", name)
	}
	if name := FileNameFor("kiss-janos---1", "https://cdn.example.com/p/123"); name != "kiss-janos---1.jpg" {
		t.Errorf("Expected default jpg extension, got %s", name)
	}
}
