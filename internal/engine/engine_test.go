package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/IshaanNene/iconfetch/internal/config"
	"github.com/IshaanNene/iconfetch/internal/parser"
	"github.com/IshaanNene/iconfetch/internal/storage"
	"github.com/IshaanNene/iconfetch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type stubPage struct {
	status      int
	contentType string
	body        string
}

// stubFetcher serves canned responses by URL and records request order.
// Unknown URLs answer 404.
type stubFetcher struct {
	pages     map[string]stubPage
	requested []string
}

func (s *stubFetcher) Fetch(_ context.Context, req *types.Request) (*types.Response, error) {
	u := req.URLString()
	s.requested = append(s.requested, u)

	p, ok := s.pages[u]
	if !ok {
		p = stubPage{status: http.StatusNotFound}
	}
	if p.status == 0 {
		p.status = http.StatusOK
	}
	if p.status < 200 || p.status >= 300 {
		return nil, &types.FetchError{URL: u, StatusCode: p.status, Err: types.ErrBadStatus}
	}
	return &types.Response{
		StatusCode:  p.status,
		Body:        []byte(p.body),
		ContentType: p.contentType,
		Request:     req,
		FinalURL:    u,
	}, nil
}

func (s *stubFetcher) Close() error { return nil }
func (s *stubFetcher) Type() string { return "stub" }

func (s *stubFetcher) count(u string) int {
	n := 0
	for _, r := range s.requested {
		if r == u {
			n++
		}
	}
	return n
}

func newStubEngine(t *testing.T, pages map[string]stubPage) (*Engine, *stubFetcher, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Output.Dir = dir

	stub := &stubFetcher{pages: pages}
	e := New(cfg, testLogger)
	e.SetFetcher(stub)
	e.SetDiscoverer(parser.NewCSSDiscoverer(testLogger))
	e.SetStorage(storage.NewFileStorage("", dir, testLogger))
	return e, stub, dir
}

func TestRunSavesFirstCandidate(t *testing.T) {
	e, stub, dir := newStubEngine(t, map[string]stubPage{
		"https://www.example.com": {
			contentType: "text/html",
			body:        `<html><head><link rel="icon" href="/static/icon.png"></head></html>`,
		},
		"https://www.example.com/static/icon.png": {contentType: "image/png", body: "PNGDATA"},
	})

	path, err := e.Run(context.Background(), "www.example.com")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := filepath.Join(dir, "example.com.png")
	if path != want {
		t.Errorf("expected %s, got %s", want, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved icon: %v", err)
	}
	if string(data) != "PNGDATA" {
		t.Errorf("unexpected icon content %q", data)
	}
	if stub.count("https://www.example.com/favicon.ico") != 0 {
		t.Error("default path must not be tried after a candidate succeeded")
	}
}

func TestFetchTriesCandidatesInPriorityOrder(t *testing.T) {
	e, stub, _ := newStubEngine(t, map[string]stubPage{
		"https://example.com": {body: `<head>
			<link rel="apple-touch-icon" href="/apple.png">
			<link rel="icon" href="/missing.png">
			<link rel="shortcut icon" href="/broken.ico">
		</head>`},
		"https://example.com/broken.ico": {status: http.StatusInternalServerError},
		"https://example.com/apple.png":  {contentType: "image/png", body: "APPLE"},
	})

	icon, err := e.Fetch(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if icon.SourceURL != "https://example.com/apple.png" {
		t.Errorf("unexpected source %s", icon.SourceURL)
	}

	expected := []string{
		"https://example.com",
		"https://example.com/missing.png",
		"https://example.com/broken.ico",
		"https://example.com/apple.png",
	}
	if len(stub.requested) != len(expected) {
		t.Fatalf("expected requests %v, got %v", expected, stub.requested)
	}
	for i := range expected {
		if stub.requested[i] != expected[i] {
			t.Errorf("request %d: expected %s, got %s", i, expected[i], stub.requested[i])
		}
	}

	snap := e.Metrics().Snapshot()
	if snap["downloads_attempted"] != 3 || snap["downloads_failed"] != 2 {
		t.Errorf("unexpected metrics %v", snap)
	}
}

func TestFetchFallsBackWhenNoCandidates(t *testing.T) {
	e, stub, _ := newStubEngine(t, map[string]stubPage{
		"https://example.com/about":       {body: `<html><head><title>none</title></head></html>`},
		"https://example.com/favicon.ico": {contentType: "image/x-icon", body: "ICO"},
	})

	icon, err := e.Fetch(context.Background(), "https://example.com/about")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if icon.SourceURL != "https://example.com/favicon.ico" {
		t.Errorf("expected default path, got %s", icon.SourceURL)
	}
	if stub.count("https://example.com/favicon.ico") != 1 {
		t.Errorf("default path should be requested once, requests: %v", stub.requested)
	}
}

func TestFetchFallsBackWhenDiscoveryFails(t *testing.T) {
	e, _, _ := newStubEngine(t, map[string]stubPage{
		"https://example.com":             {status: http.StatusServiceUnavailable},
		"https://example.com/favicon.ico": {contentType: "image/x-icon", body: "ICO"},
	})

	icon, err := e.Fetch(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("discovery failure must not be fatal: %v", err)
	}
	if icon.SourceURL != "https://example.com/favicon.ico" {
		t.Errorf("expected default path, got %s", icon.SourceURL)
	}
	if e.Metrics().DiscoveryFailures.Load() != 1 {
		t.Error("expected one discovery failure to be counted")
	}
}

func TestRunNoFaviconWritesNothing(t *testing.T) {
	e, stub, dir := newStubEngine(t, map[string]stubPage{
		"https://example.com": {body: `<link rel="icon" href="/a.png"><link rel="icon" href="/b.png">`},
	})

	path, err := e.Run(context.Background(), "https://example.com")
	if !errors.Is(err, types.ErrNoFavicon) {
		t.Fatalf("expected ErrNoFavicon, got %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path, got %q", path)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no files written, found %d", len(entries))
	}

	if stub.count("https://example.com/favicon.ico") != 1 {
		t.Errorf("default path must be attempted before failing, requests: %v", stub.requested)
	}
}

func TestFetchDoesNotRetryDefaultPath(t *testing.T) {
	e, stub, _ := newStubEngine(t, map[string]stubPage{
		"https://example.com": {body: `<link rel="shortcut icon" href="/favicon.ico">`},
	})

	_, err := e.Fetch(context.Background(), "https://example.com")
	if !errors.Is(err, types.ErrNoFavicon) {
		t.Fatalf("expected ErrNoFavicon, got %v", err)
	}
	if n := stub.count("https://example.com/favicon.ico"); n != 1 {
		t.Errorf("expected favicon.ico requested once, got %d", n)
	}
}

func TestFetchAcceptsNonImageContentType(t *testing.T) {
	e, _, _ := newStubEngine(t, map[string]stubPage{
		"https://example.com":             {body: `<link rel="icon" href="/icon">`},
		"https://example.com/icon":        {contentType: "text/plain", body: "bytes"},
		"https://example.com/favicon.ico": {contentType: "image/x-icon", body: "ICO"},
	})

	icon, err := e.Fetch(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if icon.SourceURL != "https://example.com/icon" {
		t.Errorf("content type warning must not reject the candidate, got %s", icon.SourceURL)
	}
}

func TestFetchCanceledContext(t *testing.T) {
	e, _, _ := newStubEngine(t, map[string]stubPage{
		"https://example.com/favicon.ico": {contentType: "image/x-icon", body: "ICO"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Fetch(ctx, "https://example.com"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFetchNotConfigured(t *testing.T) {
	e := New(config.DefaultConfig(), testLogger)
	if _, err := e.Fetch(context.Background(), "https://example.com"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestDefaultFaviconURL(t *testing.T) {
	req, _ := types.NewRequest("https://www.example.com:8443/deep/page?q=1#top")
	if got := DefaultFaviconURL(req.URL); got != "https://www.example.com:8443/favicon.ico" {
		t.Errorf("unexpected default URL %s", got)
	}
}

func TestBuildEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<link rel="apple-touch-icon" href="/touch.png">
			<link rel="icon" href="assets/site.svg">
		</head></html>`))
	})
	mux.HandleFunc("/assets/site.svg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write([]byte("<svg/>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	for _, p := range []string{"css", "xpath"} {
		t.Run(p, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Discovery.Parser = p
			cfg.Output.Dir = t.TempDir()

			e, err := Build(cfg, testLogger)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			defer e.Close()

			path, err := e.Run(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if filepath.Base(path) != "127.0.0.1.svg" {
				t.Errorf("unexpected file name %s", filepath.Base(path))
			}
			data, _ := os.ReadFile(path)
			if string(data) != "<svg/>" {
				t.Errorf("unexpected content %q", data)
			}
		})
	}
}

func TestBuildSkipsOversizedIcon(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<link rel="icon" href="/big.png"><link rel="apple-touch-icon" href="/small.png">`))
	})
	mux.HandleFunc("/big.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(make([]byte, 300))
	})
	mux.HandleFunc("/small.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("tiny"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Fetcher.MaxBodySize = 200
	cfg.Output.Dir = t.TempDir()

	e, err := Build(cfg, testLogger)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer e.Close()

	icon, err := e.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if icon.SourceURL != srv.URL+"/small.png" || string(icon.Data) != "tiny" {
		t.Errorf("expected the oversized icon to be skipped, got %s (%d bytes)", icon.SourceURL, len(icon.Data))
	}
}

func TestRunOversizedDefaultWritesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/favicon.ico" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/x-icon")
		w.Write(make([]byte, 100))
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Fetcher.MaxBodySize = 10
	cfg.Output.Dir = t.TempDir()

	e, err := Build(cfg, testLogger)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer e.Close()

	path, err := e.Run(context.Background(), srv.URL)
	if !errors.Is(err, types.ErrNoFavicon) {
		t.Fatalf("expected ErrNoFavicon, got %v (path %q)", err, path)
	}
	entries, _ := os.ReadDir(cfg.Output.Dir)
	if len(entries) != 0 {
		t.Errorf("expected no truncated file, found %d entries", len(entries))
	}
}
