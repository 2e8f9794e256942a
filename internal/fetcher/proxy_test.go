package fetcher

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"testing"

	"github.com/IshaanNene/iconfetch/internal/config"
)

func TestProxyRoundRobin(t *testing.T) {
	pm := NewProxyManager(&config.ProxyConfig{
		Enabled:  true,
		Rotation: "round_robin",
		URLs:     []string{"http://p1:8080", "http://p2:8080"},
	}, testLogger)

	if pm.Count() != 2 {
		t.Fatalf("expected 2 proxies, got %d", pm.Count())
	}

	first := pm.Next().Host
	second := pm.Next().Host
	third := pm.Next().Host
	if first != "p1:8080" || second != "p2:8080" || third != "p1:8080" {
		t.Errorf("unexpected rotation: %s %s %s", first, second, third)
	}
	if pm.Last().Host != "p1:8080" {
		t.Errorf("expected last proxy p1:8080, got %s", pm.Last().Host)
	}
}

func TestProxyMarkFailed(t *testing.T) {
	pm := NewProxyManager(&config.ProxyConfig{
		Enabled:  true,
		Rotation: "round_robin",
		URLs:     []string{"http://p1:8080", "not a url", "http://p2:8080"},
	}, testLogger)

	if pm.Count() != 2 {
		t.Fatalf("invalid proxy URL should be skipped, got %d proxies", pm.Count())
	}

	p1 := pm.Next()
	pm.MarkFailed(p1, errors.New("connection refused"))
	if pm.HealthyCount() != 1 {
		t.Fatalf("expected 1 healthy proxy, got %d", pm.HealthyCount())
	}
	for i := 0; i < 3; i++ {
		if got := pm.Next().Host; got != "p2:8080" {
			t.Errorf("expected only p2:8080, got %s", got)
		}
	}

	pm.MarkFailed(pm.Next(), errors.New("timeout"))
	if pm.Next() != nil {
		t.Error("expected direct connection once every proxy failed")
	}
}

func TestProxyFuncFallsBackToDirect(t *testing.T) {
	pm := NewProxyManager(&config.ProxyConfig{
		Enabled:  true,
		Rotation: "round_robin",
		URLs:     []string{"http://p1:8080"},
	}, testLogger)
	pm.MarkFailed(pm.Next(), errors.New("connection refused"))

	req, _ := http.NewRequest(http.MethodGet, "https://example.com/favicon.ico", nil)
	proxy, err := pm.ProxyFunc()(req)
	if err != nil {
		t.Fatalf("proxy func: %v", err)
	}
	if proxy != nil {
		t.Errorf("expected direct connection, got %s", proxy)
	}
}

func TestIsProxyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"proxy connect", &url.Error{Op: "Get", URL: "https://example.com", Err: &net.OpError{Op: "proxyconnect", Net: "tcp", Err: errors.New("connection refused")}}, true},
		{"dial", &url.Error{Op: "Get", URL: "https://example.com", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route to host")}}, true},
		{"target timeout", &url.Error{Op: "Get", URL: "https://example.com", Err: context.DeadlineExceeded}, false},
		{"read error", &url.Error{Op: "Get", URL: "https://example.com", Err: &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset")}}, false},
	}

	for _, tt := range tests {
		if got := isProxyError(tt.err); got != tt.want {
			t.Errorf("%s: isProxyError = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestReportProxyFailureKeepsProxyOnTargetErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Proxy.Enabled = true
	cfg.Proxy.URLs = []string{"http://p1:8080"}
	f := NewHTTPFetcher(cfg, testLogger)
	f.proxyMgr.Next()

	f.reportProxyFailure(&url.Error{Op: "Get", URL: "https://example.com", Err: context.DeadlineExceeded})
	if f.proxyMgr.HealthyCount() != 1 {
		t.Fatal("a target timeout must not mark the proxy unhealthy")
	}

	f.reportProxyFailure(&url.Error{Op: "Get", URL: "https://example.com", Err: &net.OpError{Op: "proxyconnect", Net: "tcp", Err: errors.New("connection refused")}})
	if f.proxyMgr.HealthyCount() != 0 {
		t.Error("a proxy connect failure must mark the proxy unhealthy")
	}
}
