package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/iconfetch/internal/config"
	"github.com/IshaanNene/iconfetch/internal/types"
)

// Fetcher is the interface for all request fetcher implementations.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL.
	// A non-2xx status is returned as a *types.FetchError.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// NewPageFetcher returns the fetcher used to load the target page, as
// selected by discovery.fetcher. The HTTP fetcher is reused when possible.
func NewPageFetcher(cfg *config.Config, httpFetcher *HTTPFetcher, logger *slog.Logger) (Fetcher, error) {
	switch cfg.Discovery.Fetcher {
	case "", "http":
		return httpFetcher, nil
	case "browser":
		return NewBrowserFetcher(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported discovery fetcher: %s", cfg.Discovery.Fetcher)
	}
}
