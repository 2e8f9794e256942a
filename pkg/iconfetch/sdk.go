// Package iconfetch provides a public SDK for fetching favicons from Go code.
//
// Example usage:
//
//	client := iconfetch.New(
//	    iconfetch.WithTimeout(5*time.Second),
//	    iconfetch.WithOutputDir("./icons"),
//	)
//
//	path, err := client.Save(ctx, "https://example.com")
//
// Fetch returns the icon bytes without writing anything.
package iconfetch

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/iconfetch/internal/config"
	"github.com/IshaanNene/iconfetch/internal/engine"
	"github.com/IshaanNene/iconfetch/internal/types"
)

// ErrNoFavicon is returned when neither a discovered icon nor /favicon.ico
// could be downloaded.
var ErrNoFavicon = types.ErrNoFavicon

// Icon is a downloaded favicon.
type Icon = types.Icon

// Client fetches favicons.
type Client struct {
	cfg    *config.Config
	logger *slog.Logger
	stats  map[string]int64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.cfg.Fetcher.Timeout = d }
}

// WithUserAgent sets a custom User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.cfg.Fetcher.UserAgent = ua }
}

// WithOutputPath sets the exact file path Save writes to.
func WithOutputPath(path string) Option {
	return func(c *Client) { c.cfg.Output.Path = path }
}

// WithOutputDir sets the directory for derived file names.
func WithOutputDir(dir string) Option {
	return func(c *Client) { c.cfg.Output.Dir = dir }
}

// WithXPath switches link discovery to the XPath parser.
func WithXPath() Option {
	return func(c *Client) { c.cfg.Discovery.Parser = "xpath" }
}

// WithBrowser renders the page in headless Chromium before discovery.
func WithBrowser() Option {
	return func(c *Client) { c.cfg.Discovery.Fetcher = "browser" }
}

// WithProxy enables proxy rotation with the given proxy URLs.
func WithProxy(urls ...string) Option {
	return func(c *Client) {
		c.cfg.Proxy.Enabled = true
		c.cfg.Proxy.URLs = urls
	}
}

// WithLogger replaces the default stderr logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *Client) { c.cfg.Logging.Level = "debug" }
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{cfg: config.DefaultConfig()}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		level := slog.LevelWarn
		if c.cfg.Logging.Level == "debug" {
			level = slog.LevelDebug
		}
		c.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return c
}

// Fetch returns the favicon for rawURL without saving it.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Icon, error) {
	eng, err := c.build()
	if err != nil {
		return nil, err
	}
	defer eng.Close()

	icon, err := eng.Fetch(ctx, rawURL)
	c.stats = eng.Metrics().Snapshot()
	return icon, err
}

// Save fetches the favicon for rawURL and writes it to disk, returning the
// absolute path.
func (c *Client) Save(ctx context.Context, rawURL string) (string, error) {
	eng, err := c.build()
	if err != nil {
		return "", err
	}
	defer eng.Close()

	path, err := eng.Run(ctx, rawURL)
	c.stats = eng.Metrics().Snapshot()
	return path, err
}

// Stats returns the counters of the last Fetch or Save.
func (c *Client) Stats() map[string]int64 {
	return c.stats
}

func (c *Client) build() (*engine.Engine, error) {
	if err := config.Validate(c.cfg); err != nil {
		return nil, err
	}
	return engine.Build(c.cfg, c.logger)
}
