package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IshaanNene/iconfetch/internal/config"
	"github.com/IshaanNene/iconfetch/internal/fetcher"
	"github.com/IshaanNene/iconfetch/internal/media"
	"github.com/IshaanNene/iconfetch/internal/observability"
	"github.com/IshaanNene/iconfetch/internal/parser"
	"github.com/IshaanNene/iconfetch/internal/storage"
	"github.com/IshaanNene/iconfetch/internal/types"
)

// ErrNotConfigured is returned when a required component was never set.
var ErrNotConfigured = errors.New("engine component not configured")

// Engine drives one favicon fetch: discovery, ordered download attempts,
// the /favicon.ico fallback, and persistence.
type Engine struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics

	fetcher     fetcher.Fetcher
	pageFetcher fetcher.Fetcher
	discoverer  parser.Discoverer
	downloader  *media.Downloader
	storage     storage.Storage

	mu sync.RWMutex
}

// New creates an Engine with no components attached.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		logger:  logger.With("component", "engine"),
		metrics: observability.NewMetrics(),
	}
}

// Build creates an Engine wired with the components selected by cfg: the
// HTTP fetcher (and a browser page fetcher if configured), the configured
// discoverer and file storage.
func Build(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	e := New(cfg, logger)

	httpFetcher := fetcher.NewHTTPFetcher(cfg, logger)
	e.SetFetcher(httpFetcher)

	pageFetcher, err := fetcher.NewPageFetcher(cfg, httpFetcher, logger)
	if err != nil {
		return nil, fmt.Errorf("create page fetcher: %w", err)
	}
	e.SetPageFetcher(pageFetcher)

	d, err := parser.New(cfg.Discovery.Parser, logger)
	if err != nil {
		return nil, fmt.Errorf("create parser: %w", err)
	}
	e.SetDiscoverer(d)

	e.SetStorage(storage.NewFileStorage(cfg.Output.Path, cfg.Output.Dir, logger))
	return e, nil
}

// SetFetcher sets the fetcher used for icon downloads. It is also used for
// the page unless SetPageFetcher is called.
func (e *Engine) SetFetcher(f fetcher.Fetcher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetcher = f
	e.downloader = media.NewDownloader(f, e.cfg.Fetcher.Timeout, e.logger)
}

// SetPageFetcher sets the fetcher used to load the target page.
func (e *Engine) SetPageFetcher(f fetcher.Fetcher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pageFetcher = f
}

// SetDiscoverer sets the candidate discoverer.
func (e *Engine) SetDiscoverer(d parser.Discoverer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.discoverer = d
}

// SetStorage sets the storage backend.
func (e *Engine) SetStorage(s storage.Storage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.storage = s
}

// Metrics returns the run counters.
func (e *Engine) Metrics() *observability.Metrics {
	return e.metrics
}

// Run fetches the favicon for rawURL and saves it, returning the absolute
// path written. Nothing is written when no favicon could be obtained.
func (e *Engine) Run(ctx context.Context, rawURL string) (string, error) {
	icon, err := e.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}

	e.mu.RLock()
	store := e.storage
	e.mu.RUnlock()
	if store == nil {
		return "", fmt.Errorf("storage: %w", ErrNotConfigured)
	}

	return store.Save(icon, config.NormalizeURL(rawURL))
}

// Fetch runs the state machine for rawURL and returns the first icon obtained.
// It fails with types.ErrNoFavicon once every candidate and the default path
// have failed.
func (e *Engine) Fetch(ctx context.Context, rawURL string) (*types.Icon, error) {
	e.mu.RLock()
	downloader := e.downloader
	e.mu.RUnlock()
	if downloader == nil {
		return nil, fmt.Errorf("fetcher: %w", ErrNotConfigured)
	}

	target, err := types.NewRequest(config.NormalizeURL(rawURL))
	if err != nil {
		return nil, err
	}
	target.Timeout = e.cfg.Fetcher.Timeout

	candidates := e.discover(ctx, target)
	tried := make(attemptSet)

	var icon *types.Icon
	state := StateTryCandidates
	for !state.Terminal() {
		var urls []string
		switch state {
		case StateTryCandidates:
			urls = candidateURLs(candidates)
		case StateTryDefault:
			defaultURL := DefaultFaviconURL(target.URL)
			e.logger.Info("trying default path", "url", defaultURL)
			// Deliberate departure from always requesting the default path:
			// one that already failed as a candidate is not requested again.
			if tried.seen(defaultURL) {
				e.logger.Info("default path already attempted", "url", defaultURL)
			} else {
				urls = []string{defaultURL}
			}
		}

		icon = e.attempt(ctx, downloader, urls, tried)

		ev := EventExhausted
		if icon != nil {
			ev = EventDownloaded
		}
		next := Next(state, ev)
		e.logger.Debug("state transition", "from", state, "event", ev, "to", next)
		state = next

		if err := ctx.Err(); err != nil && state != StateSuccess {
			return nil, err
		}
	}

	e.logger.Debug("run finished", "stats", e.metrics)

	if state == StateFailure {
		return nil, fmt.Errorf("%s: %w", target.URLString(), types.ErrNoFavicon)
	}

	e.logger.Info("favicon obtained",
		"url", icon.SourceURL,
		"size", media.HumanSize(int64(len(icon.Data))),
	)
	return icon, nil
}

// discover loads the target page and extracts candidates. Any failure is
// logged and yields an empty list.
func (e *Engine) discover(ctx context.Context, target *types.Request) []types.Candidate {
	e.mu.RLock()
	pageFetcher, discoverer := e.pageFetcher, e.discoverer
	if pageFetcher == nil {
		pageFetcher = e.fetcher
	}
	e.mu.RUnlock()

	if discoverer == nil {
		e.logger.Warn("no discoverer configured, skipping page")
		return nil
	}

	e.logger.Info("visiting page", "url", target.URLString(), "fetcher", pageFetcher.Type())
	resp, err := pageFetcher.Fetch(ctx, target)
	if err != nil {
		e.metrics.DiscoveryFailures.Add(1)
		e.logger.Warn("favicon discovery failed",
			"error", &types.DiscoveryError{URL: target.URLString(), Err: err},
		)
		return nil
	}
	e.metrics.PagesFetched.Add(1)

	candidates, err := discoverer.Discover(resp)
	if err != nil {
		e.metrics.DiscoveryFailures.Add(1)
		e.logger.Warn("favicon discovery failed", "error", err)
		return nil
	}

	e.metrics.CandidatesFound.Add(int64(len(candidates)))
	if len(candidates) > 0 {
		e.logger.Info("favicon links found in HTML",
			"count", len(candidates),
			"parser", discoverer.Name(),
		)
	}
	return candidates
}

// attempt downloads urls in order and returns the first success, or nil.
func (e *Engine) attempt(ctx context.Context, d *media.Downloader, urls []string, tried attemptSet) *types.Icon {
	for i, u := range urls {
		if ctx.Err() != nil {
			return nil
		}

		e.logger.Info("trying download", "n", i+1, "of", len(urls), "url", u)
		tried.mark(u)
		e.metrics.DownloadsAttempted.Add(1)

		icon, err := d.Download(ctx, u)
		if err != nil {
			e.metrics.DownloadsFailed.Add(1)
			e.logger.Warn("download failed", "url", u, "error", err)
			continue
		}

		e.metrics.BytesDownloaded.Add(int64(len(icon.Data)))
		return icon
	}
	return nil
}

// Close releases fetcher resources.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	if e.pageFetcher != nil && e.pageFetcher != e.fetcher {
		errs = append(errs, e.pageFetcher.Close())
	}
	if e.fetcher != nil {
		errs = append(errs, e.fetcher.Close())
	}
	return errors.Join(errs...)
}

func candidateURLs(cs []types.Candidate) []string {
	urls := make([]string, len(cs))
	for i, c := range cs {
		urls[i] = c.URL
	}
	return urls
}
