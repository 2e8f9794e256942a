package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IshaanNene/iconfetch/internal/fetcher"
	"github.com/IshaanNene/iconfetch/internal/types"
)

// Downloader retrieves icon payloads.
type Downloader struct {
	fetcher fetcher.Fetcher
	timeout time.Duration
	logger  *slog.Logger
}

// NewDownloader creates a new icon downloader. A zero timeout defers to the
// fetcher's own default.
func NewDownloader(f fetcher.Fetcher, timeout time.Duration, logger *slog.Logger) *Downloader {
	return &Downloader{
		fetcher: f,
		timeout: timeout,
		logger:  logger.With("component", "media_downloader"),
	}
}

// Download fetches rawURL and returns its body. Transport errors, non-2xx
// statuses and empty bodies are reported as *types.DownloadError. A
// Content-Type that does not look like an image only produces a warning.
func (d *Downloader) Download(ctx context.Context, rawURL string) (*types.Icon, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return nil, &types.DownloadError{URL: rawURL, Err: err}
	}
	req.Tag = types.TagIcon
	req.Timeout = d.timeout

	resp, err := d.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, &types.DownloadError{URL: rawURL, Err: err}
	}
	if len(resp.Body) == 0 {
		return nil, &types.DownloadError{URL: rawURL, Err: types.ErrEmptyResponse}
	}

	if !LooksLikeImage(resp.ContentType) {
		d.logger.Warn("content type may not be an image",
			"url", rawURL,
			"content_type", resp.ContentType,
		)
	}

	sum := sha256.Sum256(resp.Body)
	d.logger.Debug("icon downloaded",
		"url", rawURL,
		"size", len(resp.Body),
		"content_type", resp.ContentType,
		"sha256", hex.EncodeToString(sum[:8]),
		"duration", resp.FetchDuration,
	)

	return &types.Icon{
		Data:        resp.Body,
		SourceURL:   rawURL,
		ContentType: resp.ContentType,
	}, nil
}

// LooksLikeImage reports whether a Content-Type mentions "image" or "icon".
func LooksLikeImage(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "image") || strings.Contains(ct, "icon")
}

// HumanSize formats a byte count for log output.
func HumanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
