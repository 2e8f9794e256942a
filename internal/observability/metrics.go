package observability

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Metrics tracks counters for a single favicon run.
type Metrics struct {
	PagesFetched       atomic.Int64
	DiscoveryFailures  atomic.Int64
	CandidatesFound    atomic.Int64
	DownloadsAttempted atomic.Int64
	DownloadsFailed    atomic.Int64
	BytesDownloaded    atomic.Int64

	start time.Time
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{start: time.Now()}
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"pages_fetched":       m.PagesFetched.Load(),
		"discovery_failures":  m.DiscoveryFailures.Load(),
		"candidates_found":    m.CandidatesFound.Load(),
		"downloads_attempted": m.DownloadsAttempted.Load(),
		"downloads_failed":    m.DownloadsFailed.Load(),
		"bytes_downloaded":    m.BytesDownloaded.Load(),
	}
}

// LogValue implements slog.LogValuer so a run summary can be logged as a group.
func (m *Metrics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("pages_fetched", m.PagesFetched.Load()),
		slog.Int64("candidates_found", m.CandidatesFound.Load()),
		slog.Int64("downloads_attempted", m.DownloadsAttempted.Load()),
		slog.Int64("downloads_failed", m.DownloadsFailed.Load()),
		slog.Int64("bytes_downloaded", m.BytesDownloaded.Load()),
		slog.Duration("elapsed", time.Since(m.start)),
	)
}
