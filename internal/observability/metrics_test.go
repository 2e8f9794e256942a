package observability

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSnapshot(t *testing.T) {
	m := NewMetrics()
	m.CandidatesFound.Add(3)
	m.DownloadsAttempted.Add(2)
	m.DownloadsFailed.Add(1)
	m.BytesDownloaded.Add(1024)

	snap := m.Snapshot()
	if snap["candidates_found"] != 3 {
		t.Errorf("expected 3 candidates, got %d", snap["candidates_found"])
	}
	if snap["downloads_failed"] != 1 {
		t.Errorf("expected 1 failure, got %d", snap["downloads_failed"])
	}
	if snap["bytes_downloaded"] != 1024 {
		t.Errorf("expected 1024 bytes, got %d", snap["bytes_downloaded"])
	}
}

func TestLogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	m := NewMetrics()
	m.PagesFetched.Add(1)
	logger.Info("run finished", "stats", m)

	out := buf.String()
	if !strings.Contains(out, "stats.pages_fetched=1") {
		t.Errorf("expected grouped metrics in log output, got %q", out)
	}
}
