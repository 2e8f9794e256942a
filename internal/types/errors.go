package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNoFavicon     = errors.New("no favicon obtainable")
	ErrEmptyResponse = errors.New("empty response body")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrBadStatus     = errors.New("unexpected HTTP status")
	ErrBodyTooLarge  = errors.New("response body exceeds size limit")
)

// FetchError wraps transport-level failures for a single URL.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DiscoveryError reports a failure to fetch or parse the target page.
// It is never fatal: the engine logs it and falls back to the default path.
type DiscoveryError struct {
	URL    string
	Parser string
	Err    error
}

func (e *DiscoveryError) Error() string {
	if e.Parser != "" {
		return fmt.Sprintf("discovery error for %s (parser=%s): %v", e.URL, e.Parser, e.Err)
	}
	return fmt.Sprintf("discovery error for %s: %v", e.URL, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// DownloadError reports a failed icon download.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur while writing the icon to disk.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
