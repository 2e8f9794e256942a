package types

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Request tags.
const (
	TagPage = "page"
	TagIcon = "icon"
)

// Request represents a single HTTP GET issued by a fetcher.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Method is the HTTP method. Always GET in practice.
	Method string

	// Headers are custom HTTP headers to send with the request.
	Headers http.Header

	// Timeout overrides the fetcher's default timeout for this request.
	Timeout time.Duration

	// Tag marks the request as a page fetch or an icon download.
	Tag string
}

// NewRequest creates a new GET Request.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w %q: missing scheme or host", ErrInvalidURL, rawURL)
	}

	return &Request{
		URL:     u,
		Method:  http.MethodGet,
		Headers: make(http.Header),
		Tag:     TagPage,
	}, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Domain returns the lower-cased hostname of the request URL, without port.
func (r *Request) Domain() string {
	if r.URL == nil {
		return ""
	}
	return strings.ToLower(r.URL.Hostname())
}
