package engine

import (
	"net/url"
	"strings"
)

// attemptSet records icon URLs already downloaded-or-failed during one run,
// so the default path is not requested twice when a page links to it.
type attemptSet map[string]struct{}

func (a attemptSet) seen(rawURL string) bool {
	_, ok := a[CanonicalizeURL(rawURL)]
	return ok
}

func (a attemptSet) mark(rawURL string) {
	a[CanonicalizeURL(rawURL)] = struct{}{}
}

// CanonicalizeURL normalizes a URL for comparison:
// - lowercases scheme and host
// - removes fragment
// - removes default ports (80 for http, 443 for https)
// - ensures the path is at least "/"
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = strings.TrimSuffix(u.Host, ":"+port)
	}

	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// DefaultFaviconURL returns <scheme>://<host>/favicon.ico for a page URL.
func DefaultFaviconURL(pageURL *url.URL) string {
	u := url.URL{
		Scheme: pageURL.Scheme,
		Host:   pageURL.Host,
		Path:   "/favicon.ico",
	}
	return u.String()
}
