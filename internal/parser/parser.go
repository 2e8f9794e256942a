package parser

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/IshaanNene/iconfetch/internal/types"
)

// Discoverer extracts favicon candidates from a fetched page.
type Discoverer interface {
	// Discover returns candidate icon URLs, resolved against the page URL,
	// deduplicated and ordered by rel priority then document order.
	Discover(resp *types.Response) ([]types.Candidate, error)

	// Name returns the discoverer identifier.
	Name() string
}

// New returns the discoverer registered under name ("css" or "xpath").
func New(name string, logger *slog.Logger) (Discoverer, error) {
	switch name {
	case "", "css":
		return NewCSSDiscoverer(logger), nil
	case "xpath":
		return NewXPathDiscoverer(logger), nil
	default:
		return nil, fmt.Errorf("unsupported parser: %s", name)
	}
}

// iconLink is a <link> element with both rel and href, in document order.
type iconLink struct {
	rel  string
	href string
}

// relTokens splits a rel attribute into lower-cased tokens.
func relTokens(rel string) []string {
	return strings.Fields(strings.ToLower(rel))
}

// matchesTier reports whether a rel value belongs to the given tier.
// Tier icon matches any rel containing the "icon" token, so "shortcut icon"
// is claimed there first and the shortcut tier only sees leftovers.
func matchesTier(tier int, rel string) bool {
	tokens := relTokens(rel)
	switch tier {
	case types.TierShortcutIcon:
		return strings.Join(tokens, " ") == types.RelNames[types.TierShortcutIcon]
	default:
		want := types.RelNames[tier]
		for _, tok := range tokens {
			if tok == want {
				return true
			}
		}
		return false
	}
}

// rankCandidates turns raw links into the ordered, deduplicated candidate list.
func rankCandidates(links []iconLink, pageURL string) []types.Candidate {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var candidates []types.Candidate

	for tier := range types.RelNames {
		for _, link := range links {
			if !matchesTier(tier, link.rel) {
				continue
			}
			abs, ok := resolve(base, link.href)
			if !ok || seen[abs] {
				continue
			}
			seen[abs] = true
			candidates = append(candidates, types.Candidate{
				URL:  abs,
				Rel:  link.rel,
				Tier: tier,
			})
		}
	}

	return candidates
}

// resolve makes href absolute against base. Only http(s) results are kept.
func resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	resolved.Fragment = ""

	return resolved.String(), true
}

// pageURL is the URL candidates are anchored at: the URL that was requested.
func pageURL(resp *types.Response) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URLString()
	}
	return resp.FinalURL
}
