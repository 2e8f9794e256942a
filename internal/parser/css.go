package parser

import (
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/iconfetch/internal/types"
)

// CSSDiscoverer finds icon links using CSS selectors via goquery.
type CSSDiscoverer struct {
	logger *slog.Logger
}

// NewCSSDiscoverer creates a new goquery-backed discoverer.
func NewCSSDiscoverer(logger *slog.Logger) *CSSDiscoverer {
	return &CSSDiscoverer{
		logger: logger.With("component", "css_parser"),
	}
}

func (p *CSSDiscoverer) Name() string { return "css" }

// Discover implements Discoverer.
func (p *CSSDiscoverer) Discover(resp *types.Response) ([]types.Candidate, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, &types.DiscoveryError{URL: pageURL(resp), Parser: p.Name(), Err: err}
	}

	var links []iconLink
	doc.Find("link[rel][href]").Each(func(_ int, sel *goquery.Selection) {
		rel, _ := sel.Attr("rel")
		href, _ := sel.Attr("href")
		links = append(links, iconLink{rel: rel, href: href})
	})

	candidates := rankCandidates(links, pageURL(resp))
	p.logger.Debug("links scanned", "links", len(links), "candidates", len(candidates))
	return candidates, nil
}
