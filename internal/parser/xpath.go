package parser

import (
	"bytes"
	"log/slog"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/iconfetch/internal/types"
)

const linkXPath = "//link[@rel and @href]"

// XPathDiscoverer finds icon links using XPath expressions.
type XPathDiscoverer struct {
	logger *slog.Logger
}

// NewXPathDiscoverer creates a new htmlquery-backed discoverer.
func NewXPathDiscoverer(logger *slog.Logger) *XPathDiscoverer {
	return &XPathDiscoverer{
		logger: logger.With("component", "xpath_parser"),
	}
}

func (p *XPathDiscoverer) Name() string { return "xpath" }

// Discover implements Discoverer.
func (p *XPathDiscoverer) Discover(resp *types.Response) ([]types.Candidate, error) {
	doc, err := html.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, &types.DiscoveryError{URL: pageURL(resp), Parser: p.Name(), Err: err}
	}

	nodes, err := htmlquery.QueryAll(doc, linkXPath)
	if err != nil {
		return nil, &types.DiscoveryError{URL: pageURL(resp), Parser: p.Name(), Err: err}
	}

	links := make([]iconLink, 0, len(nodes))
	for _, node := range nodes {
		links = append(links, iconLink{
			rel:  htmlquery.SelectAttr(node, "rel"),
			href: htmlquery.SelectAttr(node, "href"),
		})
	}

	candidates := rankCandidates(links, pageURL(resp))
	p.logger.Debug("links scanned", "links", len(links), "candidates", len(candidates))
	return candidates, nil
}
