package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxLinks caps how many article links one harvest returns.
const DefaultMaxLinks = 5

// anchorSelectors are tried in order; templates differ too much for one selector.
var anchorSelectors = []string{
	"article a[href]",
	"h2 a[href]",
	"h3 a[href]",
	".post-title a[href]",
	".entry-title a[href]",
	".blog-post a[href]",
	".card a[href]",
}

// Harvester discovers article links on a listing page.
type Harvester struct {
	origin *url.URL
	marker string
	max    int
}

// NewHarvester resolves links against origin and keeps hrefs containing marker.
func NewHarvester(origin, marker string, max int) (*Harvester, error) {
	parsed, err := url.Parse(origin)
	if err != nil || !parsed.IsAbs() {
		return nil, fmt.Errorf("invalid site origin %q", origin)
	}
	if max <= 0 {
		max = DefaultMaxLinks
	}
	return &Harvester{origin: parsed, marker: marker, max: max}, nil
}

// Harvest returns deduplicated absolute article URLs in discovery order.
func (h *Harvester) Harvest(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	links := make([]string, 0, h.max)
	seen := map[string]struct{}{}

	for _, selector := range anchorSelectors {
		if len(links) >= h.max {
			break
		}
		doc.Find(selector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			link, ok := h.accept(href)
			if !ok {
				return true
			}
			if _, dup := seen[link]; dup {
				return true
			}
			seen[link] = struct{}{}
			links = append(links, link)
			return len(links) < h.max
		})
	}

	return links, nil
}

func (h *Harvester) accept(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.Contains(href, "#") {
		return "", false
	}
	if h.marker != "" && !strings.Contains(href, h.marker) {
		return "", false
	}
	if pagePattern.MatchString(href) {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := h.origin.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return resolved.String(), true
}
