package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/logging"
	"ArticleEnhancer/internal/ports"
)

// LinkHarvester discovers article links on a listing page.
type LinkHarvester interface {
	Harvest(html string) ([]string, error)
}

// Site is one listing to harvest originals from.
type Site struct {
	Name        string
	ListingURL  string
	Mode        ports.FetchMode
	MaxArticles int
	Links       LinkHarvester
}

// HarvestDeps wires the harvesting path.
type HarvestDeps struct {
	Store     ports.ArticleStore
	Fetcher   ports.Fetcher
	Extractor ContentExtractor
	// LastPage reads the highest pagination number from a listing page.
	LastPage func(html string) int
	// PageURL builds the listing URL of page n.
	PageURL func(base string, n int) string
	Pacing  Pacing
	Sleep   Sleeper
	Logger  *slog.Logger
}

// HarvestService turns listing pages into stored original articles.
type HarvestService struct {
	store     ports.ArticleStore
	fetcher   ports.Fetcher
	extractor ContentExtractor
	lastPage  func(string) int
	pageURL   func(string, int) string
	pacing    Pacing
	sleep     Sleeper
	logger    *slog.Logger
}

// NewHarvestService constructs the harvesting use case.
func NewHarvestService(deps HarvestDeps) *HarvestService {
	if deps.Sleep == nil {
		deps.Sleep = SleepContext
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.LastPage == nil {
		deps.LastPage = func(string) int { return 1 }
	}
	if deps.PageURL == nil {
		deps.PageURL = func(base string, _ int) string { return base }
	}
	return &HarvestService{
		store:     deps.Store,
		fetcher:   deps.Fetcher,
		extractor: deps.Extractor,
		lastPage:  deps.LastPage,
		pageURL:   deps.PageURL,
		pacing:    deps.Pacing,
		sleep:     deps.Sleep,
		logger:    deps.Logger,
	}
}

// Run harvests every site. The only error is an unreachable store or a cancelled ctx.
func (h *HarvestService) Run(ctx context.Context, sites []Site) ([]domain.HarvestReport, error) {
	existing, err := h.store.List(ctx, domain.TypeOriginal)
	if err != nil {
		return nil, fmt.Errorf("list originals: %w", err)
	}

	known := make(map[string]bool, len(existing))
	for _, a := range existing {
		known[a.URL] = true
	}

	reports := make([]domain.HarvestReport, 0, len(sites))
	for _, site := range sites {
		report, err := h.harvestSite(ctx, site, known)
		reports = append(reports, report)
		if err != nil {
			return reports, err
		}
		h.logger.Info("site harvested",
			"site", site.Name,
			"last_page", report.LastPage,
			"discovered", report.Discovered,
			"created", report.Created,
			"duplicates", report.Duplicates,
			"discarded", report.Discarded)
	}
	return reports, nil
}

// FindLastPage never fails; any problem means a single page.
func (h *HarvestService) FindLastPage(ctx context.Context, listingURL string, mode ports.FetchMode) int {
	last, _ := h.inspectListing(ctx, listingURL, mode)
	return last
}

// inspectListing also returns the listing HTML so page walking can reuse it.
func (h *HarvestService) inspectListing(ctx context.Context, listingURL string, mode ports.FetchMode) (int, string) {
	html, err := h.fetcher.Fetch(ctx, listingURL, mode)
	if err != nil {
		h.logger.Warn("pagination lookup failed, assuming one page", "url", listingURL, "error", err)
		return 1, ""
	}
	if last := h.lastPage(html); last > 1 {
		return last, html
	}
	return 1, html
}

func (h *HarvestService) harvestSite(ctx context.Context, site Site, known map[string]bool) (domain.HarvestReport, error) {
	report := domain.HarvestReport{Site: site.Name}
	if site.Links == nil {
		return report, nil
	}

	lastPage, listingHTML := h.inspectListing(ctx, site.ListingURL, site.Mode)
	report.LastPage = lastPage
	links, err := h.collectLinks(ctx, site, lastPage, listingHTML)
	if err != nil {
		return report, err
	}
	report.Discovered = len(links)

	fetched := false
	for _, link := range links {
		if known[link] {
			report.Duplicates++
			h.logger.Debug("article already stored", "url", link)
			continue
		}

		if fetched {
			if err := h.sleep(ctx, h.pacing.BetweenPages); err != nil {
				return report, err
			}
		}
		fetched = true

		extraction, ok := h.scrapeArticle(ctx, link, site.Mode)
		if !ok {
			report.Discarded++
			continue
		}

		created, err := h.store.CreateOriginal(ctx, domain.Article{
			Title:    extraction.Title,
			Content:  extraction.Content,
			URL:      link,
			Author:   extraction.Author,
			ImageURL: extraction.ImageURL,
			Type:     domain.TypeOriginal,
		})
		if err != nil {
			report.Discarded++
			h.logger.Warn("save original failed", "url", link, "error", err)
			continue
		}
		known[link] = true
		report.Created++
		h.logger.Info("original stored", "id", created.ID, "title", created.Title, "url", link)
	}

	return report, nil
}

// collectLinks walks listing pages from last to first until MaxArticles links
// are found. listingHTML, when set, stands in for the page at site.ListingURL.
func (h *HarvestService) collectLinks(ctx context.Context, site Site, lastPage int, listingHTML string) ([]string, error) {
	max := site.MaxArticles
	if max <= 0 {
		max = 5
	}

	var links []string
	seen := map[string]bool{}
	for page := lastPage; page >= 1 && len(links) < max; page-- {
		pageURL := h.pageURL(site.ListingURL, page)

		html := ""
		if pageURL == site.ListingURL {
			html = listingHTML
		}
		if html == "" {
			if err := h.sleep(ctx, h.pacing.BetweenPages); err != nil {
				return links, err
			}

			var err error
			html, err = h.fetcher.Fetch(ctx, pageURL, site.Mode)
			if err != nil {
				h.logger.Warn("listing fetch failed", "url", pageURL, "error", err)
				continue
			}
		}

		found, err := site.Links.Harvest(html)
		if err != nil {
			h.logger.Warn("listing parse failed", "url", pageURL, "error", err)
			continue
		}
		for _, link := range found {
			if seen[link] || len(links) >= max {
				continue
			}
			seen[link] = true
			links = append(links, link)
		}
	}
	return links, nil
}

// scrapeArticle fetches directly and retries once with a render when the
// site needs JavaScript and the plain response was unusable.
func (h *HarvestService) scrapeArticle(ctx context.Context, link string, mode ports.FetchMode) (*domain.Extraction, bool) {
	html, err := h.fetcher.Fetch(ctx, link, ports.FetchDirect)
	if err == nil {
		if extraction, ok := h.extractor.Extract(html, link); ok {
			return extraction, true
		}
	}
	if mode != ports.FetchRendered {
		h.logger.Warn("article discarded", "url", link, "error", err)
		return nil, false
	}

	html, err = h.fetcher.Fetch(ctx, link, ports.FetchRendered)
	if err != nil {
		h.logger.Warn("article render failed", "url", link, "error", err)
		return nil, false
	}
	extraction, ok := h.extractor.Extract(html, link)
	if !ok {
		h.logger.Warn("article discarded after render", "url", link)
	}
	return extraction, ok
}
