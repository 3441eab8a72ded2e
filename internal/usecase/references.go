package usecase

import (
	"context"
	"log/slog"
	"strings"

	"ArticleEnhancer/internal/logging"
	"ArticleEnhancer/internal/ports"
)

// MaxReferences caps how many competing articles feed one rewrite.
const MaxReferences = 2

// ReferenceFinder turns an article title into candidate reference URLs.
type ReferenceFinder struct {
	engine  ports.SearchEngine
	blocked []string
	max     int
	logger  *slog.Logger
}

// NewReferenceFinder filters engine results against blocked domain substrings.
func NewReferenceFinder(engine ports.SearchEngine, blocked []string, max int, logger *slog.Logger) *ReferenceFinder {
	if max <= 0 || max > MaxReferences {
		max = MaxReferences
	}
	if logger == nil {
		logger = logging.Discard()
	}
	normalized := make([]string, 0, len(blocked))
	for _, d := range blocked {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			normalized = append(normalized, d)
		}
	}
	return &ReferenceFinder{engine: engine, blocked: normalized, max: max, logger: logger}
}

// Find returns at most max usable URLs; any search failure yields none.
func (f *ReferenceFinder) Find(ctx context.Context, title string) []string {
	if f.engine == nil {
		return nil
	}

	candidates, err := f.engine.Search(ctx, title, f.max)
	if err != nil {
		f.logger.Warn("search failed", "title", title, "error", err)
		return nil
	}

	urls := filterCandidates(candidates, f.blocked, f.max)
	f.logger.Debug("search candidates", "title", title, "returned", len(candidates), "kept", len(urls))
	return urls
}

// filterCandidates keeps API order and stops once max URLs are accepted.
func filterCandidates(candidates, blocked []string, max int) []string {
	var urls []string
	for _, link := range candidates {
		if len(urls) >= max {
			break
		}
		link = strings.TrimSpace(link)
		if link == "" || !strings.HasPrefix(link, "http") {
			continue
		}
		if isBlocked(link, blocked) {
			continue
		}
		urls = append(urls, link)
	}
	return urls
}

func isBlocked(link string, blocked []string) bool {
	lower := strings.ToLower(link)
	for _, domain := range blocked {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}
