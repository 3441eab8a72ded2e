package app

import (
	"context"
	"testing"

	"ArticleEnhancer/internal/config"
	"ArticleEnhancer/internal/logging"
	"ArticleEnhancer/internal/ports"
)

func TestBuildSitesMapsRenderFlag(t *testing.T) {
	t.Parallel()

	sites, err := buildSites([]config.SiteConfig{
		{Name: "spa", ListingURL: "https://a.example/blogs/", Origin: "https://a.example", PathMarker: "blog", Render: true, MaxArticles: 3},
		{Name: "plain", ListingURL: "https://b.example/news/", Origin: "https://b.example", PathMarker: "news"},
	})
	if err != nil {
		t.Fatalf("buildSites: %v", err)
	}
	if len(sites) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(sites))
	}
	if sites[0].Mode != ports.FetchRendered || sites[0].MaxArticles != 3 || sites[0].Links == nil {
		t.Fatalf("unexpected first site: %+v", sites[0])
	}
	if sites[1].Mode != ports.FetchDirect {
		t.Fatalf("unexpected second site mode: %s", sites[1].Mode)
	}
}

func TestBuildSitesRejectsRelativeOrigin(t *testing.T) {
	t.Parallel()

	if _, err := buildSites([]config.SiteConfig{{Name: "bad", Origin: "/blogs"}}); err == nil {
		t.Fatal("expected error for relative origin")
	}
}

func TestNewRejectsUnknownStorageDriver(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Storage: config.StorageConfig{Driver: "sqlite"}}
	if _, err := New(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNewWiresAPIStore(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Storage: config.StorageConfig{Driver: config.StorageDriverAPI, APIBaseURL: "http://localhost:8000/api"},
		Sites:   []config.SiteConfig{{Name: "blog", ListingURL: "https://a.example/blogs/", Origin: "https://a.example", PathMarker: "blog"}},
	}
	application, err := New(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if application.pipeline == nil || application.harvester == nil || len(application.sites) != 1 {
		t.Fatal("application not fully wired")
	}
	if application.notifier != nil {
		t.Fatal("notifier should stay disabled without credentials")
	}
}
