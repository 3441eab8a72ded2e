package ports

import (
	"context"
	"time"

	"ArticleEnhancer/internal/domain"
)

// FetchMode selects how raw HTML is retrieved.
type FetchMode string

const (
	FetchDirect   FetchMode = "direct"
	FetchRendered FetchMode = "rendered"
)

// Fetcher retrieves raw HTML for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string, mode FetchMode) (string, error)
}

// ArticleStore is the persistence collaborator for original and updated records.
type ArticleStore interface {
	List(ctx context.Context, articleType domain.ArticleType) ([]domain.Article, error)
	ListEnhanced(ctx context.Context) ([]domain.EnhancedArticle, error)
	CreateOriginal(ctx context.Context, article domain.Article) (domain.Article, error)
	CreateEnhanced(ctx context.Context, article domain.EnhancedArticle) (domain.EnhancedArticle, error)
}

// SearchEngine returns candidate result links for a query, in ranking order.
type SearchEngine interface {
	Search(ctx context.Context, query string, count int) ([]string, error)
}

// Generator is a black-box text-completion capability.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// GenerationRequest carries one system/user prompt pair.
type GenerationRequest struct {
	SystemRole      string
	UserPrompt      string
	MaxOutputTokens int
	Temperature     float64
}

// Notifier streams batch summaries to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
