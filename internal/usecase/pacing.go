package usecase

import (
	"context"
	"time"

	"ArticleEnhancer/internal/config"
)

// Pacing holds the fixed delays inserted between external calls.
type Pacing struct {
	BeforeBatch       time.Duration
	BetweenArticles   time.Duration
	BetweenReferences time.Duration
	BetweenPages      time.Duration
}

// DefaultPacing is 2s warm-up, 3s between articles, 1s between reference and page fetches.
func DefaultPacing() Pacing {
	return Pacing{
		BeforeBatch:       2 * time.Second,
		BetweenArticles:   3 * time.Second,
		BetweenReferences: time.Second,
		BetweenPages:      time.Second,
	}
}

// PacingFromConfig maps configured delays onto Pacing.
func PacingFromConfig(cfg config.PacingConfig) Pacing {
	return Pacing{
		BeforeBatch:       cfg.BeforeBatch,
		BetweenArticles:   cfg.BetweenArticles,
		BetweenReferences: cfg.BetweenReferences,
		BetweenPages:      cfg.BetweenPages,
	}
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
