// Package fetcher retrieves raw HTML either with a plain GET or a headless browser render.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ArticleEnhancer/internal/config"
	"ArticleEnhancer/internal/ports"
)

// ErrStatus is returned when the target answers with a non-2xx status.
var ErrStatus = errors.New("unexpected status")

// maxBodyBytes bounds how much of a page is read into memory.
const maxBodyBytes = 8 << 20

// Options configures both fetch modes.
type Options struct {
	UserAgent     string
	Timeout       time.Duration
	RenderTimeout time.Duration
	RenderSettle  time.Duration
	ChromePath    string
}

// OptionsFromConfig maps fetcher settings onto Options.
func OptionsFromConfig(cfg config.FetcherConfig) Options {
	return Options{
		UserAgent:     cfg.UserAgent,
		Timeout:       cfg.Timeout,
		RenderTimeout: cfg.RenderTimeout,
		RenderSettle:  cfg.RenderSettle,
		ChromePath:    cfg.ChromePath,
	}
}

// Fetcher implements ports.Fetcher.
type Fetcher struct {
	opts   Options
	client *http.Client
	render func(ctx context.Context, url string) (string, error)
}

var _ ports.Fetcher = (*Fetcher)(nil)

// New wires an HTTP client; a nil client gets one bounded by opts.Timeout.
func New(opts Options, client *http.Client) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = 30 * time.Second
	}
	if opts.RenderSettle < 0 {
		opts.RenderSettle = 0
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	f := &Fetcher{opts: opts, client: client}
	f.render = f.renderWithBrowser
	return f
}

// Fetch returns the page HTML using the requested mode.
func (f *Fetcher) Fetch(ctx context.Context, url string, mode ports.FetchMode) (string, error) {
	switch mode {
	case ports.FetchRendered:
		return f.render(ctx, url)
	case ports.FetchDirect, "":
		return f.direct(ctx, url)
	default:
		return "", fmt.Errorf("unknown fetch mode %q", mode)
	}
}

func (f *Fetcher) direct(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w %s from %s", ErrStatus, resp.Status, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	return string(body), nil
}
