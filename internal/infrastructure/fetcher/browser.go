package fetcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const networkAlmostIdle = "networkAlmostIdle"

// mainFrameIdle closes done when the top-level document of the current
// navigation reports networkAlmostIdle. Iframes, the initial about:blank and
// earlier loaders are ignored.
type mainFrameIdle struct {
	mu     sync.Mutex
	frame  cdp.FrameID
	loader cdp.LoaderID
	done   chan struct{}
	once   sync.Once
}

func newMainFrameIdle() *mainFrameIdle {
	return &mainFrameIdle{done: make(chan struct{})}
}

func (m *mainFrameIdle) observe(ev interface{}) {
	switch e := ev.(type) {
	case *page.EventFrameNavigated:
		if e.Frame == nil || e.Frame.ParentID != "" || e.Frame.URL == "about:blank" {
			return
		}
		m.mu.Lock()
		m.frame, m.loader = e.Frame.ID, e.Frame.LoaderID
		m.mu.Unlock()
	case *page.EventLifecycleEvent:
		if e.Name != networkAlmostIdle {
			return
		}
		m.mu.Lock()
		match := m.loader != "" && e.FrameID == m.frame && e.LoaderID == m.loader
		m.mu.Unlock()
		if match {
			m.once.Do(func() { close(m.done) })
		}
	}
}

// renderWithBrowser launches a private headless Chrome, renders url and tears
// the browser down before returning. Nothing is shared between calls.
func (f *Fetcher) renderWithBrowser(ctx context.Context, targetURL string) (string, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(f.opts.UserAgent),
		chromedp.WindowSize(1366, 900),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
	)
	if f.opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(f.opts.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	timeoutCtx, timeoutCancel := context.WithTimeout(allocCtx, f.opts.RenderTimeout)
	defer timeoutCancel()

	browserCtx, browserCancel := chromedp.NewContext(timeoutCtx)
	defer browserCancel()

	idle := newMainFrameIdle()
	chromedp.ListenTarget(browserCtx, idle.observe)

	var html string
	err := chromedp.Run(browserCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": "en-US,en;q=0.9",
		}),
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(targetURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			select {
			case <-idle.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
		chromedp.Sleep(f.opts.RenderSettle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", targetURL, err)
	}
	return html, nil
}
