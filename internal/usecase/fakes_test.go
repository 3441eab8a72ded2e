package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

type fakeStore struct {
	mu        sync.Mutex
	originals []domain.Article
	enhanced  []domain.EnhancedArticle
	listErr   error
	saveErr   error
	created   []domain.Article
	saved     []domain.EnhancedArticle
}

func (s *fakeStore) List(_ context.Context, t domain.ArticleType) ([]domain.Article, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Article
	for _, a := range s.originals {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) ListEnhanced(context.Context) ([]domain.EnhancedArticle, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.EnhancedArticle(nil), s.enhanced...), nil
}

func (s *fakeStore) CreateOriginal(_ context.Context, a domain.Article) (domain.Article, error) {
	if s.saveErr != nil {
		return domain.Article{}, s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = fmt.Sprintf("orig-%d", len(s.originals)+1)
	s.originals = append(s.originals, a)
	s.created = append(s.created, a)
	return a, nil
}

func (s *fakeStore) CreateEnhanced(_ context.Context, e domain.EnhancedArticle) (domain.EnhancedArticle, error) {
	if s.saveErr != nil {
		return domain.EnhancedArticle{}, s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = fmt.Sprintf("upd-%d", len(s.enhanced)+1)
	s.enhanced = append(s.enhanced, e)
	s.saved = append(s.saved, e)
	return e, nil
}

type fetchCall struct {
	URL  string
	Mode ports.FetchMode
}

// fakeFetcher serves pages keyed by URL; rendered holds pages only a browser sees.
type fakeFetcher struct {
	pages    map[string]string
	rendered map[string]string
	calls    []fetchCall
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, mode ports.FetchMode) (string, error) {
	f.calls = append(f.calls, fetchCall{URL: url, Mode: mode})
	if mode == ports.FetchRendered {
		if html, ok := f.rendered[url]; ok {
			return html, nil
		}
	}
	if html, ok := f.pages[url]; ok {
		return html, nil
	}
	return "", errors.New("fetch: 404")
}

func (f *fakeFetcher) count(url string) int {
	n := 0
	for _, c := range f.calls {
		if c.URL == url {
			n++
		}
	}
	return n
}

// fakeExtractor treats the HTML as "title|content".
type fakeExtractor struct{}

func (fakeExtractor) Extract(html, _ string) (*domain.Extraction, bool) {
	title, content, ok := strings.Cut(html, "|")
	if !ok || title == "" || content == "" {
		return nil, false
	}
	return &domain.Extraction{Title: title, Content: content}, true
}

type fakeFinder struct {
	urls  []string
	calls int
}

func (f *fakeFinder) Find(context.Context, string) []string {
	f.calls++
	return f.urls
}

type fakeEnhancer struct {
	text  string
	err   error
	calls int
	refs  []domain.Reference
}

func (f *fakeEnhancer) Enhance(_ context.Context, _, _ string, refs []domain.Reference) (string, error) {
	f.calls++
	f.refs = refs
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeSearch struct {
	links []string
	err   error
	count int
}

func (f *fakeSearch) Search(_ context.Context, _ string, count int) ([]string, error) {
	f.count = count
	return f.links, f.err
}

type fakeGenerator struct {
	text string
	err  error
	req  ports.GenerationRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req ports.GenerationRequest) (string, error) {
	f.req = req
	return f.text, f.err
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) PublishDigest(_ context.Context, msg string) error {
	f.messages = append(f.messages, msg)
	return nil
}

// recordingSleeper never blocks and remembers every requested delay.
type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func page(title string, n int) string {
	return title + "|" + strings.Repeat("x", n)
}
