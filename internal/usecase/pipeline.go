package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/logging"
	"ArticleEnhancer/internal/ports"
)

// MinReferenceContent is the length a scraped reference must exceed to be used.
const MinReferenceContent = 500

// ContentExtractor recovers article fields from raw HTML.
type ContentExtractor interface {
	Extract(html, pageURL string) (*domain.Extraction, bool)
}

// ReferenceSource finds competing article URLs for a title.
type ReferenceSource interface {
	Find(ctx context.Context, title string) []string
}

// ArticleEnhancer rewrites an article from its references.
type ArticleEnhancer interface {
	Enhance(ctx context.Context, title, content string, refs []domain.Reference) (string, error)
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Store      ports.ArticleStore
	Fetcher    ports.Fetcher
	Extractor  ContentExtractor
	References ReferenceSource
	Enhancer   ArticleEnhancer
	Notifier   ports.Notifier
	Pacing     Pacing
	Sleep      Sleeper
	Logger     *slog.Logger
	// Limit caps how many originals one batch processes; zero means all.
	Limit int
	// SkipEnhanced skips originals that already have an updated record.
	SkipEnhanced bool
}

// Pipeline implements the per-article enhancement workflow.
type Pipeline struct {
	store        ports.ArticleStore
	fetcher      ports.Fetcher
	extractor    ContentExtractor
	references   ReferenceSource
	enhancer     ArticleEnhancer
	notifier     ports.Notifier
	pacing       Pacing
	sleep        Sleeper
	logger       *slog.Logger
	limit        int
	skipEnhanced bool
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Sleep == nil {
		deps.Sleep = SleepContext
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &Pipeline{
		store:        deps.Store,
		fetcher:      deps.Fetcher,
		extractor:    deps.Extractor,
		references:   deps.References,
		enhancer:     deps.Enhancer,
		notifier:     deps.Notifier,
		pacing:       deps.Pacing,
		sleep:        deps.Sleep,
		logger:       deps.Logger,
		limit:        deps.Limit,
		skipEnhanced: deps.SkipEnhanced,
	}
}

// RunBatch enhances every stored original, one at a time. It only returns an
// error when the store cannot be read up front or ctx is cancelled.
func (p *Pipeline) RunBatch(ctx context.Context) (domain.BatchReport, error) {
	var report domain.BatchReport

	originals, err := p.store.List(ctx, domain.TypeOriginal)
	if err != nil {
		return report, fmt.Errorf("list originals: %w", err)
	}

	enhanced := map[string]bool{}
	if p.skipEnhanced {
		existing, err := p.store.ListEnhanced(ctx)
		if err != nil {
			return report, fmt.Errorf("list enhanced: %w", err)
		}
		for _, e := range existing {
			enhanced[e.OriginalArticleID] = true
		}
	}

	if p.limit > 0 && len(originals) > p.limit {
		originals = originals[:p.limit]
	}

	p.logger.Info("starting enhancement batch", "articles", len(originals))
	if err := p.sleep(ctx, p.pacing.BeforeBatch); err != nil {
		return report, err
	}

	worked := false
	for i, article := range originals {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++

		if enhanced[article.ID] {
			outcome := skip(domain.Outcome{ArticleID: article.ID, Title: article.Title}, domain.SkipAlreadyEnhanced)
			report.Skipped = append(report.Skipped, outcome)
			p.logger.Info("article skipped", "index", i+1, "title", article.Title, "reason", outcome.Reason)
			continue
		}

		if worked {
			if err := p.sleep(ctx, p.pacing.BetweenArticles); err != nil {
				return report, err
			}
		}
		worked = true

		p.logger.Info("processing article", "index", i+1, "total", len(originals), "title", article.Title)
		outcome := p.ProcessArticle(ctx, article)
		if outcome.Done() {
			report.Succeeded++
			p.logger.Info("article enhanced", "title", article.Title, "enhanced_id", outcome.Enhanced.ID,
				"references", len(outcome.Enhanced.References))
			continue
		}
		report.Skipped = append(report.Skipped, outcome)
		p.logger.Warn("article skipped", "title", article.Title, "stage", outcome.FailedAt, "reason", outcome.Reason)
	}

	p.logger.Info("enhancement batch finished",
		"processed", report.Processed,
		"succeeded", report.Succeeded,
		"failed", report.Failed())

	p.notify(ctx, report)
	return report, nil
}

// ProcessArticle drives one original through
// SEARCHING → SCRAPING_REFS → ENHANCING → CITING → SAVING → DONE.
// Any stage failure ends in SKIPPED with the stage it happened in.
func (p *Pipeline) ProcessArticle(ctx context.Context, article domain.Article) domain.Outcome {
	out := domain.Outcome{ArticleID: article.ID, Title: article.Title, Stage: domain.StageSearching}

	urls := p.references.Find(ctx, article.Title)
	if len(urls) == 0 {
		return skip(out, domain.SkipNoSearchResults)
	}

	out.Stage = domain.StageScrapingRefs
	refs := p.scrapeReferences(ctx, urls)
	if len(refs) == 0 {
		return skip(out, domain.SkipScrapingFailed)
	}

	out.Stage = domain.StageEnhancing
	text, err := p.enhancer.Enhance(ctx, article.Title, article.Content, refs)
	if err != nil {
		return skip(out, domain.SkipAIFailed)
	}

	out.Stage = domain.StageCiting
	draft := domain.EnhancedArticle{
		Title:             article.Title + domain.EnhancedTitleSuffix,
		Content:           text + Citations(refs),
		Type:              domain.TypeUpdated,
		OriginalArticleID: article.ID,
		References:        referenceURLs(refs),
	}

	out.Stage = domain.StageSaving
	saved, err := p.store.CreateEnhanced(ctx, draft)
	if err != nil {
		p.logger.Warn("save failed", "title", article.Title, "error", err)
		return skip(out, domain.SkipSaveFailed)
	}

	out.Stage = domain.StageDone
	out.Enhanced = &saved
	return out
}

// scrapeReferences fetches candidates sequentially and keeps substantial ones.
func (p *Pipeline) scrapeReferences(ctx context.Context, urls []string) []domain.Reference {
	var refs []domain.Reference
	for i, url := range urls {
		if len(refs) >= MaxReferences {
			break
		}
		if i > 0 {
			if err := p.sleep(ctx, p.pacing.BetweenReferences); err != nil {
				return nil
			}
		}

		html, err := p.fetcher.Fetch(ctx, url, ports.FetchDirect)
		if err != nil {
			p.logger.Warn("reference fetch failed", "url", url, "error", err)
			continue
		}

		extraction, ok := p.extractor.Extract(html, url)
		if !ok {
			p.logger.Warn("reference extraction failed", "url", url)
			continue
		}
		if n := utf8.RuneCountInString(extraction.Content); n <= MinReferenceContent {
			p.logger.Warn("reference too short", "url", url, "length", n)
			continue
		}

		refs = append(refs, domain.Reference{URL: url, Content: extraction.Content})
		p.logger.Debug("reference scraped", "url", url, "length", utf8.RuneCountInString(extraction.Content))
	}
	return refs
}

// Citations renders the numbered reference section appended to every rewrite.
func Citations(refs []domain.Reference) string {
	var b strings.Builder
	b.WriteString("\n\n---\n\n## References\n\n")
	b.WriteString("This article was enhanced using insights from the following sources:\n\n")
	for i, ref := range refs {
		fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, ref.URL, ref.URL)
	}
	b.WriteString("\n*This article was updated to reflect insights from top-ranking articles on the same topic.*")
	return b.String()
}

func referenceURLs(refs []domain.Reference) []string {
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		urls = append(urls, ref.URL)
	}
	return urls
}

func skip(out domain.Outcome, reason domain.SkipReason) domain.Outcome {
	out.FailedAt = out.Stage
	out.Stage = domain.StageSkipped
	out.Reason = reason
	return out
}

func (p *Pipeline) notify(ctx context.Context, report domain.BatchReport) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.PublishDigest(ctx, FormatBatchReport(report)); err != nil {
		p.logger.Warn("publish batch summary failed", "error", err)
	}
}
