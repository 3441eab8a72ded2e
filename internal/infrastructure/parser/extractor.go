package parser

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"ArticleEnhancer/internal/domain"
)

const (
	// MinArticleContent is the floor below which an extraction is discarded.
	MinArticleContent = 100
	maxAuthorLength   = 120
)

var whitespaceExpr = regexp.MustCompile(`\s+`)

// noiseSelector matches elements that never carry article text.
const noiseSelector = "script, style, noscript, iframe, svg, nav, footer, aside, form, " +
	".advertisement, .ads, .ad, .adsbygoogle, [class*='sidebar'], [id*='sidebar'], " +
	"[class*='comment'], [id*='comment'], .social-share, .share-buttons, .related-posts"

// Page-level classes such as "right-sidebar" or "comments-open" also hit
// noiseSelector, so neither these elements nor anything holding contentRegion
// is ever stripped.
const (
	pageWrappers  = "html, body, main, article"
	contentRegion = ".entry-content, .post-content, .article-content, .blog-content, .post-body, " +
		"main, [role='main'], h1, article:not([class*='comment'])"
)

// lookup returns the first candidate value it finds in doc, or "".
type lookup func(doc *goquery.Document) string

func textOf(selector string) lookup {
	return func(doc *goquery.Document) string {
		return collapse(doc.Find(selector).First().Text())
	}
}

func attrOf(selector, attr string) lookup {
	return func(doc *goquery.Document) string {
		v, _ := doc.Find(selector).First().Attr(attr)
		return strings.TrimSpace(v)
	}
}

var titleLookups = []lookup{
	textOf("h1.entry-title"),
	textOf("h1.post-title"),
	textOf("article h1"),
	textOf(".blog-title"),
	attrOf(`meta[property="og:title"]`, "content"),
	textOf("h1"),
	textOf("title"),
}

var contentSelectors = []string{
	".entry-content",
	".post-content",
	".article-content",
	".blog-content",
	".post-body",
	"article .content",
	"article",
	"main",
	"[role='main']",
	"#content",
	".content",
}

var authorLookups = []lookup{
	textOf(".author-name"),
	textOf(".entry-author"),
	textOf("[rel='author']"),
	textOf(".byline"),
	textOf(".author"),
	attrOf(`meta[name="author"]`, "content"),
}

var imageLookups = []lookup{
	attrOf(`meta[property="og:image"]`, "content"),
	attrOf(".featured-image img", "src"),
	attrOf(".wp-post-image", "src"),
	attrOf("article img", "src"),
}

// ExtractorOptions tunes the content cascade.
type ExtractorOptions struct {
	// MinContent is the length a selector match must exceed to be accepted outright.
	MinContent int
	// MaxContent truncates the content; zero keeps it whole.
	MaxContent int
}

// Extractor recovers title, body, author and lead image from arbitrary markup.
type Extractor struct {
	opts ExtractorOptions
}

// NewExtractor builds an extractor with the given thresholds.
func NewExtractor(opts ExtractorOptions) *Extractor {
	if opts.MinContent < 0 {
		opts.MinContent = 0
	}
	if opts.MaxContent < 0 {
		opts.MaxContent = 0
	}
	return &Extractor{opts: opts}
}

// Extract parses html fetched from pageURL. It reports false when no title or
// fewer than MinArticleContent characters of text could be recovered.
func (e *Extractor) Extract(html, pageURL string) (*domain.Extraction, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false
	}
	stripNoise(doc)

	title := firstOf(doc, titleLookups)
	if title == "" {
		return nil, false
	}

	content := e.content(doc, html, pageURL)
	if e.opts.MaxContent > 0 {
		content = truncate(content, e.opts.MaxContent)
	}
	if utf8.RuneCountInString(content) < MinArticleContent {
		return nil, false
	}

	return &domain.Extraction{
		Title:    title,
		Content:  content,
		Author:   e.author(doc),
		ImageURL: resolve(pageURL, firstOf(doc, imageLookups)),
	}, true
}

func (e *Extractor) content(doc *goquery.Document, html, pageURL string) string {
	var fallback string
	for _, selector := range contentSelectors {
		text := collapse(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if utf8.RuneCountInString(text) > e.opts.MinContent {
			return text
		}
		if fallback == "" {
			fallback = text
		}
	}

	if text := readableText(html, pageURL); utf8.RuneCountInString(text) > e.opts.MinContent {
		return text
	}
	if fallback != "" {
		return fallback
	}
	return collapse(doc.Find("body").Text())
}

func (e *Extractor) author(doc *goquery.Document) string {
	for _, l := range authorLookups {
		v := l(doc)
		if v != "" && utf8.RuneCountInString(v) <= maxAuthorLength {
			return v
		}
	}
	return ""
}

// readableText runs go-readability over the untouched document.
func readableText(html, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil || !parsed.IsAbs() {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return ""
	}
	return collapse(article.TextContent)
}

func stripNoise(doc *goquery.Document) {
	doc.Find(noiseSelector).
		Not(pageWrappers).
		FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.Find(contentRegion).Length() == 0
		}).
		Remove()
	doc.Find("header").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered("article").Length() == 0 {
			s.Remove()
		}
	})
}

func firstOf(doc *goquery.Document, lookups []lookup) string {
	for _, l := range lookups {
		if v := l(doc); v != "" {
			return v
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceExpr.ReplaceAllString(s, " "))
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// resolve turns a relative reference into an absolute URL against base.
func resolve(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if refURL.IsAbs() {
		return refURL.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
