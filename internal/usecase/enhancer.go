package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/logging"
	"ArticleEnhancer/internal/ports"
)

const (
	maxPromptOriginal  = 2000
	maxPromptReference = 1500
	referenceMissing   = "Not available"
	defaultTemperature = 0.7
)

// ErrAuthorization is matched by generators that reject credentials.
var ErrAuthorization = errors.New("generation not authorized")

// EnhancerOptions carries the generation parameters.
type EnhancerOptions struct {
	SystemRole      string
	MaxOutputTokens int
	// Temperature is the sampling temperature; nil means 0.7.
	Temperature *float64
	// AuthErr is the generator's sentinel for rejected credentials.
	AuthErr error
}

// Enhancer rewrites an article in the style of its references.
type Enhancer struct {
	generator ports.Generator
	opts      EnhancerOptions
	logger    *slog.Logger
}

// NewEnhancer defaults to 4000 output tokens at temperature 0.7.
func NewEnhancer(generator ports.Generator, opts EnhancerOptions, logger *slog.Logger) *Enhancer {
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = 4000
	}
	if opts.Temperature == nil {
		t := defaultTemperature
		opts.Temperature = &t
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Enhancer{generator: generator, opts: opts, logger: logger}
}

// Enhance returns the rewritten article text.
func (e *Enhancer) Enhance(ctx context.Context, title, content string, refs []domain.Reference) (string, error) {
	if e.generator == nil {
		return "", fmt.Errorf("enhance %q: no generator configured", title)
	}

	text, err := e.generator.Generate(ctx, ports.GenerationRequest{
		SystemRole:      e.opts.SystemRole,
		UserPrompt:      BuildPrompt(title, content, refs),
		MaxOutputTokens: e.opts.MaxOutputTokens,
		Temperature:     *e.opts.Temperature,
	})
	if err != nil {
		if e.opts.AuthErr != nil && errors.Is(err, e.opts.AuthErr) {
			e.logger.Error("generation rejected credentials, check the API key", "title", title, "error", err)
			return "", fmt.Errorf("%w: %w", ErrAuthorization, err)
		}
		e.logger.Warn("generation failed", "title", title, "error", err)
		return "", fmt.Errorf("enhance %q: %w", title, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("enhance %q: empty rewrite", title)
	}
	return text, nil
}

// BuildPrompt embeds the original and up to two reference bodies into the rewrite instructions.
func BuildPrompt(title, content string, refs []domain.Reference) string {
	slots := [MaxReferences]string{referenceMissing, referenceMissing}
	for i := 0; i < len(refs) && i < MaxReferences; i++ {
		slots[i] = clip(refs[i].Content, maxPromptReference)
	}

	var b strings.Builder
	b.WriteString("You are rewriting an article so it can compete with the top-ranking articles on the same topic.\n\n")

	b.WriteString("ORIGINAL ARTICLE\n")
	fmt.Fprintf(&b, "Title: %s\n", title)
	fmt.Fprintf(&b, "Content:\n%s\n\n", clip(content, maxPromptOriginal))

	for i, slot := range slots {
		fmt.Fprintf(&b, "REFERENCE ARTICLE %d\n%s\n\n", i+1, slot)
	}

	b.WriteString("INSTRUCTIONS\n")
	b.WriteString("1. Match the style, tone and structure of the reference articles.\n")
	b.WriteString("2. Keep the core message of the original article and expand it with comparable depth.\n")
	b.WriteString("3. Write between 1000 and 1500 words.\n")
	b.WriteString("4. Use markdown headings: one # title, ## for sections and ### for subsections.\n")
	b.WriteString("5. Make it SEO friendly with clear sections, short paragraphs and natural keywords.\n")
	b.WriteString("6. Output only the article. Do not mention that it was rewritten, do not describe your changes and do not add notes about the references.\n")

	return b.String()
}

func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
