// Package articleapi talks to the CRUD service that owns article records.
package articleapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

// Client implements ports.ArticleStore over the article CRUD API.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ ports.ArticleStore = (*Client)(nil)

// NewClient creates a reusable HTTP client rooted at baseURL (e.g. http://host/api).
func NewClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    client,
	}
}

// List returns every record of the given type.
func (c *Client) List(ctx context.Context, articleType domain.ArticleType) ([]domain.Article, error) {
	records, err := c.list(ctx, articleType)
	if err != nil {
		return nil, err
	}

	articles := make([]domain.Article, 0, len(records))
	for _, rec := range records {
		articles = append(articles, rec.toArticle())
	}
	return articles, nil
}

// ListEnhanced returns every "updated" record.
func (c *Client) ListEnhanced(ctx context.Context) ([]domain.EnhancedArticle, error) {
	records, err := c.list(ctx, domain.TypeUpdated)
	if err != nil {
		return nil, err
	}

	enhanced := make([]domain.EnhancedArticle, 0, len(records))
	for _, rec := range records {
		enhanced = append(enhanced, rec.toEnhanced())
	}
	return enhanced, nil
}

// CreateOriginal stores a harvested article.
func (c *Client) CreateOriginal(ctx context.Context, article domain.Article) (domain.Article, error) {
	article.Type = domain.TypeOriginal

	var created record
	if err := c.do(ctx, http.MethodPost, "/articles", fromArticle(article), &created); err != nil {
		return domain.Article{}, fmt.Errorf("create original %s: %w", article.URL, err)
	}
	return created.toArticle(), nil
}

// CreateEnhanced stores a rewritten article.
func (c *Client) CreateEnhanced(ctx context.Context, article domain.EnhancedArticle) (domain.EnhancedArticle, error) {
	article.Type = domain.TypeUpdated

	var created record
	if err := c.do(ctx, http.MethodPost, "/articles", fromEnhanced(article), &created); err != nil {
		return domain.EnhancedArticle{}, fmt.Errorf("create enhanced for %s: %w", article.OriginalArticleID, err)
	}
	return created.toEnhanced(), nil
}

func (c *Client) list(ctx context.Context, articleType domain.ArticleType) ([]record, error) {
	path := "/articles?" + url.Values{"type": {string(articleType)}}.Encode()

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, fmt.Errorf("list %s articles: %w", articleType, err)
	}

	records, err := decodeList(raw)
	if err != nil {
		return nil, fmt.Errorf("list %s articles: %w", articleType, err)
	}

	// Some deployments ignore the filter; enforce it client-side.
	filtered := records[:0]
	for _, rec := range records {
		if rec.kind() == articleType {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

// decodeList accepts a bare array or an envelope {"data": [...]}.
func decodeList(raw json.RawMessage) ([]record, error) {
	var records []record
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}

	var envelope struct {
		Data []record `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return envelope.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, v any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
