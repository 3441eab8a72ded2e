// Package search queries the Google Programmable Search JSON API.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ArticleEnhancer/internal/config"
	"ArticleEnhancer/internal/ports"
)

// GoogleClient implements ports.SearchEngine.
type GoogleClient struct {
	endpoint string
	apiKey   string
	engineID string
	http     *http.Client
}

var _ ports.SearchEngine = (*GoogleClient)(nil)

// NewGoogleClient builds a client from configuration.
func NewGoogleClient(cfg config.SearchConfig, client *http.Client) *GoogleClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &GoogleClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
		http:     client,
	}
}

type searchResponse struct {
	Items []struct {
		Link string `json:"link"`
	} `json:"items"`
}

// Search returns result links in the order the API ranked them.
func (c *GoogleClient) Search(ctx context.Context, query string, count int) ([]string, error) {
	if c.apiKey == "" || c.engineID == "" || c.endpoint == "" {
		return nil, fmt.Errorf("search client misconfigured")
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("search error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	links := make([]string, 0, len(decoded.Items))
	for _, item := range decoded.Items {
		links = append(links, item.Link)
	}
	return links, nil
}
