package articleapi

import (
	"bytes"
	"encoding/json"
	"strings"

	"ArticleEnhancer/internal/domain"
)

// flexibleID decodes both numeric and string identifiers.
type flexibleID string

func (id *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = flexibleID(n.String())
	return nil
}

type record struct {
	ID                flexibleID `json:"id,omitempty"`
	Title             string     `json:"title"`
	Content           string     `json:"content"`
	URL               string     `json:"url,omitempty"`
	Author            string     `json:"author,omitempty"`
	ImageURL          string     `json:"imageUrl,omitempty"`
	Type              string     `json:"type"`
	OriginalArticleID flexibleID `json:"originalArticleId,omitempty"`
	References        []string   `json:"references,omitempty"`
}

// kind falls back to the presence of an original link when type is omitted.
func (r record) kind() domain.ArticleType {
	if r.Type != "" {
		return domain.ArticleType(r.Type)
	}
	if r.OriginalArticleID != "" {
		return domain.TypeUpdated
	}
	return domain.TypeOriginal
}

func fromArticle(a domain.Article) record {
	return record{
		Title:    a.Title,
		Content:  a.Content,
		URL:      a.URL,
		Author:   a.Author,
		ImageURL: a.ImageURL,
		Type:     string(a.Type),
	}
}

func fromEnhanced(e domain.EnhancedArticle) record {
	return record{
		Title:             e.Title,
		Content:           e.Content,
		Type:              string(e.Type),
		OriginalArticleID: flexibleID(e.OriginalArticleID),
		References:        e.References,
	}
}

func (r record) toArticle() domain.Article {
	return domain.Article{
		ID:       strings.TrimSpace(string(r.ID)),
		Title:    r.Title,
		Content:  r.Content,
		URL:      r.URL,
		Author:   r.Author,
		ImageURL: r.ImageURL,
		Type:     r.kind(),
	}
}

func (r record) toEnhanced() domain.EnhancedArticle {
	return domain.EnhancedArticle{
		ID:                strings.TrimSpace(string(r.ID)),
		Title:             r.Title,
		Content:           r.Content,
		Type:              r.kind(),
		OriginalArticleID: string(r.OriginalArticleID),
		References:        r.References,
	}
}
