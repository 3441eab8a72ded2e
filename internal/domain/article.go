package domain

// ArticleType discriminates stored records.
type ArticleType string

const (
	TypeOriginal ArticleType = "original"
	TypeUpdated  ArticleType = "updated"
)

// EnhancedTitleSuffix marks the title of every rewritten article.
const EnhancedTitleSuffix = " (Updated)"

// Article is a scraped record awaiting enhancement. URL is unique among originals.
type Article struct {
	ID       string
	Title    string
	Content  string
	URL      string
	Author   string
	ImageURL string
	Type     ArticleType
}

// EnhancedArticle is the rewritten derivative of an original article.
type EnhancedArticle struct {
	ID                string
	Title             string
	Content           string
	Type              ArticleType
	OriginalArticleID string
	References        []string
}

// Reference is a competing article scraped during one pipeline run.
type Reference struct {
	URL     string
	Content string
}

// Extraction is what the extractor recovers from a single page.
type Extraction struct {
	Title    string
	Content  string
	Author   string
	ImageURL string
}
