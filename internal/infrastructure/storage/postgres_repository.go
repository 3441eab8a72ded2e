package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

//go:embed schema.sql
var schemaSQL string

// ErrDuplicateURL is returned when an original with the same url already exists.
var ErrDuplicateURL = errors.New("article url already stored")

var articleColumns = []string{
	"id", "title", "content", "url", "author", "image_url",
	"type", "original_article_id", "reference_urls",
}

// PostgresRepository persists original and enhanced articles into Postgres.
type PostgresRepository struct {
	db    *sql.DB
	psql  sq.StatementBuilderType
	newID func() string
}

var _ ports.ArticleStore = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:    db,
		psql:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		newID: func() string { return uuid.NewString() },
	}
}

// Open connects with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the articles table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// List returns every article of the given type in insertion order.
func (r *PostgresRepository) List(ctx context.Context, articleType domain.ArticleType) ([]domain.Article, error) {
	rows, err := r.selectByType(ctx, articleType)
	if err != nil {
		return nil, err
	}

	articles := make([]domain.Article, 0, len(rows))
	for _, row := range rows {
		articles = append(articles, row.article())
	}
	return articles, nil
}

// ListEnhanced returns every updated article.
func (r *PostgresRepository) ListEnhanced(ctx context.Context) ([]domain.EnhancedArticle, error) {
	rows, err := r.selectByType(ctx, domain.TypeUpdated)
	if err != nil {
		return nil, err
	}

	enhanced := make([]domain.EnhancedArticle, 0, len(rows))
	for _, row := range rows {
		enhanced = append(enhanced, row.enhanced())
	}
	return enhanced, nil
}

// CreateOriginal inserts a harvested article; a known url yields ErrDuplicateURL.
func (r *PostgresRepository) CreateOriginal(ctx context.Context, article domain.Article) (domain.Article, error) {
	article.ID = r.newID()
	article.Type = domain.TypeOriginal

	query, args, err := r.psql.
		Insert("articles").
		Columns("id", "title", "content", "url", "author", "image_url", "type").
		Values(article.ID, article.Title, article.Content, article.URL,
			nullable(article.Author), nullable(article.ImageURL), string(article.Type)).
		Suffix("ON CONFLICT (url) DO NOTHING").
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Article{}, fmt.Errorf("insert original: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Article{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.Article{}, fmt.Errorf("%w: %s", ErrDuplicateURL, article.URL)
	}

	return article, nil
}

// CreateEnhanced inserts a rewritten article linked to its original.
func (r *PostgresRepository) CreateEnhanced(ctx context.Context, article domain.EnhancedArticle) (domain.EnhancedArticle, error) {
	article.ID = r.newID()
	article.Type = domain.TypeUpdated

	query, args, err := r.psql.
		Insert("articles").
		Columns("id", "title", "content", "type", "original_article_id", "reference_urls").
		Values(article.ID, article.Title, article.Content, string(article.Type),
			nullable(article.OriginalArticleID), pq.Array(article.References)).
		ToSql()
	if err != nil {
		return domain.EnhancedArticle{}, fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return domain.EnhancedArticle{}, fmt.Errorf("insert enhanced: %w", err)
	}
	return article, nil
}

type articleRow struct {
	id         string
	title      string
	content    string
	url        sql.NullString
	author     sql.NullString
	imageURL   sql.NullString
	kind       string
	originalID sql.NullString
	references pq.StringArray
}

func (row articleRow) article() domain.Article {
	return domain.Article{
		ID:       row.id,
		Title:    row.title,
		Content:  row.content,
		URL:      row.url.String,
		Author:   row.author.String,
		ImageURL: row.imageURL.String,
		Type:     domain.ArticleType(row.kind),
	}
}

func (row articleRow) enhanced() domain.EnhancedArticle {
	return domain.EnhancedArticle{
		ID:                row.id,
		Title:             row.title,
		Content:           row.content,
		Type:              domain.ArticleType(row.kind),
		OriginalArticleID: row.originalID.String,
		References:        []string(row.references),
	}
}

func (r *PostgresRepository) selectByType(ctx context.Context, articleType domain.ArticleType) ([]articleRow, error) {
	query, args, err := r.psql.
		Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"type": string(articleType)}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s articles: %w", articleType, err)
	}

	var result []articleRow
	for rows.Next() {
		var row articleRow
		if err := rows.Scan(&row.id, &row.title, &row.content, &row.url, &row.author,
			&row.imageURL, &row.kind, &row.originalID, &row.references); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan article: %w", err)
		}
		result = append(result, row)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
