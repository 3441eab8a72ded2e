package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"ArticleEnhancer/internal/domain"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewPostgresRepository(db)
	repo.newID = func() string { return "11111111-1111-1111-1111-111111111111" }
	return repo, mock
}

func TestPostgresRepository_List(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(articleColumns).
		AddRow("a-1", "First", "body one", "https://site.example/blogs/one", "Jane", nil, "original", nil, "{}").
		AddRow("a-2", "Second", "body two", "https://site.example/blogs/two", nil, "https://site.example/i.png", "original", nil, "{}")

	mock.ExpectQuery(`SELECT (.+) FROM articles WHERE type = \$1 ORDER BY created_at ASC`).
		WithArgs("original").
		WillReturnRows(rows)

	articles, err := repo.List(context.Background(), domain.TypeOriginal)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Author != "Jane" || articles[0].ImageURL != "" {
		t.Errorf("unexpected first article: %+v", articles[0])
	}
	if articles[1].URL != "https://site.example/blogs/two" || articles[1].Type != domain.TypeOriginal {
		t.Errorf("unexpected second article: %+v", articles[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresRepository_ListEnhanced(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(articleColumns).
		AddRow("u-1", "First (Updated)", "rewritten", nil, nil, nil, "updated", "a-1", "{https://r.example/1,https://r.example/2}")

	mock.ExpectQuery(`SELECT (.+) FROM articles WHERE type = \$1`).
		WithArgs("updated").
		WillReturnRows(rows)

	enhanced, err := repo.ListEnhanced(context.Background())
	if err != nil {
		t.Fatalf("ListEnhanced() error = %v", err)
	}
	if len(enhanced) != 1 {
		t.Fatalf("expected 1 record, got %d", len(enhanced))
	}
	if enhanced[0].OriginalArticleID != "a-1" || len(enhanced[0].References) != 2 {
		t.Errorf("unexpected record: %+v", enhanced[0])
	}
}

func TestPostgresRepository_CreateOriginal(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO articles \(id,title,content,url,author,image_url,type\) VALUES (.+) ON CONFLICT \(url\) DO NOTHING`).
		WithArgs("11111111-1111-1111-1111-111111111111", "First", "body", "https://site.example/blogs/one", "Jane", nil, "original").
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := repo.CreateOriginal(context.Background(), domain.Article{
		Title:   "First",
		Content: "body",
		URL:     "https://site.example/blogs/one",
		Author:  "Jane",
	})
	if err != nil {
		t.Fatalf("CreateOriginal() error = %v", err)
	}
	if created.ID == "" || created.Type != domain.TypeOriginal {
		t.Errorf("unexpected created article: %+v", created)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresRepository_CreateOriginalDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO articles`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.CreateOriginal(context.Background(), domain.Article{Title: "First", Content: "body", URL: "https://site.example/blogs/one"})
	if !errors.Is(err, ErrDuplicateURL) {
		t.Fatalf("expected ErrDuplicateURL, got %v", err)
	}
}

func TestPostgresRepository_CreateEnhanced(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO articles \(id,title,content,type,original_article_id,reference_urls\)`).
		WithArgs(sqlmock.AnyArg(), "First (Updated)", "rewritten", "updated", "a-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := repo.CreateEnhanced(context.Background(), domain.EnhancedArticle{
		Title:             "First (Updated)",
		Content:           "rewritten",
		OriginalArticleID: "a-1",
		References:        []string{"https://r.example/1"},
	})
	if err != nil {
		t.Fatalf("CreateEnhanced() error = %v", err)
	}
	if created.Type != domain.TypeUpdated {
		t.Errorf("unexpected type: %s", created.Type)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresRepository_EnsureSchema(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS articles`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
}
