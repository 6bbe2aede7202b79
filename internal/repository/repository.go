package repository

import (
	"context"

	"github.com/tendant/simple-article/internal/domain"
)

// Pagination describes the page window returned by a listing
type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	PerPage      int  `json:"per_page"`
	TotalPages   int  `json:"total_pages"`
	TotalRecords int  `json:"total_records"`
	Next         *int `json:"next,omitempty"`
	Previous     *int `json:"previous,omitempty"`
}

// ArticleRepository defines the interface for article record operations.
// Reads return articles with the author association populated.
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	Get(ctx context.Context, id int64) (*domain.Article, error)
	Update(ctx context.Context, article *domain.Article) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, page, perPage int) ([]*domain.Article, Pagination, error)

	// TitleExists reports whether another article already uses the title.
	// A non-zero excludeID leaves that record out of the check.
	TitleExists(ctx context.Context, title string, excludeID int64) (bool, error)
}

// AuthorRepository defines the interface for author operations. Authors
// are read-only from this service apart from seeding.
type AuthorRepository interface {
	Create(ctx context.Context, author *domain.Author) error
	Get(ctx context.Context, id int64) (*domain.Author, error)
}
