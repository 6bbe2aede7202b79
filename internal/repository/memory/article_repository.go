package memory

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/tendant/simple-article/internal/domain"
	"github.com/tendant/simple-article/internal/repository"
)

// ArticleRepository is an in-memory implementation of the ArticleRepository
// interface. Listing preserves insertion order.
type ArticleRepository struct {
	mu       sync.RWMutex
	nextID   int64
	articles map[int64]*domain.Article
	order    []int64

	authors repository.AuthorRepository
}

// NewArticleRepository creates a new in-memory article repository. The
// author repository supplies the author association on reads.
func NewArticleRepository(authors repository.AuthorRepository) *ArticleRepository {
	return &ArticleRepository{
		articles: make(map[int64]*domain.Article),
		authors:  authors,
	}
}

// Create adds a new article to the repository and assigns its ID
func (r *ArticleRepository) Create(ctx context.Context, article *domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	article.ID = r.nextID

	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now

	stored := *article
	stored.Author = nil
	r.articles[article.ID] = &stored
	r.order = append(r.order, article.ID)
	return nil
}

// Get retrieves an article by ID with its author populated
func (r *ArticleRepository) Get(ctx context.Context, id int64) (*domain.Article, error) {
	r.mu.RLock()
	article, exists := r.articles[id]
	if !exists {
		r.mu.RUnlock()
		return nil, domain.ErrArticleNotFound
	}
	copied := *article
	r.mu.RUnlock()

	r.attachAuthor(ctx, &copied)
	return &copied, nil
}

// Update replaces an existing article
func (r *ArticleRepository) Update(ctx context.Context, article *domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.articles[article.ID]
	if !exists {
		return domain.ErrArticleNotFound
	}

	article.CreatedAt = existing.CreatedAt
	article.UpdatedAt = time.Now().UTC()

	stored := *article
	stored.Author = nil
	r.articles[article.ID] = &stored
	return nil
}

// Delete removes an article by ID
func (r *ArticleRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.articles[id]; !exists {
		return domain.ErrArticleNotFound
	}

	delete(r.articles, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// List retrieves a page of articles in insertion order with authors populated
func (r *ArticleRepository) List(ctx context.Context, page, perPage int) ([]*domain.Article, repository.Pagination, error) {
	r.mu.RLock()

	total := len(r.order)
	offset := (page - 1) * perPage

	var pageIDs []int64
	if offset < total {
		end := offset + perPage
		if end > total {
			end = total
		}
		pageIDs = append(pageIDs, r.order[offset:end]...)
	}

	articles := make([]*domain.Article, 0, len(pageIDs))
	for _, id := range pageIDs {
		copied := *r.articles[id]
		articles = append(articles, &copied)
	}
	r.mu.RUnlock()

	for _, article := range articles {
		r.attachAuthor(ctx, article)
	}

	return articles, paginate(page, perPage, total), nil
}

// TitleExists reports whether another article already uses the title
func (r *ArticleRepository) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, article := range r.articles {
		if article.Title == title && article.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *ArticleRepository) attachAuthor(ctx context.Context, article *domain.Article) {
	if r.authors == nil {
		return
	}
	if author, err := r.authors.Get(ctx, article.AuthorID); err == nil {
		article.Author = author
	}
}

func paginate(page, perPage, total int) repository.Pagination {
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	p := repository.Pagination{
		CurrentPage:  page,
		PerPage:      perPage,
		TotalPages:   totalPages,
		TotalRecords: total,
	}

	if page < totalPages {
		next := page + 1
		p.Next = &next
	}
	if page > 1 {
		prev := page - 1
		p.Previous = &prev
	}

	return p
}
