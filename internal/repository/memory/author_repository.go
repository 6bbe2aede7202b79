package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tendant/simple-article/internal/domain"
)

// AuthorRepository is an in-memory implementation of the AuthorRepository interface
type AuthorRepository struct {
	mu      sync.RWMutex
	nextID  int64
	authors map[int64]*domain.Author
}

// NewAuthorRepository creates a new in-memory author repository
func NewAuthorRepository() *AuthorRepository {
	return &AuthorRepository{
		authors: make(map[int64]*domain.Author),
	}
}

// Create adds a new author to the repository and assigns its ID
func (r *AuthorRepository) Create(ctx context.Context, author *domain.Author) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	author.ID = r.nextID

	now := time.Now().UTC()
	author.CreatedAt = now
	author.UpdatedAt = now

	stored := *author
	r.authors[author.ID] = &stored
	return nil
}

// Get retrieves an author by ID
func (r *AuthorRepository) Get(ctx context.Context, id int64) (*domain.Author, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	author, exists := r.authors[id]
	if !exists {
		return nil, domain.ErrAuthorNotFound
	}

	copied := *author
	return &copied, nil
}
