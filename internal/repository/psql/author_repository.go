package psql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/tendant/simple-article/internal/domain"
)

// AuthorRepository implements the repository.AuthorRepository interface
// on PostgreSQL
type AuthorRepository struct {
	BaseRepository
}

// NewAuthorRepository creates a new PostgreSQL author repository
func NewAuthorRepository(db DBTX) *AuthorRepository {
	return &AuthorRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create implements AuthorRepository.Create
func (r *AuthorRepository) Create(ctx context.Context, author *domain.Author) error {
	query := `
		INSERT INTO authors (name, email)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRow(ctx, query, author.Name, author.Email).
		Scan(&author.ID, &author.CreatedAt, &author.UpdatedAt)
}

// Get implements AuthorRepository.Get
func (r *AuthorRepository) Get(ctx context.Context, id int64) (*domain.Author, error) {
	query := `
		SELECT id, name, email, created_at, updated_at
		FROM authors
		WHERE id = $1
	`

	author := &domain.Author{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&author.ID,
		&author.Name,
		&author.Email,
		&author.CreatedAt,
		&author.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuthorNotFound
		}
		return nil, err
	}

	return author, nil
}
