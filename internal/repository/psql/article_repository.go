package psql

import (
	"context"
	"errors"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/tendant/simple-article/internal/domain"
	"github.com/tendant/simple-article/internal/repository"
)

// ArticleRepository implements the repository.ArticleRepository interface
// on PostgreSQL
type ArticleRepository struct {
	BaseRepository
}

// NewArticleRepository creates a new PostgreSQL article repository
func NewArticleRepository(db DBTX) *ArticleRepository {
	return &ArticleRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create implements ArticleRepository.Create
func (r *ArticleRepository) Create(ctx context.Context, article *domain.Article) error {
	query := `
		INSERT INTO articles (title, slug, body, image, author_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRow(
		ctx,
		query,
		article.Title,
		article.Slug,
		article.Body,
		article.Image,
		article.AuthorID,
	).Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
}

// Get implements ArticleRepository.Get
func (r *ArticleRepository) Get(ctx context.Context, id int64) (*domain.Article, error) {
	query := `
		SELECT
			a.id, a.title, a.slug, a.body, a.image, a.author_id,
			a.created_at, a.updated_at,
			u.id, u.name, u.email, u.created_at, u.updated_at
		FROM articles a
		JOIN authors u ON u.id = a.author_id
		WHERE a.id = $1
	`

	article := &domain.Article{Author: &domain.Author{}}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&article.ID,
		&article.Title,
		&article.Slug,
		&article.Body,
		&article.Image,
		&article.AuthorID,
		&article.CreatedAt,
		&article.UpdatedAt,
		&article.Author.ID,
		&article.Author.Name,
		&article.Author.Email,
		&article.Author.CreatedAt,
		&article.Author.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArticleNotFound
		}
		return nil, err
	}

	return article, nil
}

// Update implements ArticleRepository.Update
func (r *ArticleRepository) Update(ctx context.Context, article *domain.Article) error {
	query := `
		UPDATE articles
		SET title = $2, slug = $3, body = $4, image = $5,
			updated_at = (now() AT TIME ZONE 'utc')
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		article.ID,
		article.Title,
		article.Slug,
		article.Body,
		article.Image,
	).Scan(&article.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrArticleNotFound
	}
	return err
}

// Delete implements ArticleRepository.Delete
func (r *ArticleRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrArticleNotFound
	}
	return nil
}

// List implements ArticleRepository.List. Articles come back in insertion
// order with their authors joined.
func (r *ArticleRepository) List(ctx context.Context, page, perPage int) ([]*domain.Article, repository.Pagination, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM articles`).Scan(&total); err != nil {
		return nil, repository.Pagination{}, err
	}

	offset := (page - 1) * perPage
	query := `
		SELECT
			a.id, a.title, a.slug, a.body, a.image, a.author_id,
			a.created_at, a.updated_at,
			u.id, u.name, u.email, u.created_at, u.updated_at
		FROM articles a
		JOIN authors u ON u.id = a.author_id
		ORDER BY a.id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, perPage, offset)
	if err != nil {
		return nil, repository.Pagination{}, err
	}
	defer rows.Close()

	var articles []*domain.Article
	for rows.Next() {
		article := &domain.Article{Author: &domain.Author{}}
		if err := rows.Scan(
			&article.ID,
			&article.Title,
			&article.Slug,
			&article.Body,
			&article.Image,
			&article.AuthorID,
			&article.CreatedAt,
			&article.UpdatedAt,
			&article.Author.ID,
			&article.Author.Name,
			&article.Author.Email,
			&article.Author.CreatedAt,
			&article.Author.UpdatedAt,
		); err != nil {
			return nil, repository.Pagination{}, err
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.Pagination{}, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	pagination := repository.Pagination{
		CurrentPage:  page,
		PerPage:      perPage,
		TotalPages:   totalPages,
		TotalRecords: total,
	}
	if page < totalPages {
		next := page + 1
		pagination.Next = &next
	}
	if page > 1 {
		prev := page - 1
		pagination.Previous = &prev
	}

	return articles, pagination, nil
}

// TitleExists implements ArticleRepository.TitleExists. The comparison is
// case-sensitive, matching the column collation.
func (r *ArticleRepository) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM articles WHERE title = $1 AND id <> $2
		)`, title, excludeID).Scan(&exists)
	return exists, err
}
