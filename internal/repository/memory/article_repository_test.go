package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-article/internal/domain"
)

func setupRepos(t *testing.T) (*ArticleRepository, *domain.Author) {
	t.Helper()

	authors := NewAuthorRepository()
	author := &domain.Author{Name: "Admin", Email: "admin@example.com"}
	require.NoError(t, authors.Create(context.Background(), author))

	return NewArticleRepository(authors), author
}

func newArticle(author *domain.Author, title string) *domain.Article {
	return &domain.Article{
		Title:    title,
		Slug:     domain.Slugify(title),
		Body:     "body text long enough",
		Image:    "abc123.png",
		AuthorID: author.ID,
	}
}

func TestArticleRepository_CreateAssignsIDs(t *testing.T) {
	repo, author := setupRepos(t)
	ctx := context.Background()

	first := newArticle(author, "First Post")
	second := newArticle(author, "Second Post")

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())
}

func TestArticleRepository_GetJoinsAuthor(t *testing.T) {
	repo, author := setupRepos(t)
	ctx := context.Background()

	article := newArticle(author, "First Post")
	require.NoError(t, repo.Create(ctx, article))

	got, err := repo.Get(ctx, article.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Author)
	assert.Equal(t, author.ID, got.Author.ID)
	assert.Equal(t, "Admin", got.Author.Name)
}

func TestArticleRepository_GetMissing(t *testing.T) {
	repo, _ := setupRepos(t)

	_, err := repo.Get(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrArticleNotFound)
}

func TestArticleRepository_ListInsertionOrder(t *testing.T) {
	repo, author := setupRepos(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.Create(ctx, newArticle(author, fmt.Sprintf("Post Number %d", i))))
	}

	articles, pagination, err := repo.List(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "Post Number 1", articles[0].Title)
	assert.Equal(t, "Post Number 2", articles[1].Title)
	assert.Equal(t, 5, pagination.TotalRecords)
	assert.Equal(t, 3, pagination.TotalPages)
	require.NotNil(t, pagination.Next)
	assert.Equal(t, 2, *pagination.Next)
	assert.Nil(t, pagination.Previous)

	articles, pagination, err = repo.List(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Post Number 5", articles[0].Title)
	assert.Nil(t, pagination.Next)
	require.NotNil(t, pagination.Previous)

	// Page beyond the data is empty but still carries metadata
	articles, pagination, err = repo.List(ctx, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, articles)
	assert.Equal(t, 5, pagination.TotalRecords)
}

func TestArticleRepository_UpdateMissing(t *testing.T) {
	repo, author := setupRepos(t)

	article := newArticle(author, "Ghost Post")
	article.ID = 42
	assert.ErrorIs(t, repo.Update(context.Background(), article), domain.ErrArticleNotFound)
}

func TestArticleRepository_Delete(t *testing.T) {
	repo, author := setupRepos(t)
	ctx := context.Background()

	article := newArticle(author, "First Post")
	require.NoError(t, repo.Create(ctx, article))

	require.NoError(t, repo.Delete(ctx, article.ID))
	_, err := repo.Get(ctx, article.ID)
	assert.ErrorIs(t, err, domain.ErrArticleNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, article.ID), domain.ErrArticleNotFound)
}

func TestArticleRepository_TitleExists(t *testing.T) {
	repo, author := setupRepos(t)
	ctx := context.Background()

	article := newArticle(author, "Hello World")
	require.NoError(t, repo.Create(ctx, article))

	exists, err := repo.TitleExists(ctx, "Hello World", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.TitleExists(ctx, "Hello World", article.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.TitleExists(ctx, "hello world", 0)
	require.NoError(t, err)
	assert.False(t, exists)
}
