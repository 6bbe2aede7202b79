package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tendant/simple-article/internal/domain"
	"github.com/tendant/simple-article/internal/repository"
	"github.com/tendant/simple-article/internal/storage"
)

const (
	titleMinLength = 5
	titleMaxLength = 190
	bodyMinLength  = 10
	bodyMaxLength  = 100000

	// Logical prefix for article image blobs in the storage backend
	imagePrefix = "article-images"

	// DefaultPerPage is the page size used when the caller gives none
	DefaultPerPage = 15
	maxPerPage     = 100
)

// allowedImageTypes maps accepted sniffed MIME types to a canonical
// file extension
var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/bmp":  "bmp",
}

var allowedImageExtensions = map[string]bool{
	"jpeg": true,
	"jpg":  true,
	"png":  true,
	"bmp":  true,
}

// ImageUpload is an image file submitted with a create or update
type ImageUpload struct {
	Filename string
	Data     []byte
}

// ArticleParams carries the caller-supplied fields for a create or update.
// Image is required on create and optional on update.
type ArticleParams struct {
	Title string
	Body  string
	Image *ImageUpload
}

// ArticleService orchestrates validation, slug derivation, image blob
// handling and repository calls for the article lifecycle
type ArticleService struct {
	repo            repository.ArticleRepository
	blobs           storage.Backend
	defaultAuthorID int64
}

// NewArticleService creates a new article service. Created articles are
// attributed to defaultAuthorID; there is no authenticated caller to take
// an identity from.
func NewArticleService(repo repository.ArticleRepository, blobs storage.Backend, defaultAuthorID int64) *ArticleService {
	return &ArticleService{
		repo:            repo,
		blobs:           blobs,
		defaultAuthorID: defaultAuthorID,
	}
}

// List retrieves a page of articles with their authors. Page defaults to 1,
// perPage to DefaultPerPage, capped at maxPerPage.
func (s *ArticleService) List(ctx context.Context, page, perPage int) ([]*domain.Article, repository.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return s.repo.List(ctx, page, perPage)
}

// Create validates the params, stores the image blob and inserts the
// record. On validation failure nothing is persisted and the returned
// *domain.ValidationError names every failing field.
func (s *ArticleService) Create(ctx context.Context, params ArticleParams) (*domain.Article, error) {
	ext, err := s.validate(ctx, params, 0, true)
	if err != nil {
		return nil, err
	}

	name := randomImageName(ext)
	key := imageKey(name)
	if err := s.blobs.Upload(ctx, key, bytes.NewReader(params.Image.Data)); err != nil {
		return nil, &domain.StorageError{Key: key, Op: "upload", Err: err}
	}

	article := &domain.Article{
		Title:    params.Title,
		Slug:     domain.Slugify(params.Title),
		Body:     params.Body,
		Image:    name,
		AuthorID: s.defaultAuthorID,
	}
	if err := s.repo.Create(ctx, article); err != nil {
		return nil, err
	}

	return article, nil
}

// Get retrieves an article by ID with its author
func (s *ArticleService) Get(ctx context.Context, id int64) (*domain.Article, error) {
	return s.repo.Get(ctx, id)
}

// Update validates the params and saves the record. The title uniqueness
// check excludes the record itself, so keeping the same title is allowed.
// When a replacement image is supplied the prior blob is deleted before
// the new one is stored; without one the image name is left unchanged.
// The slug is recomputed from the new title either way.
func (s *ArticleService) Update(ctx context.Context, id int64, params ArticleParams) (*domain.Article, error) {
	article, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ext, err := s.validate(ctx, params, id, false)
	if err != nil {
		return nil, err
	}

	if params.Image != nil {
		oldKey := imageKey(article.Image)
		if err := s.blobs.Delete(ctx, oldKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			return nil, &domain.StorageError{Key: oldKey, Op: "delete", Err: err}
		}

		name := randomImageName(ext)
		key := imageKey(name)
		if err := s.blobs.Upload(ctx, key, bytes.NewReader(params.Image.Data)); err != nil {
			return nil, &domain.StorageError{Key: key, Op: "upload", Err: err}
		}
		article.Image = name
	}

	article.Title = params.Title
	article.Slug = domain.Slugify(params.Title)
	article.Body = params.Body

	if err := s.repo.Update(ctx, article); err != nil {
		return nil, err
	}

	return article, nil
}

// Delete removes an article's blob and then its record. If the blob
// deletion fails the record is left in place; a blob that is already gone
// is not an error.
func (s *ArticleService) Delete(ctx context.Context, id int64) error {
	article, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	key := imageKey(article.Image)
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return &domain.StorageError{Key: key, Op: "delete", Err: err}
	}

	return s.repo.Delete(ctx, id)
}

// DownloadImage streams the image blob attached to an article
func (s *ArticleService) DownloadImage(ctx context.Context, id int64) (io.ReadCloser, error) {
	article, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := imageKey(article.Image)
	rc, err := s.blobs.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, err
		}
		return nil, &domain.StorageError{Key: key, Op: "download", Err: err}
	}

	return rc, nil
}

// validate checks every field and collects all failures. It returns the
// file extension to store the image under when an image is present and
// valid.
func (s *ArticleService) validate(ctx context.Context, params ArticleParams, excludeID int64, imageRequired bool) (string, error) {
	verr := domain.NewValidationError()

	if params.Title == "" {
		verr.Add("title", "title is required")
	} else {
		switch n := utf8.RuneCountInString(params.Title); {
		case n < titleMinLength:
			verr.Add("title", "title must be at least 5 characters")
		case n > titleMaxLength:
			verr.Add("title", "title may not be greater than 190 characters")
		}

		taken, err := s.repo.TitleExists(ctx, params.Title, excludeID)
		if err != nil {
			return "", err
		}
		if taken {
			verr.Add("title", "title has already been taken")
		}
	}

	if params.Body == "" {
		verr.Add("body", "body is required")
	} else {
		switch n := utf8.RuneCountInString(params.Body); {
		case n < bodyMinLength:
			verr.Add("body", "body must be at least 10 characters")
		case n > bodyMaxLength:
			verr.Add("body", "body may not be greater than 100000 characters")
		}
	}

	ext := ""
	if params.Image == nil {
		if imageRequired {
			verr.Add("image", "image is required")
		}
	} else {
		ext = imageExtension(params.Image)
		if ext == "" {
			verr.Add("image", "image must be a file of type: jpeg, jpg, png, bmp")
		}
	}

	if verr.Any() {
		return "", verr
	}
	return ext, nil
}

// imageExtension sniffs the upload's content and returns the extension to
// store it under, or "" when the content is not an accepted image format.
// The caller's extension is kept when it belongs to the accepted set.
func imageExtension(img *ImageUpload) string {
	sample := img.Data
	if len(sample) > 512 {
		sample = sample[:512]
	}

	canonical, ok := allowedImageTypes[http.DetectContentType(sample)]
	if !ok {
		return ""
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(img.Filename)), ".")
	if allowedImageExtensions[ext] {
		return ext
	}
	return canonical
}

// randomImageName builds a 32 character random blob name plus the
// extension. The name space is large enough that collisions are not
// checked for.
func randomImageName(ext string) string {
	id := uuid.New()
	return hex.EncodeToString(id[:]) + "." + ext
}

func imageKey(name string) string {
	return imagePrefix + "/" + name
}
