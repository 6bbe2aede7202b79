package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-article/internal/domain"
	"github.com/tendant/simple-article/internal/repository"
	"github.com/tendant/simple-article/internal/service"
	"github.com/tendant/simple-article/internal/storage"
)

// maxUploadSize bounds the multipart form parse for create/update requests
const maxUploadSize = 32 << 20 // 32 MB

// ArticleHandler handles HTTP requests for articles
type ArticleHandler struct {
	articleService *service.ArticleService
}

// NewArticleHandler creates a new article handler
func NewArticleHandler(articleService *service.ArticleService) *ArticleHandler {
	return &ArticleHandler{
		articleService: articleService,
	}
}

// Routes returns the routes for articles
func (h *ArticleHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListArticles)
	r.Post("/", h.CreateArticle)
	r.Get("/{id}", h.GetArticle)
	r.Put("/{id}", h.UpdateArticle)
	r.Patch("/{id}", h.UpdateArticle)
	r.Delete("/{id}", h.DeleteArticle)
	r.Get("/{id}/image", h.GetArticleImage)

	return r
}

// ListArticlesResponse is the response body for an article listing
type ListArticlesResponse struct {
	Articles   []*domain.Article     `json:"articles"`
	Pagination repository.Pagination `json:"pagination"`
}

// ArticleResponse is the response body for a single article
type ArticleResponse struct {
	Article *domain.Article `json:"article"`
	Message string          `json:"message,omitempty"`
}

// MessageResponse is the response body for operations with no record payload
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationErrorResponse is the response body for rejected input
type ValidationErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// ListArticles lists a page of articles with their authors
func (h *ArticleHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page")
	perPage := queryInt(r, "per_page")

	articles, pagination, err := h.articleService.List(r.Context(), page, perPage)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if articles == nil {
		articles = []*domain.Article{}
	}

	render.JSON(w, r, ListArticlesResponse{
		Articles:   articles,
		Pagination: pagination,
	})
}

// CreateArticle creates a new article from a multipart form
func (h *ArticleHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	params, err := articleParamsFromForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	article, err := h.articleService.Create(r.Context(), params)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, ArticleResponse{
		Article: article,
		Message: "New article has been created.",
	})
}

// GetArticle retrieves an article by ID
func (h *ArticleHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		http.Error(w, "Invalid article ID", http.StatusBadRequest)
		return
	}

	article, err := h.articleService.Get(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, ArticleResponse{Article: article})
}

// UpdateArticle updates an article from a multipart form. The image part
// is optional; without it the current image is kept.
func (h *ArticleHandler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		http.Error(w, "Invalid article ID", http.StatusBadRequest)
		return
	}

	params, err := articleParamsFromForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	article, err := h.articleService.Update(r.Context(), id, params)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, ArticleResponse{
		Article: article,
		Message: "Selected article has been updated.",
	})
}

// DeleteArticle deletes an article and its image blob
func (h *ArticleHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		http.Error(w, "Invalid article ID", http.StatusBadRequest)
		return
	}

	if err := h.articleService.Delete(r.Context(), id); err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, MessageResponse{Message: "Selected article has been deleted."})
}

// GetArticleImage streams the image blob attached to an article
func (h *ArticleHandler) GetArticleImage(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		http.Error(w, "Invalid article ID", http.StatusBadRequest)
		return
	}

	rc, err := h.articleService.DownloadImage(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		slog.Error("Failed to stream article image", "id", id, "err", err)
	}
}

// renderError maps service errors onto HTTP responses
func (h *ArticleHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, ValidationErrorResponse{
			Message: "The given data was invalid.",
			Errors:  verr.Fields,
		})
	case errors.Is(err, domain.ErrArticleNotFound), errors.Is(err, storage.ErrObjectNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, MessageResponse{Message: "Article not found."})
	default:
		slog.Error("Article request failed", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, MessageResponse{Message: "Internal server error."})
	}
}

// articleParamsFromForm reads title, body and the optional image file from
// a multipart form
func articleParamsFromForm(r *http.Request) (service.ArticleParams, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return service.ArticleParams{}, errors.New("expected a multipart form")
	}

	params := service.ArticleParams{
		Title: r.FormValue("title"),
		Body:  r.FormValue("body"),
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return service.ArticleParams{}, err
		}
		params.Image = &service.ImageUpload{
			Filename: header.Filename,
			Data:     data,
		}
	case errors.Is(err, http.ErrMissingFile):
		// Image part absent; validation decides whether that is allowed
	default:
		return service.ArticleParams{}, err
	}

	return params, nil
}

func articleID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}
