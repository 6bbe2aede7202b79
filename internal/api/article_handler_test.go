package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-article/internal/domain"
	memoryrepo "github.com/tendant/simple-article/internal/repository/memory"
	"github.com/tendant/simple-article/internal/service"
	memorystorage "github.com/tendant/simple-article/internal/storage/memory"
)

func setupHandlerTest(t *testing.T) (http.Handler, *memorystorage.MemoryBackend) {
	t.Helper()

	authors := memoryrepo.NewAuthorRepository()
	author := &domain.Author{Name: "Admin", Email: "admin@example.com"}
	require.NoError(t, authors.Create(context.Background(), author))

	repo := memoryrepo.NewArticleRepository(authors)
	backend := memorystorage.NewMemoryBackend()
	svc := service.NewArticleService(repo, backend, author.ID)

	return NewArticleHandler(svc).Routes(), backend
}

func pngBytes() []byte {
	sig := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	return append(sig, make([]byte, 64)...)
}

// multipartBody builds a multipart form with the given fields and an
// optional image part
func multipartBody(t *testing.T, fields map[string]string, imageName string, imageData []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if imageName != "" {
		fw, err := mw.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = fw.Write(imageData)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	return body, mw.FormDataContentType()
}

func createArticle(t *testing.T, router http.Handler, title string) int64 {
	t.Helper()

	body, contentType := multipartBody(t, map[string]string{
		"title": title,
		"body":  "This is the article body.",
	}, "cover.png", pngBytes())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Article domain.Article `json:"article"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Article.ID
}

func TestArticleHandler_Create(t *testing.T) {
	router, backend := setupHandlerTest(t)

	body, contentType := multipartBody(t, map[string]string{
		"title": "Hello World!!",
		"body":  "This is the article body.",
	}, "cover.png", pngBytes())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Article domain.Article `json:"article"`
		Message string         `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "New article has been created.", resp.Message)
	assert.Equal(t, "hello-world", resp.Article.Slug)
	assert.NotZero(t, resp.Article.ID)
	assert.Equal(t, 1, backend.Len())
}

func TestArticleHandler_Create_ValidationError(t *testing.T) {
	router, backend := setupHandlerTest(t)

	body, contentType := multipartBody(t, map[string]string{
		"title": "abcd",
		"body":  "This is the article body.",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "title")
	assert.Contains(t, resp.Errors, "image")
	assert.Equal(t, 0, backend.Len())
}

func TestArticleHandler_Create_NotMultipart(t *testing.T) {
	router, _ := setupHandlerTest(t)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArticleHandler_List(t *testing.T) {
	router, _ := setupHandlerTest(t)

	for i := 1; i <= 3; i++ {
		createArticle(t, router, fmt.Sprintf("Post Number %d", i))
	}

	req := httptest.NewRequest(http.MethodGet, "/?per_page=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Articles   []domain.Article `json:"articles"`
		Pagination struct {
			CurrentPage  int `json:"current_page"`
			PerPage      int `json:"per_page"`
			TotalPages   int `json:"total_pages"`
			TotalRecords int `json:"total_records"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Articles, 2)
	assert.Equal(t, "Post Number 1", resp.Articles[0].Title)
	require.NotNil(t, resp.Articles[0].Author)
	assert.Equal(t, "Admin", resp.Articles[0].Author.Name)
	assert.Equal(t, 3, resp.Pagination.TotalRecords)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
}

func TestArticleHandler_List_Empty(t *testing.T) {
	router, _ := setupHandlerTest(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"articles":[]`)
}

func TestArticleHandler_Get(t *testing.T) {
	router, _ := setupHandlerTest(t)
	id := createArticle(t, router, "Hello World")

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/%d", id), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Article domain.Article `json:"article"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Hello World", resp.Article.Title)
	require.NotNil(t, resp.Article.Author)
}

func TestArticleHandler_Get_NotFound(t *testing.T) {
	router, _ := setupHandlerTest(t)

	req := httptest.NewRequest(http.MethodGet, "/999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArticleHandler_Get_InvalidID(t *testing.T) {
	router, _ := setupHandlerTest(t)

	req := httptest.NewRequest(http.MethodGet, "/not-a-number", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArticleHandler_Update(t *testing.T) {
	router, backend := setupHandlerTest(t)
	id := createArticle(t, router, "Hello World")

	// No image part: the stored image is kept
	body, contentType := multipartBody(t, map[string]string{
		"title": "Hello Updated World",
		"body":  "This is the updated body.",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/%d", id), body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Article domain.Article `json:"article"`
		Message string         `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Selected article has been updated.", resp.Message)
	assert.Equal(t, "hello-updated-world", resp.Article.Slug)
	assert.Equal(t, 1, backend.Len())
}

func TestArticleHandler_Update_Patch(t *testing.T) {
	router, _ := setupHandlerTest(t)
	id := createArticle(t, router, "Hello World")

	body, contentType := multipartBody(t, map[string]string{
		"title": "Hello World",
		"body":  "This is the patched body.",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/%d", id), body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestArticleHandler_Update_NotFound(t *testing.T) {
	router, _ := setupHandlerTest(t)

	body, contentType := multipartBody(t, map[string]string{
		"title": "Hello World",
		"body":  "This is the article body.",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPut, "/999", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArticleHandler_Delete(t *testing.T) {
	router, backend := setupHandlerTest(t)
	id := createArticle(t, router, "Hello World")

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/%d", id), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Selected article has been deleted.")
	assert.Equal(t, 0, backend.Len())

	// The article is gone
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/%d", id), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArticleHandler_GetImage(t *testing.T) {
	router, _ := setupHandlerTest(t)
	id := createArticle(t, router, "Hello World")

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/%d/image", id), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngBytes(), rec.Body.Bytes())
}
