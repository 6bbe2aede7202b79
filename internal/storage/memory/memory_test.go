package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-article/internal/storage"
)

func TestMemoryBackend_UploadDownload(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()

	data := []byte("image bytes")
	err := backend.Upload(ctx, "article-images/abc.png", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, backend.Len())

	rc, err := backend.Download(ctx, "article-images/abc.png")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestMemoryBackend_DownloadMissing(t *testing.T) {
	backend := NewMemoryBackend()

	_, err := backend.Download(context.Background(), "article-images/missing.png")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestMemoryBackend_Delete(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "article-images/abc.png", bytes.NewReader([]byte("x"))))
	require.NoError(t, backend.Delete(ctx, "article-images/abc.png"))
	assert.Equal(t, 0, backend.Len())

	_, err := backend.Download(ctx, "article-images/abc.png")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestMemoryBackend_DeleteMissing(t *testing.T) {
	backend := NewMemoryBackend()

	err := backend.Delete(context.Background(), "article-images/missing.png")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}
