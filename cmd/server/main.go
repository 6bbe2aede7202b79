package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-article/internal/api"
	"github.com/tendant/simple-article/internal/domain"
	"github.com/tendant/simple-article/internal/repository"
	memoryrepo "github.com/tendant/simple-article/internal/repository/memory"
	psqlrepo "github.com/tendant/simple-article/internal/repository/psql"
	"github.com/tendant/simple-article/internal/service"
	"github.com/tendant/simple-article/internal/storage"
	fsstorage "github.com/tendant/simple-article/internal/storage/fs"
	memorystorage "github.com/tendant/simple-article/internal/storage/memory"
	s3storage "github.com/tendant/simple-article/internal/storage/s3"
)

type Config struct {
	Port            string `env:"PORT" env-default:"8080"`
	Repository      string `env:"REPOSITORY" env-default:"memory"`
	StorageBackend  string `env:"STORAGE_BACKEND" env-default:"memory"`
	DefaultAuthorID int64  `env:"DEFAULT_AUTHOR_ID" env-default:"1"`
	DB              DbConfig
	Fs              FsConfig
	S3              S3Config
}

type DbConfig struct {
	Port     uint16 `env:"ARTICLE_PG_PORT" env-default:"5432"`
	Host     string `env:"ARTICLE_PG_HOST" env-default:"localhost"`
	Name     string `env:"ARTICLE_PG_NAME" env-default:"article_db"`
	User     string `env:"ARTICLE_PG_USER" env-default:"article"`
	Password string `env:"ARTICLE_PG_PASSWORD" env-default:"pwd"`
}

type FsConfig struct {
	BaseDir string `env:"FS_BASE_DIR" env-default:"./data/storage"`
}

type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:""`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	BucketName      string `env:"AWS_S3_BUCKET" env-default:"article-bucket"`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	CreateBucket    bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"false"`
}

func (c DbConfig) toDatabaseUrl() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}
	return u.String()
}

func NewDbPool(ctx context.Context, dbConfig DbConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dbConfig.toDatabaseUrl())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

func newStorageBackend(config Config) (storage.Backend, error) {
	switch config.StorageBackend {
	case "memory":
		return memorystorage.NewMemoryBackend(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{BaseDir: config.Fs.BaseDir})
	case "s3":
		return s3storage.NewS3Backend(s3storage.Config{
			Region:                 config.S3.Region,
			Bucket:                 config.S3.BucketName,
			AccessKeyID:            config.S3.AccessKeyID,
			SecretAccessKey:        config.S3.SecretAccessKey,
			Endpoint:               config.S3.Endpoint,
			UsePathStyle:           config.S3.Endpoint != "",
			CreateBucketIfNotExist: config.S3.CreateBucket,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", config.StorageBackend)
	}
}

func newRepositories(ctx context.Context, config Config) (repository.ArticleRepository, repository.AuthorRepository, func(), error) {
	switch config.Repository {
	case "memory":
		authors := memoryrepo.NewAuthorRepository()
		return memoryrepo.NewArticleRepository(authors), authors, func() {}, nil
	case "postgres":
		pool, err := NewDbPool(ctx, config.DB)
		if err != nil {
			return nil, nil, nil, err
		}
		return psqlrepo.NewArticleRepository(pool), psqlrepo.NewAuthorRepository(pool), pool.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown repository: %s", config.Repository)
	}
}

// ensureDefaultAuthor makes sure the author that new articles are
// attributed to exists. With the memory repository the store starts
// empty, so one is seeded on boot.
func ensureDefaultAuthor(ctx context.Context, authors repository.AuthorRepository, id int64) error {
	_, err := authors.Get(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrAuthorNotFound) {
		return err
	}

	author := &domain.Author{
		Name:  "Admin",
		Email: "admin@example.com",
	}
	if err := authors.Create(ctx, author); err != nil {
		return err
	}
	if author.ID != id {
		return fmt.Errorf("seeded author got id %d, expected %d", author.ID, id)
	}
	return nil
}

func main() {
	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	articleRepo, authorRepo, closeRepo, err := newRepositories(ctx, config)
	if err != nil {
		slog.Error("Failed to initialize repositories", "err", err)
		os.Exit(1)
	}
	defer closeRepo()

	if err := ensureDefaultAuthor(ctx, authorRepo, config.DefaultAuthorID); err != nil {
		slog.Error("Failed to ensure default author", "err", err)
		os.Exit(1)
	}

	backend, err := newStorageBackend(config)
	if err != nil {
		slog.Error("Failed to initialize storage backend", "err", err)
		os.Exit(1)
	}

	articleService := service.NewArticleService(articleRepo, backend, config.DefaultAuthorID)
	articleHandler := api.NewArticleHandler(articleService)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Mount("/articles", articleHandler.Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Port),
		Handler: r,
	}

	go func() {
		slog.Info("Server starting", "port", config.Port, "repository", config.Repository, "storage", config.StorageBackend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}
