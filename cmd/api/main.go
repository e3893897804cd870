package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hachiran/ramensite/internal/auth"
	"github.com/hachiran/ramensite/internal/config"
	"github.com/hachiran/ramensite/internal/hero"
	"github.com/hachiran/ramensite/internal/image"
	"github.com/hachiran/ramensite/internal/logger"
	"github.com/hachiran/ramensite/internal/metrics"
	"github.com/hachiran/ramensite/internal/server"
	"github.com/hachiran/ramensite/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// objectBackend is what the image service needs from a bucket, plus a readiness probe.
type objectBackend interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, opts image.PutOptions) error
	Exists(ctx context.Context, key string) (bool, error)
	RemoveObjects(ctx context.Context, keys []string) error
	PublicURL(key string) string
	Bucket() string
	Ping(ctx context.Context) error
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	zl, err := logger.Init()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(zl); err != nil {
		zl.Fatal("site stopped", zap.Error(err))
	}
}

func run(zl *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := storage.Migrate(cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbPool.Close()

	store, err := openObjectStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	zl.Info("object store ready",
		zap.String("driver", cfg.Storage.Driver),
		zap.String("bucket", store.Bucket()))

	authService, err := auth.NewService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	heroHandler, err := hero.NewHandler(hero.DefaultContent())
	if err != nil {
		return err
	}

	metrics.InitMetrics()

	tracker := image.NewTracker(cfg.Upload)
	imageService := image.NewService(store, image.NewRepository(dbPool), cfg.Upload, zl.Named("image"))

	router := server.NewRouter(server.Dependencies{
		Config:       cfg,
		DB:           dbPool,
		ObjectStore:  store,
		AuthService:  authService,
		ImageService: imageService,
		Tracker:      tracker,
		Hero:         heroHandler,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("site listening", zap.String("addr", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		zl.Info("shutting down gracefully")
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openObjectStore(ctx context.Context, cfg config.StorageConfig) (objectBackend, error) {
	switch cfg.Driver {
	case config.DriverS3:
		client, err := storage.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect s3: %w", err)
		}
		if err := storage.EnsureS3Bucket(ctx, client, cfg.Bucket); err != nil {
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
		return image.NewS3Store(client, cfg.Bucket, cfg.PublicBaseURL), nil
	default:
		client, err := storage.NewMinIOClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect minio: %w", err)
		}
		if err := storage.EnsureBucket(ctx, client, cfg.Bucket, cfg.Region); err != nil {
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
		return image.NewMinIOStore(client, cfg.Bucket, cfg.PublicBaseURL), nil
	}
}
