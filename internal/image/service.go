package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hachiran/ramensite/internal/config"
	"go.uber.org/zap"
)

const defaultMaxBytes = 5 * 1024 * 1024

type objectStore interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) error
	Exists(ctx context.Context, key string) (bool, error)
	RemoveObjects(ctx context.Context, keys []string) error
	PublicURL(key string) string
	Bucket() string
}

// keyRegistry remembers which key a public URL was issued for, so delete does
// not depend on the URL layout of the storage provider.
type keyRegistry interface {
	Save(ctx context.Context, img Image) (Image, error)
	KeyForURL(ctx context.Context, publicURL string) (string, error)
	Forget(ctx context.Context, key string) error
	List(ctx context.Context) ([]Image, error)
}

// Service uploads menu images to the bucket and removes them again.
type Service struct {
	store        objectStore
	registry     keyRegistry
	log          *zap.Logger
	maxBytes     int64
	cacheControl string
	nowFunc      func() time.Time
	tokenFunc    func() (string, error)
}

// NewService constructs an image service. registry and log may be nil.
func NewService(store objectStore, registry keyRegistry, cfg config.UploadConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Service{
		store:        store,
		registry:     registry,
		log:          log.Named("image"),
		maxBytes:     maxBytes,
		cacheControl: cfg.CacheControl,
		nowFunc:      time.Now,
		tokenFunc:    randomToken,
	}
}

// Upload validates file, stores it under a fresh key and returns its public URL.
// tracker may be nil; when set it reports busy and simulated progress.
func (s *Service) Upload(ctx context.Context, file File, folder string, tracker *Tracker) (Image, error) {
	tracker.begin()
	defer tracker.end()

	if err := s.validate(file); err != nil {
		s.log.Warn("rejected image upload", zap.String("filename", file.Name), zap.Error(err))
		return Image{}, err
	}

	token, err := s.tokenFunc()
	if err != nil {
		return Image{}, fmt.Errorf("generate key: %w", err)
	}
	key := ObjectKey(s.nowFunc(), token, folder, Extension(file.Name))

	stop := tracker.simulate()
	defer stop()

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		s.log.Error("upload image", zap.String("key", key), zap.Error(err))
		return Image{}, fmt.Errorf("check object: %w", err)
	}
	if exists {
		return Image{}, ErrObjectExists
	}

	opts := PutOptions{ContentType: file.ContentType, CacheControl: s.cacheControl}
	if err := s.store.PutObject(ctx, key, file.Body, file.Size, opts); err != nil {
		s.log.Error("upload image", zap.String("key", key), zap.Error(err))
		return Image{}, fmt.Errorf("store object: %w", err)
	}

	stop()
	tracker.complete()

	img := Image{
		Key:         key,
		URL:         s.store.PublicURL(key),
		ContentType: file.ContentType,
		Size:        file.Size,
		CreatedAt:   s.nowFunc().UTC(),
	}

	if s.registry != nil {
		stored, err := s.registry.Save(ctx, img)
		if err != nil {
			if rmErr := s.store.RemoveObjects(ctx, []string{key}); rmErr != nil {
				s.log.Warn("remove orphaned object", zap.String("key", key), zap.Error(rmErr))
			}
			return Image{}, fmt.Errorf("record image: %w", err)
		}
		img.CreatedAt = stored.CreatedAt
	}

	s.log.Info("uploaded image", zap.String("key", key), zap.Int64("size", file.Size))
	return img, nil
}

// Delete removes the object behind publicURL. It never fails from the
// caller's point of view: problems are logged and reported in the result.
func (s *Service) Delete(ctx context.Context, publicURL string) DeleteResult {
	key, err := s.resolveKey(ctx, publicURL)
	if err != nil {
		s.log.Warn("delete image: resolve key", zap.String("url", publicURL), zap.Error(err))
		return DeleteResult{Outcome: DeleteFailed, Err: err}
	}

	// The stat only labels the outcome; the remove is issued regardless.
	exists, statErr := s.store.Exists(ctx, key)
	if statErr != nil {
		s.log.Warn("delete image: stat object", zap.String("key", key), zap.Error(statErr))
	}

	if err := s.store.RemoveObjects(ctx, []string{key}); err != nil {
		s.log.Warn("delete image from storage (may already be deleted)", zap.String("key", key), zap.Error(err))
		return DeleteResult{Outcome: DeleteFailed, Key: key, Err: err}
	}

	s.forget(ctx, key)
	if statErr == nil && !exists {
		return DeleteResult{Outcome: DeleteNotFound, Key: key}
	}
	return DeleteResult{Outcome: DeleteRemoved, Key: key}
}

// List returns registered images, newest first.
func (s *Service) List(ctx context.Context) ([]Image, error) {
	if s.registry == nil {
		return nil, nil
	}
	return s.registry.List(ctx)
}

func (s *Service) validate(file File) error {
	if file.Body == nil {
		return ErrMissingFile
	}
	if !AllowedType(file.ContentType) {
		return fmt.Errorf("%w: got %q", ErrInvalidType, file.ContentType)
	}
	if file.Size > s.maxBytes {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, file.Size)
	}
	return nil
}

func (s *Service) resolveKey(ctx context.Context, publicURL string) (string, error) {
	if s.registry != nil {
		key, err := s.registry.KeyForURL(ctx, publicURL)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, ErrImageNotFound) {
			s.log.Warn("delete image: registry lookup", zap.String("url", publicURL), zap.Error(err))
		}
	}
	return KeyFromURL(publicURL, s.store.Bucket())
}

func (s *Service) forget(ctx context.Context, key string) {
	if s.registry == nil {
		return
	}
	if err := s.registry.Forget(ctx, key); err != nil && !errors.Is(err, ErrImageNotFound) {
		s.log.Warn("delete image: forget registry row", zap.String("key", key), zap.Error(err))
	}
}
