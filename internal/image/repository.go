package image

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository keeps the key issued for every public URL in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new image repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save records an uploaded image.
func (r *Repository) Save(ctx context.Context, img Image) (Image, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO menu_images (id, object_key, public_url, content_type, size_bytes)
VALUES ($1, $2, $3, $4, $5)
RETURNING object_key, public_url, content_type, size_bytes, created_at;`

	var stored Image
	err := r.pool.QueryRow(ctx, query, uuid.New(), img.Key, img.URL, img.ContentType, img.Size).Scan(
		&stored.Key,
		&stored.URL,
		&stored.ContentType,
		&stored.Size,
		&stored.CreatedAt,
	)
	if err != nil {
		return Image{}, fmt.Errorf("save image: %w", err)
	}
	return stored, nil
}

// KeyForURL returns the object key recorded for publicURL.
func (r *Repository) KeyForURL(ctx context.Context, publicURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var key string
	err := r.pool.QueryRow(ctx, `SELECT object_key FROM menu_images WHERE public_url = $1;`, publicURL).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrImageNotFound
		}
		return "", fmt.Errorf("lookup image key: %w", err)
	}
	return key, nil
}

// Forget drops the row for key.
func (r *Repository) Forget(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM menu_images WHERE object_key = $1;`, key)
	if err != nil {
		return fmt.Errorf("forget image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

// List returns all recorded images, newest first.
func (r *Repository) List(ctx context.Context) ([]Image, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT object_key, public_url, content_type, size_bytes, created_at
FROM menu_images
ORDER BY created_at DESC;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Key, &img.URL, &img.ContentType, &img.Size, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}
	return images, nil
}
