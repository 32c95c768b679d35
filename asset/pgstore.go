package asset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store backed by a PostgreSQL bytea table. URLs are
// formed from the configured base URL and served by the HTTP layer.
type PGStore struct {
	pool    *pgxpool.Pool
	baseURL string
}

// NewPGStore creates a PostgreSQL-backed asset store. baseURL is the
// externally reachable prefix under which assets are served.
func NewPGStore(pool *pgxpool.Pool, baseURL string) *PGStore {
	return &PGStore{pool: pool, baseURL: strings.TrimRight(baseURL, "/")}
}

// Put stores the bytes under key. The owner id is the first path
// segment of the key, which the uploader guarantees.
func (s *PGStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	const insertSQL = `
		INSERT INTO assets (key, owner_id, content, content_type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET content = EXCLUDED.content, content_type = EXCLUDED.content_type
	`

	if _, err := s.pool.Exec(ctx, insertSQL, key, ownerFromKey(key), data, contentType); err != nil {
		return "", fmt.Errorf("asset: put %s: %w", key, err)
	}

	return s.baseURL + "/assets/" + key, nil
}

// Get retrieves the stored bytes and content type for key.
func (s *PGStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	const selectSQL = `SELECT content, content_type FROM assets WHERE key = $1`

	var (
		data        []byte
		contentType string
	)
	if err := s.pool.QueryRow(ctx, selectSQL, key).Scan(&data, &contentType); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrAssetNotFound
		}
		return nil, "", fmt.Errorf("asset: get %s: %w", key, err)
	}

	return data, contentType, nil
}

// Delete removes the asset under key. Deleting a missing key is not an
// error.
func (s *PGStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM assets WHERE key = $1`, key); err != nil {
		return fmt.Errorf("asset: delete %s: %w", key, err)
	}
	return nil
}

func ownerFromKey(key string) string {
	parts := strings.Split(key, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
