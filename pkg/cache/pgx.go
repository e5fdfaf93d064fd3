package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists cache entries in the analysis_cache table so
// results survive restarts and are shared between the server and worker
// processes. The schema is shipped in migrations/.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const getEntrySQL = `
SELECT graph
FROM analysis_cache
WHERE cache_key = $1 AND expires_at > now();
`

const putEntrySQL = `
INSERT INTO analysis_cache (cache_key, graph, created_at, expires_at)
VALUES ($1, $2, now(), now() + $3::interval)
ON CONFLICT (cache_key) DO UPDATE
SET graph      = EXCLUDED.graph,
    created_at = EXCLUDED.created_at,
    expires_at = EXCLUDED.expires_at;
`

// Get returns the unexpired entry for key, if any.
func (s *PostgresStore) Get(ctx context.Context, key string) (Graph, bool, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, getEntrySQL, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var graph Graph
	if err := json.Unmarshal(raw, &graph); err != nil {
		return nil, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return graph, true, nil
}

// Put upserts the entry for key. The previous entry, expired or not, is
// replaced.
func (s *PostgresStore) Put(ctx context.Context, key string, graph Graph, ttl time.Duration) error {
	raw, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	interval := fmt.Sprintf("%d milliseconds", ttl.Milliseconds())
	if _, err := s.pool.Exec(ctx, putEntrySQL, key, raw, interval); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}
