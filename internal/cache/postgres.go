package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tkforge/tk/internal/index"
)

// PostgresStore is the Postgres-backed read cache used by the hosted
// dashboard. Rows are keyed by full ticket id; Sync keeps the table an exact
// mirror of the index entries.
type PostgresStore struct {
	pool *pgxpool.Pool
	repo string
}

// NewPostgresStore connects to Postgres and ensures the cache table exists.
func NewPostgresStore(ctx context.Context, dsn, repoName string) (*PostgresStore, error) {
	if repoName == "" {
		return nil, fmt.Errorf("repository name cannot be empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	store := &PostgresStore{pool: pool, repo: repoName}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS ticket_cache (
            repo       text NOT NULL,
            id         text NOT NULL,
            short_id   text NOT NULL,
            display_id text NOT NULL,
            title      text NOT NULL,
            state      text NOT NULL,
            priority   text NOT NULL,
            labels     text[] NOT NULL DEFAULT '{}',
            path       text NOT NULL,
            assignee   text,
            reviewer   text,
            created_at timestamptz,
            synced_at  timestamptz NOT NULL,
            PRIMARY KEY (repo, id)
        )`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure cache schema: %w", err)
	}
	return nil
}

// Sync upserts every entry and deletes rows for tickets that no longer
// exist, all in one transaction so dashboard readers never observe a
// half-synced cache.
func (s *PostgresStore) Sync(ctx context.Context, entries []index.Entry) error {
	const upsert = `
        INSERT INTO ticket_cache (repo, id, short_id, display_id, title, state, priority, labels, path, assignee, reviewer, created_at, synced_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        ON CONFLICT (repo, id) DO UPDATE SET
            short_id = EXCLUDED.short_id,
            display_id = EXCLUDED.display_id,
            title = EXCLUDED.title,
            state = EXCLUDED.state,
            priority = EXCLUDED.priority,
            labels = EXCLUDED.labels,
            path = EXCLUDED.path,
            assignee = EXCLUDED.assignee,
            reviewer = EXCLUDED.reviewer,
            created_at = EXCLUDED.created_at,
            synced_at = EXCLUDED.synced_at`
	const prune = `DELETE FROM ticket_cache WHERE repo = $1 AND NOT (id = ANY($2))`

	now := time.Now().UTC()
	ids := make([]string, 0, len(entries))

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, e := range entries {
			ids = append(ids, e.ID)
			var created *time.Time
			if e.Created != "" {
				if t, err := time.Parse(time.RFC3339, e.Created); err == nil {
					created = &t
				}
			}
			_, err := tx.Exec(ctx, upsert,
				s.repo,
				e.ID,
				e.ShortID,
				e.DisplayID,
				e.Title,
				string(e.State),
				string(e.Priority),
				e.Labels,
				e.Path,
				nullable(e.Assignee),
				nullable(e.Reviewer),
				created,
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert entry %s: %w", e.ID, err)
			}
		}
		if _, err := tx.Exec(ctx, prune, s.repo, ids); err != nil {
			return fmt.Errorf("failed to prune stale entries: %w", err)
		}
		return nil
	})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
