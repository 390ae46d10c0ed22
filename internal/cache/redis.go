package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tkforge/tk/internal/index"
	"github.com/tkforge/tk/internal/ticket"
)

// RedisStore is the Redis-backed read cache. All keys are namespaced with the
// repository name so several repositories can share one Redis.
// The store is safe for concurrent use.
type RedisStore struct {
	rdb  *redis.Client
	repo string
}

// NewRedisStore creates a read-cache store for the given repository name.
// Returns an error if repoName is empty.
func NewRedisStore(redisOpts *redis.Options, repoName string) (*RedisStore, error) {
	if repoName == "" {
		return nil, fmt.Errorf("repository name cannot be empty")
	}

	return &RedisStore{
		rdb:  redis.NewClient(redisOpts),
		repo: repoName,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// entryKey is the hash key for one ticket entry.
func (s *RedisStore) entryKey(id string) string {
	return fmt.Sprintf("tk:%s:ticket:%s", s.repo, id)
}

// idSetKey is the set of all cached ticket ids for this repository.
func (s *RedisStore) idSetKey() string {
	return fmt.Sprintf("tk:%s:ids", s.repo)
}

// Sync upserts every entry as a Redis hash and prunes entries whose tickets
// no longer exist. Sync is idempotent: running it twice with the same entries
// leaves the cache unchanged.
func (s *RedisStore) Sync(ctx context.Context, entries []index.Entry) error {
	current := make(map[string]bool, len(entries))

	pipe := s.rdb.TxPipeline()
	for _, e := range entries {
		hash, err := entryToHash(e)
		if err != nil {
			return fmt.Errorf("failed to serialize entry %s: %w", e.ID, err)
		}
		current[e.ID] = true
		pipe.HSet(ctx, s.entryKey(e.ID), hash)
		pipe.SAdd(ctx, s.idSetKey(), e.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write entries to Redis: %w", err)
	}

	cached, err := s.rdb.SMembers(ctx, s.idSetKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to list cached ids: %w", err)
	}
	for _, id := range cached {
		if current[id] {
			continue
		}
		if err := s.rdb.Del(ctx, s.entryKey(id)).Err(); err != nil {
			return fmt.Errorf("failed to prune entry %s: %w", id, err)
		}
		if err := s.rdb.SRem(ctx, s.idSetKey(), id).Err(); err != nil {
			return fmt.Errorf("failed to prune id %s: %w", id, err)
		}
	}
	return nil
}

// Get retrieves one cached entry by full id.
// Returns (nil, redis.Nil) if the entry doesn't exist.
func (s *RedisStore) Get(ctx context.Context, id string) (*index.Entry, error) {
	hashData, err := s.rdb.HGetAll(ctx, s.entryKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read entry from Redis: %w", err)
	}
	// HGetAll returns an empty map for non-existent keys.
	if len(hashData) == 0 {
		return nil, redis.Nil
	}
	return hashToEntry(hashData)
}

// IsNotFound checks whether an error is the Redis not-found sentinel.
func IsNotFound(err error) bool {
	return err == redis.Nil
}

func entryToHash(e index.Entry) (map[string]string, error) {
	labels, err := json.Marshal(e.Labels)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"id":         e.ID,
		"short_id":   e.ShortID,
		"display_id": e.DisplayID,
		"title":      e.Title,
		"state":      string(e.State),
		"priority":   string(e.Priority),
		"labels":     string(labels),
		"path":       e.Path,
		"assignee":   e.Assignee,
		"reviewer":   e.Reviewer,
		"created":    e.Created,
	}, nil
}

func hashToEntry(hash map[string]string) (*index.Entry, error) {
	var labels []string
	if raw := hash["labels"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &labels); err != nil {
			return nil, fmt.Errorf("failed to deserialize labels: %w", err)
		}
	}
	return &index.Entry{
		ID:        hash["id"],
		ShortID:   hash["short_id"],
		DisplayID: hash["display_id"],
		Title:     hash["title"],
		State:     ticket.State(hash["state"]),
		Priority:  ticket.Priority(hash["priority"]),
		Labels:    labels,
		Path:      hash["path"],
		Assignee:  hash["assignee"],
		Reviewer:  hash["reviewer"],
		Created:   hash["created"],
	}, nil
}
