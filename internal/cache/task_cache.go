package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Hritabrataghosh/neon-tasks/internal/domain"
	"github.com/Hritabrataghosh/neon-tasks/internal/repo"
)

const keyPrefix = "tasks:"

// TaskCache caches per-owner list results and statistics in Redis.
// Every key carries the owner id so invalidation never crosses owners.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

// keyEscaper keeps the "|" separator unambiguous: a filter value carrying
// a literal pipe cannot shift content into a neighbouring slot.
var keyEscaper = strings.NewReplacer("%", "%25", "|", "%7C")

// ListKey builds the cache key for a list query: owner plus the canonical
// filter tuple, so distinct filter combinations never collide.
func ListKey(owner string, f repo.ListFilter) string {
	parts := []string{
		"list", owner,
		keyEscaper.Replace(f.Status),
		keyEscaper.Replace(f.Priority),
		keyEscaper.Replace(f.Category),
		keyEscaper.Replace(strings.ToLower(strings.TrimSpace(f.Search))),
		keyEscaper.Replace(f.Sort),
	}
	return strings.Join(parts, "|")
}

// StatsKey builds the cache key for the stats views.
func StatsKey(owner string) string { return "stats|" + owner }

// GetList returns the cached list for key, or nil on miss.
func (c *TaskCache) GetList(ctx context.Context, key string) ([]domain.Task, error) {
	b, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []domain.Task
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetList stores a list result under key.
func (c *TaskCache) SetList(ctx context.Context, key string, list []domain.Task) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyPrefix+key, b, c.ttl).Err()
}

// GetStats returns the cached stats for the owner, or nil on miss.
func (c *TaskCache) GetStats(ctx context.Context, owner string) (*domain.Stats, error) {
	b, err := c.rdb.Get(ctx, keyPrefix+StatsKey(owner)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s domain.Stats
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetStats stores the owner's stats.
func (c *TaskCache) SetStats(ctx context.Context, owner string, s domain.Stats) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyPrefix+StatsKey(owner), b, c.ttl).Err()
}

// InvalidateOwner removes every cached entry for the owner (cache
// invalidation on write). Other owners' keys are untouched.
func (c *TaskCache) InvalidateOwner(ctx context.Context, owner string) error {
	if err := c.rdb.Del(ctx, keyPrefix+StatsKey(owner)).Err(); err != nil {
		return err
	}
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"list|"+owner+"|*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
