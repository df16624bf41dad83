package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/testvault-io/testvault-backend/internal/testcases/domain"
)

const statsKeyPrefix = "tm:stats:" // Cached stats per project: tm:stats:{project_id}

// StatsCache keeps computed project stats in Redis for a short TTL.
// Cache trouble is logged and otherwise invisible to callers; the
// service recomputes on every miss.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a stats cache. ttl <= 0 defaults to one minute.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StatsCache{client: client, ttl: ttl}
}

// Get returns the cached stats for a project, if present.
func (c *StatsCache) Get(ctx context.Context, projectID int64) (*domain.Stats, bool) {
	data, err := c.client.Get(ctx, c.key(projectID)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("stats cache get: %v", err)
		return nil, false
	}

	var stats domain.Stats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		log.Printf("stats cache decode: %v", err)
		return nil, false
	}
	return &stats, true
}

// Set stores the stats under the project key with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, projectID int64, stats *domain.Stats) {
	data, err := json.Marshal(stats)
	if err != nil {
		log.Printf("stats cache encode: %v", err)
		return
	}
	if err := c.client.Set(ctx, c.key(projectID), data, c.ttl).Err(); err != nil {
		log.Printf("stats cache set: %v", err)
	}
}

// Invalidate drops the cached stats after any mutation in the project.
func (c *StatsCache) Invalidate(ctx context.Context, projectID int64) {
	if err := c.client.Del(ctx, c.key(projectID)).Err(); err != nil {
		log.Printf("stats cache invalidate: %v", err)
	}
}

func (c *StatsCache) key(projectID int64) string {
	return fmt.Sprintf("%s%d", statsKeyPrefix, projectID)
}
