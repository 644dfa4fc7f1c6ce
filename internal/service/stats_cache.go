package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"training_progress_backend/internal/model"

	"github.com/go-redis/redis/v8"
)

// StatsCache 批次统计缓存，键包含记录集版本，版本变化即自然失效
type StatsCache interface {
	Get(ctx context.Context, batchCode string, version uint64) (*model.BatchStats, bool, error)
	Set(ctx context.Context, stats model.BatchStats) error
}

func StatsCacheKey(batchCode string, version uint64) string {
	return fmt.Sprintf("batch_stats:%s:v%d", batchCode, version)
}

type RedisStatsCache struct {
	Client *redis.Client

	mu  sync.RWMutex
	ttl time.Duration
}

func NewRedisStatsCache(client *redis.Client, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{Client: client, ttl: ttl}
}

// SetTTL 配置热更新时调用
func (c *RedisStatsCache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	c.ttl = ttl
	c.mu.Unlock()
}

func (c *RedisStatsCache) TTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttl
}

func (c *RedisStatsCache) Get(ctx context.Context, batchCode string, version uint64) (*model.BatchStats, bool, error) {
	data, err := c.Client.Get(ctx, StatsCacheKey(batchCode, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var stats model.BatchStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, false, err
	}
	return &stats, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, stats model.BatchStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, StatsCacheKey(stats.BatchCode, stats.Version), data, c.TTL()).Err()
}

// MemoryStatsCache 进程内实现，未启用 Redis 时使用
type MemoryStatsCache struct {
	mu    sync.RWMutex
	items map[string]model.BatchStats
}

func NewMemoryStatsCache() *MemoryStatsCache {
	return &MemoryStatsCache{items: make(map[string]model.BatchStats)}
}

func (c *MemoryStatsCache) Get(ctx context.Context, batchCode string, version uint64) (*model.BatchStats, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats, ok := c.items[StatsCacheKey(batchCode, version)]
	if !ok {
		return nil, false, nil
	}
	stats.LevelDistribution = copyDistribution(stats.LevelDistribution)
	return &stats, true, nil
}

// Set 同一批次只保留最新版本
func (c *MemoryStatsCache) Set(ctx context.Context, stats model.BatchStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, old := range c.items {
		if old.BatchCode == stats.BatchCode {
			delete(c.items, key)
		}
	}
	stats.LevelDistribution = copyDistribution(stats.LevelDistribution)
	c.items[StatsCacheKey(stats.BatchCode, stats.Version)] = stats
	return nil
}

// copyDistribution 缓存内外不共享同一个 map
func copyDistribution(src map[model.Level]int) map[model.Level]int {
	if src == nil {
		return nil
	}
	dst := make(map[model.Level]int, len(src))
	for l, n := range src {
		dst[l] = n
	}
	return dst
}

func (c *MemoryStatsCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
