// internal/leaderboard/cache.go
package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hubcoin-miner/internal/domain"
)

const cacheKey = "leaderboard:players"

// Entries older than this are dropped so a stalled worker cannot pin a
// stale board forever; the API recomputes on miss.
const cacheTTL = 30 * time.Minute

// ErrCacheMiss is returned when no precomputed leaderboard is available.
var ErrCacheMiss = errors.New("leaderboard not cached")

// Cache stores the precomputed leaderboard payload in Redis.
type Cache struct {
	rdb *redis.Client
}

// NewCache creates a leaderboard Cache backed by rdb.
func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Get returns the cached leaderboard, or ErrCacheMiss when absent.
func (c *Cache) Get(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	raw, err := c.rdb.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read leaderboard cache: %w", err)
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard cache: %w", err)
	}
	return entries, nil
}

// Set replaces the cached leaderboard.
func (c *Cache) Set(ctx context.Context, entries []domain.LeaderboardEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to write leaderboard cache: %w", err)
	}
	return nil
}
