package retriever

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hinata/core/internal/core/ports"
)

// cacheTTL is the retriever result cache lifetime (spec §4.7 "Cache").
const cacheTTL = 60 * time.Second

// resultCache is the subset of a Redis client Query needs, narrowed so
// tests can substitute a fake without spinning up a broker.
type resultCache interface {
	get(ctx context.Context, key string) ([]ports.QueryResult, bool)
	set(ctx context.Context, key string, results []ports.QueryResult)
	epoch(ctx context.Context, userID string) int64
	bumpEpoch(ctx context.Context, userID string) error
}

// redisCache is the production resultCache, keyed by (userId, epoch,
// hash(qText, filters)) so a per-user epoch bump (ProfileEngine commit)
// invalidates every cached query for that user without a scan (spec §4.7
// "invalidated for a user when ProfileEngine commits updates").
type redisCache struct {
	client *redis.Client
}

func newRedisCache(client *redis.Client) *redisCache {
	return &redisCache{client: client}
}

func (c *redisCache) get(ctx context.Context, key string) ([]ports.QueryResult, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	var results []ports.QueryResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false
	}

	return results, true
}

func (c *redisCache) set(ctx context.Context, key string, results []ports.QueryResult) {
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}

	c.client.Set(ctx, key, raw, cacheTTL)
}

// epoch reads the per-user cache-epoch counter, defaulting to 0 when unset.
func (c *redisCache) epoch(ctx context.Context, userID string) int64 {
	n, err := c.client.Get(ctx, epochKey(userID)).Int64()
	if err != nil {
		return 0
	}

	return n
}

// bumpEpoch advances the per-user epoch, invalidating every cache entry
// keyed against the prior epoch (they simply expire off TTL and are never
// looked up again).
func (c *redisCache) bumpEpoch(ctx context.Context, userID string) error {
	return c.client.Incr(ctx, epochKey(userID)).Err()
}

func epochKey(userID string) string {
	return fmt.Sprintf("hinata:retriever:epoch:%s", userID)
}

// cacheKey hashes (qText, filters) into a fixed-width key segment, combined
// with userId and the current epoch (spec §4.7 "LRU keyed by (userId,
// hash(qText, filters))").
func cacheKey(userID string, epoch int64, qText string, filters ports.QueryFilters, limit int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%+v", qText, limit, filters)

	return fmt.Sprintf("hinata:retriever:q:%s:%d:%s", userID, epoch, hex.EncodeToString(h.Sum(nil)))
}
