package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hinata/core/internal/core/domain"
)

// cacheTTL is the scoring-result cache lifetime (spec §4.2 "cached by
// (userId, contentHash) for 1 h").
const cacheTTL = time.Hour

type cache struct {
	client *redis.Client
}

func newCache(client *redis.Client) *cache {
	return &cache{client: client}
}

type cachedScore struct {
	Weight  float32                `json:"weight"`
	Metrics domain.AttentionMetrics `json:"metrics"`
}

func (c *cache) get(ctx context.Context, userID, contentHash string) (float32, domain.AttentionMetrics, bool) {
	raw, err := c.client.Get(ctx, key(userID, contentHash)).Bytes()
	if err != nil {
		return 0, domain.AttentionMetrics{}, false
	}

	var cs cachedScore
	if err := json.Unmarshal(raw, &cs); err != nil {
		return 0, domain.AttentionMetrics{}, false
	}

	return cs.Weight, cs.Metrics, true
}

func (c *cache) set(ctx context.Context, userID, contentHash string, weight float32, metrics domain.AttentionMetrics) {
	raw, err := json.Marshal(cachedScore{Weight: weight, Metrics: metrics})
	if err != nil {
		return
	}

	c.client.Set(ctx, key(userID, contentHash), raw, cacheTTL)
}

func key(userID, contentHash string) string {
	return fmt.Sprintf("hinata:scoring:%s:%s", userID, contentHash)
}
