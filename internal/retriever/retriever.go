// Package retriever implements the unified multi-strategy retrieval
// surface (spec §4.7): fan out to the vector, full-text, and composite
// indexes in parallel, fuse by Reciprocal Rank Fusion, apply filters, and
// cache the result per user with epoch-based invalidation.
package retriever

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
	"github.com/hinata/core/internal/platform/observability"
)

// Retriever is the process-level facade the gateway and pipeline query
// against; it never talks to Postgres directly, only through the three
// index ports TieredStore implements.
type Retriever struct {
	vector    ports.VectorIndex
	text      ports.FullTextIndex
	composite ports.CompositeIndex
	cache     resultCache
}

// New wires a Retriever against the three index strategies; cache may be
// nil to disable caching entirely (e.g. in tests).
func New(vector ports.VectorIndex, text ports.FullTextIndex, composite ports.CompositeIndex, redisClient *redis.Client) *Retriever {
	var c resultCache
	if redisClient != nil {
		c = newRedisCache(redisClient)
	}

	return &Retriever{vector: vector, text: text, composite: composite, cache: c}
}

// InvalidateUser bumps the user's cache epoch, per spec §4.7's cache
// invalidation rule; ProfileEngine calls this after every committed
// rebalance.
func (r *Retriever) InvalidateUser(ctx context.Context, userID string) error {
	if r.cache == nil {
		return nil
	}

	return r.cache.bumpEpoch(ctx, userID)
}

// Query implements the query(userId, qText, qEmbedding, filters, limit)
// contract (spec §4.7).
func (r *Retriever) Query(ctx context.Context, userID, qText string, qEmbedding []float32, filters ports.QueryFilters, limit int) ([]ports.QueryResult, error) {
	filters.UserID = userID

	var epoch int64

	if r.cache != nil {
		epoch = r.cache.epoch(ctx, userID)
		key := cacheKey(userID, epoch, qText, filters, limit)

		if cached, ok := r.cache.get(ctx, key); ok {
			observability.RetrieverCacheHits.Inc()
			return cached, nil
		}

		observability.RetrieverCacheMisses.Inc()
	}

	start := time.Now()

	byStrategy, err := r.fanOut(ctx, qText, qEmbedding, filters, limit)
	if err != nil {
		return nil, err
	}

	fusedResults := fuseRRF(byStrategy)

	out := make([]ports.QueryResult, 0, limit)

	for _, f := range fusedResults {
		if !matchesFilters(f.result.Observation, filters) {
			continue
		}

		out = append(out, f.result)

		if len(out) == limit {
			break
		}
	}

	observability.RetrieverFusionLatency.Observe(time.Since(start).Seconds())

	if r.cache != nil {
		key := cacheKey(userID, epoch, qText, filters, limit)
		r.cache.set(ctx, key, out)
	}

	return out, nil
}

// overfetch widens each strategy's own limit before fusion, since RRF needs
// enough candidates per strategy for the weighted rank sum to be meaningful
// even when only `limit` results are ultimately returned.
const overfetchFactor = 3

func (r *Retriever) fanOut(ctx context.Context, qText string, qEmbedding []float32, filters ports.QueryFilters, limit int) (map[strategy][]ports.QueryResult, error) {
	fetchLimit := limit * overfetchFactor

	g, gctx := errgroup.WithContext(ctx)

	results := make(map[strategy][]ports.QueryResult, 3)

	if len(qEmbedding) > 0 {
		g.Go(func() error {
			rs, err := r.vector.QueryVector(gctx, qEmbedding, filters, fetchLimit)
			if err != nil {
				return err
			}

			results[strategyVector] = rs
			observability.RetrieverStrategyResults.WithLabelValues(string(strategyVector)).Observe(float64(len(rs)))

			return nil
		})
	}

	if qText != "" {
		g.Go(func() error {
			rs, err := r.text.QueryText(gctx, qText, filters, fetchLimit)
			if err != nil {
				return err
			}

			results[strategyText] = rs
			observability.RetrieverStrategyResults.WithLabelValues(string(strategyText)).Observe(float64(len(rs)))

			return nil
		})
	}

	g.Go(func() error {
		rs, err := r.composite.QueryComposite(gctx, filters, fetchLimit)
		if err != nil {
			return err
		}

		results[strategyComposite] = rs
		observability.RetrieverStrategyResults.WithLabelValues(string(strategyComposite)).Observe(float64(len(rs)))

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// matchesFilters re-applies the filter predicate to the fused result set
// (spec §4.7 step 3); each strategy's SQL already applies the same
// predicate, this is a defensive second pass so a cached or stale
// candidate can never leak past a filter it no longer satisfies.
func matchesFilters(obs *domain.Observation, f ports.QueryFilters) bool {
	if f.MinInfluenceWeight > 0 && obs.InfluenceWeight < f.MinInfluenceWeight {
		return false
	}

	if f.MinQualityScore > 0 && obs.QualityScore < f.MinQualityScore {
		return false
	}

	if len(f.Tiers) > 0 && !tierIn(obs.Tier, f.Tiers) {
		return false
	}

	if len(f.Tags) > 0 && !hasAnyTag(obs.Tags, f.Tags) {
		return false
	}

	if len(f.ExcludedTags) > 0 && hasAnyTag(obs.Tags, f.ExcludedTags) {
		return false
	}

	return true
}

func tierIn(tier domain.Tier, tiers []domain.Tier) bool {
	for _, t := range tiers {
		if t == tier {
			return true
		}
	}

	return false
}

func hasAnyTag(tags, want []string) bool {
	set := make(map[string]struct{}, len(want))
	for _, w := range want {
		set[w] = struct{}{}
	}

	for _, t := range tags {
		if _, ok := set[t]; ok {
			return true
		}
	}

	return false
}
