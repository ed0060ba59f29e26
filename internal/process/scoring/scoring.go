// Package scoring implements AttentionScorer (spec §4.2): it derives
// attentionWeight and attentionMetrics for a new observation from the
// user's 30-day historical window, caching the result by (userId,
// contentHash) for an hour.
package scoring

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
	"github.com/hinata/core/internal/platform/observability"
)

// historyWindow bounds how far back AttentionScorer looks for recurring
// signal (spec §4.2 "within a 30-day window").
const historyWindow = 30 * 24 * time.Hour

// historyLimit caps how many historical observations a single scoring
// call scans, trading completeness for bounded latency on long-lived
// users with thousands of observations.
const historyLimit = 500

// Combine weights (spec §4.2 "Combine").
const (
	weightHighlight = 0.30
	weightNote      = 0.25
	weightRevisit   = 0.30
	weightTime      = 0.15
)

// Depth multipliers (spec §4.2).
const (
	depthMultiplierLow    = 0.8
	depthMultiplierMedium = 1.0
	depthMultiplierHigh   = 1.2
)

// Scorer is AttentionScorer: it reads historical observations through
// ObservationReader and caches results through Redis.
type Scorer struct {
	reader ports.ObservationReader
	cache  *cache
}

// New wires a Scorer against the observation store and an optional Redis
// client; a nil client disables caching.
func New(reader ports.ObservationReader, redisClient *redis.Client) *Scorer {
	var c *cache
	if redisClient != nil {
		c = newCache(redisClient)
	}

	return &Scorer{reader: reader, cache: c}
}

// Score computes attentionWeight and attentionMetrics for obs, given the
// user's recent history (spec §4.2). obs must already carry its
// contentHash and embedding (set earlier in the pipeline).
func (s *Scorer) Score(ctx context.Context, userID string, obs *domain.Observation) (float32, domain.AttentionMetrics, error) {
	if s.cache != nil {
		if weight, metrics, ok := s.cache.get(ctx, userID, obs.ContentHash); ok {
			observability.ScoringCacheHits.Inc()
			return weight, metrics, nil
		}

		observability.ScoringCacheMisses.Inc()
	}

	start := time.Now()

	history, err := s.reader.RecentByUser(ctx, userID, historyWindow, historyLimit)
	if err != nil {
		return 0, domain.AttentionMetrics{}, err
	}

	metrics := computeMetrics(obs, history)
	weight := combine(metrics)

	observability.ScoringDuration.Observe(time.Since(start).Seconds())
	observability.AttentionWeight.Observe(float64(weight))

	if s.cache != nil {
		s.cache.set(ctx, userID, obs.ContentHash, weight, metrics)
	}

	return weight, metrics, nil
}

// combine folds the four piecewise factors into attentionWeight, applying
// the interaction-depth multiplier and clamping to [0,1] (spec §4.2
// "Combine").
func combine(m domain.AttentionMetrics) float32 {
	base := weightHighlight*highlightFactor(m.HighlightFrequency) +
		weightNote*noteFactor(m.NoteCount) +
		weightRevisit*revisitFactor(m.AddressRevisit) +
		weightTime*timeFactor(m.TimeInvestment)

	multiplier := depthMultiplier(m.InteractionDepth)

	weight := base * multiplier
	if weight > 1.0 {
		weight = 1.0
	}

	if weight < 0 {
		weight = 0
	}

	return weight
}

func depthMultiplier(d domain.InteractionDepth) float32 {
	switch d {
	case domain.DepthHigh:
		return depthMultiplierHigh
	case domain.DepthMedium:
		return depthMultiplierMedium
	default:
		return depthMultiplierLow
	}
}
