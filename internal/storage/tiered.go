package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hinata/core/internal/core/apierr"
	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
	"github.com/hinata/core/internal/platform/observability"
	"github.com/hinata/core/internal/platform/retry"
	"github.com/hinata/core/internal/platform/worker"
)

// Tier boundary thresholds (spec §4.1 step 8, reused by migrate() to
// re-evaluate crossed boundaries): hot if age<7d and influenceWeight>=0.7;
// warm if age<30d and influenceWeight>=0.3; else cold.
const (
	hotTierMaxAgeForPlacement   = 7 * 24 * time.Hour
	hotTierMinWeightForPlacement = 0.7
	warmTierMaxAge              = 30 * 24 * time.Hour
	warmTierMinWeight           = 0.3
)

// DetermineTier implements spec §4.1 step 8's tier placement rule.
func DetermineTier(age time.Duration, influenceWeight float32) domain.Tier {
	switch {
	case age < hotTierMaxAgeForPlacement && influenceWeight >= hotTierMinWeightForPlacement:
		return domain.TierHot
	case age < warmTierMaxAge && influenceWeight >= warmTierMinWeight:
		return domain.TierWarm
	default:
		return domain.TierCold
	}
}

// TieredStore orchestrates the hot/warm/cold tiers and their three indexes
// behind the single ObservationStore surface the pipeline and scorer
// depend on (spec §4.3).
type TieredStore struct {
	hot        *HotTier
	warm       *WarmStore
	cold       *ColdTier
	serializer *worker.UserSerializer
	logger     *zerolog.Logger
}

var _ ports.ObservationStore = (*TieredStore)(nil)

// NewTieredStore wires the three tiers behind one store, sharing the
// per-user serializer with ProfileEngine so migrate() never races a
// concurrent profile rebalance for the same user (spec §5).
func NewTieredStore(hot *HotTier, warm *WarmStore, cold *ColdTier, serializer *worker.UserSerializer, logger *zerolog.Logger) *TieredStore {
	return &TieredStore{hot: hot, warm: warm, cold: cold, serializer: serializer, logger: logger}
}

// Put writes obs to the tier determined by its current InfluenceWeight/age,
// retried per spec §4.3 failure semantics; a persistent failure is
// dead-lettered, never silently dropped.
func (t *TieredStore) Put(ctx context.Context, obs *domain.Observation) error {
	start := time.Now()

	err := retry.Do(ctx, retry.StorageWritePolicy(), func(ctx context.Context) error {
		tx, err := t.warm.db.Pool.Begin(ctx)
		if err != nil {
			return apierr.Wrap(apierr.KindStorageTransient, "begin write transaction", err)
		}
		defer tx.Rollback(ctx) //nolint:errcheck // no-op once committed

		if err := t.warm.PutWarm(ctx, tx, obs); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return apierr.Wrap(apierr.KindStorageTransient, "commit observation write", err)
		}

		return nil
	})

	observability.StorageWriteDuration.WithLabelValues(string(obs.Tier)).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.StorageDeadLetters.Inc()

		if dlErr := t.warm.DeadLetter(ctx, obs, err); dlErr != nil && t.logger != nil {
			t.logger.Error().Err(dlErr).Str("observation_id", obs.ID).Msg("failed to record dead letter")
		}

		return apierr.Wrap(apierr.KindStoragePermanent, "persist observation after retries exhausted", err)
	}

	if obs.Tier == domain.TierHot {
		t.hot.Put(obs)
	}

	return nil
}

// Get reads through hot then warm then cold, promoting to hot on a read
// count crossing the promotion threshold (spec §4.3 get()).
func (t *TieredStore) Get(ctx context.Context, id string) (*domain.Observation, error) {
	if obs, ok := t.hot.Get(id); ok {
		return obs, nil
	}

	obs, err := t.warm.Get(ctx, id)
	if err == nil {
		if t.hot.RecordRead(id) {
			t.hot.Put(obs)
		}

		return obs, nil
	}

	coldObs, coldErr := t.cold.Get(ctx, id)
	if coldErr == nil {
		return coldObs, nil
	}

	return nil, err
}

// FindByContentHash checks the warm dedupe window first (the common case),
// falling back to cold storage only when the warm store has nothing.
func (t *TieredStore) FindByContentHash(ctx context.Context, userID, contentHash string, within time.Duration) (*domain.Observation, error) {
	obs, err := t.warm.FindByContentHash(ctx, userID, contentHash, within)
	if err != nil {
		return nil, err
	}

	if obs != nil {
		return obs, nil
	}

	id, found, err := t.cold.FindByContentHash(ctx, userID, contentHash)
	if err != nil || !found {
		return nil, nil //nolint:nilnil // absence of a duplicate is not an error
	}

	return t.cold.Get(ctx, id)
}

// RecentByUser backs AttentionScorer's historical window scan.
func (t *TieredStore) RecentByUser(ctx context.Context, userID string, window time.Duration, limit int) ([]*domain.Observation, error) {
	return t.warm.RecentByUser(ctx, userID, window, limit)
}

// Update mutates only tier/influenceWeight/soft-delete, reflecting the
// change into the hot tier if it's currently cached there.
func (t *TieredStore) Update(ctx context.Context, id string, mutate func(*domain.Observation)) error {
	if err := t.warm.Update(ctx, id, mutate); err != nil {
		return err
	}

	if obs, ok := t.hot.Get(id); ok {
		mutate(obs)

		if obs.Tier != domain.TierHot {
			t.hot.Evict(id)
		}
	}

	return nil
}

// DeadLetter records a persistently failed write (also called directly by
// Put on retry exhaustion).
func (t *TieredStore) DeadLetter(ctx context.Context, obs *domain.Observation, cause error) error {
	return t.warm.DeadLetter(ctx, obs, cause)
}

// VectorIndex, FullTextIndex, CompositeIndex: TieredStore delegates
// directly to the warm store, since all three indexes live in the same
// Postgres instance (spec §4.3).
func (t *TieredStore) QueryVector(ctx context.Context, embedding []float32, filters ports.QueryFilters, limit int) ([]ports.QueryResult, error) {
	return t.warm.QueryVector(ctx, embedding, filters, limit)
}

func (t *TieredStore) QueryText(ctx context.Context, query string, filters ports.QueryFilters, limit int) ([]ports.QueryResult, error) {
	return t.warm.QueryText(ctx, query, filters, limit)
}

func (t *TieredStore) QueryComposite(ctx context.Context, filters ports.QueryFilters, limit int) ([]ports.QueryResult, error) {
	return t.warm.QueryComposite(ctx, filters, limit)
}

// MigrationTask builds the background ticker task that re-evaluates tier
// boundaries and moves observations between hot/warm/cold (spec §4.3
// migrate(): "runs with per-user serialization").
func (t *TieredStore) MigrationTask(interval time.Duration) worker.TickerTask {
	return worker.TickerTask{
		Name:     "tiered-store-migrate",
		Interval: interval,
		Run: func(ctx context.Context) {
			t.runMigration(ctx)
		},
	}
}

// warmMigrationBatchSize bounds how many warm candidates each migration
// tick re-places, so a large backlog is worked down over several ticks
// rather than blocking the ticker loop on a single scan.
const warmMigrationBatchSize = 500

func (t *TieredStore) runMigration(ctx context.Context) {
	for _, id := range t.hot.Sweep(ctx) {
		t.demoteFromHot(ctx, id)
	}

	t.migrateWarmCandidates(ctx)
}

// migrateWarmCandidates re-places warm observations whose tier no longer
// matches their current age/influenceWeight — the bulk of the dataset lives
// in warm, not hot, so this is the leg of migrate() that actually keeps
// tier a deterministic function of age and weight over time (spec §3, §4.3).
func (t *TieredStore) migrateWarmCandidates(ctx context.Context) {
	candidates, err := t.warm.MigrationCandidates(ctx, warmMigrationBatchSize)
	if err != nil {
		if t.logger != nil {
			t.logger.Error().Err(err).Msg("warm migration candidate scan failed")
		}

		return
	}

	for _, obs := range candidates {
		t.migrateWarmObservation(ctx, obs)
	}
}

func (t *TieredStore) migrateWarmObservation(ctx context.Context, obs *domain.Observation) {
	t.serializer.WithUserLock(obs.UserID, func() {
		newTier := DetermineTier(time.Since(obs.Timestamp), obs.InfluenceWeight)
		if newTier == obs.Tier {
			return
		}

		if err := t.Update(ctx, obs.ID, func(o *domain.Observation) { o.Tier = newTier }); err != nil {
			if t.logger != nil {
				t.logger.Error().Err(err).Str("observation_id", obs.ID).Msg("warm tier migration update failed")
			}

			return
		}

		if newTier == domain.TierHot {
			obs.Tier = newTier
			t.hot.Put(obs)
		}

		if newTier == domain.TierCold {
			if err := t.cold.Append(ctx, obs); err != nil && t.logger != nil {
				t.logger.Error().Err(err).Str("observation_id", obs.ID).Msg("cold tier append failed during warm migration")
			}
		}
	})
}

func (t *TieredStore) demoteFromHot(ctx context.Context, id string) {
	obs, ok := t.hot.Get(id)
	if !ok {
		return
	}

	t.serializer.WithUserLock(obs.UserID, func() {
		newTier := DetermineTier(time.Since(obs.Timestamp), obs.InfluenceWeight)
		if newTier == obs.Tier {
			return
		}

		if err := t.Update(ctx, id, func(o *domain.Observation) { o.Tier = newTier }); err != nil {
			if t.logger != nil {
				t.logger.Error().Err(err).Str("observation_id", id).Msg("tier migration update failed")
			}

			return
		}

		t.hot.Evict(id)

		if newTier == domain.TierCold {
			if err := t.cold.Append(ctx, obs); err != nil && t.logger != nil {
				t.logger.Error().Err(err).Str("observation_id", id).Msg("cold tier append failed during migration")
			}
		}
	})
}
