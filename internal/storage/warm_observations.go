package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/hinata/core/internal/core/apierr"
	"github.com/hinata/core/internal/core/domain"
)

// enrichedColumns is the full-fidelity warm-tier shape of an Observation's
// enriched JSON column, covering the fields spec §4.3 calls for.
type enrichedColumns struct {
	EnhancedTags           []string                `json:"enhancedTags"`
	RecommendedHighlights  []string                `json:"recommendedHighlights"`
	SemanticAnalysis       domain.SemanticAnalysis `json:"semanticAnalysis"`
	AttentionMetrics       domain.AttentionMetrics `json:"attentionMetrics"`
	EnrichmentModelVersion string                  `json:"enrichmentModelVersion"`
}

// PutWarm inserts or replaces the full row for obs, including its embedding
// and enriched JSON columns, in a single statement — the transactional half
// of the all-or-nothing write §4.3 requires (the other half, the hot-tier
// promotion, never fails the write).
func (w *WarmStore) PutWarm(ctx context.Context, tx pgx.Tx, obs *domain.Observation) error {
	enriched, err := toJSONB(enrichedColumns{
		EnhancedTags:           obs.EnhancedTags,
		RecommendedHighlights:  obs.RecommendedHighlights,
		SemanticAnalysis:       obs.SemanticAnalysis,
		AttentionMetrics:       obs.AttentionMetrics,
		EnrichmentModelVersion: obs.EnrichmentModelVersion,
	})
	if err != nil {
		return apierr.Wrap(apierr.KindStoragePermanent, "marshal enriched columns", err)
	}

	var embedding *pgvector.Vector
	if len(obs.Embedding) > 0 {
		v := pgvector.NewVector(obs.Embedding)
		embedding = &v
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO observations (
			id, user_id, app_id, observed_at, source, highlight, note, address,
			tags, access, embedding, quality_score, attention_weight,
			influence_weight, tier, content_hash, enrichment_degraded,
			enriched, deleted_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19
		)
		ON CONFLICT (id) DO UPDATE SET
			tags = EXCLUDED.tags,
			embedding = EXCLUDED.embedding,
			quality_score = EXCLUDED.quality_score,
			attention_weight = EXCLUDED.attention_weight,
			influence_weight = EXCLUDED.influence_weight,
			tier = EXCLUDED.tier,
			enrichment_degraded = EXCLUDED.enrichment_degraded,
			enriched = EXCLUDED.enriched,
			deleted_at = EXCLUDED.deleted_at
	`,
		toUUID(obs.ID), toUUID(obs.UserID), toText(obs.AppID), toTimestamptz(obs.Timestamp),
		toText(obs.Source), toText(obs.Highlight), toText(obs.Note), toText(obs.Address),
		obs.Tags, string(obs.Access), embedding, toFloat4(obs.QualityScore),
		toFloat4(obs.AttentionWeight), toFloat4(obs.InfluenceWeight), string(obs.Tier),
		toText(obs.ContentHash), obs.EnrichmentDegraded, enriched, toTimestamptzPtr(obs.DeletedAt),
	)
	if err != nil {
		return apierr.Wrap(apierr.KindStorageTransient, "write observation", err)
	}

	return nil
}

// Get reads through hot then warm then cold (spec §4.3 get()); this method
// is the warm-tier leg only, called by TieredStore.Get on a hot miss.
func (w *WarmStore) Get(ctx context.Context, id string) (*domain.Observation, error) {
	row := w.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, app_id, observed_at, source, highlight, note, address,
		       tags, access, embedding, quality_score, attention_weight,
		       influence_weight, tier, content_hash, enrichment_degraded,
		       enriched, deleted_at
		FROM observations WHERE id = $1
	`, toUUID(id))

	obs, err := scanObservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.New(apierr.KindStoragePermanent, "observation not found")
	}

	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorageTransient, "read observation", err)
	}

	return obs, nil
}

// FindByContentHash supports the pipeline's idempotency check (spec §4.1
// step 2): same user, same content hash, within the dedupe window.
func (w *WarmStore) FindByContentHash(ctx context.Context, userID, contentHash string, within time.Duration) (*domain.Observation, error) {
	row := w.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, app_id, observed_at, source, highlight, note, address,
		       tags, access, embedding, quality_score, attention_weight,
		       influence_weight, tier, content_hash, enrichment_degraded,
		       enriched, deleted_at
		FROM observations
		WHERE user_id = $1 AND content_hash = $2 AND observed_at >= $3
		ORDER BY observed_at DESC
		LIMIT 1
	`, toUUID(userID), toText(contentHash), time.Now().Add(-within))

	obs, err := scanObservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence of a duplicate is not an error
	}

	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorageTransient, "find by content hash", err)
	}

	return obs, nil
}

// RecentByUser backs AttentionScorer's historical window scan (spec §4.2).
func (w *WarmStore) RecentByUser(ctx context.Context, userID string, window time.Duration, limit int) ([]*domain.Observation, error) {
	rows, err := w.db.Pool.Query(ctx, `
		SELECT id, user_id, app_id, observed_at, source, highlight, note, address,
		       tags, access, embedding, quality_score, attention_weight,
		       influence_weight, tier, content_hash, enrichment_degraded,
		       enriched, deleted_at
		FROM observations
		WHERE user_id = $1 AND observed_at >= $2 AND deleted_at IS NULL
		ORDER BY observed_at DESC
		LIMIT $3
	`, toUUID(userID), time.Now().Add(-window), limit)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorageTransient, "scan recent observations", err)
	}
	defer rows.Close()

	return collectObservations(rows)
}

// MigrationCandidates returns warm-tier observations whose stored tier no
// longer matches DetermineTier(age, influenceWeight) — either because they
// aged or lost weight past the warm/cold boundary, or gained enough weight
// recently to cross back into hot — for migrate() to re-place (spec §4.3
// migrate(): "scan warm for candidates whose age or weight crosses
// hot/warm/cold boundaries; move and reindex"). Bounded by limit since this
// runs on every migration tick against the bulk of the dataset.
func (w *WarmStore) MigrationCandidates(ctx context.Context, limit int) ([]*domain.Observation, error) {
	rows, err := w.db.Pool.Query(ctx, `
		SELECT id, user_id, app_id, observed_at, source, highlight, note, address,
		       tags, access, embedding, quality_score, attention_weight,
		       influence_weight, tier, content_hash, enrichment_degraded,
		       enriched, deleted_at
		FROM observations
		WHERE tier = $1 AND deleted_at IS NULL
		  AND (
		    observed_at < $2 OR influence_weight < $3
		    OR (observed_at >= $4 AND influence_weight >= $5)
		  )
		ORDER BY observed_at ASC
		LIMIT $6
	`,
		string(domain.TierWarm), time.Now().Add(-warmTierMaxAge), warmTierMinWeight,
		time.Now().Add(-hotTierMaxAgeForPlacement), hotTierMinWeightForPlacement, limit,
	)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorageTransient, "scan warm migration candidates", err)
	}
	defer rows.Close()

	return collectObservations(rows)
}

// Update mutates only the fields spec §4.3 allows post-write: tier,
// influenceWeight, and soft-delete.
func (w *WarmStore) Update(ctx context.Context, id string, mutate func(*domain.Observation)) error {
	obs, err := w.Get(ctx, id)
	if err != nil {
		return err
	}

	mutate(obs)

	_, err = w.db.Pool.Exec(ctx, `
		UPDATE observations
		SET tier = $2, influence_weight = $3, deleted_at = $4
		WHERE id = $1
	`, toUUID(id), string(obs.Tier), toFloat4(obs.InfluenceWeight), toTimestamptzPtr(obs.DeletedAt))
	if err != nil {
		return apierr.Wrap(apierr.KindStorageTransient, "update observation", err)
	}

	return nil
}

// DeadLetter records a persistently failed write in the dead-letter
// partition (spec §4.3 failure semantics): never silently dropped, never
// returned by retrieval.
func (w *WarmStore) DeadLetter(ctx context.Context, obs *domain.Observation, cause error) error {
	enriched, err := toJSONB(enrichedColumns{
		EnhancedTags:           obs.EnhancedTags,
		RecommendedHighlights:  obs.RecommendedHighlights,
		SemanticAnalysis:       obs.SemanticAnalysis,
		AttentionMetrics:       obs.AttentionMetrics,
		EnrichmentModelVersion: obs.EnrichmentModelVersion,
	})
	if err != nil {
		return fmt.Errorf("marshal dead-lettered observation: %w", err)
	}

	_, err = w.db.Pool.Exec(ctx, `
		INSERT INTO observation_dead_letter (id, user_id, app_id, error, enriched, failed_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET error = EXCLUDED.error, failed_at = now()
	`, toUUID(obs.ID), toUUID(obs.UserID), toText(obs.AppID), toText(cause.Error()), enriched)
	if err != nil {
		return fmt.Errorf("write dead letter: %w", err)
	}

	return nil
}

// observationScanTarget holds scan destinations for the 19-column
// observation projection shared by direct reads and index queries.
type observationScanTarget struct {
	id, userID               pgtype.UUID
	appID, source, highlight pgtype.Text
	note, address             pgtype.Text
	tags                      []string
	access                    string
	embedding                 pgvector.Vector
	quality, attention        pgtype.Float4
	influence                 pgtype.Float4
	tier, contentHash         pgtype.Text
	enrichmentDegraded        bool
	enriched                  pgtype.Text
	deletedAt                 pgtype.Timestamptz
	observedAt                pgtype.Timestamptz
}

func (t *observationScanTarget) dests() []interface{} {
	return []interface{}{
		&t.id, &t.userID, &t.appID, &t.observedAt, &t.source, &t.highlight,
		&t.note, &t.address, &t.tags, &t.access, &t.embedding, &t.quality, &t.attention,
		&t.influence, &t.tier, &t.contentHash, &t.enrichmentDegraded, &t.enriched, &t.deletedAt,
	}
}

func (t *observationScanTarget) toObservation() *domain.Observation {
	obs := &domain.Observation{
		ID:                 fromUUID(t.id),
		UserID:             fromUUID(t.userID),
		AppID:              fromText(t.appID),
		Timestamp:          fromTimestamptz(t.observedAt),
		Source:             fromText(t.source),
		Highlight:          fromText(t.highlight),
		Note:               fromText(t.note),
		Address:            fromText(t.address),
		Tags:               t.tags,
		Access:             domain.AccessLevel(t.access),
		QualityScore:       fromFloat4(t.quality),
		AttentionWeight:    fromFloat4(t.attention),
		InfluenceWeight:    fromFloat4(t.influence),
		Tier:               domain.Tier(t.tier.String),
		ContentHash:        fromText(t.contentHash),
		EnrichmentDegraded: t.enrichmentDegraded,
		DeletedAt:          fromTimestamptzPtr(t.deletedAt),
		Embedding:          t.embedding.Slice(),
	}

	var cols enrichedColumns
	if err := fromJSONB(t.enriched, &cols); err == nil {
		obs.EnhancedTags = cols.EnhancedTags
		obs.RecommendedHighlights = cols.RecommendedHighlights
		obs.SemanticAnalysis = cols.SemanticAnalysis
		obs.AttentionMetrics = cols.AttentionMetrics
		obs.EnrichmentModelVersion = cols.EnrichmentModelVersion
	}

	return obs
}

func scanObservation(row pgx.Row) (*domain.Observation, error) {
	var t observationScanTarget
	if err := row.Scan(t.dests()...); err != nil {
		return nil, err
	}

	return t.toObservation(), nil
}

// scanScoredObservation scans an observation row with a trailing computed
// `score` column, as returned by the three index queries in warm.go.
func scanScoredObservation(rows pgx.Rows) (*domain.Observation, float32, error) {
	var (
		t     observationScanTarget
		score pgtype.Float4
	)

	dests := append(t.dests(), &score)
	if err := rows.Scan(dests...); err != nil {
		return nil, 0, err
	}

	return t.toObservation(), fromFloat4(score), nil
}

func collectObservations(rows pgx.Rows) ([]*domain.Observation, error) {
	var out []*domain.Observation

	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, obs)
	}

	return out, rows.Err()
}
