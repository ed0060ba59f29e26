package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/hinata/core/internal/core/apierr"
	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
)

var _ ports.ProfileStore = (*WarmStore)(nil)

// LoadProfile reads every ProfileComponent for userID, ordered by creation
// time, so ProfileEngine sees a stable component ordering across loads
// (spec §4.4).
func (w *WarmStore) LoadProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	rows, err := w.db.Pool.Query(ctx, `
		SELECT id, user_id, component_type, description, embedding, confidence,
		       total_attention_weight, normalized_weight, priority,
		       activation_threshold, supporting_evidence, created_at,
		       last_updated, last_activated
		FROM profile_components
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, toUUID(userID))
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorageTransient, "load profile components", err)
	}
	defer rows.Close()

	profile := &domain.UserProfile{UserID: userID}

	for rows.Next() {
		comp, err := scanProfileComponent(rows)
		if err != nil {
			return nil, apierr.Wrap(apierr.KindStorageTransient, "scan profile component", err)
		}

		profile.Components = append(profile.Components, comp)

		if comp.LastUpdated.After(profile.LastUpdated) {
			profile.LastUpdated = comp.LastUpdated
		}
	}

	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(apierr.KindStorageTransient, "scan profile components", err)
	}

	profile.TotalComponents = len(profile.Components)

	for _, c := range profile.Components {
		profile.ActiveComponentIDs = append(profile.ActiveComponentIDs, c.ID)
	}

	return profile, nil
}

// SaveProfile upserts every component in profile and deletes any row for
// userID not present in profile.Components, inside one transaction, so a
// partial rebalance/merge/evict is never visible (spec §4.4's atomic
// "persist: atomic update of UserProfile and affected component rows").
func (w *WarmStore) SaveProfile(ctx context.Context, profile *domain.UserProfile) error {
	tx, err := w.db.Pool.Begin(ctx)
	if err != nil {
		return apierr.Wrap(apierr.KindStorageTransient, "begin profile save transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op once committed

	keep := make([]string, 0, len(profile.Components))

	for _, comp := range profile.Components {
		if err := upsertProfileComponent(ctx, tx, comp); err != nil {
			return err
		}

		keep = append(keep, comp.ID)
	}

	if err := deleteEvictedComponents(ctx, tx, profile.UserID, keep); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apierr.Wrap(apierr.KindStorageTransient, "commit profile save", err)
	}

	return nil
}

// deleteEvictedComponents removes every profile_components row for userID
// whose id is not in keep (spec §4.4 step 8 eviction).
func deleteEvictedComponents(ctx context.Context, tx pgx.Tx, userID string, keep []string) error {
	keptUUIDs := make([]pgtype.UUID, len(keep))
	for i, id := range keep {
		keptUUIDs[i] = toUUID(id)
	}

	_, err := tx.Exec(ctx, `
		DELETE FROM profile_components
		WHERE user_id = $1 AND NOT (id = ANY($2))
	`, toUUID(userID), keptUUIDs)
	if err != nil {
		return apierr.Wrap(apierr.KindStorageTransient, "delete evicted profile components", err)
	}

	return nil
}

func upsertProfileComponent(ctx context.Context, tx pgx.Tx, c *domain.ProfileComponent) error {
	evidence, err := toJSONB(c.SupportingEvidence)
	if err != nil {
		return apierr.Wrap(apierr.KindStoragePermanent, "marshal supporting evidence", err)
	}

	var embedding *pgvector.Vector
	if len(c.Embedding) > 0 {
		v := pgvector.NewVector(c.Embedding)
		embedding = &v
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO profile_components (
			id, user_id, component_type, description, embedding, confidence,
			total_attention_weight, normalized_weight, priority,
			activation_threshold, supporting_evidence, created_at, last_updated,
			last_activated
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (id) DO UPDATE SET
			description = EXCLUDED.description,
			embedding = EXCLUDED.embedding,
			confidence = EXCLUDED.confidence,
			total_attention_weight = EXCLUDED.total_attention_weight,
			normalized_weight = EXCLUDED.normalized_weight,
			priority = EXCLUDED.priority,
			activation_threshold = EXCLUDED.activation_threshold,
			supporting_evidence = EXCLUDED.supporting_evidence,
			last_updated = EXCLUDED.last_updated,
			last_activated = EXCLUDED.last_activated
	`,
		toUUID(c.ID), toUUID(c.UserID), string(c.ComponentType), toText(c.Description), embedding,
		toFloat4(c.Confidence), toFloat4(c.TotalAttentionWeight), toFloat4(c.NormalizedWeight),
		string(c.Priority), toFloat4(c.ActivationThreshold), evidence,
		toTimestamptz(c.CreatedAt), toTimestamptz(c.LastUpdated), toTimestamptz(c.LastActivated),
	)
	if err != nil {
		return apierr.Wrap(apierr.KindStorageTransient, "upsert profile component", err)
	}

	return nil
}

func scanProfileComponent(rows pgx.Rows) (*domain.ProfileComponent, error) {
	var (
		id, userID                        pgtype.UUID
		componentType                     string
		description                       pgtype.Text
		embedding                         pgvector.Vector
		confidence, totalAttention        pgtype.Float4
		normalized, activationThreshold   pgtype.Float4
		priority                          string
		evidence                          pgtype.Text
		createdAt, lastUpdated, lastActivated pgtype.Timestamptz
	)

	if err := rows.Scan(
		&id, &userID, &componentType, &description, &embedding, &confidence,
		&totalAttention, &normalized, &priority, &activationThreshold, &evidence,
		&createdAt, &lastUpdated, &lastActivated,
	); err != nil {
		return nil, err
	}

	comp := &domain.ProfileComponent{
		ID:                   fromUUID(id),
		UserID:               fromUUID(userID),
		ComponentType:        domain.ComponentType(componentType),
		Description:          fromText(description),
		Embedding:            embedding.Slice(),
		Confidence:           fromFloat4(confidence),
		TotalAttentionWeight: fromFloat4(totalAttention),
		NormalizedWeight:     fromFloat4(normalized),
		Priority:             domain.Priority(priority),
		ActivationThreshold:  fromFloat4(activationThreshold),
		CreatedAt:            fromTimestamptz(createdAt),
		LastUpdated:          fromTimestamptz(lastUpdated),
		LastActivated:        fromTimestamptz(lastActivated),
	}

	if err := fromJSONB(evidence, &comp.SupportingEvidence); err != nil {
		return nil, fmt.Errorf("unmarshal supporting evidence: %w", err)
	}

	return comp, nil
}
