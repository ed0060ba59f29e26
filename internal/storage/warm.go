package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/hinata/core/internal/core/apierr"
	"github.com/hinata/core/internal/core/ports"
)

// WarmStore is the transactional Postgres half of TieredStore (spec §4.3),
// also implementing the vector/full-text/composite indexes the retriever
// queries against (spec §4.7) since all three live in the same warm
// instance and are updated in the same write transaction.
type WarmStore struct {
	db *DB
}

// NewWarmStore wraps an already-connected warm-tier DB.
func NewWarmStore(db *DB) *WarmStore {
	return &WarmStore{db: db}
}

var (
	_ ports.VectorIndex    = (*WarmStore)(nil)
	_ ports.FullTextIndex  = (*WarmStore)(nil)
	_ ports.CompositeIndex = (*WarmStore)(nil)
)

// QueryVector performs cosine k-NN against the per-user embedding
// collection (spec §4.3 "Vector index"), matching the teacher's
// FindSimilarItem `<=>` query shape.
func (w *WarmStore) QueryVector(ctx context.Context, embedding []float32, filters ports.QueryFilters, limit int) ([]ports.QueryResult, error) {
	where, args := filterClause(filters, 2)
	args = append([]interface{}{pgvector.NewVector(embedding)}, args...)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT id, user_id, app_id, observed_at, source, highlight, note, address,
		       tags, access, embedding, quality_score, attention_weight,
		       influence_weight, tier, content_hash, enrichment_degraded,
		       enriched, deleted_at,
		       1 - (embedding <=> $1::vector) AS score
		FROM observations
		WHERE deleted_at IS NULL AND embedding IS NOT NULL %s
		ORDER BY embedding <=> $1::vector
		LIMIT $%d
	`, where, len(args))

	return w.runScoredQuery(ctx, query, args...)
}

// QueryText performs token search over highlight and note (spec §4.3
// "Full-text index"), via Postgres's built-in tsvector/tsquery on the
// search_vector column. enhancedTags are not part of that column and are
// not searched.
func (w *WarmStore) QueryText(ctx context.Context, text string, filters ports.QueryFilters, limit int) ([]ports.QueryResult, error) {
	where, args := filterClause(filters, 2)
	args = append([]interface{}{text}, args...)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT id, user_id, app_id, observed_at, source, highlight, note, address,
		       tags, access, embedding, quality_score, attention_weight,
		       influence_weight, tier, content_hash, enrichment_degraded,
		       enriched, deleted_at,
		       ts_rank(search_vector, plainto_tsquery('english', $1)) AS score
		FROM observations
		WHERE deleted_at IS NULL AND search_vector @@ plainto_tsquery('english', $1) %s
		ORDER BY score DESC
		LIMIT $%d
	`, where, len(args))

	return w.runScoredQuery(ctx, query, args...)
}

// QueryComposite performs the sorted (userId, influenceWeight desc,
// timestamp desc) scan with secondary filters (spec §4.3 "Composite
// index").
func (w *WarmStore) QueryComposite(ctx context.Context, filters ports.QueryFilters, limit int) ([]ports.QueryResult, error) {
	where, args := filterClause(filters, 1)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT id, user_id, app_id, observed_at, source, highlight, note, address,
		       tags, access, embedding, quality_score, attention_weight,
		       influence_weight, tier, content_hash, enrichment_degraded,
		       enriched, deleted_at,
		       influence_weight AS score
		FROM observations
		WHERE deleted_at IS NULL %s
		ORDER BY influence_weight DESC, observed_at DESC
		LIMIT $%d
	`, where, len(args))

	return w.runScoredQuery(ctx, query, args...)
}

func (w *WarmStore) runScoredQuery(ctx context.Context, query string, args ...interface{}) ([]ports.QueryResult, error) {
	rows, err := w.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorageTransient, "run index query", err)
	}
	defer rows.Close()

	var out []ports.QueryResult

	for rows.Next() {
		obs, score, err := scanScoredObservation(rows)
		if err != nil {
			return nil, apierr.Wrap(apierr.KindStorageTransient, "scan index query result", err)
		}

		out = append(out, ports.QueryResult{Observation: obs, Score: score})
	}

	return out, rows.Err()
}

// filterClause builds the `AND ...` secondary-filter fragment shared by all
// three indexes, starting parameter numbering at argStart.
func filterClause(f ports.QueryFilters, argStart int) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)

	n := argStart

	if f.UserID != "" {
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", n))
		args = append(args, toUUID(f.UserID))
		n++
	}

	if f.MinInfluenceWeight > 0 {
		clauses = append(clauses, fmt.Sprintf("influence_weight >= $%d", n))
		args = append(args, f.MinInfluenceWeight)
		n++
	}

	if f.MinQualityScore > 0 {
		clauses = append(clauses, fmt.Sprintf("quality_score >= $%d", n))
		args = append(args, f.MinQualityScore)
		n++
	}

	if f.Source != "" {
		clauses = append(clauses, fmt.Sprintf("source = $%d", n))
		args = append(args, f.Source)
		n++
	}

	if len(f.Tiers) > 0 {
		tiers := make([]string, len(f.Tiers))
		for i, t := range f.Tiers {
			tiers[i] = string(t)
		}

		clauses = append(clauses, fmt.Sprintf("tier = ANY($%d)", n))
		args = append(args, tiers)
		n++
	}

	if len(f.Tags) > 0 {
		clauses = append(clauses, fmt.Sprintf("tags && $%d", n))
		args = append(args, f.Tags)
		n++
	}

	if len(f.ExcludedTags) > 0 {
		clauses = append(clauses, fmt.Sprintf("NOT (tags && $%d)", n))
		args = append(args, f.ExcludedTags)
		n++
	}

	if len(clauses) == 0 {
		return "", args
	}

	return "AND " + strings.Join(clauses, " AND "), args
}
