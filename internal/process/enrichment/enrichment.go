// Package enrichment implements EnrichmentWorker (spec §4.6): it invokes a
// pluggable local analysis capability to produce enhancedTags,
// semanticAnalysis, and embedding fields, degrading to deterministic
// defaults on timeout or failure, and separately derives
// recommendedHighlights from the observation's note.
package enrichment

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/embeddings"
	"github.com/hinata/core/internal/core/ports"
	"github.com/hinata/core/internal/platform/config"
	"github.com/hinata/core/internal/platform/observability"
)

// enrichTimeout bounds one observation's enrichment call (spec §4.6
// "Timeout: 2 s per observation").
const enrichTimeout = 2 * time.Second

// Worker is EnrichmentWorker.
type Worker struct {
	capability   ports.EnrichmentCapability
	dereferencer *dereferencer
	logger       *zerolog.Logger
}

// New wires a Worker against an analysis capability and the optional
// link-dereference feature (SPEC_FULL domain stack).
func New(capability ports.EnrichmentCapability, linkCfg config.LinkDereferenceConfig, logger *zerolog.Logger) *Worker {
	var d *dereferencer
	if linkCfg.Enabled {
		d = newDereferencer(linkCfg.FetchTimeout)
	}

	return &Worker{capability: capability, dereferencer: d, logger: logger}
}

// Enrich populates obs's enriched fields in place (spec §4.6 contract).
// It never returns an error for a degraded result: timeout and capability
// failure both fall through to the default/fallback path with
// EnrichmentDegraded set, per spec "best-effort" framing (§4.1 step 4).
func (w *Worker) Enrich(ctx context.Context, obs *domain.Observation) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, enrichTimeout)
	defer cancel()

	text := obs.Note
	if w.dereferencer != nil && looksLikeURL(obs.Address) {
		if extra, err := w.dereferencer.fetch(ctx, obs.Address); err == nil && extra != "" {
			text = text + "\n" + extra
		}
	}

	result, err := w.capability.Enrich(ctx, text)

	elapsed := time.Since(start).Seconds()

	if err != nil {
		observability.EnrichmentRequests.WithLabelValues("degraded").Inc()
		observability.EnrichmentDuration.WithLabelValues("degraded").Observe(elapsed)

		if errors.Is(err, context.DeadlineExceeded) {
			observability.EnrichmentTimeouts.Inc()
		}

		w.applyDegradedDefaults(obs)

		return nil
	}

	observability.EnrichmentRequests.WithLabelValues("ok").Inc()
	observability.EnrichmentDuration.WithLabelValues("ok").Observe(elapsed)

	obs.EnhancedTags = result.Tags
	obs.SemanticAnalysis = result.SemanticAnalysis
	obs.Embedding = embeddings.L2Normalize(result.Embedding)
	obs.RecommendedHighlights = deriveRecommendedHighlights(obs.Note, obs.Highlight, result.TopSentences)
	obs.EnrichmentModelVersion = w.capability.ModelVersion()
	obs.EnrichmentDegraded = false

	return nil
}

// applyDegradedDefaults sets the fallback fields spec §4.6 prescribes on
// timeout/failure: empty tags, highlight as the sole recommended
// highlight, neutral sentiment, medium complexity, and a deterministic
// hash-derived embedding so retrieval still has something to rank on.
func (w *Worker) applyDegradedDefaults(obs *domain.Observation) {
	obs.EnhancedTags = nil
	obs.RecommendedHighlights = []string{obs.Highlight}
	obs.SemanticAnalysis = domain.SemanticAnalysis{
		Sentiment:  domain.SentimentNeutral,
		Complexity: domain.ComplexityMedium,
	}
	obs.Embedding = fallbackEmbedding(obs.Highlight + " " + obs.Note)
	obs.EnrichmentModelVersion = "fallback"
	obs.EnrichmentDegraded = true

	if w.logger != nil {
		w.logger.Warn().Str("observation_id", obs.ID).Msg("enrichment degraded, applied fallback defaults")
	}
}

func looksLikeURL(address string) bool {
	return len(address) > 8 && (address[:7] == "http://" || address[:8] == "https://")
}
