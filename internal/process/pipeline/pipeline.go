package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
	"github.com/hinata/core/internal/platform/observability"
	"github.com/hinata/core/internal/storage"
)

// contentHashDedupeWindow is how far back FindByContentHash looks for an
// existing write before treating an item as new (spec §4.1 step 3).
const contentHashDedupeWindow = 24 * time.Hour

// Pipeline implements ObservationPipeline (spec §4.1): submitObservations
// drives a batch through validation, enrichment, scoring, tiered storage,
// and an asynchronous profile-update enqueue.
type Pipeline struct {
	store    ports.ObservationStore
	enricher ports.Enricher
	scorer   ports.Scorer
	events   ports.ProfileEventSink

	limiters     *appLimiters
	backpressure enrichmentBackpressure

	logger *zerolog.Logger
}

// New constructs a Pipeline. rps is the per-app rate limit (spec §5).
func New(store ports.ObservationStore, enricher ports.Enricher, scorer ports.Scorer, events ports.ProfileEventSink, rps int, logger *zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		enricher: enricher,
		scorer:   scorer,
		events:   events,
		limiters: newAppLimiters(rps),
		logger:   logger,
	}
}

// ProcessBatch implements submitObservations (spec §4.1). Items are
// processed in input order; a single item's failure never rejects the
// rest of the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, req BatchRequest) (BatchSummary, error) {
	jobID := newJobID()
	summary := BatchSummary{JobID: jobID, PerItem: make([]ItemResult, 0, len(req.Batch))}

	degraded := p.backpressure.degraded()

	lowPriorityQuota := req.Options.Priority != PriorityHigh
	if lowPriorityQuota && !p.limiters.allowN(req.AppID, len(req.Batch)) {
		for range req.Batch {
			summary.PerItem = append(summary.PerItem, ItemResult{Accepted: false, RejectedReason: RejectedStorage})
		}

		observability.PipelineProcessed.WithLabelValues("quota_exceeded").Add(float64(len(req.Batch)))

		return summary, nil
	}

	for _, item := range req.Batch {
		result, itemDegraded := p.processItem(ctx, req.UserID, req.AppID, item, req.Options, degraded)
		summary.PerItem = append(summary.PerItem, result)

		if result.Accepted {
			summary.ProcessedCount++
		}

		if itemDegraded {
			summary.Degraded = true
		}
	}

	return summary, nil
}

// processItem runs one raw item through steps 1-10 of spec §4.1, isolating
// its errors from the rest of the batch.
func (p *Pipeline) processItem(ctx context.Context, userID, appID string, item RawObservation, opts BatchOptions, forceDegraded bool) (ItemResult, bool) {
	start := time.Now()
	defer func() {
		observability.PipelineStageDuration.WithLabelValues("item").Observe(time.Since(start).Seconds())
	}()

	ts, tags, err := validateItem(item)
	if err != nil {
		observability.PipelineProcessed.WithLabelValues("rejected_validation").Inc()

		return ItemResult{Accepted: false, RejectedReason: RejectedValidation}, false
	}

	hash := contentHash(userID, item, tags)

	if existing, err := p.store.FindByContentHash(ctx, userID, hash, contentHashDedupeWindow); err == nil && existing != nil {
		observability.PipelineProcessed.WithLabelValues("duplicate").Inc()

		return ItemResult{ID: existing.ID, Accepted: true, InfluenceWeight: existing.InfluenceWeight}, false
	}

	obs := &domain.Observation{
		ID:          newObservationID(),
		UserID:      userID,
		AppID:       appID,
		Timestamp:   ts,
		Source:      item.Source,
		Highlight:   item.Highlight,
		Note:        item.Note,
		Address:     item.Address,
		Tags:        tags,
		Access:      item.Access,
		ContentHash: hash,
	}

	degraded := forceDegraded || !opts.EnableEnrichment

	if !degraded {
		p.backpressure.enter()

		enrichStart := time.Now()
		err := p.enricher.Enrich(ctx, obs)

		observability.PipelineStageDuration.WithLabelValues("enrich").Observe(time.Since(enrichStart).Seconds())
		p.backpressure.leave()

		if err != nil {
			if p.logger != nil {
				p.logger.Warn().Err(err).Str("observation_id", obs.ID).Msg("enrichment failed, applying degraded defaults")
			}

			obs.EnrichmentDegraded = true
			obs.EnrichmentModelVersion = "fallback"
		}
	} else {
		obs.EnrichmentDegraded = true
		obs.EnrichmentModelVersion = "fallback"
	}

	weight, metrics, err := p.scorer.Score(ctx, userID, obs)
	if err != nil {
		if p.logger != nil {
			p.logger.Error().Err(err).Str("observation_id", obs.ID).Msg("attention scoring failed")
		}

		observability.PipelineProcessed.WithLabelValues("rejected_storage").Inc()

		return ItemResult{ID: obs.ID, Accepted: false, RejectedReason: RejectedStorage}, obs.EnrichmentDegraded
	}

	obs.AttentionWeight = weight
	obs.AttentionMetrics = metrics
	obs.QualityScore = computeQualityScore(obs)
	obs.InfluenceWeight = obs.QualityScore * obs.AttentionWeight
	obs.Tier = storage.DetermineTier(time.Since(obs.Timestamp), obs.InfluenceWeight)

	if err := p.store.Put(ctx, obs); err != nil {
		observability.PipelineProcessed.WithLabelValues("rejected_storage").Inc()

		if p.logger != nil {
			p.logger.Error().Err(err).Str("observation_id", obs.ID).Msg("store write failed")
		}

		return ItemResult{ID: obs.ID, Accepted: false, RejectedReason: RejectedStorage}, obs.EnrichmentDegraded
	}

	if err := p.events.Enqueue(ctx, ports.ProfileUpdateEvent{UserID: userID, ObservationID: obs.ID}); err != nil && p.logger != nil {
		p.logger.Warn().Err(err).Str("observation_id", obs.ID).Msg("profile update event enqueue failed")
	}

	observability.ObservationsIngested.WithLabelValues(appID).Inc()
	observability.PipelineProcessed.WithLabelValues("accepted").Inc()

	return ItemResult{ID: obs.ID, Accepted: true, InfluenceWeight: obs.InfluenceWeight}, obs.EnrichmentDegraded
}

func newObservationID() string {
	return "obs_" + randomHex(16)
}

func newJobID() string {
	return "job_" + randomHex(8)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)

	return hex.EncodeToString(buf)
}
