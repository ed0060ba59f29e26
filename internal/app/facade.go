package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
	"github.com/hinata/core/internal/gateway"
	"github.com/hinata/core/internal/platform/observability"
	"github.com/hinata/core/internal/process/pipeline"
	"github.com/hinata/core/internal/process/profile"
	"github.com/hinata/core/internal/process/prompt"
	"github.com/hinata/core/internal/retriever"
)

// Facade exposes the six external interfaces named in spec §6
// (submitObservations, queryObservations, getProfile, chat, getUsage,
// registerApp) as plain Go method calls. The HTTP/RPC framing that would
// front these for a remote caller is explicitly out of scope (spec §1);
// an embedding service wires its own transport against this boundary.
type Facade struct {
	pipeline  *pipeline.Pipeline
	retriever *retriever.Retriever
	profiles  ports.ProfileStore
	composer  *prompt.Composer
	gw        *gateway.Gateway
	apps      ports.AppRegistry
	usage     ports.UsageQuery
	audit     ports.AuditSink
	logger    *zerolog.Logger
}

// SubmitObservations implements submitObservations (spec §4.1, §6). Every
// accepted item is a distinct write access and gets its own AuditRecord
// (spec §8 invariant 9).
func (f *Facade) SubmitObservations(ctx context.Context, req pipeline.BatchRequest) (pipeline.BatchSummary, error) {
	summary, err := f.pipeline.ProcessBatch(ctx, req)
	if err != nil {
		return summary, err
	}

	for _, item := range summary.PerItem {
		if !item.Accepted {
			continue
		}

		f.recordAudit(ctx, domain.AuditRecord{
			UserID:       req.UserID,
			AccessorID:   req.AppID,
			AccessorKind: domain.AccessorApp,
			DataKind:     domain.DataKindObservation,
			DataID:       item.ID,
			AccessKind:   domain.AccessKindWrite,
			Timestamp:    time.Now(),
			Purpose:      "submitObservations",
			Result:       "success",
		})
	}

	return summary, nil
}

// QueryObservations implements queryObservations (spec §4.7, §6). Every
// observation returned is a distinct read access and gets its own
// AuditRecord (spec §8 invariant 9).
func (f *Facade) QueryObservations(ctx context.Context, appID, userID, qText string, qEmbedding []float32, filters ports.QueryFilters, limit int) ([]ports.QueryResult, error) {
	results, err := f.retriever.Query(ctx, userID, qText, qEmbedding, filters, limit)
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		if res.Observation == nil {
			continue
		}

		f.recordAudit(ctx, domain.AuditRecord{
			UserID:       userID,
			AccessorID:   appID,
			AccessorKind: domain.AccessorApp,
			DataKind:     domain.DataKindObservation,
			DataID:       res.Observation.ID,
			AccessKind:   domain.AccessKindRead,
			Timestamp:    time.Now(),
			Purpose:      "queryObservations",
			Result:       "success",
		})
	}

	return results, nil
}

// GetProfile implements getProfile (spec §4.4, §6), auditing the profile
// access itself (spec §8 invariant 9).
func (f *Facade) GetProfile(ctx context.Context, appID, userID string) (*domain.UserProfile, error) {
	prof, err := f.profiles.LoadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	f.recordAudit(ctx, domain.AuditRecord{
		UserID:       userID,
		AccessorID:   appID,
		AccessorKind: domain.AccessorApp,
		DataKind:     domain.DataKindProfile,
		DataID:       userID,
		AccessKind:   domain.AccessKindRead,
		Timestamp:    time.Now(),
		Purpose:      "getProfile",
		Result:       "success",
	})

	return prof, nil
}

// recordAudit writes one AuditRecord for a facade access (spec §8
// invariant 9), logging rather than failing the caller's operation if the
// audit write itself fails — the same best-effort posture ExternalModelGateway
// already uses for its own audit write.
func (f *Facade) recordAudit(ctx context.Context, rec domain.AuditRecord) {
	if f.audit == nil {
		return
	}

	if err := f.audit.Record(ctx, rec); err != nil {
		if f.logger != nil {
			f.logger.Warn().Err(err).Str("user_id", rec.UserID).Str("data_kind", string(rec.DataKind)).Msg("failed to write audit record")
		}

		return
	}

	observability.AuditRecordsWritten.WithLabelValues(rec.Purpose).Inc()
}

// PreviewPrompt composes (but doesn't send) the prompt chat() would build
// for userID, useful for callers that want to inspect the layered-memory
// context without spending an external-model call.
func (f *Facade) PreviewPrompt(ctx context.Context, userID, query string, queryEmbedding []float32) (prompt.Result, error) {
	return f.composer.Compose(ctx, userID, query, queryEmbedding)
}

// Chat implements chat() (spec §4.8, §6).
func (f *Facade) Chat(ctx context.Context, req gateway.ChatRequest) (gateway.ChatResponse, error) {
	return f.gw.Chat(ctx, req)
}

// GetUsage implements getUsage (spec §6).
func (f *Facade) GetUsage(ctx context.Context, filter ports.UsageFilter) ([]ports.UsageRecord, error) {
	return f.usage.QueryUsage(ctx, filter)
}

// RegisterApp implements registerApp (spec §3, §6).
func (f *Facade) RegisterApp(ctx context.Context, reg domain.AppRegistration) error {
	return f.apps.Register(ctx, reg)
}

// NewFacade builds the Facade against a freshly-wired dependency graph,
// sharing the in-process profile-update queue with the inline ProfileEngine
// started by RunWorker so observations submitted through the facade feed
// the same async rebalance loop.
func (a *App) NewFacade(ctx context.Context) (*Facade, *profile.EventQueue, error) {
	events, pipe, composer, gw, err := a.buildAPIDependencies(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("build facade dependencies: %w", err)
	}

	return &Facade{
		pipeline:  pipe,
		retriever: a.newRetriever(),
		profiles:  a.warm,
		composer:  composer,
		gw:        gw,
		apps:      a.warm,
		usage:     a.warm,
		audit:     a.warm,
		logger:    a.logger,
	}, events, nil
}
