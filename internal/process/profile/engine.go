// Package profile implements ProfileEngine (spec §4.4): it consumes
// profile-update events enqueued by ObservationPipeline and maintains each
// user's set of weighted ProfileComponents by classifying, matching,
// merging or creating, rebalancing, and evicting.
package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
	"github.com/hinata/core/internal/platform/observability"
	"github.com/hinata/core/internal/platform/worker"
)

// CacheInvalidator is the narrow slice of *retriever.Retriever Engine
// needs, kept local so this package never has to import the retriever
// package just to bump a user's cache epoch after a commit.
type CacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

// Engine is the ProfileEngine process: an async consumer of
// ports.ProfileUpdateEvents with per-user serialized mutation.
type Engine struct {
	reader     ports.ObservationReader
	profiles   ports.ProfileStore
	invalidate CacheInvalidator
	serializer *worker.UserSerializer
	events     *EventQueue
	logger     *zerolog.Logger

	drainIdle time.Duration
}

// New wires an Engine. invalidate may be nil to disable cache
// invalidation (e.g. in tests where no retriever cache is configured).
func New(reader ports.ObservationReader, profiles ports.ProfileStore, invalidate CacheInvalidator, events *EventQueue, logger *zerolog.Logger) *Engine {
	return &Engine{
		reader:     reader,
		profiles:   profiles,
		invalidate: invalidate,
		serializer: worker.NewUserSerializer(),
		events:     events,
		logger:     logger,
		drainIdle:  100 * time.Millisecond,
	}
}

// Run drains the event queue until ctx is canceled, processing one event
// per iteration so per-user serialization stays visible across users.
func (e *Engine) Run(ctx context.Context) error {
	return worker.Loop(ctx, worker.Config{
		Name:    "profile-engine",
		Process: e.drainOne,
		Logger:  e.logger,
	})
}

func (e *Engine) drainOne(ctx context.Context) error {
	select {
	case ev := <-e.events.Events():
		if err := e.OnObservation(ctx, ev.UserID, ev.ObservationID); err != nil {
			if e.logger != nil {
				e.logger.Error().Err(err).Str("user_id", ev.UserID).Str("observation_id", ev.ObservationID).
					Msg("profile update failed")
			}
		}

		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.drainIdle):
		return nil
	}
}

// OnObservation implements the onObservation(userId, observationId) event
// handler (spec §4.4 steps 1-9), serialized per userID.
func (e *Engine) OnObservation(ctx context.Context, userID, observationID string) error {
	var opErr error

	e.serializer.WithUserLock(userID, func() {
		opErr = e.commit(ctx, userID, observationID)
	})

	return opErr
}

func (e *Engine) commit(ctx context.Context, userID, observationID string) error {
	obs, err := e.reader.Get(ctx, observationID)
	if err != nil {
		return fmt.Errorf("load observation %s: %w", observationID, err)
	}

	if obs == nil {
		return fmt.Errorf("observation %s not found", observationID)
	}

	profile, err := e.profiles.LoadProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("load profile for %s: %w", userID, err)
	}

	now := time.Now()

	componentType := classify(obs)
	match, score := bestMatch(profile.Components, componentType, obs.Embedding, obs.AttentionWeight, now)

	if match != nil && score > mergeThreshold {
		mergeInto(match, obs.Embedding, obs, now)
		observability.ProfileComponentsMerged.Inc()
	} else {
		created := createComponent(userID, componentType, obs.Embedding, obs, now)
		profile.Components = append(profile.Components, created)
		observability.ProfileComponentsCreated.Inc()
	}

	start := time.Now()
	rebalance(profile.Components)

	survivors, removed := evict(profile.Components, now)
	profile.Components = survivors

	for i := 0; i < removed; i++ {
		observability.ProfileComponentsEvicted.Inc()
	}

	observability.ProfileRebalanceDuration.Observe(time.Since(start).Seconds())

	profile.UserID = userID
	profile.LastUpdated = now
	profile.TotalComponents = len(profile.Components)
	profile.ActiveComponentIDs = activeIDs(profile.Components)

	if err := e.profiles.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("save profile for %s: %w", userID, err)
	}

	if e.invalidate != nil {
		if err := e.invalidate.InvalidateUser(ctx, userID); err != nil && e.logger != nil {
			e.logger.Warn().Err(err).Str("user_id", userID).Msg("cache invalidation failed after profile commit")
		}
	}

	return nil
}

func activeIDs(components []*domain.ProfileComponent) []string {
	ids := make([]string, len(components))
	for i, c := range components {
		ids[i] = c.ID
	}

	return ids
}
