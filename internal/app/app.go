// Package app provides the main application bootstrap and runtime
// orchestration.
//
// The App type wires together every process-level component (TieredStore,
// ObservationPipeline, AttentionScorer, ProfileEngine, Retriever,
// PromptComposer, ExternalModelGateway) and exposes methods to run
// different operational modes:
//
//   - Worker mode: builds the Facade (the six external interfaces of §6)
//     and keeps its inline ProfileEngine and tier-migration sweep running
//   - Profile mode: the asynchronous ProfileEngine event consumer, standalone
//   - Maintenance mode: the periodic tier-migration sweep, standalone
//
// The Facade's methods are the documented interfaces of §6; the HTTP/RPC
// framing that would front them for a remote caller is explicitly out of
// scope (spec §1), so this package never imports net/http beyond the
// ambient health/metrics endpoint.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hinata/core/internal/core/embeddings"
	"github.com/hinata/core/internal/core/llm"
	"github.com/hinata/core/internal/core/ports"
	"github.com/hinata/core/internal/gateway"
	"github.com/hinata/core/internal/platform/config"
	"github.com/hinata/core/internal/platform/observability"
	"github.com/hinata/core/internal/platform/worker"
	"github.com/hinata/core/internal/process/enrichment"
	"github.com/hinata/core/internal/process/pipeline"
	"github.com/hinata/core/internal/process/profile"
	"github.com/hinata/core/internal/process/prompt"
	"github.com/hinata/core/internal/process/scoring"
	"github.com/hinata/core/internal/retriever"
	db "github.com/hinata/core/internal/storage"
)

const (
	tierMigrationInterval = 15 * time.Minute
	embeddingComponent    = "embeddings"
)

// App holds the application dependencies and provides methods to run
// different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger

	redisClient *redis.Client

	hot    *db.HotTier
	warm   *db.WarmStore
	cold   *db.ColdTier
	tiered *db.TieredStore

	serializer *worker.UserSerializer
}

// New creates a new App instance with the given dependencies. The tiered
// store is wired eagerly since every mode needs it; the cold tier is
// opened here too since that's the only fallible part of bootstrap.
func New(ctx context.Context, cfg *config.Config, database *db.DB, logger *zerolog.Logger) (*App, error) {
	redisCfg := cfg.RedisCfg()
	redisClient := redis.NewClient(&redis.Options{Addr: redisCfg.Addr, Password: redisCfg.Password, DB: redisCfg.DB})

	hot := db.NewHotTier(cfg.HotTierMemoryBudgetMB)
	warm := db.NewWarmStore(database)

	coldCfg := cfg.ColdStoreCfg()

	cold, err := db.NewColdTier(ctx, coldCfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("open cold tier: %w", err)
	}

	serializer := worker.NewUserSerializer()
	tiered := db.NewTieredStore(hot, warm, cold, serializer, logger)

	return &App{
		cfg:         cfg,
		database:    database,
		logger:      logger,
		redisClient: redisClient,
		hot:         hot,
		warm:        warm,
		cold:        cold,
		tiered:      tiered,
		serializer:  serializer,
	}, nil
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// newEmbeddingClient builds the embedding client (registry) shared by
// EnrichmentWorker and ExternalModelGateway's question embedding step.
func (a *App) newEmbeddingClient(ctx context.Context) embeddings.Client {
	embCfg := a.cfg.EmbeddingCfg()
	logger := a.logger.With().Str("component", embeddingComponent).Logger()

	return embeddings.NewClient(ctx, embeddings.Config{
		OpenAIAPIKey:     embCfg.OpenAIAPIKey,
		OpenAIModel:      embCfg.OpenAIModel,
		OpenAIDimensions: embCfg.OpenAIDimensions,
		CohereAPIKey:     embCfg.CohereAPIKey,
		CohereModel:      embCfg.CohereModel,
		ProviderOrder:    embCfg.ProviderOrder,
		CircuitBreakerConfig: embeddings.CircuitBreakerConfig{
			Threshold:  embCfg.CircuitThreshold,
			ResetAfter: embCfg.CircuitTimeout,
		},
	}, &logger)
}

// newLLMClient builds the external-model client ExternalModelGateway
// invokes against.
func (a *App) newLLMClient(ctx context.Context) llm.Client {
	modelCfg := a.cfg.ExternalModelCfg()
	logger := a.logger.With().Str("component", "llm").Logger()

	return llm.NewClient(ctx, llm.Config{
		AnthropicAPIKey: modelCfg.AnthropicAPIKey,
		AnthropicModel:  modelCfg.AnthropicModel,
		OpenAIAPIKey:    modelCfg.OpenAIAPIKey,
		OpenAIModel:     modelCfg.OpenAIModel,
		CircuitBreakerConfig: llm.CircuitBreakerConfig{
			Threshold:  modelCfg.CircuitThreshold,
			ResetAfter: modelCfg.CircuitTimeout,
		},
	}, &logger)
}

// newRetriever builds the Retriever against the tiered store's three
// index surfaces, cached through the app's Redis client (the same client
// AttentionScorer's cache uses; the hot tier itself is in-process).
func (a *App) newRetriever() *retriever.Retriever {
	return retriever.New(a.tiered, a.tiered, a.tiered, a.redisClient)
}

// newPromptComposer builds the PromptComposer, failing fast if the
// configured layer-budget shares don't sum to ~1.0.
func (a *App) newPromptComposer() (*prompt.Composer, error) {
	budget, err := a.cfg.PromptBudgetCfg()
	if err != nil {
		return nil, fmt.Errorf("prompt budget config: %w", err)
	}

	return prompt.New(a.warm, a.tiered, a.newRetriever(), budget, a.logger), nil
}

// newProfileEngine builds the ProfileEngine against a fresh event queue,
// so callers needing both the engine (to Run it) and the queue (to feed
// ObservationPipeline) get a consistently-wired pair.
func (a *App) newProfileEngine() (*profile.Engine, *profile.EventQueue) {
	events := profile.NewEventQueue()
	engine := profile.New(a.tiered, a.warm, a.newRetriever(), events, a.logger)

	return engine, events
}

// newPipeline builds ObservationPipeline against a local enrichment
// capability, AttentionScorer, and the given ProfileEngine event sink.
func (a *App) newPipeline(ctx context.Context, events ports.ProfileEventSink) (*pipeline.Pipeline, error) {
	embClient := a.newEmbeddingClient(ctx)

	registry, ok := embClient.(*embeddings.Registry)
	if !ok {
		return nil, fmt.Errorf("embedding client is not a *embeddings.Registry")
	}

	capability := enrichment.NewLocalCapability(registry)
	worker := enrichment.New(capability, a.cfg.LinkDereferenceCfg(), a.logger)
	scorer := scoring.New(a.tiered, a.redisClient)

	return pipeline.New(a.tiered, worker, scorer, events, a.cfg.DefaultAppRateLimitRPS, a.logger), nil
}

// RunProfile runs ProfileEngine's async event-consumer loop standalone.
// Since no message broker is wired between processes, this mode only
// consumes events from its own in-process queue, so it's only useful
// colocated with something that enqueues into the same *App — in practice
// Worker mode's inline profile engine (runProfileEngineInline) covers the
// single-binary deployment and this mode exists for running ProfileEngine
// on its own scaling tier once a shared queue is introduced.
func (a *App) RunProfile(ctx context.Context) error {
	a.logger.Info().Msg("starting profile engine")

	_, events := a.newProfileEngine()
	engine := profile.New(a.tiered, a.warm, a.newRetriever(), events, a.logger)

	return engine.Run(ctx)
}

// RunMaintenance runs TieredStore's periodic tier-migration sweep (spec
// §4.3 migrate()).
func (a *App) RunMaintenance(ctx context.Context) error {
	a.logger.Info().Msg("starting maintenance loop")

	task := a.tiered.MigrationTask(tierMigrationInterval)

	return worker.TickerLoop(ctx, worker.TickerConfig{
		Name:   "maintenance",
		Tasks:  []worker.TickerTask{task},
		Logger: a.logger,
	})
}

// RunWorker builds the Facade (spec §6's six external interfaces) and
// keeps its dependency graph alive for the process lifetime: the inline
// ProfileEngine drains the facade's own submitObservations queue, the
// tier-migration sweep runs on its own ticker, and health/metrics blocks
// the process until shutdown. The Facade itself is the boundary an
// embedding service wires its own transport against (spec §1 places
// HTTP/RPC framing out of scope), so this mode has no listener of its own
// beyond health/metrics.
func (a *App) RunWorker(ctx context.Context) error {
	a.logger.Info().Msg("starting worker mode")

	_, events, err := a.NewFacade(ctx)
	if err != nil {
		return fmt.Errorf("build facade: %w", err)
	}

	go a.runProfileEngineInline(ctx, events)

	go func() {
		if err := a.RunMaintenance(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error().Err(err).Msg("maintenance loop stopped unexpectedly")
		}
	}()

	return a.StartHealthServer(ctx)
}

func (a *App) buildAPIDependencies(ctx context.Context) (*profile.EventQueue, *pipeline.Pipeline, *prompt.Composer, *gateway.Gateway, error) {
	_, events := a.newProfileEngine()

	pipe, err := a.newPipeline(ctx, events)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("build pipeline: %w", err)
	}

	composer, err := a.newPromptComposer()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("build prompt composer: %w", err)
	}

	gw := gateway.New(a.warm, a.warm, composer, a.newEmbeddingClient(ctx), a.newLLMClient(ctx), a.warm, a.warm, pipe, a.logger)

	return events, pipe, composer, gw, nil
}

func (a *App) runProfileEngineInline(ctx context.Context, events *profile.EventQueue) {
	engine := profile.New(a.tiered, a.warm, a.newRetriever(), events, a.logger)

	if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
		a.logger.Error().Err(err).Msg("inline profile engine stopped unexpectedly")
	}
}

// Close releases the app's held resources (cold-tier manifest database,
// Redis connection) on shutdown.
func (a *App) Close() {
	if a.cold != nil {
		_ = a.cold.Close() //nolint:errcheck // best-effort on shutdown
	}

	if a.redisClient != nil {
		_ = a.redisClient.Close() //nolint:errcheck // best-effort on shutdown
	}
}
