// Package ports defines the interfaces each process-level component
// depends on, so that ObservationPipeline, ProfileEngine, Retriever, and
// ExternalModelGateway can be constructed against fakes in tests and
// against real adapters (internal/storage, internal/core/embeddings,
// internal/core/llm) in production, per spec §9's "pass them explicitly as
// capability handles" design note.
package ports

import (
	"context"
	"time"

	"github.com/hinata/core/internal/core/domain"
)

// ObservationWriter is the subset of TieredStore (spec §4.3) the pipeline
// needs to persist a freshly enriched and scored observation.
type ObservationWriter interface {
	Put(ctx context.Context, obs *domain.Observation) error
	Update(ctx context.Context, id string, mutate func(*domain.Observation)) error
	DeadLetter(ctx context.Context, obs *domain.Observation, cause error) error
}

// ObservationReader is the subset of TieredStore needed for reads: direct
// lookup, idempotency checks, and the historical window AttentionScorer
// scans.
type ObservationReader interface {
	Get(ctx context.Context, id string) (*domain.Observation, error)
	FindByContentHash(ctx context.Context, userID, contentHash string, within time.Duration) (*domain.Observation, error)
	RecentByUser(ctx context.Context, userID string, window time.Duration, limit int) ([]*domain.Observation, error)
}

// ObservationStore is the full read/write surface TieredStore exposes to
// the rest of the process.
type ObservationStore interface {
	ObservationReader
	ObservationWriter
}

// QueryFilters narrows a Retriever/TieredStore query (spec §4.3, §4.7).
type QueryFilters struct {
	UserID             string
	MinInfluenceWeight float32
	MinQualityScore    float32
	Tiers              []domain.Tier
	Tags               []string
	ExcludedTags       []string
	Source             string
}

// QueryResult is one ranked hit from a retrieval strategy or the fused
// result set.
type QueryResult struct {
	Observation *domain.Observation
	Score       float32
}

// VectorIndex supports cosine k-NN lookups against per-user embeddings
// (spec §4.3 "Vector index").
type VectorIndex interface {
	QueryVector(ctx context.Context, embedding []float32, filters QueryFilters, limit int) ([]QueryResult, error)
}

// FullTextIndex supports token search over highlight/note/enhancedTags
// (spec §4.3 "Full-text index").
type FullTextIndex interface {
	QueryText(ctx context.Context, query string, filters QueryFilters, limit int) ([]QueryResult, error)
}

// CompositeIndex supports sorted (userId, influenceWeight desc, timestamp
// desc) scans with secondary filters (spec §4.3 "Composite index").
type CompositeIndex interface {
	QueryComposite(ctx context.Context, filters QueryFilters, limit int) ([]QueryResult, error)
}

// ProfileStore is the persistence surface ProfileEngine needs.
type ProfileStore interface {
	LoadProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	SaveProfile(ctx context.Context, profile *domain.UserProfile) error
}

// EnrichmentCapability implements `enrich(text) → {tags, topSentences,
// semantics, embedding}` (spec §6).
type EnrichmentCapability interface {
	Enrich(ctx context.Context, text string) (EnrichmentResult, error)
	ModelVersion() string
}

// EnrichmentResult is the enrich() capability's return value.
type EnrichmentResult struct {
	Tags             []string
	TopSentences     []string
	SemanticAnalysis domain.SemanticAnalysis
	Embedding        []float32
}

// AuditSink records append-only AuditRecords (spec §3, §8 invariant 9).
type AuditSink interface {
	Record(ctx context.Context, rec domain.AuditRecord) error
}

// UsageRecord is persisted once per (user, app, day) billing bucket
// (spec §4.8 step 5).
type UsageRecord struct {
	UserID           string
	AppID            string
	Day              time.Time
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
	SavingsUSD       float64
	Succeeded        bool
}

// UsageSink persists UsageRecords.
type UsageSink interface {
	RecordUsage(ctx context.Context, rec UsageRecord) error
}

// UsageFilter narrows getUsage's result set (spec §6 "getUsage(appAuth,
// filter) → usageSummary").
type UsageFilter struct {
	UserID string
	AppID  string
	From   time.Time
	To     time.Time
}

// UsageQuery reads back the UsageRecords UsageSink persisted.
type UsageQuery interface {
	QueryUsage(ctx context.Context, filter UsageFilter) ([]UsageRecord, error)
}

// AppRegistry resolves app credentials and permissions (spec §3, §6
// registerApp).
type AppRegistry interface {
	Lookup(ctx context.Context, appID string) (*domain.AppRegistration, error)
	Register(ctx context.Context, app domain.AppRegistration) error
}

// Enricher is the EnrichmentWorker surface ObservationPipeline depends on
// (spec §4.1 step 4).
type Enricher interface {
	Enrich(ctx context.Context, obs *domain.Observation) error
}

// Scorer is the AttentionScorer surface ObservationPipeline depends on
// (spec §4.1 step 5, §4.2).
type Scorer interface {
	Score(ctx context.Context, userID string, obs *domain.Observation) (float32, domain.AttentionMetrics, error)
}

// ProfileUpdateEvent is enqueued by ObservationPipeline after a successful
// write, for ProfileEngine to consume asynchronously (spec §4.1 step 10).
type ProfileUpdateEvent struct {
	UserID        string
	ObservationID string
}

// ProfileEventSink accepts profile-update events without blocking the
// pipeline on their processing.
type ProfileEventSink interface {
	Enqueue(ctx context.Context, event ProfileUpdateEvent) error
}

// PrivacyStore resolves a user's consent and retention configuration, so
// ExternalModelGateway's authorization step (spec §4.8 step 1: "check app
// permissions and user privacy preferences") can enforce it.
type PrivacyStore interface {
	GetPreferences(ctx context.Context, userID string) (domain.PrivacyPreferences, error)
}
