// Package domain defines the closed set of data types shared across the
// ingestion, profile, retrieval, and gateway components (spec §3): the
// immutable Observation, the mutable ProfileComponent, and the
// process-wide registration/audit records.
package domain

import "time"

// AccessLevel controls who may read an observation.
type AccessLevel string

// Access level constants.
const (
	AccessPrivate    AccessLevel = "private"
	AccessPublic     AccessLevel = "public"
	AccessRestricted AccessLevel = "restricted"
)

// Sentiment classifies the semantic tone of an observation's text.
type Sentiment string

// Sentiment constants.
const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Complexity classifies how intricate an observation's content is.
type Complexity string

// Complexity constants.
const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Tier identifies which storage tier currently holds an observation.
type Tier string

// Tier constants.
const (
	TierHot  Tier = "hot"
	TierWarm Tier = "warm"
	TierCold Tier = "cold"
)

// SemanticAnalysis is the enrichment capability's structured read of an
// observation's text (spec §3, §6 enrich()).
type SemanticAnalysis struct {
	Topics     []string
	Sentiment  Sentiment
	Complexity Complexity
}

// InteractionDepth buckets the four-boolean depth signal AttentionScorer
// derives before applying the depth multiplier (spec §4.2).
type InteractionDepth string

// Interaction depth constants.
const (
	DepthLow    InteractionDepth = "low"
	DepthMedium InteractionDepth = "medium"
	DepthHigh   InteractionDepth = "high"
)

// AttentionMetrics holds the raw signals AttentionScorer computes against
// the user's 30-day historical window before combining them into
// attentionWeight (spec §4.2).
type AttentionMetrics struct {
	HighlightFrequency int
	NoteCount          int
	AddressRevisit     int
	TimeInvestment     float64
	InteractionDepth   InteractionDepth
}

// Observation is an immutable record of one user-meaningful act: a focal
// fragment, its context, a locator, and tags (spec §3). Enriched fields are
// absent on input and populated exactly once by ObservationPipeline.
type Observation struct {
	ID        string
	UserID    string
	AppID     string
	Timestamp time.Time

	Source    string
	Highlight string
	Note      string
	Address   string
	Tags      []string
	Access    AccessLevel

	// Enriched fields, populated by the pipeline.
	EnhancedTags          []string
	RecommendedHighlights []string
	SemanticAnalysis      SemanticAnalysis
	Embedding             []float32
	// EnrichmentModelVersion records which analysis-capability version
	// produced the enriched fields above, satisfying the determinism
	// guarantee of spec §4.6 ("the analysis-model version is recorded in
	// processing metadata"). Set to "fallback" when EnrichmentDegraded.
	EnrichmentModelVersion string
	QualityScore          float32
	AttentionWeight       float32
	AttentionMetrics      AttentionMetrics
	InfluenceWeight       float32
	Tier                  Tier
	ContentHash           string

	// EnrichmentDegraded is set when enrichment timed out or failed and the
	// observation was stored with default/fallback enriched fields
	// (spec §7 EnrichmentDegraded).
	EnrichmentDegraded bool

	// DeletedAt is set on soft delete; the record is retained in cold
	// storage until the retention window elapses.
	DeletedAt *time.Time
}

// ComponentType enumerates the kinds of recurring user preference a
// ProfileComponent can represent (spec §3).
type ComponentType string

// Component type constants.
const (
	ComponentCommunicationStyle ComponentType = "communicationStyle"
	ComponentDomainExpertise    ComponentType = "domainExpertise"
	ComponentPriorityFocus      ComponentType = "priorityFocus"
	ComponentCognitivePattern   ComponentType = "cognitivePattern"
	ComponentValueSystem        ComponentType = "valueSystem"
	ComponentContextPreference  ComponentType = "contextPreference"
	ComponentLearningPattern    ComponentType = "learningPattern"
)

// Priority is a coarse bucket derived from normalizedWeight (spec §3: high
// >0.15, medium >0.08, low otherwise).
type Priority string

// Priority constants.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priority thresholds, per spec §3 ProfileComponent invariants.
const (
	PriorityHighThreshold   = 0.15
	PriorityMediumThreshold = 0.08
)

// DerivePriority maps a normalized weight to its Priority bucket.
func DerivePriority(normalizedWeight float32) Priority {
	switch {
	case normalizedWeight > PriorityHighThreshold:
		return PriorityHigh
	case normalizedWeight > PriorityMediumThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Evidence references one observation that contributed to a
// ProfileComponent, kept as a bounded FIFO list (spec §3, N_evidence).
type Evidence struct {
	ObservationID   string
	AttentionWeight float32
	Timestamp       time.Time
	Summary         string
}

// MaxSupportingEvidence bounds ProfileComponent.SupportingEvidence; the
// oldest entry is evicted FIFO on overflow.
const MaxSupportingEvidence = 50

// ProfileComponent is a typed, weighted, embedding-bearing summary of a
// recurring user preference (spec §3). Mutable: merged into, rebalanced,
// and eventually evicted.
type ProfileComponent struct {
	ID            string
	UserID        string
	ComponentType ComponentType
	Description   string
	Embedding     []float32

	Confidence           float32
	TotalAttentionWeight float32
	NormalizedWeight     float32
	Priority             Priority
	ActivationThreshold  float32

	SupportingEvidence []Evidence

	CreatedAt     time.Time
	LastUpdated   time.Time
	LastActivated time.Time
}

// AppendEvidence adds an evidence entry, evicting the oldest entry FIFO if
// the component is already at MaxSupportingEvidence.
func (c *ProfileComponent) AppendEvidence(e Evidence) {
	c.SupportingEvidence = append(c.SupportingEvidence, e)

	if len(c.SupportingEvidence) > MaxSupportingEvidence {
		c.SupportingEvidence = c.SupportingEvidence[len(c.SupportingEvidence)-MaxSupportingEvidence:]
	}
}

// UserProfile is the per-user collection of weighted semantic components
// derived from observations (spec §3, glossary).
type UserProfile struct {
	UserID             string
	Components         []*ProfileComponent
	LastUpdated        time.Time
	TotalComponents    int
	ActiveComponentIDs []string
}

// AppRegistration is a process-wide record of an integrating app (spec §3).
type AppRegistration struct {
	AppID       string
	APIKeyHash  string
	Permissions []string
	RateLimit   int
	CreatedAt   time.Time
	IsActive    bool
}

// PolicyLevel is a user's overall privacy posture (spec §3).
type PolicyLevel string

// Policy level constants.
const (
	PolicyStrict     PolicyLevel = "strict"
	PolicyBalanced   PolicyLevel = "balanced"
	PolicyPermissive PolicyLevel = "permissive"
)

// PrivacyPreferences holds one user's consent and retention configuration
// (spec §3).
type PrivacyPreferences struct {
	UserID                 string
	Policy                 PolicyLevel
	ConsentSharing         bool
	ConsentAnalytics       bool
	ConsentPersonalization bool
	ConsentExternal        bool
	RetentionDays          int
	AllowedAppIDs          []string
	BlockedAppIDs          []string
}

// AccessKind enumerates the way a piece of data was touched, recorded in
// AuditRecord (spec §3).
type AccessKind string

// Access kind constants.
const (
	AccessKindRead  AccessKind = "read"
	AccessKindWrite AccessKind = "write"
)

// AccessorKind identifies what kind of principal performed an access.
type AccessorKind string

// Accessor kind constants.
const (
	AccessorApp   AccessorKind = "app"
	AccessorAdmin AccessorKind = "admin"
	AccessorUser  AccessorKind = "user"
)

// DataKind enumerates the categories of data an AuditRecord can describe.
type DataKind string

// Data kind constants.
const (
	DataKindObservation DataKind = "observation"
	DataKindProfile     DataKind = "profile"
	DataKindUsage       DataKind = "usage"
)

// AuditRecord is one append-only entry in the audit log (spec §3, §6).
type AuditRecord struct {
	UserID       string
	AccessorID   string
	AccessorKind AccessorKind
	DataKind     DataKind
	DataID       string
	AccessKind   AccessKind
	Timestamp    time.Time
	IP           string
	Purpose      string
	Result       string
}
