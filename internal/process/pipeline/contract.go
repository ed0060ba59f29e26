// Package pipeline implements ObservationPipeline (spec §4.1): it takes a
// batch of raw observations and drives them through validation,
// enrichment, scoring, tiered storage, and an asynchronous profile-update
// enqueue, returning a per-item batch summary.
package pipeline

import "github.com/hinata/core/internal/core/domain"

// MaxBatchSize bounds submitObservations' batch field (spec §4.1).
const MaxBatchSize = 256

// MaxItemBytes rejects any single raw item larger than this (spec §4.1
// step 1).
const MaxItemBytes = 64 * 1024

// Priority mirrors submitObservations' options.priority (spec §4.1).
type Priority string

// Priority constants.
const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// RawObservation is one item of a submitObservations batch, carrying the
// mandatory input fields of §3 before enrichment/scoring populate the rest.
type RawObservation struct {
	Timestamp string
	Source    string
	Highlight string
	Note      string
	Address   string
	Tags      []string
	Access    domain.AccessLevel
}

// BatchOptions mirrors submitObservations' options field (spec §4.1).
type BatchOptions struct {
	EnableEnrichment     bool
	ExtractHighlights    bool
	GenerateSemanticTags bool
	Priority             Priority
}

// BatchRequest is submitObservations' full input contract (spec §4.1).
type BatchRequest struct {
	AppID   string
	UserID  string
	Batch   []RawObservation
	Options BatchOptions
}

// RejectedReason enumerates why a single item did not make it into
// storage, distinct from the whole-batch failure modes (spec §4.1
// "Failure modes").
type RejectedReason string

// Rejected-reason constants.
const (
	RejectedValidation RejectedReason = "ValidationFailed"
	RejectedStorage    RejectedReason = "StorageUnavailable"
)

// ItemResult is one entry of submitObservations' perItem output (spec
// §4.1).
type ItemResult struct {
	ID              string
	Accepted        bool
	RejectedReason  RejectedReason
	InfluenceWeight float32
}

// BatchSummary is submitObservations' full output contract (spec §4.1).
type BatchSummary struct {
	JobID          string
	ProcessedCount int
	PerItem        []ItemResult
	Degraded       bool
}
