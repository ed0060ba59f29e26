package prompt

import (
	"fmt"
	"time"

	"github.com/hinata/core/internal/core/domain"
)

// candidateSource distinguishes a ProfileComponent candidate from an
// Observation candidate, since they serialize to a layer body differently
// (spec §4.5: "Components serialize as a one-line rule string").
type candidateSource int

// Candidate source kinds.
const (
	sourceComponent candidateSource = iota
	sourceObservation
)

// candidate is one scored item competing for space in a memory layer.
type candidate struct {
	source     candidateSource
	id         string
	body       string
	embedding  []float32
	importance float32
	frequency  float32
	age        time.Duration
	access     domain.AccessLevel
	priority   domain.Priority
	score      float32
}

const (
	componentFrequencyDivisor = 10
	revisitFrequencyDivisor   = 5
	defaultNoteBudgetChars    = 400
)

func componentCandidate(c *domain.ProfileComponent, now time.Time) candidate {
	return candidate{
		source:     sourceComponent,
		id:         c.ID,
		body:       formatComponent(c),
		embedding:  c.Embedding,
		importance: c.Confidence,
		frequency:  clamp01(float32(len(c.SupportingEvidence)) / componentFrequencyDivisor),
		age:        now.Sub(c.LastUpdated),
		access:     domain.AccessPrivate,
		priority:   c.Priority,
	}
}

func observationCandidate(o *domain.Observation, now time.Time) candidate {
	return candidate{
		source:     sourceObservation,
		id:         o.ID,
		body:       effectiveBody(o),
		embedding:  o.Embedding,
		importance: o.InfluenceWeight,
		frequency:  clamp01(float32(o.AttentionMetrics.AddressRevisit) / revisitFrequencyDivisor),
		age:        now.Sub(o.Timestamp),
		access:     o.Access,
	}
}

func formatComponent(c *domain.ProfileComponent) string {
	return fmt.Sprintf("[%s] %s", c.ComponentType, c.Description)
}

// effectiveBody implements spec §4.5's "highlight + summary(note)" rule.
func effectiveBody(o *domain.Observation) string {
	summary := summarizeNote(o.Note, defaultNoteBudgetChars)
	if summary == "" {
		return o.Highlight
	}

	return o.Highlight + " " + summary
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
