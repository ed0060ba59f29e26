package profile

import (
	"math"
	"time"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/embeddings"
)

// mergeThreshold is the best-match score above which an observation merges
// into an existing component instead of creating a new one (spec §4.4
// step 4).
const mergeThreshold = 0.7

// timeDecayHalfPerDay is the per-day decay base applied to a component's
// staleness when scoring it as a merge candidate (spec §4.4 step 3:
// "timeDecay(Δt) = 0.95^(Δt / day)").
const timeDecayHalfPerDay = 0.95

// evidenceSummaryLen bounds the evidence summary copied from an
// observation's highlight.
const evidenceSummaryLen = 200

func timeDecay(since time.Duration) float64 {
	days := since.Hours() / 24
	return math.Pow(timeDecayHalfPerDay, days)
}

// matchScore implements spec §4.4 step 3: cosine(intent, c.embedding) ·
// timeDecay(c.lastUpdated) · observation.attentionWeight.
func matchScore(intent []float32, c *domain.ProfileComponent, attentionWeight float32, now time.Time) float64 {
	cos := embeddings.CosineSimilarity(intent, c.Embedding)
	decay := timeDecay(now.Sub(c.LastUpdated))

	return cos * decay * float64(attentionWeight)
}

// bestMatch scans components sharing componentType and returns the one
// with the highest matchScore, or nil if componentType has no components
// yet.
func bestMatch(components []*domain.ProfileComponent, componentType domain.ComponentType, intent []float32, attentionWeight float32, now time.Time) (*domain.ProfileComponent, float64) {
	var (
		best      *domain.ProfileComponent
		bestScore float64
	)

	for _, c := range components {
		if c.ComponentType != componentType {
			continue
		}

		score := matchScore(intent, c, attentionWeight, now)
		if best == nil || score > bestScore {
			best = c
			bestScore = score
		}
	}

	return best, bestScore
}

// mergeStrength is the piecewise function of attentionWeight from spec
// §4.4 step 5.
func mergeStrength(attentionWeight float32) float32 {
	switch {
	case attentionWeight > 0.8:
		return 1.0
	case attentionWeight > 0.6:
		return 0.8
	case attentionWeight > 0.4:
		return 0.6
	default:
		return 0.3
	}
}

// clampMergeWeight bounds m to [0.1, 1.0] per spec §4.4 step 5.
func clampMergeWeight(m float32) float32 {
	switch {
	case m < 0.1:
		return 0.1
	case m > 1.0:
		return 1.0
	default:
		return m
	}
}

// mergeInto applies the MERGE operation (spec §4.4 step 5) to c in place.
func mergeInto(c *domain.ProfileComponent, intent []float32, obs *domain.Observation, now time.Time) {
	m := clampMergeWeight(obs.AttentionWeight * mergeStrength(obs.AttentionWeight))

	blended := make([]float32, len(c.Embedding))
	for i := range blended {
		var intentV float32
		if i < len(intent) {
			intentV = intent[i]
		}

		blended[i] = (1-m)*c.Embedding[i] + m*intentV
	}

	c.Embedding = embeddings.L2Normalize(blended)
	c.TotalAttentionWeight += obs.AttentionWeight
	c.AppendEvidence(evidenceFor(obs))
	c.LastUpdated = now
	c.LastActivated = now
}

// activationThresholdFor linearly maps an initial weight in [0,1] onto
// [0.3, 0.8], per spec §4.4 step 6.
func activationThresholdFor(initialWeight float32) float32 {
	const lo, hi = 0.3, 0.8
	return lo + clamp01(initialWeight)*(hi-lo)
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

// createComponent builds a new ProfileComponent from an unmatched
// observation, per spec §4.4 step 6.
func createComponent(userID string, componentType domain.ComponentType, intent []float32, obs *domain.Observation, now time.Time) *domain.ProfileComponent {
	return &domain.ProfileComponent{
		ID:                   newComponentID(),
		UserID:               userID,
		ComponentType:        componentType,
		Description:          obs.Highlight,
		Embedding:            embeddings.L2Normalize(append([]float32(nil), intent...)),
		Confidence:           obs.AttentionWeight,
		TotalAttentionWeight: obs.AttentionWeight,
		ActivationThreshold:  activationThresholdFor(obs.AttentionWeight),
		SupportingEvidence:   []domain.Evidence{evidenceFor(obs)},
		CreatedAt:            now,
		LastUpdated:          now,
		LastActivated:        now,
	}
}

func evidenceFor(obs *domain.Observation) domain.Evidence {
	summary := obs.Highlight
	if len(summary) > evidenceSummaryLen {
		summary = summary[:evidenceSummaryLen]
	}

	return domain.Evidence{
		ObservationID:   obs.ID,
		AttentionWeight: obs.AttentionWeight,
		Timestamp:       obs.Timestamp,
		Summary:         summary,
	}
}
