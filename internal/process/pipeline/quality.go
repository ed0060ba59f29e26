package pipeline

import "github.com/hinata/core/internal/core/domain"

// qualityScore weights (spec §4.1 step 6).
const (
	weightNoteLength    = 0.3
	weightTagCount      = 0.2
	weightEnrichedField = 0.3
	weightSourceTrust   = 0.2

	noteLengthSaturation = 500
	tagCountSaturation   = 5
)

// sourceTrustWeights is the configurable trust table spec.md §9 flags as
// an open question ("source trust" table left undocumented by the
// original). Resolved here as a small table with a documented default for
// unrecognized sources, per the spec's own proposed resolution.
var sourceTrustWeights = map[string]float32{
	"manual-entry": 1.0,
	"browser-ext":  0.8,
	"email-digest": 0.6,
	"rss-import":   0.4,
	// __chat is the synthetic source ExternalModelGateway uses for the
	// question/answer feedback observation it creates after a chat() call
	// (spec §4.8 step 6); trusted on par with an email digest since its
	// content already passed through an external model.
	"__chat": 0.6,
}

// defaultSourceTrust is used for sources absent from sourceTrustWeights.
const defaultSourceTrust = 0.5

func sourceTrust(source string) float32 {
	if w, ok := sourceTrustWeights[source]; ok {
		return w
	}

	return defaultSourceTrust
}

// computeQualityScore implements spec §4.1 step 6.
func computeQualityScore(obs *domain.Observation) float32 {
	noteLen := saturate(len(obs.Note), noteLengthSaturation)
	tagCount := saturate(len(obs.Tags), tagCountSaturation)
	enrichedPresence := float32(0)

	if hasEnrichedFields(obs) {
		enrichedPresence = 1
	}

	score := weightNoteLength*noteLen +
		weightTagCount*tagCount +
		weightEnrichedField*enrichedPresence +
		weightSourceTrust*sourceTrust(obs.Source)

	return clamp01(score)
}

func hasEnrichedFields(obs *domain.Observation) bool {
	return len(obs.EnhancedTags) > 0 || len(obs.Embedding) > 0
}

func saturate(n, max int) float32 {
	if n >= max {
		return 1
	}

	return float32(n) / float32(max)
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
