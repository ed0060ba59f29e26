package scoring

import (
	"strings"
	"time"
	"unicode"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/embeddings"
)

// highlightSimilarityThreshold gates whether a historical observation
// counts toward highlightFrequency (spec §4.2).
const highlightSimilarityThreshold = 0.8

// topicOverlapThreshold gates whether a historical observation counts as
// topically overlapping for timeInvestment and interactionDepth (spec
// §4.2).
const topicOverlapThreshold = 0.3

// Interaction-depth booleans (spec §4.2).
const (
	depthNoteLengthThreshold   = 200
	depthTagCountThreshold     = 3
	depthRelatedCountThreshold = 5
	depthSpanThreshold         = 7 * 24 * time.Hour
)

// secondsPerNoteChar estimates reading time from note length, standing in
// for a true dwell-time signal the ingestion contract doesn't carry (spec
// §4.2 "estimated seconds"); ~14 characters/second is a standard reading
// speed approximation.
const secondsPerNoteChar = 1.0 / 14.0

// computeMetrics derives the five §4.2 metrics for obs against its user's
// historical window.
func computeMetrics(obs *domain.Observation, history []*domain.Observation) domain.AttentionMetrics {
	newTokens := tokenize(obs.Highlight)

	var (
		highlightFrequency int
		noteCount          int
		addressRevisit     int
		timeInvestment     float64
		relatedCount       int
		earliestOverlap    time.Time
		latestOverlap      time.Time
	)

	for _, h := range history {
		if similar(obs, h, newTokens) {
			highlightFrequency++
		}

		if h.Address == obs.Address && h.Note != "" {
			noteCount++
		}

		if h.Address == obs.Address {
			addressRevisit++
		}

		if overlapScore(obs, h, newTokens) >= topicOverlapThreshold {
			timeInvestment += estimateSeconds(h)
			relatedCount++

			if earliestOverlap.IsZero() || h.Timestamp.Before(earliestOverlap) {
				earliestOverlap = h.Timestamp
			}

			if h.Timestamp.After(latestOverlap) {
				latestOverlap = h.Timestamp
			}
		}
	}

	depth := interactionDepth(obs, relatedCount, latestOverlap.Sub(earliestOverlap))

	return domain.AttentionMetrics{
		HighlightFrequency: highlightFrequency,
		NoteCount:          noteCount,
		AddressRevisit:     addressRevisit,
		TimeInvestment:     timeInvestment,
		InteractionDepth:   depth,
	}
}

// similar decides whether h counts toward highlightFrequency: cosine
// similarity over embeddings when both carry one, else bag-of-words
// Jaccard (spec §4.2 "uses embedding if available, else... Jaccard").
func similar(obs, h *domain.Observation, newTokens map[string]bool) bool {
	if len(obs.Embedding) > 0 && len(h.Embedding) > 0 {
		return embeddings.CosineSimilarity(obs.Embedding, h.Embedding) >= highlightSimilarityThreshold
	}

	return jaccardSimilarity(newTokens, tokenize(h.Highlight)) >= highlightSimilarityThreshold
}

// overlapScore is the topical-overlap signal timeInvestment and
// interactionDepth gate on; it reuses the same embedding-or-Jaccard
// strategy as similar, but against a lower threshold.
func overlapScore(obs, h *domain.Observation, newTokens map[string]bool) float64 {
	if len(obs.Embedding) > 0 && len(h.Embedding) > 0 {
		return embeddings.CosineSimilarity(obs.Embedding, h.Embedding)
	}

	return jaccardSimilarity(newTokens, tokenize(h.Highlight+" "+h.Note))
}

// estimateSeconds approximates reading time for a historical observation.
func estimateSeconds(h *domain.Observation) float64 {
	return float64(len(h.Note)) * secondsPerNoteChar
}

// interactionDepth derives the four-boolean depth bucket (spec §4.2
// "interactionDepth ∈ {low, medium, high} from four booleans"): 3 or 4
// true signals is high, 2 is medium, fewer is low.
func interactionDepth(obs *domain.Observation, relatedCount int, span time.Duration) domain.InteractionDepth {
	signals := 0

	if len(obs.Note) > depthNoteLengthThreshold {
		signals++
	}

	if len(obs.Tags) > depthTagCountThreshold {
		signals++
	}

	if relatedCount > depthRelatedCountThreshold {
		signals++
	}

	if span > depthSpanThreshold {
		signals++
	}

	switch {
	case signals >= 3:
		return domain.DepthHigh
	case signals == 2:
		return domain.DepthMedium
	default:
		return domain.DepthLow
	}
}

// tokenize lowercases and splits on non-letter/digit runes, following the
// same bag-of-words shape as the fact-check scorer's tokenizer.
func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)

	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(word) > 0 {
			tokens[word] = true
		}
	}

	return tokens
}

func jaccardSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0

	for token := range a {
		if b[token] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// highlightFactor maps highlightFrequency to its piecewise factor (spec
// §4.2 "[0.1, 0.4, 0.7, 1.0] at thresholds (1, 3, 5, >5)").
func highlightFactor(n int) float32 {
	return stepFactor(n, 1, 3, 5, 0.1, 0.4, 0.7, 1.0)
}

// noteFactor maps noteCount to its piecewise factor ("note density: [0.2,
// 0.6, 0.8, 1.0] at (1, 3, 5, >5)").
func noteFactor(n int) float32 {
	return stepFactor(n, 1, 3, 5, 0.2, 0.6, 0.8, 1.0)
}

// revisitFactor maps addressRevisit to its piecewise factor ("revisit:
// [0.1, 0.5, 0.8, 1.0] at (1, 3, 6, >6)").
func revisitFactor(n int) float32 {
	return stepFactor(n, 1, 3, 6, 0.1, 0.5, 0.8, 1.0)
}

// timeFactor maps timeInvestment (seconds) to its piecewise factor
// ("time: [0.1, 0.4, 0.7, 1.0] at thresholds (30s, 120s, 300s, >300s)").
func timeFactor(seconds float64) float32 {
	return stepFactor(int(seconds), 30, 120, 300, 0.1, 0.4, 0.7, 1.0)
}

// stepFactor is the shared piecewise-constant shape behind all four
// factor functions: below t1 it's 0, [t1,t2) is v1, [t2,t3) is v2, t3
// exactly is v3, above t3 is v4.
func stepFactor(n int, t1, t2, t3 int, v1, v2, v3, v4 float32) float32 {
	switch {
	case n > t3:
		return v4
	case n >= t3:
		return v3
	case n >= t2:
		return v2
	case n >= t1:
		return v1
	default:
		return 0
	}
}
