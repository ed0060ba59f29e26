package enrichment

import (
	"math"
	"regexp"
	"strings"
)

// Recommended-highlight extraction thresholds (spec §4.6).
const (
	shortNoteThreshold   = 100
	minSentenceLength    = 20
	maxRecommendedCount  = 3
	highlightSimilarity  = 0.6 // above this, a candidate sentence is judged too similar to `highlight` to add value
)

var sentenceSplitRe = regexp.MustCompile(`[.!?]+\s+`)

// stopSentencePatterns are boilerplate sentence shapes that never carry
// useful signal regardless of their tf-idf score (spec §4.6 "known
// stop-sentence patterns").
var stopSentencePatterns = []string{
	"click here", "subscribe", "sign up", "read more", "cookie policy",
	"terms of service", "all rights reserved", "advertisement",
}

// deriveRecommendedHighlights implements spec §4.6's recommended-highlight
// rule: short notes pass through whole; longer notes are reduced to the
// top 3 sentences by informativeness, filtered against `highlight` and
// stop-sentence patterns.
func deriveRecommendedHighlights(note, highlight string, candidates []string) []string {
	if len(note) < shortNoteThreshold {
		return []string{note}
	}

	out := make([]string, 0, maxRecommendedCount)

	for _, c := range rankByInformativeness(candidates, highlight) {
		if len(out) == maxRecommendedCount {
			break
		}

		out = append(out, c)
	}

	if len(out) == 0 {
		return []string{highlight}
	}

	return out
}

// rankByInformativeness filters candidate sentences against the
// stop-sentence list and near-duplicate-of-highlight check, then sorts
// the survivors by a tf-idf-style novelty score (rarer words score
// higher, common words across sentences score lower).
type scoredSentence struct {
	sentence string
	score    float64
}

func rankByInformativeness(candidates []string, highlight string) []string {
	df := documentFrequency(candidates)
	highlightTokens := tokenize(highlight)

	var survivors []scoredSentence

	for _, c := range candidates {
		trimmed := strings.TrimSpace(c)
		if len(trimmed) < minSentenceLength {
			continue
		}

		if isStopSentence(trimmed) {
			continue
		}

		if jaccard(tokenize(trimmed), highlightTokens) >= highlightSimilarity {
			continue
		}

		survivors = append(survivors, scoredSentence{sentence: trimmed, score: informativeness(trimmed, df, len(candidates))})
	}

	sortScoredDesc(survivors)

	out := make([]string, len(survivors))
	for i, s := range survivors {
		out[i] = s.sentence
	}

	return out
}

func sortScoredDesc(s []scoredSentence) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].score > s[j-1].score; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// splitSentences breaks free text into rough sentence units on
// terminal-punctuation boundaries.
func splitSentences(text string) []string {
	raw := sentenceSplitRe.Split(strings.TrimSpace(text), -1)

	out := make([]string, 0, len(raw))

	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}

func isStopSentence(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, p := range stopSentencePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}

	return false
}

// documentFrequency counts, per token, how many sentences contain it —
// the denominator of the classic tf-idf inverse-document-frequency term.
func documentFrequency(sentences []string) map[string]int {
	df := make(map[string]int)

	for _, s := range sentences {
		for token := range tokenize(s) {
			df[token]++
		}
	}

	return df
}

// informativeness scores a sentence by summing each word's inverse
// document frequency: words unique to this sentence (within the
// candidate set) score highest, boilerplate words shared across every
// sentence score near zero.
func informativeness(sentence string, df map[string]int, totalDocs int) float64 {
	var score float64

	for token := range tokenize(sentence) {
		freq := df[token]
		if freq == 0 {
			continue
		}

		score += math.Log(float64(totalDocs+1) / float64(freq))
	}

	return score
}
