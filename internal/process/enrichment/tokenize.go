package enrichment

import (
	"strings"
	"unicode"
)

// tokenize lowercases and splits on non-letter/digit runes, the same
// bag-of-words shape used by AttentionScorer and grounded on the
// teacher's fact-check tokenizer.
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

func jaccard(a, b map[string]bool) float64 {
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
