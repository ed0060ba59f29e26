package prompt

import (
	"sort"
	"strings"
)

const (
	maxSummarySentences  = 3
	noteSummaryThreshold = 100
)

// summarizeNote implements the compression rule (spec §4.5): an
// observation's effective body is highlight + summary(note), where summary
// is a deterministic extractive summarizer picking the first ≤3
// highest-scoring sentences, then truncating.
func summarizeNote(note string, maxChars int) string {
	if note == "" {
		return ""
	}

	if len(note) < noteSummaryThreshold {
		return truncate(note, maxChars)
	}

	top := topSentences(splitSentences(note), maxSummarySentences)

	return truncate(strings.Join(top, ". "), maxChars)
}

func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool { return r == '.' || r == '!' || r == '?' })
	sentences := make([]string, 0, len(raw))

	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}

	return sentences
}

type scoredSentence struct {
	idx   int
	text  string
	score int
}

// topSentences scores each sentence by word count, a cheap proxy for
// informativeness (short transitional sentences tend to carry less), and
// returns the top n in their original order.
func topSentences(sentences []string, n int) []string {
	ranked := make([]scoredSentence, len(sentences))
	for i, s := range sentences {
		ranked[i] = scoredSentence{idx: i, text: s, score: len(strings.Fields(s))}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if n > len(ranked) {
		n = len(ranked)
	}

	top := ranked[:n]
	sort.SliceStable(top, func(i, j int) bool { return top[i].idx < top[j].idx })

	out := make([]string, len(top))
	for i, s := range top {
		out[i] = s.text
	}

	return out
}
