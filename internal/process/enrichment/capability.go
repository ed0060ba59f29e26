package enrichment

import (
	"context"
	"sort"
	"strings"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/embeddings"
	"github.com/hinata/core/internal/core/ports"
)

// capabilityModelVersion is recorded on every observation this capability
// enriches (spec §4.6 determinism: "given the same input and
// analysis-model version, output is identical").
const capabilityModelVersion = "local-analysis-v1"

// Tag/semantic-analysis heuristics (spec §6 enrich()).
const (
	maxTags                = 8
	sentenceLengthHighWords = 22 // average sentence length above this reads as "high" complexity
	sentenceLengthMedWords  = 14
)

// LocalCapability is the process-local implementation of
// ports.EnrichmentCapability: a deterministic, dependency-light analysis
// pass (tag extraction, sentiment/complexity heuristics, sentence
// ranking) plus a real embedding from the shared provider registry.
type LocalCapability struct {
	embeddings *embeddings.Registry
}

var _ ports.EnrichmentCapability = (*LocalCapability)(nil)

// NewLocalCapability wraps an already-configured embedding registry.
func NewLocalCapability(registry *embeddings.Registry) *LocalCapability {
	return &LocalCapability{embeddings: registry}
}

func (c *LocalCapability) ModelVersion() string {
	return capabilityModelVersion
}

// Enrich implements the enrich(text) capability contract (spec §6):
// tags, candidate top sentences, a semantic read, and an embedding.
func (c *LocalCapability) Enrich(ctx context.Context, text string) (ports.EnrichmentResult, error) {
	vec, err := c.embeddings.GetEmbedding(ctx, text)
	if err != nil {
		return ports.EnrichmentResult{}, err
	}

	sentences := splitSentences(text)

	return ports.EnrichmentResult{
		Tags:             extractTags(text),
		TopSentences:     sentences,
		SemanticAnalysis: analyzeSemantics(text, sentences),
		Embedding:        vec,
	}, nil
}

// extractTags picks the maxTags most frequent non-stopword tokens as a
// stand-in for a topic-tagging model.
func extractTags(text string) []string {
	freq := make(map[string]int)

	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if len(word) < 3 || stopWords[word] {
			continue
		}

		freq[word]++
	}

	type tagCount struct {
		tag   string
		count int
	}

	ranked := make([]tagCount, 0, len(freq))
	for tag, count := range freq {
		ranked = append(ranked, tagCount{tag, count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}

		return ranked[i].tag < ranked[j].tag
	})

	n := maxTags
	if len(ranked) < n {
		n = len(ranked)
	}

	tags := make([]string, n)
	for i := 0; i < n; i++ {
		tags[i] = ranked[i].tag
	}

	return tags
}

// analyzeSemantics derives a coarse sentiment/complexity/topics read.
// Sentiment uses a small polarity lexicon; complexity uses average
// sentence length; topics reuse the tag extraction.
func analyzeSemantics(text string, sentences []string) domain.SemanticAnalysis {
	return domain.SemanticAnalysis{
		Topics:     extractTags(text),
		Sentiment:  sentiment(text),
		Complexity: complexity(sentences),
	}
}

var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "love": true, "helpful": true,
	"amazing": true, "useful": true, "best": true, "positive": true, "success": true,
}

var negativeWords = map[string]bool{
	"bad": true, "terrible": true, "hate": true, "useless": true, "worst": true,
	"poor": true, "negative": true, "failure": true, "broken": true, "disappointing": true,
}

func sentiment(text string) domain.Sentiment {
	tokens := tokenize(text)

	var pos, neg int

	for token := range tokens {
		if positiveWords[token] {
			pos++
		}

		if negativeWords[token] {
			neg++
		}
	}

	switch {
	case pos > neg:
		return domain.SentimentPositive
	case neg > pos:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

func complexity(sentences []string) domain.Complexity {
	if len(sentences) == 0 {
		return domain.ComplexityLow
	}

	var totalWords int

	for _, s := range sentences {
		totalWords += len(strings.Fields(s))
	}

	avg := totalWords / len(sentences)

	switch {
	case avg > sentenceLengthHighWords:
		return domain.ComplexityHigh
	case avg > sentenceLengthMedWords:
		return domain.ComplexityMedium
	default:
		return domain.ComplexityLow
	}
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "this": true, "that": true, "these": true, "those": true, "it": true,
	"its": true, "as": true, "not": true,
}

// fallbackEmbedding produces the spec §4.6 "deterministic fallback hash"
// embedding by delegating to the embeddings registry's own deterministic
// mock provider at embeddings.DefaultDimensions; the registry's configured
// target dimensions are not consulted.
func fallbackEmbedding(text string) []float32 {
	result, _ := embeddings.NewMockProvider().GetEmbedding(context.Background(), text)
	return result.Vector
}
