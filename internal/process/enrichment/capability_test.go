package enrichment

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/embeddings"
)

func newTestCapability() *LocalCapability {
	logger := zerolog.Nop()
	registry := embeddings.NewRegistry(embeddings.DefaultDimensions, &logger)
	registry.Register(embeddings.NewMockProvider(), embeddings.DefaultCircuitBreakerConfig())

	return NewLocalCapability(registry)
}

func TestLocalCapability_EnrichPopulatesAllFields(t *testing.T) {
	capability := newTestCapability()

	result, err := capability.Enrich(context.Background(), "The new dashboard is great and the team loves the fast release cadence.")
	require.NoError(t, err)
	require.NotEmpty(t, result.Tags)
	require.NotEmpty(t, result.Embedding)
	require.Equal(t, domain.SentimentPositive, result.SemanticAnalysis.Sentiment)
}

func TestLocalCapability_ModelVersionIsStable(t *testing.T) {
	capability := newTestCapability()
	require.Equal(t, capabilityModelVersion, capability.ModelVersion())
}

func TestSentiment_DetectsNegative(t *testing.T) {
	require.Equal(t, domain.SentimentNegative, sentiment("this is a terrible and broken experience"))
}

func TestSentiment_DetectsNeutralWhenNoSignal(t *testing.T) {
	require.Equal(t, domain.SentimentNeutral, sentiment("the meeting is scheduled for tuesday"))
}

func TestComplexity_ShortSentencesAreLow(t *testing.T) {
	require.Equal(t, domain.ComplexityLow, complexity([]string{"Go fast", "Ship it"}))
}

func TestExtractTags_FiltersStopWordsAndShortTokens(t *testing.T) {
	tags := extractTags("the cat and the dog are playing in the garden today")
	for _, tag := range tags {
		require.False(t, stopWords[tag])
		require.GreaterOrEqual(t, len(tag), 3)
	}
}

func TestFallbackEmbedding_IsDeterministic(t *testing.T) {
	a := fallbackEmbedding("same input text")
	b := fallbackEmbedding("same input text")
	require.Equal(t, a, b)
}
