package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
	"github.com/hinata/core/internal/platform/config"
)

type fakeCapability struct {
	result ports.EnrichmentResult
	err    error
}

func (f *fakeCapability) Enrich(_ context.Context, _ string) (ports.EnrichmentResult, error) {
	return f.result, f.err
}

func (f *fakeCapability) ModelVersion() string { return "fake-v1" }

func TestWorker_EnrichPopulatesFieldsOnSuccess(t *testing.T) {
	capability := &fakeCapability{result: ports.EnrichmentResult{
		Tags:         []string{"finance", "quarterly"},
		TopSentences: []string{"Revenue grew by twelve percent across every region this year"},
		SemanticAnalysis: domain.SemanticAnalysis{
			Sentiment:  domain.SentimentPositive,
			Complexity: domain.ComplexityMedium,
		},
		Embedding: []float32{3, 4, 0},
	}}

	w := New(capability, config.LinkDereferenceConfig{}, nil)

	obs := &domain.Observation{ID: "obs-1", Highlight: "short", Note: "a short note"}

	err := w.Enrich(context.Background(), obs)
	require.NoError(t, err)
	require.False(t, obs.EnrichmentDegraded)
	require.Equal(t, []string{"finance", "quarterly"}, obs.EnhancedTags)
	require.Equal(t, "fake-v1", obs.EnrichmentModelVersion)
	require.InDelta(t, 1.0, float64(obs.Embedding[0]*obs.Embedding[0]+obs.Embedding[1]*obs.Embedding[1]+obs.Embedding[2]*obs.Embedding[2]), 1e-6)
}

func TestWorker_EnrichAppliesDegradedDefaultsOnFailure(t *testing.T) {
	capability := &fakeCapability{err: errors.New("capability unavailable")}
	logger := zerolog.Nop()
	w := New(capability, config.LinkDereferenceConfig{}, &logger)

	obs := &domain.Observation{ID: "obs-2", Highlight: "the one highlight", Note: "some note text"}

	err := w.Enrich(context.Background(), obs)
	require.NoError(t, err)
	require.True(t, obs.EnrichmentDegraded)
	require.Equal(t, "fallback", obs.EnrichmentModelVersion)
	require.Equal(t, []string{"the one highlight"}, obs.RecommendedHighlights)
	require.Equal(t, domain.SentimentNeutral, obs.SemanticAnalysis.Sentiment)
	require.NotEmpty(t, obs.Embedding)
}

func TestWorker_EnrichAppliesDegradedDefaultsOnTimeout(t *testing.T) {
	capability := &fakeCapability{err: context.DeadlineExceeded}
	w := New(capability, config.LinkDereferenceConfig{}, nil)

	obs := &domain.Observation{ID: "obs-3", Highlight: "h", Note: "n"}

	err := w.Enrich(context.Background(), obs)
	require.NoError(t, err)
	require.True(t, obs.EnrichmentDegraded)
}

func TestLooksLikeURL(t *testing.T) {
	require.True(t, looksLikeURL("https://example.com/article"))
	require.True(t, looksLikeURL("http://example.com"))
	require.False(t, looksLikeURL("not a url"))
	require.False(t, looksLikeURL(""))
}

func TestNew_NoDereferencerWhenDisabled(t *testing.T) {
	w := New(&fakeCapability{}, config.LinkDereferenceConfig{Enabled: false}, nil)
	require.Nil(t, w.dereferencer)
}
