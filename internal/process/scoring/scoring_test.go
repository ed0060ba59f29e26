package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hinata/core/internal/core/domain"
)

type fakeReader struct {
	history []*domain.Observation
	calls   int
}

func (f *fakeReader) Get(_ context.Context, _ string) (*domain.Observation, error) {
	return nil, nil
}

func (f *fakeReader) FindByContentHash(_ context.Context, _, _ string, _ time.Duration) (*domain.Observation, error) {
	return nil, nil
}

func (f *fakeReader) RecentByUser(_ context.Context, _ string, _ time.Duration, _ int) ([]*domain.Observation, error) {
	f.calls++
	return f.history, nil
}

func TestScorer_ScoreWithNoHistoryYieldsLowWeight(t *testing.T) {
	reader := &fakeReader{}
	s := New(reader, nil)

	obs := &domain.Observation{ID: "obs-1", UserID: "user-1", Highlight: "first observation ever"}

	weight, metrics, err := s.Score(context.Background(), "user-1", obs)
	require.NoError(t, err)
	require.Equal(t, float32(0), weight)
	require.Equal(t, domain.DepthLow, metrics.InteractionDepth)
	require.Equal(t, 1, reader.calls)
}

func TestScorer_ScoreWithStrongHistorySignals(t *testing.T) {
	reader := &fakeReader{history: []*domain.Observation{
		{Address: "addr-1", Note: "n", Highlight: "vector search"},
		{Address: "addr-1", Note: "n", Highlight: "vector search basics"},
		{Address: "addr-1", Note: "n", Highlight: "vector search ranking"},
		{Address: "addr-1", Note: "n", Highlight: "vector search engines"},
		{Address: "addr-1", Note: "n", Highlight: "vector search topics"},
		{Address: "addr-1", Note: "n", Highlight: "vector search methods"},
		{Address: "addr-1", Note: "n", Highlight: "vector search queries"},
	}}

	s := New(reader, nil)

	obs := &domain.Observation{ID: "obs-1", UserID: "user-1", Address: "addr-1", Highlight: "vector search topics"}

	weight, _, err := s.Score(context.Background(), "user-1", obs)
	require.NoError(t, err)
	require.Greater(t, weight, float32(0.3))
}
