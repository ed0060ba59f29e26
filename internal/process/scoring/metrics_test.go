package scoring

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hinata/core/internal/core/domain"
)

func TestStepFactor(t *testing.T) {
	tests := []struct {
		n    int
		want float32
	}{
		{0, 0},
		{1, 0.1},
		{2, 0.1},
		{3, 0.4},
		{4, 0.4},
		{5, 0.7},
		{6, 1.0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stepFactor(tt.n, 1, 3, 5, 0.1, 0.4, 0.7, 1.0))
	}
}

func TestComputeMetrics_NoHistoryIsAllZero(t *testing.T) {
	obs := &domain.Observation{Address: "addr-1", Highlight: "vector search basics"}

	m := computeMetrics(obs, nil)

	assert.Equal(t, domain.AttentionMetrics{InteractionDepth: domain.DepthLow}, m)
}

func TestComputeMetrics_AddressRevisitAndNoteCount(t *testing.T) {
	obs := &domain.Observation{Address: "addr-1", Highlight: "vector search basics"}

	history := []*domain.Observation{
		{Address: "addr-1", Note: "earlier note", Highlight: "unrelated"},
		{Address: "addr-1", Highlight: "unrelated"},
		{Address: "addr-2", Note: "different place", Highlight: "unrelated"},
	}

	m := computeMetrics(obs, history)

	assert.Equal(t, 2, m.AddressRevisit)
	assert.Equal(t, 1, m.NoteCount)
}

func TestComputeMetrics_HighlightFrequencyViaJaccard(t *testing.T) {
	obs := &domain.Observation{Highlight: "vector search similarity ranking"}

	history := []*domain.Observation{
		{Highlight: "vector search similarity ranking engine"},
		{Highlight: "completely unrelated topic here"},
	}

	m := computeMetrics(obs, history)

	assert.Equal(t, 1, m.HighlightFrequency)
}

func TestComputeMetrics_InteractionDepthMediumWithTwoSignals(t *testing.T) {
	obs := &domain.Observation{
		Note: strings.Repeat("x", depthNoteLengthThreshold+1),
		Tags: []string{"a", "b", "c", "d"},
	}

	m := computeMetrics(obs, nil)

	assert.Equal(t, domain.DepthMedium, m.InteractionDepth)
}

func TestComputeMetrics_InteractionDepthHighWithFourSignals(t *testing.T) {
	now := time.Now()

	obs := &domain.Observation{
		Note:      strings.Repeat("x", depthNoteLengthThreshold+1),
		Tags:      []string{"a", "b", "c", "d"},
		Embedding: []float32{1, 0, 0},
	}

	history := make([]*domain.Observation, 0, 6)
	for i := 0; i < 6; i++ {
		history = append(history, &domain.Observation{
			Embedding: []float32{1, 0, 0},
			Timestamp: now.Add(-time.Duration(i) * 2 * 24 * time.Hour),
		})
	}

	m := computeMetrics(obs, history)

	assert.Equal(t, domain.DepthHigh, m.InteractionDepth)
}

func TestCombine_ClampsToOne(t *testing.T) {
	m := domain.AttentionMetrics{
		HighlightFrequency: 10,
		NoteCount:          10,
		AddressRevisit:     10,
		TimeInvestment:     1000,
		InteractionDepth:   domain.DepthHigh,
	}

	assert.Equal(t, float32(1.0), combine(m))
}

func TestCombine_NoHistoryYieldsLowBaseline(t *testing.T) {
	m := domain.AttentionMetrics{InteractionDepth: domain.DepthLow}

	assert.Equal(t, float32(0), combine(m))
}
