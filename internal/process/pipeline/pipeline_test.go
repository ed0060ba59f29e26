package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
)

type fakeStore struct {
	byHash map[string]*domain.Observation
	put    []*domain.Observation
	putErr error
}

func newFakeStore() *fakeStore { return &fakeStore{byHash: make(map[string]*domain.Observation)} }

func (f *fakeStore) Put(_ context.Context, obs *domain.Observation) error {
	if f.putErr != nil {
		return f.putErr
	}

	f.put = append(f.put, obs)
	f.byHash[obs.ContentHash] = obs

	return nil
}

func (f *fakeStore) Update(_ context.Context, _ string, _ func(*domain.Observation)) error { return nil }
func (f *fakeStore) DeadLetter(_ context.Context, _ *domain.Observation, _ error) error     { return nil }
func (f *fakeStore) Get(_ context.Context, _ string) (*domain.Observation, error)           { return nil, nil }

func (f *fakeStore) FindByContentHash(_ context.Context, _, hash string, _ time.Duration) (*domain.Observation, error) {
	return f.byHash[hash], nil
}

func (f *fakeStore) RecentByUser(_ context.Context, _ string, _ time.Duration, _ int) ([]*domain.Observation, error) {
	return nil, nil
}

type fakeEnricher struct {
	err error
}

func (f *fakeEnricher) Enrich(_ context.Context, obs *domain.Observation) error {
	if f.err != nil {
		return f.err
	}

	obs.EnhancedTags = []string{"topic:test"}
	obs.EnrichmentModelVersion = "local-analysis-v1"

	return nil
}

type fakeScorer struct {
	weight float32
	err    error
}

func (f *fakeScorer) Score(_ context.Context, _ string, _ *domain.Observation) (float32, domain.AttentionMetrics, error) {
	if f.err != nil {
		return 0, domain.AttentionMetrics{}, f.err
	}

	return f.weight, domain.AttentionMetrics{InteractionDepth: domain.DepthMedium}, nil
}

type fakeEvents struct {
	events []ports.ProfileUpdateEvent
}

func (f *fakeEvents) Enqueue(_ context.Context, e ports.ProfileUpdateEvent) error {
	f.events = append(f.events, e)
	return nil
}

func validBatch() BatchRequest {
	return BatchRequest{
		AppID:  "app-1",
		UserID: "user-1",
		Batch: []RawObservation{
			{
				Timestamp: time.Now().Format(time.RFC3339),
				Source:    "manual-entry",
				Highlight: "a useful highlight",
				Note:      "some note",
				Address:   "https://example.com/a",
				Tags:      []string{"go", "go"},
				Access:    domain.AccessPrivate,
			},
		},
		Options: BatchOptions{EnableEnrichment: true, Priority: PriorityNormal},
	}
}

func TestPipeline_ProcessBatchAcceptsValidItem(t *testing.T) {
	store := newFakeStore()
	events := &fakeEvents{}
	p := New(store, &fakeEnricher{}, &fakeScorer{weight: 0.6}, events, 1000, nil)

	summary, err := p.ProcessBatch(context.Background(), validBatch())
	require.NoError(t, err)
	require.Equal(t, 1, summary.ProcessedCount)
	require.Len(t, summary.PerItem, 1)
	require.True(t, summary.PerItem[0].Accepted)
	require.False(t, summary.Degraded)
	require.Len(t, store.put, 1)
	require.Len(t, events.events, 1)
	require.Equal(t, store.put[0].ID, events.events[0].ObservationID)
}

func TestPipeline_ProcessBatchRejectsInvalidItemWithoutFailingBatch(t *testing.T) {
	store := newFakeStore()
	p := New(store, &fakeEnricher{}, &fakeScorer{weight: 0.6}, &fakeEvents{}, 1000, nil)

	req := validBatch()
	req.Batch = append(req.Batch, RawObservation{Timestamp: "not-a-time"})

	summary, err := p.ProcessBatch(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, summary.PerItem, 2)
	require.True(t, summary.PerItem[0].Accepted)
	require.False(t, summary.PerItem[1].Accepted)
	require.Equal(t, RejectedValidation, summary.PerItem[1].RejectedReason)
	require.Equal(t, 1, summary.ProcessedCount)
}

func TestPipeline_ProcessBatchDeduplicatesByContentHash(t *testing.T) {
	store := newFakeStore()
	p := New(store, &fakeEnricher{}, &fakeScorer{weight: 0.6}, &fakeEvents{}, 1000, nil)

	req := validBatch()
	ctx := context.Background()

	first, err := p.ProcessBatch(ctx, req)
	require.NoError(t, err)
	require.Len(t, store.put, 1)

	second, err := p.ProcessBatch(ctx, req)
	require.NoError(t, err)
	require.Len(t, store.put, 1, "duplicate submission must not write again")
	require.Equal(t, first.PerItem[0].ID, second.PerItem[0].ID)
}

func TestPipeline_ProcessBatchDegradesOnEnrichmentFailure(t *testing.T) {
	store := newFakeStore()
	p := New(store, &fakeEnricher{err: context.DeadlineExceeded}, &fakeScorer{weight: 0.6}, &fakeEvents{}, 1000, nil)

	summary, err := p.ProcessBatch(context.Background(), validBatch())
	require.NoError(t, err)
	require.True(t, summary.Degraded)
	require.True(t, summary.PerItem[0].Accepted)
	require.True(t, store.put[0].EnrichmentDegraded)
	require.Equal(t, "fallback", store.put[0].EnrichmentModelVersion)
}

func TestPipeline_ProcessBatchAppliesQuotaExceeded(t *testing.T) {
	store := newFakeStore()
	p := New(store, &fakeEnricher{}, &fakeScorer{weight: 0.6}, &fakeEvents{}, 0, nil)

	req := validBatch()
	req.Options.Priority = PriorityNormal

	summary, err := p.ProcessBatch(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 0, summary.ProcessedCount)
	require.Empty(t, store.put)
}
