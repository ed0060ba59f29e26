package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hinata/core/internal/core/domain"
)

type fakeReader struct {
	obs map[string]*domain.Observation
}

func (f *fakeReader) Get(_ context.Context, id string) (*domain.Observation, error) {
	return f.obs[id], nil
}

func (f *fakeReader) FindByContentHash(_ context.Context, _, _ string, _ time.Duration) (*domain.Observation, error) {
	return nil, nil
}

func (f *fakeReader) RecentByUser(_ context.Context, _ string, _ time.Duration, _ int) ([]*domain.Observation, error) {
	return nil, nil
}

type fakeProfileStore struct {
	profiles map[string]*domain.UserProfile
	saved    int
}

func (f *fakeProfileStore) LoadProfile(_ context.Context, userID string) (*domain.UserProfile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}

	return &domain.UserProfile{UserID: userID}, nil
}

func (f *fakeProfileStore) SaveProfile(_ context.Context, profile *domain.UserProfile) error {
	f.saved++
	f.profiles[profile.UserID] = profile

	return nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateUser(_ context.Context, _ string) error {
	f.calls++
	return nil
}

func unitVector(dim int, value float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = value
	}

	return v
}

func TestEngine_OnObservationCreatesFirstComponent(t *testing.T) {
	reader := &fakeReader{obs: map[string]*domain.Observation{
		"obs-1": {
			ID: "obs-1", UserID: "user-1", Highlight: "learned a new algorithm",
			Tags: []string{"algorithm"}, Embedding: unitVector(4, 1), AttentionWeight: 0.5,
			Timestamp: time.Now(),
		},
	}}
	store := &fakeProfileStore{profiles: map[string]*domain.UserProfile{}}
	inv := &fakeInvalidator{}

	eng := New(reader, store, inv, NewEventQueue(), nil)

	err := eng.OnObservation(context.Background(), "user-1", "obs-1")
	require.NoError(t, err)

	profile := store.profiles["user-1"]
	require.Len(t, profile.Components, 1)
	require.Equal(t, domain.ComponentDomainExpertise, profile.Components[0].ComponentType)
	require.Equal(t, float32(1), profile.Components[0].NormalizedWeight)
	require.Equal(t, 1, inv.calls)
}

func TestEngine_OnObservationMergesHighSimilarityMatch(t *testing.T) {
	now := time.Now()

	existing := &domain.ProfileComponent{
		ID: "comp-1", UserID: "user-1", ComponentType: domain.ComponentDomainExpertise,
		Embedding: unitVector(4, 1), TotalAttentionWeight: 0.5,
		CreatedAt: now, LastUpdated: now, LastActivated: now,
	}

	reader := &fakeReader{obs: map[string]*domain.Observation{
		"obs-2": {
			ID: "obs-2", UserID: "user-1", Highlight: "more on the same algorithm",
			Tags: []string{"algorithm"}, Embedding: unitVector(4, 1), AttentionWeight: 0.9,
			Timestamp: now,
		},
	}}
	store := &fakeProfileStore{profiles: map[string]*domain.UserProfile{
		"user-1": {UserID: "user-1", Components: []*domain.ProfileComponent{existing}},
	}}

	eng := New(reader, store, nil, NewEventQueue(), nil)

	err := eng.OnObservation(context.Background(), "user-1", "obs-2")
	require.NoError(t, err)

	profile := store.profiles["user-1"]
	require.Len(t, profile.Components, 1, "should merge rather than create a second component")
	require.InDelta(t, float32(1.4), profile.Components[0].TotalAttentionWeight, 0.001)
	require.Len(t, profile.Components[0].SupportingEvidence, 1)
}

func TestEngine_OnObservationEvictsStaleLowWeightComponents(t *testing.T) {
	now := time.Now()
	stale := &domain.ProfileComponent{
		ID: "comp-stale", UserID: "user-1", ComponentType: domain.ComponentLearningPattern,
		Embedding: unitVector(4, -1), TotalAttentionWeight: 0.0001,
		NormalizedWeight: 0.0001, LastActivated: now.Add(-30 * 24 * time.Hour),
		CreatedAt: now.Add(-40 * 24 * time.Hour), LastUpdated: now.Add(-30 * 24 * time.Hour),
	}

	reader := &fakeReader{obs: map[string]*domain.Observation{
		"obs-3": {
			ID: "obs-3", UserID: "user-1", Highlight: "a fresh algorithm note",
			Tags: []string{"algorithm"}, Embedding: unitVector(4, 1), AttentionWeight: 0.9,
			Timestamp: now,
		},
	}}
	store := &fakeProfileStore{profiles: map[string]*domain.UserProfile{
		"user-1": {UserID: "user-1", Components: []*domain.ProfileComponent{stale}},
	}}

	eng := New(reader, store, nil, NewEventQueue(), nil)

	err := eng.OnObservation(context.Background(), "user-1", "obs-3")
	require.NoError(t, err)

	profile := store.profiles["user-1"]
	require.Len(t, profile.Components, 1, "stale low-weight component should be evicted")
	require.Equal(t, domain.ComponentDomainExpertise, profile.Components[0].ComponentType)
}

func TestClassify_KeywordBuckets(t *testing.T) {
	cases := []struct {
		obs  *domain.Observation
		want domain.ComponentType
	}{
		{&domain.Observation{Tags: []string{"deadline", "urgent"}}, domain.ComponentPriorityFocus},
		{&domain.Observation{Highlight: "learning a new tutorial on this course"}, domain.ComponentLearningPattern},
		{&domain.Observation{}, domain.ComponentDomainExpertise},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, classify(tc.obs))
	}
}
