package prompt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
	"github.com/hinata/core/internal/platform/config"
)

type fakeProfiles struct {
	profile *domain.UserProfile
}

func (f *fakeProfiles) LoadProfile(_ context.Context, _ string) (*domain.UserProfile, error) {
	return f.profile, nil
}

func (f *fakeProfiles) SaveProfile(_ context.Context, _ *domain.UserProfile) error { return nil }

type fakeReader struct {
	recent []*domain.Observation
}

func (f *fakeReader) Get(_ context.Context, _ string) (*domain.Observation, error) { return nil, nil }

func (f *fakeReader) FindByContentHash(_ context.Context, _, _ string, _ time.Duration) (*domain.Observation, error) {
	return nil, nil
}

func (f *fakeReader) RecentByUser(_ context.Context, _ string, _ time.Duration, _ int) ([]*domain.Observation, error) {
	return f.recent, nil
}

type fakeRetriever struct {
	results []ports.QueryResult
}

func (f *fakeRetriever) Query(_ context.Context, _, _ string, _ []float32, _ ports.QueryFilters, _ int) ([]ports.QueryResult, error) {
	return f.results, nil
}

func testBudget() config.PromptBudgetConfig {
	return config.PromptBudgetConfig{
		TotalTokens:  1000,
		CoreShare:    0.2,
		WorkingShare: 0.4,
		ContextShare: 0.3,
		BufferShare:  0.1,
	}
}

func TestComposer_ComposeFillsAllSections(t *testing.T) {
	now := time.Now()

	profile := &domain.UserProfile{
		UserID: "user-1",
		Components: []*domain.ProfileComponent{
			{
				ID: "comp-1", ComponentType: domain.ComponentDomainExpertise,
				Description: "prefers concise technical answers", Priority: domain.PriorityHigh,
				Confidence: 0.9, Embedding: []float32{1, 0, 0, 0}, LastUpdated: now,
			},
		},
	}

	recentObs := []*domain.Observation{
		{
			ID: "obs-1", UserID: "user-1", Highlight: "reading about vector databases",
			Note: "looked into pgvector and hnsw indexing for a while", Embedding: []float32{1, 0, 0, 0},
			InfluenceWeight: 0.7, Timestamp: now.Add(-2 * time.Minute), Access: domain.AccessPrivate,
		},
	}

	ctxResults := []ports.QueryResult{
		{Observation: &domain.Observation{
			ID: "obs-2", Highlight: "earlier note on embeddings", Embedding: []float32{1, 0, 0, 0},
			InfluenceWeight: 0.6, Timestamp: now.Add(-48 * time.Hour), Access: domain.AccessPrivate,
		}},
	}

	composer := New(&fakeProfiles{profile: profile}, &fakeReader{recent: recentObs}, &fakeRetriever{results: ctxResults}, testBudget(), nil)

	result, err := composer.Compose(context.Background(), "user-1", "vector search", []float32{1, 0, 0, 0})
	require.NoError(t, err)
	require.NotEmpty(t, result.CorePersonalRules)
	require.NotEmpty(t, result.RelevantContext)
	require.NotEmpty(t, result.RecentActivity)
	require.Greater(t, result.TokensUsed, 0)
}

func TestComposer_ComposeStripsRestrictedContent(t *testing.T) {
	now := time.Now()

	recentObs := []*domain.Observation{
		{
			ID: "obs-restricted", Highlight: "sensitive internal note", Embedding: []float32{1, 0, 0, 0},
			InfluenceWeight: 0.9, Timestamp: now.Add(-1 * time.Minute), Access: domain.AccessRestricted,
		},
	}

	composer := New(
		&fakeProfiles{profile: &domain.UserProfile{UserID: "user-1"}},
		&fakeReader{recent: recentObs},
		&fakeRetriever{},
		testBudget(),
		nil,
	)

	result, err := composer.Compose(context.Background(), "user-1", "query", []float32{1, 0, 0, 0})
	require.NoError(t, err)
	require.Empty(t, result.RecentActivity)
}

func TestComposer_ComposeRedactsPII(t *testing.T) {
	now := time.Now()

	recentObs := []*domain.Observation{
		{
			ID: "obs-pii", Highlight: "contact me at person@example.com or 5551234567",
			Embedding: []float32{1, 0, 0, 0}, InfluenceWeight: 0.9,
			Timestamp: now.Add(-1 * time.Minute), Access: domain.AccessPrivate,
		},
	}

	composer := New(
		&fakeProfiles{profile: &domain.UserProfile{UserID: "user-1"}},
		&fakeReader{recent: recentObs},
		&fakeRetriever{},
		testBudget(),
		nil,
	)

	result, err := composer.Compose(context.Background(), "user-1", "query", []float32{1, 0, 0, 0})
	require.NoError(t, err)
	require.NotContains(t, result.RecentActivity, "person@example.com")
	require.NotContains(t, result.RecentActivity, "5551234567")
}
