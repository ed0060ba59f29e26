package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
)

type fakeIndex struct {
	vectorResults    []ports.QueryResult
	textResults      []ports.QueryResult
	compositeResults []ports.QueryResult
}

func (f *fakeIndex) QueryVector(_ context.Context, _ []float32, _ ports.QueryFilters, _ int) ([]ports.QueryResult, error) {
	return f.vectorResults, nil
}

func (f *fakeIndex) QueryText(_ context.Context, _ string, _ ports.QueryFilters, _ int) ([]ports.QueryResult, error) {
	return f.textResults, nil
}

func (f *fakeIndex) QueryComposite(_ context.Context, _ ports.QueryFilters, _ int) ([]ports.QueryResult, error) {
	return f.compositeResults, nil
}

// fakeCache is an in-process resultCache stand-in so Query's caching path
// is exercised without a live Redis broker.
type fakeCache struct {
	entries map[string][]ports.QueryResult
	epochs  map[string]int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]ports.QueryResult{}, epochs: map[string]int64{}}
}

func (c *fakeCache) get(_ context.Context, key string) ([]ports.QueryResult, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *fakeCache) set(_ context.Context, key string, results []ports.QueryResult) {
	c.entries[key] = results
}

func (c *fakeCache) epoch(_ context.Context, userID string) int64 {
	return c.epochs[userID]
}

func (c *fakeCache) bumpEpoch(_ context.Context, userID string) error {
	c.epochs[userID]++
	return nil
}

func result(id string, influence, quality float32, tags ...domain.Tier) ports.QueryResult {
	var tier domain.Tier
	if len(tags) > 0 {
		tier = tags[0]
	}

	return ports.QueryResult{Observation: &domain.Observation{
		ID: id, InfluenceWeight: influence, QualityScore: quality, Tier: tier,
	}}
}

func TestRetriever_QueryFusesAndLimits(t *testing.T) {
	idx := &fakeIndex{
		vectorResults:    []ports.QueryResult{result("a", 0.9, 0.9), result("b", 0.8, 0.8)},
		textResults:      []ports.QueryResult{result("b", 0.8, 0.8), result("c", 0.5, 0.5)},
		compositeResults: []ports.QueryResult{result("c", 0.5, 0.5)},
	}

	r := New(idx, idx, idx, nil)

	out, err := r.Query(context.Background(), "user-1", "query text", []float32{0.1, 0.2}, ports.QueryFilters{}, 2)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, "b", out[0].Observation.ID)
}

func TestRetriever_QueryAppliesMinInfluenceWeightFilter(t *testing.T) {
	idx := &fakeIndex{
		compositeResults: []ports.QueryResult{result("low", 0.1, 0.9), result("high", 0.9, 0.9)},
	}

	r := New(idx, idx, idx, nil)

	out, err := r.Query(context.Background(), "user-1", "", nil, ports.QueryFilters{MinInfluenceWeight: 0.5}, 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "high", out[0].Observation.ID)
}

func TestRetriever_QueryUsesCacheOnSecondCall(t *testing.T) {
	idx := &fakeIndex{compositeResults: []ports.QueryResult{result("a", 0.9, 0.9)}}
	cache := newFakeCache()

	r := &Retriever{vector: idx, text: idx, composite: idx, cache: cache}

	_, err := r.Query(context.Background(), "user-1", "", nil, ports.QueryFilters{}, 5)
	require.NoError(t, err)
	assert.Len(t, cache.entries, 1)

	idx.compositeResults = nil // prove the second call doesn't re-fan-out

	out, err := r.Query(context.Background(), "user-1", "", nil, ports.QueryFilters{}, 5)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Observation.ID)
}

func TestRetriever_InvalidateUserBustsCache(t *testing.T) {
	idx := &fakeIndex{compositeResults: []ports.QueryResult{result("a", 0.9, 0.9)}}
	cache := newFakeCache()

	r := &Retriever{vector: idx, text: idx, composite: idx, cache: cache}

	_, err := r.Query(context.Background(), "user-1", "", nil, ports.QueryFilters{}, 5)
	require.NoError(t, err)

	require.NoError(t, r.InvalidateUser(context.Background(), "user-1"))

	idx.compositeResults = []ports.QueryResult{result("b", 0.9, 0.9)}

	out, err := r.Query(context.Background(), "user-1", "", nil, ports.QueryFilters{}, 5)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].Observation.ID)
}
