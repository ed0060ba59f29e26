package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name      ProviderName
	priority  int
	available bool
	failN     int
	calls     int
	result    InvokeResult
}

func (f *fakeProvider) Name() ProviderName     { return f.name }
func (f *fakeProvider) IsAvailable() bool      { return f.available }
func (f *fakeProvider) Priority() int          { return f.priority }
func (f *fakeProvider) DefaultModel() string   { return "fake-model" }

func (f *fakeProvider) Invoke(_ context.Context, _ InvokeRequest) (InvokeResult, error) {
	f.calls++
	if f.calls <= f.failN {
		return InvokeResult{}, errors.New("fake provider failure")
	}

	return f.result, nil
}

func newTestRegistry() *Registry {
	logger := zerolog.Nop()
	return NewRegistry(&logger)
}

func TestRegistry_InvokeFallsBackOnFailure(t *testing.T) {
	reg := newTestRegistry()

	primary := &fakeProvider{name: "primary", priority: PriorityPrimary, available: true, failN: 99}
	secondary := &fakeProvider{
		name: "secondary", priority: PriorityFallback, available: true,
		result: InvokeResult{Text: "answer", PromptTokens: 10, CompletionTokens: 5},
	}

	reg.Register(primary, CircuitBreakerConfig{Threshold: 3, ResetAfter: 0})
	reg.Register(secondary, CircuitBreakerConfig{Threshold: 3, ResetAfter: 0})

	result, err := reg.Invoke(context.Background(), "", InvokeRequest{PromptProfile: "hello"})

	require.NoError(t, err)
	assert.Equal(t, "answer", result.Text)
	assert.Equal(t, ProviderName("secondary"), result.Provider)
	assert.Equal(t, 1, primary.calls)
}

func TestRegistry_InvokeHonorsPreferredProvider(t *testing.T) {
	reg := newTestRegistry()

	primary := &fakeProvider{
		name: "primary", priority: PriorityPrimary, available: true,
		result: InvokeResult{Text: "from primary"},
	}
	secondary := &fakeProvider{
		name: "secondary", priority: PriorityFallback, available: true,
		result: InvokeResult{Text: "from secondary"},
	}

	reg.Register(primary, CircuitBreakerConfig{Threshold: 3, ResetAfter: 0})
	reg.Register(secondary, CircuitBreakerConfig{Threshold: 3, ResetAfter: 0})

	result, err := reg.Invoke(context.Background(), "secondary", InvokeRequest{PromptProfile: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "from secondary", result.Text)
	assert.Equal(t, 0, primary.calls)
}

func TestRegistry_InvokeReturnsErrorWhenAllProvidersFail(t *testing.T) {
	reg := newTestRegistry()

	p := &fakeProvider{name: "only", priority: PriorityPrimary, available: true, failN: 99}
	reg.Register(p, CircuitBreakerConfig{Threshold: 3, ResetAfter: 0})

	_, err := reg.Invoke(context.Background(), "", InvokeRequest{PromptProfile: "hi"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
}

func TestRegistry_InvokeReturnsNoProvidersWhenNoneAvailable(t *testing.T) {
	reg := newTestRegistry()

	p := &fakeProvider{name: "only", priority: PriorityPrimary, available: false}
	reg.Register(p, CircuitBreakerConfig{Threshold: 3, ResetAfter: 0})

	_, err := reg.Invoke(context.Background(), "", InvokeRequest{PromptProfile: "hi"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProvidersAvailable)
}

func TestMostExpensiveModel_ReturnsAKnownModel(t *testing.T) {
	model := MostExpensiveModel()
	assert.Contains(t, modelPricing, model)
}

func TestEstimateCost_UnknownModelIsZero(t *testing.T) {
	cost := EstimateCost("nonexistent-model", 1000, 1000)
	assert.True(t, cost.IsZero())
}
