// Package llm implements the external-model capability consumed by
// ExternalModelGateway (spec §4.8, §6): a provider-priority registry
// exposing a single invoke(provider, model, promptProfile, params) operation,
// with circuit-breaker fallback and cost tracking shared across providers.
package llm

import (
	"context"
	"time"
)

// ProviderName identifies an external-model provider.
type ProviderName string

// Provider name constants.
const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderMock      ProviderName = "mock"
)

// Priority constants for provider ordering (higher = preferred).
const (
	PriorityPrimary  = 100 // Primary provider (Anthropic)
	PriorityFallback = 50  // Fallback provider (OpenAI)
	PriorityMock     = 0   // Mock provider for testing / deterministic fallback
)

// Default circuit breaker tuning.
const (
	defaultCircuitThreshold = 3
	defaultCircuitResetAfter = 30 * time.Second
)

// InvokeRequest carries everything the invoke() capability contract
// (spec §6) needs: the composed prompt, an optional pinned model, and
// generation params.
type InvokeRequest struct {
	// Model pins a specific model; empty lets the provider use its default.
	Model string

	// PromptProfile is the fully composed prompt text (see
	// internal/process/prompt), already within the token budget.
	PromptProfile string

	// MaxTokens bounds the completion length; 0 means provider default.
	MaxTokens int

	// Temperature controls sampling randomness; providers map this onto
	// their own scale.
	Temperature float32
}

// InvokeResult is the invoke() capability contract's return value.
type InvokeResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	LatencyMs        int64
	Provider         ProviderName
	Model            string
}

// Provider is implemented by each concrete external-model backend.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// Invoke sends the composed prompt to the model and returns its answer.
	Invoke(ctx context.Context, req InvokeRequest) (InvokeResult, error)

	// IsAvailable reports whether the provider has usable credentials.
	IsAvailable() bool

	// Priority returns the provider's position in the fallback order
	// (higher = tried first).
	Priority() int

	// DefaultModel returns the model used when InvokeRequest.Model is empty.
	DefaultModel() string
}

// CircuitBreakerConfig configures per-provider circuit breaking.
type CircuitBreakerConfig struct {
	Threshold  int           // consecutive failures before opening
	ResetAfter time.Duration // time before a half-open retry is allowed
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Threshold:  defaultCircuitThreshold,
		ResetAfter: defaultCircuitResetAfter,
	}
}
