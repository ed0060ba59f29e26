package llm

import (
	"context"

	"github.com/rs/zerolog"
)

// Client is the narrow surface the rest of the codebase (ExternalModelGateway)
// depends on: the invoke() capability contract, independent of how many
// providers back it.
type Client interface {
	// Invoke implements invoke(provider, model, promptProfile, params) per
	// spec §6. preferred may be empty to let the registry auto-route.
	Invoke(ctx context.Context, preferred ProviderName, req InvokeRequest) (InvokeResult, error)

	// ProviderCount reports how many providers are registered, used by
	// callers to detect a fully degraded (mock-only) configuration.
	ProviderCount() int
}

var _ Client = (*Registry)(nil)

// Config holds configuration for constructing an external-model client.
type Config struct {
	AnthropicAPIKey string
	AnthropicModel  string

	OpenAIAPIKey string
	OpenAIModel  string

	CircuitBreakerConfig CircuitBreakerConfig
}

// NewClient builds a registry with the Anthropic and OpenAI providers
// registered when credentials are present, falling back to the
// deterministic mock provider when neither is configured so the gateway
// always has something to invoke.
func NewClient(_ context.Context, cfg Config, logger *zerolog.Logger) Client {
	registry := NewRegistry(logger)

	if cfg.AnthropicAPIKey != "" {
		registry.Register(NewAnthropicProvider(AnthropicConfig{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AnthropicModel,
		}), cfg.CircuitBreakerConfig)
	}

	if cfg.OpenAIAPIKey != "" {
		registry.Register(NewOpenAIProvider(OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
		}), cfg.CircuitBreakerConfig)
	}

	if registry.ProviderCount() == 0 {
		logger.Warn().Msg("no external-model providers configured, using mock provider")
		registry.Register(NewMockProvider(), cfg.CircuitBreakerConfig)
	}

	return registry
}
