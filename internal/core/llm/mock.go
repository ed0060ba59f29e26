package llm

import (
	"context"
	"fmt"
)

// MockProvider is a deterministic provider used in tests and as the
// last-resort fallback when no real provider is configured. It echoes a
// fixed-shape answer so callers can assert on structure without a live key.
type MockProvider struct{}

// NewMockProvider constructs the deterministic mock provider.
func NewMockProvider() *MockProvider { return &MockProvider{} }

// Name implements Provider.
func (p *MockProvider) Name() ProviderName { return ProviderMock }

// IsAvailable implements Provider.
func (p *MockProvider) IsAvailable() bool { return true }

// Priority implements Provider.
func (p *MockProvider) Priority() int { return PriorityMock }

// DefaultModel implements Provider.
func (p *MockProvider) DefaultModel() string { return "mock-echo" }

// Invoke implements Provider. The token counts are a crude length estimate
// so usage metrics remain non-zero in tests.
func (p *MockProvider) Invoke(_ context.Context, req InvokeRequest) (InvokeResult, error) {
	const charsPerToken = 4

	text := fmt.Sprintf("[mock response to %d-char prompt]", len(req.PromptProfile))

	return InvokeResult{
		Text:             text,
		PromptTokens:     (len(req.PromptProfile) + charsPerToken - 1) / charsPerToken,
		CompletionTokens: (len(text) + charsPerToken - 1) / charsPerToken,
	}, nil
}
