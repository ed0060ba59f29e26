package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel     = "claude-3-5-sonnet-latest"
	defaultAnthropicMaxTokens = 1024
)

// AnthropicConfig configures the Anthropic external-model provider.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// AnthropicProvider implements Provider against the Anthropic Messages API.
// It is the primary provider (spec §4.8 auto-routing prefers it by default).
type AnthropicProvider struct {
	client  anthropic.Client
	model   string
	enabled bool
}

// NewAnthropicProvider constructs an Anthropic provider. enabled is false
// when no API key is configured, so the registry skips it without erroring.
func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	return &AnthropicProvider{
		client:  anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:   model,
		enabled: cfg.APIKey != "",
	}
}

// Name implements Provider.
func (p *AnthropicProvider) Name() ProviderName { return ProviderAnthropic }

// IsAvailable implements Provider.
func (p *AnthropicProvider) IsAvailable() bool { return p.enabled }

// Priority implements Provider.
func (p *AnthropicProvider) Priority() int { return PriorityPrimary }

// DefaultModel implements Provider.
func (p *AnthropicProvider) DefaultModel() string { return p.model }

// Invoke implements Provider.
func (p *AnthropicProvider) Invoke(ctx context.Context, req InvokeRequest) (InvokeResult, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.PromptProfile)),
		},
	})
	if err != nil {
		return InvokeResult{}, fmt.Errorf("anthropic invoke: %w", err)
	}

	var text string

	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return InvokeResult{
		Text:             text,
		PromptTokens:     int(message.Usage.InputTokens),
		CompletionTokens: int(message.Usage.OutputTokens),
	}, nil
}
