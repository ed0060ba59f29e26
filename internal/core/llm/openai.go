package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIModel        = "gpt-4o"
	defaultOpenAIMaxTokens    = 1024
	defaultOpenAITemperature  = 0.7
)

// OpenAIConfig configures the OpenAI external-model provider.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// OpenAIProvider implements Provider against the OpenAI chat completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider constructs an OpenAI provider. It always returns a
// provider, even without an API key; NewClient only registers it when one
// is configured.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIProvider{
		client: openai.NewClient(cfg.APIKey),
		model:  model,
	}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() ProviderName { return ProviderOpenAI }

// IsAvailable implements Provider.
func (p *OpenAIProvider) IsAvailable() bool { return p.client != nil }

// Priority implements Provider.
func (p *OpenAIProvider) Priority() int { return PriorityFallback }

// DefaultModel implements Provider.
func (p *OpenAIProvider) DefaultModel() string { return p.model }

// Invoke implements Provider.
func (p *OpenAIProvider) Invoke(ctx context.Context, req InvokeRequest) (InvokeResult, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultOpenAIMaxTokens
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = defaultOpenAITemperature
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.PromptProfile},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return InvokeResult{}, fmt.Errorf("openai invoke: %w", err)
	}

	if len(resp.Choices) == 0 {
		return InvokeResult{}, fmt.Errorf("openai invoke: empty response")
	}

	return InvokeResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
