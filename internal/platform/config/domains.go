package config

import (
	"fmt"
	"time"
)

// DatabaseConfig holds warm-tier (Postgres) connection settings.
type DatabaseConfig struct {
	PostgresDSN      string
	MaxConnections   int32
	MinConnections   int32
}

// DatabaseCfg returns the warm-store configuration.
func (c *Config) DatabaseCfg() DatabaseConfig {
	return DatabaseConfig{
		PostgresDSN:    c.PostgresDSN,
		MaxConnections: c.DBMaxConnections,
		MinConnections: c.DBMinConnections,
	}
}

// RedisConfig holds the retriever/scoring cache connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCfg returns the Redis cache configuration.
func (c *Config) RedisCfg() RedisConfig {
	return RedisConfig{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// ColdStoreConfig holds cold-tier partitioned-file settings.
type ColdStoreConfig struct {
	BasePath string
}

// ColdStoreCfg returns the cold-tier configuration.
func (c *Config) ColdStoreCfg() ColdStoreConfig {
	return ColdStoreConfig{BasePath: c.ColdStorePath}
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIDimensions int
	CohereAPIKey     string
	CohereModel      string
	ProviderOrder    string
	CircuitThreshold int
	CircuitTimeout   time.Duration
}

// EmbeddingCfg returns the embedding provider configuration, parsing the
// circuit-breaker timeout duration (falls back to 1m on a malformed value).
func (c *Config) EmbeddingCfg() EmbeddingConfig {
	timeout, err := time.ParseDuration(c.EmbeddingCircuitTimeout)
	if err != nil {
		timeout = time.Minute
	}

	return EmbeddingConfig{
		OpenAIAPIKey:     c.OpenAIAPIKey,
		OpenAIModel:      c.OpenAIEmbeddingModel,
		OpenAIDimensions: c.OpenAIEmbeddingDims,
		CohereAPIKey:     c.CohereAPIKey,
		CohereModel:      c.CohereEmbeddingModel,
		ProviderOrder:    c.EmbeddingProviderOrder,
		CircuitThreshold: c.EmbeddingCircuitThreshold,
		CircuitTimeout:   timeout,
	}
}

// ExternalModelConfig holds chat-capability provider settings.
type ExternalModelConfig struct {
	AnthropicAPIKey  string
	AnthropicModel   string
	OpenAIAPIKey     string
	OpenAIModel      string
	CircuitThreshold int
	CircuitTimeout   time.Duration
}

// ExternalModelCfg returns the external-model provider configuration.
func (c *Config) ExternalModelCfg() ExternalModelConfig {
	timeout, err := time.ParseDuration(c.ExternalModelCircuitTimeout)
	if err != nil {
		timeout = 30 * time.Second
	}

	return ExternalModelConfig{
		AnthropicAPIKey:  c.AnthropicAPIKey,
		AnthropicModel:   c.AnthropicModel,
		OpenAIAPIKey:     c.ExternalModelAPIKey,
		OpenAIModel:      c.ExternalModelModel,
		CircuitThreshold: c.ExternalModelCircuitThreshold,
		CircuitTimeout:   timeout,
	}
}

// PromptBudgetConfig holds the layered-memory token budget shares
// (spec §4.5).
type PromptBudgetConfig struct {
	TotalTokens   int
	CoreShare     float32
	WorkingShare  float32
	ContextShare  float32
	BufferShare   float32
}

const budgetShareTolerance = 0.01

// PromptBudgetCfg returns the prompt budget configuration, validating that
// the four layer shares sum to ~1.0 (spec §4.5 "budget shares").
func (c *Config) PromptBudgetCfg() (PromptBudgetConfig, error) {
	sum := c.CoreMemoryShare + c.WorkingMemoryShare + c.ContextMemoryShare + c.BufferMemoryShare
	if sum < 1-budgetShareTolerance || sum > 1+budgetShareTolerance {
		return PromptBudgetConfig{}, fmt.Errorf("prompt budget shares sum to %.3f, want ~1.0", sum)
	}

	return PromptBudgetConfig{
		TotalTokens:  c.PromptTokenBudget,
		CoreShare:    c.CoreMemoryShare,
		WorkingShare: c.WorkingMemoryShare,
		ContextShare: c.ContextMemoryShare,
		BufferShare:  c.BufferMemoryShare,
	}, nil
}

// LinkDereferenceConfig holds EnrichmentWorker's optional web-fetch
// enrichment settings (SPEC_FULL domain stack: go-shiori/go-readability).
type LinkDereferenceConfig struct {
	Enabled     bool
	FetchTimeout time.Duration
}

// LinkDereferenceCfg returns the link-dereference configuration, falling
// back to 10s on a malformed duration.
func (c *Config) LinkDereferenceCfg() LinkDereferenceConfig {
	timeout, err := time.ParseDuration(c.LinkFetchTimeout)
	if err != nil {
		timeout = 10 * time.Second
	}

	return LinkDereferenceConfig{Enabled: c.LinkDereferenceEnabled, FetchTimeout: timeout}
}

// FeatureFlags holds the process's feature toggles (spec §6).
type FeatureFlags struct {
	EnableVectorIndex   bool
	EnableFullTextIndex bool
	SmallModelMode      bool
}

// FeatureFlagsCfg returns the feature-flag configuration.
func (c *Config) FeatureFlagsCfg() FeatureFlags {
	return FeatureFlags{
		EnableVectorIndex:   c.EnableVectorIndex,
		EnableFullTextIndex: c.EnableFullTextIndex,
		SmallModelMode:      c.SmallModelMode,
	}
}
