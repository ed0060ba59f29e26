// Package config loads the process configuration from the environment
// (spec §6 "Environment": connection strings for hot/warm/cold/vector/text
// stores, credentials, and feature flags).
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the flat environment-variable surface; grouped sub-configs are
// derived from it via the *Cfg() accessors in domains.go, matching the
// teacher's config layering.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"local"`

	// Warm tier: transactional Postgres store (spec §4.3).
	PostgresDSN       string `env:"POSTGRES_DSN,required"`
	DBMaxConnections  int32  `env:"DB_MAX_CONNECTIONS" envDefault:"25"`
	DBMinConnections  int32  `env:"DB_MIN_CONNECTIONS" envDefault:"5"`

	// Redis: shared cache for cross-process sharing (retriever cache,
	// scoring cache). The hot tier itself is the in-process LRU sized below.
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Cold tier: partitioned file store (spec §4.3, §6).
	ColdStorePath string `env:"COLD_STORE_PATH" envDefault:"./data/cold"`

	// Hot-tier memory budget (spec §5 resource policy).
	HotTierMemoryBudgetMB int `env:"HOT_TIER_MEMORY_BUDGET_MB" envDefault:"2048"`

	// Embedding providers (internal/core/embeddings).
	OpenAIAPIKey          string `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIEmbeddingModel  string `env:"OPENAI_EMBEDDING_MODEL" envDefault:"text-embedding-3-large"`
	OpenAIEmbeddingDims   int    `env:"OPENAI_EMBEDDING_DIMENSIONS" envDefault:"1536"`
	CohereAPIKey          string `env:"COHERE_API_KEY" envDefault:""`
	CohereEmbeddingModel  string `env:"COHERE_EMBEDDING_MODEL" envDefault:"embed-multilingual-v3.0"`
	EmbeddingProviderOrder string `env:"EMBEDDING_PROVIDER_ORDER" envDefault:"openai,cohere"`
	EmbeddingCircuitThreshold int        `env:"EMBEDDING_CIRCUIT_THRESHOLD" envDefault:"5"`
	EmbeddingCircuitTimeout   string     `env:"EMBEDDING_CIRCUIT_TIMEOUT" envDefault:"1m"`

	// External-model providers (internal/core/llm, ExternalModelGateway).
	AnthropicAPIKey        string `env:"ANTHROPIC_API_KEY" envDefault:""`
	AnthropicModel         string `env:"ANTHROPIC_MODEL" envDefault:""`
	ExternalModelAPIKey    string `env:"EXTERNAL_MODEL_API_KEY" envDefault:""`
	ExternalModelModel     string `env:"EXTERNAL_MODEL_MODEL" envDefault:""`
	ExternalModelCircuitThreshold int    `env:"EXTERNAL_MODEL_CIRCUIT_THRESHOLD" envDefault:"3"`
	ExternalModelCircuitTimeout   string `env:"EXTERNAL_MODEL_CIRCUIT_TIMEOUT" envDefault:"30s"`

	// Optional link dereferencing in EnrichmentWorker.
	LinkDereferenceEnabled bool   `env:"LINK_DEREFERENCE_ENABLED" envDefault:"false"`
	LinkFetchTimeout       string `env:"LINK_FETCH_TIMEOUT" envDefault:"10s"`

	// Prompt budget shares (spec §4.5). Must sum to 1.0; validated in
	// domains.go's PromptBudgetCfg().
	PromptTokenBudget       int     `env:"PROMPT_TOKEN_BUDGET" envDefault:"50000"`
	CoreMemoryShare         float32 `env:"CORE_MEMORY_SHARE" envDefault:"0.20"`
	WorkingMemoryShare      float32 `env:"WORKING_MEMORY_SHARE" envDefault:"0.40"`
	ContextMemoryShare      float32 `env:"CONTEXT_MEMORY_SHARE" envDefault:"0.30"`
	BufferMemoryShare       float32 `env:"BUFFER_MEMORY_SHARE" envDefault:"0.10"`

	// Feature flags (spec §6).
	EnableVectorIndex   bool `env:"ENABLE_VECTOR_INDEX" envDefault:"true"`
	EnableFullTextIndex bool `env:"ENABLE_FULL_TEXT_INDEX" envDefault:"true"`
	SmallModelMode      bool `env:"SMALL_MODEL_MODE" envDefault:"false"`

	// Rate limiting (per-app quota, spec §5 backpressure).
	DefaultAppRateLimitRPS int `env:"DEFAULT_APP_RATE_LIMIT_RPS" envDefault:"10"`

	// Health/metrics server.
	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

// Load reads a .env file if present (optional) then parses the process
// environment into Config.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	return cfg, nil
}
