package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion / pipeline metrics.
	ObservationsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hinata_observations_ingested_total",
		Help: "Total number of observations accepted by submitObservations",
	}, []string{"app"})

	PipelineProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hinata_pipeline_processed_total",
		Help: "Total number of observations processed by the pipeline, by outcome",
	}, []string{"status"})

	PipelineBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hinata_pipeline_backlog_size",
		Help: "Number of observations queued for pipeline processing",
	})

	PipelineStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hinata_pipeline_stage_duration_seconds",
		Help:    "Duration of each pipeline stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	// Embedding provider metrics (internal/core/embeddings).
	EmbeddingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hinata_embedding_requests_total",
		Help: "Total number of embedding provider requests",
	}, []string{"provider", "model", "status"})

	EmbeddingTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hinata_embedding_tokens_total",
		Help: "Total number of tokens sent to embedding providers",
	}, []string{"provider", "model"})

	EmbeddingEstimatedCost = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hinata_embedding_estimated_cost_millicents_total",
		Help: "Estimated embedding cost in millicents (0.001 cents)",
	}, []string{"provider", "model"})

	EmbeddingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hinata_embedding_request_latency_seconds",
		Help:    "Latency of embedding provider requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "model"})

	EmbeddingFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hinata_embedding_fallbacks_total",
		Help: "Total number of embedding provider fallback events",
	}, []string{"from_provider", "to_provider"})

	EmbeddingProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hinata_embedding_provider_available",
		Help: "Whether an embedding provider is currently available (0=no, 1=yes)",
	}, []string{"provider"})

	// External-model (ExternalModelGateway) metrics.
	ExternalModelRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hinata_external_model_requests_total",
		Help: "Total number of external-model invoke calls",
	}, []string{"provider", "model", "status"})

	ExternalModelTokensPrompt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hinata_external_model_tokens_prompt_total",
		Help: "Total number of prompt tokens sent to external-model providers",
	}, []string{"provider", "model"})

	ExternalModelTokensCompletion = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hinata_external_model_tokens_completion_total",
		Help: "Total number of completion tokens received from external-model providers",
	}, []string{"provider", "model"})

	ExternalModelLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hinata_external_model_latency_seconds",
		Help:    "Latency of external-model invoke calls",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"provider", "model"})

	ExternalModelEstimatedCost = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hinata_external_model_estimated_cost_millicents_total",
		Help: "Estimated external-model cost in millicents (0.001 cents)",
	}, []string{"provider", "model"})

	ExternalModelFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hinata_external_model_fallbacks_total",
		Help: "Total number of external-model provider fallback events",
	}, []string{"from_provider", "to_provider"})

	ExternalModelCircuitBreakerOpens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hinata_external_model_circuit_breaker_opens_total",
		Help: "Total number of times the external-model circuit breaker opened",
	}, []string{"provider"})

	ExternalModelProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hinata_external_model_provider_available",
		Help: "Whether an external-model provider is currently available (0=no, 1=yes)",
	}, []string{"provider"})

	// Gateway-level billing metrics.
	GatewayChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hinata_gateway_chat_requests_total",
		Help: "Total number of chat() requests, by outcome",
	}, []string{"status"})

	GatewayBillingSavingsUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hinata_gateway_billing_savings_usd_total",
		Help: "Cumulative savings (baseline cost minus actual cost) from auto-routing",
	})

	// Enrichment metrics.
	EnrichmentRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hinata_enrichment_requests_total",
		Help: "Total number of enrichment capability invocations",
	}, []string{"result"})

	EnrichmentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hinata_enrichment_duration_seconds",
		Help:    "Duration of enrichment capability invocations",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	EnrichmentTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hinata_enrichment_timeouts_total",
		Help: "Total number of enrichment calls that hit the deadline and fell back",
	})

	// Scoring metrics.
	ScoringDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hinata_scoring_duration_seconds",
		Help:    "Duration of attention-scoring computations",
		Buckets: prometheus.DefBuckets,
	})

	AttentionWeight = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hinata_attention_weight",
		Help:    "Distribution of computed attention weights",
		Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	})

	ScoringCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hinata_scoring_cache_hits_total",
		Help: "Total number of attention-scoring cache hits",
	})

	ScoringCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hinata_scoring_cache_misses_total",
		Help: "Total number of attention-scoring cache misses",
	})

	// Profile engine metrics.
	ProfileComponentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hinata_profile_components_created_total",
		Help: "Total number of new profile components created",
	})

	ProfileComponentsMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hinata_profile_components_merged_total",
		Help: "Total number of observations merged into an existing profile component",
	})

	ProfileComponentsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hinata_profile_components_evicted_total",
		Help: "Total number of profile components evicted below the weight floor",
	})

	ProfileRebalanceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hinata_profile_rebalance_duration_seconds",
		Help:    "Duration of profile rebalance operations",
		Buckets: prometheus.DefBuckets,
	})

	ProfileConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hinata_profile_conflicts_total",
		Help: "Total number of optimistic-concurrency conflicts on profile writes",
	})

	// Retriever metrics.
	RetrieverCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hinata_retriever_cache_hits_total",
		Help: "Total number of retriever cache hits",
	})

	RetrieverCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hinata_retriever_cache_misses_total",
		Help: "Total number of retriever cache misses",
	})

	RetrieverFusionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hinata_retriever_fusion_duration_seconds",
		Help:    "Duration of multi-strategy fan-out and RRF fusion",
		Buckets: prometheus.DefBuckets,
	})

	RetrieverStrategyResults = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hinata_retriever_strategy_results",
		Help:    "Distribution of result counts per retrieval strategy",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	}, []string{"strategy"})

	// Storage tier metrics.
	StorageWriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hinata_storage_write_duration_seconds",
		Help:    "Duration of TieredStore writes by tier",
		Buckets: prometheus.DefBuckets,
	}, []string{"tier"})

	StorageDeadLetters = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hinata_storage_dead_letters_total",
		Help: "Total number of observations moved to the dead-letter partition",
	})

	// Prompt composer metrics.
	PromptTokensUsed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hinata_prompt_tokens_used",
		Help:    "Distribution of composed-prompt token counts",
		Buckets: []float64{100, 250, 500, 1000, 1500, 2000, 3000, 4000},
	})

	PromptTruncations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hinata_prompt_truncations_total",
		Help: "Total number of composed prompts that hit the budget and were truncated",
	})

	// Audit log metrics.
	AuditRecordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hinata_audit_records_written_total",
		Help: "Total number of audit records written",
	}, []string{"action"})
)
