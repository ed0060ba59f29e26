package llm

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hinata/core/internal/platform/observability"
)

// Registry errors.
var (
	ErrNoProvidersAvailable = errors.New("no external-model providers available")
	ErrProviderNotFound     = errors.New("external-model provider not found")
	ErrAllProvidersFailed   = errors.New("all external-model providers failed")
)

const logKeyProvider = "provider"

// Registry manages external-model providers with priority fallback,
// matching the embedding registry's shape (internal/core/embeddings) since
// both implement the same provider-priority-with-circuit-breaker mechanism.
type Registry struct {
	mu              sync.RWMutex
	providers       map[ProviderName]Provider
	order           []ProviderName
	circuitBreakers map[ProviderName]*CircuitBreaker
	logger          *zerolog.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(logger *zerolog.Logger) *Registry {
	return &Registry{
		providers:       make(map[ProviderName]Provider),
		order:           make([]ProviderName, 0),
		circuitBreakers: make(map[ProviderName]*CircuitBreaker),
		logger:          logger,
	}
}

// Register adds a provider to the registry in priority order.
func (r *Registry) Register(p Provider, cfg CircuitBreakerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	r.providers[name] = p
	r.order = append(r.order, name)
	r.circuitBreakers[name] = NewCircuitBreaker(cfg, r.logger)

	sort.SliceStable(r.order, func(i, j int) bool {
		return r.providers[r.order[i]].Priority() > r.providers[r.order[j]].Priority()
	})

	observability.ExternalModelProviderAvailable.WithLabelValues(string(name)).Set(boolToFloat(p.IsAvailable()))

	r.logger.Info().
		Str(logKeyProvider, string(name)).
		Int("priority", p.Priority()).
		Msg("registered external-model provider")
}

// RequestedProvider locates a specific provider by name, used when chat()
// honors a userProvidedKey pinning a model (spec §4.8 step 3).
func (r *Registry) RequestedProvider(name ProviderName) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, ErrProviderNotFound
	}

	return p, nil
}

// Invoke implements the external-model capability contract (spec §6):
// invoke(provider, model, promptProfile, params) → {text, promptTokens,
// completionTokens, latencyMs}. If preferred is empty, Invoke walks the
// priority-ordered, circuit-closed providers until one succeeds.
func (r *Registry) Invoke(ctx context.Context, preferred ProviderName, req InvokeRequest) (InvokeResult, error) {
	candidates, err := r.candidateOrder(preferred)
	if err != nil {
		return InvokeResult{}, err
	}

	var lastErr error

	for _, p := range candidates {
		cb := r.circuitBreaker(p.Name())
		providerName := string(p.Name())

		if !cb.CanAttempt() {
			observability.ExternalModelProviderAvailable.WithLabelValues(providerName).Set(0)
			continue
		}

		model := req.Model
		if model == "" {
			model = p.DefaultModel()
		}

		start := time.Now()
		result, err := p.Invoke(ctx, req)
		duration := time.Since(start)

		observability.ExternalModelLatency.WithLabelValues(providerName, model).Observe(duration.Seconds())

		if err != nil {
			cb.RecordFailure(p.Name())
			observability.ExternalModelRequests.WithLabelValues(providerName, model, "error").Inc()

			lastErr = err

			r.logger.Warn().Err(err).Str(logKeyProvider, providerName).Msg("external-model provider failed, trying fallback")

			if len(candidates) > 1 && p.Name() != candidates[len(candidates)-1].Name() {
				observability.ExternalModelFallbacks.WithLabelValues(providerName, string(nextCandidate(candidates, p.Name()))).Inc()
			}

			continue
		}

		cb.RecordSuccess()
		observability.ExternalModelRequests.WithLabelValues(providerName, model, "success").Inc()
		observability.ExternalModelTokensPrompt.WithLabelValues(providerName, model).Add(float64(result.PromptTokens))
		observability.ExternalModelTokensCompletion.WithLabelValues(providerName, model).Add(float64(result.CompletionTokens))
		observability.ExternalModelProviderAvailable.WithLabelValues(providerName).Set(1)

		cost := EstimateCost(model, result.PromptTokens, result.CompletionTokens)
		costMillicents, _ := cost.Mul(costToMillicents).Float64()
		observability.ExternalModelEstimatedCost.WithLabelValues(providerName, model).Add(costMillicents)

		result.Provider = p.Name()
		result.Model = model
		result.LatencyMs = duration.Milliseconds()

		return result, nil
	}

	if lastErr != nil {
		return InvokeResult{}, errors.Join(ErrAllProvidersFailed, lastErr)
	}

	return InvokeResult{}, ErrNoProvidersAvailable
}

const costToMillicents = 100_000

// candidateOrder returns the providers to try, in order: the preferred
// provider alone if one was requested, else the full priority order filtered
// to available providers.
func (r *Registry) candidateOrder(preferred ProviderName) ([]Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if preferred != "" {
		p, ok := r.providers[preferred]
		if !ok {
			return nil, ErrProviderNotFound
		}

		return []Provider{p}, nil
	}

	active := make([]Provider, 0, len(r.providers))

	for _, name := range r.order {
		p := r.providers[name]
		if p.IsAvailable() {
			active = append(active, p)
		}
	}

	if len(active) == 0 {
		return nil, ErrNoProvidersAvailable
	}

	return active, nil
}

func (r *Registry) circuitBreaker(name ProviderName) *CircuitBreaker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.circuitBreakers[name]
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

func nextCandidate(candidates []Provider, after ProviderName) ProviderName {
	for i, p := range candidates {
		if p.Name() == after && i+1 < len(candidates) {
			return candidates[i+1].Name()
		}
	}

	return ""
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
