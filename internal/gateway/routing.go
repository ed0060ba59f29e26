package gateway

import "github.com/hinata/core/internal/core/llm"

// RoutingDecision records how chat() picked a provider for a request
// (spec §4.8 step 3).
type RoutingDecision struct {
	Provider   llm.ProviderName
	AutoRouted bool
	Pinned     bool
}

// decideRouting implements spec §4.8 step 3's routing choice: a
// userProvidedKey that names a model pins the request to that provider;
// otherwise the registry's own priority-ordered fallback acts as the
// cost/quality policy, so an empty preferred name lets Client.Invoke
// auto-select.
func decideRouting(modelPreference string, userProvidedKey bool) (preferred llm.ProviderName, decision RoutingDecision) {
	if userProvidedKey && modelPreference != "" {
		p := llm.ProviderName(modelPreference)
		return p, RoutingDecision{Provider: p, Pinned: true}
	}

	return "", RoutingDecision{AutoRouted: true}
}
