// Package gateway implements ExternalModelGateway (spec §4.8): the "ask a
// question" entry point. It composes a prompt via internal/process/prompt,
// invokes the external-model capability, records usage, and feeds the Q/A
// pair back into ObservationPipeline as a new observation.
package gateway

import "github.com/hinata/core/internal/core/llm"

// ChatRequest is chat()'s input contract.
type ChatRequest struct {
	UserID          string
	AppID           string
	Question        string
	ModelPreference string
	UserProvidedKey bool
}

// UsageSummary mirrors the usage half of chat()'s response.
type UsageSummary struct {
	Provider         llm.ProviderName
	Model            string
	PromptTokens     int
	CompletionTokens int
	LatencyMs        int64
}

// BillingSummary mirrors the billing half of chat()'s response (spec §4.8
// step 3's fee-recording rule).
type BillingSummary struct {
	CostUSD    float64
	SavingsUSD float64
	FeeWaived  bool
}

// ChatResponse is chat()'s full output contract (spec §4.8 step 7).
type ChatResponse struct {
	Answer            string
	Usage             UsageSummary
	Billing           BillingSummary
	RoutingDecision   RoutingDecision
	PromptProfileUsed string
	ObservationID     string
}
