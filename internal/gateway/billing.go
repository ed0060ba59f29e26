package gateway

import (
	"github.com/shopspring/decimal"

	"github.com/hinata/core/internal/core/llm"
)

// computeBilling implements spec §4.8 step 3's fee-recording rule: no fee
// is recorded when a user-provided key was used, or when auto-routing's
// chosen model doesn't beat the baseline (most expensive) model's cost.
func computeBilling(model string, promptTokens, completionTokens int, userProvidedKey bool) BillingSummary {
	actual := llm.EstimateCost(model, promptTokens, completionTokens)
	baseline := llm.EstimateCost(llm.MostExpensiveModel(), promptTokens, completionTokens)
	savings := baseline.Sub(actual)

	if userProvidedKey || savings.LessThanOrEqual(decimal.Zero) {
		return BillingSummary{FeeWaived: true}
	}

	savingsF, _ := savings.Float64()
	actualF, _ := actual.Float64()

	return BillingSummary{CostUSD: actualF, SavingsUSD: savingsF}
}
