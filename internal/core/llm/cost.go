package llm

import "github.com/shopspring/decimal"

// Per-million-token USD prices. Approximate list prices, kept here rather
// than fetched live since the gateway only needs them for the relative
// "savings" comparison (spec §9 open question), not for actual invoicing.
var modelPricing = map[string]pricePerMillion{
	"claude-3-5-sonnet-latest": {prompt: decimal.NewFromFloat(3.00), completion: decimal.NewFromFloat(15.00)},
	"claude-3-5-haiku-latest":  {prompt: decimal.NewFromFloat(0.80), completion: decimal.NewFromFloat(4.00)},
	"gpt-4o":                   {prompt: decimal.NewFromFloat(2.50), completion: decimal.NewFromFloat(10.00)},
	"gpt-4o-mini":              {prompt: decimal.NewFromFloat(0.15), completion: decimal.NewFromFloat(0.60)},
}

type pricePerMillion struct {
	prompt     decimal.Decimal
	completion decimal.Decimal
}

const tokensPerMillion = 1_000_000

// EstimateCost returns the USD cost of a completion for the given model and
// token counts. Unknown models cost zero rather than erroring, since cost is
// advisory (routing/savings metric), not billing of record.
func EstimateCost(model string, promptTokens, completionTokens int) decimal.Decimal {
	price, ok := modelPricing[model]
	if !ok {
		return decimal.Zero
	}

	promptCost := price.prompt.Mul(decimal.NewFromInt(int64(promptTokens))).Div(decimal.NewFromInt(tokensPerMillion))
	completionCost := price.completion.Mul(decimal.NewFromInt(int64(completionTokens))).Div(decimal.NewFromInt(tokensPerMillion))

	return promptCost.Add(completionCost)
}

// MostExpensiveModel returns the model with the highest combined per-token
// price, used as the baseline for the gateway's billing-savings metric
// (DESIGN.md Open Question decision #2).
func MostExpensiveModel() string {
	var (
		best      string
		bestTotal decimal.Decimal
	)

	for model, price := range modelPricing {
		total := price.prompt.Add(price.completion)
		if best == "" || total.GreaterThan(bestTotal) {
			best = model
			bestTotal = total
		}
	}

	return best
}
