package prompt

import "sort"

// minBodyChars is the floor below which a truncated candidate body is
// considered meaningless and discarded rather than kept.
const minBodyChars = 20

// pack implements spec §4.5 step 5: each layer is independently
// token-budgeted. Candidates are kept highest-score-first until the
// budget is exhausted; a candidate that doesn't fit the remaining budget
// is truncated to fit, and discarded if truncation would leave it below
// minBodyChars.
func pack(cands []candidate, budgetTokens int) (picked []candidate, usedTokens int, truncated bool) {
	ranked := make([]candidate, len(cands))
	copy(ranked, cands)

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	remaining := budgetTokens

	for _, c := range ranked {
		if !allowedExternal(c.access) {
			continue
		}

		body := redactPII(c.body)
		tokens := estimateTokens(body)

		if tokens > remaining {
			truncated = true

			if remaining <= 0 {
				continue
			}

			body = truncateToTokens(body, remaining)
			if len(body) < minBodyChars {
				continue
			}

			tokens = estimateTokens(body)
		}

		if tokens == 0 {
			continue
		}

		c.body = body
		picked = append(picked, c)
		remaining -= tokens
		usedTokens += tokens

		if remaining <= 0 {
			break
		}
	}

	return picked, usedTokens, truncated
}

func truncateToTokens(s string, tokens int) string {
	return truncate(s, tokens*charsPerToken)
}
