package retriever

import (
	"sort"

	"github.com/hinata/core/internal/core/ports"
)

// Strategy weights for Reciprocal Rank Fusion (spec §4.7 step 2).
const (
	weightVector    = 0.5
	weightText      = 0.3
	weightComposite = 0.2

	// rrfK is the RRF rank-damping constant; the classic choice (60) keeps
	// the contribution of low ranks from dominating the fused score.
	rrfK = 60.0
)

// strategy names the three parallel sub-queries, used only for metrics
// labels and the per-strategy rank maps below.
type strategy string

const (
	strategyVector    strategy = "vector"
	strategyText      strategy = "text"
	strategyComposite strategy = "composite"
)

// fused is one observation's combined RRF score across strategies.
type fused struct {
	result ports.QueryResult
	score  float64
}

// fuseRRF combines the three strategies' ranked result sets into one
// ordered list, per spec §4.7 step 2: score(doc) = sum over strategies of
// weight / (k + rank), rank is 1-based within that strategy's result set.
// Ties are broken by observationId for a stable, deterministic order.
func fuseRRF(byStrategy map[strategy][]ports.QueryResult) []fused {
	scores := make(map[string]float64)
	results := make(map[string]ports.QueryResult)

	weights := map[strategy]float64{
		strategyVector:    weightVector,
		strategyText:      weightText,
		strategyComposite: weightComposite,
	}

	for strat, rs := range byStrategy {
		w := weights[strat]

		for rank, r := range rs {
			id := r.Observation.ID

			scores[id] += w / (rrfK + float64(rank+1))

			if _, ok := results[id]; !ok {
				results[id] = r
			}
		}
	}

	out := make([]fused, 0, len(scores))
	for id, score := range scores {
		out = append(out, fused{result: results[id], score: score})
	}

	sortFused(out)

	return out
}

// sortFused orders fused results by descending score, breaking ties by
// ascending observationId for a stable, deterministic order (spec §4.7
// step 2 "stable tie-break by observationId").
func sortFused(out []fused) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}

		return out[i].result.Observation.ID < out[j].result.Observation.ID
	})
}
