package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
)

func obs(id string) *domain.Observation {
	return &domain.Observation{ID: id}
}

func TestFuseRRF_WeightsFavorVectorOverText(t *testing.T) {
	byStrategy := map[strategy][]ports.QueryResult{
		strategyVector: {{Observation: obs("a")}, {Observation: obs("b")}},
		strategyText:   {{Observation: obs("b")}, {Observation: obs("a")}},
	}

	out := fuseRRF(byStrategy)

	top := out[0].result.Observation.ID
	assert.Equal(t, "a", top, "rank-1 vector hit should outrank rank-1 text hit given vector's higher weight")
}

func TestFuseRRF_UnionsAcrossStrategies(t *testing.T) {
	byStrategy := map[strategy][]ports.QueryResult{
		strategyVector:    {{Observation: obs("a")}},
		strategyText:      {{Observation: obs("b")}},
		strategyComposite: {{Observation: obs("c")}},
	}

	out := fuseRRF(byStrategy)

	ids := make([]string, len(out))
	for i, f := range out {
		ids[i] = f.result.Observation.ID
	}

	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
}

func TestFuseRRF_TiesBreakByObservationID(t *testing.T) {
	// Both candidates receive an identical score (only composite, same
	// rank-1 weight contribution split across two disjoint calls folded
	// into one map would collide on key, so instead assert the comparator
	// directly: equal scores sort lexicographically by observation id.
	a := fused{result: ports.QueryResult{Observation: obs("z")}, score: 0.5}
	b := fused{result: ports.QueryResult{Observation: obs("a")}, score: 0.5}

	out := []fused{a, b}
	sortFused(out)

	assert.Equal(t, "a", out[0].result.Observation.ID)
	assert.Equal(t, "z", out[1].result.Observation.ID)
}
