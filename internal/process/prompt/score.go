package prompt

import (
	"math"
	"time"

	"github.com/hinata/core/internal/core/embeddings"
)

// score(x,q) weights (spec §4.5).
const (
	weightImportance = 0.30
	weightRelevance  = 0.35
	weightFreshness  = 0.20
	weightFrequency  = 0.15

	freshnessDecayPerDay = 0.95
)

// candidateScore implements spec §4.5's score(x,q) = 0.30·importance +
// 0.35·relevance + 0.20·freshness + 0.15·frequency.
func candidateScore(importance float32, embedding, queryEmbedding []float32, age time.Duration, frequency float32) float32 {
	relevance := float32(embeddings.CosineSimilarity(embedding, queryEmbedding))
	freshness := float32(math.Pow(freshnessDecayPerDay, age.Hours()/24))

	return weightImportance*importance + weightRelevance*relevance + weightFreshness*freshness + weightFrequency*frequency
}
