package enrichment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveRecommendedHighlights_ShortNotePassesThrough(t *testing.T) {
	note := "a short note"
	out := deriveRecommendedHighlights(note, "highlight text", []string{"irrelevant candidate sentence here"})
	require.Equal(t, []string{note}, out)
}

func TestDeriveRecommendedHighlights_LongNoteLimitsToThree(t *testing.T) {
	note := strings.Repeat("word ", 40)
	candidates := []string{
		"The quarterly revenue grew by twelve percent across every region this year",
		"Engineering shipped three major releases during the same reporting period",
		"Customer satisfaction scores improved following the support team restructuring",
		"The board approved a new budget allocation for the upcoming fiscal year",
		"Click here to subscribe to our newsletter for more updates",
	}

	out := deriveRecommendedHighlights(note, "something about weather today", candidates)
	require.LessOrEqual(t, len(out), maxRecommendedCount)
	require.NotEmpty(t, out)

	for _, s := range out {
		require.NotContains(t, strings.ToLower(s), "click here")
	}
}

func TestDeriveRecommendedHighlights_FiltersNearDuplicateOfHighlight(t *testing.T) {
	note := strings.Repeat("word ", 40)
	highlight := "the quarterly revenue grew by twelve percent across every region"
	candidates := []string{
		"the quarterly revenue grew by twelve percent across every region this year",
		"engineering shipped three major releases during the same reporting period",
	}

	out := rankByInformativeness(candidates, highlight)
	for _, s := range out {
		require.NotEqual(t, candidates[0], s)
	}
}

func TestIsStopSentence(t *testing.T) {
	require.True(t, isStopSentence("Please Click Here to continue reading"))
	require.True(t, isStopSentence("All Rights Reserved 2026"))
	require.False(t, isStopSentence("The team shipped a new release this week"))
}

func TestSplitSentences(t *testing.T) {
	out := splitSentences("First sentence. Second sentence! Third one? Done")
	require.Equal(t, []string{"First sentence", "Second sentence", "Third one", "Done"}, out)
}

func TestSortScoredDesc(t *testing.T) {
	s := []scoredSentence{
		{sentence: "low", score: 0.1},
		{sentence: "high", score: 0.9},
		{sentence: "mid", score: 0.5},
	}

	sortScoredDesc(s)

	require.Equal(t, "high", s[0].sentence)
	require.Equal(t, "mid", s[1].sentence)
	require.Equal(t, "low", s[2].sentence)
}
