package profile

import (
	"strings"

	"github.com/hinata/core/internal/core/domain"
)

// componentKeywords is the lightweight classifier's keyword table (spec
// §4.4 step 2: "typed by a lightweight classifier into one of the seven
// componentType tags"). Built the same way EnhancedTags extraction works
// in internal/process/enrichment: bag-of-words scoring, no external model.
var componentKeywords = map[domain.ComponentType][]string{
	domain.ComponentCommunicationStyle: {
		"email", "meeting", "call", "message", "chat", "conversation",
		"tone", "write", "writing", "reply", "wording",
	},
	domain.ComponentPriorityFocus: {
		"deadline", "urgent", "priority", "important", "todo", "task",
		"goal", "focus", "milestone", "blocker",
	},
	domain.ComponentCognitivePattern: {
		"pattern", "reasoning", "logic", "analysis", "decision",
		"strategy", "tradeoff", "heuristic", "mental model",
	},
	domain.ComponentValueSystem: {
		"ethics", "value", "principle", "belief", "privacy", "trust",
		"fairness", "integrity", "consent",
	},
	domain.ComponentContextPreference: {
		"format", "layout", "interface", "preference", "setting",
		"environment", "theme", "workflow",
	},
	domain.ComponentLearningPattern: {
		"learn", "tutorial", "course", "study", "practice", "skill",
		"education", "exercise", "lesson",
	},
	domain.ComponentDomainExpertise: {
		"algorithm", "architecture", "database", "api", "framework",
		"language", "engineering", "research", "protocol", "system",
	},
}

// classifierOrder breaks ties deterministically: the first type in this
// list with the highest score wins, so the same observation always
// classifies the same way regardless of map iteration order.
var classifierOrder = []domain.ComponentType{
	domain.ComponentDomainExpertise,
	domain.ComponentCommunicationStyle,
	domain.ComponentPriorityFocus,
	domain.ComponentCognitivePattern,
	domain.ComponentValueSystem,
	domain.ComponentContextPreference,
	domain.ComponentLearningPattern,
}

// classify maps an observation's text fields onto one of the seven
// componentType tags. domainExpertise is the default for observations that
// don't score against any bucket, since most observations are about some
// topic the user is building expertise in.
func classify(obs *domain.Observation) domain.ComponentType {
	text := strings.ToLower(strings.Join(classifierCorpus(obs), " "))

	best := domain.ComponentDomainExpertise
	bestScore := -1

	for _, ct := range classifierOrder {
		score := 0
		for _, kw := range componentKeywords[ct] {
			score += strings.Count(text, kw)
		}

		if score > bestScore {
			bestScore = score
			best = ct
		}
	}

	if bestScore <= 0 {
		return domain.ComponentDomainExpertise
	}

	return best
}

func classifierCorpus(obs *domain.Observation) []string {
	corpus := make([]string, 0, len(obs.Tags)+len(obs.EnhancedTags)+len(obs.SemanticAnalysis.Topics)+2)
	corpus = append(corpus, obs.Tags...)
	corpus = append(corpus, obs.EnhancedTags...)
	corpus = append(corpus, obs.SemanticAnalysis.Topics...)
	corpus = append(corpus, obs.Highlight, obs.Note)

	return corpus
}
