// Package prompt implements PromptComposer (spec §4.5): it assembles a
// personalized, token-budgeted prompt for (userId, query) from a layered
// memory model (CoreMemory, WorkingMemory, ContextMemory, BufferMemory),
// scoring every candidate the same way regardless of layer and applying a
// safety filter before the prompt can leave the process boundary.
package prompt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
	"github.com/hinata/core/internal/platform/config"
	"github.com/hinata/core/internal/platform/observability"
)

const (
	workingMemoryWindow = 24 * time.Hour
	bufferMemoryWindow  = 10 * time.Minute
	contextMemoryLimit  = 10

	// contextMinInfluenceWeight is τ in spec §4.5 step 3's filter
	// (influenceWeight ≥ τ); the spec leaves the value unspecified, chosen
	// here to match AttentionScorer's own mid-range influence weight.
	contextMinInfluenceWeight = 0.3

	recentObservationFetchLimit = 500
)

// Retriever is the narrow Retriever.Query surface ContextMemory selection
// needs (spec §4.5 step 3), kept local so this package doesn't import
// internal/retriever just to call one method.
type Retriever interface {
	Query(ctx context.Context, userID, qText string, qEmbedding []float32, filters ports.QueryFilters, limit int) ([]ports.QueryResult, error)
}

// Result is PromptComposer's output (spec §4.5 "Output format").
type Result struct {
	CorePersonalRules string
	CurrentFocus      string
	RelevantContext   string
	RecentActivity    string
	TokensUsed        int
	Truncated         bool
}

// Format renders Result into the structured, named-section text block
// spec §4.5 describes.
func (r Result) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "## CorePersonalRules\n%s\n\n", orNone(r.CorePersonalRules))
	fmt.Fprintf(&b, "## CurrentFocus\n%s\n\n", orNone(r.CurrentFocus))
	fmt.Fprintf(&b, "## RelevantContext\n%s\n\n", orNone(r.RelevantContext))
	fmt.Fprintf(&b, "## RecentActivity\n%s\n", orNone(r.RecentActivity))

	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}

	return s
}

// Composer implements PromptComposer.
type Composer struct {
	profiles  ports.ProfileStore
	reader    ports.ObservationReader
	retriever Retriever
	budget    config.PromptBudgetConfig
	logger    *zerolog.Logger
}

// New wires a Composer against its dependencies and layer budget shares.
func New(profiles ports.ProfileStore, reader ports.ObservationReader, retriever Retriever, budget config.PromptBudgetConfig, logger *zerolog.Logger) *Composer {
	return &Composer{profiles: profiles, reader: reader, retriever: retriever, budget: budget, logger: logger}
}

// Compose builds a personalized prompt for (userId, query) within the
// configured token budget (spec §4.5 steps 1-5).
func (c *Composer) Compose(ctx context.Context, userID, query string, queryEmbedding []float32) (Result, error) {
	now := time.Now()

	profile, err := c.profiles.LoadProfile(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("load profile for %s: %w", userID, err)
	}

	recent, err := c.reader.RecentByUser(ctx, userID, workingMemoryWindow, recentObservationFetchLimit)
	if err != nil {
		return Result{}, fmt.Errorf("load recent observations for %s: %w", userID, err)
	}

	coreComponents, eligibleComponents := splitComponentsByPriority(profile.Components)

	corePicked, coreTokens, coreTrunc := pack(
		scoreComponents(coreComponents, queryEmbedding, now),
		layerBudget(c.budget.TotalTokens, c.budget.CoreShare),
	)

	workingCands := append(
		scoreComponents(filterUsed(eligibleComponents, idSet(corePicked)), queryEmbedding, now),
		scoreObservations(withinWindow(recent, workingMemoryWindow, now), queryEmbedding, now)...,
	)
	workingPicked, workingTokens, workingTrunc := pack(workingCands, layerBudget(c.budget.TotalTokens, c.budget.WorkingShare))

	ctxResults, err := c.retriever.Query(ctx, userID, query, queryEmbedding, ports.QueryFilters{
		UserID:             userID,
		MinInfluenceWeight: contextMinInfluenceWeight,
	}, contextMemoryLimit)
	if err != nil {
		return Result{}, fmt.Errorf("query context memory for %s: %w", userID, err)
	}

	contextPicked, contextTokens, contextTrunc := pack(
		scoreObservations(resultObservations(ctxResults), queryEmbedding, now),
		layerBudget(c.budget.TotalTokens, c.budget.ContextShare),
	)

	bufferPicked, bufferTokens, bufferTrunc := pack(
		scoreObservations(withinWindow(recent, bufferMemoryWindow, now), queryEmbedding, now),
		layerBudget(c.budget.TotalTokens, c.budget.BufferShare),
	)

	result := Result{
		CorePersonalRules: renderSection(corePicked),
		CurrentFocus:      renderSection(workingPicked),
		RelevantContext:   renderSection(contextPicked),
		RecentActivity:    renderSection(bufferPicked),
		TokensUsed:        coreTokens + workingTokens + contextTokens + bufferTokens,
		Truncated:         coreTrunc || workingTrunc || contextTrunc || bufferTrunc,
	}

	observability.PromptTokensUsed.Observe(float64(result.TokensUsed))

	if result.Truncated {
		observability.PromptTruncations.Inc()

		if c.logger != nil {
			c.logger.Debug().Str("user_id", userID).Msg("composed prompt truncated to fit budget")
		}
	}

	return result, nil
}

func layerBudget(total int, share float32) int {
	return int(float32(total) * share)
}

// splitComponentsByPriority implements spec §4.5 steps 1-2: core is
// priority=high components (CoreMemory candidates); eligible is
// priority ∈ {high, medium}, the pool WorkingMemory draws from once
// components already placed in CoreMemory are excluded.
func splitComponentsByPriority(components []*domain.ProfileComponent) (core, eligible []*domain.ProfileComponent) {
	for _, comp := range components {
		if comp.Priority == domain.PriorityHigh {
			core = append(core, comp)
		}

		if comp.Priority == domain.PriorityHigh || comp.Priority == domain.PriorityMedium {
			eligible = append(eligible, comp)
		}
	}

	return core, eligible
}

func filterUsed(components []*domain.ProfileComponent, used map[string]struct{}) []*domain.ProfileComponent {
	out := make([]*domain.ProfileComponent, 0, len(components))

	for _, comp := range components {
		if _, ok := used[comp.ID]; !ok {
			out = append(out, comp)
		}
	}

	return out
}

func idSet(picked []candidate) map[string]struct{} {
	set := make(map[string]struct{}, len(picked))
	for _, c := range picked {
		set[c.id] = struct{}{}
	}

	return set
}

func withinWindow(obs []*domain.Observation, window time.Duration, now time.Time) []*domain.Observation {
	out := make([]*domain.Observation, 0, len(obs))

	for _, o := range obs {
		if now.Sub(o.Timestamp) <= window {
			out = append(out, o)
		}
	}

	return out
}

func resultObservations(results []ports.QueryResult) []*domain.Observation {
	out := make([]*domain.Observation, 0, len(results))
	for _, r := range results {
		out = append(out, r.Observation)
	}

	return out
}

func scoreComponents(components []*domain.ProfileComponent, queryEmbedding []float32, now time.Time) []candidate {
	cands := make([]candidate, len(components))

	for i, comp := range components {
		cand := componentCandidate(comp, now)
		cand.score = candidateScore(cand.importance, cand.embedding, queryEmbedding, cand.age, cand.frequency)
		cands[i] = cand
	}

	return cands
}

func scoreObservations(obs []*domain.Observation, queryEmbedding []float32, now time.Time) []candidate {
	cands := make([]candidate, len(obs))

	for i, o := range obs {
		cand := observationCandidate(o, now)
		cand.score = candidateScore(cand.importance, cand.embedding, queryEmbedding, cand.age, cand.frequency)
		cands[i] = cand
	}

	return cands
}

func renderSection(picked []candidate) string {
	lines := make([]string, len(picked))
	for i, c := range picked {
		lines[i] = "- " + c.body
	}

	return strings.Join(lines, "\n")
}
