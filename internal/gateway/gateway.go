package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hinata/core/internal/core/apierr"
	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/embeddings"
	"github.com/hinata/core/internal/core/llm"
	"github.com/hinata/core/internal/core/ports"
	"github.com/hinata/core/internal/platform/observability"
	"github.com/hinata/core/internal/platform/retry"
	"github.com/hinata/core/internal/process/prompt"
)

// chatPermission is the AppRegistration.Permissions entry required to call
// chat() (spec §3 "permissions", §4.8 step 1).
const chatPermission = "chat"

// Composer is the PromptComposer surface chat() needs (spec §4.8 step 2),
// kept local so this package doesn't import internal/process/prompt's full
// dependency set just to call Compose.
type Composer interface {
	Compose(ctx context.Context, userID, query string, queryEmbedding []float32) (prompt.Result, error)
}

// Gateway implements ExternalModelGateway (spec §4.8).
type Gateway struct {
	apps      ports.AppRegistry
	privacy   ports.PrivacyStore
	composer  Composer
	embedder  embeddings.Client
	models    llm.Client
	usage     ports.UsageSink
	audit     ports.AuditSink
	submitter PipelineSubmitter
	logger    *zerolog.Logger
	maxTokens int
}

// New wires a Gateway against its dependencies.
func New(
	apps ports.AppRegistry,
	privacy ports.PrivacyStore,
	composer Composer,
	embedder embeddings.Client,
	models llm.Client,
	usage ports.UsageSink,
	audit ports.AuditSink,
	submitter PipelineSubmitter,
	logger *zerolog.Logger,
) *Gateway {
	return &Gateway{
		apps:      apps,
		privacy:   privacy,
		composer:  composer,
		embedder:  embedder,
		models:    models,
		usage:     usage,
		audit:     audit,
		submitter: submitter,
		logger:    logger,
		maxTokens: 1024,
	}
}

// Chat implements chat() (spec §4.8 steps 1-7).
func (g *Gateway) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if err := g.authorize(ctx, req.AppID, req.UserID); err != nil {
		observability.GatewayChatRequests.WithLabelValues("unauthorized").Inc()
		return ChatResponse{}, err
	}

	queryEmbedding, err := g.embedder.GetEmbedding(ctx, req.Question)
	if err != nil {
		observability.GatewayChatRequests.WithLabelValues("error").Inc()
		return ChatResponse{}, apierr.Wrap(apierr.KindExternalModel, "embed chat question", err)
	}

	composed, err := g.composer.Compose(ctx, req.UserID, req.Question, queryEmbedding)
	if err != nil {
		observability.GatewayChatRequests.WithLabelValues("error").Inc()
		return ChatResponse{}, fmt.Errorf("compose prompt for %s: %w", req.UserID, err)
	}

	promptText := composed.Format()
	preferred, routing := decideRouting(req.ModelPreference, req.UserProvidedKey)

	var result llm.InvokeResult

	invokeErr := retry.Do(ctx, retry.ExternalModelPolicy(), func(ctx context.Context) error {
		var err error
		result, err = g.models.Invoke(ctx, preferred, llm.InvokeRequest{
			Model:         req.ModelPreference,
			PromptProfile: promptText,
			MaxTokens:     g.maxTokens,
			Temperature:   0.7,
		})
		if err != nil {
			return apierr.Wrap(apierr.KindExternalModel, "invoke external model", err)
		}
		return nil
	})

	if invokeErr != nil {
		g.recordFailedUsage(ctx, req, routing)
		observability.GatewayChatRequests.WithLabelValues("error").Inc()
		return ChatResponse{}, invokeErr
	}

	routing.Provider = result.Provider
	billing := computeBilling(result.Model, result.PromptTokens, result.CompletionTokens, req.UserProvidedKey)

	if billing.SavingsUSD > 0 {
		observability.GatewayBillingSavingsUSD.Add(billing.SavingsUSD)
	}

	g.recordUsage(ctx, req, result, billing, true)

	observationID, err := submitFeedback(ctx, g.submitter, req.AppID, req.UserID, req.Question, result.Text, nowRFC3339())
	if err != nil && g.logger != nil {
		g.logger.Warn().Err(err).Str("user_id", req.UserID).Msg("chat feedback observation submission failed")
	}

	g.writeAudit(ctx, req)
	observability.GatewayChatRequests.WithLabelValues("success").Inc()

	return ChatResponse{
		Answer: result.Text,
		Usage: UsageSummary{
			Provider:         result.Provider,
			Model:            result.Model,
			PromptTokens:     result.PromptTokens,
			CompletionTokens: result.CompletionTokens,
			LatencyMs:        result.LatencyMs,
		},
		Billing:           billing,
		RoutingDecision:   routing,
		PromptProfileUsed: promptText,
		ObservationID:     observationID,
	}, nil
}

// authorize implements spec §4.8 step 1: check app permissions and user
// privacy preferences.
func (g *Gateway) authorize(ctx context.Context, appID, userID string) error {
	app, err := g.apps.Lookup(ctx, appID)
	if err != nil {
		return fmt.Errorf("lookup app %s: %w", appID, err)
	}

	if app == nil || !app.IsActive {
		return apierr.New(apierr.KindAuthz, "app is not registered or inactive")
	}

	if !hasPermission(app.Permissions, chatPermission) {
		return apierr.New(apierr.KindAuthz, "app lacks chat permission")
	}

	prefs, err := g.privacy.GetPreferences(ctx, userID)
	if err != nil {
		return fmt.Errorf("load privacy preferences for %s: %w", userID, err)
	}

	if !prefs.ConsentExternal {
		return apierr.New(apierr.KindAuthz, "user has not consented to external-model use")
	}

	if contains(prefs.BlockedAppIDs, appID) {
		return apierr.New(apierr.KindAuthz, "app is blocked by user privacy preferences")
	}

	if len(prefs.AllowedAppIDs) > 0 && !contains(prefs.AllowedAppIDs, appID) {
		return apierr.New(apierr.KindAuthz, "app is not in user's allowed app list")
	}

	return nil
}

func (g *Gateway) recordFailedUsage(ctx context.Context, req ChatRequest, routing RoutingDecision) {
	if g.usage == nil {
		return
	}

	if err := g.usage.RecordUsage(ctx, ports.UsageRecord{
		UserID:    req.UserID,
		AppID:     req.AppID,
		Day:       time.Now().Truncate(24 * time.Hour),
		Provider:  string(routing.Provider),
		Succeeded: false,
	}); err != nil && g.logger != nil {
		g.logger.Warn().Err(err).Str("user_id", req.UserID).Msg("failed to record failed-chat usage")
	}
}

func (g *Gateway) recordUsage(ctx context.Context, req ChatRequest, result llm.InvokeResult, billing BillingSummary, succeeded bool) {
	if g.usage == nil {
		return
	}

	if err := g.usage.RecordUsage(ctx, ports.UsageRecord{
		UserID:           req.UserID,
		AppID:            req.AppID,
		Day:              time.Now().Truncate(24 * time.Hour),
		Provider:         string(result.Provider),
		Model:            result.Model,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		CostUSD:          billing.CostUSD,
		SavingsUSD:       billing.SavingsUSD,
		Succeeded:        succeeded,
	}); err != nil && g.logger != nil {
		g.logger.Warn().Err(err).Str("user_id", req.UserID).Msg("failed to record chat usage")
	}
}

func (g *Gateway) writeAudit(ctx context.Context, req ChatRequest) {
	if g.audit == nil {
		return
	}

	if err := g.audit.Record(ctx, domainUsageAudit(req)); err != nil {
		if g.logger != nil {
			g.logger.Warn().Err(err).Str("user_id", req.UserID).Msg("failed to write chat audit record")
		}
		return
	}

	observability.AuditRecordsWritten.WithLabelValues("chat").Inc()
}

func domainUsageAudit(req ChatRequest) domain.AuditRecord {
	return domain.AuditRecord{
		UserID:       req.UserID,
		AccessorID:   req.AppID,
		AccessorKind: domain.AccessorApp,
		DataKind:     domain.DataKindUsage,
		DataID:       req.UserID,
		AccessKind:   domain.AccessKindWrite,
		Timestamp:    time.Now(),
		Purpose:      "chat",
		Result:       "success",
	}
}

func hasPermission(permissions []string, want string) bool {
	return contains(permissions, want)
}

func contains(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}

	return false
}

func nowRFC3339() string {
	return time.Now().Format(time.RFC3339)
}
