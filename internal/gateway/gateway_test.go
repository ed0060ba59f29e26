package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/llm"
	"github.com/hinata/core/internal/core/ports"
	"github.com/hinata/core/internal/process/pipeline"
	"github.com/hinata/core/internal/process/prompt"
)

type fakeApps struct {
	app *domain.AppRegistration
}

func (f *fakeApps) Lookup(_ context.Context, _ string) (*domain.AppRegistration, error) { return f.app, nil }
func (f *fakeApps) Register(_ context.Context, _ domain.AppRegistration) error          { return nil }

type fakePrivacy struct {
	prefs domain.PrivacyPreferences
}

func (f *fakePrivacy) GetPreferences(_ context.Context, userID string) (domain.PrivacyPreferences, error) {
	f.prefs.UserID = userID
	return f.prefs, nil
}

type fakeComposer struct {
	result prompt.Result
}

func (f *fakeComposer) Compose(_ context.Context, _, _ string, _ []float32) (prompt.Result, error) {
	return f.result, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) GetEmbedding(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}

type fakeModels struct {
	result llm.InvokeResult
	err    error
}

func (f *fakeModels) Invoke(_ context.Context, _ llm.ProviderName, _ llm.InvokeRequest) (llm.InvokeResult, error) {
	return f.result, f.err
}

func (f *fakeModels) ProviderCount() int { return 1 }

type fakeUsage struct {
	records []ports.UsageRecord
}

func (f *fakeUsage) RecordUsage(_ context.Context, rec ports.UsageRecord) error {
	f.records = append(f.records, rec)
	return nil
}

type fakeAudit struct {
	records []domain.AuditRecord
}

func (f *fakeAudit) Record(_ context.Context, rec domain.AuditRecord) error {
	f.records = append(f.records, rec)
	return nil
}

type fakeSubmitter struct {
	summary pipeline.BatchSummary
}

func (f *fakeSubmitter) ProcessBatch(_ context.Context, _ pipeline.BatchRequest) (pipeline.BatchSummary, error) {
	return f.summary, nil
}

func activeApp() *domain.AppRegistration {
	return &domain.AppRegistration{AppID: "app-1", Permissions: []string{"chat"}, IsActive: true}
}

func consentingPrefs() domain.PrivacyPreferences {
	return domain.PrivacyPreferences{ConsentExternal: true}
}

func TestGateway_ChatHappyPath(t *testing.T) {
	usage := &fakeUsage{}
	audit := &fakeAudit{}

	gw := New(
		&fakeApps{app: activeApp()},
		&fakePrivacy{prefs: consentingPrefs()},
		&fakeComposer{result: prompt.Result{CorePersonalRules: "be concise"}},
		fakeEmbedder{},
		&fakeModels{result: llm.InvokeResult{
			Text: "the answer", Provider: llm.ProviderAnthropic, Model: "claude-3-5-haiku-latest",
			PromptTokens: 100, CompletionTokens: 50,
		}},
		usage,
		audit,
		&fakeSubmitter{summary: pipeline.BatchSummary{PerItem: []pipeline.ItemResult{{ID: "obs-123", Accepted: true}}}},
		nil,
	)

	resp, err := gw.Chat(context.Background(), ChatRequest{UserID: "user-1", AppID: "app-1", Question: "what should I focus on?"})
	require.NoError(t, err)
	require.Equal(t, "the answer", resp.Answer)
	require.Equal(t, "obs-123", resp.ObservationID)
	require.Len(t, usage.records, 1)
	require.True(t, usage.records[0].Succeeded)
	require.Len(t, audit.records, 1)
}

func TestGateway_ChatDeniedWithoutExternalConsent(t *testing.T) {
	gw := New(
		&fakeApps{app: activeApp()},
		&fakePrivacy{prefs: domain.PrivacyPreferences{ConsentExternal: false}},
		&fakeComposer{},
		fakeEmbedder{},
		&fakeModels{},
		&fakeUsage{},
		&fakeAudit{},
		&fakeSubmitter{},
		nil,
	)

	_, err := gw.Chat(context.Background(), ChatRequest{UserID: "user-1", AppID: "app-1", Question: "q"})
	require.Error(t, err)
}

func TestGateway_ChatDeniedWithoutPermission(t *testing.T) {
	gw := New(
		&fakeApps{app: &domain.AppRegistration{AppID: "app-1", IsActive: true}},
		&fakePrivacy{prefs: consentingPrefs()},
		&fakeComposer{},
		fakeEmbedder{},
		&fakeModels{},
		&fakeUsage{},
		&fakeAudit{},
		&fakeSubmitter{},
		nil,
	)

	_, err := gw.Chat(context.Background(), ChatRequest{UserID: "user-1", AppID: "app-1", Question: "q"})
	require.Error(t, err)
}

func TestGateway_ChatRecordsFailedUsageOnModelError(t *testing.T) {
	usage := &fakeUsage{}

	gw := New(
		&fakeApps{app: activeApp()},
		&fakePrivacy{prefs: consentingPrefs()},
		&fakeComposer{},
		fakeEmbedder{},
		&fakeModels{err: llm.ErrAllProvidersFailed},
		usage,
		&fakeAudit{},
		&fakeSubmitter{},
		nil,
	)

	_, err := gw.Chat(context.Background(), ChatRequest{UserID: "user-1", AppID: "app-1", Question: "q"})
	require.Error(t, err)
	require.Len(t, usage.records, 1)
	require.False(t, usage.records[0].Succeeded)
}

func TestGateway_ChatWaivesFeeForUserProvidedKey(t *testing.T) {
	billing := computeBilling("claude-3-5-haiku-latest", 100, 50, true)
	require.True(t, billing.FeeWaived)
	require.Zero(t, billing.CostUSD)
}

func TestDecideRouting_PinsModelOnUserProvidedKey(t *testing.T) {
	preferred, decision := decideRouting("anthropic", true)
	require.Equal(t, llm.ProviderAnthropic, preferred)
	require.True(t, decision.Pinned)
}

func TestDecideRouting_AutoRoutesWithoutPreference(t *testing.T) {
	preferred, decision := decideRouting("", false)
	require.Empty(t, preferred)
	require.True(t, decision.AutoRouted)
}
