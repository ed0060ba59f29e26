package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/hinata/core/internal/core/apierr"
	"github.com/hinata/core/internal/core/ports"
)

var (
	_ ports.UsageSink  = (*WarmStore)(nil)
	_ ports.UsageQuery = (*WarmStore)(nil)
)

// RecordUsage persists one (user, app, day, provider, model) billing bucket
// (spec §4.8 step 5), accumulating token/cost totals on conflict so repeat
// calls within the same day merge instead of overwrite.
func (w *WarmStore) RecordUsage(ctx context.Context, rec ports.UsageRecord) error {
	_, err := w.db.Pool.Exec(ctx, `
		INSERT INTO usage_records (
			user_id, app_id, usage_day, provider, model, prompt_tokens,
			completion_tokens, cost_usd, savings_usd, succeeded
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (user_id, app_id, usage_day, provider, model) DO UPDATE SET
			prompt_tokens = usage_records.prompt_tokens + EXCLUDED.prompt_tokens,
			completion_tokens = usage_records.completion_tokens + EXCLUDED.completion_tokens,
			cost_usd = usage_records.cost_usd + EXCLUDED.cost_usd,
			savings_usd = usage_records.savings_usd + EXCLUDED.savings_usd,
			succeeded = usage_records.succeeded AND EXCLUDED.succeeded
	`,
		toUUID(rec.UserID), toText(rec.AppID), rec.Day, rec.Provider, rec.Model,
		rec.PromptTokens, rec.CompletionTokens,
		decimal.NewFromFloat(rec.CostUSD), decimal.NewFromFloat(rec.SavingsUSD), rec.Succeeded,
	)
	if err != nil {
		return apierr.Wrap(apierr.KindStorageTransient, "record usage", err)
	}

	return nil
}

// QueryUsage implements getUsage's read path (spec §6), filtered by user
// and/or app and bounded by a [from, to) day range.
func (w *WarmStore) QueryUsage(ctx context.Context, filter ports.UsageFilter) ([]ports.UsageRecord, error) {
	rows, err := w.db.Pool.Query(ctx, `
		SELECT user_id, app_id, usage_day, provider, model, prompt_tokens,
		       completion_tokens, cost_usd, savings_usd, succeeded
		FROM usage_records
		WHERE ($1 = '' OR user_id = $2)
		  AND ($3 = '' OR app_id = $3)
		  AND ($4::date IS NULL OR usage_day >= $4)
		  AND ($5::date IS NULL OR usage_day < $5)
		ORDER BY usage_day DESC
	`, filter.UserID, toUUID(filter.UserID), filter.AppID, dateOrNil(filter.From), dateOrNil(filter.To))
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorageTransient, "query usage", err)
	}
	defer rows.Close()

	var out []ports.UsageRecord

	for rows.Next() {
		var (
			userID, appID, provider, model string
			day                            time.Time
			promptTokens, completionTokens int
			costUSD, savingsUSD            decimal.Decimal
			succeeded                      bool
			uid                            pgtype.UUID
		)

		if err := rows.Scan(&uid, &appID, &day, &provider, &model, &promptTokens, &completionTokens, &costUSD, &savingsUSD, &succeeded); err != nil {
			return nil, apierr.Wrap(apierr.KindStorageTransient, "scan usage record", err)
		}

		userID = fromUUID(uid)
		costF, _ := costUSD.Float64()
		savingsF, _ := savingsUSD.Float64()

		out = append(out, ports.UsageRecord{
			UserID: userID, AppID: appID, Day: day, Provider: provider, Model: model,
			PromptTokens: promptTokens, CompletionTokens: completionTokens,
			CostUSD: costF, SavingsUSD: savingsF, Succeeded: succeeded,
		})
	}

	return out, rows.Err()
}

func dateOrNil(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}

	return t
}
