package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/hinata/core/internal/core/apierr"
	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
)

var _ ports.AppRegistry = (*WarmStore)(nil)

// Lookup resolves an app's registration for credential and permission
// checks (spec §3, §6 registerApp).
func (w *WarmStore) Lookup(ctx context.Context, appID string) (*domain.AppRegistration, error) {
	var (
		id           string
		apiKeyHash   pgtype.Text
		permissions  []string
		rateLimit    int
		createdAt    pgtype.Timestamptz
		isActive     bool
	)

	row := w.db.Pool.QueryRow(ctx, `
		SELECT app_id, api_key_hash, permissions, rate_limit, created_at, is_active
		FROM app_registrations WHERE app_id = $1
	`, appID)

	err := row.Scan(&id, &apiKeyHash, &permissions, &rateLimit, &createdAt, &isActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.New(apierr.KindAuthz, "app not registered")
	}

	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorageTransient, "lookup app registration", err)
	}

	return &domain.AppRegistration{
		AppID:       id,
		APIKeyHash:  fromText(apiKeyHash),
		Permissions: permissions,
		RateLimit:   rateLimit,
		CreatedAt:   fromTimestamptz(createdAt),
		IsActive:    isActive,
	}, nil
}

// Register inserts or reactivates an app registration.
func (w *WarmStore) Register(ctx context.Context, app domain.AppRegistration) error {
	_, err := w.db.Pool.Exec(ctx, `
		INSERT INTO app_registrations (app_id, api_key_hash, permissions, rate_limit, created_at, is_active)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (app_id) DO UPDATE SET
			api_key_hash = EXCLUDED.api_key_hash,
			permissions = EXCLUDED.permissions,
			rate_limit = EXCLUDED.rate_limit,
			is_active = EXCLUDED.is_active
	`, app.AppID, toText(app.APIKeyHash), app.Permissions, app.RateLimit, toTimestamptz(app.CreatedAt), app.IsActive)
	if err != nil {
		return apierr.Wrap(apierr.KindStorageTransient, "register app", err)
	}

	return nil
}
