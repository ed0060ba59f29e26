package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hinata/core/internal/core/apierr"
	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
)

var _ ports.PrivacyStore = (*WarmStore)(nil)

// defaultPrivacyPreferences is returned for a user with no explicit row: no
// privacy preferences have ever been configured for them, so the gateway
// defaults to personalization and external-model use being allowed. A row
// only exists once a user (or an admin capability, out of scope here) has
// set an explicit preference, which is the point at which it starts being
// enforced.
func defaultPrivacyPreferences(userID string) domain.PrivacyPreferences {
	return domain.PrivacyPreferences{
		UserID:                 userID,
		Policy:                 domain.PolicyBalanced,
		ConsentPersonalization: true,
		ConsentExternal:        true,
		RetentionDays:          365,
	}
}

// GetPreferences reads a user's privacy preferences, or the permissive
// default if none have ever been set (spec §4.8 step 1).
func (w *WarmStore) GetPreferences(ctx context.Context, userID string) (domain.PrivacyPreferences, error) {
	var (
		policy                                                    string
		consentSharing, consentAnalytics, consentPersonalization  bool
		consentExternal                                           bool
		retentionDays                                              int
		allowedAppIDs, blockedAppIDs                              []string
	)

	row := w.db.Pool.QueryRow(ctx, `
		SELECT policy, consent_sharing, consent_analytics, consent_personalization,
		       consent_external, retention_days, allowed_app_ids, blocked_app_ids
		FROM privacy_preferences WHERE user_id = $1
	`, toUUID(userID))

	err := row.Scan(&policy, &consentSharing, &consentAnalytics, &consentPersonalization,
		&consentExternal, &retentionDays, &allowedAppIDs, &blockedAppIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return defaultPrivacyPreferences(userID), nil
	}

	if err != nil {
		return domain.PrivacyPreferences{}, apierr.Wrap(apierr.KindStorageTransient, "load privacy preferences", err)
	}

	return domain.PrivacyPreferences{
		UserID:                 userID,
		Policy:                 domain.PolicyLevel(policy),
		ConsentSharing:         consentSharing,
		ConsentAnalytics:       consentAnalytics,
		ConsentPersonalization: consentPersonalization,
		ConsentExternal:        consentExternal,
		RetentionDays:          retentionDays,
		AllowedAppIDs:          allowedAppIDs,
		BlockedAppIDs:          blockedAppIDs,
	}, nil
}
