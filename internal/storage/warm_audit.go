package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/hinata/core/internal/core/apierr"
	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/core/ports"
)

var _ ports.AuditSink = (*WarmStore)(nil)

// Record appends one AuditRecord (spec §3, §8 invariant 9: "every access
// ... generates exactly one AuditRecord"). The audit log is append-only:
// no update or delete path exists.
func (w *WarmStore) Record(ctx context.Context, rec domain.AuditRecord) error {
	_, err := w.db.Pool.Exec(ctx, `
		INSERT INTO audit_log (
			user_id, accessor_id, accessor_kind, data_kind, data_id, access_kind,
			recorded_at, ip, purpose, result
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		toUUID(rec.UserID), toText(rec.AccessorID), string(rec.AccessorKind), string(rec.DataKind),
		toText(rec.DataID), string(rec.AccessKind), toTimestamptz(rec.Timestamp), toText(rec.IP),
		toText(rec.Purpose), toText(rec.Result),
	)
	if err != nil {
		return apierr.Wrap(apierr.KindStorageTransient, "write audit record", err)
	}

	return nil
}

// QueryAudit supports the operator/CLI read path over the audit log
// (SPEC_FULL §3 "Audit log query surface"): records for userID within
// [from, to).
func (w *WarmStore) QueryAudit(ctx context.Context, userID string, from, to time.Time) ([]domain.AuditRecord, error) {
	rows, err := w.db.Pool.Query(ctx, `
		SELECT user_id, accessor_id, accessor_kind, data_kind, data_id, access_kind,
		       recorded_at, ip, purpose, result
		FROM audit_log
		WHERE user_id = $1 AND recorded_at >= $2 AND recorded_at < $3
		ORDER BY recorded_at DESC
	`, toUUID(userID), from, to)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorageTransient, "query audit log", err)
	}
	defer rows.Close()

	var out []domain.AuditRecord

	for rows.Next() {
		var (
			uid                                 pgtype.UUID
			accessorID, dataID, ip, purpose      pgtype.Text
			result                               pgtype.Text
			accessorKind, dataKind, accessKind   string
			recordedAt                           pgtype.Timestamptz
		)

		if err := rows.Scan(&uid, &accessorID, &accessorKind, &dataKind, &dataID, &accessKind, &recordedAt, &ip, &purpose, &result); err != nil {
			return nil, apierr.Wrap(apierr.KindStorageTransient, "scan audit record", err)
		}

		out = append(out, domain.AuditRecord{
			UserID:       fromUUID(uid),
			AccessorID:   fromText(accessorID),
			AccessorKind: domain.AccessorKind(accessorKind),
			DataKind:     domain.DataKind(dataKind),
			DataID:       fromText(dataID),
			AccessKind:   domain.AccessKind(accessKind),
			Timestamp:    fromTimestamptz(recordedAt),
			IP:           fromText(ip),
			Purpose:      fromText(purpose),
			Result:       fromText(result),
		})
	}

	return out, rows.Err()
}
