package storage

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

func toUUID(id string) pgtype.UUID {
	u, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}

	return pgtype.UUID{Bytes: u, Valid: true}
}

func fromUUID(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}

	return uuid.UUID(u.Bytes).String()
}

func toText(s string) pgtype.Text {
	return pgtype.Text{String: sanitizeUTF8(s), Valid: s != ""}
}

func fromText(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}

	return t.String
}

// sanitizeUTF8 strips invalid UTF-8 sequences before they reach a text
// column, since observation highlights/notes come from arbitrary apps.
func sanitizeUTF8(s string) string {
	if s == "" || utf8.ValidString(s) {
		return s
	}

	return strings.ToValidUTF8(s, "")
}

func toTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}

func toTimestamptzPtr(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}

	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func fromTimestamptz(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}

	return t.Time
}

func fromTimestamptzPtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}

	out := t.Time

	return &out
}

func toFloat4(f float32) pgtype.Float4 {
	return pgtype.Float4{Float32: f, Valid: true}
}

func fromFloat4(f pgtype.Float4) float32 {
	if !f.Valid {
		return 0
	}

	return f.Float32
}

// toJSONB marshals v into a pgtype.Text carrying a jsonb literal; enriched
// structures (tags, semantic analysis, attention metrics) are stored as
// JSON columns per spec §4.3 "JSON columns for enriched structures".
func toJSONB(v interface{}) (pgtype.Text, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return pgtype.Text{}, err
	}

	return pgtype.Text{String: string(b), Valid: true}, nil
}

func fromJSONB(t pgtype.Text, out interface{}) error {
	if !t.Valid || t.String == "" {
		return nil
	}

	return json.Unmarshal([]byte(t.String), out)
}
