package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // pure-Go sqlite driver backing the cold-tier manifest

	"github.com/hinata/core/internal/core/apierr"
	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/storage/coldmigrations"
)

// ColdTier is the append-only, partitioned-by-(userId, year-month) file
// store (spec §4.3 "Cold"). Partition files are zstd-compressed (the
// teacher's stack carries klauspost/compress transitively via pgx; this
// substitutes for the distillation's "snappy-compressed" mention — see
// DESIGN.md) and accompanied by a SQLite manifest for dedupe and lookup.
type ColdTier struct {
	basePath string
	manifest *sql.DB
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

// NewColdTier opens (creating if absent) the cold-tier manifest database at
// basePath/manifest.db and bootstraps its schema via golang-migrate's
// file-based source driver — no network database is involved, matching
// SPEC_FULL §2's "file-backed, no DB driver needed" framing for this
// concern.
func NewColdTier(ctx context.Context, basePath string) (*ColdTier, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create cold store root: %w", err)
	}

	manifest, err := sql.Open("sqlite", filepath.Join(basePath, "manifest.db"))
	if err != nil {
		return nil, fmt.Errorf("open cold manifest: %w", err)
	}

	if err := applyColdMigrations(ctx, manifest); err != nil {
		return nil, fmt.Errorf("apply cold manifest migrations: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &ColdTier{basePath: basePath, manifest: manifest, encoder: encoder, decoder: decoder}, nil
}

// applyColdMigrations walks the embedded migration source in version order
// and executes each up-migration directly against the manifest connection,
// using golang-migrate's iofs source driver purely as a parser/sequencer
// (no golang-migrate database driver is registered, since SQLite's cgo-free
// driver has no compatible one in the pack).
func applyColdMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return err
	}

	applied, err := currentColdSchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	src, err := iofs.New(coldmigrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open cold migration source: %w", err)
	}
	defer src.Close()

	version, err := src.First()
	if err != nil {
		return fmt.Errorf("read first cold migration: %w", err)
	}

	for {
		if version > applied {
			if err := runColdMigration(ctx, db, src, version); err != nil {
				return err
			}
		}

		next, err := src.Next(version)
		if err != nil {
			break // no more migrations
		}

		version = next
	}

	return nil
}

func runColdMigration(ctx context.Context, db *sql.DB, src source.Driver, version uint) error {
	r, _, err := src.ReadUp(version)
	if err != nil {
		return fmt.Errorf("read cold migration %d: %w", version, err)
	}
	defer r.Close()

	sqlBytes, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read cold migration %d body: %w", version, err)
	}

	if _, err := db.ExecContext(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("apply cold migration %d: %w", version, err)
	}

	if _, err := db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
		return fmt.Errorf("record cold migration %d: %w", version, err)
	}

	return nil
}

func currentColdSchemaVersion(ctx context.Context, db *sql.DB) (uint, error) {
	var version uint

	row := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&version); err != nil {
		return 0, err
	}

	return version, nil
}

// Close releases the cold-tier manifest connection.
func (c *ColdTier) Close() error {
	return c.manifest.Close()
}

func partitionKey(userID string, at time.Time) string {
	return fmt.Sprintf("%s_%s", userID, at.Format("200601"))
}

// Append writes obs to its (userId, year-month) partition file,
// compresses the record, and records it in the manifest — append-only, per
// spec §4.3 "Cold".
func (c *ColdTier) Append(ctx context.Context, obs *domain.Observation) error {
	key := partitionKey(obs.UserID, obs.Timestamp)
	path := filepath.Join(c.basePath, key+".zst")

	raw, err := json.Marshal(obs)
	if err != nil {
		return apierr.Wrap(apierr.KindStoragePermanent, "marshal observation for cold store", err)
	}

	compressed := c.encoder.EncodeAll(raw, nil)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return apierr.Wrap(apierr.KindStorageTransient, "open cold partition", err)
	}
	defer f.Close()

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return apierr.Wrap(apierr.KindStorageTransient, "seek cold partition", err)
	}

	n, err := f.Write(compressed)
	if err != nil {
		return apierr.Wrap(apierr.KindStorageTransient, "write cold partition record", err)
	}

	_, err = c.manifest.ExecContext(ctx, `
		INSERT INTO cold_manifest (observation_id, user_id, content_hash, partition_key, file_path, offset_bytes, length_bytes, written_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (observation_id) DO UPDATE SET
			file_path = excluded.file_path, offset_bytes = excluded.offset_bytes,
			length_bytes = excluded.length_bytes, written_at = excluded.written_at
	`, obs.ID, obs.UserID, obs.ContentHash, key, path, offset, n, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return apierr.Wrap(apierr.KindStorageTransient, "record cold manifest entry", err)
	}

	return nil
}

// Get reads obs back from its cold partition file using the manifest's
// recorded offset/length (spec §4.3 get() cold-tier leg).
func (c *ColdTier) Get(ctx context.Context, id string) (*domain.Observation, error) {
	var (
		path          string
		offset, length int64
	)

	row := c.manifest.QueryRowContext(ctx, `SELECT file_path, offset_bytes, length_bytes FROM cold_manifest WHERE observation_id = ?`, id)
	if err := row.Scan(&path, &offset, &length); err != nil {
		return nil, apierr.New(apierr.KindStoragePermanent, "observation not found in cold tier")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorageTransient, "open cold partition", err)
	}
	defer f.Close()

	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return nil, apierr.Wrap(apierr.KindStorageTransient, "read cold partition record", err)
	}

	raw, err := c.decoder.DecodeAll(buf, nil)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStoragePermanent, "decompress cold record", err)
	}

	var obs domain.Observation
	if err := json.Unmarshal(raw, &obs); err != nil {
		return nil, apierr.Wrap(apierr.KindStoragePermanent, "unmarshal cold record", err)
	}

	return &obs, nil
}

// FindByContentHash supports idempotency checks that fall through to cold
// storage (rare: most checks hit the warm dedupe window first).
func (c *ColdTier) FindByContentHash(ctx context.Context, userID, contentHash string) (string, bool, error) {
	var id string

	row := c.manifest.QueryRowContext(ctx, `SELECT observation_id FROM cold_manifest WHERE user_id = ? AND content_hash = ? LIMIT 1`, userID, contentHash)

	err := row.Scan(&id)
	if err != nil {
		return "", false, nil //nolint:nilerr // absence is not an error
	}

	return id, true, nil
}
