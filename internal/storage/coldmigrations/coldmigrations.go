// Package coldmigrations embeds the cold-tier manifest schema, applied via
// golang-migrate's source/iofs driver directly against the manifest SQLite
// file — a separate migration concern from the warm store's goose-managed
// schema (spec §4.3 cold tier, SPEC_FULL §2).
package coldmigrations

import "embed"

//go:embed *.sql
var FS embed.FS
