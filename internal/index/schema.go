// Package index implements the derived relational index (spec §4.4): notes,
// edges, tags, and an FTS5 full-text table, backed by
// github.com/mattn/go-sqlite3. The schema is concretized directly (fixed
// tables) rather than built through the teacher's generic, pluggable
// pkg/mddb.SQLSchema — qipu's schema never varies per document type, so the
// generic builder's indirection buys nothing. The PRAGMA user_version
// schema-fingerprint trick that triggers automatic reindex on mismatch is
// kept from the teacher's pkg/mddb.Open/internal/store.Open.
package index

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// currentSchemaVersion is stored in PRAGMA user_version. Bump whenever the
// schema changes; a mismatch on Open triggers a full rebuild by the caller.
const currentSchemaVersion = 1

const sqliteBusyTimeoutMS = 10000

var schemaStatements = []string{
	"DROP TABLE IF EXISTS notes",
	"DROP TABLE IF EXISTS edges",
	"DROP TABLE IF EXISTS tags",
	"DROP TABLE IF EXISTS notes_fts",
	`CREATE TABLE notes (
		id      TEXT PRIMARY KEY,
		title   TEXT NOT NULL,
		type    TEXT NOT NULL,
		path    TEXT NOT NULL,
		created TEXT,
		updated TEXT,
		value   INTEGER NOT NULL
	) WITHOUT ROWID`,
	`CREATE TABLE edges (
		from_id   TEXT NOT NULL,
		to_id     TEXT NOT NULL,
		link_type TEXT NOT NULL,
		source    TEXT NOT NULL
	)`,
	`CREATE TABLE tags (
		note_id TEXT NOT NULL,
		tag     TEXT NOT NULL
	)`,
	`CREATE VIRTUAL TABLE notes_fts USING fts5(
		id UNINDEXED,
		title,
		body,
		tags
	)`,
	"CREATE INDEX idx_edges_from ON edges(from_id, link_type, to_id)",
	"CREATE INDEX idx_edges_to ON edges(to_id, link_type, from_id)",
	"CREATE INDEX idx_tags_note ON tags(note_id)",
	"CREATE INDEX idx_tags_tag ON tags(tag)",
}

// Index wraps the derived SQLite database.
type Index struct {
	db *sql.DB
}

// Open opens (creating if needed) the index database at path and applies
// pragmas. It does not decide whether a rebuild is needed — callers check
// the schema version themselves (internal/cli's App.Open calls NeedsRebuild
// and runs internal/rebuild when it reports true).
func Open(ctx context.Context, path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("index: open: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("index: ping: %w", err)
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		PRAGMA busy_timeout = %d;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA foreign_keys = OFF;
	`, sqliteBusyTimeoutMS))
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("index: pragmas: %w", err)
	}

	return &Index{db: db}, nil
}

// Close releases the database handle. Safe on a nil Index.
func (idx *Index) Close() error {
	if idx == nil || idx.db == nil {
		return nil
	}

	return idx.db.Close()
}

// SchemaVersion reads PRAGMA user_version.
func (idx *Index) SchemaVersion(ctx context.Context) (int, error) {
	row := idx.db.QueryRowContext(ctx, "PRAGMA user_version")

	var v int

	err := row.Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("index: read user_version: %w", err)
	}

	return v, nil
}

// NeedsRebuild reports whether the stored schema version doesn't match the
// current one.
func (idx *Index) NeedsRebuild(ctx context.Context) (bool, error) {
	v, err := idx.SchemaVersion(ctx)
	if err != nil {
		return false, err
	}

	return v != currentSchemaVersion, nil
}

// RecreateSchema drops and recreates every table within tx and stamps
// user_version.
func (idx *Index) RecreateSchema(ctx context.Context, tx *sql.Tx) error {
	for i, stmt := range schemaStatements {
		_, err := tx.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("index: schema statement %d: %w", i, err)
		}
	}

	_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion))
	if err != nil {
		return fmt.Errorf("index: set user_version: %w", err)
	}

	return nil
}

// BeginTx starts a transaction.
func (idx *Index) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return idx.db.BeginTx(ctx, nil)
}

// DB exposes the underlying *sql.DB for callers (e.g. rebuild) that need
// direct access alongside BeginTx.
func (idx *Index) DB() *sql.DB { return idx.db }
