package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/qipu-dev/qipu/internal/note"
)

// EdgeSource is the provenance of a derived edge (spec §3 Edge).
type EdgeSource string

const (
	SourceTyped  EdgeSource = "typed"
	SourceInline EdgeSource = "inline"
)

// Edge is one row of the edges table.
type Edge struct {
	From   string
	To     string
	Type   string
	Source EdgeSource
}

// Metadata is the projection spec §4.4's get_metadata returns.
type Metadata struct {
	ID    string
	Title string
	Type  string
	Tags  []string
	Path  string
	Value int
}

func timeStr(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.UTC().Format(time.RFC3339)
}

// InsertNote upserts note n's row and clears+reinserts its tags within tx
// (spec §4.4 insert_note).
func InsertNote(ctx context.Context, tx *sql.Tx, n *note.Note) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO notes (id, title, type, path, created, updated, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, type=excluded.type, path=excluded.path,
			created=excluded.created, updated=excluded.updated, value=excluded.value
	`, n.ID, n.Title, n.Type, n.Path, timeStr(n.Created), timeStr(n.Updated), n.Value)
	if err != nil {
		return fmt.Errorf("index: insert note %s: %w", n.ID, err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM tags WHERE note_id = ?", n.ID)
	if err != nil {
		return fmt.Errorf("index: clear tags %s: %w", n.ID, err)
	}

	for _, tag := range n.Tags {
		_, err = tx.ExecContext(ctx, "INSERT INTO tags (note_id, tag) VALUES (?, ?)", n.ID, tag)
		if err != nil {
			return fmt.Errorf("index: insert tag %s: %w", n.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM notes_fts WHERE id = ?", n.ID)
	if err != nil {
		return fmt.Errorf("index: clear fts %s: %w", n.ID, err)
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO notes_fts (id, title, body, tags) VALUES (?, ?, ?, ?)",
		n.ID, n.Title, n.Body, strings.Join(n.Tags, " "))
	if err != nil {
		return fmt.Errorf("index: insert fts %s: %w", n.ID, err)
	}

	return nil
}

// InsertEdges clears and reinserts n's outgoing edges: typed edges from
// n.Links, inline edges from [[...]] occurrences in the body (spec §4.4
// insert_edges). knownIDs is accepted for API symmetry with the spec but
// does not filter — dangling edges are recorded, per spec.
func InsertEdges(ctx context.Context, tx *sql.Tx, n *note.Note, knownIDs map[string]bool) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM edges WHERE from_id = ?", n.ID)
	if err != nil {
		return fmt.Errorf("index: clear edges %s: %w", n.ID, err)
	}

	for _, l := range n.Links {
		_, err = tx.ExecContext(ctx, "INSERT INTO edges (from_id, to_id, link_type, source) VALUES (?, ?, ?, ?)",
			n.ID, l.ID, l.Type, string(SourceTyped))
		if err != nil {
			return fmt.Errorf("index: insert typed edge %s->%s: %w", n.ID, l.ID, err)
		}
	}

	for _, target := range note.ExtractWikiLinks(n.Body) {
		_, err = tx.ExecContext(ctx, "INSERT INTO edges (from_id, to_id, link_type, source) VALUES (?, ?, ?, ?)",
			n.ID, target, "related", string(SourceInline))
		if err != nil {
			return fmt.Errorf("index: insert inline edge %s->%s: %w", n.ID, target, err)
		}
	}

	return nil
}

// GetOutboundEdges returns id's outgoing edges ordered by (link_type, to)
// for determinism (spec §4.4).
func GetOutboundEdges(ctx context.Context, db querier, id string) ([]Edge, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT from_id, to_id, link_type, source FROM edges
		WHERE from_id = ? ORDER BY link_type, to_id`, id)
	if err != nil {
		return nil, fmt.Errorf("index: outbound edges %s: %w", id, err)
	}

	defer rows.Close()

	return scanEdges(rows)
}

// GetInboundEdges returns id's incoming edges ordered by (link_type, from).
func GetInboundEdges(ctx context.Context, db querier, id string) ([]Edge, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT from_id, to_id, link_type, source FROM edges
		WHERE to_id = ? ORDER BY link_type, from_id`, id)
	if err != nil {
		return nil, fmt.Errorf("index: inbound edges %s: %w", id, err)
	}

	defer rows.Close()

	return scanEdges(rows)
}

func scanEdges(rows *sql.Rows) ([]Edge, error) {
	var edges []Edge

	for rows.Next() {
		var e Edge

		var src string

		err := rows.Scan(&e.From, &e.To, &e.Type, &src)
		if err != nil {
			return nil, fmt.Errorf("index: scan edge: %w", err)
		}

		e.Source = EdgeSource(src)
		edges = append(edges, e)
	}

	return edges, rows.Err()
}

// GetMetadata returns the note_id → {id,title,type,tags,path,value}
// projection spec §4.4 names.
func GetMetadata(ctx context.Context, db querier, id string) (*Metadata, error) {
	row := db.QueryRowContext(ctx, "SELECT id, title, type, path, value FROM notes WHERE id = ?", id)

	var m Metadata

	err := row.Scan(&m.ID, &m.Title, &m.Type, &m.Path, &m.Value)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("index: metadata %s: %w", id, err)
	}

	rows, err := db.QueryContext(ctx, "SELECT tag FROM tags WHERE note_id = ? ORDER BY tag", id)
	if err != nil {
		return nil, fmt.Errorf("index: metadata tags %s: %w", id, err)
	}

	defer rows.Close()

	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("index: scan tag: %w", err)
		}

		m.Tags = append(m.Tags, tag)
	}

	return &m, rows.Err()
}

// ListNoteIDs returns every indexed note id, sorted.
func ListNoteIDs(ctx context.Context, db querier) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT id FROM notes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("index: list ids: %w", err)
	}

	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("index: scan id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ListIDsByTag returns ids tagged with tag, sorted (spec §4.9 selector: a
// bare tag input resolves to every note carrying it).
func ListIDsByTag(ctx context.Context, db querier, tag string) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT note_id FROM tags WHERE tag = ? ORDER BY note_id", tag)
	if err != nil {
		return nil, fmt.Errorf("index: list by tag %s: %w", tag, err)
	}

	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("index: scan tag id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// SearchFilters narrows a full-text search (spec §4.4).
type SearchFilters struct {
	Type     string
	Tag      string
	Since    *time.Time
	MinValue *int
}

// Search runs a full-text match over (title, body, tags) with title>tags>body
// weighting, returning ids ordered by descending score then by id (spec
// §4.4).
func Search(ctx context.Context, db querier, query string, filters SearchFilters, limit int) ([]string, error) {
	var b strings.Builder

	args := []any{query}

	b.WriteString(`
		SELECT n.id FROM notes_fts f
		JOIN notes n ON n.id = f.id
		WHERE notes_fts MATCH ?
	`)
	// Column weighting (title > tags > body) happens entirely in the bm25()
	// ORDER BY below — fts5 MATCH query text has no "^N" weighting syntax.

	if filters.Type != "" {
		b.WriteString(" AND n.type = ?")
		args = append(args, filters.Type)
	}

	if filters.Tag != "" {
		b.WriteString(" AND n.id IN (SELECT note_id FROM tags WHERE tag = ?)")
		args = append(args, filters.Tag)
	}

	if filters.Since != nil {
		b.WriteString(" AND n.created >= ?")
		args = append(args, timeStr(filters.Since))
	}

	if filters.MinValue != nil {
		b.WriteString(" AND n.value >= ?")
		args = append(args, *filters.MinValue)
	}

	b.WriteString(" ORDER BY bm25(notes_fts, 0.0, 3.0, 1.0, 2.0) ASC, n.id ASC")

	if limit > 0 {
		b.WriteString(fmt.Sprintf(" LIMIT %d", limit))
	}

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}

	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("index: scan search result: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
