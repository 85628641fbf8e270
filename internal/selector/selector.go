// Package selector resolves the OR'd selection inputs and post-selection
// NoteFilter predicate spec §4.9 names. New code — the teacher has no
// analogue; it's grounded directly in spec.md §4.9, reusing internal/index's
// query helpers and internal/note's inline-link extractors the way
// internal/traversal reuses internal/index for its own graph walk.
package selector

import (
	"context"
	"strings"

	"github.com/qipu-dev/qipu/internal/index"
	"github.com/qipu-dev/qipu/internal/note"
)

// Criteria selects a set of notes via OR'd inputs: explicit ids, a tag, a
// MOC id (expanded through its outbound links), a free-text search query.
// Select returns the union, deduplicated, in the order: ids, tag, moc,
// query.
type Criteria struct {
	IDs        []string
	Tag        string
	MOCID      string
	Query      string
	Transitive bool // recursively resolve MOC links through nested MOCs
}

// Loader fetches a note by id, the way *store.Store.GetNote does.
type Loader func(id string) (*note.Note, error)

// Select resolves c against idx (tags, metadata, full-text search) and get
// (note bodies/links, for MOC expansion).
func Select(ctx context.Context, idx *index.Index, get Loader, c Criteria) ([]string, error) {
	seen := map[string]bool{}

	var out []string

	add := func(id string) {
		if !seen[id] {
			seen[id] = true

			out = append(out, id)
		}
	}

	for _, id := range c.IDs {
		add(id)
	}

	if c.Tag != "" {
		ids, err := index.ListIDsByTag(ctx, idx.DB(), c.Tag)
		if err != nil {
			return nil, err
		}

		for _, id := range ids {
			add(id)
		}
	}

	if c.MOCID != "" {
		ids, err := expandMOC(ctx, idx, get, c.MOCID, c.Transitive, map[string]bool{})
		if err != nil {
			return nil, err
		}

		for _, id := range ids {
			add(id)
		}
	}

	if c.Query != "" {
		ids, err := index.Search(ctx, idx.DB(), c.Query, index.SearchFilters{}, 0)
		if err != nil {
			return nil, err
		}

		for _, id := range ids {
			add(id)
		}
	}

	return out, nil
}

// expandMOC resolves mocID's linked notes in the order spec §4.9 requires:
// typed frontmatter links first, then wiki links, then qualifying markdown
// links, skipping any target not found in idx. visited guards against a MOC
// cycle re-expanding itself when Transitive is set.
func expandMOC(ctx context.Context, idx *index.Index, get Loader, mocID string, transitive bool, visited map[string]bool) ([]string, error) {
	if visited[mocID] {
		return nil, nil
	}

	visited[mocID] = true

	n, err := get(mocID)
	if err != nil {
		return nil, err
	}

	if n == nil {
		return nil, nil
	}

	seen := map[string]bool{}

	var direct []string

	push := func(id string) error {
		if seen[id] {
			return nil
		}

		meta, err := index.GetMetadata(ctx, idx.DB(), id)
		if err != nil {
			return err
		}

		if meta == nil {
			return nil // target not found in the index: skip (spec §4.9)
		}

		seen[id] = true

		direct = append(direct, id)

		return nil
	}

	for _, l := range n.Links {
		if err := push(l.ID); err != nil {
			return nil, err
		}
	}

	for _, id := range note.ExtractWikiLinks(n.Body) {
		if err := push(id); err != nil {
			return nil, err
		}
	}

	for _, id := range note.ExtractMarkdownNoteLinks(n.Body, looksLikeID) {
		if err := push(id); err != nil {
			return nil, err
		}
	}

	if !transitive {
		return direct, nil
	}

	all := append([]string(nil), direct...)

	for _, id := range direct {
		meta, err := index.GetMetadata(ctx, idx.DB(), id)
		if err != nil {
			return nil, err
		}

		if meta == nil || meta.Type != "moc" {
			continue
		}

		nested, err := expandMOC(ctx, idx, get, id, transitive, visited)
		if err != nil {
			return nil, err
		}

		all = append(all, nested...)
	}

	return all, nil
}

// looksLikeID is a loose heuristic for "a markdown link target that could be
// a note id" (spec §4.9): the conventional qp- prefix, not a URL. Final
// validity is decided by the idx.GetMetadata lookup in push, which skips
// anything not actually in the index — looksLikeID only avoids wasting a
// lookup on obvious URLs/paths.
func looksLikeID(target string) bool {
	return strings.HasPrefix(target, "qp-") && !strings.Contains(target, "://")
}
