// Package compaction resolves the canonicalization relation derived from
// notes' compacts fields (spec §4.6). A Context is built once per
// high-level operation from the full note list; resolution is a pure,
// memoized function of that list, not an on-the-fly graph rewrite — grounded
// in the teacher's preference for building a small resolved table once
// (pkg/mddb/reindex.go's single-pass-then-lookup style) rather than
// re-deriving relations per query.
package compaction

import (
	"fmt"

	"github.com/qipu-dev/qipu/internal/note"
	"github.com/qipu-dev/qipu/internal/qipuerr"
)

// Context answers canon/is_compacted/compacts_count/compacted_ids queries
// after construction. Canon and IsCompacted are map lookups; CompactsCount
// scans every compacted id and CompactedIDs walks the compactor relation.
type Context struct {
	compactedBy map[string]string // id -> the note that directly compacts it
	canonCache  map[string]string
	compactors  map[string][]string // ancestor id -> ids it directly compacts
	values      map[string]int      // id -> note.Value, for SuggestValue
}

// New builds a Context from notes, validating invariants (spec §4.6): no
// self-compaction, each id compacted by at most one note, no cycles. Returns
// the first violation encountered.
func New(notes []*note.Note) (*Context, error) {
	compactedBy := make(map[string]string)
	compactors := make(map[string][]string)
	values := make(map[string]int, len(notes))

	for _, n := range notes {
		values[n.ID] = n.Value

		for _, compacted := range n.Compacts {
			if compacted == n.ID {
				return nil, qipuerr.New(qipuerr.InvalidValue,
					fmt.Errorf("note self-compacts"), qipuerr.WithID(n.ID))
			}

			if existing, ok := compactedBy[compacted]; ok && existing != n.ID {
				return nil, qipuerr.New(qipuerr.InvalidValue,
					fmt.Errorf("id compacted by more than one note: %s and %s", existing, n.ID),
					qipuerr.WithID(compacted))
			}

			compactedBy[compacted] = n.ID
			compactors[n.ID] = append(compactors[n.ID], compacted)
		}
	}

	ctx := &Context{
		compactedBy: compactedBy,
		canonCache:  make(map[string]string, len(compactedBy)),
		compactors:  compactors,
		values:      values,
	}

	for id := range compactedBy {
		_, err := ctx.resolve(id, make(map[string]bool))
		if err != nil {
			return nil, err
		}
	}

	return ctx, nil
}

// resolve walks compactedBy to a fixed point, detecting cycles via the
// visiting set, and memoizes the result.
func (c *Context) resolve(id string, visiting map[string]bool) (string, error) {
	if canon, ok := c.canonCache[id]; ok {
		return canon, nil
	}

	ancestor, ok := c.compactedBy[id]
	if !ok {
		c.canonCache[id] = id

		return id, nil
	}

	if visiting[id] {
		return "", qipuerr.New(qipuerr.InvalidValue,
			fmt.Errorf("compaction cycle detected at %s", id), qipuerr.WithID(id))
	}

	visiting[id] = true

	canon, err := c.resolve(ancestor, visiting)
	if err != nil {
		return "", err
	}

	c.canonCache[id] = canon

	return canon, nil
}

// Canon returns the id a reader should see for id after compaction.
func (c *Context) Canon(id string) string {
	if c == nil {
		return id
	}

	if canon, ok := c.canonCache[id]; ok {
		return canon
	}

	return id
}

// IsCompacted reports whether id is subsumed by some other note.
func (c *Context) IsCompacted(id string) bool {
	if c == nil {
		return false
	}

	_, ok := c.compactedBy[id]

	return ok
}

// CompactsCount returns how many ids directly or transitively canonicalize
// to id (i.e. id's net absorbed-note count).
func (c *Context) CompactsCount(id string) int {
	if c == nil {
		return 0
	}

	count := 0

	for compacted := range c.compactedBy {
		if compacted != id && c.Canon(compacted) == id {
			count++
		}
	}

	return count
}

// CompactedIDs returns the ids that canonicalize to id (breadth-first over
// the direct-compactor relation, bounded by depth and max), and whether the
// result was truncated by max.
func (c *Context) CompactedIDs(id string, depth, max int) ([]string, bool) {
	if c == nil {
		return nil, false
	}

	var result []string

	truncated := false

	frontier := []string{id}

	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []string

		for _, cur := range frontier {
			for _, child := range c.compactors[cur] {
				if max > 0 && len(result) >= max {
					truncated = true

					return result, truncated
				}

				result = append(result, child)
				next = append(next, child)
			}
		}

		frontier = next
	}

	return result, truncated
}
