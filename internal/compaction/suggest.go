package compaction

// SuggestValue computes an advisory value for a compactor note from the
// values of the notes it directly or transitively subsumes (mean, capped to
// [0,100]). It never mutates a note — the caller decides whether to apply
// it. Grounded in the observed behavior of
// original_source/tests/cli/compact/suggest_value.rs (the implementation
// itself is not present in the retrieved corpus, only this test).
//
// Reports ok=false when id compacts nothing, in which case there is no
// suggestion to make.
func (c *Context) SuggestValue(id string) (value int, ok bool) {
	if c == nil {
		return 0, false
	}

	ids, _ := c.CompactedIDs(id, len(c.compactedBy)+1, 0)
	if len(ids) == 0 {
		return 0, false
	}

	sum := 0
	for _, compacted := range ids {
		sum += c.values[compacted]
	}

	mean := sum / len(ids)

	switch {
	case mean < 0:
		mean = 0
	case mean > 100:
		mean = 100
	}

	return mean, true
}
