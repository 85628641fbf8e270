package doctor

// stopWords is a small fixed English stop-word list consulted before
// tokenizing a note for near-duplicate comparison — grounded in
// original_source/tests/cli/duplicates.rs's
// test_doctor_duplicates_stop_word_list_coverage, which requires "a", "the",
// "is", "with", "and", "for", "of", "in", "on", "at", "by", "or" to be
// filtered out before scoring similarity. The exact list the source ships is
// not in the retrieved corpus (only the test), so this is this package's own
// reasonable completion — see DESIGN.md.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"with": true, "and": true, "or": true, "for": true, "of": true,
	"in": true, "on": true, "at": true, "by": true, "to": true, "from": true,
	"this": true, "that": true, "these": true, "those": true,
	"it": true, "its": true, "as": true, "but": true, "not": true,
}
