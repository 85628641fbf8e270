package doctor

import (
	"regexp"
	"strings"

	"github.com/qipu-dev/qipu/internal/note"
)

// bareLinkLinePattern matches a body line that is *only* a wiki link list
// item — "- [[id]]" with nothing else — as opposed to a line that uses the
// link with narrative context ("- See [[id]] for more details"), which
// original_source's test_doctor_bare_link_lists_with_context expects to
// pass cleanly.
var bareLinkLinePattern = regexp.MustCompile(`^\s*-\s*\[\[[^\]|]*(\|[^\]]*)?\]\]\s*$`)

// CheckBareLinkLists flags notes whose body contains a line that is only a
// wiki-link list item, with no surrounding narrative text.
func CheckBareLinkLists(notes []*note.Note, result *Result) {
	for _, n := range notes {
		for _, line := range strings.Split(n.Body, "\n") {
			if bareLinkLinePattern.MatchString(line) {
				result.add(SeverityWarning, "bare-link-list", n.ID,
					"body line is a bare link with no narrative context: "+strings.TrimSpace(line))
			}
		}
	}
}

// noteComplexityWordThreshold is the word-count above which a note body is
// flagged for splitting — grounded in
// original_source/src/commands/doctor/content/tests.rs's
// test_doctor_note_complexity_too_long, which repeats a single word 1600
// times and expects a warning, while a short, ordinary sentence (dozen
// words) does not.
const noteComplexityWordThreshold = 1500

// CheckNoteComplexity flags notes whose body is long enough to suggest
// splitting into smaller notes.
func CheckNoteComplexity(notes []*note.Note, result *Result) {
	for _, n := range notes {
		words := len(strings.Fields(n.Body))
		if words > noteComplexityWordThreshold {
			result.add(SeverityWarning, "note-complexity", n.ID,
				"body is long enough to consider splitting into smaller notes")
		}
	}
}
