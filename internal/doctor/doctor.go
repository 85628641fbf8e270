// Package doctor runs the offline, never-mutating health checks spec §4.10
// names: broken/orphaned attachments, compaction invariants, value range,
// bare-link-list bodies, note-length complexity, and near-duplicate
// detection. New code; grounded directly in
// original_source/src/commands/doctor/content/tests.rs (check names,
// severities, message substrings) and original_source/tests/cli/
// duplicates.rs (stop-word/threshold behavior) — only the tests are present
// in the retrieved corpus, not the check implementations, so each check's
// exact algorithm is reconstructed from what its test asserts.
package doctor

import (
	"errors"
	"strconv"

	"github.com/qipu-dev/qipu/internal/compaction"
	"github.com/qipu-dev/qipu/internal/note"
	"github.com/qipu-dev/qipu/internal/qipuerr"
	"github.com/qipu-dev/qipu/internal/store"
)

// Severity classifies an Issue (spec §4.10: "error, warning").
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding from a check.
type Issue struct {
	Severity Severity
	Category string // e.g. "broken-attachment", "compaction-invariant"
	NoteID   string
	Message  string
}

// Result accumulates issues across every check Run performs.
type Result struct {
	Issues []Issue
}

func (r *Result) add(sev Severity, category, noteID, message string) {
	r.Issues = append(r.Issues, Issue{Severity: sev, Category: category, NoteID: noteID, Message: message})
}

func (r *Result) ErrorCount() int {
	n := 0

	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			n++
		}
	}

	return n
}

func (r *Result) WarningCount() int {
	n := 0

	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			n++
		}
	}

	return n
}

// Healthy reports whether Run found nothing to report ("Store is healthy").
func (r *Result) Healthy() bool {
	return len(r.Issues) == 0
}

// Options configures the optional, costlier checks.
type Options struct {
	Duplicates         bool // run near-duplicate detection
	DuplicateThreshold float64
}

// DefaultOptions mirrors qconfig.Default's duplicate_threshold.
func DefaultOptions() Options {
	return Options{DuplicateThreshold: 0.7}
}

// Run performs every check over notes, plus CheckAttachments against layout.
// Near-duplicate detection only runs when opts.Duplicates is set — it's
// O(n^2) and opt-in on the source CLI (`doctor --duplicates`).
func Run(notes []*note.Note, layout store.Layout, opts Options) *Result {
	result := &Result{}

	CheckAttachments(notes, layout, result)
	CheckCompactionInvariants(notes, result)
	CheckValueRange(notes, result)
	CheckBareLinkLists(notes, result)
	CheckNoteComplexity(notes, result)

	if opts.Duplicates {
		threshold := opts.DuplicateThreshold
		if threshold == 0 {
			threshold = DefaultOptions().DuplicateThreshold
		}

		CheckNearDuplicates(notes, threshold, result)
	}

	return result
}

// CheckCompactionInvariants re-surfaces compaction.New's construction-time
// validation (cycle, self-compaction, multiple compactors) as doctor issues
// instead of a hard error, since a store that fails these invariants should
// still be diagnosable rather than refusing to load entirely.
func CheckCompactionInvariants(notes []*note.Note, result *Result) {
	if _, err := compaction.New(notes); err != nil {
		id := ""

		var qErr *qipuerr.Error
		if errors.As(err, &qErr) {
			id = qErr.ID
		}

		result.add(SeverityError, "compaction-invariant", id, err.Error())
	}

	dangling := map[string]bool{}

	byID := make(map[string]bool, len(notes))
	for _, n := range notes {
		byID[n.ID] = true
	}

	for _, n := range notes {
		for _, c := range n.Compacts {
			if !byID[c] && !dangling[n.ID+"|"+c] {
				dangling[n.ID+"|"+c] = true

				result.add(SeverityWarning, "compaction-invariant", n.ID,
					"compacts a note not present in the store: "+c)
			}
		}
	}
}

// CheckValueRange flags any note whose value is outside [0,100].
func CheckValueRange(notes []*note.Note, result *Result) {
	for _, n := range notes {
		if n.Value < 0 || n.Value > 100 {
			result.add(SeverityError, "invalid-value", n.ID,
				"value out of range [0,100]: "+strconv.Itoa(n.Value))
		}
	}
}
