package doctor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qipu-dev/qipu/internal/note"
	"github.com/qipu-dev/qipu/internal/store"
)

func hasIssue(issues []Issue, category string) bool {
	for _, i := range issues {
		if i.Category == category {
			return true
		}
	}

	return false
}

func countCategory(issues []Issue, category string) int {
	n := 0

	for _, i := range issues {
		if i.Category == category {
			n++
		}
	}

	return n
}

func TestCheckBareLinkLists(t *testing.T) {
	t.Parallel()

	n := &note.Note{ID: "qp-1", Title: "Note 1", Body: "- [[qp-2]]\n- [[qp-3]]\n"}

	result := &Result{}
	CheckBareLinkLists([]*note.Note{n}, result)

	if result.WarningCount() < 1 || !hasIssue(result.Issues, "bare-link-list") {
		t.Fatalf("issues = %+v, want >=1 bare-link-list warning", result.Issues)
	}
}

func TestCheckBareLinkListsWithContext(t *testing.T) {
	t.Parallel()

	n := &note.Note{ID: "qp-1", Title: "Note 1",
		Body: "- See [[qp-2]] for more details on this topic\n- [[qp-3]] explains the counter-argument\n"}

	result := &Result{}
	CheckBareLinkLists([]*note.Note{n}, result)

	if countCategory(result.Issues, "bare-link-list") != 0 {
		t.Fatalf("issues = %+v, want no bare-link-list warning", result.Issues)
	}
}

func TestCheckNoteComplexityTooLong(t *testing.T) {
	t.Parallel()

	n := &note.Note{ID: "qp-1", Title: "Note 1", Body: strings.Repeat("word ", 1600) + "\n\nThis note is very long."}

	result := &Result{}
	CheckNoteComplexity([]*note.Note{n}, result)

	if result.WarningCount() < 1 || !hasIssue(result.Issues, "note-complexity") {
		t.Fatalf("issues = %+v, want note-complexity warning", result.Issues)
	}
}

func TestCheckNoteComplexityNormal(t *testing.T) {
	t.Parallel()

	n := &note.Note{ID: "qp-1", Title: "Note 1", Body: "This is a normal note with reasonable length."}

	result := &Result{}
	CheckNoteComplexity([]*note.Note{n}, result)

	if countCategory(result.Issues, "note-complexity") != 0 {
		t.Fatalf("issues = %+v, want no note-complexity warning", result.Issues)
	}
}

func TestCheckCompactionCycle(t *testing.T) {
	t.Parallel()

	n1 := &note.Note{ID: "qp-1", Title: "Note 1", Compacts: []string{"qp-2"}}
	n2 := &note.Note{ID: "qp-2", Title: "Note 2", Compacts: []string{"qp-1"}}

	result := &Result{}
	CheckCompactionInvariants([]*note.Note{n1, n2}, result)

	if result.ErrorCount() == 0 {
		t.Fatalf("expected a compaction-invariant error for a cycle")
	}

	found := false

	for _, i := range result.Issues {
		if i.Category == "compaction-invariant" && strings.Contains(i.Message, "cycle") {
			found = true
		}
	}

	if !found {
		t.Fatalf("issues = %+v, want one mentioning 'cycle'", result.Issues)
	}
}

func TestCheckCompactionSelfCompaction(t *testing.T) {
	t.Parallel()

	n := &note.Note{ID: "qp-1", Title: "Note 1", Compacts: []string{"qp-1"}}

	result := &Result{}
	CheckCompactionInvariants([]*note.Note{n}, result)

	if result.ErrorCount() == 0 {
		t.Fatalf("expected a compaction-invariant error for self-compaction")
	}
}

func TestCheckCompactionMultipleCompactors(t *testing.T) {
	t.Parallel()

	base := &note.Note{ID: "qp-1", Title: "Note 1"}
	d1 := &note.Note{ID: "qp-d1", Title: "Digest 1", Compacts: []string{"qp-1"}}
	d2 := &note.Note{ID: "qp-d2", Title: "Digest 2", Compacts: []string{"qp-1"}}

	result := &Result{}
	CheckCompactionInvariants([]*note.Note{base, d1, d2}, result)

	if result.ErrorCount() == 0 {
		t.Fatalf("expected a compaction-invariant error for multiple compactors")
	}
}

func TestCheckCompactionValid(t *testing.T) {
	t.Parallel()

	n1 := &note.Note{ID: "qp-1", Title: "Note 1"}
	n2 := &note.Note{ID: "qp-2", Title: "Note 2"}
	d := &note.Note{ID: "qp-digest", Title: "Digest", Compacts: []string{"qp-1", "qp-2"}}

	result := &Result{}
	CheckCompactionInvariants([]*note.Note{n1, n2, d}, result)

	if result.ErrorCount() != 0 {
		t.Fatalf("issues = %+v, want none", result.Issues)
	}
}

func TestCheckCompactionDangling(t *testing.T) {
	t.Parallel()

	d := &note.Note{ID: "qp-digest", Title: "Digest", Compacts: []string{"qp-ghost"}}

	result := &Result{}
	CheckCompactionInvariants([]*note.Note{d}, result)

	if result.WarningCount() == 0 || !hasIssue(result.Issues, "compaction-invariant") {
		t.Fatalf("issues = %+v, want a dangling-compacts warning", result.Issues)
	}

	if result.ErrorCount() != 0 {
		t.Fatalf("issues = %+v, a dangling compaction must stay a warning so partial packs stay loadable", result.Issues)
	}
}

func TestCheckValueRange(t *testing.T) {
	t.Parallel()

	high := &note.Note{ID: "qp-1", Title: "Note 1", Value: 150}

	result := &Result{}
	CheckValueRange([]*note.Note{high}, result)

	if result.ErrorCount() != 1 || !strings.Contains(result.Issues[0].Message, "150") {
		t.Fatalf("issues = %+v, want one invalid-value mentioning 150", result.Issues)
	}
}

func TestCheckValueRangeBoundary(t *testing.T) {
	t.Parallel()

	ok := &note.Note{ID: "qp-1", Title: "Note 1", Value: 100}
	bad := &note.Note{ID: "qp-2", Title: "Note 2", Value: 101}

	result := &Result{}
	CheckValueRange([]*note.Note{ok, bad}, result)

	if result.ErrorCount() != 1 || !strings.Contains(result.Issues[0].Message, "101") {
		t.Fatalf("issues = %+v, want one invalid-value mentioning 101", result.Issues)
	}
}

func TestCheckAttachments(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	l, err := store.Init(root)
	if err != nil {
		t.Fatalf("store.Init: %v", err)
	}

	if err := os.WriteFile(filepath.Join(l.AttachmentsDir(), "valid.png"), []byte("dummy data"), 0o644); err != nil {
		t.Fatalf("write valid.png: %v", err)
	}

	if err := os.WriteFile(filepath.Join(l.AttachmentsDir(), "orphaned.txt"), []byte("nobody loves me"), 0o644); err != nil {
		t.Fatalf("write orphaned.txt: %v", err)
	}

	n1 := &note.Note{ID: "qp-1", Title: "Note 1", Body: "![Valid](../attachments/valid.png)"}
	n2 := &note.Note{ID: "qp-2", Title: "Note 2", Body: "![Broken](../attachments/missing.jpg)"}

	result := &Result{}
	CheckAttachments([]*note.Note{n1, n2}, l, result)

	if result.ErrorCount() != 1 || result.WarningCount() != 1 {
		t.Fatalf("issues = %+v, want 1 error + 1 warning", result.Issues)
	}

	foundBroken, foundOrphaned := false, false

	for _, i := range result.Issues {
		if i.Category == "broken-attachment" && strings.Contains(i.Message, "missing.jpg") {
			foundBroken = true
		}

		if i.Category == "orphaned-attachment" && strings.Contains(i.Message, "orphaned.txt") {
			foundOrphaned = true
		}
	}

	if !foundBroken || !foundOrphaned {
		t.Fatalf("issues = %+v, want broken-attachment(missing.jpg) + orphaned-attachment(orphaned.txt)", result.Issues)
	}
}

func TestCheckNearDuplicatesThreshold(t *testing.T) {
	t.Parallel()

	n1 := &note.Note{ID: "qp-note1", Title: "Similar Note",
		Body: "This is a note about apple banana and cherry fruits and many more fruits that are delicious and healthy to eat every day."}
	n2 := &note.Note{ID: "qp-note2", Title: "Similar Note",
		Body: "This is a note about apple banana and cherry fruits and many more fruits that are delicious and healthy to eat every day."}
	n3 := &note.Note{ID: "qp-note3", Title: "Different Note",
		Body: "This is a completely different note about programming and coding."}

	result := &Result{}
	CheckNearDuplicates([]*note.Note{n1, n2, n3}, 0.5, result)

	if !hasIssue(result.Issues, "near-duplicate") {
		t.Fatalf("issues = %+v, want a near-duplicate finding for qp-note1/qp-note2", result.Issues)
	}
}

func TestCheckNearDuplicatesStopWordsOnlyDifference(t *testing.T) {
	t.Parallel()

	n1 := &note.Note{ID: "qp-same1", Title: "Graph Theory",
		Body: "graph algorithms data structures computer science"}
	n2 := &note.Note{ID: "qp-same2", Title: "Graph Theory",
		Body: "the graph is with algorithms and for data of structures in computer on science"}

	result := &Result{}
	CheckNearDuplicates([]*note.Note{n1, n2}, 0.9, result)

	if !hasIssue(result.Issues, "near-duplicate") {
		t.Fatalf("issues = %+v, want a near-duplicate finding once stop words are ignored", result.Issues)
	}
}

func TestCheckNearDuplicatesRequiresContentOverlap(t *testing.T) {
	t.Parallel()

	n1 := &note.Note{ID: "qp-diff1", Title: "Machine Learning",
		Body: "This is a note about neural networks and deep learning algorithms for artificial intelligence."}
	n2 := &note.Note{ID: "qp-diff2", Title: "Database Systems",
		Body: "This is a note about relational databases and query optimization techniques for data storage."}

	result := &Result{}
	CheckNearDuplicates([]*note.Note{n1, n2}, 0.3, result)

	if hasIssue(result.Issues, "near-duplicate") {
		t.Fatalf("issues = %+v, want no near-duplicate finding at threshold 0.3", result.Issues)
	}
}

func TestResultHealthy(t *testing.T) {
	t.Parallel()

	result := &Result{}
	if !result.Healthy() {
		t.Fatalf("expected a fresh Result to be healthy")
	}

	result.add(SeverityWarning, "x", "", "y")

	if result.Healthy() {
		t.Fatalf("expected a Result with issues to be unhealthy")
	}
}
