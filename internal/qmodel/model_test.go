package qmodel

import (
	"reflect"
	"testing"
)

func mustCreate(t *testing.T, m *Model, id string, value int) {
	t.Helper()

	if _, err := m.Create(UserCreateInput{Title: "note " + id, Value: value}, FuzzCreateInput{ID: id}); err != nil {
		t.Fatalf("create %s: %v", id, err)
	}
}

func mustLink(t *testing.T, m *Model, from, to, typ string) {
	t.Helper()

	if err := m.Link(UserLinkInput{From: from, To: to, Type: typ}); err != nil {
		t.Fatalf("link %s->%s: %v", from, to, err)
	}
}

// TestScenarioA mirrors spec.md §8 Scenario A: basic unweighted BFS.
func TestScenarioA(t *testing.T) {
	t.Parallel()

	m := New()
	mustCreate(t, m, "A", 50)
	mustCreate(t, m, "B", 50)
	mustCreate(t, m, "C", 50)
	mustLink(t, m, "A", "B", "supports")
	mustLink(t, m, "B", "C", "supports")

	got, err := m.Traverse(UserTraverseInput{Root: "A", Direction: DirOut, MaxHops: 5, IgnoreValue: true})
	if err != nil {
		t.Fatalf("traverse: %v", err)
	}

	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(got.Notes, want) {
		t.Fatalf("notes = %v, want %v", got.Notes, want)
	}

	if got.Truncated {
		t.Fatalf("truncated = true, want false")
	}
}

// TestScenarioB mirrors spec.md §8 Scenario B: value-weighted bound cuts
// off the walk before C is ever enqueued.
func TestScenarioB(t *testing.T) {
	t.Parallel()

	m := New()
	mustCreate(t, m, "A", 50)
	mustCreate(t, m, "B", 50)
	mustCreate(t, m, "C", 0)
	mustLink(t, m, "A", "B", "supports")
	mustLink(t, m, "B", "C", "supports")

	got, err := m.Traverse(UserTraverseInput{Root: "A", Direction: DirOut, MaxHops: 2.4, IgnoreValue: false})
	if err != nil {
		t.Fatalf("traverse: %v", err)
	}

	want := []string{"A", "B"}
	if !reflect.DeepEqual(got.Notes, want) {
		t.Fatalf("notes = %v, want %v", got.Notes, want)
	}

	if !got.Truncated {
		t.Fatalf("truncated = false, want true (max_hops cap hit at C)")
	}
}

// TestScenarioD mirrors spec.md §8 Scenario D: compaction folds B into D
// before traversal ever surfaces it.
func TestScenarioD(t *testing.T) {
	t.Parallel()

	m := New()
	mustCreate(t, m, "A", 50)
	mustCreate(t, m, "B", 50)
	mustCreate(t, m, "C", 50)
	mustCreate(t, m, "D", 50)
	mustLink(t, m, "A", "B", "related")

	if err := m.Compact(UserCompactInput{DigestID: "D", Absorbs: "B"}); err != nil {
		t.Fatalf("compact: %v", err)
	}

	got, err := m.Traverse(UserTraverseInput{Root: "A", Direction: DirOut, MaxHops: 5, IgnoreValue: true})
	if err != nil {
		t.Fatalf("traverse: %v", err)
	}

	for _, id := range got.Notes {
		if id == "B" {
			t.Fatalf("notes = %v, want B absent (compacted into D)", got.Notes)
		}
	}

	found := false

	for _, id := range got.Notes {
		if id == "D" {
			found = true
		}
	}

	if !found {
		t.Fatalf("notes = %v, want D present", got.Notes)
	}

	if got := m.Canon("B"); got != "D" {
		t.Fatalf("Canon(B) = %s, want D", got)
	}

	if n := m.CompactsCount("D"); n != 1 {
		t.Fatalf("CompactsCount(D) = %d, want 1", n)
	}
}

// TestScenarioF mirrors spec.md §8 Scenario F: min_value excludes B from
// the reachable set even though it sits on a path from A to D.
func TestScenarioF(t *testing.T) {
	t.Parallel()

	m := New()
	mustCreate(t, m, "A", 90)
	mustCreate(t, m, "B", 30)
	mustCreate(t, m, "C", 80)
	mustCreate(t, m, "D", 100)
	mustLink(t, m, "A", "B", "related")
	mustLink(t, m, "B", "D", "related")
	mustLink(t, m, "A", "C", "related")
	mustLink(t, m, "C", "D", "related")

	got, err := m.Traverse(UserTraverseInput{
		Root: "A", Direction: DirOut, MaxHops: 10, IgnoreValue: true,
		MinValue: 50, HasMinValue: true,
	})
	if err != nil {
		t.Fatalf("traverse: %v", err)
	}

	for _, id := range got.Notes {
		if id == "B" {
			t.Fatalf("notes = %v, want B excluded by min_value", got.Notes)
		}
	}

	want := []string{"A", "C", "D"}
	if !reflect.DeepEqual(got.Notes, want) {
		t.Fatalf("notes = %v, want %v", got.Notes, want)
	}
}

func TestCompactionRejectsSelfCompaction(t *testing.T) {
	t.Parallel()

	m := New()
	mustCreate(t, m, "A", 50)

	err := m.Compact(UserCompactInput{DigestID: "A", Absorbs: "A"})
	if err == nil || err.Code != ErrSelfCompaction {
		t.Fatalf("err = %v, want ErrSelfCompaction", err)
	}
}

func TestCompactionRejectsCycle(t *testing.T) {
	t.Parallel()

	m := New()
	mustCreate(t, m, "A", 50)
	mustCreate(t, m, "B", 50)

	if err := m.Compact(UserCompactInput{DigestID: "A", Absorbs: "B"}); err != nil {
		t.Fatalf("compact A<-B: %v", err)
	}

	err := m.Compact(UserCompactInput{DigestID: "B", Absorbs: "A"})
	if err == nil || err.Code != ErrCompactionCycle {
		t.Fatalf("err = %v, want ErrCompactionCycle", err)
	}
}

func TestCompactionRejectsMultipleCompactors(t *testing.T) {
	t.Parallel()

	m := New()
	mustCreate(t, m, "base", 50)
	mustCreate(t, m, "d1", 50)
	mustCreate(t, m, "d2", 50)

	if err := m.Compact(UserCompactInput{DigestID: "d1", Absorbs: "base"}); err != nil {
		t.Fatalf("compact d1<-base: %v", err)
	}

	err := m.Compact(UserCompactInput{DigestID: "d2", Absorbs: "base"})
	if err == nil || err.Code != ErrMultipleCompactor {
		t.Fatalf("err = %v, want ErrMultipleCompactor", err)
	}
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	m := New()
	mustCreate(t, m, "A", 50)

	_, err := m.Create(UserCreateInput{Title: "dup"}, FuzzCreateInput{ID: "A"})
	if err == nil || err.Code != ErrNoteAlreadyExists {
		t.Fatalf("err = %v, want ErrNoteAlreadyExists", err)
	}
}

func TestLinkRejectsUnknownEndpoints(t *testing.T) {
	t.Parallel()

	m := New()
	mustCreate(t, m, "A", 50)

	err := m.Link(UserLinkInput{From: "A", To: "ghost", Type: "related"})
	if err == nil || err.Code != ErrTargetNotFound {
		t.Fatalf("err = %v, want ErrTargetNotFound", err)
	}

	err = m.Link(UserLinkInput{From: "ghost", To: "A", Type: "related"})
	if err == nil || err.Code != ErrNoteNotFound {
		t.Fatalf("err = %v, want ErrNoteNotFound", err)
	}
}
