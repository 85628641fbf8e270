package selector

import (
	"context"
	"testing"

	"github.com/qipu-dev/qipu/internal/compaction"
	"github.com/qipu-dev/qipu/internal/index"
	"github.com/qipu-dev/qipu/internal/note"
	"github.com/qipu-dev/qipu/internal/rebuild"
	"github.com/qipu-dev/qipu/internal/store"
)

func openFixture(t *testing.T) (*store.Store, *index.Index, context.Context) {
	t.Helper()

	ctx := context.Background()
	root := t.TempDir()

	l, err := store.Init(root)
	if err != nil {
		t.Fatalf("store.Init: %v", err)
	}

	idx, err := index.Open(ctx, l.DBPath())
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}

	t.Cleanup(func() { _ = idx.Close() })

	tx, err := idx.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}

	if err := idx.RecreateSchema(ctx, tx); err != nil {
		t.Fatalf("RecreateSchema: %v", err)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit schema: %v", err)
	}

	return store.Open(l), idx, ctx
}

func save(t *testing.T, s *store.Store, idx *index.Index, ctx context.Context, n *note.Note) {
	t.Helper()

	if err := s.SaveNote(n); err != nil {
		t.Fatalf("SaveNote %s: %v", n.ID, err)
	}

	if err := rebuild.ReindexNote(ctx, idx, n); err != nil {
		t.Fatalf("ReindexNote %s: %v", n.ID, err)
	}
}

func TestSelectByTag(t *testing.T) {
	t.Parallel()

	s, idx, ctx := openFixture(t)

	save(t, s, idx, ctx, &note.Note{ID: "qp-a", Title: "A", Type: "permanent", Value: 50, Tags: []string{"x"}})
	save(t, s, idx, ctx, &note.Note{ID: "qp-b", Title: "B", Type: "permanent", Value: 50, Tags: []string{"y"}})

	ids, err := Select(ctx, idx, s.GetNote, Criteria{Tag: "x"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	if len(ids) != 1 || ids[0] != "qp-a" {
		t.Fatalf("ids = %v, want [qp-a]", ids)
	}
}

func TestSelectORsInputs(t *testing.T) {
	t.Parallel()

	s, idx, ctx := openFixture(t)

	save(t, s, idx, ctx, &note.Note{ID: "qp-a", Title: "A", Type: "permanent", Value: 50, Tags: []string{"x"}})
	save(t, s, idx, ctx, &note.Note{ID: "qp-b", Title: "B", Type: "permanent", Value: 50})

	ids, err := Select(ctx, idx, s.GetNote, Criteria{IDs: []string{"qp-b"}, Tag: "x"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	want := map[string]bool{"qp-a": true, "qp-b": true}
	if len(ids) != 2 || !want[ids[0]] || !want[ids[1]] {
		t.Fatalf("ids = %v, want union of {qp-a,qp-b}", ids)
	}
}

// TestSelectMOCExpansionOrder: typed links first, then wiki links, then
// qualifying markdown links; a target missing from the index is skipped.
func TestSelectMOCExpansionOrder(t *testing.T) {
	t.Parallel()

	s, idx, ctx := openFixture(t)

	save(t, s, idx, ctx, &note.Note{ID: "qp-typed", Title: "Typed", Type: "permanent", Value: 50})
	save(t, s, idx, ctx, &note.Note{ID: "qp-wiki", Title: "Wiki", Type: "permanent", Value: 50})
	save(t, s, idx, ctx, &note.Note{ID: "qp-md", Title: "Markdown", Type: "permanent", Value: 50})

	moc := &note.Note{
		ID: "qp-moc", Title: "MOC", Type: "moc", Value: 50,
		Links: []note.Link{{Type: "related", ID: "qp-typed"}},
		Body:  "see [[qp-wiki]] and [a link](qp-md) and [missing](qp-ghost)",
	}
	save(t, s, idx, ctx, moc)

	ids, err := Select(ctx, idx, s.GetNote, Criteria{MOCID: "qp-moc"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	want := []string{"qp-typed", "qp-wiki", "qp-md"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}

	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("ids = %v, want %v (order matters)", ids, want)
		}
	}
}

func TestSelectMOCTransitiveExpandsNestedMOC(t *testing.T) {
	t.Parallel()

	s, idx, ctx := openFixture(t)

	save(t, s, idx, ctx, &note.Note{ID: "qp-leaf", Title: "Leaf", Type: "permanent", Value: 50})

	inner := &note.Note{ID: "qp-inner", Title: "Inner MOC", Type: "moc", Value: 50,
		Links: []note.Link{{Type: "related", ID: "qp-leaf"}}}
	save(t, s, idx, ctx, inner)

	outer := &note.Note{ID: "qp-outer", Title: "Outer MOC", Type: "moc", Value: 50,
		Links: []note.Link{{Type: "related", ID: "qp-inner"}}}
	save(t, s, idx, ctx, outer)

	nonTransitive, err := Select(ctx, idx, s.GetNote, Criteria{MOCID: "qp-outer"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	if len(nonTransitive) != 1 || nonTransitive[0] != "qp-inner" {
		t.Fatalf("non-transitive ids = %v, want [qp-inner]", nonTransitive)
	}

	transitive, err := Select(ctx, idx, s.GetNote, Criteria{MOCID: "qp-outer", Transitive: true})
	if err != nil {
		t.Fatalf("Select transitive: %v", err)
	}

	want := map[string]bool{"qp-inner": true, "qp-leaf": true}
	if len(transitive) != 2 || !want[transitive[0]] || !want[transitive[1]] {
		t.Fatalf("transitive ids = %v, want {qp-inner,qp-leaf}", transitive)
	}
}

func TestParseExprVariants(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Expr
	}{
		{"status=done", Expr{Key: "status", Op: OpEq, Value: "done"}},
		{"archived", Expr{Key: "archived", Op: OpExists}},
		{"!archived", Expr{Key: "archived", Op: OpNotExists}},
		{"priority>3", Expr{Key: "priority", Op: OpGT, Value: "3"}},
		{"priority>=3", Expr{Key: "priority", Op: OpGTE, Value: "3"}},
		{"priority<3", Expr{Key: "priority", Op: OpLT, Value: "3"}},
		{"priority<=3", Expr{Key: "priority", Op: OpLTE, Value: "3"}},
	}

	for _, tc := range cases {
		got, err := ParseExpr(tc.in)
		if err != nil {
			t.Fatalf("ParseExpr(%q): %v", tc.in, err)
		}

		if got != tc.want {
			t.Fatalf("ParseExpr(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestMatchExprNumericCoercion(t *testing.T) {
	t.Parallel()

	n := &note.Note{ID: "qp-a", Title: "A", Custom: map[string]any{
		"priority": "3", "urgent": true, "note": "x",
	}}

	cases := []struct {
		expr string
		want bool
	}{
		{"priority>2", true},
		{"priority>=3", true},
		{"priority<3", false},
		{"urgent>0", true},
		{"note>0", false}, // non-numeric string doesn't coerce
		{"missing=1", false},
		{"!missing", true},
	}

	for _, tc := range cases {
		e, err := ParseExpr(tc.expr)
		if err != nil {
			t.Fatalf("ParseExpr(%q): %v", tc.expr, err)
		}

		if got := matchExpr(n, e); got != tc.want {
			t.Fatalf("matchExpr(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestFilterHideCompactedDefaultTrue(t *testing.T) {
	t.Parallel()

	a := &note.Note{ID: "qp-a", Title: "A", Type: "permanent", Value: 50}
	b := &note.Note{ID: "qp-b", Title: "B", Type: "permanent", Value: 50, Compacts: []string{"qp-a"}}

	cctx, err := compaction.New([]*note.Note{a, b})
	if err != nil {
		t.Fatalf("compaction.New: %v", err)
	}

	got := Filter([]*note.Note{a, b}, DefaultFilter(), cctx)
	if len(got) != 1 || got[0].ID != "qp-b" {
		t.Fatalf("got = %v, want only qp-b (qp-a hidden, it is compacted)", got)
	}
}

func TestFilterTagEquivalence(t *testing.T) {
	t.Parallel()

	a := &note.Note{ID: "qp-a", Title: "A", Type: "permanent", Value: 50, Tags: []string{"ml"}}
	b := &note.Note{ID: "qp-b", Title: "B", Type: "permanent", Value: 50, Tags: []string{"machine-learning"}}
	c := &note.Note{ID: "qp-c", Title: "C", Type: "permanent", Value: 50, Tags: []string{"other"}}

	f := NoteFilter{Tag: "ml", TagEquivalents: map[string][]string{"ml": {"machine-learning"}}}

	got := Filter([]*note.Note{a, b, c}, f, nil)
	if len(got) != 2 {
		t.Fatalf("got = %v, want {qp-a,qp-b} widened by tag equivalence", got)
	}
}
