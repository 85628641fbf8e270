package index

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/qipu-dev/qipu/internal/note"
)

func openTestIndex(t *testing.T) (*Index, context.Context) {
	t.Helper()

	ctx := context.Background()
	dir := t.TempDir()

	idx, err := Open(ctx, filepath.Join(dir, "qipu.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
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

	return idx, ctx
}

func TestInsertAndQuery(t *testing.T) {
	t.Parallel()

	idx, ctx := openTestIndex(t)

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	a := &note.Note{ID: "qp-a", Title: "Alpha", Type: "permanent", Tags: []string{"x"}, Value: 50, Created: &created,
		Links: []note.Link{{Type: "supports", ID: "qp-b"}}, Body: "refs [[qp-c]] too"}

	tx, err := idx.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}

	if err := InsertNote(ctx, tx, a); err != nil {
		t.Fatalf("InsertNote: %v", err)
	}

	if err := InsertEdges(ctx, tx, a, nil); err != nil {
		t.Fatalf("InsertEdges: %v", err)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	meta, err := GetMetadata(ctx, idx.DB(), "qp-a")
	if err != nil || meta == nil {
		t.Fatalf("GetMetadata: %+v, %v", meta, err)
	}

	if meta.Title != "Alpha" {
		t.Fatalf("Title = %q", meta.Title)
	}

	out, err := GetOutboundEdges(ctx, idx.DB(), "qp-a")
	if err != nil {
		t.Fatalf("GetOutboundEdges: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("want 2 outbound edges, got %d: %+v", len(out), out)
	}

	ids, err := ListNoteIDs(ctx, idx.DB())
	if err != nil {
		t.Fatalf("ListNoteIDs: %v", err)
	}

	if len(ids) != 1 || ids[0] != "qp-a" {
		t.Fatalf("ListNoteIDs = %v", ids)
	}
}

func TestFreshSchemaDoesNotNeedRebuild(t *testing.T) {
	t.Parallel()

	idx, ctx := openTestIndex(t)

	needs, err := idx.NeedsRebuild(ctx)
	if err != nil {
		t.Fatalf("NeedsRebuild: %v", err)
	}

	if needs {
		t.Fatalf("freshly stamped schema should not need rebuild")
	}
}
