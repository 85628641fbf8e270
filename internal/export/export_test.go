package export

import (
	"strings"
	"testing"

	"github.com/qipu-dev/qipu/internal/note"
)

func TestRenderBundleOrderAndSeparator(t *testing.T) {
	t.Parallel()

	notes := []*note.Note{
		{ID: "qp-bbbb", Title: "Note B", Type: "fleeting", Body: "Body B"},
		{ID: "qp-cccc", Title: "Note C", Type: "fleeting", Body: "Body C"},
	}

	got := Render(notes, Options{Mode: ModeBundle, LinkMode: LinkPreserve})

	want := "## Note: Note B (qp-bbbb)\n\n**Type:** fleeting\n\nBody B\n\n---\n\n## Note: Note C (qp-cccc)\n\n**Type:** fleeting\n\nBody C"
	if got != want {
		t.Fatalf("Render =\n%q\nwant\n%q", got, want)
	}
}

func TestRenderOutlineHeading(t *testing.T) {
	t.Parallel()

	notes := []*note.Note{
		{ID: "qp-bbbb", Title: "Note B", Body: "Body B"},
		{ID: "qp-aaaa", Title: "Note A", Body: "Body A"},
	}

	got := Render(notes, Options{Mode: ModeOutline, LinkMode: LinkPreserve})

	if !strings.Contains(got, "## Note B (qp-bbbb)\n\nBody B\n\n---\n\n## Note A (qp-aaaa)") {
		t.Fatalf("Render = %q, want outline heading with no 'Note:' prefix", got)
	}
}

func TestRenderLinkModePreserve(t *testing.T) {
	t.Parallel()

	notes := []*note.Note{
		{ID: "qp-aaaa", Title: "Note A", Body: "See [[qp-bbbb]] and [[qp-cccc|Custom Label]]"},
		{ID: "qp-bbbb", Title: "Note B", Body: "Body B"},
		{ID: "qp-cccc", Title: "Note C", Body: "Body C"},
	}

	got := Render(notes, Options{Mode: ModeBundle, LinkMode: LinkPreserve})

	if !strings.Contains(got, "See [[qp-bbbb]] and [[qp-cccc|Custom Label]]") {
		t.Fatalf("Render = %q, want wiki links unchanged", got)
	}
}

func TestRenderLinkModeMarkdown(t *testing.T) {
	t.Parallel()

	notes := []*note.Note{
		{ID: "qp-aaaa", Title: "Note A", Body: "See [[qp-bbbb]] for details"},
		{ID: "qp-bbbb", Title: "Note B", Body: "Body B", Path: ".qipu/notes/qp-bbbb-note-b.md"},
	}

	got := Render(notes, Options{Mode: ModeBundle, LinkMode: LinkMarkdown})

	if !strings.Contains(got, "[qp-bbbb](.qipu/notes/qp-bbbb-note-b.md)") {
		t.Fatalf("Render = %q, want wiki link rewritten to markdown path link", got)
	}

	if strings.Contains(got, "[[qp-bbbb]]") {
		t.Fatalf("Render = %q, want no remaining wiki link", got)
	}
}

func TestRenderLinkModeMarkdownPreservesLabelsAndExistingLinks(t *testing.T) {
	t.Parallel()

	notes := []*note.Note{
		{ID: "qp-aaaa", Title: "Note A",
			Body: "See [custom link](.qipu/notes/qp-bbbb-note-b.md) and [[qp-cccc]]",
			Path: ".qipu/notes/qp-aaaa-note-a.md"},
		{ID: "qp-bbbb", Title: "Note B", Body: "Body B", Path: ".qipu/notes/qp-bbbb-note-b.md"},
		{ID: "qp-cccc", Title: "Note C", Body: "Body C with [external](https://example.com)",
			Path: ".qipu/notes/qp-cccc-note-c.md"},
	}

	got := Render(notes, Options{Mode: ModeOutline, LinkMode: LinkMarkdown})

	if !strings.Contains(got, "See [custom link](.qipu/notes/qp-bbbb-note-b.md)") {
		t.Fatalf("Render = %q, want pre-existing markdown link untouched", got)
	}

	if !strings.Contains(got, "[qp-cccc](.qipu/notes/qp-cccc-note-c.md)") {
		t.Fatalf("Render = %q, want wiki link converted", got)
	}

	if !strings.Contains(got, "Body C with [external](https://example.com)") {
		t.Fatalf("Render = %q, want unrelated external link untouched", got)
	}
}

func TestRenderLinkModeAnchors(t *testing.T) {
	t.Parallel()

	notes := []*note.Note{
		{ID: "qp-aaaa", Title: "Note A", Body: "See [[qp-bbbb]]"},
		{ID: "qp-bbbb", Title: "Note B", Body: "Body B"},
	}

	got := Render(notes, Options{Mode: ModeOutline, LinkMode: LinkAnchors})

	if !strings.Contains(got, `<a id="note-qp-aaaa"></a>`) || !strings.Contains(got, `<a id="note-qp-bbbb"></a>`) {
		t.Fatalf("Render = %q, want an anchor before each section", got)
	}

	if !strings.Contains(got, "See [qp-bbbb](#note-qp-bbbb)") {
		t.Fatalf("Render = %q, want wiki link rewritten to an anchor link", got)
	}
}

func TestRenderLinkModeAnchorsRewritesExistingMarkdownIDLinks(t *testing.T) {
	t.Parallel()

	notes := []*note.Note{
		{ID: "qp-bbbb", Title: "Note B", Body: "See [[qp-aaaa|Note A]] and [ref](qp-aaaa)"},
		{ID: "qp-aaaa", Title: "Note A", Body: "Body A"},
	}

	got := Render(notes, Options{Mode: ModeBundle, LinkMode: LinkAnchors})

	if !strings.Contains(got, "See [Note A](#note-qp-aaaa) and [ref](#note-qp-aaaa)") {
		t.Fatalf("Render = %q, want both wiki and markdown id links rewritten to anchors", got)
	}
}

func TestBibliographyFormat(t *testing.T) {
	t.Parallel()

	n := &note.Note{
		ID: "qp-aaaa", Title: "Research Note",
		Sources: []note.Source{{URL: "https://example.com/article", Title: "Example Article", Accessed: "2024-01-15"}},
	}

	out := string(Bibliography([]*note.Note{n}))

	for _, want := range []string{
		`"type": "webpage"`,
		`"URL": "https://example.com/article"`,
		`"title": "Example Article"`,
		`"accessed"`,
		`"date-parts"`,
		`"note": "From: Research Note"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("Bibliography = %s, want substring %q", out, want)
		}
	}
}

func TestBibliographyEmpty(t *testing.T) {
	t.Parallel()

	n := &note.Note{ID: "qp-aaaa", Title: "Note Without Sources"}

	out := string(Bibliography([]*note.Note{n}))
	if !strings.Contains(out, "[]") {
		t.Fatalf("Bibliography = %s, want []", out)
	}
}

func TestBibliographyMissingTitle(t *testing.T) {
	t.Parallel()

	n := &note.Note{
		ID: "qp-aaaa", Title: "Note Without Title",
		Sources: []note.Source{{URL: "https://example.com/no-title", Accessed: "2024-01-15"}},
	}

	out := string(Bibliography([]*note.Note{n}))

	if strings.Contains(out, `"title"`) {
		t.Fatalf("Bibliography = %s, want no title field", out)
	}

	if !strings.Contains(out, `"note": "From: Note Without Title"`) {
		t.Fatalf("Bibliography = %s, want note attribution", out)
	}
}

func TestBibliographyMissingAccessed(t *testing.T) {
	t.Parallel()

	n := &note.Note{
		ID: "qp-aaaa", Title: "Note Without Accessed",
		Sources: []note.Source{{URL: "https://example.com/no-accessed", Title: "Article Title"}},
	}

	out := string(Bibliography([]*note.Note{n}))

	if strings.Contains(out, `"accessed"`) {
		t.Fatalf("Bibliography = %s, want no accessed field", out)
	}
}
