package ontology

import "testing"

func TestDefaultInverses(t *testing.T) {
	t.Parallel()

	o := Default()

	cases := map[string]string{
		"supports":    "supported-by",
		"related":     "related",
		"same-as":     "same-as",
		"part-of":     "has-part",
		"unknown-lbl": "inverse-unknown-lbl",
	}

	for label, want := range cases {
		if got := o.Inverse(label); got != want {
			t.Errorf("Inverse(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestReplacementModeWithoutLinkTypes(t *testing.T) {
	t.Parallel()

	// Open question resolved literally per spec: in replacement mode with no
	// configured link types, every inverse is synthetic and nothing is a
	// valid link type.
	o, err := New(Config{Mode: ModeReplacement})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if o.IsValidLinkType("supports") {
		t.Fatalf("expected no valid link types in bare replacement mode")
	}

	if got := o.Inverse("supports"); got != "inverse-supports" {
		t.Fatalf("Inverse(supports) = %q, want inverse-supports", got)
	}
}

func TestExtendedModeUnion(t *testing.T) {
	t.Parallel()

	o, err := New(Config{
		Mode:      ModeExtended,
		LinkTypes: []LinkType{{Label: "cites", Inverse: "cited-by"}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !o.IsValidLinkType("supports") || !o.IsValidLinkType("cites") {
		t.Fatalf("expected union of default and user link types")
	}
}

func TestNoteTypesLexicographic(t *testing.T) {
	t.Parallel()

	o := Default()
	types := o.NoteTypes()

	for i := 1; i < len(types); i++ {
		if types[i-1] > types[i] {
			t.Fatalf("NoteTypes() not sorted: %v", types)
		}
	}
}
