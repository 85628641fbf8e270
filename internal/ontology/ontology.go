// Package ontology merges default and user-defined note/link types and
// resolves inverse labels (spec §3 Ontology, §4.3).
package ontology

import (
	"fmt"
	"sort"
)

// Mode selects how user-defined types combine with the defaults.
type Mode string

const (
	ModeExtended    Mode = "extended"    // union of defaults and user config
	ModeReplacement Mode = "replacement" // user config only
)

// LinkType describes a link label and its inverse.
type LinkType struct {
	Label   string
	Inverse string
}

// Config is the user-supplied ontology override (spec §4.3).
type Config struct {
	Mode          Mode
	NoteTypes     []string
	LinkTypes     []LinkType
}

// defaultNoteTypes is the standard ontology's note type set (spec §3).
var defaultNoteTypes = []string{"fleeting", "literature", "permanent", "moc"}

// defaultLinkTypes is the standard ontology's link types and inverses.
var defaultLinkTypes = []LinkType{
	{"related", "related"},
	{"supports", "supported-by"},
	{"contradicts", "contradicted-by"},
	{"part-of", "has-part"},
	{"answers", "answered-by"},
	{"refines", "refined-by"},
	{"same-as", "same-as"},
	{"alias-of", "has-alias"},
	{"follows", "precedes"},
	{"derived-from", "derived-to"},
}

// Ontology answers type-validity and inverse-label questions.
type Ontology struct {
	noteTypes map[string]bool
	linkTypes map[string]string // label -> inverse
}

// New builds an Ontology from cfg. Mode defaults to extended when empty.
func New(cfg Config) (*Ontology, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeExtended
	}

	if mode != ModeExtended && mode != ModeReplacement {
		return nil, fmt.Errorf("ontology: unknown mode %q", mode)
	}

	o := &Ontology{
		noteTypes: make(map[string]bool),
		linkTypes: make(map[string]string),
	}

	if mode == ModeExtended {
		for _, nt := range defaultNoteTypes {
			o.noteTypes[nt] = true
		}

		for _, lt := range defaultLinkTypes {
			o.linkTypes[lt.Label] = lt.Inverse
		}
	}

	for _, nt := range cfg.NoteTypes {
		o.noteTypes[nt] = true
	}

	for _, lt := range cfg.LinkTypes {
		o.linkTypes[lt.Label] = lt.Inverse
	}

	return o, nil
}

// Default returns the standard ontology with no user overrides.
func Default() *Ontology {
	o, _ := New(Config{Mode: ModeExtended})

	return o
}

func (o *Ontology) IsValidNoteType(s string) bool {
	return o.noteTypes[s]
}

func (o *Ontology) IsValidLinkType(s string) bool {
	_, ok := o.linkTypes[s]

	return ok
}

// Inverse returns l's inverse label. Unknown link types get a synthetic
// inverse of "inverse-<label>", per spec §3/§4.3.
func (o *Ontology) Inverse(l string) string {
	if inv, ok := o.linkTypes[l]; ok {
		return inv
	}

	return "inverse-" + l
}

// NoteTypes returns all valid note types, lexicographically ordered.
func (o *Ontology) NoteTypes() []string {
	return sortedKeys(o.noteTypes)
}

// LinkTypes returns all valid link types, lexicographically ordered.
func (o *Ontology) LinkTypes() []string {
	out := make([]string, 0, len(o.linkTypes))
	for k := range o.linkTypes {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}
