// Package note implements the on-disk note format and parse/serialize
// contract (spec §3 Note, §4.1 Note codec).
//
// Field modeling follows the teacher's internal/store/ticket.go: required
// fields are direct struct fields, optional fields are pointers or
// nil-able slices so their absence round-trips losslessly through yaml.v3's
// omitempty.
package note

import (
	"fmt"
	"time"

	"github.com/qipu-dev/qipu/internal/frontmatter"
	"github.com/qipu-dev/qipu/internal/qipuerr"
)

// Source is one entry of a Note's `sources` list.
type Source struct {
	URL      string `yaml:"url"`
	Title    string `yaml:"title,omitempty"`
	Accessed string `yaml:"accessed,omitempty"`
}

// Link is one entry of a Note's outbound frontmatter `links` list.
type Link struct {
	Type string `yaml:"type"`
	ID   string `yaml:"id"`
}

// Note is the parsed, in-memory representation of a note file (spec §3).
type Note struct {
	ID         string
	Title      string
	Type       string
	Tags       []string
	Created    *time.Time
	Updated    *time.Time
	Sources    []Source
	Links      []Link
	Value      int
	Compacts   []string
	Summary    string
	Source     string
	Author     string
	GeneratedBy string
	PromptHash string
	Verified   bool
	Custom     map[string]any
	Body       string

	// Path is the relative on-disk path, set by the store on load/save; not
	// part of frontmatter.
	Path string
}

// DefaultValue is the implicit value when the frontmatter field is omitted.
const DefaultValue = 50

// frontmatterDoc mirrors Note's frontmatter-only fields with yaml tags in
// the exact declared order spec §4.1 requires on emit. yaml.v3 marshals
// struct fields in declaration order, so this struct's field order *is*
// the emit order — no separate key-order helper is needed (unlike the
// teacher's frontmatterKeyOrder, which existed only because its codec was
// map-based).
type frontmatterDoc struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Type        string         `yaml:"type"`
	Tags        []string       `yaml:"tags,omitempty"`
	Created     string         `yaml:"created,omitempty"`
	Updated     string         `yaml:"updated,omitempty"`
	Value       *int           `yaml:"value,omitempty"`
	Sources     []Source       `yaml:"sources,omitempty"`
	Links       []Link         `yaml:"links,omitempty"`
	Summary     string         `yaml:"summary,omitempty"`
	Compacts    []string       `yaml:"compacts,omitempty"`
	Source      string         `yaml:"source,omitempty"`
	Author      string         `yaml:"author,omitempty"`
	GeneratedBy string         `yaml:"generated_by,omitempty"`
	PromptHash  string         `yaml:"prompt_hash,omitempty"`
	Verified    bool           `yaml:"verified,omitempty"`
	Custom      map[string]any `yaml:"custom,omitempty"`
}

const rfc3339 = time.RFC3339

// Parse splits text into frontmatter and body and decodes it into a Note.
// When the document has no frontmatter block, the returned Note has an
// empty ID; callers (tests/fixtures only, per spec) must supply one.
func Parse(text []byte, sourcePath string) (*Note, error) {
	fm, body, has, err := frontmatter.Split(text)
	if err != nil {
		return nil, qipuerr.New(qipuerr.ParseError, err, qipuerr.WithPath(sourcePath))
	}

	if !has {
		return &Note{Body: string(body), Path: sourcePath, Value: DefaultValue}, nil
	}

	var doc frontmatterDoc

	err = frontmatter.Unmarshal(fm, &doc)
	if err != nil {
		return nil, qipuerr.New(qipuerr.ParseError, err, qipuerr.WithPath(sourcePath))
	}

	if doc.ID == "" {
		return nil, qipuerr.New(qipuerr.InvalidValue, fmt.Errorf("frontmatter id is empty"), qipuerr.WithPath(sourcePath))
	}

	n := &Note{
		ID:          doc.ID,
		Title:       doc.Title,
		Type:        doc.Type,
		Tags:        doc.Tags,
		Sources:     doc.Sources,
		Links:       doc.Links,
		Compacts:    doc.Compacts,
		Summary:     doc.Summary,
		Source:      doc.Source,
		Author:      doc.Author,
		GeneratedBy: doc.GeneratedBy,
		PromptHash:  doc.PromptHash,
		Verified:    doc.Verified,
		Custom:      doc.Custom,
		Body:        body,
		Path:        sourcePath,
		Value:       DefaultValue,
	}

	if doc.Value != nil {
		n.Value = *doc.Value
	}

	if doc.Created != "" {
		t, perr := time.Parse(rfc3339, doc.Created)
		if perr != nil {
			return nil, qipuerr.New(qipuerr.ParseError, fmt.Errorf("created: %w", perr), qipuerr.WithID(n.ID), qipuerr.WithPath(sourcePath))
		}

		n.Created = &t
	}

	if doc.Updated != "" {
		t, perr := time.Parse(rfc3339, doc.Updated)
		if perr != nil {
			return nil, qipuerr.New(qipuerr.ParseError, fmt.Errorf("updated: %w", perr), qipuerr.WithID(n.ID), qipuerr.WithPath(sourcePath))
		}

		n.Updated = &t
	}

	err = n.Validate()
	if err != nil {
		return nil, err
	}

	return n, nil
}

// Emit serializes n with the stable field order spec §4.1 names, omitting
// empty/default fields.
func Emit(n *Note) ([]byte, error) {
	err := n.Validate()
	if err != nil {
		return nil, err
	}

	doc := frontmatterDoc{
		ID:          n.ID,
		Title:       n.Title,
		Type:        n.Type,
		Tags:        n.Tags,
		Sources:     n.Sources,
		Links:       n.Links,
		Compacts:    n.Compacts,
		Summary:     n.Summary,
		Source:      n.Source,
		Author:      n.Author,
		GeneratedBy: n.GeneratedBy,
		PromptHash:  n.PromptHash,
		Verified:    n.Verified,
		Custom:      n.Custom,
	}

	if n.Value != DefaultValue {
		v := n.Value
		doc.Value = &v
	}

	if n.Created != nil {
		doc.Created = n.Created.UTC().Format(rfc3339)
	}

	if n.Updated != nil {
		doc.Updated = n.Updated.UTC().Format(rfc3339)
	}

	return frontmatter.Marshal(doc, n.Body)
}

// Validate enforces the invariants spec §3 names (except the compaction
// DAG invariants, which span the whole note list — see internal/compaction).
func (n *Note) Validate() error {
	if n.ID == "" {
		return qipuerr.New(qipuerr.InvalidValue, fmt.Errorf("id is empty"))
	}

	if n.Title == "" {
		return qipuerr.New(qipuerr.InvalidValue, fmt.Errorf("title is empty"), qipuerr.WithID(n.ID))
	}

	if n.Value < 0 || n.Value > 100 {
		return qipuerr.New(qipuerr.InvalidValue, fmt.Errorf("value %d out of range [0,100]", n.Value), qipuerr.WithID(n.ID))
	}

	for _, c := range n.Compacts {
		if c == n.ID {
			return qipuerr.New(qipuerr.InvalidValue, fmt.Errorf("note compacts itself"), qipuerr.WithID(n.ID))
		}
	}

	return nil
}

// SetCustom mutates n's custom map in place, creating it if nil.
// (Supplemented from original_source/tests/cli/custom/set.rs.)
func (n *Note) SetCustom(key string, value any) {
	if n.Custom == nil {
		n.Custom = make(map[string]any)
	}

	n.Custom[key] = value
}
