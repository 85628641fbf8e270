package pack

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/qipu-dev/qipu/internal/index"
	"github.com/qipu-dev/qipu/internal/note"
	"github.com/qipu-dev/qipu/internal/ontology"
	"github.com/qipu-dev/qipu/internal/qipuerr"
	"github.com/qipu-dev/qipu/internal/rebuild"
	"github.com/qipu-dev/qipu/internal/store"
)

// LoadStrategy selects how Load reconciles a pack note against one that
// already exists in the target store by id (spec §4.8).
type LoadStrategy int

const (
	// Skip leaves an existing note (and its links) untouched.
	Skip LoadStrategy = iota
	// Overwrite replaces the existing note's contents at its existing path.
	Overwrite
	// MergeLinks leaves existing file contents intact but merges in new
	// typed links whose target was newly created by this same load.
	MergeLinks
)

// LoadResult summarizes a Load call.
type LoadResult struct {
	Created []string
	Skipped []string // pre-existing ids left untouched (Skip, or MergeLinks with no link to add)
	Merged  []string // pre-existing ids that gained merged links
}

// Load reconciles p into s/idx per strategy (spec §4.8 load contract).
// ont validates note/link types when non-nil; unknown types are an
// InvalidValue error. Load is fail-soft per note is not the contract here —
// spec.md marks pack-schema violations fail-hard, so the first error aborts
// (the caller decides whether partial writes before the error should be
// rolled back, per spec.md §7 propagation policy).
func Load(ctx context.Context, s *store.Store, idx *index.Index, ont *ontology.Ontology, p *Pack, strategy LoadStrategy) (LoadResult, error) {
	existing, err := s.ExistingIDs()
	if err != nil {
		return LoadResult{}, err
	}

	existingSet := make(map[string]bool, len(existing))
	for _, id := range existing {
		existingSet[id] = true
	}

	newlyCreated := make(map[string]bool)

	for _, pn := range p.Notes {
		if !existingSet[pn.Note.ID] {
			newlyCreated[pn.Note.ID] = true
		}
	}

	result := LoadResult{}

	for _, pn := range p.Notes {
		n := pn.Note

		if err := validateTypes(ont, n); err != nil {
			return result, err
		}

		if !existingSet[n.ID] {
			toSave := n
			if strategy == MergeLinks {
				toSave = withFilteredLinks(n, newlyCreated)
			}

			if err := s.SaveNote(toSave); err != nil {
				return result, err
			}

			if err := rebuild.ReindexNote(ctx, idx, toSave); err != nil {
				return result, err
			}

			result.Created = append(result.Created, n.ID)

			continue
		}

		switch strategy {
		case Skip:
			result.Skipped = append(result.Skipped, n.ID)

		case Overwrite:
			if err := s.SaveNote(n); err != nil {
				return result, err
			}

			if err := rebuild.ReindexNote(ctx, idx, n); err != nil {
				return result, err
			}

		case MergeLinks:
			existingNote, err := s.GetNote(n.ID)
			if err != nil {
				return result, err
			}

			merged, changed := mergeNewLinks(existingNote, n.Links, newlyCreated)
			if !changed {
				result.Skipped = append(result.Skipped, n.ID)

				continue
			}

			if err := s.SaveNote(merged); err != nil {
				return result, err
			}

			if err := rebuild.ReindexNote(ctx, idx, merged); err != nil {
				return result, err
			}

			result.Merged = append(result.Merged, n.ID)
		}
	}

	if err := loadAttachments(s.Layout, p.Attachments); err != nil {
		return result, err
	}

	return result, nil
}

func validateTypes(ont *ontology.Ontology, n *note.Note) error {
	if ont == nil {
		return nil
	}

	if !ont.IsValidNoteType(n.Type) {
		return qipuerr.New(qipuerr.InvalidValue, fmt.Errorf("unknown note type %q", n.Type), qipuerr.WithID(n.ID))
	}

	for _, l := range n.Links {
		if !ont.IsValidLinkType(l.Type) {
			return qipuerr.New(qipuerr.InvalidValue, fmt.Errorf("unknown link type %q", l.Type), qipuerr.WithID(n.ID))
		}
	}

	return nil
}

// withFilteredLinks returns a shallow copy of n whose outbound typed links
// are restricted to targets in newlyCreated — applied to each note that
// MergeLinks creates, so a pack never wires a fresh note to an
// already-established one in the destination store (spec Scenario E).
// Pre-existing notes go through mergeNewLinks instead.
func withFilteredLinks(n *note.Note, newlyCreated map[string]bool) *note.Note {
	cp := *n

	cp.Links = nil

	for _, l := range n.Links {
		if newlyCreated[l.ID] {
			cp.Links = append(cp.Links, l)
		}
	}

	return &cp
}

// mergeNewLinks appends to existing's links any link from packLinks whose
// target is newly created by this load and not already present, leaving
// everything else about existing untouched. Returns changed=false when
// nothing needed to be added (existing stays byte-identical on disk).
func mergeNewLinks(existing *note.Note, packLinks []note.Link, newlyCreated map[string]bool) (*note.Note, bool) {
	have := make(map[note.Link]bool, len(existing.Links))
	for _, l := range existing.Links {
		have[l] = true
	}

	changed := false

	for _, l := range packLinks {
		if !newlyCreated[l.ID] || have[l] {
			continue
		}

		existing.Links = append(existing.Links, l)
		have[l] = true
		changed = true
	}

	return existing, changed
}

// attachmentRefPattern matches markdown image/link targets pointing into an
// attachments/ directory, e.g. "![x](../attachments/file.png)".
var attachmentRefPattern = regexp.MustCompile(`\]\(([^)]*attachments/[^)]+)\)`)

// ReferencedAttachments returns the attachment base names referenced by
// notes' bodies.
func ReferencedAttachments(notes []*note.Note) []string {
	seen := map[string]bool{}

	var names []string

	for _, n := range notes {
		for _, m := range attachmentRefPattern.FindAllStringSubmatch(n.Body, -1) {
			name := filepath.Base(m[1])
			if !seen[name] {
				seen[name] = true

				names = append(names, name)
			}
		}
	}

	return names
}

// loadAttachments decodes and writes pack attachments under layout's
// attachments/ dir, rejecting any name whose resolved destination escapes
// that directory (spec §4.8, testable property 8).
func loadAttachments(layout store.Layout, attachments []Attachment) error {
	dir := layout.AttachmentsDir()

	for _, a := range attachments {
		dest := filepath.Join(dir, a.Name)

		rel, err := filepath.Rel(dir, dest)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return qipuerr.New(qipuerr.InvalidValue, fmt.Errorf("attachment name escapes attachments directory: %q", a.Name))
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
			return qipuerr.New(qipuerr.IOError, err, qipuerr.WithPath(dest))
		}

		// Attachments are small, one-shot binary writes — grounded in the
		// same atomic.WriteFile the teacher uses for its own cache/config
		// writes, rather than pkg/fs.AtomicWriter's larger note-save path.
		if err := atomic.WriteFile(dest, bytes.NewReader(a.Data)); err != nil {
			return qipuerr.New(qipuerr.IOError, err, qipuerr.WithPath(dest))
		}
	}

	return nil
}
