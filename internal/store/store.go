package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/qipu-dev/qipu/internal/note"
	"github.com/qipu-dev/qipu/internal/qipuerr"
	qfs "github.com/qipu-dev/qipu/pkg/fs"
)

// Store wires a Layout to the filesystem primitives note CRUD needs.
type Store struct {
	Layout Layout
	fs     qfs.FS
	atomic *qfs.AtomicWriter
}

// Open wraps an already-discovered/initialized Layout.
func Open(l Layout) *Store {
	realFS := qfs.NewReal()

	return &Store{Layout: l, fs: realFS, atomic: qfs.NewAtomicWriter(realFS)}
}

// dirFor returns the subdirectory a note of the given type belongs in
// (mocs/ for type "moc", notes/ otherwise, spec §4.8 load contract mirrors
// this placement rule for new notes).
func (s *Store) dirFor(noteType string) string {
	if noteType == "moc" {
		return s.Layout.MocsDir()
	}

	return s.Layout.NotesDir()
}

// CreateNote builds and saves a new Note, generating an id when none is
// given.
func (s *Store) CreateNote(title, noteType string, tags []string, id string) (*note.Note, error) {
	if title == "" {
		return nil, qipuerr.New(qipuerr.InvalidValue, fmt.Errorf("title is empty"), qipuerr.WithOp("create_note"))
	}

	if id == "" {
		var err error

		id, err = NewID()
		if err != nil {
			return nil, qipuerr.New(qipuerr.FailedOperation, err, qipuerr.WithOp("create_note"))
		}
	}

	if noteType == "" {
		noteType = "fleeting"
	}

	n := &note.Note{
		ID:    id,
		Title: title,
		Type:  noteType,
		Tags:  tags,
		Value: note.DefaultValue,
	}

	err := s.SaveNote(n)
	if err != nil {
		return nil, err
	}

	return n, nil
}

// pathForID scans the notes/ and mocs/ dirs for a file beginning with
// "<id>-". Returns "" if not found.
func (s *Store) pathForID(id string) (string, error) {
	for _, dir := range []string{s.Layout.NotesDir(), s.Layout.MocsDir()} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return "", qipuerr.New(qipuerr.IOError, err, qipuerr.WithPath(dir))
		}

		prefix := id + "-"

		for _, e := range entries {
			if e.IsDir() {
				continue
			}

			if strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".md") {
				return filepath.Join(dir, e.Name()), nil
			}
		}
	}

	return "", nil
}

// GetNote loads a note by id from disk.
func (s *Store) GetNote(id string) (*note.Note, error) {
	path, err := s.pathForID(id)
	if err != nil {
		return nil, err
	}

	if path == "" {
		return nil, qipuerr.New(qipuerr.NoteNotFound, fmt.Errorf("note not found"), qipuerr.WithID(id))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, qipuerr.New(qipuerr.IOError, err, qipuerr.WithID(id), qipuerr.WithPath(path))
	}

	rel, _ := filepath.Rel(s.Layout.Root, path)

	n, err := note.Parse(data, rel)
	if err != nil {
		return nil, err
	}

	if n.ID != id {
		return nil, qipuerr.New(qipuerr.ParseError, fmt.Errorf("frontmatter id %q does not match requested id %q", n.ID, id), qipuerr.WithID(id), qipuerr.WithPath(rel))
	}

	return n, nil
}

// ListNotes returns every parsable note under notes/ and mocs/, sorted by
// id for deterministic iteration (spec §4.5 ordering guarantee).
func (s *Store) ListNotes() ([]*note.Note, error) {
	var notes []*note.Note

	for _, dir := range []string{s.Layout.NotesDir(), s.Layout.MocsDir()} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return nil, qipuerr.New(qipuerr.IOError, err, qipuerr.WithPath(dir))
		}

		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
				continue
			}

			path := filepath.Join(dir, e.Name())

			data, rErr := os.ReadFile(path)
			if rErr != nil {
				return nil, qipuerr.New(qipuerr.IOError, rErr, qipuerr.WithPath(path))
			}

			rel, _ := filepath.Rel(s.Layout.Root, path)

			n, pErr := note.Parse(data, rel)
			if pErr != nil {
				return nil, pErr
			}

			notes = append(notes, n)
		}
	}

	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })

	return notes, nil
}

// ExistingIDs is a convenience wrapper over ListNotes returning just ids.
func (s *Store) ExistingIDs() ([]string, error) {
	notes, err := s.ListNotes()
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}

	return ids, nil
}

// SaveNote writes n atomically (temp sibling + rename) and skips the write
// entirely when the serialized content is byte-identical to what's already
// on disk, preserving `updated` semantics when nothing changed (spec §4.2).
func (s *Store) SaveNote(n *note.Note) error {
	err := n.Validate()
	if err != nil {
		return err
	}

	existingPath, err := s.pathForID(n.ID)
	if err != nil {
		return err
	}

	path := existingPath
	if path == "" {
		path = filepath.Join(s.dirFor(n.Type), note.FileName(n.ID, n.Title))
	}

	data, err := note.Emit(n)
	if err != nil {
		return err
	}

	if existingPath != "" {
		current, rErr := os.ReadFile(existingPath)
		if rErr == nil && bytes.Equal(current, data) {
			return nil
		}
	}

	dir := filepath.Dir(path)

	err = os.MkdirAll(dir, 0o750)
	if err != nil {
		return qipuerr.New(qipuerr.IOError, err, qipuerr.WithID(n.ID), qipuerr.WithPath(dir))
	}

	err = s.atomic.Write(path, bytes.NewReader(data), s.atomic.DefaultOptions())
	if err != nil {
		return qipuerr.New(qipuerr.IOError, err, qipuerr.WithID(n.ID), qipuerr.WithPath(path))
	}

	rel, _ := filepath.Rel(s.Layout.Root, path)
	n.Path = rel

	return nil
}
