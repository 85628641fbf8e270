package pack

import (
	"os"
	"path/filepath"

	"github.com/qipu-dev/qipu/internal/note"
	"github.com/qipu-dev/qipu/internal/qipuerr"
	"github.com/qipu-dev/qipu/internal/store"
)

// Dump builds a Pack from an already-selected/expanded set of notes (the
// selector §4.9 and, optionally, a traversal §4.7 expansion with
// ignore_value=true happen upstream — Dump only knows how to serialize what
// it's given). Pack.Links is reconstructed from each note's frontmatter
// links, giving a loader the redundant cross-check spec §4.8 describes.
// Attachments referenced by the selected notes' bodies are read from disk
// unless noAttachments is set.
func Dump(notes []*note.Note, layout store.Layout, noAttachments bool) (*Pack, error) {
	p := &Pack{}

	for _, n := range notes {
		p.Notes = append(p.Notes, PackNote{Note: n, OriginalPath: n.Path})

		for _, l := range n.Links {
			p.Links = append(p.Links, Link{From: n.ID, To: l.ID, Type: l.Type})
		}
	}

	if noAttachments {
		return p, nil
	}

	for _, name := range ReferencedAttachments(notes) {
		path := filepath.Join(layout.AttachmentsDir(), name)

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return nil, qipuerr.New(qipuerr.IOError, err, qipuerr.WithPath(path))
		}

		p.Attachments = append(p.Attachments, Attachment{Name: name, Data: data})
	}

	return p, nil
}
