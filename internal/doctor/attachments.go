package doctor

import (
	"os"
	"path/filepath"

	"github.com/qipu-dev/qipu/internal/note"
	"github.com/qipu-dev/qipu/internal/pack"
	"github.com/qipu-dev/qipu/internal/store"
)

// CheckAttachments flags attachment references in note bodies that don't
// resolve to a file on disk (error) and attachment files on disk that no
// note references (warning) — grounded in
// original_source/src/commands/doctor/content/tests.rs's
// test_doctor_attachments, which expects exactly one broken-attachment
// error and one orphaned-attachment warning from the same fixture.
func CheckAttachments(notes []*note.Note, layout store.Layout, result *Result) {
	dir := layout.AttachmentsDir()

	onDisk := map[string]bool{}

	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				onDisk[e.Name()] = true
			}
		}
	}

	referenced := map[string]bool{}

	for _, n := range notes {
		for _, name := range pack.ReferencedAttachments([]*note.Note{n}) {
			referenced[name] = true

			if !onDisk[name] {
				result.add(SeverityError, "broken-attachment", n.ID,
					"references missing attachment: "+name)
			}
		}
	}

	for name := range onDisk {
		if !referenced[name] {
			result.add(SeverityWarning, "orphaned-attachment", "",
				"attachment referenced by no note: "+filepath.Base(name))
		}
	}
}
