// Package store owns the on-disk store layout (spec §3 Store, §4.2) and
// implements note CRUD with atomic, byte-identical-skip saves.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/qipu-dev/qipu/internal/qconfig"
	"github.com/qipu-dev/qipu/internal/qipuerr"
)

// Layout resolves the fixed subdirectories and files of a store root (spec
// §6 store layout).
type Layout struct {
	Root string
}

func (l Layout) NotesDir() string       { return filepath.Join(l.Root, "notes") }
func (l Layout) MocsDir() string        { return filepath.Join(l.Root, "mocs") }
func (l Layout) AttachmentsDir() string { return filepath.Join(l.Root, "attachments") }
func (l Layout) TemplatesDir() string   { return filepath.Join(l.Root, "templates") }
func (l Layout) WorkspacesDir() string  { return filepath.Join(l.Root, "workspaces") }
func (l Layout) DBPath() string         { return filepath.Join(l.Root, "qipu.db") }

// ConfigPath returns the store's config file path, preferring an existing
// config.yaml/.yml/.toml, falling back to config.yaml for a store about to
// be created.
func (l Layout) ConfigPath() string {
	for _, name := range qconfig.FileNames {
		p := filepath.Join(l.Root, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return filepath.Join(l.Root, qconfig.FileNames[0])
}

// markerFile is the file whose presence identifies a directory as a store
// root during discovery.
const markerFile = "qipu.db"

// defaultTemplates seeds templates/<type>.md for the standard note types.
var defaultTemplates = map[string]string{
	"fleeting":   "# {{title}}\n\n",
	"literature": "# {{title}}\n\n## Source\n\n## Notes\n\n",
	"permanent":  "# {{title}}\n\n",
	"moc":        "# {{title}}\n\nA map of content.\n\n## Contents\n\n",
}

// Init creates the directory layout, a default config, default templates,
// and an empty index file placeholder at root. It fails if root already
// looks like a store.
func Init(root string) (Layout, error) {
	l := Layout{Root: root}

	if _, err := os.Stat(l.DBPath()); err == nil {
		return Layout{}, qipuerr.New(qipuerr.FailedOperation, fmt.Errorf("store already initialized"), qipuerr.WithOp("init"), qipuerr.WithPath(root))
	}

	dirs := []string{l.NotesDir(), l.MocsDir(), l.AttachmentsDir(), l.TemplatesDir(), l.WorkspacesDir()}
	for _, d := range dirs {
		err := os.MkdirAll(d, 0o750)
		if err != nil {
			return Layout{}, qipuerr.New(qipuerr.IOError, err, qipuerr.WithOp("init"), qipuerr.WithPath(d))
		}
	}

	if err := os.WriteFile(l.DBPath(), nil, 0o644); err != nil {
		return Layout{}, qipuerr.New(qipuerr.IOError, err, qipuerr.WithOp("init"), qipuerr.WithPath(l.DBPath()))
	}

	cfg := qconfig.Default()

	data, err := qconfig.Save(l.ConfigPath(), cfg)
	if err != nil {
		return Layout{}, qipuerr.New(qipuerr.FailedOperation, err, qipuerr.WithOp("init"))
	}

	err = os.WriteFile(l.ConfigPath(), data, 0o644)
	if err != nil {
		return Layout{}, qipuerr.New(qipuerr.IOError, err, qipuerr.WithOp("init"), qipuerr.WithPath(l.ConfigPath()))
	}

	for noteType, body := range defaultTemplates {
		path := filepath.Join(l.TemplatesDir(), noteType+".md")

		err = os.WriteFile(path, []byte(body), 0o644)
		if err != nil {
			return Layout{}, qipuerr.New(qipuerr.IOError, err, qipuerr.WithOp("init"), qipuerr.WithPath(path))
		}
	}

	return l, nil
}

// Discover ascends parents from start looking for markerFile, honoring a
// store_path override found in a discovered candidate's config file.
func Discover(start string) (Layout, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return Layout{}, qipuerr.New(qipuerr.IOError, err, qipuerr.WithOp("discover"))
	}

	for {
		if _, statErr := os.Stat(filepath.Join(dir, markerFile)); statErr == nil {
			l := Layout{Root: dir}

			cfg, cfgErr := qconfig.Load(l.ConfigPath())
			if cfgErr == nil && cfg.StorePath != "" {
				resolved := cfg.StorePath
				if !filepath.IsAbs(resolved) {
					resolved = filepath.Join(dir, resolved)
				}

				return Layout{Root: resolved}, nil
			}

			return l, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Layout{}, qipuerr.New(qipuerr.StoreNotFound, fmt.Errorf("no store found above %s", start), qipuerr.WithOp("discover"))
		}

		dir = parent
	}
}
