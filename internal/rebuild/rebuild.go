// Package rebuild implements the rebuild/sync protocol (spec §4.5): walk
// notes/ and mocs/, (re)populate the index transactionally, and support
// cooperative cancellation with checkpointed commits.
//
// The walk uses path/filepath.WalkDir rather than the teacher's
// github.com/calvinalkan/fileproc (an unresolvable, author-private module
// absent from the teacher's own go.mod); the walker style is grounded
// instead in KittClouds-Go-Machine-n's pkg/scanner/discovery/engine.go.
// Checkpointed-commit batching and the IncrementalIndexResult shape are
// grounded in the teacher's pkg/mddb/reindex.go.
package rebuild

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/qipu-dev/qipu/internal/index"
	"github.com/qipu-dev/qipu/internal/note"
	"github.com/qipu-dev/qipu/internal/qipuerr"
	"github.com/qipu-dev/qipu/internal/qlog"
)

// checkpointSize is N in spec §4.5 step 3 ("commit every N notes").
const checkpointSize = 1000

// Result is returned by Run.
type Result struct {
	Indexed     int
	Skipped     []string // paths that failed to parse
	Interrupted bool
}

// Cancel is a cooperative cancellation token, polled at note and checkpoint
// boundaries (spec §5).
type Cancel struct {
	flag chan struct{}
}

func NewCancel() *Cancel { return &Cancel{flag: make(chan struct{})} }

func (c *Cancel) Signal() {
	select {
	case <-c.flag:
	default:
		close(c.flag)
	}
}

func (c *Cancel) requested() bool {
	if c == nil {
		return false
	}

	select {
	case <-c.flag:
		return true
	default:
		return false
	}
}

// walk collects every *.md file under notes/ and mocs/, in lexicographic
// path order (stable discovery order, spec §4.5).
func walk(root string) ([]string, error) {
	var paths []string

	for _, sub := range []string{"notes", "mocs"} {
		dir := filepath.Join(root, sub)

		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}

				return err
			}

			if d.IsDir() {
				return nil
			}

			if strings.HasSuffix(path, ".md") {
				paths = append(paths, path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("rebuild: walk %s: %w", dir, err)
		}
	}

	return paths, nil
}

// Run rebuilds idx from scratch (clearing tags/edges/notes) by walking
// root, per spec §4.5. resume, when true, skips notes already present in
// the index (by id), letting a long rebuild resume after interruption
// (rebuild_resume).
func Run(ctx context.Context, root string, idx *index.Index, cancel *Cancel, logger *qlog.Logger, resume bool) (Result, error) {
	paths, err := walk(root)
	if err != nil {
		return Result{}, qipuerr.New(qipuerr.FailedOperation, err, qipuerr.WithOp("rebuild"))
	}

	var alreadyIndexed map[string]bool

	if resume {
		ids, lErr := index.ListNoteIDs(ctx, idx.DB())
		if lErr != nil {
			return Result{}, qipuerr.New(qipuerr.FailedOperation, lErr, qipuerr.WithOp("rebuild_resume"))
		}

		alreadyIndexed = make(map[string]bool, len(ids))
		for _, id := range ids {
			alreadyIndexed[id] = true
		}
	}

	result := Result{}

	tx, err := idx.BeginTx(ctx)
	if err != nil {
		return Result{}, qipuerr.New(qipuerr.FailedOperation, err, qipuerr.WithOp("rebuild"))
	}

	if !resume {
		err = idx.RecreateSchema(ctx, tx)
		if err != nil {
			_ = tx.Rollback()

			return Result{}, qipuerr.New(qipuerr.FailedOperation, err, qipuerr.WithOp("rebuild"))
		}
	}

	sinceCheckpoint := 0

	commit := func() error {
		cErr := tx.Commit()
		if cErr != nil {
			return cErr
		}

		tx, err = idx.BeginTx(ctx)

		return err
	}

	for _, path := range paths {
		if cancel.requested() {
			if cErr := commit(); cErr != nil {
				return Result{}, qipuerr.New(qipuerr.FailedOperation, cErr, qipuerr.WithOp("rebuild"))
			}

			result.Interrupted = true

			return result, qipuerr.New(qipuerr.Interrupted, fmt.Errorf("rebuild interrupted"), qipuerr.WithOp("rebuild"))
		}

		data, rErr := os.ReadFile(path)
		if rErr != nil {
			result.Skipped = append(result.Skipped, path)
			logger.Warnf(ctx, "rebuild: read failed", "path", path, "err", rErr)

			continue
		}

		rel, _ := filepath.Rel(root, path)

		n, pErr := note.Parse(data, rel)
		if pErr != nil {
			result.Skipped = append(result.Skipped, path)
			logger.Warnf(ctx, "rebuild: parse failed", "path", path, "err", pErr)

			continue
		}

		if alreadyIndexed[n.ID] {
			continue
		}

		err = index.InsertNote(ctx, tx, n)
		if err == nil {
			err = index.InsertEdges(ctx, tx, n, nil)
		}

		if err != nil {
			_ = tx.Rollback()

			return Result{}, qipuerr.New(qipuerr.FailedOperation, err, qipuerr.WithOp("rebuild"), qipuerr.WithID(n.ID))
		}

		result.Indexed++
		sinceCheckpoint++

		if sinceCheckpoint >= checkpointSize {
			if cErr := commit(); cErr != nil {
				return Result{}, qipuerr.New(qipuerr.FailedOperation, cErr, qipuerr.WithOp("rebuild"))
			}

			sinceCheckpoint = 0
		}
	}

	err = tx.Commit()
	if err != nil {
		return Result{}, qipuerr.New(qipuerr.FailedOperation, err, qipuerr.WithOp("rebuild"))
	}

	return result, nil
}

// ReindexNote re-upserts a single note and rewrites its outgoing edges
// within one transaction, after a save (spec §4.5 single-note reindex).
func ReindexNote(ctx context.Context, idx *index.Index, n *note.Note) error {
	tx, err := idx.BeginTx(ctx)
	if err != nil {
		return qipuerr.New(qipuerr.FailedOperation, err, qipuerr.WithOp("reindex"), qipuerr.WithID(n.ID))
	}

	err = index.InsertNote(ctx, tx, n)
	if err == nil {
		err = index.InsertEdges(ctx, tx, n, nil)
	}

	if err != nil {
		_ = tx.Rollback()

		return qipuerr.New(qipuerr.FailedOperation, err, qipuerr.WithOp("reindex"), qipuerr.WithID(n.ID))
	}

	err = tx.Commit()
	if err != nil {
		return qipuerr.New(qipuerr.FailedOperation, err, qipuerr.WithOp("reindex"), qipuerr.WithID(n.ID))
	}

	return nil
}
