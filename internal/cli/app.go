// Package cli wires qipu's internal packages (store, index, rebuild,
// compaction, traversal, selector, doctor, pack, export) into the qipu
// command-line tool, the way the teacher's internal/cli wires ticket/cache
// packages into tk's Command/IO dispatch.
package cli

import (
	"context"

	"github.com/qipu-dev/qipu/internal/compaction"
	"github.com/qipu-dev/qipu/internal/index"
	"github.com/qipu-dev/qipu/internal/note"
	"github.com/qipu-dev/qipu/internal/ontology"
	"github.com/qipu-dev/qipu/internal/qconfig"
	"github.com/qipu-dev/qipu/internal/qlog"
	"github.com/qipu-dev/qipu/internal/rebuild"
	"github.com/qipu-dev/qipu/internal/store"
)

// App bundles the open store/index/ontology/config an invocation needs.
// Built once in Run and threaded into every command's Exec.
type App struct {
	Layout   store.Layout
	Store    *store.Store
	Index    *index.Index
	Ontology *ontology.Ontology
	Config   qconfig.Config
	Logger   *qlog.Logger
}

// Open discovers a store starting at dir, opens its index (triggering an
// automatic rebuild if the schema version is stale, spec §4.4), and
// resolves its ontology from config.
func Open(ctx context.Context, dir string) (*App, error) {
	layout, err := store.Discover(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := qconfig.Load(layout.ConfigPath())
	if err != nil {
		return nil, err
	}

	ont, err := ontology.New(cfg.OntologyConfig())
	if err != nil {
		return nil, err
	}

	idx, err := index.Open(ctx, layout.DBPath())
	if err != nil {
		return nil, err
	}

	stale, err := idx.NeedsRebuild(ctx)
	if err != nil {
		return nil, err
	}

	logger := qlog.Discard()

	if stale {
		if _, err := rebuild.Run(ctx, layout.Root, idx, rebuild.NewCancel(), logger, false); err != nil {
			return nil, err
		}
	}

	return &App{
		Layout:   layout,
		Store:    store.Open(layout),
		Index:    idx,
		Ontology: ont,
		Config:   cfg,
		Logger:   logger,
	}, nil
}

// Close releases the app's open resources.
func (a *App) Close() error {
	if a.Index != nil {
		return a.Index.Close()
	}

	return nil
}

// CompactionContext loads every note in the store and builds a
// compaction.Context from it — the construction-time validation pass spec
// §4.6 requires before any compaction-aware traversal or doctor check.
func (a *App) CompactionContext() (*compaction.Context, []*note.Note, error) {
	notes, err := a.Store.ListNotes()
	if err != nil {
		return nil, nil, err
	}

	cctx, err := compaction.New(notes)
	if err != nil {
		return nil, nil, err
	}

	return cctx, notes, nil
}

// Loader adapts *store.Store.GetNote to selector.Loader.
func (a *App) Loader() func(id string) (*note.Note, error) {
	return a.Store.GetNote
}

// indexGraph adapts *index.Index to traversal.Graph.
type indexGraph struct {
	idx *index.Index
}

func (g indexGraph) Outbound(ctx context.Context, id string) ([]index.Edge, error) {
	return index.GetOutboundEdges(ctx, g.idx.DB(), id)
}

func (g indexGraph) Inbound(ctx context.Context, id string) ([]index.Edge, error) {
	return index.GetInboundEdges(ctx, g.idx.DB(), id)
}

func (g indexGraph) Metadata(ctx context.Context, id string) (*index.Metadata, error) {
	return index.GetMetadata(ctx, g.idx.DB(), id)
}

// Graph returns the traversal.Graph view of this app's index.
func (a *App) Graph() indexGraph {
	return indexGraph{idx: a.Index}
}
