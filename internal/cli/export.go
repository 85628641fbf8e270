package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/qipu-dev/qipu/internal/export"
	"github.com/qipu-dev/qipu/internal/note"
	"github.com/qipu-dev/qipu/internal/qipuerr"
	"github.com/qipu-dev/qipu/internal/selector"
	"github.com/qipu-dev/qipu/internal/traversal"
)

// ExportCmd renders a selected set of notes to a single markdown document,
// or a CSL-JSON bibliography of their sources (spec §D).
func ExportCmd() *Command {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	ids := flags.StringSlice("note", nil, "Note id to include (repeatable)")
	tag := flags.String("tag", "", "Select notes by tag")
	moc := flags.String("moc", "", "Select notes linked from a MOC, rendered in outline order")
	query := flags.String("query", "", "Full-text search query")
	transitive := flags.Bool("transitive", false, "Expand MOC links transitively")
	mode := flags.String("mode", "bundle", "bundle, outline, or bibliography")
	linkMode := flags.String("link-mode", "preserve", "preserve, markdown, or anchors")
	maxHops := flags.Float64("max-hops", 0, "Expand the selection via traversal from --moc up to this cost")

	return &Command{
		Flags: flags,
		Usage: "export [flags]",
		Short: "Render selected notes to markdown or a bibliography",
		Exec: func(ctx context.Context, o *IO, a *App, _ []string) error {
			selected, err := selector.Select(ctx, a.Index, a.Loader(), selector.Criteria{
				IDs:        *ids,
				Tag:        *tag,
				MOCID:      *moc,
				Query:      *query,
				Transitive: *transitive,
			})
			if err != nil {
				return err
			}

			if *maxHops > 0 && *moc != "" {
				cctx, _, err := a.CompactionContext()
				if err != nil {
					return err
				}

				opts := traversal.Default()
				opts.MaxHops = *maxHops

				tree, err := traversal.Tree(ctx, a.Graph(), a.Config, a.Ontology, cctx, *moc, opts)
				if err != nil {
					return err
				}

				seen := map[string]bool{}
				for _, id := range selected {
					seen[id] = true
				}

				for _, n := range tree.Notes {
					if !seen[n.ID] {
						seen[n.ID] = true
						selected = append(selected, n.ID)
					}
				}
			}

			notes := make([]*note.Note, 0, len(selected))
			for _, id := range selected {
				n, err := a.Store.GetNote(id)
				if err != nil {
					return err
				}

				notes = append(notes, n)
			}

			if *mode == "bibliography" {
				o.Printf("%s", export.Bibliography(notes))
				return nil
			}

			renderMode := export.ModeBundle
			if *mode == "outline" && *moc != "" {
				renderMode = export.ModeOutline
			}

			var lm export.LinkMode

			switch *linkMode {
			case "preserve":
				lm = export.LinkPreserve
			case "markdown":
				lm = export.LinkMarkdown
			case "anchors":
				lm = export.LinkAnchors
			default:
				return qipuerr.New(qipuerr.InvalidValue, nil, qipuerr.WithPath(*linkMode))
			}

			o.Printf("%s", export.Render(notes, export.Options{Mode: renderMode, LinkMode: lm}))

			return nil
		},
	}
}
