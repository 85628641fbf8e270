package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/qipu-dev/qipu/internal/traversal"
)

// FindPathCmd finds the shortest option-constrained walk between two notes
// (spec §4.7).
func FindPathCmd() *Command {
	flags := flag.NewFlagSet("find-path", flag.ContinueOnError)
	tf := registerTraverseFlags(flags)

	return &Command{
		Flags: flags,
		Usage: "find-path <from> <to> [flags]",
		Short: "Find the shortest path between two notes",
		Exec: func(ctx context.Context, o *IO, a *App, args []string) error {
			if len(args) < 2 {
				return errMissingArg("from and to")
			}

			cctx, _, err := a.CompactionContext()
			if err != nil {
				return err
			}

			result, err := traversal.FindPath(ctx, a.Graph(), a.Config, a.Ontology, cctx, args[0], args[1], tf.options())
			if err != nil {
				return err
			}

			if !result.Found {
				o.Println("no path found")
				return nil
			}

			for _, n := range result.Notes {
				o.Printf("  %s\t%s\n", n.ID, n.Title)
			}

			for _, l := range result.Links {
				o.Printf("  %s --%s--> %s\n", l.From, l.Type, l.To)
			}

			return nil
		},
	}
}
