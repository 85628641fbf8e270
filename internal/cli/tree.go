package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/qipu-dev/qipu/internal/traversal"
)

// TreeCmd runs a bounded weighted traversal from a root note (spec §4.7).
func TreeCmd() *Command {
	flags := flag.NewFlagSet("tree", flag.ContinueOnError)
	tf := registerTraverseFlags(flags)

	return &Command{
		Flags: flags,
		Usage: "tree <id> [flags]",
		Short: "Show the traversal tree rooted at a note",
		Exec: func(ctx context.Context, o *IO, a *App, args []string) error {
			if len(args) == 0 {
				return errMissingArg("id")
			}

			cctx, _, err := a.CompactionContext()
			if err != nil {
				return err
			}

			result, err := traversal.Tree(ctx, a.Graph(), a.Config, a.Ontology, cctx, args[0], tf.options())
			if err != nil {
				return err
			}

			printTreeResult(o, result)

			return nil
		},
	}
}

func printTreeResult(o *IO, result *traversal.TreeResult) {
	o.Printf("root: %s\n", result.Root)

	for _, n := range result.Notes {
		o.Printf("  %s\t%s\t(value=%d)\n", n.ID, n.Title, n.Value)
	}

	for _, l := range result.Links {
		o.Printf("  %s --%s--> %s\n", l.From, l.Type, l.To)
	}

	if result.Truncated {
		o.Warn("truncated: " + result.TruncationReason)
	}
}
