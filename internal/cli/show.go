package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/qipu-dev/qipu/internal/note"
)

// ShowCmd prints a note's full frontmatter and body.
func ShowCmd() *Command {
	return &Command{
		Flags: flag.NewFlagSet("show", flag.ContinueOnError),
		Usage: "show <id>",
		Short: "Show a note's frontmatter and body",
		Exec: func(_ context.Context, o *IO, a *App, args []string) error {
			if len(args) == 0 {
				return errMissingArg("id")
			}

			n, err := a.Store.GetNote(args[0])
			if err != nil {
				return err
			}

			if cctx, _, err := a.CompactionContext(); err == nil {
				if canon := cctx.Canon(n.ID); canon != n.ID {
					o.Printf("# note %s is compacted into %s\n", n.ID, canon)
				}
			}

			out, err := note.Emit(n)
			if err != nil {
				return err
			}

			o.Printf("%s", out)

			return nil
		},
	}
}
