package cli

import (
	"context"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/qipu-dev/qipu/internal/rebuild"
)

// CreateCmd creates a new note and indexes it, printing its id.
func CreateCmd() *Command {
	flags := flag.NewFlagSet("create", flag.ContinueOnError)
	noteType := flags.StringP("type", "t", "fleeting", "Note type")
	tags := flags.StringSlice("tags", nil, "Tags (repeatable, or comma-separated)")

	return &Command{
		Flags: flags,
		Usage: "create <title> [flags]",
		Short: "Create a new note, prints its id",
		Exec: func(ctx context.Context, o *IO, a *App, args []string) error {
			if len(args) == 0 {
				return errMissingArg("title")
			}

			title := strings.Join(args, " ")

			if !a.Ontology.IsValidNoteType(*noteType) {
				return invalidValue("type", *noteType)
			}

			n, err := a.Store.CreateNote(title, *noteType, *tags, "")
			if err != nil {
				return err
			}

			if err := rebuild.ReindexNote(ctx, a.Index, n); err != nil {
				return err
			}

			o.Println(n.ID)

			return nil
		},
	}
}
