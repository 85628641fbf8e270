package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/qipu-dev/qipu/internal/store"
)

// InitCmd creates a new store at the given directory (default ".").
func InitCmd() *Command {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "init [dir]",
		Short: "Create a new qipu store",
		Exec: func(_ context.Context, o *IO, _ *App, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			layout, err := store.Init(dir)
			if err != nil {
				return err
			}

			o.Println("initialized store at", layout.Root)

			return nil
		},
	}
}
