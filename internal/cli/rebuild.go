package cli

import (
	"context"
	"os"
	"os/signal"

	flag "github.com/spf13/pflag"

	"github.com/qipu-dev/qipu/internal/rebuild"
)

// RebuildCmd rebuilds the derived sqlite index from the note files on disk
// (spec §4.5), cancellable mid-scan by an interrupt signal.
func RebuildCmd() *Command {
	flags := flag.NewFlagSet("rebuild", flag.ContinueOnError)
	resume := flags.Bool("resume", false, "Resume a previously interrupted rebuild")

	return &Command{
		Flags: flags,
		Usage: "rebuild [flags]",
		Short: "Rebuild the derived index from note files",
		Exec: func(ctx context.Context, o *IO, a *App, _ []string) error {
			cancel := rebuild.NewCancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			defer signal.Stop(sigCh)

			go func() {
				if _, ok := <-sigCh; ok {
					cancel.Signal()
				}
			}()

			result, err := rebuild.Run(ctx, a.Layout.Root, a.Index, cancel, a.Logger, *resume)
			if err != nil {
				return err
			}

			o.Printf("indexed %d notes\n", result.Indexed)

			for _, path := range result.Skipped {
				o.Warn("skipped: " + path)
			}

			if result.Interrupted {
				o.Println("rebuild interrupted, rerun with --resume")
			}

			return nil
		},
	}
}
