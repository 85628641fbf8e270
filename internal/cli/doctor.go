package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/qipu-dev/qipu/internal/doctor"
)

// DoctorCmd runs the offline health checks over every note in the store
// (spec §4.10).
func DoctorCmd() *Command {
	flags := flag.NewFlagSet("doctor", flag.ContinueOnError)
	duplicates := flags.Bool("duplicates", false, "Also run near-duplicate detection")
	threshold := flags.Float64("threshold", doctor.DefaultOptions().DuplicateThreshold, "Near-duplicate similarity threshold")

	return &Command{
		Flags: flags,
		Usage: "doctor [flags]",
		Short: "Run health checks over the store",
		Exec: func(_ context.Context, o *IO, a *App, _ []string) error {
			notes, err := a.Store.ListNotes()
			if err != nil {
				return err
			}

			result := doctor.Run(notes, a.Layout, doctor.Options{
				Duplicates:         *duplicates,
				DuplicateThreshold: *threshold,
			})

			if result.Healthy() {
				o.Println("store is healthy")
				return nil
			}

			for _, issue := range result.Issues {
				o.Printf("[%s] %s %s: %s\n", issue.Severity, issue.Category, issue.NoteID, issue.Message)
			}

			o.Printf("%d error(s), %d warning(s)\n", result.ErrorCount(), result.WarningCount())

			if result.ErrorCount() > 0 {
				o.Warn("doctor found errors")
			}

			return nil
		},
	}
}
