package cli

import (
	"context"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/qipu-dev/qipu/internal/selector"
)

// ListCmd selects and lists notes by tag, type, MOC, query, and custom
// field predicates (spec §4.9).
func ListCmd() *Command {
	flags := flag.NewFlagSet("ls", flag.ContinueOnError)
	tag := flags.String("tag", "", "Filter by tag")
	noteType := flags.String("type", "", "Filter by note type")
	query := flags.String("query", "", "Full-text search query")
	moc := flags.String("moc", "", "Select notes linked from a MOC")
	transitive := flags.Bool("transitive", false, "Expand MOC links transitively")
	minValue := flags.Int("min-value", -1, "Minimum note value")
	since := flags.String("since", "", "Only notes created on/after this date (YYYY-MM-DD)")
	custom := flags.StringSlice("custom", nil, "Custom field expression (repeatable), e.g. priority>5")
	hideCompacted := flags.Bool("hide-compacted", true, "Hide notes folded into another by compaction")

	return &Command{
		Flags: flags,
		Usage: "ls [flags]",
		Short: "List notes matching a selection",
		Exec: func(ctx context.Context, o *IO, a *App, _ []string) error {
			var ids []string
			if *tag != "" || *moc != "" || *query != "" {
				var err error

				ids, err = selector.Select(ctx, a.Index, a.Loader(), selector.Criteria{
					Tag:        *tag,
					MOCID:      *moc,
					Query:      *query,
					Transitive: *transitive,
				})
				if err != nil {
					return err
				}
			}

			notes, err := a.Store.ListNotes()
			if err != nil {
				return err
			}

			if ids != nil {
				want := map[string]bool{}
				for _, id := range ids {
					want[id] = true
				}

				filtered := notes[:0]
				for _, n := range notes {
					if want[n.ID] {
						filtered = append(filtered, n)
					}
				}

				notes = filtered
			}

			f := selector.NoteFilter{
				Tag:           *tag,
				Type:          *noteType,
				HideCompacted: *hideCompacted,
			}

			if *minValue >= 0 {
				f.MinValue = minValue
			}

			if *since != "" {
				t, err := time.Parse("2006-01-02", *since)
				if err != nil {
					return invalidValue("since", *since)
				}

				f.Since = &t
			}

			for _, c := range *custom {
				expr, err := selector.ParseExpr(c)
				if err != nil {
					return invalidValue("custom", c)
				}

				f.Custom = append(f.Custom, expr)
			}

			cctx, _, err := a.CompactionContext()
			if err != nil {
				return err
			}

			for _, n := range selector.Filter(notes, f, cctx) {
				o.Printf("%s\t%s\t%s\n", n.ID, n.Type, n.Title)
			}

			return nil
		},
	}
}
