package cli

import (
	"context"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/qipu-dev/qipu/internal/pack"
	"github.com/qipu-dev/qipu/internal/qipuerr"
)

var loadStrategies = map[string]pack.LoadStrategy{
	"skip":        pack.Skip,
	"overwrite":   pack.Overwrite,
	"merge-links": pack.MergeLinks,
}

// LoadCmd reconciles a pack file into the open store (spec §4.8).
func LoadCmd() *Command {
	flags := flag.NewFlagSet("load", flag.ContinueOnError)
	strategy := flags.String("strategy", "skip", "skip, overwrite, or merge-links")
	format := flags.String("format", "json", "json or records")

	return &Command{
		Flags: flags,
		Usage: "load <file> [flags]",
		Short: "Load a pack file into the store",
		Exec: func(ctx context.Context, o *IO, a *App, args []string) error {
			if len(args) == 0 {
				return errMissingArg("file")
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return qipuerr.New(qipuerr.IOError, err, qipuerr.WithPath(args[0]))
			}

			var p *pack.Pack

			switch *format {
			case "json":
				p, err = pack.UnmarshalJSON(data)
			case "records":
				p, err = pack.UnmarshalRecords(data)
			default:
				return qipuerr.New(qipuerr.UnknownFormat, nil, qipuerr.WithPath(*format))
			}

			if err != nil {
				return err
			}

			strat, ok := loadStrategies[*strategy]
			if !ok {
				return invalidValue("strategy", *strategy)
			}

			result, err := pack.Load(ctx, a.Store, a.Index, a.Ontology, p, strat)
			if err != nil {
				return err
			}

			o.Printf("created %d, skipped %d, merged %d\n", len(result.Created), len(result.Skipped), len(result.Merged))

			return nil
		},
	}
}
