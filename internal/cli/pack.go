package cli

import (
	"context"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/qipu-dev/qipu/internal/pack"
	"github.com/qipu-dev/qipu/internal/qipuerr"
)

// PackCmd dumps the store to a portable pack file (spec §4.8).
func PackCmd() *Command {
	flags := flag.NewFlagSet("pack", flag.ContinueOnError)
	out := flags.String("out", "", "Output file (default stdout)")
	format := flags.String("format", "json", "json or records")
	noAttachments := flags.Bool("no-attachments", false, "Omit attachment contents")

	return &Command{
		Flags: flags,
		Usage: "pack [flags]",
		Short: "Dump the store to a portable pack file",
		Exec: func(_ context.Context, o *IO, a *App, _ []string) error {
			notes, err := a.Store.ListNotes()
			if err != nil {
				return err
			}

			p, err := pack.Dump(notes, a.Layout, *noAttachments)
			if err != nil {
				return err
			}

			var data []byte

			switch *format {
			case "json":
				data, err = pack.MarshalJSON(p)
			case "records":
				data, err = pack.MarshalRecords(p)
			default:
				return qipuerr.New(qipuerr.UnknownFormat, nil, qipuerr.WithPath(*format))
			}

			if err != nil {
				return err
			}

			if *out == "" {
				o.Printf("%s", data)
				return nil
			}

			if err := os.WriteFile(*out, data, 0o644); err != nil {
				return qipuerr.New(qipuerr.IOError, err, qipuerr.WithPath(*out))
			}

			o.Printf("wrote %s\n", *out)

			return nil
		},
	}
}
