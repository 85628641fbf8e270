package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command defines a CLI command with unified help generation, the way the
// teacher's internal/cli/command.go drives its own subcommand dispatch.
type Command struct {
	Flags *flag.FlagSet

	// Usage is the freeform usage string shown after "qipu" in help —
	// e.g. "show <id>", "create <title> [flags]".
	Usage string

	// Short is a one-line description for the global help listing.
	Short string

	// Exec runs the command after flags are parsed.
	Exec func(ctx context.Context, o *IO, a *App, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-28s %s", c.Usage, c.Short)
}

// PrintHelp prints full help for "qipu <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: qipu", c.Usage)
	o.Println()
	o.Println(c.Short)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}
}

// Run parses flags and executes the command against App, returning an exit
// code. Error printing happens here so output ordering stays consistent
// across commands.
func (c *Command) Run(ctx context.Context, o *IO, a *App, args []string) int {
	c.Flags.SetOutput(&strings.Builder{})

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)
			return 0
		}

		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)

		return 1
	}

	if err := c.Exec(ctx, o, a, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	return 0
}
