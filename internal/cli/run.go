package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
)

// Run is the main entry point. Returns the process exit code.
// sigCh can be nil if signal handling is not needed (e.g. in tests).
func Run(_ io.Reader, out io.Writer, errOut io.Writer, args []string, sigCh <-chan os.Signal) int {
	globalFlags := flag.NewFlagSet("qipu", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.Usage = func() {}
	globalFlags.SetOutput(&strings.Builder{})
	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagCwd := globalFlags.StringP("cwd", "C", "", "Run as if started in `dir`")

	if err := globalFlags.Parse(args[1:]); err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)

		return 1
	}

	commands := allCommands()

	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	commandAndArgs := globalFlags.Args()

	if *flagHelp || (len(commandAndArgs) == 0 && globalFlags.NFlag() == 0) {
		printUsage(out, commands)
		return 0
	}

	if len(commandAndArgs) == 0 {
		fprintln(errOut, "error: no command provided")
		printUsage(errOut, commands)

		return 1
	}

	cmdName := commandAndArgs[0]

	cmd, ok := commandMap[cmdName]
	if !ok {
		fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut, commands)

		return 1
	}

	cmdIO := NewIO(out, errOut)

	dir := *flagCwd
	if dir == "" {
		dir = "."
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init doesn't open an existing store — there isn't one yet.
	var app *App

	if cmdName != "init" {
		opened, err := Open(ctx, dir)
		if err != nil {
			fprintln(errOut, "error:", err)
			return 1
		}

		defer opened.Close()

		app = opened
	}

	done := make(chan int, 1)

	go func() {
		done <- cmd.Run(ctx, cmdIO, app, commandAndArgs[1:])
	}()

	select {
	case exitCode := <-done:
		if exitCode != 0 {
			return exitCode
		}

		return cmdIO.Finish()
	case <-sigCh:
		fprintln(errOut, "shutting down with 5s timeout...")
		cancel()
	}

	select {
	case <-done:
		fprintln(errOut, "graceful shutdown ok (130)")
		return 130
	case <-time.After(5 * time.Second):
		fprintln(errOut, "graceful shutdown timed out, forced exit (130)")
		return 130
	case <-sigCh:
		fprintln(errOut, "graceful shutdown interrupted, forced exit (130)")
		return 130
	}
}

// allCommands returns every command in display order.
func allCommands() []*Command {
	return []*Command{
		InitCmd(),
		CreateCmd(),
		ShowCmd(),
		ListCmd(),
		TreeCmd(),
		FindPathCmd(),
		RebuildCmd(),
		DoctorCmd(),
		PackCmd(),
		LoadCmd(),
		ExportCmd(),
		ShellCmd(),
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

const globalOptionsHelp = `  -h, --help             Show help
  -C, --cwd <dir>        Run as if started in <dir>`

func printGlobalOptions(w io.Writer) {
	fprintln(w, "Usage: qipu [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Global flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Run 'qipu --help' for a list of commands.")
}

func printUsage(w io.Writer, commands []*Command) {
	fprintln(w, "qipu - a local, file-backed knowledge store")
	fprintln(w)
	fprintln(w, "Usage: qipu [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Commands:")

	for _, cmd := range commands {
		fprintln(w, cmd.HelpLine())
	}
}
