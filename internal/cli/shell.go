package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/peterh/liner"
)

// ShellCmd opens an interactive REPL that dispatches lines to the same
// command table Run uses, so "qipu shell" and one-shot invocations stay in
// sync automatically.
func ShellCmd() *Command {
	return &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell",
		Short: "Start an interactive session",
		Exec: func(ctx context.Context, o *IO, a *App, _ []string) error {
			return runShell(ctx, o, a)
		},
	}
}

func shellHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".qipu_history")
}

func runShell(ctx context.Context, o *IO, a *App) error {
	commands := allCommands()

	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) []string {
		var out []string

		for name := range commandMap {
			if strings.HasPrefix(name, prefix) {
				out = append(out, name)
			}
		}

		return out
	})

	if f, err := os.Open(shellHistoryFile()); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	o.Println("qipu shell — type 'help' for commands, 'exit' to quit")

	for {
		input, err := line.Prompt("qipu> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				o.Println()
				break
			}

			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		parts := strings.Fields(input)
		name, args := parts[0], parts[1:]

		switch name {
		case "exit", "quit", "q":
			saveShellHistory(line)
			return nil
		case "help", "?":
			for _, cmd := range commands {
				o.Println(cmd.HelpLine())
			}
			continue
		}

		cmd, ok := commandMap[name]
		if !ok {
			o.ErrPrintln("unknown command:", name)
			continue
		}

		cmd.Run(ctx, o, a, args)
	}

	saveShellHistory(line)

	return nil
}

func saveShellHistory(line *liner.State) {
	path := shellHistoryFile()
	if path == "" {
		return
	}

	if f, err := os.Create(path); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}
