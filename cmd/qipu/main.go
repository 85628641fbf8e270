// Package main provides qipu, a local, file-backed knowledge store.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/qipu-dev/qipu/internal/cli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, sigCh)

	os.Exit(exitCode)
}
