// Package main provides the specimen CLI entrypoint.
//
// Exit codes:
//   - 0: success
//   - 1: usage or artifact I/O error
//   - 2: configuration or signature database error
//   - 3: report sink failure
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Set via ldflags at build time
var (
	version = "dev"
	commit  = "unknown"
)

const (
	exitUsage  = 1
	exitConfig = 2
	exitSink   = 3
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		os.Exit(exitUsage)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "specimen",
		Usage:          "Static triage of PE and ELF binaries",
		Version:        fmt.Sprintf("%s (commit: %s)", version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			analyzeCommand(),
			batchCommand(),
			compareCommand(),
			signaturesCommand(),
			versionCommand(),
		},
	}
}

// exitErrHandler preserves exit codes from cli.Exit and maps everything else to exitUsage
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitUsage)
}
