package main

import (
	"io"
	"os"

	"github.com/SizzinSeal/ZestCLI/internal/logging"
	"github.com/SizzinSeal/ZestCLI/internal/tools"
)

// version is overridden at link time.
var version = "dev"

func main() {
	logging.ConfigureRuntime()
	os.Exit(run(os.Args[1:], tools.ExecRunner{}, os.Stdin, os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit code.
func run(args []string, runner tools.CommandRunner, stdin io.Reader, stdout, stderr io.Writer) int {
	a := newApp(runner, stdin, stdout, stderr)
	root := a.rootCommand()
	root.SetArgs(normalizeArgs(args))

	err := root.Execute()
	if flushErr := a.flushMetrics(); flushErr != nil && err == nil {
		err = flushErr
	}
	if err != nil {
		formatError(stderr, err)
		return exitCode(err)
	}
	return 0
}

// normalizeArgs accepts both `cargo pros ...` (cargo passes "pros" as the
// first argument) and a direct `cargo-pros ...`.
func normalizeArgs(args []string) []string {
	if len(args) > 0 && args[0] == "pros" {
		return args
	}
	return append([]string{"pros"}, args...)
}
