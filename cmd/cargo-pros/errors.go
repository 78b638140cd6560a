package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/SizzinSeal/ZestCLI/internal/cargo"
	"github.com/SizzinSeal/ZestCLI/internal/sim"
	"github.com/SizzinSeal/ZestCLI/internal/tools"
	"github.com/SizzinSeal/ZestCLI/internal/upload"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

// usageError marks argument parsing failures.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func formatError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "error: %v\n", err)
	if hint := hintFor(err); hint != "" {
		_, _ = fmt.Fprintf(w, "hint: %s\n", hint)
	}
}

func hintFor(err error) string {
	var usage *usageError
	switch {
	case errors.Is(err, tools.ErrToolNotFound):
		return "install the missing tool and make sure it is on PATH, or set its path in pros.toml"
	case errors.Is(err, upload.ErrMissingArtifact):
		return "pass an already built program with --file (-f)"
	case errors.Is(err, sim.ErrNoBinaryTarget):
		return "the simulator needs a crate with a binary target"
	case errors.Is(err, cargo.ErrNotNightly):
		return "run `rustup override set nightly` in the project directory"
	case errors.Is(err, cargo.ErrWasmTargetMissing):
		return "run `rustup target add " + cargo.SimulatorTarget + "`"
	case errors.Is(err, cargo.ErrNoManifest):
		return "point --path at a cargo project"
	case errors.As(err, &usage):
		return "run with --help for usage"
	}
	return ""
}

func exitCode(err error) int {
	var usage *usageError
	if errors.As(err, &usage) {
		return exitUsage
	}
	if errors.Is(err, tools.ErrToolNotFound) {
		return int(tools.ExitCodeNotFound)
	}
	var exitErr *tools.ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return int(exitErr.Code)
	}
	return exitFailure
}
