// Package sim builds a project for the simulator and launches the simulator
// front-end on the result.
package sim

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/SizzinSeal/ZestCLI/internal/cargo"
	"github.com/SizzinSeal/ZestCLI/internal/tools"
	"github.com/rs/zerolog/log"
)

var ErrNoBinaryTarget = errors.New("sim: binary target not found (is this a library?)")

type Options struct {
	Path      string
	BuildArgs []string
	UI        string
}

type builder interface {
	Build(req cargo.Request) (cargo.Result, error)
}

type Launcher struct {
	Builder   builder
	Runner    tools.CommandRunner
	Simulator string
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
}

// Launch builds in simulator mode and runs the simulator once the build has
// produced an executable, waiting for the simulator to exit.
func (l *Launcher) Launch(opts Options) error {
	res, err := l.Builder.Build(cargo.Request{Path: opts.Path, Args: opts.BuildArgs, Simulator: true})
	if err != nil {
		return err
	}
	if !res.HasArtifact() {
		return ErrNoBinaryTarget
	}

	projectDir := opts.Path
	if projectDir == "" {
		projectDir = "."
	}
	if abs, err := filepath.Abs(projectDir); err == nil {
		projectDir = abs
	}

	log.Info().Str("artifact", res.Artifact).Str("ui", opts.UI).Msg("launching simulator")
	_, err = l.runner().Run(tools.Command{
		Name:   l.simulator(),
		Args:   Args(projectDir, res.Artifact, opts.UI),
		Stdin:  l.Stdin,
		Stdout: l.Stdout,
		Stderr: l.Stderr,
	})
	if err != nil {
		return fmt.Errorf("simulator: %w", err)
	}
	return nil
}

// Args returns the simulator's argument list. The UI selection is omitted
// when empty.
func Args(projectDir, artifact, ui string) []string {
	args := []string{"--code", artifact}
	if strings.TrimSpace(ui) != "" {
		args = append(args, "--ui", ui)
	}
	return append(args, projectDir)
}

func (l *Launcher) runner() tools.CommandRunner {
	if l.Runner == nil {
		return tools.ExecRunner{}
	}
	return l.Runner
}

func (l *Launcher) simulator() string {
	if strings.TrimSpace(l.Simulator) == "" {
		return "pros-simulator"
	}
	return l.Simulator
}
