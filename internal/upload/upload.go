// Package upload resolves the image to flash and hands it to the external
// upload utility.
package upload

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/SizzinSeal/ZestCLI/internal/cargo"
	"github.com/SizzinSeal/ZestCLI/internal/tools"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingArtifact = errors.New("upload: binary not found")
	ErrBlankFile       = errors.New("upload: --file must not be blank")
)

type Options struct {
	Path      string
	Slot      uint8
	File      string
	Strip     bool
	Action    Action
	BuildArgs []string
}

type builder interface {
	Build(req cargo.Request) (cargo.Result, error)
}

type finisher interface {
	Finish(artifact string) (string, error)
}

type Dispatcher struct {
	Builder  builder
	Finisher finisher
	Runner   tools.CommandRunner
	Uploader string
	Target   string
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
}

// Resolve returns the path to upload. An explicit file wins and is only
// converted when strip is set; otherwise a fresh device build is converted.
// Only an empty File means "not given".
func (d *Dispatcher) Resolve(opts Options) (string, error) {
	if opts.File != "" {
		if strings.TrimSpace(opts.File) == "" {
			return "", ErrBlankFile
		}
		if !opts.Strip {
			return opts.File, nil
		}
		return d.Finisher.Finish(opts.File)
	}

	res, err := d.Builder.Build(cargo.Request{Path: opts.Path, Args: opts.BuildArgs})
	if err != nil {
		return "", err
	}
	if !res.HasArtifact() {
		return "", fmt.Errorf("%w: try explicitly providing one with --file (-f)", ErrMissingArtifact)
	}
	return d.Finisher.Finish(res.Artifact)
}

// Upload resolves the artifact and runs the upload utility, propagating its
// exit status. The utility is never spawned when resolution fails.
func (d *Dispatcher) Upload(opts Options) error {
	artifact, err := d.Resolve(opts)
	if err != nil {
		return err
	}

	log.Info().
		Str("artifact", artifact).
		Uint8("slot", opts.Slot).
		Str("after", opts.Action.String()).
		Msg("uploading")
	_, err = d.runner().Run(tools.Command{
		Name:   d.uploader(),
		Args:   Args(d.target(), opts.Slot, opts.Action, artifact),
		Stdin:  d.Stdin,
		Stdout: d.Stdout,
		Stderr: d.Stderr,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", artifact, err)
	}
	return nil
}

// Args returns the upload utility's argument list.
func Args(target string, slot uint8, action Action, artifact string) []string {
	return []string{
		"upload",
		"--target", target,
		"--slot", strconv.Itoa(int(slot)),
		"--after", action.String(),
		artifact,
	}
}

func (d *Dispatcher) runner() tools.CommandRunner {
	if d.Runner == nil {
		return tools.ExecRunner{}
	}
	return d.Runner
}

func (d *Dispatcher) uploader() string {
	if strings.TrimSpace(d.Uploader) == "" {
		return "pros"
	}
	return d.Uploader
}

func (d *Dispatcher) target() string {
	if strings.TrimSpace(d.Target) == "" {
		return "v5"
	}
	return d.Target
}
