package cargo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/SizzinSeal/ZestCLI/internal/tools"
	"github.com/rs/zerolog/log"
)

var (
	ErrBuildFailed       = errors.New("cargo: build failed")
	ErrNoManifest        = errors.New("cargo: no Cargo.toml found")
	ErrNotNightly        = errors.New("cargo: a nightly rust toolchain is required")
	ErrWasmTargetMissing = errors.New("cargo: the " + SimulatorTarget + " target is not installed")
)

// Request is one cargo build. Args are forwarded verbatim after the profile
// arguments.
type Request struct {
	Path      string
	Args      []string
	Simulator bool
}

// Result carries the executable produced by a successful build. Artifact is
// empty when the build produced no executable (a library crate).
type Result struct {
	Artifact   string
	Candidates []string
}

func (r Result) HasArtifact() bool {
	return r.Artifact != ""
}

type Builder struct {
	Runner             tools.CommandRunner
	Cargo              string
	Rustc              string
	Rustup             string
	SkipToolchainCheck bool
	// Stderr receives cargo's rendered diagnostics and any non-JSON stdout.
	Stderr io.Writer
}

// Build runs cargo for req and blocks until it exits. A non-zero cargo exit
// is returned as an error wrapping ErrBuildFailed and the *tools.ExitError;
// no artifact is reported in that case.
func (b *Builder) Build(req Request) (Result, error) {
	projectDir, err := filepath.Abs(orDefault(req.Path, "."))
	if err != nil {
		return Result{}, fmt.Errorf("resolve project path: %w", err)
	}
	manifestPath := filepath.Join(projectDir, "Cargo.toml")
	manifest, err := ReadManifest(manifestPath)
	if err != nil {
		return Result{}, err
	}
	if manifest.UsesLegacyPros() {
		log.Warn().
			Str("package", manifest.Package.Name).
			Msg("project depends on the legacy pros crate; consider upgrading to vexide")
	}

	if !b.SkipToolchainCheck {
		if err := b.checkToolchain(projectDir, req.Simulator); err != nil {
			return Result{}, err
		}
	}

	args, err := b.Args(projectDir, req)
	if err != nil {
		return Result{}, err
	}

	profile := "device"
	if req.Simulator {
		profile = "simulator"
	}
	log.Info().
		Str("package", manifest.Package.Name).
		Str("profile", profile).
		Msg("building")

	stream := newMessageStream(b.stderr())
	_, err = b.runner().Run(tools.Command{
		Name:   b.cargo(),
		Args:   args,
		Dir:    projectDir,
		Stdout: stream,
		Stderr: b.stderr(),
	})
	stream.Flush()
	if err != nil {
		if errors.Is(err, tools.ErrToolNotFound) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}

	return selectArtifact(stream.Executables()), nil
}

// Args returns the full cargo argument list for req in projectDir. For the
// device profile the target spec file is written as a side effect.
func (b *Builder) Args(projectDir string, req Request) ([]string, error) {
	args := []string{
		"build",
		"--message-format=json-render-diagnostics",
		"--manifest-path", filepath.Join(projectDir, "Cargo.toml"),
	}
	profile, err := profileArgs(projectDir, req.Simulator)
	if err != nil {
		return nil, err
	}
	args = append(args, profile...)
	return append(args, req.Args...), nil
}

// selectArtifact picks the last executable cargo reported.
func selectArtifact(executables []string) Result {
	if len(executables) == 0 {
		return Result{}
	}
	res := Result{
		Artifact:   executables[len(executables)-1],
		Candidates: executables,
	}
	if len(executables) > 1 {
		log.Warn().
			Str("selected", res.Artifact).
			Str("candidates", strings.Join(executables, ", ")).
			Msg("build produced multiple executables; using the last one")
	}
	return res
}

func (b *Builder) runner() tools.CommandRunner {
	if b.Runner == nil {
		return tools.ExecRunner{}
	}
	return b.Runner
}

func (b *Builder) cargo() string { return orDefault(b.Cargo, "cargo") }
func (b *Builder) rustc() string { return orDefault(b.Rustc, "rustc") }
func (b *Builder) rustup() string { return orDefault(b.Rustup, "rustup") }

func (b *Builder) stderr() io.Writer {
	if b.Stderr == nil {
		return os.Stderr
	}
	return b.Stderr
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
