// Package objcopy turns a linked ELF into the flat binary image the V5 brain
// loads.
package objcopy

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/SizzinSeal/ZestCLI/internal/tools"
	"github.com/rs/zerolog/log"
)

const (
	// BinaryExt is the extension of the derived flashable image.
	BinaryExt = ".bin"
	// FallbackObjcopy is used when the rust toolchain ships no llvm-objcopy.
	FallbackObjcopy = "arm-none-eabi-objcopy"
)

var ErrConvertFailed = errors.New("objcopy: binary conversion failed")

// BinaryPath returns artifact with its extension replaced by BinaryExt.
func BinaryPath(artifact string) string {
	base := filepath.Base(artifact)
	ext := filepath.Ext(base)
	if ext == base {
		// Dotfiles have a stem and no extension.
		ext = ""
	}
	return strings.TrimSuffix(artifact, ext) + BinaryExt
}

// Converter runs objcopy on build artifacts. Objcopy pins the converter
// binary; empty enables toolchain discovery. Dir is the project directory:
// discovery runs there so rust-toolchain.toml and rustup overrides apply.
type Converter struct {
	Runner  tools.CommandRunner
	Objcopy string
	Rustc   string
	Dir     string
	Stdout  io.Writer
	Stderr  io.Writer
}

// Finish writes the stripped binary image next to artifact and returns its
// path.
func (c *Converter) Finish(artifact string) (string, error) {
	out := BinaryPath(artifact)
	_, err := c.runner().Run(tools.Command{
		Name:   c.Resolve(),
		Args:   Args(artifact, out),
		Stdout: c.Stdout,
		Stderr: c.Stderr,
	})
	if err != nil {
		if errors.Is(err, tools.ErrToolNotFound) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s: %w", ErrConvertFailed, artifact, err)
	}
	log.Info().Str("binary", out).Msg("converted ELF to binary")
	return out, nil
}

// Args returns the objcopy arguments converting in to the flat image out.
func Args(in, out string) []string {
	return []string{"-O", "binary", "-R", ".hot_init", in, out}
}

// Resolve picks the objcopy executable: the pinned one, then the toolchain's
// llvm-objcopy, then FallbackObjcopy.
func (c *Converter) Resolve() string {
	if strings.TrimSpace(c.Objcopy) != "" {
		return c.Objcopy
	}
	if path, ok := c.toolchainObjcopy(); ok {
		return path
	}
	return FallbackObjcopy
}

func (c *Converter) toolchainObjcopy() (string, bool) {
	rustc := c.Rustc
	if strings.TrimSpace(rustc) == "" {
		rustc = "rustc"
	}
	sysroot, err := tools.Output(c.runner(), c.Dir, rustc, "--print", "sysroot")
	if err != nil || sysroot == "" {
		log.Debug().Err(err).Msg("objcopy: rustc sysroot unavailable")
		return "", false
	}
	verbose, err := tools.Output(c.runner(), c.Dir, rustc, "-vV")
	if err != nil {
		log.Debug().Err(err).Msg("objcopy: rustc host unavailable")
		return "", false
	}
	host := hostTriple(verbose)
	if host == "" {
		return "", false
	}

	name := "llvm-objcopy"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	path := filepath.Join(sysroot, "lib", "rustlib", host, "bin", name)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// hostTriple extracts the "host:" line of `rustc -vV`.
func hostTriple(verbose string) string {
	for _, line := range strings.Split(verbose, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "host:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func (c *Converter) runner() tools.CommandRunner {
	if c.Runner == nil {
		return tools.ExecRunner{}
	}
	return c.Runner
}
