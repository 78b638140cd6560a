package tools

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
)

// ExitCodeNotFound is reported when the requested tool is not installed.
const ExitCodeNotFound int32 = 127

var ErrToolNotFound = errors.New("tools: tool not installed")

// Command describes one subprocess invocation. Nil streams inherit the
// parent's stdio.
type Command struct {
	Name   string
	Args   []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Argv returns the command line as a single slice.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Name)
	return append(argv, c.Args...)
}

func (c Command) String() string {
	return shellquote.Join(c.Argv()...)
}

// ExitError reports a subprocess that started and exited non-zero.
type ExitError struct {
	Name string
	Code int32
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
}

// CommandRunner abstracts subprocess execution so command handlers can be
// exercised without the real toolchain.
type CommandRunner interface {
	Run(cmd Command) (int32, error)
}

// ExecRunner executes commands on the local host and blocks until they exit.
type ExecRunner struct{}

func (r ExecRunner) Run(c Command) (int32, error) {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = orReader(c.Stdin, os.Stdin)
	cmd.Stdout = orWriter(c.Stdout, os.Stdout)
	cmd.Stderr = orWriter(c.Stderr, os.Stderr)

	log.Debug().Str("cmd", c.String()).Str("dir", c.Dir).Msg("tools exec")
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := int32(exitErr.ExitCode())
		// Signal-terminated children report -1.
		if code <= 0 {
			code = 1
		}
		return code, &ExitError{Name: c.Name, Code: code}
	}

	if isNotFound(err, cmd.Path) {
		return ExitCodeNotFound, fmt.Errorf("%w: %s", ErrToolNotFound, c.Name)
	}
	return 1, fmt.Errorf("tools: start %s: %w", c.Name, err)
}

func isNotFound(err error, path string) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Path == path {
		return errors.Is(pathErr.Err, fs.ErrNotExist)
	}
	return false
}

// Output runs a probe command in dir and returns its trimmed stdout. rustup
// resolves the active toolchain from the working directory, so probes about
// a project must run inside it.
func Output(r CommandRunner, dir string, name string, args ...string) (string, error) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	code, err := r.Run(Command{Name: name, Args: args, Dir: dir, Stdout: &stdout, Stderr: &stderr})
	if err == nil {
		return strings.TrimSpace(stdout.String()), nil
	}
	if errors.Is(err, ErrToolNotFound) {
		return "", err
	}
	return "", fmt.Errorf(
		"tools probe failed cmd=%s args=%q exit=%d stderr=%q: %w",
		name,
		strings.Join(args, " "),
		code,
		strings.TrimSpace(stderr.String()),
		err,
	)
}

// ObservedRunner wraps a runner and reports every completed run.
type ObservedRunner struct {
	Next    CommandRunner
	Observe func(name string, exitCode int32, elapsed time.Duration)
}

func (r ObservedRunner) Run(c Command) (int32, error) {
	next := r.Next
	if next == nil {
		next = ExecRunner{}
	}
	start := time.Now()
	code, err := next.Run(c)
	if r.Observe != nil {
		r.Observe(c.Name, code, time.Since(start))
	}
	return code, err
}

func orReader(r io.Reader, fallback io.Reader) io.Reader {
	if r == nil {
		return fallback
	}
	return r
}

func orWriter(w io.Writer, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}
