package cargo

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SizzinSeal/ZestCLI/internal/testutil/fakerun"
	"github.com/SizzinSeal/ZestCLI/internal/testutil/testlog"
	"github.com/SizzinSeal/ZestCLI/internal/tools"
	"github.com/google/go-cmp/cmp"
)

const vexideManifest = `
[package]
name = "robot"
version = "0.1.0"

[dependencies]
vexide = "0.4"
`

func writeProject(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return dir
}

func TestBuildDeviceProfileForwardsArgsAndReturnsArtifact(t *testing.T) {
	testlog.Start(t)
	dir := writeProject(t, vexideManifest)
	elf := filepath.Join(dir, "target", DeviceTarget, "debug", "robot")
	runner := fakerun.New().On("cargo", fakerun.Result{
		Stdout: fakerun.CargoArtifact("vexide", "") + fakerun.CargoArtifact("robot", elf) + fakerun.CargoFinished(true),
	})
	b := &Builder{Runner: runner, SkipToolchainCheck: true, Stderr: &bytes.Buffer{}}

	res, err := b.Build(Request{Path: dir, Args: []string{"--release", "--features", "a b"}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Artifact != elf {
		t.Fatalf("unexpected artifact: %q", res.Artifact)
	}

	calls := runner.Calls("cargo")
	if len(calls) != 1 {
		t.Fatalf("expected one cargo call, got %d", len(calls))
	}
	specPath := filepath.Join(dir, "target", DeviceTarget+".json")
	want := []string{
		"build",
		"--message-format=json-render-diagnostics",
		"--manifest-path", filepath.Join(dir, "Cargo.toml"),
		"--target", specPath,
		"-Zbuild-std=core,alloc,compiler_builtins",
		"-Zbuild-std-features=compiler-builtins-mem",
		"--release", "--features", "a b",
	}
	if diff := cmp.Diff(want, calls[0].Args); diff != "" {
		t.Fatalf("cargo args mismatch (-want +got):\n%s", diff)
	}
	if calls[0].Dir != dir {
		t.Fatalf("unexpected working dir: %q", calls[0].Dir)
	}
	spec, err := os.ReadFile(specPath)
	if err != nil {
		t.Fatalf("read target spec: %v", err)
	}
	if !bytes.Equal(spec, DeviceTargetSpec()) {
		t.Fatalf("target spec content mismatch")
	}
}

func TestBuildSimulatorProfile(t *testing.T) {
	testlog.Start(t)
	dir := writeProject(t, vexideManifest)
	wasm := filepath.Join(dir, "target", SimulatorTarget, "debug", "robot.wasm")
	runner := fakerun.New().On("cargo", fakerun.Result{Stdout: fakerun.CargoArtifact("robot", wasm)})
	b := &Builder{Runner: runner, SkipToolchainCheck: true, Stderr: &bytes.Buffer{}}

	res, err := b.Build(Request{Path: dir, Args: []string{"-p", "robot"}, Simulator: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Artifact != wasm {
		t.Fatalf("unexpected artifact: %q", res.Artifact)
	}
	want := []string{
		"build",
		"--message-format=json-render-diagnostics",
		"--manifest-path", filepath.Join(dir, "Cargo.toml"),
		"--target", SimulatorTarget,
		"-Zbuild-std=std,panic_abort",
		simulatorRustflags,
		"-p", "robot",
	}
	if diff := cmp.Diff(want, runner.Calls("cargo")[0].Args); diff != "" {
		t.Fatalf("cargo args mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(dir, "target", DeviceTarget+".json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("simulator build must not write the device target spec: %v", err)
	}
}

func TestBuildFailureReturnsNoArtifact(t *testing.T) {
	testlog.Start(t)
	dir := writeProject(t, vexideManifest)
	runner := fakerun.New().On("cargo", fakerun.Result{
		Stdout:   fakerun.CargoArtifact("robot", "/tmp/robot") + fakerun.CargoFinished(false),
		ExitCode: 101,
	})
	b := &Builder{Runner: runner, SkipToolchainCheck: true, Stderr: &bytes.Buffer{}}

	res, err := b.Build(Request{Path: dir})
	if !errors.Is(err, ErrBuildFailed) {
		t.Fatalf("expected ErrBuildFailed, got %v", err)
	}
	var exitErr *tools.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 101 {
		t.Fatalf("expected exit code 101, got %v", err)
	}
	if res.HasArtifact() {
		t.Fatalf("failed build must not report an artifact: %+v", res)
	}
	if len(runner.Calls("cargo")) != 1 {
		t.Fatalf("failed builds must not be retried")
	}
}

func TestBuildMissingCargo(t *testing.T) {
	testlog.Start(t)
	dir := writeProject(t, vexideManifest)
	runner := fakerun.New().On("cargo", fakerun.NotFound("cargo"))
	b := &Builder{Runner: runner, SkipToolchainCheck: true, Stderr: &bytes.Buffer{}}

	_, err := b.Build(Request{Path: dir})
	if !errors.Is(err, tools.ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
	if errors.Is(err, ErrBuildFailed) {
		t.Fatalf("missing tool must not be reported as a failed build: %v", err)
	}
}

func TestBuildLibraryHasNoArtifact(t *testing.T) {
	testlog.Start(t)
	dir := writeProject(t, vexideManifest)
	runner := fakerun.New().On("cargo", fakerun.Result{Stdout: fakerun.CargoArtifact("robot", "")})
	b := &Builder{Runner: runner, SkipToolchainCheck: true, Stderr: &bytes.Buffer{}}

	res, err := b.Build(Request{Path: dir})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.HasArtifact() {
		t.Fatalf("expected no artifact, got %q", res.Artifact)
	}
}

func TestBuildMultipleExecutablesSelectsLast(t *testing.T) {
	testlog.Start(t)
	dir := writeProject(t, vexideManifest)
	runner := fakerun.New().On("cargo", fakerun.Result{
		Stdout: fakerun.CargoArtifact("first", "/out/first") + fakerun.CargoArtifact("second", "/out/second"),
	})
	b := &Builder{Runner: runner, SkipToolchainCheck: true, Stderr: &bytes.Buffer{}}

	res, err := b.Build(Request{Path: dir})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Artifact != "/out/second" {
		t.Fatalf("unexpected artifact: %q", res.Artifact)
	}
	if diff := cmp.Diff([]string{"/out/first", "/out/second"}, res.Candidates); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWithoutManifest(t *testing.T) {
	testlog.Start(t)
	runner := fakerun.New()
	b := &Builder{Runner: runner, SkipToolchainCheck: true}

	_, err := b.Build(Request{Path: t.TempDir()})
	if !errors.Is(err, ErrNoManifest) {
		t.Fatalf("expected ErrNoManifest, got %v", err)
	}
	if runner.Called("cargo") {
		t.Fatalf("cargo must not run without a manifest")
	}
}

func TestBuildRequiresNightly(t *testing.T) {
	testlog.Start(t)
	dir := writeProject(t, vexideManifest)
	runner := fakerun.New().On("rustc", fakerun.Result{Stdout: "rustc 1.80.0 (051478957 2024-07-21)\n"})
	b := &Builder{Runner: runner, Stderr: &bytes.Buffer{}}

	_, err := b.Build(Request{Path: dir})
	if !errors.Is(err, ErrNotNightly) {
		t.Fatalf("expected ErrNotNightly, got %v", err)
	}
	if runner.Called("cargo") {
		t.Fatalf("cargo must not run on a stable toolchain")
	}
}

func TestBuildSimulatorRequiresWasmTarget(t *testing.T) {
	testlog.Start(t)
	dir := writeProject(t, vexideManifest)
	runner := fakerun.New().
		On("rustc", fakerun.Result{Stdout: "rustc 1.82.0-nightly (abc 2024-08-01)\n"}).
		On("rustup", fakerun.Result{Stdout: "armv7a-none-eabi\nx86_64-unknown-linux-gnu\n"})
	b := &Builder{Runner: runner, Stderr: &bytes.Buffer{}}

	_, err := b.Build(Request{Path: dir, Simulator: true})
	if !errors.Is(err, ErrWasmTargetMissing) {
		t.Fatalf("expected ErrWasmTargetMissing, got %v", err)
	}
	argv := runner.Calls("rustup")[0].Args
	if diff := cmp.Diff([]string{"target", "list", "--installed"}, argv); diff != "" {
		t.Fatalf("rustup args mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPreflightPassesOnNightlyWithWasm(t *testing.T) {
	testlog.Start(t)
	dir := writeProject(t, vexideManifest)
	runner := fakerun.New().
		On("rustc", fakerun.Result{Stdout: "rustc 1.82.0-nightly (abc 2024-08-01)\n"}).
		On("rustup", fakerun.Result{Stdout: "wasm32-unknown-unknown\n"}).
		On("cargo", fakerun.Result{Stdout: fakerun.CargoArtifact("robot", "/out/robot.wasm")})
	b := &Builder{Runner: runner, Stderr: &bytes.Buffer{}}

	res, err := b.Build(Request{Path: dir, Simulator: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Artifact != "/out/robot.wasm" {
		t.Fatalf("unexpected artifact: %q", res.Artifact)
	}
}

func TestBuildPreflightRunsInProjectDir(t *testing.T) {
	testlog.Start(t)
	dir := writeProject(t, vexideManifest)
	runner := fakerun.New().
		On("rustc", fakerun.Result{Stdout: "rustc 1.82.0-nightly (abc 2024-08-01)\n"}).
		On("rustup", fakerun.Result{Stdout: "wasm32-unknown-unknown\n"}).
		On("cargo", fakerun.Result{Stdout: fakerun.CargoArtifact("robot", "/out/robot.wasm")})
	b := &Builder{Runner: runner, Stderr: &bytes.Buffer{}}

	if _, err := b.Build(Request{Path: dir, Simulator: true}); err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, name := range []string{"rustc", "rustup", "cargo"} {
		calls := runner.Calls(name)
		if len(calls) != 1 {
			t.Fatalf("expected one %s call, got %d", name, len(calls))
		}
		if calls[0].Dir != dir {
			t.Fatalf("%s ran in %q, project is %q", name, calls[0].Dir, dir)
		}
	}
}

func TestBuildForwardsNonJSONOutput(t *testing.T) {
	testlog.Start(t)
	dir := writeProject(t, vexideManifest)
	var stderr bytes.Buffer
	runner := fakerun.New().On("cargo", fakerun.Result{
		Stdout: "warning: build script said hello\n" + fakerun.CargoArtifact("robot", "/out/robot"),
	})
	b := &Builder{Runner: runner, SkipToolchainCheck: true, Stderr: &stderr}

	if _, err := b.Build(Request{Path: dir}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(stderr.String(), "build script said hello") {
		t.Fatalf("expected passthrough output, got %q", stderr.String())
	}
	if strings.Contains(stderr.String(), "compiler-artifact") {
		t.Fatalf("JSON messages must not be forwarded: %q", stderr.String())
	}
}
