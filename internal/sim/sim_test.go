package sim

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/SizzinSeal/ZestCLI/internal/cargo"
	"github.com/SizzinSeal/ZestCLI/internal/testutil/fakerun"
	"github.com/SizzinSeal/ZestCLI/internal/testutil/testlog"
	"github.com/SizzinSeal/ZestCLI/internal/tools"
	"github.com/google/go-cmp/cmp"
)

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	manifest := "[package]\nname = \"robot\"\nversion = \"0.1.0\"\n"
	if err := os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return dir
}

func newLauncher(runner *fakerun.Runner) *Launcher {
	return &Launcher{
		Builder: &cargo.Builder{
			Runner:             runner,
			SkipToolchainCheck: true,
			Stderr:             &bytes.Buffer{},
		},
		Runner:    runner,
		Simulator: "pros-simulator",
	}
}

func TestLaunchPassesArtifactProjectAndUI(t *testing.T) {
	testlog.Start(t)
	dir := newProject(t)
	wasm := filepath.Join(dir, "target", cargo.SimulatorTarget, "debug", "robot.wasm")
	runner := fakerun.New().On("cargo", fakerun.Result{Stdout: fakerun.CargoArtifact("robot", wasm)})
	l := newLauncher(runner)

	if err := l.Launch(Options{Path: dir, UI: "tui", BuildArgs: []string{"--release"}}); err != nil {
		t.Fatalf("launch: %v", err)
	}

	cargoArgs := runner.Calls("cargo")[0].Args
	if diff := cmp.Diff([]string{"--target", cargo.SimulatorTarget}, cargoArgs[4:6]); diff != "" {
		t.Fatalf("sim must build the simulator profile (-want +got):\n%s", diff)
	}
	if cargoArgs[len(cargoArgs)-1] != "--release" {
		t.Fatalf("build args not forwarded: %v", cargoArgs)
	}

	calls := runner.Calls("pros-simulator")
	if len(calls) != 1 {
		t.Fatalf("expected one simulator launch, got %d", len(calls))
	}
	want := []string{"--code", wasm, "--ui", "tui", dir}
	if diff := cmp.Diff(want, calls[0].Args); diff != "" {
		t.Fatalf("simulator args mismatch (-want +got):\n%s", diff)
	}
	if runner.Commands[len(runner.Commands)-1].Name != "pros-simulator" {
		t.Fatalf("simulator must launch after the build")
	}
}

func TestLaunchWithoutUI(t *testing.T) {
	if diff := cmp.Diff([]string{"--code", "a.wasm", "/proj"}, Args("/proj", "a.wasm", "")); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestLaunchLibraryNeverSpawnsSimulator(t *testing.T) {
	testlog.Start(t)
	runner := fakerun.New().On("cargo", fakerun.Result{Stdout: fakerun.CargoArtifact("robot", "")})
	l := newLauncher(runner)

	err := l.Launch(Options{Path: newProject(t)})
	if !errors.Is(err, ErrNoBinaryTarget) {
		t.Fatalf("expected ErrNoBinaryTarget, got %v", err)
	}
	if runner.Called("pros-simulator") {
		t.Fatalf("simulator must not start without an artifact")
	}
}

func TestLaunchBuildFailureNeverSpawnsSimulator(t *testing.T) {
	testlog.Start(t)
	runner := fakerun.New().On("cargo", fakerun.Result{ExitCode: 101})
	l := newLauncher(runner)

	err := l.Launch(Options{Path: newProject(t)})
	if !errors.Is(err, cargo.ErrBuildFailed) {
		t.Fatalf("expected ErrBuildFailed, got %v", err)
	}
	if runner.Called("pros-simulator") {
		t.Fatalf("simulator must not start after a failed build")
	}
}

func TestLaunchPropagatesSimulatorExit(t *testing.T) {
	testlog.Start(t)
	runner := fakerun.New().
		On("cargo", fakerun.Result{Stdout: fakerun.CargoArtifact("robot", "/out/robot.wasm")}).
		On("pros-simulator", fakerun.Result{ExitCode: 3})
	l := newLauncher(runner)

	err := l.Launch(Options{Path: newProject(t)})
	var exitErr *tools.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Fatalf("expected simulator exit 3, got %v", err)
	}
}
