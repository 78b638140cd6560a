package cargo

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

const (
	DeviceTarget    = "armv7a-vexos-eabi"
	SimulatorTarget = "wasm32-unknown-unknown"
)

//go:embed armv7a-vexos-eabi.json
var deviceTargetSpec []byte

// simulatorRustflags enables the shared-memory wasm features the simulator
// host expects.
const simulatorRustflags = "--config=build.rustflags=['-Ctarget-feature=+atomics,+bulk-memory,+mutable-globals','-Clink-arg=--shared-memory','-Clink-arg=--export-table']"

// DeviceTargetSpec returns the custom target JSON for the V5 brain.
func DeviceTargetSpec() []byte {
	return append([]byte(nil), deviceTargetSpec...)
}

// writeTargetSpec materializes the device target under <project>/target and
// returns its path. An identical existing file is left untouched so cargo's
// fingerprinting stays warm.
func writeTargetSpec(projectDir string) (string, error) {
	dir := filepath.Join(projectDir, "target")
	path := filepath.Join(dir, DeviceTarget+".json")
	if existing, err := os.ReadFile(path); err == nil && string(existing) == string(deviceTargetSpec) {
		return path, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create target dir: %w", err)
	}
	if err := os.WriteFile(path, deviceTargetSpec, 0o644); err != nil {
		return "", fmt.Errorf("write target spec: %w", err)
	}
	return path, nil
}

// profileArgs returns the cargo arguments selecting the device or simulator
// build profile.
func profileArgs(projectDir string, simulator bool) ([]string, error) {
	if simulator {
		return []string{
			"--target", SimulatorTarget,
			"-Zbuild-std=std,panic_abort",
			simulatorRustflags,
		}, nil
	}
	specPath, err := writeTargetSpec(projectDir)
	if err != nil {
		return nil, err
	}
	return []string{
		"--target", specPath,
		"-Zbuild-std=core,alloc,compiler_builtins",
		"-Zbuild-std-features=compiler-builtins-mem",
	}, nil
}
