package cargo

import (
	"fmt"
	"strings"

	"github.com/SizzinSeal/ZestCLI/internal/tools"
)

// checkToolchain verifies the toolchain active in projectDir accepts -Z flags
// and, for simulator builds, that the wasm target's std is installed.
func (b *Builder) checkToolchain(projectDir string, simulator bool) error {
	version, err := tools.Output(b.runner(), projectDir, b.rustc(), "--version")
	if err != nil {
		return err
	}
	if !isNightly(version) {
		return fmt.Errorf("%w: found %q", ErrNotNightly, version)
	}
	if !simulator {
		return nil
	}

	installed, err := tools.Output(b.runner(), projectDir, b.rustup(), "target", "list", "--installed")
	if err != nil {
		return err
	}
	for _, line := range strings.Split(installed, "\n") {
		if strings.TrimSpace(line) == SimulatorTarget {
			return nil
		}
	}
	return ErrWasmTargetMissing
}

func isNightly(version string) bool {
	return strings.Contains(version, "-nightly") || strings.Contains(version, "-dev")
}
