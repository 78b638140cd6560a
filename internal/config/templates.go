package config

import (
	"fmt"
	"os"
)

func Template() string {
	return projectTemplate
}

// WriteTemplate writes a commented pros.toml to path.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(projectTemplate), 0o644)
}

const projectTemplate = `# cargo-pros project configuration.
# Every key is optional; the values below are the defaults.

# External tools. Bare names are resolved on PATH.
cargo = "cargo"
rustc = "rustc"
rustup = "rustup"
uploader = "pros"
simulator = "pros-simulator"

# Leave unset to use the toolchain's llvm-objcopy, falling back to
# arm-none-eabi-objcopy.
# objcopy = "arm-none-eabi-objcopy"

# Device identifier passed to "pros upload --target".
upload_target = "v5"

# Extra cargo build arguments, shell-quoted. Prepended to arguments given
# after "--" on the command line.
build_args = ""

# Post-upload action when --action is not given: screen, run or none.
default_action = "none"

# Skip the nightly toolchain and wasm target checks.
skip_toolchain_check = false

# Write tool invocation metrics in node_exporter textfile format.
# metrics_textfile = "target/cargo_pros.prom"
`
