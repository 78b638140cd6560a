package config

import (
	"fmt"
	"strings"
)

// FileName is the per-project configuration file looked up under --path.
const FileName = "pros.toml"

// Tools names the external executables. Bare names are resolved on PATH.
type Tools struct {
	Cargo     string
	Rustc     string
	Rustup    string
	Objcopy   string
	Uploader  string
	Simulator string
}

type Config struct {
	Tools              Tools
	UploadTarget       string
	BuildArgs          []string
	DefaultAction      string
	SkipToolchainCheck bool
	MetricsTextfile    string
}

// Default returns the configuration used when no pros.toml is present.
// An empty Objcopy selects toolchain discovery.
func Default() Config {
	return Config{
		Tools: Tools{
			Cargo:     "cargo",
			Rustc:     "rustc",
			Rustup:    "rustup",
			Uploader:  "pros",
			Simulator: "pros-simulator",
		},
		UploadTarget:  "v5",
		BuildArgs:     []string{},
		DefaultAction: "none",
	}
}

func Validate(cfg Config) error {
	required := []struct {
		key   string
		value string
	}{
		{"cargo", cfg.Tools.Cargo},
		{"rustc", cfg.Tools.Rustc},
		{"rustup", cfg.Tools.Rustup},
		{"uploader", cfg.Tools.Uploader},
		{"simulator", cfg.Tools.Simulator},
		{"upload_target", cfg.UploadTarget},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("config %s must not be empty", r.key)
		}
	}
	return nil
}
