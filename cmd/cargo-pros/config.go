package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/SizzinSeal/ZestCLI/internal/config"
	"github.com/SizzinSeal/ZestCLI/internal/upload"
	"github.com/kballard/go-shellquote"
)

type fileConfig struct {
	Cargo              string `toml:"cargo"`
	Rustc              string `toml:"rustc"`
	Rustup             string `toml:"rustup"`
	Objcopy            string `toml:"objcopy"`
	Uploader           string `toml:"uploader"`
	Simulator          string `toml:"simulator"`
	UploadTarget       string `toml:"upload_target"`
	BuildArgs          string `toml:"build_args"`
	DefaultAction      string `toml:"default_action"`
	SkipToolchainCheck bool   `toml:"skip_toolchain_check"`
	MetricsTextfile    string `toml:"metrics_textfile"`
}

// loadConfig reads path over the defaults. A missing file is only an error
// when required is set.
func loadConfig(path string, required bool) (config.Config, error) {
	cfg := config.Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config.Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	tools := []struct {
		key string
		raw string
		dst *string
	}{
		{"cargo", raw.Cargo, &cfg.Tools.Cargo},
		{"rustc", raw.Rustc, &cfg.Tools.Rustc},
		{"rustup", raw.Rustup, &cfg.Tools.Rustup},
		{"objcopy", raw.Objcopy, &cfg.Tools.Objcopy},
		{"uploader", raw.Uploader, &cfg.Tools.Uploader},
		{"simulator", raw.Simulator, &cfg.Tools.Simulator},
		{"upload_target", raw.UploadTarget, &cfg.UploadTarget},
		{"metrics_textfile", raw.MetricsTextfile, &cfg.MetricsTextfile},
	}
	for _, tool := range tools {
		if meta.IsDefined(tool.key) {
			*tool.dst = strings.TrimSpace(tool.raw)
		}
	}

	if meta.IsDefined("build_args") {
		args, err := shellquote.Split(raw.BuildArgs)
		if err != nil {
			return config.Config{}, fmt.Errorf("parse build_args: %w", err)
		}
		cfg.BuildArgs = args
	}

	if meta.IsDefined("default_action") {
		action := strings.TrimSpace(raw.DefaultAction)
		if _, err := upload.ParseAction(action); err != nil {
			return config.Config{}, fmt.Errorf("parse default_action: %w", err)
		}
		cfg.DefaultAction = action
	}

	if meta.IsDefined("skip_toolchain_check") {
		cfg.SkipToolchainCheck = raw.SkipToolchainCheck
	}

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
