package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/SizzinSeal/ZestCLI/internal/observability"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "CARGO_PROS_LOG_LEVEL"
	EnvLogTimestamp = "CARGO_PROS_LOG_TIMESTAMP"
	EnvLogNoColor   = "CARGO_PROS_LOG_NOCOLOR"
	EnvNoColor      = "NO_COLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	Out       io.Writer
}

var configureOnce sync.Once

func ConfigureRuntime() {
	Configure(ProfileRuntime)
}

func ConfigureTests() {
	Configure(ProfileTest)
}

func Configure(profile Profile) {
	configureOnce.Do(func() {
		cfg := defaultConfig(profile)
		applyEnvOverrides(&cfg)
		apply(cfg)
	})
}

// SetVerbose lowers the global level to debug; it never raises it and leaves
// disabled logging off.
func SetVerbose(verbose bool) {
	level := zerolog.GlobalLevel()
	if verbose && level > zerolog.DebugLevel && level != zerolog.Disabled {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func apply(cfg Config) {
	zerolog.SetGlobalLevel(cfg.Level)
	log.Logger = observability.NewConsoleLogger(cfg.Out, cfg.NoColor, cfg.Timestamp)
}

func defaultConfig(profile Profile) Config {
	cfg := Config{Out: os.Stderr}
	switch profile {
	case ProfileTest:
		cfg.Level = zerolog.DebugLevel
		cfg.Timestamp = false
		cfg.NoColor = true
	default:
		cfg.Level = zerolog.InfoLevel
		cfg.Timestamp = false
	}
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if os.Getenv(EnvNoColor) != "" {
		cfg.NoColor = true
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
