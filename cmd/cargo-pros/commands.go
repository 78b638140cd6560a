package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/SizzinSeal/ZestCLI/internal/cargo"
	"github.com/SizzinSeal/ZestCLI/internal/config"
	"github.com/SizzinSeal/ZestCLI/internal/logging"
	"github.com/SizzinSeal/ZestCLI/internal/objcopy"
	"github.com/SizzinSeal/ZestCLI/internal/observability"
	"github.com/SizzinSeal/ZestCLI/internal/sim"
	"github.com/SizzinSeal/ZestCLI/internal/tools"
	"github.com/SizzinSeal/ZestCLI/internal/upload"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds the state of one invocation: parsed persistent flags, the loaded
// configuration and the runner every step shares.
type app struct {
	runner tools.CommandRunner
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	path        string
	configPath  string
	metricsFile string
	verbose     bool

	cfg     config.Config
	command string
}

func newApp(runner tools.CommandRunner, stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		runner: runner,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		cfg:    config.Default(),
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "cargo",
		Short:         "Cargo subcommands for pros-rs projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	root.AddCommand(a.prosCommand())
	return root
}

func (a *app) prosCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "pros",
		Short:             "Manage pros-rs projects",
		Version:           version,
		PersistentPreRunE: a.setup,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&a.path, "path", ".", "Path to the project")
	flags.StringVar(&a.configPath, "config", "", "Configuration file (default <path>/"+config.FileName+")")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write tool metrics to this node_exporter textfile")
	flags.BoolVar(&a.verbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(
		a.buildCommand(),
		a.uploadCommand(),
		a.simCommand(),
		a.configCommand(),
	)
	return cmd
}

// setup runs before every pros subcommand except config.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	logging.SetVerbose(a.verbose)
	a.command = cmd.Name()

	path := a.configPath
	required := path != ""
	if !required {
		path = filepath.Join(a.path, config.FileName)
	}
	cfg, err := loadConfig(path, required)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.metricsFile == "" {
		a.metricsFile = cfg.MetricsTextfile
	}
	log.Debug().Str("config", path).Str("project", a.path).Msg("configured")
	return nil
}

func (a *app) buildCommand() *cobra.Command {
	var simulator bool
	cmd := &cobra.Command{
		Use:   "build [-- <cargo args>...]",
		Short: "Build the project for the brain or the simulator",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			buildArgs, err := a.buildArgs(cmd, args)
			if err != nil {
				return err
			}
			res, err := a.builder().Build(cargo.Request{Path: a.path, Args: buildArgs, Simulator: simulator})
			if err != nil {
				return err
			}
			if !res.HasArtifact() {
				log.Info().Msg("build produced no executable")
				return nil
			}
			out := res.Artifact
			if !simulator {
				out, err = a.converter().Finish(res.Artifact)
				if err != nil {
					return err
				}
			}
			_, _ = fmt.Fprintln(a.stdout, out)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&simulator, "simulator", "s", false, "Build for the simulator instead of the brain")
	return cmd
}

func (a *app) uploadCommand() *cobra.Command {
	var opts upload.Options
	var action upload.Action
	cmd := &cobra.Command{
		Use:   "upload --slot <n> [--file <path>] [-- <cargo args>...]",
		Short: "Build (or take --file) and upload a program to the brain",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("slot") {
				return &usageError{err: fmt.Errorf("required flag \"slot\" not set")}
			}
			if cmd.Flags().Changed("file") && strings.TrimSpace(opts.File) == "" {
				return &usageError{err: fmt.Errorf("flag \"file\" must not be blank")}
			}
			buildArgs, err := a.buildArgs(cmd, args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("action") {
				// Already validated by loadConfig.
				action, _ = upload.ParseAction(a.cfg.DefaultAction)
			}
			opts.Path = a.path
			opts.BuildArgs = buildArgs
			opts.Action = action
			return a.dispatcher().Upload(opts)
		},
	}
	flags := cmd.Flags()
	flags.Uint8VarP(&opts.Slot, "slot", "s", 0, "Program slot on the brain")
	flags.StringVarP(&opts.File, "file", "f", "", "Upload this file instead of building the project")
	flags.BoolVarP(&opts.Strip, "strip", "r", false,
		"Convert --file to a stripped binary before uploading it. Required for an ELF that has not been processed yet")
	flags.VarP(&action, "action", "a", "Action after upload: screen, run or none")
	return cmd
}

func (a *app) simCommand() *cobra.Command {
	var ui string
	cmd := &cobra.Command{
		Use:   "sim [--ui <name>] [-- <cargo args>...]",
		Short: "Build for the simulator and launch it",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			buildArgs, err := a.buildArgs(cmd, args)
			if err != nil {
				return err
			}
			return a.launcher().Launch(sim.Options{Path: a.path, BuildArgs: buildArgs, UI: ui})
		},
	}
	cmd.Flags().StringVar(&ui, "ui", "", "Simulator front-end to open")
	return cmd
}

func (a *app) configCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write a commented " + config.FileName + " into the project",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logging.SetVerbose(a.verbose)
			a.command = cmd.Name()
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath
			if path == "" {
				path = filepath.Join(a.path, config.FileName)
			}
			if err := config.WriteTemplate(path, force); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.stdout, path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

// buildArgs returns the configured build_args followed by everything after
// "--". Positional arguments without "--" are rejected.
func (a *app) buildArgs(cmd *cobra.Command, args []string) ([]string, error) {
	dash := cmd.ArgsLenAtDash()
	if (dash < 0 && len(args) > 0) || dash > 0 {
		return nil, &usageError{err: fmt.Errorf("unexpected argument %q; pass cargo arguments after --", args[0])}
	}
	out := append([]string{}, a.cfg.BuildArgs...)
	if dash == 0 {
		out = append(out, args...)
	}
	return out, nil
}

func (a *app) toolRunner() tools.CommandRunner {
	return tools.ObservedRunner{
		Next: a.runner,
		Observe: func(name string, exitCode int32, elapsed time.Duration) {
			observability.RecordToolRun(a.command, name, exitCode, elapsed)
		},
	}
}

func (a *app) builder() *cargo.Builder {
	return &cargo.Builder{
		Runner:             a.toolRunner(),
		Cargo:              a.cfg.Tools.Cargo,
		Rustc:              a.cfg.Tools.Rustc,
		Rustup:             a.cfg.Tools.Rustup,
		SkipToolchainCheck: a.cfg.SkipToolchainCheck,
		Stderr:             a.stderr,
	}
}

// converter sends objcopy's output to stderr; stdout is reserved for the
// artifact path printed by build.
func (a *app) converter() *objcopy.Converter {
	return &objcopy.Converter{
		Runner:  a.toolRunner(),
		Objcopy: a.cfg.Tools.Objcopy,
		Rustc:   a.cfg.Tools.Rustc,
		Dir:     a.path,
		Stdout:  a.stderr,
		Stderr:  a.stderr,
	}
}

func (a *app) dispatcher() *upload.Dispatcher {
	return &upload.Dispatcher{
		Builder:  a.builder(),
		Finisher: a.converter(),
		Runner:   a.toolRunner(),
		Uploader: a.cfg.Tools.Uploader,
		Target:   a.cfg.UploadTarget,
		Stdin:    a.stdin,
		Stdout:   a.stdout,
		Stderr:   a.stderr,
	}
}

func (a *app) launcher() *sim.Launcher {
	return &sim.Launcher{
		Builder:   a.builder(),
		Runner:    a.toolRunner(),
		Simulator: a.cfg.Tools.Simulator,
		Stdin:     a.stdin,
		Stdout:    a.stdout,
		Stderr:    a.stderr,
	}
}

func (a *app) flushMetrics() error {
	if a.metricsFile == "" {
		return nil
	}
	if err := observability.WriteTextfile(a.metricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
