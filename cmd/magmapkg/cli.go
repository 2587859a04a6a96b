package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	magmawheel "github.com/contriboss/magma-wheel-go"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Verbs accepted on the command line.
var verbs = []string{"build", "build_ext", "clean", "install", "sdist", "bdist_wheel"}

// Options is the parsed command line.
type Options struct {
	Verb        string
	Root        string
	ConfigPath  string
	InstallDir  string
	DistDir     string
	LogLevel    string
	MetricsFile string
	Parallel    int
	OTel        bool
	Verbose     bool
}

// Parse processes command-line arguments. It returns the options, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	flagSet := flag.NewFlagSet("magmapkg", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprintf(output, `
magmapkg - build MAGMA for the local GPU backend and package it as a wheel.

Usage:
  magmapkg [options] VERB

Verbs:
  %s

Options:
`, strings.Join(verbs, ", "))
		flagSet.PrintDefaults()
	}

	opts := &Options{}
	flagSet.StringVar(&opts.Root, "root", ".", "MAGMA source root.")
	flagSet.StringVar(&opts.ConfigPath, "config", "", "Path to the HCL config file (default <root>/"+magmawheel.ConfigFile+" if present).")
	flagSet.StringVar(&opts.InstallDir, "install-dir", "", "Destination directory for the install verb.")
	flagSet.StringVar(&opts.DistDir, "dist-dir", "", "Output directory for sdist and bdist_wheel (default <root>/dist).")
	flagSet.StringVar(&opts.LogLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flagSet.StringVar(&opts.MetricsFile, "metrics-file", "", "Write build step metrics to this file in Prometheus text format.")
	flagSet.IntVar(&opts.Parallel, "j", 0, "Parallel make jobs (0 = processors available).")
	flagSet.BoolVar(&opts.OTel, "otel", false, "Enable OpenTelemetry tracing (stdout).")
	flagSet.BoolVar(&opts.Verbose, "v", false, "Log the output of every build command.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("expected one verb, got %d", flagSet.NArg())}
	}

	opts.Verb = flagSet.Arg(0)
	if !validVerb(opts.Verb) {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown verb %q (valid: %s)", opts.Verb, strings.Join(verbs, ", "))}
	}
	if opts.Verb == "install" && opts.InstallDir == "" {
		return nil, false, &ExitError{Code: 2, Message: "install requires -install-dir"}
	}

	opts.LogLevel = strings.ToLower(opts.LogLevel)
	if _, err := zerolog.ParseLevel(opts.LogLevel); err != nil {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid log level %q", opts.LogLevel)}
	}

	return opts, false, nil
}

func validVerb(verb string) bool {
	for _, v := range verbs {
		if v == verb {
			return true
		}
	}
	return false
}

// Run executes the verb with an Assembler built from opts.
func Run(ctx context.Context, opts *Options, env magmawheel.Environment) error {
	meta, config, err := magmawheel.LoadConfig(opts.Root, opts.ConfigPath, env)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	if opts.Parallel > 0 {
		config.Parallel = opts.Parallel
	}
	config.Verbose = opts.Verbose
	if opts.MetricsFile != "" {
		config.Metrics = magmawheel.NewMetrics()
	}

	asm := magmawheel.NewAssembler(meta, config)
	asm.DistDir = opts.DistDir

	runErr := runVerb(ctx, asm, opts)

	if err := config.Metrics.WriteTextfile(opts.MetricsFile); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("file", opts.MetricsFile).Msg("Failed to write metrics")
	}
	return runErr
}

func runVerb(ctx context.Context, asm *magmawheel.Assembler, opts *Options) error {
	logger := zerolog.Ctx(ctx)

	switch opts.Verb {
	case "build", "build_ext":
		return asm.Build(ctx)
	case "clean":
		return asm.Clean(ctx)
	case "install":
		return asm.Install(ctx, opts.InstallDir)
	case "sdist":
		path, err := asm.Sdist(ctx)
		if err == nil {
			logger.Info().Str("path", path).Msg("Source distribution ready")
		}
		return err
	case "bdist_wheel":
		path, err := asm.Wheel(ctx)
		if err == nil {
			logger.Info().Str("path", path).Msg("Wheel ready")
		}
		return err
	default:
		return &ExitError{Code: 2, Message: fmt.Sprintf("unknown verb %q", opts.Verb)}
	}
}

// exitCode maps an error to the process exit status: the ExitError code,
// the failing command's exit status, or 1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var stepErr *magmawheel.StepError
	if errors.As(err, &stepErr) && stepErr.ExitStatus > 0 {
		return stepErr.ExitStatus
	}

	return 1
}
