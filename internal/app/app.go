// Package app wires CLI parsing, config loading, logging, and the
// doctor/run commands together into a single process entrypoint.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/soundkeeper/taketake/internal/cli"
	"github.com/soundkeeper/taketake/internal/config"
	"github.com/soundkeeper/taketake/internal/doctor"
	"github.com/soundkeeper/taketake/internal/logging"
	"github.com/soundkeeper/taketake/internal/pipeline"
	"github.com/soundkeeper/taketake/internal/prompter"
	"github.com/soundkeeper/taketake/internal/version"
)

// Runner holds process-level dependencies used by command handlers.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// Execute is the package entrypoint used by cmd/taketake/main.go.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

// Execute parses CLI arguments, loads config/logging, and dispatches a command.
func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("taketake"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("taketake"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	cfg := applyOverrides(cfgLoaded.Config, parsed)
	if warnings, err := config.Validate(cfg); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("config validation failed", "error", err.Error())
		return 1
	} else {
		for _, w := range warnings {
			fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		}
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		rep := doctor.Run(config.Loaded{Path: cfgLoaded.Path, Config: cfg, Exists: cfgLoaded.Exists})
		fmt.Fprintln(r.Stdout, rep.String())
		if rep.OK() {
			return 0
		}
		return 1
	case cli.CommandRun:
		return r.commandRun(ctx, cfg, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// commandRun executes one full transfer pass and prints the end-of-run report.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	p := prompter.CommandPrompter{Argv: cfg.Tools.Prompt.Argv}

	rep, err := pipeline.Run(ctx, cfg, logger, p)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("run failed", "error", err.Error())
		return 1
	}

	fmt.Fprintln(r.Stdout, rep.String())
	if rep.OK() {
		return 0
	}
	return 1
}

// applyOverrides layers CLI flag overrides onto a loaded config.
func applyOverrides(cfg config.Config, parsed cli.Parsed) config.Config {
	if parsed.Source != "" {
		cfg.Source = parsed.Source
	}
	if parsed.Dest != "" {
		cfg.Dest = parsed.Dest
	}
	if parsed.Prefix != "" {
		cfg.Prefix = parsed.Prefix
	}
	if parsed.Instrument != "" {
		cfg.Instrument = parsed.Instrument
	}
	if parsed.NoModifySourceSet {
		cfg.ModifySource = !parsed.NoModifySource
	}
	return cfg
}
