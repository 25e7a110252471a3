// Package cli is the umlc command line: flags, config resolution, logging,
// observability wiring and the run modes (stdin, one-shot, watch, UI, trend).
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	coreapp "umlc/internal/core/app"
	"umlc/internal/core/config"
	domainerrors "umlc/internal/core/errors"
	"umlc/internal/engine/compiler"
	"umlc/internal/output"
	"umlc/internal/shared/observability"
	"umlc/internal/shared/util"
	"umlc/internal/shared/version"
)

// Run executes the CLI and returns the process exit code: 0 on success, 1
// when a source has diagnostics or a runtime step fails, 2 on usage errors.
func Run(args []string) int {
	return run(args, os.Stdin, os.Stdout, os.Stderr)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "umlc v%s\n", version.Version)
		return 0
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	if err := applyModeOptions(&opts, cfg); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(stderr, "invalid config: %v\n", e)
		}
		return 1
	}

	cleanupLogs := configureLogging(cfg.Log, stderr, opts.ui, opts.verbose)
	defer cleanupLogs()

	if opts.stdinMode() {
		return compileStdin(stdin, stdout, stderr, opts.stdinFormat)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	app, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			slog.Warn("failed to close app", "error", err)
		}
	}()

	var metricsServer *observability.Server
	if addr := strings.TrimSpace(cfg.Observability.MetricsAddr); addr != "" {
		metricsServer = observability.NewServer(addr, app.Health)
		if err := metricsServer.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() { _ = metricsServer.Stop(context.Background()) }()
	}

	started := time.Now()
	update, err := app.InitialScan(ctx)
	if err != nil {
		slog.Error("initial scan failed", "error", err)
		return 1
	}

	if opts.trend != "" {
		return runTrend(ctx, app, opts, stdout)
	}

	if !opts.ui {
		fmt.Fprint(stdout, renderSummary(update, time.Since(started)))
	}

	if !opts.watch {
		if err := update.Err(); err != nil {
			return 1
		}
		return 0
	}

	if err := app.StartWatcher(); err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 1
	}

	if opts.reloadConfig || cfg.Watch.ReloadConfig {
		cfgWatcher := config.NewWatcher(opts.configPath, func(next *config.Config) {
			if err := applyModeOptions(&opts, next); err != nil {
				slog.Warn("ignoring reloaded config", "error", err)
				return
			}
			app.ApplyConfig(next)
		})
		if err := cfgWatcher.Start(ctx); err != nil {
			slog.Warn("config reload disabled", "path", opts.configPath, "error", err)
		} else {
			defer cfgWatcher.Stop()
		}
	}

	if opts.ui {
		if err := runUI(ctx, app); err != nil {
			slog.Error("failed to run UI", "error", err)
			return 1
		}
		return 0
	}

	slog.Info("watching for changes", "paths", cfg.Inputs.Paths)
	<-ctx.Done()
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	config.ApplyEnvOverrides(cfg)
	return cfg, nil
}

// applyModeOptions layers command-line overrides onto cfg and rejects flag
// combinations that cannot work together.
func applyModeOptions(opts *cliOptions, cfg *config.Config) error {
	if opts.stdinMode() {
		if opts.watch {
			return fmt.Errorf("standard input cannot be combined with --watch or --ui")
		}
		if !output.IsSupported(opts.stdinFormat) {
			return fmt.Errorf("unsupported --stdin-format %q (supported: %s)", opts.stdinFormat, strings.Join(output.Formats(), ", "))
		}
		return nil
	}

	if len(opts.args) > 0 {
		cfg.Inputs.Paths = append([]string(nil), opts.args...)
	}
	if opts.formats != "" {
		cfg.Output.Formats = splitList(strings.ToLower(opts.formats))
	}
	if opts.outDir != "" {
		cfg.Output.Dir = opts.outDir
	}
	if opts.history {
		cfg.History.Enabled = true
	}

	if opts.trendJSON != "" && opts.trend == "" {
		return fmt.Errorf("--trend-json requires --trend")
	}
	if opts.trend != "" {
		if !cfg.History.Enabled {
			return fmt.Errorf("--trend requires --history or history.enabled")
		}
		if opts.watch {
			return fmt.Errorf("--trend cannot be combined with --watch or --ui")
		}
		if opts.trendWindow <= 0 {
			return fmt.Errorf("--trend-window must be positive")
		}
	}
	return nil
}

func compileStdin(stdin io.Reader, stdout, stderr io.Writer, format string) int {
	source, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read standard input: %v\n", err)
		return 1
	}
	res := compiler.NewEngine(slog.Default()).Compile(context.Background(), "<stdin>", string(source))
	for _, d := range res.Diagnostics {
		fmt.Fprintf(stderr, "<stdin>:%d:%d: %s\n", d.Line, d.Column, d.Message)
	}

	rendered, err := output.Generate(format, res.Diagram)
	if err != nil {
		fmt.Fprintf(stderr, "failed to render %s: %v\n", format, err)
		return 1
	}
	fmt.Fprint(stdout, rendered)
	if !res.Valid {
		return 1
	}
	return 0
}

func runTrend(ctx context.Context, app *coreapp.App, opts cliOptions, stdout io.Writer) int {
	report, err := app.TrendReport(ctx, opts.trend, opts.trendWindow)
	if err != nil {
		slog.Error("trend report failed", "source", opts.trend, "error", err)
		if domainerrors.IsCode(err, domainerrors.CodeNotFound) {
			return 2
		}
		return 1
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		slog.Error("failed to encode trend report", "error", err)
		return 1
	}
	data = append(data, '\n')

	if opts.trendJSON != "" {
		if err := util.WriteFileAtomic(opts.trendJSON, data); err != nil {
			slog.Error("failed to write trend report", "path", opts.trendJSON, "error", err)
			return 1
		}
		fmt.Fprintf(stdout, "trend report written to %s\n", opts.trendJSON)
		return 0
	}
	fmt.Fprint(stdout, renderTrend(report))
	return 0
}

// configureLogging installs the default slog logger. Logs go to stderr so
// stdout stays clean for rendered output; in UI mode they go to a state file
// instead so they do not corrupt the terminal.
func configureLogging(logCfg config.Log, stderr io.Writer, uiMode, verbose bool) func() {
	level := logCfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}

	out := stderr
	closeFn := func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
			fmt.Fprintf(stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600); err == nil {
			out = f
			closeFn = func() { _ = f.Close() }
		} else {
			fmt.Fprintf(stderr, "warning: failed to open log file %s: %v\n", logPath, err)
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(out, handlerOpts)
	if logCfg.Format == "json" {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "umlc", "umlc.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "umlc", "umlc.log")
	}

	return "umlc.log"
}
