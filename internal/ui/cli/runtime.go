package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	coreapp "czar/internal/core/app"
	"czar/internal/core/config"
	"czar/internal/shared/observability"
)

// Run is the cz entry point. It returns the process exit code.
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		return 2
	}
	if opts.version {
		fmt.Fprintf(stdout, "cz v%s\n", versionString)
		return 0
	}
	if err := validateOptions(opts); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	cleanupLogs := configureLogging(opts.ui, opts.verbose, stderr)
	defer cleanupLogs()

	cfg, cfgPath, err := config.Discover(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	if cfgPath != "" {
		slog.Debug("config loaded", "path", cfgPath)
	}
	if opts.noCache {
		cfg.Cache.Enabled = false
	}

	app, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.Enabled {
		shutdown := startObservability(ctx, app, cfg)
		defer shutdown()
	}

	paths := opts.args
	if len(paths) == 0 {
		paths = []string{"."}
	}
	inputs, err := app.Discover(paths)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	printer := newPrinter(stdout, stderr)
	sum, err := app.Build(ctx, inputs)
	if err != nil {
		slog.Error("build interrupted", "error", err)
		return 1
	}
	if !opts.ui {
		printer.Summary(sum)
	}

	if !opts.watch {
		if sum.Failed() > 0 {
			return 1
		}
		return 0
	}

	if opts.ui {
		if err := runUI(ctx, app, paths); err != nil {
			slog.Error("failed to run UI", "error", err)
			return 1
		}
		return 0
	}
	if err := app.Watch(ctx, paths, printer.Summary); err != nil {
		slog.Error("watch failed", "error", err)
		return 1
	}
	return 0
}

func startObservability(ctx context.Context, app *coreapp.App, cfg *config.Config) func() {
	server := NewObservabilityServer(cfg.Observability.Address, coreapp.NewHealthService(app))
	if err := server.Start(ctx); err != nil {
		slog.Error("failed to start observability server", "error", err)
	}

	endpoint := ""
	if cfg.Observability.EnableTracing {
		endpoint = cfg.Observability.OTLPEndpoint
	}
	shutdownTracing, err := observability.InitTracing(ctx, endpoint, versionString)
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	return func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
		if err := server.Stop(sctx); err != nil {
			slog.Warn("observability server shutdown failed", "error", err)
		}
	}
}

func configureLogging(uiMode, verbose bool, fallback io.Writer) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := fallback
	cleanup := func() {}
	if uiMode {
		// In UI mode, avoid terminal logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(fallback, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
			fmt.Fprintf(fallback, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else {
			f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err != nil {
				fmt.Fprintf(fallback, "warning: failed to open log file %s: %v\n", logPath, err)
			} else {
				output = f
				cleanup = func() { _ = f.Close() }
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return cleanup
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "czar", "cz.log")
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "czar", "cz.log")
	}
	return "cz.log"
}
