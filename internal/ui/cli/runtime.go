package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	coreapp "loadscript/internal/core/app"
	"loadscript/internal/core/config"
	"loadscript/internal/data/history"
	"loadscript/internal/output"
	"loadscript/internal/shared/observability"
	"loadscript/internal/shared/version"
)

// Run is the loadscript entry point. It returns the process exit code.
func Run(args []string) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Printf("loadscript %s\n", version.Version)
		return 0
	}

	cleanupLogs := configureLogging(opts.ui, opts.verbose)
	defer cleanupLogs()

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return 1
	}

	cfg, cfgPath, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	base := cwd
	if cfgPath != "" {
		base = filepath.Dir(cfgPath)
	}
	config.ResolvePaths(cfg, base)

	if err := applyModeOptions(&opts, cfg, cwd); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.Enabled {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.ServiceName, cfg.Observability.OTLPEndpoint)
		if err != nil {
			slog.Error("failed to initialize tracing", "error", err)
			return 1
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				slog.Warn("failed to flush traces", "error", err)
			}
		}()
	}

	app, err := coreapp.New(cfg, base)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer app.Close()

	if opts.recent > 0 {
		if err := printRecentRuns(os.Stdout, app.History(), opts.recent); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return 1
		}
		return 0
	}

	docs, err := app.RunOnce(ctx, nil)
	if err != nil {
		slog.Error("conversion failed", "error", err)
		return 1
	}
	if !opts.ui {
		fmt.Print(output.GenerateText(base, docs))
	}

	if opts.once {
		if output.Summarize(docs).Failed > 0 {
			return 1
		}
		return 0
	}

	if cfg.Observability.Enabled {
		server := observability.NewServer(cfg.Observability.Address, coreapp.NewHealthService(app))
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(stopCtx)
		}()
	}

	if cfgPath != "" {
		cfgWatcher := config.NewWatcher(cfgPath, func(next *config.Config) {
			if err := applyModeOptions(&opts, next, cwd); err != nil {
				slog.Warn("ignoring reloaded config", "error", err)
				return
			}
			if err := app.UpdateConfig(next); err != nil {
				slog.Warn("ignoring reloaded config", "error", err)
			}
		})
		if err := cfgWatcher.Start(ctx); err != nil {
			slog.Warn("config reload disabled", "error", err)
		} else {
			defer cfgWatcher.Stop()
		}
	}

	if err := app.StartWatcher(nil); err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 1
	}

	if opts.ui {
		if err := runUI(ctx, app); err != nil {
			slog.Error("failed to run UI", "error", err)
			return 1
		}
		return 0
	}

	<-ctx.Done()
	slog.Info("shutting down")
	return 0
}

// loadConfig loads path. When path is the default and no file exists there,
// the built-in defaults are used and the returned config path is empty.
func loadConfig(path, cwd string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		path = filepath.Join(cwd, config.DefaultFile)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			slog.Debug("no config file found, using defaults", "path", path)
			cfg := config.DefaultConfig()
			config.ApplyEnvOverrides(cfg)
			if err := config.Validate(cfg); err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(abs)
	if err != nil {
		return nil, "", err
	}
	return cfg, abs, nil
}

// applyModeOptions folds command-line overrides into cfg. Positional
// arguments replace the configured input paths and, like -out, are
// resolved against the working directory.
func applyModeOptions(opts *cliOptions, cfg *config.Config, cwd string) error {
	if opts.once && (opts.watch || opts.ui) {
		return fmt.Errorf("-once cannot be combined with -watch or -ui")
	}
	if opts.recent < 0 {
		return fmt.Errorf("-recent must not be negative")
	}
	if opts.recent > 0 && !cfg.History.Enabled {
		return fmt.Errorf("-recent requires history.enabled = true")
	}
	if !opts.watch && !opts.ui {
		opts.once = true
	}

	if len(opts.args) > 0 {
		paths := make([]string, 0, len(opts.args))
		for _, arg := range opts.args {
			paths = append(paths, config.ResolveRelative(cwd, arg))
		}
		cfg.Input.Paths = paths
	}
	if strings.TrimSpace(opts.outDir) != "" {
		cfg.Output.Dir = config.ResolveRelative(cwd, opts.outDir)
	}
	return nil
}

func printRecentRuns(w io.Writer, store *history.Store, limit int) error {
	if store == nil {
		return fmt.Errorf("history is disabled")
	}
	runs, err := store.Recent(limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tOUTCOME\tPATH\tSCENARIOS\tDECLS\tISSUES\tREWRITES\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.Timestamp.Local().Format(time.DateTime), r.Outcome, r.Path,
			r.ScenarioCount, r.DeclarationCount, r.IssueCount, r.RewriteCount, r.Duration)
	}
	return tw.Flush()
}

func configureLogging(uiMode, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stderr
	var closeFn func() = func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "loadscript", "loadscript.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "loadscript", "loadscript.log")
	}

	return "loadscript.log"
}
