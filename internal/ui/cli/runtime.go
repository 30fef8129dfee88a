package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	coreapp "nsresolver/internal/core/app"
	"nsresolver/internal/core/config"
	"nsresolver/internal/core/ports"
	"nsresolver/internal/data/workspace"
	"nsresolver/internal/shared/observability"
	"nsresolver/internal/ui/prompt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
)

// stdio bundles the process streams so tests can drive Run without a
// terminal.
type stdio struct {
	in          io.Reader
	out         io.Writer
	err         io.Writer
	interactive bool
}

func Run(args []string) int {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stderr.Fd())
	return run(args, stdio{in: os.Stdin, out: os.Stdout, err: os.Stderr, interactive: interactive})
}

func run(args []string, std stdio) int {
	opts, err := parseOptions(args, std.err)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.version {
		fmt.Fprintf(std.out, "nsresolver v%s\n", versionString)
		return 0
	}

	if err := validateOptions(opts); err != nil {
		fmt.Fprintln(std.err, err.Error())
		return 2
	}

	useTerminal := std.interactive && opts.pick == "" && len(opts.aliases) == 0
	cleanupLogs := configureLogging(useTerminal, opts.verbose, std.err)
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
	root := resolveRoot(cfg, opts, cwd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(ctx, cfg)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		return 1
	}
	defer shutdownTracing()

	ws, err := workspace.New(root, workspace.WithReadOnly(opts.dryRun))
	if err != nil {
		slog.Error("failed to open workspace", "error", err)
		return 1
	}

	var prompter ports.Prompter
	if useTerminal {
		prompter = prompt.NewTerminal(std.in, std.err)
	} else {
		prompter = prompt.NewScripted(opts.pick, opts.aliases)
	}

	resolver, err := coreapp.New(cfg, ws, prompter, prompt.NewConsole(std.err, std.err))
	if err != nil {
		slog.Error("failed to initialize resolver", "error", err)
		return 1
	}

	if opts.command == commandWatch {
		return runWatch(ctx, resolver, ws, cfgPath)
	}
	return runBufferCommand(ctx, resolver, ws, opts, std)
}

// runBufferCommand executes import, expand or sort against one file.
func runBufferCommand(ctx context.Context, resolver *coreapp.Resolver, ws *workspace.Workspace, opts cliOptions, std stdio) int {
	buf, err := ws.Load(absPath(opts.args[0]))
	if err != nil {
		fmt.Fprintf(std.err, "cannot open %s: %v\n", opts.args[0], err)
		return 1
	}

	switch opts.command {
	case commandSort:
		err = resolver.SortCommand(ctx, buf)
	default:
		pos, posErr := cursorPosition(buf, opts)
		if posErr != nil {
			fmt.Fprintln(std.err, posErr.Error())
			return 2
		}
		if opts.command == commandImport {
			err = resolver.ImportCommand(ctx, buf, pos)
		} else {
			err = resolver.ExpandCommand(ctx, buf, pos)
		}
	}
	if err != nil {
		// Already reported through the notifier.
		return 1
	}

	if opts.dryRun {
		fmt.Fprint(std.out, buf.Content())
		return 0
	}
	if err := buf.Save(ctx); err != nil {
		slog.Error("failed to save file", "path", buf.Path(), "error", err)
		return 1
	}
	return 0
}

// cursorPosition resolves --pos or --word to a 0-based buffer position.
func cursorPosition(buf ports.Buffer, opts cliOptions) (ports.Position, error) {
	if opts.word != "" {
		for i, line := range buf.Lines() {
			if col := strings.Index(line, opts.word); col >= 0 {
				return ports.Position{Line: i, Character: col}, nil
			}
		}
		return ports.Position{}, fmt.Errorf("%q does not occur in %s", opts.word, buf.Path())
	}

	line, column, err := parsePosition(opts.position)
	if err != nil {
		return ports.Position{}, err
	}
	if line >= buf.LineCount() {
		return ports.Position{}, fmt.Errorf("line %d is past the end of %s", line+1, buf.Path())
	}
	return ports.Position{Line: line, Character: column}, nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func resolveRoot(cfg *config.Config, opts cliOptions, cwd string) string {
	root := cfg.Workspace.Root
	if opts.command == commandWatch && len(opts.args) == 1 {
		root = opts.args[0]
	}
	if opts.root != "" {
		root = opts.root
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(cwd, root)
	}
	return filepath.Clean(root)
}

// loadConfig reads an explicit config file, or the first default location
// that exists. Without any file the defaults and environment apply.
func loadConfig(path, cwd string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	candidates, err := discoverDefaultConfig(cwd)
	if err != nil {
		return nil, "", err
	}
	for _, candidate := range candidates {
		cfg, loadErr := config.Load(candidate)
		if loadErr == nil {
			return cfg, candidate, nil
		}
		if os.IsNotExist(loadErr) {
			continue
		}
		return nil, "", loadErr
	}

	cfg, err := config.Parse("")
	if err != nil {
		return nil, "", err
	}
	return cfg, "", nil
}

func discoverDefaultConfig(cwd string) ([]string, error) {
	if strings.TrimSpace(cwd) == "" {
		return nil, fmt.Errorf("cwd must not be empty")
	}
	return []string{
		filepath.Clean(filepath.Join(cwd, ".nsresolver.toml")),
		filepath.Clean(filepath.Join(cwd, "data/config/nsresolver.toml")),
	}, nil
}

func setupTracing(ctx context.Context, cfg *config.Config) (func(), error) {
	if !cfg.Observability.EnableTracing {
		return func() {}, nil
	}
	shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint)
	if err != nil {
		return nil, err
	}
	slog.Debug("tracing enabled", "endpoint", cfg.Observability.OTLPEndpoint)
	return func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}, nil
}

// configureLogging routes logs to a state file while a terminal prompt owns
// the screen, and to stderr otherwise.
func configureLogging(uiMode, verbose bool, stderr io.Writer) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := stderr
	var closeFn func() = func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(stderr, "warning: failed to open log file %s: %v\n", logPath, err)
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
		return filepath.Join(xdg, "nsresolver", "nsresolver.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "nsresolver", "nsresolver.log")
	}

	return "nsresolver.log"
}
