// Package main is the entry point for the sourceview tool, which manages
// per-file default source view preferences and drives a line-oriented editor
// host for exercising them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/dshills/keystorm-sourceview/internal/app"
	"github.com/dshills/keystorm-sourceview/internal/config"
	"github.com/dshills/keystorm-sourceview/internal/logging"
	"github.com/dshills/keystorm-sourceview/internal/workspace"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type cliOptions struct {
	configPath string
	dataPath   string
	logLevel   string
	debug      bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sourceview", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts cliOptions
	var showVersion bool
	fs.StringVar(&opts.configPath, "config", config.DefaultPath(), "Path to configuration file (.toml, .yaml)")
	fs.StringVar(&opts.configPath, "c", config.DefaultPath(), "Path to configuration file (shorthand)")
	fs.StringVar(&opts.dataPath, "data", "", "Path to the preference data file")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&opts.debug, "d", false, "Enable debug logging (shorthand)")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "sourceview - default source view preferences for markdown files\n\n")
		fmt.Fprintf(stderr, "Usage: sourceview [options] [command] [args...]\n\n")
		fmt.Fprintf(stderr, "Commands:\n")
		fmt.Fprintf(stderr, "  list              List files that open in source view\n")
		fmt.Fprintf(stderr, "  status <path>     Show whether a file opens in source view\n")
		fmt.Fprintf(stderr, "  toggle <path>     Flip the preference of a file\n")
		fmt.Fprintf(stderr, "  run <script.lua>  Run a Lua script against the preferences\n")
		fmt.Fprintf(stderr, "  repl              Interactive editor session (default)\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if showVersion {
		fmt.Fprintf(stdout, "sourceview %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	if opts.logLevel != "" && !logging.ValidLevel(opts.logLevel) {
		fmt.Fprintf(stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		return 2
	}

	cmd, cmdArgs := "repl", []string(nil)
	if rest := fs.Args(); len(rest) > 0 {
		cmd, cmdArgs = rest[0], rest[1:]
	}
	switch cmd {
	case "list", "status", "toggle", "run", "repl":
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(opts, cmd == "repl")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	application, err := app.New(app.Options{
		Config:       &cfg,
		LogOutput:    stderr,
		NoticeOutput: stdout,
		Debug:        opts.debug,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "list":
		err = cmdList(application, stdout, cmdArgs)
	case "status":
		err = cmdStatus(application, stdout, cmdArgs)
	case "toggle":
		err = cmdToggle(ctx, application, cmdArgs)
	case "run":
		err = cmdRun(ctx, application, cmdArgs)
	case "repl":
		err = cmdREPL(ctx, application, stdin, stdout)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig reads the config file and applies flag overrides. Only the
// interactive session watches the data file.
func loadConfig(opts cliOptions, interactive bool) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.dataPath != "" {
		cfg.DataPath = opts.dataPath
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if !interactive {
		cfg.WatchData = false
	}
	return cfg, cfg.Validate()
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func cmdList(application *app.Application, out io.Writer, args []string) error {
	if len(args) != 0 {
		return errors.New("usage: list")
	}
	for _, p := range application.Tracker().Paths() {
		fmt.Fprintln(out, p)
	}
	return nil
}

func cmdStatus(application *app.Application, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: status <path>")
	}
	doc := workspace.NewDocument(args[0])
	tracker := application.Tracker()
	switch {
	case !tracker.IsManaged(doc):
		fmt.Fprintf(out, "%s: not managed\n", doc.Path)
	case tracker.IsSourcePreferred(doc.Path):
		fmt.Fprintf(out, "%s: source\n", doc.Path)
	default:
		fmt.Fprintf(out, "%s: live preview\n", doc.Path)
	}
	return nil
}

func cmdToggle(ctx context.Context, application *app.Application, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: toggle <path>")
	}
	return application.Do(ctx, func(ctx context.Context) error {
		_, err := application.Tracker().Toggle(ctx, workspace.NewDocument(args[0]))
		return err
	})
}

func cmdRun(ctx context.Context, application *app.Application, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: run <script.lua>")
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	return application.RunScript(ctx, args[0], string(src))
}

func cmdREPL(ctx context.Context, application *app.Application, in io.Reader, out io.Writer) error {
	if err := application.Start(ctx); err != nil {
		return err
	}
	r := newREPL(application, in, out)
	r.prompt = isTerminal(in)
	return r.run(ctx)
}
