package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/state"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Options tune behavior from root flags. Empty fields keep the config value.
type Options struct {
	Group      bool // list grouped by pending/done
	Backend    string
	Theme      string
	ConfigPath string

	// Config is used as-is when set; ConfigPath is then ignored.
	Config *config.Config

	Stdin          io.Reader
	Stdout, Stderr io.Writer
}

type runner struct {
	cfg    *config.Config
	logger *log.Logger
	group  bool
	in     io.Reader
	out    io.Writer
	errw   io.Writer
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	if opt.Stdin == nil {
		opt.Stdin = os.Stdin
	}
	if opt.Stdout == nil {
		opt.Stdout = os.Stdout
	}
	if opt.Stderr == nil {
		opt.Stderr = os.Stderr
	}
	if len(args) == 0 {
		PrintHelp(opt.Stderr)
		return 2
	}
	cmd, a := args[0], args[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		PrintHelp(opt.Stdout)
		return 0
	}

	cfg, err := loadConfig(opt)
	if err != nil {
		ui.Fail(opt.Stderr, "config: "+err.Error())
		return 1
	}
	ui.SetTheme(cfg.Theme)
	r := &runner{
		cfg:    cfg,
		logger: logging.New(opt.Stderr, cfg.Log.Level, cfg.Log.Format),
		group:  opt.Group || cfg.Group,
		in:     opt.Stdin,
		out:    opt.Stdout,
		errw:   opt.Stderr,
	}

	switch cmd {
	case "auth":
		return r.doAuth(a)
	case "serve":
		return r.doServe(ctx, a)
	case "ls":
		return r.withCoordinator(ctx, func(c *state.Coordinator) int { return r.doList(ctx, c, a) })
	case "add":
		return r.withCoordinator(ctx, func(c *state.Coordinator) int { return r.doAdd(ctx, c, a) })
	case "show":
		return r.withCoordinator(ctx, func(c *state.Coordinator) int { return r.doShow(ctx, c, a) })
	case "edit":
		return r.withCoordinator(ctx, func(c *state.Coordinator) int { return r.doEdit(ctx, c, a) })
	case "done":
		return r.withCoordinator(ctx, func(c *state.Coordinator) int { return r.doToggle(ctx, c, a) })
	case "rm":
		return r.withCoordinator(ctx, func(c *state.Coordinator) int { return r.doRemove(ctx, c, a) })
	case "ui":
		return r.withCoordinator(ctx, func(c *state.Coordinator) int { return r.doUI(ctx, c, a) })
	}

	ui.Fail(opt.Stderr, "unknown subcommand: "+cmd)
	fmt.Fprintln(opt.Stderr)
	PrintHelp(opt.Stderr)
	return 2
}

// loadConfig layers root flags over the loaded configuration.
func loadConfig(opt Options) (*config.Config, error) {
	cfg := opt.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(opt.ConfigPath); err != nil {
			return nil, err
		}
	}
	if opt.Backend != "" {
		cfg.Backend = opt.Backend
	}
	if opt.Theme != "" {
		cfg.Theme = opt.Theme
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withCoordinator builds the configured backend and hands a coordinator to fn.
func (r *runner) withCoordinator(ctx context.Context, fn func(*state.Coordinator) int) int {
	backends := NewBackends(ctx, r.cfg, r.logger)
	defer backends.Close()

	initial, err := state.ParseBackend(r.cfg.Backend)
	if err != nil {
		ui.Fail(r.errw, err.Error())
		return 2
	}
	c, err := state.New(backends.Factory, initial, r.logger)
	if err != nil {
		ui.Fail(r.errw, err.Error())
		return 1
	}
	return fn(c)
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `tada - todos on your machine or on a server

Usage:
  tada [-backend local|remote] [-config file] [-group] [-theme name] <subcommand> [args]

Subcommands:
  ls [-completed|-active] [-search s]   List todos
  add [-d desc] <title...>              Add a todo (title can be multiple words)
  show <ref>                            Show one todo
  edit <ref> [-title t] [-d desc]       Change title or description
  done <ref>                            Toggle completion
  rm <ref>                              Remove a todo
  ui                                    Interactive list
  auth <login|logout|status|whoami|token>
                                        Bearer token for the remote backend
  serve [-addr host:port]               Run the todo API locally

<ref> is the 1-based index shown by ls, or a todo id.

Examples:
  tada add "Buy milk"
  tada ls -active
  tada done 2
  tada -backend remote ls -search milk
`)
}
