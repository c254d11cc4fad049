package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/stepscope/internal/config"
	"github.com/dshills/stepscope/internal/config/watcher"
	"github.com/dshills/stepscope/internal/debugger"
	"github.com/dshills/stepscope/internal/debugger/panel"
	"github.com/dshills/stepscope/internal/integration/debug"
	"github.com/dshills/stepscope/internal/integration/debug/adapters"
	"github.com/dshills/stepscope/internal/logging"
)

// debugFlags are the command line overrides of the debug command.
type debugFlags struct {
	configPath  string
	address     string
	adapter     string
	kind        string
	attach      bool
	stopOnEntry bool
	breaks      []int
	logLevel    string
}

func newRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "stepscope",
		Short:         "Drive a debug adapter from the terminal",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.AddCommand(newDebugCommand(), newConfigCommand())
	return root
}

func newDebugCommand() *cobra.Command {
	var flags debugFlags

	cmd := &cobra.Command{
		Use:   "debug <file>",
		Short: "Start a debug session for a file",
		Long: `Start a debug session for a file and read debugger commands from stdin.

The adapter is chosen from the file extension unless --type is given:
Go files use "dlv dap", Python files use debugpy. Use --addr to connect to
an adapter that is already listening.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDebug(cmd, args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "path to a TOML or YAML config file")
	f.StringVar(&flags.address, "addr", "", "address of a listening debug adapter")
	f.StringVar(&flags.adapter, "adapter", "", "command that starts the debug adapter on stdio")
	f.StringVar(&flags.kind, "type", "", "adapter type: delve, python or generic")
	f.BoolVar(&flags.attach, "attach", false, "attach instead of launching")
	f.BoolVar(&flags.stopOnEntry, "stop-on-entry", false, "stop before the first line")
	f.IntSliceVarP(&flags.breaks, "break", "b", nil, "set a breakpoint at `line` (repeatable)")
	f.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	return cmd
}

func newConfigCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(path)
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), cfg)
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "path to a TOML or YAML config file")
	return cmd
}

// loadConfig loads path, or the per-user file when path is empty and that
// file exists. It returns the path actually used.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		if def, err := config.DefaultPath(); err == nil {
			if _, err := os.Stat(def); err == nil {
				path = def
			}
		}
	}
	cfg, err := config.Load(path)
	return cfg, path, err
}

// apply copies the flags that were set over cfg.
func (f debugFlags) apply(cfg *config.Config) error {
	if f.address != "" {
		cfg.Adapter.Address = f.address
	}
	if fields := strings.Fields(f.adapter); len(fields) > 0 {
		cfg.Adapter.Command, cfg.Adapter.Args = fields[0], fields[1:]
	}
	if f.kind != "" {
		cfg.Adapter.Type = f.kind
	}
	if f.attach {
		cfg.Adapter.Request = "attach"
	}
	if f.stopOnEntry {
		cfg.Adapter.StopOnEntry = true
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	return cfg.Validate()
}

func runDebug(cmd *cobra.Command, file string, flags debugFlags) error {
	cfg, _, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}
	if err := flags.apply(cfg); err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	log := logging.For(logger, logging.LayerCLI)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	editor := newTerminalEditor(out, file, isTerminal(out))

	var ctrl *debugger.Controller
	ctrl = debugger.NewController(func(path string) (*debug.Session, error) {
		plan, err := adapters.Resolve(cfg.AdapterOptions(path))
		if err != nil {
			return nil, err
		}
		sc := cfg.SessionConfig()
		plan.Apply(&sc)
		if cfg.Session.AdapterID != "" {
			sc.AdapterID = cfg.Session.AdapterID
		}
		sc.Configure = ctrl.SyncBreakpoints
		log.WithFields(logrus.Fields{"adapter": plan.Kind, "request": plan.Request}).Debug("adapter resolved")
		return debug.NewSession(plan.Connector, sc, logging.For(logger, logging.LayerSession)), nil
	}, editor, logging.For(logger, logging.LayerController))
	defer ctrl.Close(context.Background())

	if err := ctrl.SetActiveContext(ctx, file); err != nil {
		return err
	}

	if bpFile := cfg.Breakpoints.File; bpFile != "" {
		if err := ctrl.LoadBreakpoints(ctx, bpFile); err != nil {
			log.WithError(err).Warn("load breakpoints")
		}
		defer func() {
			if err := ctrl.SaveBreakpoints(bpFile); err != nil {
				log.WithError(err).Warn("save breakpoints")
			}
		}()
		if cfg.Breakpoints.Watch {
			w, err := watchBreakpoints(ctrl, bpFile, log)
			if err != nil {
				return err
			}
			defer w.Close()
		}
	}
	for _, line := range flags.breaks {
		if err := ctrl.AddBreakpoint(ctx, line); err != nil {
			return fmt.Errorf("breakpoint %d: %w", line, err)
		}
	}

	p := panel.New(ctrl, logging.For(logger, logging.LayerPanel))
	p.Mount()
	defer p.Unmount()

	r := &repl{
		panel:   p,
		ctrl:    ctrl,
		out:     out,
		timeout: time.Duration(cfg.Session.RequestTimeout),
	}
	in := newLineReader(cmd.InOrStdin())
	defer in.Close()
	return r.run(ctx, in)
}

// watchBreakpoints reloads the breakpoints file when it changes on disk.
func watchBreakpoints(ctrl *debugger.Controller, file string, log *logrus.Entry) (*watcher.Watcher, error) {
	w, err := watcher.New(watcher.WithLogger(log))
	if err != nil {
		return nil, err
	}
	err = w.Watch(file, func(path string) {
		if err := ctrl.LoadBreakpoints(context.Background(), path); err != nil {
			log.WithError(err).Warn("reload breakpoints")
		}
	})
	if err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func printConfig(w io.Writer, cfg *config.Config) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(cfg)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// parseLine parses a 1-based line argument.
func parseLine(arg string) (int, error) {
	line, err := strconv.Atoi(arg)
	if err != nil || line < 1 {
		return 0, fmt.Errorf("invalid line %q", arg)
	}
	return line, nil
}

// reportable reports whether err should be shown to the user rather than
// ending the command loop.
func reportable(err error) bool {
	return !errors.Is(err, context.Canceled)
}
