// Package cli wires the palette's cobra commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jask/palette/core"
	"github.com/jask/palette/internal/catalog"
	"github.com/jask/palette/internal/command"
	"github.com/jask/palette/internal/config"
	"github.com/jask/palette/internal/history"
	"github.com/jask/palette/internal/ranking"
	"github.com/jask/palette/internal/tui"
)

type Option func(*rootOptions)

// WithClock replaces the wall clock used for history, for tests.
func WithClock(c history.Clock) Option {
	return func(o *rootOptions) { o.clock = c }
}

type rootOptions struct {
	configPath  string
	catalogPath string
	verbose     bool
	clock       history.Clock
}

// app is what every command runs against once flags and config are read.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	catalog catalog.File
	engine  *ranking.Engine
	store   *history.Store
	closers []io.Closer
}

func (a *app) commands() command.Catalog { return a.catalog.Catalog(nil) }

func (a *app) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil && a.logger != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

// newRootCmd wires the cobra root command and the app its commands share.
// Without a subcommand it runs the terminal palette.
func newRootCmd(opts ...Option) (*cobra.Command, *app) {
	o := &rootOptions{}
	for _, opt := range opts {
		opt(o)
	}
	a := &app{}

	root := &cobra.Command{
		Use:   "palette",
		Short: "Command palette search and ranking",
		Long:  "palette searches a command catalog with fuzzy matching, ranks results by usage history and runs the chosen command.",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, o)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), a)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&o.configPath, "config", "", "Config file (default $PALETTE_CONFIG or $XDG_CONFIG_HOME/palette/config.toml)")
	root.PersistentFlags().StringVar(&o.catalogPath, "catalog", "", "Catalog file (.toml, .yaml) overriding catalog.path")
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newSearchCommand(a))
	root.AddCommand(newHistoryCommand(a))
	root.AddCommand(newCatalogCommand(a))
	return root, a
}

// Execute runs the root command against os.Args and closes the storage
// and log file it opened.
func Execute(ctx context.Context, opts ...Option) error {
	root, a := newRootCmd(opts...)
	return execute(ctx, root, a)
}

// execute closes what setup opened, also when the command fails.
func execute(ctx context.Context, root *cobra.Command, a *app) error {
	defer a.close()
	return root.ExecuteContext(ctx)
}

func (a *app) setup(cmd *cobra.Command, o *rootOptions) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	interactive := !cmd.HasParent()
	logger, closer, err := newLogger(cfg.Log, o.verbose, interactive, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger = logger
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	catalogPath := o.catalogPath
	if catalogPath == "" {
		catalogPath = cfg.Catalog.Path
	}
	if catalogPath == "" {
		a.catalog = catalog.Builtin()
	} else {
		f, err := catalog.LoadFile(catalogPath)
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		a.catalog = f
	}

	storage, closer, err := openStorage(cfg.History)
	if err != nil {
		return fmt.Errorf("history storage: %w", err)
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	storeOpts := append(cfg.History.StoreOptions(), history.WithLogger(logger))
	if o.clock != nil {
		storeOpts = append(storeOpts, history.WithClock(o.clock))
	}
	a.store = history.New(storage, storeOpts...)
	a.engine = ranking.NewEngine(cfg.Ranking.Options(), logger)
	logger.Debug("palette ready",
		"storage", cfg.History.Storage,
		"commands", len(a.catalog.Commands),
	)
	return nil
}

func openStorage(cfg config.HistoryConfig) (history.Storage, io.Closer, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return history.NewMemoryStorage(), nil, nil
	case config.StorageSQLite:
		s, err := history.OpenSQLiteStorage(cfg.ResolvedPath())
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return history.NewFileStorage(cfg.ResolvedPath()), nil, nil
	}
}

// newLogger logs to stderr for one-shot commands. The TUI owns the
// terminal, so it logs to log.file or nowhere.
func newLogger(cfg config.LogConfig, verbose, interactive bool, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	var (
		out    = stderr
		closer io.Closer
	)
	if interactive {
		out = io.Discard
		if path := strings.TrimSpace(cfg.File); path != "" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, nil, fmt.Errorf("mkdir log dir: %w", err)
			}
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, nil, fmt.Errorf("open log file: %w", err)
			}
			out, closer = f, f
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), closer, nil
}

func runTUI(ctx context.Context, a *app) error {
	keys := core.NewKeyRegistry(core.ApplyActionKeybindings(core.DefaultKeyBindings(), a.cfg.Keys))
	model := tui.New(ctx, a.engine, command.Static(a.commands()), a.store, tui.Options{
		Keys:       keys,
		FocusDelay: a.cfg.Palette.FocusDelay,
		PageSize:   a.cfg.Palette.PageSize,
		Logger:     a.logger,
	})
	return tui.Run(ctx, model)
}
