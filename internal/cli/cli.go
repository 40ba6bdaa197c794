// Package cli implements the storyweave command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"storyweave/internal/config"
	"storyweave/internal/logging"
	"storyweave/internal/repository/sqlite"
	"storyweave/internal/service"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	configPath string
	dbPath     string
	verbose    bool
}

// New creates a new CLI instance logging to w.
func New(w io.Writer) *CLI {
	return &CLI{
		Logger: logging.New(w, log.InfoLevel),
		Config: config.DefaultConfig(),
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "storyweave",
		Short:             "storyweave keeps narrative flowcharts editable as text and as data",
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default: search standard locations)")
	flags.StringVar(&c.dbPath, "db", "", "SQLite database path (overrides config)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.createCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.fmtCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.watchCommand())

	return root
}

// setup loads config, applies flag overrides and puts the logger in the
// command context.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if c.configPath != "" {
		cfg, path, err = config.LoadFromPath(c.configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return err
	}
	if c.dbPath != "" {
		cfg.Database.Path = c.dbPath
	}
	c.Config = cfg

	level := logging.ParseLevel(cfg.Log.Level)
	if c.verbose {
		level = log.DebugLevel
	}
	c.Logger.SetLevel(level)
	if path != "" {
		c.Logger.Debug("loaded config", "path", path, "config", cfg.Summary())
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.WithLogger(ctx, c.Logger))
	return nil
}

// openService opens the configured database. The returned close func must
// be called when the command is done.
func (c *CLI) openService() (*service.GraphService, *service.EventBus, func(), error) {
	repo, err := sqlite.New(c.Config.Database.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database %s: %w", c.Config.Database.Path, err)
	}
	c.Logger.Debug("database opened", "path", c.Config.Database.Path)

	bus := service.NewEventBus()
	closeFn := func() {
		if err := repo.Close(); err != nil {
			c.Logger.Warn("failed to close database", "err", err)
		}
	}
	return service.NewGraphService(repo, bus), bus, closeFn, nil
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
