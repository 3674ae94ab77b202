// Package cli implements the towerpath command-line interface.
//
// # Commands
//
//   - slice: cut a mesh into horizontal or vertical layers
//   - organize: order vertical layers into print points, G-code and graphs
//   - graph: inspect the segment support graph
//   - serve: run the HTTP API
//   - cache: manage the result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// travels to commands through context.Context.
//
// # Exit status
//
// Configuration errors exit with 2, unsupported topologies with 3 and
// invalid data with 4; see errors.ExitCode.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/towerpath/pkg/buildinfo"
	"github.com/matzehuels/towerpath/pkg/cache"
	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/observability"
	"github.com/matzehuels/towerpath/pkg/pipeline"
)

// appName is used for the cache directory and display.
const appName = "towerpath"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds state shared by all commands.
type CLI struct {
	Logger *log.Logger
	out    io.Writer

	verbose    bool
	configPath string
}

// New returns a CLI logging to w at level. Command output goes to stdout.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), out: os.Stdout}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand returns the root command with every subcommand registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Towerpath orders curved print paths for non-planar 3D printing",
		Long:         `Towerpath turns a sliced mesh into an ordered, printable sequence of curved paths: it finds which path segments rest on which, picks a print order that respects those supports and attaches layer height and velocity to every point.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.out)

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "TOML config file")

	root.AddCommand(c.sliceCommand())
	root.AddCommand(c.organizeCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	return root
}

// loadOptions returns the config file's options, or zero options when no
// file was given.
func (c *CLI) loadOptions() (pipeline.Options, error) {
	if c.configPath == "" {
		return pipeline.Options{}, nil
	}
	return pipeline.LoadConfig(c.configPath)
}

// newRunner builds a pipeline runner over the cache opts selects.
func (c *CLI) newRunner(ctx context.Context, opts pipeline.Options, noCache bool) (*pipeline.Runner, error) {
	logger := loggerFromContext(ctx)
	store, err := newCache(ctx, opts.Cache, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(store, nil, logger)
	hooks := observability.NewLogHooks(logger)
	return runner.WithHooks(observability.Hooks{Organizer: hooks, Cache: hooks}), nil
}

func newCache(ctx context.Context, cfg pipeline.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case pipeline.CacheNone:
		return cache.NewNullCache(), nil
	case pipeline.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "connect cache")
		}
		return rc, nil
	}
	dir := cfg.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			loggerFromContext(ctx).Warn("no cache directory, caching disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using the XDG layout
// (~/.cache/towerpath/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
