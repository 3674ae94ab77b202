package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/towerpath/pkg/cache"
	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/pipeline"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached organize result and artifact",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			opts, err := c.loadOptions()
			if err != nil {
				return err
			}
			store, err := newCache(ctx, opts.Cache, false)
			if err != nil {
				return err
			}
			defer store.Close()

			cl, ok := store.(cache.Clearer)
			if !ok {
				printInfo("Cache is disabled")
				return nil
			}
			n, err := cl.Clear(ctx)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "clear cache")
			}
			printSuccess("Cleared %d cached entries", n)
			if fc, ok := store.(*cache.FileCache); ok {
				printDetail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := c.loadOptions()
			if err != nil {
				return err
			}
			if opts.Cache.Backend != "" && opts.Cache.Backend != pipeline.CacheFile {
				return errors.New(errors.ErrCodeConfiguration, "cache backend %q has no directory", opts.Cache.Backend)
			}
			dir := opts.Cache.Dir
			if dir == "" {
				if dir, err = cacheDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
