package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/semtiles/internal/config"
	"github.com/matzehuels/semtiles/pkg/cache"
	errs "github.com/matzehuels/semtiles/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the listing and artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached listing and artifact",
		Long: `Remove every cached listing and artifact.

Only the file cache can be cleared from here. Redis entries expire on their
own after cache.ttl.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config()
			if cfg.Cache.Backend != config.CacheFile {
				return errs.New(errs.ErrCodeUnsupported, "cache clear supports the file backend only, not %q", cfg.Cache.Backend)
			}
			fc, err := cache.NewFileCache(cfg.Cache.Dir)
			if err != nil {
				return err
			}
			if err := fc.Clear(); err != nil {
				return errs.Wrap(errs.ErrCodeInternal, err, "clear %s", fc.Dir())
			}
			printSuccess("Cache cleared")
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.Config().Cache.Dir)
			return nil
		},
	}
}
