package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qlogtree/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var expired bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached snapshot renderings",
		Long: `Remove cached snapshot renderings, timelines, and downloaded traces.

With --expired only entries past their TTL are removed (file backend; Redis
expires entries by itself).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if c.Config.Cache.Backend == cache.BackendNone {
				printInfo("Cache is disabled")
				return nil
			}

			rc, err := c.openCache(ctx, false)
			if err != nil {
				return err
			}
			defer rc.Close()

			var count int
			var where string
			switch b := rc.(type) {
			case *cache.FileCache:
				if expired {
					count, err = b.Prune()
				} else {
					count, err = b.Clear()
				}
				where = b.Dir()
			case *cache.RedisCache:
				if expired {
					printInfo("Redis expires entries by itself")
					return nil
				}
				count, err = b.Clear(ctx, keyPrefix)
				where = c.Config.Cache.RedisURL
			default:
				printInfo("Cache is unavailable")
				return nil
			}
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Location: %s", where)
			return nil
		},
	}
	cmd.Flags().BoolVar(&expired, "expired", false, "only remove expired entries")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch c.Config.Cache.Backend {
			case cache.BackendRedis:
				fmt.Fprintln(out, c.Config.Cache.RedisURL)
			case cache.BackendNone:
				printInfo("Cache is disabled")
			default:
				cc, err := c.Config.CacheConfig()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				fmt.Fprintln(out, cc.Dir)
			}
			return nil
		},
	}
}
