package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qlogtree/pkg/buildinfo"
	"github.com/matzehuels/qlogtree/pkg/cache"
	"github.com/matzehuels/qlogtree/pkg/config"
	"github.com/matzehuels/qlogtree/pkg/errors"
	"github.com/matzehuels/qlogtree/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = config.AppName

	// keyPrefix scopes cache keys on shared backends.
	keyPrefix = appName + ":"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any command runs.
	Config config.Config

	// Confirm asks the user a yes/no question. Defaults to an interactive prompt.
	Confirm func(question string) (bool, error)

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:  newLogger(w, level),
		Config:  config.Default(),
		Confirm: confirm,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The root command itself builds a timeline, so `qlogtree client.qlog` works
// without naming a subcommand.
func (c *CLI) RootCommand() *cobra.Command {
	opts := c.defaultTimelineOpts()

	root := &cobra.Command{
		Use:   "qlogtree <logfile> [<output_name>]",
		Short: "qlogtree visualizes HTTP/3 prioritization dependency trees",
		Long: `qlogtree reads a client-side qlog trace of an HTTP/3 page load, extracts every
dependency tree the server announced in PRIORITY_CHANGE events, renders each
snapshot as a colored graph, and assembles them into an HTML timeline.

Request nodes are colored by the resource type of the URI their stream fetched.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		Args:              timelineArgs,
		ValidArgsFunction: completeTrace,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTimeline(cmd, args, opts)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/qlogtree/config.toml)")
	addTimelineFlags(root, opts)

	root.AddCommand(c.timelineCommand())
	root.AddCommand(c.fetchTimeCommand())
	root.AddCommand(c.ttcCommand())
	root.AddCommand(c.chunksCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration file once per invocation.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("config loaded", "path", c.configPath, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured render cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	rc, err := c.openCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(rc, cache.NewScopedKeyer(nil, keyPrefix), c.Logger), nil
}

// openCache opens the configured backend. A cache that cannot be opened
// degrades to no caching; a run never fails because of its cache.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cc, err := c.Config.CacheConfig()
	if err != nil {
		c.Logger.Warn("cache disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	rc, err := cache.Open(ctx, cc)
	if err != nil {
		c.Logger.Warn("cache disabled", "backend", cc.Backend, "error", err)
		return cache.NewNullCache(), nil
	}
	return rc, nil
}

// =============================================================================
// Argument Helpers
// =============================================================================

// timelineArgs accepts a log file and an optional output name.
func timelineArgs(cmd *cobra.Command, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New(errors.ErrCodeInvalidArguments,
			"incorrect arguments; usage: %s <logfile> [<output_name>] (log should be client-side)", cmd.Root().Name())
	}
	return nil
}

// singleLogArg accepts exactly one log file.
func singleLogArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New(errors.ErrCodeInvalidArguments,
			"incorrect arguments; usage: %s <logfile> (log should be client-side)", cmd.CommandPath())
	}
	return nil
}

// parseFormats parses a comma-separated format string into a slice.
// An empty string yields nil so that configured defaults apply.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// writeFile writes data to path, reporting it like the other outputs.
func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printFile(path)
	return nil
}
