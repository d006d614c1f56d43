package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qlogtree/pkg/config"
	"github.com/matzehuels/qlogtree/pkg/errors"
	"github.com/matzehuels/qlogtree/pkg/pipeline"
	"github.com/matzehuels/qlogtree/pkg/publish"
	"github.com/matzehuels/qlogtree/pkg/store"
)

// timelineOpts holds the flags of the timeline command. Empty values fall
// back to the configuration file.
type timelineOpts struct {
	repair  string  // ask, yes or no
	formats string  // comma-separated snapshot formats
	scale   float64 // PNG scale
	lenient bool    // render unclassified requests unstyled
	noCache bool    // bypass the render cache entirely
	refresh bool    // re-render and overwrite cached artifacts
	archive bool    // store snapshots in MongoDB
	publish bool    // upload the timeline to S3
}

func (c *CLI) defaultTimelineOpts() *timelineOpts {
	return &timelineOpts{}
}

func addTimelineFlags(cmd *cobra.Command, opts *timelineOpts) {
	cmd.Flags().StringVar(&opts.repair, "repair", "", "fix unterminated traces: ask (default), yes, no")
	cmd.Flags().StringVarP(&opts.formats, "formats", "f", "", "snapshot formats: svg, json (default), png, pdf, dot (comma-separated)")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "PNG scale factor (default 2)")
	cmd.Flags().BoolVar(&opts.lenient, "lenient", false, "render requests without a GET unstyled instead of failing")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render cached snapshots")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "store snapshots in the configured MongoDB archive")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "upload the timeline to the configured S3 bucket")
}

// timelineCommand creates the explicit form of the root command.
func (c *CLI) timelineCommand() *cobra.Command {
	opts := c.defaultTimelineOpts()
	cmd := &cobra.Command{
		Use:   "timeline <logfile> [<output_name>]",
		Short: "Render the dependency tree timeline of a trace",
		Long: `Render the dependency tree timeline of a client-side qlog trace.

One snapshot is rendered per PRIORITY_CHANGE event. The timeline is written to
output_name (default dep_tree_timeline.html) and the per-snapshot files
Tree_<i>.<format> next to it.`,
		Args:              timelineArgs,
		ValidArgsFunction: completeTrace,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTimeline(cmd, args, opts)
		},
	}
	addTimelineFlags(cmd, opts)
	return cmd
}

// pipelineOptions merges flags over the configuration.
func (c *CLI) pipelineOptions(opts *timelineOpts, title string) (pipeline.Options, error) {
	formats := parseFormats(opts.formats)
	if formats == nil {
		formats = c.Config.Output.Formats
	}
	if err := pipeline.ValidateFormats(formats); err != nil {
		return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidArguments, err, "--formats")
	}
	scale := opts.scale
	if scale == 0 {
		scale = c.Config.Output.PNGScale
	}
	return pipeline.Options{
		Title:            title,
		Formats:          formats,
		Scale:            scale,
		SkipUnclassified: opts.lenient,
		Refresh:          opts.refresh,
		CacheTTL:         c.Config.Cache.TTL.Duration,
		Logger:           c.Logger,
	}, nil
}

func (c *CLI) runTimeline(cmd *cobra.Command, args []string, opts *timelineOpts) error {
	ctx := log.WithContext(cmd.Context(), c.Logger)
	logfile := args[0]

	output := c.Config.Output.Timeline
	if len(args) == 2 {
		if err := errors.ValidateOutputName(args[1]); err != nil {
			return err
		}
		output = args[1]
	}

	repair := c.repairMode(opts.repair)
	popts, err := c.pipelineOptions(opts, filepath.Base(logfile))
	if err != nil {
		return err
	}

	lt, err := c.loadTrace(ctx, logfile, repair)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	watch := startStopwatch(c.Logger)
	spin := newSpinner(ctx, "Rendering snapshots...")
	spin.Start()
	res, err := runner.Execute(ctx, lt.Events, popts)
	if err != nil {
		spin.StopWithError("Timeline failed")
		return err
	}
	spin.Stop()
	watch.donef("Rendered %d snapshots", len(res.Snapshots))

	written, err := pipeline.Write(filepath.Dir(output), filepath.Base(output), res, popts.Formats)
	if err != nil {
		return err
	}

	printSuccess("Timeline of %d snapshots", len(res.Snapshots))
	for _, path := range written {
		printFile(path)
	}
	printStats(res.Stats, res.CacheInfo)
	if n := len(res.Unclassified); n > 0 {
		printWarning("%d request node(s) had no GET and were left unstyled", n)
	}

	if opts.archive {
		if err := c.archiveRun(ctx, res, logfile); err != nil {
			return err
		}
	}
	if opts.publish {
		if err := c.publishTimeline(ctx, res, filepath.Base(output)); err != nil {
			return err
		}
	}
	printKeyValue("run", res.RunID)
	return nil
}

// =============================================================================
// Archive & Publish
// =============================================================================

// timelinePublisher uploads one artifact and returns its location.
type timelinePublisher interface {
	Publish(ctx context.Context, runID, name string, body []byte) (string, error)
}

// openArchive and openPublisher are replaced in tests.
var (
	openArchive = func(ctx context.Context, cfg config.Archive) (store.Store, error) {
		return store.NewMongoStore(ctx, store.MongoConfig{
			URI:        cfg.URI,
			Database:   cfg.Database,
			Collection: cfg.Collection,
		})
	}
	openPublisher = func(ctx context.Context, cfg config.Publish) (timelinePublisher, error) {
		return publish.NewS3Publisher(ctx, publish.Config{
			Bucket: cfg.Bucket,
			Region: cfg.Region,
			Prefix: cfg.Prefix,
		})
	}
)

// archiveRecords converts a run into one record per snapshot.
func archiveRecords(res *pipeline.Result, trace string) []store.Record {
	records := make([]store.Record, 0, len(res.Snapshots))
	for _, s := range res.Snapshots {
		records = append(records, store.NewRecord(res.RunID, trace, s.Snapshot, s.Flattened))
	}
	return records
}

func (c *CLI) archiveRun(ctx context.Context, res *pipeline.Result, logfile string) error {
	if c.Config.Archive.URI == "" {
		return errors.New(errors.ErrCodeInvalidArguments, "--archive needs [archive] uri or %s", config.EnvMongoURI)
	}
	st, err := openArchive(ctx, c.Config.Archive)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer st.Close(ctx)

	if err := st.Save(ctx, archiveRecords(res, filepath.Base(logfile))); err != nil {
		return fmt.Errorf("archive snapshots: %w", err)
	}
	printSuccess("Archived %d snapshots", len(res.Snapshots))
	return nil
}

func (c *CLI) publishTimeline(ctx context.Context, res *pipeline.Result, name string) error {
	if c.Config.Publish.Bucket == "" {
		return errors.New(errors.ErrCodeInvalidArguments, "--publish needs [publish] bucket")
	}
	p, err := openPublisher(ctx, c.Config.Publish)
	if err != nil {
		return fmt.Errorf("open publisher: %w", err)
	}
	loc, err := p.Publish(ctx, res.RunID, name, res.Timeline)
	if err != nil {
		return err
	}
	printSuccess("Published timeline")
	printFile(loc)
	return nil
}
