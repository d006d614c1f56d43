package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/qlogtree/pkg/cache"
	"github.com/matzehuels/qlogtree/pkg/classify"
	"github.com/matzehuels/qlogtree/pkg/deptree"
	"github.com/matzehuels/qlogtree/pkg/observability"
	"github.com/matzehuels/qlogtree/pkg/qlog"
	"github.com/matzehuels/qlogtree/pkg/render/nodelink"
	"github.com/matzehuels/qlogtree/pkg/timeline"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Layout turns DOT into SVG. Defaults to [nodelink.RenderSVG].
	Layout func(dot string) ([]byte, error)
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Layout: nodelink.RenderSVG,
	}
}

// Execute runs classify → extract → render → assemble over events.
// The first fatal error aborts the run and no result is returned.
// Cancellation is checked between snapshots.
func (r *Runner) Execute(ctx context.Context, events []qlog.Event, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	result := &Result{RunID: opts.RunID}
	result.Stats.EventCount = len(events)

	// Stage 1: Classify
	colors := classify.Build(events)
	result.Stats.StreamCount = colors.Len()
	for _, ev := range classify.Skipped(events) {
		opts.Logger.Debug("GET without stream_id or uri", "time", ev.Time)
	}

	// Stage 2: Extract
	hooks := observability.Pipeline()
	hooks.OnExtractStart(ctx, len(events))
	extractStart := time.Now()
	snaps, err := deptree.Extract(events)
	result.Stats.ExtractTime = time.Since(extractStart)
	hooks.OnExtractComplete(ctx, len(snaps), result.Stats.ExtractTime, err)
	if err != nil {
		return nil, err
	}
	result.Stats.SnapshotCount = len(snaps)

	opts.Logger.Info("extracted snapshots",
		"events", len(events),
		"streams", colors.Len(),
		"snapshots", len(snaps),
		"duration", result.Stats.ExtractTime)

	// Stage 3: Render
	renderStart := time.Now()
	result.Snapshots = make([]Snapshot, 0, len(snaps))
	for _, s := range snaps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rendered, err := r.renderSnapshot(ctx, s, colors, &opts, result)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", s.Index, err)
		}
		result.Snapshots = append(result.Snapshots, rendered)
	}
	result.Stats.RenderTime = time.Since(renderStart)

	opts.Logger.Info("rendered snapshots",
		"formats", opts.Formats,
		"cache_hits", result.CacheInfo.Hits,
		"duration", result.Stats.RenderTime)

	// Stage 4: Assemble
	assembleStart := time.Now()
	result.Timeline, err = timeline.Assemble(timeline.Document{
		Title:  opts.Title,
		RunID:  opts.RunID,
		Frames: frames(result.Snapshots),
		Legend: timeline.Legend(),
	})
	result.Stats.TimelineTime = time.Since(assembleStart)
	hooks.OnTimelineComplete(ctx, len(result.Snapshots), len(result.Timeline), result.Stats.TimelineTime, err)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *Runner) renderSnapshot(ctx context.Context, s deptree.Snapshot, colors classify.Assignment, opts *Options, result *Result) (Snapshot, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, s.Index, opts.Formats)
	start := time.Now()

	out, err := r.buildSnapshot(ctx, s, colors, opts, result)
	hooks.OnRenderComplete(ctx, s.Index, time.Since(start), err)
	if err != nil {
		return Snapshot{}, err
	}

	opts.Logger.Debug("rendered snapshot",
		"index", s.Index,
		"time", s.Time,
		"trigger", s.Trigger,
		"edges", len(out.Edges),
		"duration", time.Since(start))
	return out, nil
}

func (r *Runner) buildSnapshot(ctx context.Context, s deptree.Snapshot, colors classify.Assignment, opts *Options, result *Result) (Snapshot, error) {
	f := deptree.Flatten(s)
	dot, err := nodelink.ToDOT(f, colors, nodelink.Options{
		SkipUnclassified: opts.SkipUnclassified,
		OnUnclassified: func(id string) {
			opts.Logger.Warn("request has no GET, rendering unstyled", "snapshot", s.Index, "stream", id)
			result.Unclassified = append(result.Unclassified, id)
		},
	})
	if err != nil {
		return Snapshot{}, err
	}

	artifacts, err := r.RenderArtifacts(ctx, dot, *opts, &result.CacheInfo)
	if err != nil {
		return Snapshot{}, err
	}
	if opts.Wants(FormatJSON) {
		data, err := deptree.MarshalIndent(s.Root)
		if err != nil {
			return Snapshot{}, fmt.Errorf("dump tree: %w", err)
		}
		artifacts[FormatJSON] = data
	}

	return Snapshot{
		Snapshot:  s,
		Flattened: f,
		DOT:       dot,
		Artifacts: artifacts,
	}, nil
}

func frames(snaps []Snapshot) []timeline.Frame {
	out := make([]timeline.Frame, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, timeline.Frame{
			Index:   s.Index,
			Time:    s.Time,
			Trigger: s.Trigger,
			SVG:     s.Artifacts[FormatSVG],
		})
	}
	return out
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
