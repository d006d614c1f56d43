// Package pipeline provides the snapshot pipeline shared by the CLI and the
// HTTP API.
//
// # Architecture
//
// A run consists of four stages over a fully decoded trace:
//
//  1. Classify: build the stream color assignment from every GET event
//  2. Extract: parse one dependency tree snapshot per PRIORITY_CHANGE
//  3. Render: flatten each snapshot, emit DOT, lay it out with Graphviz
//  4. Assemble: join the rendered snapshots into the timeline document
//
// Snapshots are rendered one at a time, in trace order. Every artifact is
// produced in memory; nothing is written until [Write] is called with a
// complete [Result], so a failed run leaves no partial output behind.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, events, pipeline.Options{
//	    Title:   "client.qlog",
//	    Formats: []string{"svg", "json"},
//	})
//	if err != nil {
//	    return err
//	}
//	written, err := pipeline.Write(dir, "dep_tree_timeline.html", result, opts.Formats)
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/qlogtree/pkg/cache"
	"github.com/matzehuels/qlogtree/pkg/deptree"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// Format constants for per-snapshot artifacts.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

const (
	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// TTLArtifact is how long rendered snapshots stay cached.
	TTLArtifact = 30 * 24 * time.Hour
)

// DefaultFormats are written when no formats are requested.
var DefaultFormats = []string{FormatSVG, FormatJSON}

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Title names the trace in the timeline, usually its file name.
	Title string `json:"title,omitempty"`

	// RunID identifies the run. A random UUID is used when empty.
	RunID string `json:"run_id,omitempty"`

	// Formats lists the per-snapshot artifacts to produce.
	Formats []string `json:"formats,omitempty"`

	// Scale is the PNG scale factor.
	Scale float64 `json:"scale,omitempty"`

	// SkipUnclassified renders request nodes without a GET unstyled
	// instead of aborting the run.
	SkipUnclassified bool `json:"skip_unclassified,omitempty"`

	// Refresh bypasses cached artifacts.
	Refresh bool `json:"refresh,omitempty"`

	// CacheTTL is how long rendered artifacts stay cached. Defaults to TTLArtifact.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run.
	RunID string

	// Snapshots holds one entry per PRIORITY_CHANGE event, in trace order.
	Snapshots []Snapshot

	// Timeline is the assembled HTML document.
	Timeline []byte

	// Unclassified lists request ids rendered without colors, per snapshot
	// order, when Options.SkipUnclassified is set.
	Unclassified []string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks cache usage of the render stage.
	CacheInfo CacheInfo
}

// Snapshot is one rendered dependency tree.
type Snapshot struct {
	deptree.Snapshot
	deptree.Flattened

	// DOT is the Graphviz source the artifacts were rendered from.
	DOT string

	// Artifacts holds rendered outputs keyed by format.
	Artifacts map[string][]byte
}

// Stats contains pipeline execution statistics.
type Stats struct {
	EventCount    int
	SnapshotCount int
	StreamCount   int
	ExtractTime   time.Duration
	RenderTime    time.Duration
	TimelineTime  time.Duration
}

// CacheInfo counts render cache lookups.
type CacheInfo struct {
	Hits   int
	Misses int
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, pdf, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = TTLArtifact
	}
	if o.Scale < 0 {
		return fmt.Errorf("scale must be positive, got %g", o.Scale)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Wants reports whether format was requested.
func (o *Options) Wants(format string) bool {
	return slices.Contains(o.Formats, format)
}

// ArtifactKeyOpts returns cache key options for one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	if format == FormatPNG {
		opts.Scale = o.Scale
	}
	return opts
}

// TimelineKeyOpts returns cache key options for a whole timeline.
func (o *Options) TimelineKeyOpts(repair bool) cache.TimelineKeyOpts {
	return cache.TimelineKeyOpts{Title: o.Title, Repair: repair, SkipUnclassified: o.SkipUnclassified}
}
