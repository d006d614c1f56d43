package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/qlogtree/pkg/cache"
	"github.com/matzehuels/qlogtree/pkg/observability"
	"github.com/matzehuels/qlogtree/pkg/render"
)

// RenderArtifacts produces the requested image formats for one DOT graph.
// SVG is always produced, since the timeline inlines it. Each format is
// looked up in the cache first; info, when non-nil, counts the lookups.
func (r *Runner) RenderArtifacts(ctx context.Context, dot string, opts Options, info *CacheInfo) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if info == nil {
		info = &CacheInfo{}
	}
	dotHash := cache.Hash([]byte(dot))
	artifacts := make(map[string][]byte)

	svg, err := r.cached(ctx, dotHash, FormatSVG, opts, info, func() ([]byte, error) {
		return r.layout(dot)
	})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", FormatSVG, err)
	}
	artifacts[FormatSVG] = svg

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG, FormatJSON:
			continue
		case FormatDOT:
			data = []byte(dot)
		case FormatPNG:
			data, err = r.cached(ctx, dotHash, format, opts, info, func() ([]byte, error) {
				return render.ToPNG(svg, opts.Scale)
			})
		case FormatPDF:
			data, err = r.cached(ctx, dotHash, format, opts, info, func() ([]byte, error) {
				return render.ToPDF(svg)
			})
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// cached returns the artifact stored for (dotHash, format) or produces and
// stores it. Cache failures degrade to a miss.
func (r *Runner) cached(ctx context.Context, dotHash, format string, opts Options, info *CacheInfo, produce func() ([]byte, error)) ([]byte, error) {
	hooks := observability.Cache()
	key := r.Keyer.ArtifactKey(dotHash, opts.ArtifactKeyOpts(format))

	if !opts.Refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil {
			opts.Logger.Debug("cache read failed", "format", format, "error", err)
		}
		if err == nil && hit {
			info.Hits++
			hooks.OnCacheHit(ctx, format)
			return data, nil
		}
	}
	info.Misses++
	hooks.OnCacheMiss(ctx, format)

	data, err := produce()
	if err != nil {
		return nil, err
	}
	if err := r.Cache.Set(ctx, key, data, opts.CacheTTL); err != nil {
		opts.Logger.Debug("cache write failed", "format", format, "error", err)
	} else {
		hooks.OnCacheSet(ctx, format, len(data))
	}
	return data, nil
}

func (r *Runner) layout(dot string) ([]byte, error) {
	if r.Layout == nil {
		return nil, fmt.Errorf("runner has no layout engine")
	}
	return r.Layout(dot)
}
