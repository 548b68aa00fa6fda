package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/semtiles/pkg/cache"
	"github.com/matzehuels/semtiles/pkg/distance"
	"github.com/matzehuels/semtiles/pkg/domainstore"
	errs "github.com/matzehuels/semtiles/pkg/errors"
	"github.com/matzehuels/semtiles/pkg/graph"
	"github.com/matzehuels/semtiles/pkg/layout"
	"github.com/matzehuels/semtiles/pkg/observability"
	"github.com/matzehuels/semtiles/pkg/possync"
	"github.com/matzehuels/semtiles/pkg/tessellate"
)

// Source supplies hierarchy levels. *domainstore.Client implements it.
type Source interface {
	Domains(ctx context.Context, parentID string) (*domainstore.ListingResult, error)
}

// Runner encapsulates pipeline execution with caching.
//
// The Runner holds no per-run state, so multiple goroutines can share one
// Runner with different options.
type Runner struct {
	Source Source
	Cache  cache.Cache
	Keyer  cache.Keyer
	Syncer *possync.Syncer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables artifact caching, a nil
// keyer uses the DefaultKeyer and a nil syncer skips position write-back.
// src may be nil when every run reads a listing file.
func NewRunner(src Source, c cache.Cache, keyer cache.Keyer, syncer *possync.Syncer, logger *log.Logger) *Runner {
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
		Source: src,
		Cache:  c,
		Keyer:  keyer,
		Syncer: syncer,
		Logger: logger,
	}
}

// Execute runs fetch -> distance -> layout -> tessellate -> render -> sync.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{}

	// Stage 1: Fetch
	fetchStart := time.Now()
	listing, stale, err := r.Fetch(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Listing = listing
	result.CacheInfo.StaleListing = stale
	result.Stats.FetchTime = time.Since(fetchStart)
	r.Logger.Info("fetched domains",
		"parent", opts.ParentID,
		"domains", len(listing.Domains),
		"stale", stale,
		"duration", result.Stats.FetchTime)

	// Stage 2: Distances and layout
	layoutStart := time.Now()
	res, g := r.Layout(ctx, listing, opts)
	result.Layout = res
	result.Graph = g
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.NodeCount = len(res.Nodes)
	result.Stats.EdgeCount = g.Len()
	r.Logger.Info("computed layout",
		"nodes", len(res.Nodes),
		"edges", g.Len(),
		"strategy", res.Strategy,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Tessellate
	tessStart := time.Now()
	ts := tessellate.Build(res, opts.Width, opts.Height)
	result.Tessellation = ts
	result.Stats.TessTime = time.Since(tessStart)
	r.Logger.Debug("built tessellation", "cells", len(ts.Cells), "duration", result.Stats.TessTime)

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, res, g, ts, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = hit
	result.Stats.RenderTime = time.Since(renderStart)
	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	// Stage 5: Sync, without waiting for the write.
	if opts.Sync {
		result.SyncJob = r.Syncer.Dispatch(ctx, graph.PositionsFromResult(res))
		if result.SyncJob != "" {
			r.Logger.Debug("dispatched position sync", "job", result.SyncJob, "count", len(res.Nodes))
		}
	}

	return result, nil
}

// Fetch loads the listing named by opts, from opts.Input when set and from
// the Source otherwise. stale reports a cached fallback.
func (r *Runner) Fetch(ctx context.Context, opts Options) (l graph.Listing, stale bool, err error) {
	if opts.Input != "" {
		l, err = graph.ReadListingFile(opts.Input)
		if errors.Is(err, fs.ErrNotExist) {
			return l, false, errs.Wrap(errs.ErrCodeFileNotFound, err, "listing file %s", opts.Input)
		}
		if err != nil {
			return l, false, errs.Wrap(errs.ErrCodeInvalidInput, err, "listing file %s", opts.Input)
		}
		return l, false, nil
	}
	if r.Source == nil {
		return l, false, errs.New(errs.ErrCodeInvalidConfig, "no domain store configured")
	}
	lr, err := r.Source.Domains(ctx, opts.ParentID)
	if err != nil {
		return l, false, err
	}
	if lr.Stale {
		r.Logger.Warn("Using cached data", "parent", opts.ParentID, "error", lr.Err)
	}
	return lr.Listing, lr.Stale, nil
}

// Layout builds the distance graph of l and places its domains. The
// returned graph is nil when no distance survives filtering.
func (r *Runner) Layout(ctx context.Context, l graph.Listing, opts Options) (layout.Result, *distance.Graph) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		r.Logger.Debug("layout with unvalidated options", "error", err)
	}
	nodes := l.Nodes()
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	// ErrNoDistances leaves g nil, which selects the circle.
	g, _ := distance.Build(ids, l.SemanticDistances)

	hooks := observability.Layout()
	hooks.OnLayoutStart(ctx, len(nodes))
	start := time.Now()
	res := layout.NewEngine(opts.Width, opts.Height, opts.Seed, r.Logger).Layout(nodes, g)
	hooks.OnLayoutComplete(ctx, string(res.Strategy), len(nodes), time.Since(start), nil)
	return res, g
}

// RenderWithCacheInfo renders every requested format, serving them from the
// cache when all are present. Artifacts are keyed by the content hash of the
// tessellation.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res layout.Result, g *distance.Graph, ts *tessellate.Tessellation, opts Options) (map[string][]byte, bool, error) {
	layoutData, err := graph.MarshalLayout(graph.FromResult(res, opts.Seed, ts))
	if err != nil {
		return nil, false, errs.Wrap(errs.ErrCodeRender, err, "serialize layout for cache key")
	}
	contentHash := cache.Hash(layoutData)

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(contentHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	rendered, err := Render(ctx, res, g, ts, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(contentHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
			r.Logger.Debug("artifact cache write failed", "format", format, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
