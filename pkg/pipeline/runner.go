package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/graphsplit/pkg/cache"
	"github.com/matzehuels/graphsplit/pkg/graphio"
	"github.com/matzehuels/graphsplit/pkg/ir"
	"github.com/matzehuels/graphsplit/pkg/observability"
	"github.com/matzehuels/graphsplit/pkg/render"
	"github.com/matzehuels/graphsplit/pkg/split"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
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
	}
}

// Execute runs the complete load → split → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	g, loadHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Graph = g
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = g.NodeCount()
	result.CacheInfo.LoadHit = loadHit
	result.GraphHash = graphHash(g)

	r.Logger.Info("loaded graph",
		"run", result.RunID,
		"nodes", g.NodeCount(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Split
	splitStart := time.Now()
	mod, parts, splitHit, err := r.SplitWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	result.Module = mod
	result.Partitions = parts
	result.Stats.SplitTime = time.Since(splitStart)
	result.Stats.PartitionCount = len(parts)
	result.CacheInfo.SplitHit = splitHit

	r.Logger.Info("split graph",
		"run", result.RunID,
		"partitions", len(parts),
		"duration", result.Stats.SplitTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, mod, parts, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"run", result.RunID,
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo reads and decodes the graph with caching and returns
// cache hit info.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*ir.Graph, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	source := opts.GraphPath
	if len(opts.GraphJSON) > 0 {
		source = "inline"
	}
	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, source)

	raw := opts.GraphJSON
	if len(raw) == 0 {
		data, err := os.ReadFile(opts.GraphPath)
		if err != nil {
			observability.Pipeline().OnLoadComplete(ctx, source, 0, time.Since(start), err)
			return nil, false, fmt.Errorf("read %s: %w", opts.GraphPath, err)
		}
		raw = data
	}

	cacheKey := r.Keyer.GraphKey(cache.Hash(raw))

	// Try cache first (unless refresh requested). The cached payload is the
	// canonical re-encoding of the graph, which skips re-validation of the
	// raw input on repeat runs.
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if sg, err := graphio.UnmarshalGraph(data); err == nil {
				if g, err := graphio.ToGraph(sg); err == nil {
					observability.Cache().OnCacheHit(ctx, "graph")
					observability.Pipeline().OnLoadComplete(ctx, source, g.NodeCount(), time.Since(start), nil)
					return g, true, nil
				}
			}
		}
		observability.Cache().OnCacheMiss(ctx, "graph")
	}

	g, err := graphio.ReadJSON(bytes.NewReader(raw))
	if err != nil {
		observability.Pipeline().OnLoadComplete(ctx, source, 0, time.Since(start), err)
		return nil, false, err
	}

	if data, err := json.Marshal(graphio.FromGraph(g)); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLGraph)
		observability.Cache().OnCacheSet(ctx, "graph", len(data))
	}

	observability.Pipeline().OnLoadComplete(ctx, source, g.NodeCount(), time.Since(start), nil)
	return g, false, nil
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards the cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) (*ir.Graph, error) {
	g, _, err := r.LoadWithCacheInfo(ctx, opts)
	return g, err
}

// SplitWithCacheInfo partitions the graph with caching and returns cache hit
// info. The rebuilt module is cached in its serialized form; cached entries
// whose attribute tables cannot be restored (callable attributes) fall
// through to a fresh split.
func (r *Runner) SplitWithCacheInfo(ctx context.Context, g *ir.Graph, opts Options) (*ir.Module, []split.Partition, bool, error) {
	if err := opts.ValidateForSplit(); err != nil {
		return nil, nil, false, err
	}
	r.applyLogger(&opts)

	start := time.Now()
	observability.Pipeline().OnSplitStart(ctx, opts.Policy, g.NodeCount())

	groupOf, err := opts.GroupFunc()
	if err != nil {
		return nil, nil, false, err
	}

	// Partition metadata is cheap to recompute and is needed for the
	// result even on a module cache hit.
	parts, err := split.Analyze(g, groupOf)
	if err != nil {
		observability.Pipeline().OnSplitComplete(ctx, opts.Policy, 0, time.Since(start), err)
		return nil, nil, false, err
	}

	cacheKey := r.Keyer.SplitKey(graphHash(g), opts.SplitKeyOpts())

	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		var sm graphio.Module
		if err := json.Unmarshal(data, &sm); err == nil {
			if mod, err := graphio.ToModule(sm, nil); err == nil {
				observability.Cache().OnCacheHit(ctx, "split")
				observability.Pipeline().OnSplitComplete(ctx, opts.Policy, len(parts), time.Since(start), nil)
				return mod, parts, true, nil
			}
		}
		// Fall through to recompute on deserialization failure.
	}
	observability.Cache().OnCacheMiss(ctx, "split")

	// The Analyze call above re-runs the policy closure, so a fresh one is
	// needed for the build.
	groupOf, err = opts.GroupFunc()
	if err != nil {
		return nil, nil, false, err
	}

	root := opts.Root
	if root == nil {
		root = ir.NewModule(g)
	}
	mod, err := split.Split(g, root, groupOf)
	if err != nil {
		observability.Pipeline().OnSplitComplete(ctx, opts.Policy, 0, time.Since(start), err)
		return nil, nil, false, err
	}

	if data, err := json.Marshal(graphio.FromModule(mod)); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLSplit)
		observability.Cache().OnCacheSet(ctx, "split", len(data))
	}

	observability.Pipeline().OnSplitComplete(ctx, opts.Policy, len(parts), time.Since(start), nil)
	return mod, parts, false, nil
}

// Split is a convenience wrapper that calls SplitWithCacheInfo and discards the cache hit info.
func (r *Runner) Split(ctx context.Context, g *ir.Graph, opts Options) (*ir.Module, []split.Partition, error) {
	mod, parts, _, err := r.SplitWithCacheInfo(ctx, g, opts)
	return mod, parts, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, mod *ir.Module, parts []split.Partition, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)

	// Key artifacts off the serialized module.
	modData, err := json.Marshal(graphio.FromModule(mod))
	if err != nil {
		return nil, false, fmt.Errorf("serialize module for cache key: %w", err)
	}
	splitHash := cache.Hash(modData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(splitHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	rendered, err := renderFormats(mod, parts, modData, opts)
	if err != nil {
		observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(splitHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, mod *ir.Module, parts []split.Partition, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, mod, parts, opts)
	return artifacts, err
}

// renderFormats produces every requested format. The JSON artifact is the
// serialized module itself, which callers already have as modData.
func renderFormats(mod *ir.Module, parts []split.Partition, modData []byte, opts Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(opts.Formats))
	ropts := render.Options{Detailed: opts.Detailed}

	for _, format := range opts.Formats {
		switch format {
		case FormatDOT:
			out[format] = []byte(render.PartitionDOT(parts, ropts))
		case FormatSVG:
			svg, err := render.SVG(render.PartitionDOT(parts, ropts))
			if err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
			out[format] = svg
		case FormatJSON:
			out[format] = modData
		default:
			return nil, fmt.Errorf("invalid format: %q", format)
		}
	}
	return out, nil
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

// graphHash returns the content hash of a graph's canonical serialization.
func graphHash(g *ir.Graph) string {
	data, err := json.Marshal(graphio.FromGraph(g))
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
