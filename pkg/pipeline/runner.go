package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/towerpath/pkg/cache"
	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
	"github.com/matzehuels/towerpath/pkg/observability"
	"github.com/matzehuels/towerpath/pkg/printorg"
)

// Runner executes the pipeline with caching. It holds no per-run state;
// one Runner may serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	Hooks  observability.Hooks
}

// NewRunner returns a runner over c. A nil cache disables caching, a nil
// keyer uses cache.DefaultKeyer and a nil logger discards output.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// WithHooks sets the hooks reported to by later runs and returns r.
// The cache is wrapped so its hits and misses reach h.Cache.
func (r *Runner) WithHooks(h observability.Hooks) *Runner {
	r.Hooks = h.WithDefaults()
	r.Cache = cache.Instrument(r.Cache, r.Hooks.Cache)
	return r
}

// organized is the cached form of the organize stage.
type organized struct {
	PrintPoints *printorg.PrintPoints `json:"print_points"`
	Order       []int                 `json:"order"`
	DOT         string                `json:"dot"`
	Edges       int                   `json:"edges"`
	Truncated   bool                  `json:"truncated,omitempty"`

	// Closed holds PathPrintPoints.Closed per segment and path, which the
	// print points JSON does not carry.
	Closed [][]bool `json:"closed"`
}

func closedFlags(pp *printorg.PrintPoints) [][]bool {
	out := make([][]bool, len(pp.Segments))
	for i, seg := range pp.Segments {
		out[i] = make([]bool, len(seg.Paths))
		for j, path := range seg.Paths {
			out[i][j] = path.Closed
		}
	}
	return out
}

// restoreClosed copies o.Closed back onto the decoded print points. It
// reports false when the flags do not match the print points' shape.
func (o *organized) restoreClosed() bool {
	if len(o.Closed) != len(o.PrintPoints.Segments) {
		return false
	}
	for i := range o.PrintPoints.Segments {
		seg := &o.PrintPoints.Segments[i]
		if len(o.Closed[i]) != len(seg.Paths) {
			return false
		}
		for j := range seg.Paths {
			seg.Paths[j].Closed = o.Closed[i][j]
		}
	}
	return true
}

// Execute runs organize, velocity and render.
func (r *Runner) Execute(ctx context.Context, in Input, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	logger := r.logger(opts).With("run", runID)

	res := &Result{RunID: runID}

	start := time.Now()
	org, hit, hash, err := r.organize(ctx, in, opts, runID, logger)
	if err != nil {
		return nil, fmt.Errorf("organize: %w", err)
	}
	res.InputHash = hash
	res.PrintPoints = org.PrintPoints
	res.Order = org.Order
	res.DOT = org.DOT
	res.CacheInfo.OrganizeHit = hit
	res.Stats = Stats{
		Segments:     org.PrintPoints.Len(),
		Edges:        org.Edges,
		Points:       org.PrintPoints.TotalPoints(),
		Truncated:    org.Truncated,
		OrganizeTime: time.Since(start),
	}
	logger.Info("organized print points",
		"segments", res.Stats.Segments,
		"points", res.Stats.Points,
		"cached", hit,
		"duration", res.Stats.OrganizeTime)

	if err := printorg.AssignVelocity(ctx, res.PrintPoints, opts.Velocity, true, logger, r.Hooks.Organizer); err != nil {
		return nil, fmt.Errorf("velocity: %w", err)
	}

	start = time.Now()
	artifacts, hit, err := r.render(ctx, res, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res.Artifacts = artifacts
	res.CacheInfo.RenderHit = hit
	res.Stats.RenderTime = time.Since(start)
	logger.Info("rendered outputs", "formats", opts.Formats, "cached", hit, "duration", res.Stats.RenderTime)
	return res, nil
}

func (r *Runner) organize(ctx context.Context, in Input, opts Options, runID string, logger *log.Logger) (*organized, bool, string, error) {
	if in.Mesh == nil {
		return nil, false, "", errors.New(errors.ErrCodeConfiguration, "no mesh")
	}
	if opts.BoundaryBelow > 0 {
		lo, _ := in.Mesh.ZRange()
		n := in.Mesh.MarkBoundaryBelow(lo + opts.BoundaryBelow)
		logger.Debug("tagged root boundary", "vertices", n)
	}

	hash, err := inputHash(in)
	if err != nil {
		return nil, false, "", err
	}
	key := r.Keyer.OrganizeKey(hash, opts.organizeSettings())

	// Diagnostics are written while organizing, so a run that asks for
	// them always organizes.
	if !opts.Refresh && !opts.CreateIntermediaryOutputs {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached organized
			if err := json.Unmarshal(data, &cached); err == nil && cached.PrintPoints != nil && cached.restoreClosed() {
				return &cached, true, hash, nil
			}
			logger.Debug("discarding unreadable organize cache entry")
		}
	}

	policy, err := opts.Ordering.Policy()
	if err != nil {
		return nil, false, "", err
	}
	o, err := printorg.New(in.Mesh, in.Layers, opts.Params,
		printorg.WithLogger(r.logger(opts)),
		printorg.WithHooks(r.Hooks.WithDefaults().Organizer),
		printorg.WithPolicy(policy),
		printorg.WithRunID(runID),
	)
	if err != nil {
		return nil, false, "", err
	}
	pp, err := o.Organize(ctx)
	if err != nil {
		return nil, false, "", err
	}

	out := &organized{
		PrintPoints: pp,
		Order:       o.SelectedOrder(),
		DOT:         o.Graph().DOT(),
		Edges:       o.Graph().EdgeCount(),
		Truncated:   o.Graph().Truncated(),
		Closed:      closedFlags(pp),
	}
	if data, err := json.Marshal(out); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLOrganize)
	}
	return out, false, hash, nil
}

func (r *Runner) render(ctx context.Context, res *Result, opts Options) (map[string][]byte, bool, error) {
	ppData, err := json.Marshal(res.PrintPoints)
	if err != nil {
		return nil, false, err
	}
	closed, err := json.Marshal(closedFlags(res.PrintPoints))
	if err != nil {
		return nil, false, err
	}
	resultHash := cache.Hash(append(append(ppData, closed...), res.DOT...))

	key := func(format string) string {
		var settings any
		if format == FormatGcode {
			settings = opts.Gcode
		}
		return r.Keyer.ArtifactKey(resultHash, format, settings)
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, f := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, key(f))
			if err != nil || !hit {
				break
			}
			artifacts[f] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	for _, f := range opts.Formats {
		data, err := Render(ctx, f, res.PrintPoints, res.DOT, opts.Gcode)
		if err != nil {
			return nil, false, err
		}
		artifacts[f] = data
		_ = r.Cache.Set(ctx, key(f), data, cache.TTLArtifact)
	}
	return artifacts, false, nil
}

// inputHash hashes the mesh and layers in their file encodings.
func inputHash(in Input) (string, error) {
	var buf bytes.Buffer
	if err := mesh.Write(in.Mesh, &buf); err != nil {
		return "", err
	}
	if err := geometry.WriteLayers(in.Layers, &buf); err != nil {
		return "", err
	}
	return cache.Hash(buf.Bytes()), nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
