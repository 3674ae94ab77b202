// Package pkg provides the core libraries for towerpath, an organizer for
// curved print paths in non-planar 3D printing.
//
// # Overview
//
// A model is sliced into curved vertical layers, the segments. Towerpath
// works out which segment rests on which, picks a print order in which every
// segment follows everything below it, and annotates each point with the
// local layer height, a tool frame and a print velocity.
//
// # Architecture
//
// The typical data flow:
//
//	mesh (JSON, or an SDF via [mesh.FromSDF])
//	         ↓
//	    [slicer] package (planes → paths → vertical layers)
//	         ↓
//	    [printorg] package (support graph, boundaries, connectivity, order)
//	         ↓
//	    [pipeline] package (velocity, cache, artifacts)
//	         ↓
//	print points JSON / G-code / DOT / SVG
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/towerpath/pkg/cache"
//	    "github.com/matzehuels/towerpath/pkg/pipeline"
//	)
//
//	layers, _ := pipeline.Slice(ctx, m, pipeline.SliceOptions{LayerHeight: 0.3, MaxDistance: 2})
//
//	var opts pipeline.Options
//	opts.MaxDThreshold = 2
//	opts.BoundaryBelow = 0.05
//	opts.Formats = []string{"json", "gcode"}
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, err := runner.Execute(ctx, pipeline.Input{Mesh: m, Layers: layers}, opts)
//
// # Main Packages
//
// [geometry] - Points, paths, horizontal and vertical layers, print points
// and the layer file format.
//
// [mesh] - Triangle meshes with per-vertex attributes such as the
// "boundary" tag that marks print bed contact.
//
// [slicer] - Planar and SDF-sampled slicing and grouping of paths into vertical layers.
//
// [dag] - Integer-keyed directed acyclic graph with depth layering,
// topological order enumeration and DOT/SVG output.
//
// [printorg] - The organizer state machine: segment graph, base
// boundaries, nearest-neighbor connectivity, order policies, print point
// export and velocity assignment.
//
// [gcode] - G-code emission for organized print points.
//
// [cache] - Result caching on disk or in Redis.
//
// [pipeline] - Orchestration of organize, velocity and rendering with
// caching and TOML configuration.
//
// [api] - The HTTP API.
//
// [observability] - Hooks for stages, advisories, cache and HTTP events.
//
// [errors] - Error codes shared by the CLI and the API.
package pkg
