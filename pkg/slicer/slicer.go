// Package slicer cuts a mesh into horizontal layers and prepares them for
// curved organization.
//
// Back-ends implement [Slicer] and are chosen once, by name, through [New].
// The built-in back-ends are "planar", which intersects every triangle with
// horizontal planes and stitches the pieces into paths, and "sampled", which
// resamples each planar cross-section through a signed distance field with
// marching squares.
//
// [SortIntoVerticalLayers] groups the paths of consecutive layers into
// vertical layers, the input of printorg. [ZigZagOpenPaths] flips every
// other open path so open contours print without long travel moves.
package slicer

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
)

// Slicer turns a mesh into one horizontal layer per level. Levels without
// any contour produce no layer.
type Slicer interface {
	Name() string
	Slice(ctx context.Context, m *mesh.Mesh, levels []float64) ([]*geometry.Layer, error)
}

// Options configures a back-end.
type Options struct {
	Logger *log.Logger
	// Cells is the sampled grid size. Zero means DefaultCells.
	Cells int
}

// Backend names a slicing back-end. It implements pflag.Value.
type Backend string

// Built-in back-ends.
const (
	BackendPlanar  Backend = "planar"
	BackendSampled Backend = "sampled"
)

var backends = map[Backend]func(Options) Slicer{
	BackendPlanar:  func(o Options) Slicer { return &planar{logger: o.Logger} },
	BackendSampled: func(o Options) Slicer { return &sampled{logger: o.Logger, cells: o.Cells} },
}

// Backends returns the registered back-end names, sorted.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for b := range backends {
		names = append(names, string(b))
	}
	slices.Sort(names)
	return names
}

// New returns the back-end named b. The empty name selects planar.
func New(b Backend, opts Options) (Slicer, error) {
	if b == "" {
		b = BackendPlanar
	}
	newSlicer, ok := backends[b]
	if !ok {
		return nil, errors.New(errors.ErrCodeConfiguration, "unknown slicer %q (want one of %s)", string(b), strings.Join(Backends(), ", "))
	}
	if opts.Cells < 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "cells must not be negative, got %d", opts.Cells)
	}
	if opts.Cells == 0 {
		opts.Cells = DefaultCells
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return newSlicer(opts), nil
}

func (b *Backend) String() string { return string(*b) }

func (b *Backend) Set(s string) error {
	if _, ok := backends[Backend(s)]; !ok {
		return errors.New(errors.ErrCodeConfiguration, "unknown slicer %q (want one of %s)", s, strings.Join(Backends(), ", "))
	}
	*b = Backend(s)
	return nil
}

func (b *Backend) Type() string { return "slicer" }

// Levels returns the cutting heights for m: every layerHeight from the
// lowest vertex up, without the plane lying on the print platform.
func Levels(m *mesh.Mesh, layerHeight float64) ([]float64, error) {
	if err := errors.ValidatePositive("layer_height", layerHeight); err != nil {
		return nil, err
	}
	if m == nil || m.IsEmpty() {
		return nil, errors.New(errors.ErrCodeDataValidity, "mesh has no vertices")
	}
	lo, hi := m.ZRange()
	n := int((hi-lo)/layerHeight) + 1
	levels := make([]float64, 0, n)
	for i := 1; i < n; i++ {
		levels = append(levels, lo+float64(i)*layerHeight)
	}
	return levels, nil
}
