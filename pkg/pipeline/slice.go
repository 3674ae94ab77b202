package pipeline

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
	"github.com/matzehuels/towerpath/pkg/slicer"
)

// SliceOptions configures Slice.
type SliceOptions struct {
	Backend     slicer.Backend `json:"backend,omitempty" toml:"backend"`
	LayerHeight float64        `json:"layer_height" toml:"layer_height"`

	// MaxDistance groups paths of consecutive layers into one vertical
	// layer when their centroids are at most this far apart. Zero keeps
	// the horizontal layers.
	MaxDistance float64 `json:"max_distance,omitempty" toml:"max_distance"`

	// ZigZag reverses every other open path.
	ZigZag bool `json:"zigzag,omitempty" toml:"zigzag"`

	// Cells is the grid size of the sampled back-end.
	Cells int `json:"cells,omitempty" toml:"cells"`

	Logger *log.Logger `json:"-" toml:"-"`
}

// Slice cuts m into layers. With a MaxDistance the result holds vertical
// layers ready for Execute; otherwise horizontal layers.
func Slice(ctx context.Context, m *mesh.Mesh, opts SliceOptions) ([]geometry.PathGroup, error) {
	if opts.MaxDistance < 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "max_distance must not be negative, got %g", opts.MaxDistance)
	}
	s, err := slicer.New(opts.Backend, slicer.Options{Logger: opts.Logger, Cells: opts.Cells})
	if err != nil {
		return nil, err
	}
	levels, err := slicer.Levels(m, opts.LayerHeight)
	if err != nil {
		return nil, err
	}
	layers, err := s.Slice(ctx, m, levels)
	if err != nil {
		return nil, err
	}
	if opts.ZigZag {
		slicer.ZigZagOpenPaths(layers)
	}

	if opts.MaxDistance == 0 {
		out := make([]geometry.PathGroup, len(layers))
		for i, l := range layers {
			out[i] = l
		}
		return out, nil
	}
	vertical, err := slicer.SortIntoVerticalLayers(layers, opts.MaxDistance)
	if err != nil {
		return nil, err
	}
	out := make([]geometry.PathGroup, len(vertical))
	for i, l := range vertical {
		out[i] = l
	}
	return out, nil
}
