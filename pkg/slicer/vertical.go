package slicer

import (
	"math"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
)

// SortIntoVerticalLayers stacks the paths of consecutive horizontal layers
// into vertical layers.
//
// Layers are visited bottom to top. Each path joins the vertical layer
// whose head centroid is nearest to the path's centroid, provided it is
// within maxDist and has not already taken a path from the same horizontal
// layer. Otherwise the path starts a new vertical layer. Ties go to the
// lower vertical layer id.
func SortIntoVerticalLayers(layers []*geometry.Layer, maxDist float64) ([]*geometry.VerticalLayer, error) {
	if err := errors.ValidatePositive("max_dist", maxDist); err != nil {
		return nil, err
	}
	var vls []*geometry.VerticalLayer
	for li, layer := range layers {
		taken := make(map[int]bool)
		for pi, path := range layer.Paths {
			c, ok := path.Centroid()
			if !ok {
				return nil, errors.New(errors.ErrCodeDataValidity, "layer %d path %d has no points", li, pi)
			}
			best, bestD := -1, math.Inf(1)
			for i, vl := range vls {
				if taken[i] {
					continue
				}
				head, ok := vl.HeadCentroid()
				if !ok {
					continue
				}
				if d := geometry.Distance(head, c); d <= maxDist && d < bestD {
					best, bestD = i, d
				}
			}
			if best < 0 {
				vls = append(vls, geometry.NewVerticalLayer(len(vls)))
				best = len(vls) - 1
			}
			vls[best].Append(path)
			taken[best] = true
		}
	}
	return vls, nil
}

// ZigZagOpenPaths reverses every second open path, counting across all
// layers, and marks open paths closed so they print without interruption.
// Paths with fewer than three points are reversed but stay open, since a
// closed path needs at least three.
func ZigZagOpenPaths(layers []*geometry.Layer) {
	reverse := false
	for _, layer := range layers {
		for i, path := range layer.Paths {
			if path.Closed {
				continue
			}
			if reverse {
				path = path.Reversed()
			}
			reverse = !reverse
			path.Closed = path.Len() >= 3
			layer.Paths[i] = path
		}
	}
}
