package mesh

import (
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
)

// DefaultCells controls marching cubes tessellation resolution for FromSDF.
const DefaultCells = 64

// weldDigits is the rounding applied before merging coincident vertices.
const weldDigits = 1e6

// FromSDF tessellates an sdfx solid with uniform marching cubes and welds
// coincident vertices so that faces share indices.
func FromSDF(s sdf.SDF3, cells int) (*Mesh, error) {
	if cells <= 0 {
		cells = DefaultCells
	}
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))
	if len(triangles) == 0 {
		return nil, errors.New(errors.ErrCodeDataValidity, "solid produced no triangles")
	}

	type key [3]int64
	index := make(map[key]int)
	var vertices []geometry.Point
	faces := make([][3]int, 0, len(triangles))

	for _, tri := range triangles {
		var face [3]int
		for j := 0; j < 3; j++ {
			v := tri[j]
			k := key{
				int64(math.Round(v.X * weldDigits)),
				int64(math.Round(v.Y * weldDigits)),
				int64(math.Round(v.Z * weldDigits)),
			}
			idx, ok := index[k]
			if !ok {
				idx = len(vertices)
				index[k] = idx
				vertices = append(vertices, geometry.FromVec(v))
			}
			face[j] = idx
		}
		if face[0] == face[1] || face[1] == face[2] || face[0] == face[2] {
			continue // degenerate after welding
		}
		faces = append(faces, face)
	}
	return New(vertices, faces)
}
