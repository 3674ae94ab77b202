package geometry

import "github.com/go-gl/mathgl/mgl64"

// PrintPoint is a point enriched with the attributes downstream motion export needs.
//
// Pt is fixed at creation. LayerHeight, SupportIndex and MeshNormal are
// written by segment connectivity; Velocity is written only by the velocity
// pass.
type PrintPoint struct {
	Pt Point `json:"point"`

	// LayerHeight is the distance to the matched point of the path (or
	// boundary) below.
	LayerHeight float64 `json:"layer_height"`

	// SupportIndex is the index of the matched point in the path below, or in
	// the base boundary for a segment's first path.
	SupportIndex int `json:"support_index"`

	// MeshNormal is the normal of the closest mesh vertex, zero if unknown.
	MeshNormal mgl64.Vec3 `json:"mesh_normal"`

	Velocity float64 `json:"velocity"`

	Frame *Frame `json:"frame,omitempty"`
}

// Frame is the optional tool orientation at a print point.
type Frame struct {
	Normal mgl64.Vec3 `json:"normal"`
	// Orientation rotates +Z onto Normal.
	Orientation mgl64.Quat `json:"orientation"`
}

// NewFrame returns the frame whose z axis follows normal.
// A zero normal yields the identity orientation around +Z.
func NewFrame(normal mgl64.Vec3) *Frame {
	up := mgl64.Vec3{0, 0, 1}
	if normal.Len() == 0 {
		return &Frame{Normal: up, Orientation: mgl64.QuatIdent()}
	}
	n := normal.Normalize()
	return &Frame{Normal: n, Orientation: mgl64.QuatBetweenVectors(up, n)}
}
