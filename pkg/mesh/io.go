package mesh

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
)

// fileMesh is the JSON form of a mesh.
type fileMesh struct {
	Vertices   [][3]float64         `json:"vertices"`
	Faces      [][3]int             `json:"faces"`
	Attributes map[string][]float64 `json:"attributes,omitempty"`
}

// Write encodes m as JSON to w.
func Write(m *Mesh, w io.Writer) error {
	out := fileMesh{
		Vertices:   make([][3]float64, len(m.Vertices)),
		Faces:      m.Faces,
		Attributes: m.attrs,
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = [3]float64(v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes a JSON mesh from r. Attribute arrays must have one value per vertex.
func Read(r io.Reader) (*Mesh, error) {
	var in fileMesh
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode mesh")
	}
	vertices := make([]geometry.Point, len(in.Vertices))
	for i, v := range in.Vertices {
		vertices[i] = geometry.Point(v)
	}
	m, err := New(vertices, in.Faces)
	if err != nil {
		return nil, err
	}
	for name, vals := range in.Attributes {
		if len(vals) != len(vertices) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "attribute %q has %d values for %d vertices", name, len(vals), len(vertices))
		}
		for i, v := range vals {
			if v != 0 {
				_ = m.SetVertexAttribute(name, i, v)
			}
		}
	}
	return m, nil
}

// WriteFile writes m to a JSON file.
func WriteFile(m *Mesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(m, f)
}

// ReadFile reads a JSON mesh file.
func ReadFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "mesh file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
