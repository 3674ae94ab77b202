package geometry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/matzehuels/towerpath/pkg/errors"
)

// =============================================================================
// Structured Records
// =============================================================================

// PathData is the structured form of a Path.
type PathData struct {
	Points   [][3]float64 `json:"points"`
	IsClosed bool         `json:"is_closed"`
}

// LayerData is the structured form of a Layer or VerticalLayer.
// Paths are keyed by their index so the record mirrors the label scheme
// used by the exported print points.
type LayerData struct {
	Paths     map[string]PathData `json:"paths"`
	LayerType LayerKind           `json:"layer_type"`
	ID        *int                `json:"id,omitempty"`
}

// Document is the on-disk layers file.
type Document struct {
	Layers map[string]LayerData `json:"layers"`
}

// PathToData converts a path to its structured form.
func PathToData(p Path) PathData {
	pts := make([][3]float64, len(p.Points))
	for i, pt := range p.Points {
		pts[i] = [3]float64(pt)
	}
	return PathData{Points: pts, IsClosed: p.Closed}
}

// PathFromData rebuilds and validates a path.
func PathFromData(d PathData) (Path, error) {
	pts := make([]Point, len(d.Points))
	for i, c := range d.Points {
		pts[i] = Point(c)
	}
	return NewPath(pts, d.IsClosed)
}

// ToData converts a path group to its structured form.
func ToData(g PathGroup) LayerData {
	paths := g.PathList()
	data := LayerData{
		Paths:     make(map[string]PathData, len(paths)),
		LayerType: g.Kind(),
	}
	for i, p := range paths {
		data.Paths[strconv.Itoa(i)] = PathToData(p)
	}
	if v, ok := g.(*VerticalLayer); ok {
		id := v.ID
		data.ID = &id
	}
	return data
}

// FromData rebuilds a path group, restoring path order from the numeric keys.
// Vertical layers are rebuilt through Append so the head centroid is current.
func FromData(d LayerData) (PathGroup, error) {
	keys, err := sortedIndexKeys(d.Paths)
	if err != nil {
		return nil, err
	}
	paths := make([]Path, 0, len(keys))
	for _, k := range keys {
		p, err := PathFromData(d.Paths[k])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataValidity, err, "path %s", k)
		}
		paths = append(paths, p)
	}

	switch d.LayerType {
	case KindHorizontal:
		return NewLayer(paths), nil
	case KindVertical:
		v := NewVerticalLayer(0)
		if d.ID != nil {
			v.ID = *d.ID
		}
		for _, p := range paths {
			v.Append(p)
		}
		return v, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown layer_type %q", d.LayerType)
	}
}

// sortedIndexKeys returns the keys of m ordered by their integer value.
func sortedIndexKeys[V any](m map[string]V) ([]string, error) {
	type entry struct {
		key string
		idx int
	}
	entries := make([]entry, 0, len(m))
	for k := range m {
		i, err := strconv.Atoi(k)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "non-numeric key %q", k)
		}
		entries = append(entries, entry{k, i})
	}
	slices.SortFunc(entries, func(a, b entry) int { return a.idx - b.idx })
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys, nil
}

// =============================================================================
// Layers Serialization API
// =============================================================================

// MarshalLayers converts path groups to indented JSON bytes.
func MarshalLayers(groups []PathGroup) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteLayers(groups, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalLayers decodes path groups from JSON bytes.
func UnmarshalLayers(data []byte) ([]PathGroup, error) {
	return ReadLayers(bytes.NewReader(data))
}

// WriteLayers writes path groups as JSON to w.
func WriteLayers(groups []PathGroup, w io.Writer) error {
	doc := Document{Layers: make(map[string]LayerData, len(groups))}
	for i, g := range groups {
		doc.Layers[strconv.Itoa(i)] = ToData(g)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadLayers decodes path groups from a JSON stream.
func ReadLayers(r io.Reader) ([]PathGroup, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode layers")
	}
	keys, err := sortedIndexKeys(doc.Layers)
	if err != nil {
		return nil, err
	}
	groups := make([]PathGroup, 0, len(keys))
	for _, k := range keys {
		g, err := FromData(doc.Layers[k])
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", k, err)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// WriteLayersFile writes path groups to a JSON file.
func WriteLayersFile(groups []PathGroup, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteLayers(groups, f)
}

// ReadLayersFile reads path groups from a JSON file.
func ReadLayersFile(path string) ([]PathGroup, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "layers file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLayers(f)
}

// VerticalLayers returns the groups as vertical layers. It reports false if
// any group is horizontal.
func VerticalLayers(groups []PathGroup) ([]*VerticalLayer, bool) {
	out := make([]*VerticalLayer, 0, len(groups))
	for _, g := range groups {
		v, ok := g.(*VerticalLayer)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}
