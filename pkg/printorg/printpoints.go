package printorg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
)

// PathPrintPoints is one exported path. Closed is carried for in-process
// consumers such as G-code export and is not part of the JSON form.
type PathPrintPoints struct {
	Label  string
	Points []*geometry.PrintPoint
	Closed bool
}

// SegmentPrintPoints is one exported segment with its paths in print order.
type SegmentPrintPoints struct {
	Label string
	ID    int
	Paths []PathPrintPoints
}

// PrintPoints is the result of an organization run: segments in the
// selected print order, each mapping path labels to print points.
//
// It encodes to JSON as nested objects whose keys keep print order:
//
//	{"layer_1": {"path_0": [...], "path_1": [...]}, "layer_0": {...}}
type PrintPoints struct {
	Segments []SegmentPrintPoints
}

// Len returns the number of segments.
func (pp *PrintPoints) Len() int { return len(pp.Segments) }

// TotalPoints returns the number of print points across all segments.
func (pp *PrintPoints) TotalPoints() int {
	n := 0
	pp.Each(func(int, int, *geometry.PrintPoint) { n++ })
	return n
}

// Order returns the segment ids in print order.
func (pp *PrintPoints) Order() []int {
	out := make([]int, len(pp.Segments))
	for i, s := range pp.Segments {
		out[i] = s.ID
	}
	return out
}

// Get returns the print points stored under a segment and path label.
func (pp *PrintPoints) Get(segment, path string) ([]*geometry.PrintPoint, bool) {
	for _, s := range pp.Segments {
		if s.Label != segment {
			continue
		}
		for _, p := range s.Paths {
			if p.Label == path {
				return p.Points, true
			}
		}
	}
	return nil, false
}

// Each calls fn for every print point in print order. seg is the position
// of the segment in the export, path the position of the path within it.
func (pp *PrintPoints) Each(fn func(seg, path int, p *geometry.PrintPoint)) {
	for i, s := range pp.Segments {
		for j, p := range s.Paths {
			for _, pt := range p.Points {
				fn(i, j, pt)
			}
		}
	}
}

// MarshalJSON writes segments and paths as objects in print order.
func (pp *PrintPoints) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range pp.Segments {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeKey(&buf, s.Label)
		buf.WriteByte('{')
		for j, p := range s.Paths {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeKey(&buf, p.Label)
			pts := p.Points
			if pts == nil {
				pts = []*geometry.PrintPoint{}
			}
			data, err := json.Marshal(pts)
			if err != nil {
				return nil, fmt.Errorf("encode %s/%s: %w", s.Label, p.Label, err)
			}
			buf.Write(data)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) {
	k, _ := json.Marshal(key)
	buf.Write(k)
	buf.WriteByte(':')
}

// UnmarshalJSON reads the format written by MarshalJSON, keeping key order.
func (pp *PrintPoints) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	var segments []SegmentPrintPoints
	for dec.More() {
		label, err := readKey(dec)
		if err != nil {
			return err
		}
		seg := SegmentPrintPoints{Label: label, ID: labelIndex(label, "layer_", len(segments))}
		if err := expectDelim(dec, '{'); err != nil {
			return err
		}
		for dec.More() {
			pathLabel, err := readKey(dec)
			if err != nil {
				return err
			}
			var pts []*geometry.PrintPoint
			if err := dec.Decode(&pts); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s/%s", label, pathLabel)
			}
			seg.Paths = append(seg.Paths, PathPrintPoints{Label: pathLabel, Points: pts})
		}
		if err := expectDelim(dec, '}'); err != nil {
			return err
		}
		segments = append(segments, seg)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	pp.Segments = segments
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "read print points")
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return errors.New(errors.ErrCodeInvalidFormat, "print points: expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "read print points")
	}
	key, ok := tok.(string)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidFormat, "print points: expected key, got %v", tok)
	}
	return key, nil
}

// labelIndex parses "layer_3" style labels, falling back to def.
func labelIndex(label, prefix string, def int) int {
	rest, ok := strings.CutPrefix(label, prefix)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return def
	}
	return n
}

// Write encodes pp as indented JSON.
func (pp *PrintPoints) Write(w io.Writer) error {
	data, err := pp.MarshalJSON()
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("indent print points: %w", err)
	}
	out.WriteByte('\n')
	_, err = w.Write(out.Bytes())
	return err
}

// ReadPrintPoints decodes print points written by [PrintPoints.Write].
func ReadPrintPoints(r io.Reader) (*PrintPoints, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var pp PrintPoints
	if err := pp.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &pp, nil
}

// WriteFile writes pp to path.
func (pp *PrintPoints) WriteFile(path string) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pp.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadPrintPointsFile reads print points from path.
func ReadPrintPointsFile(path string) (*PrintPoints, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "print points file %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return ReadPrintPoints(f)
}
