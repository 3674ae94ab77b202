package gcode

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/printorg"
)

func squarePoints(z, h, v float64) []*geometry.PrintPoint {
	corners := []geometry.Point{
		geometry.Pt(0, 0, z), geometry.Pt(10, 0, z), geometry.Pt(10, 10, z), geometry.Pt(0, 10, z),
	}
	out := make([]*geometry.PrintPoint, len(corners))
	for i, c := range corners {
		out[i] = &geometry.PrintPoint{Pt: c, LayerHeight: h, Velocity: v}
	}
	return out
}

func sample(closed bool) *printorg.PrintPoints {
	return &printorg.PrintPoints{Segments: []printorg.SegmentPrintPoints{{
		Label: "layer_0",
		Paths: []printorg.PathPrintPoints{
			{Label: "path_0", Points: squarePoints(0.2, 0.2, 20), Closed: closed},
			{Label: "path_1", Points: squarePoints(0.4, 0.2, 20), Closed: closed},
		},
	}}}
}

func TestWriteExtrusion(t *testing.T) {
	var buf bytes.Buffer
	stats, err := Write(&buf, sample(true), Config{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// two closed 10 mm squares
	if math.Abs(stats.PrintLength-80) > 1e-9 {
		t.Errorf("PrintLength = %v, want 80", stats.PrintLength)
	}
	r := 1.75 / 2
	want := 80 * 0.45 * 0.2 / (math.Pi * r * r)
	if math.Abs(stats.Extruded-want) > 1e-9 {
		t.Errorf("Extruded = %v, want %v", stats.Extruded, want)
	}
	if math.Abs(stats.TravelLength-0.2) > 1e-9 {
		t.Errorf("TravelLength = %v, want 0.2", stats.TravelLength)
	}

	out := buf.String()
	for _, want := range []string{"; layer_0 path_1", "M82 ; absolute extrusion", "G0 X0.0000 Y0.0000 Z0.2000 F7200", "F1200"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if n := strings.Count(out, "\nG1 X"); n != 8 {
		t.Errorf("got %d extrusion moves, want 8", n)
	}
}

func TestWriteOpenPaths(t *testing.T) {
	var buf bytes.Buffer
	stats, err := Write(&buf, sample(false), Config{RelativeExtrusion: true, ZHop: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(stats.PrintLength-60) > 1e-9 {
		t.Errorf("PrintLength = %v, want 60", stats.PrintLength)
	}
	out := buf.String()
	if !strings.Contains(out, "M83") || !strings.Contains(out, "G0 Z0.9000") {
		t.Errorf("relative extrusion or z hop missing:\n%s", out)
	}
}

func TestWriteRequiresVelocity(t *testing.T) {
	pp := sample(true)
	pp.Segments[0].Paths[1].Points[2].Velocity = 0
	_, err := Write(&bytes.Buffer{}, pp, Config{})
	if !errors.Is(err, errors.ErrCodeDataValidity) {
		t.Errorf("Write() error = %v, want data-validity error", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative width", Config{LineWidth: -1}},
		{"negative hop", Config{ZHop: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Write(&bytes.Buffer{}, sample(true), tt.cfg)
			if !errors.Is(err, errors.ErrCodeConfiguration) {
				t.Errorf("Write() error = %v, want configuration error", err)
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gcode")
	if _, err := WriteFile(path, sample(true), Config{}); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := WriteFile("../escape.gcode", sample(true), Config{}); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("WriteFile(..) error = %v, want invalid path", err)
	}
}
