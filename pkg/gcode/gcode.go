// Package gcode writes organized print points as G-code for a single
// extruder machine.
//
// Each path starts with a travel move to its first point; every following
// point is an extrusion move at the point's velocity. The extruded length of
// a move is the cross-section (line width × layer height at the destination)
// spread over the filament's cross-section.
package gcode

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/towerpath/pkg/buildinfo"
	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/printorg"
)

// Config describes the machine and material. Speeds are mm/s, lengths mm,
// temperatures °C.
type Config struct {
	FilamentDiameter  float64  `json:"filament_diameter,omitempty" toml:"filament_diameter"`
	LineWidth         float64  `json:"line_width,omitempty" toml:"line_width"`
	TravelSpeed       float64  `json:"travel_speed,omitempty" toml:"travel_speed"`
	ZHop              float64  `json:"z_hop,omitempty" toml:"z_hop"`
	RelativeExtrusion bool     `json:"relative_extrusion,omitempty" toml:"relative_extrusion"`
	ExtruderTemp      float64  `json:"extruder_temp,omitempty" toml:"extruder_temp"`
	BedTemp           float64  `json:"bed_temp,omitempty" toml:"bed_temp"`
	Start             []string `json:"start,omitempty" toml:"start"`
	End               []string `json:"end,omitempty" toml:"end"`
}

// SetDefaults fills zero fields with values for 1.75 mm PLA.
func (c *Config) SetDefaults() {
	if c.FilamentDiameter == 0 {
		c.FilamentDiameter = 1.75
	}
	if c.LineWidth == 0 {
		c.LineWidth = 0.45
	}
	if c.TravelSpeed == 0 {
		c.TravelSpeed = 120
	}
	if c.ExtruderTemp == 0 {
		c.ExtruderTemp = 215
	}
	if c.BedTemp == 0 {
		c.BedTemp = 65
	}
	if c.Start == nil {
		c.Start = []string{
			"G28 ; home all axes",
			"G1 Z15 F6000 ; move extruder up",
			fmt.Sprintf("M104 S%.0f ; set extruder temp", c.ExtruderTemp),
			fmt.Sprintf("M140 S%.0f ; set bed temp", c.BedTemp),
			"M116 ; wait for all temperatures",
		}
	}
	if c.End == nil {
		c.End = []string{
			"G1 E-2 F2400 ; retract",
			"M104 S0 ; turn off extruder",
			"M140 S0 ; turn off bed",
			"G28 X0 Y0 ; home axes",
			"M84 ; disable motors",
		}
	}
}

// Validate checks the fields that scale extrusion and feed.
func (c Config) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"filament_diameter", c.FilamentDiameter},
		{"line_width", c.LineWidth},
		{"travel_speed", c.TravelSpeed},
	} {
		if err := errors.ValidatePositive(f.name, f.v); err != nil {
			return err
		}
	}
	if c.ZHop < 0 {
		return errors.New(errors.ErrCodeConfiguration, "z_hop must not be negative, got %g", c.ZHop)
	}
	return nil
}

// Stats summarizes a written program.
type Stats struct {
	Moves        int
	Extruded     float64 // filament length, mm
	PrintLength  float64 // extrusion path length, mm
	TravelLength float64
}

type writer struct {
	w    *bufio.Writer
	cfg  Config
	area float64 // filament cross-section

	e     float64
	pos   geometry.Point
	moved bool
	stats Stats
}

// Write writes pp as G-code. Every print point must have a velocity; run
// printorg.AssignVelocity first.
func Write(out io.Writer, pp *printorg.PrintPoints, cfg Config) (Stats, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}
	if pp == nil {
		return Stats{}, errors.New(errors.ErrCodeInvalidInput, "no print points")
	}
	r := cfg.FilamentDiameter / 2
	gw := &writer{w: bufio.NewWriter(out), cfg: cfg, area: math.Pi * r * r}

	gw.printf("; generated by %s\n", buildinfo.UserAgent())
	gw.printf("; segments: %d, points: %d\n", pp.Len(), pp.TotalPoints())
	for _, line := range cfg.Start {
		gw.printf("%s\n", line)
	}
	gw.printf("G21 ; millimetres\nG90 ; absolute positioning\n")
	if cfg.RelativeExtrusion {
		gw.printf("M83 ; relative extrusion\n")
	} else {
		gw.printf("M82 ; absolute extrusion\nG92 E0\n")
	}

	for _, seg := range pp.Segments {
		for _, path := range seg.Paths {
			if err := gw.path(seg.Label, path); err != nil {
				return Stats{}, err
			}
		}
	}

	for _, line := range cfg.End {
		gw.printf("%s\n", line)
	}
	if err := gw.w.Flush(); err != nil {
		return Stats{}, err
	}
	return gw.stats, nil
}

// WriteFile writes pp as G-code to path.
func WriteFile(path string, pp *printorg.PrintPoints, cfg Config) (Stats, error) {
	if err := errors.ValidatePath(path); err != nil {
		return Stats{}, err
	}
	f, err := os.Create(path)
	if err != nil {
		return Stats{}, err
	}
	stats, err := Write(f, pp, cfg)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return stats, err
}

func (gw *writer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(gw.w, format, args...)
}

func (gw *writer) path(segment string, path printorg.PathPrintPoints) error {
	if len(path.Points) == 0 {
		return nil
	}
	for i, p := range path.Points {
		if !(p.Velocity > 0) {
			return errors.New(errors.ErrCodeDataValidity, "%s/%s point %d has no velocity", segment, path.Label, i)
		}
	}
	gw.printf("; %s %s\n", segment, path.Label)

	first := path.Points[0]
	gw.travel(first.Pt)

	for _, p := range path.Points[1:] {
		gw.extrude(p.Pt, p.LayerHeight, p.Velocity)
	}
	if path.Closed && len(path.Points) > 2 {
		gw.extrude(first.Pt, first.LayerHeight, path.Points[len(path.Points)-1].Velocity)
	}
	return nil
}

func (gw *writer) travel(to geometry.Point) {
	feed := gw.cfg.TravelSpeed * 60
	if gw.moved {
		gw.stats.TravelLength += to.Sub(gw.pos).Len()
		if gw.cfg.ZHop > 0 {
			gw.printf("G0 Z%.4f F%.0f\n", math.Max(gw.pos.Z(), to.Z())+gw.cfg.ZHop, feed)
		}
	}
	gw.printf("G0 X%.4f Y%.4f Z%.4f F%.0f\n", to.X(), to.Y(), to.Z(), feed)
	gw.pos = to
	gw.moved = true
	gw.stats.Moves++
}

func (gw *writer) extrude(to geometry.Point, layerHeight, velocity float64) {
	if approxEqual(gw.pos, to) {
		return
	}
	dist := to.Sub(gw.pos).Len()
	de := dist * gw.cfg.LineWidth * math.Max(layerHeight, 0) / gw.area
	if gw.cfg.RelativeExtrusion {
		gw.e = de
	} else {
		gw.e += de
	}
	gw.printf("G1 X%.4f Y%.4f Z%.4f E%.5f F%.0f\n", to.X(), to.Y(), to.Z(), gw.e, velocity*60)
	gw.pos = to
	gw.stats.Moves++
	gw.stats.Extruded += de
	gw.stats.PrintLength += dist
}

func approxEqual(a, b mgl64.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-9)
}
