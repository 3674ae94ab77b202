package cli

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/matzehuels/towerpath/pkg/pipeline"
	"github.com/matzehuels/towerpath/pkg/printorg"
)

// formatsValue is a comma-separated list of artifact formats.
type formatsValue struct{ formats *[]string }

func (f *formatsValue) String() string {
	if f == nil || f.formats == nil {
		return ""
	}
	return strings.Join(*f.formats, ",")
}

func (f *formatsValue) Set(s string) error {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if err := pipeline.ValidateFormats(out); err != nil {
		return err
	}
	*f.formats = out
	return nil
}

func (f *formatsValue) Type() string { return "formats" }

// organizeFlags registers a flag for every organize option and returns a
// function that copies the flags the user set onto an Options value. Flags
// left alone keep whatever the config file provided.
func organizeFlags(fs *pflag.FlagSet) func(dst *pipeline.Options) {
	var src pipeline.Options
	copies := make(map[string]func(dst *pipeline.Options))

	fs.Float64Var(&src.MaxDThreshold, "max-layer-height", 0, "largest gap at which a segment rests on the one below")
	copies["max-layer-height"] = func(d *pipeline.Options) { d.MaxDThreshold = src.MaxDThreshold }
	fs.Float64Var(&src.BoundaryBelow, "boundary-below", 0, "tag mesh vertices this close to the bottom as print bed contact")
	copies["boundary-below"] = func(d *pipeline.Options) { d.BoundaryBelow = src.BoundaryBelow }
	fs.Var(&src.Ordering, "ordering", "order policy: "+strings.Join(printorg.Orderings(), ", "))
	copies["ordering"] = func(d *pipeline.Options) { d.Ordering = src.Ordering }
	fs.IntVar(&src.MaxOrders, "max-orders", 0, "cap on enumerated print orders")
	copies["max-orders"] = func(d *pipeline.Options) { d.MaxOrders = src.MaxOrders }
	fs.IntVar(&src.Workers, "workers", 0, "segments computed concurrently per graph depth")
	copies["workers"] = func(d *pipeline.Options) { d.Workers = src.Workers }
	fs.BoolVar(&src.Frames, "frames", false, "attach a tool frame to every print point")
	copies["frames"] = func(d *pipeline.Options) { d.Frames = src.Frames }
	fs.BoolVar(&src.CreateIntermediaryOutputs, "intermediary", false, "write boundaries.json and segments.dot to --output-dir")
	copies["intermediary"] = func(d *pipeline.Options) { d.CreateIntermediaryOutputs = src.CreateIntermediaryOutputs }
	fs.StringVar(&src.OutputDir, "output-dir", "", "directory for intermediary outputs")
	copies["output-dir"] = func(d *pipeline.Options) { d.OutputDir = src.OutputDir }
	fs.Var(&formatsValue{&src.Formats}, "format", "artifact formats: json, gcode, dot, svg")
	copies["format"] = func(d *pipeline.Options) { d.Formats = src.Formats }

	fs.Var(&src.Velocity.Mode, "velocity-mode", "velocity mode: "+strings.Join(printorg.VelocityModes(), ", "))
	copies["velocity-mode"] = func(d *pipeline.Options) { d.Velocity.Mode = src.Velocity.Mode }
	fs.Float64Var(&src.Velocity.V, "velocity", 0, "constant velocity, mm/s")
	copies["velocity"] = func(d *pipeline.Options) { d.Velocity.V = src.Velocity.V }
	fs.Float64SliceVar(&src.Velocity.PerLayer, "per-layer", nil, "per segment velocities in print order, mm/s")
	copies["per-layer"] = func(d *pipeline.Options) { d.Velocity.PerLayer = src.Velocity.PerLayer }

	fs.Float64Var(&src.Gcode.LineWidth, "line-width", 0, "extrusion line width, mm")
	copies["line-width"] = func(d *pipeline.Options) { d.Gcode.LineWidth = src.Gcode.LineWidth }
	fs.Float64Var(&src.Gcode.FilamentDiameter, "filament", 0, "filament diameter, mm")
	copies["filament"] = func(d *pipeline.Options) { d.Gcode.FilamentDiameter = src.Gcode.FilamentDiameter }
	fs.Float64Var(&src.Gcode.ZHop, "z-hop", 0, "lift between paths, mm")
	copies["z-hop"] = func(d *pipeline.Options) { d.Gcode.ZHop = src.Gcode.ZHop }

	return func(dst *pipeline.Options) {
		fs.Visit(func(f *pflag.Flag) {
			if copyFlag, ok := copies[f.Name]; ok {
				copyFlag(dst)
			}
		})
	}
}
