package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
	"github.com/matzehuels/towerpath/pkg/pipeline"
	"github.com/matzehuels/towerpath/pkg/slicer"
)

func (c *CLI) sliceCommand() *cobra.Command {
	var (
		output        string
		meshOut       string
		boundaryBelow float64
		opts          = pipeline.SliceOptions{LayerHeight: 0.5}
	)

	cmd := &cobra.Command{
		Use:   "slice MESH",
		Short: "Cut a mesh into layers",
		Long: `Slice cuts a mesh into horizontal layers. With --max-distance the paths of
consecutive layers are grouped into vertical layers, ready for organize.`,
		Example: `  towerpath slice part.json -o layers.json --layer-height 0.3 --max-distance 2
  towerpath slice part.json -o layers.json --boundary-below 0.05 --mesh-out part.tagged.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			if output == "" {
				return errors.New(errors.ErrCodeConfiguration, "--output is required")
			}

			m, err := mesh.ReadFile(args[0])
			if err != nil {
				return err
			}
			prog := newProgress(logger)
			opts.Logger = logger
			groups, err := pipeline.Slice(ctx, m, opts)
			if err != nil {
				return err
			}
			prog.done("sliced mesh", "layers", len(groups))

			if err := errors.ValidatePath(output); err != nil {
				return err
			}
			if err := geometry.WriteLayersFile(groups, output); err != nil {
				return err
			}
			printSuccess("Wrote %d layers", len(groups))
			printFile(output)

			if boundaryBelow > 0 {
				lo, _ := m.ZRange()
				n := m.MarkBoundaryBelow(lo + boundaryBelow)
				printDetail("Tagged %d boundary vertices", n)
			}
			if meshOut != "" {
				if err := errors.ValidatePath(meshOut); err != nil {
					return err
				}
				if err := mesh.WriteFile(m, meshOut); err != nil {
					return err
				}
				printFile(meshOut)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "layers file to write")
	f.Float64Var(&opts.LayerHeight, "layer-height", opts.LayerHeight, "distance between cutting planes")
	f.Var(&opts.Backend, "slicer", "slicing back-end: "+strings.Join(slicer.Backends(), ", "))
	f.IntVar(&opts.Cells, "cells", 0, "grid size of the sampled back-end (0 for the default)")
	f.Float64Var(&opts.MaxDistance, "max-distance", 0, "group paths into vertical layers within this centroid distance")
	f.BoolVar(&opts.ZigZag, "zigzag", false, "reverse every other open path")
	f.Float64Var(&boundaryBelow, "boundary-below", 0, "tag vertices this close to the bottom as bed contact")
	f.StringVar(&meshOut, "mesh-out", "", "write the (tagged) mesh here")
	return cmd
}
