package cli

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/towerpath/pkg/dag"
	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
	"github.com/matzehuels/towerpath/pkg/printorg"
)

func (c *CLI) graphCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "graph MESH LAYERS",
		Short: "Show which segments rest on which",
		Long: `Graph builds the segment support graph without organizing print points.
It prints one row per segment and, with --output, writes the graph as
Graphviz DOT (.dot) or SVG (.svg).`,
		Example: `  towerpath graph part.json layers.json --max-layer-height 2 -o graph.svg`,
		Args:    cobra.ExactArgs(2),
	}
	applyFlags := organizeFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := loggerFromContext(ctx)

		opts, err := c.loadOptions()
		if err != nil {
			return err
		}
		applyFlags(&opts)
		if err := opts.ValidateAndSetDefaults(); err != nil {
			return err
		}

		m, err := mesh.ReadFile(args[0])
		if err != nil {
			return err
		}
		if opts.BoundaryBelow > 0 {
			lo, _ := m.ZRange()
			m.MarkBoundaryBelow(lo + opts.BoundaryBelow)
		}
		layers, err := geometry.ReadLayersFile(args[1])
		if err != nil {
			return err
		}

		org, err := printorg.New(m, layers, opts.Params, printorg.WithLogger(logger))
		if err != nil {
			return err
		}
		if err := org.BuildGraph(ctx); err != nil {
			return err
		}
		sg := org.Graph()

		vls := make([]*geometry.VerticalLayer, 0, len(org.Segments()))
		for _, s := range org.Segments() {
			vls = append(vls, s.Layer)
		}
		printGraphTable(sg, vls)
		printKeyValue("roots", fmtIDs(sg.Roots()))
		printKeyValue("edges", strconv.Itoa(sg.EdgeCount()))

		if output == "" {
			return nil
		}
		if err := errors.ValidatePath(output); err != nil {
			return err
		}
		data := []byte(sg.DOT())
		switch strings.ToLower(filepath.Ext(output)) {
		case ".dot", ".gv":
		case ".svg":
			if data, err = dag.RenderSVG(ctx, sg.DOT()); err != nil {
				return err
			}
		default:
			return errors.New(errors.ErrCodeInvalidFormat, "unsupported graph file %q (want .dot or .svg)", output)
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return err
		}
		printFile(output)
		return nil
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the graph to a .dot or .svg file")
	return cmd
}
