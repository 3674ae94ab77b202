package cli

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
	"github.com/matzehuels/towerpath/pkg/pipeline"
)

// artifactExt maps formats to file extensions.
var artifactExt = map[string]string{
	pipeline.FormatJSON:  ".json",
	pipeline.FormatGcode: ".gcode",
	pipeline.FormatDOT:   ".dot",
	pipeline.FormatSVG:   ".svg",
}

func (c *CLI) organizeCommand() *cobra.Command {
	var (
		output    string
		noCache   bool
		refresh   bool
		showTable bool
	)

	cmd := &cobra.Command{
		Use:   "organize MESH LAYERS",
		Short: "Order vertical layers into print points",
		Long: `Organize builds the support graph of the vertical layers, picks a print
order in which every segment follows what it rests on, and writes the
ordered print points in the requested formats.

Settings come from --config and are overridden by flags.`,
		Example: `  towerpath organize part.json layers.json --max-layer-height 2 --format json,gcode
  towerpath organize part.json layers.json -c towerpath.toml -o out/part`,
		Args: cobra.ExactArgs(2),
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
		opts.Refresh = refresh
		opts.Logger = logger
		if err := opts.ValidateAndSetDefaults(); err != nil {
			return err
		}

		m, err := mesh.ReadFile(args[0])
		if err != nil {
			return err
		}
		layers, err := geometry.ReadLayersFile(args[1])
		if err != nil {
			return err
		}

		runner, err := c.newRunner(ctx, opts, noCache)
		if err != nil {
			return err
		}
		defer runner.Close()

		spin := newSpinner(ctx, os.Stderr, "Organizing "+filepath.Base(args[1]))
		if !c.verbose {
			spin.start()
		}
		res, err := runner.Execute(ctx, pipeline.Input{Mesh: m, Layers: layers}, opts)
		spin.stop()
		if err != nil {
			return err
		}

		printSuccess("Organized %d segments", res.Stats.Segments)
		printStats(res.Stats.Segments, res.Stats.Edges, res.Stats.Points, res.CacheInfo.OrganizeHit)
		if res.Stats.Truncated {
			printWarning("Order enumeration stopped at %d orders", opts.MaxOrders)
		}
		printKeyValue("order", fmtIDs(res.Order))
		if showTable {
			printSegmentTable(res.PrintPoints)
		}

		if output == "" {
			output = strings.TrimSuffix(args[1], filepath.Ext(args[1])) + ".organized"
		}
		return writeArtifacts(output, res.Artifacts)
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "output base path; each format adds its extension")
	f.BoolVar(&noCache, "no-cache", false, "disable the result cache")
	f.BoolVar(&refresh, "refresh", false, "ignore cached results")
	f.BoolVar(&showTable, "table", false, "print a per-segment summary")
	return cmd
}

// writeArtifacts writes each artifact to base plus its format's extension.
func writeArtifacts(base string, artifacts map[string][]byte) error {
	if err := errors.ValidatePath(base); err != nil {
		return err
	}
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	slices.Sort(formats)
	for _, f := range formats {
		path := base + artifactExt[f]
		if err := os.WriteFile(path, artifacts[f], 0o644); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}
