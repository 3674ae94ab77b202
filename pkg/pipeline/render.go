package pipeline

import (
	"bytes"
	"context"

	"github.com/matzehuels/towerpath/pkg/dag"
	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/gcode"
	"github.com/matzehuels/towerpath/pkg/printorg"
)

// Render produces one artifact. dot is the segment graph in DOT form; it
// is needed by the dot and svg formats only.
func Render(ctx context.Context, format string, pp *printorg.PrintPoints, dot string, gcfg gcode.Config) ([]byte, error) {
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		if err := pp.Write(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatGcode:
		var buf bytes.Buffer
		if _, err := gcode.Write(&buf, pp, gcfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatDOT:
		if dot == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "no segment graph to render")
		}
		return []byte(dot), nil
	case FormatSVG:
		if dot == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "no segment graph to render")
		}
		return dag.RenderSVG(ctx, dot)
	default:
		return nil, ValidateFormat(format)
	}
}
