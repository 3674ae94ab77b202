package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/printorg"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success
	colorYellow = lipgloss.Color("220") // warnings
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // secondary text
	colorDim    = lipgloss.Color("240") // muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	styleCell     = lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)
	styleRoot     = lipgloss.NewStyle().Foreground(colorCyan).Padding(0, 1)
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written file.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints run statistics on one line.
func printStats(segments, edges, points int, cached bool) {
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}
	line := "  " + StyleDim.Render(fmt.Sprintf("%d segments", segments))
	line += StyleDim.Render(" · ") + StyleDim.Render(fmt.Sprintf("%d edges", edges))
	line += StyleDim.Render(" · ") + StyleDim.Render(fmt.Sprintf("%d points", points))
	line += StyleDim.Render(" · ") + statusStyle.Render(status)
	fmt.Println(line)
}

// =============================================================================
// Tables
// =============================================================================

// segmentRows summarizes each exported segment in print order: label,
// path and point counts, layer height range and velocity range.
func segmentRows(pp *printorg.PrintPoints) [][]string {
	rows := make([][]string, 0, pp.Len())
	for i, seg := range pp.Segments {
		var (
			points     int
			hMin, hMax = math.Inf(1), math.Inf(-1)
			vMin, vMax = math.Inf(1), math.Inf(-1)
		)
		for _, path := range seg.Paths {
			points += len(path.Points)
			for _, p := range path.Points {
				hMin, hMax = math.Min(hMin, p.LayerHeight), math.Max(hMax, p.LayerHeight)
				vMin, vMax = math.Min(vMin, p.Velocity), math.Max(vMax, p.Velocity)
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			seg.Label,
			strconv.Itoa(len(seg.Paths)),
			strconv.Itoa(points),
			fmtRange(hMin, hMax),
			fmtRange(vMin, vMax),
		})
	}
	return rows
}

func fmtRange(lo, hi float64) string {
	if math.IsInf(lo, 1) {
		return "-"
	}
	if lo == hi {
		return strconv.FormatFloat(lo, 'f', 2, 64)
	}
	return fmt.Sprintf("%.2f–%.2f", lo, hi)
}

// printSegmentTable prints the per-segment summary.
func printSegmentTable(pp *printorg.PrintPoints) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Segment", "Paths", "Points", "Layer height", "Velocity").
		Rows(segmentRows(pp)...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		})
	fmt.Println(t)
}

// graphRows summarizes each segment of the support graph.
func graphRows(sg *printorg.SegmentsDirectedGraph, layers []*geometry.VerticalLayer) [][]string {
	depth := make(map[int]int, sg.Len())
	for d, ids := range sg.Depths() {
		for _, id := range ids {
			depth[id] = d
		}
	}
	rows := make([][]string, 0, sg.Len())
	for id := 0; id < sg.Len(); id++ {
		rows = append(rows, []string{
			strconv.Itoa(id),
			strconv.Itoa(depth[id]),
			strconv.Itoa(len(layers[id].Paths)),
			fmtIDs(sg.ParentsOf(id)),
			fmtIDs(sg.ChildrenOf(id)),
		})
	}
	return rows
}

func fmtIDs(ids []int) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// printGraphTable prints the per-segment support summary. Roots are
// highlighted.
func printGraphTable(sg *printorg.SegmentsDirectedGraph, layers []*geometry.VerticalLayer) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Segment", "Depth", "Paths", "Rests on", "Supports").
		Rows(graphRows(sg, layers)...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case sg.IsRoot(row):
				return styleRoot
			}
			return styleCell
		})
	fmt.Println(t)
}
