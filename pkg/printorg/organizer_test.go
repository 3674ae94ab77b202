package printorg

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/observability"
)

func TestScenarioSingleSegment(t *testing.T) {
	bed := append(footprint(0, 0), geometry.Pt(0, -1, 0), geometry.Pt(0, 1, 0))
	m := bedMesh(t, bed...)
	vl := geometry.NewVerticalLayer(0)
	vl.Append(square(t, 0, 0, 0.2, 1))

	o, err := New(m, groups(vl), Params{MaxDThreshold: threshold})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	pp, err := o.Organize(context.Background())
	if err != nil {
		t.Fatalf("Organize() error = %v", err)
	}

	if got := o.Graph().Roots(); !slices.Equal(got, []int{0}) {
		t.Errorf("Roots() = %v, want [0]", got)
	}
	if o.Graph().EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", o.Graph().EdgeCount())
	}
	if got := o.SelectedOrder(); !slices.Equal(got, []int{0}) {
		t.Errorf("SelectedOrder() = %v, want [0]", got)
	}
	if got := o.Segments()[0].Boundary.Len(); got != 6 {
		t.Errorf("root boundary has %d points, want 6", got)
	}
	if got := pp.TotalPoints(); got != 4 {
		t.Errorf("TotalPoints() = %d, want 4", got)
	}
	if o.State() != StatePrintPointsExported {
		t.Errorf("State() = %s, want %s", o.State(), StatePrintPointsExported)
	}
}

func TestScenarioStacked(t *testing.T) {
	m, layers := stacked(t)
	o, err := New(m, groups(layers...), Params{MaxDThreshold: threshold})
	if err != nil {
		t.Fatal(err)
	}
	pp, err := o.Organize(context.Background())
	if err != nil {
		t.Fatalf("Organize() error = %v", err)
	}

	if diff := cmp.Diff([][2]int{{0, 1}}, o.Graph().Edges()); diff != "" {
		t.Errorf("Edges() mismatch (-want +got):\n%s", diff)
	}
	if got := o.Graph().ParentsOf(1); !slices.Equal(got, []int{0}) {
		t.Errorf("ParentsOf(1) = %v, want [0]", got)
	}
	top, _ := layers[0].Top()
	if diff := cmp.Diff(top.Points, o.Segments()[1].Boundary.Points()); diff != "" {
		t.Errorf("boundary of segment 1 mismatch (-want +got):\n%s", diff)
	}
	if !o.Segments()[0].Boundary.IsRoot() {
		t.Error("segment 0 boundary is not the root boundary")
	}
	if got := pp.Order(); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("Order() = %v, want [0 1]", got)
	}
	if _, ok := pp.Get("layer_1", "path_1"); !ok {
		t.Error(`Get("layer_1", "path_1") missing`)
	}
}

func TestScenarioUnsupported(t *testing.T) {
	m, layers := stacked(t)
	layers = append(layers, column(t, 2, 50, 50, 10, 0.3, 2))
	rec := observability.NewRecorder()

	o, err := New(m, groups(layers...), Params{MaxDThreshold: threshold}, WithHooks(rec))
	if err != nil {
		t.Fatal(err)
	}
	pp, err := o.Organize(context.Background())
	if !errors.Is(err, errors.ErrCodeTopology) {
		t.Fatalf("Organize() error = %v, want topology error", err)
	}
	if pp != nil || o.PrintPoints() != nil {
		t.Error("failed run returned print points")
	}
	if o.State() != StateInit {
		t.Errorf("State() = %s after failed graph, want INIT", o.State())
	}
	events := rec.Events()
	if len(events) != 2 || events[1].Err == nil {
		t.Errorf("events = %+v, want failed graph stage", events)
	}
}

func TestOrganizeExportMatchesInput(t *testing.T) {
	m, layers := merged(t)
	o, err := New(m, groups(layers...), Params{MaxDThreshold: threshold})
	if err != nil {
		t.Fatal(err)
	}
	pp, err := o.Organize(context.Background())
	if err != nil {
		t.Fatalf("Organize() error = %v", err)
	}
	for _, seg := range pp.Segments {
		src := layers[seg.ID]
		if len(seg.Paths) != len(src.Paths) {
			t.Fatalf("%s has %d paths, want %d", seg.Label, len(seg.Paths), len(src.Paths))
		}
		for j, p := range seg.Paths {
			for k, pt := range p.Points {
				if pt.Pt != src.Paths[j].Points[k] {
					t.Errorf("%s/%s[%d] = %v, want %v", seg.Label, p.Label, k, pt.Pt, src.Paths[j].Points[k])
				}
			}
		}
	}

	// the bridge rests on both columns
	b := o.Segments()[2].Boundary
	if diff := cmp.Diff([]int{0, 1}, b.Parents()); diff != "" {
		t.Errorf("Parents() mismatch (-want +got):\n%s", diff)
	}
	if got := b.Len(); got != 8 {
		t.Errorf("bridge boundary has %d points, want 8", got)
	}
}

func TestOrganizeExportIsIndependent(t *testing.T) {
	m, layers := stacked(t)
	o, err := New(m, groups(layers...), Params{MaxDThreshold: threshold})
	if err != nil {
		t.Fatal(err)
	}
	pp, err := o.Organize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	pp.Segments[0].Paths[0].Points[0].Velocity = 99
	inner, _ := o.Segments()[0].Connectivity.PrintPoint(0, 0)
	if inner.Velocity != 0 {
		t.Error("export shares print points with segment records")
	}
}

func TestOrganizeWorkersAgree(t *testing.T) {
	run := func(workers int) *PrintPoints {
		m, layers := merged(t)
		o, err := New(m, groups(layers...), Params{MaxDThreshold: threshold, Workers: workers, Frames: true})
		if err != nil {
			t.Fatal(err)
		}
		pp, err := o.Organize(context.Background())
		if err != nil {
			t.Fatalf("Organize(workers=%d) error = %v", workers, err)
		}
		return pp
	}
	if diff := cmp.Diff(run(1), run(4)); diff != "" {
		t.Errorf("parallel run differs (-sequential +parallel):\n%s", diff)
	}
}

func TestOrganizeStageOrder(t *testing.T) {
	m, layers := stacked(t)
	o, err := New(m, groups(layers...), Params{MaxDThreshold: threshold})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := o.SelectOrder(ctx); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("SelectOrder() before graph = %v, want configuration error", err)
	}
	if err := o.BuildGraph(ctx); err != nil {
		t.Fatal(err)
	}
	if err := o.BuildGraph(ctx); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("second BuildGraph() = %v, want configuration error", err)
	}
	if _, err := o.Export(ctx); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("Export() before order = %v, want configuration error", err)
	}
	if o.State() != StateGraphBuilt {
		t.Errorf("State() = %s, want GRAPH_BUILT", o.State())
	}
}

func TestOrganizeHooks(t *testing.T) {
	m, layers := stacked(t)
	rec := observability.NewRecorder()
	o, err := New(m, groups(layers...), Params{MaxDThreshold: threshold}, WithHooks(rec))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.Organize(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []string{"graph", "boundaries", "connectivity", "order", "export"}
	if diff := cmp.Diff(want, rec.Stages()); diff != "" {
		t.Errorf("Stages() mismatch (-want +got):\n%s", diff)
	}
}

func TestOrganizeCancelled(t *testing.T) {
	m, layers := stacked(t)
	o, err := New(m, groups(layers...), Params{MaxDThreshold: threshold})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.Organize(ctx); err == nil {
		t.Error("Organize() with cancelled context succeeded")
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	m, layers := stacked(t)
	tests := []struct {
		name   string
		groups []geometry.PathGroup
		params Params
	}{
		{"horizontal layers", []geometry.PathGroup{geometry.NewLayer(layers[0].Paths)}, Params{MaxDThreshold: threshold}},
		{"mixed layers", []geometry.PathGroup{layers[0], geometry.NewLayer(layers[1].Paths)}, Params{MaxDThreshold: threshold}},
		{"no layers", nil, Params{MaxDThreshold: threshold}},
		{"no threshold", groups(layers...), Params{}},
		{"negative workers", groups(layers...), Params{MaxDThreshold: threshold, Workers: -1}},
		{"diagnostics without dir", groups(layers...), Params{MaxDThreshold: threshold, CreateIntermediaryOutputs: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(m, tt.groups, tt.params)
			if !errors.Is(err, errors.ErrCodeConfiguration) {
				t.Errorf("New() error = %v, want configuration error", err)
			}
		})
	}
	if _, err := New(nil, groups(layers...), Params{MaxDThreshold: threshold}); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("New(nil mesh) error = %v, want configuration error", err)
	}
}

func TestOrganizeMissingRootBoundary(t *testing.T) {
	// one segment skips the graph check but still needs something to rest on
	m := bedMesh(t)
	vl := geometry.NewVerticalLayer(0)
	vl.Append(square(t, 0, 0, 0.2, 1))
	o, err := New(m, groups(vl), Params{MaxDThreshold: threshold})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.Organize(context.Background()); !errors.Is(err, errors.ErrCodeDataValidity) {
		t.Errorf("Organize() error = %v, want data-validity error", err)
	}
}

func TestIntermediaryOutputs(t *testing.T) {
	m, layers := stacked(t)
	sink := NewMemorySink()
	o, err := New(m, groups(layers...), Params{MaxDThreshold: threshold, CreateIntermediaryOutputs: true}, WithDiagnostics(sink))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.Organize(context.Background()); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{BoundariesArtifact, GraphArtifact}, sink.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	data, _ := sink.Get(BoundariesArtifact)
	var got map[string]BoundaryData
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode boundaries: %v", err)
	}
	if n := len(got["0"].BoundaryPoints); n != 6 {
		t.Errorf("segment 0 boundary has %d points, want 6", n)
	}
	if diff := cmp.Diff(o.Segments()[1].Boundary.ToData(), got["1"]); diff != "" {
		t.Errorf("segment 1 boundary mismatch (-want +got):\n%s", diff)
	}
	dot, _ := sink.Get(GraphArtifact)
	if !strings.Contains(string(dot), "n0 -> n1;") {
		t.Errorf("segments.dot missing edge:\n%s", dot)
	}
}

func TestIntermediaryOutputsToDir(t *testing.T) {
	m, layers := stacked(t)
	dir := filepath.Join(t.TempDir(), "out")
	o, err := New(m, groups(layers...), Params{MaxDThreshold: threshold, CreateIntermediaryOutputs: true, OutputDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.Organize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, BoundariesArtifact)); err != nil {
		t.Errorf("boundaries.json not written: %v", err)
	}
}

type fixedPolicy []int

func (fixedPolicy) Name() string { return "fixed" }

func (p fixedPolicy) Select([][]int, []*Segment) ([]int, error) { return p, nil }

func TestSelectOrderRejectsInvalidPolicyResult(t *testing.T) {
	m, layers := stacked(t)
	o, err := New(m, groups(layers...), Params{MaxDThreshold: threshold}, WithPolicy(fixedPolicy{1, 0}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.Organize(context.Background()); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("Organize() error = %v, want configuration error", err)
	}
	if o.State() != StateConnectivityComputed {
		t.Errorf("State() = %s, want CONNECTIVITY_COMPUTED", o.State())
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateInit, "INIT"},
		{StateOrderSelected, "ORDER_SELECTED"},
		{StatePrintPointsExported, "PRINTPOINTS_EXPORTED"},
		{State(42), "State(42)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
}
