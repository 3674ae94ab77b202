package printorg

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
	"github.com/matzehuels/towerpath/pkg/observability"
)

// State is the stage an [Organizer] has reached.
type State int

// Organizer states, in the only order they can be reached.
const (
	StateInit State = iota
	StateGraphBuilt
	StateBoundariesComputed
	StateConnectivityComputed
	StateOrderSelected
	StatePrintPointsExported
)

var stateNames = [...]string{
	StateInit:                 "INIT",
	StateGraphBuilt:           "GRAPH_BUILT",
	StateBoundariesComputed:   "BOUNDARIES_COMPUTED",
	StateConnectivityComputed: "CONNECTIVITY_COMPUTED",
	StateOrderSelected:        "ORDER_SELECTED",
	StatePrintPointsExported:  "PRINTPOINTS_EXPORTED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Segment is the organizer's record for one vertical layer. It is filled in
// stage by stage and read-only once the order is selected.
type Segment struct {
	ID           int
	Layer        *geometry.VerticalLayer
	Boundary     *BaseBoundary
	Connectivity *SegmentConnectivity
}

// Organizer runs curved print organization over a set of vertical layers.
// An Organizer is single use and not safe for concurrent use.
type Organizer struct {
	mesh   *mesh.Mesh
	layers []*geometry.VerticalLayer
	params Params

	logger *log.Logger
	hooks  observability.OrganizerHooks
	policy OrderPolicy
	sink   DiagnosticsSink
	runID  string

	state    State
	graph    *SegmentsDirectedGraph
	segments []*Segment
	order    []int
	result   *PrintPoints
}

// New checks the input and returns an organizer in [StateInit]. Every group
// must be a vertical layer; horizontal layers are a configuration error.
func New(m *mesh.Mesh, groups []geometry.PathGroup, params Params, opts ...Option) (*Organizer, error) {
	if m == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "mesh is required")
	}
	if len(groups) == 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "no layers to organize")
	}
	layers, ok := geometry.VerticalLayers(groups)
	if !ok {
		i := slices.IndexFunc(groups, func(g geometry.PathGroup) bool { return g == nil || g.Kind() != geometry.KindVertical })
		return nil, errors.New(errors.ErrCodeConfiguration, "curved organization needs vertical layers, layer %d is not one", i)
	}
	if err := params.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	o := &Organizer{
		mesh:   m,
		layers: layers,
		params: params,
		logger: discardLogger(),
		hooks:  observability.NoopOrganizerHooks{},
		policy: FirstOrder{},
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.sink == nil && params.CreateIntermediaryOutputs {
		if params.OutputDir == "" {
			return nil, errors.New(errors.ErrCodeConfiguration, "create_intermediary_outputs needs output_dir")
		}
		o.sink = FileSink{Dir: params.OutputDir}
	}
	o.logger = o.logger.With("run", o.runID)

	o.segments = make([]*Segment, len(layers))
	for i, vl := range layers {
		o.segments[i] = &Segment{ID: i, Layer: vl}
	}
	return o, nil
}

func (o *Organizer) String() string {
	return fmt.Sprintf("<Organizer with %d segments>", len(o.segments))
}

// RunID returns the id attached to this run's log lines.
func (o *Organizer) RunID() string { return o.runID }

// State returns the current stage.
func (o *Organizer) State() State { return o.state }

// Graph returns the support graph, nil before [Organizer.BuildGraph].
func (o *Organizer) Graph() *SegmentsDirectedGraph { return o.graph }

// Segments returns the segment records indexed by id.
func (o *Organizer) Segments() []*Segment { return o.segments }

// SelectedOrder returns the chosen print order, nil before selection.
func (o *Organizer) SelectedOrder() []int { return slices.Clone(o.order) }

// Organize runs every stage and returns the exported print points.
func (o *Organizer) Organize(ctx context.Context) (*PrintPoints, error) {
	steps := []func(context.Context) error{
		o.BuildGraph,
		o.ComputeBoundaries,
		o.ComputeConnectivity,
		o.SelectOrder,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return nil, err
		}
	}
	return o.Export(ctx)
}

// advance checks that the organizer is in from and runs fn under stage
// hooks, moving to to on success.
func (o *Organizer) advance(ctx context.Context, stage string, from, to State, fn func() error) error {
	if o.state != from {
		return errors.New(errors.ErrCodeConfiguration, "%s requires state %s, organizer is in %s", stage, from, o.state)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	o.hooks.OnStageStart(ctx, stage)
	err := fn()
	o.hooks.OnStageComplete(ctx, stage, time.Since(start), err)
	if err != nil {
		o.logger.Error("stage failed", "stage", stage, "error", err)
		return err
	}
	o.state = to
	return nil
}

// BuildGraph discovers which segment rests on which.
func (o *Organizer) BuildGraph(ctx context.Context) error {
	return o.advance(ctx, "graph", StateInit, StateGraphBuilt, func() error {
		g, err := NewSegmentsDirectedGraph(o.mesh, o.layers, o.params.MaxDThreshold, GraphOptions{
			MaxOrders: o.params.MaxOrders,
			Logger:    o.logger,
		})
		if err != nil {
			return err
		}
		o.graph = g
		o.logger.Info("built segment graph", "segments", g.Len(), "edges", g.EdgeCount(), "roots", len(g.Roots()))
		return nil
	})
}

// ComputeBoundaries gives every segment the surface it starts on: the mesh
// root boundary for roots, the parents' last paths otherwise.
func (o *Organizer) ComputeBoundaries(ctx context.Context) error {
	return o.advance(ctx, "boundaries", StateGraphBuilt, StateBoundariesComputed, func() error {
		root := NewRootBoundary(o.mesh)
		for _, s := range o.segments {
			parents := o.graph.ParentsOf(s.ID)
			if len(parents) == 0 {
				s.Boundary = root
				continue
			}
			b, err := NewParentBoundary(o.layers, parents)
			if err != nil {
				return fmt.Errorf("segment %d: %w", s.ID, err)
			}
			s.Boundary = b
		}
		o.logger.Debug("computed base boundaries", "root_points", root.Len())
		if o.params.CreateIntermediaryOutputs {
			return o.writeDiagnostics(ctx)
		}
		return nil
	})
}

func (o *Organizer) writeDiagnostics(ctx context.Context) error {
	data, err := boundariesJSON(o.segments)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode boundaries")
	}
	if err := o.sink.Put(ctx, BoundariesArtifact, data); err != nil {
		return fmt.Errorf("write %s: %w", BoundariesArtifact, err)
	}
	if err := o.sink.Put(ctx, GraphArtifact, []byte(o.graph.DOT())); err != nil {
		return fmt.Errorf("write %s: %w", GraphArtifact, err)
	}
	o.logger.Debug("wrote intermediary outputs", "artifacts", []string{BoundariesArtifact, GraphArtifact})
	return nil
}

// ComputeConnectivity computes print points for every segment, one graph
// depth at a time. Segments at the same depth run on up to Params.Workers
// goroutines; each writes only its own record.
func (o *Organizer) ComputeConnectivity(ctx context.Context) error {
	return o.advance(ctx, "connectivity", StateBoundariesComputed, StateConnectivityComputed, func() error {
		cp := ConnectivityParams{Frames: o.params.Frames}
		computed := make([]*SegmentConnectivity, len(o.segments))

		for depth, ids := range o.graph.Depths() {
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(o.params.Workers)
			for _, id := range ids {
				s := o.segments[id]
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					c := NewSegmentConnectivity(s.Layer.Paths, s.Boundary, o.mesh, cp)
					if err := c.Compute(); err != nil {
						return fmt.Errorf("segment %d: %w", s.ID, err)
					}
					computed[s.ID] = c
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			o.logger.Debug("computed connectivity", "depth", depth, "segments", len(ids))
		}

		for i, c := range computed {
			o.segments[i].Connectivity = c
		}
		return nil
	})
}

// SelectOrder asks the policy for a print order and checks that it is one
// of the enumerated valid orders.
func (o *Organizer) SelectOrder(ctx context.Context) error {
	return o.advance(ctx, "order", StateConnectivityComputed, StateOrderSelected, func() error {
		orders := o.graph.AllTopologicalOrders()
		chosen, err := o.policy.Select(orders, o.segments)
		if err != nil {
			return err
		}
		if !slices.ContainsFunc(orders, func(ord []int) bool { return slices.Equal(ord, chosen) }) {
			return errors.New(errors.ErrCodeConfiguration, "policy %s returned %v, which is not a valid print order", o.policy.Name(), chosen)
		}
		o.order = slices.Clone(chosen)
		o.logger.Info("selected print order", "policy", o.policy.Name(), "order", o.order,
			"candidates", len(orders), "truncated", o.graph.Truncated())
		return nil
	})
}

// Export builds the print points in the selected order. The returned
// structure holds copies; it shares nothing with the segment records.
func (o *Organizer) Export(ctx context.Context) (*PrintPoints, error) {
	err := o.advance(ctx, "export", StateOrderSelected, StatePrintPointsExported, func() error {
		pp := &PrintPoints{Segments: make([]SegmentPrintPoints, 0, len(o.order))}
		for _, id := range o.order {
			c := o.segments[id].Connectivity
			seg := SegmentPrintPoints{Label: segmentLabel(id), ID: id}
			for j, path := range c.Paths() {
				src := c.PrintPoints(j)
				pts := make([]*geometry.PrintPoint, len(src))
				for k, p := range src {
					cp := *p
					if p.Frame != nil {
						f := *p.Frame
						cp.Frame = &f
					}
					pts[k] = &cp
				}
				seg.Paths = append(seg.Paths, PathPrintPoints{Label: pathLabel(j), Points: pts, Closed: path.Closed})
			}
			pp.Segments = append(pp.Segments, seg)
		}
		o.result = pp
		o.logger.Info("exported print points", "segments", pp.Len(), "points", pp.TotalPoints())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o.result, nil
}

// PrintPoints returns the exported result, nil before [Organizer.Export].
func (o *Organizer) PrintPoints() *PrintPoints { return o.result }
