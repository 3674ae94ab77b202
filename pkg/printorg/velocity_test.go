package printorg

import (
	"bytes"
	"context"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/observability"
)

func organizedStack(t *testing.T) *PrintPoints {
	t.Helper()
	m, layers := stacked(t)
	o, err := New(m, groups(layers...), Params{MaxDThreshold: threshold})
	if err != nil {
		t.Fatal(err)
	}
	pp, err := o.Organize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return pp
}

func TestVelocityForHeight(t *testing.T) {
	cfg := VelocityConfig{VMin: 10, VMax: 50, HMin: 0.2, HMax: 1.0}
	tests := []struct {
		h, want float64
	}{
		{0.2, 10},
		{1.0, 50},
		{0.6, 30},
		{0.0, 10}, // clamped
		{5.0, 50}, // clamped
	}
	for _, tt := range tests {
		if got := VelocityForHeight(tt.h, cfg); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("VelocityForHeight(%v) = %v, want %v", tt.h, got, tt.want)
		}
	}
}

func TestAssignVelocityMatchingLayerHeight(t *testing.T) {
	pp := organizedStack(t)
	cfg := VelocityConfig{Mode: VelocityMatchingLayerHeight}
	cfg.SetDefaults()
	rec := observability.NewRecorder()

	if err := AssignVelocity(context.Background(), pp, cfg, true, nil, rec); err != nil {
		t.Fatalf("AssignVelocity() error = %v", err)
	}
	if got := rec.Advisories(); len(got) != 0 {
		t.Errorf("Advisories() = %v, want none", got)
	}

	// velocity depends on the point's own layer height only
	byHeight := make(map[float64]float64)
	pp.Each(func(seg, path int, p *geometry.PrintPoint) {
		want := VelocityForHeight(p.LayerHeight, cfg)
		if p.Velocity != want {
			t.Errorf("segment %d path %d: Velocity = %v, want %v", seg, path, p.Velocity, want)
		}
		h := math.Round(p.LayerHeight*1e9) / 1e9
		if v, ok := byHeight[h]; ok && math.Abs(v-p.Velocity) > 1e-9 {
			t.Errorf("layer height %v got velocities %v and %v", h, v, p.Velocity)
		}
		byHeight[h] = p.Velocity
	})
	if len(byHeight) < 2 {
		t.Errorf("expected at least two distinct layer heights, got %v", byHeight)
	}
}

func TestAssignVelocityConstantAdvisory(t *testing.T) {
	pp := organizedStack(t)
	rec := observability.NewRecorder()
	cfg := VelocityConfig{Mode: VelocityConstant, V: 30}

	if err := AssignVelocity(context.Background(), pp, cfg, true, nil, rec); err != nil {
		t.Fatalf("AssignVelocity() error = %v", err)
	}
	if got := rec.Advisories(); !slices.Equal(got, []string{AdvisoryVelocityMode}) {
		t.Errorf("Advisories() = %v, want [%s]", got, AdvisoryVelocityMode)
	}
	pp.Each(func(_, _ int, p *geometry.PrintPoint) {
		if p.Velocity != 30 {
			t.Errorf("Velocity = %v, want 30", p.Velocity)
		}
	})

	// planar output gets no advisory
	rec = observability.NewRecorder()
	if err := AssignVelocity(context.Background(), pp, cfg, false, nil, rec); err != nil {
		t.Fatal(err)
	}
	if got := rec.Advisories(); len(got) != 0 {
		t.Errorf("Advisories() = %v for planar output, want none", got)
	}
}

func TestAssignVelocityAdvisoryLoggedOnce(t *testing.T) {
	cfg := VelocityConfig{Mode: VelocityConstant, V: 30}
	tests := []struct {
		name  string
		hooks func(*log.Logger) observability.OrganizerHooks
	}{
		{"no hooks", func(*log.Logger) observability.OrganizerHooks { return nil }},
		{"log hooks", func(l *log.Logger) observability.OrganizerHooks { return observability.NewLogHooks(l) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := log.NewWithOptions(&buf, log.Options{Level: log.WarnLevel})
			if err := AssignVelocity(context.Background(), organizedStack(t), cfg, true, logger, tt.hooks(logger)); err != nil {
				t.Fatalf("AssignVelocity() error = %v", err)
			}
			if got := strings.Count(buf.String(), "should match layer height"); got != 1 {
				t.Errorf("advisory logged %d times, want 1: %q", got, buf.String())
			}
		})
	}
}

func TestAssignVelocityPerLayer(t *testing.T) {
	pp := organizedStack(t)
	cfg := VelocityConfig{Mode: VelocityPerLayer, PerLayer: []float64{20, 40}}
	if err := AssignVelocity(context.Background(), pp, cfg, false, nil, nil); err != nil {
		t.Fatalf("AssignVelocity() error = %v", err)
	}
	pp.Each(func(seg, _ int, p *geometry.PrintPoint) {
		if want := cfg.PerLayer[seg]; p.Velocity != want {
			t.Errorf("segment %d Velocity = %v, want %v", seg, p.Velocity, want)
		}
	})
}

func TestAssignVelocityErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  VelocityConfig
	}{
		{"unknown mode", VelocityConfig{Mode: "sideways"}},
		{"short table", VelocityConfig{Mode: VelocityPerLayer, PerLayer: []float64{20}}},
		{"zero in table", VelocityConfig{Mode: VelocityPerLayer, PerLayer: []float64{20, 0}}},
		{"zero constant", VelocityConfig{Mode: VelocityConstant}},
		{"inverted heights", VelocityConfig{Mode: VelocityMatchingLayerHeight, VMin: 1, VMax: 2, HMin: 1, HMax: 0.5}},
		{"inverted velocities", VelocityConfig{Mode: VelocityMatchingLayerHeight, VMin: 5, VMax: 2, HMin: 0.1, HMax: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pp := organizedStack(t)
			err := AssignVelocity(context.Background(), pp, tt.cfg, true, nil, nil)
			if !errors.Is(err, errors.ErrCodeConfiguration) {
				t.Fatalf("AssignVelocity() error = %v, want configuration error", err)
			}
			pp.Each(func(_, _ int, p *geometry.PrintPoint) {
				if p.Velocity != 0 {
					t.Fatal("failed AssignVelocity() wrote velocities")
				}
			})
		})
	}
}

func TestAssignVelocityOnlyTouchesVelocity(t *testing.T) {
	pp := organizedStack(t)
	var before []geometry.PrintPoint
	pp.Each(func(_, _ int, p *geometry.PrintPoint) { before = append(before, *p) })

	cfg := VelocityConfig{}
	cfg.SetDefaults()
	if err := AssignVelocity(context.Background(), pp, cfg, true, nil, nil); err != nil {
		t.Fatal(err)
	}

	var after []geometry.PrintPoint
	pp.Each(func(_, _ int, p *geometry.PrintPoint) { after = append(after, *p) })
	if diff := cmp.Diff(before, after, cmpopts.IgnoreFields(geometry.PrintPoint{}, "Velocity")); diff != "" {
		t.Errorf("AssignVelocity() changed more than velocity (-before +after):\n%s", diff)
	}
}

func TestVelocityModeSet(t *testing.T) {
	var m VelocityMode
	if err := m.Set("per_layer"); err != nil || m != VelocityPerLayer {
		t.Errorf("Set(per_layer) = %v, mode %q", err, m)
	}
	if err := m.Set("fast"); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("Set(fast) error = %v, want configuration error", err)
	}
	if m != VelocityPerLayer {
		t.Errorf("failed Set changed mode to %q", m)
	}
}
