package printorg

import (
	"slices"
	"testing"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
)

func lineSegment(t *testing.T, id int, from, to geometry.Point) *Segment {
	t.Helper()
	vl := geometry.NewVerticalLayer(id)
	vl.Append(openPath(t, from, to))
	return &Segment{ID: id, Layer: vl}
}

func TestFirstOrder(t *testing.T) {
	orders := [][]int{{0, 1, 2}, {1, 0, 2}}
	got, err := FirstOrder{}.Select(orders, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("Select() = %v, want [0 1 2]", got)
	}
	if _, err := (FirstOrder{}).Select(nil, nil); !errors.Is(err, errors.ErrCodeTopology) {
		t.Errorf("Select(nil) error = %v, want topology error", err)
	}
}

func TestMinTravel(t *testing.T) {
	segs := []*Segment{
		lineSegment(t, 0, geometry.Pt(0, 0, 0), geometry.Pt(1, 0, 0)),
		lineSegment(t, 1, geometry.Pt(5, 0, 0), geometry.Pt(6, 0, 0)),
		lineSegment(t, 2, geometry.Pt(1, 0, 1), geometry.Pt(2, 0, 1)),
	}
	orders := [][]int{{0, 1, 2}, {1, 0, 2}}

	// 0,1,2: 4 + |(6,0,0)-(1,0,1)|; 1,0,2: 6 + 1
	got, err := MinTravel{}.Select(orders, segs)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1, 0, 2}) {
		t.Errorf("Select() = %v, want [1 0 2]", got)
	}

	d, err := TravelDistance([]int{1, 0, 2}, segs)
	if err != nil {
		t.Fatal(err)
	}
	if d != 7 {
		t.Errorf("TravelDistance() = %v, want 7", d)
	}

	if _, err := TravelDistance([]int{0, 9}, segs); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("TravelDistance(unknown) error = %v, want internal error", err)
	}
}

func TestMinTravelTieKeepsFirst(t *testing.T) {
	segs := []*Segment{
		lineSegment(t, 0, geometry.Pt(0, 0, 0), geometry.Pt(0, 0, 0.5)),
		lineSegment(t, 1, geometry.Pt(0, 0, 0), geometry.Pt(0, 0, 0.5)),
	}
	got, err := MinTravel{}.Select([][]int{{0, 1}, {1, 0}}, segs)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{0, 1}) {
		t.Errorf("Select() = %v, want [0 1]", got)
	}
}

func TestOrdering(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"first", "first", false},
		{"min_travel", "min_travel", false},
		{"random", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var o Ordering
			err := o.Set(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeConfiguration) {
					t.Errorf("Set(%q) error = %v, want configuration error", tt.in, err)
				}
				return
			}
			p, err := o.Policy()
			if err != nil {
				t.Fatal(err)
			}
			if p.Name() != tt.want {
				t.Errorf("Policy().Name() = %q, want %q", p.Name(), tt.want)
			}
		})
	}

	var empty Ordering
	if p, _ := empty.Policy(); p.Name() != "first" {
		t.Errorf("empty ordering policy = %q, want first", p.Name())
	}
}
