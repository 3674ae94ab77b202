package printorg

import (
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
)

// OrderPolicy picks one print order out of the enumerated valid orders.
// Implementations must return one of the orders they were given.
type OrderPolicy interface {
	Name() string
	Select(orders [][]int, segments []*Segment) ([]int, error)
}

// Ordering names an [OrderPolicy]. It implements pflag.Value.
type Ordering string

// Known orderings.
const (
	OrderingFirst     Ordering = "first"
	OrderingMinTravel Ordering = "min_travel"
)

var policies = map[Ordering]func() OrderPolicy{
	OrderingFirst:     func() OrderPolicy { return FirstOrder{} },
	OrderingMinTravel: func() OrderPolicy { return MinTravel{} },
}

// Orderings returns all known ordering names, sorted.
func Orderings() []string {
	names := make([]string, 0, len(policies))
	for k := range policies {
		names = append(names, string(k))
	}
	slices.Sort(names)
	return names
}

// Policy returns the policy named by o. The empty ordering is [FirstOrder].
func (o Ordering) Policy() (OrderPolicy, error) {
	if o == "" {
		return FirstOrder{}, nil
	}
	newPolicy, ok := policies[o]
	if !ok {
		return nil, errors.New(errors.ErrCodeConfiguration, "unknown ordering %q (want one of %s)", string(o), strings.Join(Orderings(), ", "))
	}
	return newPolicy(), nil
}

func (o *Ordering) String() string { return string(*o) }

func (o *Ordering) Set(s string) error {
	v := Ordering(s)
	if _, err := v.Policy(); err != nil {
		return err
	}
	*o = v
	return nil
}

func (o *Ordering) Type() string { return "ordering" }

// FirstOrder selects the first enumerated order: at every step the lowest
// numbered segment whose supports are printed.
type FirstOrder struct{}

func (FirstOrder) Name() string { return string(OrderingFirst) }

func (FirstOrder) Select(orders [][]int, _ []*Segment) ([]int, error) {
	if len(orders) == 0 {
		return nil, errors.New(errors.ErrCodeTopology, "no valid print order")
	}
	return orders[0], nil
}

// MinTravel selects the order with the shortest total travel from the end
// of one segment to the start of the next. Ties keep the earlier order.
type MinTravel struct{}

func (MinTravel) Name() string { return string(OrderingMinTravel) }

func (MinTravel) Select(orders [][]int, segments []*Segment) ([]int, error) {
	if len(orders) == 0 {
		return nil, errors.New(errors.ErrCodeTopology, "no valid print order")
	}
	best, bestCost := 0, math.Inf(1)
	for i, order := range orders {
		cost, err := TravelDistance(order, segments)
		if err != nil {
			return nil, err
		}
		if cost < bestCost {
			best, bestCost = i, cost
		}
	}
	return orders[best], nil
}

// TravelDistance sums the straight-line moves between the last point of
// each segment and the first point of the next one in order.
func TravelDistance(order []int, segments []*Segment) (float64, error) {
	var total float64
	for i := 1; i < len(order); i++ {
		from, err := segmentAt(segments, order[i-1])
		if err != nil {
			return 0, err
		}
		to, err := segmentAt(segments, order[i])
		if err != nil {
			return 0, err
		}
		end, _ := from.Layer.Top()
		start, _ := to.Layer.Bottom()
		if end.Len() == 0 || start.Len() == 0 {
			continue
		}
		total += geometry.Distance(end.Last(), start.First())
	}
	return total, nil
}

func segmentAt(segments []*Segment, id int) (*Segment, error) {
	if id < 0 || id >= len(segments) || segments[id] == nil || segments[id].Layer == nil {
		return nil, errors.New(errors.ErrCodeInternal, "order references unknown segment %d", id)
	}
	return segments[id], nil
}
