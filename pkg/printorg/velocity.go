package printorg

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/observability"
)

// VelocityMode selects how print velocity is assigned. It implements
// pflag.Value.
type VelocityMode string

// Velocity modes.
const (
	VelocityConstant            VelocityMode = "constant"
	VelocityPerLayer            VelocityMode = "per_layer"
	VelocityMatchingLayerHeight VelocityMode = "matching_layer_height"
)

// AdvisoryVelocityMode is the advisory code emitted when curved output gets
// a velocity that ignores layer height.
const AdvisoryVelocityMode = "velocity_mode"

// VelocityModes returns the known modes.
func VelocityModes() []string {
	return []string{string(VelocityConstant), string(VelocityPerLayer), string(VelocityMatchingLayerHeight)}
}

// Valid reports whether m is a known mode.
func (m VelocityMode) Valid() bool {
	switch m {
	case VelocityConstant, VelocityPerLayer, VelocityMatchingLayerHeight:
		return true
	}
	return false
}

func (m *VelocityMode) String() string { return string(*m) }

func (m *VelocityMode) Set(s string) error {
	v := VelocityMode(s)
	if !v.Valid() {
		return errors.New(errors.ErrCodeConfiguration, "unknown velocity mode %q (want one of %s)", s, strings.Join(VelocityModes(), ", "))
	}
	*m = v
	return nil
}

func (m *VelocityMode) Type() string { return "mode" }

// Velocity defaults in mm/s and mm.
const (
	DefaultVelocity = 25.0
	DefaultVMin     = 15.0
	DefaultVMax     = 60.0
	DefaultHMin     = 0.1
	DefaultHMax     = 2.0
)

// VelocityConfig configures [AssignVelocity].
type VelocityConfig struct {
	Mode VelocityMode `json:"mode" toml:"mode"`

	// V is the constant velocity.
	V float64 `json:"v,omitempty" toml:"v"`

	// PerLayer holds one velocity per exported segment, in print order.
	PerLayer []float64 `json:"per_layer,omitempty" toml:"per_layer"`

	// Layer height matching: heights in [HMin, HMax] map linearly onto
	// [VMin, VMax]; heights outside are clamped.
	VMin float64 `json:"v_min,omitempty" toml:"v_min"`
	VMax float64 `json:"v_max,omitempty" toml:"v_max"`
	HMin float64 `json:"h_min,omitempty" toml:"h_min"`
	HMax float64 `json:"h_max,omitempty" toml:"h_max"`
}

// SetDefaults fills zero fields. The default mode is matching_layer_height.
func (c *VelocityConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = VelocityMatchingLayerHeight
	}
	if c.V == 0 {
		c.V = DefaultVelocity
	}
	if c.VMin == 0 {
		c.VMin = DefaultVMin
	}
	if c.VMax == 0 {
		c.VMax = DefaultVMax
	}
	if c.HMin == 0 {
		c.HMin = DefaultHMin
	}
	if c.HMax == 0 {
		c.HMax = DefaultHMax
	}
}

// Validate checks the fields the selected mode uses. segments is the number
// of exported segments, needed for the per-layer table.
func (c VelocityConfig) Validate(segments int) error {
	switch c.Mode {
	case VelocityConstant:
		return errors.ValidatePositive("v", c.V)
	case VelocityPerLayer:
		if len(c.PerLayer) < segments {
			return errors.New(errors.ErrCodeConfiguration, "per_layer has %d velocities for %d segments", len(c.PerLayer), segments)
		}
		for i, v := range c.PerLayer {
			if err := errors.ValidatePositive(fmt.Sprintf("per_layer[%d]", i), v); err != nil {
				return err
			}
		}
		return nil
	case VelocityMatchingLayerHeight:
		if err := errors.ValidatePositive("v_min", c.VMin); err != nil {
			return err
		}
		if c.VMax < c.VMin {
			return errors.New(errors.ErrCodeConfiguration, "v_max (%g) is below v_min (%g)", c.VMax, c.VMin)
		}
		if c.HMin < 0 || !(c.HMax > c.HMin) {
			return errors.New(errors.ErrCodeConfiguration, "need 0 <= h_min < h_max, got %g and %g", c.HMin, c.HMax)
		}
		return nil
	default:
		return errors.New(errors.ErrCodeConfiguration, "unknown velocity mode %q", string(c.Mode))
	}
}

// VelocityForHeight maps a layer height to a velocity: thin layers print
// at VMin, thick ones at VMax.
func VelocityForHeight(h float64, c VelocityConfig) float64 {
	h = math.Min(math.Max(h, c.HMin), c.HMax)
	return c.VMin + (h-c.HMin)/(c.HMax-c.HMin)*(c.VMax-c.VMin)
}

// AssignVelocity writes Velocity on every print point and nothing else.
//
// curved marks output from curved organization. There any mode other than
// matching_layer_height is allowed but reported as an advisory. The advisory
// goes to hooks, or to logger as a warning when hooks is nil.
func AssignVelocity(ctx context.Context, pp *PrintPoints, cfg VelocityConfig, curved bool, logger *log.Logger, hooks observability.OrganizerHooks) error {
	if pp == nil {
		return errors.New(errors.ErrCodeConfiguration, "no print points")
	}
	if logger == nil {
		logger = discardLogger()
	}
	if hooks == nil {
		hooks = observability.NewLogHooks(logger)
	}
	if err := cfg.Validate(pp.Len()); err != nil {
		return err
	}

	if curved && cfg.Mode != VelocityMatchingLayerHeight {
		msg := fmt.Sprintf("for non-planar printing, print velocity should match layer height (mode %s)", cfg.Mode)
		hooks.OnAdvisory(ctx, AdvisoryVelocityMode, msg)
	}

	var assign func(seg int, p *geometry.PrintPoint)
	switch cfg.Mode {
	case VelocityConstant:
		assign = func(_ int, p *geometry.PrintPoint) { p.Velocity = cfg.V }
	case VelocityPerLayer:
		assign = func(seg int, p *geometry.PrintPoint) { p.Velocity = cfg.PerLayer[seg] }
	case VelocityMatchingLayerHeight:
		assign = func(_ int, p *geometry.PrintPoint) { p.Velocity = VelocityForHeight(p.LayerHeight, cfg) }
	}
	pp.Each(func(seg, _ int, p *geometry.PrintPoint) { assign(seg, p) })

	logger.Info("assigned velocity", "mode", string(cfg.Mode), "points", pp.TotalPoints())
	return nil
}
