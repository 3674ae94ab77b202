package printorg

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/observability"
)

// Defaults applied by [Params.ValidateAndSetDefaults].
const (
	DefaultMaxOrders = 1000
	DefaultWorkers   = 1
)

// Params configures one organization run.
type Params struct {
	// MaxDThreshold is the largest gap between a segment's first path and
	// the surface under it that still counts as resting on it.
	MaxDThreshold float64 `json:"max_layer_height" toml:"max_layer_height"`

	// CreateIntermediaryOutputs writes boundaries.json and segments.dot to
	// the diagnostics sink.
	CreateIntermediaryOutputs bool `json:"create_intermediary_outputs" toml:"create_intermediary_outputs"`

	// OutputDir is where the default diagnostics sink writes.
	OutputDir string `json:"output_dir,omitempty" toml:"output_dir"`

	// MaxOrders caps topological order enumeration.
	MaxOrders int `json:"max_orders,omitempty" toml:"max_orders"`

	// Workers bounds how many segments of one graph depth are computed
	// concurrently. 1 means sequential.
	Workers int `json:"workers,omitempty" toml:"workers"`

	// Frames attaches a tool frame to every print point.
	Frames bool `json:"frames,omitempty" toml:"frames"`
}

// ValidateAndSetDefaults checks p and fills zero values with defaults.
// It is safe to call more than once.
func (p *Params) ValidateAndSetDefaults() error {
	if err := errors.ValidatePositive("max_layer_height", p.MaxDThreshold); err != nil {
		return err
	}
	if p.MaxOrders < 0 {
		return errors.New(errors.ErrCodeConfiguration, "max_orders must not be negative, got %d", p.MaxOrders)
	}
	if p.Workers < 0 {
		return errors.New(errors.ErrCodeConfiguration, "workers must not be negative, got %d", p.Workers)
	}
	if p.MaxOrders == 0 {
		p.MaxOrders = DefaultMaxOrders
	}
	if p.Workers == 0 {
		p.Workers = DefaultWorkers
	}
	if p.OutputDir != "" {
		if err := errors.ValidatePath(p.OutputDir); err != nil {
			return errors.Wrap(errors.ErrCodeConfiguration, err, "output_dir")
		}
	}
	return nil
}

// Option customizes an [Organizer].
type Option func(*Organizer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(o *Organizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHooks sets the observability hooks.
func WithHooks(h observability.OrganizerHooks) Option {
	return func(o *Organizer) {
		if h != nil {
			o.hooks = h
		}
	}
}

// WithPolicy sets the order selection policy. The default is [FirstOrder].
func WithPolicy(p OrderPolicy) Option {
	return func(o *Organizer) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithDiagnostics sets where intermediary outputs go. Without it, a
// [FileSink] on Params.OutputDir is used.
func WithDiagnostics(s DiagnosticsSink) Option {
	return func(o *Organizer) {
		if s != nil {
			o.sink = s
		}
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(o *Organizer) {
		if id != "" {
			o.runID = id
		}
	}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
