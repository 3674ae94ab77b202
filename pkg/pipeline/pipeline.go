// Package pipeline runs curved print organization end to end.
//
// The CLI and the HTTP API share this package so both apply the same
// defaults, caching and artifact formats. A run has three stages:
//
//  1. Organize: build the segment graph, compute connectivity, select an
//     order and export print points (cached by input hash)
//  2. Velocity: assign a feed velocity to every print point
//  3. Render: produce the requested artifacts (cached by result hash)
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.Options{Formats: []string{"json", "gcode"}}
//	opts.MaxDThreshold = 2
//	result, err := runner.Execute(ctx, pipeline.Input{Mesh: m, Layers: groups}, opts)
//	if err != nil {
//	    return err
//	}
//	gcode := result.Artifacts["gcode"]
//
// [Slice] produces the Layers input from a mesh.
package pipeline

import (
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/gcode"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
	"github.com/matzehuels/towerpath/pkg/printorg"
)

// =============================================================================
// Formats
// =============================================================================

// Artifact formats.
const (
	FormatJSON  = "json"  // ordered print points
	FormatGcode = "gcode" // machine program
	FormatDOT   = "dot"   // segment graph source
	FormatSVG   = "svg"   // segment graph drawing
)

// ValidFormats is the set of supported artifact formats.
var ValidFormats = map[string]bool{
	FormatJSON:  true,
	FormatGcode: true,
	FormatDOT:   true,
	FormatSVG:   true,
}

// DefaultFormats is used when no format is requested.
var DefaultFormats = []string{FormatJSON}

// ValidateFormat checks a single format name. Names are case-sensitive.
func ValidateFormat(f string) error {
	if !ValidFormats[f] {
		return errors.New(errors.ErrCodeConfiguration, "unknown format %q (want one of %s)", f, strings.Join(formatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks every name in fs.
func ValidateFormats(fs []string) error {
	for _, f := range fs {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func formatNames() []string {
	names := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// =============================================================================
// Options
// =============================================================================

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// CacheConfig selects the result cache. It is read by the CLI and the
// server when they build a Runner; Execute ignores it.
type CacheConfig struct {
	Backend   string `json:"backend,omitempty" toml:"backend"`
	Dir       string `json:"dir,omitempty" toml:"dir"`
	RedisAddr string `json:"redis_addr,omitempty" toml:"redis_addr"`
	RedisDB   int    `json:"redis_db,omitempty" toml:"redis_db"`
}

// Options configures a pipeline run. It decodes from JSON (API requests)
// and TOML (config files) with the same keys.
type Options struct {
	printorg.Params

	// BoundaryBelow, when positive, tags every mesh vertex within this
	// distance of the lowest vertex as root boundary before organizing.
	BoundaryBelow float64 `json:"boundary_below,omitempty" toml:"boundary_below"`

	Ordering printorg.Ordering       `json:"ordering,omitempty" toml:"ordering"`
	Formats  []string                `json:"formats,omitempty" toml:"formats"`
	Velocity printorg.VelocityConfig `json:"velocity" toml:"velocity"`
	Gcode    gcode.Config            `json:"gcode" toml:"gcode"`
	Cache    CacheConfig             `json:"-" toml:"cache"`

	// Refresh skips cache lookups. Results are still written back.
	Refresh bool `json:"refresh,omitempty" toml:"-"`

	Logger *log.Logger `json:"-" toml:"-"`

	validated bool
}

// ValidateAndSetDefaults checks o and fills zero values. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.Params.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if o.BoundaryBelow < 0 {
		return errors.New(errors.ErrCodeConfiguration, "boundary_below must not be negative, got %g", o.BoundaryBelow)
	}
	if o.Ordering == "" {
		o.Ordering = printorg.OrderingFirst
	}
	if _, err := o.Ordering.Policy(); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.Velocity.SetDefaults()
	if !o.Velocity.Mode.Valid() {
		return errors.New(errors.ErrCodeConfiguration, "unknown velocity mode %q", string(o.Velocity.Mode))
	}
	o.Gcode.SetDefaults()
	if err := o.Gcode.Validate(); err != nil {
		return err
	}
	switch o.Cache.Backend {
	case "", CacheFile, CacheRedis, CacheNone:
	default:
		return errors.New(errors.ErrCodeConfiguration, "unknown cache backend %q", o.Cache.Backend)
	}
	o.validated = true
	return nil
}

// organizeSettings is the part of Options that determines the organize
// stage's output.
type organizeSettings struct {
	MaxLayerHeight float64 `json:"max_layer_height"`
	BoundaryBelow  float64 `json:"boundary_below"`
	Ordering       string  `json:"ordering"`
	MaxOrders      int     `json:"max_orders"`
	Frames         bool    `json:"frames"`
}

func (o *Options) organizeSettings() organizeSettings {
	return organizeSettings{
		MaxLayerHeight: o.MaxDThreshold,
		BoundaryBelow:  o.BoundaryBelow,
		Ordering:       string(o.Ordering),
		MaxOrders:      o.MaxOrders,
		Frames:         o.Frames,
	}
}

// LoadConfig reads Options from a TOML file. Unknown keys are rejected.
func LoadConfig(path string) (Options, error) {
	var opts Options
	if err := errors.ValidatePath(path); err != nil {
		return opts, err
	}
	md, err := toml.DecodeFile(path, &opts)
	if os.IsNotExist(err) {
		return opts, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return opts, errors.Wrap(errors.ErrCodeConfiguration, err, "config file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return opts, errors.New(errors.ErrCodeConfiguration, "config file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return opts, nil
}

// =============================================================================
// Input and Result
// =============================================================================

// Input is what a run organizes: the mesh and its vertical layers.
type Input struct {
	Mesh   *mesh.Mesh
	Layers []geometry.PathGroup
}

// Result contains the outputs of a pipeline run.
type Result struct {
	RunID string

	// InputHash is the content hash of mesh, layers and organize settings.
	InputHash string

	// PrintPoints are the ordered print points, velocities assigned.
	PrintPoints *printorg.PrintPoints

	// Order is the selected segment order.
	Order []int

	// DOT is the segment graph.
	DOT string

	// Artifacts holds rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains run statistics.
type Stats struct {
	Segments     int
	Edges        int
	Points       int
	Truncated    bool
	OrganizeTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks which stages were served from the cache.
type CacheInfo struct {
	OrganizeHit bool
	RenderHit   bool
}
