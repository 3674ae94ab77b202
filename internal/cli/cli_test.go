package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
	"github.com/matzehuels/towerpath/pkg/pipeline"
	"github.com/matzehuels/towerpath/pkg/printorg"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	got, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error = %v", err)
	}
	if want := filepath.Join("/tmp/xdg", appName); got != want {
		t.Errorf("cacheDir() = %q, want %q", got, want)
	}
}

func TestFormatsValue(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"json", []string{"json"}, false},
		{"json, gcode,svg", []string{"json", "gcode", "svg"}, false},
		{"json,,dot", []string{"json", "dot"}, false},
		{"png", nil, true},
	}
	for _, tt := range tests {
		var got []string
		v := &formatsValue{&got}
		err := v.Set(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Set(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Set(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}

	var zero *formatsValue
	if zero.String() != "" {
		t.Errorf("nil String() = %q, want empty", zero.String())
	}
}

func TestOrganizeFlagsOverrideOnlySetFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	apply := organizeFlags(fs)
	if err := fs.Parse([]string{"--max-layer-height", "3", "--ordering", "min_travel", "--format", "gcode"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var opts pipeline.Options
	opts.MaxDThreshold = 1
	opts.Workers = 4
	opts.Gcode.ZHop = 0.5
	apply(&opts)

	if opts.MaxDThreshold != 3 {
		t.Errorf("MaxDThreshold = %v, want 3", opts.MaxDThreshold)
	}
	if opts.Ordering != printorg.OrderingMinTravel {
		t.Errorf("Ordering = %q, want %q", opts.Ordering, printorg.OrderingMinTravel)
	}
	if diff := cmp.Diff([]string{"gcode"}, opts.Formats); diff != "" {
		t.Errorf("Formats mismatch (-want +got):\n%s", diff)
	}
	if opts.Workers != 4 {
		t.Errorf("Workers = %d, want config value 4", opts.Workers)
	}
	if opts.Gcode.ZHop != 0.5 {
		t.Errorf("ZHop = %v, want config value 0.5", opts.Gcode.ZHop)
	}
}

func TestOrganizeFlagsRejectsBadValues(t *testing.T) {
	tests := [][]string{
		{"--ordering", "random"},
		{"--velocity-mode", "warp"},
		{"--format", "png"},
	}
	for _, args := range tests {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		fs.SetOutput(io.Discard)
		organizeFlags(fs)
		if err := fs.Parse(args); err == nil {
			t.Errorf("Parse(%v) error = nil, want error", args)
		}
	}
}

// writeCube writes the closed surface of [0,2]³ to dir.
func writeCube(t *testing.T, dir string) string {
	t.Helper()
	m, err := mesh.New([]geometry.Point{
		geometry.Pt(0, 0, 0), geometry.Pt(2, 0, 0), geometry.Pt(2, 2, 0), geometry.Pt(0, 2, 0),
		geometry.Pt(0, 0, 2), geometry.Pt(2, 0, 2), geometry.Pt(2, 2, 2), geometry.Pt(0, 2, 2),
	}, [][3]int{
		{0, 2, 1}, {0, 3, 2},
		{4, 5, 6}, {4, 6, 7},
		{0, 1, 5}, {0, 5, 4},
		{1, 2, 6}, {1, 6, 5},
		{2, 3, 7}, {2, 7, 6},
		{3, 0, 4}, {3, 4, 7},
	})
	if err != nil {
		t.Fatalf("mesh.New: %v", err)
	}
	path := filepath.Join(dir, "cube.json")
	if err := mesh.WriteFile(m, path); err != nil {
		t.Fatalf("mesh.WriteFile: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func TestSliceAndOrganize(t *testing.T) {
	dir := t.TempDir()
	meshPath := writeCube(t, dir)
	layersPath := filepath.Join(dir, "layers.json")

	if err := execute(t, "slice", meshPath, "-o", layersPath, "--layer-height", "0.5", "--max-distance", "1"); err != nil {
		t.Fatalf("slice error = %v", err)
	}
	layers, err := geometry.ReadLayersFile(layersPath)
	if err != nil {
		t.Fatalf("ReadLayersFile() error = %v", err)
	}
	if len(layers) != 1 {
		t.Fatalf("len(layers) = %d, want 1", len(layers))
	}

	base := filepath.Join(dir, "out", "cube")
	err = execute(t, "organize", meshPath, layersPath,
		"--max-layer-height", "1",
		"--boundary-below", "0.01",
		"--format", "json,gcode,dot",
		"--no-cache",
		"-o", base)
	if err != nil {
		t.Fatalf("organize error = %v", err)
	}
	for _, ext := range []string{".json", ".gcode", ".dot"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("missing artifact %s: %v", ext, err)
		}
	}
	pp, err := printorg.ReadPrintPointsFile(base + ".json")
	if err != nil {
		t.Fatalf("ReadPrintPointsFile() error = %v", err)
	}
	if pp.Len() != 1 {
		t.Errorf("print points segments = %d, want 1", pp.Len())
	}
}

func TestOrganizeWithoutBoundaryFails(t *testing.T) {
	dir := t.TempDir()
	meshPath := writeCube(t, dir)
	layersPath := filepath.Join(dir, "layers.json")
	if err := execute(t, "slice", meshPath, "-o", layersPath, "--max-distance", "1"); err != nil {
		t.Fatalf("slice error = %v", err)
	}

	err := execute(t, "organize", meshPath, layersPath, "--max-layer-height", "1", "--no-cache")
	if !errors.Is(err, errors.ErrCodeDataValidity) {
		t.Errorf("organize error = %v, want %s", err, errors.ErrCodeDataValidity)
	}
	if got := errors.ExitCode(err); got != 4 {
		t.Errorf("ExitCode() = %d, want 4", got)
	}
}

func TestConfigFileFeedsOrganize(t *testing.T) {
	dir := t.TempDir()
	meshPath := writeCube(t, dir)
	layersPath := filepath.Join(dir, "layers.json")
	if err := execute(t, "slice", meshPath, "-o", layersPath, "--max-distance", "1"); err != nil {
		t.Fatalf("slice error = %v", err)
	}
	cfg := filepath.Join(dir, "towerpath.toml")
	conf := "max_layer_height = 1\nboundary_below = 0.01\nformats = [\"dot\"]\n\n[cache]\nbackend = \"none\"\n"
	if err := os.WriteFile(cfg, []byte(conf), 0o644); err != nil {
		t.Fatal(err)
	}

	base := filepath.Join(dir, "cfg")
	if err := execute(t, "organize", meshPath, layersPath, "-c", cfg, "-o", base); err != nil {
		t.Fatalf("organize error = %v", err)
	}
	if _, err := os.Stat(base + ".dot"); err != nil {
		t.Errorf("missing dot artifact: %v", err)
	}
	if _, err := os.Stat(base + ".json"); err == nil {
		t.Errorf("json artifact written, want only dot")
	}
}

func TestGraphCommand(t *testing.T) {
	dir := t.TempDir()
	meshPath := writeCube(t, dir)
	layersPath := filepath.Join(dir, "layers.json")
	if err := execute(t, "slice", meshPath, "-o", layersPath, "--max-distance", "1"); err != nil {
		t.Fatalf("slice error = %v", err)
	}

	out := filepath.Join(dir, "graph.dot")
	if err := execute(t, "graph", meshPath, layersPath, "--max-layer-height", "1", "--boundary-below", "0.01", "-o", out); err != nil {
		t.Fatalf("graph error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("graph.dot is empty")
	}

	err = execute(t, "graph", meshPath, layersPath, "--max-layer-height", "1", "--boundary-below", "0.01", "-o", filepath.Join(dir, "graph.png"))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("graph .png error = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
}

func TestCachePathHonorsConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "towerpath.toml")
	if err := os.WriteFile(cfg, []byte("[cache]\nbackend = \"redis\"\nredis_addr = \"localhost:6379\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "-c", cfg, "cache", "path"); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("cache path error = %v, want %s", err, errors.ErrCodeConfiguration)
	}
}
