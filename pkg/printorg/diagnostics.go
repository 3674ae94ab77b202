package printorg

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"

	"github.com/matzehuels/towerpath/pkg/errors"
)

// Names of the intermediary artifacts.
const (
	BoundariesArtifact = "boundaries.json"
	GraphArtifact      = "segments.dot"
)

// DiagnosticsSink receives intermediary artifacts. They are for inspection
// only; nothing reads them back.
type DiagnosticsSink interface {
	Put(ctx context.Context, name string, data []byte) error
}

// FileSink writes artifacts into a directory, creating it on first use.
type FileSink struct {
	Dir string
}

func (s FileSink) Put(_ context.Context, name string, data []byte) error {
	if err := errors.ValidateFilename(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory")
	}
	return os.WriteFile(filepath.Join(s.Dir, name), data, 0o644)
}

// MemorySink keeps artifacts in memory. It is safe for concurrent use.
type MemorySink struct {
	mu    sync.Mutex
	items map[string][]byte
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink { return &MemorySink{items: make(map[string][]byte)} }

func (s *MemorySink) Put(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[name] = slices.Clone(data)
	return nil
}

// Get returns a stored artifact.
func (s *MemorySink) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.items[name]
	return data, ok
}

// Names returns the stored artifact names, sorted.
func (s *MemorySink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.items))
	for k := range s.items {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// boundariesJSON encodes {segment_id: {"boundary_points": [...]}}.
func boundariesJSON(segments []*Segment) ([]byte, error) {
	out := make(map[string]BoundaryData, len(segments))
	for _, s := range segments {
		out[strconv.Itoa(s.ID)] = s.Boundary.ToData()
	}
	return json.MarshalIndent(out, "", "  ")
}
