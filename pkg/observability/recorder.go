package observability

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Event is one recorded hook call.
type Event struct {
	Kind  string // "start", "complete", "advisory", "hit", "miss", "set", "request", "response"
	Name  string // stage, advisory code, cache key type or request path
	Err   error
	Value int // cache entry size or HTTP status
}

// Recorder keeps every event it receives in memory. It implements all hook
// interfaces and is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of all recorded events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Stages returns the names of completed stages in order.
func (r *Recorder) Stages() []string {
	var out []string
	for _, e := range r.Events() {
		if e.Kind == "complete" {
			out = append(out, e.Name)
		}
	}
	return out
}

// Advisories returns the codes of all advisories received.
func (r *Recorder) Advisories() []string {
	var out []string
	for _, e := range r.Events() {
		if e.Kind == "advisory" {
			out = append(out, e.Name)
		}
	}
	return out
}

func (r *Recorder) OnStageStart(_ context.Context, stage string) {
	r.add(Event{Kind: "start", Name: stage})
}

func (r *Recorder) OnStageComplete(_ context.Context, stage string, _ time.Duration, err error) {
	r.add(Event{Kind: "complete", Name: stage, Err: err})
}

func (r *Recorder) OnAdvisory(_ context.Context, code, _ string) {
	r.add(Event{Kind: "advisory", Name: code})
}

func (r *Recorder) OnCacheHit(_ context.Context, keyType string) {
	r.add(Event{Kind: "hit", Name: keyType})
}

func (r *Recorder) OnCacheMiss(_ context.Context, keyType string) {
	r.add(Event{Kind: "miss", Name: keyType})
}

func (r *Recorder) OnCacheSet(_ context.Context, keyType string, size int) {
	r.add(Event{Kind: "set", Name: keyType, Value: size})
}

func (r *Recorder) OnRequest(_ context.Context, _, path string) {
	r.add(Event{Kind: "request", Name: path})
}

func (r *Recorder) OnResponse(_ context.Context, _, path string, status int, _ time.Duration) {
	r.add(Event{Kind: "response", Name: path, Value: status})
}
