// Package observability provides hooks for metrics, tracing, and logging.
//
// Hooks are passed explicitly to the components that emit events. There is
// no process-wide registry: a caller that wants instrumentation builds a
// [Hooks] value and hands it to the organizer, the cache, or the HTTP API.
// Unset hook sets fall back to no-op implementations via [Hooks.WithDefaults].
//
// # Usage
//
//	rec := observability.NewRecorder()
//	hooks := observability.Hooks{Organizer: rec, Cache: rec}
//	org, _ := printorg.New(m, groups, params, printorg.WithHooks(hooks.Organizer))
//	runner := pipeline.NewRunner(store, nil, logger).WithHooks(hooks)
//
// Components emit events around each unit of work:
//
//	hooks.Organizer.OnStageStart(ctx, "graph")
//	// ... build the graph ...
//	hooks.Organizer.OnStageComplete(ctx, "graph", time.Since(start), err)
package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// =============================================================================
// Organizer Hooks
// =============================================================================

// OrganizerHooks receives events from a print organization run.
type OrganizerHooks interface {
	// OnStageStart is called before a stage (graph, boundaries, ...) runs.
	OnStageStart(ctx context.Context, stage string)

	// OnStageComplete is called after a stage finishes, with its error if any.
	OnStageComplete(ctx context.Context, stage string, duration time.Duration, err error)

	// OnAdvisory reports a non-fatal condition. Execution continues.
	OnAdvisory(ctx context.Context, code, message string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records a completed response.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// Hook sets
// =============================================================================

// Hooks bundles the hook sets a component may emit to. Nil fields are
// replaced by no-ops in [Hooks.WithDefaults].
type Hooks struct {
	Organizer OrganizerHooks
	Cache     CacheHooks
	HTTP      HTTPHooks
}

// WithDefaults returns a copy of h with every nil hook set replaced by its
// no-op implementation.
func (h Hooks) WithDefaults() Hooks {
	if h.Organizer == nil {
		h.Organizer = NoopOrganizerHooks{}
	}
	if h.Cache == nil {
		h.Cache = NoopCacheHooks{}
	}
	if h.HTTP == nil {
		h.HTTP = NoopHTTPHooks{}
	}
	return h
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopOrganizerHooks is a no-op implementation of OrganizerHooks.
type NoopOrganizerHooks struct{}

func (NoopOrganizerHooks) OnStageStart(context.Context, string)                           {}
func (NoopOrganizerHooks) OnStageComplete(context.Context, string, time.Duration, error) {}
func (NoopOrganizerHooks) OnAdvisory(context.Context, string, string)                   {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Logging Implementations
// =============================================================================

// LogHooks forwards organizer and cache events to a structured logger at
// debug level. Advisories are logged as warnings.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log to l.
func NewLogHooks(l *log.Logger) *LogHooks { return &LogHooks{Logger: l} }

func (h *LogHooks) OnStageStart(_ context.Context, stage string) {
	h.Logger.Debug("stage started", "stage", stage)
}

func (h *LogHooks) OnStageComplete(_ context.Context, stage string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("stage failed", "stage", stage, "duration", d, "error", err)
		return
	}
	h.Logger.Debug("stage complete", "stage", stage, "duration", d)
}

func (h *LogHooks) OnAdvisory(_ context.Context, code, message string) {
	h.Logger.Warn(message, "advisory", code)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}
