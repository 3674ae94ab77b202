// Package api serves the organization pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz       liveness probe
//	POST /v1/organize   run the pipeline on a mesh and its vertical layers
//
// An organize request carries the mesh in its JSON file form, the layers
// document and pipeline options:
//
//	{
//	  "mesh":    {"vertices": [...], "faces": [...], "attributes": {...}},
//	  "layers":  {"layers": {"0": {"layer_type": "vertical_layer", "paths": {...}}}},
//	  "options": {"max_layer_height": 2, "formats": ["json", "gcode"]}
//	}
//
// Intermediary outputs write to the server's file system and are not
// available over HTTP; requests setting create_intermediary_outputs or
// output_dir are rejected.
//
// Failures are answered with {"error": CODE, "message": ...}; configuration
// and input errors map to 400, topology and data errors to 422.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/towerpath/pkg/buildinfo"
	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
	"github.com/matzehuels/towerpath/pkg/observability"
	"github.com/matzehuels/towerpath/pkg/pipeline"
)

// DefaultMaxBodyBytes caps the size of an organize request.
const DefaultMaxBodyBytes = 64 << 20

// Server handles API requests with a shared pipeline runner.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	hooks   observability.HTTPHooks
	maxBody int64
	timeout time.Duration
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithHooks sets the HTTP hooks.
func WithHooks(h observability.HTTPHooks) Option { return func(s *Server) { s.hooks = h } }

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option { return func(s *Server) { s.maxBody = n } }

// WithTimeout bounds each organize request. Zero means no limit.
func WithTimeout(d time.Duration) Option { return func(s *Server) { s.timeout = d } }

// New returns a server running requests through runner.
func New(runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		runner:  runner,
		logger:  log.New(io.Discard),
		hooks:   observability.NoopHTTPHooks{},
		maxBody: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.healthz)
	r.Route("/v1", func(r chi.Router) {
		if s.timeout > 0 {
			r.Use(middleware.Timeout(s.timeout))
		}
		r.Post("/organize", s.organize)
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Header().Set("Server", buildinfo.UserAgent())
		s.hooks.OnRequest(r.Context(), r.Method, r.URL.Path)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		s.hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, d)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"request_id", middleware.GetReqID(r.Context()),
			"duration", d)
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

// OrganizeRequest is the body of POST /v1/organize.
type OrganizeRequest struct {
	Mesh    json.RawMessage  `json:"mesh"`
	Layers  json.RawMessage  `json:"layers"`
	Options pipeline.Options `json:"options"`
}

// OrganizeResponse is the body of a successful organize call. PrintPoints
// is set when the json format was requested; the other formats are in
// Artifacts.
type OrganizeResponse struct {
	RunID       string            `json:"run_id"`
	InputHash   string            `json:"input_hash"`
	Order       []int             `json:"order"`
	PrintPoints json.RawMessage   `json:"print_points,omitempty"`
	Artifacts   map[string]string `json:"artifacts,omitempty"`
	Stats       Stats             `json:"stats"`
}

// Stats is the JSON form of pipeline.Stats and CacheInfo.
type Stats struct {
	Segments    int     `json:"segments"`
	Edges       int     `json:"edges"`
	Points      int     `json:"points"`
	Truncated   bool    `json:"truncated,omitempty"`
	OrganizeMS  float64 `json:"organize_ms"`
	RenderMS    float64 `json:"render_ms"`
	OrganizeHit bool    `json:"organize_cache_hit"`
	RenderHit   bool    `json:"render_cache_hit"`
}

func (s *Server) organize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	var req OrganizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request"))
		return
	}
	if req.Options.CreateIntermediaryOutputs || req.Options.OutputDir != "" {
		writeError(w, errors.New(errors.ErrCodeConfiguration, "create_intermediary_outputs and output_dir are not accepted over HTTP"))
		return
	}
	if len(req.Mesh) == 0 || len(req.Layers) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "mesh and layers are required"))
		return
	}
	m, err := mesh.Read(bytes.NewReader(req.Mesh))
	if err != nil {
		writeError(w, err)
		return
	}
	layers, err := geometry.ReadLayers(bytes.NewReader(req.Layers))
	if err != nil {
		writeError(w, err)
		return
	}

	opts := req.Options
	opts.Logger = s.logger
	res, err := s.runner.Execute(r.Context(), pipeline.Input{Mesh: m, Layers: layers}, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := OrganizeResponse{
		RunID:     res.RunID,
		InputHash: res.InputHash,
		Order:     res.Order,
		Stats: Stats{
			Segments:    res.Stats.Segments,
			Edges:       res.Stats.Edges,
			Points:      res.Stats.Points,
			Truncated:   res.Stats.Truncated,
			OrganizeMS:  float64(res.Stats.OrganizeTime.Microseconds()) / 1000,
			RenderMS:    float64(res.Stats.RenderTime.Microseconds()) / 1000,
			OrganizeHit: res.CacheInfo.OrganizeHit,
			RenderHit:   res.CacheInfo.RenderHit,
		},
	}
	for format, data := range res.Artifacts {
		if format == pipeline.FormatJSON {
			resp.PrintPoints = json.RawMessage(data)
			continue
		}
		if resp.Artifacts == nil {
			resp.Artifacts = make(map[string]string)
		}
		resp.Artifacts[format] = string(data)
	}
	writeJSON(w, http.StatusOK, resp)
}

// errorResponse is the body of a failed request.
type errorResponse struct {
	Error   errors.Code `json:"error"`
	Message string      `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		code, status = errors.ErrCodeInvalidInput, http.StatusRequestEntityTooLarge
	}
	writeJSON(w, status, errorResponse{Error: code, Message: errors.UserMessage(err)})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeConfiguration, errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeTopology, errors.ErrCodeDataValidity:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
