package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
	"github.com/matzehuels/towerpath/pkg/observability"
	"github.com/matzehuels/towerpath/pkg/pipeline"
)

func cube(t *testing.T) *mesh.Mesh {
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
	return m
}

// requestBody encodes an organize request for the sliced cube.
func requestBody(t *testing.T, options string) []byte {
	t.Helper()
	m := cube(t)
	layers, err := pipeline.Slice(context.Background(), m, pipeline.SliceOptions{LayerHeight: 0.5, MaxDistance: 1})
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	var meshJSON bytes.Buffer
	if err := mesh.Write(m, &meshJSON); err != nil {
		t.Fatal(err)
	}
	layersJSON, err := geometry.MarshalLayers(layers)
	if err != nil {
		t.Fatal(err)
	}
	body, err := json.Marshal(map[string]json.RawMessage{
		"mesh":    meshJSON.Bytes(),
		"layers":  layersJSON,
		"options": json.RawMessage(options),
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(pipeline.NewRunner(nil, nil, nil), opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/organize", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Server"); !strings.HasPrefix(got, "towerpath/") {
		t.Errorf("Server header = %q", got)
	}
}

func TestOrganize(t *testing.T) {
	rec := observability.NewRecorder()
	srv := newTestServer(t, WithHooks(rec))

	resp := post(t, srv, requestBody(t, `{"max_layer_height": 1, "boundary_below": 0.01, "formats": ["json", "dot"]}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out OrganizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if diff := cmp.Diff([]int{0}, out.Order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if out.RunID == "" || out.InputHash == "" {
		t.Errorf("run_id = %q, input_hash = %q", out.RunID, out.InputHash)
	}
	if out.Stats.Segments != 1 || out.Stats.Points == 0 {
		t.Errorf("stats = %+v", out.Stats)
	}
	if !bytes.Contains(out.PrintPoints, []byte(`"layer_0"`)) {
		t.Errorf("print_points missing layer_0: %s", out.PrintPoints)
	}
	if !strings.Contains(out.Artifacts["dot"], "digraph") {
		t.Errorf("dot artifact = %q", out.Artifacts["dot"])
	}

	want := []observability.Event{
		{Kind: "request", Name: "/v1/organize"},
		{Kind: "response", Name: "/v1/organize", Value: http.StatusOK},
	}
	if diff := cmp.Diff(want, rec.Events()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestOrganizeErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		body       []byte
		wantStatus int
		wantCode   errors.Code
	}{
		{"malformed", []byte(`{"mesh":`), http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"missing layers", []byte(`{"mesh": {"vertices": [], "faces": []}}`), http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad option", requestBody(t, `{"max_layer_height": 0}`), http.StatusBadRequest, errors.ErrCodeConfiguration},
		{"no root boundary", requestBody(t, `{"max_layer_height": 1}`), http.StatusUnprocessableEntity, errors.ErrCodeDataValidity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var out errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if out.Error != tt.wantCode {
				t.Errorf("error code = %q, want %q", out.Error, tt.wantCode)
			}
		})
	}
}

func TestOrganizeLayerType(t *testing.T) {
	srv := newTestServer(t)
	body := requestBody(t, `{"max_layer_height": 1, "boundary_below": 0.01}`)
	if !bytes.Contains(body, []byte(`"layer_type":"vertical_layer"`)) {
		t.Fatalf("request layers lack layer_type vertical_layer: %s", body)
	}
	if resp := post(t, srv, body); resp.StatusCode != http.StatusOK {
		t.Errorf("vertical_layer status = %d, want 200", resp.StatusCode)
	}

	bad := bytes.ReplaceAll(body, []byte(`"vertical_layer"`), []byte(`"vertical"`))
	resp := post(t, srv, bad)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("vertical status = %d, want 400", resp.StatusCode)
	}
	var out errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if out.Error != errors.ErrCodeInvalidFormat {
		t.Errorf("error code = %q, want %q", out.Error, errors.ErrCodeInvalidFormat)
	}
}

func TestOrganizeRejectsServerSideOutputs(t *testing.T) {
	srv := newTestServer(t)
	dir := filepath.Join(t.TempDir(), "diagnostics")

	tests := []struct {
		name    string
		options string
	}{
		{"intermediary outputs", fmt.Sprintf(`{"max_layer_height": 1, "boundary_below": 0.01, "create_intermediary_outputs": true, "output_dir": %q}`, dir)},
		{"output dir only", fmt.Sprintf(`{"max_layer_height": 1, "boundary_below": 0.01, "output_dir": %q}`, dir)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, requestBody(t, tt.options))
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
			var out errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if out.Error != errors.ErrCodeConfiguration {
				t.Errorf("error code = %q, want %q", out.Error, errors.ErrCodeConfiguration)
			}
			if _, err := os.Stat(dir); !os.IsNotExist(err) {
				t.Errorf("output dir was created: stat error = %v", err)
			}
		})
	}
}

func TestOrganizeBodyLimit(t *testing.T) {
	srv := newTestServer(t, WithMaxBodyBytes(16))
	resp := post(t, srv, requestBody(t, `{}`))
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeConfiguration, http.StatusBadRequest},
		{errors.ErrCodeTopology, http.StatusUnprocessableEntity},
		{errors.ErrCodeDataValidity, http.StatusUnprocessableEntity},
		{errors.ErrCodeUnsupported, http.StatusNotImplemented},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
