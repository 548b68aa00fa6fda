package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/semtiles/pkg/domainstore"
	errs "github.com/matzehuels/semtiles/pkg/errors"
	"github.com/matzehuels/semtiles/pkg/graph"
	"github.com/matzehuels/semtiles/pkg/observability/prom"
	"github.com/matzehuels/semtiles/pkg/pipeline"
	"github.com/matzehuels/semtiles/pkg/possync"
)

type stubSource struct {
	listings map[string]graph.Listing
}

func (s *stubSource) Domains(_ context.Context, parentID string) (*domainstore.ListingResult, error) {
	l, ok := s.listings[parentID]
	if !ok {
		return nil, errs.New(errs.ErrCodeDomainNotFound, "domain %s not found", parentID)
	}
	return &domainstore.ListingResult{ParentID: parentID, Listing: l}, nil
}

type memPersister struct {
	mu    sync.Mutex
	saved []graph.Positions
}

func (p *memPersister) SavePositions(_ context.Context, pos graph.Positions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, pos)
	return nil
}

func (p *memPersister) Backend() string { return "memory" }

func (p *memPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saved)
}

func fptr(v float64) *float64 { return &v }

func testListings() map[string]graph.Listing {
	return map[string]graph.Listing{
		"": {
			Domains: []graph.Domain{
				{ID: "a", Name: "Alpha"},
				{ID: "b", Name: "Beta"},
				{ID: "c", Name: "Gamma"},
			},
			SemanticDistances: map[string]float64{"a|b": 0.2, "b|c": 0.5},
		},
		"placed": {
			Domains: []graph.Domain{
				{ID: "p1", Name: "Left", X: fptr(200), Y: fptr(300)},
				{ID: "p2", Name: "Right", X: fptr(600), Y: fptr(300), Documents: []graph.Document{
					{ID: "d1", Name: "paper.pdf", Path: "p2/paper.pdf"},
				}},
			},
		},
	}
}

func newTestServer(t *testing.T, metrics *prom.Registry) (*httptest.Server, *memPersister, *possync.Syncer) {
	t.Helper()
	logger := log.New(io.Discard)
	p := &memPersister{}
	syncer := possync.NewSyncer(p, logger, 0)
	runner := pipeline.NewRunner(&stubSource{listings: testListings()}, nil, nil, syncer, logger)
	srv := New(Config{Addr: ":0"}, runner, metrics, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, p, syncer
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestHealthz(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestTilesSVG(t *testing.T) {
	ts, p, syncer := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/tiles?width=800&height=600")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q, want image/svg+xml", ct)
	}
	if got := resp.Header.Get(headerStrategy); got != "force" {
		t.Errorf("strategy = %q, want force", got)
	}
	if resp.Header.Get(headerSyncJob) == "" {
		t.Error("missing sync job header")
	}
	if !bytes.Contains(body, []byte("<svg")) {
		t.Error("body is not an SVG document")
	}

	syncer.Wait()
	if got := p.count(); got != 1 {
		t.Errorf("position writes = %d, want 1", got)
	}
}

func TestTilesJSON(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/tiles?parentId=placed&format=json")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	l, err := graph.UnmarshalLayout(data)
	if err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	if l.Strategy != "preserve" || len(l.Cells) != 2 {
		t.Errorf("layout = %+v", l)
	}
	if l.Cells[0].X != 200 || l.Cells[0].Y != 300 {
		t.Errorf("p1 at (%g,%g), want (200,300)", l.Cells[0].X, l.Cells[0].Y)
	}
}

func TestTilesErrors(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"bad format", "format=gif", http.StatusBadRequest},
		{"bad width", "width=wide", http.StatusBadRequest},
		{"negative height", "height=-5", http.StatusBadRequest},
		{"bad seed", "seed=-1", http.StatusBadRequest},
		{"unknown parent", "parentId=missing", http.StatusNotFound},
		{"traversal", "parentId=..%2Fetc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/api/tiles?" + tt.query)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if msg := decodeError(t, resp); msg == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestLayoutEndpoint(t *testing.T) {
	ts, p, syncer := newTestServer(t, nil)

	body := `{"domains":[{"id":"x","name":"X"},{"id":"y","name":"Y"},{"id":"z","name":"Z"}],
		"semanticDistances":{},"width":400,"height":400,"polygons":true}`
	resp, err := http.Post(ts.URL+"/api/layout", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, data)
	}
	l, err := graph.UnmarshalLayout(data)
	if err != nil {
		t.Fatal(err)
	}
	if l.Strategy != "circular" || l.Width != 400 {
		t.Errorf("strategy=%s width=%g, want circular 400", l.Strategy, l.Width)
	}
	for _, c := range l.Cells {
		if len(c.Polygon) < 3 {
			t.Errorf("cell %s has no polygon", c.ID)
		}
	}

	syncer.Wait()
	if got := p.count(); got != 0 {
		t.Errorf("stateless layout wrote %d position sets", got)
	}
}

func TestLayoutEndpointRejectsBadBody(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)

	for _, body := range []string{
		`not json`,
		`{"domains":[{"id":"a"},{"id":"a"}]}`,
		`{"domains":[{"id":"a"}],"width":-1}`,
	} {
		resp, err := http.Post(ts.URL+"/api/layout", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestHitEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)

	tests := []struct {
		name     string
		x, y     float64
		kind     string
		domainID string
	}{
		{"left body", 150, 300, "cell", "p1"},
		{"right body", 700, 100, "cell", "p2"},
		{"delete control", 230, 270, "delete", "p1"},
		{"document glyph", 600, 340, "item", "p2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(hitRequest{ParentID: "placed", Width: 800, Height: 600, X: tt.x, Y: tt.y})
			resp, err := http.Post(ts.URL+"/api/hit", "application/json", bytes.NewReader(body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			var got hitResponse
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatal(err)
			}
			if got.Kind != tt.kind || got.DomainID != tt.domainID {
				t.Errorf("hit = %+v, want kind %s domain %s", got, tt.kind, tt.domainID)
			}
			switch tt.kind {
			case "item":
				if got.Document == nil || got.Document.ID != "d1" {
					t.Errorf("document = %+v, want d1", got.Document)
				}
			case "delete":
				if !strings.Contains(got.Confirm, `"Left"`) {
					t.Errorf("confirm = %q", got.Confirm)
				}
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prom.NewRegistry()
	ts, _, _ := newTestServer(t, reg)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), `semtiles_http_requests_total{method="GET",route="/healthz",status="200"}`) {
		t.Errorf("metrics missing healthz request:\n%s", data)
	}
}

func TestMetricsDisabled(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCORS(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errs.Code
		want int
	}{
		{errs.ErrCodeInvalidInput, http.StatusBadRequest},
		{errs.ErrCodeInvalidViewport, http.StatusBadRequest},
		{errs.ErrCodeDomainNotFound, http.StatusNotFound},
		{errs.ErrCodeTimeout, http.StatusGatewayTimeout},
		{errs.ErrCodeNetwork, http.StatusBadGateway},
		{errs.ErrCodeRender, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(errs.New(tt.code, "x")); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
