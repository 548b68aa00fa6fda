package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	errs "github.com/matzehuels/semtiles/pkg/errors"
	"github.com/matzehuels/semtiles/pkg/graph"
	"github.com/matzehuels/semtiles/pkg/layout"
	"github.com/matzehuels/semtiles/pkg/pipeline"
	"github.com/matzehuels/semtiles/pkg/render/sink"
	"github.com/matzehuels/semtiles/pkg/tessellate"
)

const (
	headerStrategy = "X-Semtiles-Strategy"
	headerStale    = "X-Semtiles-Stale"
	headerSyncJob  = "X-Semtiles-Sync-Job"
	headerCache    = "X-Semtiles-Cache"

	maxBodyBytes = 4 << 20
)

// handleTiles renders one hierarchy level.
func (s *Server) handleTiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts, err := s.viewportOptions(q.Get("width"), q.Get("height"), q.Get("seed"))
	if err != nil {
		writeError(w, err)
		return
	}
	opts.ParentID = q.Get("parentId")
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts.Formats = []string{format}
	opts.NoLabels = q.Get("labels") == "false"
	opts.Refresh = q.Get("refresh") == "true"
	opts.Sync = true

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.logger.Warn("tile request failed", "parent", opts.ParentID, "error", err)
		writeError(w, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", pipeline.ContentTypes[format])
	h.Set(headerStrategy, string(res.Layout.Strategy))
	if res.CacheInfo.StaleListing {
		h.Set(headerStale, "true")
	}
	if res.CacheInfo.RenderHit {
		h.Set(headerCache, "hit")
	} else {
		h.Set(headerCache, "miss")
	}
	if res.SyncJob != "" {
		h.Set(headerSyncJob, res.SyncJob)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// layoutRequest is the body of POST /api/layout.
type layoutRequest struct {
	graph.Listing
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Seed   uint64  `json:"seed"`
	// Polygons adds cell polygons to the response.
	Polygons bool `json:"polygons"`
}

// handleLayout lays out a caller-supplied listing without touching the
// domain store.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.Listing.Validate(); err != nil {
		writeError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid listing"))
		return
	}
	opts := s.defaults(req.Width, req.Height, req.Seed)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, err)
		return
	}

	res, _ := s.runner.Layout(r.Context(), req.Listing, opts)
	var ts *tessellate.Tessellation
	if req.Polygons {
		ts = tessellate.Build(res, opts.Width, opts.Height)
	}
	data, err := sink.RenderJSON(res, opts.Seed, ts)
	if err != nil {
		writeError(w, errs.Wrap(errs.ErrCodeRender, err, "encode layout"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(headerStrategy, string(res.Strategy))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// hitRequest is the body of POST /api/hit.
type hitRequest struct {
	ParentID string  `json:"parentId"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Seed     uint64  `json:"seed"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// hitResponse names the target under a point. Kind is one of none, cell,
// delete or item.
type hitResponse struct {
	Kind     string       `json:"kind"`
	DomainID string       `json:"domainId,omitempty"`
	Name     string       `json:"name,omitempty"`
	Document *layout.Item `json:"document,omitempty"`
	// Confirm is the prompt to show before deleting.
	Confirm string `json:"confirm,omitempty"`
}

// handleHit resolves a click on a rendered level to a single target.
func (s *Server) handleHit(w http.ResponseWriter, r *http.Request) {
	var req hitRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	opts := s.defaults(req.Width, req.Height, req.Seed)
	opts.ParentID = req.ParentID
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, err)
		return
	}

	listing, _, err := s.runner.Fetch(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	res, _ := s.runner.Layout(r.Context(), listing, opts)
	ts := tessellate.Build(res, opts.Width, opts.Height)

	var out hitResponse
	setDomain := func(n layout.Node) { out.DomainID, out.Name = n.ID, n.Label }
	hit := ts.Click(layout.Point{X: req.X, Y: req.Y}, tessellate.Handlers{
		OnDomainClick: setDomain,
		OnDocumentClick: func(item layout.Item) {
			out.Document = &item
		},
		// The server never deletes: it answers with the prompt the client
		// must show before calling DELETE /domains/{id} itself.
		ConfirmDelete: func(n layout.Node) bool {
			setDomain(n)
			out.Confirm = sink.DeleteConfirmation(n.Label)
			return false
		},
		OnDeleteDomain: func(string) {},
	})
	out.Kind = hit.Kind.String()
	if hit.Kind == tessellate.TargetItem {
		setDomain(ts.Cells[hit.Cell].Node)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) defaults(width, height float64, seed uint64) pipeline.Options {
	opts := pipeline.Options{Width: width, Height: height, Seed: seed}
	if opts.Width == 0 {
		opts.Width = s.cfg.Width
	}
	if opts.Height == 0 {
		opts.Height = s.cfg.Height
	}
	if opts.Seed == 0 {
		opts.Seed = s.cfg.Seed
	}
	return opts
}

func (s *Server) viewportOptions(width, height, seed string) (pipeline.Options, error) {
	var (
		w, h float64
		sd   uint64
		err  error
	)
	if width != "" {
		if w, err = strconv.ParseFloat(width, 64); err != nil {
			return pipeline.Options{}, errs.New(errs.ErrCodeInvalidViewport, "invalid width %q", width)
		}
	}
	if height != "" {
		if h, err = strconv.ParseFloat(height, 64); err != nil {
			return pipeline.Options{}, errs.New(errs.ErrCodeInvalidViewport, "invalid height %q", height)
		}
	}
	if seed != "" {
		if sd, err = strconv.ParseUint(seed, 10, 64); err != nil {
			return pipeline.Options{}, errs.New(errs.ErrCodeInvalidInput, "invalid seed %q", seed)
		}
	}
	return s.defaults(w, h, sd), nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "read body")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the {"error": ...} envelope the domain store also uses.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": errs.UserMessage(err)})
}

func statusFor(err error) int {
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidViewport, errs.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errs.ErrCodeNotFound, errs.ErrCodeDomainNotFound, errs.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errs.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	case errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrCodeNetwork, errs.ErrCodeStore:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
