package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/framelink/pkg/buildinfo"
	"github.com/matzehuels/framelink/pkg/errors"
	pio "github.com/matzehuels/framelink/pkg/io"
	"github.com/matzehuels/framelink/pkg/link"
	"github.com/matzehuels/framelink/pkg/pipeline"
	"github.com/matzehuels/framelink/pkg/scene"
	"github.com/matzehuels/framelink/pkg/session"
)

// maxBody bounds request bodies.
const maxBody = 32 << 20

// Handler holds API route handlers.
type Handler struct {
	runner *pipeline.Runner
	logger *log.Logger
}

// NewHandler creates a new Handler.
func NewHandler(runner *pipeline.Runner, logger *log.Logger) *Handler {
	return &Handler{runner: runner, logger: logger}
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: buildinfo.Version})
}

// Apply handles POST /apply.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := project(req.Project)
	if err != nil {
		writeError(w, err)
		return
	}
	out, hit, err := h.runner.Apply(r.Context(), p, req.Ops)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ApplyResponse{Project: out, Cached: hit})
}

// Validate handles POST /validate.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := project(req.Project)
	if err != nil {
		writeError(w, err)
		return
	}
	mode, err := link.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	violations, hit, err := h.runner.Validate(r.Context(), p, mode)
	if err != nil {
		writeError(w, err)
		return
	}
	if violations == nil {
		violations = []string{}
	}
	writeJSON(w, http.StatusOK, ValidateResponse{Valid: len(violations) == 0, Violations: violations, Cached: hit})
}

// Linked handles POST /linked.
func (h *Handler) Linked(w http.ResponseWriter, r *http.Request) {
	var req LinkedRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := errors.ValidateID("layer id", req.Layer); err != nil {
		writeError(w, err)
		return
	}
	p, err := project(req.Project)
	if err != nil {
		writeError(w, err)
		return
	}
	mode, err := link.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	if f, _ := p.Frames.Locate(req.Layer); f == nil {
		writeError(w, errors.New(errors.ErrCodeNotFound, "layer %q not found", req.Layer))
		return
	}
	ed, err := session.NewEditor(p, session.Options{Logger: h.logger, AnimationScope: h.runner.AnimationScope})
	if err != nil {
		writeError(w, err)
		return
	}
	resp := LinkedResponse{Layer: req.Layer, Mode: string(mode), Linked: []string{}, Frames: map[string]string{}}
	for _, id := range ed.LinkedLayers(req.Layer, mode) {
		resp.Linked = append(resp.Linked, id)
		if fid, ok := ed.FrameOf(id); ok {
			resp.Frames[id] = fid
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Graph handles POST /graph. The body is the rendered graph, not JSON.
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	var req GraphRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Format == "" {
		req.Format = pipeline.FormatSVG
	}
	p, err := project(req.Project)
	if err != nil {
		writeError(w, err)
		return
	}
	mode, err := link.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	data, hit, err := h.runner.Graph(r.Context(), p, mode, req.Format)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType(req.Format))
	if hit {
		w.Header().Set("X-Cache", "hit")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPDF:
		return "application/pdf"
	case pipeline.FormatPNG:
		return "image/png"
	default:
		return "text/vnd.graphviz; charset=utf-8"
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid request body")
	}
	return nil
}

func project(raw json.RawMessage) (*scene.Project, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "project is required")
	}
	return pio.Unmarshal(raw)
}
