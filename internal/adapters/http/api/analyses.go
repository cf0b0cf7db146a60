package api

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"

	"github.com/okian/cardrank/internal/domain/export"
	"github.com/okian/cardrank/internal/domain/model"
	"github.com/okian/cardrank/internal/domain/types"
)

// JobDependencies defines the asynchronous job operations.
type JobDependencies interface {
	Submit(ctx context.Context, q model.Query) (model.Job, error)
	Job(ctx context.Context, id string) (model.Job, error)
	ExportJob(ctx context.Context, id string, n int) (string, error)
}

// AnalysesHandler serves the job routes.
type AnalysesHandler struct {
	deps   JobDependencies
	limits Limits
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(deps JobDependencies, limits Limits) *AnalysesHandler {
	return &AnalysesHandler{deps: deps, limits: limits}
}

// HandleSubmit handles POST /analyses.
func (h *AnalysesHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_analysis"
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	q, err := req.toQuery(h.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	job, err := h.deps.Submit(r.Context(), q)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	w.Header().Set("Location", "/analyses/"+job.ID)
	writeJSON(w, http.StatusAccepted, types.FromJob(job, 0))
}

// HandleGetJob handles GET /analyses/{id}?limit=.
func (h *AnalysesHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_analysis"
	limit, err := parseCount(r.URL.Query(), "limit", h.limits.MaxResultLimit, h.limits.MaxResultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	job, err := h.deps.Job(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromJob(job, limit))
}

// HandleExportJob handles GET /analyses/{id}/export?n=.
func (h *AnalysesHandler) HandleExportJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_analysis"
	n, err := parseCount(r.URL.Query(), "n", h.limits.MaxExportSize, h.limits.MaxExportSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	id := r.PathValue("id")
	text, err := h.deps.ExportJob(r.Context(), id, n)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if job, err := h.deps.Job(r.Context(), id); err == nil {
		setAttachment(w, job.Query.Commander)
	}
	writeText(w, http.StatusOK, text)
}

func setAttachment(w http.ResponseWriter, commander string) {
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename(commander)}))
}
