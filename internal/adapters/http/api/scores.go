package api

import (
	"context"
	"net/http"

	"github.com/okian/cardrank/internal/domain/model"
	"github.com/okian/cardrank/internal/domain/types"
)

// AnalysisDependencies defines the synchronous analysis operations.
type AnalysisDependencies interface {
	Analyze(ctx context.Context, q model.Query) (*model.Analysis, error)
	Export(ctx context.Context, q model.Query, n int) (string, error)
}

// ScoresHandler serves synchronous analyses.
type ScoresHandler struct {
	deps   AnalysisDependencies
	limits Limits
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps AnalysisDependencies, limits Limits) *ScoresHandler {
	return &ScoresHandler{deps: deps, limits: limits}
}

// HandleGetScores handles GET /scores?commander=&min_event_size=&time_period=&limit=.
func (h *ScoresHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scores"
	params := r.URL.Query()
	q, err := parseQuery(params, h.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	limit, err := parseCount(params, "limit", h.limits.MaxResultLimit, h.limits.MaxResultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	a, err := h.deps.Analyze(r.Context(), q)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromAnalysis(a, limit))
}

// HandleExport handles GET /export?commander=&min_event_size=&time_period=&n=.
func (h *ScoresHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	params := r.URL.Query()
	q, err := parseQuery(params, h.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	n, err := parseCount(params, "n", h.limits.MaxExportSize, h.limits.MaxExportSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	text, err := h.deps.Export(r.Context(), q, n)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	setAttachment(w, q.Commander)
	writeText(w, http.StatusOK, text)
}
