package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/racerank/internal/domain/types"
)

// JobDependencies defines the interface for job status lookups.
type JobDependencies interface {
	Job(ctx context.Context, id string) (types.JobStatus, error)
}

// JobsHandler handles job status requests.
type JobsHandler struct {
	deps JobDependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobDependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

// HandleGetJob handles GET /jobs/{id} requests.
func (h *JobsHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_job"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	st, err := h.deps.Job(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}
