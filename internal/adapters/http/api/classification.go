package api

import (
	"context"
	"net/http"

	"github.com/okian/racerank/internal/domain/types"
)

// ClassificationDependencies defines the interface for reading the classification.
type ClassificationDependencies interface {
	Classification(ctx context.Context) ([]types.ClassificationEntry, error)
}

// ClassificationHandler handles classification requests.
type ClassificationHandler struct {
	deps ClassificationDependencies
}

// NewClassificationHandler creates a new classification handler.
func NewClassificationHandler(deps ClassificationDependencies) *ClassificationHandler {
	return &ClassificationHandler{deps: deps}
}

// HandleGetClassification handles GET /classification requests, returning
// every (member, race) entry.
func (h *ClassificationHandler) HandleGetClassification(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.Classification(r.Context())
	if err != nil {
		writeFailure(w, Wrap("api.get_classification", err))
		return
	}
	if entries == nil {
		entries = []types.ClassificationEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
