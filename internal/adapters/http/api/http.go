// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/okian/racerank/internal/adapters/repository"
	service "github.com/okian/racerank/internal/app"
	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/domain/types"
)

// defaultMaxLimit caps GET /standings when no limit is configured.
const defaultMaxLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit queues a result file for parsing.
	Submit(ctx context.Context, j model.Job) (types.SubmitResult, error)
	Job(ctx context.Context, id string) (types.JobStatus, error)

	// Read operations expose the season classification.
	Classification(ctx context.Context) ([]types.ClassificationEntry, error)
	Standings(ctx context.Context, n int) ([]types.Standing, error)
	Rank(ctx context.Context, firstName, lastName string) (types.Standing, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler         *HealthHandler
	statsHandler          *StatsHandler
	racesHandler          *RacesHandler
	jobsHandler           *JobsHandler
	classificationHandler *ClassificationHandler
	standingsHandler      *StandingsHandler
	rankHandler           *RankHandler
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithUploadDir sets where uploaded result files are stored until parsed.
func WithUploadDir(dir string) ServerOption {
	return func(s *Server) {
		if dir != "" {
			s.racesHandler.uploadDir = dir
		}
	}
}

// WithPathRoot allows JSON submissions naming files under dir. Without it
// only multipart uploads are accepted.
func WithPathRoot(dir string) ServerOption {
	return func(s *Server) {
		s.racesHandler.pathRoot = dir
	}
}

// WithMaxUploadBytes bounds the size of an uploaded result file.
func WithMaxUploadBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.racesHandler.maxBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers. maxLimit caps
// GET /standings; a non-positive value uses the default.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int, opts ...ServerOption) *Server {
	if maxLimit < 1 {
		maxLimit = defaultMaxLimit
	}
	s := &Server{
		healthHandler:         NewHealthHandler(),
		statsHandler:          NewStatsHandler(statsProvider),
		racesHandler:          NewRacesHandler(deps, os.TempDir()),
		jobsHandler:           NewJobsHandler(deps),
		classificationHandler: NewClassificationHandler(deps),
		standingsHandler:      NewStandingsHandler(deps, maxLimit),
		rankHandler:           NewRankHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /races", MetricsMiddleware(s.racesHandler.HandlePostRace, "races"))
	mux.HandleFunc("GET /jobs/{id}", MetricsMiddleware(s.jobsHandler.HandleGetJob, "jobs"))
	mux.HandleFunc("GET /classification", MetricsMiddleware(s.classificationHandler.HandleGetClassification, "classification"))
	mux.HandleFunc("GET /standings", MetricsMiddleware(s.standingsHandler.HandleGetStandings, "standings"))
	mux.HandleFunc("GET /rank", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure translates upstream errors to a status and error code.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidJob),
		errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrUnsupportedFile):
		writeError(w, http.StatusBadRequest, "unsupported_file", err)
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, ErrNotFound),
		errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrBackpressure),
		errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
