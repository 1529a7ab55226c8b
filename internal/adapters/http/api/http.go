// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/gameboard/internal/adapters/repository"
	"github.com/okian/gameboard/internal/domain/model"
	"github.com/okian/gameboard/internal/domain/scoring"
	"github.com/okian/gameboard/internal/domain/stats"
	"github.com/okian/gameboard/internal/domain/types"
	"github.com/okian/gameboard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider

	Statistic(ctx context.Context, groupID, kind, selector string) (types.StatisticResult, error)
	Trophies(ctx context.Context, groupID string) (types.TrophyBoard, error)
	InvalidateTrophies(ctx context.Context, groupID string) bool
	BracketScores(ctx context.Context, tournamentID string) (types.BracketResult, error)
	PlayerProfile(ctx context.Context, playerID string) (stats.Profile, error)

	// SubmitRound queues a round. Returns a duplicate result for a known
	// submission id and an error wrapping a backpressure kind when full.
	SubmitRound(ctx context.Context, sub model.RoundSubmission) (types.SubmitResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	statisticsHandler *StatisticsHandler
	bracketHandler    *BracketHandler
	profileHandler    *ProfileHandler
	roundsHandler     *RoundsHandler
	logger            logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, backpressure error) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		statisticsHandler: NewStatisticsHandler(deps),
		bracketHandler:    NewBracketHandler(deps),
		profileHandler:    NewProfileHandler(deps),
		roundsHandler:     NewRoundsHandler(deps, backpressure),
		logger:            logger.Get().Named("api"),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(MetricsMiddleware)

		r.Get("/healthz", s.healthHandler.HandleHealth)
		r.Get("/stats", s.statsHandler.HandleStats)

		r.Route("/groups/{groupID}", func(r chi.Router) {
			r.Get("/statistics/{kind}", s.statisticsHandler.HandleGetStatistic)
			r.Get("/trophies", s.statisticsHandler.HandleGetTrophies)
			r.Delete("/trophies", s.statisticsHandler.HandleInvalidateTrophies)
		})
		r.Get("/tournaments/{tournamentID}/scores", s.bracketHandler.HandleGetScores)
		r.Get("/players/{playerID}/profile", s.profileHandler.HandleGetProfile)
		r.Post("/rounds", s.roundsHandler.HandlePostRound)
	})
	r.Method(http.MethodGet, "/metrics", s.healthHandler.MetricsHandler())
}

// Routes returns a router with the common middleware and every API route.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	s.Register(r)
	return r
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

// pathParam returns the decoded route parameter name. chi matches on the
// escaped path, so a value like "Ticket%2FRide" arrives still encoded.
func pathParam(r *http.Request, op, name string) (string, error) {
	v, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil {
		return "", WrapKind(op, ErrBadRequest, err)
	}
	return v, nil
}

// writeServiceError maps domain error kinds onto HTTP statuses.
func writeServiceError(ctx context.Context, w http.ResponseWriter, l logger.Logger, op string, err error) {
	wrapped := Wrap(op, err)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", wrapped)
	case errors.Is(err, scoring.ErrDataInconsistency):
		writeError(w, http.StatusConflict, "data_inconsistency", wrapped)
	case errors.Is(err, model.ErrInvalidRound), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", wrapped)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "unavailable", wrapped)
	default:
		l.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", wrapped)
	}
}
