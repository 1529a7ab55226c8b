package api

import (
	"context"
	"net/http"

	"github.com/okian/gameboard/internal/domain/types"
	"github.com/okian/gameboard/pkg/logger"
)

// StatisticsDependencies defines the read operations behind the statistics
// and trophy routes.
type StatisticsDependencies interface {
	Statistic(ctx context.Context, groupID, kind, selector string) (types.StatisticResult, error)
	Trophies(ctx context.Context, groupID string) (types.TrophyBoard, error)
	InvalidateTrophies(ctx context.Context, groupID string) bool
}

// StatisticsHandler handles statistic and trophy requests.
type StatisticsHandler struct {
	deps   StatisticsDependencies
	logger logger.Logger
}

// NewStatisticsHandler creates a new statistics handler.
func NewStatisticsHandler(deps StatisticsDependencies) *StatisticsHandler {
	return &StatisticsHandler{deps: deps, logger: logger.Get().Named("api.statistics")}
}

// HandleGetStatistic handles GET /groups/{groupID}/statistics/{kind}?window=.
// The kind is either a built-in statistic or a game name.
func (h *StatisticsHandler) HandleGetStatistic(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_statistic"
	groupID, err := pathParam(r, op, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	kind, err := pathParam(r, op, "kind")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if kind == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	res, err := h.deps.Statistic(r.Context(), groupID, kind, r.URL.Query().Get("window"))
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGetTrophies handles GET /groups/{groupID}/trophies.
func (h *StatisticsHandler) HandleGetTrophies(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_trophies"
	groupID, err := pathParam(r, op, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	board, err := h.deps.Trophies(r.Context(), groupID)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

type invalidateResponse struct {
	GroupID     string `json:"group_id"`
	Invalidated bool   `json:"invalidated"`
}

// HandleInvalidateTrophies handles DELETE /groups/{groupID}/trophies.
func (h *StatisticsHandler) HandleInvalidateTrophies(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathParam(r, "api.invalidate_trophies", "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	ok := h.deps.InvalidateTrophies(r.Context(), groupID)
	writeJSON(w, http.StatusOK, invalidateResponse{GroupID: groupID, Invalidated: ok})
}
