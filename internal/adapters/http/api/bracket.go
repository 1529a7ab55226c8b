package api

import (
	"context"
	"net/http"

	"github.com/okian/gameboard/internal/domain/types"
	"github.com/okian/gameboard/pkg/logger"
)

// BracketDependencies defines the interface for bracket scoring.
type BracketDependencies interface {
	BracketScores(ctx context.Context, tournamentID string) (types.BracketResult, error)
}

// BracketHandler handles tournament score requests.
type BracketHandler struct {
	deps   BracketDependencies
	logger logger.Logger
}

// NewBracketHandler creates a new bracket handler.
func NewBracketHandler(deps BracketDependencies) *BracketHandler {
	return &BracketHandler{deps: deps, logger: logger.Get().Named("api.bracket")}
}

// HandleGetScores handles GET /tournaments/{tournamentID}/scores. A ranked
// player on no roster answers 409.
func (h *BracketHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_bracket_scores"
	id, err := pathParam(r, op, "tournamentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	res, err := h.deps.BracketScores(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
