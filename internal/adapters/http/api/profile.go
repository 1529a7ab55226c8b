package api

import (
	"context"
	"net/http"

	"github.com/okian/gameboard/internal/domain/stats"
	"github.com/okian/gameboard/pkg/logger"
)

// ProfileDependencies defines the interface for player profiles.
type ProfileDependencies interface {
	PlayerProfile(ctx context.Context, playerID string) (stats.Profile, error)
}

// ProfileHandler handles player profile requests.
type ProfileHandler struct {
	deps   ProfileDependencies
	logger logger.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps ProfileDependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps, logger: logger.Get().Named("api.profile")}
}

// HandleGetProfile handles GET /players/{playerID}/profile.
func (h *ProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_profile"
	id, err := pathParam(r, op, "playerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	p, err := h.deps.PlayerProfile(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
