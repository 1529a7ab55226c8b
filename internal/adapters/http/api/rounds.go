package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/gameboard/internal/domain/model"
	"github.com/okian/gameboard/internal/domain/types"
	"github.com/okian/gameboard/pkg/logger"
)

const maxRoundBody = 1 << 20

// RoundDependencies defines the interface for round submission.
type RoundDependencies interface {
	SubmitRound(ctx context.Context, sub model.RoundSubmission) (types.SubmitResult, error)
}

// RoundsHandler handles round submissions.
type RoundsHandler struct {
	deps         RoundDependencies
	backpressure error
	logger       logger.Logger
}

// NewRoundsHandler creates a new rounds handler. Errors matching
// backpressure answer 429.
func NewRoundsHandler(deps RoundDependencies, backpressure error) *RoundsHandler {
	if backpressure == nil {
		backpressure = ErrBackpressure
	}
	return &RoundsHandler{deps: deps, backpressure: backpressure, logger: logger.Get().Named("api.rounds")}
}

// roundRequest mirrors the OpenAPI schema for POST /rounds.
type roundRequest struct {
	SubmissionID string        `json:"submission_id"`
	RoundID      string        `json:"round_id"`
	GroupID      string        `json:"group_id"`
	GameID       string        `json:"game_id"`
	GameName     string        `json:"game_name"`
	Date         string        `json:"date"`
	Ranks        []rankRequest `json:"ranks"`
}

type rankRequest struct {
	PlayerID string `json:"player_id"`
	Rank     *int   `json:"rank"`
	Score    *int   `json:"score"`
}

func (req roundRequest) validate() error {
	switch {
	case strings.TrimSpace(req.GroupID) == "":
		return errors.New("missing group_id")
	case strings.TrimSpace(req.GameID) == "" && strings.TrimSpace(req.GameName) == "":
		return errors.New("missing game_id or game_name")
	case strings.TrimSpace(req.Date) == "":
		return errors.New("missing date")
	case len(req.Ranks) == 0:
		return errors.New("missing ranks")
	}
	if _, err := parseDate(req.Date); err != nil {
		return err
	}
	return nil
}

func (req roundRequest) submission(now time.Time) model.RoundSubmission {
	date, _ := parseDate(req.Date)
	ranks := make([]model.PlayerRank, 0, len(req.Ranks))
	for _, rr := range req.Ranks {
		ranks = append(ranks, model.PlayerRank{PlayerID: rr.PlayerID, Rank: rr.Rank, Score: rr.Score})
	}
	return model.RoundSubmission{
		SubmissionID: req.SubmissionID,
		ReceivedAt:   now,
		Round: model.Round{
			ID:       req.RoundID,
			GameID:   req.GameID,
			GameName: req.GameName,
			GroupID:  req.GroupID,
			Date:     date,
			Ranks:    ranks,
		},
	}
}

// parseDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q; must be RFC3339 or YYYY-MM-DD", s)
}

type ackResponse struct {
	Status       string `json:"status"`
	Duplicate    bool   `json:"duplicate"`
	SubmissionID string `json:"submission_id"`
	RoundID      string `json:"round_id"`
}

// HandlePostRound handles POST /rounds. A new submission answers 202, a known
// submission id 200, a full queue 429.
func (h *RoundsHandler) HandlePostRound(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_round"
	var req roundRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRoundBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.SubmitRound(r.Context(), req.submission(time.Now()))
	switch {
	case errors.Is(err, h.backpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
		return
	case err != nil:
		writeServiceError(r.Context(), w, h.logger, op, err)
		return
	}

	ack := ackResponse{Status: "accepted", SubmissionID: res.SubmissionID, RoundID: res.RoundID}
	if res.Duplicate {
		ack.Status, ack.Duplicate = "duplicate", true
		writeJSON(w, http.StatusOK, ack)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}
