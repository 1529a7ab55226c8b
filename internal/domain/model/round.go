// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// PlayerRank is one player's outcome within a round. A nil Rank means the
// player did not finish or was left unranked.
type PlayerRank struct {
	PlayerID string `json:"player_id"`
	Rank     *int   `json:"rank,omitempty"`
	Score    *int   `json:"score,omitempty"`
}

// Ranked reports whether the player received a placement.
func (p PlayerRank) Ranked() bool { return p.Rank != nil }

// Won reports whether the player placed first.
func (p PlayerRank) Won() bool { return p.Rank != nil && *p.Rank == 1 }

// Round is one played instance of a game within a group.
type Round struct {
	ID       string       `json:"id"`
	GameID   string       `json:"game_id"`
	GameName string       `json:"game_name"`
	GroupID  string       `json:"group_id"`
	Date     time.Time    `json:"date"`
	Ranks    []PlayerRank `json:"ranks"`
}

// RankOf returns the rank entry of playerID and whether it is present.
func (r Round) RankOf(playerID string) (PlayerRank, bool) {
	for _, pr := range r.Ranks {
		if pr.PlayerID == playerID {
			return pr, true
		}
	}
	return PlayerRank{}, false
}

// Players lists the players of the round in rank-entry order.
func (r Round) Players() []string {
	out := make([]string, 0, len(r.Ranks))
	for _, pr := range r.Ranks {
		out = append(out, pr.PlayerID)
	}
	return out
}

// Placed returns the rank entries that carry a placement.
func (r Round) Placed() []PlayerRank {
	out := make([]PlayerRank, 0, len(r.Ranks))
	for _, pr := range r.Ranks {
		if pr.Ranked() {
			out = append(out, pr)
		}
	}
	return out
}

// WonBy reports whether playerID placed first in the round.
func (r Round) WonBy(playerID string) bool {
	pr, ok := r.RankOf(playerID)
	return ok && pr.Won()
}

// Validate checks the invariants the engine relies on: a game and group are
// named, every player appears once and every present rank is at least 1.
func (r Round) Validate() error {
	if strings.TrimSpace(r.GroupID) == "" {
		return fmt.Errorf("%w: group id is required", ErrInvalidRound)
	}
	if strings.TrimSpace(r.GameID) == "" && strings.TrimSpace(r.GameName) == "" {
		return fmt.Errorf("%w: game is required", ErrInvalidRound)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidRound)
	}
	if len(r.Ranks) == 0 {
		return fmt.Errorf("%w: at least one player rank is required", ErrInvalidRound)
	}
	seen := make(map[string]struct{}, len(r.Ranks))
	for _, pr := range r.Ranks {
		if strings.TrimSpace(pr.PlayerID) == "" {
			return fmt.Errorf("%w: player id is required", ErrInvalidRound)
		}
		if _, dup := seen[pr.PlayerID]; dup {
			return fmt.Errorf("%w: player %s listed twice", ErrInvalidRound, pr.PlayerID)
		}
		seen[pr.PlayerID] = struct{}{}
		if pr.Rank != nil && *pr.Rank < 1 {
			return fmt.Errorf("%w: player %s has rank %d", ErrInvalidRound, pr.PlayerID, *pr.Rank)
		}
	}
	return nil
}

// RoundSubmission is a round queued for ingestion. SubmissionID makes
// resubmission idempotent.
type RoundSubmission struct {
	SubmissionID string    `json:"submission_id"`
	Round        Round     `json:"round"`
	ReceivedAt   time.Time `json:"received_at"`
}

// IntPtr returns a pointer to v. Handy for building ranks.
func IntPtr(v int) *int { return &v }
