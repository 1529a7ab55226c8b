// Package repository stores groups, players, games, rounds and tournaments
// and serves the read queries the statistics engine runs.
package repository

import (
	"context"
	"time"

	"github.com/okian/gameboard/internal/domain/model"
	"github.com/okian/gameboard/internal/domain/window"
)

// Reader is the read side consumed by the statistics engine and the bracket
// scorer.
type Reader interface {
	// PlayersInGroup lists a group's members in membership order.
	// Returns ErrNotFound if the group is unknown.
	PlayersInGroup(ctx context.Context, groupID string) ([]string, error)

	// RoundsForPlayer returns the rounds playerID took part in within w,
	// in any group, ordered by date.
	RoundsForPlayer(ctx context.Context, playerID string, w window.Window) ([]model.Round, error)

	// RoundsForGroup returns the rounds recorded by groupID within w, ordered
	// by date.
	RoundsForGroup(ctx context.Context, groupID string, w window.Window) ([]model.Round, error)

	// OldestRoundDate returns the date of the oldest recorded round. The
	// boolean is false when no round exists.
	OldestRoundDate(ctx context.Context) (time.Time, bool, error)

	// Games lists every known game ordered by name.
	Games(ctx context.Context) ([]model.Game, error)

	// Game resolves a game by ID, falling back to its name. Returns
	// ErrNotFound if neither matches.
	Game(ctx context.Context, id, name string) (model.Game, error)

	Group(ctx context.Context, id string) (model.Group, error)
	Player(ctx context.Context, id string) (model.Player, error)
	Round(ctx context.Context, id string) (model.Round, error)

	// Tournament loads a tournament with its teams and recorded matches.
	Tournament(ctx context.Context, id string) (model.Tournament, error)

	// Counts reports how many rows of each entity are stored.
	Counts(ctx context.Context) (Counts, error)
}

// Writer is the write side. Save methods insert or replace by ID.
type Writer interface {
	SaveGroup(ctx context.Context, g model.Group) error
	SavePlayer(ctx context.Context, p model.Player) error
	SaveGame(ctx context.Context, g model.Game) error

	// SaveRound stores a round and its ranks. The group and the game (by ID
	// or by name) must exist; the stored round carries both game fields.
	SaveRound(ctx context.Context, r model.Round) (model.Round, error)

	// SaveTournament stores the tournament header and its teams. Matches are
	// recorded with AddMatch.
	SaveTournament(ctx context.Context, t model.Tournament) error
	AddTeam(ctx context.Context, tournamentID string, team model.Team) error
	AddMatch(ctx context.Context, tournamentID string, match int, roundID string) error
}

// Store provides read/write access to gameboard state.
type Store interface {
	Reader
	Writer
	Close() error
}

// Counts is a row count per entity.
type Counts struct {
	Groups      int `json:"groups"`
	Players     int `json:"players"`
	Games       int `json:"games"`
	Rounds      int `json:"rounds"`
	Tournaments int `json:"tournaments"`
}

// bracketType validates bt, defaulting an empty value to round robin.
func bracketType(bt model.BracketType) (model.BracketType, error) {
	if bt == "" {
		return model.BracketRoundRobin, nil
	}
	return model.ParseBracketType(string(bt))
}
