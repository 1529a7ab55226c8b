// Package stats computes per-player statistics over a group's rounds and
// ranks them into leaderboards.
package stats

import (
	"math"

	"github.com/okian/gameboard/internal/domain/model"
)

// Kind names a statistic. Anything that is not a built-in kind is treated as
// a literal game name.
type Kind string

// Built-in statistic kinds.
const (
	KindWins       Kind = "wins"
	KindPercentage Kind = "percentage"
	KindHeavy      Kind = "heavy"
	KindUnique     Kind = "unique"
)

// BuiltinKinds lists the built-in kinds in board order.
func BuiltinKinds() []Kind {
	return []Kind{KindWins, KindPercentage, KindHeavy, KindUnique}
}

// IsBuiltin reports whether k is one of the four built-in kinds.
func (k Kind) IsBuiltin() bool {
	switch k {
	case KindWins, KindPercentage, KindHeavy, KindUnique:
		return true
	}
	return false
}

// Label is the human readable trophy label of the statistic.
func (k Kind) Label() string {
	switch k {
	case KindWins:
		return "Most Wins"
	case KindPercentage:
		return "Highest Win Percentage"
	case KindHeavy:
		return "Most Heavy Game Wins"
	case KindUnique:
		return "Most Unique Game Wins"
	default:
		return "Most " + string(k) + " Wins"
	}
}

// GameSet is a set of game names.
type GameSet map[string]struct{}

// NewGameSet builds a set from names.
func NewGameSet(names ...string) GameSet {
	s := make(GameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s GameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Compute returns the scalar value of kind for playerID over rounds. Rounds
// are expected to be pre-filtered to the window of interest; rounds the
// player did not take part in are ignored.
func Compute(kind Kind, rounds []model.Round, playerID string, heavy GameSet) float64 {
	var played, wins, heavyWins, gameWins int
	uniqueWins := make(map[string]struct{})

	for _, r := range rounds {
		pr, ok := r.RankOf(playerID)
		if !ok {
			continue
		}
		played++
		if !pr.Won() {
			continue
		}
		wins++
		uniqueWins[r.GameName] = struct{}{}
		if heavy.Has(r.GameName) {
			heavyWins++
		}
		if r.GameName == string(kind) {
			gameWins++
		}
	}

	switch kind {
	case KindWins:
		return float64(wins)
	case KindPercentage:
		return Percentage(wins, played)
	case KindHeavy:
		return float64(heavyWins)
	case KindUnique:
		return float64(len(uniqueWins))
	default:
		return float64(gameWins)
	}
}

// Percentage is part/whole*100 rounded to two decimals, or 0 when whole is 0.
func Percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round(float64(part)/float64(whole)*100, 2)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
