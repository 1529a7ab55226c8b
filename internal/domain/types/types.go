// Package types contains common types used across the application
package types

import (
	"encoding/json"

	"github.com/okian/gameboard/internal/domain/window"
)

// LeaderboardEntry is a (subject, value) pair produced by a statistic.
type LeaderboardEntry struct {
	SubjectID string  `json:"subject_id"`
	Value     float64 `json:"value"`
}

// TrophySet holds the three medal tiers. A tier may hold several tied
// entries or none.
type TrophySet struct {
	Gold   []LeaderboardEntry `json:"gold"`
	Silver []LeaderboardEntry `json:"silver"`
	Bronze []LeaderboardEntry `json:"bronze"`
}

// NewTrophySet returns a set whose tiers are empty but non-nil.
func NewTrophySet() TrophySet {
	return TrophySet{
		Gold:   []LeaderboardEntry{},
		Silver: []LeaderboardEntry{},
		Bronze: []LeaderboardEntry{},
	}
}

// Len is the number of entries placed across all tiers.
func (t TrophySet) Len() int { return len(t.Gold) + len(t.Silver) + len(t.Bronze) }

// MarshalJSON encodes empty tiers as [] rather than null.
func (t TrophySet) MarshalJSON() ([]byte, error) {
	type plain TrophySet
	out := plain(t)
	if out.Gold == nil {
		out.Gold = []LeaderboardEntry{}
	}
	if out.Silver == nil {
		out.Silver = []LeaderboardEntry{}
	}
	if out.Bronze == nil {
		out.Bronze = []LeaderboardEntry{}
	}
	return json.Marshal(out)
}

// LabeledTrophies is the trophy set of one statistic within a window.
type LabeledTrophies struct {
	Label    string    `json:"label"`
	Kind     string    `json:"kind"`
	Trophies TrophySet `json:"trophies"`
}

// WindowTrophies groups the statistics computed over one window.
type WindowTrophies struct {
	Label      string            `json:"label"`
	Statistics []LabeledTrophies `json:"statistics"`
}

// TrophyBoard is the full trophy overview of a group, ordered by window
// ("recent" first, then years descending) and by statistic label.
type TrophyBoard struct {
	GroupID string           `json:"group_id"`
	Windows []WindowTrophies `json:"windows"`
}

// Lookup finds the trophy set for a window label and statistic label.
func (b TrophyBoard) Lookup(window, label string) (TrophySet, bool) {
	for _, w := range b.Windows {
		if w.Label != window {
			continue
		}
		for _, s := range w.Statistics {
			if s.Label == label {
				return s.Trophies, true
			}
		}
	}
	return TrophySet{}, false
}

// StatisticResult is one resolved statistic with its trophies. Entries may be
// truncated; Trophies are always assigned over the full leaderboard.
type StatisticResult struct {
	GroupID  string             `json:"group_id"`
	Kind     string             `json:"kind"`
	Label    string             `json:"label"`
	Window   window.Window      `json:"window"`
	Entries  []LeaderboardEntry `json:"entries"`
	Trophies TrophySet          `json:"trophies"`
}

// BracketResult holds the team totals of a tournament.
type BracketResult struct {
	TournamentID string         `json:"tournament_id"`
	BracketType  string         `json:"bracket_type"`
	Scoring      map[string]int `json:"scoring"`
}

// SubmitResult reports the outcome of a round submission.
type SubmitResult struct {
	SubmissionID string `json:"submission_id"`
	RoundID      string `json:"round_id"`
	Duplicate    bool   `json:"duplicate"`
}
