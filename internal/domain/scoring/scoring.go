// Package scoring turns the placements recorded in a tournament's bracket
// matches into cumulative team scores.
package scoring

import (
	"context"
	"fmt"
	"strconv"

	"github.com/okian/gameboard/internal/domain/model"
	"github.com/okian/gameboard/pkg/logger"
	"github.com/okian/gameboard/pkg/metrics"
)

// ScoreTable maps a placement to the points it awards.
type ScoreTable map[int]int

// DefaultScoreTable awards 9, 7, 5 and 3 points to places one to four.
func DefaultScoreTable() ScoreTable {
	return ScoreTable{1: 9, 2: 7, 3: 5, 4: 3}
}

// Points returns the points for rank. Ranks outside the table award 0.
func (t ScoreTable) Points(rank int) int {
	return t[rank]
}

// ParseScoreTable converts a configuration map with string placements into a
// ScoreTable. Placements must be positive integers.
func ParseScoreTable(raw map[string]int) (ScoreTable, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: table is empty", ErrInvalidScoreTable)
	}
	t := make(ScoreTable, len(raw))
	for k, pts := range raw {
		rank, err := strconv.Atoi(k)
		if err != nil || rank < 1 {
			return nil, fmt.Errorf("%w: placement %q", ErrInvalidScoreTable, k)
		}
		t[rank] = pts
	}
	return t, nil
}

// Score sums the table points of every ranked player in every match into
// their team's total. Every team starts at 0. A player missing from all
// rosters aborts with ErrDataInconsistency, even when unranked. Unranked
// players and ranks outside the table add nothing. A player listed on two
// rosters counts for the later team.
func Score(teams []model.Team, matches []model.BracketMatch, table ScoreTable) (map[string]int, error) {
	totals := make(map[string]int, len(teams))
	roster := make(map[string]string)
	for _, team := range teams {
		totals[team.ID] = 0
		for _, p := range team.Players {
			roster[p] = team.ID
		}
	}

	for _, m := range matches {
		for _, p := range m.Round.Players() {
			if _, ok := roster[p]; !ok {
				return nil, fmt.Errorf("%w: player %s in match %d (round %s) is on no team",
					ErrDataInconsistency, p, m.Match, m.Round.ID)
			}
		}
		for _, pr := range m.Round.Placed() {
			totals[roster[pr.PlayerID]] += table.Points(*pr.Rank)
		}
	}
	return totals, nil
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithScoreTable replaces the default score table.
func WithScoreTable(t ScoreTable) Option {
	return func(s *Scorer) {
		if len(t) > 0 {
			s.table = t
		}
	}
}

// WithLogger sets the logger used to report inconsistencies.
func WithLogger(l logger.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// Scorer scores tournaments with a fixed table and records metrics.
type Scorer struct {
	table  ScoreTable
	logger logger.Logger
}

// NewScorer creates a Scorer using the default table unless overridden.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{table: DefaultScoreTable(), logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Table returns the table in use.
func (s *Scorer) Table() ScoreTable { return s.table }

// ScoreTournament scores every recorded match of t.
func (s *Scorer) ScoreTournament(ctx context.Context, t model.Tournament) (map[string]int, error) {
	metrics.RecordBracketScoring()
	totals, err := Score(t.Teams, t.Matches, s.table)
	if err != nil {
		metrics.RecordBracketInconsistency()
		s.logger.Error(ctx, "bracket data inconsistency",
			logger.String("tournament_id", t.ID),
			logger.Error(err),
		)
		return nil, fmt.Errorf("score tournament %s: %w", t.ID, err)
	}
	return totals, nil
}
