package trophy

import (
	"context"
	"fmt"

	"github.com/okian/gameboard/internal/domain/model"
	"github.com/okian/gameboard/internal/domain/stats"
	"github.com/okian/gameboard/internal/domain/types"
	"github.com/okian/gameboard/internal/domain/window"
)

// Resolver is the statistic source a board is built from. *stats.Resolver
// satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, groupID string, kind stats.Kind, selector string) ([]types.LeaderboardEntry, window.Window, error)
}

// BuildBoard computes the trophy set of every statistic for every window
// label. The built-in statistics come first, then one "Most {game} Wins"
// statistic per game, in the order games are given.
func BuildBoard(ctx context.Context, r Resolver, groupID string, labels []string, games []model.Game) (types.TrophyBoard, error) {
	kinds := stats.BuiltinKinds()
	for _, g := range games {
		kinds = append(kinds, stats.Kind(g.Name))
	}

	board := types.TrophyBoard{GroupID: groupID, Windows: make([]types.WindowTrophies, 0, len(labels))}
	for _, label := range labels {
		if err := ctx.Err(); err != nil {
			return types.TrophyBoard{}, fmt.Errorf("build board: %w", err)
		}
		wt := types.WindowTrophies{Label: label, Statistics: make([]types.LabeledTrophies, 0, len(kinds))}
		for _, kind := range kinds {
			entries, _, err := r.Resolve(ctx, groupID, kind, label)
			if err != nil {
				return types.TrophyBoard{}, fmt.Errorf("build board %s/%s: %w", label, kind, err)
			}
			wt.Statistics = append(wt.Statistics, types.LabeledTrophies{
				Label:    kind.Label(),
				Kind:     string(kind),
				Trophies: Assign(entries),
			})
		}
		board.Windows = append(board.Windows, wt)
	}
	return board, nil
}
