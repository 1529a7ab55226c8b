// Package report renders statistics, trophy boards, bracket scores and
// player profiles as terminal tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/okian/gameboard/internal/domain/stats"
	"github.com/okian/gameboard/internal/domain/types"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

// PrintStatistic writes the leaderboard of one statistic with a medal column.
func PrintStatistic(w io.Writer, res types.StatisticResult) error {
	fmt.Fprintf(w, "\n%s (%s)  |  Group: %s  |  Window: %s\n\n", res.Label, res.Kind, res.GroupID, res.Window.Label)

	medals := medalsBySubject(res.Trophies)
	table := newTable(w)
	table.Header("#", "PLAYER", "VALUE", "TROPHY")
	for i, e := range res.Entries {
		if err := table.Append(strconv.Itoa(i+1), e.SubjectID, formatValue(e.Value), medals[e.SubjectID]); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintTrophyBoard writes one row per window and statistic listing the
// holders of each tier.
func PrintTrophyBoard(w io.Writer, board types.TrophyBoard) error {
	fmt.Fprintf(w, "\nTrophies  |  Group: %s\n\n", board.GroupID)

	table := newTable(w)
	table.Header("WINDOW", "STATISTIC", "GOLD", "SILVER", "BRONZE")
	for _, win := range board.Windows {
		for _, s := range win.Statistics {
			if s.Trophies.Len() == 0 {
				continue
			}
			err := table.Append(win.Label, s.Label,
				holders(s.Trophies.Gold), holders(s.Trophies.Silver), holders(s.Trophies.Bronze))
			if err != nil {
				return err
			}
		}
	}
	return table.Render()
}

// PrintBracket writes team totals, highest first.
func PrintBracket(w io.Writer, res types.BracketResult) error {
	fmt.Fprintf(w, "\nTournament: %s  |  Bracket: %s\n\n", res.TournamentID, res.BracketType)

	teams := make([]string, 0, len(res.Scoring))
	for id := range res.Scoring {
		teams = append(teams, id)
	}
	sort.Slice(teams, func(i, j int) bool {
		if res.Scoring[teams[i]] != res.Scoring[teams[j]] {
			return res.Scoring[teams[i]] > res.Scoring[teams[j]]
		}
		return teams[i] < teams[j]
	})

	table := newTable(w)
	table.Header("TEAM", "POINTS")
	for _, id := range teams {
		if err := table.Append(id, strconv.Itoa(res.Scoring[id])); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintProfile writes the headline numbers of a player and their most played
// games.
func PrintProfile(w io.Writer, p stats.Profile) error {
	fmt.Fprintf(w, "\n=== %s (%s) ===\n\n", p.Username, p.PlayerID)
	fmt.Fprintf(w, "  Games played  : %d\n", p.GamesPlayed)
	fmt.Fprintf(w, "  Wins          : %d (%.1f%%)\n", p.Wins, p.WinPercentage)
	if p.AveragePlacement != nil {
		fmt.Fprintf(w, "  Avg placement : %.2f\n", *p.AveragePlacement)
	} else {
		fmt.Fprintf(w, "  Avg placement : -\n")
	}
	fmt.Fprintf(w, "  Favorite game : %s\n", orDash(p.FavoriteGame))
	fmt.Fprintf(w, "  Recent games  : %d (%s)\n\n", p.RecentGames, p.Status)

	rates := make(map[string]float64, len(p.WinRates))
	for _, r := range p.WinRates {
		rates[r.Game] = r.WinRate
	}
	table := newTable(w)
	table.Header("GAME", "PLAYED", "WIN%")
	for _, g := range p.MostPlayed {
		if err := table.Append(g.Game, strconv.Itoa(g.Count), fmt.Sprintf("%.1f%%", rates[g.Game])); err != nil {
			return err
		}
	}
	return table.Render()
}

func medalsBySubject(t types.TrophySet) map[string]string {
	out := make(map[string]string, t.Len())
	for _, e := range t.Bronze {
		out[e.SubjectID] = "bronze"
	}
	for _, e := range t.Silver {
		out[e.SubjectID] = "silver"
	}
	for _, e := range t.Gold {
		out[e.SubjectID] = "gold"
	}
	return out
}

func holders(entries []types.LeaderboardEntry) string {
	if len(entries) == 0 {
		return "-"
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.SubjectID)
	}
	return strings.Join(ids, ", ") + " (" + formatValue(entries[0].Value) + ")"
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
