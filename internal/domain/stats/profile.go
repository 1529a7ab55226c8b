package stats

import (
	"sort"
	"time"

	"github.com/okian/gameboard/internal/domain/model"
	"github.com/okian/gameboard/internal/domain/window"
)

// OtherGames is the bucket label for games beyond the top list.
const OtherGames = "Other Games"

const defaultTopGames = 5

// Status summarises how active a player has been recently.
type Status string

// Activity levels.
const (
	StatusGreen  Status = "green"
	StatusYellow Status = "yellow"
	StatusRed    Status = "red"
)

// ActivityStatus maps the number of recent games to a status.
func ActivityStatus(recentGames int) Status {
	switch {
	case recentGames > 2:
		return StatusGreen
	case recentGames > 0:
		return StatusYellow
	default:
		return StatusRed
	}
}

// ActivityDay is the number of games played on one day.
type ActivityDay struct {
	Date      string `json:"date"`
	GameCount int    `json:"game_count"`
}

// MonthlyPoint summarises one month of a player's history.
type MonthlyPoint struct {
	Month       string   `json:"month"`
	Wins        int      `json:"wins"`
	WinRate     float64  `json:"win_rate"`
	AverageRank *float64 `json:"average_rank"`
}

// GameCount is a game name with a count.
type GameCount struct {
	Game  string `json:"game"`
	Count int    `json:"count"`
}

// GameRate is a game name with a win rate percentage.
type GameRate struct {
	Game    string  `json:"game"`
	WinRate float64 `json:"win_rate"`
}

// Profile is the statistics overview of a single player.
type Profile struct {
	PlayerID         string         `json:"player_id"`
	Username         string         `json:"username"`
	GamesPlayed      int            `json:"games_played"`
	Wins             int            `json:"wins"`
	WinPercentage    float64        `json:"win_percentage"`
	AveragePlacement *float64       `json:"average_placement"`
	FavoriteGame     string         `json:"favorite_game"`
	RecentGames      int            `json:"recent_games"`
	Status           Status         `json:"status"`
	Activity         []ActivityDay  `json:"activity"`
	Monthly          []MonthlyPoint `json:"monthly"`
	MostPlayed       []GameCount    `json:"most_played"`
	WinRates         []GameRate     `json:"win_rates"`
}

// BuildProfile assembles a profile from every round the player took part in.
func BuildProfile(player model.Player, rounds []model.Round, now time.Time) Profile {
	recent, _ := window.Resolve(window.Recent, now)
	year, _ := window.Resolve(window.RecentYear, now)

	recentGames := len(InWindow(rounds, player.ID, recent))
	mostPlayed, rates := TopGames(rounds, player.ID, defaultTopGames)

	p := Profile{
		PlayerID:      player.ID,
		Username:      player.Username,
		GamesPlayed:   gamesPlayed(rounds, player.ID),
		Wins:          int(Compute(KindWins, rounds, player.ID, nil)),
		WinPercentage: WinPercentage(rounds, player.ID),
		FavoriteGame:  FavoriteGame(player, rounds),
		RecentGames:   recentGames,
		Status:        ActivityStatus(recentGames),
		Activity:      ActivityLog(rounds, player.ID, year),
		Monthly:       MonthlyLog(rounds, player.ID, year),
		MostPlayed:    mostPlayed,
		WinRates:      rates,
	}
	if avg, ok := AveragePlacement(rounds, player.ID); ok {
		p.AveragePlacement = &avg
	}
	return p
}

// InWindow returns the rounds of playerID dated inside w.
func InWindow(rounds []model.Round, playerID string, w window.Window) []model.Round {
	var out []model.Round
	for _, r := range rounds {
		if _, ok := r.RankOf(playerID); ok && w.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// WinPercentage is the all-time win percentage of playerID.
func WinPercentage(rounds []model.Round, playerID string) float64 {
	return Compute(KindPercentage, rounds, playerID, nil)
}

// AveragePlacement is the mean of the player's present ranks rounded to one
// decimal. It reports false when the player has no ranked rounds.
func AveragePlacement(rounds []model.Round, playerID string) (float64, bool) {
	var sum, n int
	for _, r := range rounds {
		if pr, ok := r.RankOf(playerID); ok && pr.Ranked() {
			sum += *pr.Rank
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return round(float64(sum)/float64(n), 1), true
}

// FavoriteGame returns the player's declared favourite, or else the game
// they played most. Ties go to the game played first.
func FavoriteGame(player model.Player, rounds []model.Round) string {
	if player.FavoriteGame != "" {
		return player.FavoriteGame
	}
	counts := playedCounts(byDate(rounds), player.ID)
	if len(counts) == 0 {
		return ""
	}
	return counts[0].Game
}

// ActivityLog lists every day of w with the number of games playerID played
// on it.
func ActivityLog(rounds []model.Round, playerID string, w window.Window) []ActivityDay {
	perDay := make(map[string]int)
	for _, r := range InWindow(rounds, playerID, w) {
		perDay[r.Date.Format(time.DateOnly)]++
	}

	start := truncateDay(w.Start)
	until := w.Until()
	var out []ActivityDay
	for d := start; d.Before(until); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		out = append(out, ActivityDay{Date: key, GameCount: perDay[key]})
	}
	return out
}

// MonthlyLog walks w month by month. Each point carries the wins within that
// month plus the win rate and average rank accumulated since w.Start.
func MonthlyLog(rounds []model.Round, playerID string, w window.Window) []MonthlyPoint {
	inWindow := InWindow(rounds, playerID, w)
	until := w.Until()

	var out []MonthlyPoint
	for m := monthStart(w.Start); m.Before(until); m = m.AddDate(0, 1, 0) {
		next := m.AddDate(0, 1, 0)
		var monthWins, played, wins, rankSum, ranked int
		for _, r := range inWindow {
			if !r.Date.Before(next) {
				continue
			}
			pr, _ := r.RankOf(playerID)
			played++
			if pr.Won() {
				wins++
				if !r.Date.Before(m) {
					monthWins++
				}
			}
			if pr.Ranked() {
				rankSum += *pr.Rank
				ranked++
			}
		}
		point := MonthlyPoint{
			Month:   m.Format("2006-01"),
			Wins:    monthWins,
			WinRate: Percentage(wins, played),
		}
		if ranked > 0 {
			avg := round(float64(rankSum)/float64(ranked), 1)
			point.AverageRank = &avg
		}
		out = append(out, point)
	}
	return out
}

// TopGames returns the limit most played games with the remainder folded
// into OtherGames, and the win rate of the limit most won games.
func TopGames(rounds []model.Round, playerID string, limit int) ([]GameCount, []GameRate) {
	ordered := byDate(rounds)
	played := playedCounts(ordered, playerID)

	totals := make(map[string]int, len(played))
	mostPlayed := make([]GameCount, 0, limit+1)
	other := 0
	for i, gc := range played {
		totals[gc.Game] = gc.Count
		if i < limit {
			mostPlayed = append(mostPlayed, gc)
		} else {
			other += gc.Count
		}
	}
	mostPlayed = append(mostPlayed, GameCount{Game: OtherGames, Count: other})

	won := wonCounts(ordered, playerID)
	rates := make([]GameRate, 0, limit)
	for i, gc := range won {
		if i >= limit {
			break
		}
		rates = append(rates, GameRate{Game: gc.Game, WinRate: Percentage(gc.Count, totals[gc.Game])})
	}
	return mostPlayed, rates
}

func gamesPlayed(rounds []model.Round, playerID string) int {
	n := 0
	for _, r := range rounds {
		if _, ok := r.RankOf(playerID); ok {
			n++
		}
	}
	return n
}

func playedCounts(rounds []model.Round, playerID string) []GameCount {
	return countBy(rounds, func(r model.Round) bool {
		_, ok := r.RankOf(playerID)
		return ok
	})
}

func wonCounts(rounds []model.Round, playerID string) []GameCount {
	return countBy(rounds, func(r model.Round) bool { return r.WonBy(playerID) })
}

// countBy counts matching rounds per game, sorted by count descending with
// first-seen order breaking ties.
func countBy(rounds []model.Round, match func(model.Round) bool) []GameCount {
	idx := make(map[string]int)
	var out []GameCount
	for _, r := range rounds {
		if !match(r) {
			continue
		}
		i, ok := idx[r.GameName]
		if !ok {
			i = len(out)
			idx[r.GameName] = i
			out = append(out, GameCount{Game: r.GameName})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func byDate(rounds []model.Round) []model.Round {
	out := make([]model.Round, len(rounds))
	copy(out, rounds)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
