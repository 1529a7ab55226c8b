// Package seed generates reproducible demo data (groups, players, games,
// rounds and tournaments) and loads it into a store.
package seed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/okian/gameboard/internal/adapters/repository"
	"github.com/okian/gameboard/internal/domain/model"
	"github.com/okian/gameboard/pkg/logger"
)

// Catalogue is the pool of game titles the generator draws from.
var Catalogue = []string{ //nolint:gochecknoglobals // immutable catalogue
	"Scythe",
	"Twilight Imperium",
	"Eclipse",
	"Court of the Dead",
	"Twilight Struggle",
	"Catan",
	"Carcassonne",
	"Azul",
	"Wingspan",
	"Ticket to Ride",
	"Terraforming Mars",
	"Brass",
}

// Config sizes the generated dataset.
type Config struct {
	Groups          int
	PlayersPerGroup int
	Games           int
	RoundsPerGroup  int
	Tournaments     int
	// History is how far back round dates reach from Now.
	History time.Duration
	Now     time.Time
}

// DefaultConfig returns a small dataset spanning two years.
func DefaultConfig() Config {
	return Config{
		Groups:          2,
		PlayersPerGroup: 6,
		Games:           6,
		RoundsPerGroup:  40,
		Tournaments:     1,
		History:         2 * 365 * 24 * time.Hour,
		Now:             time.Now().UTC(),
	}
}

func (c Config) validate() error {
	switch {
	case c.Groups < 1:
		return fmt.Errorf("%w: groups must be at least 1", ErrInvalidConfig)
	case c.PlayersPerGroup < 2:
		return fmt.Errorf("%w: players per group must be at least 2", ErrInvalidConfig)
	case c.Games < 1 || c.Games > len(Catalogue):
		return fmt.Errorf("%w: games must be between 1 and %d", ErrInvalidConfig, len(Catalogue))
	case c.RoundsPerGroup < 0 || c.Tournaments < 0:
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidConfig)
	case c.History <= 0:
		return fmt.Errorf("%w: history must be positive", ErrInvalidConfig)
	}
	return nil
}

// Dataset is a generated set of entities ready to be stored.
type Dataset struct {
	Groups      []model.Group
	Players     []model.Player
	Games       []model.Game
	Rounds      []model.Round
	Tournaments []model.Tournament
}

// Generator builds datasets from a seeded faker.
type Generator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewGenerator returns a generator. The same non-zero seed always yields the
// same dataset; zero picks a random seed.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{faker: gofakeit.New(uint64(seed)), seed: seed}
}

// Seed returns the seed the generator was built with.
func (g *Generator) Seed() int64 { return g.seed }

// Generate builds a dataset sized by cfg.
func (g *Generator) Generate(cfg Config) (Dataset, error) {
	if err := cfg.validate(); err != nil {
		return Dataset{}, err
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now().UTC()
	}

	var d Dataset
	d.Games = g.games(cfg.Games)

	for i := 0; i < cfg.Groups; i++ {
		group := model.Group{ID: g.faker.UUID(), Name: g.faker.Company()}
		for j := 0; j < cfg.PlayersPerGroup; j++ {
			p := model.Player{
				ID:           g.faker.UUID(),
				Username:     g.faker.Username(),
				PrimaryGroup: group.ID,
				FavoriteGame: d.Games[g.faker.Number(0, len(d.Games)-1)].Name,
			}
			group.Players = append(group.Players, p.ID)
			d.Players = append(d.Players, p)
		}
		group.Admins = []string{group.Players[0]}
		d.Groups = append(d.Groups, group)

		for j := 0; j < cfg.RoundsPerGroup; j++ {
			d.Rounds = append(d.Rounds, g.round(group, group.Players, d.Games, cfg))
		}
	}

	for i := 0; i < cfg.Tournaments; i++ {
		group := d.Groups[i%len(d.Groups)]
		t, rounds := g.tournament(group, d.Games, cfg)
		d.Tournaments = append(d.Tournaments, t)
		d.Rounds = append(d.Rounds, rounds...)
	}

	sort.SliceStable(d.Rounds, func(i, j int) bool { return d.Rounds[i].Date.Before(d.Rounds[j].Date) })
	return d, nil
}

func (g *Generator) games(n int) []model.Game {
	names := make([]string, len(Catalogue))
	copy(names, Catalogue)
	g.faker.ShuffleAnySlice(names)

	out := make([]model.Game, 0, n)
	for _, name := range names[:n] {
		out = append(out, model.Game{ID: g.faker.UUID(), Name: name, Description: g.faker.Phrase()})
	}
	return out
}

// round plays a game among a random subset of players. Most players get
// distinct places; some tie with the player before them and a few do not
// finish.
func (g *Generator) round(group model.Group, players []string, games []model.Game, cfg Config) model.Round {
	seats := make([]string, len(players))
	copy(seats, players)
	g.faker.ShuffleAnySlice(seats)
	seats = seats[:g.faker.Number(2, len(seats))]

	game := games[g.faker.Number(0, len(games)-1)]
	r := model.Round{
		ID:       g.faker.UUID(),
		GameID:   game.ID,
		GameName: game.Name,
		GroupID:  group.ID,
		Date:     g.faker.DateRange(cfg.Now.Add(-cfg.History), cfg.Now).UTC(),
	}

	place := 0
	for i, p := range seats {
		pr := model.PlayerRank{PlayerID: p}
		switch {
		case i > 0 && g.faker.Number(1, 100) <= 5:
			// did not finish
		case i > 0 && place > 0 && g.faker.Number(1, 100) <= 10:
			tie := place
			pr.Rank = &tie
		default:
			place = i + 1
			rank := place
			pr.Rank = &rank
		}
		if pr.Rank != nil {
			score := g.faker.Number(0, 150)
			pr.Score = &score
		}
		r.Ranks = append(r.Ranks, pr)
	}
	return r
}

// tournament splits the group into two to four teams and plays one round per
// match among the rostered players.
func (g *Generator) tournament(group model.Group, games []model.Game, cfg Config) (model.Tournament, []model.Round) {
	types := []model.BracketType{model.BracketRoundRobin, model.BracketSingleElimination, model.BracketDoubleElimination}
	t := model.Tournament{
		ID:          g.faker.UUID(),
		Name:        g.faker.Gamertag() + " Cup",
		GroupID:     group.ID,
		BracketType: types[g.faker.Number(0, len(types)-1)],
	}

	roster := make([]string, len(group.Players))
	copy(roster, group.Players)
	g.faker.ShuffleAnySlice(roster)

	teamCount := g.faker.Number(2, min(4, len(roster)))
	for i := 0; i < teamCount; i++ {
		t.Teams = append(t.Teams, model.Team{ID: g.faker.UUID(), Name: g.faker.Gamertag(), Color: g.faker.SafeColor()})
	}
	for i, p := range roster {
		t.Teams[i%teamCount].Players = append(t.Teams[i%teamCount].Players, p)
	}

	matches := teamCount * (teamCount - 1) / 2
	rounds := make([]model.Round, 0, matches)
	for i := 0; i < matches; i++ {
		r := g.round(group, roster, games, cfg)
		rounds = append(rounds, r)
		t.Matches = append(t.Matches, model.BracketMatch{Match: i + 1, Round: r})
	}
	return t, rounds
}

// Summary counts what Load stored.
type Summary struct {
	Groups      int
	Players     int
	Games       int
	Rounds      int
	Tournaments int
}

// Load writes d into w. Entities are saved in dependency order so every
// round finds its group and game.
func Load(ctx context.Context, w repository.Writer, d Dataset) (Summary, error) {
	log := logger.Get().Named("seed")
	var s Summary

	for _, g := range d.Games {
		if err := w.SaveGame(ctx, g); err != nil {
			return s, fmt.Errorf("seed game %s: %w", g.Name, err)
		}
		s.Games++
	}
	for _, p := range d.Players {
		if err := w.SavePlayer(ctx, p); err != nil {
			return s, fmt.Errorf("seed player %s: %w", p.ID, err)
		}
		s.Players++
	}
	for _, g := range d.Groups {
		if err := w.SaveGroup(ctx, g); err != nil {
			return s, fmt.Errorf("seed group %s: %w", g.ID, err)
		}
		s.Groups++
	}
	for _, r := range d.Rounds {
		if _, err := w.SaveRound(ctx, r); err != nil {
			return s, fmt.Errorf("seed round %s: %w", r.ID, err)
		}
		s.Rounds++
	}
	for _, t := range d.Tournaments {
		header := t
		header.Matches = nil
		if err := w.SaveTournament(ctx, header); err != nil {
			return s, fmt.Errorf("seed tournament %s: %w", t.ID, err)
		}
		for _, m := range t.Matches {
			if err := w.AddMatch(ctx, t.ID, m.Match, m.Round.ID); err != nil {
				return s, fmt.Errorf("seed tournament %s match %d: %w", t.ID, m.Match, err)
			}
		}
		s.Tournaments++
	}

	log.Info(ctx, "seeded store",
		logger.Int("groups", s.Groups),
		logger.Int("players", s.Players),
		logger.Int("games", s.Games),
		logger.Int("rounds", s.Rounds),
		logger.Int("tournaments", s.Tournaments),
	)
	return s, nil
}
