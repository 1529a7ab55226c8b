package stats_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/gameboard/internal/adapters/repository"
	"github.com/okian/gameboard/internal/domain/model"
	"github.com/okian/gameboard/internal/domain/stats"
	"github.com/okian/gameboard/internal/domain/types"
	"github.com/okian/gameboard/internal/domain/window"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

// fakeSource serves rounds from memory and filters them by window the way a
// real store would.
type fakeSource struct {
	players []string
	rounds  []model.Round
	games   []model.Game
	err     error
}

func (f *fakeSource) PlayersInGroup(_ context.Context, _ string) ([]string, error) {
	return f.players, f.err
}

func (f *fakeSource) RoundsForPlayer(_ context.Context, playerID string, w window.Window) ([]model.Round, error) {
	if f.err != nil {
		return nil, f.err
	}
	return stats.InWindow(f.rounds, playerID, w), nil
}

func (f *fakeSource) Games(_ context.Context) ([]model.Game, error) {
	return f.games, nil
}

// round builds a round of game on date with ranks listed as player, rank
// pairs; rank 0 means DNF.
func round(game string, date time.Time, ranks ...any) model.Round {
	r := model.Round{GameName: game, GameID: game, GroupID: "grp", Date: date}
	for i := 0; i < len(ranks); i += 2 {
		pr := model.PlayerRank{PlayerID: ranks[i].(string)}
		if rank := ranks[i+1].(int); rank > 0 {
			pr.Rank = model.IntPtr(rank)
		}
		r.Ranks = append(r.Ranks, pr)
	}
	return r
}

func fixture() *fakeSource {
	d2023 := time.Date(2023, time.March, 10, 0, 0, 0, 0, time.UTC)
	d2024 := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	return &fakeSource{
		players: []string{"alice", "bob", "carol", "dave"},
		games: []model.Game{
			{ID: "Scythe", Name: "Scythe"},
			{ID: "Catan", Name: "Catan"},
			{ID: "Azul", Name: "Azul"},
		},
		rounds: []model.Round{
			round("Scythe", d2023, "alice", 1, "bob", 2),
			round("Catan", d2023, "alice", 1, "bob", 2, "carol", 3),
			round("Catan", d2024, "bob", 1, "alice", 2),
			round("Azul", d2024, "carol", 1, "bob", 2),
			round("Azul", d2024, "bob", 1, "carol", 0),
		},
	}
}

func TestResolverKinds(t *testing.T) {
	Convey("Given a group with recorded rounds", t, func() {
		ctx := context.Background()
		r := stats.NewResolver(fixture(),
			stats.WithHeavyGames([]string{"Scythe"}),
			stats.WithClock(func() time.Time { return now }),
		)

		Convey("When resolving wins over all time", func() {
			entries, w, err := r.Resolve(ctx, "grp", stats.KindWins, "all")

			Convey("Then players are ranked by wins with ties in group order", func() {
				So(err, ShouldBeNil)
				So(w.Label, ShouldEqual, "all")
				want := []types.LeaderboardEntry{
					{SubjectID: "alice", Value: 2},
					{SubjectID: "bob", Value: 2},
					{SubjectID: "carol", Value: 1},
				}
				So(cmp.Diff(want, entries), ShouldBeEmpty)
			})
		})

		Convey("When resolving wins in a year", func() {
			entries, _, err := r.Resolve(ctx, "grp", stats.KindWins, "2023")

			Convey("Then only that year counts", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldResemble, []types.LeaderboardEntry{{SubjectID: "alice", Value: 2}})
			})
		})

		Convey("When resolving percentage", func() {
			entries, _, err := r.Resolve(ctx, "grp", stats.KindPercentage, "all")

			Convey("Then values are rounded to two decimals and dave is absent", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldResemble, []types.LeaderboardEntry{
					{SubjectID: "alice", Value: 66.67},
					{SubjectID: "bob", Value: 40},
					{SubjectID: "carol", Value: 33.33},
				})
			})
		})

		Convey("When resolving heavy and unique wins", func() {
			heavy, _, err := r.Resolve(ctx, "grp", stats.KindHeavy, "all")
			So(err, ShouldBeNil)
			unique, _, err := r.Resolve(ctx, "grp", stats.KindUnique, "all")
			So(err, ShouldBeNil)

			Convey("Then heavy counts allow-listed games and unique counts distinct names", func() {
				So(heavy, ShouldResemble, []types.LeaderboardEntry{{SubjectID: "alice", Value: 1}})
				So(unique, ShouldResemble, []types.LeaderboardEntry{
					{SubjectID: "alice", Value: 2},
					{SubjectID: "bob", Value: 2},
					{SubjectID: "carol", Value: 1},
				})
			})
		})

		Convey("When resolving a game name", func() {
			entries, _, err := r.Resolve(ctx, "grp", stats.Kind("Azul"), "all")

			Convey("Then only that game's wins count", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldResemble, []types.LeaderboardEntry{
					{SubjectID: "bob", Value: 1},
					{SubjectID: "carol", Value: 1},
				})
			})
		})

		Convey("When resolving an unknown game name", func() {
			entries, _, err := r.Resolve(ctx, "grp", stats.Kind("Chess"), "all")

			Convey("Then the result is empty, not an error", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})

		Convey("When the selector cannot be parsed", func() {
			entries, w, err := r.Resolve(ctx, "grp", stats.KindWins, "someday-soon")

			Convey("Then it falls back to all time silently", func() {
				So(err, ShouldBeNil)
				So(w.Start, ShouldEqual, window.Epoch)
				So(entries, ShouldHaveLength, 3)
			})
		})

		Convey("When resolving the recent window", func() {
			entries, _, err := r.Resolve(ctx, "grp", stats.KindWins, "recent")

			Convey("Then only rounds of the last 30 days count", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldResemble, []types.LeaderboardEntry{
					{SubjectID: "bob", Value: 2},
					{SubjectID: "carol", Value: 1},
				})
			})
		})
	})
}

func TestResolverEdgeCases(t *testing.T) {
	Convey("Given a player with no games", t, func() {
		src := &fakeSource{players: []string{"zed"}}
		r := stats.NewResolver(src, stats.WithClock(func() time.Time { return now }))

		Convey("When resolving percentage", func() {
			entries, _, err := r.Resolve(context.Background(), "grp", stats.KindPercentage, "all")

			Convey("Then the zero value is excluded", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a failing source", t, func() {
		boom := errors.New("boom")
		r := stats.NewResolver(&fakeSource{err: boom})

		Convey("When resolving", func() {
			_, _, err := r.Resolve(context.Background(), "grp", stats.KindWins, "all")

			Convey("Then the storage error is wrapped", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "players in group")
			})
		})
	})

	Convey("Given a store without the requested group", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		So(store.SaveGame(ctx, model.Game{ID: "catan", Name: "Catan"}), ShouldBeNil)
		r := stats.NewResolver(store, stats.WithClock(func() time.Time { return now }))

		Convey("When resolving a game nobody has recorded", func() {
			_, _, err := r.Resolve(ctx, "missing", stats.Kind("Chess"), "all")

			Convey("Then the unknown group is reported first", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When resolving a known game", func() {
			_, _, err := r.Resolve(ctx, "missing", stats.Kind("Catan"), "all")

			Convey("Then the unknown group is reported too", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestKindLabels(t *testing.T) {
	Convey("Given statistic kinds", t, func() {
		So(stats.KindWins.Label(), ShouldEqual, "Most Wins")
		So(stats.KindPercentage.Label(), ShouldEqual, "Highest Win Percentage")
		So(stats.KindHeavy.Label(), ShouldEqual, "Most Heavy Game Wins")
		So(stats.KindUnique.Label(), ShouldEqual, "Most Unique Game Wins")
		So(stats.Kind("Scythe").Label(), ShouldEqual, "Most Scythe Wins")
		So(stats.Kind("Scythe").IsBuiltin(), ShouldBeFalse)
		So(stats.BuiltinKinds(), ShouldHaveLength, 4)
	})
}

func TestCompute(t *testing.T) {
	Convey("Given a round with shared first place", t, func() {
		rounds := []model.Round{round("Catan", now, "alice", 1, "bob", 1, "carol", 2)}

		Convey("Then both winners count a win", func() {
			So(stats.Compute(stats.KindWins, rounds, "alice", nil), ShouldEqual, 1)
			So(stats.Compute(stats.KindWins, rounds, "bob", nil), ShouldEqual, 1)
			So(stats.Compute(stats.KindWins, rounds, "carol", nil), ShouldEqual, 0)
		})

		Convey("Then a player absent from the round has no games", func() {
			So(stats.Compute(stats.KindPercentage, rounds, "zed", nil), ShouldEqual, 0)
		})
	})

	Convey("Given percentages", t, func() {
		So(stats.Percentage(1, 3), ShouldEqual, 33.33)
		So(stats.Percentage(2, 3), ShouldEqual, 66.67)
		So(stats.Percentage(0, 0), ShouldEqual, 0)
	})
}
