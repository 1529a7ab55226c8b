package seed_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gameboard/internal/adapters/repository"
	"github.com/okian/gameboard/internal/seed"
	"github.com/okian/gameboard/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func config() seed.Config {
	cfg := seed.DefaultConfig()
	cfg.Now = now
	return cfg
}

func TestGenerate(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		cfg := config()
		d, err := seed.NewGenerator(42).Generate(cfg)
		So(err, ShouldBeNil)

		Convey("Then the dataset has the configured size", func() {
			So(len(d.Groups), ShouldEqual, cfg.Groups)
			So(len(d.Players), ShouldEqual, cfg.Groups*cfg.PlayersPerGroup)
			So(len(d.Games), ShouldEqual, cfg.Games)
			So(len(d.Tournaments), ShouldEqual, cfg.Tournaments)
			So(len(d.Rounds), ShouldBeGreaterThanOrEqualTo, cfg.Groups*cfg.RoundsPerGroup)
		})

		Convey("Then every round is valid and dated within the history", func() {
			for _, r := range d.Rounds {
				So(r.Validate(), ShouldBeNil)
				So(r.Date.After(now), ShouldBeFalse)
				So(r.Date.Before(now.Add(-cfg.History)), ShouldBeFalse)
			}
		})

		Convey("Then rounds are ordered by date", func() {
			for i := 1; i < len(d.Rounds); i++ {
				So(d.Rounds[i].Date.Before(d.Rounds[i-1].Date), ShouldBeFalse)
			}
		})

		Convey("Then every tournament player is on a roster", func() {
			for _, tr := range d.Tournaments {
				onTeam := map[string]bool{}
				for _, team := range tr.Teams {
					for _, p := range team.Players {
						onTeam[p] = true
					}
				}
				So(len(tr.Teams), ShouldBeBetweenOrEqual, 2, 4)
				for _, m := range tr.Matches {
					for _, pr := range m.Round.Ranks {
						So(onTeam[pr.PlayerID], ShouldBeTrue)
					}
				}
			}
		})

		Convey("Then the same seed yields the same dataset", func() {
			again, err := seed.NewGenerator(42).Generate(cfg)
			So(err, ShouldBeNil)
			So(cmp.Diff(d, again), ShouldBeEmpty)
		})
	})

	Convey("Given an unusable configuration", t, func() {
		cfg := config()
		cfg.PlayersPerGroup = 1

		Convey("Then generation fails with ErrInvalidConfig", func() {
			_, err := seed.NewGenerator(1).Generate(cfg)
			So(errors.Is(err, seed.ErrInvalidConfig), ShouldBeTrue)
		})
	})

	Convey("Given a zero seed", t, func() {
		g := seed.NewGenerator(0)

		Convey("Then a random seed is chosen", func() {
			So(g.Seed(), ShouldNotEqual, 0)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a generated dataset and an empty store", t, func() {
		ctx := context.Background()
		d, err := seed.NewGenerator(7).Generate(config())
		So(err, ShouldBeNil)
		store := repository.NewMemoryStore()

		Convey("When it is loaded", func() {
			sum, err := seed.Load(ctx, store, d)
			So(err, ShouldBeNil)

			Convey("Then the store holds every entity", func() {
				counts, err := store.Counts(ctx)
				So(err, ShouldBeNil)
				So(counts.Groups, ShouldEqual, sum.Groups)
				So(counts.Players, ShouldEqual, sum.Players)
				So(counts.Games, ShouldEqual, sum.Games)
				So(counts.Rounds, ShouldEqual, len(d.Rounds))
				So(counts.Tournaments, ShouldEqual, len(d.Tournaments))
			})

			Convey("Then tournaments come back with their matches", func() {
				tr, err := store.Tournament(ctx, d.Tournaments[0].ID)
				So(err, ShouldBeNil)
				So(len(tr.Matches), ShouldEqual, len(d.Tournaments[0].Matches))
				So(len(tr.Teams), ShouldEqual, len(d.Tournaments[0].Teams))
			})
		})
	})
}
