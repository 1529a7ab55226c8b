package trophy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/gameboard/internal/domain/model"
	"github.com/okian/gameboard/internal/domain/stats"
	"github.com/okian/gameboard/internal/domain/trophy"
	"github.com/okian/gameboard/internal/domain/types"
	"github.com/okian/gameboard/internal/domain/window"
	. "github.com/smartystreets/goconvey/convey"
)

type call struct {
	kind     stats.Kind
	selector string
}

// stubResolver returns canned entries per kind and remembers each call.
type stubResolver struct {
	entries map[stats.Kind][]types.LeaderboardEntry
	calls   []call
	err     error
}

func (s *stubResolver) Resolve(_ context.Context, _ string, kind stats.Kind, selector string) ([]types.LeaderboardEntry, window.Window, error) {
	s.calls = append(s.calls, call{kind: kind, selector: selector})
	return s.entries[kind], window.Window{Label: selector}, s.err
}

func TestBuildBoard(t *testing.T) {
	Convey("Given a resolver and two games", t, func() {
		r := &stubResolver{entries: map[stats.Kind][]types.LeaderboardEntry{
			stats.KindWins:     board("alice", 3, "bob", 1),
			stats.Kind("Azul"): board("bob", 2),
		}}
		games := []model.Game{{Name: "Azul"}, {Name: "Scythe"}}

		Convey("When building the board", func() {
			b, err := trophy.BuildBoard(context.Background(), r, "grp", []string{"recent", "2024"}, games)

			Convey("Then every window carries built-in then per-game statistics", func() {
				So(err, ShouldBeNil)
				So(b.GroupID, ShouldEqual, "grp")
				So(b.Windows, ShouldHaveLength, 2)
				So(b.Windows[0].Label, ShouldEqual, "recent")

				var labels []string
				for _, s := range b.Windows[1].Statistics {
					labels = append(labels, s.Label)
				}
				So(labels, ShouldResemble, []string{
					"Most Wins",
					"Highest Win Percentage",
					"Most Heavy Game Wins",
					"Most Unique Game Wins",
					"Most Azul Wins",
					"Most Scythe Wins",
				})
				So(r.calls, ShouldHaveLength, 12)
				So(r.calls[6], ShouldResemble, call{kind: stats.KindWins, selector: "2024"})
			})

			Convey("Then trophies come from the assigner", func() {
				wins, ok := b.Lookup("recent", "Most Wins")
				So(ok, ShouldBeTrue)
				So(wins.Gold[0].SubjectID, ShouldEqual, "alice")
				So(wins.Silver[0].SubjectID, ShouldEqual, "bob")

				scythe, ok := b.Lookup("2024", "Most Scythe Wins")
				So(ok, ShouldBeTrue)
				So(scythe.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the resolver fails", func() {
			boom := errors.New("boom")
			r.err = boom
			_, err := trophy.BuildBoard(context.Background(), r, "grp", []string{"recent"}, games)

			Convey("Then the error is wrapped with the window and statistic", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "recent/wins")
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := trophy.BuildBoard(ctx, r, "grp", []string{"recent"}, games)

			Convey("Then nothing is resolved", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(r.calls, ShouldBeEmpty)
			})
		})
	})
}
