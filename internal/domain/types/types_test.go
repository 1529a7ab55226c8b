package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/gameboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTrophySetJSON(t *testing.T) {
	Convey("Given a trophy set with only gold", t, func() {
		set := types.TrophySet{Gold: []types.LeaderboardEntry{{SubjectID: "alice", Value: 3}}}

		Convey("When encoded as JSON", func() {
			raw, err := json.Marshal(set)

			Convey("Then empty tiers encode as arrays", func() {
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual, `{"gold":[{"subject_id":"alice","value":3}],"silver":[],"bronze":[]}`)
			})
		})

		Convey("Then Len counts every tier", func() {
			So(set.Len(), ShouldEqual, 1)
			So(types.NewTrophySet().Len(), ShouldEqual, 0)
		})
	})
}

func TestTrophyBoardLookup(t *testing.T) {
	Convey("Given a board with two windows", t, func() {
		gold := types.TrophySet{Gold: []types.LeaderboardEntry{{SubjectID: "bob", Value: 2}}}
		board := types.TrophyBoard{
			GroupID: "grp",
			Windows: []types.WindowTrophies{
				{Label: "recent", Statistics: []types.LabeledTrophies{{Label: "Most Wins", Kind: "wins", Trophies: types.NewTrophySet()}}},
				{Label: "2024", Statistics: []types.LabeledTrophies{{Label: "Most Wins", Kind: "wins", Trophies: gold}}},
			},
		}

		Convey("When looking up an existing window and label", func() {
			set, ok := board.Lookup("2024", "Most Wins")

			Convey("Then the matching set is returned", func() {
				So(ok, ShouldBeTrue)
				So(set.Gold[0].SubjectID, ShouldEqual, "bob")
			})
		})

		Convey("When looking up a missing label", func() {
			_, ok := board.Lookup("2024", "Most Scythe Wins")
			_, okWindow := board.Lookup("2019", "Most Wins")

			Convey("Then nothing is found", func() {
				So(ok, ShouldBeFalse)
				So(okWindow, ShouldBeFalse)
			})
		})
	})
}
