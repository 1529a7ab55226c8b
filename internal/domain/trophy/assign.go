// Package trophy hands out gold, silver and bronze trophies from a ranked
// leaderboard and assembles them into per-group trophy boards.
package trophy

import (
	"github.com/okian/gameboard/internal/domain/types"
)

// minPlaced is the number of trophies after which a strict value break ends
// the scan.
const minPlaced = 3

// tier identifies a medal bucket.
type tier int

const (
	tierGold tier = iota
	tierSilver
	tierBronze
	tierNone
)

// assigner walks a descending leaderboard once. Tiers keep input order.
type assigner struct {
	entries []types.LeaderboardEntry
	cursor  int
	placed  int
	set     types.TrophySet
}

// Assign partitions entries, which must already be sorted by value
// descending, into trophy tiers. Entries tied with the first entry of a tier
// join it; silver and bronze open on the first entry below the tier above.
// Once three or more trophies are out, the scan ends at the first entry whose
// value differs from the one just placed. Unsorted input yields undefined
// tiers.
func Assign(entries []types.LeaderboardEntry) types.TrophySet {
	a := &assigner{entries: entries, set: types.NewTrophySet()}
	for a.step() {
	}
	return a.set
}

// step places the entry under the cursor and reports whether to continue.
func (a *assigner) step() bool {
	if a.cursor >= len(a.entries) {
		return false
	}
	cur := a.entries[a.cursor]

	switch a.classify(cur) {
	case tierGold:
		a.set.Gold = append(a.set.Gold, cur)
	case tierSilver:
		a.set.Silver = append(a.set.Silver, cur)
	case tierBronze:
		a.set.Bronze = append(a.set.Bronze, cur)
	default:
		return false
	}
	a.placed++
	a.cursor++

	if a.placed < minPlaced {
		return true
	}
	if a.cursor >= len(a.entries) {
		return false
	}
	return a.entries[a.cursor].Value == cur.Value
}

func (a *assigner) classify(e types.LeaderboardEntry) tier {
	switch {
	case len(a.set.Gold) == 0 || e.Value == a.set.Gold[0].Value:
		return tierGold
	case len(a.set.Silver) == 0 || e.Value == a.set.Silver[0].Value:
		return tierSilver
	case len(a.set.Bronze) == 0 || e.Value == a.set.Bronze[0].Value:
		return tierBronze
	default:
		return tierNone
	}
}
