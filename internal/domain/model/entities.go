package model

// Game is a playable title.
type Game struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Group is a tenant: a set of players that record rounds together.
type Group struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Players []string `json:"players"`
	Admins  []string `json:"admins,omitempty"`
}

// HasPlayer reports whether playerID is a member of the group.
func (g Group) HasPlayer(playerID string) bool {
	for _, p := range g.Players {
		if p == playerID {
			return true
		}
	}
	return false
}

// Player is a registered player.
type Player struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PrimaryGroup string `json:"primary_group,omitempty"`
	FavoriteGame string `json:"favorite_game,omitempty"`
}
