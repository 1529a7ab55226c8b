package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/gameboard/internal/domain/model"
	"github.com/okian/gameboard/internal/domain/window"
)

// MemoryStore is a map-backed Store guarded by a RWMutex. Values are copied
// in and out so callers never share slices with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	groups      map[string]model.Group
	players     map[string]model.Player
	games       map[string]model.Game
	rounds      map[string]model.Round
	tournaments map[string]*tournamentRecord
}

type tournamentRecord struct {
	header  model.Tournament
	teams   []model.Team
	matches map[int]string // match index -> round id
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		groups:      make(map[string]model.Group),
		players:     make(map[string]model.Player),
		games:       make(map[string]model.Game),
		rounds:      make(map[string]model.Round),
		tournaments: make(map[string]*tournamentRecord),
	}
}

func (s *MemoryStore) PlayersInGroup(_ context.Context, groupID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	return append([]string(nil), g.Players...), nil
}

func (s *MemoryStore) RoundsForPlayer(_ context.Context, playerID string, w window.Window) ([]model.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterRounds(func(r model.Round) bool {
		_, ok := r.RankOf(playerID)
		return ok && w.Contains(r.Date)
	}), nil
}

func (s *MemoryStore) RoundsForGroup(_ context.Context, groupID string, w window.Window) ([]model.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterRounds(func(r model.Round) bool {
		return r.GroupID == groupID && w.Contains(r.Date)
	}), nil
}

// filterRounds returns copies of matching rounds ordered by date then id.
// Caller holds s.mu.
func (s *MemoryStore) filterRounds(match func(model.Round) bool) []model.Round {
	var out []model.Round
	for _, r := range s.rounds {
		if match(r) {
			out = append(out, copyRound(r))
		}
	}
	sortRounds(out)
	return out
}

func (s *MemoryStore) OldestRoundDate(_ context.Context) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var oldest time.Time
	found := false
	for _, r := range s.rounds {
		if !found || r.Date.Before(oldest) {
			oldest, found = r.Date, true
		}
	}
	return oldest, found, nil
}

func (s *MemoryStore) Games(_ context.Context) ([]model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Game(_ context.Context, id, name string) (model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupGame(id, name)
}

func (s *MemoryStore) Group(_ context.Context, id string) (model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return model.Group{}, fmt.Errorf("group %s: %w", id, ErrNotFound)
	}
	return copyGroup(g), nil
}

func (s *MemoryStore) Player(_ context.Context, id string) (model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return model.Player{}, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *MemoryStore) Round(_ context.Context, id string) (model.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rounds[id]
	if !ok {
		return model.Round{}, fmt.Errorf("round %s: %w", id, ErrNotFound)
	}
	return copyRound(r), nil
}

func (s *MemoryStore) Tournament(_ context.Context, id string) (model.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tournaments[id]
	if !ok {
		return model.Tournament{}, fmt.Errorf("tournament %s: %w", id, ErrNotFound)
	}
	t := rec.header
	t.Teams = make([]model.Team, 0, len(rec.teams))
	for _, team := range rec.teams {
		team.Players = append([]string(nil), team.Players...)
		t.Teams = append(t.Teams, team)
	}
	t.Matches = make([]model.BracketMatch, 0, len(rec.matches))
	for idx, roundID := range rec.matches {
		r, ok := s.rounds[roundID]
		if !ok {
			return model.Tournament{}, fmt.Errorf("tournament %s match %d round %s: %w", id, idx, roundID, ErrNotFound)
		}
		t.Matches = append(t.Matches, model.BracketMatch{Match: idx, Round: copyRound(r)})
	}
	sort.Slice(t.Matches, func(i, j int) bool { return t.Matches[i].Match < t.Matches[j].Match })
	return t, nil
}

func (s *MemoryStore) Counts(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Groups:      len(s.groups),
		Players:     len(s.players),
		Games:       len(s.games),
		Rounds:      len(s.rounds),
		Tournaments: len(s.tournaments),
	}, nil
}

func (s *MemoryStore) SaveGroup(_ context.Context, g model.Group) error {
	if strings.TrimSpace(g.ID) == "" {
		return fmt.Errorf("group id: %w", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = copyGroup(g)
	return nil
}

func (s *MemoryStore) SavePlayer(_ context.Context, p model.Player) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("player id: %w", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ID] = p
	return nil
}

func (s *MemoryStore) SaveGame(_ context.Context, g model.Game) error {
	if strings.TrimSpace(g.ID) == "" || strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("game id and name: %w", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g
	return nil
}

func (s *MemoryStore) SaveRound(_ context.Context, r model.Round) (model.Round, error) {
	if strings.TrimSpace(r.ID) == "" {
		return model.Round{}, fmt.Errorf("round id: %w", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[r.GroupID]; !ok {
		return model.Round{}, fmt.Errorf("group %s: %w", r.GroupID, ErrNotFound)
	}
	game, err := s.lookupGame(r.GameID, r.GameName)
	if err != nil {
		return model.Round{}, err
	}
	r.GameID, r.GameName = game.ID, game.Name
	r.Date = r.Date.UTC()
	r = copyRound(r)
	s.rounds[r.ID] = r
	return copyRound(r), nil
}

// lookupGame resolves a game by ID, falling back to its name. Caller holds s.mu.
func (s *MemoryStore) lookupGame(id, name string) (model.Game, error) {
	if g, ok := s.games[id]; ok && id != "" {
		return g, nil
	}
	if name != "" {
		var (
			match model.Game
			found bool
		)
		for _, g := range s.games {
			if g.Name == name && (!found || g.ID < match.ID) {
				match, found = g, true
			}
		}
		if found {
			return match, nil
		}
	}
	return model.Game{}, fmt.Errorf("game %s%s: %w", id, name, ErrNotFound)
}

func (s *MemoryStore) SaveTournament(_ context.Context, t model.Tournament) error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("tournament id: %w", ErrInvalidArgument)
	}
	bt, err := bracketType(t.BracketType)
	if err != nil {
		return fmt.Errorf("tournament %s: %w", t.ID, err)
	}
	t.BracketType = bt
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[t.GroupID]; !ok {
		return fmt.Errorf("group %s: %w", t.GroupID, ErrNotFound)
	}
	header := t
	header.Teams, header.Matches = nil, nil
	rec := &tournamentRecord{header: header, matches: make(map[int]string)}
	if old, ok := s.tournaments[t.ID]; ok {
		rec.matches = old.matches
	}
	for _, team := range t.Teams {
		team.Players = append([]string(nil), team.Players...)
		rec.teams = append(rec.teams, team)
	}
	s.tournaments[t.ID] = rec
	return nil
}

func (s *MemoryStore) AddTeam(_ context.Context, tournamentID string, team model.Team) error {
	if strings.TrimSpace(team.ID) == "" {
		return fmt.Errorf("team id: %w", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tournaments[tournamentID]
	if !ok {
		return fmt.Errorf("tournament %s: %w", tournamentID, ErrNotFound)
	}
	team.Players = append([]string(nil), team.Players...)
	for i := range rec.teams {
		if rec.teams[i].ID == team.ID {
			rec.teams[i] = team
			return nil
		}
	}
	rec.teams = append(rec.teams, team)
	return nil
}

func (s *MemoryStore) AddMatch(_ context.Context, tournamentID string, match int, roundID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tournaments[tournamentID]
	if !ok {
		return fmt.Errorf("tournament %s: %w", tournamentID, ErrNotFound)
	}
	if _, ok := s.rounds[roundID]; !ok {
		return fmt.Errorf("round %s: %w", roundID, ErrNotFound)
	}
	rec.matches[match] = roundID
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

func copyGroup(g model.Group) model.Group {
	g.Players = append([]string(nil), g.Players...)
	g.Admins = append([]string(nil), g.Admins...)
	return g
}

func copyRound(r model.Round) model.Round {
	ranks := make([]model.PlayerRank, len(r.Ranks))
	for i, pr := range r.Ranks {
		if pr.Rank != nil {
			pr.Rank = model.IntPtr(*pr.Rank)
		}
		if pr.Score != nil {
			pr.Score = model.IntPtr(*pr.Score)
		}
		ranks[i] = pr
	}
	r.Ranks = ranks
	return r
}

func sortRounds(rounds []model.Round) {
	sort.Slice(rounds, func(i, j int) bool {
		if !rounds[i].Date.Equal(rounds[j].Date) {
			return rounds[i].Date.Before(rounds[j].Date)
		}
		return rounds[i].ID < rounds[j].ID
	})
}
