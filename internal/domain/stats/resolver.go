package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/okian/gameboard/internal/domain/model"
	"github.com/okian/gameboard/internal/domain/types"
	"github.com/okian/gameboard/internal/domain/window"
	"github.com/okian/gameboard/pkg/logger"
	"github.com/okian/gameboard/pkg/metrics"
)

// Source is the read side of storage that the resolver needs.
type Source interface {
	// PlayersInGroup lists the members of a group in membership order.
	PlayersInGroup(ctx context.Context, groupID string) ([]string, error)
	// RoundsForPlayer returns every round the player took part in within w,
	// across all groups.
	RoundsForPlayer(ctx context.Context, playerID string, w window.Window) ([]model.Round, error)
	// Games lists the known games.
	Games(ctx context.Context) ([]model.Game, error)
}

// Resolver produces ranked leaderboards for a group.
type Resolver struct {
	src    Source
	heavy  GameSet
	now    func() time.Time
	logger logger.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHeavyGames sets the heavy-game allow-list.
func WithHeavyGames(names []string) Option {
	return func(r *Resolver) {
		r.heavy = NewGameSet(names...)
	}
}

// WithClock overrides the clock used to resolve relative windows.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger used for window fallbacks.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a resolver over src.
func NewResolver(src Source, opts ...Option) *Resolver {
	r := &Resolver{
		src:    src,
		heavy:  GameSet{},
		now:    time.Now,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now returns the resolver's current time.
func (r *Resolver) Now() time.Time { return r.now() }

// Resolve computes kind for every player in groupID over the window named by
// selector. Only strictly positive values are kept, sorted descending; ties
// keep group membership order. An unparseable selector falls back to all
// time. The resolved window is returned alongside the entries.
func (r *Resolver) Resolve(ctx context.Context, groupID string, kind Kind, selector string) ([]types.LeaderboardEntry, window.Window, error) {
	w, err := window.Resolve(selector, r.now())
	if err != nil {
		if !errors.Is(err, window.ErrInvalidWindowSpec) {
			return nil, w, fmt.Errorf("resolve window: %w", err)
		}
		metrics.RecordWindowFallback()
		r.logger.Warn(ctx, "window selector fell back to all time",
			logger.String("selector", selector),
			logger.String("group_id", groupID),
			logger.Error(err),
		)
	}
	entries, err := r.ResolveWindow(ctx, groupID, kind, w)
	return entries, w, err
}

// ResolveWindow is Resolve over an already resolved window.
func (r *Resolver) ResolveWindow(ctx context.Context, groupID string, kind Kind, w window.Window) ([]types.LeaderboardEntry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStatisticResolution(metricKind(kind), float64(time.Since(start).Microseconds())/1000)
	}()

	players, err := r.src.PlayersInGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("players in group %s: %w", groupID, err)
	}

	if !kind.IsBuiltin() {
		known, err := r.gameExists(ctx, string(kind))
		if err != nil {
			return nil, err
		}
		if !known {
			r.logger.Debug(ctx, "statistic names an unknown game", logger.String("kind", string(kind)))
			return []types.LeaderboardEntry{}, nil
		}
	}

	entries := make([]types.LeaderboardEntry, 0, len(players))
	for _, playerID := range players {
		rounds, err := r.src.RoundsForPlayer(ctx, playerID, w)
		if err != nil {
			return nil, fmt.Errorf("rounds for player %s: %w", playerID, err)
		}
		if v := Compute(kind, rounds, playerID, r.heavy); v > 0 {
			entries = append(entries, types.LeaderboardEntry{SubjectID: playerID, Value: v})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value > entries[j].Value
	})
	return entries, nil
}

func (r *Resolver) gameExists(ctx context.Context, name string) (bool, error) {
	games, err := r.src.Games(ctx)
	if err != nil {
		return false, fmt.Errorf("games: %w", err)
	}
	for _, g := range games {
		if g.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// metricKind keeps label cardinality bounded: every game collapses to "game".
func metricKind(k Kind) string {
	if k.IsBuiltin() {
		return string(k)
	}
	return "game"
}
