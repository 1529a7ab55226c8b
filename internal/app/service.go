// Package service wires the statistics engine to storage, the trophy cache
// and the round ingest pipeline, and implements the dependencies required by
// the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gameboard/internal/adapters/cache"
	roundqueue "github.com/okian/gameboard/internal/adapters/mq/queue"
	workerpool "github.com/okian/gameboard/internal/adapters/mq/worker"
	"github.com/okian/gameboard/internal/adapters/repository"
	"github.com/okian/gameboard/internal/domain/dedupe"
	"github.com/okian/gameboard/internal/domain/model"
	"github.com/okian/gameboard/internal/domain/scoring"
	"github.com/okian/gameboard/internal/domain/stats"
	"github.com/okian/gameboard/internal/domain/trophy"
	"github.com/okian/gameboard/internal/domain/types"
	"github.com/okian/gameboard/internal/domain/window"
	"github.com/okian/gameboard/pkg/logger"
	"github.com/okian/gameboard/pkg/metrics"
)

const (
	defaultQueueSize  = 10_000
	defaultDedupeSize = 100_000
	defaultCacheTTL   = 24 * time.Hour
	defaultMaxEntries = 100
	stopTimeout       = 10 * time.Second
)

// Service implements the API dependencies for the gameboard.
type Service struct {
	mu sync.RWMutex

	store    repository.Store
	cache    cache.TrophyCache
	resolver *stats.Resolver
	scorer   *scoring.Scorer
	deduper  dedupe.Deduper
	queue    *roundqueue.InMemoryQueue
	pool     *workerpool.Pool

	workerCount int
	queueSize   int
	dedupeSize  int
	heavyGames  []string
	scoreTable  scoring.ScoreTable
	cacheTTL    time.Duration
	maxEntries  int
	now         func() time.Time

	started bool
	logger  logger.Logger
}

// New constructs a Service over store. Read operations and RecordRound work
// immediately; queued submissions are processed once Start is called.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		scoreTable:  scoring.DefaultScoreTable(),
		cacheTTL:    defaultCacheTTL,
		maxEntries:  defaultMaxEntries,
		now:         time.Now,
		logger:      logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cache == nil {
		s.cache = cache.NewMemoryCache(cache.WithTTL(s.cacheTTL))
	}
	s.resolver = stats.NewResolver(store,
		stats.WithHeavyGames(s.heavyGames),
		stats.WithClock(s.now),
		stats.WithLogger(s.logger.Named("stats")),
	)
	s.scorer = scoring.NewScorer(
		scoring.WithScoreTable(s.scoreTable),
		scoring.WithLogger(s.logger.Named("scoring")),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = roundqueue.NewInMemoryQueue(roundqueue.WithCapacity(s.queueSize))
	return s
}

// Start launches the ingest workers. Once ctx is done new submissions are
// refused while the workers finish what is already queued; Stop waits for
// them.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.queue.IsClosed() {
		return fmt.Errorf("start: %w", roundqueue.ErrClosed)
	}

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store, s.cache,
		workerpool.WithLogger(s.logger.Named("worker")),
		workerpool.WithOnFailure(func(ctx context.Context, sub roundqueue.Submission, _ error) {
			s.deduper.Unrecord(ctx, sub.SubmissionID)
		}),
	)
	s.pool.Start(ctx)
	s.started = true

	s.logger.Info(ctx, "gameboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains queued submissions and stops the workers. The store is owned
// by the caller and left open.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping gameboard service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "gameboard service stopped")
}

// Statistic resolves kind for groupID over the window named by selector and
// assigns its trophies. An unparseable selector falls back to all time.
func (s *Service) Statistic(ctx context.Context, groupID, kind, selector string) (types.StatisticResult, error) {
	k := stats.Kind(strings.TrimSpace(kind))
	entries, w, err := s.resolver.Resolve(ctx, groupID, k, selector)
	if err != nil {
		return types.StatisticResult{}, fmt.Errorf("statistic %s: %w", k, err)
	}

	res := types.StatisticResult{
		GroupID:  groupID,
		Kind:     string(k),
		Label:    k.Label(),
		Window:   w,
		Trophies: trophy.Assign(entries),
		Entries:  entries,
	}
	if len(res.Entries) > s.maxEntries {
		res.Entries = res.Entries[:s.maxEntries]
	}
	return res, nil
}

// Trophies returns the trophy board of groupID, computing and caching it on
// a miss. The board covers "recent" and every year back to the oldest round.
func (s *Service) Trophies(ctx context.Context, groupID string) (types.TrophyBoard, error) {
	if board, ok := s.cache.Get(ctx, groupID); ok {
		return board, nil
	}
	gen := s.cache.Generation(ctx, groupID)

	if _, err := s.store.Group(ctx, groupID); err != nil {
		return types.TrophyBoard{}, fmt.Errorf("trophies: %w", err)
	}

	start := time.Now()
	oldest, _, err := s.store.OldestRoundDate(ctx)
	if err != nil {
		return types.TrophyBoard{}, fmt.Errorf("trophies: %w", err)
	}
	games, err := s.store.Games(ctx)
	if err != nil {
		return types.TrophyBoard{}, fmt.Errorf("trophies: %w", err)
	}

	board, err := trophy.BuildBoard(ctx, s.resolver, groupID, window.YearLabels(s.now(), oldest), games)
	if err != nil {
		return types.TrophyBoard{}, fmt.Errorf("trophies: %w", err)
	}
	metrics.RecordTrophyBoardBuilt(float64(time.Since(start).Microseconds()) / 1000)

	cached := s.cache.Set(ctx, groupID, gen, board)
	s.logger.Debug(ctx, "trophy board built",
		logger.String("group_id", groupID),
		logger.Int("windows", len(board.Windows)),
		logger.Bool("cached", cached),
		logger.Duration("took", time.Since(start)),
	)
	return board, nil
}

// InvalidateTrophies drops the cached board of groupID. Returns true if one
// was cached.
func (s *Service) InvalidateTrophies(ctx context.Context, groupID string) bool {
	return s.cache.Invalidate(ctx, groupID)
}

// BracketScores sums the rank points of every team in a tournament.
func (s *Service) BracketScores(ctx context.Context, tournamentID string) (types.BracketResult, error) {
	t, err := s.store.Tournament(ctx, tournamentID)
	if err != nil {
		return types.BracketResult{}, fmt.Errorf("bracket scores: %w", err)
	}
	totals, err := s.scorer.ScoreTournament(ctx, t)
	if err != nil {
		return types.BracketResult{}, err
	}
	return types.BracketResult{
		TournamentID: t.ID,
		BracketType:  string(t.BracketType),
		Scoring:      totals,
	}, nil
}

// PlayerProfile builds the statistics overview of a player across all of
// their rounds.
func (s *Service) PlayerProfile(ctx context.Context, playerID string) (stats.Profile, error) {
	player, err := s.store.Player(ctx, playerID)
	if err != nil {
		return stats.Profile{}, fmt.Errorf("player profile: %w", err)
	}
	now := s.now()
	all, _ := window.Resolve(window.All, now)
	rounds, err := s.store.RoundsForPlayer(ctx, playerID, all)
	if err != nil {
		return stats.Profile{}, fmt.Errorf("player profile: %w", err)
	}
	return stats.BuildProfile(player, rounds, now), nil
}

// SubmitRound validates sub and queues it for the ingest workers. The group
// and the game must already exist. A submission id seen before is
// acknowledged as a duplicate without queueing. Missing ids are generated.
func (s *Service) SubmitRound(ctx context.Context, sub model.RoundSubmission) (types.SubmitResult, error) {
	if sub.SubmissionID == "" {
		sub.SubmissionID = uuid.NewString()
	}
	if sub.Round.ID == "" {
		sub.Round.ID = uuid.NewString()
	}
	if sub.ReceivedAt.IsZero() {
		sub.ReceivedAt = s.now()
	}
	res := types.SubmitResult{SubmissionID: sub.SubmissionID, RoundID: sub.Round.ID}

	if err := sub.Round.Validate(); err != nil {
		metrics.RecordRoundRejected("invalid")
		return res, err
	}
	if _, err := s.store.Group(ctx, sub.Round.GroupID); err != nil {
		metrics.RecordRoundRejected("unknown_group")
		return res, fmt.Errorf("submit round: %w", err)
	}
	game, err := s.store.Game(ctx, sub.Round.GameID, sub.Round.GameName)
	if err != nil {
		metrics.RecordRoundRejected("unknown_game")
		return res, fmt.Errorf("submit round: %w", err)
	}
	sub.Round.GameID, sub.Round.GameName = game.ID, game.Name

	if s.deduper.SeenAndRecord(ctx, sub.SubmissionID) {
		metrics.RecordRoundDuplicate()
		s.logger.Debug(ctx, "duplicate submission", logger.String("submission_id", sub.SubmissionID))
		res.Duplicate = true
		return res, nil
	}
	if !s.queue.Enqueue(ctx, sub) {
		s.deduper.Unrecord(ctx, sub.SubmissionID)
		if s.queue.IsClosed() {
			return res, fmt.Errorf("%w: %w", ErrBackpressure, roundqueue.ErrClosed)
		}
		return res, ErrBackpressure
	}
	return res, nil
}

// RecordRound validates and persists a round synchronously, then drops the
// group's cached trophies.
func (s *Service) RecordRound(ctx context.Context, r model.Round) (model.Round, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := r.Validate(); err != nil {
		metrics.RecordRoundRejected("invalid")
		return model.Round{}, err
	}
	saved, err := s.store.SaveRound(ctx, r)
	if err != nil {
		metrics.RecordRoundRejected("persist")
		return model.Round{}, fmt.Errorf("record round: %w", err)
	}
	metrics.RecordRoundRecorded()
	s.cache.Invalidate(ctx, saved.GroupID)
	return saved, nil
}

// Store exposes the underlying store for seeding and administration.
func (s *Service) Store() repository.Store { return s.store }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	out := map[string]interface{}{
		"started":      s.started,
		"accepting":    !s.queue.IsClosed(),
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"queueLength":  s.queue.Len(ctx),
		"dedupeLength": s.deduper.Size(),
		"cachedBoards": s.cache.Len(),
	}
	if counts, err := s.store.Counts(ctx); err == nil {
		out["counts"] = counts
	} else {
		s.logger.Warn(ctx, "counting stored rows failed", logger.Error(err))
	}
	return out
}
