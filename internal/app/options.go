package service

import (
	"time"

	"github.com/okian/gameboard/internal/adapters/cache"
	"github.com/okian/gameboard/internal/domain/scoring"
	"github.com/okian/gameboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ingest workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the round ingest queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHeavyGames sets the game names counted by the heavy statistic.
func WithHeavyGames(names []string) Option {
	return func(s *Service) {
		s.heavyGames = append([]string(nil), names...)
	}
}

// WithScoreTable sets the rank to points table of the bracket scorer.
func WithScoreTable(t scoring.ScoreTable) Option {
	return func(s *Service) {
		if len(t) > 0 {
			s.scoreTable = t
		}
	}
}

// WithTrophyCacheTTL sets how long a computed trophy board is served from
// cache.
func WithTrophyCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithTrophyCache replaces the default in-memory trophy cache.
func WithTrophyCache(c cache.TrophyCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithMaxStatisticEntries caps the entries returned by Statistic. Trophies
// are still assigned over the full list.
func WithMaxStatisticEntries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithClock replaces the time source used to resolve windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
