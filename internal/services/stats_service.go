package services

import (
	"context"
	"strconv"
	"sync"

	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/log"
)

// StatsService serves per-user stats through an optional cache.
//
// Each user has a generation that Invalidate bumps. A computed result is only
// cached when the generation is unchanged since before the store read, so a
// read racing a mutation never caches the pre-mutation totals.
type StatsService struct {
	store StatsStore
	cache cache.Cache[core.ExpenseStats]

	mu          sync.Mutex
	generations map[int64]uint64
}

// NewStatsService returns a service that caches results in c. Pass a nil
// interface to disable caching.
func NewStatsService(store StatsStore, c cache.Cache[core.ExpenseStats]) *StatsService {
	return &StatsService{store: store, cache: c, generations: make(map[int64]uint64)}
}

func (s *StatsService) Stats(ctx context.Context, userID int64) (core.ExpenseStats, error) {
	if s.cache == nil {
		return s.store.Stats(ctx, userID)
	}

	key := strconv.FormatInt(userID, 10)
	if stats, ok := s.cache.Get(key); ok {
		return stats, nil
	}

	gen := s.generation(userID)
	stats, err := s.store.Stats(ctx, userID)
	if err != nil {
		return core.ExpenseStats{}, err
	}

	s.mu.Lock()
	if s.generations[userID] == gen {
		s.cache.Set(key, stats)
	}
	s.mu.Unlock()
	return stats, nil
}

func (s *StatsService) generation(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// Invalidate drops the cached stats of userID.
func (s *StatsService) Invalidate(userID int64) {
	if s == nil || s.cache == nil {
		return
	}
	s.mu.Lock()
	s.generations[userID]++
	s.cache.Delete(strconv.FormatInt(userID, 10))
	s.mu.Unlock()
}

// CleanExpired purges expired entries when the cache supports it.
func (s *StatsService) CleanExpired(ctx context.Context) int {
	c, ok := s.cache.(cache.Cleaner)
	if !ok {
		return 0
	}
	n := c.CleanExpired()
	if n > 0 {
		log.FromContext(ctx).WithComponent(log.ComponentCache).
			DebugContext(ctx, "Expired stats entries removed", "removed", n)
	}
	return n
}
