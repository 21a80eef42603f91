package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY LEADERBOARD CACHE
// Caches the computed weekly leaderboard so repeated /top taps inside
// one week window hit Redis instead of re-aggregating the ledger.
// Invalidation: every accepted or undone check-in drops the week's key.
// ══════════════════════════════════════════════════════════════════════════════

// TTLLeaderboard bounds staleness even if an invalidation is missed.
const TTLLeaderboard = 10 * time.Minute

// keyLeaderboardWeek is the key pattern for one week's leaderboard.
const keyLeaderboardWeek = "leaderboard:week:"

// LeaderboardCache stores computed weekly leaderboards.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

func weekKey(weekStart time.Time) string {
	return keyLeaderboardWeek + weekStart.Format("2006-01-02")
}

// Get returns the cached leaderboard for a week.
// Returns ErrCacheMiss when absent.
func (lc *LeaderboardCache) Get(ctx context.Context, weekStart time.Time) ([]progress.LeaderboardEntry, error) {
	var entries []progress.LeaderboardEntry
	if err := lc.cache.Get(ctx, weekKey(weekStart), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Put stores a computed leaderboard for a week.
func (lc *LeaderboardCache) Put(ctx context.Context, weekStart time.Time, entries []progress.LeaderboardEntry) error {
	if err := lc.cache.Set(ctx, weekKey(weekStart), entries, TTLLeaderboard); err != nil {
		return fmt.Errorf("failed to cache leaderboard: %w", err)
	}
	return nil
}

// Invalidate drops the cached leaderboard for a week. Called on every
// ledger mutation that can change the ranking.
func (lc *LeaderboardCache) Invalidate(ctx context.Context, weekStart time.Time) error {
	return lc.cache.Delete(ctx, weekKey(weekStart))
}
