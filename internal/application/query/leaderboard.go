package query

import (
	"context"
	"fmt"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/member"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD QUERY
// Недельный рейтинг: по убыванию занятых слотов, при равенстве по имени.
// Результат кэшируется на неделю; каждая мутация журнала сбрасывает кэш.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache хранит вычисленные недельные рейтинги.
// Реализация живёт в infrastructure/persistence/redis.
type LeaderboardCache interface {
	Get(ctx context.Context, weekStart time.Time) ([]progress.LeaderboardEntry, error)
	Put(ctx context.Context, weekStart time.Time, entries []progress.LeaderboardEntry) error
}

// LeaderboardQuery содержит параметры запроса рейтинга.
type LeaderboardQuery struct {
	// Now - момент запроса, определяет неделю (по умолчанию time.Now).
	Now time.Time
}

// LeaderboardResult содержит недельный рейтинг.
type LeaderboardResult struct {
	// WeekStart - понедельник недели.
	WeekStart time.Time

	// Entries - позиции рейтинга.
	Entries []progress.LeaderboardEntry

	// FromCache - результат получен из кэша.
	FromCache bool
}

// LeaderboardHandler обрабатывает LeaderboardQuery.
type LeaderboardHandler struct {
	memberRepo  member.Repository
	checkinRepo checkin.Repository
	cache       LeaderboardCache
	location    *time.Location
}

// NewLeaderboardHandler создаёт новый LeaderboardHandler.
// cache может быть nil, если Redis не настроен.
func NewLeaderboardHandler(
	memberRepo member.Repository,
	checkinRepo checkin.Repository,
	cache LeaderboardCache,
	location *time.Location,
) *LeaderboardHandler {
	if location == nil {
		location = time.UTC
	}
	return &LeaderboardHandler{
		memberRepo:  memberRepo,
		checkinRepo: checkinRepo,
		cache:       cache,
		location:    location,
	}
}

// Handle выполняет запрос рейтинга.
func (h *LeaderboardHandler) Handle(ctx context.Context, q LeaderboardQuery) (*LeaderboardResult, error) {
	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}
	weekStart := checkin.WeekStartOf(now, h.location)

	if h.cache != nil {
		if entries, err := h.cache.Get(ctx, weekStart); err == nil && len(entries) > 0 {
			return &LeaderboardResult{
				WeekStart: weekStart,
				Entries:   entries,
				FromCache: true,
			}, nil
		}
	}

	members, err := h.memberRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: failed to load roster: %w", err)
	}
	records, err := h.checkinRepo.GetWeekAll(ctx, weekStart)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: failed to load week: %w", err)
	}

	roster := make([]progress.RosterEntry, 0, len(members))
	for _, m := range members {
		roster = append(roster, progress.RosterEntry{
			MemberID:    m.ID,
			DisplayName: m.DisplayName.String(),
		})
	}

	entries := progress.BuildLeaderboard(progress.BuildWeeklyTable(roster, records))

	if h.cache != nil {
		// Кэш - оптимизация: ошибка записи не должна ронять запрос.
		_ = h.cache.Put(ctx, weekStart, entries)
	}

	return &LeaderboardResult{WeekStart: weekStart, Entries: entries}, nil
}
