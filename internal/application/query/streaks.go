package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAKS QUERY
// Серия полных недель участника. Пропущенная неделя - это неделя с нулём
// отметок, она прерывает серию так же, как неполная.
// ══════════════════════════════════════════════════════════════════════════════

// streakLookback ограничивает глубину обхода недель при вычислении серии.
const streakLookback = 104

// StreaksQuery содержит параметры запроса серии.
type StreaksQuery struct {
	// MemberID - внутренний идентификатор участника.
	MemberID string

	// Now - момент запроса (по умолчанию time.Now).
	Now time.Time
}

// Validate проверяет корректность запроса.
func (q StreaksQuery) Validate() error {
	if q.MemberID == "" {
		return errors.New("streaks: member_id is required")
	}
	return nil
}

// StreaksResult содержит серии участника.
type StreaksResult struct {
	// Completed - серия полных недель до текущей (текущая не считается).
	Completed int

	// WithCurrentWeek - серия с учётом текущей недели, если она полная.
	WithCurrentWeek int

	// CurrentWeekFull - текущая неделя закрыта полностью.
	CurrentWeekFull bool
}

// StreaksHandler обрабатывает StreaksQuery.
type StreaksHandler struct {
	checkinRepo checkin.Repository
	location    *time.Location
}

// NewStreaksHandler создаёт новый StreaksHandler.
func NewStreaksHandler(checkinRepo checkin.Repository, location *time.Location) *StreaksHandler {
	if location == nil {
		location = time.UTC
	}
	return &StreaksHandler{checkinRepo: checkinRepo, location: location}
}

// Handle выполняет запрос серии.
func (h *StreaksHandler) Handle(ctx context.Context, q StreaksQuery) (*StreaksResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}
	weekStart := checkin.WeekStartOf(now, h.location)

	weeks, err := h.checkinRepo.GetMemberWeeks(ctx, q.MemberID, streakLookback)
	if err != nil {
		return nil, fmt.Errorf("streaks: failed to load weeks: %w", err)
	}

	currentFull := false
	for _, w := range weeks {
		if w.WeekStart.Equal(weekStart) {
			currentFull = w.SlotCount >= checkin.SlotsPerWeek
			break
		}
	}

	completed := progress.Streak(weeks, weekStart)
	return &StreaksResult{
		Completed:       completed,
		WithCurrentWeek: progress.StreakIncludingCurrent(weeks, weekStart, currentFull),
		CurrentWeekFull: currentFull,
	}, nil
}
