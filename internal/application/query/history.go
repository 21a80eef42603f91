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
// HISTORY QUERY
// История недель участника от новых к старым. Недели без отметок
// показываются нулевыми строками, чтобы лента читалась непрерывно.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultHistoryDepth - глубина истории по умолчанию.
const DefaultHistoryDepth = 4

// MaxHistoryDepth - верхняя граница глубины истории.
const MaxHistoryDepth = 26

// HistoryQuery содержит параметры запроса истории.
type HistoryQuery struct {
	// MemberID - внутренний идентификатор участника.
	MemberID string

	// Limit - количество недель (по умолчанию 4, максимум 26).
	Limit int

	// Now - момент запроса (по умолчанию time.Now).
	Now time.Time
}

// Validate проверяет и нормализует параметры запроса.
func (q *HistoryQuery) Validate() error {
	if q.MemberID == "" {
		return errors.New("history: member_id is required")
	}
	if q.Limit < 0 {
		return errors.New("history: limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = DefaultHistoryDepth
	}
	if q.Limit > MaxHistoryDepth {
		q.Limit = MaxHistoryDepth
	}
	return nil
}

// HistoryResult содержит историю недель участника.
type HistoryResult struct {
	// Weeks - недели от новых к старым, первая - текущая.
	Weeks []progress.HistoryWeek
}

// HistoryHandler обрабатывает HistoryQuery.
type HistoryHandler struct {
	checkinRepo checkin.Repository
	location    *time.Location
}

// NewHistoryHandler создаёт новый HistoryHandler.
func NewHistoryHandler(checkinRepo checkin.Repository, location *time.Location) *HistoryHandler {
	if location == nil {
		location = time.UTC
	}
	return &HistoryHandler{checkinRepo: checkinRepo, location: location}
}

// Handle выполняет запрос истории.
func (h *HistoryHandler) Handle(ctx context.Context, q HistoryQuery) (*HistoryResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}
	weekStart := checkin.WeekStartOf(now, h.location)

	weeks, err := h.checkinRepo.GetMemberWeeks(ctx, q.MemberID, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("history: failed to load weeks: %w", err)
	}

	return &HistoryResult{
		Weeks: progress.BuildHistory(weeks, weekStart, q.Limit),
	}, nil
}
