// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
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
// WEEKLY TABLE QUERY
// Таблица текущей недели для всего ростера: кто сколько слотов закрыл.
// Участники без отметок получают пустые строки, порядок - порядок ростера.
// ══════════════════════════════════════════════════════════════════════════════

// WeeklyTableQuery содержит параметры запроса таблицы.
type WeeklyTableQuery struct {
	// Now - момент запроса, определяет неделю (по умолчанию time.Now).
	Now time.Time
}

// WeeklyTableResult содержит таблицу недели.
type WeeklyTableResult struct {
	// WeekStart - понедельник недели.
	WeekStart time.Time

	// Rows - строки таблицы в порядке ростера.
	Rows []progress.TableRow

	// FullCount - количество участников с полной неделей.
	FullCount int
}

// WeeklyTableHandler обрабатывает WeeklyTableQuery.
type WeeklyTableHandler struct {
	memberRepo  member.Repository
	checkinRepo checkin.Repository
	location    *time.Location
}

// NewWeeklyTableHandler создаёт новый WeeklyTableHandler.
func NewWeeklyTableHandler(
	memberRepo member.Repository,
	checkinRepo checkin.Repository,
	location *time.Location,
) *WeeklyTableHandler {
	if location == nil {
		location = time.UTC
	}
	return &WeeklyTableHandler{
		memberRepo:  memberRepo,
		checkinRepo: checkinRepo,
		location:    location,
	}
}

// Handle выполняет запрос таблицы недели.
func (h *WeeklyTableHandler) Handle(ctx context.Context, q WeeklyTableQuery) (*WeeklyTableResult, error) {
	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}
	weekStart := checkin.WeekStartOf(now, h.location)

	members, err := h.memberRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("weekly_table: failed to load roster: %w", err)
	}

	records, err := h.checkinRepo.GetWeekAll(ctx, weekStart)
	if err != nil {
		return nil, fmt.Errorf("weekly_table: failed to load week: %w", err)
	}

	roster := make([]progress.RosterEntry, 0, len(members))
	for _, m := range members {
		roster = append(roster, progress.RosterEntry{
			MemberID:    m.ID,
			DisplayName: m.DisplayName.String(),
		})
	}

	rows := progress.BuildWeeklyTable(roster, records)
	full := 0
	for _, row := range rows {
		if row.IsFull() {
			full++
		}
	}

	return &WeeklyTableResult{
		WeekStart: weekStart,
		Rows:      rows,
		FullCount: full,
	}, nil
}
