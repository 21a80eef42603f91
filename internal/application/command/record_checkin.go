// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/member"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD CHECK-IN COMMAND
// Принимает отметку о занятии: проверяет правила журнала (одна отметка
// в день, слоты строго по порядку), фиксирует запись и публикует событие.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardInvalidator сбрасывает кэш недельного рейтинга после мутаций
// журнала. Реализация живёт в infrastructure/persistence/redis.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context, weekStart time.Time) error
}

// RecordCheckinCommand содержит данные для отметки о занятии.
type RecordCheckinCommand struct {
	// MemberID - внутренний идентификатор участника.
	MemberID string

	// Slot - запрошенный слот. Ноль означает "следующий по порядку".
	Slot int

	// Minutes - длительность занятия. Ноль означает длительность
	// по умолчанию.
	Minutes int

	// Note - необязательная заметка участника.
	Note string

	// Now - момент отметки (по умолчанию time.Now).
	Now time.Time
}

// Validate проверяет корректность команды.
func (c RecordCheckinCommand) Validate() error {
	if c.MemberID == "" {
		return errors.New("record_checkin: member_id is required")
	}
	if c.Slot != 0 && !checkin.Slot(c.Slot).IsValid() {
		return shared.ErrInvalidSlot
	}
	if c.Minutes < 0 || checkin.Minutes(c.Minutes) > checkin.MaxMinutes {
		return checkin.ErrInvalidMinutes
	}
	return nil
}

// RecordCheckinResult содержит результат принятой отметки.
type RecordCheckinResult struct {
	// Record - зафиксированная отметка.
	Record *checkin.Record

	// WeeklyCount - занято слотов недели после этой отметки (1..3).
	WeeklyCount int

	// WeekCompleted - неделя закрылась этой отметкой.
	WeekCompleted bool

	// Events - опубликованные доменные события.
	Events []shared.Event
}

// RecordCheckinHandler обрабатывает RecordCheckinCommand.
type RecordCheckinHandler struct {
	memberRepo     member.Repository
	checkinRepo    checkin.Repository
	invalidator    LeaderboardInvalidator
	eventPublisher shared.EventPublisher
	location       *time.Location
	logger         *slog.Logger
}

// NewRecordCheckinHandler создаёт новый RecordCheckinHandler.
// invalidator может быть nil, если кэш рейтинга не настроен.
func NewRecordCheckinHandler(
	memberRepo member.Repository,
	checkinRepo checkin.Repository,
	invalidator LeaderboardInvalidator,
	eventPublisher shared.EventPublisher,
	location *time.Location,
	logger *slog.Logger,
) *RecordCheckinHandler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordCheckinHandler{
		memberRepo:     memberRepo,
		checkinRepo:    checkinRepo,
		invalidator:    invalidator,
		eventPublisher: eventPublisher,
		location:       location,
		logger:         logger,
	}
}

// Handle выполняет команду отметки.
func (h *RecordCheckinHandler) Handle(ctx context.Context, cmd RecordCheckinCommand) (*RecordCheckinResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_checkin: validation failed: %w", err)
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}

	m, err := h.memberRepo.GetByID(ctx, cmd.MemberID)
	if err != nil {
		return nil, fmt.Errorf("record_checkin: %w", err)
	}

	localDate := checkin.LocalDateOf(now, h.location)
	weekStart := checkin.WeekStartOf(now, h.location)

	records, err := h.checkinRepo.GetWeek(ctx, m.ID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("record_checkin: failed to load week: %w", err)
	}
	week := checkin.NewWeekState(weekStart, records)

	slot := checkin.Slot(cmd.Slot)
	if slot == 0 {
		slot = week.NextRequiredSlot()
	}

	if err := week.Admit(slot, localDate); err != nil {
		return nil, err
	}

	record, err := checkin.NewRecord(
		uuid.New().String(),
		m.ID,
		m.DisplayName.String(),
		weekStart,
		localDate,
		slot,
		checkin.Minutes(cmd.Minutes),
		cmd.Note,
	)
	if err != nil {
		return nil, fmt.Errorf("record_checkin: %w", err)
	}

	// Уникальные индексы хранилища - последняя линия защиты от гонки
	// двух параллельных отметок; нарушение приходит как ErrAlreadyLogged.
	if err := h.checkinRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	weeklyCount := week.SlotCount() + 1
	result := &RecordCheckinResult{
		Record:        record,
		WeeklyCount:   weeklyCount,
		WeekCompleted: weeklyCount >= checkin.SlotsPerWeek,
		Events:        make([]shared.Event, 0, 2),
	}

	accepted := shared.NewCheckinAcceptedEvent(
		m.ID, m.DisplayName.String(),
		weekStart, localDate,
		int(slot), weeklyCount, int(record.Minutes),
	)
	result.Events = append(result.Events, accepted)

	if result.WeekCompleted {
		result.Events = append(result.Events,
			shared.NewWeekCompletedEvent(m.ID, m.DisplayName.String(), weekStart))
	}

	// Отметка уже зафиксирована: сбой публикации лишает наград, но не
	// отменяет запись, поэтому логируется и не возвращается наверх.
	for _, event := range result.Events {
		if err := h.eventPublisher.Publish(event); err != nil {
			h.logger.Error("failed to publish event",
				"event_type", event.EventType(),
				"member_id", m.ID,
				"error", err,
			)
		}
	}

	if h.invalidator != nil {
		_ = h.invalidator.Invalidate(ctx, weekStart)
	}

	return result, nil
}
