package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/member"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNDO CHECK-IN COMMAND
// Удаляет последнюю по времени отметку текущей недели. Уже начисленный
// XP и выданные бейджи не отзываются - награды выдаются только вперёд.
// ══════════════════════════════════════════════════════════════════════════════

// UndoCheckinCommand содержит данные для отмены отметки.
type UndoCheckinCommand struct {
	// MemberID - внутренний идентификатор участника.
	MemberID string

	// Now - момент отмены (по умолчанию time.Now).
	Now time.Time
}

// Validate проверяет корректность команды.
func (c UndoCheckinCommand) Validate() error {
	if c.MemberID == "" {
		return errors.New("undo_checkin: member_id is required")
	}
	return nil
}

// UndoCheckinResult содержит результат отмены.
type UndoCheckinResult struct {
	// Removed - удалённая отметка.
	Removed *checkin.Record

	// RemainingCount - занято слотов недели после удаления.
	RemainingCount int

	// Events - опубликованные доменные события.
	Events []shared.Event
}

// UndoCheckinHandler обрабатывает UndoCheckinCommand.
type UndoCheckinHandler struct {
	memberRepo     member.Repository
	checkinRepo    checkin.Repository
	invalidator    LeaderboardInvalidator
	eventPublisher shared.EventPublisher
	location       *time.Location
	logger         *slog.Logger
}

// NewUndoCheckinHandler создаёт новый UndoCheckinHandler.
func NewUndoCheckinHandler(
	memberRepo member.Repository,
	checkinRepo checkin.Repository,
	invalidator LeaderboardInvalidator,
	eventPublisher shared.EventPublisher,
	location *time.Location,
	logger *slog.Logger,
) *UndoCheckinHandler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UndoCheckinHandler{
		memberRepo:     memberRepo,
		checkinRepo:    checkinRepo,
		invalidator:    invalidator,
		eventPublisher: eventPublisher,
		location:       location,
		logger:         logger,
	}
}

// Handle выполняет команду отмены.
func (h *UndoCheckinHandler) Handle(ctx context.Context, cmd UndoCheckinCommand) (*UndoCheckinResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("undo_checkin: validation failed: %w", err)
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}

	m, err := h.memberRepo.GetByID(ctx, cmd.MemberID)
	if err != nil {
		return nil, fmt.Errorf("undo_checkin: %w", err)
	}

	weekStart := checkin.WeekStartOf(now, h.location)

	removed, err := h.checkinRepo.DeleteLatest(ctx, m.ID, weekStart)
	if err != nil {
		return nil, err
	}

	remaining, err := h.checkinRepo.GetWeek(ctx, m.ID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("undo_checkin: failed to reload week: %w", err)
	}

	result := &UndoCheckinResult{
		Removed:        removed,
		RemainingCount: len(remaining),
		Events:         make([]shared.Event, 0, 1),
	}

	undone := shared.NewCheckinUndoneEvent(
		m.ID, m.DisplayName.String(),
		weekStart, int(removed.Slot), len(remaining),
	)
	result.Events = append(result.Events, undone)
	if err := h.eventPublisher.Publish(undone); err != nil {
		h.logger.Error("failed to publish event",
			"event_type", undone.EventType(),
			"member_id", m.ID,
			"error", err,
		)
	}

	if h.invalidator != nil {
		_ = h.invalidator.Invalidate(ctx, weekStart)
	}

	return result, nil
}
