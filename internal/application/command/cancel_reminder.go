package command

import (
	"context"
	"errors"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/reminder"
)

// ══════════════════════════════════════════════════════════════════════════════
// CANCEL REMINDER COMMAND
// Снимает расписание напоминаний участника и его живой триггер.
// ══════════════════════════════════════════════════════════════════════════════

// CancelReminderCommand содержит данные для отмены расписания.
type CancelReminderCommand struct {
	// MemberID - внутренний идентификатор участника.
	MemberID string
}

// Validate проверяет корректность команды.
func (c CancelReminderCommand) Validate() error {
	if c.MemberID == "" {
		return errors.New("cancel_reminder: member_id is required")
	}
	return nil
}

// CancelReminderHandler обрабатывает CancelReminderCommand.
type CancelReminderHandler struct {
	scheduleRepo reminder.Repository
	triggers     ReminderTriggers
}

// NewCancelReminderHandler создаёт новый CancelReminderHandler.
func NewCancelReminderHandler(scheduleRepo reminder.Repository, triggers ReminderTriggers) *CancelReminderHandler {
	return &CancelReminderHandler{
		scheduleRepo: scheduleRepo,
		triggers:     triggers,
	}
}

// Handle выполняет команду отмены расписания.
// Возвращает shared.ErrNoActiveSchedule, если расписания не было.
func (h *CancelReminderHandler) Handle(ctx context.Context, cmd CancelReminderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if err := h.scheduleRepo.Delete(ctx, cmd.MemberID); err != nil {
		return err
	}

	// Триггер снимается после хранилища: даже если процесс упадёт между
	// шагами, при рестарте триггеры перестраиваются из хранилища и
	// осиротевший триггер не возродится.
	h.triggers.Remove(cmd.MemberID)

	return nil
}
