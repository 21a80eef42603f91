package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/reminder"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SET REMINDER COMMAND
// Устанавливает расписание напоминаний участника. Замена атомарна:
// новое расписание полностью вытесняет старое и в хранилище, и в живом
// реестре триггеров планировщика.
// ══════════════════════════════════════════════════════════════════════════════

// ReminderTriggers управляет живыми триггерами напоминаний участника.
// Реализация живёт в infrastructure/scheduler.
type ReminderTriggers interface {
	// Install заменяет триггер участника по расписанию.
	Install(schedule *reminder.Schedule) error

	// Remove снимает триггер участника.
	Remove(memberID string)
}

// SetReminderCommand содержит данные для установки расписания.
type SetReminderCommand struct {
	// MemberID - внутренний идентификатор участника.
	MemberID string

	// DaysRaw - список дней недели в формате "mon,wed,fri".
	DaysRaw string

	// TimeRaw - локальное время в формате "HH:MM".
	TimeRaw string
}

// Validate проверяет корректность команды.
func (c SetReminderCommand) Validate() error {
	if c.MemberID == "" {
		return errors.New("set_reminder: member_id is required")
	}
	return nil
}

// SetReminderResult содержит результат установки расписания.
type SetReminderResult struct {
	// Schedule - сохранённое расписание.
	Schedule *reminder.Schedule

	// Replaced - true, если расписание заменило существующее.
	Replaced bool
}

// SetReminderHandler обрабатывает SetReminderCommand.
type SetReminderHandler struct {
	scheduleRepo reminder.Repository
	triggers     ReminderTriggers
}

// NewSetReminderHandler создаёт новый SetReminderHandler.
func NewSetReminderHandler(scheduleRepo reminder.Repository, triggers ReminderTriggers) *SetReminderHandler {
	return &SetReminderHandler{
		scheduleRepo: scheduleRepo,
		triggers:     triggers,
	}
}

// Handle выполняет команду установки расписания.
func (h *SetReminderHandler) Handle(ctx context.Context, cmd SetReminderCommand) (*SetReminderResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	days, err := reminder.ParseWeekdaySet(cmd.DaysRaw)
	if err != nil {
		return nil, shared.WrapError("reminder", "Set", shared.ErrInvalidInput, "invalid weekday list", err)
	}
	at, err := reminder.ParseTimeOfDay(cmd.TimeRaw)
	if err != nil {
		return nil, shared.WrapError("reminder", "Set", shared.ErrInvalidInput, "invalid time", err)
	}

	schedule, err := reminder.NewSchedule(cmd.MemberID, days, at)
	if err != nil {
		return nil, shared.ErrInvalidSchedule
	}

	replaced := false
	if _, err := h.scheduleRepo.GetByMember(ctx, cmd.MemberID); err == nil {
		replaced = true
	}

	if err := h.scheduleRepo.Upsert(ctx, schedule); err != nil {
		return nil, fmt.Errorf("set_reminder: failed to save schedule: %w", err)
	}

	// Живой триггер строится из только что сохранённой спецификации:
	// при рестарте процесса он будет восстановлен из хранилища.
	if err := h.triggers.Install(schedule); err != nil {
		return nil, fmt.Errorf("set_reminder: failed to install trigger: %w", err)
	}

	return &SetReminderResult{Schedule: schedule, Replaced: replaced}, nil
}
