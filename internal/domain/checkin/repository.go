package checkin

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над активным журналом отметок.
type Repository interface {
	// Create вставляет отметку. Уникальные индексы (member_id, local_date)
	// и (member_id, week_start, slot) - последняя линия защиты от гонок;
	// нарушение возвращается как shared.ErrAlreadyLogged.
	Create(ctx context.Context, record *Record) error

	// GetWeek возвращает отметки участника за неделю,
	// отсортированные по occurred_at.
	GetWeek(ctx context.Context, memberID string, weekStart time.Time) ([]*Record, error)

	// GetWeekAll возвращает все отметки всех участников за неделю.
	GetWeekAll(ctx context.Context, weekStart time.Time) ([]*Record, error)

	// DeleteLatest удаляет последнюю по occurred_at отметку участника
	// за неделю и возвращает её. Возвращает shared.ErrNothingToUndo,
	// если отметок нет.
	DeleteLatest(ctx context.Context, memberID string, weekStart time.Time) (*Record, error)

	// GetMemberWeeks возвращает для участника количество занятых слотов
	// по неделям (включая архив), от новых к старым, не более limit недель.
	GetMemberWeeks(ctx context.Context, memberID string, limit int) ([]WeekSummary, error)

	// GetHistory возвращает отметки участника (включая архив)
	// от новых к старым, не более limit штук.
	GetHistory(ctx context.Context, memberID string, limit int) ([]*Record, error)
}

// WeekSummary - агрегат одной недели участника.
type WeekSummary struct {
	// WeekStart - понедельник недели.
	WeekStart time.Time

	// SlotCount - количество занятых слотов (0..3).
	SlotCount int

	// TotalMinutes - суммарная длительность занятий недели.
	TotalMinutes int
}

// ArchiveRepository определяет операции переноса завершённой недели в архив.
type ArchiveRepository interface {
	// ArchiveWeek переносит все отметки недели из активного журнала
	// в архив одной транзакцией и возвращает перенесённые записи.
	ArchiveWeek(ctx context.Context, weekStart time.Time) ([]*Record, error)

	// PurgeWeek удаляет отметки недели из активного журнала без
	// сохранения в архиве. Возвращает количество удалённых записей.
	PurgeWeek(ctx context.Context, weekStart time.Time) (int, error)

	// RestoreArchive вставляет архивные записи, пропуская уже
	// существующие (member_id, week_start, slot). Возвращает количество
	// реально вставленных записей.
	RestoreArchive(ctx context.Context, records []*Record) (int, error)

	// GetArchivedWeeks возвращает агрегаты архивных недель участника,
	// от новых к старым, не более limit недель.
	GetArchivedWeeks(ctx context.Context, memberID string, limit int) ([]WeekSummary, error)
}
