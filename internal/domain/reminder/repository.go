package reminder

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над персистентными расписаниями.
// Хранится только спецификация: живые триггеры всегда перестраиваются
// из неё при старте процесса.
type Repository interface {
	// Upsert сохраняет расписание участника, заменяя существующее.
	Upsert(ctx context.Context, schedule *Schedule) error

	// GetByMember возвращает расписание участника.
	// Возвращает shared.ErrNoActiveSchedule, если расписание не задано.
	GetByMember(ctx context.Context, memberID string) (*Schedule, error)

	// Delete удаляет расписание участника.
	// Возвращает shared.ErrNoActiveSchedule, если расписания не было.
	Delete(ctx context.Context, memberID string) error

	// GetAll возвращает все расписания для восстановления триггеров
	// при старте.
	GetAll(ctx context.Context) ([]*Schedule, error)
}
