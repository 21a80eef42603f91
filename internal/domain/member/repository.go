package member

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет основные операции для участников.
type Repository interface {
	// Create создаёт нового участника.
	// Возвращает shared.ErrMemberAlreadyExists, если участник уже существует.
	Create(ctx context.Context, member *Member) error

	// GetByID возвращает участника по внутреннему ID.
	// Возвращает shared.ErrMemberNotRegistered, если участник не найден.
	GetByID(ctx context.Context, id string) (*Member, error)

	// GetByExternalID возвращает участника по идентификатору мессенджера.
	// Возвращает shared.ErrMemberNotRegistered, если участник не найден.
	GetByExternalID(ctx context.Context, externalID ExternalID) (*Member, error)

	// GetByDisplayName возвращает участника по имени из ростера
	// (без учёта регистра).
	GetByDisplayName(ctx context.Context, name DisplayName) (*Member, error)

	// Update обновляет данные участника.
	Update(ctx context.Context, member *Member) error

	// GetAll возвращает всех участников в порядке ростера.
	GetAll(ctx context.Context) ([]*Member, error)

	// GetActive возвращает участников, отображаемых в таблицах.
	GetActive(ctx context.Context) ([]*Member, error)

	// Count возвращает общее количество участников.
	Count(ctx context.Context) (int, error)
}
