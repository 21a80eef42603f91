package gamification

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// StateRepository определяет операции над состоянием прогрессии.
type StateRepository interface {
	// GetState возвращает состояние участника, создавая пустое при
	// первом обращении.
	GetState(ctx context.Context, memberID string) (*State, error)

	// SaveState сохраняет состояние участника.
	SaveState(ctx context.Context, state *State) error

	// GetAllStates возвращает состояния всех участников.
	GetAllStates(ctx context.Context) ([]*State, error)
}

// AwardRepository определяет операции над выданными бейджами.
type AwardRepository interface {
	// Grant выдаёт бейдж. Возвращает shared.ErrBadgeAlreadyGranted,
	// если бейдж уже выдан - выдача идемпотентна на уровне хранилища.
	Grant(ctx context.Context, award *Award) error

	// GetByMember возвращает бейджи участника в порядке выдачи.
	GetByMember(ctx context.Context, memberID string) ([]*Award, error)

	// Has проверяет наличие бейджа у участника.
	Has(ctx context.Context, memberID string, code BadgeCode) (bool, error)
}
