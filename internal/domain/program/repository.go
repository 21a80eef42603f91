package program

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над программами и записями на них.
type Repository interface {
	// GetProgram возвращает программу по имени.
	// Возвращает shared.ErrProgramNotFound, если программы нет.
	GetProgram(ctx context.Context, name string) (*Program, error)

	// ListPrograms возвращает все программы в алфавитном порядке имён.
	ListPrograms(ctx context.Context) ([]*Program, error)

	// SavePrograms сохраняет каталог программ (используется сидированием).
	SavePrograms(ctx context.Context, programs []*Program) error

	// GetEnrollment возвращает активную запись участника.
	// Возвращает shared.ErrNotEnrolled, если записи нет.
	GetEnrollment(ctx context.Context, memberID string) (*Enrollment, error)

	// SaveEnrollment создаёт или обновляет запись участника.
	SaveEnrollment(ctx context.Context, enrollment *Enrollment) error

	// DeleteEnrollment снимает участника с программы.
	DeleteEnrollment(ctx context.Context, memberID string) error
}
