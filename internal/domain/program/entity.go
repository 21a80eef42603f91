// Package program содержит доменную модель практических программ -
// заранее заданных последовательностей шагов (распевки, упражнения),
// по которым участник может заниматься.
package program

import (
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Program - практическая программа с упорядоченными шагами.
type Program struct {
	// Name - уникальное имя программы.
	Name string

	// Title - название, показываемое участнику.
	Title string

	// Steps - упорядоченные шаги программы.
	Steps []Step
}

// Step - один шаг программы.
type Step struct {
	// Title - название шага.
	Title string

	// VideoURL - ссылка на видео с упражнением (необязательно).
	VideoURL string

	// Minutes - рекомендуемая длительность шага.
	Minutes int
}

// StepCount возвращает количество шагов программы.
func (p *Program) StepCount() int {
	return len(p.Steps)
}

// StepAt возвращает шаг по номеру (1-based).
func (p *Program) StepAt(n int) (Step, bool) {
	if n < 1 || n > len(p.Steps) {
		return Step{}, false
	}
	return p.Steps[n-1], true
}

// Enrollment - активная запись участника на программу.
// У участника не больше одной активной записи.
type Enrollment struct {
	// MemberID - идентификатор участника.
	MemberID string

	// ProgramName - имя программы.
	ProgramName string

	// CurrentStep - текущий шаг (1-based).
	CurrentStep int

	// StartedAt - время записи на программу.
	StartedAt time.Time

	// UpdatedAt - время последнего продвижения.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyProgram - программа без шагов.
	ErrEmptyProgram = errors.New("program must have at least one step")

	// ErrProgramCompleted - участник прошёл все шаги программы.
	ErrProgramCompleted = errors.New("program is already completed")
)

// NewEnrollment записывает участника на программу с первого шага.
func NewEnrollment(memberID string, p *Program) (*Enrollment, error) {
	if p.StepCount() == 0 {
		return nil, ErrEmptyProgram
	}
	now := time.Now()
	return &Enrollment{
		MemberID:    memberID,
		ProgramName: p.Name,
		CurrentStep: 1,
		StartedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Advance продвигает участника на следующий шаг.
func (e *Enrollment) Advance(p *Program) error {
	if e.CurrentStep >= p.StepCount() {
		return ErrProgramCompleted
	}
	e.CurrentStep++
	e.UpdatedAt = time.Now()
	return nil
}

// IsCompleted проверяет, пройдена ли программа.
func (e *Enrollment) IsCompleted(p *Program) bool {
	return e.CurrentStep >= p.StepCount()
}
