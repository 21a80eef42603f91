package gamification

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION ENGINE
// Чистая оценка одной принятой отметки: сколько XP начислить и какие
// бейджи предложить к выдаче. Идемпотентность выдачи (бейдж уже есть,
// бонус уже выдан) обеспечивается состоянием и репозиторием, движок
// лишь вычисляет кандидатов.
// ══════════════════════════════════════════════════════════════════════════════

// CheckinFacts - факты об отметке, необходимые движку. Собираются
// application-слоем из события и истории участника.
type CheckinFacts struct {
	// MemberID - идентификатор участника.
	MemberID string

	// WeekStart - понедельник недели отметки.
	WeekStart time.Time

	// LocalDate - локальная дата отметки.
	LocalDate time.Time

	// WeeklyCount - слотов занято после этой отметки (1..3).
	WeeklyCount int

	// IsFirstSlotOnMonday - это первый слот недели и локальная дата
	// приходится на понедельник.
	IsFirstSlotOnMonday bool

	// HadAnyFullWeekBefore - у участника уже была полная неделя раньше.
	HadAnyFullWeekBefore bool

	// PreviousWeekWasEmpty - в предыдущей неделе отметок не было.
	PreviousWeekWasEmpty bool

	// StreakWithCurrent - серия полных недель с учётом текущей,
	// если она только что закрылась.
	StreakWithCurrent int
}

// Outcome - результат оценки отметки.
type Outcome struct {
	// BaseXP - начисление за саму отметку.
	BaseXP XP

	// WeeklyBonus - true, если неделя только что закрылась и участнику
	// положен недельный бонус (State.BonusGrantedFor страхует повтор).
	WeeklyBonus bool

	// Badges - бейджи-кандидаты. Уже выданные отфильтрует репозиторий.
	Badges []BadgeCode
}

// Engine оценивает отметки. Порог серии настраивается конфигурацией.
type Engine struct {
	streakThreshold int
}

// NewEngine создаёт движок прогрессии.
func NewEngine(streakThreshold int) *Engine {
	if streakThreshold <= 0 {
		streakThreshold = DefaultStreakThreshold
	}
	return &Engine{streakThreshold: streakThreshold}
}

// StreakThreshold возвращает настроенный порог серии.
func (e *Engine) StreakThreshold() int {
	return e.streakThreshold
}

// Evaluate оценивает принятую отметку.
func (e *Engine) Evaluate(facts CheckinFacts) Outcome {
	out := Outcome{BaseXP: XPPerCheckin}

	weekJustCompleted := facts.WeeklyCount == 3

	if weekJustCompleted {
		out.WeeklyBonus = true

		if !facts.HadAnyFullWeekBefore {
			out.Badges = append(out.Badges, BadgeFirstFullWeek)
		}
		if facts.PreviousWeekWasEmpty && facts.HadAnyFullWeekBefore {
			out.Badges = append(out.Badges, BadgeComeback)
		}
		if facts.StreakWithCurrent >= e.streakThreshold {
			out.Badges = append(out.Badges, BadgeStreak)
		}
	}

	if facts.IsFirstSlotOnMonday {
		out.Badges = append(out.Badges, BadgeEarlyStart)
	}

	return out
}
