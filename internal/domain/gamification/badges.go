package gamification

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGES
// Бейджи выдаются один раз и навсегда. Повторное выполнение условия
// ничего не меняет, отмена отметки бейдж не отзывает.
// ══════════════════════════════════════════════════════════════════════════════

// BadgeCode - стабильный код бейджа для хранения и идемпотентности.
type BadgeCode string

const (
	// BadgeFirstFullWeek - первая полностью закрытая неделя.
	BadgeFirstFullWeek BadgeCode = "first_full_week"

	// BadgeStreak - серия полных недель подряд (порог настраивается).
	BadgeStreak BadgeCode = "streak"

	// BadgeEarlyStart - первый слот недели занят в понедельник.
	BadgeEarlyStart BadgeCode = "early_start"

	// BadgeComeback - полная неделя сразу после недели без отметок.
	BadgeComeback BadgeCode = "comeback"
)

// Badge - описание бейджа для каталога.
type Badge struct {
	// Code - стабильный код.
	Code BadgeCode

	// Title - название, показываемое участнику.
	Title string

	// Description - условие получения простым языком.
	Description string
}

// DefaultStreakThreshold - порог серии для бейджа по умолчанию.
const DefaultStreakThreshold = 4

// Catalog возвращает каталог всех бейджей системы.
func Catalog(streakThreshold int) []Badge {
	if streakThreshold <= 0 {
		streakThreshold = DefaultStreakThreshold
	}
	return []Badge{
		{
			Code:        BadgeFirstFullWeek,
			Title:       "Первая полная неделя",
			Description: "Закрыты все три слота одной недели",
		},
		{
			Code:        BadgeStreak,
			Title:       "Серия",
			Description: "Полные недели несколько недель подряд",
		},
		{
			Code:        BadgeEarlyStart,
			Title:       "Ранний старт",
			Description: "Первый слот недели занят уже в понедельник",
		},
		{
			Code:        BadgeComeback,
			Title:       "Возвращение",
			Description: "Полная неделя сразу после пустой",
		},
	}
}

// FindBadge ищет бейдж в каталоге по коду.
func FindBadge(code BadgeCode) (Badge, bool) {
	for _, b := range Catalog(DefaultStreakThreshold) {
		if b.Code == code {
			return b, true
		}
	}
	return Badge{}, false
}

// Award - факт выдачи бейджа участнику.
type Award struct {
	// MemberID - идентификатор участника.
	MemberID string

	// DisplayName - имя участника на момент выдачи.
	DisplayName string

	// Code - код бейджа.
	Code BadgeCode

	// WeekStart - понедельник недели, отметка которой принесла бейдж.
	WeekStart time.Time

	// GrantedAt - время выдачи.
	GrantedAt time.Time
}
