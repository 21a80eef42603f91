// Package gamification содержит механику прогрессии: очки опыта, уровни
// и бейджи. Очки начисляются только вперёд - отмена отметки не отбирает
// уже выданный опыт, бейджи не отзываются.
package gamification

import (
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// XP AND LEVELS
// ══════════════════════════════════════════════════════════════════════════════

// XP представляет очки опыта участника.
type XP int

// IsValid проверяет, что XP неотрицательный.
func (x XP) IsValid() bool {
	return x >= 0
}

// Add складывает XP.
func (x XP) Add(delta XP) XP {
	return x + delta
}

// Награды за действия.
const (
	// XPPerCheckin - начисление за принятую отметку.
	XPPerCheckin XP = 10

	// XPWeeklyBonus - разовый бонус за закрытие недели (переход 2 -> 3).
	XPWeeklyBonus XP = 25
)

// Level представляет уровень участника, вычисляемый из XP.
type Level int

// levelThresholds - суммарный XP, необходимый для каждого уровня.
// Уровень 0 - нулевой порог, дальше шаг растёт.
var levelThresholds = []XP{0, 50, 125, 250, 450, 700, 1000}

// xpPerLevelBeyondTable - шаг уровня после последнего табличного порога.
const xpPerLevelBeyondTable XP = 400

// CalculateLevel вычисляет уровень на основе суммарного XP: количество
// табличных порогов, не превышающих total. Нулевой порог даёт минимум
// первый уровень, дальше шаг xpPerLevelBeyondTable.
func CalculateLevel(total XP) Level {
	if total < 0 {
		return 1
	}
	level := 0
	for _, threshold := range levelThresholds {
		if total >= threshold {
			level++
		}
	}
	if level == len(levelThresholds) {
		extra := total - levelThresholds[len(levelThresholds)-1]
		level += int(extra / xpPerLevelBeyondTable)
	}
	if level < 1 {
		level = 1
	}
	return Level(level)
}

// NextLevelThreshold возвращает суммарный XP, необходимый для следующего
// уровня после текущего.
func NextLevelThreshold(current Level) XP {
	if current < 1 {
		current = 1
	}
	if int(current) < len(levelThresholds) {
		return levelThresholds[current]
	}
	beyond := int(current) - (len(levelThresholds) - 1)
	return levelThresholds[len(levelThresholds)-1] + XP(beyond)*xpPerLevelBeyondTable
}

// ══════════════════════════════════════════════════════════════════════════════
// XP STATE
// ══════════════════════════════════════════════════════════════════════════════

// State - накопленный прогресс участника.
type State struct {
	// MemberID - идентификатор участника.
	MemberID string

	// TotalXP - суммарный опыт.
	TotalXP XP

	// Level - текущий уровень (производный от TotalXP).
	Level Level

	// LastBonusWeek - понедельник последней недели, за которую выдан
	// недельный бонус. Страхует идемпотентность бонуса.
	LastBonusWeek time.Time

	// LastBadge - код последнего выданного бейджа, пустой, если
	// бейджей ещё нет.
	LastBadge BadgeCode

	// UpdatedAt - время последнего начисления.
	UpdatedAt time.Time
}

// ErrInvalidXPAmount - попытка начислить неположительный XP.
var ErrInvalidXPAmount = errors.New("xp amount must be positive")

// NewState создаёт пустое состояние прогресса.
func NewState(memberID string) *State {
	return &State{
		MemberID:  memberID,
		TotalXP:   0,
		Level:     CalculateLevel(0),
		UpdatedAt: time.Now(),
	}
}

// Award начисляет XP и возвращает true, если произошёл переход уровня.
func (s *State) Award(amount XP) (leveledUp bool, err error) {
	if amount <= 0 {
		return false, ErrInvalidXPAmount
	}
	oldLevel := s.Level
	s.TotalXP = s.TotalXP.Add(amount)
	s.Level = CalculateLevel(s.TotalXP)
	s.UpdatedAt = time.Now()
	return s.Level > oldLevel, nil
}

// BonusGrantedFor проверяет, выдан ли уже недельный бонус за эту неделю.
func (s *State) BonusGrantedFor(weekStart time.Time) bool {
	return s.LastBonusWeek.Equal(weekStart)
}

// MarkBonusGranted фиксирует выдачу недельного бонуса.
func (s *State) MarkBonusGranted(weekStart time.Time) {
	s.LastBonusWeek = weekStart
	s.UpdatedAt = time.Now()
}

// MarkBadge фиксирует последний выданный бейдж.
func (s *State) MarkBadge(code BadgeCode) {
	s.LastBadge = code
	s.UpdatedAt = time.Now()
}
