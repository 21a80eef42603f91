// Package checkin содержит доменную модель журнала отметок о занятиях.
// Здесь живут правила слотов: какие отметки принимаются, какие отклоняются.
package checkin

import (
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Slot представляет номер отметки внутри недели (1, 2 или 3).
type Slot int

const (
	// SlotFirst - первая отметка недели.
	SlotFirst Slot = 1
	// SlotSecond - вторая отметка недели.
	SlotSecond Slot = 2
	// SlotThird - третья отметка недели, закрывающая неделю.
	SlotThird Slot = 3

	// SlotsPerWeek - целевое количество занятий в неделю.
	SlotsPerWeek = 3
)

// IsValid проверяет, что номер слота в допустимом диапазоне.
func (s Slot) IsValid() bool {
	return s >= SlotFirst && s <= SlotThird
}

// IsLast возвращает true, если слот закрывает неделю.
func (s Slot) IsLast() bool {
	return s == SlotThird
}

// Minutes представляет длительность занятия в минутах.
type Minutes int

// DefaultMinutes - длительность занятия по умолчанию.
const DefaultMinutes Minutes = 20

// MaxMinutes - верхняя граница длительности одного занятия.
const MaxMinutes Minutes = 600

// IsValid проверяет, что длительность в допустимом диапазоне.
func (m Minutes) IsValid() bool {
	return m > 0 && m <= MaxMinutes
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record - одна принятая отметка о занятии.
type Record struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// MemberID - идентификатор участника.
	MemberID string

	// DisplayName - имя участника на момент отметки. Денормализовано,
	// чтобы архивные строки не зависели от таблицы участников.
	DisplayName string

	// WeekStart - понедельник недели отметки (локальная дата, полночь).
	WeekStart time.Time

	// LocalDate - локальная дата занятия (полночь таймзоны группы).
	LocalDate time.Time

	// Slot - номер отметки внутри недели.
	Slot Slot

	// Minutes - длительность занятия.
	Minutes Minutes

	// Note - необязательная заметка участника.
	Note string

	// CreatedAt - момент фиксации отметки.
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidSlot - номер слота вне диапазона 1..3.
	ErrInvalidSlot = errors.New("invalid slot: must be between 1 and 3")

	// ErrInvalidMinutes - невалидная длительность занятия.
	ErrInvalidMinutes = errors.New("invalid minutes: must be between 1 and 600")

	// ErrDateOutsideWeek - локальная дата не принадлежит неделе записи.
	ErrDateOutsideWeek = errors.New("local date is outside the record week")
)

// NewRecord создаёт новую отметку. Минуты по умолчанию подставляются,
// если переданный ноль.
func NewRecord(id, memberID, displayName string, weekStart, localDate time.Time, slot Slot, minutes Minutes, note string) (*Record, error) {
	if !slot.IsValid() {
		return nil, ErrInvalidSlot
	}
	if minutes == 0 {
		minutes = DefaultMinutes
	}
	if !minutes.IsValid() {
		return nil, ErrInvalidMinutes
	}
	if localDate.Before(weekStart) || !localDate.Before(weekStart.AddDate(0, 0, 7)) {
		return nil, ErrDateOutsideWeek
	}

	return &Record{
		ID:          id,
		MemberID:    memberID,
		DisplayName: displayName,
		WeekStart:   weekStart,
		LocalDate:   localDate,
		Slot:        slot,
		Minutes:     minutes,
		Note:        note,
		CreatedAt:   time.Now(),
	}, nil
}
