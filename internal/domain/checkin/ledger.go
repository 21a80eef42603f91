package checkin

import (
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER RULES
// Чистые правила приёма отметок. Не трогают хранилище: на вход - уже
// загруженные записи недели, на выход - решение. Репозиторий дополнительно
// страхует от гонок уникальными индексами.
// ══════════════════════════════════════════════════════════════════════════════

// WeekState - состояние недели одного участника, загруженное из хранилища.
type WeekState struct {
	// WeekStart - понедельник недели.
	WeekStart time.Time

	// Records - принятые отметки недели, отсортированные по occurred_at.
	Records []*Record
}

// NewWeekState собирает состояние недели из загруженных записей.
func NewWeekState(weekStart time.Time, records []*Record) *WeekState {
	return &WeekState{WeekStart: weekStart, Records: records}
}

// SlotCount возвращает количество занятых слотов недели.
func (w *WeekState) SlotCount() int {
	return len(w.Records)
}

// NextRequiredSlot возвращает слот, который участник обязан занять
// следующим. Слоты занимаются строго по порядку, начиная с первого.
func (w *WeekState) NextRequiredSlot() Slot {
	return Slot(len(w.Records) + 1)
}

// IsFull возвращает true, если все слоты недели заняты.
func (w *WeekState) IsFull() bool {
	return len(w.Records) >= SlotsPerWeek
}

// HasDate проверяет, есть ли отметка на указанную локальную дату.
func (w *WeekState) HasDate(localDate time.Time) bool {
	for _, r := range w.Records {
		if r.LocalDate.Equal(localDate) {
			return true
		}
	}
	return false
}

// FilledSlots возвращает множество занятых слотов. Инвариант журнала
// гарантирует, что это всегда префикс {1, 2, 3}.
func (w *WeekState) FilledSlots() []Slot {
	slots := make([]Slot, 0, len(w.Records))
	for _, r := range w.Records {
		slots = append(slots, r.Slot)
	}
	return slots
}

// Latest возвращает последнюю по времени отметку недели или nil.
func (w *WeekState) Latest() *Record {
	if len(w.Records) == 0 {
		return nil
	}
	latest := w.Records[0]
	for _, r := range w.Records[1:] {
		if r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	return latest
}

// Admit проверяет отметку против правил журнала. Порядок проверок
// фиксирован: дневной лимит раньше порядка слотов, чтобы участник
// получал наиболее конкретный отказ.
func (w *WeekState) Admit(requested Slot, localDate time.Time) error {
	if !requested.IsValid() {
		return shared.ErrInvalidSlot
	}
	if w.HasDate(localDate) {
		return shared.ErrAlreadyCheckedInToday
	}
	if w.IsFull() || requested != w.NextRequiredSlot() {
		return shared.ErrOutOfOrderSlot
	}
	return nil
}
