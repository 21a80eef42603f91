// Package reminder содержит доменную модель расписаний напоминаний.
// Расписание - декларативная спецификация "по каким дням недели и в
// какое локальное время напомнить". Живые триггеры из неё строит
// планировщик в infrastructure.
package reminder

import (
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// WeekdaySet представляет набор дней недели. Хранится как битовая маска:
// бит 0 - понедельник, бит 6 - воскресенье.
type WeekdaySet uint8

// weekdayNames - канонические трёхбуквенные имена дней, Monday-anchored.
var weekdayNames = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// mondayIndex переводит time.Weekday в индекс 0..6 с понедельником в нуле.
func mondayIndex(d time.Weekday) int {
	if d == time.Sunday {
		return 6
	}
	return int(d) - 1
}

// NewWeekdaySet собирает набор из дней недели.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << mondayIndex(d)
	}
	return s
}

// ParseWeekdaySet разбирает список дней из строки вида "mon,wed,fri".
// Допускаются полные имена и регистр не важен. Нераспознанные части
// молча пропускаются - пользовательский ввод бывает неряшливым; ошибка
// только если в итоге не распознан ни один день.
func ParseWeekdaySet(raw string) (WeekdaySet, error) {
	var s WeekdaySet
	parts := strings.Split(raw, ",")
	for _, part := range parts {
		token := strings.ToLower(strings.TrimSpace(part))
		if token == "" {
			continue
		}
		if len(token) > 3 {
			token = token[:3]
		}
		for i, name := range weekdayNames {
			if token == name {
				s |= 1 << i
				break
			}
		}
	}
	if s.IsEmpty() {
		return 0, fmt.Errorf("no recognizable weekdays in %q", raw)
	}
	return s, nil
}

// IsEmpty проверяет, что набор пуст.
func (s WeekdaySet) IsEmpty() bool {
	return s == 0
}

// Contains проверяет, входит ли день в набор.
func (s WeekdaySet) Contains(d time.Weekday) bool {
	return s&(1<<mondayIndex(d)) != 0
}

// Weekdays возвращает дни набора в порядке с понедельника.
func (s WeekdaySet) Weekdays() []time.Weekday {
	order := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
	out := make([]time.Weekday, 0, 7)
	for _, d := range order {
		if s.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

// String возвращает каноническую CSV-форму набора ("mon,wed,fri").
// Она же используется как персистентный формат.
func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for i, name := range weekdayNames {
		if s&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

// TimeOfDay представляет локальное время срабатывания.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// IsValid проверяет, что время в допустимом диапазоне.
func (t TimeOfDay) IsValid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// String возвращает представление вида "19:30".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay разбирает время из строки "HH:MM".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time %q: expected HH:MM", raw)
	}
	if !t.IsValid() {
		return TimeOfDay{}, fmt.Errorf("time %q is out of range", raw)
	}
	return t, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

// Schedule - персистентная спецификация напоминаний участника.
// У участника не больше одного расписания; замена атомарно вытесняет
// предыдущие триггеры.
type Schedule struct {
	// MemberID - идентификатор участника.
	MemberID string

	// Days - дни недели срабатывания.
	Days WeekdaySet

	// At - локальное время срабатывания.
	At TimeOfDay

	// CreatedAt - время установки расписания.
	CreatedAt time.Time

	// UpdatedAt - время последней замены.
	UpdatedAt time.Time
}

// NewSchedule создаёт расписание с валидацией.
func NewSchedule(memberID string, days WeekdaySet, at TimeOfDay) (*Schedule, error) {
	if days.IsEmpty() {
		return nil, fmt.Errorf("schedule must have at least one weekday")
	}
	if !at.IsValid() {
		return nil, fmt.Errorf("schedule time %d:%d is out of range", at.Hour, at.Minute)
	}

	now := time.Now()
	return &Schedule{
		MemberID:  memberID,
		Days:      days,
		At:        at,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Describe возвращает человекочитаемое описание расписания.
func (s *Schedule) Describe() string {
	days := s.Days.Weekdays()
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, weekdayNames[mondayIndex(d)])
	}
	return fmt.Sprintf("%s at %s", strings.Join(names, ", "), s.At)
}

// NextFire возвращает ближайший момент срабатывания строго после after
// в указанной таймзоне.
func (s *Schedule) NextFire(after time.Time, loc *time.Location) time.Time {
	local := after.In(loc)
	for offset := 0; offset <= 7; offset++ {
		day := local.AddDate(0, 0, offset)
		if !s.Days.Contains(day.Weekday()) {
			continue
		}
		fire := time.Date(day.Year(), day.Month(), day.Day(), s.At.Hour, s.At.Minute, 0, 0, loc)
		if fire.After(after) {
			return fire
		}
	}
	// Unreachable for a non-empty set, kept for safety.
	return time.Time{}
}
