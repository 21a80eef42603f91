// Package progress содержит производные представления журнала отметок:
// недельную таблицу, рейтинг и серии полных недель. Состояние не хранится -
// всё вычисляется из записей журнала.
package progress

import (
	"sort"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY TABLE
// ══════════════════════════════════════════════════════════════════════════════

// TableRow - строка недельной таблицы одного участника.
type TableRow struct {
	// MemberID - идентификатор участника.
	MemberID string

	// DisplayName - имя участника.
	DisplayName string

	// Filled - занятость слотов: Filled[0] соответствует слоту 1.
	Filled [checkin.SlotsPerWeek]bool

	// SlotCount - количество занятых слотов.
	SlotCount int

	// TotalMinutes - суммарная длительность занятий недели.
	TotalMinutes int
}

// IsFull возвращает true, если все слоты недели заняты.
func (r TableRow) IsFull() bool {
	return r.SlotCount >= checkin.SlotsPerWeek
}

// RosterEntry - участник ростера для построения таблицы.
type RosterEntry struct {
	MemberID    string
	DisplayName string
}

// BuildWeeklyTable строит таблицу недели для всего ростера. Участники без
// отметок получают пустую строку; порядок строк повторяет порядок ростера.
func BuildWeeklyTable(roster []RosterEntry, records []*checkin.Record) []TableRow {
	byMember := make(map[string][]*checkin.Record, len(roster))
	for _, rec := range records {
		byMember[rec.MemberID] = append(byMember[rec.MemberID], rec)
	}

	rows := make([]TableRow, 0, len(roster))
	for _, entry := range roster {
		row := TableRow{
			MemberID:    entry.MemberID,
			DisplayName: entry.DisplayName,
		}
		for _, rec := range byMember[entry.MemberID] {
			if rec.Slot.IsValid() {
				row.Filled[rec.Slot-1] = true
				row.SlotCount++
				row.TotalMinutes += int(rec.Minutes)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardEntry - позиция участника в недельном рейтинге.
type LeaderboardEntry struct {
	// Rank - место в рейтинге (1-based). Участники с равным счётом
	// делят счёт, но не место: порядок внутри счёта алфавитный.
	Rank int

	// MemberID - идентификатор участника.
	MemberID string

	// DisplayName - имя участника.
	DisplayName string

	// Score - количество занятых слотов недели (0..3).
	Score int
}

// BuildLeaderboard строит недельный рейтинг. Сортировка: по убыванию
// счёта, при равенстве - по имени, чтобы результат был детерминированным.
func BuildLeaderboard(rows []TableRow) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		score := row.SlotCount
		if score > checkin.SlotsPerWeek {
			score = checkin.SlotsPerWeek
		}
		entries = append(entries, LeaderboardEntry{
			MemberID:    row.MemberID,
			DisplayName: row.DisplayName,
			Score:       score,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAKS
// ══════════════════════════════════════════════════════════════════════════════

// Streak вычисляет серию полных недель участника. Недели идут от новых
// к старым, начиная с недели before (не включая её). Серия прерывается
// первой неполной неделей или разрывом в последовательности недель.
func Streak(weeks []checkin.WeekSummary, before time.Time) int {
	expected := before.AddDate(0, 0, -7)
	streak := 0
	for _, w := range weeks {
		if w.WeekStart.After(expected) {
			// Недели новее ожидаемой пропускаем (например, текущая).
			continue
		}
		if !w.WeekStart.Equal(expected) {
			// Разрыв: пропущенная неделя - это неделя с нулём отметок.
			break
		}
		if w.SlotCount < checkin.SlotsPerWeek {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -7)
	}
	return streak
}

// StreakIncludingCurrent вычисляет серию с учётом текущей недели, если
// она уже полная. Используется для бейджа за серию.
func StreakIncludingCurrent(weeks []checkin.WeekSummary, currentWeekStart time.Time, currentFull bool) int {
	s := Streak(weeks, currentWeekStart)
	if currentFull {
		s++
	}
	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// HISTORY
// ══════════════════════════════════════════════════════════════════════════════

// HistoryWeek - одна неделя истории участника для команды прогресса.
type HistoryWeek struct {
	// WeekStart - понедельник недели.
	WeekStart time.Time

	// SlotCount - количество занятых слотов.
	SlotCount int

	// TotalMinutes - суммарная длительность занятий.
	TotalMinutes int

	// Full - неделя закрыта полностью.
	Full bool
}

// BuildHistory формирует историю последних limit недель от новых к старым.
// Пропущенные недели между известными восстанавливаются как нулевые,
// чтобы история читалась как непрерывная лента.
func BuildHistory(weeks []checkin.WeekSummary, currentWeekStart time.Time, limit int) []HistoryWeek {
	byWeek := make(map[time.Time]checkin.WeekSummary, len(weeks))
	for _, w := range weeks {
		byWeek[w.WeekStart] = w
	}

	out := make([]HistoryWeek, 0, limit)
	ws := currentWeekStart
	for i := 0; i < limit; i++ {
		hw := HistoryWeek{WeekStart: ws}
		if w, ok := byWeek[ws]; ok {
			hw.SlotCount = w.SlotCount
			hw.TotalMinutes = w.TotalMinutes
			hw.Full = w.SlotCount >= checkin.SlotsPerWeek
		}
		out = append(out, hw)
		ws = ws.AddDate(0, 0, -7)
	}
	return out
}
