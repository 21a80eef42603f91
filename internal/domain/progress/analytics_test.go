package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
)

var testWeek = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC) // Monday

func rec(memberID, name string, slot checkin.Slot, day int, minutes int) *checkin.Record {
	return &checkin.Record{
		ID:          "r",
		MemberID:    memberID,
		DisplayName: name,
		WeekStart:   testWeek,
		LocalDate:   testWeek.AddDate(0, 0, day),
		Slot:        slot,
		Minutes:     checkin.Minutes(minutes),
	}
}

func TestBuildWeeklyTable(t *testing.T) {
	roster := []RosterEntry{
		{MemberID: "m1", DisplayName: "Mike"},
		{MemberID: "m2", DisplayName: "Sahara"},
		{MemberID: "m3", DisplayName: "Betty"},
	}
	records := []*checkin.Record{
		rec("m1", "Mike", checkin.SlotFirst, 0, 20),
		rec("m1", "Mike", checkin.SlotSecond, 1, 30),
		rec("m2", "Sahara", checkin.SlotFirst, 2, 20),
	}

	rows := BuildWeeklyTable(roster, records)
	assert.Len(t, rows, 3)

	// Roster order is preserved regardless of check-in order.
	assert.Equal(t, "Mike", rows[0].DisplayName)
	assert.Equal(t, [3]bool{true, true, false}, rows[0].Filled)
	assert.Equal(t, 2, rows[0].SlotCount)
	assert.Equal(t, 50, rows[0].TotalMinutes)

	assert.Equal(t, "Sahara", rows[1].DisplayName)
	assert.Equal(t, 1, rows[1].SlotCount)

	// Members without check-ins still get an empty row.
	assert.Equal(t, "Betty", rows[2].DisplayName)
	assert.Equal(t, 0, rows[2].SlotCount)
	assert.False(t, rows[2].IsFull())
}

func TestBuildLeaderboard_ScoreDescNameAsc(t *testing.T) {
	rows := []TableRow{
		{MemberID: "m1", DisplayName: "Mike", SlotCount: 2},
		{MemberID: "m2", DisplayName: "Sahara", SlotCount: 3},
		{MemberID: "m3", DisplayName: "Betty", SlotCount: 2},
		{MemberID: "m4", DisplayName: "Ruth", SlotCount: 0},
	}

	lb := BuildLeaderboard(rows)
	assert.Len(t, lb, 4)

	assert.Equal(t, "Sahara", lb[0].DisplayName)
	assert.Equal(t, 3, lb[0].Score)
	assert.Equal(t, 1, lb[0].Rank)

	// Tie at score 2 breaks alphabetically.
	assert.Equal(t, "Betty", lb[1].DisplayName)
	assert.Equal(t, "Mike", lb[2].DisplayName)
	assert.Equal(t, "Ruth", lb[3].DisplayName)
	assert.Equal(t, 4, lb[3].Rank)
}

func TestStreak_ConsecutiveFullWeeks(t *testing.T) {
	current := testWeek
	weeks := []checkin.WeekSummary{
		{WeekStart: current.AddDate(0, 0, -7), SlotCount: 3},
		{WeekStart: current.AddDate(0, 0, -14), SlotCount: 3},
		{WeekStart: current.AddDate(0, 0, -21), SlotCount: 3},
		{WeekStart: current.AddDate(0, 0, -28), SlotCount: 0},
		{WeekStart: current.AddDate(0, 0, -35), SlotCount: 3},
	}

	// Zero week at W-4 stops the streak at 3, the older full week
	// does not count.
	assert.Equal(t, 3, Streak(weeks, current))
}

func TestStreak_GapCountsAsZeroWeek(t *testing.T) {
	current := testWeek
	weeks := []checkin.WeekSummary{
		{WeekStart: current.AddDate(0, 0, -7), SlotCount: 3},
		// W-2 missing entirely
		{WeekStart: current.AddDate(0, 0, -21), SlotCount: 3},
	}

	assert.Equal(t, 1, Streak(weeks, current))
}

func TestStreak_PartialWeekStops(t *testing.T) {
	current := testWeek
	weeks := []checkin.WeekSummary{
		{WeekStart: current.AddDate(0, 0, -7), SlotCount: 2},
	}

	assert.Equal(t, 0, Streak(weeks, current))
}

func TestStreak_Empty(t *testing.T) {
	assert.Equal(t, 0, Streak(nil, testWeek))
}

// Недели, закреплённые на тихоокеанской полуночи, образуют ту же серию,
// что и UTC-недели, включая переход на летнее время внутри серии.
func TestStreak_PacificWeeksAcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	assert.NoError(t, err)

	// DST начинается 8 марта 2026: неделя W-1 короче на час.
	current := time.Date(2026, time.March, 16, 0, 0, 0, 0, loc)
	weeks := []checkin.WeekSummary{
		{WeekStart: time.Date(2026, time.March, 9, 0, 0, 0, 0, loc), SlotCount: 3},
		{WeekStart: time.Date(2026, time.March, 2, 0, 0, 0, 0, loc), SlotCount: 3},
		{WeekStart: time.Date(2026, time.February, 23, 0, 0, 0, 0, loc), SlotCount: 3},
	}

	assert.Equal(t, 3, Streak(weeks, current))

	hist := BuildHistory(weeks, current, 4)
	assert.Len(t, hist, 4)
	assert.Equal(t, 0, hist[0].SlotCount)
	assert.True(t, hist[1].Full)
	assert.True(t, hist[2].Full)
	assert.True(t, hist[3].Full)
}

func TestStreakIncludingCurrent(t *testing.T) {
	current := testWeek
	weeks := []checkin.WeekSummary{
		{WeekStart: current.AddDate(0, 0, -7), SlotCount: 3},
	}

	assert.Equal(t, 2, StreakIncludingCurrent(weeks, current, true))
	assert.Equal(t, 1, StreakIncludingCurrent(weeks, current, false))
}

func TestBuildHistory_FillsGaps(t *testing.T) {
	current := testWeek
	weeks := []checkin.WeekSummary{
		{WeekStart: current, SlotCount: 1, TotalMinutes: 20},
		{WeekStart: current.AddDate(0, 0, -14), SlotCount: 3, TotalMinutes: 60},
	}

	hist := BuildHistory(weeks, current, 4)
	assert.Len(t, hist, 4)

	assert.Equal(t, current, hist[0].WeekStart)
	assert.Equal(t, 1, hist[0].SlotCount)
	assert.False(t, hist[0].Full)

	// Missing week rendered as zero.
	assert.Equal(t, 0, hist[1].SlotCount)

	assert.True(t, hist[2].Full)
	assert.Equal(t, 60, hist[2].TotalMinutes)

	assert.Equal(t, 0, hist[3].SlotCount)
}
