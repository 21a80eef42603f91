package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/progress"
)

// pgx decodes DATE columns as midnight UTC. These values must be rebound
// to the hub location before the domain compares them against week starts
// computed there.

func losAngeles(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	return loc
}

func TestRebindDate_KeepsCalendarDayInHubLocation(t *testing.T) {
	loc := losAngeles(t)

	scanned := time.Date(2026, time.August, 17, 0, 0, 0, 0, time.UTC)
	rebound := rebindDate(scanned, loc)

	want := time.Date(2026, time.August, 17, 0, 0, 0, 0, loc)
	assert.True(t, rebound.Equal(want))

	// A domain week start for any instant of that Pacific Monday must
	// compare equal to the rebound value.
	noon := time.Date(2026, time.August, 17, 12, 0, 0, 0, loc)
	assert.True(t, rebound.Equal(checkin.WeekStartOf(noon, loc)))

	// The raw scanned value never does: UTC midnight is the previous
	// evening in Los Angeles.
	assert.False(t, scanned.Equal(checkin.WeekStartOf(noon, loc)))
}

func TestRebindDate_ZeroValuePassesThrough(t *testing.T) {
	assert.True(t, rebindDate(time.Time{}, losAngeles(t)).IsZero())
}

func TestRebindDate_ScannedWeeksFeedStreaks(t *testing.T) {
	loc := losAngeles(t)

	// Three full weeks as they come back from DATE columns.
	scanned := []checkin.WeekSummary{
		{WeekStart: time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC), SlotCount: 3, TotalMinutes: 60},
		{WeekStart: time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC), SlotCount: 3, TotalMinutes: 75},
		{WeekStart: time.Date(2026, time.July, 27, 0, 0, 0, 0, time.UTC), SlotCount: 3, TotalMinutes: 60},
	}
	for i := range scanned {
		scanned[i].WeekStart = rebindDate(scanned[i].WeekStart, loc)
	}

	current := checkin.WeekStartOf(time.Date(2026, time.August, 19, 9, 0, 0, 0, loc), loc)
	assert.Equal(t, 3, progress.Streak(scanned, current))

	// History sees the same weeks, not zero-filled gaps.
	history := progress.BuildHistory(scanned, current, 4)
	require.Len(t, history, 4)
	assert.Equal(t, 0, history[0].SlotCount)
	assert.Equal(t, 3, history[1].SlotCount)
	assert.Equal(t, 3, history[2].SlotCount)
	assert.Equal(t, 3, history[3].SlotCount)
}
