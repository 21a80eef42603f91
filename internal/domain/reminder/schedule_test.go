package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseWeekdaySet(t *testing.T) {
	s, err := ParseWeekdaySet("mon,wed,fri")
	assert.NoError(t, err)
	assert.True(t, s.Contains(time.Monday))
	assert.True(t, s.Contains(time.Wednesday))
	assert.True(t, s.Contains(time.Friday))
	assert.False(t, s.Contains(time.Sunday))
	assert.Equal(t, "mon,wed,fri", s.String())
}

func TestParseWeekdaySet_FullNamesAndCase(t *testing.T) {
	s, err := ParseWeekdaySet("Monday, SATURDAY")
	assert.NoError(t, err)
	assert.True(t, s.Contains(time.Monday))
	assert.True(t, s.Contains(time.Saturday))
}

func TestParseWeekdaySet_UnknownTokensAreSkipped(t *testing.T) {
	s, err := ParseWeekdaySet("mon,funday,fri")
	assert.NoError(t, err)
	assert.True(t, s.Contains(time.Monday))
	assert.True(t, s.Contains(time.Friday))
	assert.Len(t, s.Weekdays(), 2)
}

func TestParseWeekdaySet_Invalid(t *testing.T) {
	_, err := ParseWeekdaySet("funday")
	assert.Error(t, err)

	_, err = ParseWeekdaySet("")
	assert.Error(t, err)

	_, err = ParseWeekdaySet(" , ,")
	assert.Error(t, err)
}

func TestWeekdaySet_CanonicalOrderMondayFirst(t *testing.T) {
	s := NewWeekdaySet(time.Sunday, time.Monday)
	assert.Equal(t, "mon,sun", s.String())
	assert.Equal(t, []time.Weekday{time.Monday, time.Sunday}, s.Weekdays())
}

func TestParseTimeOfDay(t *testing.T) {
	at, err := ParseTimeOfDay("19:30")
	assert.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 19, Minute: 30}, at)
	assert.Equal(t, "19:30", at.String())

	at, err = ParseTimeOfDay("8:05")
	assert.NoError(t, err)
	assert.Equal(t, "08:05", at.String())
}

func TestParseTimeOfDay_Invalid(t *testing.T) {
	_, err := ParseTimeOfDay("24:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("12:60")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("noon")
	assert.Error(t, err)
}

func TestNewSchedule_Validation(t *testing.T) {
	_, err := NewSchedule("m1", 0, TimeOfDay{Hour: 10})
	assert.Error(t, err)

	_, err = NewSchedule("m1", NewWeekdaySet(time.Monday), TimeOfDay{Hour: 25})
	assert.Error(t, err)

	s, err := NewSchedule("m1", NewWeekdaySet(time.Monday, time.Friday), TimeOfDay{Hour: 19, Minute: 30})
	assert.NoError(t, err)
	assert.Equal(t, "mon, fri at 19:30", s.Describe())
}

func TestNextFire_SameDayBeforeTime(t *testing.T) {
	loc := time.UTC
	s, _ := NewSchedule("m1", NewWeekdaySet(time.Wednesday), TimeOfDay{Hour: 19, Minute: 30})

	// Wednesday 10:00, fire is later the same day.
	after := time.Date(2026, time.March, 4, 10, 0, 0, 0, loc)
	fire := s.NextFire(after, loc)
	assert.Equal(t, time.Date(2026, time.March, 4, 19, 30, 0, 0, loc), fire)
}

func TestNextFire_SameDayAfterTimeRollsToNextWeek(t *testing.T) {
	loc := time.UTC
	s, _ := NewSchedule("m1", NewWeekdaySet(time.Wednesday), TimeOfDay{Hour: 19, Minute: 30})

	after := time.Date(2026, time.March, 4, 20, 0, 0, 0, loc)
	fire := s.NextFire(after, loc)
	assert.Equal(t, time.Date(2026, time.March, 11, 19, 30, 0, 0, loc), fire)
}

func TestNextFire_PicksNearestWeekday(t *testing.T) {
	loc := time.UTC
	s, _ := NewSchedule("m1", NewWeekdaySet(time.Monday, time.Friday), TimeOfDay{Hour: 8, Minute: 0})

	// Tuesday: Friday comes before next Monday.
	after := time.Date(2026, time.March, 3, 12, 0, 0, 0, loc)
	fire := s.NextFire(after, loc)
	assert.Equal(t, time.Date(2026, time.March, 6, 8, 0, 0, 0, loc), fire)
}

func TestNextFire_ExactTimeNotIncluded(t *testing.T) {
	loc := time.UTC
	s, _ := NewSchedule("m1", NewWeekdaySet(time.Wednesday), TimeOfDay{Hour: 19, Minute: 30})

	// A fire scheduled for exactly "after" must move to the next slot.
	after := time.Date(2026, time.March, 4, 19, 30, 0, 0, loc)
	fire := s.NextFire(after, loc)
	assert.Equal(t, time.Date(2026, time.March, 11, 19, 30, 0, 0, loc), fire)
}
