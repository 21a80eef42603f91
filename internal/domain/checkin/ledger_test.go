package checkin

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

func weekOf(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stateWith(weekStart time.Time, dates ...time.Time) *WeekState {
	w := &WeekState{WeekStart: weekStart}
	for i, d := range dates {
		w.Records = append(w.Records, &Record{
			ID:        "rec",
			MemberID:  "m1",
			WeekStart: weekStart,
			LocalDate: d,
			Slot:      Slot(i + 1),
			Minutes:   DefaultMinutes,
			CreatedAt: d.Add(time.Duration(i) * time.Hour),
		})
	}
	return w
}

func TestAdmit_FirstSlotOfWeek(t *testing.T) {
	week := weekOf(2026, time.March, 2) // Monday
	w := stateWith(week)

	err := w.Admit(SlotFirst, week)
	assert.NoError(t, err)
	assert.Equal(t, SlotFirst, w.NextRequiredSlot())
}

func TestAdmit_RejectsSecondCheckinSameDay(t *testing.T) {
	week := weekOf(2026, time.March, 2)
	monday := week
	w := stateWith(week, monday)

	err := w.Admit(SlotSecond, monday)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrAlreadyCheckedInToday))
}

func TestAdmit_RejectsOutOfOrderSlot(t *testing.T) {
	week := weekOf(2026, time.March, 2)
	w := stateWith(week, week, week.AddDate(0, 0, 1))

	// Slots 1 and 2 are taken; re-requesting slot 1 on Wednesday
	// must fail even though the date is free.
	err := w.Admit(SlotFirst, week.AddDate(0, 0, 2))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrOutOfOrderSlot))

	// Slot 3 on the same Wednesday is fine.
	err = w.Admit(SlotThird, week.AddDate(0, 0, 2))
	assert.NoError(t, err)
}

func TestAdmit_RejectsWhenWeekFull(t *testing.T) {
	week := weekOf(2026, time.March, 2)
	w := stateWith(week, week, week.AddDate(0, 0, 1), week.AddDate(0, 0, 2))

	assert.True(t, w.IsFull())
	err := w.Admit(SlotFirst, week.AddDate(0, 0, 3))
	assert.True(t, errors.Is(err, shared.ErrOutOfOrderSlot))
}

func TestAdmit_RejectsInvalidSlot(t *testing.T) {
	week := weekOf(2026, time.March, 2)
	w := stateWith(week)

	assert.True(t, errors.Is(w.Admit(Slot(0), week), shared.ErrInvalidSlot))
	assert.True(t, errors.Is(w.Admit(Slot(4), week), shared.ErrInvalidSlot))
}

func TestAdmit_DailyCapCheckedBeforeSlotOrder(t *testing.T) {
	week := weekOf(2026, time.March, 2)
	w := stateWith(week, week)

	// Duplicate tap on the same day with a stale slot number:
	// the daily cap message is the more specific rejection.
	err := w.Admit(SlotFirst, week)
	assert.True(t, errors.Is(err, shared.ErrAlreadyCheckedInToday))
}

func TestFilledSlots_IsOrderedPrefix(t *testing.T) {
	week := weekOf(2026, time.March, 2)
	w := stateWith(week, week, week.AddDate(0, 0, 2))

	assert.Equal(t, []Slot{SlotFirst, SlotSecond}, w.FilledSlots())
	assert.Equal(t, SlotThird, w.NextRequiredSlot())
}

func TestLatest_PicksMostRecentByCreation(t *testing.T) {
	week := weekOf(2026, time.March, 2)
	w := stateWith(week, week, week.AddDate(0, 0, 1), week.AddDate(0, 0, 4))

	latest := w.Latest()
	assert.NotNil(t, latest)
	assert.Equal(t, SlotThird, latest.Slot)
}

func TestLatest_EmptyWeek(t *testing.T) {
	w := stateWith(weekOf(2026, time.March, 2))
	assert.Nil(t, w.Latest())
}

func TestNewRecord_Defaults(t *testing.T) {
	week := weekOf(2026, time.March, 2)

	rec, err := NewRecord("id1", "m1", "Mike", week, week.AddDate(0, 0, 1), SlotFirst, 0, "")
	assert.NoError(t, err)
	assert.Equal(t, DefaultMinutes, rec.Minutes)
	assert.Equal(t, "Mike", rec.DisplayName)
}

func TestNewRecord_Validation(t *testing.T) {
	week := weekOf(2026, time.March, 2)

	_, err := NewRecord("id1", "m1", "Mike", week, week, Slot(5), 30, "")
	assert.ErrorIs(t, err, ErrInvalidSlot)

	_, err = NewRecord("id1", "m1", "Mike", week, week, SlotFirst, 10000, "")
	assert.ErrorIs(t, err, ErrInvalidMinutes)

	// Sunday of the previous week does not belong to this record week.
	_, err = NewRecord("id1", "m1", "Mike", week, week.AddDate(0, 0, -1), SlotFirst, 30, "")
	assert.ErrorIs(t, err, ErrDateOutsideWeek)

	_, err = NewRecord("id1", "m1", "Mike", week, week.AddDate(0, 0, 7), SlotFirst, 30, "")
	assert.ErrorIs(t, err, ErrDateOutsideWeek)
}
