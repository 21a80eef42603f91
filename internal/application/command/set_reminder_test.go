package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

func TestSetReminder_InstallsSchedule(t *testing.T) {
	repo := newScheduleRepoStub()
	triggers := &triggersStub{}
	h := NewSetReminderHandler(repo, triggers)

	result, err := h.Handle(context.Background(), SetReminderCommand{
		MemberID: "m1",
		DaysRaw:  "mon,wed,fri",
		TimeRaw:  "19:30",
	})
	require.NoError(t, err)

	assert.False(t, result.Replaced)
	assert.Equal(t, "mon,wed,fri", result.Schedule.Days.String())
	assert.Equal(t, "19:30", result.Schedule.At.String())

	require.Len(t, triggers.installed, 1)
	assert.Equal(t, "m1", triggers.installed[0].MemberID)

	stored, err := repo.GetByMember(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, stored.Days.Contains(time.Wednesday))
}

func TestSetReminder_ReplaceIsAtomicPerMember(t *testing.T) {
	repo := newScheduleRepoStub()
	triggers := &triggersStub{}
	h := NewSetReminderHandler(repo, triggers)

	_, err := h.Handle(context.Background(), SetReminderCommand{MemberID: "m1", DaysRaw: "mon", TimeRaw: "08:00"})
	require.NoError(t, err)

	result, err := h.Handle(context.Background(), SetReminderCommand{MemberID: "m1", DaysRaw: "fri", TimeRaw: "20:00"})
	require.NoError(t, err)

	assert.True(t, result.Replaced)
	stored, err := repo.GetByMember(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "fri", stored.Days.String())
	assert.Len(t, triggers.installed, 2, "each set reinstalls the trigger")
}

func TestSetReminder_InvalidInput(t *testing.T) {
	h := NewSetReminderHandler(newScheduleRepoStub(), &triggersStub{})

	cases := []struct {
		name string
		days string
		at   string
	}{
		{"unknown weekday", "mon,xyz", "19:00"},
		{"empty days", "", "19:00"},
		{"bad time", "mon", "25:00"},
		{"not a time", "mon", "evening"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.Handle(context.Background(), SetReminderCommand{
				MemberID: "m1",
				DaysRaw:  tc.days,
				TimeRaw:  tc.at,
			})
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}

func TestCancelReminder_RemovesScheduleAndTrigger(t *testing.T) {
	repo := newScheduleRepoStub()
	triggers := &triggersStub{}
	set := NewSetReminderHandler(repo, triggers)
	cancel := NewCancelReminderHandler(repo, triggers)

	_, err := set.Handle(context.Background(), SetReminderCommand{MemberID: "m1", DaysRaw: "tue", TimeRaw: "18:00"})
	require.NoError(t, err)

	require.NoError(t, cancel.Handle(context.Background(), CancelReminderCommand{MemberID: "m1"}))

	_, err = repo.GetByMember(context.Background(), "m1")
	assert.ErrorIs(t, err, shared.ErrNoActiveSchedule)
	assert.Equal(t, []string{"m1"}, triggers.removed)
}

func TestCancelReminder_NoSchedule(t *testing.T) {
	cancel := NewCancelReminderHandler(newScheduleRepoStub(), &triggersStub{})

	err := cancel.Handle(context.Background(), CancelReminderCommand{MemberID: "m1"})
	assert.ErrorIs(t, err, shared.ErrNoActiveSchedule)
}
