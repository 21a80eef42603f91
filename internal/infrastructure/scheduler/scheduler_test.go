package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/reminder"
)

type fakeJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *fakeJob) Name() string        { return j.name }
func (j *fakeJob) Description() string { return "test job" }
func (j *fakeJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func newTestScheduler() *Scheduler {
	return New(Config{Timezone: time.UTC})
}

func TestRegister_DuplicateName(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "reminder:m1"}
	sched := NewIntervalSchedule(time.Hour)

	assert.NoError(t, s.Register(job, sched))
	err := s.Register(job, sched)
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestReplace_SupersedesOldTrigger(t *testing.T) {
	s := newTestScheduler()

	oldDays, _ := reminder.ParseWeekdaySet("mon,wed")
	oldSched := NewWeeklySchedule(oldDays, reminder.TimeOfDay{Hour: 19, Minute: 30}, time.UTC)
	assert.NoError(t, s.Replace(&fakeJob{name: "reminder:m1"}, oldSched))

	newDays, _ := reminder.ParseWeekdaySet("fri")
	newSched := NewWeeklySchedule(newDays, reminder.TimeOfDay{Hour: 8, Minute: 0}, time.UTC)
	assert.NoError(t, s.Replace(&fakeJob{name: "reminder:m1"}, newSched))

	// Exactly one trigger remains for the member, carrying the new spec.
	info, err := s.GetJobInfo("reminder:m1")
	assert.NoError(t, err)
	assert.Contains(t, info.Schedule, "fri")
	assert.NotContains(t, info.Schedule, "mon")

	count := 0
	for _, j := range s.ListJobs() {
		if j.Name == "reminder:m1" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestUnregister(t *testing.T) {
	s := newTestScheduler()
	assert.NoError(t, s.Register(&fakeJob{name: "system:week-rollover"}, NewIntervalSchedule(time.Hour)))

	assert.NoError(t, s.Unregister("system:week-rollover"))
	assert.ErrorIs(t, s.Unregister("system:week-rollover"), ErrJobNotFound)
}

func TestUnregisterReminders_OnlyTouchesMember(t *testing.T) {
	s := newTestScheduler()
	_ = s.Register(&fakeJob{name: ReminderTriggerName("m1")}, NewIntervalSchedule(time.Hour))
	_ = s.Register(&fakeJob{name: ReminderTriggerName("m2")}, NewIntervalSchedule(time.Hour))
	_ = s.Register(&fakeJob{name: GroupDigestTrigger}, NewIntervalSchedule(time.Hour))

	removed := s.UnregisterReminders("m1")
	assert.Equal(t, 1, removed)

	_, err := s.GetJobInfo(ReminderTriggerName("m2"))
	assert.NoError(t, err)
	_, err = s.GetJobInfo(GroupDigestTrigger)
	assert.NoError(t, err)
	_, err = s.GetJobInfo(ReminderTriggerName("m1"))
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler()
	assert.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	assert.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestRunNow(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "system:week-rollover"}
	_ = s.Register(job, NewIntervalSchedule(24*time.Hour))

	result, err := s.RunNow(context.Background(), "system:week-rollover")
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1), job.runs.Load())

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunNow_PropagatesJobError(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "j", err: assert.AnError}
	_ = s.Register(job, NewIntervalSchedule(time.Hour))

	result, err := s.RunNow(context.Background(), "j")
	assert.Error(t, err)
	assert.False(t, result.Success)

	snap := s.metrics.Snapshot()
	assert.Equal(t, int64(1), snap.TotalFailures)
}

func TestWeeklySchedule_Next(t *testing.T) {
	days, _ := reminder.ParseWeekdaySet("mon,fri")
	sched := NewWeeklySchedule(days, reminder.TimeOfDay{Hour: 8, Minute: 0}, time.UTC)

	// Tuesday noon: Friday is nearer than next Monday.
	after := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.March, 6, 8, 0, 0, 0, time.UTC), sched.Next(after))

	// Friday 08:00 exactly: next fire is Monday.
	after = time.Date(2026, time.March, 6, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC), sched.Next(after))
}

func TestWeeklySchedule_EmptySetNeverFires(t *testing.T) {
	sched := NewWeeklySchedule(0, reminder.TimeOfDay{Hour: 8}, time.UTC)
	assert.True(t, sched.Next(time.Now()).IsZero())
}

func TestIntervalSchedule(t *testing.T) {
	sched := NewIntervalSchedule(30 * time.Minute)
	now := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(30*time.Minute), sched.Next(now))
	assert.Equal(t, "@every 30m0s", sched.String())
}
