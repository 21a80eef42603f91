package scheduler

import (
	"fmt"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/reminder"
)

// WeeklySchedule fires at a fixed local wall-clock time on a set of
// weekdays, interpreted in one location. A member's whole reminder
// specification maps onto a single WeeklySchedule, which is what makes
// replacing a schedule a one-key swap in the registry.
type WeeklySchedule struct {
	Days     reminder.WeekdaySet
	At       reminder.TimeOfDay
	Location *time.Location
}

// NewWeeklySchedule creates a weekly schedule.
func NewWeeklySchedule(days reminder.WeekdaySet, at reminder.TimeOfDay, loc *time.Location) *WeeklySchedule {
	if loc == nil {
		loc = time.UTC
	}
	return &WeeklySchedule{Days: days, At: at, Location: loc}
}

// FromSpec builds a schedule from a persisted reminder specification.
func FromSpec(spec *reminder.Schedule, loc *time.Location) *WeeklySchedule {
	return NewWeeklySchedule(spec.Days, spec.At, loc)
}

// Next returns the next fire time strictly after t. Times are computed
// in the schedule's location, so a DST shift moves the fire with local
// wall-clock time rather than keeping a fixed UTC offset.
func (s *WeeklySchedule) Next(t time.Time) time.Time {
	local := t.In(s.Location)
	for offset := 0; offset <= 7; offset++ {
		day := local.AddDate(0, 0, offset)
		if !s.Days.Contains(day.Weekday()) {
			continue
		}
		fire := time.Date(day.Year(), day.Month(), day.Day(), s.At.Hour, s.At.Minute, 0, 0, s.Location)
		if fire.After(t) {
			return fire
		}
	}
	// Empty weekday set never fires.
	return time.Time{}
}

// String returns the human-readable representation.
func (s *WeeklySchedule) String() string {
	return fmt.Sprintf("weekly %s at %s (%s)", s.Days, s.At, s.Location)
}

// IntervalSchedule schedules a job to run at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a new IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}
