// Package timeutil provides timezone utilities for the Pacific timezone.
// The whole system is locked to one wall clock (America/Los_Angeles): the
// daily check-in cap, week boundaries and reminder times are all interpreted
// in Pacific time regardless of where a member actually is.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// PacificTZ is the system timezone (America/Los_Angeles, observes DST).
// Falls back to a fixed UTC-8 zone if the tz database is unavailable.
var PacificTZ = loadPacific()

func loadPacific() *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		return time.FixedZone("PST", -8*60*60)
	}
	return loc
}

// Now returns the current time in Pacific timezone.
func Now() time.Time {
	return time.Now().In(PacificTZ)
}

// ToPacific converts a time to Pacific timezone.
func ToPacific(t time.Time) time.Time {
	return t.In(PacificTZ)
}

// Date creates a time in Pacific timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, PacificTZ)
}

// DateTime creates a time in Pacific timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, PacificTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Pacific timezone.
func StartOfDay(t time.Time) time.Time {
	p := ToPacific(t)
	return time.Date(p.Year(), p.Month(), p.Day(), 0, 0, 0, 0, PacificTZ)
}

// LocalDate returns the calendar date of t in Pacific timezone, normalized
// to midnight. This is the key the once-per-day check-in cap is enforced on.
func LocalDate(t time.Time) time.Time {
	return StartOfDay(t)
}

// WeekStart returns the Monday 00:00:00 anchoring the tracking week of t.
func WeekStart(t time.Time) time.Time {
	p := ToPacific(t)
	weekday := int(p.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(p.AddDate(0, 0, -(weekday - 1)))
}

// WeekEnd returns the Sunday 23:59:59.999999999 closing the week of t.
func WeekEnd(t time.Time) time.Time {
	start := WeekStart(t)
	end := start.AddDate(0, 0, 6)
	return time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 999999999, PacificTZ)
}

// PreviousWeekStart returns the Monday of the week immediately before the
// week containing t. Used by the rollover job to pick the just-ended week.
func PreviousWeekStart(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, -7)
}

// IsSameDay checks if two times are on the same Pacific calendar day.
func IsSameDay(t1, t2 time.Time) bool {
	p1, p2 := ToPacific(t1), ToPacific(t2)
	return p1.Year() == p2.Year() && p1.YearDay() == p2.YearDay()
}

// IsSameWeek checks if two times fall in the same Monday-anchored week.
func IsSameWeek(t1, t2 time.Time) bool {
	return WeekStart(t1).Equal(WeekStart(t2))
}

// IsWeekFirstDay reports whether t lands on the first weekday (Monday) of
// its tracking week. Drives the early-start badge.
func IsWeekFirstDay(t time.Time) bool {
	return ToPacific(t).Weekday() == time.Monday
}

// WeeksBetween returns the number of whole weeks between two week starts.
// Both arguments are normalized to their Monday anchor first.
func WeeksBetween(earlier, later time.Time) int {
	a := WeekStart(earlier)
	b := WeekStart(later)
	days := int(b.Sub(a).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days / 7
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
)

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in Pacific timezone.
func FormatDateStr(t time.Time) string {
	return ToPacific(t).Format(FormatDate)
}

// FormatTimeStr formats a time as a time string (HH:MM) in Pacific timezone.
func FormatTimeStr(t time.Time) string {
	return ToPacific(t).Format(FormatTime)
}

// ParsePacific parses a time string in Pacific timezone.
func ParsePacific(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, PacificTZ)
}

// ParseDatePacific parses a date string (YYYY-MM-DD) in Pacific timezone.
func ParseDatePacific(value string) (time.Time, error) {
	return ParsePacific(FormatDate, value)
}
