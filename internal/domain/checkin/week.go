package checkin

import "time"

// LocalDateOf возвращает полночь календарной даты момента t в таймзоне группы.
func LocalDateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// WeekStartOf возвращает понедельник (полночь) недели, содержащей момент t,
// в таймзоне группы. Неделя начинается в понедельник.
func WeekStartOf(t time.Time, loc *time.Location) time.Time {
	day := LocalDateOf(t, loc)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// PreviousWeekStart возвращает понедельник недели, предшествующей неделе
// момента t.
func PreviousWeekStart(t time.Time, loc *time.Location) time.Time {
	return WeekStartOf(t, loc).AddDate(0, 0, -7)
}
