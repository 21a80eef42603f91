package sheets

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
)

func TestValueRangeDTO_Parsing(t *testing.T) {
	jsonData := `{
    "range": "Archive!A1:H4",
    "majorDimension": "ROWS",
    "values": [
        ["Неделя", "Дата", "Участник", "Слот", "Минуты", "Заметка"],
        ["2026-08-17", "2026-08-18", "Аня", "1", "25", "распевки"],
        ["2026-08-17", "2026-08-20", "Аня", "2", "20", ""]
    ]
}`

	var vr ValueRangeDTO
	err := json.Unmarshal([]byte(jsonData), &vr)
	assert.NoError(t, err)
	assert.Equal(t, "ROWS", vr.MajorDimension)
	assert.Len(t, vr.Values, 3)

	rows := NewMapper().RowsFromValueRange(&vr)

	// The header row does not parse as a date, so only data rows survive.
	assert.Len(t, rows, 2)
	assert.Equal(t, "Аня", rows[0].DisplayName)
	assert.Equal(t, 1, rows[0].Slot)
	assert.Equal(t, 25, rows[0].Minutes)
	assert.Equal(t, "распевки", rows[0].Note)
	assert.Equal(t, time.Date(2026, time.August, 17, 0, 0, 0, 0, time.UTC), rows[0].WeekStart)
	assert.Equal(t, time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC), rows[1].LocalDate)
}

func TestRowsFromValueRange_SkipsMangledRows(t *testing.T) {
	vr := &ValueRangeDTO{
		Values: [][]string{
			{"2026-08-17", "2026-08-18", "Аня", "1", "25", ""},
			{"not-a-date", "2026-08-18", "Боря", "1", "25", ""},
			{"2026-08-17", "2026-08-18", "", "1", "25", ""},
			{"2026-08-17", "2026-08-18", "Вера", "4", "25", ""},
			{"2026-08-17", "2026-08-18", "Гоша", "2", "oops", ""},
			{"2026-08-17", "2026-08-19"},
			{},
		},
	}

	rows := NewMapper().RowsFromValueRange(vr)
	assert.Len(t, rows, 1)
	assert.Equal(t, "Аня", rows[0].DisplayName)
}

func TestRecordToRow_RoundTrip(t *testing.T) {
	weekStart := time.Date(2026, time.August, 17, 0, 0, 0, 0, time.UTC)
	rec, err := checkin.NewRecord(
		"rec-1", "member-1", "Аня",
		weekStart, weekStart.AddDate(0, 0, 2),
		checkin.SlotFirst, 25, "распевки",
	)
	assert.NoError(t, err)

	mapper := NewMapper()
	cells := mapper.RecordToRow(rec)
	assert.Len(t, cells, columnCount)

	parsed, ok := mapper.parseRow(cells)
	assert.True(t, ok)
	assert.Equal(t, "Аня", parsed.DisplayName)
	assert.Equal(t, 1, parsed.Slot)
	assert.Equal(t, 25, parsed.Minutes)
	assert.True(t, parsed.WeekStart.Equal(weekStart))
	assert.Equal(t, "member-1", parsed.MemberID)
	assert.True(t, parsed.OccurredAt.Equal(rec.CreatedAt.Truncate(time.Second)))
}

func TestRecordToRow_NoteWithoutColumn(t *testing.T) {
	// A row written without the optional note column still parses.
	mapper := NewMapper()
	parsed, ok := mapper.parseRow([]string{"2026-08-17", "2026-08-18", "Аня", "1", "25"})
	assert.True(t, ok)
	assert.Equal(t, "", parsed.Note)
}

func TestParseRow_LegacySixColumnRows(t *testing.T) {
	// Rows written before the sheet carried occurred_at and member_id
	// still hydrate, just without those fields.
	mapper := NewMapper()
	parsed, ok := mapper.parseRow([]string{"2026-08-17", "2026-08-18", "Аня", "1", "25", "распевки"})
	assert.True(t, ok)
	assert.Equal(t, "", parsed.MemberID)
	assert.True(t, parsed.OccurredAt.IsZero())

	full := []string{
		"2026-08-17", "2026-08-18", "Аня", "2", "20", "",
		"2026-08-18T19:30:00Z", "member-9",
	}
	parsed, ok = mapper.parseRow(full)
	assert.True(t, ok)
	assert.Equal(t, "member-9", parsed.MemberID)
	assert.Equal(t, time.Date(2026, time.August, 18, 19, 30, 0, 0, time.UTC), parsed.OccurredAt.UTC())
}
