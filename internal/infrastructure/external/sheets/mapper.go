package sheets

import (
	"strconv"
	"strings"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - Wire format <-> domain conversion
// ══════════════════════════════════════════════════════════════════════════════

// dateLayout is the cell format for dates in the mirror sheet.
const dateLayout = "2006-01-02"

// timestampLayout is the cell format for the occurred_at column.
const timestampLayout = time.RFC3339

// Column order of the archive sheet. Changing the first six breaks
// hydration of sheets written by older versions; occurred_at and
// member_id were appended later and stay optional on read.
const (
	colWeekStart = iota
	colDate
	colName
	colSlot
	colMinutes
	colNote
	colOccurredAt
	colMemberID
	columnCount
)

// ArchiveRow is one parsed row of the mirror sheet.
type ArchiveRow struct {
	WeekStart   time.Time
	LocalDate   time.Time
	DisplayName string
	Slot        int
	Minutes     int
	Note        string

	// OccurredAt and MemberID are zero for rows written before the
	// sheet carried them.
	OccurredAt time.Time
	MemberID   string
}

// Mapper converts between archive records and sheet rows.
type Mapper struct{}

// NewMapper creates a new Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// HeaderRow returns the column headers written once per sheet.
func (m *Mapper) HeaderRow() []string {
	return []string{"Неделя", "Дата", "Участник", "Слот", "Минуты", "Заметка", "Момент", "ID"}
}

// RecordToRow renders one archived check-in as a sheet row.
func (m *Mapper) RecordToRow(rec *checkin.Record) []string {
	return []string{
		rec.WeekStart.Format(dateLayout),
		rec.LocalDate.Format(dateLayout),
		rec.DisplayName,
		strconv.Itoa(int(rec.Slot)),
		strconv.Itoa(int(rec.Minutes)),
		rec.Note,
		rec.CreatedAt.Format(timestampLayout),
		rec.MemberID,
	}
}

// RecordsToRows renders a batch of archived check-ins.
func (m *Mapper) RecordsToRows(records []*checkin.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, m.RecordToRow(rec))
	}
	return rows
}

// RowsFromValueRange parses sheet rows back into archive rows. Header rows,
// blank rows and rows that fail to parse are skipped: a mentor editing the
// sheet by hand must not break startup hydration.
func (m *Mapper) RowsFromValueRange(vr *ValueRangeDTO) []ArchiveRow {
	if vr == nil {
		return nil
	}

	out := make([]ArchiveRow, 0, len(vr.Values))
	for _, cells := range vr.Values {
		row, ok := m.parseRow(cells)
		if !ok {
			continue
		}
		out = append(out, row)
	}
	return out
}

// parseRow parses a single row, reporting whether it was a valid data row.
func (m *Mapper) parseRow(cells []string) (ArchiveRow, bool) {
	if len(cells) < colMinutes+1 {
		return ArchiveRow{}, false
	}

	weekStart, err := time.Parse(dateLayout, strings.TrimSpace(cells[colWeekStart]))
	if err != nil {
		return ArchiveRow{}, false
	}
	localDate, err := time.Parse(dateLayout, strings.TrimSpace(cells[colDate]))
	if err != nil {
		return ArchiveRow{}, false
	}

	name := strings.TrimSpace(cells[colName])
	if name == "" {
		return ArchiveRow{}, false
	}

	slot, err := strconv.Atoi(strings.TrimSpace(cells[colSlot]))
	if err != nil || slot < 1 || slot > checkin.SlotsPerWeek {
		return ArchiveRow{}, false
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(cells[colMinutes]))
	if err != nil || minutes < 0 {
		return ArchiveRow{}, false
	}

	row := ArchiveRow{
		WeekStart:   weekStart,
		LocalDate:   localDate,
		DisplayName: name,
		Slot:        slot,
		Minutes:     minutes,
	}
	if len(cells) > colNote {
		row.Note = strings.TrimSpace(cells[colNote])
	}
	if len(cells) > colOccurredAt {
		if ts, err := time.Parse(timestampLayout, strings.TrimSpace(cells[colOccurredAt])); err == nil {
			row.OccurredAt = ts
		}
	}
	if len(cells) > colMemberID {
		row.MemberID = strings.TrimSpace(cells[colMemberID])
	}
	return row, true
}
