package postgres

import (
	"context"
	"fmt"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/reminder"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REMINDER SCHEDULE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ScheduleRepository implements reminder.Repository for PostgreSQL.
// Only schedule specifications are persisted; live triggers are rebuilt
// from these rows on every process start.
type ScheduleRepository struct {
	conn *Connection
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(conn *Connection) *ScheduleRepository {
	return &ScheduleRepository{conn: conn}
}

// Upsert saves a member's schedule, replacing any existing one.
func (r *ScheduleRepository) Upsert(ctx context.Context, s *reminder.Schedule) error {
	query := `
		INSERT INTO reminder_schedules (member_id, weekdays, hour, minute, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (member_id) DO UPDATE SET
			weekdays = EXCLUDED.weekdays,
			hour = EXCLUDED.hour,
			minute = EXCLUDED.minute,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		s.MemberID,
		s.Days.String(),
		s.At.Hour,
		s.At.Minute,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert schedule: %w", err)
	}

	return nil
}

// GetByMember returns a member's schedule.
func (r *ScheduleRepository) GetByMember(ctx context.Context, memberID string) (*reminder.Schedule, error) {
	query := `
		SELECT member_id, weekdays, hour, minute, created_at, updated_at
		FROM reminder_schedules
		WHERE member_id = $1
	`

	s, err := scanSchedule(r.conn.QueryRow(ctx, query, memberID))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNoActiveSchedule
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return s, nil
}

// Delete removes a member's schedule.
func (r *ScheduleRepository) Delete(ctx context.Context, memberID string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM reminder_schedules WHERE member_id = $1`, memberID)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNoActiveSchedule
	}
	return nil
}

// GetAll returns every persisted schedule for trigger rehydration.
func (r *ScheduleRepository) GetAll(ctx context.Context) ([]*reminder.Schedule, error) {
	query := `
		SELECT member_id, weekdays, hour, minute, created_at, updated_at
		FROM reminder_schedules
		ORDER BY member_id
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*reminder.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}

	return schedules, rows.Err()
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanSchedule(row scannable) (*reminder.Schedule, error) {
	var s reminder.Schedule
	var weekdays string
	var hour, minute int

	err := row.Scan(&s.MemberID, &weekdays, &hour, &minute, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	days, err := reminder.ParseWeekdaySet(weekdays)
	if err != nil {
		return nil, fmt.Errorf("corrupt weekday set %q: %w", weekdays, err)
	}
	s.Days = days
	s.At = reminder.TimeOfDay{Hour: hour, Minute: minute}

	return &s, nil
}
