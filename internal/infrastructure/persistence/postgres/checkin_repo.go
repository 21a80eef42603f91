package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECKIN REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CheckinRepository implements checkin.Repository and
// checkin.ArchiveRepository for PostgreSQL.
//
// DATE columns come back from pgx as midnight UTC regardless of the hub
// time zone. The domain anchors every week_start and local_date at
// midnight in the hub location, so each scanned date is rebound to that
// location before it leaves this package.
type CheckinRepository struct {
	conn     *Connection
	location *time.Location
}

// NewCheckinRepository creates a new CheckinRepository. All DATE values
// read from the store are interpreted in the given location.
func NewCheckinRepository(conn *Connection, location *time.Location) *CheckinRepository {
	if location == nil {
		location = time.UTC
	}
	return &CheckinRepository{conn: conn, location: location}
}

// rebindDate re-anchors a scanned DATE value at midnight in loc, keeping
// the calendar day. pgx decodes DATE as midnight UTC, which never compares
// equal to the domain's location-anchored instants.
func rebindDate(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

const checkinColumns = `id, member_id, display_name, week_start, local_date, slot, minutes, note, occurred_at`

// Create inserts a check-in record. Two near-simultaneous duplicate taps
// race here: the loser hits a unique constraint and gets the idempotent
// "already logged" rejection instead of a hard failure.
func (r *CheckinRepository) Create(ctx context.Context, rec *checkin.Record) error {
	query := `
		INSERT INTO checkins (` + checkinColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		rec.ID,
		rec.MemberID,
		rec.DisplayName,
		rec.WeekStart,
		rec.LocalDate,
		int(rec.Slot),
		int(rec.Minutes),
		rec.Note,
		rec.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyLogged
		}
		return fmt.Errorf("failed to create checkin: %w", err)
	}

	return nil
}

// GetWeek returns a member's records for one week, ordered by occurred_at.
func (r *CheckinRepository) GetWeek(ctx context.Context, memberID string, weekStart time.Time) ([]*checkin.Record, error) {
	query := `
		SELECT ` + checkinColumns + `
		FROM checkins
		WHERE member_id = $1 AND week_start = $2
		ORDER BY occurred_at
	`
	return r.queryRecords(ctx, query, memberID, weekStart)
}

// GetWeekAll returns all members' records for one week.
func (r *CheckinRepository) GetWeekAll(ctx context.Context, weekStart time.Time) ([]*checkin.Record, error) {
	query := `
		SELECT ` + checkinColumns + `
		FROM checkins
		WHERE week_start = $1
		ORDER BY member_id, occurred_at
	`
	return r.queryRecords(ctx, query, weekStart)
}

// DeleteLatest removes the member's most recent record of the week and
// returns it. The DELETE and the read are one statement so a concurrent
// undo cannot remove the same row twice.
func (r *CheckinRepository) DeleteLatest(ctx context.Context, memberID string, weekStart time.Time) (*checkin.Record, error) {
	query := `
		DELETE FROM checkins
		WHERE id = (
			SELECT id FROM checkins
			WHERE member_id = $1 AND week_start = $2
			ORDER BY occurred_at DESC
			LIMIT 1
		)
		RETURNING ` + checkinColumns + `
	`

	rec, err := r.scanRecordRow(r.conn.QueryRow(ctx, query, memberID, weekStart))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNothingToUndo
		}
		return nil, fmt.Errorf("failed to delete latest checkin: %w", err)
	}

	return rec, nil
}

// GetMemberWeeks returns per-week slot counts for a member across the
// active ledger and the archive, newest first.
func (r *CheckinRepository) GetMemberWeeks(ctx context.Context, memberID string, limit int) ([]checkin.WeekSummary, error) {
	query := `
		SELECT week_start, COUNT(*) AS slots, COALESCE(SUM(minutes), 0) AS total_minutes
		FROM (
			SELECT week_start, minutes FROM checkins WHERE member_id = $1
			UNION ALL
			SELECT week_start, minutes FROM checkin_archive WHERE member_id = $1
		) AS all_records
		GROUP BY week_start
		ORDER BY week_start DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query member weeks: %w", err)
	}
	defer rows.Close()

	var weeks []checkin.WeekSummary
	for rows.Next() {
		var w checkin.WeekSummary
		if err := rows.Scan(&w.WeekStart, &w.SlotCount, &w.TotalMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan week summary: %w", err)
		}
		w.WeekStart = rebindDate(w.WeekStart, r.location)
		weeks = append(weeks, w)
	}

	return weeks, rows.Err()
}

// GetHistory returns a member's records across ledger and archive,
// newest first.
func (r *CheckinRepository) GetHistory(ctx context.Context, memberID string, limit int) ([]*checkin.Record, error) {
	query := `
		SELECT ` + checkinColumns + ` FROM (
			SELECT ` + checkinColumns + ` FROM checkins WHERE member_id = $1
			UNION ALL
			SELECT ` + checkinColumns + ` FROM checkin_archive WHERE member_id = $1
		) AS all_records
		ORDER BY occurred_at DESC
		LIMIT $2
	`
	return r.queryRecords(ctx, query, memberID, limit)
}

// ─────────────────────────────────────────────────────────────────────────────
// Archive Operations
// ─────────────────────────────────────────────────────────────────────────────

// ArchiveWeek moves all of a week's records from the active ledger to
// the archive in one transaction. Re-running for an already archived
// week moves nothing and is harmless.
func (r *CheckinRepository) ArchiveWeek(ctx context.Context, weekStart time.Time) ([]*checkin.Record, error) {
	var moved []*checkin.Record

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		insertQuery := `
			INSERT INTO checkin_archive
				(id, member_id, display_name, week_start, local_date, slot, minutes, note, occurred_at)
			SELECT id, member_id, display_name, week_start, local_date, slot, minutes, note, occurred_at
			FROM checkins
			WHERE week_start = $1
			ON CONFLICT (member_id, week_start, slot) DO NOTHING
		`
		if _, err := tx.Exec(ctx, insertQuery, weekStart); err != nil {
			return fmt.Errorf("failed to copy week into archive: %w", err)
		}

		deleteQuery := `
			DELETE FROM checkins
			WHERE week_start = $1
			RETURNING ` + checkinColumns + `
		`
		rows, err := tx.Query(ctx, deleteQuery, weekStart)
		if err != nil {
			return fmt.Errorf("failed to clear archived week: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := r.scanRecordRow(rows)
			if err != nil {
				return fmt.Errorf("failed to scan archived record: %w", err)
			}
			moved = append(moved, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return moved, nil
}

// PurgeWeek deletes a week from the active ledger without archiving it.
// Used by the "purge" rollover mode.
func (r *CheckinRepository) PurgeWeek(ctx context.Context, weekStart time.Time) (int, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM checkins WHERE week_start = $1`, weekStart)
	if err != nil {
		return 0, fmt.Errorf("failed to purge week: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// RestoreArchive inserts archived records that are not present yet.
// Existing (member_id, week_start, slot) rows stay untouched, so hydrating
// from a stale mirror never overwrites the database.
func (r *CheckinRepository) RestoreArchive(ctx context.Context, records []*checkin.Record) (int, error) {
	inserted := 0

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `
			INSERT INTO checkin_archive (` + checkinColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (member_id, week_start, slot) DO NOTHING
		`
		for _, rec := range records {
			tag, err := tx.Exec(ctx, query,
				rec.ID,
				rec.MemberID,
				rec.DisplayName,
				rec.WeekStart,
				rec.LocalDate,
				int(rec.Slot),
				int(rec.Minutes),
				rec.Note,
				rec.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to restore archived checkin: %w", err)
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// GetArchivedWeeks returns archived week summaries for a member,
// newest first.
func (r *CheckinRepository) GetArchivedWeeks(ctx context.Context, memberID string, limit int) ([]checkin.WeekSummary, error) {
	query := `
		SELECT week_start, COUNT(*) AS slots, COALESCE(SUM(minutes), 0) AS total_minutes
		FROM checkin_archive
		WHERE member_id = $1
		GROUP BY week_start
		ORDER BY week_start DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived weeks: %w", err)
	}
	defer rows.Close()

	var weeks []checkin.WeekSummary
	for rows.Next() {
		var w checkin.WeekSummary
		if err := rows.Scan(&w.WeekStart, &w.SlotCount, &w.TotalMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan archived week: %w", err)
		}
		w.WeekStart = rebindDate(w.WeekStart, r.location)
		weeks = append(weeks, w)
	}

	return weeks, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *CheckinRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]*checkin.Record, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkins: %w", err)
	}
	defer rows.Close()

	var records []*checkin.Record
	for rows.Next() {
		rec, err := r.scanRecordRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkin: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *CheckinRepository) scanRecordRow(row pgx.Row) (*checkin.Record, error) {
	var rec checkin.Record
	var slot, minutes int

	err := row.Scan(
		&rec.ID,
		&rec.MemberID,
		&rec.DisplayName,
		&rec.WeekStart,
		&rec.LocalDate,
		&slot,
		&minutes,
		&rec.Note,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.WeekStart = rebindDate(rec.WeekStart, r.location)
	rec.LocalDate = rebindDate(rec.LocalDate, r.location)
	rec.Slot = checkin.Slot(slot)
	rec.Minutes = checkin.Minutes(minutes)
	return &rec, nil
}
