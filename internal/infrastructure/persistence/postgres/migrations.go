package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION SUPPORT
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// Migrator handles database migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a new migrator with embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
		tableName:  "schema_migrations",
	}
}

// EnsureMigrationTable creates the migration tracking table if it doesn't exist.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName)

	_, err := m.conn.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	return nil
}

// GetAppliedMigrations returns all applied migrations.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	query := fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName)

	rows, err := m.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time

		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}

		applied[version] = appliedAt
	}

	return applied, rows.Err()
}

// Migrate applies all pending migrations.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if _, isApplied := applied[mig.Version]; isApplied {
			continue
		}

		if mig.UpSQL == "" {
			return fmt.Errorf("%w: missing up SQL for migration %d", ErrMigrationFailed, mig.Version)
		}

		// Apply migration in transaction
		err := m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}

			insertQuery := fmt.Sprintf(
				"INSERT INTO %s (version, name) VALUES ($1, $2)",
				m.tableName,
			)
			_, err := tx.Exec(ctx, insertQuery, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}

	return nil
}

// Status returns the migration status.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Migration, len(m.migrations))
	copy(result, m.migrations)

	for i := range result {
		if appliedAt, ok := applied[result[i].Version]; ok {
			result[i].IsApplied = true
			result[i].AppliedAt = appliedAt
		}
	}

	return result, nil
}

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_members",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_checkins",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_reminders",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_gamification",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
		{
			Version: 5,
			Name:    "create_programs",
			UpSQL:   migration005Up,
			DownSQL: migration005Down,
		},
		{
			Version: 6,
			Name:    "extend_gamification",
			UpSQL:   migration006Up,
			DownSQL: migration006Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS members (
    id UUID PRIMARY KEY,
    external_id BIGINT,
    display_name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    is_admin BOOLEAN NOT NULL DEFAULT FALSE,
    registered_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_members_external_id
    ON members (external_id) WHERE external_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_members_display_name
    ON members (LOWER(display_name));
`

const migration001Down = `
DROP TABLE IF EXISTS members;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS checkins (
    id UUID PRIMARY KEY,
    member_id UUID NOT NULL REFERENCES members(id),
    display_name TEXT NOT NULL,
    week_start DATE NOT NULL,
    local_date DATE NOT NULL,
    slot SMALLINT NOT NULL CHECK (slot BETWEEN 1 AND 3),
    minutes INTEGER NOT NULL DEFAULT 20,
    note TEXT NOT NULL DEFAULT '',
    occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_checkins_member_date UNIQUE (member_id, local_date),
    CONSTRAINT uq_checkins_member_week_slot UNIQUE (member_id, week_start, slot)
);

CREATE INDEX IF NOT EXISTS idx_checkins_week_start ON checkins (week_start);

CREATE TABLE IF NOT EXISTS checkin_archive (
    id UUID PRIMARY KEY,
    member_id UUID NOT NULL,
    display_name TEXT NOT NULL,
    week_start DATE NOT NULL,
    local_date DATE NOT NULL,
    slot SMALLINT NOT NULL,
    minutes INTEGER NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    occurred_at TIMESTAMPTZ NOT NULL,
    archived_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_archive_member_week_slot UNIQUE (member_id, week_start, slot)
);

CREATE INDEX IF NOT EXISTS idx_archive_member_week
    ON checkin_archive (member_id, week_start DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS checkin_archive;
DROP TABLE IF EXISTS checkins;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS reminder_schedules (
    member_id UUID PRIMARY KEY REFERENCES members(id),
    weekdays TEXT NOT NULL,
    hour SMALLINT NOT NULL CHECK (hour BETWEEN 0 AND 23),
    minute SMALLINT NOT NULL CHECK (minute BETWEEN 0 AND 59),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migration003Down = `
DROP TABLE IF EXISTS reminder_schedules;
`

const migration004Up = `
CREATE TABLE IF NOT EXISTS xp_states (
    member_id UUID PRIMARY KEY REFERENCES members(id),
    total_xp INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 0,
    last_bonus_week DATE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS badge_awards (
    member_id UUID NOT NULL REFERENCES members(id),
    code TEXT NOT NULL,
    granted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    PRIMARY KEY (member_id, code)
);
`

const migration004Down = `
DROP TABLE IF EXISTS badge_awards;
DROP TABLE IF EXISTS xp_states;
`

const migration005Up = `
CREATE TABLE IF NOT EXISTS programs (
    name TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    steps JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS program_enrollments (
    member_id UUID PRIMARY KEY REFERENCES members(id),
    program_name TEXT NOT NULL REFERENCES programs(name),
    current_step INTEGER NOT NULL DEFAULT 1,
    started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migration005Down = `
DROP TABLE IF EXISTS program_enrollments;
DROP TABLE IF EXISTS programs;
`

const migration006Up = `
ALTER TABLE badge_awards
    ADD COLUMN IF NOT EXISTS display_name TEXT NOT NULL DEFAULT '',
    ADD COLUMN IF NOT EXISTS week_start DATE;

ALTER TABLE xp_states
    ADD COLUMN IF NOT EXISTS last_badge TEXT;

ALTER TABLE xp_states ALTER COLUMN level SET DEFAULT 1;
UPDATE xp_states SET level = level + 1;
`

const migration006Down = `
ALTER TABLE badge_awards
    DROP COLUMN IF EXISTS display_name,
    DROP COLUMN IF EXISTS week_start;

ALTER TABLE xp_states DROP COLUMN IF EXISTS last_badge;
`
