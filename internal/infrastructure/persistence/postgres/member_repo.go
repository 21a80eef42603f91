package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/member"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MemberRepository implements member.Repository for PostgreSQL.
type MemberRepository struct {
	conn *Connection
}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(conn *Connection) *MemberRepository {
	return &MemberRepository{conn: conn}
}

const memberColumns = `id, external_id, display_name, status, is_admin, registered_at, created_at, updated_at`

// Create creates a new member.
func (r *MemberRepository) Create(ctx context.Context, m *member.Member) error {
	query := `
		INSERT INTO members (` + memberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		m.ID,
		nullableExternalID(m.ExternalID),
		string(m.DisplayName),
		string(m.Status),
		m.IsAdmin,
		nullableTime(m.RegisteredAt),
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrMemberAlreadyExists
		}
		return fmt.Errorf("failed to create member: %w", err)
	}

	return nil
}

// GetByID returns a member by internal ID.
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*member.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	return r.scanMember(r.conn.QueryRow(ctx, query, id))
}

// GetByExternalID returns a member by messenger ID.
func (r *MemberRepository) GetByExternalID(ctx context.Context, externalID member.ExternalID) (*member.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE external_id = $1`
	return r.scanMember(r.conn.QueryRow(ctx, query, int64(externalID)))
}

// GetByDisplayName returns a member by roster name, case-insensitive.
func (r *MemberRepository) GetByDisplayName(ctx context.Context, name member.DisplayName) (*member.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE LOWER(display_name) = LOWER($1)`
	return r.scanMember(r.conn.QueryRow(ctx, query, string(name)))
}

// Update updates a member.
func (r *MemberRepository) Update(ctx context.Context, m *member.Member) error {
	query := `
		UPDATE members
		SET external_id = $2, display_name = $3, status = $4, is_admin = $5,
			registered_at = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, query,
		m.ID,
		nullableExternalID(m.ExternalID),
		string(m.DisplayName),
		string(m.Status),
		m.IsAdmin,
		nullableTime(m.RegisteredAt),
		m.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrMemberAlreadyExists
		}
		return fmt.Errorf("failed to update member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrMemberNotRegistered
	}

	return nil
}

// GetAll returns all members in roster seeding order.
func (r *MemberRepository) GetAll(ctx context.Context) ([]*member.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members ORDER BY created_at, id`
	return r.queryMembers(ctx, query)
}

// GetActive returns members that appear in weekly tables.
func (r *MemberRepository) GetActive(ctx context.Context) ([]*member.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE status IN ('active', 'paused')
		ORDER BY created_at, id
	`
	return r.queryMembers(ctx, query)
}

// Count returns the total number of members.
func (r *MemberRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM members`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *MemberRepository) queryMembers(ctx context.Context, query string, args ...interface{}) ([]*member.Member, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []*member.Member
	for rows.Next() {
		m, err := scanMemberRow(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

func (r *MemberRepository) scanMember(row pgx.Row) (*member.Member, error) {
	m, err := scanMemberRow(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrMemberNotRegistered
		}
		return nil, err
	}
	return m, nil
}

func scanMemberRow(row pgx.Row) (*member.Member, error) {
	var m member.Member
	var externalID *int64
	var registeredAt *time.Time

	err := row.Scan(
		&m.ID,
		&externalID,
		&m.DisplayName,
		&m.Status,
		&m.IsAdmin,
		&registeredAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if externalID != nil {
		m.ExternalID = member.ExternalID(*externalID)
	}
	if registeredAt != nil {
		m.RegisteredAt = *registeredAt
	}

	return &m, nil
}

// nullableExternalID maps a zero external ID to SQL NULL so the partial
// unique index only guards linked members.
func nullableExternalID(id member.ExternalID) *int64 {
	if !id.IsValid() {
		return nil
	}
	v := int64(id)
	return &v
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
