package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/gamification"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GAMIFICATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// GamificationRepository implements gamification.StateRepository and
// gamification.AwardRepository for PostgreSQL.
//
// last_bonus_week is a DATE column and comes back from pgx as midnight
// UTC; it is rebound to the hub location so BonusGrantedFor compares
// equal against domain week starts.
type GamificationRepository struct {
	conn     *Connection
	location *time.Location
}

// NewGamificationRepository creates a new GamificationRepository.
func NewGamificationRepository(conn *Connection, location *time.Location) *GamificationRepository {
	if location == nil {
		location = time.UTC
	}
	return &GamificationRepository{conn: conn, location: location}
}

// ─────────────────────────────────────────────────────────────────────────────
// XP State
// ─────────────────────────────────────────────────────────────────────────────

// GetState returns a member's progression state, creating an empty one
// on first access.
func (r *GamificationRepository) GetState(ctx context.Context, memberID string) (*gamification.State, error) {
	query := `
		SELECT member_id, total_xp, level, last_bonus_week, last_badge, updated_at
		FROM xp_states
		WHERE member_id = $1
	`

	var s gamification.State
	var totalXP, level int
	var lastBonusWeek *time.Time
	var lastBadge *string

	err := r.conn.QueryRow(ctx, query, memberID).Scan(
		&s.MemberID, &totalXP, &level, &lastBonusWeek, &lastBadge, &s.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return gamification.NewState(memberID), nil
		}
		return nil, fmt.Errorf("failed to get xp state: %w", err)
	}

	s.TotalXP = gamification.XP(totalXP)
	s.Level = gamification.Level(level)
	if lastBonusWeek != nil {
		s.LastBonusWeek = rebindDate(*lastBonusWeek, r.location)
	}
	if lastBadge != nil {
		s.LastBadge = gamification.BadgeCode(*lastBadge)
	}

	return &s, nil
}

// SaveState upserts a member's progression state.
func (r *GamificationRepository) SaveState(ctx context.Context, s *gamification.State) error {
	query := `
		INSERT INTO xp_states (member_id, total_xp, level, last_bonus_week, last_badge, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (member_id) DO UPDATE SET
			total_xp = EXCLUDED.total_xp,
			level = EXCLUDED.level,
			last_bonus_week = EXCLUDED.last_bonus_week,
			last_badge = EXCLUDED.last_badge,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		s.MemberID,
		int(s.TotalXP),
		int(s.Level),
		nullableTime(s.LastBonusWeek),
		nullableString(string(s.LastBadge)),
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save xp state: %w", err)
	}

	return nil
}

// GetAllStates returns progression states for all members.
func (r *GamificationRepository) GetAllStates(ctx context.Context) ([]*gamification.State, error) {
	query := `
		SELECT member_id, total_xp, level, last_bonus_week, last_badge, updated_at
		FROM xp_states
		ORDER BY total_xp DESC
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query xp states: %w", err)
	}
	defer rows.Close()

	var states []*gamification.State
	for rows.Next() {
		var s gamification.State
		var totalXP, level int
		var lastBonusWeek *time.Time
		var lastBadge *string

		if err := rows.Scan(&s.MemberID, &totalXP, &level, &lastBonusWeek, &lastBadge, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan xp state: %w", err)
		}
		s.TotalXP = gamification.XP(totalXP)
		s.Level = gamification.Level(level)
		if lastBonusWeek != nil {
			s.LastBonusWeek = rebindDate(*lastBonusWeek, r.location)
		}
		if lastBadge != nil {
			s.LastBadge = gamification.BadgeCode(*lastBadge)
		}
		states = append(states, &s)
	}

	return states, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Badge Awards
// ─────────────────────────────────────────────────────────────────────────────

// Grant records a badge award. The (member_id, code) primary key makes
// the grant one-shot: a repeat attempt maps to ErrBadgeAlreadyGranted.
func (r *GamificationRepository) Grant(ctx context.Context, award *gamification.Award) error {
	query := `
		INSERT INTO badge_awards (member_id, display_name, code, week_start, granted_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.Exec(ctx, query,
		award.MemberID,
		award.DisplayName,
		string(award.Code),
		nullableTime(award.WeekStart),
		award.GrantedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrBadgeAlreadyGranted
		}
		return fmt.Errorf("failed to grant badge: %w", err)
	}

	return nil
}

// GetByMember returns a member's badges in grant order.
func (r *GamificationRepository) GetByMember(ctx context.Context, memberID string) ([]*gamification.Award, error) {
	query := `
		SELECT member_id, display_name, code, week_start, granted_at
		FROM badge_awards
		WHERE member_id = $1
		ORDER BY granted_at
	`

	rows, err := r.conn.Query(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	var awards []*gamification.Award
	for rows.Next() {
		var a gamification.Award
		var code string
		var weekStart *time.Time
		if err := rows.Scan(&a.MemberID, &a.DisplayName, &code, &weekStart, &a.GrantedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		a.Code = gamification.BadgeCode(code)
		if weekStart != nil {
			a.WeekStart = rebindDate(*weekStart, r.location)
		}
		awards = append(awards, &a)
	}

	return awards, rows.Err()
}

// Has checks whether a member already holds a badge.
func (r *GamificationRepository) Has(ctx context.Context, memberID string, code gamification.BadgeCode) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM badge_awards WHERE member_id = $1 AND code = $2)`,
		memberID, string(code),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check badge: %w", err)
	}
	return exists, nil
}
