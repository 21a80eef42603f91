package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/program"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRAM REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgramRepository implements program.Repository for PostgreSQL.
// Program steps are stored as a JSONB array: the catalog is tiny, seeded
// at startup and read whole.
type ProgramRepository struct {
	conn *Connection
}

// NewProgramRepository creates a new ProgramRepository.
func NewProgramRepository(conn *Connection) *ProgramRepository {
	return &ProgramRepository{conn: conn}
}

type stepDoc struct {
	Title    string `json:"title"`
	VideoURL string `json:"video_url,omitempty"`
	Minutes  int    `json:"minutes,omitempty"`
}

// GetProgram returns a program by name.
func (r *ProgramRepository) GetProgram(ctx context.Context, name string) (*program.Program, error) {
	query := `SELECT name, title, steps FROM programs WHERE name = $1`

	var p program.Program
	var stepsJSON []byte
	err := r.conn.QueryRow(ctx, query, name).Scan(&p.Name, &p.Title, &stepsJSON)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProgramNotFound
		}
		return nil, fmt.Errorf("failed to get program: %w", err)
	}

	if err := unmarshalSteps(stepsJSON, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPrograms returns the whole catalog ordered by name.
func (r *ProgramRepository) ListPrograms(ctx context.Context) ([]*program.Program, error) {
	rows, err := r.conn.Query(ctx, `SELECT name, title, steps FROM programs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query programs: %w", err)
	}
	defer rows.Close()

	var programs []*program.Program
	for rows.Next() {
		var p program.Program
		var stepsJSON []byte
		if err := rows.Scan(&p.Name, &p.Title, &stepsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		if err := unmarshalSteps(stepsJSON, &p); err != nil {
			return nil, err
		}
		programs = append(programs, &p)
	}

	return programs, rows.Err()
}

// SavePrograms upserts the catalog. Used by seeding at startup.
func (r *ProgramRepository) SavePrograms(ctx context.Context, programs []*program.Program) error {
	query := `
		INSERT INTO programs (name, title, steps)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			title = EXCLUDED.title,
			steps = EXCLUDED.steps
	`

	for _, p := range programs {
		docs := make([]stepDoc, 0, len(p.Steps))
		for _, s := range p.Steps {
			docs = append(docs, stepDoc{Title: s.Title, VideoURL: s.VideoURL, Minutes: s.Minutes})
		}
		stepsJSON, err := json.Marshal(docs)
		if err != nil {
			return fmt.Errorf("failed to marshal steps for %s: %w", p.Name, err)
		}

		if _, err := r.conn.Exec(ctx, query, p.Name, p.Title, stepsJSON); err != nil {
			return fmt.Errorf("failed to save program %s: %w", p.Name, err)
		}
	}

	return nil
}

// GetEnrollment returns a member's active enrollment.
func (r *ProgramRepository) GetEnrollment(ctx context.Context, memberID string) (*program.Enrollment, error) {
	query := `
		SELECT member_id, program_name, current_step, started_at, updated_at
		FROM program_enrollments
		WHERE member_id = $1
	`

	var e program.Enrollment
	err := r.conn.QueryRow(ctx, query, memberID).Scan(
		&e.MemberID, &e.ProgramName, &e.CurrentStep, &e.StartedAt, &e.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	return &e, nil
}

// SaveEnrollment creates or updates a member's enrollment.
func (r *ProgramRepository) SaveEnrollment(ctx context.Context, e *program.Enrollment) error {
	query := `
		INSERT INTO program_enrollments (member_id, program_name, current_step, started_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (member_id) DO UPDATE SET
			program_name = EXCLUDED.program_name,
			current_step = EXCLUDED.current_step,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query, e.MemberID, e.ProgramName, e.CurrentStep, e.StartedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save enrollment: %w", err)
	}
	return nil
}

// DeleteEnrollment removes a member's enrollment.
func (r *ProgramRepository) DeleteEnrollment(ctx context.Context, memberID string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM program_enrollments WHERE member_id = $1`, memberID)
	if err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotEnrolled
	}
	return nil
}

func unmarshalSteps(data []byte, p *program.Program) error {
	var docs []stepDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("corrupt program steps for %s: %w", p.Name, err)
	}
	p.Steps = make([]program.Step, 0, len(docs))
	for _, d := range docs {
		p.Steps = append(p.Steps, program.Step{Title: d.Title, VideoURL: d.VideoURL, Minutes: d.Minutes})
	}
	return nil
}
