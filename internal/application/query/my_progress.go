package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/gamification"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/member"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/program"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MY PROGRESS QUERY
// Персональная карточка участника: неделя, XP, уровень, бейджи, серия
// и текущий шаг программы. Собирается из нескольких источников.
// ══════════════════════════════════════════════════════════════════════════════

// MyProgressQuery содержит параметры запроса карточки.
type MyProgressQuery struct {
	// MemberID - внутренний идентификатор участника.
	MemberID string

	// Now - момент запроса (по умолчанию time.Now).
	Now time.Time
}

// Validate проверяет корректность запроса.
func (q MyProgressQuery) Validate() error {
	if q.MemberID == "" {
		return errors.New("my_progress: member_id is required")
	}
	return nil
}

// EnrollmentDTO - текущая программа участника для карточки.
type EnrollmentDTO struct {
	ProgramTitle string
	StepNumber   int
	StepTotal    int
	StepTitle    string
	StepVideoURL string
}

// MyProgressResult содержит персональную карточку.
type MyProgressResult struct {
	// Member - участник.
	Member *member.Member

	// WeekStart - понедельник текущей недели.
	WeekStart time.Time

	// SlotsDone - занято слотов текущей недели.
	SlotsDone int

	// NextSlot - следующий обязательный слот (0, если неделя полная).
	NextSlot int

	// WeekMinutes - суммарные минуты занятий недели.
	WeekMinutes int

	// TotalXP - суммарный опыт.
	TotalXP int

	// Level - текущий уровень.
	Level int

	// NextLevelXP - суммарный XP, необходимый для следующего уровня.
	NextLevelXP int

	// Badges - выданные бейджи в порядке выдачи.
	Badges []*gamification.Award

	// Streak - серия полных недель до текущей.
	Streak int

	// Enrollment - текущая программа (nil, если участник не записан).
	Enrollment *EnrollmentDTO
}

// MyProgressHandler обрабатывает MyProgressQuery.
type MyProgressHandler struct {
	memberRepo  member.Repository
	checkinRepo checkin.Repository
	stateRepo   gamification.StateRepository
	awardRepo   gamification.AwardRepository
	programRepo program.Repository
	streaks     *StreaksHandler
	location    *time.Location
}

// NewMyProgressHandler создаёт новый MyProgressHandler.
// programRepo может быть nil, если программы не настроены.
func NewMyProgressHandler(
	memberRepo member.Repository,
	checkinRepo checkin.Repository,
	stateRepo gamification.StateRepository,
	awardRepo gamification.AwardRepository,
	programRepo program.Repository,
	location *time.Location,
) *MyProgressHandler {
	if location == nil {
		location = time.UTC
	}
	return &MyProgressHandler{
		memberRepo:  memberRepo,
		checkinRepo: checkinRepo,
		stateRepo:   stateRepo,
		awardRepo:   awardRepo,
		programRepo: programRepo,
		streaks:     NewStreaksHandler(checkinRepo, location),
		location:    location,
	}
}

// Handle выполняет запрос карточки.
func (h *MyProgressHandler) Handle(ctx context.Context, q MyProgressQuery) (*MyProgressResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}

	m, err := h.memberRepo.GetByID(ctx, q.MemberID)
	if err != nil {
		return nil, fmt.Errorf("my_progress: %w", err)
	}

	weekStart := checkin.WeekStartOf(now, h.location)
	records, err := h.checkinRepo.GetWeek(ctx, m.ID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("my_progress: failed to load week: %w", err)
	}
	week := checkin.NewWeekState(weekStart, records)

	minutes := 0
	for _, r := range records {
		minutes += int(r.Minutes)
	}

	result := &MyProgressResult{
		Member:      m,
		WeekStart:   weekStart,
		SlotsDone:   week.SlotCount(),
		WeekMinutes: minutes,
	}
	if !week.IsFull() {
		result.NextSlot = int(week.NextRequiredSlot())
	}

	state, err := h.stateRepo.GetState(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("my_progress: failed to load xp state: %w", err)
	}
	result.TotalXP = int(state.TotalXP)
	result.Level = int(state.Level)
	result.NextLevelXP = int(gamification.NextLevelThreshold(state.Level))

	awards, err := h.awardRepo.GetByMember(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("my_progress: failed to load badges: %w", err)
	}
	result.Badges = awards

	streaks, err := h.streaks.Handle(ctx, StreaksQuery{MemberID: m.ID, Now: now})
	if err != nil {
		return nil, err
	}
	result.Streak = streaks.Completed

	if h.programRepo != nil {
		enrollment, err := h.loadEnrollment(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		result.Enrollment = enrollment
	}

	return result, nil
}

// loadEnrollment загружает карточку программы участника, если он записан.
func (h *MyProgressHandler) loadEnrollment(ctx context.Context, memberID string) (*EnrollmentDTO, error) {
	enr, err := h.programRepo.GetEnrollment(ctx, memberID)
	if err != nil {
		if errors.Is(err, shared.ErrNotEnrolled) || shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("my_progress: failed to load enrollment: %w", err)
	}

	p, err := h.programRepo.GetProgram(ctx, enr.ProgramName)
	if err != nil {
		return nil, fmt.Errorf("my_progress: failed to load program: %w", err)
	}

	dto := &EnrollmentDTO{
		ProgramTitle: p.Title,
		StepNumber:   enr.CurrentStep,
		StepTotal:    p.StepCount(),
	}
	if step, ok := p.StepAt(enr.CurrentStep); ok {
		dto.StepTitle = step.Title
		dto.StepVideoURL = step.VideoURL
	}
	return dto, nil
}
