// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/gamification"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/program"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/progress"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON CHECK-IN ACCEPTED HANDLER
// Обрабатывает принятую отметку: начисляет XP, выдаёт недельный бонус и
// бейджи, продвигает шаг программы. Награды выдаются только вперёд -
// сбой любого шага здесь не откатывает саму отметку.
// ══════════════════════════════════════════════════════════════════════════════

// streakLookback ограничивает глубину обхода недель при сборе фактов.
const streakLookback = 104

// OnCheckinAcceptedHandler обрабатывает событие принятой отметки.
type OnCheckinAcceptedHandler struct {
	checkinRepo checkin.Repository
	stateRepo   gamification.StateRepository
	awardRepo   gamification.AwardRepository
	programRepo program.Repository
	engine      *gamification.Engine

	eventPublisher shared.EventPublisher
	logger         *slog.Logger
}

// NewOnCheckinAcceptedHandler создаёт новый обработчик.
// programRepo может быть nil, если программы не настроены.
func NewOnCheckinAcceptedHandler(
	checkinRepo checkin.Repository,
	stateRepo gamification.StateRepository,
	awardRepo gamification.AwardRepository,
	programRepo program.Repository,
	engine *gamification.Engine,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
) *OnCheckinAcceptedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = gamification.NewEngine(gamification.DefaultStreakThreshold)
	}

	return &OnCheckinAcceptedHandler{
		checkinRepo:    checkinRepo,
		stateRepo:      stateRepo,
		awardRepo:      awardRepo,
		programRepo:    programRepo,
		engine:         engine,
		eventPublisher: eventPublisher,
		logger:         logger.With("handler", "on_checkin_accepted"),
	}
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnCheckinAcceptedHandler) EventType() shared.EventType {
	return shared.EventCheckinAccepted
}

// Handle обрабатывает событие принятой отметки.
// Реализует интерфейс shared.EventHandler.
func (h *OnCheckinAcceptedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	accepted, ok := event.(*shared.CheckinAcceptedEvent)
	if !ok {
		h.logger.Warn("received non-CheckinAcceptedEvent",
			"event_type", event.EventType())
		return nil
	}

	h.logger.Info("processing accepted check-in",
		"member_id", accepted.MemberID,
		"slot", accepted.Slot,
		"weekly_count", accepted.WeeklyCount,
	)

	facts, err := h.collectFacts(ctx, accepted)
	if err != nil {
		return fmt.Errorf("collect facts: %w", err)
	}

	outcome := h.engine.Evaluate(facts)

	lastBadge := h.grantBadges(ctx, accepted, outcome.Badges)

	if err := h.applyXP(ctx, accepted, outcome, lastBadge); err != nil {
		return fmt.Errorf("apply xp: %w", err)
	}

	// Продвижение программы некритично: сбой логируется и не
	// откатывает начисления.
	if err := h.advanceEnrollment(ctx, accepted.MemberID); err != nil {
		h.logger.Warn("failed to advance program enrollment",
			"member_id", accepted.MemberID, "error", err)
	}

	return nil
}

// collectFacts собирает факты об отметке для движка прогрессии.
func (h *OnCheckinAcceptedHandler) collectFacts(
	ctx context.Context,
	accepted *shared.CheckinAcceptedEvent,
) (gamification.CheckinFacts, error) {
	facts := gamification.CheckinFacts{
		MemberID:    accepted.MemberID,
		WeekStart:   accepted.WeekStart,
		LocalDate:   accepted.LocalDate,
		WeeklyCount: accepted.WeeklyCount,
		IsFirstSlotOnMonday: accepted.Slot == int(checkin.SlotFirst) &&
			accepted.LocalDate.Weekday() == time.Monday,
	}

	weeks, err := h.checkinRepo.GetMemberWeeks(ctx, accepted.MemberID, streakLookback)
	if err != nil {
		return facts, err
	}

	previousWeek := accepted.WeekStart.AddDate(0, 0, -7)
	facts.PreviousWeekWasEmpty = true
	for _, w := range weeks {
		if w.WeekStart.Equal(accepted.WeekStart) {
			continue
		}
		if w.WeekStart.Equal(previousWeek) && w.SlotCount > 0 {
			facts.PreviousWeekWasEmpty = false
		}
		if w.WeekStart.Before(accepted.WeekStart) && w.SlotCount >= checkin.SlotsPerWeek {
			facts.HadAnyFullWeekBefore = true
		}
	}

	facts.StreakWithCurrent = progress.StreakIncludingCurrent(
		weeks, accepted.WeekStart, accepted.WeeklyCount >= checkin.SlotsPerWeek)

	return facts, nil
}

// applyXP начисляет базовый XP и недельный бонус, публикуя события.
func (h *OnCheckinAcceptedHandler) applyXP(
	ctx context.Context,
	accepted *shared.CheckinAcceptedEvent,
	outcome gamification.Outcome,
	lastBadge gamification.BadgeCode,
) error {
	state, err := h.stateRepo.GetState(ctx, accepted.MemberID)
	if err != nil {
		return fmt.Errorf("get state: %w", err)
	}

	oldLevel := state.Level
	if lastBadge != "" {
		state.MarkBadge(lastBadge)
	}

	leveledUp, err := state.Award(outcome.BaseXP)
	if err != nil {
		return fmt.Errorf("award base xp: %w", err)
	}
	awarded := outcome.BaseXP

	// State.BonusGrantedFor страхует повторную выдачу бонуса, если
	// событие закрытия недели пришло дважды.
	if outcome.WeeklyBonus && !state.BonusGrantedFor(accepted.WeekStart) {
		bonusLeveled, err := state.Award(gamification.XPWeeklyBonus)
		if err != nil {
			return fmt.Errorf("award weekly bonus: %w", err)
		}
		state.MarkBonusGranted(accepted.WeekStart)
		leveledUp = leveledUp || bonusLeveled
		awarded += gamification.XPWeeklyBonus
	}

	if err := h.stateRepo.SaveState(ctx, state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	reason := "checkin"
	if awarded > outcome.BaseXP {
		reason = "checkin+weekly_bonus"
	}
	if err := h.eventPublisher.Publish(shared.NewXPAwardedEvent(
		accepted.MemberID, int(awarded), reason, int(state.TotalXP))); err != nil {
		h.logger.Warn("failed to publish xp event",
			"member_id", accepted.MemberID, "error", err)
	}

	if leveledUp {
		if err := h.eventPublisher.Publish(shared.NewLevelUpEvent(
			accepted.MemberID, accepted.DisplayName,
			int(oldLevel), int(state.Level), int(state.TotalXP))); err != nil {
			h.logger.Warn("failed to publish level-up event",
				"member_id", accepted.MemberID, "error", err)
		}
	}

	return nil
}

// grantBadges выдаёт бейджи-кандидаты и возвращает код последнего
// реально выданного. Уже выданные молча пропускаются: выдача
// идемпотентна на уровне хранилища.
func (h *OnCheckinAcceptedHandler) grantBadges(
	ctx context.Context,
	accepted *shared.CheckinAcceptedEvent,
	candidates []gamification.BadgeCode,
) gamification.BadgeCode {
	var last gamification.BadgeCode
	for _, code := range candidates {
		award := &gamification.Award{
			MemberID:    accepted.MemberID,
			DisplayName: accepted.DisplayName,
			Code:        code,
			WeekStart:   accepted.WeekStart,
			GrantedAt:   time.Now(),
		}
		if err := h.awardRepo.Grant(ctx, award); err != nil {
			if errors.Is(err, shared.ErrBadgeAlreadyGranted) {
				continue
			}
			h.logger.Warn("failed to grant badge",
				"member_id", accepted.MemberID, "badge", code, "error", err)
			continue
		}

		title := string(code)
		if badge, ok := gamification.FindBadge(code); ok {
			title = badge.Title
		}
		last = code
		if err := h.eventPublisher.Publish(shared.NewBadgeUnlockedEvent(
			accepted.MemberID, accepted.DisplayName, string(code), title)); err != nil {
			h.logger.Warn("failed to publish badge event",
				"member_id", accepted.MemberID, "badge", code, "error", err)
		}

		h.logger.Info("badge unlocked",
			"member_id", accepted.MemberID, "badge", code)
	}
	return last
}

// advanceEnrollment продвигает участника на следующий шаг программы.
func (h *OnCheckinAcceptedHandler) advanceEnrollment(ctx context.Context, memberID string) error {
	if h.programRepo == nil {
		return nil
	}

	enr, err := h.programRepo.GetEnrollment(ctx, memberID)
	if err != nil {
		if errors.Is(err, shared.ErrNotEnrolled) || shared.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("get enrollment: %w", err)
	}

	p, err := h.programRepo.GetProgram(ctx, enr.ProgramName)
	if err != nil {
		return fmt.Errorf("get program: %w", err)
	}

	if err := enr.Advance(p); err != nil {
		if errors.Is(err, program.ErrProgramCompleted) {
			return nil
		}
		return err
	}

	return h.programRepo.SaveEnrollment(ctx, enr)
}
