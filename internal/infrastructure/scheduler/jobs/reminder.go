package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/member"
)

// ══════════════════════════════════════════════════════════════════════════════
// REMINDER JOB
// ══════════════════════════════════════════════════════════════════════════════

// ReminderJob sends a personal practice nudge to one member. Each member with
// an active schedule gets their own job instance, registered under the
// member's reminder trigger name.
//
// The reminder is skipped silently when the member has already filled the
// week, is paused, or has no linked Telegram account. Delivery failures are
// logged and swallowed: a missed nudge must never surface as a scheduler
// error or block other triggers.
type ReminderJob struct {
	memberID    string
	memberRepo  member.Repository
	checkinRepo checkin.Repository
	messenger   Messenger
	logger      *slog.Logger

	timezone *time.Location
}

// NewReminderJob creates a reminder job for a single member.
func NewReminderJob(
	memberID string,
	memberRepo member.Repository,
	checkinRepo checkin.Repository,
	messenger Messenger,
	logger *slog.Logger,
	timezone *time.Location,
) *ReminderJob {
	if logger == nil {
		logger = slog.Default()
	}
	if timezone == nil {
		timezone = time.UTC
	}

	return &ReminderJob{
		memberID:    memberID,
		memberRepo:  memberRepo,
		checkinRepo: checkinRepo,
		messenger:   messenger,
		logger:      logger,
		timezone:    timezone,
	}
}

// Name returns the member's reminder trigger name.
func (j *ReminderJob) Name() string {
	return "reminder:" + j.memberID
}

// Description returns a human-readable description.
func (j *ReminderJob) Description() string {
	return "Sends a personal practice reminder to one member"
}

// Run sends the nudge if the member still has slots to fill this week.
func (j *ReminderJob) Run(ctx context.Context) error {
	m, err := j.memberRepo.GetByID(ctx, j.memberID)
	if err != nil {
		j.logger.Warn("reminder skipped, member lookup failed",
			"member_id", j.memberID, "error", err)
		return nil
	}

	if !m.Status.CanReceiveReminders() || !m.IsLinked() {
		return nil
	}

	weekStart := checkin.WeekStartOf(time.Now(), j.timezone)
	records, err := j.checkinRepo.GetWeek(ctx, j.memberID, weekStart)
	if err != nil {
		j.logger.Warn("reminder skipped, week lookup failed",
			"member_id", j.memberID, "error", err)
		return nil
	}

	week := checkin.NewWeekState(weekStart, records)
	if week.IsFull() {
		return nil
	}

	message := j.formatReminderMessage(string(m.DisplayName), week)
	if err := j.messenger.SendMarkdown(ctx, int64(m.ExternalID), message); err != nil {
		j.logger.Warn("reminder delivery failed",
			"member_id", j.memberID, "error", err)
		return nil
	}

	j.logger.Debug("reminder sent",
		"member_id", j.memberID,
		"slots_done", week.SlotCount(),
	)
	return nil
}

// formatReminderMessage builds the nudge text for the member.
func (j *ReminderJob) formatReminderMessage(name string, week *checkin.WeekState) string {
	done := week.SlotCount()
	left := checkin.SlotsPerWeek - done

	switch done {
	case 0:
		return fmt.Sprintf(
			"🎤 %s, время позаниматься!\nНа этой неделе ещё не было ни одного занятия. Первый слот ждёт — отметься командой /done.",
			name)
	case checkin.SlotsPerWeek - 1:
		return fmt.Sprintf(
			"🎤 %s, осталось одно занятие до полной недели!\nЗакрой слот %d — и неделя твоя. /done",
			name, int(week.NextRequiredSlot()))
	default:
		return fmt.Sprintf(
			"🎤 %s, время позаниматься!\nГотово %d из %d, осталось %d. Следующий слот: %d. /done",
			name, done, checkin.SlotsPerWeek, left, int(week.NextRequiredSlot()))
	}
}
