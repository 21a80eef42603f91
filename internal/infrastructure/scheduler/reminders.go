package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/member"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/reminder"
	"github.com/vocal-hub/vocal-practice-hub/internal/infrastructure/scheduler/jobs"
)

// ══════════════════════════════════════════════════════════════════════════════
// REMINDER INSTALLER
// Bridges persisted reminder schedules to live triggers. Install replaces
// the member's trigger atomically; on process start RestoreAll rebuilds
// every trigger from storage, so the registry never needs persistence.
// ══════════════════════════════════════════════════════════════════════════════

// ReminderInstaller builds reminder jobs from schedule specifications and
// manages their triggers in the scheduler registry.
type ReminderInstaller struct {
	scheduler   *Scheduler
	memberRepo  member.Repository
	checkinRepo checkin.Repository
	messenger   jobs.Messenger
	logger      *slog.Logger
}

// NewReminderInstaller creates a new ReminderInstaller.
func NewReminderInstaller(
	s *Scheduler,
	memberRepo member.Repository,
	checkinRepo checkin.Repository,
	messenger jobs.Messenger,
	logger *slog.Logger,
) *ReminderInstaller {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderInstaller{
		scheduler:   s,
		memberRepo:  memberRepo,
		checkinRepo: checkinRepo,
		messenger:   messenger,
		logger:      logger,
	}
}

// Install replaces the member's reminder trigger with one built from the
// given schedule.
func (ri *ReminderInstaller) Install(spec *reminder.Schedule) error {
	job := jobs.NewReminderJob(
		spec.MemberID,
		ri.memberRepo,
		ri.checkinRepo,
		ri.messenger,
		ri.logger,
		ri.scheduler.Timezone(),
	)
	if err := ri.scheduler.Replace(job, FromSpec(spec, ri.scheduler.Timezone())); err != nil {
		return fmt.Errorf("install reminder trigger: %w", err)
	}
	return nil
}

// Remove drops the member's reminder trigger, if any.
func (ri *ReminderInstaller) Remove(memberID string) {
	ri.scheduler.UnregisterReminders(memberID)
}

// RestoreAll reinstalls triggers for every persisted schedule. A schedule
// that fails to install is logged and skipped so one bad row cannot keep
// the rest of the group without reminders.
func (ri *ReminderInstaller) RestoreAll(ctx context.Context, repo reminder.Repository) (int, error) {
	schedules, err := repo.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore reminder triggers: %w", err)
	}

	restored := 0
	for _, spec := range schedules {
		if err := ri.Install(spec); err != nil {
			ri.logger.Warn("failed to restore reminder trigger",
				"member_id", spec.MemberID, "error", err)
			continue
		}
		restored++
	}

	ri.logger.Info("reminder triggers restored",
		"total", len(schedules), "restored", restored)
	return restored, nil
}
