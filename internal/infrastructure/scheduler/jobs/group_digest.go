package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/member"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// GROUP DIGEST JOB
// ══════════════════════════════════════════════════════════════════════════════

// Messenger delivers formatted messages to Telegram chats.
type Messenger interface {
	SendMarkdown(ctx context.Context, chatID int64, text string) error
}

// GroupDigestJob posts the weekly progress table into the group chat.
//
// The digest fires on Sunday evening, while the week is still open: members
// who are one slot short get a last-day reminder in context, not a verdict
// after the fact.
type GroupDigestJob struct {
	memberRepo  member.Repository
	checkinRepo checkin.Repository
	messenger   Messenger
	logger      *slog.Logger

	config GroupDigestConfig

	lastRunStats atomic.Value // *GroupDigestStats
}

// GroupDigestConfig contains configuration for the group digest job.
type GroupDigestConfig struct {
	// GroupChatID is the Telegram chat that receives the digest.
	GroupChatID int64

	// Timezone defines the current week boundary.
	Timezone *time.Location

	// Timeout is the maximum duration for one run.
	Timeout time.Duration
}

// DefaultGroupDigestConfig returns sensible defaults.
func DefaultGroupDigestConfig(chatID int64, tz *time.Location) GroupDigestConfig {
	if tz == nil {
		tz = time.UTC
	}
	return GroupDigestConfig{
		GroupChatID: chatID,
		Timezone:    tz,
		Timeout:     time.Minute,
	}
}

// GroupDigestStats contains statistics from a digest run.
type GroupDigestStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	WeekStart   time.Time
	Members     int
	FullWeeks   int
}

// NewGroupDigestJob creates a new group digest job.
func NewGroupDigestJob(
	memberRepo member.Repository,
	checkinRepo checkin.Repository,
	messenger Messenger,
	logger *slog.Logger,
	config GroupDigestConfig,
) *GroupDigestJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Timezone == nil {
		config.Timezone = time.UTC
	}

	return &GroupDigestJob{
		memberRepo:  memberRepo,
		checkinRepo: checkinRepo,
		messenger:   messenger,
		logger:      logger,
		config:      config,
	}
}

// Name returns the job name.
func (j *GroupDigestJob) Name() string {
	return "group:weekly-digest"
}

// Description returns a human-readable description.
func (j *GroupDigestJob) Description() string {
	return "Posts the current week's progress table into the group chat"
}

// Run executes the digest job.
func (j *GroupDigestJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	weekStart := checkin.WeekStartOf(startedAt, j.config.Timezone)

	members, err := j.memberRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}

	roster := make([]progress.RosterEntry, 0, len(members))
	for _, m := range members {
		if !m.Status.CountsInTables() {
			continue
		}
		roster = append(roster, progress.RosterEntry{
			MemberID:    m.ID,
			DisplayName: string(m.DisplayName),
		})
	}

	records, err := j.checkinRepo.GetWeekAll(ctx, weekStart)
	if err != nil {
		return fmt.Errorf("load week records: %w", err)
	}

	rows := progress.BuildWeeklyTable(roster, records)
	message := j.formatDigestMessage(weekStart, rows)

	if err := j.messenger.SendMarkdown(ctx, j.config.GroupChatID, message); err != nil {
		return fmt.Errorf("send group digest: %w", err)
	}

	stats := &GroupDigestStats{
		StartedAt: startedAt,
		WeekStart: weekStart,
		Members:   len(rows),
	}
	for _, row := range rows {
		if row.IsFull() {
			stats.FullWeeks++
		}
	}
	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("group digest sent",
		"week_start", weekStart.Format("2006-01-02"),
		"members", stats.Members,
		"full_weeks", stats.FullWeeks,
		"duration", stats.Duration.String(),
	)

	return nil
}

// formatDigestMessage formats the weekly table into a Telegram message.
func (j *GroupDigestJob) formatDigestMessage(weekStart time.Time, rows []progress.TableRow) string {
	var sb strings.Builder

	weekEnd := weekStart.AddDate(0, 0, 6)
	sb.WriteString("📋 *Неделя ")
	sb.WriteString(weekStart.Format("02.01"))
	sb.WriteString(" – ")
	sb.WriteString(weekEnd.Format("02.01"))
	sb.WriteString("*\n\n")

	fullCount := 0
	for _, row := range rows {
		sb.WriteString(formatSlotMarks(row.Filled))
		sb.WriteString("  ")
		sb.WriteString(row.DisplayName)
		if row.IsFull() {
			sb.WriteString(" 🎉")
			fullCount++
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	switch {
	case len(rows) > 0 && fullCount == len(rows):
		sb.WriteString("Вся группа закрыла неделю! 🔥\n")
	case fullCount > 0:
		sb.WriteString(fmt.Sprintf("Закрыли неделю: %d из %d.\n", fullCount, len(rows)))
		sb.WriteString("_Сегодня последний день — ещё можно успеть!_\n")
	default:
		sb.WriteString("_Сегодня последний день недели — ещё можно успеть!_\n")
	}

	return sb.String()
}

// formatSlotMarks renders the three slots as filled/empty marks.
func formatSlotMarks(filled [checkin.SlotsPerWeek]bool) string {
	var sb strings.Builder
	for _, f := range filled {
		if f {
			sb.WriteString("✅")
		} else {
			sb.WriteString("⬜")
		}
	}
	return sb.String()
}

// LastRunStats returns statistics from the last digest run.
func (j *GroupDigestJob) LastRunStats() *GroupDigestStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*GroupDigestStats)
}
