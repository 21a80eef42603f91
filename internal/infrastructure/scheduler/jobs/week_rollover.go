// Package jobs contains implementations of scheduled jobs for the practice hub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEK ROLLOVER JOB
// ══════════════════════════════════════════════════════════════════════════════

// WeekRolloverJob moves the finished week from the active ledger into the
// archive. It runs shortly after midnight on Monday so Sunday-evening
// check-ins always land in the closing week.
//
// Order of operations matters: the database move is the authoritative step
// and any failure there aborts the run. The mirror append and the event
// publish are best-effort — the archive table is already consistent, so
// their failures are logged and the run still counts as successful.
type WeekRolloverJob struct {
	archiveRepo    checkin.ArchiveRepository
	mirror         ArchiveMirror
	eventPublisher shared.EventPublisher
	logger         *slog.Logger

	config WeekRolloverConfig

	lastRunStats atomic.Value // *WeekRolloverStats
}

// ArchiveMirror appends an archived week to the external spreadsheet mirror.
// The mirror is a convenience view, never a source of truth.
type ArchiveMirror interface {
	AppendWeek(ctx context.Context, weekStart time.Time, records []*checkin.Record) error
}

// Rollover modes.
const (
	// RolloverArchive moves the finished week into the archive (default).
	RolloverArchive = "archive"

	// RolloverPurge deletes the finished week without keeping history.
	RolloverPurge = "purge"

	// RolloverOff leaves the ledger untouched.
	RolloverOff = "off"
)

// WeekRolloverConfig contains configuration for the rollover job.
type WeekRolloverConfig struct {
	// Timezone defines where the week boundary falls.
	Timezone *time.Location

	// Mode is one of RolloverArchive, RolloverPurge, RolloverOff.
	Mode string

	// Timeout is the maximum duration for one run.
	Timeout time.Duration
}

// DefaultWeekRolloverConfig returns sensible defaults.
func DefaultWeekRolloverConfig(tz *time.Location) WeekRolloverConfig {
	if tz == nil {
		tz = time.UTC
	}
	return WeekRolloverConfig{
		Timezone: tz,
		Mode:     RolloverArchive,
		Timeout:  2 * time.Minute,
	}
}

// WeekRolloverStats contains statistics from a rollover run.
type WeekRolloverStats struct {
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	WeekStart     time.Time
	RecordsMoved  int
	FullWeekCount int
	MirrorSynced  bool
}

// NewWeekRolloverJob creates a new rollover job. The mirror may be nil when
// the spreadsheet integration is disabled.
func NewWeekRolloverJob(
	archiveRepo checkin.ArchiveRepository,
	mirror ArchiveMirror,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config WeekRolloverConfig,
) *WeekRolloverJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Timezone == nil {
		config.Timezone = time.UTC
	}

	return &WeekRolloverJob{
		archiveRepo:    archiveRepo,
		mirror:         mirror,
		eventPublisher: eventPublisher,
		logger:         logger,
		config:         config,
	}
}

// Name returns the job name.
func (j *WeekRolloverJob) Name() string {
	return "system:week-rollover"
}

// Description returns a human-readable description.
func (j *WeekRolloverJob) Description() string {
	return "Archives the finished week's check-ins and syncs the spreadsheet mirror"
}

// Run executes the rollover. Running it twice for the same week is harmless:
// the second pass finds an empty active week and moves nothing.
func (j *WeekRolloverJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	weekStart := checkin.PreviousWeekStart(startedAt, j.config.Timezone)

	switch j.config.Mode {
	case RolloverOff:
		j.logger.Info("week rollover disabled, leaving ledger untouched",
			"week_start", weekStart.Format("2006-01-02"))
		return nil
	case RolloverPurge:
		purged, err := j.archiveRepo.PurgeWeek(ctx, weekStart)
		if err != nil {
			return fmt.Errorf("%w: purge week %s: %v",
				shared.ErrArchiveStepFailed, weekStart.Format("2006-01-02"), err)
		}
		j.logger.Info("week purged",
			"week_start", weekStart.Format("2006-01-02"),
			"records_deleted", purged,
		)
		return nil
	}

	j.logger.Info("starting week rollover", "week_start", weekStart.Format("2006-01-02"))

	moved, err := j.archiveRepo.ArchiveWeek(ctx, weekStart)
	if err != nil {
		return fmt.Errorf("%w: week %s: %v",
			shared.ErrArchiveStepFailed, weekStart.Format("2006-01-02"), err)
	}

	stats := &WeekRolloverStats{
		StartedAt:     startedAt,
		WeekStart:     weekStart,
		RecordsMoved:  len(moved),
		FullWeekCount: countFullWeeks(moved),
	}

	if j.mirror != nil && len(moved) > 0 {
		if err := j.mirror.AppendWeek(ctx, weekStart, moved); err != nil {
			j.logger.Warn("mirror append failed, archive table remains authoritative",
				"week_start", weekStart.Format("2006-01-02"),
				"error", err,
			)
		} else {
			stats.MirrorSynced = true
		}
	}

	if j.eventPublisher != nil {
		event := shared.NewWeekArchivedEvent(weekStart, stats.RecordsMoved, stats.FullWeekCount)
		if err := j.eventPublisher.Publish(event); err != nil {
			j.logger.Error("failed to publish week archived event", "error", err)
		}
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("week rollover completed",
		"week_start", weekStart.Format("2006-01-02"),
		"records_moved", stats.RecordsMoved,
		"full_weeks", stats.FullWeekCount,
		"mirror_synced", stats.MirrorSynced,
		"duration", stats.Duration.String(),
	)

	return nil
}

// countFullWeeks counts members who filled every slot of the archived week.
func countFullWeeks(records []*checkin.Record) int {
	slots := make(map[string]int)
	for _, rec := range records {
		slots[rec.MemberID]++
	}

	full := 0
	for _, n := range slots {
		if n >= checkin.SlotsPerWeek {
			full++
		}
	}
	return full
}

// LastRunStats returns statistics from the last rollover run.
func (j *WeekRolloverJob) LastRunStats() *WeekRolloverStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*WeekRolloverStats)
}
