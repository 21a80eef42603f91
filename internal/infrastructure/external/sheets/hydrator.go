package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/member"
)

// ══════════════════════════════════════════════════════════════════════════════
// HYDRATOR - Startup backfill from the mirror sheet
// ══════════════════════════════════════════════════════════════════════════════

// ArchiveSource reads archive rows from the mirror spreadsheet.
type ArchiveSource interface {
	ReadArchive(ctx context.Context) ([]ArchiveRow, error)
}

// HydrationStats summarizes one hydration run.
type HydrationStats struct {
	// RowsRead is the number of parseable data rows found in the sheet.
	RowsRead int

	// Restored is the number of records actually inserted.
	Restored int

	// SkippedUnknownName is the number of rows whose display name does not
	// resolve to any member.
	SkippedUnknownName int
}

// Hydrator backfills the archive table from the mirror sheet. It runs once
// at startup, after the database came up empty or after a restore from the
// spreadsheet. The database always wins: rows already present are skipped,
// nothing is ever overwritten.
//
// Newer sheet rows carry the member ID and are trusted as-is; legacy rows
// only have a display name and are resolved against the roster. Rows naming
// someone unknown are logged and skipped, same as malformed rows inside the
// mapper.
type Hydrator struct {
	source      ArchiveSource
	memberRepo  member.Repository
	archiveRepo checkin.ArchiveRepository
	logger      *slog.Logger
}

// NewHydrator creates a new Hydrator.
func NewHydrator(
	source ArchiveSource,
	memberRepo member.Repository,
	archiveRepo checkin.ArchiveRepository,
	logger *slog.Logger,
) *Hydrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hydrator{
		source:      source,
		memberRepo:  memberRepo,
		archiveRepo: archiveRepo,
		logger:      logger,
	}
}

// Hydrate reads the full mirror archive and inserts missing records.
func (h *Hydrator) Hydrate(ctx context.Context) (*HydrationStats, error) {
	rows, err := h.source.ReadArchive(ctx)
	if err != nil {
		return nil, fmt.Errorf("hydrate: %w", err)
	}

	stats := &HydrationStats{RowsRead: len(rows)}
	if len(rows) == 0 {
		return stats, nil
	}

	idByName, err := h.rosterIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("hydrate: %w", err)
	}

	records := make([]*checkin.Record, 0, len(rows))
	for _, row := range rows {
		memberID := row.MemberID
		if memberID == "" {
			var ok bool
			memberID, ok = idByName[member.DisplayName(row.DisplayName).Normalized()]
			if !ok {
				stats.SkippedUnknownName++
				h.logger.Warn("skipping mirror row for unknown member",
					"display_name", row.DisplayName,
					"week_start", row.WeekStart.Format(dateLayout),
				)
				continue
			}
		}

		rec, err := checkin.NewRecord(
			uuid.New().String(),
			memberID,
			row.DisplayName,
			row.WeekStart,
			row.LocalDate,
			checkin.Slot(row.Slot),
			checkin.Minutes(row.Minutes),
			row.Note,
		)
		if err != nil {
			// parseRow already validated ranges; anything left is a row
			// from an incompatible sheet version.
			h.logger.Warn("skipping invalid mirror row", "error", err)
			continue
		}
		// Legacy rows lack the occurred_at column; anchor those at the
		// end of their local day so ordering stays stable.
		if !row.OccurredAt.IsZero() {
			rec.CreatedAt = row.OccurredAt
		} else {
			rec.CreatedAt = row.LocalDate.Add(23 * time.Hour)
		}
		records = append(records, rec)
	}

	restored, err := h.archiveRepo.RestoreArchive(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("hydrate: %w", err)
	}
	stats.Restored = restored

	h.logger.Info("mirror hydration completed",
		"rows_read", stats.RowsRead,
		"restored", stats.Restored,
		"skipped_unknown", stats.SkippedUnknownName,
	)
	return stats, nil
}

// rosterIndex maps normalized display names to member IDs, including members
// who have left: their archived weeks still belong to them.
func (h *Hydrator) rosterIndex(ctx context.Context) (map[string]string, error) {
	all, err := h.memberRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	idx := make(map[string]string, len(all))
	for _, m := range all {
		idx[m.DisplayName.Normalized()] = m.ID
	}
	return idx, nil
}
