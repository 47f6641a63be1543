package tasks

import (
	"context"
	"fmt"
	"time"
)

// backlogSampleSize caps the queued-inquiry count logged after compaction.
const backlogSampleSize = 1000

// newSQLMaintenanceTask compacts the inquiry store and reports how many
// inquiries are still waiting for the relay afterwards.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", SQLMaintenance)

	return func(ctx context.Context) error {
		started := time.Now()
		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "Inquiry store compaction failed", "error", err, "duration", time.Since(started))
			return fmt.Errorf("compact inquiry store: %w", err)
		}

		// Informational only; a failed count does not fail the task.
		attrs := []any{"duration", time.Since(started)}
		if pending, err := deps.Store.GetPendingInquiries(ctx, backlogSampleSize); err != nil {
			log.WarnContext(ctx, "Could not count queued inquiries", "error", err)
		} else {
			attrs = append(attrs, "queued_inquiries", len(pending))
		}

		log.InfoContext(ctx, "Inquiry store compacted", attrs...)
		return nil
	}
}
