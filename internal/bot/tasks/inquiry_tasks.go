package tasks

import (
	"context"
	"fmt"
	"time"
)

// newInquiryRelayTask retries pending contact-form inquiries.
func newInquiryRelayTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", InquiryRelay)

	return func(ctx context.Context) error {
		sent, failed, err := deps.Contact.RelayPending(ctx)
		if err != nil {
			return fmt.Errorf("inquiry relay failed after %d sent: %w", sent, err)
		}
		if sent > 0 || failed > 0 {
			log.InfoContext(ctx, "Relayed pending inquiries", "sent", sent, "failed", failed)
		}
		return nil
	}
}

// newInquiryCleanupTask removes delivered inquiries past their retention.
func newInquiryCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	return func(ctx context.Context) error {
		if _, err := deps.Contact.Purge(ctx, time.Now()); err != nil {
			return fmt.Errorf("inquiry cleanup failed: %w", err)
		}
		return nil
	}
}
