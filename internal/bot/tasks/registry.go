package tasks

import (
	"context"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// Task names as used under scheduler.tasks in the configuration.
const (
	InquiryRelay   = "inquiry_relay"
	InquiryCleanup = "inquiry_cleanup"
	SQLMaintenance = "sql_maintenance"
)

// RegisterAllTasks initializes and returns a map of all registered scheduled tasks,
// keyed by the name used in the configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		InquiryRelay:   newInquiryRelayTask(deps),
		InquiryCleanup: newInquiryCleanupTask(deps),
		SQLMaintenance: newSQLMaintenanceTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
