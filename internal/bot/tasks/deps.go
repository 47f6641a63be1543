// Package tasks implements the scheduled jobs of the repair assistant:
// relaying the contact outbox, purging delivered inquiries and SQLite upkeep.
package tasks

import (
	"log/slog"

	"github.com/protech/repairbot/internal/config"
	"github.com/protech/repairbot/internal/contact"
	"github.com/protech/repairbot/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   database.Store
	Contact *contact.Service
	Config  *config.Config
}
