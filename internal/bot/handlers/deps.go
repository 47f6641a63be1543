package handlers

import (
	"log/slog"

	"github.com/protech/repairbot/internal/assistant"
	"github.com/protech/repairbot/internal/config"
	"github.com/protech/repairbot/internal/contact"
	"github.com/protech/repairbot/internal/database"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Responder *assistant.Responder
	Contact   *contact.Service
}
