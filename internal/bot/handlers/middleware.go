// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly lets shop staff commands through only for the configured admin.
// Other users get the unauthorized notice in private chats; in groups the
// command is dropped without a reply.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	log := deps.Logger.With("middleware", "admin_only")

	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			msg := update.Message
			if msg == nil || msg.From == nil {
				return
			}
			if deps.Config.IsAdmin(msg.From.ID) {
				next(ctx, b, update)
				return
			}

			command, _, _ := strings.Cut(msg.Text, " ")
			log.WarnContext(ctx, "Staff command refused",
				"command", command, "user_id", msg.From.ID, "chat_id", msg.Chat.ID, "chat_type", msg.Chat.Type)

			if msg.Chat.Type != models.ChatTypePrivate {
				return
			}
			if _, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
				ChatID: msg.Chat.ID,
				Text:   deps.Config.Messages.Unauthorized,
			}); err != nil {
				log.ErrorContext(ctx, "Failed to send refusal", "error", err, "chat_id", msg.Chat.ID)
			}
		}
	}
}
