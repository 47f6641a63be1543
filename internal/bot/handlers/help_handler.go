package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/protech/repairbot/internal/assistant"
)

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

// helpHandler processes the /help command using injected dependencies.
type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Help handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /help command", "chat_id", update.Message.Chat.ID, "user_id", update.Message.From.ID)

	text := helpText(h.deps.Config.Messages.Help, h.deps.Responder.Rules())
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: update.Message.Chat.ID, Text: text})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send help message", "error", err, "chat_id", update.Message.Chat.ID)
	}
}

// helpText appends the topics the assistant knows about to the help message.
func helpText(intro string, rules []assistant.Rule) string {
	var sb strings.Builder
	sb.WriteString(intro)
	sb.WriteString("\n\nTopics:\n")
	for _, rule := range rules {
		sb.WriteString("• ")
		sb.WriteString(rule.Category.Label())
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
