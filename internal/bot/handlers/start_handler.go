package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// startPayloadContact is the deep-link payload (t.me/<bot>?start=contact)
// used by the website's "message us on Telegram" button.
const startPayloadContact = "contact"

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

// Handle welcomes a new customer. A "contact" deep link skips the welcome
// and goes straight to the /contact instructions.
func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	payload := startPayload(msg.Text)
	text := h.deps.Config.Messages.Welcome
	if payload == startPayloadContact {
		text = h.deps.Config.Messages.ContactUsage
	}

	log.InfoContext(ctx, "Customer started a conversation", "chat_id", msg.Chat.ID, "payload", payload)

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: msg.Chat.ID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send welcome", "error", err, "chat_id", msg.Chat.ID)
	}
}

// startPayload returns the lowercased argument of a /start command, if any.
func startPayload(text string) string {
	_, arg, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.ToLower(strings.TrimSpace(arg))
}
