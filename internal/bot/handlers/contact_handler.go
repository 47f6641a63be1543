package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/protech/repairbot/internal/config"
	"github.com/protech/repairbot/internal/contact"
	"github.com/protech/repairbot/internal/database"
)

// NewContactHandler returns a handler for the /contact command.
func NewContactHandler(deps HandlerDeps) bot.HandlerFunc {
	return contactHandler{deps}.Handle
}

type contactHandler struct {
	deps HandlerDeps
}

func (h contactHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "contact")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Contact handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	form, ok := contact.ParseCommand(commandArgs(update.Message.Text))
	if !ok {
		h.reply(ctx, b, chatID, msgs.ContactUsage)
		return
	}

	log.InfoContext(ctx, "Handling /contact command", "chat_id", chatID, "user_id", update.Message.From.ID)

	inquiry, err := h.deps.Contact.Submit(ctx, form)
	if err != nil && !errors.Is(err, contact.ErrInvalidForm) && !errors.Is(err, contact.ErrRelayFailed) {
		log.ErrorContext(ctx, "Failed to submit contact form", "error", err, "chat_id", chatID)
	}
	h.reply(ctx, b, chatID, contactReply(msgs, inquiry, err))
}

func (h contactHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send contact reply", "error", err, "chat_id", chatID)
	}
}

// contactReply picks the user-facing answer for a Submit outcome.
func contactReply(msgs config.MessagesConfig, inquiry *database.Inquiry, err error) string {
	var verr *contact.ValidationError
	switch {
	case err == nil:
		return fmt.Sprintf(msgs.ContactReceived, inquiry.Reference)
	case errors.As(err, &verr):
		return fmt.Sprintf(msgs.ContactInvalid, verr.Error())
	case errors.Is(err, contact.ErrRelayFailed) && inquiry != nil:
		return fmt.Sprintf(msgs.ContactQueued, inquiry.Reference)
	default:
		return msgs.GeneralError
	}
}

// commandArgs strips the leading "/command" (or "/command@bot") token.
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	if i := strings.IndexAny(text, " \t\n"); i >= 0 {
		return strings.TrimSpace(text[i+1:])
	}
	return ""
}
