package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	sendMessageTimeout = 10 * time.Second
	dbSaveTimeout      = 5 * time.Second
)

// NewAssistantHandler returns the default handler: every plain text
// message is answered by the rule-based assistant.
func NewAssistantHandler(deps HandlerDeps) bot.HandlerFunc {
	return assistantHandler{deps}.Handle
}

type assistantHandler struct {
	deps HandlerDeps
}

func (h assistantHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "assistant")

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	text := msg.Text
	if strings.TrimSpace(text) == "" {
		log.DebugContext(ctx, "Ignoring message without text", "update_id", update.ID)
		return
	}
	if strings.HasPrefix(text, "/") {
		log.DebugContext(ctx, "Ignoring unknown command", "command", strings.Fields(text)[0])
		return
	}

	chatID := msg.Chat.ID
	_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})

	if !sleepCtx(ctx, h.deps.Config.Assistant.ReplyDelay) {
		return
	}

	result := h.deps.Responder.Match(text)
	log.DebugContext(ctx, "Classified message", "chat_id", chatID, "category", result.Category)

	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	_, err := b.SendMessage(sendCtx, &bot.SendMessageParams{ChatID: chatID, Text: result.Reply})
	cancel()
	if err != nil {
		log.ErrorContext(ctx, "Failed to send assistant reply", "error", err, "chat_id", chatID)
		return
	}

	saveCtx, cancel := context.WithTimeout(ctx, dbSaveTimeout)
	defer cancel()
	if err := h.deps.Store.RecordTopicHit(saveCtx, string(result.Category), time.Now()); err != nil {
		log.WarnContext(ctx, "Failed to record topic hit", "error", err, "category", result.Category)
	}
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
