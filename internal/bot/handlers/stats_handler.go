package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/protech/repairbot/internal/assistant"
	"github.com/protech/repairbot/internal/database"
)

// NewStatsHandler returns a handler for the admin /stats command.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	hits, err := h.deps.Store.GetTopicHits(ctx)
	text := formatStats(msgs.StatsHeader, msgs.StatsEmpty, hits)
	if err != nil {
		log.ErrorContext(ctx, "Failed to get topic hits", "error", err)
		text = msgs.GeneralError
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send stats", "error", err, "chat_id", chatID)
	}
}

func formatStats(header, empty string, hits []database.TopicHit) string {
	if len(hits) == 0 {
		return empty
	}

	var sb strings.Builder
	sb.WriteString(header)
	for _, hit := range hits {
		fmt.Fprintf(&sb, "%s: %d (last %s)\n",
			assistant.Category(hit.Category).Label(), hit.Hits, hit.LastSeenAt.UTC().Format("2006-01-02 15:04"))
	}
	return strings.TrimRight(sb.String(), "\n")
}
