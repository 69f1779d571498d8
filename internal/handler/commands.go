package handler

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/cardtask/internal/engine"
)

func (h *Handler) command(name string) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		msg := update.Message
		if msg == nil || msg.From == nil || msg.Chat.Type != "private" {
			return
		}

		err := h.engine.Transition(ctx, eventUser(msg.From), engine.Command{Name: name})
		if err != nil {
			slog.Error("handle command", "command", name, "user_id", msg.From.ID, "error", err)
			h.reportError(err, "command /"+name)
		}
	}
}
